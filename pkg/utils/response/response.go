package response

import (
	"net/http"

	"campusdesk/pkg/errors"
	"campusdesk/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Envelope keys reserved by every response body.
const (
	keySuccess = "success"
	keyMessage = "message"
	keyTraceID = "trace_id"
)

// Payload holds the top-level fields merged into the envelope next to success and message.
type Payload map[string]interface{}

// Envelope builds {success, message?, trace_id?, ...payload}.
// Payload keys never override the reserved envelope keys.
func Envelope(c *gin.Context, success bool, message string, payload Payload) gin.H {
	body := make(gin.H, len(payload)+3)
	for k, v := range payload {
		body[k] = v
	}
	body[keySuccess] = success
	if message != "" {
		body[keyMessage] = message
	} else {
		delete(body, keyMessage)
	}
	if traceID := getTraceID(c); traceID != "" {
		body[keyTraceID] = traceID
	} else {
		delete(body, keyTraceID)
	}
	return body
}

// Success sends a 200 response with the payload merged into the envelope
func Success(c *gin.Context, message string, payload Payload) {
	c.JSON(http.StatusOK, Envelope(c, true, message, payload))
}

// Created sends a 201 response with the payload merged into the envelope
func Created(c *gin.Context, message string, payload Payload) {
	c.JSON(http.StatusCreated, Envelope(c, true, message, payload))
}

// Error sends an error response.
// The status comes from the error code; causes of internal failures are logged, never returned.
func Error(c *gin.Context, err error) {
	customErr := errors.GetError(err)
	status := customErr.Code.HTTPStatus()

	message := customErr.Error()
	fields := []zap.Field{
		zap.Int("code", int(customErr.Code)),
		zap.Int("status", status),
		zap.String("message", message),
	}
	if len(customErr.Details) > 0 {
		fields = append(fields, zap.Any("details", customErr.Details))
	}
	if customErr.Err != nil {
		fields = append(fields, zap.Error(customErr.Err))
	}

	if status >= http.StatusInternalServerError {
		fields = append(fields, zap.String("stack", customErr.Stack))
		logger.Error(c.Request.Context(), "request failed", fields...)
		message = customErr.Code.Message()
	} else {
		logger.Warn(c.Request.Context(), "request rejected", fields...)
	}

	c.JSON(status, Envelope(c, false, message, nil))
}

// ErrorWithCode sends an error response with specific error code
func ErrorWithCode(c *gin.Context, code errors.ErrorCode, message string) {
	if message == "" {
		message = code.Message()
	}
	Error(c, errors.New(code).WithMessage(message))
}

// BadRequest sends a 400 bad request error
func BadRequest(c *gin.Context, message string) {
	ErrorWithCode(c, errors.InvalidParams, message)
}

// getTraceID extracts trace ID from context
func getTraceID(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if traceID, ok := c.Get("trace_id"); ok {
		if s, ok := traceID.(string); ok {
			return s
		}
	}
	return ""
}

// AbortWithError aborts the request and sends error response
func AbortWithError(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

// AbortWithErrorCode aborts the request with error code
func AbortWithErrorCode(c *gin.Context, code errors.ErrorCode, message string) {
	ErrorWithCode(c, code, message)
	c.Abort()
}
