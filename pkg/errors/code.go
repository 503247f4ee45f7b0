package errors

import "net/http"

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 11000-11999: Authentication & Account errors
// 12000-12999: Problem (grievance) errors
// 16000-16999: Permission errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	Unauthorized        ErrorCode = 10004
	Forbidden           ErrorCode = 10005
	TooManyRequests     ErrorCode = 10006
	ServiceUnavailable  ErrorCode = 10007
	Timeout             ErrorCode = 10008

	// Database errors (10100-10199)
	DatabaseError       ErrorCode = 10100
	RecordNotFound      ErrorCode = 10101
	RecordAlreadyExists ErrorCode = 10102
	TransactionFailed   ErrorCode = 10103

	// Cache errors (10200-10299)
	CacheError     ErrorCode = 10200
	CacheMiss      ErrorCode = 10201
	CacheSetFailed ErrorCode = 10202

	// Validation errors (10300-10399)
	ValidationFailed   ErrorCode = 10300
	InvalidFormat      ErrorCode = 10301
	InvalidValue       ErrorCode = 10302
	RequiredFieldEmpty ErrorCode = 10303

	// ========== Authentication & Account Errors (11000-11999) ==========

	// Authentication (11000-11099)
	InvalidCredentials    ErrorCode = 11000
	UserNotFound          ErrorCode = 11001
	PasswordMismatch      ErrorCode = 11002
	TokenExpired          ErrorCode = 11003
	TokenInvalid          ErrorCode = 11004
	TokenGenerationFailed ErrorCode = 11005
	TokenMissing          ErrorCode = 11006
	TokenRevoked          ErrorCode = 11007

	// Registration (11100-11199)
	SidAlreadyExists ErrorCode = 11100
	InvalidSid       ErrorCode = 11101
	InvalidName      ErrorCode = 11102
	InvalidPassword  ErrorCode = 11103

	// Account operations (11200-11299)
	UserUpdateFailed ErrorCode = 11200

	// ========== Problem Errors (12000-12999) ==========

	ProblemNotFound     ErrorCode = 12000
	ProblemCreateFailed ErrorCode = 12001
	ProblemUpdateFailed ErrorCode = 12002
	InvalidStatus       ErrorCode = 12003
	InvalidTag          ErrorCode = 12004
	TooManyTags         ErrorCode = 12005

	// ========== Permission Errors (16000-16999) ==========

	PermissionDenied ErrorCode = 16000
	InvalidRole      ErrorCode = 16001
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	// System & Common
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	Unauthorized:        "Unauthorized",
	Forbidden:           "Access forbidden",
	TooManyRequests:     "Too many requests, please try again later",
	ServiceUnavailable:  "Service temporarily unavailable",
	Timeout:             "Request timeout",

	// Database
	DatabaseError:       "Database operation failed",
	RecordNotFound:      "Record not found in database",
	RecordAlreadyExists: "Record already exists",
	TransactionFailed:   "Database transaction failed",

	// Cache
	CacheError:     "Cache operation failed",
	CacheMiss:      "Cache miss",
	CacheSetFailed: "Failed to set cache",

	// Validation
	ValidationFailed:   "Validation failed",
	InvalidFormat:      "Invalid format",
	InvalidValue:       "Invalid value",
	RequiredFieldEmpty: "Required field is empty",

	// Authentication
	InvalidCredentials:    "Invalid sid or password",
	UserNotFound:          "User not found",
	PasswordMismatch:      "The old password does not match",
	TokenExpired:          "Unauthorized - token has expired",
	TokenInvalid:          "Unauthorized - invalid token",
	TokenGenerationFailed: "Failed to generate token",
	TokenMissing:          "Unauthorized - token not provided",
	TokenRevoked:          "Unauthorized - token has been revoked",

	// Registration
	SidAlreadyExists: "A user with this sid already exists",
	InvalidSid:       "Invalid sid",
	InvalidName:      "Invalid name",
	InvalidPassword:  "Invalid password",

	// Account
	UserUpdateFailed: "Failed to update user",

	// Problem
	ProblemNotFound:     "Problem not found",
	ProblemCreateFailed: "Failed to create problem",
	ProblemUpdateFailed: "Failed to update problem",
	InvalidStatus:       "Invalid problem status",
	InvalidTag:          "Invalid tag",
	TooManyTags:         "Too many tags",

	// Permission
	PermissionDenied: "Permission denied",
	InvalidRole:      "Invalid role",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return http.StatusOK
	case c == PasswordMismatch:
		return http.StatusBadRequest
	case c == SidAlreadyExists, c == RecordAlreadyExists:
		return http.StatusConflict
	case c >= 11000 && c < 11100: // Authentication errors
		return http.StatusUnauthorized
	case c == Unauthorized:
		return http.StatusUnauthorized
	case c == Forbidden, c == PermissionDenied:
		return http.StatusForbidden
	case c == NotFound, c == RecordNotFound, c == ProblemNotFound:
		return http.StatusNotFound
	case c == TooManyRequests:
		return http.StatusTooManyRequests
	case c == ServiceUnavailable:
		return http.StatusServiceUnavailable
	case c == Timeout:
		return http.StatusGatewayTimeout
	case c >= 10300 && c < 10400: // Validation errors
		return http.StatusBadRequest
	case c >= 11100 && c < 11200, c == InvalidParams, c == InvalidStatus, c == InvalidTag,
		c == TooManyTags, c == InvalidRole:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
