package errors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	. "campusdesk/pkg/errors"
)

func TestErrorCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code       ErrorCode
		wantStatus int
	}{
		{Success, http.StatusOK},
		{InvalidParams, http.StatusBadRequest},
		{RequiredFieldEmpty, http.StatusBadRequest},
		{InvalidSid, http.StatusBadRequest},
		{InvalidStatus, http.StatusBadRequest},
		{PasswordMismatch, http.StatusBadRequest},
		{Unauthorized, http.StatusUnauthorized},
		{TokenMissing, http.StatusUnauthorized},
		{TokenInvalid, http.StatusUnauthorized},
		{TokenExpired, http.StatusUnauthorized},
		{TokenRevoked, http.StatusUnauthorized},
		{InvalidCredentials, http.StatusUnauthorized},
		{UserNotFound, http.StatusUnauthorized},
		{Forbidden, http.StatusForbidden},
		{NotFound, http.StatusNotFound},
		{ProblemNotFound, http.StatusNotFound},
		{SidAlreadyExists, http.StatusConflict},
		{TooManyRequests, http.StatusTooManyRequests},
		{DatabaseError, http.StatusInternalServerError},
		{InternalServerError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code.Message(), func(t *testing.T) {
			if got := tt.code.HTTPStatus(); got != tt.wantStatus {
				t.Errorf("HTTPStatus() = %v, want %v", got, tt.wantStatus)
			}
		})
	}
}

func TestNew(t *testing.T) {
	err := New(ProblemNotFound)

	if err.Code != ProblemNotFound {
		t.Errorf("Code = %v, want %v", err.Code, ProblemNotFound)
	}
	if err.Error() != ProblemNotFound.Message() {
		t.Errorf("Error() = %v, want %v", err.Error(), ProblemNotFound.Message())
	}
}

func TestWrap(t *testing.T) {
	originalErr := errors.New("connection refused")
	wrappedErr := Wrap(originalErr, DatabaseError)

	if wrappedErr.Code != DatabaseError {
		t.Errorf("Code = %v, want %v", wrappedErr.Code, DatabaseError)
	}
	if !errors.Is(wrappedErr, originalErr) {
		t.Error("wrapped error should match original with errors.Is")
	}
	if wrappedErr.Error() != DatabaseError.Message() {
		t.Errorf("cause leaked into message: %q", wrappedErr.Error())
	}
	if Wrap(nil, DatabaseError) != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestWrap_KeepsSameCode(t *testing.T) {
	inner := New(TokenExpired)
	if got := Wrap(inner, TokenExpired); got != inner {
		t.Error("wrapping with the same code should return the original error")
	}
	outer := Wrap(inner, Unauthorized)
	if outer.Code != Unauthorized || inner.Code != TokenExpired {
		t.Error("wrapping with a new code must not mutate the inner error")
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{name: "nil error", err: nil, want: Success},
		{name: "custom error", err: New(Forbidden), want: Forbidden},
		{name: "fmt wrapped", err: fmt.Errorf("handler: %w", New(ProblemNotFound)), want: ProblemNotFound},
		{name: "standard error", err: errors.New("standard error"), want: InternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIs(t *testing.T) {
	err := New(SidAlreadyExists)

	if !Is(err, SidAlreadyExists) {
		t.Error("Is() should return true for matching code")
	}
	if Is(err, DatabaseError) {
		t.Error("Is() should return false for non-matching code")
	}
	if Is(nil, SidAlreadyExists) {
		t.Error("Is() should return false for nil error")
	}
}

func TestValidationError(t *testing.T) {
	err := ValidationError("title", "is required")
	if err.Code != ValidationFailed {
		t.Errorf("Code = %v, want %v", err.Code, ValidationFailed)
	}
	if err.Error() != "title is required" {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.Details["field"] != "title" {
		t.Error("field detail not set")
	}
}
