package errors

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestNewError(t *testing.T) {
	t.Parallel()

	t.Run("creates error with all defaults", func(t *testing.T) {
		err := NewError(ErrCodeInvalidConfig, "configuration is invalid")
		if err == nil {
			t.Fatal("NewError returned nil")
		}
		if err.Code != ErrCodeInvalidConfig {
			t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidConfig)
		}
		if err.Message != "configuration is invalid" {
			t.Errorf("Message = %q, want %q", err.Message, "configuration is invalid")
		}
		if err.Category != CategoryConfiguration {
			t.Errorf("Category = %v, want %v", err.Category, CategoryConfiguration)
		}
		if err.Details == nil {
			t.Error("Details map is nil")
		}
		if err.Timestamp.IsZero() {
			t.Error("Timestamp not set")
		}
	})

	t.Run("sets correct retryable defaults", func(t *testing.T) {
		if !NewError(ErrCodeTransportFailure, "read timeout").Retryable {
			t.Error("TransportFailure should be retryable by default")
		}
		for _, code := range []ErrorCode{ErrCodeEmptyBody, ErrCodeDumpPathInvalid, ErrCodeParseFailure, ErrCodeActuatorClientFailure} {
			if NewError(code, "x").Retryable {
				t.Errorf("%s should not be retryable by default", code)
			}
		}
	})
}

func TestGetCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code     ErrorCode
		expected ErrorCategory
	}{
		{ErrCodeInvalidConfig, CategoryConfiguration},
		{ErrCodeDumpPathUnavailable, CategoryConfiguration},
		{ErrCodeDumpPathInvalid, CategoryConfiguration},
		{ErrCodeTransportFailure, CategoryTransport},
		{ErrCodeUnexpectedStatus, CategoryTransport},
		{ErrCodeEmptyBody, CategoryTransport},
		{ErrCodeActuatorClientFailure, CategoryOperation},
		{ErrCodeParseFailure, CategoryOperation},
		{ErrCodeOperationCanceled, CategoryOperation},
		{ErrCodeUploadFailed, CategoryStorage},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if result := GetCategory(tt.code); result != tt.expected {
				t.Errorf("GetCategory(%v) = %v, want %v", tt.code, result, tt.expected)
			}
		})
	}
}

func TestNewUnexpectedStatus(t *testing.T) {
	t.Parallel()

	for code := 100; code < 600; code++ {
		err := NewUnexpectedStatus(code, "status")
		want := code == 408 || code == 425 || code == 429 || code == 500 ||
			code == 502 || code == 503 || code == 504
		if err.Retryable != want {
			t.Errorf("status %d: Retryable = %v, want %v", code, err.Retryable, want)
		}
		if err.HTTPStatus != code {
			t.Errorf("status %d: HTTPStatus = %d", code, err.HTTPStatus)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	err := NewActuatorClientFailure("cannot get http://localhost/env", io.ErrUnexpectedEOF).
		WithComponent("actuator").
		WithOperation("queryEnv")

	msg := err.Error()
	for _, want := range []string{"[actuator:queryEnv]", "ACTUATOR_CLIENT_FAILURE", "cannot get", "unexpected EOF"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, should contain %q", msg, want)
		}
	}

	if !strings.Contains(err.String(), "Cause=") {
		t.Errorf("String() = %q, should contain cause", err.String())
	}
}

func TestErrorsIsAndAs(t *testing.T) {
	t.Parallel()

	inner := NewUnexpectedStatus(503, "Service Unavailable")
	wrapped := fmt.Errorf("attempt 3: %w", NewActuatorClientFailure("giving up", inner))

	if !errors.Is(wrapped, NewError(ErrCodeActuatorClientFailure, "")) {
		t.Error("errors.Is should match on code")
	}
	if !HasCode(wrapped, ErrCodeUnexpectedStatus) {
		t.Error("HasCode should find the wrapped status error")
	}
	if HasCode(wrapped, ErrCodeEmptyBody) {
		t.Error("HasCode should not match an absent code")
	}
	if HasCode(errors.New("plain"), ErrCodeEmptyBody) {
		t.Error("HasCode should be false for plain errors")
	}

	var probeErr *ProbeError
	if !errors.As(wrapped, &probeErr) {
		t.Fatal("errors.As should find a ProbeError")
	}
	if probeErr.Code != ErrCodeActuatorClientFailure {
		t.Errorf("outermost ProbeError code = %s", probeErr.Code)
	}
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	if !IsRetryable(fmt.Errorf("wrapped: %w", NewTransportFailure("dial", io.EOF))) {
		t.Error("wrapped transport failure should be retryable")
	}
	if IsRetryable(NewUnexpectedStatus(404, "Not Found")) {
		t.Error("404 should not be retryable")
	}
	if IsRetryable(io.EOF) {
		t.Error("plain errors are not retryable")
	}
}

func TestIsFatal(t *testing.T) {
	t.Parallel()

	if !IsFatal(ErrCodeDumpPathInvalid) || !IsFatal(ErrCodeDumpPathUnavailable) {
		t.Error("dump path errors must be fatal")
	}
	if IsFatal(ErrCodeEmptyBody) {
		t.Error("EMPTY_BODY must not be fatal")
	}
}
