package dto

import (
	"errors"
	"net/http"
	"testing"
)

func TestAPIError(t *testing.T) {
	t.Run("NewAPIError", func(t *testing.T) {
		err := NewAPIError(http.StatusNotFound, ErrorCodeNotFound, "listing not found")
		if err.StatusCode() != http.StatusNotFound {
			t.Errorf("StatusCode() = %d", err.StatusCode())
		}
		if err.Code() != ErrorCodeNotFound {
			t.Errorf("Code() = %s", err.Code())
		}
		if err.Error() != "listing not found" {
			t.Errorf("Error() = %q", err.Error())
		}
		if err.Details() != nil {
			t.Error("expected no details")
		}
	})
	t.Run("WithDetails merges", func(t *testing.T) {
		err := BadRequest("bad").WithDetail("field", "price").WithDetails(map[string]any{"reason": "negative"})
		if err.Details()["field"] != "price" || err.Details()["reason"] != "negative" {
			t.Errorf("Details() = %v", err.Details())
		}
	})
	t.Run("Wrap", func(t *testing.T) {
		inner := errors.New("disk full")
		err := InternalWithError("write failed", inner)
		if !errors.Is(err, inner) {
			t.Error("expected wrapped error")
		}
		if err.Error() != "write failed: disk full" {
			t.Errorf("Error() = %q", err.Error())
		}
	})
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *APIError
		status int
		code   ErrorCode
	}{
		{"not found", NotFound("listing"), http.StatusNotFound, ErrorCodeNotFound},
		{"bad request", BadRequest("x"), http.StatusBadRequest, ErrorCodeValidationFailed},
		{"missing field", MissingField("title"), http.StatusBadRequest, ErrorCodeMissingField},
		{"invalid input", InvalidInput("sort key", "cheapest"), http.StatusBadRequest, ErrorCodeInvalidInput},
		{"remote failure", RemoteFailure("boom"), http.StatusBadGateway, ErrorCodeRemoteFailure},
		{"unauthorized", Unauthorized(), http.StatusUnauthorized, ErrorCodeUnauthorized},
		{"rate limit", RateLimitExceeded(3), http.StatusTooManyRequests, ErrorCodeRateLimitExceeded},
		{"payload", PayloadTooLarge(10), http.StatusRequestEntityTooLarge, ErrorCodePayloadTooLarge},
		{"internal", Internal("x"), http.StatusInternalServerError, ErrorCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.StatusCode() != tt.status {
				t.Errorf("StatusCode() = %d, want %d", tt.err.StatusCode(), tt.status)
			}
			if tt.err.Code() != tt.code {
				t.Errorf("Code() = %s, want %s", tt.err.Code(), tt.code)
			}
			var ews ErrorWithStatus
			if !errors.As(error(tt.err), &ews) {
				t.Error("expected ErrorWithStatus")
			}
		})
	}
	if got := InvalidInput("sort key", "cheapest").Error(); got != `invalid sort key "cheapest"` {
		t.Errorf("InvalidInput message = %q", got)
	}
	if got := MissingField("title").Details()["field"]; got != "title" {
		t.Errorf("MissingField detail = %v", got)
	}
}
