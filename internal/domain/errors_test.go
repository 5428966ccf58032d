package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain error", errors.New("boom"), EINTERNAL},
		{"domain error", NotFound("user.get", "user", "a@b.c"), ENOTFOUND},
		{"wrapped domain error", fmt.Errorf("outer: %w", QuotaExceeded("op", 3, 3)), EQUOTA},
		{"validation error", NewValidationError("op", "name", "required"), EINVALID},
		{"storage", StorageUnavailable(errors.New("conn refused"), "op"), EUNAVAILABLE},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCode(tt.err); got != tt.want {
				t.Errorf("ErrorCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorMessage_HidesCause(t *testing.T) {
	cause := errors.New("pq: password authentication failed for user jyotai")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"internal with message", Internal(cause, "op", "Failed to fetch gallery"), "Failed to fetch gallery"},
		{"internal without message", Internal(cause, "op", ""), genericMessage},
		{"storage", StorageUnavailable(cause, "op"), genericMessage},
		{"upstream", Upstream(cause, "op", "Failed to generate prediction."), "Failed to generate prediction."},
		{"plain", cause, genericMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorMessage(tt.err); got != tt.want {
				t.Errorf("ErrorMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	ve := NewValidationError("op", "type", "type is required")
	if got := ve.Message(); got != "type is required" {
		t.Errorf("Message() = %q", got)
	}

	ve.Summary = "Missing required fields."
	if got := ErrorMessage(ve); got != "Missing required fields." {
		t.Errorf("ErrorMessage() = %q", got)
	}
}

func TestIsServerSide(t *testing.T) {
	for _, code := range []string{EINTERNAL, EUPSTREAM, ETIMEOUT, EUNAVAILABLE} {
		if !IsServerSide(code) {
			t.Errorf("IsServerSide(%q) = false", code)
		}
	}
	for _, code := range []string{EINVALID, EFORBIDDEN, EQUOTA, ENOTFOUND, EMETHOD, ERATELIMIT} {
		if IsServerSide(code) {
			t.Errorf("IsServerSide(%q) = true", code)
		}
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("deadline")
	err := UpstreamTimeout(cause, "predict", "timed out")
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if ErrorOp(err) != "predict" {
		t.Errorf("ErrorOp() = %q", ErrorOp(err))
	}
}
