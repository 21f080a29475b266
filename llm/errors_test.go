package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestIsRateLimitError(t *testing.T) {
	rateLimited := &Error{Type: ErrorTypeRateLimit, Message: "rate limit exceeded", Retryable: true}
	if !IsRateLimitError(rateLimited) {
		t.Error("expected IsRateLimitError to match a rate-limit error")
	}
	if !IsRateLimitError(fmt.Errorf("wrapped: %w", rateLimited)) {
		t.Error("expected IsRateLimitError to match through wrapping")
	}

	provider := &Error{Type: ErrorTypeProvider, Message: "server error"}
	if IsRateLimitError(provider) {
		t.Error("expected IsRateLimitError to reject a provider error")
	}
	if IsRateLimitError(errors.New("plain error")) {
		t.Error("expected IsRateLimitError to reject a plain error")
	}
}

func TestIsTimeoutError(t *testing.T) {
	timeout := &Error{Type: ErrorTypeTimeout, Message: "deadline exceeded"}
	if !IsTimeoutError(timeout) {
		t.Error("expected IsTimeoutError to match a timeout error")
	}
	if !IsTimeoutError(context.DeadlineExceeded) {
		t.Error("expected IsTimeoutError to match context.DeadlineExceeded")
	}
	if IsTimeoutError(errors.New("plain error")) {
		t.Error("expected IsTimeoutError to reject a plain error")
	}
}

func TestErrorUnwrap(t *testing.T) {
	original := errors.New("original error")
	wrapped := &Error{Type: ErrorTypeProvider, Message: "wrapped", ProviderErr: original}
	if !errors.Is(wrapped, original) {
		t.Error("expected Error to unwrap to the provider error")
	}
	if wrapped.Error() != "wrapped: original error" {
		t.Errorf("unexpected message %q", wrapped.Error())
	}
}
