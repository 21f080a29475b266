package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeClient struct {
	lastReq *Request
	resp    *Response
	err     error
	delay   time.Duration
}

func (f *fakeClient) Synchronous(ctx context.Context, req *Request) (*Response, error) {
	f.lastReq = req
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func TestGatewayComplete(t *testing.T) {
	fake := &fakeClient{resp: &Response{Content: "hello back"}}
	g := NewGateway(fake, "test-model", 256, 0, zerolog.Nop())

	got, err := g.Complete(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "hello back" {
		t.Errorf("Complete = %q, want %q", got, "hello back")
	}

	if fake.lastReq.Model != "test-model" {
		t.Errorf("model = %q", fake.lastReq.Model)
	}
	if fake.lastReq.MaxTokens != 256 {
		t.Errorf("max tokens = %d", fake.lastReq.MaxTokens)
	}
	if len(fake.lastReq.Messages) != 1 || fake.lastReq.Messages[0].Role != RoleUser {
		t.Errorf("unexpected messages %+v", fake.lastReq.Messages)
	}
}

func TestGatewayCompleteEmptyPrompt(t *testing.T) {
	g := NewGateway(&fakeClient{}, "test-model", 256, 0, zerolog.Nop())

	if _, err := g.Complete(context.Background(), "   "); !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("Complete = %v, want ErrGenerationFailed", err)
	}
}

func TestGatewayCompleteWrapsClientErrors(t *testing.T) {
	fake := &fakeClient{err: errors.New("provider exploded")}
	g := NewGateway(fake, "test-model", 256, 0, zerolog.Nop())

	_, err := g.Complete(context.Background(), "hello")
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("Complete = %v, want ErrGenerationFailed", err)
	}
}

func TestGatewayCompletePreservesProviderErrorType(t *testing.T) {
	rateLimited := &Error{Type: ErrorTypeRateLimit, Message: "rate limit exceeded", Retryable: true}
	g := NewGateway(&fakeClient{err: rateLimited}, "test-model", 256, 0, zerolog.Nop())

	_, err := g.Complete(context.Background(), "hello")
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("Complete = %v, want ErrGenerationFailed", err)
	}
	if !IsRateLimitError(err) {
		t.Errorf("provider error category lost through the gateway: %v", err)
	}
}

func TestGatewayCompleteTimeout(t *testing.T) {
	fake := &fakeClient{resp: &Response{Content: "too late"}, delay: 200 * time.Millisecond}
	g := NewGateway(fake, "test-model", 256, 20*time.Millisecond, zerolog.Nop())

	start := time.Now()
	_, err := g.Complete(context.Background(), "hello")
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("Complete = %v, want ErrGenerationFailed", err)
	}
	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Errorf("timeout did not bound the call: %v", elapsed)
	}
}
