package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	commonerrors "github.com/AlibekovAA/postgraph/internal/common/errors"
)

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 2, Timeout: time.Second, ResetAfter: time.Minute})
	boom := errors.New("connection refused")

	for i := 0; i < 2; i++ {
		if err := cb.Call(context.Background(), func(context.Context) error { return boom }); !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
	}

	called := false
	err := cb.Call(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	if called {
		t.Fatal("fn must not run while circuit is open")
	}
	if !errors.Is(err, commonerrors.ErrServiceUnavailable) || !errors.Is(err, commonerrors.ErrCircuitOpen) {
		t.Fatalf("expected service unavailable, got %v", err)
	}
}

func TestCircuitBreaker_ResetsAfterWindow(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 1, Timeout: time.Second, ResetAfter: time.Minute})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return now }

	_ = cb.Call(context.Background(), func(context.Context) error { return errors.New("down") })
	if !cb.IsOpen() {
		t.Fatal("expected open circuit")
	}

	now = now.Add(2 * time.Minute)
	if cb.IsOpen() {
		t.Fatal("expected circuit to close after reset window")
	}
}

func TestCircuitBreaker_IgnoresClientErrors(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 1, Timeout: time.Second, ResetAfter: time.Minute})

	_ = cb.Call(context.Background(), func(context.Context) error { return commonerrors.ErrUserNotFound })
	_ = cb.Call(context.Background(), func(context.Context) error { return commonerrors.ErrDuplicateEmail })
	_ = cb.Call(context.Background(), func(context.Context) error { return context.Canceled })

	if cb.IsOpen() {
		t.Fatal("client errors must not open the circuit")
	}
}

func TestCircuitBreaker_Fallback(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 5, Timeout: time.Second, ResetAfter: time.Minute})

	err := cb.CallWithFallback(context.Background(),
		func(context.Context) error { return errors.New("down") },
		func() error { return nil },
	)
	if err != nil {
		t.Fatalf("expected fallback result, got %v", err)
	}
}
