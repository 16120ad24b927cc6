package db

import (
	"context"

	"github.com/AlibekovAA/postgraph/internal/common/logger"
	"github.com/AlibekovAA/postgraph/internal/common/resilience"
)

// Runner routes every store call through the circuit breaker. Reads are
// additionally retried on transient errors; writes run exactly once.
type Runner struct {
	breaker resilience.CircuitBreakerInterface
	retry   RetryConfig
	log     *logger.Logger
}

func NewRunner(breaker resilience.CircuitBreakerInterface, retry RetryConfig, log *logger.Logger) *Runner {
	return &Runner{breaker: breaker, retry: retry, log: log}
}

func (r *Runner) Read(ctx context.Context, name string, fn func(context.Context) error) error {
	return r.call(ctx, func(ctx context.Context) error {
		if r == nil || r.retry.MaxAttempts <= 1 {
			return fn(ctx)
		}
		return RetryWithBackoff(ctx, r.log, r.retry, name, func() error {
			return fn(ctx)
		})
	})
}

func (r *Runner) Write(ctx context.Context, name string, fn func(context.Context) error) error {
	return r.call(ctx, fn)
}

func (r *Runner) call(ctx context.Context, fn func(context.Context) error) error {
	if r == nil || r.breaker == nil {
		return fn(ctx)
	}
	return r.breaker.Call(ctx, fn)
}
