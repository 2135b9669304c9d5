package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/sony/gobreaker/v2"

	"github.com/Veraticus/business-anzsic-locator/internal/common"
)

// Executor runs operations through common.WithRetry inside a named circuit breaker.
type Executor struct {
	breakers map[string]*gobreaker.CircuitBreaker[any]
	cfg      Config
	mu       sync.Mutex
}

// NewExecutor creates an executor with normalized configuration.
func NewExecutor(cfg Config) *Executor {
	return &Executor{
		cfg:      cfg.normalize(),
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

// Execute runs fn. Errors the caller marks retryable (see common.IsRetryable) are
// retried; every final error counts against the operation's breaker except
// caller cancellation.
func (e *Executor) Execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("resilience: operation callback is nil")
	}
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unknown"
	}

	run := func() error {
		return common.WithRetry(ctx, func() error { return fn(ctx) }, common.RetryOptions{
			MaxAttempts:  e.cfg.RetryMaxAttempts,
			InitialDelay: e.cfg.RetryInitialBackoff,
			MaxDelay:     e.cfg.RetryMaxBackoff,
			Multiplier:   e.cfg.RetryMultiplier,
		})
	}

	if !e.cfg.BreakerEnabled {
		return run()
	}

	_, err := e.circuitBreaker(op).Execute(func() (any, error) {
		return nil, run()
	})
	return err
}

func (e *Executor) circuitBreaker(operation string) *gobreaker.CircuitBreaker[any] {
	e.mu.Lock()
	defer e.mu.Unlock()

	if breaker, ok := e.breakers[operation]; ok {
		return breaker
	}

	settings := gobreaker.Settings{
		Name:        operation,
		MaxRequests: e.cfg.BreakerHalfOpenMaxCalls,
		Timeout:     e.cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < e.cfg.BreakerMinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= e.cfg.BreakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit_breaker_state_change", "operation", name, "from", from.String(), "to", to.String())
		},
	}

	breaker := gobreaker.NewCircuitBreaker[any](settings)
	e.breakers[operation] = breaker
	return breaker
}

// IsCircuitOpen reports whether err came from a tripped breaker.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
