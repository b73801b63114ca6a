package analysis

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/core"
)

// RetryPolicy governs stage-local retries of transient failures, such
// as a reasoning call returning unparseable output. It is distinct from
// the RetryController, which bounds the auditor/critic revision loop.
type RetryPolicy struct {
	MaxAttempts  int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	JitterFactor float64 // 0.0 to 1.0
	Multiplier   float64
}

// DefaultRetryPolicy returns the standard stage-local policy.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:  3,
		BaseDelay:    time.Second,
		MaxDelay:     30 * time.Second,
		JitterFactor: 0.2,
		Multiplier:   2.0,
	}
}

// RetryableFunc is a function eligible for retry.
type RetryableFunc func(ctx context.Context) error

// Execute runs the function, retrying retryable errors with exponential
// backoff until the attempt cap or context cancellation.
func (p *RetryPolicy) Execute(ctx context.Context, fn RetryableFunc) error {
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}

		lastErr = err

		if !core.IsRetryable(err) {
			return err
		}

		if attempt == p.MaxAttempts {
			break
		}

		delay := p.CalculateDelay(attempt)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return &RetryExhaustedError{
		Attempts: p.MaxAttempts,
		LastErr:  lastErr,
	}
}

// CalculateDelay computes the backoff delay for a given attempt.
func (p *RetryPolicy) CalculateDelay(attempt int) time.Duration {
	delay := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1))

	if delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}

	if p.JitterFactor > 0 {
		jitter := delay * p.JitterFactor
		delay += (rand.Float64()*2 - 1) * jitter
	}

	return time.Duration(delay)
}

// RetryExhaustedError indicates all stage-local attempts failed.
type RetryExhaustedError struct {
	Attempts int
	LastErr  error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("retry exhausted after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.LastErr
}

// RetryController bounds the auditor/critic revision loop. The attempt
// count lives in the analysis state; the controller only owns the
// ceiling and the transition rules around it.
type RetryController struct {
	maxRetries int
}

// NewRetryController creates a controller with the given ceiling.
// Ceilings below zero are clamped to zero (no revisions allowed).
func NewRetryController(maxRetries int) *RetryController {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &RetryController{maxRetries: maxRetries}
}

// MaxRetries returns the revision ceiling.
func (c *RetryController) MaxRetries() int {
	return c.maxRetries
}

// CanRevise reports whether another auditor pass fits in the budget.
func (c *RetryController) CanRevise(attempts int) bool {
	return attempts < c.maxRetries
}

// Exhausted reports whether the budget has been fully consumed.
func (c *RetryController) Exhausted(attempts int) bool {
	return attempts >= c.maxRetries
}
