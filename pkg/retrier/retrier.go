// Package retrier wraps jpillora/backoff into a context-aware retry
// helper used by the model vendor clients.
package retrier

import (
	"context"
	"time"

	"github.com/jpillora/backoff"
)

const (
	defaultMinInterval = 1 * time.Second
	defaultMaxInterval = 30 * time.Second
	defaultFactor      = 2.0
	defaultMaxRetries  = 5
)

// Retrier retries an operation with jittered exponential backoff.
type Retrier struct {
	minInterval time.Duration
	maxInterval time.Duration
	factor      float64
	maxRetries  int
}

// Option configures a Retrier.
type Option func(*Retrier)

// WithMinInterval sets the first retry interval.
func WithMinInterval(d time.Duration) Option {
	return func(r *Retrier) {
		r.minInterval = d
	}
}

// WithMaxInterval caps the retry interval.
func WithMaxInterval(d time.Duration) Option {
	return func(r *Retrier) {
		r.maxInterval = d
	}
}

// WithFactor sets the backoff multiplier.
func WithFactor(f float64) Option {
	return func(r *Retrier) {
		r.factor = f
	}
}

// WithMaxRetries sets how many retries follow the initial attempt.
func WithMaxRetries(n int) Option {
	return func(r *Retrier) {
		r.maxRetries = n
	}
}

// New creates a Retrier with defaults and optional overrides.
func New(opts ...Option) *Retrier {
	r := &Retrier{
		minInterval: defaultMinInterval,
		maxInterval: defaultMaxInterval,
		factor:      defaultFactor,
		maxRetries:  defaultMaxRetries,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Do runs fn until it succeeds, the retries are exhausted, or the context
// is cancelled. The last error is returned on exhaustion.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	b := &backoff.Backoff{
		Min:    r.minInterval,
		Max:    r.maxInterval,
		Factor: r.factor,
		Jitter: true,
	}

	var err error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(b.Duration()):
			}
		}

		if err = fn(ctx); err == nil {
			return nil
		}
	}

	return err
}

// DoWithData runs fn with retries and returns its value.
func DoWithData[T any](r *Retrier, ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := r.Do(ctx, func(ctx context.Context) error {
		var e error
		result, e = fn(ctx)
		return e
	})
	return result, err
}
