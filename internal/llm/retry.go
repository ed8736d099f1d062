package llm

import (
	"context"
	"time"
)

// RetryConfig configures the retry decorator.
type RetryConfig struct {
	// MaxAttempts is the total number of tries, first call included.
	MaxAttempts int
	// BaseWait is the wait after the first failed attempt; attempt i waits
	// BaseWait << i. Deterministic, no jitter.
	BaseWait time.Duration
}

// DefaultRetryConfig matches the upstream invocation contract:
// five attempts with a 1 s base wait doubling each time.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 5, BaseWait: time.Second}
}

// RetryProvider is a decorator that retries transient endpoint failures
// with exponential backoff.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
}

// WithRetry wraps a Provider with retry logic.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	if cfg.MaxAttempts <= 0 {
		cfg = DefaultRetryConfig()
	}
	return &RetryProvider{inner: p, config: cfg}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	return retry(ctx, r.config, func() (*Response, error) {
		return r.inner.Generate(ctx, req)
	})
}

// GenerateStream retries establishing the stream. Failures after the first
// fragment are the consumer's to observe; re-invoking mid-stream would
// duplicate already-delivered content.
func (r *RetryProvider) GenerateStream(ctx context.Context, req Request) (Stream, error) {
	return retry(ctx, r.config, func() (Stream, error) {
		return r.inner.GenerateStream(ctx, req)
	})
}

func (r *RetryProvider) ListModels(ctx context.Context) ([]string, error) {
	return retry(ctx, r.config, func() ([]string, error) {
		return r.inner.ListModels(ctx)
	})
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// retry calls fn up to cfg.MaxAttempts times. It waits BaseWait << attempt
// after every retryable failure, the final one included, then reports the
// last error wrapped in ErrExhausted.
func retry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := range cfg.MaxAttempts {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		if !Retryable(err) {
			return zero, err
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(cfg.BaseWait << attempt):
		}
	}

	return zero, &ErrExhausted{Attempts: cfg.MaxAttempts, Err: lastErr}
}
