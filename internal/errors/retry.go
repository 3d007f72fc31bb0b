package errors

import (
	"context"
	"math"
	"time"
)

// RetryConfig configures retry behavior.
type RetryConfig struct {
	MaxRetries     int           // Retries after the first attempt (0 = no retries)
	InitialDelay   time.Duration // Delay before the first retry
	MaxDelay       time.Duration // Upper bound on a single delay (0 = unbounded)
	Multiplier     float64       // Delay multiplier for exponential backoff
	RetryableTypes []ErrorType   // Error types that should be retried
}

// DefaultRetryConfig returns the request layer policy: three retries on
// timeouts and connection failures, waiting 1s, 2s, then 4s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialDelay:   time.Second,
		Multiplier:     2.0,
		RetryableTypes: []ErrorType{Network, Timeout},
	}
}

// Retrier implements retry logic with exponential backoff.
type Retrier struct {
	config RetryConfig
}

// NewRetrier creates a new retrier.
func NewRetrier(config RetryConfig) *Retrier {
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	return &Retrier{config: config}
}

// NewDefaultRetrier creates a retrier with default configuration.
func NewDefaultRetrier() *Retrier {
	return NewRetrier(DefaultRetryConfig())
}

// Config returns the retrier configuration.
func (r *Retrier) Config() RetryConfig {
	return r.config
}

// RetryFunc is a function that can be retried.
type RetryFunc func(ctx context.Context) error

// RetryResult holds the result of a retry operation.
type RetryResult struct {
	Attempts  int           // Number of attempts made
	LastError error         // Categorized last error, nil on success
	Duration  time.Duration // Total time spent
	Success   bool
}

// Do executes fn, retrying categorized retryable failures with backoff.
// Non-retryable failures stop immediately.
func (r *Retrier) Do(ctx context.Context, operation, url string, fn RetryFunc) *RetryResult {
	result := &RetryResult{}
	start := time.Now()

	for attempt := 0; ; attempt++ {
		result.Attempts++

		err := fn(ctx)
		if err == nil {
			result.Success = true
			result.Duration = time.Since(start)
			return result
		}

		if ctx.Err() != nil {
			result.LastError = NewCancelledError(url, operation)
			result.Duration = time.Since(start)
			return result
		}

		categorized := Categorize(err, url)
		if categorized.Operation == "request" && operation != "" {
			categorized.Operation = operation
		}
		result.LastError = categorized

		if attempt >= r.config.MaxRetries || !r.shouldRetry(categorized) {
			break
		}

		select {
		case <-ctx.Done():
			result.LastError = NewCancelledError(url, operation)
			result.Duration = time.Since(start)
			return result
		case <-time.After(r.Delay(attempt)):
		}
	}

	result.Duration = time.Since(start)
	return result
}

// Delay returns the wait before retry number attempt (0-based):
// InitialDelay * Multiplier^attempt, capped at MaxDelay.
func (r *Retrier) Delay(attempt int) time.Duration {
	return BackoffDuration(attempt, r.config.InitialDelay, r.config.MaxDelay, r.config.Multiplier)
}

// shouldRetry checks the categorized error against the configured types.
func (r *Retrier) shouldRetry(err *ScanError) bool {
	for _, t := range r.config.RetryableTypes {
		if err.Type == t {
			return true
		}
	}
	return false
}

// DoWithResult executes a function that returns a value and error.
func DoWithResult[T any](ctx context.Context, r *Retrier, operation, url string, fn func(ctx context.Context) (T, error)) (T, *RetryResult) {
	var result T

	retryResult := r.Do(ctx, operation, url, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})

	return result, retryResult
}

// BackoffDuration calculates initial * multiplier^attempt, bounded by max
// when max is positive.
func BackoffDuration(attempt int, initial, max time.Duration, multiplier float64) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := float64(initial) * math.Pow(multiplier, float64(attempt))
	if max > 0 && delay > float64(max) {
		return max
	}

	return time.Duration(delay)
}
