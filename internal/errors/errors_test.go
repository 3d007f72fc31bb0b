package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"testing"
	"time"
)

// =============================================================================
// ErrorType Tests
// =============================================================================

func TestErrorType_String(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    string
	}{
		{Unknown, "unknown"},
		{Network, "network"},
		{Timeout, "timeout"},
		{TLS, "tls"},
		{Parse, "parse"},
		{Config, "config"},
		{Cancelled, "cancelled"},
		{Detector, "detector"},
		{Closed, "closed"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.errType.String(); got != tt.want {
				t.Errorf("String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorType_IsRetryable(t *testing.T) {
	tests := []struct {
		errType   ErrorType
		retryable bool
	}{
		{Network, true},
		{Timeout, true},
		{TLS, false},
		{Parse, false},
		{Config, false},
		{Cancelled, false},
		{Detector, false},
		{Unknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.errType.String(), func(t *testing.T) {
			if got := tt.errType.IsRetryable(); got != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.retryable)
			}
		})
	}
}

// =============================================================================
// ScanError Tests
// =============================================================================

func TestScanError_Error(t *testing.T) {
	err := New(Network, "https://example.com", "fetch", "connection failed", nil)

	errStr := err.Error()
	for _, want := range []string{"network", "fetch", "https://example.com", "connection failed"} {
		if !strings.Contains(errStr, want) {
			t.Errorf("Error() = %q, should contain %q", errStr, want)
		}
	}
}

func TestScanError_Error_WithCause(t *testing.T) {
	err := NewNetworkError("https://example.com", "fetch", errors.New("refused"))

	if !strings.Contains(err.Error(), "caused by: refused") {
		t.Errorf("Error() = %q, should include cause", err.Error())
	}
}

func TestScanError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewParseError("https://example.com", "parse", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
}

func TestScanError_Is(t *testing.T) {
	err := NewTimeoutError("https://a.example", "get", nil)

	if !errors.Is(err, &ScanError{Type: Timeout}) {
		t.Error("should match a ScanError of the same type")
	}
	if errors.Is(err, &ScanError{Type: Network}) {
		t.Error("should not match a ScanError of another type")
	}
}

func TestNewConfigError(t *testing.T) {
	err := NewConfigError("unknown test \"foo\"", nil)

	if err.Type != Config {
		t.Errorf("Type = %v, want Config", err.Type)
	}
	if !IsConfigError(fmt.Errorf("wrapped: %w", err)) {
		t.Error("IsConfigError should see through wrapping")
	}
}

func TestNewCancelledError(t *testing.T) {
	err := NewCancelledError("https://example.com", "get")

	if !errors.Is(err, context.Canceled) {
		t.Error("cancelled error should wrap context.Canceled")
	}
	if err.Retryable() {
		t.Error("cancelled error should not be retryable")
	}
}

// =============================================================================
// Categorize Tests
// =============================================================================

func TestCategorize_Nil(t *testing.T) {
	if Categorize(nil, "") != nil {
		t.Error("Categorize(nil) should return nil")
	}
}

func TestCategorize_ScanError(t *testing.T) {
	orig := NewDetectorError("sqli", "https://example.com", nil)
	got := Categorize(fmt.Errorf("outer: %w", orig), "")

	if got != orig {
		t.Error("Categorize should return the wrapped ScanError")
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"canceled", context.Canceled, Cancelled},
		{"deadline", context.DeadlineExceeded, Timeout},
		{"timeout string", errors.New("i/o timeout"), Timeout},
		{"op error", &net.OpError{Op: "dial", Err: errors.New("boom")}, Network},
		{"dns error", &net.DNSError{Err: "no such host", Name: "nope.invalid"}, Network},
		{"refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), Network},
		{"tls", errors.New("tls: handshake failure"), TLS},
		{"unknown", errors.New("something odd"), Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Categorize(tt.err, "https://example.com")
			if got.Type != tt.want {
				t.Errorf("Categorize(%v).Type = %v, want %v", tt.err, got.Type, tt.want)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(nil) {
		t.Error("nil should not be retryable")
	}
	if !IsRetryable(NewTimeoutError("", "", nil)) {
		t.Error("timeout should be retryable")
	}
	if IsRetryable(NewConfigError("bad", nil)) {
		t.Error("config error should not be retryable")
	}
}

func TestGetErrorType(t *testing.T) {
	if got := GetErrorType(NewTLSError("", "", nil)); got != TLS {
		t.Errorf("GetErrorType() = %v, want TLS", got)
	}
	if got := GetErrorType(errors.New("plain")); got != Unknown {
		t.Errorf("GetErrorType() = %v, want Unknown", got)
	}
}

// =============================================================================
// Retry Tests
// =============================================================================

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()

	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.InitialDelay != time.Second {
		t.Errorf("InitialDelay = %v, want 1s", cfg.InitialDelay)
	}
	if len(cfg.RetryableTypes) != 2 {
		t.Errorf("len(RetryableTypes) = %d, want 2", len(cfg.RetryableTypes))
	}
}

func TestRetrier_Delay(t *testing.T) {
	r := NewDefaultRetrier()

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	for i, w := range want {
		if got := r.Delay(i); got != w {
			t.Errorf("Delay(%d) = %v, want %v", i, got, w)
		}
	}
}

func fastRetrier(maxRetries int) *Retrier {
	return NewRetrier(RetryConfig{
		MaxRetries:     maxRetries,
		InitialDelay:   time.Millisecond,
		MaxDelay:       10 * time.Millisecond,
		Multiplier:     2.0,
		RetryableTypes: []ErrorType{Network, Timeout},
	})
}

func TestRetrier_Do_Success(t *testing.T) {
	r := NewDefaultRetrier()
	calls := 0

	result := r.Do(context.Background(), "test", "url", func(ctx context.Context) error {
		calls++
		return nil
	})

	if !result.Success {
		t.Error("Should succeed")
	}
	if result.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", result.Attempts)
	}
	if calls != 1 {
		t.Errorf("Function called %d times, want 1", calls)
	}
}

func TestRetrier_Do_RetryOnError(t *testing.T) {
	r := fastRetrier(3)

	calls := 0
	result := r.Do(context.Background(), "test", "url", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return NewNetworkError("url", "op", nil)
		}
		return nil
	})

	if !result.Success {
		t.Error("Should succeed after retries")
	}
	if result.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", result.Attempts)
	}
}

func TestRetrier_Do_MaxRetriesExceeded(t *testing.T) {
	r := fastRetrier(3)

	result := r.Do(context.Background(), "test", "url", func(ctx context.Context) error {
		return NewTimeoutError("url", "op", nil)
	})

	if result.Success {
		t.Error("Should fail after max retries")
	}
	if result.Attempts != 4 { // 1 initial + 3 retries
		t.Errorf("Attempts = %d, want 4", result.Attempts)
	}
	if GetErrorType(result.LastError) != Timeout {
		t.Errorf("LastError type = %v, want Timeout", GetErrorType(result.LastError))
	}
}

func TestRetrier_Do_NoRetryForNonRetryable(t *testing.T) {
	r := fastRetrier(3)
	calls := 0

	result := r.Do(context.Background(), "test", "url", func(ctx context.Context) error {
		calls++
		return errors.New("malformed response")
	})

	if result.Success {
		t.Error("Should fail")
	}
	if calls != 1 {
		t.Errorf("Function called %d times, want 1 (no retry)", calls)
	}
}

func TestRetrier_Do_ContextCancellation(t *testing.T) {
	r := NewRetrier(RetryConfig{
		MaxRetries:     5,
		InitialDelay:   100 * time.Millisecond,
		MaxDelay:       time.Second,
		Multiplier:     2.0,
		RetryableTypes: []ErrorType{Network},
	})

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	result := r.Do(ctx, "test", "url", func(ctx context.Context) error {
		return NewNetworkError("url", "op", nil)
	})

	if result.Success {
		t.Error("Should fail on cancellation")
	}
	if GetErrorType(result.LastError) != Cancelled {
		t.Errorf("LastError type = %v, want Cancelled", GetErrorType(result.LastError))
	}
}

func TestDoWithResult(t *testing.T) {
	r := fastRetrier(1)
	calls := 0

	v, res := DoWithResult(context.Background(), r, "get", "url", func(ctx context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, NewNetworkError("url", "get", nil)
		}
		return 42, nil
	})

	if !res.Success || v != 42 {
		t.Errorf("DoWithResult = (%d, %v), want (42, true)", v, res.Success)
	}
}

func TestBackoffDuration(t *testing.T) {
	tests := []struct {
		attempt int
		max     time.Duration
		want    time.Duration
	}{
		{0, 10 * time.Second, time.Second},
		{1, 10 * time.Second, 2 * time.Second},
		{2, 10 * time.Second, 4 * time.Second},
		{3, 10 * time.Second, 8 * time.Second},
		{4, 10 * time.Second, 10 * time.Second}, // Capped at max
		{4, 0, 16 * time.Second},                // Unbounded
	}

	for _, tt := range tests {
		got := BackoffDuration(tt.attempt, time.Second, tt.max, 2.0)
		if got != tt.want {
			t.Errorf("BackoffDuration(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}
