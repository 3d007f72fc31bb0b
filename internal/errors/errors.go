// Package errors provides the scanner's error taxonomy.
//
// Transport failures are classified so the request layer can decide whether
// to retry; every other component either absorbs errors locally or surfaces
// a configuration error before any network activity.
package errors

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"
)

// ErrorType categorizes errors for handling decisions.
type ErrorType int

const (
	// Unknown is an uncategorized error.
	Unknown ErrorType = iota
	// Network represents connection-level failures (DNS, refused, reset).
	Network
	// Timeout represents timeout errors.
	Timeout
	// TLS represents handshake or certificate failures.
	TLS
	// Parse represents markup or response parsing errors.
	Parse
	// Config represents invalid configuration or target input.
	Config
	// Cancelled represents context cancellation.
	Cancelled
	// Detector represents a failure inside a vulnerability probe.
	Detector
	// Closed represents use of a released resource.
	Closed
)

// String returns the string representation of ErrorType.
func (t ErrorType) String() string {
	switch t {
	case Network:
		return "network"
	case Timeout:
		return "timeout"
	case TLS:
		return "tls"
	case Parse:
		return "parse"
	case Config:
		return "config"
	case Cancelled:
		return "cancelled"
	case Detector:
		return "detector"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// IsRetryable returns whether errors of this type should be retried.
func (t ErrorType) IsRetryable() bool {
	return t == Network || t == Timeout
}

// ScanError represents a categorized scanner error.
type ScanError struct {
	Type      ErrorType
	URL       string
	Operation string
	Message   string
	Cause     error
}

// Error implements the error interface.
func (e *ScanError) Error() string {
	var b strings.Builder
	b.WriteString(e.Type.String())
	b.WriteString(" error")
	if e.Operation != "" {
		b.WriteString(" during ")
		b.WriteString(e.Operation)
	}
	if e.URL != "" {
		b.WriteString(" on ")
		b.WriteString(e.URL)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, " (caused by: %v)", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ScanError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a *ScanError of the same type.
func (e *ScanError) Is(target error) bool {
	t, ok := target.(*ScanError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// Retryable reports whether the request layer may retry the operation.
func (e *ScanError) Retryable() bool {
	return e.Type.IsRetryable()
}

// New creates a new ScanError.
func New(errType ErrorType, url, operation, message string, cause error) *ScanError {
	return &ScanError{
		Type:      errType,
		URL:       url,
		Operation: operation,
		Message:   message,
		Cause:     cause,
	}
}

// NewNetworkError creates a network error.
func NewNetworkError(url, operation string, cause error) *ScanError {
	return New(Network, url, operation, "network failure", cause)
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(url, operation string, cause error) *ScanError {
	return New(Timeout, url, operation, "request timed out", cause)
}

// NewTLSError creates a TLS error.
func NewTLSError(url, operation string, cause error) *ScanError {
	return New(TLS, url, operation, "tls failure", cause)
}

// NewParseError creates a parse error.
func NewParseError(url, operation string, cause error) *ScanError {
	return New(Parse, url, operation, "parsing failed", cause)
}

// NewConfigError creates a configuration error.
func NewConfigError(message string, cause error) *ScanError {
	return New(Config, "", "configure", message, cause)
}

// NewCancelledError creates a cancelled error.
func NewCancelledError(url, operation string) *ScanError {
	return New(Cancelled, url, operation, "operation cancelled", context.Canceled)
}

// NewDetectorError creates a detector failure.
func NewDetectorError(detector, url string, cause error) *ScanError {
	return New(Detector, url, detector, "probe failed", cause)
}

// Categorize determines the error type from a generic error.
func Categorize(err error, url string) *ScanError {
	if err == nil {
		return nil
	}

	var scanErr *ScanError
	if errors.As(err, &scanErr) {
		return scanErr
	}

	if errors.Is(err, context.Canceled) {
		return NewCancelledError(url, "request")
	}
	if isTimeout(err) {
		return NewTimeoutError(url, "request", err)
	}
	if isTLSError(err) {
		return NewTLSError(url, "request", err)
	}
	if isNetworkError(err) {
		return NewNetworkError(url, "request", err)
	}

	return New(Unknown, url, "request", err.Error(), err)
}

// isTimeout checks if an error is a timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// isTLSError checks for handshake and certificate failures.
func isTLSError(err error) bool {
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return true
	}
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return true
	}
	var unknownAuth x509.UnknownAuthorityError
	if errors.As(err, &unknownAuth) {
		return true
	}
	return strings.Contains(err.Error(), "tls: ")
}

// isNetworkError checks if an error is network-related.
func isNetworkError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && strings.Contains(urlErr.Err.Error(), "EOF") {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "dial tcp")
}

// IsRetryable checks if an error should be retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return Categorize(err, "").Retryable()
}

// GetErrorType extracts the error type from an error.
func GetErrorType(err error) ErrorType {
	var scanErr *ScanError
	if errors.As(err, &scanErr) {
		return scanErr.Type
	}
	return Unknown
}

// IsConfigError reports whether err is a configuration failure.
func IsConfigError(err error) bool {
	return GetErrorType(err) == Config
}
