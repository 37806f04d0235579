package registry

import (
	"fmt"
	"time"
)

// AuthenticationError reports an invalid or missing API credential.
// The registry answered 401, or no validly formatted key was configured.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	if e.Message != "" {
		return "registry authentication failed: " + e.Message
	}
	return "registry authentication failed"
}

// ForbiddenError reports insufficient permission for the requested
// resource (HTTP 403). Never retried.
type ForbiddenError struct {
	Path string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("registry forbids access to %s", e.Path)
}

// NotFoundError reports a missing upstream resource (HTTP 404).
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("registry resource not found: %s", e.Path)
}

// RateLimitError reports an upstream 429. RetryAfter carries the
// server's hint; the transport never retries on its own.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("registry rate limit exceeded, retry after %s", e.RetryAfter)
	}
	return "registry rate limit exceeded"
}

// TimeoutError reports that the request deadline fired on every attempt
// up to the retry ceiling.
type TimeoutError struct {
	Attempts int
	Err      error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("registry request timed out after %d attempts: %v", e.Attempts, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// NetworkError reports a connection-level failure that persisted through
// the retry ceiling.
type NetworkError struct {
	Attempts int
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("registry unreachable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError reports any other non-2xx response or malformed envelope.
type APIError struct {
	StatusCode int
	ErrorCode  int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("registry error (status %d, code %d): %s", e.StatusCode, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("registry error (status %d)", e.StatusCode)
}
