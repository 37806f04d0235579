package registry

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/modhearth/modhearth/internal/core"
)

const (
	// DefaultTimeout bounds a single attempt against the registry.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries caps transparent retries for transient failures.
	DefaultMaxRetries = 3

	// DefaultBackoffBase is the first retry delay; subsequent delays
	// double per attempt.
	DefaultBackoffBase = time.Second
)

// StatusRecorder receives the advisory rate-limit snapshot read from
// response headers. The snapshot never gates requests; the token bucket
// is the sole gate.
type StatusRecorder interface {
	RecordRateLimitStatus(ctx context.Context, status *core.RateLimitStatus) error
}

// Executor performs one HTTP call against the registry with timeout,
// bounded retry, and error classification.
type Executor struct {
	BaseURL     string
	Credentials *CredentialSource
	ClientID    string
	Client      *http.Client
	Limiter     *TokenBucket
	Status      StatusRecorder
	Logger      *zap.Logger

	Timeout     time.Duration
	MaxRetries  int
	BackoffBase time.Duration

	Clock func() time.Time
	Sleep func(time.Duration)
}

type errorEnvelope struct {
	ErrorCode    int    `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// Perform issues a request and returns the raw response body.
// 401/403/404 fail fast. 429 fails with the server's retry-after hint.
// Connection errors and local timeouts are retried with exponential
// backoff up to the retry ceiling. Anything else non-2xx surfaces as a
// generic APIError.
func (e *Executor) Perform(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	key, err := e.apiKey()
	if err != nil {
		return nil, err
	}

	maxRetries := e.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	backoff := e.BackoffBase
	if backoff <= 0 {
		backoff = DefaultBackoffBase
	}

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, &TimeoutError{Attempts: attempt, Err: err}
		}

		if e.Limiter != nil {
			e.Limiter.Consume(1)
		}

		body, status, header, err := e.doOnce(ctx, method, path, query, key)
		if err != nil {
			if attempt >= maxRetries {
				if isTimeout(err) {
					return nil, &TimeoutError{Attempts: attempt + 1, Err: err}
				}
				return nil, &NetworkError{Attempts: attempt + 1, Err: err}
			}
			delay := backoff * time.Duration(1<<attempt)
			e.logger().Warn("registry request failed, retrying",
				zap.String("path", path),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", delay),
				zap.Error(err))
			e.doSleep(delay)
			continue
		}

		e.recordStatus(ctx, path, header)

		switch {
		case status >= 200 && status < 300:
			return body, nil
		case status == http.StatusUnauthorized:
			return nil, &AuthenticationError{Message: "registry rejected the api key"}
		case status == http.StatusForbidden:
			return nil, &ForbiddenError{Path: path}
		case status == http.StatusNotFound:
			return nil, &NotFoundError{Path: path}
		case status == http.StatusTooManyRequests:
			return nil, &RateLimitError{RetryAfter: retryAfter(header)}
		default:
			return nil, apiError(status, body)
		}
	}
}

// doOnce runs a single attempt under the per-request timeout.
func (e *Executor) doOnce(ctx context.Context, method, path string, query url.Values, key string) ([]byte, int, http.Header, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reqURL := strings.TrimRight(e.BaseURL, "/") + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(reqCtx, method, reqURL, nil)
	if err != nil {
		return nil, 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", key)
	if e.ClientID != "" {
		req.Header.Set("User-Agent", e.ClientID)
		req.Header.Set("X-Client-ID", e.ClientID)
	}

	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, nil, err
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, nil, err
	}

	return body, resp.StatusCode, resp.Header, nil
}

func (e *Executor) apiKey() (string, error) {
	if e.Credentials == nil {
		return "", &AuthenticationError{Message: "no credential source configured"}
	}
	return e.Credentials.APIKey()
}

// recordStatus stores the advisory remaining/reset snapshot. Failures
// are logged and swallowed; observability must not break requests.
func (e *Executor) recordStatus(ctx context.Context, path string, header http.Header) {
	if e.Status == nil || header == nil {
		return
	}

	remaining := header.Get("X-RateLimit-Remaining")
	reset := header.Get("X-RateLimit-Reset")
	if remaining == "" && reset == "" {
		return
	}

	status := &core.RateLimitStatus{
		Endpoint:   path,
		Remaining:  -1,
		ObservedAt: e.now(),
	}
	if value, err := strconv.Atoi(strings.TrimSpace(remaining)); err == nil {
		status.Remaining = value
	}
	if epoch, err := strconv.ParseInt(strings.TrimSpace(reset), 10, 64); err == nil {
		status.ResetAt = time.Unix(epoch, 0).UTC()
	}

	if err := e.Status.RecordRateLimitStatus(ctx, status); err != nil {
		e.logger().Warn("failed to record rate limit snapshot", zap.Error(err))
	}
}

func (e *Executor) logger() *zap.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return zap.NewNop()
}

func (e *Executor) doSleep(d time.Duration) {
	if e.Sleep != nil {
		e.Sleep(d)
		return
	}
	time.Sleep(d)
}

func (e *Executor) now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now().UTC()
}

func retryAfter(header http.Header) time.Duration {
	raw := strings.TrimSpace(header.Get("Retry-After"))
	if raw == "" {
		return 0
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func apiError(status int, body []byte) error {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.ErrorMessage != "" {
		return &APIError{StatusCode: status, ErrorCode: envelope.ErrorCode, Message: envelope.ErrorMessage}
	}
	return &APIError{StatusCode: status}
}

// isTimeout distinguishes deadline expiry from connection-level
// failures. Both are retried; only the terminal error type differs.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
