// pkg/session/request.go
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/gopix/internal/logging"
	"github.com/fyrsmithlabs/gopix/pkg/transport"
)

const contentTypeJSON = "application/json;charset=utf-8"

// Backoff bounds for transient failures (429, 5xx, network errors).
const (
	baseBackoff = 1 * time.Second
	maxBackoff  = 30 * time.Second
)

// Request performs one exchange and returns the raw response body. This is
// the transport.Transport entry point used by objects for follow-up fetches.
func (s *Session) Request(ctx context.Context, method, path string, params url.Values) (json.RawMessage, error) {
	data, _, err := s.do(ctx, method, path, params, nil, "", true)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// Get fetches path and objectifies the decoded response through the
// factory. Mappings carrying a type discriminator come back as
// *object.Object, everything else as plain decoded values.
func (s *Session) Get(ctx context.Context, path string, params url.Values) (any, error) {
	data, _, err := s.do(ctx, http.MethodGet, path, params, nil, "", true)
	if err != nil {
		return nil, err
	}
	return s.fac.BuildJSON("", data)
}

// GetRaw fetches path with an Accept override and returns the body bytes
// verbatim. Used for media downloads.
func (s *Session) GetRaw(ctx context.Context, path, accept string) ([]byte, error) {
	data, _, err := s.do(ctx, http.MethodGet, path, nil, nil, accept, true)
	return data, err
}

// Put sends payload as a JSON body and returns the raw response.
func (s *Session) Put(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	data, _, err := s.do(ctx, http.MethodPut, path, nil, payload, "", true)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// Post sends payload as a JSON body and returns the raw response.
func (s *Session) Post(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	data, _, err := s.do(ctx, http.MethodPost, path, nil, payload, "", true)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// Delete issues a DELETE, optionally with a JSON body, and returns the raw
// response.
func (s *Session) Delete(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	data, _, err := s.do(ctx, http.MethodDelete, path, nil, payload, "", true)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// requestURL joins path onto the configured base. Absolute URLs pass
// through untouched so server-provided links can be followed directly.
func (s *Session) requestURL(path string, params url.Values) string {
	u := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		u = s.apiURL + path
	}
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + params.Encode()
	}
	return u
}

// do runs the full request pipeline: optional login, rate limiting, and the
// retry loop for transient failures. It returns the response body and HTTP
// status on success, or the last error once retries are exhausted.
func (s *Session) do(ctx context.Context, method, path string, params url.Values, payload any, accept string, ensure bool) ([]byte, int, error) {
	if ensure {
		if err := s.ensureSession(ctx); err != nil {
			return nil, 0, err
		}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("rate limiter: %w", err)
	}

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal payload: %w", err)
		}
	}

	// One request id across all attempts so server logs can correlate
	// retries of the same call.
	requestID := uuid.New().String()
	ctx = logging.WithRequestID(ctx, requestID)

	target := s.requestURL(path, params)

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := s.backoff * time.Duration(1<<(attempt-1))
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			}
			s.metrics.RecordRetry()
			s.log.Debug(ctx, "retrying request",
				zap.String("method", method),
				zap.String("path", path),
				zap.Int("attempt", attempt))
		}

		data, status, err := s.roundTrip(ctx, method, target, path, accept, requestID, body)
		if err == nil {
			return data, status, nil
		}

		lastErr = err
		if !isRetryable(err) {
			return nil, status, err
		}
	}

	return nil, 0, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// roundTrip performs a single HTTP exchange.
func (s *Session) roundTrip(ctx context.Context, method, target, path, accept, requestID string, body []byte) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-PIX-App-Key", s.appKey)
	req.Header.Set("X-PIX-Request-Id", requestID)
	req.Header.Set("Content-Type", contentTypeJSON)
	if accept == "" {
		accept = contentTypeJSON
	}
	req.Header.Set("Accept", accept)

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, 0, &retryableError{err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	duration := time.Since(start)
	s.metrics.RecordRequest(method, resp.StatusCode, duration.Seconds())
	if err != nil {
		return nil, resp.StatusCode, &retryableError{err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		s.log.Debug(ctx, "request complete",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.Duration("duration", duration))
		return data, resp.StatusCode, nil
	}

	terr := &transport.Error{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
		Reason:     http.StatusText(resp.StatusCode),
		Body:       data,
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		s.log.Warn(ctx, "transient server error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return nil, resp.StatusCode, &retryableError{err: terr}
	}

	return nil, resp.StatusCode, terr
}

// retryableError wraps an error to mark it as safe to retry.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

// isRetryable reports whether the request should be attempted again.
// Network failures, 429 and 5xx answers qualify; other client errors never
// do.
func isRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}
