// Package httpx holds the retrying JSON transport shared by the collaborator clients.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/odyssey-pos/odyssey-pos/internal/observability"
	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

// DefaultJitter is the backoff jitter factor (50%).
const DefaultJitter = 0.5

var (
	rng   = rand.New(rand.NewSource(time.Now().UnixNano()))
	rngMu sync.Mutex
)

// Backoff returns base doubled attempt times, capped at max, plus up to jitterFactor of random slack.
func Backoff(base, max time.Duration, attempt int, jitterFactor float64) time.Duration {
	backoff := base
	for i := 0; i < attempt; i++ {
		backoff *= 2
		if backoff > max {
			backoff = max
			break
		}
	}
	rngMu.Lock()
	slack := rng.Float64() * jitterFactor * float64(backoff)
	rngMu.Unlock()
	return backoff + time.Duration(slack)
}

// TransientError marks a failure worth retrying.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string { return e.err.Error() }

func (e *TransientError) Unwrap() error { return e.err }

// IsTransient reports whether err may succeed on retry.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// StatusError is a non-2xx answer.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Client posts JSON to one endpoint with bearer auth and retries transient failures.
type Client struct {
	Service    string
	Endpoint   string
	APIKey     string
	HTTP       *http.Client
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Metrics    *observability.Metrics
	Logger     *slog.Logger
}

// PostJSON sends payload and returns the raw response body.
// Failures are reported as shared.ExternalServiceError.
func (c *Client) PostJSON(ctx context.Context, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, shared.NewExternalServiceError(c.Service, fmt.Errorf("encode request: %w", err))
	}
	// MaxRetries counts retries after the first attempt.
	attempts := 1
	if c.MaxRetries > 0 {
		attempts += c.MaxRetries
	}
	base, max := c.BaseDelay, c.MaxDelay
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	if max <= 0 {
		max = 5 * time.Second
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		start := time.Now()
		out, err := c.post(ctx, body)
		if err == nil {
			c.Metrics.ObserveExternalCall(c.Service, "ok", time.Since(start))
			return out, nil
		}
		c.Metrics.ObserveExternalCall(c.Service, "error", time.Since(start))
		lastErr = err
		if !IsTransient(err) || attempt == attempts-1 {
			break
		}
		wait := Backoff(base, max, attempt, DefaultJitter)
		c.logger().Warn("collaborator call failed, retrying",
			slog.String("service", c.Service),
			slog.Int("attempt", attempt+1),
			slog.Duration("wait", wait),
			slog.Any("error", err),
		)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, shared.NewExternalServiceError(c.Service, ctx.Err())
		}
	}
	return nil, shared.NewExternalServiceError(c.Service, lastErr)
}

func (c *Client) post(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, &TransientError{err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, &TransientError{err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{Code: resp.StatusCode, Body: truncate(string(data), 512)}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, &TransientError{err: statusErr}
		}
		return nil, statusErr
	}
	return data, nil
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
