// Package aihttp is the shared HTTP transport for completion and embedding
// adapters. It makes exactly one request per call with a fixed timeout and
// maps every failure onto *domain.CompletionError.
package aihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/custodia-labs/mailrag/internal/core/domain"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response is kept for diagnostics.
const maxErrorBody = 4096

// Config configures a Client.
type Config struct {
	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration

	// RequestsPerSecond enables proactive throttling when positive.
	RequestsPerSecond float64

	// HTTPClient overrides the underlying client. Its timeout is replaced.
	HTTPClient *http.Client
}

// Client sends JSON requests to AI providers.
type Client struct {
	http    *http.Client
	limiter *RateLimiter
}

// New creates a client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	hc := &http.Client{}
	if cfg.HTTPClient != nil {
		c := *cfg.HTTPClient
		hc = &c
	}
	hc.Timeout = cfg.Timeout
	return &Client{
		http:    hc,
		limiter: NewRateLimiter(cfg.RequestsPerSecond),
	}
}

// PostJSON posts in as JSON and decodes a 2xx response into out.
func (c *Client) PostJSON(ctx context.Context, url string, headers map[string]string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, headers, out)
}

// Get sends a GET and decodes a 2xx response into out, which may be nil.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, headers, out)
}

func (c *Client) do(req *http.Request, headers map[string]string, out any) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		var ce *domain.CompletionError
		if errors.As(err, &ce) {
			return ce
		}
		return TransportError(err)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return TransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return StatusError(resp, body, c.limiter.Observe(resp))
	}

	if out == nil {
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return TransportError(err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &domain.CompletionError{
			Kind:       domain.KindServiceError,
			StatusCode: resp.StatusCode,
			Body:       truncate(string(body)),
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}

// StatusError maps a non-2xx response onto the failure taxonomy.
func StatusError(resp *http.Response, body []byte, retryAfter time.Duration) *domain.CompletionError {
	e := &domain.CompletionError{
		StatusCode: resp.StatusCode,
		Body:       truncate(string(body)),
	}
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		e.Kind = domain.KindRateLimited
		e.RetryAfter = retryAfter
	case http.StatusUnauthorized, http.StatusForbidden:
		e.Kind = domain.KindAuthenticationFailed
	default:
		e.Kind = domain.KindServiceError
	}
	return e
}

// TransportError maps a failed round trip onto the failure taxonomy.
func TransportError(err error) *domain.CompletionError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &domain.CompletionError{Kind: domain.KindTimedOut, Err: err}
	}
	return &domain.CompletionError{Kind: domain.KindServiceError, Err: err}
}

func truncate(s string) string {
	if len(s) > maxErrorBody {
		return s[:maxErrorBody]
	}
	return s
}
