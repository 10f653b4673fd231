package aihttp

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/mailrag/internal/core/domain"
)

// HeaderRetryAfter is the retry-after header (seconds or HTTP date).
const HeaderRetryAfter = "Retry-After"

// RateLimiter spaces outgoing requests and remembers server back-off hints.
//
// It never retries. A request made while a server hint is still in force
// fails fast with a RateLimited error instead of being sent.
type RateLimiter struct {
	mu           sync.Mutex
	bucket       *rate.Limiter // nil disables proactive throttling
	blockedUntil time.Time
	now          func() time.Time
}

// NewRateLimiter creates a limiter. perSecond <= 0 disables proactive
// throttling while still honouring Retry-After hints.
func NewRateLimiter(perSecond float64) *RateLimiter {
	r := &RateLimiter{now: time.Now}
	if perSecond > 0 {
		r.bucket = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
	return r
}

// Wait blocks until the token bucket allows a request.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	until := r.blockedUntil
	r.mu.Unlock()

	if now := r.now(); now.Before(until) {
		return &domain.CompletionError{
			Kind:       domain.KindRateLimited,
			StatusCode: http.StatusTooManyRequests,
			RetryAfter: until.Sub(now),
		}
	}

	if r.bucket == nil {
		return nil
	}
	return r.bucket.Wait(ctx)
}

// Observe records the back-off hint of a rate-limited response.
func (r *RateLimiter) Observe(resp *http.Response) time.Duration {
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		return 0
	}
	wait := ParseRetryAfter(resp.Header.Get(HeaderRetryAfter), r.now())
	if wait > 0 {
		r.mu.Lock()
		r.blockedUntil = r.now().Add(wait)
		r.mu.Unlock()
	}
	return wait
}

// ParseRetryAfter reads a Retry-After value given in seconds or as an HTTP date.
// Returns 0 when the value is absent or unreadable.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
