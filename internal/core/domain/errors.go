package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrProtectedCategory indicates an attempt to rename or delete Unclassified.
	ErrProtectedCategory = errors.New("category is protected")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIndexUnavailable indicates a vector index call failed.
	// It is logged at the ingestion boundary and never fatal.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrMalformedResponse indicates structured model output failed to decode.
	// Handled inside classification, never surfaced.
	ErrMalformedResponse = errors.New("malformed model response")

	// Completion Errors.

	// ErrRateLimited indicates the service signalled throughput exhaustion.
	ErrRateLimited = errors.New("rate limited")

	// ErrAuthenticationFailed indicates credentials were rejected. Not retryable.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrTimedOut indicates no response arrived before the deadline.
	ErrTimedOut = errors.New("timed out")

	// ErrServiceError indicates any other non-success response.
	ErrServiceError = errors.New("service error")
)

// CompletionErrorKind classifies completion and embedding failures.
type CompletionErrorKind string

// Completion failure kinds.
const (
	KindRateLimited          CompletionErrorKind = "rate_limited"
	KindAuthenticationFailed CompletionErrorKind = "authentication_failed"
	KindTimedOut             CompletionErrorKind = "timed_out"
	KindServiceError         CompletionErrorKind = "service_error"
)

// CompletionError is returned by completion and embedding adapters.
// Match it with errors.Is against the kind sentinels, or errors.As for details.
type CompletionError struct {
	Kind CompletionErrorKind

	// StatusCode is the HTTP status, zero for transport failures.
	StatusCode int

	// RetryAfter is the server's back-off hint for rate limiting, zero if absent.
	RetryAfter time.Duration

	// Body is the response body, kept for diagnostics.
	Body string

	// Err is the underlying cause, if any.
	Err error
}

func (e *CompletionError) Error() string {
	switch e.Kind {
	case KindRateLimited:
		if e.RetryAfter > 0 {
			return fmt.Sprintf("rate limited: retry after %s", e.RetryAfter)
		}
		return "rate limited"
	case KindAuthenticationFailed:
		return fmt.Sprintf("authentication failed: HTTP %d", e.StatusCode)
	case KindTimedOut:
		if e.Err != nil {
			return fmt.Sprintf("timed out: %v", e.Err)
		}
		return "timed out"
	default:
		if e.StatusCode == 0 && e.Err != nil {
			return fmt.Sprintf("service error: %v", e.Err)
		}
		return fmt.Sprintf("service error: HTTP %d: %s", e.StatusCode, e.Body)
	}
}

// Is matches the kind sentinels.
func (e *CompletionError) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.Kind == KindRateLimited
	case ErrAuthenticationFailed:
		return e.Kind == KindAuthenticationFailed
	case ErrTimedOut:
		return e.Kind == KindTimedOut
	case ErrServiceError:
		return e.Kind == KindServiceError
	}
	return false
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}
