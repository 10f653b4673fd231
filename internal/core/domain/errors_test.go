package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrAlreadyExists", ErrAlreadyExists},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrProtectedCategory", ErrProtectedCategory},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrIndexUnavailable", ErrIndexUnavailable},
		{"ErrMalformedResponse", ErrMalformedResponse},
		{"ErrRateLimited", ErrRateLimited},
		{"ErrAuthenticationFailed", ErrAuthenticationFailed},
		{"ErrTimedOut", ErrTimedOut},
		{"ErrServiceError", ErrServiceError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestCompletionError_MatchesOnlyItsKind(t *testing.T) {
	kinds := map[CompletionErrorKind]error{
		KindRateLimited:          ErrRateLimited,
		KindAuthenticationFailed: ErrAuthenticationFailed,
		KindTimedOut:             ErrTimedOut,
		KindServiceError:         ErrServiceError,
	}

	for kind, sentinel := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			err := fmt.Errorf("complete: %w", &CompletionError{Kind: kind})
			assert.ErrorIs(t, err, sentinel)
			for other, otherSentinel := range kinds {
				if other != kind {
					assert.NotErrorIs(t, err, otherSentinel)
				}
			}
		})
	}
}

func TestCompletionError_As(t *testing.T) {
	err := fmt.Errorf("complete: %w", &CompletionError{
		Kind:       KindRateLimited,
		StatusCode: 429,
		RetryAfter: 3 * time.Second,
	})

	var ce *CompletionError
	if assert.True(t, errors.As(err, &ce)) {
		assert.Equal(t, 3*time.Second, ce.RetryAfter)
		assert.Equal(t, 429, ce.StatusCode)
	}
	assert.Contains(t, err.Error(), "retry after 3s")
}

func TestCompletionError_ServiceErrorCarriesStatusAndBody(t *testing.T) {
	err := &CompletionError{Kind: KindServiceError, StatusCode: 502, Body: "bad gateway"}
	assert.Equal(t, "service error: HTTP 502: bad gateway", err.Error())
}

func TestCompletionError_UnwrapsCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := &CompletionError{Kind: KindServiceError, Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "refused")
}
