package driving

import (
	"context"

	"github.com/custodia-labs/mailrag/internal/core/domain"
)

// ChatService answers questions grounded in the indexed emails.
type ChatService interface {
	// Ask answers the question. It never fails on completion or index
	// errors; those produce a fallback answer instead. An error is returned
	// only for invalid input.
	Ask(ctx context.Context, question string, history []domain.ChatMessage) (*ChatResponse, error)
}

// ChatResponse is an answer plus display details for each source email.
type ChatResponse struct {
	Answer  domain.Answer
	Sources []domain.EnrichedSource
}
