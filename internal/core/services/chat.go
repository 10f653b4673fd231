package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/mailrag/internal/core/domain"
	"github.com/custodia-labs/mailrag/internal/core/ports/driven"
	"github.com/custodia-labs/mailrag/internal/core/ports/driving"
	"github.com/custodia-labs/mailrag/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// SummaryPreviewLength bounds the summary shown with each source.
const SummaryPreviewLength = 200

// ChatService answers questions and decorates the sources with details
// from the email store.
type ChatService struct {
	answers *AnswerService
	emails  driven.EmailStore
}

// NewChatService creates a chat service.
func NewChatService(answers *AnswerService, emails driven.EmailStore) *ChatService {
	return &ChatService{answers: answers, emails: emails}
}

// Ask answers a question. Sources whose email has since been deleted are
// dropped from the enriched list but kept in the answer.
func (s *ChatService) Ask(ctx context.Context, question string, history []domain.ChatMessage) (*driving.ChatResponse, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question must not be empty", domain.ErrInvalidInput)
	}

	answer := s.answers.Answer(ctx, question, history)

	previews := make(map[int64]string, len(answer.Sources))
	for _, p := range answer.Sources {
		previews[p.EmailID] = p.Preview
	}

	sources := make([]domain.EnrichedSource, 0, len(answer.SourceIDs))
	for _, id := range answer.SourceIDs {
		email, err := s.emails.Get(ctx, id)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				logger.Error(err, "load source email %d", id)
			}
			continue
		}
		sources = append(sources, domain.EnrichedSource{
			EmailID: id,
			Sender:  email.Sender,
			Subject: email.Subject,
			Summary: truncateRunes(email.Summary, SummaryPreviewLength),
			Preview: previews[id],
		})
	}

	return &driving.ChatResponse{Answer: answer, Sources: sources}, nil
}
