package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/mailrag/internal/core/domain"
	"github.com/custodia-labs/mailrag/internal/core/ports/driven"
	"github.com/custodia-labs/mailrag/internal/logger"
)

// Retrieval parameters.
const (
	// DefaultTopK is the number of chunks retrieved per question.
	DefaultTopK = 5

	// PreviewLength is the maximum source preview length in characters.
	PreviewLength = 100
)

var errNoEmbedding = fmt.Errorf("%w: no embedding returned", domain.ErrEmbeddingUnavailable)

// Fixed replies used when no grounded answer can be produced.
const (
	NoEvidenceAnswer = "I couldn't find any related email. Add some emails first, then ask again."
	ApologyAnswer    = "Sorry, something went wrong while generating the answer. Please try again."
)

// AnswerService answers questions from retrieved email chunks.
type AnswerService struct {
	embedder   driven.EmbeddingService
	index      driven.VectorIndex
	completion driven.CompletionService
	prompts    driven.PromptStore
	topK       int
}

// NewAnswerService creates an answer service. Any adapter may be nil; a
// missing embedder or index means no evidence, and a missing completion
// service means the apology answer.
func NewAnswerService(
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	completion driven.CompletionService,
	prompts driven.PromptStore,
) *AnswerService {
	return &AnswerService{
		embedder:   embedder,
		index:      index,
		completion: completion,
		prompts:    prompts,
		topK:       DefaultTopK,
	}
}

// Answer never fails. Search failures are treated as no evidence and
// completion failures produce ApologyAnswer.
func (s *AnswerService) Answer(ctx context.Context, question string, history []domain.ChatMessage) domain.Answer {
	log := logger.With(map[string]any{"request_id": uuid.NewString(), "op": "answer"})

	items := s.search(ctx, question, log)
	if len(items) == 0 {
		log.Debug("no evidence for question")
		return emptyAnswer(NoEvidenceAnswer)
	}

	contextText, sourceIDs := BuildContext(items)
	log.Debug("context: %d chunks retrieved, %d source emails", len(items), len(sourceIDs))

	if s.completion == nil {
		log.Warn("no completion service configured")
		return emptyAnswer(ApologyAnswer)
	}

	template, err := s.prompts.Load(driven.PromptAnswer)
	if err != nil {
		log.Error(err, "load answer prompt")
		return emptyAnswer(ApologyAnswer)
	}

	messages := make([]domain.ChatMessage, 0, len(history)+2)
	messages = append(messages, domain.ChatMessage{Role: domain.RoleSystem, Content: fillPrompt(template, contextText)})
	messages = append(messages, history...)
	messages = append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: question})

	text, err := s.completion.Complete(ctx, messages, driven.CompletionOptions{})
	if err != nil {
		log.Error(err, "answer generation failed")
		return emptyAnswer(ApologyAnswer)
	}

	return domain.Answer{
		Text:      text,
		SourceIDs: sourceIDs,
		Sources:   previews(items, sourceIDs),
	}
}

func (s *AnswerService) search(ctx context.Context, question string, log logger.Entry) []domain.RetrievedItem {
	if s.embedder == nil || s.index == nil {
		log.Warn("retrieval unavailable: embedding service or vector index not configured")
		return nil
	}

	vectors, err := s.embedder.EmbedBatch(ctx, []string{question})
	if err == nil && len(vectors) == 0 {
		err = errNoEmbedding
	}
	if err != nil {
		log.Error(err, "embed question")
		return nil
	}

	items, err := s.index.Query(ctx, vectors[0], s.topK, nil)
	if err != nil {
		log.Error(fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, err), "query index")
		return nil
	}
	return items
}

// previews returns one preview per id, taken from that id's first item
// in rank order.
func previews(items []domain.RetrievedItem, ids []int64) []domain.SourcePreview {
	best := make(map[int64]string, len(ids))
	for _, item := range items {
		if item.EmailID == nil {
			continue
		}
		if _, ok := best[*item.EmailID]; !ok {
			best[*item.EmailID] = item.Text
		}
	}

	out := make([]domain.SourcePreview, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.SourcePreview{EmailID: id, Preview: truncateRunes(best[id], PreviewLength)})
	}
	return out
}

func emptyAnswer(text string) domain.Answer {
	return domain.Answer{Text: text, SourceIDs: []int64{}, Sources: []domain.SourcePreview{}}
}
