package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/mailrag/internal/core/domain"
	"github.com/custodia-labs/mailrag/internal/core/ports/driven"
	"github.com/custodia-labs/mailrag/internal/logger"
)

// MaxClassifyBodyLength caps the body characters sent to the model.
// The stored body is never truncated.
const MaxClassifyBodyLength = 50000

// unknownSender stands in for a missing sender in the user message.
const unknownSender = "unknown"

// ClassificationService assigns a category, subject, summary and date to
// an email body using the completion service.
type ClassificationService struct {
	completion driven.CompletionService
	prompts    driven.PromptStore
}

// NewClassificationService creates a classification service.
func NewClassificationService(completion driven.CompletionService, prompts driven.PromptStore) *ClassificationService {
	return &ClassificationService{completion: completion, prompts: prompts}
}

// Classify never fails. A malformed response yields the parse-failed
// fallback; a completion failure yields the pending deferred fallback.
func (s *ClassificationService) Classify(ctx context.Context, body, sender string, categories []string) domain.ClassificationResult {
	log := logger.With(map[string]any{"request_id": uuid.NewString(), "op": "classify"})

	if s.completion == nil {
		log.Warn("no completion service configured, deferring")
		return domain.DeferredClassification()
	}

	template, err := s.prompts.Load(driven.PromptClassify)
	if err != nil {
		log.Error(err, "load classify prompt")
		return domain.DeferredClassification()
	}

	messages := []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: fillPrompt(template, strings.Join(categories, ", "))},
		{Role: domain.RoleUser, Content: classifyUserMessage(body, sender)},
	}

	raw, err := s.completion.Complete(ctx, messages, driven.CompletionOptions{Structured: true})
	if err != nil {
		log.Error(err, "completion failed, classification deferred")
		return domain.DeferredClassification()
	}

	result, err := parseClassification(raw)
	if err != nil {
		log.Warn("classification parse failed: %v", err)
		return domain.ParseFailedClassification()
	}
	log.Debug("classified as %q", result.Category)
	return result
}

func classifyUserMessage(body, sender string) string {
	if sender == "" {
		sender = unknownSender
	}
	return fmt.Sprintf("Sender: %s\n\nBody:\n%s", sender, truncateRunes(body, MaxClassifyBodyLength))
}

// classificationPayload mirrors the JSON the classify prompt asks for.
// Pointers distinguish absent fields from empty ones.
type classificationPayload struct {
	Category      *string `json:"category"`
	Subject       *string `json:"subject"`
	Summary       *string `json:"summary"`
	ExtractedDate *string `json:"date_extracted"`
}

// parseClassification decodes a structured model response. It returns
// domain.ErrMalformedResponse for anything but a JSON object whose known
// fields are strings or null. Absent fields take their defaults and
// unknown fields are ignored.
func parseClassification(raw string) (domain.ClassificationResult, error) {
	data := bytes.TrimSpace([]byte(stripCodeFence(raw)))
	if len(data) == 0 || data[0] != '{' {
		return domain.ClassificationResult{}, fmt.Errorf("%w: not a JSON object", domain.ErrMalformedResponse)
	}

	var p classificationPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	result := domain.ClassificationResult{
		Category:      domain.CategoryUnclassified,
		ExtractedDate: p.ExtractedDate,
		Status:        domain.StatusCompleted,
		Outcome:       domain.OutcomeClassified,
	}
	if p.Category != nil {
		result.Category = *p.Category
	}
	if p.Subject != nil {
		result.Subject = *p.Subject
	}
	if p.Summary != nil {
		result.Summary = *p.Summary
	}
	return result, nil
}

// stripCodeFence removes a surrounding ``` or ```json fence, which some
// models add despite being asked for bare JSON.
func stripCodeFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") || !strings.HasSuffix(t, "```") || len(t) < 6 {
		return s
	}
	t = strings.TrimSuffix(strings.TrimPrefix(t, "```"), "```")
	if nl := strings.IndexByte(t, '\n'); nl >= 0 && !strings.Contains(t[:nl], "{") {
		t = t[nl+1:]
	}
	return t
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
