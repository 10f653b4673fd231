package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mailrag/internal/core/domain"
	"github.com/custodia-labs/mailrag/internal/core/ports/driven"
)

func TestAnswer_NoEvidenceSkipsCompletion(t *testing.T) {
	llm := &fakeCompletion{reply: "should not be used"}
	svc := NewAnswerService(&fakeEmbedder{}, &fakeIndex{}, llm, testPrompts())

	got := svc.Answer(context.Background(), "when is the offsite?", nil)

	assert.Equal(t, NoEvidenceAnswer, got.Text)
	assert.Empty(t, got.SourceIDs)
	assert.Empty(t, got.Sources)
	assert.Equal(t, 0, llm.callCount())
}

func TestAnswer_SearchFailuresAreNoEvidence(t *testing.T) {
	tests := []struct {
		name     string
		embedder *fakeEmbedder
		index    *fakeIndex
	}{
		{"embedding fails", &fakeEmbedder{err: errors.New("boom")}, &fakeIndex{items: []domain.RetrievedItem{item(1, "a")}}},
		{"query fails", &fakeEmbedder{}, &fakeIndex{queryErr: errors.New("down")}},
		{"no vectors returned", &fakeEmbedder{empty: true}, &fakeIndex{items: []domain.RetrievedItem{item(1, "a")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeCompletion{reply: "x"}
			got := NewAnswerService(tt.embedder, tt.index, llm, testPrompts()).Answer(context.Background(), "q", nil)
			assert.Equal(t, NoEvidenceAnswer, got.Text)
			assert.Equal(t, 0, llm.callCount())
		})
	}

	llm := &fakeCompletion{reply: "x"}
	got := NewAnswerService(nil, nil, llm, testPrompts()).Answer(context.Background(), "q", nil)
	assert.Equal(t, NoEvidenceAnswer, got.Text)
}

func TestAnswer_Grounded(t *testing.T) {
	long := strings.Repeat("a", 150)
	index := &fakeIndex{items: []domain.RetrievedItem{
		item(9, long),
		item(2, "short"),
		item(9, "second-best chunk of nine"),
	}}
	llm := &fakeCompletion{reply: "The offsite is on Friday [doc #9]."}
	history := []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "hello"},
	}
	svc := NewAnswerService(&fakeEmbedder{}, index, llm, testPrompts())

	got := svc.Answer(context.Background(), "when is the offsite?", history)

	assert.Equal(t, "The offsite is on Friday [doc #9].", got.Text)
	assert.Equal(t, []int64{2, 9}, got.SourceIDs)
	require.Len(t, got.Sources, 2)
	assert.Equal(t, domain.SourcePreview{EmailID: 2, Preview: "short"}, got.Sources[0])
	assert.Equal(t, int64(9), got.Sources[1].EmailID)
	assert.Equal(t, PreviewLength, utf8.RuneCountInString(got.Sources[1].Preview), "best-ranked chunk, truncated")
	assert.Equal(t, DefaultTopK, index.k)

	msgs := llm.messages[0]
	require.Len(t, msgs, 4)
	assert.Equal(t, domain.RoleSystem, msgs[0].Role)
	assert.True(t, strings.HasPrefix(msgs[0].Content, "Context:\n[doc #9] "))
	assert.Equal(t, history, msgs[1:3])
	assert.Equal(t, domain.ChatMessage{Role: domain.RoleUser, Content: "when is the offsite?"}, msgs[3])
	assert.False(t, llm.opts[0].Structured)
}

func TestAnswer_SourcesMatchIDs(t *testing.T) {
	index := &fakeIndex{items: []domain.RetrievedItem{item(5, "e"), item(1, "a"), item(5, "e2"), item(3, "c")}}
	got := NewAnswerService(&fakeEmbedder{}, index, &fakeCompletion{reply: "ok"}, testPrompts()).
		Answer(context.Background(), "q", nil)

	require.Len(t, got.Sources, len(got.SourceIDs))
	for i, src := range got.Sources {
		assert.Equal(t, got.SourceIDs[i], src.EmailID)
	}
}

func TestAnswer_CompletionFailureApologises(t *testing.T) {
	index := &fakeIndex{items: []domain.RetrievedItem{item(1, "a")}}
	llm := &fakeCompletion{err: &domain.CompletionError{Kind: domain.KindRateLimited}}

	got := NewAnswerService(&fakeEmbedder{}, index, llm, testPrompts()).Answer(context.Background(), "q", nil)

	assert.Equal(t, ApologyAnswer, got.Text)
	assert.Empty(t, got.SourceIDs)
	assert.Empty(t, got.Sources)
	assert.Equal(t, 1, llm.callCount())
}

func TestAnswer_MissingCompletionApologises(t *testing.T) {
	index := &fakeIndex{items: []domain.RetrievedItem{item(1, "a")}}
	got := NewAnswerService(&fakeEmbedder{}, index, nil, testPrompts()).Answer(context.Background(), "q", nil)
	assert.Equal(t, ApologyAnswer, got.Text)
}

func TestAnswer_ContextWithPercentSigns(t *testing.T) {
	index := &fakeIndex{items: []domain.RetrievedItem{item(3, "Bonus is 10% of %s base")}}
	llm := &fakeCompletion{reply: "ok"}
	prompts := staticPrompts{driven.PromptAnswer: "Answer 100% from:\n%s"}

	NewAnswerService(&fakeEmbedder{}, index, llm, prompts).Answer(context.Background(), "bonus?", nil)

	require.Equal(t, 1, llm.callCount())
	system := llm.messages[0][0].Content
	assert.True(t, strings.HasPrefix(system, "Answer 100% from:\n"))
	assert.Contains(t, system, "Bonus is 10% of %s base")
	assert.NotContains(t, system, "%!")
}
