package services

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mailrag/internal/core/domain"
	"github.com/custodia-labs/mailrag/internal/core/ports/driven"
)

func TestClassify_Success(t *testing.T) {
	llm := &fakeCompletion{reply: `{"category":"HR","subject":"Payroll","summary":"Salary day moved.","date_extracted":"2024-05-01"}`}
	svc := NewClassificationService(llm, testPrompts())

	got := svc.Classify(context.Background(), "body text", "boss@example.com", []string{"HR", "Project"})

	assert.Equal(t, domain.OutcomeClassified, got.Outcome)
	assert.Equal(t, "HR", got.Category)
	assert.Equal(t, "Payroll", got.Subject)
	assert.Equal(t, "Salary day moved.", got.Summary)
	require.NotNil(t, got.ExtractedDate)
	assert.Equal(t, "2024-05-01", *got.ExtractedDate)
	assert.Equal(t, domain.StatusCompleted, got.Status)

	require.Equal(t, 1, llm.callCount())
	msgs := llm.messages[0]
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.RoleSystem, msgs[0].Role)
	assert.Equal(t, "Categories: HR, Project", msgs[0].Content)
	assert.Equal(t, "Sender: boss@example.com\n\nBody:\nbody text", msgs[1].Content)
	assert.True(t, llm.opts[0].Structured)
}

func TestClassify_EditedPromptWithPercent(t *testing.T) {
	llm := &fakeCompletion{reply: `{"category":"HR"}`}
	prompts := staticPrompts{driven.PromptClassify: "Be 100% sure. Pick one of: %s"}

	NewClassificationService(llm, prompts).Classify(context.Background(), "b", "", []string{"HR", "Project"})

	require.Equal(t, 1, llm.callCount())
	assert.Equal(t, "Be 100% sure. Pick one of: HR, Project", llm.messages[0][0].Content)
}

func TestClassify_UnknownSenderAndTruncation(t *testing.T) {
	llm := &fakeCompletion{reply: `{}`}
	svc := NewClassificationService(llm, testPrompts())
	body := strings.Repeat("가", MaxClassifyBodyLength+10)

	got := svc.Classify(context.Background(), body, "", nil)

	assert.Equal(t, domain.CategoryUnclassified, got.Category, "absent category defaults")
	assert.Equal(t, domain.OutcomeClassified, got.Outcome)
	user := llm.messages[0][1].Content
	assert.True(t, strings.HasPrefix(user, "Sender: unknown\n\nBody:\n"))
	assert.Equal(t, MaxClassifyBodyLength, utf8.RuneCountInString(strings.TrimPrefix(user, "Sender: unknown\n\nBody:\n")))
}

func TestClassify_UnrecognisedCategoryKept(t *testing.T) {
	llm := &fakeCompletion{reply: `{"category":"Finance"}`}
	got := NewClassificationService(llm, testPrompts()).Classify(context.Background(), "b", "s", []string{"HR"})
	assert.Equal(t, "Finance", got.Category)
}

func TestClassify_ParseFailed(t *testing.T) {
	for _, raw := range []string{"not json", "", "[1,2]", `"str"`, "null", `{"category": 5}`, `{"summary": ["a"]}`} {
		t.Run(raw, func(t *testing.T) {
			llm := &fakeCompletion{reply: raw}
			got := NewClassificationService(llm, testPrompts()).Classify(context.Background(), "b", "s", nil)

			assert.Equal(t, domain.OutcomeParseFailed, got.Outcome)
			assert.Equal(t, domain.CategoryUnclassified, got.Category)
			assert.Contains(t, got.Summary, "parse failed")
			assert.Equal(t, domain.StatusCompleted, got.Status)
			assert.Nil(t, got.ExtractedDate)
		})
	}
}

func TestClassify_Deferred(t *testing.T) {
	llm := &fakeCompletion{err: errUnavailable}
	got := NewClassificationService(llm, testPrompts()).Classify(context.Background(), "b", "s", nil)

	assert.Equal(t, domain.OutcomeDeferred, got.Outcome)
	assert.Equal(t, domain.CategoryUnclassified, got.Category)
	assert.Contains(t, got.Summary, "deferred")
	assert.Equal(t, domain.StatusPending, got.Status)
}

func TestClassify_NoCompletionServiceDefers(t *testing.T) {
	got := NewClassificationService(nil, testPrompts()).Classify(context.Background(), "b", "s", nil)
	assert.Equal(t, domain.StatusPending, got.Status)
}

func TestParseClassification(t *testing.T) {
	t.Run("null date", func(t *testing.T) {
		got, err := parseClassification(`{"category":"Notice","date_extracted":null}`)
		require.NoError(t, err)
		assert.Nil(t, got.ExtractedDate)
	})

	t.Run("code fence", func(t *testing.T) {
		got, err := parseClassification("```json\n{\"category\":\"Schedule\"}\n```")
		require.NoError(t, err)
		assert.Equal(t, "Schedule", got.Category)
	})

	t.Run("unknown fields ignored", func(t *testing.T) {
		got, err := parseClassification(`{"category":"HR","confidence":0.9}`)
		require.NoError(t, err)
		assert.Equal(t, "HR", got.Category)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := parseClassification(`{"category":`)
		assert.ErrorIs(t, err, domain.ErrMalformedResponse)
	})
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "", truncateRunes("abc", 0))
	assert.Equal(t, "ab", truncateRunes("abc", 2))
	assert.Equal(t, "abc", truncateRunes("abc", 5))
	assert.Equal(t, "日本", truncateRunes("日本語", 2))
}
