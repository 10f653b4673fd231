package services

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/mailrag/internal/core/domain"
	"github.com/custodia-labs/mailrag/internal/core/ports/driven"
)

// fakeCompletion returns canned replies and records every call.
type fakeCompletion struct {
	mu       sync.Mutex
	reply    string
	replies  []string
	err      error
	calls    int
	messages [][]domain.ChatMessage
	opts     []driven.CompletionOptions
}

func (f *fakeCompletion) Complete(_ context.Context, msgs []domain.ChatMessage, opts driven.CompletionOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.messages = append(f.messages, msgs)
	f.opts = append(f.opts, opts)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) > 0 {
		r := f.replies[0]
		f.replies = f.replies[1:]
		return r, nil
	}
	return f.reply, nil
}

func (f *fakeCompletion) ModelName() string          { return "fake" }
func (f *fakeCompletion) Ping(context.Context) error { return nil }
func (f *fakeCompletion) Close() error               { return nil }

func (f *fakeCompletion) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeEmbedder maps each text to a deterministic two-dimensional vector.
type fakeEmbedder struct {
	mu    sync.Mutex
	err   error
	calls int
	empty bool
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.empty {
		return nil, nil
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)%7) + 1, 1}
	}
	return out, nil
}

func (f *fakeEmbedder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeEmbedder) ModelName() string          { return "fake-embed" }
func (f *fakeEmbedder) Ping(context.Context) error { return nil }
func (f *fakeEmbedder) Close() error               { return nil }

// fakeIndex returns canned query results.
type fakeIndex struct {
	items     []domain.RetrievedItem
	queryErr  error
	deleteErr error
	upsertErr error
	queries   int
	k         int
}

func (f *fakeIndex) Upsert(context.Context, []domain.Chunk) error { return f.upsertErr }

func (f *fakeIndex) Query(_ context.Context, _ []float32, k int, _ map[string]any) ([]domain.RetrievedItem, error) {
	f.queries++
	f.k = k
	return f.items, f.queryErr
}

func (f *fakeIndex) Delete(context.Context, map[string]any) error { return f.deleteErr }
func (f *fakeIndex) Close() error                                 { return nil }

// staticPrompts serves fixed templates.
type staticPrompts map[string]string

func (p staticPrompts) Load(name string) (string, error) {
	if t, ok := p[name]; ok {
		return t, nil
	}
	return "", errors.New("no prompt")
}

func (p staticPrompts) Reload() {}

func testPrompts() staticPrompts {
	return staticPrompts{
		driven.PromptClassify: "Categories: %s",
		driven.PromptAnswer:   "Context:\n%s",
	}
}

func id(n int64) *int64 { return &n }

func item(emailID int64, text string) domain.RetrievedItem {
	return domain.RetrievedItem{
		Text:     text,
		EmailID:  id(emailID),
		Metadata: map[string]any{domain.MetaEmailID: emailID},
	}
}

var errUnavailable = &domain.CompletionError{Kind: domain.KindServiceError, StatusCode: 503, Body: "down"}
