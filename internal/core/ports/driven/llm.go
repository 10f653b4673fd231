// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/custodia-labs/mailrag/internal/core/domain"
)

// CompletionService provides chat completion.
//
// Implementations include:
//   - OpenAI-compatible APIs (GitHub Models, OpenAI)
//   - Anthropic (Claude)
//   - Ollama (local models)
//
// Complete makes exactly one request with a fixed timeout and never retries.
// Failures are *domain.CompletionError values.
type CompletionService interface {
	// Complete sends the messages and returns the model's reply text.
	Complete(ctx context.Context, messages []domain.ChatMessage, opts CompletionOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// CompletionOptions configures a completion request.
type CompletionOptions struct {
	// Structured asks the model to return a single JSON object as its entire reply.
	Structured bool

	// MaxTokens caps the reply length. Zero uses the provider default.
	MaxTokens int
}
