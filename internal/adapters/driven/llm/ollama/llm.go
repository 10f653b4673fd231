// Package ollama provides a completion service adapter using a local Ollama instance.
package ollama

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/mailrag/internal/adapters/driven/aihttp"
	"github.com/custodia-labs/mailrag/internal/core/domain"
	"github.com/custodia-labs/mailrag/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.CompletionService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = aihttp.DefaultTimeout
)

// LLMConfig holds configuration for the Ollama LLM service.
type LLMConfig struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the LLM model to use (default: llama3.2).
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// LLMService provides completions using Ollama.
type LLMService struct {
	client  *aihttp.Client
	baseURL string
	model   string
}

// chatRequest is the Ollama /api/chat request format.
type chatRequest struct {
	Model    string               `json:"model"`
	Messages []domain.ChatMessage `json:"messages"`
	Stream   bool                 `json:"stream"`
	Format   string               `json:"format,omitempty"`
	Options  *chatOptions         `json:"options,omitempty"`
}

type chatOptions struct {
	NumPredict int `json:"num_predict,omitempty"`
}

// chatResponse is the Ollama /api/chat response format.
type chatResponse struct {
	Message domain.ChatMessage `json:"message"`
	Done    bool               `json:"done"`
	Error   string             `json:"error,omitempty"`
}

// NewLLMService creates a new Ollama LLM service.
func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	return &LLMService{
		client:  aihttp.New(aihttp.Config{Timeout: cfg.Timeout}),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
	}
}

// Complete sends one non-streaming chat request.
// Structured requests use Ollama's JSON format mode.
func (s *LLMService) Complete(ctx context.Context, messages []domain.ChatMessage, opts driven.CompletionOptions) (string, error) {
	reqBody := chatRequest{
		Model:    s.model,
		Messages: messages,
		Stream:   false,
	}
	if opts.Structured {
		reqBody.Format = "json"
	}
	if opts.MaxTokens > 0 {
		reqBody.Options = &chatOptions{NumPredict: opts.MaxTokens}
	}

	var resp chatResponse
	if err := s.client.PostJSON(ctx, s.baseURL+"/api/chat", nil, reqBody, &resp); err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("ollama: %w", &domain.CompletionError{
			Kind:       domain.KindServiceError,
			StatusCode: 200,
			Body:       resp.Error,
		})
	}

	return resp.Message.Content, nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by checking the /api/tags endpoint.
func (s *LLMService) Ping(ctx context.Context) error {
	if err := s.client.Get(ctx, s.baseURL+"/api/tags", nil, nil); err != nil {
		return fmt.Errorf("ollama: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
