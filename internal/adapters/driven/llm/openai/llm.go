// Package openai provides a completion service adapter for OpenAI-compatible
// chat APIs. The default endpoint is GitHub Models.
package openai

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
	DefaultBaseURL    = domain.GitHubModelsBaseURL
	DefaultLLMModel   = "openai/gpt-5-mini"
	DefaultLLMTimeout = aihttp.DefaultTimeout

	// gitHubAPIVersion is sent to GitHub Models.
	gitHubAPIVersion = "2022-11-28"
)

// LLMConfig holds configuration for the OpenAI-compatible LLM service.
type LLMConfig struct {
	// APIKey is the bearer token (required). For GitHub Models this is a GitHub token.
	APIKey string

	// BaseURL is the API base URL (default: GitHub Models).
	// Set https://api.openai.com/v1 for OpenAI itself.
	BaseURL string

	// Model is the LLM model to use (default: openai/gpt-5-mini).
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration

	// RequestsPerSecond enables proactive throttling when positive.
	RequestsPerSecond float64
}

// LLMService provides completions using an OpenAI-compatible API.
type LLMService struct {
	client  *aihttp.Client
	baseURL string
	apiKey  string
	model   string
}

// chatCompletionRequest is the /chat/completions request format.
type chatCompletionRequest struct {
	Model          string               `json:"model"`
	Messages       []domain.ChatMessage `json:"messages"`
	MaxTokens      int                  `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat      `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// chatCompletionResponse is the /chat/completions response format.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// NewLLMService creates a new OpenAI-compatible LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
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
		client: aihttp.New(aihttp.Config{
			Timeout:           cfg.Timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
		}),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Complete sends one chat completion request.
// Structured requests ask for a JSON object response format.
func (s *LLMService) Complete(ctx context.Context, messages []domain.ChatMessage, opts driven.CompletionOptions) (string, error) {
	reqBody := chatCompletionRequest{
		Model:    s.model,
		Messages: messages,
	}
	if opts.MaxTokens > 0 {
		reqBody.MaxTokens = opts.MaxTokens
	}
	if opts.Structured {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	var resp chatCompletionResponse
	if err := s.client.PostJSON(ctx, s.baseURL+"/chat/completions", s.headers(), reqBody, &resp); err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: %w", &domain.CompletionError{
			Kind:       domain.KindServiceError,
			StatusCode: 200,
			Body:       "no response choices returned",
		})
	}

	return resp.Choices[0].Message.Content, nil
}

// headers returns the request headers for this endpoint.
func (s *LLMService) headers() map[string]string {
	return Headers(s.baseURL, s.apiKey)
}

// Headers returns the auth headers for an OpenAI-compatible endpoint,
// adding the API version header GitHub Models expects.
func Headers(baseURL, apiKey string) map[string]string {
	h := map[string]string{"Authorization": "Bearer " + apiKey}
	if IsGitHubModels(baseURL) {
		h["X-GitHub-Api-Version"] = gitHubAPIVersion
		h["Accept"] = "application/vnd.github+json"
	}
	return h
}

// IsGitHubModels reports whether baseURL points at GitHub Models.
func IsGitHubModels(baseURL string) bool {
	return strings.Contains(baseURL, "models.github.ai")
}

// PingURL returns a cheap authenticated GET endpoint for baseURL.
func PingURL(baseURL string) string {
	if IsGitHubModels(baseURL) {
		return "https://models.github.ai/catalog/models"
	}
	return strings.TrimRight(baseURL, "/") + "/models"
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the API key by listing models.
func (s *LLMService) Ping(ctx context.Context) error {
	if err := s.client.Get(ctx, PingURL(s.baseURL), s.headers(), nil); err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
