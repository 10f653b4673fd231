// Package anthropic provides a completion service adapter using Anthropic API.
package anthropic

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
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-sonnet-latest"
	DefaultTimeout   = aihttp.DefaultTimeout
	DefaultMaxTokens = 1024

	// anthropicVersion is the required API version header.
	anthropicVersion = "2023-06-01"

	// jsonInstruction is appended to the system prompt for structured requests;
	// the Messages API has no JSON response format switch.
	jsonInstruction = "Respond with a single JSON object and nothing else."
)

// Config holds configuration for the Anthropic LLM service.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string

	// Model is the LLM model to use (default: claude-3-5-sonnet-latest).
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration

	// RequestsPerSecond enables proactive throttling when positive.
	RequestsPerSecond float64
}

// LLMService provides completions using Anthropic API.
type LLMService struct {
	client  *aihttp.Client
	baseURL string
	apiKey  string
	model   string
}

// messagesRequest is the Anthropic /v1/messages request format.
type messagesRequest struct {
	Model     string               `json:"model"`
	Messages  []domain.ChatMessage `json:"messages"`
	MaxTokens int                  `json:"max_tokens"`
	System    string               `json:"system,omitempty"`
}

// messagesResponse is the Anthropic /v1/messages response format.
type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// NewLLMService creates a new Anthropic LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
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

// Complete sends one Messages API request.
// System messages are lifted into the top-level system field.
func (s *LLMService) Complete(ctx context.Context, messages []domain.ChatMessage, opts driven.CompletionOptions) (string, error) {
	var system []string
	chat := make([]domain.ChatMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == domain.RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		chat = append(chat, msg)
	}
	if opts.Structured {
		system = append(system, jsonInstruction)
	}

	reqBody := messagesRequest{
		Model:     s.model,
		Messages:  chat,
		MaxTokens: DefaultMaxTokens,
		System:    strings.Join(system, "\n\n"),
	}
	if opts.MaxTokens > 0 {
		reqBody.MaxTokens = opts.MaxTokens
	}

	var resp messagesResponse
	if err := s.client.PostJSON(ctx, s.baseURL+"/v1/messages", s.headers(), reqBody, &resp); err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("anthropic: %w", &domain.CompletionError{
			Kind:       domain.KindServiceError,
			StatusCode: 200,
			Body:       "no text content returned",
		})
	}

	return out.String(), nil
}

func (s *LLMService) headers() map[string]string {
	return map[string]string{
		"x-api-key":         s.apiKey,
		"anthropic-version": anthropicVersion,
	}
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the API key by listing models.
func (s *LLMService) Ping(ctx context.Context) error {
	if err := s.client.Get(ctx, s.baseURL+"/v1/models", s.headers(), nil); err != nil {
		return fmt.Errorf("anthropic: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
