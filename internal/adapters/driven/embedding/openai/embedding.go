// Package openai provides an embedding service adapter for OpenAI-compatible
// APIs. The default endpoint is GitHub Models.
package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/mailrag/internal/adapters/driven/aihttp"
	llmopenai "github.com/custodia-labs/mailrag/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/mailrag/internal/core/domain"
	"github.com/custodia-labs/mailrag/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = domain.GitHubModelsBaseURL
	DefaultModel   = "openai/text-embedding-3-small"
	DefaultTimeout = aihttp.DefaultTimeout
)

// Config holds configuration for the embedding service.
type Config struct {
	// APIKey is the bearer token (required).
	APIKey string

	// BaseURL is the API base URL (default: GitHub Models).
	BaseURL string

	// Model is the embedding model to use (default: openai/text-embedding-3-small).
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration

	// RequestsPerSecond enables proactive throttling when positive.
	RequestsPerSecond float64
}

// EmbeddingService generates embeddings using an OpenAI-compatible API.
type EmbeddingService struct {
	client  *aihttp.Client
	baseURL string
	apiKey  string
	model   string
}

// embeddingRequest is the /embeddings request format.
type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// embeddingResponse is the /embeddings response format.
type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// NewEmbeddingService creates a new embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
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

	return &EmbeddingService{
		client: aihttp.New(aihttp.Config{
			Timeout:           cfg.Timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
		}),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// EmbedBatch embeds all texts in one request.
// Results are reordered by the index field the API returns.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp embeddingResponse
	reqBody := embeddingRequest{Model: s.model, Input: texts}
	headers := llmopenai.Headers(s.baseURL, s.apiKey)
	if err := s.client.PostJSON(ctx, s.baseURL+"/embeddings", headers, reqBody, &resp); err != nil {
		return nil, fmt.Errorf("openai: embed: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai: embed: %w", &domain.CompletionError{
			Kind:       domain.KindServiceError,
			StatusCode: 200,
			Body:       fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(resp.Data)),
		})
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("openai: embed: %w", &domain.CompletionError{
				Kind:       domain.KindServiceError,
				StatusCode: 200,
				Body:       fmt.Sprintf("embedding index %d out of range", d.Index),
			})
		}
		out[d.Index] = d.Embedding
	}

	return out, nil
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping validates the API key by listing models.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	headers := llmopenai.Headers(s.baseURL, s.apiKey)
	if err := s.client.Get(ctx, llmopenai.PingURL(s.baseURL), headers, nil); err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
