// Package ollama provides an embedding service adapter using a local Ollama instance.
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

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "nomic-embed-text"
	DefaultTimeout = aihttp.DefaultTimeout
)

// Config holds configuration for the Ollama embedding service.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the embedding model to use (default: nomic-embed-text).
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// EmbeddingService generates embeddings using Ollama.
type EmbeddingService struct {
	client  *aihttp.Client
	baseURL string
	model   string
}

// embedRequest is the Ollama /api/embed request format.
type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// embedResponse is the Ollama /api/embed response format.
type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewEmbeddingService creates a new Ollama embedding service.
func NewEmbeddingService(cfg Config) *EmbeddingService {
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
		client:  aihttp.New(aihttp.Config{Timeout: cfg.Timeout}),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
	}
}

// EmbedBatch embeds all texts in one /api/embed request.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp embedResponse
	if err := s.client.PostJSON(ctx, s.baseURL+"/api/embed", nil, embedRequest{Model: s.model, Input: texts}, &resp); err != nil {
		return nil, fmt.Errorf("ollama: embed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama: embed: %w", &domain.CompletionError{
			Kind:       domain.KindServiceError,
			StatusCode: 200,
			Body:       fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings)),
		})
	}

	return resp.Embeddings, nil
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by checking the /api/tags endpoint.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if err := s.client.Get(ctx, s.baseURL+"/api/tags", nil, nil); err != nil {
		return fmt.Errorf("ollama: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
