// Package ai provides factory functions for creating AI service adapters
// and the vector index they feed.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/mailrag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/mailrag/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/mailrag/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/mailrag/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/mailrag/internal/adapters/driven/llm/openai"
	chromaindex "github.com/custodia-labs/mailrag/internal/adapters/driven/vector/chroma"
	memoryindex "github.com/custodia-labs/mailrag/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/mailrag/internal/core/domain"
	"github.com/custodia-labs/mailrag/internal/core/ports/driven"
	"github.com/custodia-labs/mailrag/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the services built from application settings.
type InitResult struct {
	EmbeddingService  driven.EmbeddingService
	CompletionService driven.CompletionService
	VectorIndex       driven.VectorIndex
	Warnings          []string // Non-fatal issues; the affected service is nil.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		_ = r.EmbeddingService.Close()
	}
	if r.VectorIndex != nil {
		_ = r.VectorIndex.Close()
	}
	if r.CompletionService != nil {
		_ = r.CompletionService.Close()
	}
}

// Initialise builds every service described by settings. A service that
// cannot be built is left nil and reported in Warnings so the caller can
// still run the parts that do not need it. The memory index is used when
// Chroma is unreachable.
func Initialise(ctx context.Context, settings domain.AppSettings) *InitResult {
	result := &InitResult{}

	completion, err := CreateCompletionService(&settings.LLM)
	switch {
	case err != nil:
		result.Warnings = append(result.Warnings, fmt.Sprintf("%v: %v", domain.ErrLLMUnavailable, err))
	case completion == nil:
		result.Warnings = append(result.Warnings, "LLM provider not configured. Run 'mailrag settings set-key llm' or set GITHUB_TOKEN")
	default:
		result.CompletionService = completion
	}

	embedding, err := CreateEmbeddingService(&settings.Embedding)
	switch {
	case err != nil:
		result.Warnings = append(result.Warnings, fmt.Sprintf("%v: %v", domain.ErrEmbeddingUnavailable, err))
	case embedding == nil:
		result.Warnings = append(result.Warnings, "embedding provider not configured. Run 'mailrag settings set-key embedding' or set GITHUB_TOKEN")
	default:
		result.EmbeddingService = embedding
	}

	index, err := CreateVectorIndex(ctx, &settings.VectorIndex)
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%v: %v; falling back to in-memory index", domain.ErrIndexUnavailable, err))
		index = memoryindex.NewIndex()
	}
	result.VectorIndex = index

	for _, w := range result.Warnings {
		logger.Warn("%s", w)
	}
	return result
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}
	if settings.Provider.IsValid() && !settings.Provider.SupportsEmbeddings() {
		return nil, fmt.Errorf("%s does not support embeddings, use ollama or openai", settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateCompletionService creates the appropriate completion service based on settings.
// Returns nil if the provider is not configured.
func CreateCompletionService(settings *domain.LLMSettings) (driven.CompletionService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		svc, err := openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:            settings.APIKey,
			BaseURL:           settings.BaseURL,
			Model:             settings.Model,
			RequestsPerSecond: settings.RequestsPerSecond,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	case domain.AIProviderAnthropic:
		svc, err := anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:            settings.APIKey,
			BaseURL:           settings.BaseURL,
			Model:             settings.Model,
			RequestsPerSecond: settings.RequestsPerSecond,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// CreateVectorIndex creates the vector index selected by settings.
func CreateVectorIndex(ctx context.Context, settings *domain.VectorIndexSettings) (driven.VectorIndex, error) {
	if settings == nil || settings.Backend == "" || settings.Backend == domain.VectorBackendMemory {
		return memoryindex.NewIndex(), nil
	}

	switch settings.Backend {
	case domain.VectorBackendChroma:
		ctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		idx, err := chromaindex.New(ctx, chromaindex.Config{
			URL:        settings.URL,
			Collection: settings.Collection,
		})
		if err != nil {
			return nil, err
		}
		return idx, nil

	default:
		return nil, fmt.Errorf("unsupported vector backend: %s", settings.Backend)
	}
}
