package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		provider AIProvider
		expected bool
	}{
		{name: "ollama is valid", provider: AIProviderOllama, expected: true},
		{name: "openai is valid", provider: AIProviderOpenAI, expected: true},
		{name: "anthropic is valid", provider: AIProviderAnthropic, expected: true},
		{name: "empty is invalid", provider: AIProvider(""), expected: false},
		{name: "unknown is invalid", provider: AIProvider("cohere"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings LLMSettings
		expected bool
	}{
		{name: "ollama needs no key", settings: LLMSettings{Provider: AIProviderOllama}, expected: true},
		{name: "openai without key", settings: LLMSettings{Provider: AIProviderOpenAI}, expected: false},
		{name: "openai with key", settings: LLMSettings{Provider: AIProviderOpenAI, APIKey: "k"}, expected: true},
		{name: "no provider", settings: LLMSettings{}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

func TestEmbeddingSettings_AnthropicNotSupported(t *testing.T) {
	s := EmbeddingSettings{Provider: AIProviderAnthropic, APIKey: "k"}
	assert.False(t, s.IsConfigured())
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, AIProviderOpenAI, s.LLM.Provider)
	assert.Equal(t, GitHubModelsBaseURL, s.LLM.BaseURL)
	assert.Equal(t, "openai/gpt-5-mini", s.LLM.Model)
	assert.Equal(t, "openai/text-embedding-3-small", s.Embedding.Model)
	assert.Equal(t, VectorBackendMemory, s.VectorIndex.Backend)
	assert.Equal(t, "emails", s.VectorIndex.Collection)
	assert.False(t, s.LLM.IsConfigured(), "API key must be supplied")
}

func TestVectorBackend_IsValid(t *testing.T) {
	assert.True(t, VectorBackendMemory.IsValid())
	assert.True(t, VectorBackendChroma.IsValid())
	assert.False(t, VectorBackend("qdrant").IsValid())
}

func TestProviderCatalogue(t *testing.T) {
	assert.Equal(t, []AIProvider{AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic}, AllLLMProviders())
	assert.Equal(t, []AIProvider{AIProviderOllama, AIProviderOpenAI}, AllEmbeddingProviders())

	assert.NotContains(t, DefaultEmbeddingModels(), AIProviderAnthropic)
	assert.Equal(t, "llama3.2", DefaultLLMModels()[AIProviderOllama])

	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderAnthropic.RequiresAPIKey())
	assert.False(t, AIProviderAnthropic.SupportsEmbeddings())
	assert.Equal(t, "Unknown", AIProvider("cohere").Description())
	assert.Equal(t, "Anthropic (cloud)", AIProviderAnthropic.Description())
}
