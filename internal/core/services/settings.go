package services

import (
	"fmt"
	"os"

	"github.com/custodia-labs/mailrag/internal/core/domain"
	"github.com/custodia-labs/mailrag/internal/core/ports/driven"
	"github.com/custodia-labs/mailrag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyLLMRPS           = "llm.requests_per_second"
	keyVectorBackend    = "vector.backend"
	keyVectorURL        = "vector.url"
	keyVectorCollection = "vector.collection"
	keyStoragePath      = "storage.path"
)

// Environment variables consulted when no API key is stored.
// GitHub Models accepts a GitHub token as the bearer key.
var apiKeyEnv = map[domain.AIProvider][]string{
	domain.AIProviderOpenAI:    {"GITHUB_TOKEN", "OPENAI_API_KEY"},
	domain.AIProviderAnthropic: {"ANTHROPIC_API_KEY"},
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings. Stored API keys take
// precedence over the environment.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	embedProvider := s.getProvider(keyEmbedProvider, defaults.Embedding.Provider)
	llmProvider := s.getProvider(keyLLMProvider, defaults.LLM.Provider)

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider: embedProvider,
			Model:    s.getString(keyEmbedModel, defaultModel(domain.DefaultEmbeddingModels(), embedProvider)),
			BaseURL:  s.getString(keyEmbedBaseURL, defaultBaseURL(embedProvider)),
			APIKey:   s.apiKey(keyEmbedAPIKey, embedProvider),
		},
		LLM: domain.LLMSettings{
			Provider:          llmProvider,
			Model:             s.getString(keyLLMModel, defaultModel(domain.DefaultLLMModels(), llmProvider)),
			BaseURL:           s.getString(keyLLMBaseURL, defaultBaseURL(llmProvider)),
			APIKey:            s.apiKey(keyLLMAPIKey, llmProvider),
			RequestsPerSecond: s.configStore.GetFloat(keyLLMRPS),
		},
		VectorIndex: domain.VectorIndexSettings{
			Backend:    s.getBackend(defaults.VectorIndex.Backend),
			URL:        s.getString(keyVectorURL, defaults.VectorIndex.URL),
			Collection: s.getString(keyVectorCollection, defaults.VectorIndex.Collection),
		},
		Storage: domain.StorageSettings{
			Path: s.configStore.GetString(keyStoragePath),
		},
	}

	return settings, nil
}

// Save persists application settings. Empty API keys are not written so
// that an environment-supplied key is never copied to disk.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMRPS, settings.LLM.RequestsPerSecond},
		{keyVectorBackend, string(settings.VectorIndex.Backend)},
		{keyVectorURL, settings.VectorIndex.URL},
		{keyVectorCollection, settings.VectorIndex.Collection},
		{keyStoragePath, settings.Storage.Path},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// SetAPIKey stores an API key for the embedding or LLM provider.
func (s *SettingsService) SetAPIKey(target, apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("%w: empty API key", domain.ErrInvalidInput)
	}
	var key string
	switch target {
	case "llm":
		key = keyLLMAPIKey
	case "embedding":
		key = keyEmbedAPIKey
	default:
		return fmt.Errorf("%w: unknown key target %q (want llm or embedding)", domain.ErrInvalidInput, target)
	}
	if err := s.configStore.Set(key, apiKey); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !provider.SupportsEmbeddings() {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	if provider.RequiresAPIKey() && apiKey == "" && envAPIKey(provider) == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = model
	if model == "" {
		settings.Embedding.Model = defaultModel(domain.DefaultEmbeddingModels(), provider)
	}
	settings.Embedding.BaseURL = defaultBaseURL(provider)

	if err := s.Save(settings); err != nil {
		return err
	}
	if apiKey != "" {
		return s.SetAPIKey("embedding", apiKey)
	}
	return nil
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" && envAPIKey(provider) == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = model
	if model == "" {
		settings.LLM.Model = defaultModel(domain.DefaultLLMModels(), provider)
	}
	settings.LLM.BaseURL = defaultBaseURL(provider)

	if err := s.Save(settings); err != nil {
		return err
	}
	if apiKey != "" {
		return s.SetAPIKey("llm", apiKey)
	}
	return nil
}

// SetVectorBackend selects the vector index implementation.
func (s *SettingsService) SetVectorBackend(backend domain.VectorBackend, url string) error {
	if !backend.IsValid() {
		return fmt.Errorf("invalid vector backend: %s", backend)
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.VectorIndex.Backend = backend
	if url != "" {
		settings.VectorIndex.URL = url
	}
	return s.Save(settings)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

func (s *SettingsService) getString(key, defaultVal string) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(key))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.VectorBackend) domain.VectorBackend {
	backend := domain.VectorBackend(s.configStore.GetString(keyVectorBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func (s *SettingsService) apiKey(key string, provider domain.AIProvider) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return envAPIKey(provider)
}

func envAPIKey(provider domain.AIProvider) string {
	for _, name := range apiKeyEnv[provider] {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

func defaultModel(models map[domain.AIProvider]string, provider domain.AIProvider) string {
	return models[provider]
}

// defaultBaseURL returns the stored default endpoint for provider. Other
// providers get an empty URL and the adapter's own default.
func defaultBaseURL(provider domain.AIProvider) string {
	if provider == domain.AIProviderOpenAI {
		return domain.GitHubModelsBaseURL
	}
	return ""
}
