package driving

import "github.com/custodia-labs/mailrag/internal/core/domain"

// SettingsService reads and edits provider, index and storage settings.
// Changes take effect the next time services are built.
type SettingsService interface {
	// Get merges stored values over defaults and environment keys.
	Get() (*domain.AppSettings, error)
	Save(settings *domain.AppSettings) error
	GetDefaults() domain.AppSettings

	// SetEmbeddingProvider and SetLLMProvider keep the stored key when
	// apiKey is empty.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// SetAPIKey targets "llm" or "embedding".
	SetAPIKey(target, apiKey string) error

	// SetVectorBackend keeps the current url when url is empty.
	SetVectorBackend(backend domain.VectorBackend, url string) error

	// ValidateEmbeddingConfig and ValidateLLMConfig ping the configured
	// provider. Unconfigured providers pass.
	ValidateEmbeddingConfig() error
	ValidateLLMConfig() error
}
