package domain

// GitHubModelsBaseURL is the OpenAI-compatible GitHub Models inference endpoint.
const GitHubModelsBaseURL = "https://models.github.ai/inference"

// AIProvider names a backend for completions, embeddings or both.
type AIProvider string

// Known providers. OpenAI covers any compatible endpoint, GitHub Models
// by default.
const (
	AIProviderOllama    AIProvider = "ollama"
	AIProviderOpenAI    AIProvider = "openai"
	AIProviderAnthropic AIProvider = "anthropic"
)

type providerInfo struct {
	label      string
	keyed      bool
	llmModel   string
	embedModel string // empty when the provider has no embedding API
}

// providers is ordered the way setup menus list them.
var providers = []struct {
	id AIProvider
	providerInfo
}{
	{AIProviderOllama, providerInfo{"Ollama (local)", false, "llama3.2", "nomic-embed-text"}},
	{AIProviderOpenAI, providerInfo{"OpenAI-compatible (GitHub Models, OpenAI)", true, "openai/gpt-5-mini", "openai/text-embedding-3-small"}},
	{AIProviderAnthropic, providerInfo{"Anthropic (cloud)", true, "claude-3-5-sonnet-latest", ""}},
}

func (p AIProvider) info() (providerInfo, bool) {
	for _, e := range providers {
		if e.id == p {
			return e.providerInfo, true
		}
	}
	return providerInfo{}, false
}

// IsValid reports whether p is a known provider.
func (p AIProvider) IsValid() bool {
	_, ok := p.info()
	return ok
}

// RequiresAPIKey reports whether p authenticates with an API key.
func (p AIProvider) RequiresAPIKey() bool {
	i, _ := p.info()
	return i.keyed
}

// SupportsEmbeddings reports whether p can produce vectors.
func (p AIProvider) SupportsEmbeddings() bool {
	i, _ := p.info()
	return i.embedModel != ""
}

func (p AIProvider) String() string {
	return string(p)
}

// Description is the label shown in setup menus.
func (p AIProvider) Description() string {
	if i, ok := p.info(); ok {
		return i.label
	}
	return "Unknown"
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint. Empty selects the provider default.
	BaseURL string

	// APIKey is the API key (for OpenAI-compatible providers).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.SupportsEmbeddings() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint. Empty selects the provider default.
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// RequestsPerSecond spaces outgoing requests. Zero disables throttling.
	RequestsPerSecond float64
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// VectorBackend selects the vector index implementation.
type VectorBackend string

// Available vector backends.
const (
	// VectorBackendMemory keeps vectors in process. Lost on exit.
	VectorBackendMemory VectorBackend = "memory"

	// VectorBackendChroma stores vectors in a Chroma server collection.
	VectorBackendChroma VectorBackend = "chroma"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	return b == VectorBackendMemory || b == VectorBackendChroma
}

// VectorIndexSettings holds vector index configuration.
type VectorIndexSettings struct {
	// Backend selects the index implementation.
	Backend VectorBackend

	// URL is the Chroma server address.
	URL string

	// Collection is the Chroma collection name.
	Collection string
}

// StorageSettings holds document store configuration.
type StorageSettings struct {
	// Path is the SQLite database file. Empty selects the default location.
	Path string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding   EmbeddingSettings
	LLM         LLMSettings
	VectorIndex VectorIndexSettings
	Storage     StorageSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// Both AI providers point at GitHub Models; an API key is still required.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderOpenAI,
			Model:    DefaultEmbeddingModels()[AIProviderOpenAI],
			BaseURL:  GitHubModelsBaseURL,
		},
		LLM: LLMSettings{
			Provider: AIProviderOpenAI,
			Model:    DefaultLLMModels()[AIProviderOpenAI],
			BaseURL:  GitHubModelsBaseURL,
		},
		VectorIndex: VectorIndexSettings{
			Backend:    VectorBackendMemory,
			URL:        "http://localhost:8000",
			Collection: "emails",
		},
	}
}

// AllEmbeddingProviders lists providers with an embedding API.
func AllEmbeddingProviders() []AIProvider {
	var out []AIProvider
	for _, e := range providers {
		if e.embedModel != "" {
			out = append(out, e.id)
		}
	}
	return out
}

// AllLLMProviders lists every provider; all of them serve completions.
func AllLLMProviders() []AIProvider {
	out := make([]AIProvider, len(providers))
	for i, e := range providers {
		out[i] = e.id
	}
	return out
}

// DefaultEmbeddingModels maps each embedding provider to its default model.
func DefaultEmbeddingModels() map[AIProvider]string {
	out := make(map[AIProvider]string)
	for _, e := range providers {
		if e.embedModel != "" {
			out[e.id] = e.embedModel
		}
	}
	return out
}

// DefaultLLMModels maps each provider to its default completion model.
func DefaultLLMModels() map[AIProvider]string {
	out := make(map[AIProvider]string, len(providers))
	for _, e := range providers {
		out[e.id] = e.llmModel
	}
	return out
}
