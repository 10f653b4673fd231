package driven

// ConfigStore is flat dotted-key configuration ("llm.model") backed by
// some persistent form. Values keep whatever type the backend decoded.
type ConfigStore interface {
	// Get returns the raw value and whether the key is set.
	Get(key string) (any, bool)

	// GetString returns "" for missing or non-string values.
	GetString(key string) string

	// GetFloat widens integers and returns 0 for missing or non-numeric values.
	GetFloat(key string) float64

	// Set stores a value and persists it immediately.
	Set(key string, value any) error

	// Save flushes the whole configuration.
	Save() error

	// Load rereads the configuration, discarding unsaved state.
	Load() error

	// Path names where the configuration lives.
	Path() string
}
