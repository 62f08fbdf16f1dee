package driven

// ConfigStore provides access to application configuration.
// Keys are dot-separated ("ai.provider", "display.theme") and map onto
// nested tables in the persisted form.
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	Get(key string) (any, bool)

	// GetString returns "" if the key is missing or not a string.
	GetString(key string) string

	// GetInt returns 0 if the key is missing or not an integer.
	GetInt(key string) int

	// GetBool returns false if the key is missing or not a boolean.
	GetBool(key string) bool

	// Set stores a configuration value in memory. Call Save to persist it.
	Set(key string, value any) error

	// Delete removes a key. Missing keys are ignored.
	Delete(key string) error

	// Save persists the current configuration to storage.
	Save() error

	// Load reads configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}
