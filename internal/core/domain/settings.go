package domain

const unknownDescription = "Unknown"

// ThemeMode selects the colour palette for rendered output.
type ThemeMode string

// Available theme modes.
const (
	// ThemeSystem follows the terminal background.
	ThemeSystem ThemeMode = "system"

	// ThemeLight forces the light palette.
	ThemeLight ThemeMode = "light"

	// ThemeDark forces the dark palette.
	ThemeDark ThemeMode = "dark"
)

// IsValid returns true if the theme mode is recognised.
func (m ThemeMode) IsValid() bool {
	switch m {
	case ThemeSystem, ThemeLight, ThemeDark:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m ThemeMode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m ThemeMode) Description() string {
	switch m {
	case ThemeSystem:
		return "System (follow terminal)"
	case ThemeLight:
		return "Light"
	case ThemeDark:
		return "Dark"
	default:
		return unknownDescription
	}
}

// AIProvider identifies an AI service provider for reformatting.
type AIProvider string

// Available AI providers.
const (
	// AIProviderDeepSeek is the DeepSeek cloud API (OpenAI-compatible).
	AIProviderDeepSeek AIProvider = "deepseek"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderOllama is local Ollama instance (OpenAI-compatible endpoint).
	AIProviderOllama AIProvider = "ollama"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderDeepSeek, AIProviderOpenAI, AIProviderAnthropic, AIProviderOllama:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderDeepSeek || p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// IsOpenAICompatible returns true if the provider speaks the OpenAI chat API.
func (p AIProvider) IsOpenAICompatible() bool {
	return p == AIProviderDeepSeek || p == AIProviderOpenAI || p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderDeepSeek:
		return "DeepSeek (cloud)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderOllama:
		return "Ollama (local)"
	default:
		return unknownDescription
	}
}

// AISettings holds reformatting provider configuration.
type AISettings struct {
	// Enabled turns AI reformatting on. Without it every request fails soft.
	Enabled bool

	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint. Empty means the provider default.
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string
}

// IsConfigured returns true if the AI provider is set up.
func (a AISettings) IsConfigured() bool {
	if !a.Provider.IsValid() {
		return false
	}
	if a.Provider.RequiresAPIKey() && a.APIKey == "" {
		return false
	}
	return true
}

// IsActive returns true if reformatting should be attempted.
func (a AISettings) IsActive() bool {
	return a.Enabled && a.IsConfigured()
}

// DisplaySettings holds presentation preferences.
type DisplaySettings struct {
	// Theme is the colour palette.
	Theme ThemeMode

	// PreviewLines caps inline previews. Zero shows everything.
	PreviewLines int
}

// HistorySettings locates the transcript feed.
type HistorySettings struct {
	// Path is the history JSONL file. Empty means the default location.
	Path string
}

// AppSettings holds all application settings.
type AppSettings struct {
	AI      AISettings
	Display DisplaySettings
	History HistorySettings
}

// DefaultAppSettings returns settings with sensible defaults.
// AI reformatting is left disabled until the user supplies a key.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		AI: AISettings{
			Enabled:  false,
			Provider: AIProviderDeepSeek,
			Model:    DefaultLLMModels()[AIProviderDeepSeek],
			BaseURL:  DefaultBaseURLs()[AIProviderDeepSeek],
		},
		Display: DisplaySettings{
			Theme:        ThemeSystem,
			PreviewLines: 20,
		},
	}
}

// AllThemeModes returns all available theme modes.
func AllThemeModes() []ThemeMode {
	return []ThemeMode{ThemeSystem, ThemeLight, ThemeDark}
}

// AllLLMProviders returns providers that support reformatting.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderDeepSeek,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderOllama,
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderDeepSeek:  "deepseek-chat",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderOllama:    "llama3.2",
	}
}

// DefaultBaseURLs returns default endpoints for each LLM provider.
func DefaultBaseURLs() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderDeepSeek:  "https://api.deepseek.com/v1",
		AIProviderOpenAI:    "https://api.openai.com/v1",
		AIProviderAnthropic: "https://api.anthropic.com",
		AIProviderOllama:    "http://localhost:11434/v1",
	}
}
