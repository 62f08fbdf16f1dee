package driving

import "github.com/custodia-labs/promptlens/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetAI configures the reformatting provider.
	// An empty model or base URL selects the provider default.
	SetAI(enabled bool, provider domain.AIProvider, model, baseURL, apiKey string) error

	// SetAIEnabled toggles reformatting without touching the provider.
	SetAIEnabled(enabled bool) error

	// SetTheme updates the colour palette.
	SetTheme(mode domain.ThemeMode) error

	// SetPreviewLines updates the inline preview cap. Zero shows everything.
	SetPreviewLines(lines int) error

	// SetHistoryPath updates the history feed location. Empty restores the default.
	SetHistoryPath(path string) error

	// Validate checks that current settings are consistent.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateAIConfig validates the current AI configuration by pinging the provider.
	ValidateAIConfig() error
}
