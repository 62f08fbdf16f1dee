package services

import (
	"fmt"

	"github.com/custodia-labs/promptlens/internal/core/domain"
	"github.com/custodia-labs/promptlens/internal/core/ports/driven"
	"github.com/custodia-labs/promptlens/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyAIEnabled    = "ai.enabled"
	keyAIProvider   = "ai.provider"
	keyAIModel      = "ai.model"
	keyAIBaseURL    = "ai.base_url"
	keyAIAPIKey     = "ai.api_key"
	keyTheme        = "display.theme"
	keyPreviewLines = "display.preview_lines"
	keyHistoryPath  = "history.path"
)

// MaxPreviewLines caps display.preview_lines.
const MaxPreviewLines = 1000

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

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	provider := s.getProvider(defaults.AI.Provider)
	settings := &domain.AppSettings{
		AI: domain.AISettings{
			Enabled:  s.getBool(keyAIEnabled, defaults.AI.Enabled),
			Provider: provider,
			Model:    s.getString(keyAIModel, domain.DefaultLLMModels()[provider]),
			BaseURL:  s.getString(keyAIBaseURL, domain.DefaultBaseURLs()[provider]),
			APIKey:   s.configStore.GetString(keyAIAPIKey),
		},
		Display: domain.DisplaySettings{
			Theme:        s.getTheme(defaults.Display.Theme),
			PreviewLines: s.getInt(keyPreviewLines, defaults.Display.PreviewLines),
		},
		History: domain.HistorySettings{
			Path: s.configStore.GetString(keyHistoryPath),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := s.configStore.Set(keyAIEnabled, settings.AI.Enabled); err != nil {
		return fmt.Errorf("save ai enabled: %w", err)
	}
	if err := s.configStore.Set(keyAIProvider, settings.AI.Provider.String()); err != nil {
		return fmt.Errorf("save ai provider: %w", err)
	}
	if err := s.configStore.Set(keyAIModel, settings.AI.Model); err != nil {
		return fmt.Errorf("save ai model: %w", err)
	}
	if err := s.configStore.Set(keyAIBaseURL, settings.AI.BaseURL); err != nil {
		return fmt.Errorf("save ai base_url: %w", err)
	}
	if settings.AI.APIKey != "" {
		if err := s.configStore.Set(keyAIAPIKey, settings.AI.APIKey); err != nil {
			return fmt.Errorf("save ai api_key: %w", err)
		}
	} else if err := s.configStore.Delete(keyAIAPIKey); err != nil {
		return fmt.Errorf("clear ai api_key: %w", err)
	}

	if err := s.configStore.Set(keyTheme, settings.Display.Theme.String()); err != nil {
		return fmt.Errorf("save display theme: %w", err)
	}
	if err := s.configStore.Set(keyPreviewLines, settings.Display.PreviewLines); err != nil {
		return fmt.Errorf("save display preview_lines: %w", err)
	}

	if settings.History.Path != "" {
		if err := s.configStore.Set(keyHistoryPath, settings.History.Path); err != nil {
			return fmt.Errorf("save history path: %w", err)
		}
	} else if err := s.configStore.Delete(keyHistoryPath); err != nil {
		return fmt.Errorf("clear history path: %w", err)
	}

	if err := s.configStore.Save(); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// SetAI configures the reformatting provider.
func (s *SettingsService) SetAI(enabled bool, provider domain.AIProvider, model, baseURL, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid AI provider: %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	// Keep a stored key when the provider is unchanged and none was given.
	if apiKey == "" && provider == settings.AI.Provider {
		apiKey = settings.AI.APIKey
	}
	if enabled && provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	if model == "" {
		model = domain.DefaultLLMModels()[provider]
	}
	if baseURL == "" {
		baseURL = domain.DefaultBaseURLs()[provider]
	}

	settings.AI = domain.AISettings{
		Enabled:  enabled,
		Provider: provider,
		Model:    model,
		BaseURL:  baseURL,
		APIKey:   apiKey,
	}

	return s.Save(settings)
}

// SetAIEnabled toggles reformatting without touching the provider.
func (s *SettingsService) SetAIEnabled(enabled bool) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if enabled && !settings.AI.IsConfigured() {
		return fmt.Errorf("%w: %s is not configured", domain.ErrInvalidInput, settings.AI.Provider.Description())
	}
	settings.AI.Enabled = enabled
	return s.Save(settings)
}

// SetTheme updates the colour palette.
func (s *SettingsService) SetTheme(mode domain.ThemeMode) error {
	if !mode.IsValid() {
		return fmt.Errorf("%w: invalid theme: %s", domain.ErrInvalidInput, mode)
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Display.Theme = mode
	return s.Save(settings)
}

// SetPreviewLines updates the inline preview cap.
func (s *SettingsService) SetPreviewLines(lines int) error {
	if lines < 0 || lines > MaxPreviewLines {
		return fmt.Errorf("%w: preview lines must be between 0 and %d", domain.ErrInvalidInput, MaxPreviewLines)
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Display.PreviewLines = lines
	return s.Save(settings)
}

// SetHistoryPath updates the history feed location.
func (s *SettingsService) SetHistoryPath(path string) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.History.Path = path
	return s.Save(settings)
}

// Validate checks that current settings are consistent.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Display.Theme.IsValid() {
		return fmt.Errorf("invalid theme: %s", settings.Display.Theme)
	}
	if settings.Display.PreviewLines < 0 || settings.Display.PreviewLines > MaxPreviewLines {
		return fmt.Errorf("preview lines out of range: %d", settings.Display.PreviewLines)
	}
	if settings.AI.Enabled && !settings.AI.IsConfigured() {
		return fmt.Errorf(
			"AI formatting is enabled but %s is not configured",
			settings.AI.Provider.Description(),
		)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateAIConfig validates the current AI configuration by pinging the provider.
func (s *SettingsService) ValidateAIConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateAI(&settings.AI)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getProvider(defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(keyAIProvider))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getTheme(defaultVal domain.ThemeMode) domain.ThemeMode {
	mode := domain.ThemeMode(s.configStore.GetString(keyTheme))
	if !mode.IsValid() {
		return defaultVal
	}
	return mode
}
