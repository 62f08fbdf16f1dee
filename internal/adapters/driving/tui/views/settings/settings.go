// Package settings provides the settings configuration view for the TUI.
package settings

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/promptlens/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/promptlens/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/promptlens/internal/core/domain"
	"github.com/custodia-labs/promptlens/internal/core/ports/driving"
)

// Section tracks which settings section is active.
type Section int

const (
	SectionOverview Section = iota
	SectionProvider
	SectionTheme
)

// Overview rows.
const (
	itemAIEnabled = iota
	itemProvider
	itemTheme
	itemPreviewLines
	overviewItems
)

// Key constants for key handling.
const (
	keyDown  = "down"
	keyEnter = "enter"
	keyTab   = "tab"
)

// previewStep is how much left/right changes the preview line count.
const previewStep = 5

// View is the settings configuration view.
type View struct {
	styles          *styles.Styles
	settingsService driving.SettingsService

	// Current settings
	settings *domain.AppSettings
	err      error

	// Navigation state
	section      Section
	selected     int // selection within current section
	focusedField int // 1 when the API key input has focus

	apiKeyInput textinput.Model

	// Dimensions
	width  int
	height int
	ready  bool
}

// NewView creates a new settings view.
func NewView(s *styles.Styles, settingsService driving.SettingsService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	apiKeyInput := textinput.New()
	apiKeyInput.Placeholder = "Enter API key"
	apiKeyInput.EchoMode = textinput.EchoPassword
	apiKeyInput.CharLimit = 256

	return &View{
		styles:          s,
		settingsService: settingsService,
		section:         SectionOverview,
		apiKeyInput:     apiKeyInput,
	}
}

// Init initialises the view and loads settings.
func (v *View) Init() tea.Cmd {
	return v.loadSettings()
}

// loadSettings returns a command that loads current settings.
func (v *View) loadSettings() tea.Cmd {
	return func() tea.Msg {
		if v.settingsService == nil {
			return messages.SettingsLoaded{Err: fmt.Errorf("settings service not available")}
		}
		settings, err := v.settingsService.Get()
		return messages.SettingsLoaded{Settings: settings, Err: err}
	}
}

// Update handles messages for the settings view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.ready = true
		return v, nil

	case messages.SettingsLoaded:
		if msg.Err != nil {
			v.err = msg.Err
		} else {
			v.settings = msg.Settings
			v.err = nil
		}
		return v, nil

	case messages.SettingsSaved:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		return v, v.loadSettings()

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	return v, nil
}

// handleKeyMsg handles key presses based on current section.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.String() == "esc" {
		if v.section == SectionOverview {
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		}
		v.leaveSection()
		return v, nil
	}

	if v.settings == nil {
		return v, nil
	}

	switch v.section {
	case SectionOverview:
		return v.handleOverviewKeys(msg)
	case SectionProvider:
		return v.handleProviderKeys(msg)
	case SectionTheme:
		return v.handleThemeKeys(msg)
	}

	return v, nil
}

func (v *View) handleOverviewKeys(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case keyDown, "j":
		if v.selected < overviewItems-1 {
			v.selected++
		}
	case "left", "h":
		if v.selected == itemPreviewLines {
			return v, v.setPreviewLines(v.settings.Display.PreviewLines - previewStep)
		}
	case "right", "l":
		if v.selected == itemPreviewLines {
			return v, v.setPreviewLines(v.settings.Display.PreviewLines + previewStep)
		}
	case keyEnter, " ":
		switch v.selected {
		case itemAIEnabled:
			return v, v.setAIEnabled(!v.settings.AI.Enabled)
		case itemProvider:
			v.section = SectionProvider
			v.selected = v.getProviderIndex()
		case itemTheme:
			v.section = SectionTheme
			v.selected = v.getThemeIndex()
		}
	}
	return v, nil
}

func (v *View) handleProviderKeys(msg tea.KeyMsg) (*View, tea.Cmd) {
	providers := domain.AllLLMProviders()

	if v.focusedField == 1 {
		switch msg.String() {
		case keyTab, "shift+tab":
			v.focusedField = 0
			v.apiKeyInput.Blur()
			return v, nil
		case keyEnter:
			if v.selected >= 0 && v.selected < len(providers) {
				return v, v.setProvider(providers[v.selected], v.apiKeyInput.Value())
			}
		default:
			var cmd tea.Cmd
			v.apiKeyInput, cmd = v.apiKeyInput.Update(msg)
			return v, cmd
		}
		return v, nil
	}

	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case keyDown, "j":
		if v.selected < len(providers)-1 {
			v.selected++
		}
	case keyTab:
		if v.selected >= 0 && v.selected < len(providers) && providers[v.selected].RequiresAPIKey() {
			v.focusedField = 1
			return v, v.apiKeyInput.Focus()
		}
	case keyEnter:
		if v.selected >= 0 && v.selected < len(providers) {
			provider := providers[v.selected]
			if provider.RequiresAPIKey() && !v.hasKeyFor(provider) {
				v.focusedField = 1
				return v, v.apiKeyInput.Focus()
			}
			return v, v.setProvider(provider, "")
		}
	}
	return v, nil
}

func (v *View) handleThemeKeys(msg tea.KeyMsg) (*View, tea.Cmd) {
	modes := domain.AllThemeModes()

	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case keyDown, "j":
		if v.selected < len(modes)-1 {
			v.selected++
		}
	case keyEnter:
		if v.selected >= 0 && v.selected < len(modes) {
			return v, v.setTheme(modes[v.selected])
		}
	}
	return v, nil
}

// leaveSection returns to the overview and clears any typed key.
func (v *View) leaveSection() {
	v.section = SectionOverview
	v.selected = 0
	v.focusedField = 0
	v.apiKeyInput.SetValue("")
	v.apiKeyInput.Blur()
}

// hasKeyFor reports whether a key is stored for provider already.
func (v *View) hasKeyFor(provider domain.AIProvider) bool {
	return v.settings != nil && v.settings.AI.Provider == provider && v.settings.AI.APIKey != ""
}

// Commands to update settings.

func (v *View) setAIEnabled(enabled bool) tea.Cmd {
	return func() tea.Msg {
		if v.settingsService == nil {
			return messages.SettingsSaved{Err: fmt.Errorf("settings service not available")}
		}
		return messages.SettingsSaved{Err: v.settingsService.SetAIEnabled(enabled)}
	}
}

func (v *View) setProvider(provider domain.AIProvider, apiKey string) tea.Cmd {
	model := domain.DefaultLLMModels()[provider]
	baseURL := domain.DefaultBaseURLs()[provider]
	if v.settings != nil && v.settings.AI.Provider == provider {
		model = v.settings.AI.Model
		baseURL = v.settings.AI.BaseURL
	}
	v.leaveSection()

	return func() tea.Msg {
		if v.settingsService == nil {
			return messages.SettingsSaved{Err: fmt.Errorf("settings service not available")}
		}
		err := v.settingsService.SetAI(true, provider, model, baseURL, apiKey)
		return messages.SettingsSaved{Err: err}
	}
}

func (v *View) setTheme(mode domain.ThemeMode) tea.Cmd {
	v.leaveSection()
	return func() tea.Msg {
		if v.settingsService == nil {
			return messages.SettingsSaved{Err: fmt.Errorf("settings service not available")}
		}
		return messages.SettingsSaved{Err: v.settingsService.SetTheme(mode)}
	}
}

func (v *View) setPreviewLines(lines int) tea.Cmd {
	if lines < 0 {
		lines = 0
	}
	return func() tea.Msg {
		if v.settingsService == nil {
			return messages.SettingsSaved{Err: fmt.Errorf("settings service not available")}
		}
		return messages.SettingsSaved{Err: v.settingsService.SetPreviewLines(lines)}
	}
}

// Helper methods to get current selection indices.

func (v *View) getProviderIndex() int {
	if v.settings == nil {
		return 0
	}
	for i, p := range domain.AllLLMProviders() {
		if p == v.settings.AI.Provider {
			return i
		}
	}
	return 0
}

func (v *View) getThemeIndex() int {
	if v.settings == nil {
		return 0
	}
	for i, m := range domain.AllThemeModes() {
		if m == v.settings.Display.Theme {
			return i
		}
	}
	return 0
}

// View renders the settings view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Settings"))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
	}

	if v.settings == nil {
		b.WriteString(v.styles.Muted.Render("Loading settings..."))
		return b.String()
	}

	switch v.section {
	case SectionOverview:
		b.WriteString(v.renderOverview())
	case SectionProvider:
		b.WriteString(v.renderProviderSelect())
	case SectionTheme:
		b.WriteString(v.renderThemeSelect())
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

func (v *View) renderOverview() string {
	var b strings.Builder

	enabled := "off"
	if v.settings.AI.Enabled {
		enabled = "on"
	}

	previewLines := "all"
	if v.settings.Display.PreviewLines > 0 {
		previewLines = fmt.Sprintf("%d", v.settings.Display.PreviewLines)
	}

	items := []struct {
		label  string
		value  string
		status string
	}{
		{label: "AI Reformatting", value: enabled},
		{
			label:  "AI Provider",
			value:  fmt.Sprintf("%s (%s)", v.settings.AI.Provider.Description(), v.settings.AI.Model),
			status: v.getProviderStatus(),
		},
		{label: "Theme", value: v.settings.Display.Theme.Description()},
		{label: "Preview Lines", value: previewLines},
	}

	for i, item := range items {
		indicator := "  "
		if i == v.selected {
			indicator = "> "
		}

		line := fmt.Sprintf("%s%s: %s", indicator, item.label, item.value)
		if item.status != "" {
			line += " " + item.status
		}

		if i == v.selected {
			b.WriteString(v.styles.Selected.Render(line))
		} else {
			b.WriteString(v.styles.Normal.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if v.settingsService != nil {
		if err := v.settingsService.Validate(); err != nil {
			b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Warning: %s", err.Error())))
		} else {
			b.WriteString(v.styles.Success.Render("Configuration is valid"))
		}
		b.WriteString("\n")
	}
	b.WriteString(v.styles.Muted.Render("Provider changes apply the next time promptlens starts."))
	b.WriteString("\n")

	return b.String()
}

func (v *View) getProviderStatus() string {
	if v.settings.AI.IsConfigured() {
		return v.styles.Success.Render("[configured]")
	}
	return v.styles.Warning.Render("[needs API key]")
}

func (v *View) renderProviderSelect() string {
	var b strings.Builder

	b.WriteString(v.styles.Subtitle.Render("Select AI Provider"))
	b.WriteString("\n\n")

	providers := domain.AllLLMProviders()
	defaults := domain.DefaultLLMModels()
	for i, provider := range providers {
		highlighted := i == v.selected && v.focusedField == 0
		indicator := "  "
		if highlighted {
			indicator = "> "
		}

		current := ""
		if provider == v.settings.AI.Provider {
			current = v.styles.Success.Render(" (current)")
		}

		line := fmt.Sprintf("%s%s%s", indicator, provider.Description(), current)
		if highlighted {
			b.WriteString(v.styles.Selected.Render(line))
		} else {
			b.WriteString(v.styles.Normal.Render(line))
		}
		b.WriteString("\n")

		if model, ok := defaults[provider]; ok {
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("    Model: %s", model)))
			b.WriteString("\n")
		}
	}

	if v.selected >= 0 && v.selected < len(providers) && providers[v.selected].RequiresAPIKey() {
		b.WriteString("\n")
		b.WriteString(v.styles.Normal.Render("API Key:"))
		if v.hasKeyFor(providers[v.selected]) {
			b.WriteString(v.styles.Muted.Render(" (leave empty to keep the current key)"))
		}
		b.WriteString("\n")
		b.WriteString(v.apiKeyInput.View())
		b.WriteString("\n")
	}

	return b.String()
}

func (v *View) renderThemeSelect() string {
	var b strings.Builder

	b.WriteString(v.styles.Subtitle.Render("Select Theme"))
	b.WriteString("\n\n")

	for i, mode := range domain.AllThemeModes() {
		indicator := "  "
		if i == v.selected {
			indicator = "> "
		}

		current := ""
		if mode == v.settings.Display.Theme {
			current = v.styles.Success.Render(" (current)")
		}

		line := fmt.Sprintf("%s%s%s", indicator, mode.Description(), current)
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render(line))
		} else {
			b.WriteString(v.styles.Normal.Render(line))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (v *View) renderHelp() string {
	switch v.section {
	case SectionOverview:
		return v.styles.Help.Render("[j/k] navigate  [enter] edit  [h/l] adjust  [esc] back")
	case SectionTheme:
		return v.styles.Help.Render("[j/k] navigate  [enter] select  [esc] back")
	case SectionProvider:
		if v.focusedField == 1 {
			return v.styles.Help.Render("[tab] back to list  [enter] save  [esc] back")
		}
		return v.styles.Help.Render("[j/k] navigate  [tab] API key  [enter] select  [esc] back")
	default:
		return ""
	}
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Section returns the active section.
func (v *View) Section() Section {
	return v.section
}

// Selected returns the selected row in the active section.
func (v *View) Selected() int {
	return v.selected
}

// Settings returns the loaded settings.
func (v *View) Settings() *domain.AppSettings {
	return v.settings
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

// Reset resets the view to initial state.
func (v *View) Reset() {
	v.leaveSection()
	v.err = nil
}
