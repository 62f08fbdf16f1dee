package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/promptlens/internal/adapters/driving/render"
	"github.com/custodia-labs/promptlens/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/promptlens/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/promptlens/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/promptlens/internal/adapters/driving/tui/views/history"
	"github.com/custodia-labs/promptlens/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/promptlens/internal/adapters/driving/tui/views/prompt"
	"github.com/custodia-labs/promptlens/internal/adapters/driving/tui/views/settings"
	"github.com/custodia-labs/promptlens/internal/core/domain"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the TUI styles.
	styles *styles.Styles

	// menuView is the main navigation menu.
	menuView *menu.View

	// historyView lists captured prompts.
	historyView *history.View

	// promptView shows the selected prompt.
	promptView *prompt.View

	// settingsView is the settings configuration view component.
	settingsView *settings.View

	// historyLoaded is set once the history list has been requested.
	historyLoaded bool

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w: %w", ErrInvalidPorts, err)
	}

	theme := themeSetting(ports)
	s := styles.NewStyles(styles.ThemeFor(theme))
	km := keymap.DefaultKeyMap()

	return &App{
		ports:        ports,
		ctx:          context.Background(),
		styles:       s,
		menuView:     menu.NewView(s),
		historyView:  history.NewView(s, km, ports.Transcript),
		promptView:   prompt.NewView(s, km, ports.Transcript, ports.Prompt, ports.Format, render.Options{Theme: theme, Color: true}),
		settingsView: settings.NewView(s, ports.Settings),
		currentView:  messages.ViewMenu,
	}, nil
}

// themeSetting returns the configured theme, or ThemeSystem when settings
// cannot be read.
func themeSetting(ports *Ports) domain.ThemeMode {
	if ports.Settings == nil {
		return domain.ThemeSystem
	}
	s, err := ports.Settings.Get()
	if err != nil || !s.Display.Theme.IsValid() {
		return domain.ThemeSystem
	}
	return s.Display.Theme
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.historyView.WithContext(ctx)
	a.promptView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
// It runs initial commands when the program starts.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("promptlens"),
		a.historyView.Watch(),
	)
}

// Update implements tea.Model.
// It handles messages and updates the model state.
//
//nolint:gocognit,gocyclo,funlen // central message handler requires complexity
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		// Global quit with ctrl+c
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

		switch a.currentView {
		case messages.ViewMenu:
			a.menuView, cmd = a.menuView.Update(msg)
		case messages.ViewHistory:
			a.historyView, cmd = a.historyView.Update(msg)
		case messages.ViewPrompt:
			a.promptView, cmd = a.promptView.Update(msg)
		case messages.ViewSettings:
			a.settingsView, cmd = a.settingsView.Update(msg)
		case messages.ViewHelp:
			if msg.Type == tea.KeyEsc {
				a.currentView = messages.ViewMenu
			}
		}
		return a, cmd

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewHistory:
			if !a.historyLoaded {
				a.historyLoaded = true
				return a, a.historyView.Init()
			}
		case messages.ViewSettings:
			a.settingsView.Reset()
			return a, a.settingsView.Init()
		case messages.ViewMenu, messages.ViewPrompt, messages.ViewHelp:
			// Other views don't need special initialisation
		}
		return a, nil

	case messages.HistoryLoaded:
		if msg.Err != nil {
			a.err = msg.Err
		}
		a.historyView, cmd = a.historyView.Update(msg)
		return a, cmd

	case messages.EntryCaptured:
		// Keep following the history whatever view is active
		a.historyView, cmd = a.historyView.Update(msg)
		return a, cmd

	case messages.EntrySelected:
		a.currentView = messages.ViewPrompt
		return a, a.promptView.SetEntry(msg.Entry)

	case messages.FormatCompleted:
		a.promptView, cmd = a.promptView.Update(msg)
		return a, cmd

	case messages.SettingsLoaded, messages.SettingsSaved:
		if a.currentView == messages.ViewSettings {
			a.settingsView, cmd = a.settingsView.Update(msg)
		}
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		switch a.currentView {
		case messages.ViewHistory:
			a.historyView, cmd = a.historyView.Update(msg)
		case messages.ViewPrompt:
			a.promptView, cmd = a.promptView.Update(msg)
		case messages.ViewMenu, messages.ViewSettings, messages.ViewHelp:
			// Other views don't handle error messages
		}
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	// Forward other messages to active view
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewHistory:
		a.historyView, cmd = a.historyView.Update(msg)
	case messages.ViewPrompt:
		a.promptView, cmd = a.promptView.Update(msg)
	case messages.ViewSettings:
		a.settingsView, cmd = a.settingsView.Update(msg)
	case messages.ViewHelp:
		// Help view doesn't need to handle other messages
	}

	return a, cmd
}

// View implements tea.Model.
// It renders the current view as a string.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewHistory:
		return a.historyView.View()
	case messages.ViewPrompt:
		return a.promptView.View()
	case messages.ViewSettings:
		return a.settingsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

// viewHelp renders the help view.
func (a *App) viewHelp() string {
	return a.styles.Title.Render("Help") + `

Navigation:
  esc         Back
  ctrl+c      Quit

Menu:
  j/k, ↑/↓    Navigate options
  enter       Select option
  q           Quit

History:
  j/k, ↑/↓    Navigate prompts
  g/G         First/last prompt
  enter       Open prompt
  /           Filter (enter keeps it, esc clears it)
  r           Reload

Prompt:
  j/k, PgUp/PgDn   Scroll
  f           Toggle the AI reformatted text
  R           Ask for a fresh reformat
  a           Toggle pasted attachments

When reformatting is off or fails the original prompt is shown.

` + a.styles.Help.Render("[esc] back to menu")
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// SelectedEntry returns the prompt open in the prompt view.
func (a *App) SelectedEntry() *domain.TranscriptEntry {
	return a.promptView.Entry()
}

// HistoryCount returns the number of loaded prompts.
func (a *App) HistoryCount() int {
	return len(a.historyView.Entries())
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on the app and every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.historyView.SetDimensions(width, height)
	a.promptView.SetDimensions(width, height)
	a.settingsView.SetDimensions(width, height)
}
