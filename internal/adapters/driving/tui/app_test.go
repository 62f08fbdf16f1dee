package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/promptlens/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/promptlens/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/promptlens/internal/core/domain"
	"github.com/custodia-labs/promptlens/internal/core/services"
)

func testEntries() []domain.TranscriptEntry {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return []domain.TranscriptEntry{
		{ID: "entry-one", Display: "fix the failing build", Timestamp: base, Project: "/src/app"},
		{
			ID:        "entry-two",
			Display:   "review [Pasted text #1]",
			Timestamp: base.Add(time.Minute),
			Project:   "/src/app",
			PastedContents: domain.AttachmentMap{
				"1": domain.RawText("func main() {}"),
			},
		},
	}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	app, err := NewApp(newTestPorts(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	app.WithContext(ctx)
	app.SetDimensions(100, 30)
	return app
}

// goToHistory navigates from the menu to the history view and delivers the
// loaded entries.
func goToHistory(t *testing.T, app *App) {
	t.Helper()
	_, cmd := app.Update(messages.ViewChanged{View: messages.ViewHistory})
	require.NotNil(t, cmd)
	app.Update(cmd())
}

func TestNewApp_Success(t *testing.T) {
	app, err := NewApp(newTestPorts(t))

	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
	assert.False(t, app.Ready())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	ports := newTestPorts(t)
	ports.Transcript = nil

	app, err := NewApp(ports)

	assert.Nil(t, app)
	assert.ErrorIs(t, err, ErrInvalidPorts)
	assert.ErrorIs(t, err, ErrMissingTranscriptService)
}

func TestNewApp_UsesThemeFromSettings(t *testing.T) {
	ports := newTestPorts(t)
	settingsSvc := services.NewSettingsService(memory.NewConfigStore(), nil)
	require.NoError(t, settingsSvc.SetTheme(domain.ThemeLight))
	ports.Settings = settingsSvc

	assert.Equal(t, domain.ThemeLight, themeSetting(ports))
	app, err := NewApp(ports)
	require.NoError(t, err)
	assert.NotNil(t, app)
}

func TestThemeSetting_WithoutSettings(t *testing.T) {
	assert.Equal(t, domain.ThemeSystem, themeSetting(newTestPorts(t)))
}

func TestApp_WithContext(t *testing.T) {
	app, err := NewApp(newTestPorts(t))
	require.NoError(t, err)

	type contextKey string
	ctx := context.WithValue(context.Background(), contextKey("key"), "value")

	assert.Same(t, app, app.WithContext(ctx))
}

func TestApp_Init(t *testing.T) {
	app := newTestApp(t)

	assert.NotNil(t, app.Init())
}

func TestApp_View_NotReady(t *testing.T) {
	app, err := NewApp(newTestPorts(t))
	require.NoError(t, err)

	assert.Equal(t, "Initialising...", app.View())
}

func TestApp_Update_WindowSize(t *testing.T) {
	app, err := NewApp(newTestPorts(t))
	require.NoError(t, err)

	model, cmd := app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	assert.Same(t, app, model)
	assert.Nil(t, cmd)
	assert.True(t, app.Ready())
	assert.Contains(t, app.View(), "promptlens")
}

func TestApp_Update_CtrlCQuits(t *testing.T) {
	app := newTestApp(t)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_Update_QuitMessage(t *testing.T) {
	app := newTestApp(t)

	_, cmd := app.Update(messages.Quit{})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_HistoryLoadsOnFirstVisit(t *testing.T) {
	app := newTestApp(t)

	goToHistory(t, app)

	assert.Equal(t, messages.ViewHistory, app.CurrentView())
	assert.Equal(t, 2, app.HistoryCount())
	assert.Contains(t, app.View(), "History (2)")

	// A second visit keeps the loaded list.
	app.Update(messages.ViewChanged{View: messages.ViewMenu})
	_, cmd := app.Update(messages.ViewChanged{View: messages.ViewHistory})
	assert.Nil(t, cmd)
	assert.Equal(t, 2, app.HistoryCount())
}

func TestApp_SelectEntryOpensPrompt(t *testing.T) {
	app := newTestApp(t)
	goToHistory(t, app)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Equal(t, messages.ViewPrompt, app.CurrentView())
	require.NotNil(t, app.SelectedEntry())
	assert.Equal(t, "entry-two", app.SelectedEntry().ID)

	// Esc returns to the history list.
	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	app.Update(cmd())
	assert.Equal(t, messages.ViewHistory, app.CurrentView())
}

func TestApp_EntryCapturedReachesHistory(t *testing.T) {
	app := newTestApp(t)
	goToHistory(t, app)
	app.Update(messages.ViewChanged{View: messages.ViewMenu})

	app.Update(messages.EntryCaptured{Entry: domain.TranscriptEntry{
		ID:        "entry-three",
		Display:   "write the changelog",
		Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}})

	assert.Equal(t, 3, app.HistoryCount())
}

func TestApp_HistoryLoadError(t *testing.T) {
	app := newTestApp(t)
	app.Update(messages.ViewChanged{View: messages.ViewHistory})

	app.Update(messages.HistoryLoaded{Err: domain.ErrTranscriptUnavailable})

	assert.ErrorIs(t, app.Err(), domain.ErrTranscriptUnavailable)
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newTestApp(t)

	app.Update(messages.ErrorOccurred{Err: domain.ErrNotFound})

	assert.ErrorIs(t, app.Err(), domain.ErrNotFound)
}

func TestApp_HelpView(t *testing.T) {
	app := newTestApp(t)

	app.Update(messages.ViewChanged{View: messages.ViewHelp})
	assert.Equal(t, messages.ViewHelp, app.CurrentView())
	view := app.View()
	assert.Contains(t, view, "Help")
	assert.Contains(t, view, "Toggle the AI reformatted text")

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_SettingsView(t *testing.T) {
	ports := newTestPorts(t)
	ports.Settings = services.NewSettingsService(memory.NewConfigStore(), nil)
	app, err := NewApp(ports)
	require.NoError(t, err)
	app.SetDimensions(100, 30)

	_, cmd := app.Update(messages.ViewChanged{View: messages.ViewSettings})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Equal(t, messages.ViewSettings, app.CurrentView())
	assert.Contains(t, app.View(), "Settings")
}

func TestApp_SettingsMessagesIgnoredElsewhere(t *testing.T) {
	app := newTestApp(t)

	_, cmd := app.Update(messages.SettingsSaved{})

	assert.Nil(t, cmd)
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_MenuNavigation(t *testing.T) {
	app := newTestApp(t)

	// The first menu item opens the history.
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg := cmd()

	assert.Equal(t, messages.ViewChanged{View: messages.ViewHistory}, msg)
}
