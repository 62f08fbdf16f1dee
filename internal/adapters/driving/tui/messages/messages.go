// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/promptlens/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewHistory lists captured prompts.
	ViewHistory
	// ViewPrompt shows a single prompt.
	ViewPrompt
	// ViewSettings is the settings configuration view.
	ViewSettings
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewHistory:
		return "history"
	case ViewPrompt:
		return "prompt"
	case ViewSettings:
		return "settings"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// HistoryLoaded carries the prompt history, newest first.
type HistoryLoaded struct {
	Entries []domain.TranscriptEntry
	Err     error
}

// EntryCaptured carries a prompt that appeared while the TUI was open.
type EntryCaptured struct {
	Entry domain.TranscriptEntry
}

// EntrySelected signals a prompt was chosen from the history list.
type EntrySelected struct {
	Entry domain.TranscriptEntry
}

// FormatCompleted carries the settled cache entry for a reformat request.
// Views only show it when it is still relevant.
type FormatCompleted struct {
	Entry domain.FormatCacheEntry
}

// SettingsLoaded carries the application settings.
type SettingsLoaded struct {
	Settings *domain.AppSettings
	Err      error
}

// SettingsSaved signals settings were saved.
type SettingsSaved struct {
	Err error
}
