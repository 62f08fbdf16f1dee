// Package input provides text input components for the TUI.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/promptlens/internal/adapters/driving/tui/styles"
)

// FilterInput wraps a bubbles textinput for narrowing the history list.
// It starts blurred.
type FilterInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int
}

// NewFilterInput creates a new filter input component.
func NewFilterInput(s *styles.Styles) *FilterInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Type to filter prompts..."
	ti.CharLimit = 256
	ti.Width = 50

	return &FilterInput{
		textinput: ti,
		styles:    s,
		width:     50,
	}
}

// Init initialises the filter input.
func (f *FilterInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (f *FilterInput) Update(msg tea.Msg) (*FilterInput, tea.Cmd) {
	var cmd tea.Cmd
	f.textinput, cmd = f.textinput.Update(msg)
	return f, cmd
}

// View renders the filter input.
func (f *FilterInput) View() string {
	label := f.styles.Subtitle.Render("Filter: ")
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center, label, f.textinput.View())
}

// Value returns the current input value.
func (f *FilterInput) Value() string {
	return f.textinput.Value()
}

// SetValue sets the input value.
func (f *FilterInput) SetValue(value string) {
	f.textinput.SetValue(value)
}

// Matches reports whether text contains the filter, ignoring case.
// An empty filter matches everything.
func (f *FilterInput) Matches(text string) bool {
	needle := strings.TrimSpace(f.Value())
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(needle))
}

// Focus sets focus on the input.
func (f *FilterInput) Focus() tea.Cmd {
	return f.textinput.Focus()
}

// Blur removes focus from the input.
func (f *FilterInput) Blur() {
	f.textinput.Blur()
}

// Focused returns whether the input is focused.
func (f *FilterInput) Focused() bool {
	return f.textinput.Focused()
}

// SetWidth sets the width of the input.
func (f *FilterInput) SetWidth(width int) {
	f.width = width
	// Account for label and padding
	inputWidth := width - 12
	if inputWidth < 20 {
		inputWidth = 20
	}
	f.textinput.Width = inputWidth
}

// Width returns the current width.
func (f *FilterInput) Width() int {
	return f.width
}

// Reset clears and blurs the input.
func (f *FilterInput) Reset() {
	f.textinput.Reset()
	f.textinput.Blur()
}
