package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/promptlens/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/promptlens/internal/adapters/driving/render"
	"github.com/custodia-labs/promptlens/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/promptlens/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/promptlens/internal/core/domain"
	"github.com/custodia-labs/promptlens/internal/core/services"
)

// stubFormatter answers every request with a heading plus the text.
type stubFormatter struct {
	calls atomic.Int32
	err   error
}

func (f *stubFormatter) Format(_ context.Context, text string, _ domain.Fingerprint) (*domain.FormatResponse, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.FormatResponse{Success: true, Formatted: "# Tidied\n\n" + text}, nil
}

type fixture struct {
	view      *View
	format    *services.FormatCache
	formatter *stubFormatter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	prompts := services.NewPromptService()
	transcript := services.NewTranscriptService(memory.NewTranscriptSource(), prompts, services.NewContentService())
	formatter := &stubFormatter{}
	format := services.NewFormatCache(formatter, nil)

	view := NewView(nil, nil, transcript, prompts, format, render.Options{})
	view.SetDimensions(100, 30)
	return &fixture{view: view, format: format, formatter: formatter}
}

func testEntry() domain.TranscriptEntry {
	return domain.TranscriptEntry{
		ID:        "e1",
		Display:   "summarise this [Pasted text #1 +2 lines]",
		Timestamp: time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
		PastedContents: domain.AttachmentMap{
			"1": domain.RawText("first line\nsecond line"),
		},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "pgdown":
		return tea.KeyMsg{Type: tea.KeyPgDown}
	case "pgup":
		return tea.KeyMsg{Type: tea.KeyPgUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// settle runs cmd and feeds its message back into the view.
func settle(t *testing.T, v *View, cmd tea.Cmd) *View {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	_, ok := msg.(messages.FormatCompleted)
	require.True(t, ok, "expected FormatCompleted, got %T", msg)
	v, _ = v.Update(msg)
	return v
}

func TestNewView(t *testing.T) {
	view := NewView(nil, nil, nil, nil, nil, render.Options{})

	require.NotNil(t, view)
	assert.Nil(t, view.Entry())
	assert.Equal(t, ModeOriginal, view.Mode())
	assert.Nil(t, view.Init())
	assert.Contains(t, view.View(), "(No prompt selected)")
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "original", ModeOriginal.String())
	assert.Equal(t, "formatted", ModeFormatted.String())
	assert.Equal(t, "attachments", ModeAttachments.String())
}

func TestView_SetEntry_ReconstructsPrompt(t *testing.T) {
	f := newFixture(t)

	f.view.SetEntry(testEntry())

	assert.Contains(t, f.view.Text(), "--- Pasted text #1 ---\nfirst line\nsecond line")
	assert.NotContains(t, f.view.Text(), "[Pasted text #1 +2 lines]")
	out := f.view.View()
	assert.Contains(t, out, "summarise this")
	assert.Contains(t, out, "second line")
	assert.Contains(t, out, "[original]")
}

func TestView_Attachments(t *testing.T) {
	f := newFixture(t)
	f.view.SetEntry(testEntry())

	view, _ := f.view.Update(key("a"))
	assert.Equal(t, ModeAttachments, view.Mode())
	out := view.View()
	assert.Contains(t, out, "--- Pasted text #1 ---")
	assert.Contains(t, out, "second line")

	view, _ = view.Update(key("a"))
	assert.Equal(t, ModeOriginal, view.Mode())
}

func TestView_Attachments_None(t *testing.T) {
	f := newFixture(t)
	f.view.SetEntry(domain.TranscriptEntry{ID: "e2", Display: "hello"})

	view, _ := f.view.Update(key("a"))

	assert.Contains(t, view.View(), "(No attachments)")
}

func TestView_Format_ShowsResult(t *testing.T) {
	f := newFixture(t)
	f.view.SetEntry(testEntry())

	view, cmd := f.view.Update(key("f"))
	assert.Equal(t, ModeFormatted, view.Mode())
	assert.Equal(t, status.StateFormatting, view.Status())

	view = settle(t, view, cmd)

	assert.Equal(t, domain.FormatSucceeded, view.Formatted().Status)
	assert.Equal(t, status.StateFormatted, view.Status())
	assert.Contains(t, view.View(), "# Tidied")
	assert.Equal(t, int32(1), f.formatter.calls.Load())
}

func TestView_Format_ToggleBackToOriginal(t *testing.T) {
	f := newFixture(t)
	f.view.SetEntry(testEntry())
	view, cmd := f.view.Update(key("f"))
	view = settle(t, view, cmd)

	view, cmd = view.Update(key("f"))

	assert.Nil(t, cmd)
	assert.Equal(t, ModeOriginal, view.Mode())
	assert.NotContains(t, view.View(), "# Tidied")
}

func TestView_Format_UsesSettledEntry(t *testing.T) {
	f := newFixture(t)
	f.view.SetEntry(testEntry())
	view, cmd := f.view.Update(key("f"))
	view = settle(t, view, cmd)
	view, _ = view.Update(key("f"))

	view, cmd = view.Update(key("f"))

	assert.Nil(t, cmd, "cached result is shown without a request")
	assert.Equal(t, domain.FormatSucceeded, view.Formatted().Status)
	assert.Equal(t, int32(1), f.formatter.calls.Load())
}

func TestView_Format_FailureShowsOriginal(t *testing.T) {
	f := newFixture(t)
	f.formatter.err = errors.New("rate limited")
	f.view.SetEntry(testEntry())

	view, cmd := f.view.Update(key("f"))
	view = settle(t, view, cmd)

	assert.Equal(t, domain.FormatFailed, view.Formatted().Status)
	assert.Contains(t, view.StatusMessage(), "rate limited")
	assert.Contains(t, view.View(), "summarise this")
	assert.NotContains(t, view.View(), "# Tidied")
}

func TestView_Format_StaleResultIgnored(t *testing.T) {
	f := newFixture(t)
	f.view.SetEntry(testEntry())

	view, cmd := f.view.Update(key("f"))
	require.NotNil(t, cmd)

	// The user moves on before the request settles.
	view.SetEntry(domain.TranscriptEntry{ID: "e2", Display: "another prompt"})
	f.format.Focus("another prompt")
	view, _ = view.Update(cmd())

	assert.True(t, view.Formatted().IsZero())
	assert.Equal(t, ModeOriginal, view.Mode())
	assert.Contains(t, view.View(), "another prompt")
}

func TestView_Refresh_CallsAgain(t *testing.T) {
	f := newFixture(t)
	f.view.SetEntry(testEntry())
	view, cmd := f.view.Update(key("f"))
	view = settle(t, view, cmd)

	view, cmd = view.Update(key("R"))
	view = settle(t, view, cmd)

	assert.Equal(t, int32(2), f.formatter.calls.Load())
	assert.Equal(t, domain.FormatSucceeded, view.Formatted().Status)
}

func TestView_Format_Unavailable(t *testing.T) {
	transcript := services.NewTranscriptService(memory.NewTranscriptSource(), services.NewPromptService(), services.NewContentService())
	view := NewView(nil, nil, transcript, services.NewPromptService(), nil, render.Options{})
	view.SetEntry(testEntry())

	view, cmd := view.Update(key("f"))

	assert.Nil(t, cmd)
	assert.Equal(t, ModeOriginal, view.Mode())
	assert.Contains(t, view.StatusMessage(), "unavailable")
}

func TestView_Format_NoEntry(t *testing.T) {
	f := newFixture(t)

	_, cmd := f.view.Update(key("f"))

	assert.Nil(t, cmd)
}

func TestView_Scrolling(t *testing.T) {
	f := newFixture(t)
	lines := make([]string, 100)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i)
	}
	f.view.SetEntry(domain.TranscriptEntry{ID: "long", Display: strings.Join(lines, "\n")})
	view := f.view

	view, _ = view.Update(key("j"))
	assert.Equal(t, 1, view.ScrollOffset())

	view, _ = view.Update(key("k"))
	view, _ = view.Update(key("k"))
	assert.Equal(t, 0, view.ScrollOffset())

	view, _ = view.Update(key("pgdown"))
	assert.Equal(t, view.visibleLines(), view.ScrollOffset())

	view, _ = view.Update(key("G"))
	assert.Equal(t, view.maxScrollOffset(), view.ScrollOffset())
	assert.Contains(t, view.View(), "[100%]")

	view, _ = view.Update(key("pgdown"))
	assert.Equal(t, view.maxScrollOffset(), view.ScrollOffset())

	view, _ = view.Update(key("g"))
	assert.Equal(t, 0, view.ScrollOffset())

	view, _ = view.Update(key("pgup"))
	assert.Equal(t, 0, view.ScrollOffset())
}

func TestView_Esc(t *testing.T) {
	f := newFixture(t)

	_, cmd := f.view.Update(key("esc"))

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewHistory}, cmd())
}

func TestView_ErrorOccurred(t *testing.T) {
	f := newFixture(t)

	view, _ := f.view.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.Equal(t, status.StateError, view.Status())
	assert.Equal(t, "boom", view.StatusMessage())
}

func TestView_WindowSize_Rerenders(t *testing.T) {
	f := newFixture(t)
	f.view.SetEntry(testEntry())

	view, cmd := f.view.Update(tea.WindowSizeMsg{Width: 60, Height: 20})

	assert.Nil(t, cmd)
	assert.Equal(t, 56, view.renderer.Width())
	assert.NotEmpty(t, view.Lines())
}
