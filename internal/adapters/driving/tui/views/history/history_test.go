package history

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/promptlens/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/promptlens/internal/core/domain"
)

// MockTranscriptService implements driving.TranscriptService for testing.
type MockTranscriptService struct {
	ListFunc  func(ctx context.Context, limit int) ([]domain.TranscriptEntry, error)
	WatchFunc func(ctx context.Context) (<-chan domain.TranscriptEntry, error)
}

func (m *MockTranscriptService) List(ctx context.Context, limit int) ([]domain.TranscriptEntry, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit)
	}
	return nil, nil
}

func (m *MockTranscriptService) Get(_ context.Context, _ string) (*domain.TranscriptEntry, error) {
	return nil, domain.ErrNotFound
}

func (m *MockTranscriptService) Reconstruct(entry *domain.TranscriptEntry) string {
	return entry.Display
}

func (m *MockTranscriptService) Directive(entry *domain.TranscriptEntry, _ int) domain.RenderDirective {
	return domain.RenderDirective{Kind: domain.KindPlainText, Content: entry.Display}
}

func (m *MockTranscriptService) Watch(ctx context.Context) (<-chan domain.TranscriptEntry, error) {
	if m.WatchFunc != nil {
		return m.WatchFunc(ctx)
	}
	return nil, domain.ErrTranscriptUnavailable
}

func (m *MockTranscriptService) Available() bool { return true }

func (m *MockTranscriptService) Location() string { return "/tmp/history.jsonl" }

func testEntries() []domain.TranscriptEntry {
	base := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	return []domain.TranscriptEntry{
		{ID: "a1", Display: "fix the flaky test", Timestamp: base, Project: "/src/api"},
		{ID: "b2", Display: "explain this JSON [Pasted text #1]", Timestamp: base.Add(-time.Hour),
			PastedContents: domain.AttachmentMap{"1": domain.RawText(`{"a":1}`)}},
		{ID: "c3", Display: "write a README", Timestamp: base.Add(-2 * time.Hour), Project: "/src/docs"},
	}
}

func loadedView(t *testing.T) *View {
	t.Helper()
	view := NewView(nil, nil, &MockTranscriptService{})
	view.SetDimensions(100, 30)
	view, _ = view.Update(messages.HistoryLoaded{Entries: testEntries()})
	return view
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewView(t *testing.T) {
	view := NewView(nil, nil, nil)

	require.NotNil(t, view)
	assert.NotNil(t, view.styles)
	assert.NotNil(t, view.keymap)
	assert.Empty(t, view.Entries())
	assert.False(t, view.Filtering())
}

func TestView_Init_Loads(t *testing.T) {
	var gotLimit int
	mock := &MockTranscriptService{
		ListFunc: func(_ context.Context, limit int) ([]domain.TranscriptEntry, error) {
			gotLimit = limit
			return testEntries(), nil
		},
	}
	view := NewView(nil, nil, mock)

	cmd := view.Init()
	require.NotNil(t, cmd)
	assert.True(t, view.Loading())

	loaded, ok := cmd().(messages.HistoryLoaded)
	require.True(t, ok)
	assert.Len(t, loaded.Entries, 3)
	assert.Equal(t, loadLimit, gotLimit)
}

func TestView_Load_NilService(t *testing.T) {
	view := NewView(nil, nil, nil)

	loaded, ok := view.Load()().(messages.HistoryLoaded)

	require.True(t, ok)
	assert.Error(t, loaded.Err)
}

func TestView_HistoryLoaded(t *testing.T) {
	view := loadedView(t)

	assert.False(t, view.Loading())
	assert.Len(t, view.Entries(), 3)
	assert.Equal(t, 3, view.VisibleCount())
	require.NotNil(t, view.SelectedEntry())
	assert.Equal(t, "a1", view.SelectedEntry().ID)
}

func TestView_HistoryLoaded_Error(t *testing.T) {
	view := NewView(nil, nil, &MockTranscriptService{})

	view, _ = view.Update(messages.HistoryLoaded{Err: domain.ErrTranscriptUnavailable})

	assert.ErrorIs(t, view.Err(), domain.ErrTranscriptUnavailable)
	assert.Contains(t, view.View(), "Error:")
}

func TestView_Navigation(t *testing.T) {
	view := loadedView(t)

	view, _ = view.Update(key("j"))
	assert.Equal(t, 1, view.SelectedIndex())

	view, _ = view.Update(key("down"))
	view, _ = view.Update(key("down"))
	assert.Equal(t, 2, view.SelectedIndex(), "stops at the last entry")

	view, _ = view.Update(key("g"))
	assert.Equal(t, 0, view.SelectedIndex())

	view, _ = view.Update(key("k"))
	assert.Equal(t, 0, view.SelectedIndex(), "stops at the first entry")

	view, _ = view.Update(key("G"))
	assert.Equal(t, 2, view.SelectedIndex())
}

func TestView_Select(t *testing.T) {
	view := loadedView(t)
	view, _ = view.Update(key("j"))

	_, cmd := view.Update(key("enter"))
	require.NotNil(t, cmd)

	selected, ok := cmd().(messages.EntrySelected)
	require.True(t, ok)
	assert.Equal(t, "b2", selected.Entry.ID)
}

func TestView_Select_Empty(t *testing.T) {
	view := NewView(nil, nil, &MockTranscriptService{})

	_, cmd := view.Update(key("enter"))

	assert.Nil(t, cmd)
}

func TestView_Filter(t *testing.T) {
	view := loadedView(t)

	view, _ = view.Update(key("/"))
	require.True(t, view.Filtering())

	view, _ = view.Update(key("json"))
	assert.Equal(t, 1, view.VisibleCount())
	assert.Equal(t, "b2", view.SelectedEntry().ID)

	view, _ = view.Update(key("enter"))
	assert.False(t, view.Filtering())
	assert.Equal(t, 1, view.VisibleCount(), "filter stays after enter")
}

func TestView_Filter_MatchesProject(t *testing.T) {
	view := loadedView(t)

	view, _ = view.Update(key("/"))
	view, _ = view.Update(key("docs"))

	require.Equal(t, 1, view.VisibleCount())
	assert.Equal(t, "c3", view.SelectedEntry().ID)
}

func TestView_Filter_NoMatch(t *testing.T) {
	view := loadedView(t)

	view, _ = view.Update(key("/"))
	view, _ = view.Update(key("zzz"))

	assert.Equal(t, 0, view.VisibleCount())
	assert.Nil(t, view.SelectedEntry())
	assert.Contains(t, view.View(), "No prompts match the filter.")
}

func TestView_Filter_EscClears(t *testing.T) {
	view := loadedView(t)

	view, _ = view.Update(key("/"))
	view, _ = view.Update(key("json"))
	view, _ = view.Update(key("esc"))

	assert.False(t, view.Filtering())
	assert.Equal(t, 3, view.VisibleCount())
}

func TestView_Esc_ClearsFilterThenLeaves(t *testing.T) {
	view := loadedView(t)
	view, _ = view.Update(key("/"))
	view, _ = view.Update(key("readme"))
	view, _ = view.Update(key("enter"))
	require.Equal(t, 1, view.VisibleCount())

	view, cmd := view.Update(key("esc"))
	assert.Nil(t, cmd)
	assert.Equal(t, 3, view.VisibleCount())

	_, cmd = view.Update(key("esc"))
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_Reload(t *testing.T) {
	calls := 0
	mock := &MockTranscriptService{
		ListFunc: func(_ context.Context, _ int) ([]domain.TranscriptEntry, error) {
			calls++
			return nil, nil
		},
	}
	view := NewView(nil, nil, mock)

	_, cmd := view.Update(key("r"))
	require.NotNil(t, cmd)
	cmd()

	assert.Equal(t, 1, calls)
}

func TestView_Watch_PrependsCaptured(t *testing.T) {
	ch := make(chan domain.TranscriptEntry, 1)
	mock := &MockTranscriptService{
		WatchFunc: func(_ context.Context) (<-chan domain.TranscriptEntry, error) {
			return ch, nil
		},
	}
	view := NewView(nil, nil, mock)
	view, _ = view.Update(messages.HistoryLoaded{Entries: testEntries()})

	cmd := view.Watch()
	require.NotNil(t, cmd)

	ch <- domain.TranscriptEntry{ID: "new", Display: "brand new prompt"}
	msg := cmd()
	captured, ok := msg.(messages.EntryCaptured)
	require.True(t, ok)

	view, next := view.Update(captured)
	assert.NotNil(t, next, "keeps waiting for more prompts")
	require.Len(t, view.Entries(), 4)
	assert.Equal(t, "new", view.Entries()[0].ID)

	view, _ = view.Update(captured)
	assert.Len(t, view.Entries(), 4, "duplicates are ignored")
}

func TestView_Watch_ClosedChannel(t *testing.T) {
	ch := make(chan domain.TranscriptEntry)
	close(ch)
	mock := &MockTranscriptService{
		WatchFunc: func(_ context.Context) (<-chan domain.TranscriptEntry, error) {
			return ch, nil
		},
	}
	view := NewView(nil, nil, mock)

	cmd := view.Watch()
	require.NotNil(t, cmd)
	assert.Nil(t, cmd())
}

func TestView_Watch_Unavailable(t *testing.T) {
	view := NewView(nil, nil, &MockTranscriptService{})

	assert.Nil(t, view.Watch())
}

func TestView_View(t *testing.T) {
	view := loadedView(t)

	out := view.View()

	assert.Contains(t, out, "History (3)")
	assert.Contains(t, out, "/tmp/history.jsonl")
	assert.Contains(t, out, "fix the flaky test")
	assert.Contains(t, out, "[+1]")
	assert.Contains(t, out, "docs")
	assert.Contains(t, out, "3 prompts")
}

func TestView_View_Empty(t *testing.T) {
	view := NewView(nil, nil, &MockTranscriptService{})
	view, _ = view.Update(messages.HistoryLoaded{})

	assert.Contains(t, view.View(), "No prompts captured yet.")
}

func TestView_View_Loading(t *testing.T) {
	view := NewView(nil, nil, &MockTranscriptService{})
	view.Load()

	assert.Contains(t, view.View(), "Loading history...")
}

func TestView_Scrolling(t *testing.T) {
	entries := make([]domain.TranscriptEntry, 40)
	for i := range entries {
		entries[i] = domain.TranscriptEntry{ID: fmt.Sprintf("id-%02d", i), Display: "prompt"}
	}
	view := NewView(nil, nil, &MockTranscriptService{})
	view.SetDimensions(80, 20)
	view, _ = view.Update(messages.HistoryLoaded{Entries: entries})

	for range 30 {
		view, _ = view.Update(key("j"))
	}

	assert.Equal(t, 30, view.SelectedIndex())
	assert.Greater(t, view.scrollOffset, 0)
	assert.Contains(t, view.View(), "of 40]")
}

func TestView_ErrorOccurred(t *testing.T) {
	view := loadedView(t)

	view, _ = view.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, view.Err(), "boom")
}
