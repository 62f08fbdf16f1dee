// Package history provides the prompt history list view for the TUI.
package history

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/promptlens/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/promptlens/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/promptlens/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/promptlens/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/promptlens/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/promptlens/internal/core/domain"
	"github.com/custodia-labs/promptlens/internal/core/ports/driving"
	"github.com/custodia-labs/promptlens/internal/logger"
)

// loadLimit caps how many prompts the list reads.
const loadLimit = 500

const timeLayout = "01-02 15:04"

// View is the prompt history list view.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	transcript driving.TranscriptService
	filter     *input.FilterInput
	status     *status.Bar

	ctx      context.Context
	captured <-chan domain.TranscriptEntry

	entries      []domain.TranscriptEntry
	visible      []int // indices into entries that pass the filter
	selected     int
	scrollOffset int
	width        int
	height       int
	ready        bool
	err          error
	loading      bool
}

// NewView creates a new history view.
func NewView(s *styles.Styles, km *keymap.KeyMap, transcript driving.TranscriptService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	bar := status.NewBar(s, km)
	bar.SetHints(km.HistoryHelp())

	return &View{
		styles:     s,
		keymap:     km,
		transcript: transcript,
		filter:     input.NewFilterInput(s),
		status:     bar,
		ctx:        context.Background(),
		width:      80,
		height:     24,
	}
}

// WithContext sets the context used for loading and watching.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view and loads the history.
func (v *View) Init() tea.Cmd {
	return v.Load()
}

// Load returns a command that reads the history.
func (v *View) Load() tea.Cmd {
	v.loading = true
	v.status.SetState(status.StateLoading)
	ctx := v.ctx
	return func() tea.Msg {
		if v.transcript == nil {
			return messages.HistoryLoaded{Err: fmt.Errorf("history service not available")}
		}
		entries, err := v.transcript.List(ctx, loadLimit)
		return messages.HistoryLoaded{Entries: entries, Err: err}
	}
}

// Watch starts following the history file and returns a command that waits
// for the next captured prompt. It returns nil when watching is unavailable.
func (v *View) Watch() tea.Cmd {
	if v.transcript == nil {
		return nil
	}
	ch, err := v.transcript.Watch(v.ctx)
	if err != nil {
		logger.Debug("history watch unavailable: %v", err)
		return nil
	}
	v.captured = ch
	return v.waitForEntry()
}

func (v *View) waitForEntry() tea.Cmd {
	ch := v.captured
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		entry, ok := <-ch
		if !ok {
			return nil
		}
		return messages.EntryCaptured{Entry: entry}
	}
}

// Update handles messages for the history view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if v.filter.Focused() {
			return v.handleFilterKeyMsg(msg)
		}
		return v.handleKeyMsg(msg)

	case messages.HistoryLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			v.status.SetState(status.StateError)
			v.status.SetMessage(msg.Err.Error())
		} else {
			v.entries = msg.Entries
			v.err = nil
			v.status.Clear()
			v.applyFilter()
		}
		return v, nil

	case messages.EntryCaptured:
		v.prepend(msg.Entry)
		return v, v.waitForEntry()

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses in list mode.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keymap.Up):
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case keymap.Matches(k, v.keymap.Down):
		if v.selected < len(v.visible)-1 {
			v.selected++
			v.adjustScroll()
		}
	case keymap.Matches(k, v.keymap.Top):
		v.selected = 0
		v.adjustScroll()
	case keymap.Matches(k, v.keymap.Bottom):
		if len(v.visible) > 0 {
			v.selected = len(v.visible) - 1
			v.adjustScroll()
		}
	case keymap.Matches(k, v.keymap.Select):
		if entry := v.SelectedEntry(); entry != nil {
			selected := *entry
			return v, func() tea.Msg {
				return messages.EntrySelected{Entry: selected}
			}
		}
	case keymap.Matches(k, v.keymap.Filter):
		return v, v.filter.Focus()
	case keymap.Matches(k, v.keymap.Reload):
		return v, v.Load()
	case keymap.Matches(k, v.keymap.Back):
		if v.filter.Value() != "" {
			v.filter.Reset()
			v.applyFilter()
			return v, nil
		}
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	return v, nil
}

// handleFilterKeyMsg routes keys to the filter input while it has focus.
func (v *View) handleFilterKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		v.filter.Blur()
		return v, nil
	case tea.KeyEsc:
		v.filter.Reset()
		v.applyFilter()
		return v, nil
	}

	var cmd tea.Cmd
	v.filter, cmd = v.filter.Update(msg)
	v.applyFilter()
	return v, cmd
}

// applyFilter rebuilds the visible rows and keeps the selection in range.
func (v *View) applyFilter() {
	v.visible = v.visible[:0]
	for i := range v.entries {
		e := &v.entries[i]
		if v.filter.Matches(e.Display) || v.filter.Matches(e.Project) {
			v.visible = append(v.visible, i)
		}
	}
	if v.selected >= len(v.visible) {
		v.selected = len(v.visible) - 1
	}
	if v.selected < 0 {
		v.selected = 0
	}
	v.adjustScroll()
	v.status.SetCount(len(v.visible))
}

// prepend adds a newly captured entry to the top of the list.
func (v *View) prepend(entry domain.TranscriptEntry) {
	for i := range v.entries {
		if v.entries[i].ID == entry.ID {
			return
		}
	}
	v.entries = append([]domain.TranscriptEntry{entry}, v.entries...)
	v.applyFilter()
}

// adjustScroll adjusts the scroll offset to keep the selected item visible.
func (v *View) adjustScroll() {
	visibleItems := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visibleItems {
		v.scrollOffset = v.selected - visibleItems + 1
	}
}

// visibleItemCount returns the number of items that can be displayed.
func (v *View) visibleItemCount() int {
	// Reserve lines for title, filter, scroll indicator and status bar
	reserved := 8
	available := v.height - reserved
	if available < 1 {
		available = 1
	}
	return available
}

// View renders the history view.
func (v *View) View() string {
	var b strings.Builder

	title := fmt.Sprintf("History (%d)", len(v.entries))
	if v.transcript != nil {
		title += "  " + v.styles.Muted.Render(v.transcript.Location())
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n\n")

	if v.filter.Focused() || v.filter.Value() != "" {
		b.WriteString(v.filter.View())
		b.WriteString("\n\n")
	}

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading history..."))
		b.WriteString("\n")
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n")
	case len(v.entries) == 0:
		b.WriteString(v.styles.Muted.Render("No prompts captured yet."))
		b.WriteString("\n")
	case len(v.visible) == 0:
		b.WriteString(v.styles.Muted.Render("No prompts match the filter."))
		b.WriteString("\n")
	default:
		visibleItems := v.visibleItemCount()
		for i := v.scrollOffset; i < len(v.visible) && i < v.scrollOffset+visibleItems; i++ {
			b.WriteString(v.renderEntry(i, &v.entries[v.visible[i]]))
			b.WriteString("\n")
		}

		if len(v.visible) > visibleItems {
			b.WriteString("\n")
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]",
				v.scrollOffset+1,
				min(v.scrollOffset+visibleItems, len(v.visible)),
				len(v.visible))))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(v.status.View())

	return b.String()
}

// renderEntry renders a single history line.
func (v *View) renderEntry(index int, entry *domain.TranscriptEntry) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	stamp := entry.Timestamp.Local().Format(timeLayout)

	var extra string
	if n := len(entry.PastedContents); n > 0 {
		extra = fmt.Sprintf(" [+%d]", n)
	}
	if entry.Project != "" {
		extra += " " + filepath.Base(entry.Project)
	}

	maxTitle := v.width - len(indicator) - len(stamp) - len(extra) - 4
	if maxTitle < 10 {
		maxTitle = 10
	}
	title := entry.Title(maxTitle)

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%s  %s%s", indicator, stamp, title, extra))
	}

	return v.styles.Normal.Render(indicator) +
		v.styles.Muted.Render(stamp+"  ") +
		v.styles.Normal.Render(title) +
		v.styles.Muted.Render(extra)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.filter.SetWidth(width)
	v.status.SetWidth(width)
	v.adjustScroll()
}

// Entries returns every loaded entry, newest first.
func (v *View) Entries() []domain.TranscriptEntry {
	return v.entries
}

// VisibleCount returns the number of entries passing the filter.
func (v *View) VisibleCount() int {
	return len(v.visible)
}

// SelectedIndex returns the selected row among the visible entries.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SelectedEntry returns the selected entry, or nil when nothing is visible.
func (v *View) SelectedEntry() *domain.TranscriptEntry {
	if v.selected < len(v.visible) {
		return &v.entries[v.visible[v.selected]]
	}
	return nil
}

// Filtering reports whether the filter input has focus.
func (v *View) Filtering() bool {
	return v.filter.Focused()
}

// Loading reports whether a load is in flight.
func (v *View) Loading() bool {
	return v.loading
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
