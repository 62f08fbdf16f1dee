// Package prompt provides the single prompt view for the TUI. It shows the
// prompt with its attachments spliced back in and can switch to the
// reformatted text.
package prompt

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/promptlens/internal/adapters/driving/render"
	"github.com/custodia-labs/promptlens/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/promptlens/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/promptlens/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/promptlens/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/promptlens/internal/core/domain"
	"github.com/custodia-labs/promptlens/internal/core/ports/driving"
)

// Mode selects what the view shows for the current prompt.
type Mode int

const (
	// ModeOriginal shows the prompt as rebuilt from its attachments.
	ModeOriginal Mode = iota
	// ModeFormatted shows the AI reformatted prompt, falling back to the original.
	ModeFormatted
	// ModeAttachments lists the pasted attachments.
	ModeAttachments
)

// String returns the mode label shown in the title.
func (m Mode) String() string {
	switch m {
	case ModeFormatted:
		return "formatted"
	case ModeAttachments:
		return "attachments"
	default:
		return "original"
	}
}

// View is the prompt view.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	transcript driving.TranscriptService
	prompts    driving.PromptService
	format     driving.FormatService
	status     *status.Bar

	renderOpts render.Options
	renderer   *render.Renderer
	ctx        context.Context

	entry     *domain.TranscriptEntry
	text      string
	mode      Mode
	formatted domain.FormatCacheEntry

	lines        []string
	scrollOffset int
	width        int
	height       int
	ready        bool
}

// NewView creates a new prompt view. format may be nil.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	transcript driving.TranscriptService,
	prompts driving.PromptService,
	format driving.FormatService,
	opts render.Options,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	bar := status.NewBar(s, km)
	bar.SetHints(km.PromptHelp())

	v := &View{
		styles:     s,
		keymap:     km,
		transcript: transcript,
		prompts:    prompts,
		format:     format,
		status:     bar,
		renderOpts: opts,
		ctx:        context.Background(),
		width:      80,
		height:     24,
	}
	v.renderer = render.New(v.contentOptions())
	return v
}

// WithContext sets the context used for reformat requests.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// SetEntry shows entry in its original form.
func (v *View) SetEntry(entry domain.TranscriptEntry) tea.Cmd {
	v.entry = &entry
	v.text = entry.Display
	if v.transcript != nil {
		v.text = v.transcript.Reconstruct(&entry)
	}
	v.mode = ModeOriginal
	v.formatted = domain.FormatCacheEntry{}
	v.scrollOffset = 0
	v.status.Clear()
	v.rebuild()
	return nil
}

// Update handles messages for the prompt view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.FormatCompleted:
		v.applyFormat(msg.Entry)
		return v, nil

	case messages.ErrorOccurred:
		v.status.SetState(status.StateError)
		v.status.SetMessage(msg.Err.Error())
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keymap.Up):
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case keymap.Matches(k, v.keymap.Down):
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case keymap.Matches(k, v.keymap.PageUp):
		v.scrollOffset -= v.visibleLines()
		if v.scrollOffset < 0 {
			v.scrollOffset = 0
		}
	case keymap.Matches(k, v.keymap.PageDown):
		v.scrollOffset += v.visibleLines()
		if maxOffset := v.maxScrollOffset(); v.scrollOffset > maxOffset {
			v.scrollOffset = maxOffset
		}
	case keymap.Matches(k, v.keymap.Top):
		v.scrollOffset = 0
	case keymap.Matches(k, v.keymap.Bottom):
		v.scrollOffset = v.maxScrollOffset()
	case keymap.Matches(k, v.keymap.Format):
		if v.mode == ModeFormatted {
			v.setMode(ModeOriginal)
			return v, nil
		}
		return v, v.requestFormat(false)
	case keymap.Matches(k, v.keymap.Refresh):
		return v, v.requestFormat(true)
	case keymap.Matches(k, v.keymap.Attachments):
		if v.mode == ModeAttachments {
			v.setMode(ModeOriginal)
		} else {
			v.setMode(ModeAttachments)
		}
	case keymap.Matches(k, v.keymap.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewHistory}
		}
	}

	return v, nil
}

// requestFormat switches to the formatted mode and asks the format service
// for the current prompt. A settled cache entry is shown straight away.
func (v *View) requestFormat(refresh bool) tea.Cmd {
	if v.entry == nil {
		return nil
	}
	if v.format == nil {
		v.status.SetMessage("Reformatting unavailable, showing original")
		return nil
	}

	v.setMode(ModeFormatted)
	fp := v.format.Focus(v.text)

	if !refresh {
		if entry, ok := v.format.Lookup(fp); ok && entry.Status.IsTerminal() {
			v.applyFormat(entry)
			return nil
		}
	}

	v.formatted = domain.FormatCacheEntry{Fingerprint: fp, Status: domain.FormatPending}
	v.status.SetState(status.StateFormatting)
	v.status.SetMessage("")

	format, ctx, text := v.format, v.ctx, v.text
	return func() tea.Msg {
		var entry domain.FormatCacheEntry
		if refresh {
			entry = format.Refresh(ctx, text)
		} else {
			entry = format.Request(ctx, text)
		}
		return messages.FormatCompleted{Entry: entry}
	}
}

// applyFormat shows a settled entry if it still belongs to the prompt on
// display. Anything else is left in the cache.
func (v *View) applyFormat(entry domain.FormatCacheEntry) {
	if v.format == nil || v.entry == nil || !v.format.Surface(entry) {
		return
	}
	if entry.Fingerprint != v.format.Fingerprint(v.text) {
		return
	}

	v.formatted = entry
	switch entry.Status {
	case domain.FormatSucceeded:
		v.status.SetState(status.StateFormatted)
		v.status.SetMessage("")
	case domain.FormatFailed:
		v.status.SetState(status.StateReady)
		v.status.SetMessage(fmt.Sprintf("Reformatting failed (%s), showing original", entry.ErrorMessage))
	case domain.FormatPending:
		v.status.SetState(status.StateFormatting)
	}
	if v.mode == ModeFormatted {
		v.rebuild()
	}
}

func (v *View) setMode(mode Mode) {
	v.mode = mode
	v.scrollOffset = 0
	if mode != ModeFormatted {
		v.status.SetState(status.StateReady)
		v.status.SetMessage("")
	}
	v.rebuild()
}

// rebuild renders the body for the current mode and splits it into lines.
func (v *View) rebuild() {
	if v.entry == nil {
		v.lines = nil
		return
	}

	var body string
	switch v.mode {
	case ModeAttachments:
		body = v.renderAttachments()
	case ModeFormatted:
		if v.formatted.Status == domain.FormatSucceeded {
			body = v.renderer.Markdown(v.formatted.TextOr(v.text))
		} else {
			body = v.renderOriginal()
		}
	default:
		body = v.renderOriginal()
	}

	v.lines = strings.Split(strings.TrimRight(body, "\n"), "\n")
	if v.scrollOffset > v.maxScrollOffset() {
		v.scrollOffset = v.maxScrollOffset()
	}
}

func (v *View) renderOriginal() string {
	if v.transcript == nil {
		return v.renderer.Plain(v.text, nil)
	}
	d := v.transcript.Directive(v.entry, 0)
	return v.renderer.Header(d) + "\n\n" + v.renderer.Render(d)
}

func (v *View) renderAttachments() string {
	if v.prompts == nil || !v.entry.HasAttachments() {
		return v.styles.Muted.Render("(No attachments)")
	}

	var b strings.Builder
	for i, a := range v.prompts.FormatForDisplay(v.entry.PastedContents) {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(v.styles.Subtitle.Render(fmt.Sprintf("--- %s ---", a.Label)))
		b.WriteString("\n")
		b.WriteString(a.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// contentOptions returns the render options for the current width.
func (v *View) contentOptions() render.Options {
	opts := v.renderOpts
	opts.Width = v.width - 4
	if opts.Width < 20 {
		opts.Width = 20
	}
	return opts
}

// visibleLines returns the number of lines that can be displayed.
func (v *View) visibleLines() int {
	// Reserve lines for title, separator, scroll indicator and status bar
	reserved := 7
	available := v.height - reserved
	if available < 1 {
		available = 1
	}
	return available
}

// maxScrollOffset returns the maximum scroll offset.
func (v *View) maxScrollOffset() int {
	maxOffset := len(v.lines) - v.visibleLines()
	if maxOffset < 0 {
		maxOffset = 0
	}
	return maxOffset
}

// View renders the prompt view.
func (v *View) View() string {
	var b strings.Builder

	title := "Prompt"
	if v.entry != nil {
		title = fmt.Sprintf("%s  %s", v.entry.Timestamp.Local().Format("2006-01-02 15:04"), v.entry.Title(v.width/2))
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("  ")
	b.WriteString(v.styles.Muted.Render("[" + v.mode.String() + "]"))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", min(v.width-4, 60)))
	b.WriteString("\n\n")

	if v.entry == nil {
		b.WriteString(v.styles.Muted.Render("(No prompt selected)"))
		b.WriteString("\n\n")
		b.WriteString(v.status.View())
		return b.String()
	}

	visibleLines := v.visibleLines()
	content := lipgloss.NewStyle().PaddingLeft(1)
	for i := v.scrollOffset; i < len(v.lines) && i < v.scrollOffset+visibleLines; i++ {
		b.WriteString(content.Render(v.lines[i]))
		b.WriteString("\n")
	}

	if len(v.lines) > visibleLines {
		b.WriteString("\n")
		percentage := 0
		if v.maxScrollOffset() > 0 {
			percentage = v.scrollOffset * 100 / v.maxScrollOffset()
		}
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d%%] Line %d-%d of %d",
			percentage,
			v.scrollOffset+1,
			min(v.scrollOffset+visibleLines, len(v.lines)),
			len(v.lines))))
	}

	b.WriteString("\n")
	b.WriteString(v.status.View())

	return b.String()
}

// SetDimensions sets the view dimensions and re-renders for the new width.
func (v *View) SetDimensions(width, height int) {
	resized := width != v.width
	v.width = width
	v.height = height
	v.ready = true
	v.status.SetWidth(width)
	if resized {
		v.renderer = render.New(v.contentOptions())
	}
	v.rebuild()
}

// Entry returns the prompt on display.
func (v *View) Entry() *domain.TranscriptEntry {
	return v.entry
}

// Text returns the rebuilt prompt text.
func (v *View) Text() string {
	return v.text
}

// Mode returns the current display mode.
func (v *View) Mode() Mode {
	return v.mode
}

// Formatted returns the reformat entry shown in formatted mode.
func (v *View) Formatted() domain.FormatCacheEntry {
	return v.formatted
}

// Lines returns the rendered body lines.
func (v *View) Lines() []string {
	return v.lines
}

// ScrollOffset returns the first visible line.
func (v *View) ScrollOffset() int {
	return v.scrollOffset
}

// Status returns the status bar state.
func (v *View) Status() status.State {
	return v.status.State()
}

// StatusMessage returns the status bar message.
func (v *View) StatusMessage() string {
	return v.status.Message()
}
