// Package render draws classified content for a terminal.
//
// Code and structured data are highlighted with chroma, formatted text goes
// through glamour, and plain text is printed with its links underlined. With
// colour disabled every kind is printed as-is so output stays pipe-friendly.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/promptlens/internal/core/domain"
	"github.com/custodia-labs/promptlens/internal/logger"
)

// DefaultWidth is the wrap width used when none is given.
const DefaultWidth = 80

// Chroma styles per palette.
const (
	darkCodeStyle  = "monokai"
	lightCodeStyle = "github"
)

// Options configures a Renderer.
type Options struct {
	// Width is the wrap width for formatted text. Zero means DefaultWidth.
	Width int

	// Theme selects the palette. System follows the terminal background.
	Theme domain.ThemeMode

	// Color enables ANSI styling.
	Color bool
}

// Renderer turns render directives into terminal text.
type Renderer struct {
	width int
	dark  bool
	color bool

	markdown *glamour.TermRenderer

	link  lipgloss.Style
	muted lipgloss.Style
	label lipgloss.Style
}

// New creates a renderer. A markdown renderer that cannot be built leaves
// formatted text unstyled.
func New(opts Options) *Renderer {
	width := opts.Width
	if width <= 0 {
		width = DefaultWidth
	}

	r := &Renderer{
		width: width,
		color: opts.Color,
	}

	if r.color {
		r.dark = isDark(opts.Theme)
		md, err := glamour.NewTermRenderer(
			glamourStyle(opts.Theme),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			logger.Warn("markdown renderer unavailable: %v", err)
		} else {
			r.markdown = md
		}
	}

	r.link = lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("#06B6D4"))
	r.muted = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	r.label = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	return r
}

// Width returns the wrap width.
func (r *Renderer) Width() int {
	return r.width
}

// Render draws a directive, appending a note when the content was cut.
func (r *Renderer) Render(d domain.RenderDirective) string {
	var body string
	switch d.Kind {
	case domain.KindCode, domain.KindStructuredData:
		body = r.Code(d.Content, d.Language)
	case domain.KindFormattedText:
		body = r.Markdown(d.Content)
	default:
		body = r.Plain(d.Content, d.Links)
	}

	if d.Truncated {
		body = strings.TrimRight(body, "\n") + "\n" + r.TruncationNote(d)
	}
	return body
}

// Header returns a one-line caption naming the kind and language.
func (r *Renderer) Header(d domain.RenderDirective) string {
	caption := d.Kind.Description()
	if d.Kind.HasLanguage() && d.Language != "" {
		caption += " · " + d.Language
	}
	if !r.color {
		return "[" + caption + "]"
	}
	return r.label.Render(caption)
}

// TruncationNote tells the reader how much of the content is hidden.
func (r *Renderer) TruncationNote(d domain.RenderDirective) string {
	shown := strings.Count(d.Content, "\n") + 1
	hidden := d.TotalLines - shown
	if hidden < 0 {
		hidden = 0
	}
	note := fmt.Sprintf("… %d more lines (%d total)", hidden, d.TotalLines)
	if !r.color {
		return note
	}
	return r.muted.Render(note)
}

// Code highlights source for the given language label. Unknown languages are
// analysed by chroma and fall back to plain output.
func (r *Renderer) Code(source, language string) string {
	if !r.color || source == "" {
		return source
	}

	lexer := codeLexer(source, language)
	style := styles.Get(r.codeStyle())
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		logger.Debug("tokenise %s failed: %v", language, err)
		return source
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		logger.Debug("highlight %s failed: %v", language, err)
		return source
	}
	return buf.String()
}

// Markdown renders formatted text. Without colour it is returned as-is.
func (r *Renderer) Markdown(text string) string {
	if r.markdown == nil {
		return text
	}
	out, err := r.markdown.Render(text)
	if err != nil {
		logger.Debug("markdown render failed: %v", err)
		return text
	}
	return strings.Trim(out, "\n")
}

// Plain prints text with each link underlined.
func (r *Renderer) Plain(text string, links []string) string {
	if !r.color || len(links) == 0 {
		return text
	}

	var b strings.Builder
	rest := text
	for _, link := range links {
		idx := strings.Index(rest, link)
		if idx < 0 {
			continue
		}
		b.WriteString(rest[:idx])
		b.WriteString(r.link.Render(link))
		rest = rest[idx+len(link):]
	}
	b.WriteString(rest)
	return b.String()
}

func (r *Renderer) codeStyle() string {
	if r.dark {
		return darkCodeStyle
	}
	return lightCodeStyle
}

func codeLexer(source, language string) chroma.Lexer {
	var lexer chroma.Lexer
	if language != "" && language != domain.LanguagePlainText {
		lexer = lexers.Get(language)
	}
	if lexer == nil {
		lexer = lexers.Analyse(source)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

func glamourStyle(theme domain.ThemeMode) glamour.TermRendererOption {
	switch theme {
	case domain.ThemeLight:
		return glamour.WithStandardStyle("light")
	case domain.ThemeDark:
		return glamour.WithStandardStyle("dark")
	default:
		return glamour.WithAutoStyle()
	}
}

func isDark(theme domain.ThemeMode) bool {
	switch theme {
	case domain.ThemeLight:
		return false
	case domain.ThemeDark:
		return true
	default:
		return lipgloss.HasDarkBackground()
	}
}
