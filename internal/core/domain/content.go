package domain

// ContentKind is the coarse kind of a block of text.
type ContentKind string

// Available content kinds.
const (
	// KindCode is source code in some programming language.
	KindCode ContentKind = "code"

	// KindStructuredData is a payload that parses end-to-end as JSON.
	KindStructuredData ContentKind = "structured_data"

	// KindFormattedText is prose carrying Markdown-style markup.
	KindFormattedText ContentKind = "formatted_text"

	// KindPlainText is everything else.
	KindPlainText ContentKind = "plain_text"
)

// LanguagePlainText is the language label for content that is not code.
const LanguagePlainText = "text"

// IsValid returns true if the kind is recognised.
func (k ContentKind) IsValid() bool {
	switch k {
	case KindCode, KindStructuredData, KindFormattedText, KindPlainText:
		return true
	default:
		return false
	}
}

// HasLanguage returns true if content of this kind carries a language label.
func (k ContentKind) HasLanguage() bool {
	return k == KindCode || k == KindStructuredData
}

// String returns the string representation.
func (k ContentKind) String() string {
	return string(k)
}

// Description returns a human-readable description of the kind.
func (k ContentKind) Description() string {
	switch k {
	case KindCode:
		return "Code"
	case KindStructuredData:
		return "Structured data"
	case KindFormattedText:
		return "Formatted text"
	case KindPlainText:
		return "Plain text"
	default:
		return unknownDescription
	}
}

// Classification is the result of classifying a block of text.
type Classification struct {
	// Kind is the detected content kind.
	Kind ContentKind `json:"kind"`

	// Language is the detected language for code and structured data.
	// It is LanguagePlainText for the other kinds.
	Language string `json:"language"`
}

// RenderDirective tells the presentation layer how to draw a block of text.
type RenderDirective struct {
	Kind     ContentKind `json:"kind"`
	Language string      `json:"language"`

	// Content is the text to draw, possibly cut to a preview.
	Content string `json:"content"`

	// Truncated is true when Content holds fewer lines than the source.
	Truncated bool `json:"truncated"`

	// TotalLines is the line count of the untruncated source.
	TotalLines int `json:"total_lines"`

	// Links are the http(s) URLs found in plain text, in order of appearance.
	Links []string `json:"links,omitempty"`
}
