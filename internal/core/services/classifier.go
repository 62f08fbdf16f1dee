package services

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/promptlens/internal/core/domain"
	"github.com/custodia-labs/promptlens/internal/core/ports/driving"
)

// Ensure ContentService implements the interface.
var _ driving.ContentService = (*ContentService)(nil)

// KindRule is one content kind predicate. Rules are tried in order and the
// first match decides the kind.
type KindRule struct {
	Name string
	Kind domain.ContentKind

	// Match receives the raw text and its whitespace-trimmed form.
	Match func(raw, trimmed string) bool
}

var (
	codePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^(function|const|let|var|class|def|import|export|interface|type)\s`),
		regexp.MustCompile(`(?m)^(public|private|protected)\s+(class|function|static)`),
		regexp.MustCompile(`(?m)^\s*(if|for|while|switch)\s*\(`),
		regexp.MustCompile(`=>\s*\{`),
		regexp.MustCompile(`(?s)\{\s*\n.*:\s*.+\n.*\}`),
	}

	markupPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^#{1,6}\s+.+$`),
		regexp.MustCompile(`(?m)^\*\*.*\*\*$`),
		regexp.MustCompile(`(?m)^\*.*\*$`),
		regexp.MustCompile(`\[[^\]\n]+\]\([^)\s]+\)`),
		regexp.MustCompile("(?m)^```"),
		regexp.MustCompile(`(?m)^[-*+]\s+`),
		regexp.MustCompile(`(?m)^\d+[.)]\s+`),
	}

	linkPattern = regexp.MustCompile(`https?://[^\s]+`)
)

// DefaultKindRules returns the content kind rules in precedence order:
// structured data, then code, then formatted text. Plain text is the
// fallback when nothing matches.
func DefaultKindRules() []KindRule {
	return []KindRule{
		{
			Name: "structured-data",
			Kind: domain.KindStructuredData,
			Match: func(_, trimmed string) bool {
				return isStructured(trimmed)
			},
		},
		{
			Name: "code",
			Kind: domain.KindCode,
			Match: func(raw, _ string) bool {
				return matchAny(codePatterns, raw)
			},
		},
		{
			Name: "formatted-text",
			Kind: domain.KindFormattedText,
			Match: func(_, trimmed string) bool {
				return matchAny(markupPatterns, trimmed)
			},
		},
	}
}

// ContentService classifies text and prepares it for display.
type ContentService struct {
	kindRules     []KindRule
	languageRules []LanguageRule
}

// NewContentService creates a content service with the default rule sets.
func NewContentService() *ContentService {
	return &ContentService{
		kindRules:     DefaultKindRules(),
		languageRules: DefaultLanguageRules(),
	}
}

// NewContentServiceWithRules creates a content service with custom rule sets.
// Nil slices select the defaults.
func NewContentServiceWithRules(kindRules []KindRule, languageRules []LanguageRule) *ContentService {
	if kindRules == nil {
		kindRules = DefaultKindRules()
	}
	if languageRules == nil {
		languageRules = DefaultLanguageRules()
	}
	return &ContentService{
		kindRules:     kindRules,
		languageRules: languageRules,
	}
}

// Classify returns the content kind and, for code and structured data, the language.
func (s *ContentService) Classify(text string) domain.Classification {
	kind := s.kind(text)
	language := domain.LanguagePlainText
	if kind.HasLanguage() {
		language = s.DetectLanguage(text)
	}
	return domain.Classification{Kind: kind, Language: language}
}

func (s *ContentService) kind(text string) domain.ContentKind {
	trimmed := strings.TrimSpace(text)
	for _, rule := range s.kindRules {
		if rule.Match(text, trimmed) {
			return rule.Kind
		}
	}
	return domain.KindPlainText
}

// Directive classifies text and prepares it for display.
func (s *ContentService) Directive(text string, maxLines int) domain.RenderDirective {
	c := s.Classify(text)

	content := text
	if c.Kind == domain.KindStructuredData {
		content = FormatStructured(text)
	}

	lines := strings.Split(content, "\n")
	d := domain.RenderDirective{
		Kind:       c.Kind,
		Language:   c.Language,
		Content:    content,
		TotalLines: len(lines),
	}

	if IsOverflowing(content, maxLines) {
		d.Content = strings.Join(lines[:maxLines], "\n")
		d.Truncated = true
	}

	if c.Kind == domain.KindPlainText {
		d.Links = ExtractLinks(text)
	}

	return d
}

// IsOverflowing reports whether text has more than maxLines lines.
// A non-positive maxLines never overflows.
func IsOverflowing(text string, maxLines int) bool {
	if maxLines <= 0 {
		return false
	}
	return strings.Count(text, "\n")+1 > maxLines
}

// ExtractLinks returns the http(s) URLs in text in order of appearance.
func ExtractLinks(text string) []string {
	return linkPattern.FindAllString(text, -1)
}

// SplitLinks splits text into alternating plain and link segments so a
// renderer can style links. Odd indices hold links.
func SplitLinks(text string) []string {
	locs := linkPattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []string{text}
	}

	parts := make([]string, 0, len(locs)*2+1)
	prev := 0
	for _, loc := range locs {
		parts = append(parts, text[prev:loc[0]], text[loc[0]:loc[1]])
		prev = loc[1]
	}
	return append(parts, text[prev:])
}

func matchAny(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}
