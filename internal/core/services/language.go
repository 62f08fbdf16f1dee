package services

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/promptlens/internal/core/domain"
)

// LanguageRule is one language predicate. Rules are tried in order and the
// first non-empty label wins.
type LanguageRule struct {
	Name string

	// Detect returns the language label, or "" when the rule does not apply.
	// It receives the raw text and its whitespace-trimmed form.
	Detect func(raw, trimmed string) string
}

var (
	jsMarkers     = regexp.MustCompile(`\b(function|const|let|var|import.*from|export)\b|=>`)
	tsMarkers     = regexp.MustCompile(`\b(interface|type|enum|namespace|as\s+\w+)\b`)
	pythonMarkers = regexp.MustCompile(`\b(def|class|import|from|print|if __name__)\b`)
	javaMarkers   = regexp.MustCompile(`\b(public|private|protected)\s+(class|interface|static|void)\b`)
	cppMarkers    = regexp.MustCompile(`#include|int main\(|std::`)
	goMarkers     = regexp.MustCompile(`\bfunc\s+\w+\(|package\s+\w+`)
	rustMarkers   = regexp.MustCompile(`\b(fn|let mut|impl|trait|pub)\b`)
	sqlMarkers    = regexp.MustCompile(`(?i)\b(SELECT|INSERT|UPDATE|DELETE|CREATE|DROP|FROM|WHERE|JOIN)\b`)
	htmlMarkers   = regexp.MustCompile(`(?i)</?[a-z][\s\S]*>`)
	cssBlock      = regexp.MustCompile(`\{[^}]*:[^}]*\}`)
	cssSelector   = regexp.MustCompile(`\.([\w-]+)\s*\{`)
	shellMarkers  = regexp.MustCompile(`(?m)^(#!/\S+|(npm|yarn|git|cd|ls|mkdir|rm)\s)`)
)

func markerRule(name string, pattern *regexp.Regexp) LanguageRule {
	return LanguageRule{
		Name: name,
		Detect: func(raw, _ string) string {
			if pattern.MatchString(raw) {
				return name
			}
			return ""
		},
	}
}

// DefaultLanguageRules returns the language rules in precedence order.
func DefaultLanguageRules() []LanguageRule {
	return []LanguageRule{
		{
			Name: "json",
			Detect: func(_, trimmed string) string {
				if isStructured(trimmed) {
					return "json"
				}
				return ""
			},
		},
		{
			Name: "javascript",
			Detect: func(raw, _ string) string {
				if !jsMarkers.MatchString(raw) {
					return ""
				}
				if tsMarkers.MatchString(raw) {
					return "typescript"
				}
				return "javascript"
			},
		},
		markerRule("python", pythonMarkers),
		markerRule("java", javaMarkers),
		markerRule("cpp", cppMarkers),
		markerRule("go", goMarkers),
		markerRule("rust", rustMarkers),
		markerRule("sql", sqlMarkers),
		markerRule("html", htmlMarkers),
		{
			Name: "css",
			Detect: func(raw, _ string) string {
				if cssBlock.MatchString(raw) && cssSelector.MatchString(raw) {
					return "css"
				}
				return ""
			},
		},
		markerRule("bash", shellMarkers),
	}
}

// DetectLanguage returns the language label for text, or "text" when no rule matches.
func (s *ContentService) DetectLanguage(text string) string {
	trimmed := strings.TrimSpace(text)
	for _, rule := range s.languageRules {
		if lang := rule.Detect(text, trimmed); lang != "" {
			return lang
		}
	}
	return domain.LanguagePlainText
}
