package services

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/promptlens/internal/core/domain"
	"github.com/custodia-labs/promptlens/internal/core/ports/driving"
	"github.com/custodia-labs/promptlens/internal/logger"
)

// Ensure PromptService implements the interface.
var _ driving.PromptService = (*PromptService)(nil)

// placeholderPattern matches "[Pasted text #N]" and "[Pasted text #N +K lines]".
var placeholderPattern = regexp.MustCompile(`\[Pasted text #(\d+)(?:\s+\+(\d+)\s+lines)?\]`)

const attachmentEndMarker = "--- End ---"

// PromptService reconstructs prompts whose pasted content was replaced by
// placeholder tokens.
type PromptService struct{}

// NewPromptService creates a new prompt service.
func NewPromptService() *PromptService {
	return &PromptService{}
}

// Resolve splices each resolvable placeholder's attachment into prompt.
// Every occurrence is resolved on its own, so a repeated ordinal is
// expanded each time. Tokens with no attachment are left verbatim.
func (s *PromptService) Resolve(prompt string, attachments domain.AttachmentMap) string {
	if len(attachments) == 0 {
		return prompt
	}

	matches := placeholderPattern.FindAllStringSubmatchIndex(prompt, -1)
	if len(matches) == 0 {
		return prompt
	}

	var b strings.Builder
	b.Grow(len(prompt))
	prev := 0
	resolved := 0
	for _, m := range matches {
		digits := prompt[m[2]:m[3]]
		b.WriteString(prompt[prev:m[0]])
		prev = m[1]

		value, ok := attachments.LookupDigits(digits)
		if !ok {
			b.WriteString(prompt[m[0]:m[1]])
			continue
		}
		writeAttachmentBlock(&b, domain.AttachmentLabelPrefix+digits, FormatStructured(value.Content()))
		resolved++
	}
	b.WriteString(prompt[prev:])

	logger.Debug("resolved %d of %d placeholders", resolved, len(matches))
	return b.String()
}

func writeAttachmentBlock(b *strings.Builder, label, content string) {
	b.WriteString("\n\n--- ")
	b.WriteString(label)
	b.WriteString(" ---\n")
	b.WriteString(content)
	b.WriteString("\n")
	b.WriteString(attachmentEndMarker)
	b.WriteString("\n\n")
}

// FormatForDisplay lists every attachment with a canonical label.
// Numeric keys sort first in ascending order, then other keys by ordinal
// where they carry one, then by key.
func (s *PromptService) FormatForDisplay(attachments domain.AttachmentMap) []domain.AttachmentEntry {
	if len(attachments) == 0 {
		return nil
	}

	keys := make([]string, 0, len(attachments))
	for k := range attachments {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return displayKeyLess(keys[i], keys[j])
	})

	entries := make([]domain.AttachmentEntry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, domain.AttachmentEntry{
			Label:   domain.DisplayLabel(k),
			Content: FormatStructured(attachments[k].Content()),
		})
	}
	return entries
}

// displayKeyLess orders numeric keys before labelled keys, and within each
// group by ordinal, then by key.
func displayKeyLess(a, b string) bool {
	aNumeric, bNumeric := isDigits(a), isDigits(b)
	if aNumeric != bNumeric {
		return aNumeric
	}

	aOrd, aOK := domain.AttachmentOrdinal(a)
	bOrd, bOK := domain.AttachmentOrdinal(b)
	switch {
	case aOK && bOK && aOrd != bOrd:
		return aOrd < bOrd
	case aOK != bOK:
		return aOK
	}
	return a < b
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Tokens lists the placeholder occurrences in prompt.
func (s *PromptService) Tokens(prompt string) []domain.PlaceholderToken {
	matches := placeholderPattern.FindAllStringSubmatchIndex(prompt, -1)
	if len(matches) == 0 {
		return nil
	}

	tokens := make([]domain.PlaceholderToken, 0, len(matches))
	for _, m := range matches {
		ordinal, err := strconv.Atoi(prompt[m[2]:m[3]])
		if err != nil {
			continue
		}
		tok := domain.PlaceholderToken{
			Raw:     prompt[m[0]:m[1]],
			Ordinal: ordinal,
			Start:   m[0],
			End:     m[1],
		}
		if m[4] >= 0 {
			tok.Lines, _ = strconv.Atoi(prompt[m[4]:m[5]])
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// Unresolved returns the ordinals of placeholders with no attachment, in
// order of first appearance.
func (s *PromptService) Unresolved(prompt string, attachments domain.AttachmentMap) []int {
	var missing []int
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(prompt, -1) {
		digits := m[1]
		if seen[digits] {
			continue
		}
		seen[digits] = true
		if _, ok := attachments.LookupDigits(digits); ok {
			continue
		}
		if n, err := strconv.Atoi(digits); err == nil {
			missing = append(missing, n)
		}
	}
	return missing
}
