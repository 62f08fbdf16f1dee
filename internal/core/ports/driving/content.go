package driving

import "github.com/custodia-labs/promptlens/internal/core/domain"

// ContentService classifies text for rendering.
// All methods are pure and total: they never fail and never block.
type ContentService interface {
	// Classify returns the content kind and, for code and structured data, the language.
	Classify(text string) domain.Classification

	// DetectLanguage returns the language label for text, or "text".
	DetectLanguage(text string) string

	// Directive classifies text and prepares it for display, cutting it to
	// maxLines when maxLines is positive.
	Directive(text string, maxLines int) domain.RenderDirective
}

// PromptService reconstructs prompts from placeholders and attachments.
type PromptService interface {
	// Resolve replaces each resolvable placeholder token with its attachment,
	// pretty-printing JSON payloads. Unresolvable tokens are left as they are.
	Resolve(prompt string, attachments domain.AttachmentMap) string

	// FormatForDisplay lists attachments with canonical labels in a stable order.
	FormatForDisplay(attachments domain.AttachmentMap) []domain.AttachmentEntry

	// Tokens lists the placeholder occurrences in prompt.
	Tokens(prompt string) []domain.PlaceholderToken

	// Unresolved returns the ordinals of placeholders with no attachment, in
	// order of first appearance.
	Unresolved(prompt string, attachments domain.AttachmentMap) []int
}
