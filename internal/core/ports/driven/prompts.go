package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptFormatSystem is the system prompt for reformatting a captured prompt
	// into readable Markdown. It has no format placeholders.
	PromptFormatSystem = "format_system"

	// PromptFormatUser wraps the text to reformat.
	// The template expects a single %s placeholder for the text.
	PromptFormatUser = "format_user"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service uses its built-in prompts.
	SetPromptStore(store PromptStore)
}
