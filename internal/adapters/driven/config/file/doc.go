// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem under the promptlens
// config directory (~/.promptlens by default).
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - PromptStore: User-editable reformat prompts with embedded defaults
package file
