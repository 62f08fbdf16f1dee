// Package tui provides an interactive terminal user interface for browsing
// prompt history. It implements a driving adapter following hexagonal
// architecture principles.
package tui

import (
	"github.com/custodia-labs/promptlens/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Transcript reads the prompt history.
	Transcript driving.TranscriptService

	// Content classifies prompt text for rendering.
	Content driving.ContentService

	// Prompt splices pasted attachments back into prompts.
	Prompt driving.PromptService

	// Format reformats prompts with the AI provider. Optional; without it
	// the formatted toggle is unavailable.
	Format driving.FormatService

	// Settings manages application settings. Optional.
	Settings driving.SettingsService
}

// NewPorts creates a new Ports aggregate with the required services.
func NewPorts(
	transcript driving.TranscriptService,
	content driving.ContentService,
	prompt driving.PromptService,
) *Ports {
	return &Ports{
		Transcript: transcript,
		Content:    content,
		Prompt:     prompt,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Transcript == nil {
		return ErrMissingTranscriptService
	}
	if p.Content == nil {
		return ErrMissingContentService
	}
	if p.Prompt == nil {
		return ErrMissingPromptService
	}
	return nil
}
