package mcp

import (
	"github.com/custodia-labs/promptlens/internal/core/ports/driving"
)

// ToolObserver receives one event per tool call.
type ToolObserver interface {
	ToolCalled(tool string, err error)
}

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Content classifies text.
	Content driving.ContentService

	// Prompt resolves placeholders against attachments.
	Prompt driving.PromptService

	// Format reformats text. Optional: without it format_text returns the
	// original text marked as failed.
	Format driving.FormatService

	// Transcript browses captured history. Optional.
	Transcript driving.TranscriptService

	// Observer records tool calls. Optional.
	Observer ToolObserver
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Content == nil {
		return ErrMissingContentService
	}
	if p.Prompt == nil {
		return ErrMissingPromptService
	}
	return nil
}
