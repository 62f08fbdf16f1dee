// Package mcp provides an MCP (Model Context Protocol) server adapter for promptlens.
// It lets AI assistants classify content, rebuild prompts from their pasted
// attachments and reformat text through the same services the CLI uses.
package mcp

import "errors"

var (
	// ErrMissingContentService is returned when the content service is not provided.
	ErrMissingContentService = errors.New("mcp: content service is required")

	// ErrMissingPromptService is returned when the prompt service is not provided.
	ErrMissingPromptService = errors.New("mcp: prompt service is required")

	// ErrHistoryUnavailable is returned by history tools when no transcript service is wired.
	ErrHistoryUnavailable = errors.New("mcp: history is not available")
)
