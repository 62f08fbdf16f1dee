package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/promptlens/internal/core/domain"
)

// Tool names.
const (
	toolClassify    = "classify_content"
	toolResolve     = "resolve_prompt"
	toolFormat      = "format_text"
	toolListHistory = "list_history"
)

const (
	// defaultHistoryLimit is used when list_history gets no limit.
	defaultHistoryLimit = 20

	// titleWidth caps history titles, in runes.
	titleWidth = 80
)

// ClassifyInput is the input schema for the classify_content tool.
type ClassifyInput struct {
	Text     string `json:"text" jsonschema:"the text to classify"`
	MaxLines int    `json:"max_lines,omitempty" jsonschema:"cut the returned preview to this many lines (0 keeps everything)"`
}

// ClassifyOutput is the output schema for the classify_content tool.
type ClassifyOutput struct {
	Kind        string   `json:"kind"`
	Language    string   `json:"language"`
	Description string   `json:"description"`
	TotalLines  int      `json:"total_lines"`
	Truncated   bool     `json:"truncated"`
	Preview     string   `json:"preview"`
	Links       []string `json:"links,omitempty"`
}

// ResolveInput is the input schema for the resolve_prompt tool.
type ResolveInput struct {
	Prompt      string         `json:"prompt" jsonschema:"prompt text containing [Pasted text #N] placeholders"`
	Attachments map[string]any `json:"attachments,omitempty" jsonschema:"pasted contents keyed by number or by 'Pasted text #N'"`
}

// ResolveOutput is the output schema for the resolve_prompt tool.
type ResolveOutput struct {
	Resolved    string                   `json:"resolved"`
	Unresolved  []int                    `json:"unresolved,omitempty"`
	Attachments []domain.AttachmentEntry `json:"attachments"`
}

// FormatInput is the input schema for the format_text tool.
type FormatInput struct {
	Text    string `json:"text" jsonschema:"the text to reformat"`
	Refresh bool   `json:"refresh,omitempty" jsonschema:"discard any earlier result and ask again"`
}

// FormatOutput is the output schema for the format_text tool.
type FormatOutput struct {
	Fingerprint string `json:"fingerprint"`
	Status      string `json:"status"`
	Text        string `json:"text"`
	Error       string `json:"error,omitempty"`
}

// ListHistoryInput is the input schema for the list_history tool.
type ListHistoryInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of entries to return (default 20)"`
}

// ListHistoryOutput is the output schema for the list_history tool.
type ListHistoryOutput struct {
	Entries []HistoryEntryOutput `json:"entries"`
	Count   int                  `json:"count"`
}

// HistoryEntryOutput is one captured prompt.
type HistoryEntryOutput struct {
	ID          string `json:"id"`
	Timestamp   string `json:"timestamp"`
	Project     string `json:"project,omitempty"`
	Title       string `json:"title"`
	Attachments int    `json:"attachments"`
	Kind        string `json:"kind"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        toolClassify,
		Description: "Classify text as code, structured data, formatted text or plain text and detect its language",
	}, s.handleClassify)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        toolResolve,
		Description: "Rebuild a prompt by replacing [Pasted text #N] placeholders with their pasted contents",
	}, s.handleResolve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        toolFormat,
		Description: "Reformat text as Markdown with the configured AI provider, falling back to the original",
	}, s.handleFormat)

	if s.ports.Transcript != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        toolListHistory,
			Description: "List recently captured prompts, newest first",
		}, s.handleListHistory)
	}
}

// handleClassify handles the classify_content tool invocation.
func (s *Server) handleClassify(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ClassifyInput,
) (*mcp.CallToolResult, ClassifyOutput, error) {
	if input.MaxLines < 0 {
		err := fmt.Errorf("%w: max_lines must not be negative", domain.ErrInvalidInput)
		s.observe(toolClassify, err)
		return nil, ClassifyOutput{}, err
	}

	d := s.ports.Content.Directive(input.Text, input.MaxLines)
	s.observe(toolClassify, nil)

	return nil, ClassifyOutput{
		Kind:        d.Kind.String(),
		Language:    d.Language,
		Description: d.Kind.Description(),
		TotalLines:  d.TotalLines,
		Truncated:   d.Truncated,
		Preview:     d.Content,
		Links:       d.Links,
	}, nil
}

// handleResolve handles the resolve_prompt tool invocation.
func (s *Server) handleResolve(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ResolveInput,
) (*mcp.CallToolResult, ResolveOutput, error) {
	attachments, err := decodeAttachments(input.Attachments)
	if err != nil {
		s.observe(toolResolve, err)
		return nil, ResolveOutput{}, err
	}

	output := ResolveOutput{
		Resolved:    s.ports.Prompt.Resolve(input.Prompt, attachments),
		Unresolved:  s.ports.Prompt.Unresolved(input.Prompt, attachments),
		Attachments: s.ports.Prompt.FormatForDisplay(attachments),
	}
	if output.Attachments == nil {
		output.Attachments = []domain.AttachmentEntry{}
	}
	s.observe(toolResolve, nil)
	return nil, output, nil
}

// handleFormat handles the format_text tool invocation. Formatting failures
// are reported in the output, never as tool errors.
func (s *Server) handleFormat(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FormatInput,
) (*mcp.CallToolResult, FormatOutput, error) {
	if s.ports.Format == nil {
		s.observe(toolFormat, nil)
		return nil, FormatOutput{
			Status: domain.FormatFailed.String(),
			Text:   input.Text,
			Error:  domain.ErrFormatterUnavailable.Error(),
		}, nil
	}

	var entry domain.FormatCacheEntry
	if input.Refresh {
		entry = s.ports.Format.Refresh(ctx, input.Text)
	} else {
		entry = s.ports.Format.Request(ctx, input.Text)
	}
	s.observe(toolFormat, nil)

	return nil, FormatOutput{
		Fingerprint: entry.Fingerprint.String(),
		Status:      entry.Status.String(),
		Text:        entry.TextOr(input.Text),
		Error:       entry.ErrorMessage,
	}, nil
}

// handleListHistory handles the list_history tool invocation.
func (s *Server) handleListHistory(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListHistoryInput,
) (*mcp.CallToolResult, ListHistoryOutput, error) {
	if s.ports.Transcript == nil {
		s.observe(toolListHistory, ErrHistoryUnavailable)
		return nil, ListHistoryOutput{}, ErrHistoryUnavailable
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	entries, err := s.ports.Transcript.List(ctx, limit)
	if err != nil {
		s.observe(toolListHistory, err)
		return nil, ListHistoryOutput{}, err
	}

	output := ListHistoryOutput{
		Entries: make([]HistoryEntryOutput, len(entries)),
		Count:   len(entries),
	}
	for i := range entries {
		output.Entries[i] = HistoryEntryOutput{
			ID:          entries[i].ID,
			Timestamp:   entries[i].Timestamp.UTC().Format(time.RFC3339),
			Project:     entries[i].Project,
			Title:       entries[i].Title(titleWidth),
			Attachments: len(entries[i].PastedContents),
			Kind:        s.ports.Content.Classify(s.ports.Transcript.Reconstruct(&entries[i])).Kind.String(),
		}
	}

	s.observe(toolListHistory, nil)
	return nil, output, nil
}

// decodeAttachments converts loosely typed tool arguments into an attachment map.
func decodeAttachments(raw map[string]any) (domain.AttachmentMap, error) {
	if len(raw) == 0 {
		return domain.AttachmentMap{}, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: attachments: %v", domain.ErrInvalidInput, err)
	}
	var attachments domain.AttachmentMap
	if err := json.Unmarshal(data, &attachments); err != nil {
		return nil, fmt.Errorf("%w: attachments: %v", domain.ErrInvalidInput, err)
	}
	return attachments, nil
}
