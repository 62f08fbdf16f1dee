package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/promptlens/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for promptlens resources.
	uriScheme = "promptlens://"

	// historyResourceLimit caps the history listing resource.
	historyResourceLimit = 50
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Transcript == nil {
		return
	}

	// Static resource for the history listing.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "history",
		Name:        "history",
		Description: "Recently captured prompts, newest first",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)

	// Template for one reconstructed prompt.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "history/{entryId}",
		Name:        "history-prompt",
		Description: "A captured prompt with its pasted contents spliced back in",
		MIMEType:    "text/plain",
	}, s.handlePromptResource)
}

// handleHistoryResource returns the most recent history entries.
func (s *Server) handleHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Transcript == nil {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     "[]",
			}},
		}, nil
	}

	entries, err := s.ports.Transcript.List(ctx, historyResourceLimit)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}

	// Build simplified entry list.
	type entryInfo struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		Timestamp string `json:"timestamp"`
		Project   string `json:"project"`
	}

	infos := make([]entryInfo, len(entries))
	for i := range entries {
		infos[i] = entryInfo{
			ID:        entries[i].ID,
			Title:     entries[i].Title(titleWidth),
			Timestamp: entries[i].Timestamp.UTC().Format(time.RFC3339),
			Project:   entries[i].Project,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling history: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handlePromptResource returns one entry's reconstructed prompt.
func (s *Server) handlePromptResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Transcript == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract entryId from URI: promptlens://history/{entryId}
	entryID := extractEntryID(req.Params.URI)
	if entryID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	entry, err := s.ports.Transcript.Get(ctx, entryID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting history entry: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     s.ports.Transcript.Reconstruct(entry),
		}},
	}, nil
}

// extractEntryID extracts the entry ID from a URI like promptlens://history/{entryId}.
func extractEntryID(uri string) string {
	const prefix = uriScheme + "history/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
