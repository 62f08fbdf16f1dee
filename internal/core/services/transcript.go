package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/promptlens/internal/core/domain"
	"github.com/custodia-labs/promptlens/internal/core/ports/driven"
	"github.com/custodia-labs/promptlens/internal/core/ports/driving"
	"github.com/custodia-labs/promptlens/internal/logger"
)

// Ensure TranscriptService implements the interface.
var _ driving.TranscriptService = (*TranscriptService)(nil)

// minIDPrefix is the shortest ID prefix Get accepts.
const minIDPrefix = 4

// TranscriptService browses captured prompt history.
type TranscriptService struct {
	source  driven.TranscriptSource
	prompts driving.PromptService
	content driving.ContentService
}

// NewTranscriptService creates a new transcript service.
func NewTranscriptService(
	source driven.TranscriptSource,
	prompts driving.PromptService,
	content driving.ContentService,
) *TranscriptService {
	return &TranscriptService{
		source:  source,
		prompts: prompts,
		content: content,
	}
}

// List returns up to limit entries, newest first. A limit of 0 returns all.
func (s *TranscriptService) List(ctx context.Context, limit int) ([]domain.TranscriptEntry, error) {
	if s.source == nil {
		return nil, domain.ErrTranscriptUnavailable
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: negative limit", domain.ErrInvalidInput)
	}

	entries, err := s.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	logger.Debug("listed %d history entries from %s", len(entries), s.source.Location())
	return entries, nil
}

// Get returns the entry with the given ID or unique ID prefix.
func (s *TranscriptService) Get(ctx context.Context, id string) (*domain.TranscriptEntry, error) {
	if s.source == nil {
		return nil, domain.ErrTranscriptUnavailable
	}
	id = strings.TrimSpace(id)
	if len(id) < minIDPrefix {
		return nil, fmt.Errorf("%w: id must be at least %d characters", domain.ErrInvalidInput, minIDPrefix)
	}

	entries, err := s.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	var match *domain.TranscriptEntry
	for i := range entries {
		if entries[i].ID == id {
			return &entries[i], nil
		}
		if strings.HasPrefix(entries[i].ID, id) {
			if match != nil {
				return nil, fmt.Errorf("%w: id prefix %q is ambiguous", domain.ErrInvalidInput, id)
			}
			match = &entries[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("history entry %s: %w", id, domain.ErrNotFound)
	}
	return match, nil
}

// Reconstruct returns the prompt with its attachments spliced back in.
func (s *TranscriptService) Reconstruct(entry *domain.TranscriptEntry) string {
	if entry == nil {
		return ""
	}
	return s.prompts.Resolve(entry.Display, entry.PastedContents)
}

// Directive returns the render directive for the reconstructed prompt.
func (s *TranscriptService) Directive(entry *domain.TranscriptEntry, maxLines int) domain.RenderDirective {
	return s.content.Directive(s.Reconstruct(entry), maxLines)
}

// Watch emits entries as they are captured until ctx is done.
func (s *TranscriptService) Watch(ctx context.Context) (<-chan domain.TranscriptEntry, error) {
	if s.source == nil {
		return nil, domain.ErrTranscriptUnavailable
	}
	ch, err := s.source.Watch(ctx)
	if err != nil {
		return nil, fmt.Errorf("watch history: %w", err)
	}
	return ch, nil
}

// Available reports whether the history feed exists.
func (s *TranscriptService) Available() bool {
	return s.source != nil && s.source.Available()
}

// Location returns where history is read from.
func (s *TranscriptService) Location() string {
	if s.source == nil {
		return ""
	}
	return s.source.Location()
}
