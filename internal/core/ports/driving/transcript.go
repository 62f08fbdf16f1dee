package driving

import (
	"context"

	"github.com/custodia-labs/promptlens/internal/core/domain"
)

// TranscriptService browses the captured prompt history.
type TranscriptService interface {
	// List returns up to limit entries, newest first. A limit of 0 returns all.
	List(ctx context.Context, limit int) ([]domain.TranscriptEntry, error)

	// Get returns the entry with the given ID, or an ID prefix of at least 4 characters.
	Get(ctx context.Context, id string) (*domain.TranscriptEntry, error)

	// Reconstruct returns the prompt with its attachments spliced back in.
	Reconstruct(entry *domain.TranscriptEntry) string

	// Directive returns the render directive for the reconstructed prompt.
	Directive(entry *domain.TranscriptEntry, maxLines int) domain.RenderDirective

	// Watch emits entries as they are captured until ctx is done.
	Watch(ctx context.Context) (<-chan domain.TranscriptEntry, error)

	// Available reports whether the history feed exists.
	Available() bool

	// Location returns where history is read from.
	Location() string
}
