package driven

import (
	"context"

	"github.com/custodia-labs/promptlens/internal/core/domain"
)

// TranscriptSource reads the captured prompt history.
type TranscriptSource interface {
	// List returns all readable entries, oldest first.
	List(ctx context.Context) ([]domain.TranscriptEntry, error)

	// Watch emits entries appended after the call until ctx is done.
	// The channel is closed when watching stops.
	Watch(ctx context.Context) (<-chan domain.TranscriptEntry, error)

	// Available reports whether the history feed exists.
	Available() bool

	// Location returns where the feed is read from.
	Location() string
}
