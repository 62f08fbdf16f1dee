package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/promptlens/internal/core/domain"
	"github.com/custodia-labs/promptlens/internal/core/ports/driven"
)

// Ensure TranscriptSource implements the interface.
var _ driven.TranscriptSource = (*TranscriptSource)(nil)

// TranscriptSource is an in-memory history feed.
// Append delivers entries to active watchers.
type TranscriptSource struct {
	mu       sync.RWMutex
	entries  []domain.TranscriptEntry
	watchers map[chan domain.TranscriptEntry]struct{}
}

// NewTranscriptSource creates a feed holding entries.
func NewTranscriptSource(entries ...domain.TranscriptEntry) *TranscriptSource {
	return &TranscriptSource{
		entries:  append([]domain.TranscriptEntry(nil), entries...),
		watchers: make(map[chan domain.TranscriptEntry]struct{}),
	}
}

// List returns a copy of all entries, oldest first.
func (s *TranscriptSource) List(_ context.Context) ([]domain.TranscriptEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.TranscriptEntry(nil), s.entries...), nil
}

// Append adds an entry and delivers it to watchers. Slow watchers miss it.
func (s *TranscriptSource) Append(entry domain.TranscriptEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	for ch := range s.watchers {
		select {
		case ch <- entry:
		default:
		}
	}
}

// Watch emits appended entries until ctx is done.
func (s *TranscriptSource) Watch(ctx context.Context) (<-chan domain.TranscriptEntry, error) {
	ch := make(chan domain.TranscriptEntry, 16)

	s.mu.Lock()
	s.watchers[ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.watchers, ch)
		close(ch)
		s.mu.Unlock()
	}()

	return ch, nil
}

// Available always reports true.
func (s *TranscriptSource) Available() bool {
	return true
}

// Location returns ":memory:".
func (s *TranscriptSource) Location() string {
	return ":memory:"
}
