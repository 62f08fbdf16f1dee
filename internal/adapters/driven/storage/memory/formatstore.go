package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/promptlens/internal/core/domain"
	"github.com/custodia-labs/promptlens/internal/core/ports/driven"
)

// Ensure FormatStore implements the interface.
var _ driven.FormatResultStore = (*FormatStore)(nil)

// FormatStore is an in-memory implementation of driven.FormatResultStore.
type FormatStore struct {
	mu      sync.RWMutex
	results map[domain.Fingerprint]string
}

// NewFormatStore creates an empty in-memory format store.
func NewFormatStore() *FormatStore {
	return &FormatStore{
		results: make(map[domain.Fingerprint]string),
	}
}

// GetFormat returns the stored formatted text, or domain.ErrNotFound.
func (s *FormatStore) GetFormat(_ context.Context, fp domain.Fingerprint) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.results[fp]
	if !ok {
		return "", domain.ErrNotFound
	}
	return text, nil
}

// SaveFormat stores the formatted text for a fingerprint.
func (s *FormatStore) SaveFormat(_ context.Context, fp domain.Fingerprint, formatted, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[fp] = formatted
	return nil
}

// DeleteFormat removes the stored result, if any.
func (s *FormatStore) DeleteFormat(_ context.Context, fp domain.Fingerprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.results, fp)
	return nil
}
