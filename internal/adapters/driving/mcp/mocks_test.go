package mcp

import (
	"context"
	"sync"

	"github.com/custodia-labs/promptlens/internal/core/domain"
	"github.com/custodia-labs/promptlens/internal/core/ports/driving"
	"github.com/custodia-labs/promptlens/internal/core/services"
)

// testPorts returns ports backed by the real classifier and resolver.
func testPorts() *Ports {
	return &Ports{
		Content: services.NewContentService(),
		Prompt:  services.NewPromptService(),
	}
}

// mockFormatService is a mock implementation of driving.FormatService.
type mockFormatService struct {
	entry     domain.FormatCacheEntry
	requested []string
	refreshed []string
}

var _ driving.FormatService = (*mockFormatService)(nil)

func (m *mockFormatService) Fingerprint(text string) domain.Fingerprint {
	return services.Fingerprint(text)
}

func (m *mockFormatService) Request(_ context.Context, text string) domain.FormatCacheEntry {
	m.requested = append(m.requested, text)
	return m.entry
}

func (m *mockFormatService) Refresh(_ context.Context, text string) domain.FormatCacheEntry {
	m.refreshed = append(m.refreshed, text)
	return m.entry
}

func (m *mockFormatService) Lookup(domain.Fingerprint) (domain.FormatCacheEntry, bool) {
	return m.entry, !m.entry.IsZero()
}

func (m *mockFormatService) Focus(text string) domain.Fingerprint {
	return services.Fingerprint(text)
}

func (m *mockFormatService) Surface(domain.FormatCacheEntry) bool { return true }
func (m *mockFormatService) Forget(domain.Fingerprint)            {}
func (m *mockFormatService) Clear()                               {}
func (m *mockFormatService) Len() int                             { return 0 }

// mockTranscriptService is a mock implementation of driving.TranscriptService.
type mockTranscriptService struct {
	entries []domain.TranscriptEntry
	entry   *domain.TranscriptEntry
	err     error
	limit   int
}

var _ driving.TranscriptService = (*mockTranscriptService)(nil)

func (m *mockTranscriptService) List(_ context.Context, limit int) ([]domain.TranscriptEntry, error) {
	m.limit = limit
	return m.entries, m.err
}

func (m *mockTranscriptService) Get(_ context.Context, _ string) (*domain.TranscriptEntry, error) {
	return m.entry, m.err
}

func (m *mockTranscriptService) Reconstruct(entry *domain.TranscriptEntry) string {
	return services.NewPromptService().Resolve(entry.Display, entry.PastedContents)
}

func (m *mockTranscriptService) Directive(entry *domain.TranscriptEntry, maxLines int) domain.RenderDirective {
	return services.NewContentService().Directive(m.Reconstruct(entry), maxLines)
}

func (m *mockTranscriptService) Watch(context.Context) (<-chan domain.TranscriptEntry, error) {
	ch := make(chan domain.TranscriptEntry)
	close(ch)
	return ch, m.err
}

func (m *mockTranscriptService) Available() bool  { return m.err == nil }
func (m *mockTranscriptService) Location() string { return "mock" }

// mockObserver records tool calls.
type mockObserver struct {
	mu    sync.Mutex
	calls []string
	errs  []error
}

func (o *mockObserver) ToolCalled(tool string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, tool)
	o.errs = append(o.errs, err)
}
