package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/custodia-labs/promptlens/internal/core/domain"
)

// mockFormatter is a test double for driven.Formatter.
type mockFormatter struct {
	calls   atomic.Int32
	release chan struct{}
	resp    *domain.FormatResponse
	err     error
	panics  bool
	seen    []domain.Fingerprint
	mu      sync.Mutex
}

func (m *mockFormatter) Format(ctx context.Context, text string, fp domain.Fingerprint) (*domain.FormatResponse, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.seen = append(m.seen, fp)
	m.mu.Unlock()

	if m.release != nil {
		select {
		case <-m.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.panics {
		panic("boom")
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.resp != nil {
		return m.resp, nil
	}
	return &domain.FormatResponse{Success: true, Formatted: "# " + text}, nil
}

// mockObserver records format cache events.
type mockObserver struct {
	mu        sync.Mutex
	hits      int
	misses    int
	completed []domain.FormatStatus
}

func (o *mockObserver) FormatRequested(hit bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if hit {
		o.hits++
	} else {
		o.misses++
	}
}

func (o *mockObserver) FormatCompleted(status domain.FormatStatus, _ float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completed = append(o.completed, status)
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, domain.Fingerprint("5d41402abc4b2a76b9719d911017c592"), Fingerprint("hello"))
	assert.Equal(t, Fingerprint("same text"), Fingerprint("same text"))
	assert.NotEqual(t, Fingerprint("a"), Fingerprint("b"))
}

func TestFormatCache_Request_Success(t *testing.T) {
	defer goleak.VerifyNone(t)

	formatter := &mockFormatter{}
	cache := NewFormatCache(formatter, nil)

	entry := cache.Request(context.Background(), "hello")

	assert.Equal(t, domain.FormatSucceeded, entry.Status)
	assert.Equal(t, "# hello", entry.FormattedText)
	assert.Empty(t, entry.ErrorMessage)
	assert.Equal(t, Fingerprint("hello"), entry.Fingerprint)
	assert.False(t, entry.CompletedAt.Before(entry.RequestedAt))
	assert.Equal(t, []domain.Fingerprint{Fingerprint("hello")}, formatter.seen)
}

func TestFormatCache_Request_Dedup(t *testing.T) {
	defer goleak.VerifyNone(t)

	formatter := &mockFormatter{}
	observer := &mockObserver{}
	cache := NewFormatCache(formatter, observer)

	first := cache.Request(context.Background(), "same")
	second := cache.Request(context.Background(), "same")

	assert.Equal(t, int32(1), formatter.calls.Load())
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second request differs (-first +second):\n%s", diff)
	}
	assert.Equal(t, 1, observer.hits)
	assert.Equal(t, 1, observer.misses)
	assert.Equal(t, []domain.FormatStatus{domain.FormatSucceeded}, observer.completed)
}

func TestFormatCache_Request_ConcurrentJoinPending(t *testing.T) {
	defer goleak.VerifyNone(t)

	formatter := &mockFormatter{release: make(chan struct{})}
	cache := NewFormatCache(formatter, nil)

	const callers = 8
	results := make([]domain.FormatCacheEntry, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = cache.Request(context.Background(), "shared")
		}()
	}

	require.Eventually(t, func() bool {
		entry, ok := cache.Lookup(Fingerprint("shared"))
		return ok && entry.Status == domain.FormatPending
	}, time.Second, 5*time.Millisecond)

	close(formatter.release)
	wg.Wait()

	assert.Equal(t, int32(1), formatter.calls.Load())
	for _, r := range results {
		assert.Equal(t, domain.FormatSucceeded, r.Status)
		assert.Equal(t, "# shared", r.FormattedText)
	}
}

func TestFormatCache_Request_DistinctFingerprintsAreIndependent(t *testing.T) {
	defer goleak.VerifyNone(t)

	formatter := &mockFormatter{}
	cache := NewFormatCache(formatter, nil)

	a := cache.Request(context.Background(), "a")
	b := cache.Request(context.Background(), "b")

	assert.Equal(t, int32(2), formatter.calls.Load())
	assert.NotEqual(t, a.Fingerprint, b.Fingerprint)
	assert.Equal(t, 2, cache.Len())
}

func TestFormatCache_Request_FailSoft(t *testing.T) {
	tests := []struct {
		name      string
		formatter *mockFormatter
		wantMsg   string
	}{
		{
			name:      "error",
			formatter: &mockFormatter{err: errors.New("connection refused")},
			wantMsg:   "connection refused",
		},
		{
			name:      "success false",
			formatter: &mockFormatter{resp: &domain.FormatResponse{Success: false, Error: "quota exceeded"}},
			wantMsg:   "quota exceeded",
		},
		{
			name:      "success false without message",
			formatter: &mockFormatter{resp: &domain.FormatResponse{Success: false}},
			wantMsg:   domain.ErrFormatFailed.Error(),
		},
		{
			name:      "empty payload",
			formatter: &mockFormatter{resp: &domain.FormatResponse{Success: true, Formatted: "  \n"}},
			wantMsg:   domain.ErrEmptyFormat.Error(),
		},
		{
			name:      "panic",
			formatter: &mockFormatter{panics: true},
			wantMsg:   "formatter panic: boom",
		},
		{
			name:      "llm unavailable",
			formatter: &mockFormatter{err: domain.ErrLLMUnavailable},
			wantMsg:   "AI formatting is not configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := NewFormatCache(tt.formatter, nil)

			entry := cache.Request(context.Background(), "original")

			assert.Equal(t, domain.FormatFailed, entry.Status)
			assert.Equal(t, tt.wantMsg, entry.ErrorMessage)
			assert.Empty(t, entry.FormattedText)
			assert.Equal(t, "original", entry.TextOr("original"))
		})
	}
}

func TestFormatCache_Request_FailedIsTerminal(t *testing.T) {
	formatter := &mockFormatter{err: errors.New("down")}
	cache := NewFormatCache(formatter, nil)

	cache.Request(context.Background(), "x")
	again := cache.Request(context.Background(), "x")

	assert.Equal(t, int32(1), formatter.calls.Load())
	assert.Equal(t, domain.FormatFailed, again.Status)
}

func TestFormatCache_Request_NilFormatter(t *testing.T) {
	cache := NewFormatCache(nil, nil)

	entry := cache.Request(context.Background(), "x")

	assert.Equal(t, domain.FormatFailed, entry.Status)
	assert.Equal(t, "AI formatting is not configured", entry.ErrorMessage)
}

func TestFormatCache_Request_Timeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	formatter := &mockFormatter{release: make(chan struct{})}
	cache := NewFormatCache(formatter, nil)
	cache.SetTimeout(20 * time.Millisecond)

	entry := cache.Request(context.Background(), "slow")

	assert.Equal(t, domain.FormatFailed, entry.Status)
	assert.Equal(t, "format request timed out", entry.ErrorMessage)
}

func TestFormatCache_Request_CallerCancelDoesNotAbortCall(t *testing.T) {
	defer goleak.VerifyNone(t)

	formatter := &mockFormatter{release: make(chan struct{})}
	cache := NewFormatCache(formatter, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pending := cache.Request(ctx, "bg")
	assert.Equal(t, domain.FormatPending, pending.Status)

	close(formatter.release)
	require.Eventually(t, func() bool {
		entry, ok := cache.Lookup(Fingerprint("bg"))
		return ok && entry.Status == domain.FormatSucceeded
	}, time.Second, 5*time.Millisecond)

	settled := cache.Request(context.Background(), "bg")
	assert.Equal(t, "# bg", settled.FormattedText)
	assert.Equal(t, int32(1), formatter.calls.Load())
}

func TestFormatCache_Relevance(t *testing.T) {
	cache := NewFormatCache(&mockFormatter{}, nil)

	assert.False(t, cache.Surface(domain.FormatCacheEntry{Fingerprint: Fingerprint("a")}), "nothing focused")

	cache.Focus("a")
	stale := cache.Request(context.Background(), "a")
	cache.Focus("b")
	current := cache.Request(context.Background(), "b")

	assert.False(t, cache.Surface(stale))
	assert.True(t, cache.Surface(current))

	_, kept := cache.Lookup(stale.Fingerprint)
	assert.True(t, kept, "stale results stay cached")
}

func TestFormatCache_Forget(t *testing.T) {
	formatter := &mockFormatter{err: errors.New("down")}
	cache := NewFormatCache(formatter, nil)

	failed := cache.Request(context.Background(), "retry me")
	require.Equal(t, domain.FormatFailed, failed.Status)

	formatter.err = nil
	cache.Forget(failed.Fingerprint)
	retried := cache.Request(context.Background(), "retry me")

	assert.Equal(t, domain.FormatSucceeded, retried.Status)
	assert.Equal(t, int32(2), formatter.calls.Load())
}

func TestFormatCache_ForgetIgnoresPending(t *testing.T) {
	defer goleak.VerifyNone(t)

	formatter := &mockFormatter{release: make(chan struct{})}
	cache := NewFormatCache(formatter, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pending := cache.Request(ctx, "p")

	cache.Forget(pending.Fingerprint)
	_, ok := cache.Lookup(pending.Fingerprint)
	assert.True(t, ok)

	close(formatter.release)
	final := cache.Request(context.Background(), "p")
	assert.Equal(t, domain.FormatSucceeded, final.Status)
	assert.Equal(t, int32(1), formatter.calls.Load())
}

func TestFormatCache_Clear(t *testing.T) {
	formatter := &mockFormatter{}
	cache := NewFormatCache(formatter, nil)

	cache.Focus("a")
	cache.Request(context.Background(), "a")
	require.Equal(t, 1, cache.Len())

	cache.Clear()

	assert.Zero(t, cache.Len())
	assert.False(t, cache.Surface(domain.FormatCacheEntry{Fingerprint: Fingerprint("a")}))

	again := cache.Request(context.Background(), "a")
	assert.Equal(t, domain.FormatSucceeded, again.Status)
	assert.Equal(t, int32(2), formatter.calls.Load())
}

func TestFormatCache_Lookup(t *testing.T) {
	cache := NewFormatCache(&mockFormatter{}, nil)

	_, ok := cache.Lookup(Fingerprint("never"))
	assert.False(t, ok)

	cache.Request(context.Background(), "seen")
	entry, ok := cache.Lookup(cache.Fingerprint("seen"))
	require.True(t, ok)

	want := domain.FormatCacheEntry{
		Fingerprint:   Fingerprint("seen"),
		Status:        domain.FormatSucceeded,
		FormattedText: "# seen",
	}
	if diff := cmp.Diff(want, entry, cmpopts.IgnoreFields(domain.FormatCacheEntry{}, "RequestedAt", "CompletedAt")); diff != "" {
		t.Errorf("Lookup mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatCache_Request_UnavailableWithReason(t *testing.T) {
	err := fmt.Errorf("%w: service unreachable", domain.ErrFormatterUnavailable)
	cache := NewFormatCache(&mockFormatter{err: err}, nil)

	entry := cache.Request(context.Background(), "x")

	assert.Equal(t, domain.FormatFailed, entry.Status)
	assert.Equal(t, err.Error(), entry.ErrorMessage)
}

// forgettingFormatter also keeps results of its own.
type forgettingFormatter struct {
	mockFormatter
	forgotten []domain.Fingerprint
	forgetErr error
}

func (f *forgettingFormatter) Forget(_ context.Context, fp domain.Fingerprint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forgotten = append(f.forgotten, fp)
	return f.forgetErr
}

func TestFormatCache_Refresh(t *testing.T) {
	defer goleak.VerifyNone(t)

	formatter := &forgettingFormatter{}
	cache := NewFormatCache(formatter, nil)

	first := cache.Request(context.Background(), "doc")
	require.Equal(t, domain.FormatSucceeded, first.Status)

	again := cache.Refresh(context.Background(), "doc")

	assert.Equal(t, domain.FormatSucceeded, again.Status)
	assert.Equal(t, int32(2), formatter.calls.Load())
	assert.Equal(t, []domain.Fingerprint{Fingerprint("doc")}, formatter.forgotten)
}

func TestFormatCache_Refresh_RetriesFailure(t *testing.T) {
	formatter := &forgettingFormatter{}
	formatter.err = errors.New("down")
	cache := NewFormatCache(formatter, nil)

	failed := cache.Request(context.Background(), "doc")
	require.Equal(t, domain.FormatFailed, failed.Status)

	formatter.err = nil
	retried := cache.Refresh(context.Background(), "doc")

	assert.Equal(t, domain.FormatSucceeded, retried.Status)
	assert.Equal(t, "# doc", retried.FormattedText)
}

func TestFormatCache_Refresh_ForgetErrorStillRequests(t *testing.T) {
	formatter := &forgettingFormatter{forgetErr: errors.New("disk full")}
	cache := NewFormatCache(formatter, nil)

	entry := cache.Refresh(context.Background(), "new")

	assert.Equal(t, domain.FormatSucceeded, entry.Status)
	assert.Equal(t, int32(1), formatter.calls.Load())
}

func TestFormatCache_Refresh_JoinsPending(t *testing.T) {
	defer goleak.VerifyNone(t)

	formatter := &forgettingFormatter{}
	formatter.release = make(chan struct{})
	cache := NewFormatCache(formatter, nil)

	done := make(chan domain.FormatCacheEntry)
	go func() { done <- cache.Request(context.Background(), "slow") }()

	require.Eventually(t, func() bool { return formatter.calls.Load() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	joined := cache.Refresh(ctx, "slow")
	assert.Equal(t, domain.FormatPending, joined.Status)

	close(formatter.release)
	assert.Equal(t, domain.FormatSucceeded, (<-done).Status)
	assert.Equal(t, int32(1), formatter.calls.Load())
	formatter.mu.Lock()
	assert.Empty(t, formatter.forgotten)
	formatter.mu.Unlock()
}

func TestFormatCache_DroppedEntryDoesNotJoinSettledCall(t *testing.T) {
	tests := []struct {
		name  string
		again func(c *FormatCache, ctx context.Context, text string) domain.FormatCacheEntry
	}{
		{
			name: "refresh",
			again: func(c *FormatCache, ctx context.Context, text string) domain.FormatCacheEntry {
				return c.Refresh(ctx, text)
			},
		},
		{
			name: "forget then request",
			again: func(c *FormatCache, ctx context.Context, text string) domain.FormatCacheEntry {
				c.Forget(Fingerprint(text))
				return c.Request(ctx, text)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			formatter := &forgettingFormatter{}
			cache := NewFormatCache(formatter, nil)

			first := cache.Request(context.Background(), "doc")
			require.Equal(t, "# doc", first.FormattedText)

			// Keep a settled call registered under the current key, as happens
			// between call recording its entry and the flight being removed.
			cache.mu.RLock()
			staleKey := cache.flightKeyLocked(Fingerprint("doc"))
			cache.mu.RUnlock()
			release := make(chan struct{})
			stale := cache.group.DoChan(staleKey, func() (any, error) {
				<-release
				return first, nil
			})
			defer func() {
				close(release)
				<-stale
			}()

			formatter.resp = &domain.FormatResponse{Success: true, Formatted: "# fresh"}
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			entry := tt.again(cache, ctx, "doc")

			assert.Equal(t, domain.FormatSucceeded, entry.Status)
			assert.Equal(t, "# fresh", entry.FormattedText)
			assert.Equal(t, int32(2), formatter.calls.Load())
			got, ok := cache.Lookup(Fingerprint("doc"))
			require.True(t, ok)
			assert.Equal(t, "# fresh", got.FormattedText)
		})
	}
}
