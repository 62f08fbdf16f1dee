package services

import (
	"context"
	"crypto/md5" //nolint:gosec // G501: fingerprint for memoisation, not security.
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/promptlens/internal/core/domain"
	"github.com/custodia-labs/promptlens/internal/core/ports/driven"
	"github.com/custodia-labs/promptlens/internal/core/ports/driving"
	"github.com/custodia-labs/promptlens/internal/logger"
)

// Ensure FormatCache implements the interface.
var _ driving.FormatService = (*FormatCache)(nil)

// DefaultFormatTimeout bounds a single external format call.
const DefaultFormatTimeout = 90 * time.Second

// Fingerprint returns the lowercase hex MD5 digest of text.
func Fingerprint(text string) domain.Fingerprint {
	sum := md5.Sum([]byte(text)) //nolint:gosec // G401: see import.
	return domain.Fingerprint(hex.EncodeToString(sum[:]))
}

// FormatCache memoises reformat requests per fingerprint.
//
// The first Request for a fingerprint records a pending entry and calls the
// formatter once. Concurrent requests join that call, later requests get the
// terminal entry. Failures are recorded, never returned, and stay terminal
// until Forget or Clear.
type FormatCache struct {
	formatter driven.Formatter
	observer  driven.FormatObserver
	timeout   time.Duration
	now       func() time.Time

	group singleflight.Group

	mu         sync.RWMutex
	entries    map[domain.Fingerprint]domain.FormatCacheEntry
	focused    domain.Fingerprint
	generation uint64
	// epochs counts drops per fingerprint so a request made after Forget or
	// Refresh never joins a call that settled before the drop.
	epochs map[domain.Fingerprint]uint64
}

// NewFormatCache creates an empty cache. A nil formatter makes every request
// fail soft. The observer may be nil.
func NewFormatCache(formatter driven.Formatter, observer driven.FormatObserver) *FormatCache {
	return &FormatCache{
		formatter: formatter,
		observer:  observer,
		timeout:   DefaultFormatTimeout,
		now:       time.Now,
		entries:   make(map[domain.Fingerprint]domain.FormatCacheEntry),
		epochs:    make(map[domain.Fingerprint]uint64),
	}
}

// SetTimeout overrides the per-call timeout. Non-positive values are ignored.
func (c *FormatCache) SetTimeout(d time.Duration) {
	if d > 0 {
		c.timeout = d
	}
}

// Fingerprint returns the cache key for text.
func (c *FormatCache) Fingerprint(text string) domain.Fingerprint {
	return Fingerprint(text)
}

// Request returns the entry for text, calling the formatter if no request has
// been made for its fingerprint. It waits for the terminal entry unless ctx
// ends first, in which case the pending entry is returned and the call
// carries on in the background.
func (c *FormatCache) Request(ctx context.Context, text string) domain.FormatCacheEntry {
	fp := Fingerprint(text)

	c.mu.Lock()
	entry, seen := c.entries[fp]
	if seen && entry.Status.IsTerminal() {
		c.mu.Unlock()
		c.observeRequest(true)
		logger.Debug("format cache hit %s (%s)", fp.Short(), entry.Status)
		return entry
	}
	if !seen {
		entry = domain.FormatCacheEntry{
			Fingerprint: fp,
			Status:      domain.FormatPending,
			RequestedAt: c.now(),
		}
		c.entries[fp] = entry
	}
	gen := c.generation
	key := c.flightKeyLocked(fp)
	c.mu.Unlock()

	c.observeRequest(seen)
	if seen {
		logger.Debug("format request %s joins pending call", fp.Short())
	}

	ch := c.group.DoChan(key, func() (any, error) {
		return c.call(ctx, text, fp, gen), nil
	})

	select {
	case res := <-ch:
		if settled, ok := res.Val.(domain.FormatCacheEntry); ok {
			return settled
		}
		return entry
	case <-ctx.Done():
		logger.Debug("format request %s abandoned by caller: %v", fp.Short(), ctx.Err())
		return entry
	}
}

// flightKeyLocked names the external call for fp. The caller holds mu.
func (c *FormatCache) flightKeyLocked(fp domain.Fingerprint) string {
	return strconv.FormatUint(c.generation, 10) + ":" +
		strconv.FormatUint(c.epochs[fp], 10) + ":" + string(fp)
}

// dropLocked removes the entry for fp and moves it to a new epoch. The caller
// holds mu.
func (c *FormatCache) dropLocked(fp domain.Fingerprint) {
	delete(c.entries, fp)
	c.epochs[fp]++
}

// call performs the external call for fp once and records the outcome.
func (c *FormatCache) call(ctx context.Context, text string, fp domain.Fingerprint, gen uint64) domain.FormatCacheEntry {
	c.mu.RLock()
	pending, ok := c.entries[fp]
	c.mu.RUnlock()
	if ok && pending.Status.IsTerminal() {
		return pending
	}
	if !ok {
		pending = domain.FormatCacheEntry{Fingerprint: fp, Status: domain.FormatPending, RequestedAt: c.now()}
	}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	logger.Debug("format call %s (%d bytes)", fp.Short(), len(text))
	start := time.Now()
	resp, err := c.invoke(callCtx, text, fp)
	settled := settle(pending, resp, err, c.now())

	if c.observer != nil {
		c.observer.FormatCompleted(settled.Status, time.Since(start).Seconds())
	}
	if settled.Status == domain.FormatFailed {
		logger.Warn("format %s failed, showing original: %s", fp.Short(), settled.ErrorMessage)
	} else {
		logger.Debug("format %s succeeded in %s", fp.Short(), time.Since(start).Round(time.Millisecond))
	}

	c.mu.Lock()
	if c.generation == gen {
		if cur, exists := c.entries[fp]; exists && cur.Status == domain.FormatPending {
			c.entries[fp] = settled
		}
	}
	c.mu.Unlock()

	return settled
}

// invoke calls the formatter, turning a panic into an error.
func (c *FormatCache) invoke(ctx context.Context, text string, fp domain.Fingerprint) (resp *domain.FormatResponse, err error) {
	if c.formatter == nil {
		return nil, domain.ErrFormatterUnavailable
	}
	defer func() {
		if r := recover(); r != nil {
			resp, err = nil, fmt.Errorf("formatter panic: %v", r)
		}
	}()
	return c.formatter.Format(ctx, text, fp)
}

// settle maps a formatter outcome onto a terminal entry.
func settle(pending domain.FormatCacheEntry, resp *domain.FormatResponse, err error, at time.Time) domain.FormatCacheEntry {
	entry := pending
	entry.CompletedAt = at

	switch {
	case err != nil:
		entry.Status = domain.FormatFailed
		entry.ErrorMessage = failureMessage(err)
	case resp == nil:
		entry.Status = domain.FormatFailed
		entry.ErrorMessage = domain.ErrEmptyFormat.Error()
	case !resp.Success:
		entry.Status = domain.FormatFailed
		entry.ErrorMessage = resp.Error
		if entry.ErrorMessage == "" {
			entry.ErrorMessage = domain.ErrFormatFailed.Error()
		}
	case strings.TrimSpace(resp.Formatted) == "":
		entry.Status = domain.FormatFailed
		entry.ErrorMessage = domain.ErrEmptyFormat.Error()
	default:
		entry.Status = domain.FormatSucceeded
		entry.FormattedText = resp.Formatted
	}
	return entry
}

func failureMessage(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "format request timed out"
	case err == domain.ErrFormatterUnavailable, err == domain.ErrLLMUnavailable: //nolint:errorlint // bare sentinels only
		return "AI formatting is not configured"
	default:
		return err.Error()
	}
}

func (c *FormatCache) observeRequest(hit bool) {
	if c.observer != nil {
		c.observer.FormatRequested(hit)
	}
}

// Lookup returns the entry for a fingerprint without starting a request.
func (c *FormatCache) Lookup(fp domain.Fingerprint) (domain.FormatCacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[fp]
	return entry, ok
}

// Focus marks text as the content currently on display.
func (c *FormatCache) Focus(text string) domain.Fingerprint {
	fp := Fingerprint(text)
	c.mu.Lock()
	c.focused = fp
	c.mu.Unlock()
	return fp
}

// Surface reports whether entry belongs to the content currently on display.
// Results for anything else stay cached but must not be shown.
func (c *FormatCache) Surface(entry domain.FormatCacheEntry) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.focused != "" && entry.Fingerprint == c.focused
}

// Forget drops a terminal entry so the next Request calls out again.
// Pending entries are left alone.
func (c *FormatCache) Forget(fp domain.Fingerprint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[fp]; ok && entry.Status.IsTerminal() {
		c.dropLocked(fp)
		logger.Debug("format cache forgot %s", fp.Short())
	}
}

// Refresh drops the entry for text and any result the formatter keeps, then
// requests it again. A pending request is joined rather than restarted.
func (c *FormatCache) Refresh(ctx context.Context, text string) domain.FormatCacheEntry {
	fp := Fingerprint(text)

	c.mu.Lock()
	entry, ok := c.entries[fp]
	pending := ok && !entry.Status.IsTerminal()
	if ok && !pending {
		c.dropLocked(fp)
	}
	c.mu.Unlock()

	if !pending {
		if forgetter, ok := c.formatter.(driven.FormatForgetter); ok {
			if err := forgetter.Forget(ctx, fp); err != nil {
				logger.Warn("forget stored format %s: %v", fp.Short(), err)
			}
		}
		logger.Debug("format cache refreshing %s", fp.Short())
	}
	return c.Request(ctx, text)
}

// Clear drops every entry and the focus. Calls still in flight complete but
// their results are not recorded.
func (c *FormatCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[domain.Fingerprint]domain.FormatCacheEntry)
	c.epochs = make(map[domain.Fingerprint]uint64)
	c.focused = ""
	c.generation++
}

// Len returns the number of entries.
func (c *FormatCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
