package driving

import (
	"context"

	"github.com/custodia-labs/promptlens/internal/core/domain"
)

// FormatService is the memoised, fail-soft reformat cache.
type FormatService interface {
	// Fingerprint returns the cache key for text.
	Fingerprint(text string) domain.Fingerprint

	// Request returns the entry for text, starting the external call if no
	// request has been made for its fingerprint. It waits until the entry is
	// terminal or ctx is done, in which case the pending entry is returned.
	Request(ctx context.Context, text string) domain.FormatCacheEntry

	// Lookup returns the entry for a fingerprint without starting a request.
	Lookup(fingerprint domain.Fingerprint) (domain.FormatCacheEntry, bool)

	// Focus marks text as the content currently on display and returns its fingerprint.
	Focus(text string) domain.Fingerprint

	// Surface reports whether entry belongs to the content currently on display.
	Surface(entry domain.FormatCacheEntry) bool

	// Forget drops a terminal entry so the next Request calls out again.
	Forget(fingerprint domain.Fingerprint)

	// Refresh forgets the entry for text, including any result the formatter
	// stored, and requests it again. A pending entry is joined instead.
	Refresh(ctx context.Context, text string) domain.FormatCacheEntry

	// Clear drops every entry. In-flight calls still complete but are not recorded.
	Clear()

	// Len returns the number of entries.
	Len() int
}
