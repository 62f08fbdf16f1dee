package driven

import (
	"context"

	"github.com/custodia-labs/promptlens/internal/core/domain"
)

// Formatter is the remote format service.
// Format is called at most once per fingerprint by the format cache.
// A non-nil error and a response with Success false are both failures.
type Formatter interface {
	Format(ctx context.Context, text string, fingerprint domain.Fingerprint) (*domain.FormatResponse, error)
}

// FormatForgetter is implemented by formatters that keep results of their own.
// Forget drops the stored result for a fingerprint so the next call recomputes it.
type FormatForgetter interface {
	Forget(ctx context.Context, fingerprint domain.Fingerprint) error
}

// FormatResultStore persists reformat results keyed by fingerprint.
// Formatters use it to answer repeated requests across sessions.
type FormatResultStore interface {
	// GetFormat returns the stored formatted text, or domain.ErrNotFound.
	GetFormat(ctx context.Context, fingerprint domain.Fingerprint) (string, error)

	// SaveFormat stores the formatted text for a fingerprint.
	SaveFormat(ctx context.Context, fingerprint domain.Fingerprint, formatted, model string) error

	// DeleteFormat removes the stored result, if any.
	DeleteFormat(ctx context.Context, fingerprint domain.Fingerprint) error
}

// FormatObserver receives format cache events. Implementations must be safe
// for concurrent use.
type FormatObserver interface {
	// FormatRequested is called for every Request, hit or miss.
	FormatRequested(hit bool)

	// FormatCompleted is called once per external call with its outcome.
	FormatCompleted(status domain.FormatStatus, seconds float64)
}
