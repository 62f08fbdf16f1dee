package formatter

import (
	"context"
	"fmt"

	"github.com/custodia-labs/promptlens/internal/core/domain"
	"github.com/custodia-labs/promptlens/internal/core/ports/driven"
)

// Ensure Disabled implements the interface.
var _ driven.Formatter = Disabled{}

// Disabled is the formatter used when reformatting is off or unreachable.
// Every call fails so the original text is shown.
type Disabled struct {
	// Reason is reported in the failure. Empty means "not configured".
	Reason string
}

// Format always fails.
func (d Disabled) Format(context.Context, string, domain.Fingerprint) (*domain.FormatResponse, error) {
	if d.Reason == "" {
		return nil, domain.ErrFormatterUnavailable
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrFormatterUnavailable, d.Reason)
}
