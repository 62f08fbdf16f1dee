package domain

import "time"

// Fingerprint identifies a block of text for reformat memoisation.
// It is the lowercase hex MD5 digest of the exact text.
type Fingerprint string

// String returns the string representation.
func (f Fingerprint) String() string {
	return string(f)
}

// Short returns the first eight characters for log lines and status bars.
func (f Fingerprint) Short() string {
	if len(f) <= 8 {
		return string(f)
	}
	return string(f[:8])
}

// FormatStatus is the lifecycle state of a reformat request.
type FormatStatus string

// Reformat states. Pending moves to exactly one of Succeeded or Failed.
const (
	FormatPending   FormatStatus = "pending"
	FormatSucceeded FormatStatus = "succeeded"
	FormatFailed    FormatStatus = "failed"
)

// IsTerminal returns true once the request has completed.
func (s FormatStatus) IsTerminal() bool {
	return s == FormatSucceeded || s == FormatFailed
}

// String returns the string representation.
func (s FormatStatus) String() string {
	return string(s)
}

// FormatCacheEntry is the memoised state of one reformat request.
type FormatCacheEntry struct {
	Fingerprint Fingerprint  `json:"fingerprint"`
	Status      FormatStatus `json:"status"`

	// FormattedText is set only when Status is FormatSucceeded.
	FormattedText string `json:"formatted_text,omitempty"`

	// ErrorMessage is set only when Status is FormatFailed.
	ErrorMessage string `json:"error,omitempty"`

	RequestedAt time.Time `json:"requested_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// IsZero reports whether no request has been recorded.
func (e FormatCacheEntry) IsZero() bool {
	return e.Fingerprint == "" && e.Status == ""
}

// TextOr returns the formatted text if the request succeeded, otherwise original.
func (e FormatCacheEntry) TextOr(original string) string {
	if e.Status == FormatSucceeded && e.FormattedText != "" {
		return e.FormattedText
	}
	return original
}

// FormatResponse is the reply of a format service.
type FormatResponse struct {
	Success   bool   `json:"success"`
	Formatted string `json:"formatted,omitempty"`
	Error     string `json:"error,omitempty"`
}
