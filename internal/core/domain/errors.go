package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Reformatting falls back to the original text.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrFormatterUnavailable indicates no formatter is wired for this session.
	ErrFormatterUnavailable = errors.New("formatter unavailable")

	// ErrFormatFailed indicates the format service reported failure.
	ErrFormatFailed = errors.New("format failed")

	// ErrEmptyFormat indicates the format service succeeded but returned nothing.
	ErrEmptyFormat = errors.New("format returned empty result")

	// ErrTranscriptUnavailable indicates the history feed cannot be read.
	ErrTranscriptUnavailable = errors.New("transcript history unavailable")

	// ErrRateLimited indicates the outbound format rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
