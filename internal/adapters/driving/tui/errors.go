package tui

import "errors"

// ErrMissingTranscriptService is returned when the transcript service is not provided.
var ErrMissingTranscriptService = errors.New("tui: transcript service is required")

// ErrMissingContentService is returned when the content service is not provided.
var ErrMissingContentService = errors.New("tui: content service is required")

// ErrMissingPromptService is returned when the prompt service is not provided.
var ErrMissingPromptService = errors.New("tui: prompt service is required")

// ErrInvalidPorts is returned when ports validation fails.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")
