package services

import (
	"bytes"
	"encoding/json"
	"strings"
)

const structuredIndent = "  "

// FormatStructured pretty-prints content with a two-space indent when it
// parses as JSON and returns it unchanged otherwise. Formatting output again
// yields the same output.
func FormatStructured(content string) string {
	trimmed := bytes.TrimSpace([]byte(content))
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return content
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, trimmed, "", structuredIndent); err != nil {
		return content
	}
	return buf.String()
}

// isStructured reports whether text opens like a JSON container and parses
// end-to-end.
func isStructured(trimmed string) bool {
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return false
	}
	return json.Valid([]byte(trimmed))
}
