package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// AttachmentLabelPrefix is the canonical key prefix for pasted attachments.
// The attachment for placeholder #3 is keyed "Pasted text #3".
const AttachmentLabelPrefix = "Pasted text #"

// AttachmentLabel returns the canonical key for the given ordinal.
func AttachmentLabel(ordinal int) string {
	return AttachmentLabelPrefix + strconv.Itoa(ordinal)
}

// AttachmentOrdinal extracts the ordinal from a numeric key ("3") or a
// canonical key ("Pasted text #3").
func AttachmentOrdinal(key string) (int, bool) {
	digits := strings.TrimPrefix(key, AttachmentLabelPrefix)
	if digits == "" {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

type attachmentKind uint8

const (
	attachmentAbsent attachmentKind = iota
	attachmentRaw
	attachmentWrapped
)

// AttachmentValue is one pasted payload. It is either raw text or a wrapped
// record whose content field holds the text alongside arbitrary metadata.
// The zero value is absent.
type AttachmentValue struct {
	kind     attachmentKind
	content  string
	metadata map[string]json.RawMessage
}

// RawText returns an attachment holding text as-is.
func RawText(text string) AttachmentValue {
	return AttachmentValue{kind: attachmentRaw, content: text}
}

// Wrapped returns an attachment whose payload is content, carrying metadata.
func Wrapped(content string, metadata map[string]json.RawMessage) AttachmentValue {
	return AttachmentValue{kind: attachmentWrapped, content: content, metadata: metadata}
}

// IsZero reports whether the value is absent.
func (v AttachmentValue) IsZero() bool {
	return v.kind == attachmentAbsent
}

// IsWrapped reports whether the value came from a record with a content field.
func (v AttachmentValue) IsWrapped() bool {
	return v.kind == attachmentWrapped
}

// Content returns the payload text.
func (v AttachmentValue) Content() string {
	return v.content
}

// Metadata returns the wrapped record's fields other than content.
func (v AttachmentValue) Metadata() map[string]json.RawMessage {
	return v.metadata
}

// UnmarshalJSON decodes a string as raw text and an object with a content
// field as a wrapped record. A non-string content field keeps its JSON
// encoding, as does any other JSON value.
func (v *AttachmentValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = AttachmentValue{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode attachment text: %w", err)
		}
		*v = RawText(s)
		return nil
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return fmt.Errorf("decode attachment record: %w", err)
		}
		if raw, ok := fields["content"]; ok {
			delete(fields, "content")
			var content string
			if err := json.Unmarshal(raw, &content); err != nil {
				content = string(bytes.TrimSpace(raw))
			}
			*v = Wrapped(content, fields)
			return nil
		}
	}

	*v = RawText(string(data))
	return nil
}

// MarshalJSON encodes raw text as a string and a wrapped record as an object.
func (v AttachmentValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case attachmentRaw:
		return json.Marshal(v.content)
	case attachmentWrapped:
		fields := make(map[string]any, len(v.metadata)+1)
		for k, raw := range v.metadata {
			fields[k] = raw
		}
		fields["content"] = v.content
		return json.Marshal(fields)
	default:
		return []byte("null"), nil
	}
}

// AttachmentMap maps placeholder keys to pasted payloads.
// Keys are either numeric ("1") or canonical ("Pasted text #1").
type AttachmentMap map[string]AttachmentValue

// UnmarshalJSON decodes the map, dropping null entries.
func (m *AttachmentMap) UnmarshalJSON(data []byte) error {
	var raw map[string]AttachmentValue
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(AttachmentMap, len(raw))
	for k, v := range raw {
		if v.IsZero() {
			continue
		}
		out[k] = v
	}
	*m = out
	return nil
}

// Lookup returns the attachment for ordinal n. The canonical key is checked
// before the numeric key.
func (m AttachmentMap) Lookup(n int) (AttachmentValue, bool) {
	return m.LookupDigits(strconv.Itoa(n))
}

// LookupDigits is Lookup keyed by the ordinal exactly as written in a
// placeholder, so "#01" looks for "Pasted text #01" and then "01".
func (m AttachmentMap) LookupDigits(digits string) (AttachmentValue, bool) {
	if v, ok := m[AttachmentLabelPrefix+digits]; ok && !v.IsZero() {
		return v, true
	}
	if v, ok := m[digits]; ok && !v.IsZero() {
		return v, true
	}
	return AttachmentValue{}, false
}

// DisplayLabel returns the canonical label for a key. Numeric keys gain the
// "Pasted text #" prefix and every other key is returned as-is.
func DisplayLabel(key string) string {
	if key == "" {
		return key
	}
	for _, r := range key {
		if r < '0' || r > '9' {
			return key
		}
	}
	return AttachmentLabelPrefix + key
}

// AttachmentEntry is one attachment prepared for standalone display.
type AttachmentEntry struct {
	Label   string `json:"label"`
	Content string `json:"content"`
}

// PlaceholderToken is one placeholder occurrence inside a prompt.
type PlaceholderToken struct {
	// Raw is the exact token text, e.g. "[Pasted text #2 +14 lines]".
	Raw string `json:"raw"`

	// Ordinal is the attachment number.
	Ordinal int `json:"ordinal"`

	// Lines is the line-count hint, or 0 when the token has none.
	Lines int `json:"lines,omitempty"`

	// Start and End are byte offsets of Raw within the prompt.
	Start int `json:"start"`
	End   int `json:"end"`
}
