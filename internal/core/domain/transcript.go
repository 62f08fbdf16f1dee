package domain

import "time"

// TranscriptEntry is one captured prompt from the history feed.
type TranscriptEntry struct {
	// ID is a stable identifier derived from the entry's session, time and text.
	ID string `json:"id"`

	// Display is the prompt as captured, with placeholder tokens in place
	// of pasted content.
	Display string `json:"display"`

	// PastedContents holds the attachments the placeholders refer to.
	PastedContents AttachmentMap `json:"pasted_contents,omitempty"`

	Timestamp time.Time `json:"timestamp"`
	Project   string    `json:"project,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
}

// HasAttachments returns true if the entry carries pasted content.
func (e TranscriptEntry) HasAttachments() bool {
	return len(e.PastedContents) > 0
}

// Title returns the first line of the prompt, cut to maxRunes.
func (e TranscriptEntry) Title(maxRunes int) string {
	line := e.Display
	for i, r := range line {
		if r == '\n' {
			line = line[:i]
			break
		}
	}
	runes := []rune(line)
	if maxRunes > 0 && len(runes) > maxRunes {
		if maxRunes <= 3 {
			return string(runes[:maxRunes])
		}
		return string(runes[:maxRunes-3]) + "..."
	}
	return line
}
