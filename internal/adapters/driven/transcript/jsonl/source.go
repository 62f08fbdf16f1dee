package jsonl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/promptlens/internal/core/domain"
	"github.com/custodia-labs/promptlens/internal/core/ports/driven"
	"github.com/custodia-labs/promptlens/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.TranscriptSource = (*Source)(nil)

// entryNamespace scopes the name-based UUIDs given to entries.
var entryNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://promptlens.dev/history"))

// DefaultPath returns ~/.claude/history.jsonl.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".claude", "history.jsonl"), nil
}

// record is one line of the history file.
type record struct {
	Display        string               `json:"display"`
	PastedContents domain.AttachmentMap `json:"pastedContents"`
	Timestamp      json.RawMessage      `json:"timestamp"`
	Project        string               `json:"project"`
	SessionID      string               `json:"sessionId"`
}

// Source is a history feed backed by a JSONL file.
type Source struct {
	path string
}

// NewSource creates a feed reading path. Empty means DefaultPath.
func NewSource(path string) (*Source, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &Source{path: path}, nil
}

// Location returns the history file path.
func (s *Source) Location() string {
	return s.path
}

// Available reports whether the history file exists.
func (s *Source) Available() bool {
	info, err := os.Stat(s.path)
	return err == nil && !info.IsDir()
}

// List reads every decodable record, oldest first.
func (s *Source) List(ctx context.Context) ([]domain.TranscriptEntry, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrTranscriptUnavailable, s.path)
		}
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	entries, _, err := readEntries(ctx, f, true)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// readEntries decodes complete lines from r. It returns the entries and the
// number of bytes consumed, which stops before a trailing partial line.
// With final set, a trailing line without a newline is decoded too when it
// parses; it is never counted as consumed.
func readEntries(ctx context.Context, r io.Reader, final bool) ([]domain.TranscriptEntry, int64, error) {
	reader := bufio.NewReaderSize(r, 64<<10)

	var (
		entries  []domain.TranscriptEntry
		consumed int64
		skipped  int
		lineNo   int
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, consumed, err
		}

		line, err := reader.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, consumed, fmt.Errorf("read history: %w", err)
		}
		if errors.Is(err, io.EOF) {
			// The writer may not have finished the last line yet.
			if final {
				if entry, ok := decodeLine(bytes.TrimSpace(line)); ok {
					entries = append(entries, entry)
				}
			}
			break
		}
		consumed += int64(len(line))
		lineNo++

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		entry, ok := decodeLine(line)
		if !ok {
			skipped++
			logger.Debug("history: skipping malformed line %d", lineNo)
			continue
		}
		entries = append(entries, entry)
	}

	if skipped > 0 {
		logger.Warn("history: skipped %d malformed lines", skipped)
	}
	return entries, consumed, nil
}

// decodeLine turns one record into an entry.
func decodeLine(line []byte) (domain.TranscriptEntry, bool) {
	var rec record
	if err := json.Unmarshal(line, &rec); err != nil {
		return domain.TranscriptEntry{}, false
	}

	raw := timestampText(rec.Timestamp)
	return domain.TranscriptEntry{
		ID:             entryID(rec.SessionID, raw, rec.Display),
		Display:        rec.Display,
		PastedContents: rec.PastedContents,
		Timestamp:      parseTimestamp(raw),
		Project:        rec.Project,
		SessionID:      rec.SessionID,
	}, true
}

// timestampText returns the timestamp field as text, unquoting strings.
func timestampText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// parseTimestamp accepts epoch milliseconds or an RFC 3339 string.
func parseTimestamp(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.UnixMilli(int64(f))
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t
	}
	return time.Time{}
}

// entryID is a name-based UUID, stable across reads of the same record.
func entryID(sessionID, timestamp, display string) string {
	name := sessionID + "\x00" + timestamp + "\x00" + display
	return uuid.NewSHA1(entryNamespace, []byte(name)).String()
}
