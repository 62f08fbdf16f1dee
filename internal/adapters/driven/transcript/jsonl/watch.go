package jsonl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/promptlens/internal/core/domain"
	"github.com/custodia-labs/promptlens/internal/logger"
)

// Watch emits records appended to the history file until ctx is done.
//
// The parent directory is watched rather than the file, so the feed
// survives the file being created, truncated or replaced. Records already
// in the file when Watch is called are not emitted.
func (s *Source) Watch(ctx context.Context) (<-chan domain.TranscriptEntry, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("%w: watch %s: %w", domain.ErrTranscriptUnavailable, dir, err)
	}

	offset, err := s.endOffset(ctx)
	if err != nil {
		watcher.Close()
		return nil, err
	}

	out := make(chan domain.TranscriptEntry, 16)
	t := &tail{source: s, offset: offset, out: out}
	go t.run(ctx, watcher)

	logger.Debug("history: watching %s from byte %d", s.path, offset)
	return out, nil
}

// endOffset returns the byte after the last complete line.
func (s *Source) endOffset(ctx context.Context) (int64, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	_, consumed, err := readEntries(ctx, f, false)
	if err != nil {
		return 0, err
	}
	return consumed, nil
}

// tail follows the history file from offset.
type tail struct {
	source *Source
	offset int64
	out    chan domain.TranscriptEntry
}

func (t *tail) run(ctx context.Context, watcher *fsnotify.Watcher) {
	defer close(t.out)
	defer watcher.Close()

	target := filepath.Clean(t.source.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			switch {
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				t.offset = 0
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
				if err := t.drain(ctx); err != nil && ctx.Err() == nil {
					logger.Warn("history: %v", err)
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("history: watcher error: %v", err)
		}
	}
}

// drain emits the complete records written since the last drain.
func (t *tail) drain(ctx context.Context) error {
	f, err := os.Open(t.source.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			t.offset = 0
			return nil
		}
		return fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat history: %w", err)
	}
	if info.Size() < t.offset {
		logger.Debug("history: file shrank, rereading from start")
		t.offset = 0
	}
	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		return fmt.Errorf("seek history: %w", err)
	}

	entries, consumed, err := readEntries(ctx, f, false)
	if err != nil {
		return err
	}
	t.offset += consumed

	for _, entry := range entries {
		select {
		case t.out <- entry:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
