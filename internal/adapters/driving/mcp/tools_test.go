package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/promptlens/internal/core/domain"
)

func TestServer_handleClassify(t *testing.T) {
	ctx := context.Background()

	t.Run("classifies structured data", func(t *testing.T) {
		observer := &mockObserver{}
		ports := testPorts()
		ports.Observer = observer
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleClassify(ctx, nil, ClassifyInput{Text: `{"a":1}`})

		require.NoError(t, err)
		assert.Equal(t, "structured_data", output.Kind)
		assert.Equal(t, "json", output.Language)
		assert.Equal(t, "Structured data", output.Description)
		assert.Equal(t, "{\n  \"a\": 1\n}", output.Preview)
		assert.Equal(t, []string{toolClassify}, observer.calls)
		assert.Nil(t, observer.errs[0])
	})

	t.Run("truncates preview", func(t *testing.T) {
		server, err := NewServer(testPorts())
		require.NoError(t, err)

		_, output, err := server.handleClassify(ctx, nil, ClassifyInput{Text: "a\nb\nc", MaxLines: 2})

		require.NoError(t, err)
		assert.True(t, output.Truncated)
		assert.Equal(t, 3, output.TotalLines)
		assert.Equal(t, "a\nb", output.Preview)
	})

	t.Run("collects links in plain text", func(t *testing.T) {
		server, err := NewServer(testPorts())
		require.NoError(t, err)

		_, output, err := server.handleClassify(ctx, nil, ClassifyInput{Text: "see https://example.com"})

		require.NoError(t, err)
		assert.Equal(t, "plain_text", output.Kind)
		assert.Equal(t, []string{"https://example.com"}, output.Links)
	})

	t.Run("rejects negative max lines", func(t *testing.T) {
		observer := &mockObserver{}
		ports := testPorts()
		ports.Observer = observer
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleClassify(ctx, nil, ClassifyInput{Text: "x", MaxLines: -1})

		require.ErrorIs(t, err, domain.ErrInvalidInput)
		require.Len(t, observer.errs, 1)
		assert.Error(t, observer.errs[0])
	})
}

func TestServer_handleResolve(t *testing.T) {
	ctx := context.Background()
	server, err := NewServer(testPorts())
	require.NoError(t, err)

	t.Run("splices attachments", func(t *testing.T) {
		input := ResolveInput{
			Prompt: "fix [Pasted text #1 +2 lines] and [Pasted text #2]",
			Attachments: map[string]any{
				"1": "line one\nline two",
				"Pasted text #1": map[string]any{
					"content": "canonical",
					"id":      1,
				},
			},
		}

		_, output, err := server.handleResolve(ctx, nil, input)

		require.NoError(t, err)
		assert.Contains(t, output.Resolved, "--- Pasted text #1 ---\ncanonical\n--- End ---")
		assert.Contains(t, output.Resolved, "[Pasted text #2]")
		assert.Equal(t, []int{2}, output.Unresolved)
		require.Len(t, output.Attachments, 2)
		assert.Equal(t, "Pasted text #1", output.Attachments[0].Label)
		assert.Equal(t, "line one\nline two", output.Attachments[0].Content)
	})

	t.Run("no attachments leaves prompt alone", func(t *testing.T) {
		_, output, err := server.handleResolve(ctx, nil, ResolveInput{Prompt: "[Pasted text #1]"})

		require.NoError(t, err)
		assert.Equal(t, "[Pasted text #1]", output.Resolved)
		assert.Equal(t, []int{1}, output.Unresolved)
		assert.NotNil(t, output.Attachments)
		assert.Empty(t, output.Attachments)
	})
}

func TestServer_handleFormat(t *testing.T) {
	ctx := context.Background()

	t.Run("returns formatted text", func(t *testing.T) {
		format := &mockFormatService{entry: domain.FormatCacheEntry{
			Fingerprint:   "abc",
			Status:        domain.FormatSucceeded,
			FormattedText: "# Title",
		}}
		ports := testPorts()
		ports.Format = format
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleFormat(ctx, nil, FormatInput{Text: "title"})

		require.NoError(t, err)
		assert.Equal(t, "succeeded", output.Status)
		assert.Equal(t, "# Title", output.Text)
		assert.Equal(t, "abc", output.Fingerprint)
		assert.Equal(t, []string{"title"}, format.requested)
		assert.Empty(t, format.refreshed)
	})

	t.Run("failure falls back to original", func(t *testing.T) {
		format := &mockFormatService{entry: domain.FormatCacheEntry{
			Fingerprint:  "abc",
			Status:       domain.FormatFailed,
			ErrorMessage: "AI formatting is not configured",
		}}
		ports := testPorts()
		ports.Format = format
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleFormat(ctx, nil, FormatInput{Text: "original"})

		require.NoError(t, err)
		assert.Equal(t, "failed", output.Status)
		assert.Equal(t, "original", output.Text)
		assert.Equal(t, "AI formatting is not configured", output.Error)
	})

	t.Run("refresh asks again", func(t *testing.T) {
		format := &mockFormatService{entry: domain.FormatCacheEntry{Status: domain.FormatSucceeded, FormattedText: "new"}}
		ports := testPorts()
		ports.Format = format
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleFormat(ctx, nil, FormatInput{Text: "x", Refresh: true})

		require.NoError(t, err)
		assert.Equal(t, "new", output.Text)
		assert.Equal(t, []string{"x"}, format.refreshed)
		assert.Empty(t, format.requested)
	})

	t.Run("no format service", func(t *testing.T) {
		server, err := NewServer(testPorts())
		require.NoError(t, err)

		_, output, err := server.handleFormat(ctx, nil, FormatInput{Text: "keep"})

		require.NoError(t, err)
		assert.Equal(t, "failed", output.Status)
		assert.Equal(t, "keep", output.Text)
		assert.Equal(t, domain.ErrFormatterUnavailable.Error(), output.Error)
	})
}

func TestServer_handleListHistory(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("lists entries", func(t *testing.T) {
		transcript := &mockTranscriptService{entries: []domain.TranscriptEntry{
			{
				ID:        "0b6c9f5e-1111-5222-8333-444455556666",
				Display:   "explain this\n[Pasted text #1]",
				Timestamp: ts,
				Project:   "/work/app",
				PastedContents: domain.AttachmentMap{
					"1": domain.RawText("func main() {}"),
				},
			},
		}}
		ports := testPorts()
		ports.Transcript = transcript
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleListHistory(ctx, nil, ListHistoryInput{})

		require.NoError(t, err)
		assert.Equal(t, defaultHistoryLimit, transcript.limit)
		require.Equal(t, 1, output.Count)
		entry := output.Entries[0]
		assert.Equal(t, "explain this", entry.Title)
		assert.Equal(t, "2025-03-01T12:00:00Z", entry.Timestamp)
		assert.Equal(t, "/work/app", entry.Project)
		assert.Equal(t, 1, entry.Attachments)
	})

	t.Run("passes limit", func(t *testing.T) {
		transcript := &mockTranscriptService{}
		ports := testPorts()
		ports.Transcript = transcript
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleListHistory(ctx, nil, ListHistoryInput{Limit: 3})

		require.NoError(t, err)
		assert.Equal(t, 3, transcript.limit)
		assert.Equal(t, 0, output.Count)
		assert.NotNil(t, output.Entries)
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		ports := testPorts()
		ports.Transcript = &mockTranscriptService{err: errors.New("history missing")}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleListHistory(ctx, nil, ListHistoryInput{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "history missing")
	})

	t.Run("no transcript service", func(t *testing.T) {
		server, err := NewServer(testPorts())
		require.NoError(t, err)

		_, _, err = server.handleListHistory(ctx, nil, ListHistoryInput{})

		assert.ErrorIs(t, err, ErrHistoryUnavailable)
	})
}

func TestDecodeAttachments(t *testing.T) {
	attachments, err := decodeAttachments(map[string]any{
		"1": "raw",
		"2": map[string]any{"content": "wrapped", "type": "text"},
		"3": nil,
	})

	require.NoError(t, err)
	assert.Len(t, attachments, 2)
	assert.Equal(t, "raw", attachments["1"].Content())
	assert.True(t, attachments["2"].IsWrapped())
	assert.Equal(t, "wrapped", attachments["2"].Content())

	empty, err := decodeAttachments(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
