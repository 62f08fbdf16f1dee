package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/promptlens/internal/adapters/driven/formatter"
	"github.com/custodia-labs/promptlens/internal/adapters/driving/cli"
	"github.com/custodia-labs/promptlens/internal/core/domain"
)

func TestBootstrap_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	configDir := filepath.Join(home, "config")

	svc, cleanup, err := bootstrap(cli.Options{ConfigDir: configDir})
	require.NoError(t, err)
	require.NotNil(t, cleanup)
	defer cleanup()

	require.NotNil(t, svc.Content)
	require.NotNil(t, svc.Prompt)
	require.NotNil(t, svc.Format)
	require.NotNil(t, svc.Transcript)
	require.NotNil(t, svc.Settings)
	assert.NotNil(t, svc.ToolObserver)
	assert.NotNil(t, svc.Metrics)

	assert.Equal(t, filepath.Join(home, ".claude", "history.jsonl"), svc.Transcript.Location())
	assert.False(t, svc.Transcript.Available())

	_, err = os.Stat(filepath.Join(configDir, "data"))
	assert.NoError(t, err)
}

func TestBootstrap_ReformattingOffShowsOriginal(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	svc, cleanup, err := bootstrap(cli.Options{ConfigDir: t.TempDir()})
	require.NoError(t, err)
	defer cleanup()

	svc.Format.Focus("hello")
	entry := svc.Format.Request(context.Background(), "hello")

	assert.Equal(t, domain.FormatFailed, entry.Status)
	assert.Equal(t, "hello", entry.TextOr("hello"))
}

func TestBootstrap_HistoryPathFromSettings(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	configDir := t.TempDir()
	history := filepath.Join(t.TempDir(), "history.jsonl")
	require.NoError(t, os.WriteFile(history, []byte(`{"display":"hi","timestamp":1760000000000}`+"\n"), 0o600))

	svc, cleanup, err := bootstrap(cli.Options{ConfigDir: configDir})
	require.NoError(t, err)
	require.NoError(t, svc.Settings.SetHistoryPath(history))
	cleanup()

	svc, cleanup, err = bootstrap(cli.Options{ConfigDir: configDir})
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, history, svc.Transcript.Location())
	assert.True(t, svc.Transcript.Available())
	entries, err := svc.Transcript.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "hi", entries[0].Display)
}

func TestBuildFormatter_Inactive(t *testing.T) {
	settings := domain.DefaultAppSettings()

	f := buildFormatter(t.TempDir(), &settings, nil, new([]func() error))

	assert.Equal(t, formatter.Disabled{}, f)
}

func TestUnavailableReason(t *testing.T) {
	assert.Equal(t, "provider not configured", unavailableReason(domain.ErrLLMUnavailable))
	assert.Equal(t, "not configured", unavailableReason(nil))
	assert.Equal(t, assert.AnError.Error(), unavailableReason(assert.AnError))
}

// chatServer fails the first chat completion and answers the rest.
func chatServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error": {"message": "warming up"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"id": "c1", "object": "chat.completion", "choices": [` +
			`{"index": 0, "message": {"role": "assistant", "content": "# Tidied"}, "finish_reason": "stop"}]}`))
	}))
	t.Cleanup(server.Close)
	return server
}

// enableOllama stores active AI settings pointing at baseURL in configDir.
func enableOllama(t *testing.T, configDir, baseURL string) {
	t.Helper()
	svc, cleanup, err := bootstrap(cli.Options{ConfigDir: configDir})
	require.NoError(t, err)
	require.NoError(t, svc.Settings.SetAI(true, domain.AIProviderOllama, "", baseURL, ""))
	cleanup()
}

func TestBootstrap_AIEnabledDoesNotContactProvider(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	configDir := t.TempDir()
	var hits atomic.Int32
	server := chatServer(t, &hits)
	enableOllama(t, configDir, server.URL+"/v1")

	svc, cleanup, err := bootstrap(cli.Options{ConfigDir: configDir})
	require.NoError(t, err)
	defer cleanup()

	c := svc.Content.Classify(`{"a": 1}`)

	assert.Equal(t, domain.KindStructuredData, c.Kind)
	assert.Equal(t, int32(0), hits.Load())
}

func TestBootstrap_RefreshReachesProviderAfterFailure(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	configDir := t.TempDir()
	var hits atomic.Int32
	server := chatServer(t, &hits)
	enableOllama(t, configDir, server.URL+"/v1")

	svc, cleanup, err := bootstrap(cli.Options{ConfigDir: configDir})
	require.NoError(t, err)
	defer cleanup()

	ctx := context.Background()
	svc.Format.Focus("tidy me")

	first := svc.Format.Request(ctx, "tidy me")
	require.Equal(t, domain.FormatFailed, first.Status)
	assert.Equal(t, "tidy me", first.TextOr("tidy me"))

	second := svc.Format.Refresh(ctx, "tidy me")
	assert.Equal(t, domain.FormatSucceeded, second.Status)
	assert.Equal(t, "# Tidied", second.FormattedText)
	assert.Equal(t, int32(2), hits.Load())
}
