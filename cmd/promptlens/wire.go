package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/custodia-labs/promptlens/internal/adapters/driven/ai"
	"github.com/custodia-labs/promptlens/internal/adapters/driven/config/file"
	"github.com/custodia-labs/promptlens/internal/adapters/driven/formatter"
	"github.com/custodia-labs/promptlens/internal/adapters/driven/metrics"
	"github.com/custodia-labs/promptlens/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/promptlens/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/promptlens/internal/adapters/driven/transcript/jsonl"
	"github.com/custodia-labs/promptlens/internal/adapters/driving/cli"
	"github.com/custodia-labs/promptlens/internal/core/domain"
	"github.com/custodia-labs/promptlens/internal/core/ports/driven"
	"github.com/custodia-labs/promptlens/internal/core/services"
	"github.com/custodia-labs/promptlens/internal/logger"
)

// formatRetention is how long stored reformat results are kept.
const formatRetention = 90 * 24 * time.Hour

// bootstrap wires adapters into services once global flags are parsed.
func bootstrap(opts cli.Options) (*cli.Services, func(), error) {
	configDir := opts.ConfigDir
	if configDir == "" {
		dir, err := file.DefaultDir()
		if err != nil {
			return nil, nil, fmt.Errorf("resolve config directory: %w", err)
		}
		configDir = dir
	}
	logger.Section("Bootstrap")
	logger.Debug("config directory %s", configDir)

	var configStore driven.ConfigStore
	fileStore, err := file.NewConfigStore(configDir)
	if err != nil {
		logger.Warn("config unavailable (%v), using defaults for this run", err)
		configStore = memory.NewConfigStore()
	} else {
		configStore = fileStore
	}

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("load settings: %w", err)
	}

	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Debug("cleanup: %v", err)
			}
		}
	}

	results := openResultStore(configDir, &closers)
	format := buildFormatter(configDir, settings, results, &closers)

	exporter := metrics.NewPrometheusExporter(metrics.DefaultConfig())

	source, err := jsonl.NewSource(settings.History.Path)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("open history: %w", err)
	}

	content := services.NewContentService()
	prompts := services.NewPromptService()

	return &cli.Services{
		Content:      content,
		Prompt:       prompts,
		Format:       services.NewFormatCache(format, exporter),
		Transcript:   services.NewTranscriptService(source, prompts, content),
		Settings:     settingsService,
		ToolObserver: exporter,
		Metrics:      exporter.Handler(),
	}, cleanup, nil
}

// openResultStore opens the SQLite result store, falling back to memory so
// results still dedupe within this run.
func openResultStore(configDir string, closers *[]func() error) driven.FormatResultStore {
	store, err := sqlite.NewStore(filepath.Join(configDir, "data"))
	if err != nil {
		logger.Warn("result store unavailable (%v), reformat results will not persist", err)
		return memory.NewFormatStore()
	}
	*closers = append(*closers, store.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if n, err := store.FormatStore().Purge(ctx, time.Now().Add(-formatRetention)); err != nil {
		logger.Debug("purge stored results: %v", err)
	} else if n > 0 {
		logger.Debug("purged %d stored results", n)
	}
	if n, err := store.FormatStore().Count(ctx); err == nil {
		logger.Debug("result store %s holds %d results", store.Path(), n)
	}

	return store.FormatStore()
}

// buildFormatter returns the LLM formatter for active settings. The provider
// is not contacted here; an unreachable provider fails the first request and
// a refresh tries it again. A bad configuration yields a formatter that fails
// every call, so the original text is shown.
func buildFormatter(
	configDir string,
	settings *domain.AppSettings,
	results driven.FormatResultStore,
	closers *[]func() error,
) driven.Formatter {
	if !settings.AI.IsActive() {
		return formatter.Disabled{}
	}

	llm, err := ai.CreateActiveLLMService(&settings.AI)
	if err != nil || llm == nil {
		logger.Warn("AI reformatting unavailable: %v", err)
		return formatter.Disabled{Reason: unavailableReason(err)}
	}
	*closers = append(*closers, llm.Close)

	f, err := formatter.New(llm, results, formatter.Options{})
	if err != nil {
		return formatter.Disabled{Reason: err.Error()}
	}

	prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"))
	if err != nil {
		logger.Debug("prompt templates unavailable, using built-in prompts: %v", err)
	} else {
		f.SetPromptStore(prompts)
	}

	logger.Info("AI reformatting with %s", f.ModelName())
	return f
}

func unavailableReason(err error) string {
	if err == nil {
		return "not configured"
	}
	if errors.Is(err, domain.ErrLLMUnavailable) {
		return "provider not configured"
	}
	return err.Error()
}
