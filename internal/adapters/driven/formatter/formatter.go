package formatter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/promptlens/internal/core/domain"
	"github.com/custodia-labs/promptlens/internal/core/ports/driven"
	"github.com/custodia-labs/promptlens/internal/logger"
)

// Ensure LLMFormatter implements the interfaces.
var (
	_ driven.Formatter        = (*LLMFormatter)(nil)
	_ driven.PromptStoreAware = (*LLMFormatter)(nil)
	_ driven.FormatForgetter  = (*LLMFormatter)(nil)
)

// Defaults for Options.
const (
	DefaultRequestsPerMinute = 20
	DefaultBurst             = 2
	DefaultMaxTokens         = 4096
	DefaultTemperature       = 0.2
)

// Built-in prompts used when no PromptStore is set or it cannot load one.
const (
	defaultSystemPrompt = `You reformat prompts that a developer sent to an AI coding assistant so they are easy to read.
Return Markdown only. Keep every instruction and all technical content. Do not answer the prompt.
Put code, logs and data in fenced code blocks with a language tag.`

	defaultUserPrompt = "Reformat the following prompt:\n\n%s"
)

// Options tunes an LLMFormatter. Zero values take the defaults.
type Options struct {
	// RequestsPerMinute caps outbound LLM calls. Negative disables the limit.
	RequestsPerMinute int

	// Burst is the number of calls allowed back to back.
	Burst int

	// MaxTokens bounds the reformatted answer.
	MaxTokens int

	// Temperature for the chat call.
	Temperature float64
}

// LLMFormatter reformats text with an LLM and remembers results by fingerprint.
type LLMFormatter struct {
	llm     driven.LLMService
	store   driven.FormatResultStore
	limiter *rate.Limiter
	opts    Options

	mu      sync.RWMutex
	prompts driven.PromptStore
}

// New creates an LLM-backed formatter. The store may be nil.
func New(llm driven.LLMService, store driven.FormatResultStore, opts Options) (*LLMFormatter, error) {
	if llm == nil {
		return nil, fmt.Errorf("formatter: %w", domain.ErrLLMUnavailable)
	}
	if opts.RequestsPerMinute == 0 {
		opts.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if opts.Burst <= 0 {
		opts.Burst = DefaultBurst
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.Temperature <= 0 {
		opts.Temperature = DefaultTemperature
	}

	limit := rate.Inf
	if opts.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(opts.RequestsPerMinute))
	}

	return &LLMFormatter{
		llm:     llm,
		store:   store,
		limiter: rate.NewLimiter(limit, opts.Burst),
		opts:    opts,
	}, nil
}

// SetPromptStore sets the store for the user-editable prompts.
func (f *LLMFormatter) SetPromptStore(store driven.PromptStore) {
	f.mu.Lock()
	f.prompts = store
	f.mu.Unlock()
}

// Format returns the Markdown rendition of text.
// Provider failures come back as errors; an unusable answer comes back as an
// unsuccessful response.
func (f *LLMFormatter) Format(ctx context.Context, text string, fp domain.Fingerprint) (*domain.FormatResponse, error) {
	if f.store != nil {
		stored, err := f.store.GetFormat(ctx, fp)
		switch {
		case err == nil:
			logger.Debug("formatter: stored result for %s", fp.Short())
			return &domain.FormatResponse{Success: true, Formatted: stored}, nil
		case !errors.Is(err, domain.ErrNotFound):
			logger.Warn("formatter: result store read failed: %v", err)
		}
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("formatter: %w: %w", domain.ErrRateLimited, err)
	}

	messages := []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: f.prompt(driven.PromptFormatSystem, defaultSystemPrompt)},
		{Role: driven.RoleUser, Content: fmt.Sprintf(f.userTemplate(), text)},
	}

	answer, err := f.llm.Chat(ctx, messages, driven.ChatOptions{
		MaxTokens:   f.opts.MaxTokens,
		Temperature: f.opts.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("reformat with %s: %w", f.llm.ModelName(), err)
	}

	formatted := StripFences(answer)
	if formatted == "" {
		return &domain.FormatResponse{Success: false, Error: domain.ErrEmptyFormat.Error()}, nil
	}

	if f.store != nil {
		if err := f.store.SaveFormat(ctx, fp, formatted, f.llm.ModelName()); err != nil {
			logger.Warn("formatter: result store write failed: %v", err)
		}
	}

	return &domain.FormatResponse{Success: true, Formatted: formatted}, nil
}

// Forget drops the stored result for fp so the next Format asks the LLM.
func (f *LLMFormatter) Forget(ctx context.Context, fp domain.Fingerprint) error {
	if f.store == nil {
		return nil
	}
	return f.store.DeleteFormat(ctx, fp)
}

// ModelName returns the underlying model.
func (f *LLMFormatter) ModelName() string {
	return f.llm.ModelName()
}

func (f *LLMFormatter) prompt(name, fallback string) string {
	f.mu.RLock()
	store := f.prompts
	f.mu.RUnlock()

	if store == nil {
		return fallback
	}
	prompt, err := store.Load(name)
	if err != nil || strings.TrimSpace(prompt) == "" {
		return fallback
	}
	return prompt
}

// userTemplate falls back to the default unless the loaded template has
// exactly one %s.
func (f *LLMFormatter) userTemplate() string {
	tmpl := f.prompt(driven.PromptFormatUser, defaultUserPrompt)
	if strings.Count(tmpl, "%s") != 1 || strings.Count(tmpl, "%") != 1 {
		logger.Warn("formatter: %s prompt must contain a single %%s, using default", driven.PromptFormatUser)
		return defaultUserPrompt
	}
	return tmpl
}

// StripFences removes a code fence wrapped around the whole answer when its
// language is empty, markdown or md. Other fences are content.
func StripFences(answer string) string {
	answer = strings.TrimSpace(answer)
	if !strings.HasPrefix(answer, "```") || !strings.HasSuffix(answer, "```") || len(answer) < 6 {
		return answer
	}

	firstLine, rest, found := strings.Cut(answer, "\n")
	if !found {
		return answer
	}
	switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(firstLine, "```"))) {
	case "", "markdown", "md":
	default:
		return answer
	}

	return strings.TrimSpace(strings.TrimSuffix(rest, "```"))
}
