// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	anthropicllm "github.com/custodia-labs/promptlens/internal/adapters/driven/llm/anthropic"
	openaillm "github.com/custodia-labs/promptlens/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/promptlens/internal/core/domain"
	"github.com/custodia-labs/promptlens/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateActiveLLMService creates the LLM service when reformatting is on.
// Returns nil, nil when reformatting is disabled or not configured. The
// provider is not contacted; an unreachable provider fails the first call.
func CreateActiveLLMService(settings *domain.AISettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsActive() {
		return nil, nil
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'promptlens settings ai' to fix",
			domain.ErrLLMUnavailable, err)
	}
	return svc, nil
}

// ValidateLLMConfig validates an AI configuration by creating a service and pinging it.
// Disabled settings are not checked.
func ValidateLLMConfig(settings *domain.AISettings) error {
	if settings == nil || !settings.Enabled {
		return nil
	}
	if !settings.IsConfigured() {
		return fmt.Errorf("%w: %s is not configured", domain.ErrLLMUnavailable, settings.Provider.Description())
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// CreateLLMService creates the LLM service for the configured provider.
// It does not check Enabled; callers decide whether reformatting is on.
func CreateLLMService(settings *domain.AISettings) (driven.LLMService, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: no AI settings", domain.ErrLLMUnavailable)
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: %s is not configured", domain.ErrLLMUnavailable, settings.Provider.Description())
	}

	switch {
	case settings.Provider == domain.AIProviderAnthropic:
		return createAnthropicLLM(settings)

	case settings.Provider.IsOpenAICompatible():
		return createOpenAICompatibleLLM(settings)

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// createOpenAICompatibleLLM covers DeepSeek, OpenAI and Ollama.
func createOpenAICompatibleLLM(settings *domain.AISettings) (driven.LLMService, error) {
	baseURL := settings.BaseURL
	if baseURL == "" {
		baseURL = domain.DefaultBaseURLs()[settings.Provider]
	}
	model := settings.Model
	if model == "" {
		model = domain.DefaultLLMModels()[settings.Provider]
	}

	return openaillm.NewLLMService(openaillm.Config{
		APIKey:  settings.APIKey,
		BaseURL: baseURL,
		Model:   model,
	})
}

// createAnthropicLLM creates an Anthropic LLM service.
func createAnthropicLLM(settings *domain.AISettings) (driven.LLMService, error) {
	return anthropicllm.NewLLMService(anthropicllm.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}
