// Package openai provides an LLM service adapter for OpenAI-compatible chat APIs.
// DeepSeek, OpenAI and Ollama's /v1 endpoint all speak this protocol.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/promptlens/internal/core/domain"
	"github.com/custodia-labs/promptlens/internal/core/ports/driven"
	"github.com/custodia-labs/promptlens/internal/logger"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.deepseek.com/v1"
	DefaultModel   = "deepseek-chat"
	DefaultTimeout = 120 * time.Second

	// ollamaKey is sent when no key is configured; Ollama ignores it.
	ollamaKey = "ollama"
)

// Config holds configuration for an OpenAI-compatible LLM service.
type Config struct {
	// APIKey is the provider API key. Optional for local servers.
	APIKey string

	// BaseURL is the API base URL including the version segment
	// (default: https://api.deepseek.com/v1).
	BaseURL string

	// Model is the chat model to use (default: deepseek-chat).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// HTTPClient overrides the transport. Mainly for tests.
	HTTPClient *http.Client
}

// LLMService provides chat completions through go-openai.
type LLMService struct {
	client  *openai.Client
	baseURL string
	model   string
}

// NewLLMService creates a new OpenAI-compatible LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.APIKey == "" {
		cfg.APIKey = ollamaKey
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClient(cfg.Timeout)
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.BaseURL
	clientConfig.HTTPClient = httpClient

	return &LLMService{
		client:  openai.NewClientWithConfig(clientConfig),
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}

// Chat conducts a multi-turn conversation.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    convertMessages(messages),
		MaxTokens:   opts.MaxTokens,
		Temperature: float32(opts.Temperature),
	}

	start := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices returned")
	}

	logger.Debug("openai: %s answered in %s (%d tokens)",
		s.model, time.Since(start).Round(time.Millisecond), resp.Usage.TotalTokens)
	return resp.Choices[0].Message.Content, nil
}

func convertMessages(messages []driven.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		out[i] = openai.ChatCompletionMessage{Role: msg.Role, Content: msg.Content}
	}
	return out
}

// wrapError maps HTTP 429 onto domain.ErrRateLimited.
func wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("openai: %w: %s", domain.ErrRateLimited, apiErr.Message)
		}
		return fmt.Errorf("openai error (status %d): %s", apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("openai: %w", domain.ErrRateLimited)
	}
	return fmt.Errorf("openai: %w", err)
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// BaseURL returns the API base URL.
func (s *LLMService) BaseURL() string {
	return s.baseURL
}

// Ping validates the service is reachable by listing models.
// This checks the API key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.client.ListModels(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", wrapError(err))
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
