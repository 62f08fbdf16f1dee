// Package anthropic talks to Claude over the Messages API so prompts can be
// reformatted by an Anthropic model.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/promptlens/internal/core/domain"
	"github.com/custodia-labs/promptlens/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultModel   = "claude-3-5-sonnet-latest"
	DefaultTimeout = 120 * time.Second

	anthropicVersion = "2023-06-01"

	// defaultMaxTokens caps a reformatted prompt when the caller sets no
	// limit. Messages rejects requests without one.
	defaultMaxTokens = 4096

	// maxErrorBody bounds how much of a failed reply ends up in an error.
	maxErrorBody = 512
)

// Config selects the account, endpoint and model used for reformatting.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration

	// HTTPClient replaces the default client, for tests.
	HTTPClient *http.Client
}

// LLMService sends reformat conversations to Claude.
type LLMService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

type messagesRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesReply struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewLLMService returns a Claude client. Only the API key is required.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("claude reformatting needs an API key")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	return &LLMService{
		client:  client,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   model,
	}, nil
}

// Chat sends the reformat conversation and returns Claude's text. System
// turns become the top-level system prompt; the last one wins.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	body := messagesRequest{
		Model:     s.model,
		MaxTokens: opts.MaxTokens,
		Messages:  make([]message, 0, len(messages)),
	}
	if body.MaxTokens <= 0 {
		body.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature > 0 {
		body.Temperature = opts.Temperature
	}
	for _, m := range messages {
		if m.Role == driven.RoleSystem {
			body.System = m.Content
			continue
		}
		body.Messages = append(body.Messages, message{Role: m.Role, Content: m.Content})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode reformat request: %w", err)
	}

	status, raw, err := s.do(ctx, http.MethodPost, "/v1/messages", payload)
	if err != nil {
		return "", err
	}
	if status == http.StatusTooManyRequests {
		return "", fmt.Errorf("claude %s: %w", s.model, domain.ErrRateLimited)
	}

	var reply messagesReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return "", fmt.Errorf("claude %s: decode reply (status %d): %w", s.model, status, err)
	}
	if reply.Error != nil {
		return "", fmt.Errorf("claude %s rejected the prompt: %s", s.model, reply.Error.Message)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("claude %s: status %d: %s", s.model, status, clip(raw))
	}

	var text strings.Builder
	for _, block := range reply.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("claude %s: empty reply (stop reason %q)", s.model, reply.StopReason)
	}
	return text.String(), nil
}

// ModelName returns the Claude model prompts are sent to.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping lists models to check the key and endpoint without spending tokens.
// Only `settings ai` calls it.
func (s *LLMService) Ping(ctx context.Context) error {
	status, raw, err := s.do(ctx, http.MethodGet, "/v1/models", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("claude at %s answered %d: %s", s.baseURL, status, clip(raw))
	}
	return nil
}

// Close is a no-op; the HTTP client holds nothing that needs releasing.
func (s *LLMService) Close() error {
	return nil
}

// do sends one authenticated request and returns the status and body.
func (s *LLMService) do(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	var body io.Reader = http.NoBody
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("build claude request: %w", err)
	}
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("reach claude at %s: %w", s.baseURL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read claude reply: %w", err)
	}
	return resp.StatusCode, raw, nil
}

func clip(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
