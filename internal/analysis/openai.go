package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 60 * time.Second
)

// Options configures an OpenAIClient. BaseURL may point at any
// OpenAI-compatible endpoint.
type Options struct {
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
	Timeout      time.Duration
	HTTPClient   *http.Client
}

// OpenAIClient calls a chat-completions endpoint in JSON mode.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	system  string
	timeout time.Duration
}

var _ Analyzer = (*OpenAIClient)(nil)

func NewOpenAIClient(opts Options) (*OpenAIClient, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("analysis: API key not set")
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	system := opts.SystemPrompt
	if system == "" {
		system = "You are an expert child psychologist. Reply with a single valid JSON object only."
	}
	return &OpenAIClient{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		system:  system,
		timeout: timeout,
	}, nil
}

// Analyze performs one bounded completion call and checks the output is JSON.
func (c *OpenAIClient) Analyze(ctx context.Context, prompt string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, newAnalysisError("completion call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, newAnalysisError("completion returned no choices")
	}

	text := stripFence(resp.Choices[0].Message.Content)
	if text == "" {
		return nil, newAnalysisError("completion returned empty content")
	}
	if !json.Valid([]byte(text)) {
		return nil, newAnalysisError("output is not valid JSON")
	}
	return json.RawMessage(text), nil
}

// stripFence removes a ```json fence some models wrap around JSON output.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
