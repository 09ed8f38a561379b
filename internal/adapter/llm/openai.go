package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"cortex/config"
	"cortex/internal/port"
)

const (
	DefaultModel       = "ollama:phi3"
	DefaultGeminiModel = "gemini-2.0-flash-exp"
	DefaultGrokModel   = "grok-2-latest"

	ollamaPrefix = "ollama:"
	openAIPrefix = "openai:"

	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	xaiBaseURL    = "https://api.x.ai/v1"
)

// Client talks to any OpenAI-compatible chat completions endpoint.
type Client struct {
	client      *openai.Client
	model       string
	name        string
	temperature float32
	timeout     time.Duration
}

var _ port.LLM = (*Client)(nil)

// ResolveModel picks the model to use: the configured one, else a hosted
// model whose key is present, else the local default.
func ResolveModel(cfg config.LLMConfig) string {
	if model := strings.TrimSpace(cfg.Model); model != "" {
		return model
	}
	if cfg.GeminiKey() != "" {
		return DefaultGeminiModel
	}
	if cfg.XAIKey() != "" {
		return DefaultGrokModel
	}
	return DefaultModel
}

// CanUse reports whether model can be called with the available credentials.
func CanUse(model string, cfg config.LLMConfig) bool {
	m := strings.ToLower(strings.TrimSpace(model))
	switch {
	case strings.HasPrefix(m, ollamaPrefix):
		return true
	case strings.Contains(m, "gemini"):
		return cfg.GeminiKey() != ""
	case strings.HasPrefix(m, "grok"), strings.Contains(m, "xai"):
		return cfg.XAIKey() != ""
	case strings.HasPrefix(m, openAIPrefix):
		return cfg.OpenAIKey() != "" || cfg.OpenAIBaseURL != ""
	default:
		return false
	}
}

// New returns a client for model. It does not check credentials; use CanUse
// first.
func New(model string, cfg config.LLMConfig) (*Client, error) {
	model = strings.TrimSpace(model)
	lower := strings.ToLower(model)

	var (
		oc   openai.ClientConfig
		name = model
	)
	switch {
	case strings.HasPrefix(lower, ollamaPrefix):
		name = model[len(ollamaPrefix):]
		oc = openai.DefaultConfig("ollama")
		oc.BaseURL = strings.TrimRight(cfg.OllamaHost, "/") + "/v1"
	case strings.Contains(lower, "gemini"):
		oc = openai.DefaultConfig(cfg.GeminiKey())
		oc.BaseURL = geminiBaseURL
	case strings.HasPrefix(lower, "grok"), strings.Contains(lower, "xai"):
		oc = openai.DefaultConfig(cfg.XAIKey())
		oc.BaseURL = xaiBaseURL
	case strings.HasPrefix(lower, openAIPrefix):
		name = model[len(openAIPrefix):]
		oc = openai.DefaultConfig(cfg.OpenAIKey())
		if cfg.OpenAIBaseURL != "" {
			oc.BaseURL = cfg.OpenAIBaseURL
		}
	default:
		return nil, fmt.Errorf("unsupported model %q", model)
	}
	if name == "" {
		return nil, fmt.Errorf("model name missing in %q", model)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return &Client{
		client:      openai.NewClientWithConfig(oc),
		model:       model,
		name:        name,
		temperature: float32(cfg.Temperature),
		timeout:     timeout,
	}, nil
}

// Usable returns a client for model, or nil when the model cannot be used.
func Usable(model string, cfg config.LLMConfig) port.LLM {
	if !CanUse(model, cfg) {
		return nil
	}
	c, err := New(model, cfg)
	if err != nil {
		return nil
	}
	return c
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	})
}

func (c *Client) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: userPrompt},
	})
}

func (c *Client) ModelName() string {
	return c.model
}

func (c *Client) complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.name,
		Messages:    messages,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("create chat completion (%s): %w", c.model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion (%s) returned no choices", c.model)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
