// Package claude provides an llm.Client backed by Anthropic's Claude
// messages API.
package claude

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reagent/llm"
)

const defaultMaxTokens = 4096

// jsonSystemPrompt is added when a JSON response is requested. The messages
// API has no JSON response format, so the instruction goes through the
// system prompt and the reply is parsed by the caller.
const jsonSystemPrompt = "Respond with a single valid JSON object and nothing else. No markdown fences, no prose."

// Client is a client for the Claude API.
// It provides methods to interact with Anthropic's Claude models.
type Client struct {
	// apiClient is the API client interface for dependency injection.
	apiClient apiClient

	// defaultModel is the model to use for chat completions.
	// It can be overridden using WithModel option.
	defaultModel string

	// systemPrompt is the default system prompt for completions.
	systemPrompt string
}

// Option is a function that configures a Client.
type Option func(*Client)

// WithModel sets the default model to use for chat completions.
// The model name should be a valid Claude model identifier.
// Default: anthropic.ModelClaude3_5SonnetLatest
func WithModel(modelName string) Option {
	return func(c *Client) {
		c.defaultModel = modelName
	}
}

// WithSystemPrompt sets the default system prompt for completions.
func WithSystemPrompt(prompt string) Option {
	return func(c *Client) {
		c.systemPrompt = prompt
	}
}

// New creates a new client for the Claude API.
// It requires an API key and can be configured with additional options.
func New(ctx context.Context, apiKey string, options ...Option) (*Client, error) {
	client := &Client{
		defaultModel: anthropic.ModelClaude3_5SonnetLatest,
	}

	for _, option := range options {
		option(client)
	}

	newClient := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	client.apiClient = &realAPIClient{client: &newClient}

	return client, nil
}

// Complete implements llm.Client.
func (c *Client) Complete(ctx context.Context, prompt string, options ...llm.CompleteOption) (*llm.Completion, error) {
	cfg := llm.NewCompleteConfig(options...)

	maxTokens := int64(defaultMaxTokens)
	if cfg.MaxTokens() > 0 {
		maxTokens = int64(cfg.MaxTokens())
	}

	params := anthropic.MessageNewParams{
		Model:     c.defaultModel,
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if temp, ok := cfg.Temperature(); ok {
		params.Temperature = anthropic.Float(temp)
	}
	if system := c.buildSystemPrompt(cfg); system != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: system},
		}
	}

	resp, err := c.apiClient.MessagesNew(ctx, params)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create message", goerr.V("model", c.defaultModel))
	}

	var text string
	for _, content := range resp.Content {
		if content.Type == "text" {
			text += content.Text
		}
	}
	if text == "" {
		return nil, goerr.New("message response contained no text", goerr.V("model", c.defaultModel))
	}

	return &llm.Completion{
		Text:        text,
		InputToken:  int(resp.Usage.InputTokens),
		OutputToken: int(resp.Usage.OutputTokens),
	}, nil
}

func (c *Client) buildSystemPrompt(cfg llm.CompleteConfig) string {
	system := c.systemPrompt
	if cfg.SystemPrompt() != "" {
		system = cfg.SystemPrompt()
	}

	if cfg.JSONResponse() {
		if system == "" {
			return jsonSystemPrompt
		}
		return system + "\n\n" + jsonSystemPrompt
	}
	return system
}
