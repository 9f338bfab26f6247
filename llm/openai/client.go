// Package openai provides an llm.Client backed by the OpenAI chat
// completion API.
package openai

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reagent/llm"
	"github.com/pkoukk/tiktoken-go"
	"github.com/sashabaranov/go-openai"
)

const DefaultModel = "gpt-4o"

// Client is a client for the OpenAI API.
type Client struct {
	// apiClient is the API client interface for dependency injection.
	apiClient apiClient

	// defaultModel is the model to use for chat completions.
	// It can be overridden using WithModel option.
	defaultModel string

	// baseURL is the custom base URL for the OpenAI API.
	// If empty, uses the default OpenAI API endpoints.
	baseURL string

	// systemPrompt is the default system prompt for completions.
	systemPrompt string
}

// Option is a function that configures a Client.
type Option func(*Client)

// WithModel sets the default model to use for chat completions.
// The model name should be a valid OpenAI model identifier.
// See default model in [DefaultModel].
func WithModel(modelName string) Option {
	return func(c *Client) {
		c.defaultModel = modelName
	}
}

// WithBaseURL sets the custom base URL for the OpenAI API.
// Allows usage with compatible endpoints, proxies, or self-hosted instances.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithSystemPrompt sets the default system prompt for completions.
func WithSystemPrompt(prompt string) Option {
	return func(c *Client) {
		c.systemPrompt = prompt
	}
}

// New creates a new client for the OpenAI API.
// It requires an API key and can be configured with additional options.
func New(ctx context.Context, apiKey string, options ...Option) (*Client, error) {
	client := &Client{
		defaultModel: DefaultModel,
	}

	for _, option := range options {
		option(client)
	}

	config := openai.DefaultConfig(apiKey)
	if client.baseURL != "" {
		config.BaseURL = client.baseURL
	}

	client.apiClient = &realAPIClient{client: openai.NewClientWithConfig(config)}

	return client, nil
}

// Complete implements llm.Client.
func (c *Client) Complete(ctx context.Context, prompt string, options ...llm.CompleteOption) (*llm.Completion, error) {
	cfg := llm.NewCompleteConfig(options...)

	systemPrompt := c.systemPrompt
	if cfg.SystemPrompt() != "" {
		systemPrompt = cfg.SystemPrompt()
	}

	var messages []openai.ChatCompletionMessage
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	req := openai.ChatCompletionRequest{
		Model:     c.defaultModel,
		Messages:  messages,
		MaxTokens: cfg.MaxTokens(),
	}
	if temp, ok := cfg.Temperature(); ok {
		req.Temperature = float32(temp)
	}
	if cfg.JSONResponse() {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.apiClient.CreateChatCompletion(ctx, req)
	if err != nil {
		opts := tokenLimitErrorOptions(err)
		return nil, goerr.Wrap(err, "failed to create chat completion", opts...)
	}
	if len(resp.Choices) == 0 {
		return nil, goerr.New("chat completion returned no choices", goerr.V("model", c.defaultModel))
	}

	return &llm.Completion{
		Text:        resp.Choices[0].Message.Content,
		InputToken:  resp.Usage.PromptTokens,
		OutputToken: resp.Usage.CompletionTokens,
	}, nil
}

// CountToken calculates the number of tokens the prompt occupies for the
// configured model. This uses tiktoken for local counting without API calls.
func (c *Client) CountToken(prompt string) (int, error) {
	encoding, err := tiktoken.EncodingForModel(c.defaultModel)
	if err != nil {
		// Fallback to cl100k_base encoding (used by gpt-4, gpt-3.5-turbo, gpt-4o, etc.)
		encoding, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return 0, goerr.Wrap(err, "failed to get encoding")
		}
	}

	return len(encoding.Encode(prompt, nil, nil)), nil
}

// tokenLimitErrorOptions checks if the error is a token limit exceeded error
// and returns goerr.Option to annotate the error. Returns nil if the error is
// not a token limit exceeded error.
func tokenLimitErrorOptions(err error) []goerr.Option {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return nil
	}

	if apiErr.Type != "invalid_request_error" {
		return nil
	}

	codeStr, ok := apiErr.Code.(string)
	if !ok {
		return nil
	}

	if codeStr == "context_length_exceeded" {
		return []goerr.Option{goerr.V("token_limit_exceeded", true)}
	}

	return nil
}
