// Package gemini provides an llm.Client backed by Gemini models on Vertex
// AI.
package gemini

import (
	"context"

	"cloud.google.com/go/vertexai/genai"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reagent/llm"
	"google.golang.org/api/option"
)

const DefaultModel = "gemini-2.0-flash"

// Client is a client for the Gemini API.
// It provides methods to interact with Google's Gemini models.
type Client struct {
	projectID string
	location  string

	// client is the underlying Gemini client.
	client *genai.Client

	// defaultModel is the model to use for chat completions.
	// It can be overridden using WithModel option.
	defaultModel string

	// gcpOptions are additional options for Google Cloud Platform.
	// They can be set using WithGoogleCloudOptions.
	gcpOptions []option.ClientOption

	// systemPrompt is the default system prompt for completions.
	systemPrompt string
}

// Option is a configuration option for the Gemini client.
type Option func(*Client)

// WithModel sets the model to use for text generation.
// See default model in [DefaultModel].
func WithModel(model string) Option {
	return func(c *Client) {
		c.defaultModel = model
	}
}

// WithGoogleCloudOptions sets additional Google Cloud options.
// These can include authentication credentials, endpoint overrides, etc.
func WithGoogleCloudOptions(opts ...option.ClientOption) Option {
	return func(c *Client) {
		c.gcpOptions = append(c.gcpOptions, opts...)
	}
}

// WithSystemPrompt sets the default system prompt for completions.
func WithSystemPrompt(prompt string) Option {
	return func(c *Client) {
		c.systemPrompt = prompt
	}
}

// New creates a new client for the Gemini API.
// It requires a project ID and location, and can be configured with additional options.
func New(ctx context.Context, projectID, location string, options ...Option) (*Client, error) {
	if projectID == "" {
		return nil, goerr.New("projectID is required")
	}
	if location == "" {
		return nil, goerr.New("location is required")
	}

	client := &Client{
		projectID:    projectID,
		location:     location,
		defaultModel: DefaultModel,
	}

	for _, option := range options {
		option(client)
	}

	newClient, err := genai.NewClient(ctx, projectID, location, client.gcpOptions...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Gemini client",
			goerr.V("project_id", projectID), goerr.V("location", location))
	}
	client.client = newClient

	return client, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// Complete implements llm.Client.
func (c *Client) Complete(ctx context.Context, prompt string, options ...llm.CompleteOption) (*llm.Completion, error) {
	cfg := llm.NewCompleteConfig(options...)

	model := c.client.GenerativeModel(c.defaultModel)
	if temp, ok := cfg.Temperature(); ok {
		model.SetTemperature(float32(temp))
	}
	if cfg.MaxTokens() > 0 {
		model.SetMaxOutputTokens(int32(cfg.MaxTokens()))
	}
	if cfg.JSONResponse() {
		model.GenerationConfig.ResponseMIMEType = "application/json"
	}

	system := c.systemPrompt
	if cfg.SystemPrompt() != "" {
		system = cfg.SystemPrompt()
	}
	if system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content", goerr.V("model", c.defaultModel))
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, goerr.New("generation returned no candidates", goerr.V("model", c.defaultModel))
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	if text == "" {
		return nil, goerr.New("generation returned no text", goerr.V("model", c.defaultModel))
	}

	completion := &llm.Completion{Text: text}
	if resp.UsageMetadata != nil {
		completion.InputToken = int(resp.UsageMetadata.PromptTokenCount)
		completion.OutputToken = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return completion, nil
}
