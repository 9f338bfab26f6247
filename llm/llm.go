// Package llm defines the completion-service boundary of the engine and a
// retry policy for transient failures. Provider implementations live in the
// subpackages openai, claude and gemini.
package llm

import "context"

// Client is a client for a text completion service. Implementations must
// honor context cancellation: an expired deadline aborts the in-flight call.
type Client interface {
	Complete(ctx context.Context, prompt string, options ...CompleteOption) (*Completion, error)
}

// Completion is the result of one completion call.
type Completion struct {
	Text        string
	InputToken  int
	OutputToken int
}

// CompleteConfig carries per-call sampling parameters. Different call sites
// use different temperature profiles: reasoning benefits from diversity,
// action selection must be precise.
type CompleteConfig struct {
	temperature  *float64
	maxTokens    int
	jsonResponse bool
	systemPrompt string
}

// NewCompleteConfig applies the options and returns the resulting config.
func NewCompleteConfig(options ...CompleteOption) CompleteConfig {
	var cfg CompleteConfig
	for _, opt := range options {
		opt(&cfg)
	}
	return cfg
}

// Temperature returns the requested temperature and whether one was set.
func (c CompleteConfig) Temperature() (float64, bool) {
	if c.temperature == nil {
		return 0, false
	}
	return *c.temperature, true
}

// MaxTokens returns the output token limit. Zero means provider default.
func (c CompleteConfig) MaxTokens() int {
	return c.maxTokens
}

// JSONResponse reports whether the caller expects a JSON object response.
func (c CompleteConfig) JSONResponse() bool {
	return c.jsonResponse
}

// SystemPrompt returns the system prompt for the call. Empty means the
// provider default.
func (c CompleteConfig) SystemPrompt() string {
	return c.systemPrompt
}

// CompleteOption is the type for per-call options of Complete.
type CompleteOption func(*CompleteConfig)

// WithTemperature sets the sampling temperature for the call.
func WithTemperature(temperature float64) CompleteOption {
	return func(c *CompleteConfig) {
		c.temperature = &temperature
	}
}

// WithMaxTokens limits the number of output tokens for the call.
func WithMaxTokens(maxTokens int) CompleteOption {
	return func(c *CompleteConfig) {
		c.maxTokens = maxTokens
	}
}

// WithJSONResponse requests a JSON object response from the provider.
// Callers must still parse defensively; not every provider enforces it.
func WithJSONResponse() CompleteOption {
	return func(c *CompleteConfig) {
		c.jsonResponse = true
	}
}

// WithSystemPrompt sets the system prompt for the call.
func WithSystemPrompt(prompt string) CompleteOption {
	return func(c *CompleteConfig) {
		c.systemPrompt = prompt
	}
}
