package reagent_test

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/m-mizutani/reagent"
	"github.com/m-mizutani/reagent/llm"
)

// mockLLMClient replays scripted responses in call order. Errors can be
// injected at specific call indexes.
type mockLLMClient struct {
	mu        sync.Mutex
	responses []string
	errs      map[int]error
	calls     int
	prompts   []string
}

func (m *mockLLMClient) Complete(ctx context.Context, prompt string, options ...llm.CompleteOption) (*llm.Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.calls
	m.calls++
	m.prompts = append(m.prompts, prompt)

	if err, ok := m.errs[idx]; ok {
		return nil, err
	}
	if idx >= len(m.responses) {
		return nil, errors.New("mock ran out of scripted responses")
	}
	return &llm.Completion{Text: m.responses[idx], InputToken: 10, OutputToken: 5}, nil
}

func (m *mockLLMClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// promptDrivenClient answers by prompt shape instead of call order, which
// makes it safe for concurrent runs.
type promptDrivenClient struct {
	mu       sync.Mutex
	inFlight int
	maxSeen  int
}

func (m *promptDrivenClient) Complete(ctx context.Context, prompt string, options ...llm.CompleteOption) (*llm.Completion, error) {
	m.mu.Lock()
	m.inFlight++
	if m.inFlight > m.maxSeen {
		m.maxSeen = m.inFlight
	}
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	var text string
	switch {
	case strings.Contains(prompt, `"can_answer"`):
		text = `{"thought": "the task context already contains the answer", "can_answer": true}`
	case strings.Contains(prompt, `"confidence"`):
		text = `{"answer": "done", "confidence": 0.9}`
	case strings.Contains(prompt, `"parameters"`):
		text = `{"tool": "echo", "parameters": {"message": "hi"}}`
	default:
		text = `{"steps": [{"intent": "answer directly", "tool": ""}]}`
	}
	return &llm.Completion{Text: text}, nil
}

// echoTool returns its message argument unchanged.
type echoTool struct {
	mu    sync.Mutex
	calls int
}

func (t *echoTool) Spec() reagent.ToolSpec {
	return reagent.ToolSpec{
		Name:        "echo",
		Description: "Returns the given message",
		Parameters: map[string]*reagent.Parameter{
			"message": {
				Type:        reagent.TypeString,
				Description: "Message to return",
				Required:    true,
			},
		},
	}
}

func (t *echoTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	t.mu.Lock()
	t.calls++
	t.mu.Unlock()
	return map[string]any{"message": args["message"]}, nil
}

// failingTool always returns an error.
type failingTool struct{}

func (t *failingTool) Spec() reagent.ToolSpec {
	return reagent.ToolSpec{
		Name:        "flaky",
		Description: "Always fails",
	}
}

func (t *failingTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	return nil, errors.New("backend unavailable")
}

// checkTool runs fine but reports a negative result.
type checkTool struct{}

func (t *checkTool) Spec() reagent.ToolSpec {
	return reagent.ToolSpec{
		Name:        "check",
		Description: "Always reports a failed check",
	}
}

func (t *checkTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	return map[string]any{"success": false, "detail": "value out of band"}, nil
}

// panickyTool panics when run.
type panickyTool struct{}

func (t *panickyTool) Spec() reagent.ToolSpec {
	return reagent.ToolSpec{
		Name:        "unstable",
		Description: "Panics when run",
	}
}

func (t *panickyTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	panic("boom")
}

// slowMemory blocks on Recall until the context is done.
type slowMemory struct {
	stored []reagent.MemoryEntry
	mu     sync.Mutex
}

func (m *slowMemory) Recall(ctx context.Context, task reagent.Task, k int) ([]reagent.MemoryEntry, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (m *slowMemory) Store(ctx context.Context, task reagent.Task, result *reagent.AgentResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored = append(m.stored, reagent.NewMemoryEntry(task, result))
	return nil
}
