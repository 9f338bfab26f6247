package reagent

import (
	"context"
	"encoding/json"
	"time"

	"github.com/m-mizutani/reagent/llm"
)

// StrategyStep is one advisory step of a strategy: what to do and, when one
// clearly applies, which tool to use.
type StrategyStep struct {
	Intent        string `json:"intent"`
	SuggestedTool string `json:"tool"`
}

// Strategy is an ordered, advisory outline of how to approach a task. The
// executor consults it but is free to deviate; it never constrains which
// tools may be invoked.
type Strategy []StrategyStep

// DefaultRecallTimeout bounds how long planning waits for memory recall. A
// slow or stuck memory store degrades planning, it never stalls it.
const DefaultRecallTimeout = 500 * time.Millisecond

// DefaultRecallK is how many past entries are recalled into the plan prompt.
const DefaultRecallK = 3

const defaultPlanTemperature = 0.3

// Planner proposes a strategy for a task before execution starts. Planning
// is best effort end to end: on any failure it degrades to a minimal
// single-step strategy rather than failing the run.
type Planner struct {
	llm           llm.Client
	memory        Memory
	specs         []ToolSpec
	recallK       int
	recallTimeout time.Duration
	temperature   float64
}

// PlannerOption is the type for options of NewPlanner.
type PlannerOption func(*Planner)

// WithPlannerMemory attaches a memory store whose recalled entries are fed
// into the plan prompt.
func WithPlannerMemory(memory Memory) PlannerOption {
	return func(p *Planner) {
		p.memory = memory
	}
}

// WithRecallK sets how many past entries are recalled per plan.
func WithRecallK(k int) PlannerOption {
	return func(p *Planner) {
		p.recallK = k
	}
}

// WithRecallTimeout bounds the memory recall wait.
func WithRecallTimeout(d time.Duration) PlannerOption {
	return func(p *Planner) {
		p.recallTimeout = d
	}
}

// WithPlanTemperature sets the sampling temperature for plan generation.
func WithPlanTemperature(t float64) PlannerOption {
	return func(p *Planner) {
		p.temperature = t
	}
}

// NewPlanner creates a planner over the given completion client and tool
// catalog.
func NewPlanner(client llm.Client, specs []ToolSpec, options ...PlannerOption) *Planner {
	p := &Planner{
		llm:           client,
		specs:         specs,
		recallK:       DefaultRecallK,
		recallTimeout: DefaultRecallTimeout,
		temperature:   defaultPlanTemperature,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Plan proposes a strategy for the task. Memory recall and plan generation
// both degrade gracefully: Plan always returns a usable strategy.
func (p *Planner) Plan(ctx context.Context, task Task) Strategy {
	logger := LoggerFromContext(ctx)

	recalled := p.recallWithTimeout(ctx, task)

	prompt := buildPlanPrompt(task, p.specs, recalled)
	resp, err := p.llm.Complete(ctx, prompt,
		llm.WithTemperature(p.temperature),
		llm.WithJSONResponse(),
	)
	if err != nil {
		logger.Warn("plan generation failed, using fallback strategy", "error", err)
		return fallbackStrategy()
	}

	strategy, err := parseStrategy(resp.Text)
	if err != nil {
		logger.Warn("plan response unparsable, using fallback strategy", "error", err)
		return fallbackStrategy()
	}

	logger.Debug("strategy planned", "steps", len(strategy), "recalled", len(recalled))
	return strategy
}

// recallWithTimeout races memory recall against the recall budget. The
// recall goroutine keeps its own context so it can observe the deadline and
// stop instead of leaking.
func (p *Planner) recallWithTimeout(ctx context.Context, task Task) []MemoryEntry {
	if p.memory == nil {
		return nil
	}

	logger := LoggerFromContext(ctx)
	recallCtx, cancel := context.WithTimeout(ctx, p.recallTimeout)
	defer cancel()

	type recallResult struct {
		entries []MemoryEntry
		err     error
	}
	done := make(chan recallResult, 1)
	go func() {
		entries, err := p.memory.Recall(recallCtx, task, p.recallK)
		done <- recallResult{entries: entries, err: err}
	}()

	select {
	case <-recallCtx.Done():
		logger.Warn("memory recall timed out, planning without experience")
		return nil
	case result := <-done:
		if result.err != nil {
			logger.Warn("memory recall failed, planning without experience", "error", result.err)
			return nil
		}
		return result.entries
	}
}

func parseStrategy(text string) (Strategy, error) {
	var parsed struct {
		Steps []StrategyStep `json:"steps"`
	}
	if err := json.Unmarshal([]byte(extractJSON(text)), &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Steps) == 0 {
		return fallbackStrategy(), nil
	}
	return Strategy(parsed.Steps), nil
}

func fallbackStrategy() Strategy {
	return Strategy{
		{Intent: "analyze the task and select tools as needed"},
	}
}
