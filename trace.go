package reagent

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TerminalState is the final state of one run.
type TerminalState int

const (
	// StateRunning is the state of a trace while the run is in progress.
	StateRunning TerminalState = iota

	// StateSucceeded means the run produced an answer at or above the
	// confidence threshold.
	StateSucceeded

	// StateFailed means the run was terminated by a reasoning-service
	// failure or a runaway loop of consecutive tool errors.
	StateFailed

	// StateMaxIterations means the iteration budget ran out before a
	// confident answer was produced.
	StateMaxIterations

	// StateTimeout means the wall-clock budget ran out.
	StateTimeout
)

// String returns the string representation of the terminal state.
func (x TerminalState) String() string {
	return []string{"running", "succeeded", "failed", "max_iterations", "timeout"}[x]
}

// Termination reasons recorded in ExecutionTrace.Reason. They distinguish a
// reasoning-service failure from budget exhaustion and loop protection.
const (
	ReasonReasoningError = "reasoning_error"
	ReasonRunawayLoop    = "runaway_loop"
	ReasonTimeout        = "timeout"
	ReasonMaxIterations  = "max_iterations"
)

// Action is the tool invocation selected for one iteration.
type Action struct {
	Tool string
	Args map[string]any
}

// Observation is the outcome of one tool invocation. A failed invocation
// (tool error, unknown tool, invalid arguments) sets Err and leaves Data
// nil; a tool that ran but reported a negative result sets Success to false.
type Observation struct {
	Success bool
	Data    map[string]any
	Err     string
}

// ExecutionStep is one iteration of the ReAct loop.
type ExecutionStep struct {
	Iteration   int
	Thought     string
	Action      Action
	Observation Observation
	Timestamp   time.Time
}

// ExecutionTrace is the complete, ordered record of one run. Steps are
// append-only and strictly ordered; the trace is immutable once the run
// reaches a terminal state.
type ExecutionTrace struct {
	ID          string
	Steps       []ExecutionStep
	Terminal    TerminalState
	Reason      string
	FinalAnswer string
	StartedAt   time.Time
	FinishedAt  time.Time
}

func newExecutionTrace() *ExecutionTrace {
	return &ExecutionTrace{
		ID:        uuid.New().String(),
		Terminal:  StateRunning,
		StartedAt: time.Now(),
	}
}

// append adds the next step. Iteration numbers increase strictly by 1,
// starting at 1; steps are never removed or reordered.
func (t *ExecutionTrace) append(step ExecutionStep) {
	step.Iteration = len(t.Steps) + 1
	if step.Timestamp.IsZero() {
		step.Timestamp = time.Now()
	}
	t.Steps = append(t.Steps, step)
}

// finish seals the trace with a terminal state.
func (t *ExecutionTrace) finish(state TerminalState, reason, answer string) {
	t.Terminal = state
	t.Reason = reason
	t.FinalAnswer = answer
	t.FinishedAt = time.Now()
}

// ToolsUsed returns the sorted, deduplicated names of the tools the run
// actually exercised. Steps without an action, including terminal answer
// steps and rejected unknown-tool selections, are skipped.
func (t *ExecutionTrace) ToolsUsed() []string {
	seen := map[string]bool{}
	for _, step := range t.Steps {
		if step.Action.Tool == "" {
			continue
		}
		seen[step.Action.Tool] = true
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// render formats the trace for inclusion in a reasoning prompt. Only the
// most recent maxSteps steps are included to bound prompt growth.
func (t *ExecutionTrace) render(maxSteps int) string {
	if len(t.Steps) == 0 {
		return "(no steps yet)"
	}

	start := 0
	if maxSteps > 0 && len(t.Steps) > maxSteps {
		start = len(t.Steps) - maxSteps
	}

	var sb strings.Builder
	if start > 0 {
		fmt.Fprintf(&sb, "(%d earlier steps omitted)\n", start)
	}
	for _, step := range t.Steps[start:] {
		fmt.Fprintf(&sb, "Step %d:\n", step.Iteration)
		if step.Thought != "" {
			fmt.Fprintf(&sb, "  Thought: %s\n", step.Thought)
		}
		if step.Action.Tool != "" {
			fmt.Fprintf(&sb, "  Action: %s(%s)\n", step.Action.Tool, renderArgs(step.Action.Args))
		}
		if step.Observation.Err != "" {
			fmt.Fprintf(&sb, "  Observation: error: %s\n", step.Observation.Err)
		} else {
			fmt.Fprintf(&sb, "  Observation: success=%t data=%s\n",
				step.Observation.Success, renderArgs(step.Observation.Data))
		}
	}
	return sb.String()
}

func renderArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, args[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
