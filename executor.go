package reagent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/m-mizutani/reagent/llm"
)

// DefaultMaxConsecutiveToolErrors is the runaway-loop bound: this many tool
// failures in a row terminate the run.
const DefaultMaxConsecutiveToolErrors = 3

// confidenceCapMargin keeps forced-termination confidence strictly below the
// success threshold so callers cannot mistake a best-effort answer for a
// confident one.
const confidenceCapMargin = 0.01

const (
	defaultThoughtTemperature = 0.7
	defaultActionTemperature  = 0.2
	defaultAnswerTemperature  = 0.1
)

// Executor runs the ReAct loop for one task: reason about the current state,
// invoke a tool, observe the result, repeat until a confident answer or a
// budget runs out. All failures are encoded in the returned trace; the loop
// itself never aborts with an error.
type Executor struct {
	llm      llm.Client
	registry *Registry

	thoughtTemperature   float64
	actionTemperature    float64
	answerTemperature    float64
	maxConsecutiveErrors int
}

// ExecutorOption is the type for options of NewExecutor.
type ExecutorOption func(*Executor)

// WithThoughtTemperature sets the sampling temperature for reasoning steps.
func WithThoughtTemperature(t float64) ExecutorOption {
	return func(e *Executor) {
		e.thoughtTemperature = t
	}
}

// WithActionTemperature sets the sampling temperature for action selection.
func WithActionTemperature(t float64) ExecutorOption {
	return func(e *Executor) {
		e.actionTemperature = t
	}
}

// WithAnswerTemperature sets the sampling temperature for the final answer.
func WithAnswerTemperature(t float64) ExecutorOption {
	return func(e *Executor) {
		e.answerTemperature = t
	}
}

// WithMaxConsecutiveToolErrors overrides the runaway-loop bound.
func WithMaxConsecutiveToolErrors(n int) ExecutorOption {
	return func(e *Executor) {
		e.maxConsecutiveErrors = n
	}
}

// NewExecutor creates an executor over the given completion client and tool
// registry.
func NewExecutor(client llm.Client, registry *Registry, options ...ExecutorOption) *Executor {
	e := &Executor{
		llm:                  client,
		registry:             registry,
		thoughtTemperature:   defaultThoughtTemperature,
		actionTemperature:    defaultActionTemperature,
		answerTemperature:    defaultAnswerTemperature,
		maxConsecutiveErrors: DefaultMaxConsecutiveToolErrors,
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

type thoughtResponse struct {
	Thought   string `json:"thought"`
	CanAnswer bool   `json:"can_answer"`
}

type actionResponse struct {
	Tool       string         `json:"tool"`
	Parameters map[string]any `json:"parameters"`
}

type answerResponse struct {
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
}

// Run executes the task under its constraints. The caller is expected to
// apply the task's wall-clock budget as a deadline on ctx. The returned
// trace is always terminal; the float is the confidence of the final answer.
func (e *Executor) Run(ctx context.Context, task Task, strategy Strategy) (*ExecutionTrace, float64) {
	logger := LoggerFromContext(ctx)
	constraints := task.Constraints.withDefaults()
	specs := e.registry.Specs()
	trace := newExecutionTrace()

	// Best answer seen so far, kept for forced termination.
	var bestAnswer string
	var bestConfidence float64

	// Unbroken run of failed tool observations. Rejected low-confidence
	// answer attempts are recorded in the trace but are not tool failures,
	// so they reset the streak instead of feeding it.
	toolErrStreak := 0

	for iteration := 1; iteration <= constraints.MaxIterations; iteration++ {
		if timedOut(ctx) {
			e.finishTimeout(trace, bestAnswer)
			return trace, cappedConfidence(bestConfidence, constraints.ConfidenceThreshold)
		}

		thought, err := e.think(ctx, task, specs, strategy, trace)
		if err != nil {
			if isDeadline(ctx, err) {
				e.finishTimeout(trace, bestAnswer)
				return trace, cappedConfidence(bestConfidence, constraints.ConfidenceThreshold)
			}
			logger.Error("reasoning failed, terminating run", "error", err, "iteration", iteration)
			trace.finish(StateFailed, ReasonReasoningError, bestAnswer)
			return trace, cappedConfidence(bestConfidence, constraints.ConfidenceThreshold)
		}
		logger.Debug("thought", "iteration", iteration, "can_answer", thought.CanAnswer)

		if thought.CanAnswer {
			answer, err := e.answer(ctx, task, trace)
			if err != nil {
				if isDeadline(ctx, err) {
					e.finishTimeout(trace, bestAnswer)
					return trace, cappedConfidence(bestConfidence, constraints.ConfidenceThreshold)
				}
				logger.Error("answer generation failed, terminating run", "error", err)
				trace.finish(StateFailed, ReasonReasoningError, bestAnswer)
				return trace, cappedConfidence(bestConfidence, constraints.ConfidenceThreshold)
			}

			if answer.Confidence > bestConfidence {
				bestAnswer, bestConfidence = answer.Answer, answer.Confidence
			}

			if answer.Confidence >= constraints.ConfidenceThreshold {
				trace.append(ExecutionStep{
					Thought:     thought.Thought,
					Observation: Observation{Success: true},
				})
				trace.finish(StateSucceeded, "", answer.Answer)
				logger.Info("task succeeded", "iterations", len(trace.Steps), "confidence", answer.Confidence)
				return trace, answer.Confidence
			}

			// Not confident enough yet: record the attempt and keep working.
			trace.append(ExecutionStep{
				Thought: thought.Thought,
				Observation: Observation{
					Success: false,
					Err:     fmt.Sprintf("answer confidence %.2f below threshold %.2f", answer.Confidence, constraints.ConfidenceThreshold),
				},
			})
			toolErrStreak = 0
			continue
		}

		step := e.act(ctx, task, specs, trace, thought.Thought)
		trace.append(step)
		logger.Debug("action observed",
			"iteration", iteration,
			"tool", step.Action.Tool,
			"success", step.Observation.Success,
			"error", step.Observation.Err,
		)

		// An expired deadline outranks loop protection.
		if timedOut(ctx) {
			e.finishTimeout(trace, bestAnswer)
			return trace, cappedConfidence(bestConfidence, constraints.ConfidenceThreshold)
		}

		if step.Observation.Success {
			toolErrStreak = 0
		} else {
			toolErrStreak++
		}
		if toolErrStreak >= e.maxConsecutiveErrors {
			logger.Warn("consecutive tool failures exceeded bound, terminating run",
				"failures", toolErrStreak)
			trace.finish(StateFailed, ReasonRunawayLoop, bestAnswer)
			return trace, cappedConfidence(bestConfidence, constraints.ConfidenceThreshold)
		}
	}

	answer := bestAnswer
	if answer == "" {
		answer = "unable to reach a confident answer within the iteration budget"
	}
	trace.finish(StateMaxIterations, ReasonMaxIterations, answer)
	logger.Warn("iteration budget exhausted", "iterations", len(trace.Steps))
	return trace, cappedConfidence(bestConfidence, constraints.ConfidenceThreshold)
}

// think asks the model to reason about the current state and decide whether
// it can answer.
func (e *Executor) think(ctx context.Context, task Task, specs []ToolSpec, strategy Strategy, trace *ExecutionTrace) (*thoughtResponse, error) {
	prompt := buildThoughtPrompt(task, specs, strategy, trace)
	resp, err := e.llm.Complete(ctx, prompt,
		llm.WithTemperature(e.thoughtTemperature),
		llm.WithJSONResponse(),
	)
	if err != nil {
		return nil, err
	}

	var thought thoughtResponse
	if err := json.Unmarshal([]byte(extractJSON(resp.Text)), &thought); err != nil {
		// An unparsable thought is not fatal: treat the raw text as the
		// reasoning and keep going.
		return &thoughtResponse{Thought: resp.Text}, nil
	}
	return &thought, nil
}

// act asks the model to select a tool, validates the proposed arguments and
// invokes the tool. Every failure mode becomes an observation error so the
// model can self-correct on the next iteration.
func (e *Executor) act(ctx context.Context, task Task, specs []ToolSpec, trace *ExecutionTrace, thought string) ExecutionStep {
	step := ExecutionStep{Thought: thought}

	prompt := buildActionPrompt(task, specs, trace, thought)
	resp, err := e.llm.Complete(ctx, prompt,
		llm.WithTemperature(e.actionTemperature),
		llm.WithJSONResponse(),
	)
	if err != nil {
		step.Observation = Observation{Err: fmt.Sprintf("action selection failed: %v", err)}
		return step
	}

	var action actionResponse
	if err := json.Unmarshal([]byte(extractJSON(resp.Text)), &action); err != nil || action.Tool == "" {
		step.Observation = Observation{Err: "action selection produced no valid tool invocation"}
		return step
	}

	tool, ok := e.registry.Lookup(action.Tool)
	if !ok {
		// The rejected name stays out of the action record so ToolsUsed only
		// reports tools that exist; the error still names it for the next
		// thought.
		step.Observation = Observation{Err: fmt.Sprintf("unknown tool: %s", action.Tool)}
		return step
	}
	step.Action = Action{Tool: action.Tool, Args: action.Parameters}
	if err := e.registry.ValidateArgs(action.Tool, action.Parameters); err != nil {
		step.Observation = Observation{Err: fmt.Sprintf("invalid arguments: %v", err)}
		return step
	}

	data, err := safeRun(ctx, tool, action.Parameters)
	if err != nil {
		step.Observation = Observation{Err: err.Error()}
		return step
	}

	step.Observation = Observation{Success: true, Data: data}
	// A tool that ran but reports success=false is a negative result.
	if flag, ok := data["success"].(bool); ok && !flag {
		step.Observation.Success = false
	}
	return step
}

// answer asks the model for the final answer and a self-assessed confidence.
func (e *Executor) answer(ctx context.Context, task Task, trace *ExecutionTrace) (*answerResponse, error) {
	prompt := buildFinalAnswerPrompt(task, trace)
	resp, err := e.llm.Complete(ctx, prompt,
		llm.WithTemperature(e.answerTemperature),
		llm.WithJSONResponse(),
	)
	if err != nil {
		return nil, err
	}

	var answer answerResponse
	if err := json.Unmarshal([]byte(extractJSON(resp.Text)), &answer); err != nil {
		// Degrade to the raw text with zero confidence rather than failing
		// the run over a formatting slip.
		return &answerResponse{Answer: resp.Text}, nil
	}

	if answer.Confidence < 0 {
		answer.Confidence = 0
	}
	if answer.Confidence > 1 {
		answer.Confidence = 1
	}
	return &answer, nil
}

// safeRun invokes the tool and converts a panic into an error so a misbehaving
// tool cannot take down the run.
func safeRun(ctx context.Context, tool Tool, args map[string]any) (data map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = fmt.Errorf("tool panicked: %v", r)
		}
	}()
	return tool.Run(ctx, args)
}

func (e *Executor) finishTimeout(trace *ExecutionTrace, bestAnswer string) {
	trace.append(ExecutionStep{
		Observation: Observation{Err: "timeout"},
	})
	trace.finish(StateTimeout, ReasonTimeout, bestAnswer)
}

func timedOut(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.DeadlineExceeded)
}

func isDeadline(ctx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
}

// cappedConfidence caps a forced-termination confidence strictly below the
// success threshold.
func cappedConfidence(best, threshold float64) float64 {
	limit := threshold - confidenceCapMargin
	if limit < 0 {
		limit = 0
	}
	if best > limit {
		return limit
	}
	return best
}
