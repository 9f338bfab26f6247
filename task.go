package reagent

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

const (
	// DefaultMaxIterations is the maximum number of ReAct iterations per run
	// when the task does not specify its own limit.
	DefaultMaxIterations = 15

	// DefaultConfidenceThreshold is the minimum self-reported confidence
	// required to accept a final answer.
	DefaultConfidenceThreshold = 0.7

	// DefaultTimeout is the wall-clock budget for one run when the task does
	// not specify its own deadline.
	DefaultTimeout = 5 * time.Minute
)

// Constraints bound a single run: iteration budget, the confidence required
// to accept an answer, and the wall-clock deadline.
type Constraints struct {
	MaxIterations       int
	ConfidenceThreshold float64
	Timeout             time.Duration
}

// withDefaults fills zero-valued constraints with the package defaults.
func (c Constraints) withDefaults() Constraints {
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.ConfidenceThreshold <= 0 {
		c.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Task is the immutable input of one run. Description is the natural
// language instruction, Context carries arbitrary structured data the tools
// may read, and Constraints bound the run. A Task is created once per
// invocation and never mutated by the engine.
type Task struct {
	Description string
	Context     map[string]any
	Constraints Constraints
}

// Validate checks that the task is executable.
func (t *Task) Validate() error {
	if t.Description == "" {
		return goerr.Wrap(ErrInvalidTask, "description is required")
	}
	if t.Constraints.ConfidenceThreshold > 1 {
		return goerr.Wrap(ErrInvalidTask, "confidence threshold must be in [0,1]",
			goerr.V("threshold", t.Constraints.ConfidenceThreshold))
	}
	return nil
}
