package reagent

import "time"

// AgentResult is the outcome of one run. It is returned to the caller
// unconditionally: a failed or budget-exhausted run still carries its trace,
// which is the primary debugging and audit artifact. Trace.Terminal is the
// authoritative signal of whether Answer should be trusted.
type AgentResult struct {
	Answer     string
	Confidence float64
	Trace      *ExecutionTrace
	ToolsUsed  []string
	Elapsed    time.Duration
}

// Succeeded reports whether the run terminated with a confident answer.
func (r *AgentResult) Succeeded() bool {
	return r.Trace != nil && r.Trace.Terminal == StateSucceeded
}
