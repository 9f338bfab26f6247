package reagent

// Accessors for package internals used by black-box tests.

var (
	ExtractJSON      = extractJSON
	CappedConfidence = cappedConfidence
	FallbackStrategy = fallbackStrategy
	TruncateUTF8     = truncateUTF8
)

func NewTrace() *ExecutionTrace {
	return newExecutionTrace()
}

func (t *ExecutionTrace) Append(step ExecutionStep) {
	t.append(step)
}

func (t *ExecutionTrace) Finish(state TerminalState, reason, answer string) {
	t.finish(state, reason, answer)
}

func (t *ExecutionTrace) Render(maxSteps int) string {
	return t.render(maxSteps)
}
