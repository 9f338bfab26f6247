// Package reagent is an autonomous task-execution engine. It plans a
// strategy for a natural-language task, runs a Reason-Act-Observe loop
// against a registry of tools, and terminates with a confidence-scored
// answer plus the full execution trace of the run.
//
// The entry point is Agent: compose an llm.Client, a set of Tools and an
// optional Memory, then call Execute. Every run returns an AgentResult
// whose ExecutionTrace is the authoritative record of what happened,
// including runs that failed or ran out of budget.
package reagent
