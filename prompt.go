package reagent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Prompt templates for the planning and execution loop. Each template that
// expects a JSON reply spells out the exact object shape; replies are still
// parsed defensively because models wrap JSON in markdown fences or prose.

const maxContextSnapshotSize = 2000

const planPromptTemplate = `You are planning how to accomplish a task with a fixed set of tools.

## Task
%s
%s
## Available tools
%s
%s## Instructions
Propose a short ordered outline of steps. Each step names its intent and,
when one clearly applies, the tool to use. The outline is advisory: the
executor may deviate from it.

Respond with a JSON object in this exact format:
{
  "steps": [
    {"intent": "what this step accomplishes", "tool": "tool_name or empty string"}
  ]
}`

const thoughtPromptTemplate = `You are working on a task step by step, using tools to gather information.

## Task
%s
%s
## Available tools
%s
%s## Progress so far
%s

## Instructions
Think about the current state of the task. Decide whether you already have
enough information to give a final answer.

Respond with a JSON object in this exact format:
{
  "thought": "your reasoning about the current state",
  "can_answer": true or false
}`

const actionPromptTemplate = `You are working on a task step by step, using tools to gather information.

## Task
%s

## Available tools
%s
## Progress so far
%s

## Current reasoning
%s

## Instructions
Select exactly one tool to invoke next and the arguments to pass it. Use
only tools from the list above, with arguments matching their parameters.

Respond with a JSON object in this exact format:
{
  "tool": "tool_name",
  "parameters": {"param": "value"}
}`

const finalAnswerPromptTemplate = `You are finishing a task you have been working on step by step.

## Task
%s
%s
## Progress so far
%s

## Instructions
Give the final answer to the task based on the progress above, and rate your
confidence in it between 0.0 and 1.0. Be honest: if the gathered information
is incomplete, report lower confidence.

Respond with a JSON object in this exact format:
{
  "answer": "the final answer",
  "confidence": 0.0
}`

func buildPlanPrompt(task Task, specs []ToolSpec, recalled []MemoryEntry) string {
	return fmt.Sprintf(planPromptTemplate,
		task.Description,
		renderTaskContext(task.Context),
		renderToolCatalog(specs),
		renderRecalledEntries(recalled))
}

func buildThoughtPrompt(task Task, specs []ToolSpec, strategy Strategy, trace *ExecutionTrace) string {
	return fmt.Sprintf(thoughtPromptTemplate,
		task.Description,
		renderTaskContext(task.Context),
		renderToolCatalog(specs),
		renderStrategyOutline(strategy),
		trace.render(10))
}

func buildActionPrompt(task Task, specs []ToolSpec, trace *ExecutionTrace, thought string) string {
	return fmt.Sprintf(actionPromptTemplate,
		task.Description,
		renderToolCatalog(specs),
		trace.render(10),
		thought)
}

func buildFinalAnswerPrompt(task Task, trace *ExecutionTrace) string {
	return fmt.Sprintf(finalAnswerPromptTemplate,
		task.Description,
		renderTaskContext(task.Context),
		trace.render(20))
}

// renderTaskContext renders the task's context map as a truncated JSON
// snapshot section, or an empty string when there is no context.
func renderTaskContext(context map[string]any) string {
	if len(context) == 0 {
		return ""
	}

	raw, err := json.Marshal(context)
	if err != nil {
		return ""
	}
	snapshot := string(raw)
	if len(snapshot) > maxContextSnapshotSize {
		snapshot = truncateUTF8(snapshot, maxContextSnapshotSize) + "...(truncated)"
	}
	return fmt.Sprintf("\n## Task context\n%s\n", snapshot)
}

// renderToolCatalog renders the tool specs as a catalog the model can select
// from by name.
func renderToolCatalog(specs []ToolSpec) string {
	if len(specs) == 0 {
		return "(no tools available)\n"
	}

	var sb strings.Builder
	for _, spec := range specs {
		fmt.Fprintf(&sb, "- %s: %s\n", spec.Name, spec.Description)
		for name, param := range spec.Parameters {
			required := ""
			if param.Required {
				required = ", required"
			}
			fmt.Fprintf(&sb, "    %s (%s%s): %s\n", name, param.Type, required, param.Description)
		}
	}
	return sb.String()
}

// renderStrategyOutline renders the advisory strategy as a prompt section, or
// an empty string when there is no strategy.
func renderStrategyOutline(strategy Strategy) string {
	if len(strategy) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n## Suggested approach (advisory, deviate when the observations call for it)\n")
	for i, step := range strategy {
		if step.SuggestedTool != "" {
			fmt.Fprintf(&sb, "%d. %s (tool: %s)\n", i+1, step.Intent, step.SuggestedTool)
		} else {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, step.Intent)
		}
	}
	return sb.String()
}

// renderRecalledEntries renders recalled memory entries as a prompt section.
// Failed runs are included as warnings; knowing what did not work is as
// useful as knowing what did.
func renderRecalledEntries(recalled []MemoryEntry) string {
	if len(recalled) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("## Experience from similar past tasks\n")
	for _, entry := range recalled {
		outcome := "succeeded"
		if !entry.Succeeded {
			outcome = "failed"
		}
		fmt.Fprintf(&sb, "- a similar task %s (confidence %.2f) with steps:\n", outcome, entry.Confidence)
		for _, step := range entry.Strategy {
			if step.SuggestedTool != "" {
				fmt.Fprintf(&sb, "    * %s (tool: %s)\n", step.Intent, step.SuggestedTool)
			} else {
				fmt.Fprintf(&sb, "    * %s\n", step.Intent)
			}
		}
	}
	sb.WriteString("\n")
	return sb.String()
}
