package reagent_test

import (
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/reagent"
)

func TestTraceOrdering(t *testing.T) {
	trace := reagent.NewTrace()
	gt.Equal(t, reagent.StateRunning, trace.Terminal)
	gt.True(t, trace.ID != "")

	trace.Append(reagent.ExecutionStep{Thought: "first"})
	trace.Append(reagent.ExecutionStep{Thought: "second"})
	trace.Append(reagent.ExecutionStep{Thought: "third"})

	gt.A(t, trace.Steps).Length(3)
	for i, step := range trace.Steps {
		gt.Equal(t, i+1, step.Iteration)
		gt.False(t, step.Timestamp.IsZero())
	}

	trace.Finish(reagent.StateSucceeded, "", "done")
	gt.Equal(t, reagent.StateSucceeded, trace.Terminal)
	gt.Equal(t, "done", trace.FinalAnswer)
	gt.False(t, trace.FinishedAt.IsZero())
}

func TestTraceToolsUsed(t *testing.T) {
	trace := reagent.NewTrace()
	trace.Append(reagent.ExecutionStep{Action: reagent.Action{Tool: "echo"}})
	trace.Append(reagent.ExecutionStep{Action: reagent.Action{Tool: "calc"}})
	trace.Append(reagent.ExecutionStep{Action: reagent.Action{Tool: "echo"}})
	// Terminal answer step has no action.
	trace.Append(reagent.ExecutionStep{Thought: "final"})

	gt.Equal(t, []string{"calc", "echo"}, trace.ToolsUsed())
}

func TestTraceRender(t *testing.T) {
	trace := reagent.NewTrace()
	gt.S(t, trace.Render(10)).Contains("no steps yet")

	trace.Append(reagent.ExecutionStep{
		Thought:     "summarize",
		Action:      reagent.Action{Tool: "numeric_summary", Args: map[string]any{"values": []any{1.0, 2.0}}},
		Observation: reagent.Observation{Success: true, Data: map[string]any{"mean": 1.5}},
	})
	trace.Append(reagent.ExecutionStep{
		Action:      reagent.Action{Tool: "echo", Args: map[string]any{}},
		Observation: reagent.Observation{Err: "backend unavailable"},
	})

	rendered := trace.Render(10)
	gt.S(t, rendered).Contains("Step 1:")
	gt.S(t, rendered).Contains("numeric_summary")
	gt.S(t, rendered).Contains("mean=1.5")
	gt.S(t, rendered).Contains("error: backend unavailable")

	// Older steps are elided beyond the window.
	windowed := trace.Render(1)
	gt.True(t, strings.Contains(windowed, "1 earlier steps omitted"))
	gt.False(t, strings.Contains(windowed, "Step 1:"))
}
