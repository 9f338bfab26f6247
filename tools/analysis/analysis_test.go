package analysis_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/reagent"
	"github.com/m-mizutani/reagent/tools/analysis"
)

func TestToolsRegister(t *testing.T) {
	registry := gt.R1(reagent.NewRegistry(analysis.Tools()...)).NoError(t)
	gt.Equal(t, 3, registry.Len())
}

func TestNumericSummary(t *testing.T) {
	tool := &analysis.NumericSummary{}

	t.Run("summarizes values", func(t *testing.T) {
		out := gt.R1(tool.Run(context.Background(), map[string]any{
			"values": []any{1.0, 5.0, 9.0},
		})).NoError(t)

		gt.Equal(t, 3, out["count"])
		gt.Equal(t, 1.0, out["min"])
		gt.Equal(t, 9.0, out["max"])
		gt.Equal(t, 5.0, out["mean"])
	})

	t.Run("rejects empty input", func(t *testing.T) {
		_, err := tool.Run(context.Background(), map[string]any{"values": []any{}})
		gt.Error(t, err)
	})

	t.Run("rejects non-numeric input", func(t *testing.T) {
		_, err := tool.Run(context.Background(), map[string]any{"values": []any{"one"}})
		gt.Error(t, err)
	})
}

func TestCalculate(t *testing.T) {
	tool := &analysis.Calculate{}

	run := func(op string, a, b float64) (map[string]any, error) {
		return tool.Run(context.Background(), map[string]any{
			"operation": op, "a": a, "b": b,
		})
	}

	t.Run("add", func(t *testing.T) {
		out := gt.R1(run("add", 2, 3)).NoError(t)
		gt.Equal(t, 5.0, out["result"])
	})

	t.Run("divide", func(t *testing.T) {
		out := gt.R1(run("divide", 9, 3)).NoError(t)
		gt.Equal(t, 3.0, out["result"])
	})

	t.Run("divide by zero", func(t *testing.T) {
		_, err := run("divide", 1, 0)
		gt.Error(t, err)
	})

	t.Run("unsupported operation", func(t *testing.T) {
		_, err := run("modulo", 1, 2)
		gt.Error(t, err)
	})
}

func TestValidateRange(t *testing.T) {
	tool := &analysis.ValidateRange{}

	t.Run("inside range", func(t *testing.T) {
		out := gt.R1(tool.Run(context.Background(), map[string]any{
			"value": 5.0, "min": 1.0, "max": 10.0,
		})).NoError(t)
		gt.Equal(t, true, out["success"])
	})

	t.Run("outside range is a negative result, not an error", func(t *testing.T) {
		out := gt.R1(tool.Run(context.Background(), map[string]any{
			"value": 50.0, "min": 1.0, "max": 10.0,
		})).NoError(t)
		gt.Equal(t, false, out["success"])
	})

	t.Run("inverted bounds", func(t *testing.T) {
		_, err := tool.Run(context.Background(), map[string]any{
			"value": 5.0, "min": 10.0, "max": 1.0,
		})
		gt.Error(t, err)
	})
}
