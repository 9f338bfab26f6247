// Package analysis provides small built-in tools for numeric work: summary
// statistics, arithmetic and range validation. They double as reference
// implementations of the reagent.Tool contract.
package analysis

import (
	"context"
	"encoding/json"
	"math"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reagent"
)

// Tools returns all tools of this package.
func Tools() []reagent.Tool {
	return []reagent.Tool{
		&NumericSummary{},
		&Calculate{},
		&ValidateRange{},
	}
}

// NumericSummary computes count, min, max and mean of a list of numbers.
type NumericSummary struct{}

func (t *NumericSummary) Spec() reagent.ToolSpec {
	return reagent.ToolSpec{
		Name:        "numeric_summary",
		Description: "Compute count, min, max and mean of a list of numbers",
		Parameters: map[string]*reagent.Parameter{
			"values": {
				Type:        reagent.TypeArray,
				Description: "The numbers to summarize",
				Required:    true,
				Items: &reagent.Parameter{
					Type: reagent.TypeNumber,
				},
			},
		},
	}
}

func (t *NumericSummary) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	values, err := numberSlice(args["values"])
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, goerr.New("values must not be empty")
	}

	minV, maxV := values[0], values[0]
	sum := 0.0
	for _, v := range values {
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
		sum += v
	}

	return map[string]any{
		"count": len(values),
		"min":   minV,
		"max":   maxV,
		"mean":  sum / float64(len(values)),
	}, nil
}

// Calculate applies a binary arithmetic operation to two numbers.
type Calculate struct{}

func (t *Calculate) Spec() reagent.ToolSpec {
	return reagent.ToolSpec{
		Name:        "calculate",
		Description: "Apply a binary arithmetic operation (add, subtract, multiply, divide) to two numbers",
		Parameters: map[string]*reagent.Parameter{
			"operation": {
				Type:        reagent.TypeString,
				Description: "The operation to apply",
				Required:    true,
				Enum:        []string{"add", "subtract", "multiply", "divide"},
			},
			"a": {
				Type:        reagent.TypeNumber,
				Description: "The left operand",
				Required:    true,
			},
			"b": {
				Type:        reagent.TypeNumber,
				Description: "The right operand",
				Required:    true,
			},
		},
	}
}

func (t *Calculate) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	a, err := number(args["a"])
	if err != nil {
		return nil, goerr.Wrap(err, "invalid operand a")
	}
	b, err := number(args["b"])
	if err != nil {
		return nil, goerr.Wrap(err, "invalid operand b")
	}

	var result float64
	switch op := args["operation"]; op {
	case "add":
		result = a + b
	case "subtract":
		result = a - b
	case "multiply":
		result = a * b
	case "divide":
		if b == 0 {
			return nil, goerr.New("division by zero")
		}
		result = a / b
	default:
		return nil, goerr.New("unsupported operation", goerr.V("operation", op))
	}

	return map[string]any{"result": result}, nil
}

// ValidateRange checks whether a value lies within an inclusive range. A
// value outside the range is a negative result, not an error.
type ValidateRange struct{}

func (t *ValidateRange) Spec() reagent.ToolSpec {
	return reagent.ToolSpec{
		Name:        "validate_range",
		Description: "Check whether a value lies within an inclusive [min, max] range",
		Parameters: map[string]*reagent.Parameter{
			"value": {
				Type:        reagent.TypeNumber,
				Description: "The value to check",
				Required:    true,
			},
			"min": {
				Type:        reagent.TypeNumber,
				Description: "The inclusive lower bound",
				Required:    true,
			},
			"max": {
				Type:        reagent.TypeNumber,
				Description: "The inclusive upper bound",
				Required:    true,
			},
		},
	}
}

func (t *ValidateRange) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	value, err := number(args["value"])
	if err != nil {
		return nil, goerr.Wrap(err, "invalid value")
	}
	minV, err := number(args["min"])
	if err != nil {
		return nil, goerr.Wrap(err, "invalid min")
	}
	maxV, err := number(args["max"])
	if err != nil {
		return nil, goerr.Wrap(err, "invalid max")
	}
	if minV > maxV {
		return nil, goerr.New("min must be less than or equal to max",
			goerr.V("min", minV), goerr.V("max", maxV))
	}

	inRange := value >= minV && value <= maxV
	return map[string]any{
		"success":  inRange,
		"value":    value,
		"min":      minV,
		"max":      maxV,
		"in_range": inRange,
	}, nil
}

func number(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	default:
		return 0, goerr.New("not a number", goerr.V("value", v))
	}
}

func numberSlice(v any) ([]float64, error) {
	raw, ok := v.([]any)
	if !ok {
		return nil, goerr.New("not a number array", goerr.V("value", v))
	}
	values := make([]float64, 0, len(raw))
	for _, item := range raw {
		n, err := number(item)
		if err != nil {
			return nil, err
		}
		values = append(values, n)
	}
	return values, nil
}
