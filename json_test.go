package reagent_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/reagent"
)

func TestExtractJSON(t *testing.T) {
	t.Run("plain JSON", func(t *testing.T) {
		gt.Equal(t, `{"a": 1}`, reagent.ExtractJSON(`{"a": 1}`))
	})

	t.Run("markdown fenced", func(t *testing.T) {
		input := "```json\n{\"a\": 1}\n```"
		gt.Equal(t, `{"a": 1}`, reagent.ExtractJSON(input))
	})

	t.Run("fenced without language", func(t *testing.T) {
		input := "```\n{\"a\": 1}\n```"
		gt.Equal(t, `{"a": 1}`, reagent.ExtractJSON(input))
	})

	t.Run("surrounded by prose", func(t *testing.T) {
		input := `Here is the result: {"tool": "echo", "parameters": {"message": "hi"}} as requested.`
		gt.Equal(t, `{"tool": "echo", "parameters": {"message": "hi"}}`, reagent.ExtractJSON(input))
	})

	t.Run("braces inside string literals", func(t *testing.T) {
		input := `{"answer": "use {curly} braces", "confidence": 0.8}`
		gt.Equal(t, input, reagent.ExtractJSON(input))
	})

	t.Run("array payload", func(t *testing.T) {
		input := `result: [1, 2, 3]`
		gt.Equal(t, `[1, 2, 3]`, reagent.ExtractJSON(input))
	})

	t.Run("no JSON at all", func(t *testing.T) {
		gt.Equal(t, "just words", reagent.ExtractJSON("just words"))
	})
}
