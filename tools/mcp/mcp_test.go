package mcp_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/reagent"
	mcptools "github.com/m-mizutani/reagent/tools/mcp"
	mcplib "github.com/mark3labs/mcp-go/mcp"
)

func TestInputSchemaToParameters(t *testing.T) {
	schema := mcplib.ToolInputSchema{
		Type: "object",
		Properties: map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Search query",
			},
			"limit": map[string]any{
				"type": "integer",
			},
			"filters": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"status": map[string]any{
						"type": "string",
						"enum": []any{"open", "closed"},
					},
				},
			},
			"tags": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "string",
				},
			},
		},
		Required: []string{"query"},
	}

	params := gt.R1(mcptools.InputSchemaToParameters(schema)).NoError(t)

	gt.Equal(t, reagent.TypeString, params["query"].Type)
	gt.True(t, params["query"].Required)
	gt.Equal(t, "Search query", params["query"].Description)

	gt.Equal(t, reagent.TypeInteger, params["limit"].Type)
	gt.False(t, params["limit"].Required)

	gt.Equal(t, reagent.TypeObject, params["filters"].Type)
	gt.Equal(t, []string{"open", "closed"}, params["filters"].Properties["status"].Enum)

	gt.Equal(t, reagent.TypeArray, params["tags"].Type)
	gt.Equal(t, reagent.TypeString, params["tags"].Items.Type)
}

func TestInputSchemaToParametersInvalid(t *testing.T) {
	schema := mcplib.ToolInputSchema{
		Type: "object",
		Properties: map[string]any{
			"broken": "not an object",
		},
	}

	_, err := mcptools.InputSchemaToParameters(schema)
	gt.Error(t, err)
}

func TestMCPContentToMap(t *testing.T) {
	t.Run("JSON object text", func(t *testing.T) {
		out := mcptools.MCPContentToMap([]mcplib.Content{
			&mcplib.TextContent{Type: "text", Text: `{"count": 3}`},
		})
		gt.Equal(t, 3.0, out["count"])
	})

	t.Run("JSON scalar text", func(t *testing.T) {
		out := mcptools.MCPContentToMap([]mcplib.Content{
			&mcplib.TextContent{Type: "text", Text: `42`},
		})
		gt.Equal(t, 42.0, out["result"])
	})

	t.Run("plain text", func(t *testing.T) {
		out := mcptools.MCPContentToMap([]mcplib.Content{
			&mcplib.TextContent{Type: "text", Text: "hello"},
		})
		gt.Equal(t, "hello", out["result"])
	})

	t.Run("no content", func(t *testing.T) {
		out := mcptools.MCPContentToMap(nil)
		gt.Equal(t, 0, len(out))
	})
}
