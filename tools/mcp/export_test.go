package mcp

var (
	InputSchemaToParameters = inputSchemaToParameters
	PropertyToParameter     = propertyToParameter
	MCPContentToMap         = mcpContentToMap
)
