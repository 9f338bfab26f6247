// Package mcp exposes the tools of a Model Context Protocol server as
// reagent tools, over stdio for local servers or SSE for remote ones.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reagent"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

// ErrInvalidInputSchema is returned when an MCP tool advertises an input
// schema that cannot be converted to tool parameters.
var ErrInvalidInputSchema = errors.New("invalid input schema")

// Client connects to one MCP server and exposes its tools.
type Client struct {
	// For local MCP server
	path    string
	args    []string
	envVars []string

	// For remote MCP server
	baseURL string
	headers map[string]string

	// Common client
	client     *client.Client
	initResult *mcp.InitializeResult

	initMutex sync.Mutex
}

// StdioOption is the option for a client of a local MCP executable server
// via stdio.
type StdioOption func(*Client)

// WithEnvVars sets the environment variables for the MCP server process. It
// appends the environment variables to the existing ones.
func WithEnvVars(envVars []string) StdioOption {
	return func(m *Client) {
		m.envVars = append(m.envVars, envVars...)
	}
}

// SSEOption is the option for a client of a remote MCP server via HTTP SSE.
type SSEOption func(*Client)

// WithHeaders sets the headers for the MCP client. It replaces the existing
// headers setting.
func WithHeaders(headers map[string]string) SSEOption {
	return func(m *Client) {
		m.headers = headers
	}
}

// NewStdio creates a client that runs a local MCP server executable and
// talks to it over stdio.
func NewStdio(path string, args []string, options ...StdioOption) *Client {
	c := &Client{
		path: path,
		args: args,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// NewSSE creates a client for a remote MCP server over HTTP SSE.
func NewSSE(baseURL string, options ...SSEOption) *Client {
	c := &Client{
		baseURL: baseURL,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *Client) start(ctx context.Context) error {
	c.initMutex.Lock()
	defer c.initMutex.Unlock()

	if c.initResult != nil {
		return nil
	}

	var tp transport.Interface
	if c.path != "" {
		tp = transport.NewStdio(c.path, c.envVars, c.args...)
	}

	if c.baseURL != "" {
		sse, err := transport.NewSSE(c.baseURL, transport.WithHeaders(c.headers))
		if err != nil {
			return goerr.Wrap(err, "failed to create SSE transport")
		}
		tp = sse
	}

	if tp == nil {
		return goerr.New("no transport")
	}

	c.client = client.NewClient(tp)

	if err := c.client.Start(ctx); err != nil {
		return goerr.Wrap(err, "failed to start MCP client")
	}

	var initRequest mcp.InitializeRequest
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    "reagent",
		Version: "0.0.1",
	}

	if resp, err := c.client.Initialize(ctx, initRequest); err != nil {
		return goerr.Wrap(err, "failed to initialize MCP client")
	} else {
		c.initResult = resp
	}

	return nil
}

// Tools connects to the server if needed and returns its tools, each wrapped
// as a reagent.Tool.
func (c *Client) Tools(ctx context.Context) ([]reagent.Tool, error) {
	if err := c.start(ctx); err != nil {
		return nil, err
	}

	resp, err := c.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list tools")
	}

	tools := make([]reagent.Tool, 0, len(resp.Tools))
	for _, tool := range resp.Tools {
		wrapped, err := wrapTool(c, tool)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to wrap tool", goerr.V("tool_name", tool.Name))
		}
		tools = append(tools, wrapped)
	}
	return tools, nil
}

// Close shuts down the connection and, for stdio transports, the server
// process.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Close(); err != nil {
		return goerr.Wrap(err, "failed to close MCP client")
	}
	return nil
}

func (c *Client) callTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	if c.initResult == nil {
		return nil, goerr.New("MCP client not initialized")
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	resp, err := c.client.CallTool(ctx, req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to call tool")
	}

	return resp, nil
}

// remoteTool adapts one MCP tool to the reagent.Tool interface.
type remoteTool struct {
	client *Client
	spec   reagent.ToolSpec
}

func (t *remoteTool) Spec() reagent.ToolSpec {
	return t.spec
}

func (t *remoteTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	resp, err := t.client.callTool(ctx, t.spec.Name, args)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to call tool")
	}

	return mcpContentToMap(resp.Content), nil
}

func wrapTool(c *Client, tool mcp.Tool) (*remoteTool, error) {
	parameters, err := inputSchemaToParameters(tool.InputSchema)
	if err != nil {
		return nil, err
	}

	return &remoteTool{
		client: c,
		spec: reagent.ToolSpec{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  parameters,
		},
	}, nil
}

func valueOrEmpty[T any](v any) T {
	var empty T
	if v == nil {
		return empty
	}
	if v, ok := v.(T); ok {
		return v
	}
	return empty
}

func inputSchemaToParameters(inputSchema mcp.ToolInputSchema) (map[string]*reagent.Parameter, error) {
	parameters := map[string]*reagent.Parameter{}

	required := map[string]bool{}
	for _, name := range inputSchema.Required {
		required[name] = true
	}

	for name, property := range inputSchema.Properties {
		prop, ok := property.(map[string]any)
		if !ok {
			return nil, goerr.Wrap(ErrInvalidInputSchema, "invalid property", goerr.V("property", property))
		}

		parameter, err := propertyToParameter(name, prop)
		if err != nil {
			return nil, err
		}
		parameter.Required = required[name]
		parameters[name] = parameter
	}

	return parameters, nil
}

func propertyToParameter(name string, prop map[string]any) (*reagent.Parameter, error) {
	var properties map[string]*reagent.Parameter
	var items *reagent.Parameter
	propType := valueOrEmpty[string](prop["type"])

	if propType == "object" {
		properties = map[string]*reagent.Parameter{}
		nestedProperty := valueOrEmpty[map[string]any](prop["properties"])

		for k, v := range nestedProperty {
			nested, ok := v.(map[string]any)
			if !ok {
				return nil, goerr.Wrap(ErrInvalidInputSchema, "invalid nested property", goerr.V("property", v))
			}
			objParam, err := propertyToParameter(k, nested)
			if err != nil {
				return nil, err
			}
			properties[k] = objParam
		}
	}

	if propType == "array" {
		itemsProp, ok := prop["items"].(map[string]any)
		if !ok {
			return nil, goerr.Wrap(ErrInvalidInputSchema, "invalid items", goerr.V("property", prop["items"]))
		}
		v, err := propertyToParameter(name, itemsProp)
		if err != nil {
			return nil, err
		}
		items = v
	}

	return &reagent.Parameter{
		Type:        reagent.ParameterType(propType),
		Title:       valueOrEmpty[string](prop["title"]),
		Description: valueOrEmpty[string](prop["description"]),
		Enum:        toStringSlice(prop["enum"]),
		Properties:  properties,
		Items:       items,
	}, nil
}

func toStringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return valueOrEmpty[[]string](v)
	}
	values := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			values = append(values, s)
		}
	}
	return values
}

func mcpContentToMap(contents []mcp.Content) map[string]any {
	for _, c := range contents {
		if txt, ok := c.(*mcp.TextContent); ok {
			var v any
			if err := json.Unmarshal([]byte(txt.Text), &v); err == nil {
				if mapData, ok := v.(map[string]any); ok {
					return mapData
				}

				return map[string]any{
					"result": v,
				}
			}

			return map[string]any{
				"result": txt.Text,
			}
		}
	}

	// No appropriate content found
	return map[string]any{}
}
