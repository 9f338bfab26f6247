package reagent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ToolSpec is the specification of a tool: its unique name, the capability
// description that is fed into LLM prompts, and the input parameters it
// accepts.
type ToolSpec struct {
	// Name is the unique identifier for the tool. It must be unique across
	// all tools registered with one Registry.
	Name string

	// Description is a human-readable description of what the tool does.
	// It should be clear and concise to help LLMs understand the tool's
	// purpose.
	Description string

	// Parameters defines the input parameters that the tool accepts.
	Parameters map[string]*Parameter
}

// Validate validates the tool specification.
func (s *ToolSpec) Validate() error {
	eb := goerr.NewBuilder(goerr.V("tool", s.Name))
	if s.Name == "" {
		return eb.Wrap(ErrInvalidTool, "name is required")
	}

	for _, param := range s.Parameters {
		if err := param.Validate(); err != nil {
			return eb.Wrap(ErrInvalidTool, "invalid parameter")
		}
	}

	return nil
}

// ParameterType is the type of a parameter.
type ParameterType string

const (
	TypeString  ParameterType = "string"
	TypeNumber  ParameterType = "number"
	TypeInteger ParameterType = "integer"
	TypeBoolean ParameterType = "boolean"
	TypeArray   ParameterType = "array"
	TypeObject  ParameterType = "object"
)

// Parameter is a single input parameter of a tool.
type Parameter struct {
	// Title is the user-friendly name of the parameter. Optional.
	Title string

	// Type is the type of the parameter.
	Type ParameterType

	// Description explains the purpose and expected format of the parameter.
	Description string

	// Required marks the parameter as mandatory when the tool is called.
	Required bool

	// Enum is the list of allowed values for the parameter.
	Enum []string

	// Properties is the structure of an object type parameter.
	Properties map[string]*Parameter

	// Items is the element type of an array type parameter.
	Items *Parameter

	// Number constraints
	Minimum *float64
	Maximum *float64

	// String constraints
	MinLength *int
	MaxLength *int
	Pattern   string

	// Array constraints
	MinItems *int
	MaxItems *int
}

// Validate validates the parameter.
func (p *Parameter) Validate() error {
	eb := goerr.NewBuilder(goerr.V("parameter", p))

	if p.Type == "" {
		return eb.Wrap(ErrInvalidParameter, "type is required")
	}

	if p.Type == TypeObject {
		if p.Properties == nil {
			return eb.Wrap(ErrInvalidParameter, "properties is required for object type")
		}
		for _, prop := range p.Properties {
			if err := prop.Validate(); err != nil {
				return eb.Wrap(ErrInvalidParameter, "invalid property")
			}
		}
	}

	if p.Type == TypeArray {
		if p.Items == nil {
			return eb.Wrap(ErrInvalidParameter, "items is required for array type")
		}
		if err := p.Items.Validate(); err != nil {
			return eb.Wrap(ErrInvalidParameter, "invalid items")
		}
		if p.MinItems != nil && p.MaxItems != nil && *p.MinItems > *p.MaxItems {
			return eb.Wrap(ErrInvalidParameter, "minItems must be less than or equal to maxItems")
		}
	}

	if p.Type == TypeNumber || p.Type == TypeInteger {
		if p.Minimum != nil && p.Maximum != nil && *p.Minimum > *p.Maximum {
			return eb.Wrap(ErrInvalidParameter, "minimum must be less than or equal to maximum")
		}
	}

	if p.Type == TypeString {
		if p.MinLength != nil && p.MaxLength != nil && *p.MinLength > *p.MaxLength {
			return eb.Wrap(ErrInvalidParameter, "minLength must be less than or equal to maxLength")
		}
		if p.Pattern != "" {
			if _, err := regexp.Compile(p.Pattern); err != nil {
				return eb.Wrap(ErrInvalidParameter, "invalid pattern", goerr.V("pattern", p.Pattern))
			}
		}
	}

	return nil
}

// Tool is the contract every callable capability must satisfy. Tools must be
// idempotent and side-effect-free on the task context: they read from the
// arguments they are given and return derived data.
type Tool interface {
	// Spec returns the specification of the tool. It is rendered into the
	// planner and executor prompts so the LLM can select the tool by name.
	Spec() ToolSpec

	// Run executes the tool. An error return does not abort the run: the
	// executor records it as an observation error and the loop continues.
	Run(ctx context.Context, args map[string]any) (map[string]any, error)
}

// Registry holds the fixed set of tools available to one agent. Tool names
// are unique; each tool's parameter spec is compiled to a JSON schema at
// registration so that LLM-proposed arguments can be validated before
// dispatch.
type Registry struct {
	tools   map[string]Tool
	schemas map[string]*jsonschema.Schema
	names   []string
}

// NewRegistry builds a registry from the given tools. It fails on name
// conflicts and on invalid tool specifications.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{
		tools:   make(map[string]Tool, len(tools)),
		schemas: make(map[string]*jsonschema.Schema, len(tools)),
	}

	for _, tool := range tools {
		spec := tool.Spec()
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		if _, ok := r.tools[spec.Name]; ok {
			return nil, goerr.Wrap(ErrToolNameConflict, "tool already registered", goerr.V("tool_name", spec.Name))
		}

		schema, err := compileArgsSchema(&spec)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to compile argument schema", goerr.V("tool_name", spec.Name))
		}

		r.tools[spec.Name] = tool
		r.schemas[spec.Name] = schema
		r.names = append(r.names, spec.Name)
	}

	sort.Strings(r.names)
	return r, nil
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// Specs returns the specifications of all registered tools, ordered by name.
func (r *Registry) Specs() []ToolSpec {
	specs := make([]ToolSpec, 0, len(r.names))
	for _, name := range r.names {
		specs = append(specs, r.tools[name].Spec())
	}
	return specs
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.tools)
}

// ValidateArgs checks LLM-proposed arguments against the tool's compiled
// schema. The arguments are round-tripped through JSON so that typed values
// from callers validate the same way as decoded LLM output.
func (r *Registry) ValidateArgs(name string, args map[string]any) error {
	schema, ok := r.schemas[name]
	if !ok {
		return goerr.Wrap(ErrUnknownTool, "no such tool", goerr.V("tool_name", name))
	}
	if schema == nil {
		return nil
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal arguments")
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return goerr.Wrap(err, "failed to unmarshal arguments")
	}

	if err := schema.Validate(generic); err != nil {
		return goerr.Wrap(ErrInvalidParameter, "arguments do not match tool schema",
			goerr.V("tool_name", name), goerr.V("validation", err.Error()))
	}
	return nil
}

// compileArgsSchema turns a tool spec into a compiled JSON schema for its
// argument object. Tools without parameters accept any object.
func compileArgsSchema(spec *ToolSpec) (*jsonschema.Schema, error) {
	if len(spec.Parameters) == 0 {
		return nil, nil
	}

	// The compiler expects a decoded JSON document, so the typed schema map
	// is normalized through a JSON round-trip.
	raw, err := json.Marshal(toolSpecToJSONSchema(spec))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal schema document")
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal schema document")
	}

	compiler := jsonschema.NewCompiler()
	url := fmt.Sprintf("inmemory://tools/%s.json", spec.Name)
	if err := compiler.AddResource(url, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to add schema resource")
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to compile schema")
	}
	return schema, nil
}
