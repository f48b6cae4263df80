// In file: internal/tools/types.go

// Package tools defines the data tools an agent can call, the registry they
// are offered from, and the executor that runs them against a row store.
// Definitions use the OpenAI function-calling shape and are translated into
// each provider's format by the llm package.
package tools

// ToolTypeFunction is the standard type for function-based tools.
const ToolTypeFunction = "function"

// Tool is the definition of a callable tool as described to a model.
type Tool struct {
	// Type is always "function".
	Type string `json:"type"`
	// Function holds the name, description and parameter schema.
	Function Function `json:"function"`

	// Group is the extended-tool group this tool belongs to. Empty for core tools.
	Group Group `json:"-"`
	// Integration is the integration id that must be enabled for the tool to
	// be offered. Empty for data tools.
	Integration string `json:"-"`
}

// Function defines the name, description, and parameters of a callable tool.
type Function struct {
	Name string `json:"name"`
	// Description is what the model reads to decide when to use the tool.
	Description string `json:"description"`
	// Parameters is the JSON Schema of the argument object.
	Parameters JSONSchema `json:"parameters"`
}

// JSONSchema is the subset of JSON Schema used to describe tool parameters.
type JSONSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Items       *JSONSchema            `json:"items,omitempty"`
	Enum        []string               `json:"enum,omitempty"`
	Default     any                    `json:"default,omitempty"`
	Required    []string               `json:"required,omitempty"`
}

// ToolCall is a request from the model to execute a tool.
type ToolCall struct {
	// ID pairs the call with its result message in the follow-up request.
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction holds the name and JSON-encoded arguments of a call.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// NewFunctionTool builds a core data tool definition.
func NewFunctionTool(name Name, description string, parameters JSONSchema) Tool {
	return Tool{
		Type: ToolTypeFunction,
		Function: Function{
			Name:        string(name),
			Description: description,
			Parameters:  parameters,
		},
	}
}

// Name returns the tool's name as a typed value.
func (t Tool) Name() Name { return Name(t.Function.Name) }

func object(required []string, props map[string]*JSONSchema) JSONSchema {
	return JSONSchema{Type: "object", Properties: props, Required: required}
}

func str(desc string, enum ...string) *JSONSchema {
	return &JSONSchema{Type: "string", Description: desc, Enum: enum}
}

func num(desc string) *JSONSchema {
	return &JSONSchema{Type: "number", Description: desc}
}
