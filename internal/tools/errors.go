package tools

import (
	"encoding/json"
	"fmt"
)

// UnsupportedToolError is returned for a tool name the gateway does not know.
type UnsupportedToolError struct {
	Name string
}

func (e *UnsupportedToolError) Error() string {
	return fmt.Sprintf("unsupported tool %q", e.Name)
}

// ArgumentError reports arguments that could not be decoded or failed
// validation.
type ArgumentError struct {
	Tool Name
	Err  error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %v", e.Tool, e.Err)
}

func (e *ArgumentError) Unwrap() error { return e.Err }

// AccessDeniedError is returned when a tool names a collection outside the
// caller's permitted set.
type AccessDeniedError struct {
	Collection string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied: collection %q is not permitted for this agent", e.Collection)
}

// NotConnectedError is returned by integration tools whose integration has
// no active connection.
type NotConnectedError struct {
	Integration string
}

func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("%s integration is not connected", e.Integration)
}

// ErrorResult is the data shape of a failed tool call.
type ErrorResult struct {
	Error string         `json:"error"`
	Tool  string         `json:"tool"`
	Args  map[string]any `json:"args"`
}

// Result is the outcome of one tool call. Exactly one of Rows, Value or Err
// is meaningful: Rows for query_collection, Value for other tools, Err on
// failure.
type Result struct {
	Rows  []Row
	Value any
	Err   *ErrorResult
}

// OK reports whether the call succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Payload returns the value sent back to the model.
func (r Result) Payload() any {
	switch {
	case r.Err != nil:
		return r.Err
	case r.Rows != nil:
		return r.Rows
	default:
		return r.Value
	}
}

// JSON renders the result as tool-result message content.
func (r Result) JSON() string {
	b, err := json.Marshal(r.Payload())
	if err != nil {
		b, _ = json.Marshal(ErrorResult{Error: "result could not be encoded: " + err.Error()})
	}
	return string(b)
}

func failure(name string, args map[string]any, err error) Result {
	if args == nil {
		args = map[string]any{}
	}
	return Result{Err: &ErrorResult{Error: err.Error(), Tool: name, Args: args}}
}
