// In file: internal/llm/client.go

// Package llm contains the language model clients the orchestrator talks to
// and the registry that selects one per request.
package llm

import (
	"context"

	"github.com/dileep-u-k/agent-gateway/internal/tools"
)

// Role represents the originator of a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message represents a single message in a conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// ToolCallID pairs a tool message with the call it answers.
	ToolCallID string `json:"tool_call_id,omitempty"`
	// Name is the tool name on tool messages. Gemini matches results by name.
	Name      string            `json:"name,omitempty"`
	ToolCalls []*tools.ToolCall `json:"tool_calls,omitempty"`
}

// GenerationConfig holds the parameters that control one generation.
type GenerationConfig struct {
	// The specific model to use for the generation (e.g., "gpt-4o", "claude-3-opus-20240229").
	Model string
	// Controls randomness. A pointer distinguishes 0.0 from unset.
	Temperature *float32
	// The maximum number of tokens to generate in the response.
	MaxTokens int
	TopP      *float32
	// ToolChoice is "auto", "none" or "required". Ignored when no tools are sent.
	ToolChoice string
	// User identifies the end user to the provider for abuse monitoring.
	User string
}

// Usage reports token consumption for one call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// GenerationResult holds the complete output from an LLM call.
type GenerationResult struct {
	// The generated text content from the model.
	Content string
	// Tool calls requested by the model, in the order it returned them.
	ToolCalls []*tools.ToolCall
	Usage     Usage
}

// LLMClient is the interface every model client implements.
type LLMClient interface {
	// Generate performs a blocking request with the full conversation
	// history and returns the complete result.
	Generate(
		ctx context.Context,
		messages []Message,
		config *GenerationConfig,
		availableTools []tools.Tool,
	) (*GenerationResult, error)
}
