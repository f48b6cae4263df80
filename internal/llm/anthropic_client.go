// In file: internal/llm/anthropic_client.go
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dileep-u-k/agent-gateway/internal/tools"
)

const (
	anthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion = "2023-06-01"
	defaultMaxTokens = 4096
)

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicRequest struct {
	Model       string              `json:"model"`
	Messages    []anthropicMessage  `json:"messages"`
	System      string              `json:"system,omitempty"`
	Tools       []anthropicTool     `json:"tools,omitempty"`
	ToolChoice  *anthropicToolUsage `json:"tool_choice,omitempty"`
	MaxTokens   int                 `json:"max_tokens"`
	Temperature *float32            `json:"temperature,omitempty"`
	TopP        *float32            `json:"top_p,omitempty"`
	Metadata    *anthropicMetadata  `json:"metadata,omitempty"`
}

type anthropicToolUsage struct {
	Type string `json:"type"`
}

type anthropicMetadata struct {
	UserID string `json:"user_id"`
}

type anthropicMessage struct {
	Role    string                  `json:"role"`
	Content []anthropicContentBlock `json:"content"`
}

type anthropicTool struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	InputSchema tools.JSONSchema `json:"input_schema"`
}

type anthropicContentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	Content   string          `json:"content,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
}

type anthropicResponse struct {
	Content []anthropicContentBlock `json:"content"`
	Usage   anthropicUsage          `json:"usage"`
}

// AnthropicClient talks to the Anthropic messages API.
type AnthropicClient struct {
	transport
}

var _ LLMClient = (*AnthropicClient)(nil)

func NewAnthropicClient(apiKey string, opts ...ClientOption) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, errors.New("Anthropic API key not configured")
	}
	headers := map[string]string{"x-api-key": apiKey, "anthropic-version": anthropicVersion}
	return &AnthropicClient{transport: newTransport("anthropic", anthropicBaseURL, headers, opts)}, nil
}

func (c *AnthropicClient) Generate(ctx context.Context, messages []Message, config *GenerationConfig, availableTools []tools.Tool) (*GenerationResult, error) {
	payload, err := json.Marshal(buildAnthropicRequest(messages, config, availableTools))
	if err != nil {
		return nil, fmt.Errorf("failed to build anthropic request payload: %w", err)
	}
	respBody, err := c.post(ctx, "/messages", payload)
	if err != nil {
		return nil, err
	}
	return parseAnthropicResponse(respBody)
}

func buildAnthropicRequest(messages []Message, config *GenerationConfig, availableTools []tools.Tool) anthropicRequest {
	system, msgs := toAnthropicMessages(messages, len(availableTools) > 0)
	req := anthropicRequest{
		Model:       config.Model,
		Messages:    msgs,
		System:      system,
		MaxTokens:   defaultMaxTokens,
		Temperature: config.Temperature,
		TopP:        config.TopP,
	}
	if config.MaxTokens > 0 {
		req.MaxTokens = config.MaxTokens
	}
	if config.User != "" {
		req.Metadata = &anthropicMetadata{UserID: config.User}
	}
	for _, t := range availableTools {
		req.Tools = append(req.Tools, anthropicTool{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			InputSchema: t.Function.Parameters,
		})
	}
	if len(req.Tools) > 0 {
		switch config.ToolChoice {
		case "required":
			req.ToolChoice = &anthropicToolUsage{Type: "any"}
		case "", "auto":
			req.ToolChoice = &anthropicToolUsage{Type: "auto"}
		}
	}
	return req
}

// toAnthropicMessages splits off the system prompt and converts the rest.
// Tool calls become tool_use blocks and tool results tool_result blocks.
// The API rejects those blocks when a request defines no tools, so without
// tools they are rendered as text. Consecutive messages of the same role are
// merged because the API expects alternating turns.
func toAnthropicMessages(messages []Message, withTools bool) (string, []anthropicMessage) {
	var system []string
	var out []anthropicMessage
	add := func(role string, blocks ...anthropicContentBlock) {
		if len(blocks) == 0 {
			return
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content = append(out[n-1].Content, blocks...)
			return
		}
		out = append(out, anthropicMessage{Role: role, Content: blocks})
	}
	text := func(s string) anthropicContentBlock { return anthropicContentBlock{Type: "text", Text: s} }

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			system = append(system, msg.Content)
		case RoleTool:
			if withTools {
				add("user", anthropicContentBlock{Type: "tool_result", ToolUseID: msg.ToolCallID, Content: msg.Content})
			} else {
				add("user", text(fmt.Sprintf("Tool result (%s): %s", msg.Name, msg.Content)))
			}
		case RoleAssistant:
			var blocks []anthropicContentBlock
			if msg.Content != "" {
				blocks = append(blocks, text(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				if !withTools {
					blocks = append(blocks, text(fmt.Sprintf("Calling %s with %s", tc.Function.Name, tc.Function.Arguments)))
					continue
				}
				input := json.RawMessage(tc.Function.Arguments)
				if !json.Valid(input) {
					input = json.RawMessage("{}")
				}
				blocks = append(blocks, anthropicContentBlock{Type: "tool_use", ID: tc.ID, Name: tc.Function.Name, Input: input})
			}
			add("assistant", blocks...)
		default:
			add("user", text(msg.Content))
		}
	}
	return strings.Join(system, "\n\n"), out
}

func parseAnthropicResponse(body []byte) (*GenerationResult, error) {
	var resp anthropicResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal anthropic response: %w", err)
	}
	if len(resp.Content) == 0 {
		return nil, errors.New("no content returned from Anthropic")
	}
	var content strings.Builder
	var toolCalls []*tools.ToolCall
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			content.WriteString(block.Text)
		case "tool_use":
			toolCalls = append(toolCalls, &tools.ToolCall{
				ID:   block.ID,
				Type: tools.ToolTypeFunction,
				Function: tools.ToolCallFunction{
					Name:      block.Name,
					Arguments: string(block.Input),
				},
			})
		}
	}

	return &GenerationResult{
		Content:   strings.TrimSpace(content.String()),
		ToolCalls: toolCalls,
		Usage: Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}, nil
}
