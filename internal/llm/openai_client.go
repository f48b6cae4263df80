// In file: internal/llm/openai_client.go
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dileep-u-k/agent-gateway/internal/tools"
)

const openAIBaseURL = "https://api.openai.com/v1"

// openAIRequest defines the top-level structure for an OpenAI API call.
type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Tools       []tools.Tool    `json:"tools,omitempty"`
	ToolChoice  string          `json:"tool_choice,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature *float32        `json:"temperature,omitempty"`
	TopP        *float32        `json:"top_p,omitempty"`
	User        string          `json:"user,omitempty"`
}

// openAIMessage represents a single message in a conversation.
type openAIMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	Name       string           `json:"name,omitempty"`
	ToolCalls  []tools.ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

// openAIResponse is the structure of a successful response from the API.
type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

// OpenAIClient talks to the OpenAI chat completions API.
type OpenAIClient struct {
	transport
}

// Statically verify that OpenAIClient implements the LLMClient interface.
var _ LLMClient = (*OpenAIClient)(nil)

// NewOpenAIClient creates a client for the OpenAI API. The model is chosen
// per request via GenerationConfig.
func NewOpenAIClient(apiKey string, opts ...ClientOption) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key not configured")
	}
	headers := map[string]string{"Authorization": "Bearer " + apiKey}
	return &OpenAIClient{transport: newTransport("openai", openAIBaseURL, headers, opts)}, nil
}

// Generate performs a blocking request to the OpenAI API.
func (c *OpenAIClient) Generate(
	ctx context.Context,
	messages []Message,
	config *GenerationConfig,
	availableTools []tools.Tool,
) (*GenerationResult, error) {
	payload, err := json.Marshal(buildOpenAIRequest(messages, config, availableTools))
	if err != nil {
		return nil, fmt.Errorf("failed to build openai request payload: %w", err)
	}

	respBody, err := c.post(ctx, "/chat/completions", payload)
	if err != nil {
		return nil, err
	}
	return parseOpenAIResponse(respBody)
}

func buildOpenAIRequest(messages []Message, config *GenerationConfig, availableTools []tools.Tool) openAIRequest {
	req := openAIRequest{
		Model:       config.Model,
		Messages:    toOpenAIMessages(messages),
		MaxTokens:   config.MaxTokens,
		Temperature: config.Temperature,
		TopP:        config.TopP,
		User:        config.User,
	}
	if len(availableTools) > 0 {
		req.Tools = availableTools
		req.ToolChoice = config.ToolChoice
		if req.ToolChoice == "" {
			req.ToolChoice = "auto"
		}
	}
	return req
}

// toOpenAIMessages converts our internal message slice to the OpenAI API format.
func toOpenAIMessages(messages []Message) []openAIMessage {
	out := make([]openAIMessage, 0, len(messages))
	for _, msg := range messages {
		m := openAIMessage{Role: string(msg.Role), Content: msg.Content}
		switch msg.Role {
		case RoleTool:
			m.ToolCallID = msg.ToolCallID
			m.Name = msg.Name
		case RoleAssistant:
			for _, tc := range msg.ToolCalls {
				m.ToolCalls = append(m.ToolCalls, *tc)
			}
		}
		out = append(out, m)
	}
	return out
}

// parseOpenAIResponse converts an OpenAI API response to our GenerationResult.
func parseOpenAIResponse(body []byte) (*GenerationResult, error) {
	var resp openAIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal openai response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no choices returned from OpenAI")
	}

	msg := resp.Choices[0].Message
	result := &GenerationResult{Content: msg.Content, Usage: resp.Usage}
	for _, tc := range msg.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, &tools.ToolCall{
			ID:   tc.ID,
			Type: tools.ToolTypeFunction,
			Function: tools.ToolCallFunction{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return result, nil
}
