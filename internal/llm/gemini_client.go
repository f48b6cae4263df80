// In file: internal/llm/gemini_client.go
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/dileep-u-k/agent-gateway/internal/tools"
)

// GeminiClient is the client for Google's Gemini models. One client serves
// any model; a GenerativeModel is derived per request.
type GeminiClient struct {
	client *genai.Client
}

var _ LLMClient = (*GeminiClient)(nil)

func NewGeminiClient(ctx context.Context, apiKey string, opts ...option.ClientOption) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("Google API key not configured")
	}
	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

// Close releases the underlying connection.
func (c *GeminiClient) Close() error { return c.client.Close() }

// Generate performs a blocking request to the Gemini API.
func (c *GeminiClient) Generate(
	ctx context.Context,
	messages []Message,
	config *GenerationConfig,
	availableTools []tools.Tool,
) (*GenerationResult, error) {
	system, contents := toGeminiContents(messages)
	if len(contents) == 0 || contents[len(contents)-1].Role != "user" {
		return nil, errors.New("gemini conversation must end with a user or tool message")
	}

	model := c.client.GenerativeModel(config.Model)
	configureModel(model, config, availableTools)
	model.SystemInstruction = system

	last := len(contents) - 1
	chat := model.StartChat()
	chat.History = contents[:last:last]
	resp, err := chat.SendMessage(ctx, contents[last].Parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}
	return parseGeminiResponse(resp)
}

// configureModel applies the generation settings with the SDK's setters.
func configureModel(model *genai.GenerativeModel, config *GenerationConfig, availableTools []tools.Tool) {
	if config.Temperature != nil {
		model.SetTemperature(*config.Temperature)
	}
	if config.TopP != nil {
		model.SetTopP(*config.TopP)
	}
	if config.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(config.MaxTokens))
	} else {
		model.SetMaxOutputTokens(defaultMaxTokens)
	}

	if len(availableTools) == 0 {
		return
	}
	model.Tools = toGeminiTools(availableTools)
	mode := genai.FunctionCallingAuto
	switch config.ToolChoice {
	case "none":
		mode = genai.FunctionCallingNone
	case "required":
		mode = genai.FunctionCallingAny
	}
	model.ToolConfig = &genai.ToolConfig{FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: mode}}
}

// toGeminiTools converts tool definitions into a single Gemini tool holding
// every function declaration.
func toGeminiTools(defs []tools.Tool) []*genai.Tool {
	decls := make([]*genai.FunctionDeclaration, 0, len(defs))
	for _, t := range defs {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			Parameters:  convertSchema(t.Function.Parameters),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

// convertSchema converts our JSONSchema to the SDK's schema type.
func convertSchema(s tools.JSONSchema) *genai.Schema {
	out := &genai.Schema{
		Description: s.Description,
		Required:    s.Required,
		Enum:        s.Enum,
	}
	switch s.Type {
	case "object":
		out.Type = genai.TypeObject
	case "string":
		out.Type = genai.TypeString
	case "number":
		out.Type = genai.TypeNumber
	case "integer":
		out.Type = genai.TypeInteger
	case "boolean":
		out.Type = genai.TypeBoolean
	case "array":
		out.Type = genai.TypeArray
	}
	if s.Items != nil {
		out.Items = convertSchema(*s.Items)
	}
	if s.Properties != nil {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for k, v := range s.Properties {
			out.Properties[k] = convertSchema(*v)
		}
	}
	return out
}

// toGeminiContents converts the history. Assistant tool calls become
// FunctionCall parts and consecutive tool messages one user turn of
// FunctionResponse parts.
func toGeminiContents(messages []Message) (*genai.Content, []*genai.Content) {
	var system *genai.Content
	var out []*genai.Content
	add := func(role string, parts ...genai.Part) {
		if len(parts) == 0 {
			return
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Parts = append(out[n-1].Parts, parts...)
			return
		}
		out = append(out, &genai.Content{Role: role, Parts: parts})
	}

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			if system == nil {
				system = &genai.Content{}
			}
			system.Parts = append(system.Parts, genai.Text(msg.Content))
		case RoleAssistant:
			var parts []genai.Part
			if msg.Content != "" {
				parts = append(parts, genai.Text(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				args := map[string]any{}
				_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
				parts = append(parts, genai.FunctionCall{Name: tc.Function.Name, Args: args})
			}
			add("model", parts...)
		case RoleTool:
			add("user", genai.FunctionResponse{Name: msg.Name, Response: toolResponse(msg.Content)})
		default:
			add("user", genai.Text(msg.Content))
		}
	}
	return system, out
}

// toolResponse wraps a JSON tool result in the object Gemini requires.
func toolResponse(content string) map[string]any {
	var v any
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		v = content
	}
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{"result": v}
}

// parseGeminiResponse converts a Gemini API response into a GenerationResult.
// Gemini has no call ids, so ids are derived from the call position.
func parseGeminiResponse(resp *genai.GenerateContentResponse) (*GenerationResult, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("no content returned from Gemini")
	}

	var content strings.Builder
	var toolCalls []*tools.ToolCall
	for _, part := range resp.Candidates[0].Content.Parts {
		switch v := part.(type) {
		case genai.Text:
			content.WriteString(string(v))
		case genai.FunctionCall:
			args, err := json.Marshal(v.Args)
			if err != nil {
				return nil, fmt.Errorf("could not encode gemini call arguments: %w", err)
			}
			toolCalls = append(toolCalls, &tools.ToolCall{
				ID:   fmt.Sprintf("gemini-call-%d-%s", len(toolCalls), v.Name),
				Type: tools.ToolTypeFunction,
				Function: tools.ToolCallFunction{
					Name:      v.Name,
					Arguments: string(args),
				},
			})
		}
	}

	result := &GenerationResult{
		Content:   strings.TrimSpace(content.String()),
		ToolCalls: toolCalls,
	}
	if u := resp.UsageMetadata; u != nil {
		result.Usage = Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return result, nil
}
