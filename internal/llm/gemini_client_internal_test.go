package llm

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dileep-u-k/agent-gateway/internal/tools"
)

func TestToGeminiContents(t *testing.T) {
	messages := []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "how many deals?"},
		{Role: RoleAssistant, ToolCalls: []*tools.ToolCall{
			{ID: "x", Function: tools.ToolCallFunction{Name: "query_collection", Arguments: `{"collection":"sales_deals"}`}},
		}},
		{Role: RoleTool, ToolCallID: "x", Name: "query_collection", Content: `[{"id":"d1"}]`},
	}
	system, contents := toGeminiContents(messages)

	require.NotNil(t, system)
	assert.Equal(t, []genai.Part{genai.Text("sys")}, system.Parts)
	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, genai.FunctionCall{Name: "query_collection", Args: map[string]any{"collection": "sales_deals"}}, contents[1].Parts[0])
	assert.Equal(t, "user", contents[2].Role)
	resp := contents[2].Parts[0].(genai.FunctionResponse)
	assert.Equal(t, "query_collection", resp.Name)
	assert.Equal(t, map[string]any{"result": []any{map[string]any{"id": "d1"}}}, resp.Response)
}

func TestToolResponse(t *testing.T) {
	assert.Equal(t, map[string]any{"error": "boom"}, toolResponse(`{"error":"boom"}`))
	assert.Equal(t, map[string]any{"result": "not json"}, toolResponse("not json"))
	assert.Equal(t, map[string]any{"result": float64(3)}, toolResponse("3"))
}

func TestConvertSchema(t *testing.T) {
	s := convertSchema(tools.JSONSchema{
		Type:     "object",
		Required: []string{"collection"},
		Properties: map[string]*tools.JSONSchema{
			"collection": {Type: "string", Enum: []string{"a", "b"}},
			"limit":      {Type: "number"},
			"fields":     {Type: "array", Items: &tools.JSONSchema{Type: "string"}},
		},
	})
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, []string{"collection"}, s.Required)
	assert.Equal(t, genai.TypeString, s.Properties["collection"].Type)
	assert.Equal(t, []string{"a", "b"}, s.Properties["collection"].Enum)
	assert.Equal(t, genai.TypeNumber, s.Properties["limit"].Type)
	assert.Equal(t, genai.TypeArray, s.Properties["fields"].Type)
	assert.Equal(t, genai.TypeString, s.Properties["fields"].Items.Type)
}

func TestParseGeminiResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{
			genai.Text("Checking. "),
			genai.FunctionCall{Name: "query_collection", Args: map[string]any{"collection": "hr_employees"}},
			genai.FunctionCall{Name: "analyze_data", Args: map[string]any{"analysisType": "summary"}},
		}}}},
		UsageMetadata: &genai.UsageMetadata{PromptTokenCount: 3, CandidatesTokenCount: 4, TotalTokenCount: 7},
	}
	res, err := parseGeminiResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, "Checking.", res.Content)
	require.Len(t, res.ToolCalls, 2)
	assert.Equal(t, "gemini-call-0-query_collection", res.ToolCalls[0].ID)
	assert.Equal(t, "gemini-call-1-analyze_data", res.ToolCalls[1].ID)
	assert.JSONEq(t, `{"analysisType":"summary"}`, res.ToolCalls[1].Function.Arguments)
	assert.Equal(t, 7, res.Usage.TotalTokens)

	_, err = parseGeminiResponse(&genai.GenerateContentResponse{})
	assert.Error(t, err)
}
