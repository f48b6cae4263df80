package llm_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dileep-u-k/agent-gateway/internal/llm"
	"github.com/dileep-u-k/agent-gateway/internal/tools"
)

func float32p(v float32) *float32 { return &v }

func queryTool() []tools.Tool {
	return []tools.Tool{tools.NewFunctionTool(tools.QueryCollection, "Query a collection", tools.JSONSchema{
		Type:       "object",
		Properties: map[string]*tools.JSONSchema{"collection": {Type: "string"}},
		Required:   []string{"collection"},
	})}
}

func TestOpenAIClient_Generate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "", "tool_calls": [
				{"id": "call_1", "type": "function", "function": {"name": "query_collection", "arguments": "{\"collection\":\"sales_deals\"}"}}
			]}}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`))
	}))
	defer srv.Close()

	client, err := llm.NewOpenAIClient("sk-test", llm.WithBaseURL(srv.URL))
	require.NoError(t, err)

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: "sys"},
		{Role: llm.RoleUser, Content: "show deals"},
	}
	cfg := &llm.GenerationConfig{Model: "gpt-4o", Temperature: float32p(0.3), MaxTokens: 1500, User: "u1"}
	res, err := client.Generate(context.Background(), messages, cfg, queryTool())
	require.NoError(t, err)

	require.Len(t, res.ToolCalls, 1)
	assert.Equal(t, "call_1", res.ToolCalls[0].ID)
	assert.Equal(t, "query_collection", res.ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"collection":"sales_deals"}`, res.ToolCalls[0].Function.Arguments)
	assert.Equal(t, 15, res.Usage.TotalTokens)

	assert.Equal(t, "gpt-4o", got["model"])
	assert.Equal(t, "auto", got["tool_choice"])
	assert.Equal(t, "u1", got["user"])
	assert.EqualValues(t, 1500, got["max_tokens"])
	assert.Len(t, got["tools"], 1)
	assert.Len(t, got["messages"], 2)
}

func TestOpenAIClient_NoToolsOmitsToolChoice(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "done"}}]}`))
	}))
	defer srv.Close()

	client, err := llm.NewOpenAIClient("sk-test", llm.WithBaseURL(srv.URL))
	require.NoError(t, err)

	messages := []llm.Message{
		{Role: llm.RoleUser, Content: "q"},
		{Role: llm.RoleAssistant, ToolCalls: []*tools.ToolCall{{ID: "c1", Type: "function", Function: tools.ToolCallFunction{Name: "query_collection", Arguments: "{}"}}}},
		{Role: llm.RoleTool, ToolCallID: "c1", Name: "query_collection", Content: "[]"},
	}
	res, err := client.Generate(context.Background(), messages, &llm.GenerationConfig{Model: "gpt-4o"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "done", res.Content)

	assert.NotContains(t, got, "tools")
	assert.NotContains(t, got, "tool_choice")
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 3)
	toolMsg := msgs[2].(map[string]any)
	assert.Equal(t, "c1", toolMsg["tool_call_id"])
	assert.Equal(t, "query_collection", toolMsg["name"])
}

func TestOpenAIClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "ok"}}]}`))
	}))
	defer srv.Close()

	client, err := llm.NewOpenAIClient("sk-test", llm.WithBaseURL(srv.URL), llm.WithRetryDelay(time.Millisecond))
	require.NoError(t, err)

	res, err := client.Generate(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "q"}}, &llm.GenerationConfig{Model: "gpt-4o"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Content)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestOpenAIClient_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, err := llm.NewOpenAIClient("sk-bad", llm.WithBaseURL(srv.URL), llm.WithRetryDelay(time.Millisecond))
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "q"}}, &llm.GenerationConfig{Model: "gpt-4o"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestOpenAIClient_RetryStopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := llm.NewOpenAIClient("sk-test", llm.WithBaseURL(srv.URL), llm.WithRetryDelay(time.Hour))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.Generate(ctx, []llm.Message{{Role: llm.RoleUser, Content: "q"}}, &llm.GenerationConfig{Model: "gpt-4o"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewClients_RequireKeys(t *testing.T) {
	_, err := llm.NewOpenAIClient("")
	assert.EqualError(t, err, "OpenAI API key not configured")
	_, err = llm.NewAnthropicClient("")
	assert.EqualError(t, err, "Anthropic API key not configured")
	_, err = llm.NewGeminiClient(context.Background(), "")
	assert.EqualError(t, err, "Google API key not configured")
}
