// In file: internal/agent/orchestrator.go

// Package agent runs one preview turn: the model plans which data tools to
// call, the calls run against the permitted collections, and the model
// synthesizes an answer from the results.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/dileep-u-k/agent-gateway/internal/api"
	"github.com/dileep-u-k/agent-gateway/internal/llm"
	"github.com/dileep-u-k/agent-gateway/internal/metrics"
	"github.com/dileep-u-k/agent-gateway/internal/prompt"
	"github.com/dileep-u-k/agent-gateway/internal/store"
	"github.com/dileep-u-k/agent-gateway/internal/tools"
)

const fallbackAnswer = "I apologize, but I could not generate a response."

// sampleSize is how many rows of a query result are attached to its step.
const sampleSize = 2

// ClientProvider returns a model client for a provider name. apiKey, when
// set, overrides the server's key.
type ClientProvider interface {
	Client(ctx context.Context, provider, apiKey string) (llm.LLMClient, error)
}

// ToolRunner executes a single tool call. It reports failures in the result,
// never as a panic or error.
type ToolRunner interface {
	Execute(ctx context.Context, scope tools.Scope, name string, args map[string]any, conn *store.Connection) tools.Result
}

// Defaults are the model settings used when a request leaves them unset.
type Defaults struct {
	Provider    string  `yaml:"default_provider"`
	Model       string  `yaml:"default_model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// DefaultSettings returns the stock model settings.
func DefaultSettings() Defaults {
	return Defaults{Provider: "openai", Model: "gpt-4o", Temperature: 0.3, MaxTokens: 1500}
}

// Request is one preview turn on behalf of an authenticated user.
type Request struct {
	// RequestID correlates logs and audit entries. Generated when empty.
	RequestID string
	UserID    string
	Preview   api.PreviewRequest
}

// Orchestrator coordinates the plan, tool and synthesis phases. It holds no
// per-request state and is safe for concurrent use.
type Orchestrator struct {
	registry *tools.Registry
	runner   ToolRunner
	clients  ClientProvider
	defaults Defaults
	metrics  *metrics.Metrics
	logger   hclog.Logger
}

type Option func(*Orchestrator)

func WithDefaults(d Defaults) Option { return func(o *Orchestrator) { o.defaults = d } }

func WithMetrics(m *metrics.Metrics) Option { return func(o *Orchestrator) { o.metrics = m } }

func WithLogger(l hclog.Logger) Option { return func(o *Orchestrator) { o.logger = l } }

func New(registry *tools.Registry, runner ToolRunner, clients ClientProvider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry: registry,
		runner:   runner,
		clients:  clients,
		defaults: DefaultSettings(),
		logger:   hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// run is the immutable context of one turn.
type run struct {
	req      api.PreviewRequest
	provider string
	client   llm.LLMClient
	config   *llm.GenerationConfig
	offered  []tools.Tool
	scope    tools.Scope
	messages []llm.Message
	logger   hclog.Logger
}

// toolRound is what the tool phase hands to synthesis.
type toolRound struct {
	assistant       llm.Message
	results         []llm.Message
	collectionsUsed []string
	dataCount       int
	steps           []api.ReasoningStep
}

// Run executes one turn. Tool failures are reported to the model and do not
// fail the run; a failed model call does, as a *PhaseError.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*api.ResponseEnvelope, error) {
	r, err := o.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	if closer, ok := r.client.(io.Closer); ok {
		defer closer.Close()
	}

	plan, err := o.plan(ctx, r)
	if err != nil {
		return nil, err
	}

	if len(plan.ToolCalls) == 0 {
		r.logger.Info("model answered without tools")
		return &api.ResponseEnvelope{
			Response:        orFallback(plan.Content),
			CollectionsUsed: slices.Clone(r.req.Collections),
			DataCount:       0,
		}, nil
	}

	round := o.executeCalls(ctx, r, plan)

	answer, err := o.synthesize(ctx, r, round)
	if err != nil {
		return nil, err
	}

	env := &api.ResponseEnvelope{
		Response:        answer,
		CollectionsUsed: round.collectionsUsed,
		DataCount:       round.dataCount,
	}
	// Provenance falls back to every permitted collection when no query
	// pinpointed a subset.
	if len(env.CollectionsUsed) == 0 {
		env.CollectionsUsed = slices.Clone(r.req.Collections)
	}
	if api.Enabled(r.req.AgenticConfig.Reasoning.ShowReasoning) && len(round.steps) > 0 {
		env.ReasoningSteps = round.steps
	}
	r.logger.Info("preview complete", "tool_calls", len(plan.ToolCalls), "data_count", env.DataCount, "collections", env.CollectionsUsed)
	return env, nil
}

func (o *Orchestrator) prepare(ctx context.Context, req Request) (*run, error) {
	p := req.Preview
	id := req.RequestID
	if id == "" {
		id = uuid.NewString()
	}

	mc := p.ModelConfig
	provider := orDefault(mc.Provider, o.defaults.Provider)
	cfg := &llm.GenerationConfig{
		Model:       orDefault(mc.Model, o.defaults.Model),
		Temperature: mc.Temperature,
		MaxTokens:   mc.MaxTokens,
		User:        req.UserID,
	}
	if cfg.Temperature == nil {
		t := o.defaults.Temperature
		cfg.Temperature = &t
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = o.defaults.MaxTokens
	}

	logger := o.logger.With("request_id", id, "user_id", req.UserID)
	client, err := o.clients.Client(ctx, provider, mc.APIKey)
	if err != nil {
		o.metrics.ObserveLLM(provider, string(PhasePlan), false, 0)
		logger.Error("no model client", "provider", provider, "error", err)
		return nil, &PhaseError{Phase: PhasePlan, Err: err}
	}

	offered := tools.FilterTools(o.registry, p.AgenticConfig, p.SelectedTools)
	names := make([]string, 0, len(offered))
	for _, t := range offered {
		names = append(names, t.Function.Name)
	}

	system := prompt.Resolve(p.SystemPrompt, p.Collections, p.AgenticConfig)
	logger.Info("preview started", "provider", provider, "model", cfg.Model, "collections", p.Collections, "tools", len(offered))

	return &run{
		req:      p,
		provider: provider,
		client:   client,
		config:   cfg,
		offered:  offered,
		scope: tools.Scope{
			RequestID:   id,
			UserID:      req.UserID,
			Collections: p.Collections,
			Tools:       names,
		},
		messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: p.Message},
		},
		logger: logger,
	}, nil
}

// plan sends the system prompt, the question and the offered tools.
func (o *Orchestrator) plan(ctx context.Context, r *run) (*llm.GenerationResult, error) {
	cfg := *r.config
	cfg.ToolChoice = "auto"
	res, err := o.generate(ctx, r, PhasePlan, r.messages, &cfg, r.offered)
	if err != nil {
		return nil, err
	}
	res.ToolCalls = normalizeCallIDs(res.ToolCalls)
	return res, nil
}

// executeCalls runs every planned call in model order. Each call id gets
// exactly one tool message whatever the outcome.
func (o *Orchestrator) executeCalls(ctx context.Context, r *run, plan *llm.GenerationResult) toolRound {
	calls := plan.ToolCalls
	round := toolRound{
		assistant: llm.Message{Role: llm.RoleAssistant, Content: plan.Content, ToolCalls: calls},
		results:   make([]llm.Message, 0, len(calls)),
	}
	round.steps = append(round.steps,
		api.ReasoningStep{Step: fmt.Sprintf("Analyzing your question: \"%s\"", r.req.Message)},
		api.ReasoningStep{Step: fmt.Sprintf("Planning: I need to query %d data %s to answer this.", len(calls), plural(len(calls), "source", "sources"))},
	)

	for _, call := range calls {
		name := call.Function.Name
		args, err := parseArguments(call.Function.Arguments)
		if err != nil {
			r.logger.Warn("unparseable tool arguments", "tool", name, "call_id", call.ID, "error", err)
			round.steps = append(round.steps, api.ReasoningStep{
				Step: fmt.Sprintf("Error executing %s: %v", name, err),
				Tool: name,
			})
			round.results = append(round.results, toolMessage(call, errorContent(err)))
			continue
		}

		round.steps = append(round.steps, api.ReasoningStep{Step: tools.Narrate(name, args), Tool: name, Args: args})
		res := o.runner.Execute(ctx, r.scope, name, args, r.req.DatabaseConnection)

		if tools.Name(name) == tools.QueryCollection && res.OK() {
			if coll, _ := args["collection"].(string); coll != "" && !slices.Contains(round.collectionsUsed, coll) {
				round.collectionsUsed = append(round.collectionsUsed, coll)
			}
			round.dataCount += len(res.Rows)
			n := min(sampleSize, len(res.Rows))
			round.steps[len(round.steps)-1].Result = &api.StepResult{
				Count:  len(res.Rows),
				Sample: slices.Clone(res.Rows[:n]),
			}
		}
		round.results = append(round.results, toolMessage(call, res.JSON()))
	}

	round.steps = append(round.steps, api.ReasoningStep{
		Step: fmt.Sprintf("Synthesizing %d %s into answer...", round.dataCount, plural(round.dataCount, "record", "records")),
	})
	return round
}

// synthesize replays the conversation with the tool results. No tools are
// offered, so the model must answer from what was gathered.
func (o *Orchestrator) synthesize(ctx context.Context, r *run, round toolRound) (string, error) {
	messages := make([]llm.Message, 0, len(r.messages)+1+len(round.results))
	messages = append(messages, r.messages...)
	messages = append(messages, round.assistant)
	messages = append(messages, round.results...)

	res, err := o.generate(ctx, r, PhaseSynthesize, messages, r.config, nil)
	if err != nil {
		return "", err
	}
	return orFallback(res.Content), nil
}

func (o *Orchestrator) generate(ctx context.Context, r *run, phase Phase, messages []llm.Message, cfg *llm.GenerationConfig, offered []tools.Tool) (*llm.GenerationResult, error) {
	start := time.Now()
	res, err := r.client.Generate(ctx, messages, cfg, offered)
	elapsed := time.Since(start)
	o.metrics.ObserveLLM(r.provider, string(phase), err == nil, elapsed)
	if err != nil {
		r.logger.Error("model call failed", "phase", phase, "error", err)
		return nil, &PhaseError{Phase: phase, Err: err}
	}
	r.logger.Debug("model call complete", "phase", phase, "tool_calls", len(res.ToolCalls), "tokens", res.Usage.TotalTokens, "duration", elapsed)
	return res, nil
}

// normalizeCallIDs gives every call a distinct id so results can be paired.
// Missing or repeated ids are replaced with call_<index>.
func normalizeCallIDs(calls []*tools.ToolCall) []*tools.ToolCall {
	seen := make(map[string]bool, len(calls))
	out := make([]*tools.ToolCall, 0, len(calls))
	for i, c := range calls {
		if c == nil {
			continue
		}
		call := *c
		if call.ID == "" || seen[call.ID] {
			call.ID = fmt.Sprintf("call_%d", i)
			for seen[call.ID] {
				call.ID += "_"
			}
		}
		if call.Type == "" {
			call.Type = tools.ToolTypeFunction
		}
		seen[call.ID] = true
		out = append(out, &call)
	}
	return out
}

// parseArguments decodes a call's JSON arguments. Empty input is an empty
// object.
func parseArguments(raw string) (map[string]any, error) {
	args := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("invalid tool arguments: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

func toolMessage(call *tools.ToolCall, content string) llm.Message {
	return llm.Message{
		Role:       llm.RoleTool,
		ToolCallID: call.ID,
		Name:       call.Function.Name,
		Content:    content,
	}
}

func errorContent(err error) string {
	b, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(b)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orFallback(content string) string {
	if strings.TrimSpace(content) == "" {
		return fallbackAnswer
	}
	return content
}
