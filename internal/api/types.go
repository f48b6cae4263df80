// In file: internal/api/types.go

// Package api holds the request, configuration and response types shared by
// the HTTP layer, the orchestrator and the tool layer.
package api

import "github.com/dileep-u-k/agent-gateway/internal/store"

// PreviewRequest is the body of POST /agents/preview.
type PreviewRequest struct {
	Message            string            `json:"message" binding:"required"`
	Collections        []string          `json:"collections" binding:"required,min=1"`
	SelectedTools      []string          `json:"selectedTools,omitempty"`
	AgenticConfig      CapabilityConfig  `json:"agenticConfig"`
	DatabaseConnection *store.Connection `json:"databaseConnection,omitempty"`
	ModelConfig        ModelConfig       `json:"modelConfig"`
	SystemPrompt       string            `json:"systemPrompt,omitempty"`
}

// ModelConfig selects the language model for a request. Zero values fall
// back to the gateway defaults.
type ModelConfig struct {
	Provider    string   `json:"provider,omitempty"`
	Model       string   `json:"model,omitempty"`
	Temperature *float32 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"maxTokens,omitempty"`
	APIKey      string   `json:"apiKey,omitempty"`
}

// CapabilityConfig controls which optional behaviors an agent has. It is
// read-only for the duration of a run. Pointer booleans distinguish an
// explicit false from an unset value, which defaults to enabled.
type CapabilityConfig struct {
	Reasoning            Reasoning         `json:"reasoning"`
	Tools                ToolSelection     `json:"tools"`
	ExtendedToolsEnabled bool              `json:"extendedToolsEnabled"`
	EnabledIntegrations  []string          `json:"enabledIntegrations,omitempty"`
	ProactiveInsights    ProactiveInsights `json:"proactiveInsights"`
	ResponseStyle        ResponseStyle     `json:"responseStyle"`
	DomainKnowledge      DomainKnowledge   `json:"domainKnowledge"`
}

type Reasoning struct {
	Enabled       *bool  `json:"enabled,omitempty"`
	Depth         string `json:"depth,omitempty"`
	ShowReasoning *bool  `json:"showReasoning,omitempty"`
	MaxSteps      int    `json:"maxSteps,omitempty"`
}

type ToolSelection struct {
	Basic    BasicTools    `json:"basic"`
	Extended ExtendedTools `json:"powerful"`
}

type BasicTools struct {
	QueryCollection     *bool `json:"queryCollection,omitempty"`
	AnalyzeData         *bool `json:"analyzeData,omitempty"`
	GetCollectionSchema *bool `json:"getCollectionSchema,omitempty"`
}

// ExtendedTools lists the enabled tool names per group. A nil list means the
// group was not configured.
type ExtendedTools struct {
	Finance         []string `json:"finance,omitempty"`
	Sales           []string `json:"sales,omitempty"`
	HR              []string `json:"hr,omitempty"`
	CrossCollection []string `json:"crossCollection,omitempty"`
	Advanced        []string `json:"advanced,omitempty"`
}

// Configured reports whether any group list was set.
func (e ExtendedTools) Configured() bool {
	return e.Finance != nil || e.Sales != nil || e.HR != nil || e.CrossCollection != nil || e.Advanced != nil
}

type ProactiveInsights struct {
	Enabled             *bool  `json:"enabled,omitempty"`
	AnomalyDetection    *bool  `json:"anomalyDetection,omitempty"`
	TrendIdentification *bool  `json:"trendIdentification,omitempty"`
	FollowUpQuestions   *bool  `json:"followUpQuestions,omitempty"`
	Recommendations     *bool  `json:"recommendations,omitempty"`
	Frequency           string `json:"frequency,omitempty"`
}

type ResponseStyle struct {
	Tone           string `json:"tone,omitempty"`
	DetailLevel    string `json:"detailLevel,omitempty"`
	IncludeNumbers *bool  `json:"includeNumbers,omitempty"`
	IncludeSources *bool  `json:"includeSources,omitempty"`
	FormatOutput   *bool  `json:"formatOutput,omitempty"`
}

type DomainKnowledge struct {
	Domain             string `json:"domain,omitempty"`
	CustomInstructions string `json:"customInstructions,omitempty"`
}

// Enabled treats an unset flag as on.
func Enabled(b *bool) bool { return b == nil || *b }

// Set treats an unset flag as off.
func Set(b *bool) bool { return b != nil && *b }

// Bool returns a pointer to v, for building configs in code.
func Bool(v bool) *bool { return &v }

// ReasoningStep is one narrated unit of the run's trace.
type ReasoningStep struct {
	Step   string         `json:"step"`
	Tool   string         `json:"tool,omitempty"`
	Args   map[string]any `json:"args,omitempty"`
	Result *StepResult    `json:"result,omitempty"`
}

// StepResult summarizes the rows a step produced.
type StepResult struct {
	Count  int         `json:"count"`
	Sample []store.Row `json:"sample"`
}

// ResponseEnvelope is the successful preview response.
type ResponseEnvelope struct {
	Response        string          `json:"response"`
	CollectionsUsed []string        `json:"collectionsUsed"`
	DataCount       int             `json:"dataCount"`
	ReasoningSteps  []ReasoningStep `json:"reasoningSteps,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
