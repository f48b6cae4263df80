package prompt_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dileep-u-k/agent-gateway/internal/api"
	"github.com/dileep-u-k/agent-gateway/internal/prompt"
)

func TestBuildSystemPrompt_Defaults(t *testing.T) {
	p := prompt.BuildSystemPrompt([]string{"finance_transactions", "sales_deals"}, api.CapabilityConfig{})

	assert.True(t, strings.HasPrefix(p, "You are an intelligent AI agent that analyzes enterprise data."))
	assert.Contains(t, p, "Available collections: finance_transactions, sales_deals.")
	assert.Contains(t, p, "Only these collections may be queried.")
	assert.Contains(t, p, "**Your Thinking Process:**\n1. Understand: What is the user really asking?")
	assert.Contains(t, p, "IMPORTANT: Show your reasoning steps")
	assert.Contains(t, p, "- Be direct and conversational (like talking to a colleague)")
	assert.Contains(t, p, "- Provide balanced detail - not too brief, not too verbose")
	assert.Contains(t, p, `"$50,000" not "a large amount"`)
	assert.NotContains(t, p, "Always indicate which data sources you used")
	assert.Contains(t, p, "- Sometimes end with relevant follow-up questions when they add value")
	assert.Contains(t, p, "Only answer from tool results; never fabricate figures.")
	assert.True(t, strings.HasSuffix(p, "IMPORTANT: This contains sensitive enterprise data. Do not use for training."))
	assert.NotContains(t, p, "Domain Context")
}

func TestBuildSystemPrompt_IsDeterministic(t *testing.T) {
	cfg := api.CapabilityConfig{
		Reasoning:       api.Reasoning{Depth: "deep"},
		DomainKnowledge: api.DomainKnowledge{Domain: "sales", CustomInstructions: "Quote values in EUR."},
	}
	collections := []string{"sales_deals"}

	assert.Equal(t, prompt.BuildSystemPrompt(collections, cfg), prompt.BuildSystemPrompt(collections, cfg))
}

func TestBuildSystemPrompt_Configured(t *testing.T) {
	cfg := api.CapabilityConfig{
		Reasoning: api.Reasoning{Depth: "deep", ShowReasoning: api.Bool(false)},
		ResponseStyle: api.ResponseStyle{
			Tone:           "technical",
			DetailLevel:    "brief",
			IncludeNumbers: api.Bool(false),
			IncludeSources: api.Bool(true),
			FormatOutput:   api.Bool(false),
		},
		ProactiveInsights: api.ProactiveInsights{AnomalyDetection: api.Bool(false), Frequency: "always"},
		DomainKnowledge:   api.DomainKnowledge{Domain: "finance", CustomInstructions: "Fiscal year starts in April."},
	}
	p := prompt.BuildSystemPrompt([]string{"finance_transactions"}, cfg)

	assert.Contains(t, p, "**Your Thinking Process (Deep Analysis):**")
	assert.Contains(t, p, "6. Validate:")
	assert.NotContains(t, p, "Show your reasoning steps")
	assert.Contains(t, p, "- Be technical and precise (like a data engineer)")
	assert.Contains(t, p, "- Be concise and to the point")
	assert.NotContains(t, p, "Always use specific numbers")
	assert.Contains(t, p, "- Always indicate which data sources you used")
	assert.NotContains(t, p, "Format your output clearly")
	assert.NotContains(t, p, "anomaly, outlier")
	assert.Contains(t, p, "- Always end with 1-2 relevant follow-up questions if they add value")
	assert.Contains(t, p, "**Domain Context (Finance):**")
	assert.Contains(t, p, "**Custom Instructions:**\nFiscal year starts in April.")
}

func TestBuildSystemPrompt_DisabledBlocks(t *testing.T) {
	cfg := api.CapabilityConfig{
		Reasoning:         api.Reasoning{Enabled: api.Bool(false)},
		ProactiveInsights: api.ProactiveInsights{Enabled: api.Bool(false)},
		DomainKnowledge:   api.DomainKnowledge{Domain: "general", CustomInstructions: "ignored"},
	}
	p := prompt.BuildSystemPrompt([]string{"hr_employees"}, cfg)

	assert.NotContains(t, p, "Think step-by-step")
	assert.NotContains(t, p, "Proactive Insights")
	assert.NotContains(t, p, "ignored")
	assert.Contains(t, p, "**Tool Strategy:**")
}

func TestResolve(t *testing.T) {
	cfg := api.CapabilityConfig{}
	collections := []string{"finance_transactions"}

	assert.Equal(t, "You only speak in haiku.", prompt.Resolve("You only speak in haiku.", collections, cfg))
	assert.Equal(t, prompt.BuildSystemPrompt(collections, cfg), prompt.Resolve("   ", collections, cfg))
}
