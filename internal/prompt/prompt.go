// Package prompt builds the system prompt an agent runs under from its
// capability configuration.
package prompt

import (
	"strings"

	"github.com/dileep-u-k/agent-gateway/internal/api"
)

const thinkingDeep = `**Your Thinking Process (Deep Analysis):**
1. Understand: What is the user really asking? What do they need to know? What's the context?
2. Plan: What data do I need? What filters should I use? Do I need multiple queries? What's the sequence?
3. Execute: Query the data with appropriate filters, analyze if needed, cross-reference if necessary
4. Synthesize: Combine findings into a clear, useful answer with context
5. Reflect: What else might be useful? What patterns did I notice? What should the user know?
6. Validate: Does my answer make sense? Did I miss anything important?`

const thinkingModerate = `**Your Thinking Process:**
1. Understand: What is the user really asking? What do they need to know?
2. Plan: What data do I need? What filters should I use? Do I need multiple queries?
3. Execute: Query the data with appropriate filters, analyze if needed
4. Synthesize: Combine findings into a clear, useful answer
5. Reflect: What else might be useful? What patterns did I notice?`

const thinkingShallow = `**Your Thinking Process:**
1. Understand: What is the user asking?
2. Plan: What data do I need?
3. Execute: Query the data
4. Respond: Provide the answer`

const toolStrategy = `**Tool Strategy:**
- Always use filters - don't fetch everything
- For "total revenue": query with type='income' and sum amounts
- For trends: query across time periods, use analyze_data
- For comparisons: query different groups separately
- Chain queries for complex questions`

const exampleReasoning = `**Example Reasoning:**
User: "What's our total revenue?"
Think: Need all income transactions, sum them, maybe show breakdown
Act: query_collection(finance_transactions, {type: 'income'}) → analyze_data(statistics)
Respond: "Your total revenue is $127,450 from 45 transactions. The largest single transaction was $46,411 in February. Revenue has been steady over the past 3 months. Want me to break this down by category or show you the trend over time?"`

var domainContext = map[string]string{
	"finance": `**Domain Context (Finance):**
- You're analyzing financial data (transactions, budgets, cash flow)
- Use financial terminology appropriately
- Focus on financial metrics and KPIs`,
	"sales": `**Domain Context (Sales):**
- You're analyzing sales data (deals, pipeline, forecasts)
- Use sales terminology appropriately
- Focus on sales metrics and conversion rates`,
	"hr": `**Domain Context (HR):**
- You're analyzing HR data (employees, performance, capacity)
- Use HR terminology appropriately
- Focus on people metrics and team analytics`,
}

// Resolve returns override when it is non-blank, otherwise the prompt built
// from cfg.
func Resolve(override string, collections []string, cfg api.CapabilityConfig) string {
	if strings.TrimSpace(override) != "" {
		return override
	}
	return BuildSystemPrompt(collections, cfg)
}

// BuildSystemPrompt renders the system prompt for an agent limited to
// collections. The output depends only on its arguments.
func BuildSystemPrompt(collections []string, cfg api.CapabilityConfig) string {
	var b strings.Builder
	section := func(s string) {
		b.WriteString("\n\n")
		b.WriteString(s)
	}
	line := func(s string) {
		b.WriteString("\n- ")
		b.WriteString(s)
	}

	b.WriteString("You are an intelligent AI agent that analyzes enterprise data.")

	if r := cfg.Reasoning; api.Enabled(r.Enabled) {
		section("Think step-by-step before responding.")
		switch r.Depth {
		case "deep":
			section(thinkingDeep)
		case "shallow":
			section(thinkingShallow)
		default:
			section(thinkingModerate)
		}
		if api.Enabled(r.ShowReasoning) {
			section("IMPORTANT: Show your reasoning steps to the user so they understand your thinking process.")
		}
	}

	section("Available collections: " + strings.Join(collections, ", ") + ".")
	b.WriteString("\nOnly these collections may be queried. Requests for any other collection will be refused.")

	style := cfg.ResponseStyle
	section("**Response Style:**")
	switch style.Tone {
	case "professional":
		line("Be professional and formal (like a business analyst)")
	case "", "conversational":
		line("Be direct and conversational (like talking to a colleague)")
	case "technical":
		line("Be technical and precise (like a data engineer)")
	default:
		line("Be friendly and approachable")
	}
	switch style.DetailLevel {
	case "brief":
		line("Be concise and to the point")
	case "detailed":
		line("Provide comprehensive, detailed answers")
	default:
		line("Provide balanced detail - not too brief, not too verbose")
	}
	if api.Enabled(style.IncludeNumbers) {
		line(`Always use specific numbers: "$50,000" not "a large amount"`)
	}
	if api.Set(style.IncludeSources) {
		line("Always indicate which data sources you used")
	}
	if api.Enabled(style.FormatOutput) {
		line("Format your output clearly with markdown, lists, and structure")
	}

	section(toolStrategy)

	if pi := cfg.ProactiveInsights; api.Enabled(pi.Enabled) {
		section("**Proactive Insights:**")
		if api.Enabled(pi.AnomalyDetection) {
			line("If you notice something unusual (anomaly, outlier), mention it naturally")
		}
		if api.Enabled(pi.TrendIdentification) {
			line("Identify and mention trends you notice in the data")
		}
		if api.Enabled(pi.FollowUpQuestions) {
			switch pi.Frequency {
			case "always":
				line("Always end with 1-2 relevant follow-up questions if they add value")
			case "", "sometimes":
				line("Sometimes end with relevant follow-up questions when they add value")
			default:
				line("Only suggest follow-up questions for critical insights")
			}
		}
		if api.Enabled(pi.Recommendations) {
			line("Provide actionable recommendations when appropriate")
		}
	}

	if dk := cfg.DomainKnowledge; dk.Domain != "" && dk.Domain != "general" {
		if ctx, ok := domainContext[dk.Domain]; ok {
			section(ctx)
		}
		if dk.CustomInstructions != "" {
			section("**Custom Instructions:**\n" + dk.CustomInstructions)
		}
	}

	section(exampleReasoning)
	section("Only answer from tool results; never fabricate figures.")
	section("IMPORTANT: This contains sensitive enterprise data. Do not use for training.")
	return b.String()
}
