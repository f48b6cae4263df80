// In file: internal/tools/registry.go
package tools

import "fmt"

// Name identifies a tool. Models call tools by name, so every name is unique
// across all pools.
type Name string

// Core tools.
const (
	QueryCollection     Name = "query_collection"
	AnalyzeData         Name = "analyze_data"
	GetCollectionSchema Name = "get_collection_schema"
)

// Extended tools.
const (
	BudgetVsActual                  Name = "budget_vs_actual"
	CashFlowForecast                Name = "cash_flow_forecast"
	RevenueTrendAnalysis            Name = "revenue_trend_analysis"
	ExpenseCategorizationAnalysis   Name = "expense_categorization_analysis"
	PipelineHealth                  Name = "pipeline_health"
	WinRateAnalysis                 Name = "win_rate_analysis"
	TeamCapacityAnalysis            Name = "team_capacity_analysis"
	DepartmentPerformanceComparison Name = "department_performance_comparison"
	TrendForecasting                Name = "trend_forecasting"
)

// Integration tools.
const (
	SlackGetMessages Name = "slack_get_messages"
	JiraGetIssues    Name = "jira_get_issues"
)

// Group is an extended-tool group that can be selected as a unit.
type Group string

const (
	GroupFinance         Group = "finance"
	GroupSales           Group = "sales"
	GroupHR              Group = "hr"
	GroupCrossCollection Group = "crossCollection"
	GroupAdvanced        Group = "advanced"
)

// Registry holds the static tool pools. It is built once at startup and
// never mutated, so it is safe for concurrent use.
type Registry struct {
	core         []Tool
	extended     []Tool
	integrations []Tool
	byName       map[Name]Tool
}

// NewRegistry builds the registry with every tool the gateway ships.
func NewRegistry() *Registry {
	r := &Registry{
		core:         coreTools(),
		extended:     extendedTools(),
		integrations: integrationTools(),
		byName:       make(map[Name]Tool),
	}
	for _, pool := range [][]Tool{r.core, r.extended, r.integrations} {
		for _, t := range pool {
			if _, dup := r.byName[t.Name()]; dup {
				panic(fmt.Sprintf("tools: duplicate tool name %q", t.Name()))
			}
			r.byName[t.Name()] = t
		}
	}
	return r
}

// CoreTools returns the always-available data tools.
func (r *Registry) CoreTools() []Tool { return append([]Tool(nil), r.core...) }

// ExtendedTools returns the grouped analysis tools.
func (r *Registry) ExtendedTools() []Tool { return append([]Tool(nil), r.extended...) }

// IntegrationTools returns the tools backed by third-party integrations.
func (r *Registry) IntegrationTools() []Tool { return append([]Tool(nil), r.integrations...) }

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name Name) (Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Count returns the number of registered tools.
func (r *Registry) Count() int { return len(r.byName) }

func coreTools() []Tool {
	filters := &JSONSchema{
		Type:        "object",
		Description: "Filter criteria to narrow down results",
		Properties: map[string]*JSONSchema{
			"dateRange": {
				Type:        "object",
				Description: "Date range filter with start and end dates (ISO format)",
				Properties: map[string]*JSONSchema{
					"start": str("Start date in ISO format (YYYY-MM-DD)"),
					"end":   str("End date in ISO format (YYYY-MM-DD)"),
				},
			},
			"type":       str("Transaction type filter for finance ('income' or 'expense')"),
			"category":   str("Category filter (e.g., 'software', 'utilities' for finance; 'qualified', 'proposal' for sales)"),
			"status":     str("Status filter (e.g., 'pending', 'cleared' for finance; 'open', 'won', 'lost' for sales)"),
			"department": str("Department filter (e.g., 'Sales', 'HR', 'Engineering')"),
			"minAmount":  num("Minimum amount filter (finance transaction amount or deal value)"),
			"maxAmount":  num("Maximum amount filter (finance transaction amount or deal value)"),
			"limit": {
				Type:        "number",
				Description: "Maximum number of records to return. Use 50-100 for analysis, 10-20 for summaries.",
				Default:     defaultQueryLimit,
			},
			"orderBy":        str("Field to order by", orderFields...),
			"orderDirection": {Type: "string", Description: "Sort direction", Enum: []string{"asc", "desc"}, Default: "desc"},
		},
	}

	return []Tool{
		NewFunctionTool(QueryCollection,
			"Query a data collection with filters. Use this to fetch the records needed to answer the user's question. Filter by date range, category, status, department or amount.",
			object([]string{"collection"}, map[string]*JSONSchema{
				"collection": str("The collection or table to query. Built-in collections: finance_transactions, sales_deals, hr_employees."),
				"filters":    filters,
			})),
		NewFunctionTool(AnalyzeData,
			"Analyze data for trends, anomalies, statistics, comparisons or summaries. Pass rows from query_collection in data, or name a collection to analyze directly.",
			object([]string{"analysisType"}, map[string]*JSONSchema{
				"data": {
					Type:        "array",
					Description: "The rows to analyze (from query_collection results)",
					Items:       &JSONSchema{Type: "object", Description: "Data item from collection"},
				},
				"collection":   str("Collection to fetch rows from when data is not supplied"),
				"analysisType": str("Type of analysis", analysisTypes...),
				"groupBy":      str("Field to group by (e.g., 'category', 'department')"),
				"metric":       str("Numeric field to analyze (e.g., 'amount', 'value'). Defaults to the collection's amount field."),
			})),
		NewFunctionTool(GetCollectionSchema,
			"Get the fields available in a collection. Use this before querying when unsure what data exists.",
			object([]string{"collection"}, map[string]*JSONSchema{
				"collection": str("The collection to describe"),
			})),
	}
}

func extended(group Group, name Name, desc string, params JSONSchema) Tool {
	t := NewFunctionTool(name, desc, params)
	t.Group = group
	return t
}

func extendedTools() []Tool {
	period := str("Time period (e.g., 'last-6-months', '2025-Q1', '2025-03', '2024')")
	return []Tool{
		extended(GroupFinance, BudgetVsActual,
			"Compare budgeted amounts with actual spending. Returns variance and percentage over or under budget per department.",
			object([]string{"period"}, map[string]*JSONSchema{
				"period":     period,
				"department": str("Optional: filter by department"),
			})),
		extended(GroupFinance, CashFlowForecast,
			"Forecast income, expenses and net cash flow for the next N months from the last six months of transactions.",
			object(nil, map[string]*JSONSchema{
				"months": {Type: "number", Description: "Number of months to forecast", Default: 3},
			})),
		extended(GroupFinance, RevenueTrendAnalysis,
			"Analyze revenue over time with period-over-period growth rates.",
			object([]string{"period"}, map[string]*JSONSchema{
				"period":  period,
				"groupBy": {Type: "string", Description: "Bucket size", Enum: []string{"month", "quarter", "year"}, Default: "month"},
			})),
		extended(GroupFinance, ExpenseCategorizationAnalysis,
			"Rank spending by category, department or vendor with each group's share of the total.",
			object([]string{"groupBy", "period"}, map[string]*JSONSchema{
				"groupBy": {Type: "string", Description: "How to group expenses", Enum: []string{"category", "department", "vendor"}, Default: "category"},
				"period":  period,
				"topN":    {Type: "number", Description: "Number of top groups to return", Default: 10},
			})),
		extended(GroupSales, PipelineHealth,
			"Analyze open pipeline: total and probability-weighted value, value by stage, average deal size and age.",
			object(nil, map[string]*JSONSchema{
				"owner":    str("Optional: filter by sales owner"),
				"industry": str("Optional: filter by industry"),
			})),
		extended(GroupSales, WinRateAnalysis,
			"Calculate win rates of closed deals grouped by owner, industry or stage.",
			object([]string{"groupBy", "period"}, map[string]*JSONSchema{
				"groupBy": str("How to group the analysis", "owner", "industry", "stage"),
				"period":  period,
			})),
		extended(GroupHR, TeamCapacityAnalysis,
			"Analyze headcount, roles and utilization per department and flag over- or under-utilized teams.",
			object(nil, map[string]*JSONSchema{
				"department": str("Optional: filter by department"),
			})),
		extended(GroupCrossCollection, DepartmentPerformanceComparison,
			"Compare departments using spending and headcount: expenses, headcount and cost per employee.",
			object([]string{"period"}, map[string]*JSONSchema{
				"period": period,
			})),
		extended(GroupAdvanced, TrendForecasting,
			"Forecast a monthly metric for future periods using linear regression, moving average or exponential smoothing.",
			object([]string{"collection", "periods"}, map[string]*JSONSchema{
				"collection": str("Data source"),
				"metric":     str("Numeric field to forecast. Defaults to the collection's amount field."),
				"periods":    {Type: "number", Description: "Number of future months to forecast", Default: 3},
				"method": {
					Type:        "string",
					Description: "Forecasting method",
					Enum:        []string{"linear_regression", "moving_average", "exponential_smoothing"},
					Default:     "linear_regression",
				},
			})),
	}
}

func integrationTools() []Tool {
	slack := NewFunctionTool(SlackGetMessages,
		"Retrieve messages from a Slack channel. Requires a Slack connection.",
		object([]string{"channel"}, map[string]*JSONSchema{
			"channel": str("Slack channel ID or name"),
			"limit":   {Type: "number", Description: "Number of messages to retrieve", Default: 50},
		}))
	slack.Integration = "slack"

	jira := NewFunctionTool(JiraGetIssues,
		"Get issues from Jira. Requires a Jira connection.",
		object(nil, map[string]*JSONSchema{
			"project_key": str("Jira project key"),
			"status":      str("Filter by issue status"),
			"jql":         str("JQL query string"),
		}))
	jira.Integration = "jira"

	return []Tool{slack, jira}
}
