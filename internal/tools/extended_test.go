package tools_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dileep-u-k/agent-gateway/internal/store"
	"github.com/dileep-u-k/agent-gateway/internal/tools"
)

func run(t *testing.T, tool string, args map[string]any) any {
	t.Helper()
	res := newExecutor(t).Execute(context.Background(), scope(allCollections...), tool, args, nil)
	require.True(t, res.OK(), res.JSON())
	return res.Value
}

func TestBudgetVsActual(t *testing.T) {
	rep := run(t, "budget_vs_actual", map[string]any{"period": "2025-Q2"}).(tools.BudgetReport)

	require.Len(t, rep.Lines, 2)
	eng := rep.Lines[0]
	assert.Equal(t, "Engineering", eng.Department)
	assert.Equal(t, 200.0, eng.Budgeted)
	assert.Equal(t, 300.0, eng.Actual)
	assert.Equal(t, 100.0, eng.Variance)
	assert.Equal(t, 50.0, eng.VariancePct)
	assert.True(t, eng.OverBudget)

	assert.Equal(t, "Sales", rep.Lines[1].Department)
	assert.False(t, rep.Lines[1].OverBudget)
	assert.Equal(t, []string{"Engineering"}, rep.OverBudget)
	assert.Equal(t, 700.0, rep.TotalBudgeted)
	assert.Equal(t, 500.0, rep.TotalActual)
	assert.Equal(t, -200.0, rep.TotalVariance)

	rep = run(t, "budget_vs_actual", map[string]any{"period": "2025-Q2", "department": "sales"}).(tools.BudgetReport)
	require.Len(t, rep.Lines, 1)
	assert.Equal(t, "Sales", rep.Lines[0].Department)
}

func TestBudgetVsActual_TiesOrderByDepartment(t *testing.T) {
	data := map[string][]store.Row{
		"finance_budgets": {
			{"id": "b1", "month": "2025-05", "department": "Ops", "amount": 100.0},
			{"id": "b2", "month": "2025-05", "department": "Legal", "amount": 100.0},
			{"id": "b3", "month": "2025-05", "department": "Marketing", "amount": 100.0},
		},
		"finance_transactions": {},
	}
	exec := tools.NewExecutor(tools.NewRegistry(), store.NewMemory(data), tools.WithClock(func() time.Time { return testNow }))

	for i := 0; i < 10; i++ {
		res := exec.Execute(context.Background(), scope(allCollections...), "budget_vs_actual", map[string]any{"period": "2025-Q2"}, nil)
		require.True(t, res.OK(), res.JSON())
		rep := res.Value.(tools.BudgetReport)
		require.Len(t, rep.Lines, 3)
		assert.Equal(t, "Legal", rep.Lines[0].Department)
		assert.Equal(t, "Marketing", rep.Lines[1].Department)
		assert.Equal(t, "Ops", rep.Lines[2].Department)
	}
}

func TestCashFlowForecast(t *testing.T) {
	rep := run(t, "cash_flow_forecast", map[string]any{}).(tools.CashFlowReport)

	require.Len(t, rep.History, 6)
	assert.Equal(t, "2024-12", rep.History[0].Month)
	assert.Equal(t, 50.0, rep.History[0].Expense)
	assert.Equal(t, tools.MonthFlow{Month: "2025-05", Income: 1000, Expense: 300, Net: 700}, rep.History[5])

	require.Len(t, rep.Forecast, 3)
	assert.Equal(t, "2025-06", rep.Forecast[0].Month)
	assert.Equal(t, "2025-08", rep.Forecast[2].Month)
	assert.Equal(t, 300.0, rep.AvgMonthlyIncome)
	assert.Equal(t, "increasing", rep.Trend)
}

func TestRevenueTrend(t *testing.T) {
	rep := run(t, "revenue_trend_analysis", map[string]any{"period": "2025"}).(tools.RevenueTrendReport)

	require.Len(t, rep.Buckets, 2)
	assert.Equal(t, "2025-04", rep.Buckets[0].Period)
	assert.Nil(t, rep.Buckets[0].GrowthPct)
	require.NotNil(t, rep.Buckets[1].GrowthPct)
	assert.Equal(t, 25.0, *rep.Buckets[1].GrowthPct)
	assert.Equal(t, 1800.0, rep.TotalRevenue)
	assert.Equal(t, "increasing", rep.Trend)

	rep = run(t, "revenue_trend_analysis", map[string]any{"period": "2025", "groupBy": "quarter"}).(tools.RevenueTrendReport)
	require.Len(t, rep.Buckets, 1)
	assert.Equal(t, "2025-Q2", rep.Buckets[0].Period)
	assert.Equal(t, "insufficient_data", rep.Trend)
}

func TestExpenseCategorization(t *testing.T) {
	rep := run(t, "expense_categorization_analysis", map[string]any{"groupBy": "category", "period": "last-12-months"}).(tools.ExpenseReport)

	assert.Equal(t, 550.0, rep.TotalExpense)
	require.Len(t, rep.Top, 2)
	assert.Equal(t, tools.ExpenseGroup{Group: "software", Total: 350, Count: 2, Percentage: 63.64}, rep.Top[0])
	assert.Equal(t, 36.36, rep.Top[1].Percentage)

	rep = run(t, "expense_categorization_analysis", map[string]any{"groupBy": "category", "period": "last-12-months", "topN": 1}).(tools.ExpenseReport)
	assert.Len(t, rep.Top, 1)
	assert.Equal(t, 550.0, rep.TotalExpense)
}

func TestPipelineHealth(t *testing.T) {
	rep := run(t, "pipeline_health", map[string]any{}).(tools.PipelineReport)

	assert.Equal(t, 2, rep.OpenDeals)
	assert.Equal(t, 15000.0, rep.TotalValue)
	assert.Equal(t, 8500.0, rep.WeightedValue)
	assert.Equal(t, 7500.0, rep.AvgDealSize)
	assert.Equal(t, 66.67, rep.ConversionRate)
	assert.Equal(t, "healthy", rep.Health)
	require.Len(t, rep.ByStage, 2)
	assert.Equal(t, "negotiation", rep.ByStage[0].Stage)
	assert.Equal(t, 21.0, rep.AvgDealAgeDays)

	rep = run(t, "pipeline_health", map[string]any{"owner": "bob"}).(tools.PipelineReport)
	assert.Equal(t, 1, rep.OpenDeals)
	assert.Equal(t, "needs_attention", rep.Health)
	assert.Equal(t, 0.0, rep.ConversionRate)
}

func TestWinRate(t *testing.T) {
	rep := run(t, "win_rate_analysis", map[string]any{"groupBy": "owner", "period": "2025-Q2"}).(tools.WinRateReport)

	require.Len(t, rep.Groups, 2)
	assert.Equal(t, tools.WinRateGroup{Group: "ann", Won: 2, Lost: 0, WinRate: 100}, rep.Groups[0])
	assert.Equal(t, tools.WinRateGroup{Group: "bob", Won: 0, Lost: 1, WinRate: 0}, rep.Groups[1])
	assert.Equal(t, 66.67, rep.OverallWinRate)
}

func TestTeamCapacity(t *testing.T) {
	rep := run(t, "team_capacity_analysis", map[string]any{}).(tools.CapacityReport)

	assert.Equal(t, 3, rep.TotalHeadcount)
	require.Len(t, rep.Departments, 2)
	eng := rep.Departments[0]
	assert.Equal(t, "Engineering", eng.Department)
	assert.Equal(t, 2, eng.Headcount)
	assert.Equal(t, map[string]int{"engineer": 2}, eng.Roles)
	assert.Equal(t, "over_utilized", eng.Status)
	assert.Equal(t, "under_utilized", rep.Departments[1].Status)
}

func TestDepartmentComparison(t *testing.T) {
	rep := run(t, "department_performance_comparison", map[string]any{"period": "2025-Q2"}).(tools.DepartmentComparison)

	require.Len(t, rep.Departments, 2)
	assert.Equal(t, tools.DepartmentScore{Department: "Engineering", Expenses: 300, Headcount: 2, CostPerEmployee: 150}, rep.Departments[0])
	assert.Equal(t, tools.DepartmentScore{Department: "Sales", Expenses: 200, Revenue: 1800, Headcount: 1, CostPerEmployee: 200}, rep.Departments[1])
}

func TestTrendForecasting(t *testing.T) {
	rep := run(t, "trend_forecasting", map[string]any{
		"collection": "finance_transactions",
		"periods":    2,
		"method":     "moving_average",
	}).(tools.ForecastReport)

	assert.Equal(t, "amount", rep.Metric)
	require.Len(t, rep.History, 3)
	require.Len(t, rep.Forecast, 2)
	assert.Equal(t, tools.ForecastPoint{Period: "2025-06", Value: 783.33}, rep.Forecast[0])
	assert.Equal(t, "2025-07", rep.Forecast[1].Period)

	rep = run(t, "trend_forecasting", map[string]any{"collection": "finance_transactions", "periods": 1}).(tools.ForecastReport)
	assert.Equal(t, "linear_regression", rep.Method)
	assert.Equal(t, "increasing", rep.Trend)

	res := newExecutor(t).Execute(context.Background(), scope(allCollections...), "trend_forecasting",
		map[string]any{"collection": "hr_employees", "periods": 1}, nil)
	require.False(t, res.OK())
	assert.Contains(t, res.Err.Error, "not enough monthly history")
}
