package tools

import (
	"fmt"
	"strconv"
	"strings"
)

// Narrate renders the reasoning step announcing a tool call. Arguments that
// do not decode still produce a generic line; validation happens on execute.
func Narrate(name string, args map[string]any) string {
	inv, err := decodeLoose(name, args)
	if err != nil {
		return fmt.Sprintf("Calling %s", name)
	}

	switch a := inv.(type) {
	case *QueryCollectionArgs:
		desc := describeFilters(a.Filters)
		if len(desc) == 0 {
			return fmt.Sprintf("Querying %s", a.Collection)
		}
		return fmt.Sprintf("Querying %s with filters: %s", a.Collection, strings.Join(desc, ", "))
	case *AnalyzeDataArgs:
		if a.GroupBy != "" {
			return fmt.Sprintf("Analyzing data for %s grouped by %s", a.AnalysisType, a.GroupBy)
		}
		return fmt.Sprintf("Analyzing data for %s", a.AnalysisType)
	case *GetCollectionSchemaArgs:
		return fmt.Sprintf("Inspecting the fields of %s", a.Collection)
	case *BudgetVsActualArgs:
		return withDepartment(fmt.Sprintf("Comparing budget to actual spend for %s", a.Period), a.Department)
	case *CashFlowForecastArgs:
		months := a.Months
		if months == 0 {
			months = defaultForecastSpan
		}
		return fmt.Sprintf("Forecasting cash flow for the next %d month(s)", months)
	case *RevenueTrendArgs:
		return fmt.Sprintf("Analyzing revenue trend for %s", a.Period)
	case *ExpenseCategorizationArgs:
		return fmt.Sprintf("Breaking down expenses by %s for %s", orDefault(a.GroupBy, "category"), a.Period)
	case *PipelineHealthArgs:
		return "Checking sales pipeline health"
	case *WinRateArgs:
		return fmt.Sprintf("Calculating win rate by %s for %s", a.GroupBy, a.Period)
	case *TeamCapacityArgs:
		return withDepartment("Assessing team capacity", a.Department)
	case *DepartmentComparisonArgs:
		return fmt.Sprintf("Comparing department performance for %s", a.Period)
	case *TrendForecastArgs:
		return fmt.Sprintf("Forecasting %s trend using %s", a.Collection, orDefault(a.Method, "linear_regression"))
	}
	return fmt.Sprintf("Calling %s", name)
}

func describeFilters(f QueryFilters) []string {
	var desc []string
	if dr := f.DateRange; dr != nil {
		desc = append(desc, fmt.Sprintf("date range: %s to %s", dr.Start, dr.End))
	}
	if f.Category != "" {
		desc = append(desc, "category: "+f.Category)
	}
	if f.Status != "" {
		desc = append(desc, "status: "+f.Status)
	}
	if f.MinAmount != nil && *f.MinAmount != 0 {
		desc = append(desc, "min amount: $"+strconv.FormatFloat(*f.MinAmount, 'f', -1, 64))
	}
	return desc
}

func withDepartment(s, dept string) string {
	if dept == "" {
		return s
	}
	return s + " in " + dept
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
