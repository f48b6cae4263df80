package tools

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/dileep-u-k/agent-gateway/internal/store"
)

// Row is a record returned by a store.
type Row = store.Row

const (
	defaultQueryLimit   = 50
	maxQueryLimit       = 500
	analysisFetchLimit  = 100
	extendedFetchLimit  = 1000
	defaultForecastSpan = 3
)

var (
	orderFields   = []string{"date", "amount", "createdAt", "updatedAt", "value"}
	analysisTypes = []string{"statistics", "trend", "anomaly", "summary", "comparison"}
)

// Invocation is a decoded, typed tool call. Each tool has exactly one
// implementation.
type Invocation interface {
	Tool() Name
	Validate() error
}

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type QueryFilters struct {
	DateRange      *DateRange `json:"dateRange,omitempty"`
	Type           string     `json:"type,omitempty"`
	Category       string     `json:"category,omitempty"`
	Status         string     `json:"status,omitempty"`
	Department     string     `json:"department,omitempty"`
	MinAmount      *float64   `json:"minAmount,omitempty"`
	MaxAmount      *float64   `json:"maxAmount,omitempty"`
	Limit          int        `json:"limit,omitempty"`
	OrderBy        string     `json:"orderBy,omitempty"`
	OrderDirection string     `json:"orderDirection,omitempty"`
}

type QueryCollectionArgs struct {
	Collection string       `json:"collection"`
	Filters    QueryFilters `json:"filters"`
}

func (QueryCollectionArgs) Tool() Name { return QueryCollection }

func (a QueryCollectionArgs) Validate() error {
	if a.Collection == "" {
		return errors.New("collection is required")
	}
	f := a.Filters
	if dr := f.DateRange; dr != nil {
		var start, end string
		if dr.Start != "" {
			t, err := store.ParseDate(dr.Start)
			if err != nil {
				return fmt.Errorf("dateRange.start: %w", err)
			}
			start = t.Format("2006-01-02")
		}
		if dr.End != "" {
			t, err := store.ParseDate(dr.End)
			if err != nil {
				return fmt.Errorf("dateRange.end: %w", err)
			}
			end = t.Format("2006-01-02")
		}
		if start != "" && end != "" && start > end {
			return fmt.Errorf("dateRange.start %s is after dateRange.end %s", dr.Start, dr.End)
		}
	}
	if f.MinAmount != nil && f.MaxAmount != nil && *f.MinAmount > *f.MaxAmount {
		return fmt.Errorf("minAmount %v is greater than maxAmount %v", *f.MinAmount, *f.MaxAmount)
	}
	if f.Limit < 0 {
		return fmt.Errorf("limit must not be negative")
	}
	if f.OrderBy != "" && !slices.Contains(orderFields, f.OrderBy) {
		return fmt.Errorf("orderBy must be one of %s", strings.Join(orderFields, ", "))
	}
	if d := f.OrderDirection; d != "" && d != "asc" && d != "desc" {
		return fmt.Errorf("orderDirection must be asc or desc")
	}
	return nil
}

type AnalyzeDataArgs struct {
	Data         []map[string]any `json:"data,omitempty"`
	Collection   string           `json:"collection,omitempty"`
	AnalysisType string           `json:"analysisType"`
	GroupBy      string           `json:"groupBy,omitempty"`
	Metric       string           `json:"metric,omitempty"`
}

func (AnalyzeDataArgs) Tool() Name { return AnalyzeData }

func (a AnalyzeDataArgs) Validate() error {
	if !slices.Contains(analysisTypes, a.AnalysisType) {
		return fmt.Errorf("analysisType must be one of %s", strings.Join(analysisTypes, ", "))
	}
	if a.AnalysisType == "comparison" && a.GroupBy == "" {
		return errors.New("groupBy is required for comparison analysis")
	}
	if len(a.Data) == 0 && a.Collection == "" {
		return errors.New("no data provided for analysis: pass data or a collection")
	}
	return nil
}

type GetCollectionSchemaArgs struct {
	Collection string `json:"collection"`
}

func (GetCollectionSchemaArgs) Tool() Name { return GetCollectionSchema }

func (a GetCollectionSchemaArgs) Validate() error {
	if a.Collection == "" {
		return errors.New("collection is required")
	}
	return nil
}

type BudgetVsActualArgs struct {
	Period     string `json:"period"`
	Department string `json:"department,omitempty"`
}

func (BudgetVsActualArgs) Tool() Name { return BudgetVsActual }
func (a BudgetVsActualArgs) Validate() error { return requirePeriod(a.Period) }

type CashFlowForecastArgs struct {
	Months int `json:"months,omitempty"`
}

func (CashFlowForecastArgs) Tool() Name { return CashFlowForecast }

func (a CashFlowForecastArgs) Validate() error {
	if a.Months < 0 || a.Months > 24 {
		return errors.New("months must be between 1 and 24")
	}
	return nil
}

type RevenueTrendArgs struct {
	Period  string `json:"period"`
	GroupBy string `json:"groupBy,omitempty"`
}

func (RevenueTrendArgs) Tool() Name { return RevenueTrendAnalysis }

func (a RevenueTrendArgs) Validate() error {
	if err := requirePeriod(a.Period); err != nil {
		return err
	}
	return oneOf("groupBy", a.GroupBy, "month", "quarter", "year")
}

type ExpenseCategorizationArgs struct {
	GroupBy string `json:"groupBy"`
	Period  string `json:"period"`
	TopN    int    `json:"topN,omitempty"`
}

func (ExpenseCategorizationArgs) Tool() Name { return ExpenseCategorizationAnalysis }

func (a ExpenseCategorizationArgs) Validate() error {
	if err := requirePeriod(a.Period); err != nil {
		return err
	}
	if a.TopN < 0 {
		return errors.New("topN must not be negative")
	}
	return oneOf("groupBy", a.GroupBy, "category", "department", "vendor")
}

type PipelineHealthArgs struct {
	Owner    string `json:"owner,omitempty"`
	Industry string `json:"industry,omitempty"`
}

func (PipelineHealthArgs) Tool() Name { return PipelineHealth }
func (PipelineHealthArgs) Validate() error { return nil }

type WinRateArgs struct {
	GroupBy string `json:"groupBy"`
	Period  string `json:"period"`
}

func (WinRateArgs) Tool() Name { return WinRateAnalysis }

func (a WinRateArgs) Validate() error {
	if err := requirePeriod(a.Period); err != nil {
		return err
	}
	if a.GroupBy == "" {
		return errors.New("groupBy is required")
	}
	return oneOf("groupBy", a.GroupBy, "owner", "industry", "stage")
}

type TeamCapacityArgs struct {
	Department string `json:"department,omitempty"`
}

func (TeamCapacityArgs) Tool() Name { return TeamCapacityAnalysis }
func (TeamCapacityArgs) Validate() error { return nil }

type DepartmentComparisonArgs struct {
	Period string `json:"period"`
}

func (DepartmentComparisonArgs) Tool() Name { return DepartmentPerformanceComparison }
func (a DepartmentComparisonArgs) Validate() error { return requirePeriod(a.Period) }

type TrendForecastArgs struct {
	Collection string `json:"collection"`
	Metric     string `json:"metric,omitempty"`
	Periods    int    `json:"periods"`
	Method     string `json:"method,omitempty"`
}

func (TrendForecastArgs) Tool() Name { return TrendForecasting }

func (a TrendForecastArgs) Validate() error {
	if a.Collection == "" {
		return errors.New("collection is required")
	}
	if a.Periods < 0 || a.Periods > 24 {
		return errors.New("periods must be between 1 and 24")
	}
	return oneOf("method", a.Method, "linear_regression", "moving_average", "exponential_smoothing")
}

// IntegrationArgs carries the loosely shaped arguments of integration tools.
type IntegrationArgs struct {
	Name   Name           `json:"-"`
	Params map[string]any `json:",remain"`
}

func (a IntegrationArgs) Tool() Name { return a.Name }
func (IntegrationArgs) Validate() error { return nil }

func requirePeriod(p string) error {
	if strings.TrimSpace(p) == "" {
		return errors.New("period is required")
	}
	return nil
}

// oneOf accepts an empty value, which means the tool default.
func oneOf(field, v string, allowed ...string) error {
	if v == "" || slices.Contains(allowed, v) {
		return nil
	}
	return fmt.Errorf("%s must be one of %s", field, strings.Join(allowed, ", "))
}

func newInvocation(name Name) (Invocation, bool) {
	switch name {
	case QueryCollection:
		return &QueryCollectionArgs{}, true
	case AnalyzeData:
		return &AnalyzeDataArgs{}, true
	case GetCollectionSchema:
		return &GetCollectionSchemaArgs{}, true
	case BudgetVsActual:
		return &BudgetVsActualArgs{}, true
	case CashFlowForecast:
		return &CashFlowForecastArgs{}, true
	case RevenueTrendAnalysis:
		return &RevenueTrendArgs{}, true
	case ExpenseCategorizationAnalysis:
		return &ExpenseCategorizationArgs{}, true
	case PipelineHealth:
		return &PipelineHealthArgs{}, true
	case WinRateAnalysis:
		return &WinRateArgs{}, true
	case TeamCapacityAnalysis:
		return &TeamCapacityArgs{}, true
	case DepartmentPerformanceComparison:
		return &DepartmentComparisonArgs{}, true
	case TrendForecasting:
		return &TrendForecastArgs{}, true
	case SlackGetMessages, JiraGetIssues:
		return &IntegrationArgs{Name: name}, true
	}
	return nil, false
}

// Decode turns a tool name and its JSON-decoded arguments into a typed,
// validated invocation. Numbers sent as strings are accepted.
func Decode(name string, args map[string]any) (Invocation, error) {
	inv, err := decodeLoose(name, args)
	if err != nil {
		return nil, err
	}
	if err := inv.Validate(); err != nil {
		return nil, &ArgumentError{Tool: inv.Tool(), Err: err}
	}
	return inv, nil
}

// decodeLoose decodes without validating.
func decodeLoose(name string, args map[string]any) (Invocation, error) {
	inv, ok := newInvocation(Name(name))
	if !ok {
		return nil, &UnsupportedToolError{Name: name}
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           inv,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(args); err != nil {
		return nil, &ArgumentError{Tool: Name(name), Err: err}
	}
	return inv, nil
}
