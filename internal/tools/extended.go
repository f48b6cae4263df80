package tools

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dileep-u-k/agent-gateway/internal/store"
)

func (s *session) fetchAll(collection string) ([]Row, error) {
	return s.fetch(collection, store.Filters{Limit: extendedFetchLimit})
}

func str0(r Row, field string) string {
	v, _ := r[field].(string)
	return v
}

func num0(r Row, field string) float64 {
	v, _ := store.ToFloat(r[field])
	return v
}

func isType(r Row, typ string) bool { return strings.EqualFold(str0(r, "type"), typ) }

type BudgetLine struct {
	Department  string  `json:"department"`
	Budgeted    float64 `json:"budgeted"`
	Actual      float64 `json:"actual"`
	Variance    float64 `json:"variance"`
	VariancePct float64 `json:"variancePct"`
	OverBudget  bool    `json:"overBudget"`
}

type BudgetReport struct {
	Period        span         `json:"period"`
	Lines         []BudgetLine `json:"lines"`
	TotalBudgeted float64      `json:"totalBudgeted"`
	TotalActual   float64      `json:"totalActual"`
	TotalVariance float64      `json:"totalVariance"`
	OverBudget    []string     `json:"overBudget"`
}

func (s *session) budgetVsActual(a *BudgetVsActualArgs) (BudgetReport, error) {
	p := parsePeriod(a.Period, s.now)
	budgets, err := s.fetchAll(FinanceBudgets)
	if err != nil {
		return BudgetReport{}, err
	}
	txns, err := s.fetchAll(FinanceTransactions)
	if err != nil {
		return BudgetReport{}, err
	}

	lines := map[string]*BudgetLine{}
	line := func(dept string) *BudgetLine {
		if lines[dept] == nil {
			lines[dept] = &BudgetLine{Department: dept}
		}
		return lines[dept]
	}
	wanted := func(dept string) bool { return a.Department == "" || strings.EqualFold(dept, a.Department) }

	for _, b := range budgets {
		month := str0(b, "month")
		if month == "" || !p.contains(month+"-01") || !wanted(str0(b, "department")) {
			continue
		}
		line(str0(b, "department")).Budgeted += num0(b, "amount")
	}
	for _, t := range txns {
		if !isType(t, "expense") || !p.contains(t["date"]) || !wanted(str0(t, "department")) {
			continue
		}
		line(str0(t, "department")).Actual += math.Abs(num0(t, "amount"))
	}

	rep := BudgetReport{Period: p, Lines: []BudgetLine{}, OverBudget: []string{}}
	for _, l := range lines {
		l.Variance = round2(l.Actual - l.Budgeted)
		if l.Budgeted > 0 {
			l.VariancePct = round2(l.Variance / l.Budgeted * 100)
		}
		l.OverBudget = l.Actual > l.Budgeted
		rep.TotalBudgeted += l.Budgeted
		rep.TotalActual += l.Actual
		rep.Lines = append(rep.Lines, *l)
	}
	sort.Slice(rep.Lines, func(i, j int) bool {
		if rep.Lines[i].Variance != rep.Lines[j].Variance {
			return rep.Lines[i].Variance > rep.Lines[j].Variance
		}
		return rep.Lines[i].Department < rep.Lines[j].Department
	})
	for _, l := range rep.Lines {
		if l.OverBudget {
			rep.OverBudget = append(rep.OverBudget, l.Department)
		}
	}
	rep.TotalVariance = round2(rep.TotalActual - rep.TotalBudgeted)
	return rep, nil
}

type MonthFlow struct {
	Month   string  `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Net     float64 `json:"net"`
}

type CashFlowReport struct {
	History           []MonthFlow `json:"history"`
	Forecast          []MonthFlow `json:"forecast"`
	AvgMonthlyIncome  float64     `json:"avgMonthlyIncome"`
	AvgMonthlyExpense float64     `json:"avgMonthlyExpense"`
	Trend             string      `json:"trend"`
}

func (s *session) cashFlowForecast(a *CashFlowForecastArgs) (CashFlowReport, error) {
	months := a.Months
	if months == 0 {
		months = defaultForecastSpan
	}
	txns, err := s.fetchAll(FinanceTransactions)
	if err != nil {
		return CashFlowReport{}, err
	}

	// The six complete months before the current one.
	first := startOfMonth(s.now).AddDate(0, -6, 0)
	history := make([]MonthFlow, 6)
	index := map[string]int{}
	for i := range history {
		m := first.AddDate(0, i, 0).Format("2006-01")
		history[i].Month = m
		index[m] = i
	}
	for _, t := range txns {
		d, ok := store.ToDateString(t["date"])
		if !ok || len(d) < 7 {
			continue
		}
		i, ok := index[d[:7]]
		if !ok {
			continue
		}
		amount := math.Abs(num0(t, "amount"))
		if isType(t, "income") {
			history[i].Income += amount
		} else if isType(t, "expense") {
			history[i].Expense += amount
		}
	}
	incomes := make([]float64, len(history))
	expenses := make([]float64, len(history))
	for i := range history {
		history[i].Net = round2(history[i].Income - history[i].Expense)
		incomes[i], expenses[i] = history[i].Income, history[i].Expense
	}

	rep := CashFlowReport{History: history, Forecast: make([]MonthFlow, 0, months)}
	rep.AvgMonthlyIncome, _ = meanStdDev(incomes)
	rep.AvgMonthlyExpense, _ = meanStdDev(expenses)
	incomeSlope, expenseSlope := slope(incomes), slope(expenses)
	for i := 1; i <= months; i++ {
		in := math.Max(0, rep.AvgMonthlyIncome+incomeSlope*float64(i))
		out := math.Max(0, rep.AvgMonthlyExpense+expenseSlope*float64(i))
		rep.Forecast = append(rep.Forecast, MonthFlow{
			Month:   startOfMonth(s.now).AddDate(0, i-1, 0).Format("2006-01"),
			Income:  round2(in),
			Expense: round2(out),
			Net:     round2(in - out),
		})
	}
	rep.AvgMonthlyIncome = round2(rep.AvgMonthlyIncome)
	rep.AvgMonthlyExpense = round2(rep.AvgMonthlyExpense)
	rep.Trend = direction(incomeSlope - expenseSlope)
	return rep, nil
}

type RevenueBucket struct {
	Period    string   `json:"period"`
	Revenue   float64  `json:"revenue"`
	Count     int      `json:"count"`
	GrowthPct *float64 `json:"growthPct,omitempty"`
}

type RevenueTrendReport struct {
	Period       span            `json:"period"`
	GroupBy      string          `json:"groupBy"`
	Buckets      []RevenueBucket `json:"buckets"`
	TotalRevenue float64         `json:"totalRevenue"`
	Trend        string          `json:"trend"`
}

func (s *session) revenueTrend(a *RevenueTrendArgs) (RevenueTrendReport, error) {
	groupBy := a.GroupBy
	if groupBy == "" {
		groupBy = "month"
	}
	p := parsePeriod(a.Period, s.now)
	txns, err := s.fetchAll(FinanceTransactions)
	if err != nil {
		return RevenueTrendReport{}, err
	}

	byKey := map[string]*RevenueBucket{}
	for _, t := range txns {
		if !isType(t, "income") || !p.contains(t["date"]) {
			continue
		}
		d, _ := store.ToDateString(t["date"])
		key := bucketKey(d, groupBy)
		if byKey[key] == nil {
			byKey[key] = &RevenueBucket{Period: key}
		}
		byKey[key].Revenue += math.Abs(num0(t, "amount"))
		byKey[key].Count++
	}

	rep := RevenueTrendReport{Period: p, GroupBy: groupBy, Buckets: []RevenueBucket{}}
	for _, b := range byKey {
		rep.Buckets = append(rep.Buckets, *b)
	}
	sort.Slice(rep.Buckets, func(i, j int) bool { return rep.Buckets[i].Period < rep.Buckets[j].Period })
	values := make([]float64, len(rep.Buckets))
	for i := range rep.Buckets {
		b := &rep.Buckets[i]
		values[i] = b.Revenue
		rep.TotalRevenue += b.Revenue
		if i > 0 && rep.Buckets[i-1].Revenue > 0 {
			g := round2((b.Revenue - rep.Buckets[i-1].Revenue) / rep.Buckets[i-1].Revenue * 100)
			b.GrowthPct = &g
		}
	}
	rep.Trend = direction(slope(values))
	if len(values) < 2 {
		rep.Trend = "insufficient_data"
	}
	return rep, nil
}

type ExpenseGroup struct {
	Group      string  `json:"group"`
	Total      float64 `json:"total"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type ExpenseReport struct {
	Period       span           `json:"period"`
	GroupBy      string         `json:"groupBy"`
	TotalExpense float64        `json:"totalExpense"`
	Top          []ExpenseGroup `json:"top"`
}

func (s *session) expenseCategorization(a *ExpenseCategorizationArgs) (ExpenseReport, error) {
	groupBy, topN := a.GroupBy, a.TopN
	if groupBy == "" {
		groupBy = "category"
	}
	if topN == 0 {
		topN = 10
	}
	p := parsePeriod(a.Period, s.now)
	txns, err := s.fetchAll(FinanceTransactions)
	if err != nil {
		return ExpenseReport{}, err
	}

	var expenses []Row
	for _, t := range txns {
		if isType(t, "expense") && p.contains(t["date"]) {
			r := Row{groupBy: t[groupBy], "amount": math.Abs(num0(t, "amount"))}
			expenses = append(expenses, r)
		}
	}
	rep := ExpenseReport{Period: p, GroupBy: groupBy, Top: []ExpenseGroup{}}
	groups := groupTotals(expenses, groupBy, "amount")
	for _, g := range groups {
		rep.TotalExpense += g.Total
	}
	for i, g := range groups {
		if i == topN {
			break
		}
		eg := ExpenseGroup{Group: g.Group, Total: round2(g.Total), Count: g.Count}
		if rep.TotalExpense > 0 {
			eg.Percentage = round2(g.Total / rep.TotalExpense * 100)
		}
		rep.Top = append(rep.Top, eg)
	}
	rep.TotalExpense = round2(rep.TotalExpense)
	return rep, nil
}

type StageValue struct {
	Stage string  `json:"stage"`
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

type PipelineReport struct {
	OpenDeals      int          `json:"openDeals"`
	TotalValue     float64      `json:"totalValue"`
	WeightedValue  float64      `json:"weightedValue"`
	AvgDealSize    float64      `json:"avgDealSize"`
	AvgDealAgeDays float64      `json:"avgDealAgeDays"`
	ConversionRate float64      `json:"conversionRate"`
	ByStage        []StageValue `json:"byStage"`
	Health         string       `json:"health"`
}

func closedWon(stage string) bool  { return stage == "closed-won" || stage == "won" }
func closedLost(stage string) bool { return stage == "closed-lost" || stage == "lost" }

func (s *session) pipelineHealth(a *PipelineHealthArgs) (PipelineReport, error) {
	deals, err := s.fetchAll(SalesDeals)
	if err != nil {
		return PipelineReport{}, err
	}

	rep := PipelineReport{ByStage: []StageValue{}}
	stages := map[string]*StageValue{}
	var won, closed int
	var ageDays float64
	var aged int
	for _, d := range deals {
		if a.Owner != "" && !strings.EqualFold(str0(d, "owner"), a.Owner) {
			continue
		}
		if a.Industry != "" && !strings.EqualFold(str0(d, "industry"), a.Industry) {
			continue
		}
		stage := strings.ToLower(str0(d, "stage"))
		if closedWon(stage) || closedLost(stage) {
			closed++
			if closedWon(stage) {
				won++
			}
			continue
		}
		value := num0(d, "value")
		rep.OpenDeals++
		rep.TotalValue += value
		rep.WeightedValue += value * num0(d, "probability") / 100
		if stages[stage] == nil {
			stages[stage] = &StageValue{Stage: stage}
		}
		stages[stage].Count++
		stages[stage].Value += value
		if created, ok := store.ToDateString(d["createdAt"]); ok && len(created) >= 10 {
			if t, err := store.ParseDate(created[:10]); err == nil {
				ageDays += s.now.Sub(t).Hours() / 24
				aged++
			}
		}
	}
	for _, sv := range stages {
		rep.ByStage = append(rep.ByStage, *sv)
	}
	sort.Slice(rep.ByStage, func(i, j int) bool { return rep.ByStage[i].Value > rep.ByStage[j].Value })
	if rep.OpenDeals > 0 {
		rep.AvgDealSize = round2(rep.TotalValue / float64(rep.OpenDeals))
	}
	if aged > 0 {
		rep.AvgDealAgeDays = math.Round(ageDays / float64(aged))
	}
	if closed > 0 {
		rep.ConversionRate = round2(float64(won) / float64(closed) * 100)
	}
	rep.Health = "needs_attention"
	if rep.WeightedValue > 0.5*rep.TotalValue {
		rep.Health = "healthy"
	}
	rep.TotalValue = round2(rep.TotalValue)
	rep.WeightedValue = round2(rep.WeightedValue)
	return rep, nil
}

type WinRateGroup struct {
	Group   string  `json:"group"`
	Won     int     `json:"won"`
	Lost    int     `json:"lost"`
	WinRate float64 `json:"winRate"`
}

type WinRateReport struct {
	Period         span           `json:"period"`
	GroupBy        string         `json:"groupBy"`
	Groups         []WinRateGroup `json:"groups"`
	OverallWinRate float64        `json:"overallWinRate"`
}

func (s *session) winRate(a *WinRateArgs) (WinRateReport, error) {
	p := parsePeriod(a.Period, s.now)
	deals, err := s.fetchAll(SalesDeals)
	if err != nil {
		return WinRateReport{}, err
	}

	groups := map[string]*WinRateGroup{}
	var won, lost int
	for _, d := range deals {
		if !p.contains(d["expectedCloseDate"]) && !p.contains(d["createdAt"]) {
			continue
		}
		stage := strings.ToLower(str0(d, "stage"))
		isWon, isLost := closedWon(stage), closedLost(stage)
		if !isWon && !isLost {
			continue
		}
		key := str0(d, a.GroupBy)
		if a.GroupBy == "stage" {
			key = stage
		}
		if key == "" {
			key = "unknown"
		}
		if groups[key] == nil {
			groups[key] = &WinRateGroup{Group: key}
		}
		if isWon {
			groups[key].Won++
			won++
		} else {
			groups[key].Lost++
			lost++
		}
	}

	rep := WinRateReport{Period: p, GroupBy: a.GroupBy, Groups: []WinRateGroup{}}
	for _, g := range groups {
		g.WinRate = round2(float64(g.Won) / float64(g.Won+g.Lost) * 100)
		rep.Groups = append(rep.Groups, *g)
	}
	sort.Slice(rep.Groups, func(i, j int) bool {
		if rep.Groups[i].WinRate != rep.Groups[j].WinRate {
			return rep.Groups[i].WinRate > rep.Groups[j].WinRate
		}
		return rep.Groups[i].Group < rep.Groups[j].Group
	})
	if won+lost > 0 {
		rep.OverallWinRate = round2(float64(won) / float64(won+lost) * 100)
	}
	return rep, nil
}

type TeamCapacity struct {
	Department     string         `json:"department"`
	Headcount      int            `json:"headcount"`
	Roles          map[string]int `json:"roles"`
	AvgUtilization float64        `json:"avgUtilization"`
	Status         string         `json:"status"`
}

type CapacityReport struct {
	TotalHeadcount int            `json:"totalHeadcount"`
	Departments    []TeamCapacity `json:"departments"`
}

// Utilization bands for team capacity status.
const (
	overUtilized  = 90.0
	underUtilized = 60.0
)

func (s *session) teamCapacity(a *TeamCapacityArgs) (CapacityReport, error) {
	employees, err := s.fetchAll(HREmployees)
	if err != nil {
		return CapacityReport{}, err
	}

	teams := map[string]*TeamCapacity{}
	utilization := map[string][]float64{}
	for _, e := range employees {
		dept := str0(e, "department")
		if a.Department != "" && !strings.EqualFold(dept, a.Department) {
			continue
		}
		if teams[dept] == nil {
			teams[dept] = &TeamCapacity{Department: dept, Roles: map[string]int{}}
		}
		t := teams[dept]
		t.Headcount++
		if role := str0(e, "role"); role != "" {
			t.Roles[role]++
		}
		if u, ok := store.ToFloat(e["utilization"]); ok {
			utilization[dept] = append(utilization[dept], u)
		}
	}

	rep := CapacityReport{Departments: []TeamCapacity{}}
	for dept, t := range teams {
		t.Status = "unknown"
		if u := utilization[dept]; len(u) > 0 {
			avg, _ := meanStdDev(u)
			t.AvgUtilization = round2(avg)
			switch {
			case avg > overUtilized:
				t.Status = "over_utilized"
			case avg < underUtilized:
				t.Status = "under_utilized"
			default:
				t.Status = "balanced"
			}
		}
		rep.TotalHeadcount += t.Headcount
		rep.Departments = append(rep.Departments, *t)
	}
	sort.Slice(rep.Departments, func(i, j int) bool { return rep.Departments[i].Department < rep.Departments[j].Department })
	return rep, nil
}

type DepartmentScore struct {
	Department      string  `json:"department"`
	Expenses        float64 `json:"expenses"`
	Revenue         float64 `json:"revenue"`
	Headcount       int     `json:"headcount"`
	CostPerEmployee float64 `json:"costPerEmployee"`
}

type DepartmentComparison struct {
	Period      span              `json:"period"`
	Departments []DepartmentScore `json:"departments"`
}

func (s *session) departmentComparison(a *DepartmentComparisonArgs) (DepartmentComparison, error) {
	p := parsePeriod(a.Period, s.now)
	txns, err := s.fetchAll(FinanceTransactions)
	if err != nil {
		return DepartmentComparison{}, err
	}
	employees, err := s.fetchAll(HREmployees)
	if err != nil {
		return DepartmentComparison{}, err
	}

	scores := map[string]*DepartmentScore{}
	score := func(dept string) *DepartmentScore {
		if dept == "" {
			dept = "unknown"
		}
		if scores[dept] == nil {
			scores[dept] = &DepartmentScore{Department: dept}
		}
		return scores[dept]
	}
	for _, t := range txns {
		if !p.contains(t["date"]) {
			continue
		}
		amount := math.Abs(num0(t, "amount"))
		switch {
		case isType(t, "expense"):
			score(str0(t, "department")).Expenses += amount
		case isType(t, "income"):
			score(str0(t, "department")).Revenue += amount
		}
	}
	for _, e := range employees {
		score(str0(e, "department")).Headcount++
	}

	rep := DepartmentComparison{Period: p, Departments: []DepartmentScore{}}
	for _, sc := range scores {
		if sc.Headcount > 0 {
			sc.CostPerEmployee = round2(sc.Expenses / float64(sc.Headcount))
		}
		sc.Expenses, sc.Revenue = round2(sc.Expenses), round2(sc.Revenue)
		rep.Departments = append(rep.Departments, *sc)
	}
	sort.Slice(rep.Departments, func(i, j int) bool { return rep.Departments[i].Department < rep.Departments[j].Department })
	return rep, nil
}

type ForecastPoint struct {
	Period string  `json:"period"`
	Value  float64 `json:"value"`
}

type ForecastReport struct {
	Collection string          `json:"collection"`
	Metric     string          `json:"metric"`
	Method     string          `json:"method"`
	History    []PeriodTotal   `json:"history"`
	Forecast   []ForecastPoint `json:"forecast"`
	Trend      string          `json:"trend"`
}

// smoothingAlpha weights recent months in exponential smoothing.
const smoothingAlpha = 0.5

func (s *session) trendForecast(a *TrendForecastArgs) (ForecastReport, error) {
	method, periods := a.Method, a.Periods
	if method == "" {
		method = "linear_regression"
	}
	if periods == 0 {
		periods = defaultForecastSpan
	}
	rows, err := s.fetchAll(a.Collection)
	if err != nil {
		return ForecastReport{}, err
	}
	metric := a.Metric
	if metric == "" {
		metric = amountField(a.Collection)
	}

	history := monthlyTotals(rows, metric)
	if len(history) < 2 {
		return ForecastReport{}, fmt.Errorf("not enough monthly history in %s to forecast %s", a.Collection, metric)
	}
	values := make([]float64, len(history))
	for i, h := range history {
		values[i] = h.Total
	}

	last, err := store.ParseDate(history[len(history)-1].Period + "-01")
	if err != nil {
		return ForecastReport{}, err
	}
	rep := ForecastReport{Collection: a.Collection, Metric: metric, Method: method, History: history, Forecast: []ForecastPoint{}}
	next := forecaster(method, values)
	for i := 1; i <= periods; i++ {
		rep.Forecast = append(rep.Forecast, ForecastPoint{
			Period: last.AddDate(0, i, 0).Format("2006-01"),
			Value:  round2(next(i)),
		})
	}
	rep.Trend = direction(slope(values))
	return rep, nil
}

// forecaster returns the projected value i steps past the end of values.
func forecaster(method string, values []float64) func(i int) float64 {
	n := len(values)
	switch method {
	case "moving_average":
		window := min(3, n)
		var sum float64
		for _, v := range values[n-window:] {
			sum += v
		}
		avg := sum / float64(window)
		return func(int) float64 { return avg }
	case "exponential_smoothing":
		level := values[0]
		for _, v := range values[1:] {
			level = smoothingAlpha*v + (1-smoothingAlpha)*level
		}
		return func(int) float64 { return level }
	default:
		m := slope(values)
		mean, _ := meanStdDev(values)
		intercept := mean - m*float64(n-1)/2
		return func(i int) float64 { return intercept + m*float64(n-1+i) }
	}
}

func direction(slope float64) string {
	switch {
	case slope > 0:
		return "increasing"
	case slope < 0:
		return "decreasing"
	}
	return "flat"
}
