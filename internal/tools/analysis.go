package tools

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/dileep-u-k/agent-gateway/internal/store"
)

type Statistics struct {
	Type    string  `json:"type"`
	Metric  string  `json:"metric"`
	Count   int     `json:"count"`
	Sum     float64 `json:"sum"`
	Average float64 `json:"average"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Range   float64 `json:"range"`
}

type PeriodTotal struct {
	Period string  `json:"period"`
	Count  int     `json:"count"`
	Total  float64 `json:"total"`
}

type Trend struct {
	Type      string        `json:"type"`
	Metric    string        `json:"metric"`
	Periods   []PeriodTotal `json:"periods"`
	Direction string        `json:"direction"`
}

type Anomaly struct {
	ID          any     `json:"id,omitempty"`
	Value       float64 `json:"value"`
	Description string  `json:"description,omitempty"`
	Name        string  `json:"name,omitempty"`
}

type AnomalyReport struct {
	Type              string    `json:"type"`
	Metric            string    `json:"metric"`
	Threshold         float64   `json:"threshold"`
	Average           float64   `json:"average"`
	StandardDeviation float64   `json:"standardDeviation"`
	Anomalies         []Anomaly `json:"anomalies"`
}

type Summary struct {
	Type         string   `json:"type"`
	TotalRecords int      `json:"totalRecords"`
	Sample       []Row    `json:"sample"`
	Fields       []string `json:"fields"`
}

type GroupTotal struct {
	Group   string  `json:"group"`
	Count   int     `json:"count"`
	Total   float64 `json:"total"`
	Average float64 `json:"average"`
}

type Comparison struct {
	Type    string       `json:"type"`
	GroupBy string       `json:"groupBy"`
	Metric  string       `json:"metric"`
	Groups  []GroupTotal `json:"groups"`
}

// dateFields is the order in which a row's date is looked up when bucketing
// rows by month.
var dateFields = []string{"date", "expectedCloseDate", "hireDate", "createdAt"}

// analyze runs one analysisType over rows. metric defaults to the first of
// amount and value that holds numbers.
func analyze(rows []Row, analysisType, groupBy, metric string) (any, error) {
	if len(rows) == 0 {
		return nil, errors.New("no data provided for analysis")
	}
	metric = metricField(rows, metric)

	switch analysisType {
	case "statistics":
		values := numbers(rows, metric)
		if len(values) == 0 {
			return nil, fmt.Errorf("no numeric data found in %q for statistics", metric)
		}
		s := Statistics{Type: "statistics", Metric: metric, Count: len(values), Min: values[0], Max: values[0]}
		for _, v := range values {
			s.Sum += v
			s.Min = math.Min(s.Min, v)
			s.Max = math.Max(s.Max, v)
		}
		s.Average = s.Sum / float64(s.Count)
		s.Range = s.Max - s.Min
		return s, nil

	case "trend":
		periods := monthlyTotals(rows, metric)
		t := Trend{Type: "trend", Metric: metric, Periods: periods, Direction: "insufficient_data"}
		if len(periods) >= 2 {
			t.Direction = "decreasing"
			if periods[len(periods)-1].Total > periods[0].Total {
				t.Direction = "increasing"
			}
		}
		return t, nil

	case "anomaly":
		values := numbers(rows, metric)
		if len(values) == 0 {
			return nil, fmt.Errorf("no numeric data found in %q for anomaly detection", metric)
		}
		avg, sd := meanStdDev(values)
		rep := AnomalyReport{
			Type:              "anomaly",
			Metric:            metric,
			Threshold:         avg + 2*sd,
			Average:           avg,
			StandardDeviation: sd,
			Anomalies:         []Anomaly{},
		}
		for _, r := range rows {
			v, ok := store.ToFloat(r[metric])
			if !ok || v <= rep.Threshold {
				continue
			}
			a := Anomaly{ID: r["id"], Value: v}
			a.Description, _ = r["description"].(string)
			a.Name, _ = r["name"].(string)
			rep.Anomalies = append(rep.Anomalies, a)
		}
		return rep, nil

	case "summary":
		fields := make([]string, 0, len(rows[0]))
		for k := range rows[0] {
			fields = append(fields, k)
		}
		sort.Strings(fields)
		return Summary{Type: "summary", TotalRecords: len(rows), Sample: head(rows, 5), Fields: fields}, nil

	case "comparison":
		if groupBy == "" {
			return nil, errors.New("groupBy field required for comparison analysis")
		}
		return Comparison{Type: "comparison", GroupBy: groupBy, Metric: metric, Groups: groupTotals(rows, groupBy, metric)}, nil
	}
	return nil, fmt.Errorf("unknown analysis type %q", analysisType)
}

func metricField(rows []Row, metric string) string {
	if metric != "" {
		return metric
	}
	for _, candidate := range []string{"amount", "value"} {
		if len(numbers(rows, candidate)) > 0 {
			return candidate
		}
	}
	return "amount"
}

func numbers(rows []Row, field string) []float64 {
	var out []float64
	for _, r := range rows {
		if v, ok := store.ToFloat(r[field]); ok {
			out = append(out, v)
		}
	}
	return out
}

func meanStdDev(values []float64) (mean, sd float64) {
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	for _, v := range values {
		sd += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sd / float64(len(values)))
}

// rowMonth returns the YYYY-MM of the first date field the row carries.
func rowMonth(r Row) (string, bool) {
	for _, f := range dateFields {
		if s, ok := store.ToDateString(r[f]); ok && len(s) >= 7 {
			return s[:7], true
		}
	}
	return "", false
}

func monthlyTotals(rows []Row, metric string) []PeriodTotal {
	byMonth := map[string]*PeriodTotal{}
	for _, r := range rows {
		m, ok := rowMonth(r)
		if !ok {
			continue
		}
		p, ok := byMonth[m]
		if !ok {
			p = &PeriodTotal{Period: m}
			byMonth[m] = p
		}
		p.Count++
		if v, ok := store.ToFloat(r[metric]); ok {
			p.Total += v
		}
	}
	out := make([]PeriodTotal, 0, len(byMonth))
	for _, p := range byMonth {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

// groupTotals sums metric per distinct value of field, largest total first.
func groupTotals(rows []Row, field, metric string) []GroupTotal {
	byKey := map[string]*GroupTotal{}
	for _, r := range rows {
		key := "unknown"
		if v, ok := r[field]; ok && v != nil && fmt.Sprint(v) != "" {
			key = fmt.Sprint(v)
		}
		g, ok := byKey[key]
		if !ok {
			g = &GroupTotal{Group: key}
			byKey[key] = g
		}
		g.Count++
		if v, ok := store.ToFloat(r[metric]); ok {
			g.Total += v
		}
	}
	out := make([]GroupTotal, 0, len(byKey))
	for _, g := range byKey {
		g.Average = g.Total / float64(g.Count)
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Group < out[j].Group
	})
	return out
}

func head(rows []Row, n int) []Row {
	if len(rows) < n {
		n = len(rows)
	}
	return append([]Row{}, rows[:n]...)
}

// slope is the least-squares slope of values over their indexes.
func slope(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	den := n*sumXX - sumX*sumX
	if den == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / den
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
