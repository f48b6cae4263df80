package tools

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		in   string
		want span
	}{
		{"last-6-months", span{"2024-12-15", "2025-06-15"}},
		{"last-30-days", span{"2025-05-16", "2025-06-15"}},
		{"2025-Q1", span{"2025-01-01", "2025-03-31"}},
		{"Q4-2024", span{"2024-10-01", "2024-12-31"}},
		{"2024", span{"2024-01-01", "2024-12-31"}},
		{"2024-02", span{"2024-02-01", "2024-02-29"}},
		{"whenever", span{"2025-03-15", "2025-06-15"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parsePeriod(tt.in, now))
		})
	}
}

func TestSpanContains(t *testing.T) {
	s := span{"2025-01-01", "2025-01-31"}
	assert.True(t, s.contains("2025-01-31T23:00:00Z"))
	assert.True(t, s.contains(time.Date(2025, 1, 1, 5, 0, 0, 0, time.UTC)))
	assert.False(t, s.contains("2025-02-01"))
	assert.False(t, s.contains(42))
}

func TestBucketKey(t *testing.T) {
	assert.Equal(t, "2025-08", bucketKey("2025-08-14", "month"))
	assert.Equal(t, "2025-Q3", bucketKey("2025-08-14", "quarter"))
	assert.Equal(t, "2025", bucketKey("2025-08-14", "year"))
}

func TestAnalyze_Anomaly(t *testing.T) {
	rows := []Row{}
	for i := 0; i < 10; i++ {
		rows = append(rows, Row{"id": i, "amount": 100.0})
	}
	rows = append(rows, Row{"id": "big", "amount": 5000.0, "description": "server purchase"})

	out, err := analyze(rows, "anomaly", "", "")
	require.NoError(t, err)
	rep := out.(AnomalyReport)
	require.Len(t, rep.Anomalies, 1)
	assert.Equal(t, "big", rep.Anomalies[0].ID)
	assert.Equal(t, "server purchase", rep.Anomalies[0].Description)
}

func TestAnalyze_TrendAndSummary(t *testing.T) {
	rows := []Row{
		{"date": "2025-01-03", "value": 10.0},
		{"date": "2025-01-20", "value": 5.0},
		{"date": "2025-02-11", "value": 40.0},
	}

	out, err := analyze(rows, "trend", "", "")
	require.NoError(t, err)
	trend := out.(Trend)
	assert.Equal(t, "value", trend.Metric)
	assert.Equal(t, []PeriodTotal{{"2025-01", 2, 15}, {"2025-02", 1, 40}}, trend.Periods)
	assert.Equal(t, "increasing", trend.Direction)

	out, err = analyze(rows, "summary", "", "")
	require.NoError(t, err)
	sum := out.(Summary)
	assert.Equal(t, 3, sum.TotalRecords)
	assert.Equal(t, []string{"date", "value"}, sum.Fields)

	_, err = analyze(nil, "statistics", "", "")
	assert.EqualError(t, err, "no data provided for analysis")
}

func TestForecaster(t *testing.T) {
	values := []float64{10, 20, 30}

	assert.InDelta(t, 40, forecaster("linear_regression", values)(1), 1e-9)
	assert.InDelta(t, 50, forecaster("linear_regression", values)(2), 1e-9)
	assert.InDelta(t, 20, forecaster("moving_average", values)(5), 1e-9)
	assert.InDelta(t, 22.5, forecaster("exponential_smoothing", values)(1), 1e-9)
}
