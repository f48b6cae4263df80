package tools

import (
	"regexp"
	"strconv"
	"time"

	"github.com/dileep-u-k/agent-gateway/internal/store"
)

var (
	lastNPattern    = regexp.MustCompile(`^last-(\d+)-(month|months|day|days)$`)
	quarterPattern  = regexp.MustCompile(`^(\d{4})-Q([1-4])$`)
	quarterPattern2 = regexp.MustCompile(`^Q([1-4])-(\d{4})$`)
	yearPattern     = regexp.MustCompile(`^\d{4}$`)
	monthPattern    = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
)

// span is an inclusive range of calendar days, both ends as YYYY-MM-DD.
type span struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// contains reports whether a date-like value falls within the span.
func (s span) contains(v any) bool {
	d, ok := store.ToDateString(v)
	if !ok || len(d) < 10 {
		return false
	}
	d = d[:10]
	return d >= s.Start && d <= s.End
}

// parsePeriod resolves period expressions such as "last-6-months",
// "2025-Q1", "Q1-2025", "2025" and "2025-03". Anything else means the last
// three months.
func parsePeriod(period string, now time.Time) span {
	now = now.UTC()
	day := func(t time.Time) string { return t.Format("2006-01-02") }

	if m := lastNPattern.FindStringSubmatch(period); m != nil {
		n, _ := strconv.Atoi(m[1])
		if m[2] == "day" || m[2] == "days" {
			return span{day(now.AddDate(0, 0, -n)), day(now)}
		}
		return span{day(now.AddDate(0, -n, 0)), day(now)}
	}
	quarter := func(year, q int) span {
		start := time.Date(year, time.Month((q-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
		return span{day(start), day(start.AddDate(0, 3, -1))}
	}
	if m := quarterPattern.FindStringSubmatch(period); m != nil {
		y, _ := strconv.Atoi(m[1])
		q, _ := strconv.Atoi(m[2])
		return quarter(y, q)
	}
	if m := quarterPattern2.FindStringSubmatch(period); m != nil {
		q, _ := strconv.Atoi(m[1])
		y, _ := strconv.Atoi(m[2])
		return quarter(y, q)
	}
	if yearPattern.MatchString(period) {
		return span{period + "-01-01", period + "-12-31"}
	}
	if m := monthPattern.FindStringSubmatch(period); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		if mo >= 1 && mo <= 12 {
			start := time.Date(y, time.Month(mo), 1, 0, 0, 0, 0, time.UTC)
			return span{day(start), day(start.AddDate(0, 1, -1))}
		}
	}
	return span{day(now.AddDate(0, -3, 0)), day(now)}
}

// bucketKey maps a YYYY-MM-DD date to its month, quarter or year bucket.
func bucketKey(date, groupBy string) string {
	switch groupBy {
	case "year":
		return date[:4]
	case "quarter":
		m, _ := strconv.Atoi(date[5:7])
		return date[:4] + "-Q" + strconv.Itoa((m-1)/3+1)
	default:
		return date[:7]
	}
}

func startOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
