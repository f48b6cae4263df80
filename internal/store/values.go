package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ToFloat converts a numeric field value to float64. Strings are not
// numbers here, the same way a JSON document would treat them.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// ToDateString renders a date-like value as YYYY-MM-DD or an RFC 3339 string.
func ToDateString(v any) (string, bool) {
	switch d := v.(type) {
	case time.Time:
		if d.IsZero() {
			return "", false
		}
		return d.UTC().Format(time.RFC3339), true
	case *time.Time:
		if d == nil {
			return "", false
		}
		return ToDateString(*d)
	case string:
		if d == "" {
			return "", false
		}
		return d, true
	default:
		return "", false
	}
}

// ParseDate accepts YYYY-MM-DD and RFC 3339 timestamps.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// Compare orders two field values. Numbers compare numerically, dates and
// strings lexically on their canonical string form. ok is false when the
// values are not comparable.
func Compare(a, b any) (cmp int, ok bool) {
	if af, aok := ToFloat(a); aok {
		bf, bok := ToFloat(b)
		if !bok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}
	as, aok := ToDateString(a)
	bs, bok := ToDateString(b)
	if !aok || !bok {
		return 0, false
	}
	return strings.Compare(as, bs), true
}

// Matches reports whether row satisfies every predicate.
func Matches(row Row, preds []Predicate) bool {
	for _, p := range preds {
		v, present := row[p.Field]
		if !present {
			return false
		}
		c, ok := Compare(v, p.Value)
		if !ok {
			if p.Op == OpEqual && fmt.Sprint(v) == fmt.Sprint(p.Value) {
				continue
			}
			return false
		}
		switch p.Op {
		case OpEqual:
			if c != 0 {
				return false
			}
		case OpGTE:
			if c < 0 {
				return false
			}
		case OpLTE:
			if c > 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// SortRows orders rows in place. Rows missing the field sort last.
func SortRows(rows []Row, o Order) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, aok := rows[i][o.Field]
		b, bok := rows[j][o.Field]
		if !aok || !bok {
			return aok && !bok
		}
		c, ok := Compare(a, b)
		if !ok {
			return false
		}
		if o.Desc {
			return c > 0
		}
		return c < 0
	})
}

// SnakeCase converts a camelCase field name to a snake_case column name.
func SnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CamelCase converts a snake_case column name to a camelCase field name.
func CamelCase(s string) string {
	parts := strings.Split(s, "_")
	var b strings.Builder
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]) + p[1:])
	}
	return b.String()
}

// typeName names the dynamic type of a sampled value for schema inference.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case time.Time, *time.Time:
		return "timestamp"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	if _, ok := ToFloat(v); ok {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}

// inferSchema derives a schema from a sample document.
func inferSchema(collection string, sample map[string]any) Schema {
	names := make([]string, 0, len(sample))
	for k := range sample {
		names = append(names, k)
	}
	sort.Strings(names)
	fields := make([]Field, 0, len(names))
	for _, n := range names {
		fields = append(fields, Field{Name: n, Type: typeName(sample[n])})
	}
	return Schema{Collection: collection, Fields: fields}
}

func parseDecimal(b []byte) any {
	if f, err := strconv.ParseFloat(string(b), 64); err == nil {
		return f
	}
	return string(b)
}
