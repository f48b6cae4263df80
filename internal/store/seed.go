package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Seeder is implemented by stores that can be loaded with fixture rows.
type Seeder interface {
	Seed(ctx context.Context, collection string, rows []Row) error
}

var (
	_ Seeder = (*Memory)(nil)
	_ Seeder = (*SQL)(nil)
	_ Seeder = (*Firestore)(nil)
)

func (m *Memory) Seed(_ context.Context, collection string, rows []Row) error {
	m.Insert(collection, rows...)
	return nil
}

// Seed creates the table when missing, using the union of the rows' fields
// as columns, and inserts every row.
func (s *SQL) Seed(ctx context.Context, collection string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	fields := columnSet(rows)

	defs := make([]string, 0, len(fields))
	for _, f := range fields {
		defs = append(defs, s.dialect.quote(SnakeCase(f))+" "+sqlColumnType(rows, f))
	}
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", s.dialect.quote(collection), strings.Join(defs, ", "))
	if err := s.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", collection, err)
	}

	cols := make([]string, len(fields))
	marks := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = s.dialect.quote(SnakeCase(f))
		marks[i] = s.dialect.placeholder(i + 1)
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.dialect.quote(collection), strings.Join(cols, ", "), strings.Join(marks, ", "))
	for _, r := range rows {
		args := make([]any, len(fields))
		for i, f := range fields {
			args[i] = r[f]
		}
		if err := s.Exec(ctx, insert, args...); err != nil {
			return fmt.Errorf("insert into %s: %w", collection, err)
		}
	}
	return nil
}

func columnSet(rows []Row) []string {
	seen := map[string]bool{}
	var fields []string
	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				fields = append(fields, k)
			}
		}
	}
	sort.Strings(fields)
	return fields
}

func sqlColumnType(rows []Row, field string) string {
	for _, r := range rows {
		switch v := r[field].(type) {
		case nil:
			continue
		case bool:
			return "BOOLEAN"
		default:
			if _, ok := ToFloat(v); ok {
				return "NUMERIC"
			}
			return "TEXT"
		}
	}
	return "TEXT"
}
