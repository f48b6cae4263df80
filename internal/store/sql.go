package store

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const sqlConnectTimeout = 10 * time.Second

type dialect struct {
	driver      string
	placeholder func(n int) string
	quote       func(ident string) string
}

var dialects = map[ConnectionType]dialect{
	TypePostgreSQL: {
		driver:      "postgres",
		placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
		quote:       func(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` },
	},
	TypeMySQL: {
		driver:      "mysql",
		placeholder: func(int) string { return "?" },
		quote:       func(s string) string { return "`" + strings.ReplaceAll(s, "`", "``") + "`" },
	},
	TypeSQLite: {
		driver:      "sqlite3",
		placeholder: func(int) string { return "?" },
		quote:       func(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` },
	},
}

// SQL is a RowStore over a relational database. Collections map to tables,
// camelCase field names map to snake_case columns.
type SQL struct {
	db      *sql.DB
	dialect dialect
}

var _ RowStore = (*SQL)(nil)

// OpenSQL connects to a postgresql, mysql or sqlite database and verifies
// the connection.
func OpenSQL(ctx context.Context, conn Connection) (*SQL, error) {
	d, ok := dialects[conn.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedConnection, conn.Type)
	}
	dsn, err := buildDSN(conn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", conn.Type, err)
	}
	if d.driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(5)
	}

	pingCtx, cancel := context.WithTimeout(ctx, sqlConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", conn.Type, err)
	}
	return &SQL{db: db, dialect: d}, nil
}

// NewSQL wraps an already opened database handle.
func NewSQL(db *sql.DB, typ ConnectionType) (*SQL, error) {
	d, ok := dialects[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedConnection, typ)
	}
	return &SQL{db: db, dialect: d}, nil
}

func buildDSN(conn Connection) (string, error) {
	if conn.ConnectionString != "" {
		return conn.ConnectionString, nil
	}
	switch conn.Type {
	case TypePostgreSQL:
		port := conn.Port
		if port == 0 {
			port = 5432
		}
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(conn.Username, conn.Password),
			Host:   net.JoinHostPort(conn.Host, strconv.Itoa(port)),
			Path:   "/" + conn.Database,
		}
		q := url.Values{}
		if conn.SSL {
			q.Set("sslmode", "require")
		} else {
			q.Set("sslmode", "disable")
		}
		u.RawQuery = q.Encode()
		return u.String(), nil
	case TypeMySQL:
		port := conn.Port
		if port == 0 {
			port = 3306
		}
		cfg := mysql.NewConfig()
		cfg.User = conn.Username
		cfg.Passwd = conn.Password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(conn.Host, strconv.Itoa(port))
		cfg.DBName = conn.Database
		cfg.ParseTime = true
		if conn.SSL {
			cfg.TLSConfig = "skip-verify"
		}
		return cfg.FormatDSN(), nil
	case TypeSQLite:
		if conn.Database == "" {
			return "", fmt.Errorf("sqlite connection requires a database path")
		}
		return conn.Database, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedConnection, conn.Type)
}

func (s *SQL) Query(ctx context.Context, collection string, f Filters) ([]Row, error) {
	query, args := s.buildSelect(collection, f)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()
	return scanRows(rows)
}

func (s *SQL) buildSelect(table string, f Filters) (string, []any) {
	var (
		b      strings.Builder
		args   []any
		clause []string
	)
	b.WriteString("SELECT * FROM ")
	b.WriteString(s.dialect.quote(table))

	for _, p := range f.Predicates {
		args = append(args, p.Value)
		clause = append(clause, fmt.Sprintf("%s %s %s",
			s.dialect.quote(SnakeCase(p.Field)), sqlOperator(p.Op), s.dialect.placeholder(len(args))))
	}
	if len(clause) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(clause, " AND "))
	}
	if f.OrderBy != nil {
		dir := "ASC"
		if f.OrderBy.Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&b, " ORDER BY %s %s", s.dialect.quote(SnakeCase(f.OrderBy.Field)), dir)
	}
	if f.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", f.Limit)
	}
	return b.String(), args
}

func sqlOperator(op Op) string {
	if op == OpEqual {
		return "="
	}
	return string(op)
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	out := []Row{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			row[CamelCase(col.Name())] = normalizeSQLValue(col, values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// normalizeSQLValue turns driver byte slices into strings, or floats for
// decimal columns.
func normalizeSQLValue(col *sql.ColumnType, v any) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	switch strings.ToUpper(col.DatabaseTypeName()) {
	case "DECIMAL", "NUMERIC", "FLOAT", "DOUBLE", "REAL":
		return parseDecimal(b)
	}
	return string(b)
}

// Schema reads the column list of a table without fetching any rows.
func (s *SQL) Schema(ctx context.Context, collection string) (Schema, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+s.dialect.quote(collection)+" LIMIT 0")
	if err != nil {
		return Schema{}, fmt.Errorf("describe %s: %w", collection, err)
	}
	defer rows.Close()
	cols, err := rows.ColumnTypes()
	if err != nil {
		return Schema{}, fmt.Errorf("read columns: %w", err)
	}
	fields := make([]Field, 0, len(cols))
	for _, c := range cols {
		typ := strings.ToLower(c.DatabaseTypeName())
		if typ == "" {
			typ = "unknown"
		}
		fields = append(fields, Field{Name: CamelCase(c.Name()), Type: typ})
	}
	return Schema{Collection: collection, Fields: fields}, nil
}

// Exec runs a statement directly. It is used for seeding and tests.
func (s *SQL) Exec(ctx context.Context, query string, args ...any) error {
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *SQL) Close() error { return s.db.Close() }
