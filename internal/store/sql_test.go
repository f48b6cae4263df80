package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSQLite(t *testing.T) *SQL {
	t.Helper()
	s, err := OpenSQL(context.Background(), Connection{
		Type:     TypeSQLite,
		Database: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQL_SeedAndQuery(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	require.NoError(t, s.Seed(ctx, "sales_deals", []Row{
		{"id": "d1", "value": 1000.0, "stage": "proposal", "expectedCloseDate": "2025-03-01"},
		{"id": "d2", "value": 5000.0, "stage": "proposal", "expectedCloseDate": "2025-04-01"},
		{"id": "d3", "value": 9000.0, "stage": "closed-won", "expectedCloseDate": "2025-05-01"},
	}))

	rows, err := s.Query(ctx, "sales_deals", Filters{
		Predicates: []Predicate{
			{Field: "stage", Op: OpEqual, Value: "proposal"},
			{Field: "value", Op: OpGTE, Value: 2000.0},
		},
		OrderBy: &Order{Field: "expectedCloseDate", Desc: true},
		Limit:   10,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "d2", rows[0]["id"])
	assert.Equal(t, "2025-04-01", rows[0]["expectedCloseDate"])
	v, ok := ToFloat(rows[0]["value"])
	require.True(t, ok)
	assert.Equal(t, 5000.0, v)
}

func TestSQL_Schema(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)
	require.NoError(t, s.Seed(ctx, "hr_employees", []Row{{"id": "e1", "hireDate": "2024-01-15", "salary": 100.0}}))

	schema, err := s.Schema(ctx, "hr_employees")
	require.NoError(t, err)
	names := make([]string, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"id", "hireDate", "salary"}, names)
}

func TestSQL_QueryMissingTable(t *testing.T) {
	s := openTestSQLite(t)
	_, err := s.Query(context.Background(), "nope", Filters{})
	assert.Error(t, err)
}

func TestSQL_BuildSelectPostgres(t *testing.T) {
	s := &SQL{dialect: dialects[TypePostgreSQL]}
	q, args := s.buildSelect("finance_transactions", Filters{
		Predicates: []Predicate{
			{Field: "date", Op: OpGTE, Value: "2025-01-01"},
			{Field: "date", Op: OpLTE, Value: "2025-01-31"},
			{Field: "category", Op: OpEqual, Value: "software"},
		},
		OrderBy: &Order{Field: "createdAt", Desc: true},
		Limit:   50,
	})
	assert.Equal(t,
		`SELECT * FROM "finance_transactions" WHERE "date" >= $1 AND "date" <= $2 AND "category" = $3 ORDER BY "created_at" DESC LIMIT 50`,
		q)
	assert.Equal(t, []any{"2025-01-01", "2025-01-31", "software"}, args)
}

func TestBuildDSN(t *testing.T) {
	dsn, err := buildDSN(Connection{Type: TypePostgreSQL, Host: "db", Database: "app", Username: "u", Password: "p@ss", SSL: true})
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p%40ss@db:5432/app?sslmode=require", dsn)

	dsn, err = buildDSN(Connection{Type: TypeMySQL, Host: "db", Port: 3307, Database: "app", Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.Contains(t, dsn, "u:p@tcp(db:3307)/app")

	dsn, err = buildDSN(Connection{Type: TypeMongoDB, ConnectionString: "mongodb://x"})
	require.NoError(t, err)
	assert.Equal(t, "mongodb://x", dsn)

	_, err = buildDSN(Connection{Type: TypeSQLite})
	assert.Error(t, err)
}

func TestMongoFilter_MergesRangeOperators(t *testing.T) {
	f := mongoFilter([]Predicate{
		{Field: "amount", Op: OpGTE, Value: 10.0},
		{Field: "amount", Op: OpLTE, Value: 20.0},
		{Field: "status", Op: OpEqual, Value: "open"},
	})
	assert.Equal(t, "open", f["status"])
	assert.Len(t, f["amount"], 2)
}

func TestOpen_UnsupportedType(t *testing.T) {
	_, err := Open(context.Background(), Connection{Type: "oracle"})
	assert.ErrorIs(t, err, ErrUnsupportedConnection)
}

func TestOpenExternal_RejectsSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caller.db")
	_, err := OpenExternal(context.Background(), Connection{Type: TypeSQLite, Database: path})
	require.ErrorIs(t, err, ErrLocalConnection)
	assert.NoFileExists(t, path)

	_, err = OpenExternal(context.Background(), Connection{Type: "oracle"})
	assert.ErrorIs(t, err, ErrUnsupportedConnection)
}

func TestConnection_IsDefault(t *testing.T) {
	var nilConn *Connection
	assert.True(t, nilConn.IsDefault())
	assert.True(t, (&Connection{}).IsDefault())
	assert.True(t, (&Connection{Type: TypeFirestore}).IsDefault())
	assert.False(t, (&Connection{Type: TypePostgreSQL}).IsDefault())
}
