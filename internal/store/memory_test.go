package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_QueryAppliesPredicatesOrderAndLimit(t *testing.T) {
	m := NewMemory(map[string][]Row{
		"finance_transactions": {
			{"id": "a", "amount": 100.0, "date": "2025-01-10", "category": "software"},
			{"id": "b", "amount": 900.0, "date": "2025-02-10", "category": "software"},
			{"id": "c", "amount": 400.0, "date": "2025-03-10", "category": "rent"},
			{"id": "d", "amount": 250.0, "date": "2025-04-10", "category": "software"},
		},
	})

	rows, err := m.Query(context.Background(), "finance_transactions", Filters{
		Predicates: []Predicate{
			{Field: "category", Op: OpEqual, Value: "software"},
			{Field: "date", Op: OpGTE, Value: "2025-01-15"},
		},
		OrderBy: &Order{Field: "amount", Desc: true},
		Limit:   1,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "b", rows[0]["id"])
}

func TestMemory_QueryUnknownCollectionReturnsEmptySlice(t *testing.T) {
	m := NewMemory(nil)
	rows, err := m.Query(context.Background(), "missing", Filters{})
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestMemory_QueryReturnsCopies(t *testing.T) {
	m := NewMemory(map[string][]Row{"c": {{"id": "1", "v": 1.0}}})
	rows, err := m.Query(context.Background(), "c", Filters{})
	require.NoError(t, err)
	rows[0]["v"] = 99.0

	again, err := m.Query(context.Background(), "c", Filters{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, again[0]["v"])
}

func TestMemory_Schema(t *testing.T) {
	m := NewMemory(map[string][]Row{"c": {{"id": "1", "amount": 5.0, "when": time.Now()}}})
	s, err := m.Schema(context.Background(), "c")
	require.NoError(t, err)
	assert.Equal(t, []Field{
		{Name: "amount", Type: "number"},
		{Name: "id", Type: "string"},
		{Name: "when", Type: "timestamp"},
	}, s.Fields)

	_, err = m.Schema(context.Background(), "empty")
	assert.Error(t, err)
}

func TestDemoData_IsDeterministic(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	a, b := DemoData(now), DemoData(now)
	assert.Equal(t, a, b)
	assert.Len(t, a["finance_transactions"], 150)
	assert.Len(t, a["sales_deals"], 40)
	assert.Len(t, a["hr_employees"], 30)
	assert.Len(t, a["finance_budgets"], 30)
}
