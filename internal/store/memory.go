package store

import (
	"context"
	"fmt"
	"maps"
	"sync"
)

// Memory is an in-process RowStore used in demo mode and tests.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]Row
}

var _ RowStore = (*Memory)(nil)

// NewMemory builds a store over a copy of data.
func NewMemory(data map[string][]Row) *Memory {
	m := &Memory{data: make(map[string][]Row, len(data))}
	for coll, rows := range data {
		m.Insert(coll, rows...)
	}
	return m
}

// Insert appends rows to collection.
func (m *Memory) Insert(collection string, rows ...Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		m.data[collection] = append(m.data[collection], maps.Clone(r))
	}
}

func (m *Memory) Query(_ context.Context, collection string, f Filters) ([]Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []Row{}
	for _, r := range m.data[collection] {
		if Matches(r, f.Predicates) {
			out = append(out, maps.Clone(r))
		}
	}
	if f.OrderBy != nil {
		SortRows(out, *f.OrderBy)
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *Memory) Schema(_ context.Context, collection string) (Schema, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := m.data[collection]
	if len(rows) == 0 {
		return Schema{}, fmt.Errorf("collection %q has no documents", collection)
	}
	return inferSchema(collection, rows[0]), nil
}

func (m *Memory) Close() error { return nil }
