// Implements an in-memory Store with artificial latency.

package records

import (
	"context"
	"sync"
	"time"
)

// Memory is a Store keeping every table in process memory.
//
// New ids are max(existing)+1. Every call waits Latency before touching the
// data, to mimic a remote service.
type Memory struct {
	Latency time.Duration

	mu     sync.Mutex
	tables map[string]*Rows
}

// NewMemory returns an empty store serving the given tables.
func NewMemory(defs []TableDef, latency time.Duration) *Memory {
	m := &Memory{Latency: latency, tables: make(map[string]*Rows, len(defs))}
	for _, d := range defs {
		m.tables[d.Name] = NewRows(d.Unique)
	}
	return m
}

// Fetch implements Store.
func (m *Memory) Fetch(ctx context.Context, table string, q Query) ([]Record, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.tables[table]
	if t == nil {
		return nil, errUnknownTable(table)
	}
	return Apply(t.All(), q), nil
}

// Get implements Store.
func (m *Memory) Get(ctx context.Context, table string, id int64, fields []string) (Record, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.tables[table]
	if t == nil {
		return nil, errUnknownTable(table)
	}
	return t.Get(id, fields), nil
}

// Create implements Store.
func (m *Memory) Create(ctx context.Context, table string, recs []Record) ([]Result, error) {
	return m.mutate(ctx, table, recs, (*Rows).Create)
}

// Update implements Store.
func (m *Memory) Update(ctx context.Context, table string, recs []Record) ([]Result, error) {
	return m.mutate(ctx, table, recs, (*Rows).Update)
}

// Delete implements Store.
func (m *Memory) Delete(ctx context.Context, table string, ids []int64) ([]Result, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.tables[table]
	if t == nil {
		return nil, errUnknownTable(table)
	}
	out := make([]Result, len(ids))
	for i, id := range ids {
		out[i] = t.Delete(id)
	}
	return out, nil
}

func (m *Memory) mutate(ctx context.Context, table string, recs []Record, op func(*Rows, Record) Result) ([]Result, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.tables[table]
	if t == nil {
		return nil, errUnknownTable(table)
	}
	out := make([]Result, len(recs))
	for i, rec := range recs {
		n, err := Normalize(rec)
		if err != nil {
			out[i] = Result{Message: err.Error()}
			continue
		}
		out[i] = op(t, n)
	}
	return out, nil
}

func (m *Memory) wait(ctx context.Context) error {
	if m.Latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(m.Latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
