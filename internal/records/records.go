// Defines the record store contract shared by every storage backend.

// Package records defines a generic CRUD surface over named tables of loosely
// typed records, along with an in-memory implementation.
//
// A Store never interprets record contents beyond the "Id" key, ordering
// fields and the unique fields declared in its TableDef list.
package records

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

const (
	// FieldID is the key holding a record's store-assigned identifier.
	FieldID = "Id"
	// DefaultLimit is the page size used when Paging.Limit is zero.
	DefaultLimit = 100
)

// Store is the record service surface consumed by repositories.
//
// A top-level failure is returned as an error, typically a *RemoteError.
// Per-record failures of batch mutations are reported in the Result slice,
// which always has one entry per input.
type Store interface {
	// Fetch returns the records of table matching q's ordering and paging.
	Fetch(ctx context.Context, table string, q Query) ([]Record, error)
	// Get returns the record with the given id, or nil when there is none.
	Get(ctx context.Context, table string, id int64, fields []string) (Record, error)
	// Create inserts records. Any "Id" key in the input is ignored.
	Create(ctx context.Context, table string, recs []Record) ([]Result, error)
	// Update merges the attributes of each record into the stored record
	// identified by its "Id" key.
	Update(ctx context.Context, table string, recs []Record) ([]Result, error)
	// Delete removes the records with the given ids.
	Delete(ctx context.Context, table string, ids []int64) ([]Result, error)
}

// TableDef declares a table served by a Store.
type TableDef struct {
	Name string
	// Unique lists fields whose values must be distinct across rows.
	Unique []string
	// Row is an optional prototype value describing the shape of a row.
	Row any
}

// Record is a single row. Values use the types produced by encoding/json.
type Record map[string]any

// ID returns the record's identifier, or 0 when absent or malformed.
func (r Record) ID() int64 {
	switch v := r[FieldID].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case json.Number:
		i, _ := v.Int64()
		return i
	case string:
		i, _ := strconv.ParseInt(v, 10, 64)
		return i
	}
	return 0
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case Record:
		return x.Clone()
	case map[string]any:
		return map[string]any(Record(x).Clone())
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = cloneValue(x[i])
		}
		return out
	case []string:
		return append([]string(nil), x...)
	}
	return v
}

// Normalize round-trips r through JSON so every value has the type
// encoding/json would produce when decoding it.
func Normalize(r Record) (Record, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	var out Record
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return out, nil
}

// SortType is the direction of an Order clause.
type SortType string

// Sort directions.
const (
	Asc  SortType = "asc"
	Desc SortType = "desc"
)

// Order is one ordering clause of a Query.
type Order struct {
	Field string   `json:"fieldName"`
	Type  SortType `json:"sortType"`
}

// Paging selects a window of the ordered result.
type Paging struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Query describes a Fetch.
type Query struct {
	// Fields projects each returned record onto these keys. "Id" is always
	// kept. Empty means all fields.
	Fields  []string `json:"fields,omitempty"`
	OrderBy []Order  `json:"orderBy,omitempty"`
	Paging  Paging   `json:"pagingInfo"`
}

// Result is the per-record outcome of a batch mutation.
type Result struct {
	OK      bool   `json:"success"`
	Data    Record `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	// Conflict is set when the record violated a unique field.
	Conflict bool `json:"conflict,omitempty"`
}

// FirstFailure returns the first failed result, if any.
func FirstFailure(results []Result) (Result, bool) {
	for _, r := range results {
		if !r.OK {
			return r, true
		}
	}
	return Result{}, false
}
