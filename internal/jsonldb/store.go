// Implements the JSONL-backed records.Store.

package jsonldb

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/maruel/propertyhub/internal/records"
)

// Options configures a Store.
type Options struct {
	// History commits every mutation to a git repository in the store
	// directory.
	History bool
}

// Store is a records.Store persisting each table to a JSONL file.
type Store struct {
	dir     string
	history *History

	mu     sync.RWMutex
	tables map[string]*table
}

type table struct {
	name   string
	path   string
	header schemaHeader
	rows   *records.Rows
}

// Open loads or creates the tables in dir.
func Open(dir string, defs []records.TableDef, opts Options) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	s := &Store{dir: dir, tables: make(map[string]*table, len(defs))}
	for _, d := range defs {
		cols, err := columnsFromRow(d.Row)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", d.Name, err)
		}
		t := &table{
			name:   d.Name,
			path:   filepath.Join(dir, d.Name+".jsonl"),
			header: schemaHeader{Version: currentVersion, Table: d.Name, Columns: cols},
			rows:   records.NewSequencedRows(d.Unique),
		}
		items, last, err := readTable(t.path)
		if err != nil {
			return nil, err
		}
		t.rows.Replace(items)
		t.rows.RaiseLastID(last)
		s.tables[d.Name] = t
	}
	if opts.History {
		h, err := OpenHistory(dir)
		if err != nil {
			return nil, err
		}
		s.history = h
	}
	return s, nil
}

// Dir returns the directory holding the table files.
func (s *Store) Dir() string {
	return s.dir
}

// Fetch implements records.Store.
func (s *Store) Fetch(ctx context.Context, name string, q records.Query) ([]records.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, err := s.table(name)
	if err != nil {
		return nil, err
	}
	return records.Apply(t.rows.All(), q), nil
}

// Get implements records.Store.
func (s *Store) Get(ctx context.Context, name string, id int64, fields []string) (records.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, err := s.table(name)
	if err != nil {
		return nil, err
	}
	return t.rows.Get(id, fields), nil
}

// Create implements records.Store.
func (s *Store) Create(ctx context.Context, name string, recs []records.Record) ([]records.Result, error) {
	return s.mutate(ctx, name, "create", len(recs), func(t *table, i int) records.Result {
		n, err := records.Normalize(recs[i])
		if err != nil {
			return records.Result{Message: err.Error()}
		}
		return t.rows.Create(n)
	})
}

// Update implements records.Store.
func (s *Store) Update(ctx context.Context, name string, recs []records.Record) ([]records.Result, error) {
	return s.mutate(ctx, name, "update", len(recs), func(t *table, i int) records.Result {
		n, err := records.Normalize(recs[i])
		if err != nil {
			return records.Result{Message: err.Error()}
		}
		return t.rows.Update(n)
	})
}

// Delete implements records.Store.
func (s *Store) Delete(ctx context.Context, name string, ids []int64) ([]records.Result, error) {
	return s.mutate(ctx, name, "delete", len(ids), func(t *table, i int) records.Result {
		return t.rows.Delete(ids[i])
	})
}

// mutate applies op to each of n inputs and persists the table once. The
// in-memory state is rolled back if the file cannot be written.
func (s *Store) mutate(ctx context.Context, name, verb string, n int, op func(*table, int) records.Result) ([]records.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.table(name)
	if err != nil {
		return nil, err
	}
	before := slices.Clone(t.rows.All())
	out := make([]records.Result, n)
	changed := false
	for i := range n {
		out[i] = op(t, i)
		changed = changed || out[i].OK
	}
	if !changed {
		return out, nil
	}
	t.header.LastID = t.rows.LastID()
	if err := writeTable(t.path, &t.header, t.rows.All()); err != nil {
		t.rows.Replace(before)
		return nil, &records.RemoteError{Message: err.Error()}
	}
	if s.history != nil {
		msg := fmt.Sprintf("%s %s: %d record(s)", verb, name, n)
		if err := s.history.Commit(msg, filepath.Base(t.path)); err != nil {
			slog.ErrorContext(ctx, "Failed to commit table change", "table", name, "err", err)
		}
	}
	return out, nil
}

func (s *Store) table(name string) (*table, error) {
	t := s.tables[name]
	if t == nil {
		return nil, &records.RemoteError{Message: fmt.Sprintf("unknown table %q", name)}
	}
	return t, nil
}

// reload replaces the cached content of the table stored at path.
func (s *Store) reload(path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tables {
		if t.path != path {
			continue
		}
		items, last, err := readTable(path)
		if err != nil {
			return t.name, err
		}
		t.rows.Replace(items)
		t.rows.RaiseLastID(last)
		return t.name, nil
	}
	return "", nil
}

// readTable returns the rows of the file at path and the last id recorded in
// its header.
func readTable(path string) ([]records.Record, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("failed to open table file %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	var items []records.Record
	var last int64
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	first := true
	for line := 1; scanner.Scan(); line++ {
		b := bytes.TrimSpace(scanner.Bytes())
		if len(b) == 0 {
			continue
		}
		if first {
			first = false
			var h schemaHeader
			if json.Unmarshal(b, &h) == nil && h.Version != "" {
				if err := h.Validate(); err != nil {
					return nil, 0, fmt.Errorf("invalid schema header in %s: %w", path, err)
				}
				last = h.LastID
				continue
			}
		}
		var rec records.Record
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, 0, fmt.Errorf("failed to unmarshal row in %s:%d: %w", path, line, err)
		}
		if rec.ID() == 0 {
			return nil, 0, fmt.Errorf("row in %s:%d has no Id", path, line)
		}
		items = append(items, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read table file %s: %w", path, err)
	}
	return items, last, nil
}

// writeTable replaces the file at path through a rename so readers never see
// a partial table.
func writeTable(path string, h *schemaHeader, items []records.Record) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create table file: %w", err)
	}
	tmp := f.Name()
	defer func() {
		_ = os.Remove(tmp)
	}()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	if err := enc.Encode(h); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write schema header: %w", err)
	}
	for _, rec := range items {
		if err := enc.Encode(rec); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to flush writer: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close table file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace table file: %w", err)
	}
	return nil
}
