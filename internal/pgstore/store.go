// Package pgstore implements records.Store on PostgreSQL.
//
// Every table is stored as (id BIGSERIAL, data JSONB). Unique fields declared
// in the table definitions become unique expression indexes, so duplicate
// inserts are rejected by the database itself.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/maruel/propertyhub/internal/records"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Store is a records.Store backed by a pgx connection pool.
type Store struct {
	pool   *pgxpool.Pool
	tables map[string]tableDef
}

type tableDef struct {
	ident  string
	unique []string
}

// Open connects to the database at url and creates any missing tables and
// indexes.
func Open(ctx context.Context, url string, defs []records.TableDef) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	s := &Store{pool: pool, tables: make(map[string]tableDef, len(defs))}
	for _, d := range defs {
		s.tables[d.Name] = tableDef{ident: pgx.Identifier{d.Name}.Sanitize(), unique: d.Unique}
	}
	if err := s.migrate(ctx, defs); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) migrate(ctx context.Context, defs []records.TableDef) error {
	for _, d := range defs {
		t := s.tables[d.Name]
		q := "CREATE TABLE IF NOT EXISTS " + t.ident + " (id BIGSERIAL PRIMARY KEY, data JSONB NOT NULL DEFAULT '{}'::jsonb)"
		if _, err := s.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("failed to create table %s: %w", d.Name, err)
		}
		for _, f := range d.Unique {
			idx := pgx.Identifier{d.Name + "_" + f + "_key"}.Sanitize()
			q := fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s ((data->>%s))", idx, t.ident, quoteLiteral(f))
			if _, err := s.pool.Exec(ctx, q); err != nil {
				return fmt.Errorf("failed to create unique index on %s.%s: %w", d.Name, f, err)
			}
		}
	}
	return nil
}

// Fetch implements records.Store.
func (s *Store) Fetch(ctx context.Context, table string, q records.Query) ([]records.Record, error) {
	t, err := s.table(table)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	args := []any{}
	sb.WriteString("SELECT id, data FROM ")
	sb.WriteString(t.ident)
	sb.WriteString(" ORDER BY ")
	for _, o := range q.OrderBy {
		if o.Field == records.FieldID {
			sb.WriteString("id")
		} else {
			args = append(args, o.Field)
			fmt.Fprintf(&sb, "data->$%d::text", len(args))
		}
		if o.Type == records.Desc {
			sb.WriteString(" DESC NULLS LAST, ")
		} else {
			sb.WriteString(" ASC NULLS FIRST, ")
		}
	}
	sb.WriteString("id")
	limit := q.Paging.Limit
	if limit <= 0 {
		limit = records.DefaultLimit
	}
	args = append(args, limit, max(q.Paging.Offset, 0))
	fmt.Fprintf(&sb, " LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, remoteError(err)
	}
	defer rows.Close()
	var out []records.Record
	for rows.Next() {
		var id int64
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return nil, remoteError(err)
		}
		rec, err := decode(id, data)
		if err != nil {
			return nil, err
		}
		out = append(out, records.Project(rec, q.Fields))
	}
	if err := rows.Err(); err != nil {
		return nil, remoteError(err)
	}
	return out, nil
}

// Get implements records.Store.
func (s *Store) Get(ctx context.Context, table string, id int64, fields []string) (records.Record, error) {
	t, err := s.table(table)
	if err != nil {
		return nil, err
	}
	var data []byte
	err = s.pool.QueryRow(ctx, "SELECT data FROM "+t.ident+" WHERE id = $1", id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, remoteError(err)
	}
	rec, err := decode(id, data)
	if err != nil {
		return nil, err
	}
	return records.Project(rec, fields), nil
}

// Create implements records.Store.
func (s *Store) Create(ctx context.Context, table string, recs []records.Record) ([]records.Result, error) {
	t, err := s.table(table)
	if err != nil {
		return nil, err
	}
	q := "INSERT INTO " + t.ident + " (data) VALUES ($1::jsonb) RETURNING id, data"
	out := make([]records.Result, len(recs))
	for i, rec := range recs {
		attrs := rec.Clone()
		delete(attrs, records.FieldID)
		out[i], err = s.writeOne(ctx, q, attrs)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Update implements records.Store.
func (s *Store) Update(ctx context.Context, table string, recs []records.Record) ([]records.Result, error) {
	t, err := s.table(table)
	if err != nil {
		return nil, err
	}
	q := "UPDATE " + t.ident + " SET data = data || $1::jsonb WHERE id = $2 RETURNING id, data"
	out := make([]records.Result, len(recs))
	for i, rec := range recs {
		id := rec.ID()
		if id == 0 {
			out[i] = records.Result{Message: "records: missing Id"}
			continue
		}
		attrs := rec.Clone()
		delete(attrs, records.FieldID)
		out[i], err = s.writeOne(ctx, q, attrs, id)
		if err != nil {
			return nil, err
		}
		if !out[i].OK && out[i].Message == "" {
			out[i].Message = fmt.Sprintf("records: record %d not found", id)
		}
	}
	return out, nil
}

// Delete implements records.Store.
func (s *Store) Delete(ctx context.Context, table string, ids []int64) ([]records.Result, error) {
	t, err := s.table(table)
	if err != nil {
		return nil, err
	}
	q := "DELETE FROM " + t.ident + " WHERE id = $1 RETURNING data"
	out := make([]records.Result, len(ids))
	for i, id := range ids {
		var data []byte
		err := s.pool.QueryRow(ctx, q, id).Scan(&data)
		if errors.Is(err, pgx.ErrNoRows) {
			out[i] = records.Result{Message: fmt.Sprintf("records: record %d not found", id)}
			continue
		}
		if err != nil {
			return nil, remoteError(err)
		}
		rec, err := decode(id, data)
		if err != nil {
			return nil, err
		}
		out[i] = records.Result{OK: true, Data: rec}
	}
	return out, nil
}

// writeOne runs an INSERT or UPDATE returning (id, data). The record's JSON
// is always the first argument. A statement matching no row yields a failed
// Result with an empty message.
func (s *Store) writeOne(ctx context.Context, q string, attrs records.Record, extra ...any) (records.Result, error) {
	b, err := json.Marshal(attrs)
	if err != nil {
		return records.Result{Message: err.Error()}, nil
	}
	var id int64
	var data []byte
	err = s.pool.QueryRow(ctx, q, append([]any{string(b)}, extra...)...).Scan(&id, &data)
	if errors.Is(err, pgx.ErrNoRows) {
		return records.Result{}, nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return records.Result{Message: "records: duplicate value: " + pgErr.ConstraintName, Conflict: true}, nil
	}
	if err != nil {
		return records.Result{}, remoteError(err)
	}
	rec, err := decode(id, data)
	if err != nil {
		return records.Result{}, err
	}
	return records.Result{OK: true, Data: rec}, nil
}

func (s *Store) table(name string) (tableDef, error) {
	t, ok := s.tables[name]
	if !ok {
		return t, &records.RemoteError{Message: fmt.Sprintf("unknown table %q", name)}
	}
	return t, nil
}

func decode(id int64, data []byte) (records.Record, error) {
	var rec records.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, &records.RemoteError{Message: fmt.Sprintf("record %d: %v", id, err)}
	}
	if rec == nil {
		rec = records.Record{}
	}
	rec[records.FieldID] = float64(id)
	return rec, nil
}

func remoteError(err error) error {
	return &records.RemoteError{Message: err.Error()}
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
