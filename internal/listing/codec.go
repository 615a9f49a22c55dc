package listing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/maruel/propertyhub/internal/records"
)

// toRecord converts a domain value to a store record through its JSON form.
func toRecord(v any) (records.Record, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", v, err)
	}
	var rec records.Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", v, err)
	}
	return rec, nil
}

// fromRecord decodes a store record into out.
func fromRecord(rec records.Record, out any) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to decode %T: %w", out, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return &RemoteFailure{Message: fmt.Sprintf("malformed record %d: %v", rec.ID(), err), Err: err}
	}
	return nil
}

func decodeAll[T any](recs []records.Record) ([]T, error) {
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		var v T
		if err := fromRecord(rec, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// fetchAll pages through table in the given order.
func fetchAll(ctx context.Context, store records.Store, table string, order records.Order) ([]records.Record, error) {
	var out []records.Record
	for offset := 0; ; offset += records.DefaultLimit {
		page, err := store.Fetch(ctx, table, records.Query{
			OrderBy: []records.Order{order},
			Paging:  records.Paging{Limit: records.DefaultLimit, Offset: offset},
		})
		if err != nil {
			return nil, remoteFailure(err)
		}
		out = append(out, page...)
		if len(page) < records.DefaultLimit {
			return out, nil
		}
	}
}
