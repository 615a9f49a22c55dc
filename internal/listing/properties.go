// Provides the property repository over a record store.

package listing

import (
	"context"
	"fmt"
	"time"

	"github.com/maruel/propertyhub/internal/records"
)

// PropertyRepository reads and writes listings in the property table.
//
// It keeps no cache: every call reflects the store at the time of the call.
type PropertyRepository struct {
	store records.Store
	now   func() time.Time
}

// NewPropertyRepository returns a repository over store.
func NewPropertyRepository(store records.Store) *PropertyRepository {
	return &PropertyRepository{store: store, now: time.Now}
}

// ListAll returns every listing, newest listing date first.
func (r *PropertyRepository) ListAll(ctx context.Context) ([]Property, error) {
	recs, err := fetchAll(ctx, r.store, TableProperty, records.Order{Field: "listingDate", Type: records.Desc})
	if err != nil {
		return nil, err
	}
	return decodeAll[Property](recs)
}

// Get returns the listing with the given id.
func (r *PropertyRepository) Get(ctx context.Context, id int64) (*Property, error) {
	rec, err := r.store.Get(ctx, TableProperty, id, nil)
	if err != nil {
		return nil, remoteFailure(err)
	}
	if rec == nil {
		return nil, fmt.Errorf("property %d: %w", id, ErrNotFound)
	}
	var p Property
	if err := fromRecord(rec, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create stores a new listing and returns it with its id. A listing the store
// did not date is dated today.
func (r *PropertyRepository) Create(ctx context.Context, d *Draft) (*Property, error) {
	rec, err := toRecord(d)
	if err != nil {
		return nil, err
	}
	p, err := r.write(ctx, r.store.Create, rec)
	if err != nil || !p.ListingDate.IsZero() {
		return p, err
	}
	return r.write(ctx, r.store.Update, records.Record{
		records.FieldID: p.ID,
		"listingDate":   NewDate(r.now()).String(),
	})
}

// Update applies the non-nil fields of u to the listing with the given id.
// An empty update returns the listing unchanged.
func (r *PropertyRepository) Update(ctx context.Context, id int64, u *Update) (*Property, error) {
	rec, err := toRecord(u)
	if err != nil {
		return nil, err
	}
	if len(rec) == 0 {
		return r.Get(ctx, id)
	}
	rec[records.FieldID] = id
	return r.write(ctx, r.store.Update, rec)
}

// Delete removes the listing with the given id. It reports whether a record
// was deleted. Saved entries referencing it are left in place.
func (r *PropertyRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.store.Delete(ctx, TableProperty, []int64{id})
	if err != nil {
		return false, remoteFailure(err)
	}
	for _, x := range res {
		if x.OK {
			return true, nil
		}
	}
	return false, nil
}

func (r *PropertyRepository) write(ctx context.Context, op func(context.Context, string, []records.Record) ([]records.Result, error), rec records.Record) (*Property, error) {
	res, err := op(ctx, TableProperty, []records.Record{rec})
	if err != nil {
		return nil, remoteFailure(err)
	}
	if err := firstFailure(res); err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, &RemoteFailure{Message: "no result returned"}
	}
	var p Property
	if err := fromRecord(res[0].Data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
