// Provides the saved-property repository over a record store.

package listing

import (
	"context"
	"fmt"
	"time"

	"github.com/maruel/propertyhub/internal/records"
)

// SavedRepository manages saved entries in the saved_property table.
//
// Save and Remove are serialized per property id within the process. Across
// processes, duplicates are prevented by the store's unique constraint on
// propertyId; a conflicting Save returns the entry that won.
type SavedRepository struct {
	store records.Store
	now   func() time.Time
	locks keyedMutex
}

// NewSavedRepository returns a repository over store.
func NewSavedRepository(store records.Store) *SavedRepository {
	return &SavedRepository{store: store, now: time.Now}
}

// ListAll returns every saved entry, most recently saved first.
func (r *SavedRepository) ListAll(ctx context.Context) ([]SavedEntry, error) {
	recs, err := fetchAll(ctx, r.store, TableSavedProperty, records.Order{Field: "savedDate", Type: records.Desc})
	if err != nil {
		return nil, err
	}
	return decodeAll[SavedEntry](recs)
}

// Get returns the saved entry with the given entry id.
func (r *SavedRepository) Get(ctx context.Context, id int64) (*SavedEntry, error) {
	rec, err := r.store.Get(ctx, TableSavedProperty, id, nil)
	if err != nil {
		return nil, remoteFailure(err)
	}
	if rec == nil {
		return nil, fmt.Errorf("saved entry %d: %w", id, ErrNotFound)
	}
	var e SavedEntry
	if err := fromRecord(rec, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Save records propertyID as saved. If it already is, the existing entry is
// returned unchanged.
func (r *SavedRepository) Save(ctx context.Context, propertyID int64) (*SavedEntry, error) {
	defer r.locks.lock(propertyID)()
	if e, err := r.find(ctx, propertyID); err != nil || e != nil {
		return e, err
	}
	rec, err := toRecord(&SavedEntry{PropertyID: propertyID, SavedDate: NewTimestamp(r.now())})
	if err != nil {
		return nil, err
	}
	delete(rec, records.FieldID)
	res, err := r.store.Create(ctx, TableSavedProperty, []records.Record{rec})
	if err != nil {
		return nil, remoteFailure(err)
	}
	if len(res) == 1 && res[0].Conflict {
		// Another process saved it between the lookup and the insert.
		e, err := r.find(ctx, propertyID)
		if err == nil && e == nil {
			err = &RemoteFailure{Message: res[0].Message}
		}
		return e, err
	}
	if err := firstFailure(res); err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, &RemoteFailure{Message: "no result returned"}
	}
	var e SavedEntry
	if err := fromRecord(res[0].Data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Remove deletes the entry for propertyID and returns it as it was.
func (r *SavedRepository) Remove(ctx context.Context, propertyID int64) (*SavedEntry, error) {
	defer r.locks.lock(propertyID)()
	e, err := r.find(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("saved property %d: %w", propertyID, ErrNotFound)
	}
	res, err := r.store.Delete(ctx, TableSavedProperty, []int64{e.ID})
	if err != nil {
		return nil, remoteFailure(err)
	}
	if err := firstFailure(res); err != nil {
		return nil, err
	}
	return e, nil
}

// find returns the entry for propertyID, or nil.
func (r *SavedRepository) find(ctx context.Context, propertyID int64) (*SavedEntry, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].PropertyID == propertyID {
			return &all[i], nil
		}
	}
	return nil, nil
}
