// Implements the mutation rules shared by the in-process stores.

package records

import "slices"

// Rows holds the records of one table in insertion order and enforces the
// table's unique fields. It is not synchronized; callers hold a lock.
type Rows struct {
	unique []string
	items  []Record

	// sequenced tables never reuse an id. last is the highest id ever
	// assigned or loaded.
	sequenced bool
	last      int64
}

// NewRows returns an empty table enforcing the given unique fields. Ids are
// assigned as one past the highest stored id.
func NewRows(unique []string) *Rows {
	return &Rows{unique: unique}
}

// NewSequencedRows returns an empty table whose ids are never reused, even
// after the highest record is deleted.
func NewSequencedRows(unique []string) *Rows {
	return &Rows{unique: unique, sequenced: true}
}

// LastID returns the highest id assigned or loaded so far.
func (t *Rows) LastID() int64 {
	return max(t.last, t.maxID())
}

// RaiseLastID makes sure ids up to id are never assigned again. Lower values
// are ignored.
func (t *Rows) RaiseLastID(id int64) {
	t.last = max(t.last, id)
}

// All returns the stored records without copying them.
func (t *Rows) All() []Record {
	return t.items
}

// Len returns the number of stored records.
func (t *Rows) Len() int {
	return len(t.items)
}

// Replace swaps the content of the table. Records must carry an "Id".
func (t *Rows) Replace(items []Record) {
	t.items = items
	if t.sequenced {
		t.last = max(t.last, t.maxID())
	}
}

// Get returns a projected copy of the record with the given id, or nil.
func (t *Rows) Get(id int64, fields []string) Record {
	if i := t.index(id); i >= 0 {
		return Project(t.items[i], fields)
	}
	return nil
}

// Create assigns the next id to rec and appends it. rec must be normalized.
func (t *Rows) Create(rec Record) Result {
	rec = rec.Clone()
	delete(rec, FieldID)
	if f := t.conflict(rec, 0); f != "" {
		return Result{Message: duplicateMessage(f), Conflict: true}
	}
	rec[FieldID] = float64(t.nextID())
	t.items = append(t.items, rec)
	return Result{OK: true, Data: rec.Clone()}
}

// Update merges rec into the stored record identified by rec's "Id".
func (t *Rows) Update(rec Record) Result {
	id := rec.ID()
	if id == 0 {
		return Result{Message: missingIDMessage}
	}
	i := t.index(id)
	if i < 0 {
		return Result{Message: notFoundMessage(id)}
	}
	merged := t.items[i].Clone()
	for k, v := range rec {
		if k != FieldID {
			merged[k] = cloneValue(v)
		}
	}
	if f := t.conflict(merged, id); f != "" {
		return Result{Message: duplicateMessage(f), Conflict: true}
	}
	t.items[i] = merged
	return Result{OK: true, Data: merged.Clone()}
}

// Delete removes the record with the given id and returns it.
func (t *Rows) Delete(id int64) Result {
	i := t.index(id)
	if i < 0 {
		return Result{Message: notFoundMessage(id)}
	}
	old := t.items[i]
	t.items = slices.Delete(t.items, i, i+1)
	return Result{OK: true, Data: old}
}

func (t *Rows) index(id int64) int {
	return slices.IndexFunc(t.items, func(r Record) bool { return r.ID() == id })
}

func (t *Rows) nextID() int64 {
	if !t.sequenced {
		return t.maxID() + 1
	}
	t.last = max(t.last, t.maxID()) + 1
	return t.last
}

func (t *Rows) maxID() int64 {
	var m int64
	for _, r := range t.items {
		m = max(m, r.ID())
	}
	return m
}

// conflict returns the first unique field of rec already held by a record
// other than self.
func (t *Rows) conflict(rec Record, self int64) string {
	for _, f := range t.unique {
		v, ok := rec[f]
		if !ok || v == nil {
			continue
		}
		k := uniqueKey(v)
		for _, r := range t.items {
			if r.ID() != self && r[f] != nil && uniqueKey(r[f]) == k {
				return f
			}
		}
	}
	return ""
}
