// Derives the saved state of listings from saved entries.

package listing

// SavedSet is the set of saved property ids derived from a list of saved
// entries. It is immutable; recompute it after every save or removal.
type SavedSet struct {
	entries []SavedEntry
	ids     map[int64]struct{}
}

// NewSavedSet indexes entries.
func NewSavedSet(entries []SavedEntry) *SavedSet {
	s := &SavedSet{entries: entries, ids: make(map[int64]struct{}, len(entries))}
	for _, e := range entries {
		s.ids[e.PropertyID] = struct{}{}
	}
	return s
}

// IsSaved reports whether propertyID is saved.
func (s *SavedSet) IsSaved(propertyID int64) bool {
	_, ok := s.ids[propertyID]
	return ok
}

// IDs returns the saved property ids in saved-entry order.
func (s *SavedSet) IDs() []int64 {
	out := make([]int64, 0, len(s.entries))
	seen := make(map[int64]struct{}, len(s.entries))
	for _, e := range s.entries {
		if _, ok := seen[e.PropertyID]; !ok {
			seen[e.PropertyID] = struct{}{}
			out = append(out, e.PropertyID)
		}
	}
	return out
}

// Entries returns the underlying saved entries.
func (s *SavedSet) Entries() []SavedEntry {
	return s.entries
}

// Subset returns the saved properties in the order of properties. Entries
// whose property no longer exists are skipped.
func (s *SavedSet) Subset(properties []Property) []Property {
	out := make([]Property, 0, len(s.ids))
	for i := range properties {
		if s.IsSaved(properties[i].ID) {
			out = append(out, properties[i])
		}
	}
	return out
}

// Orphans returns the entries referencing a property absent from properties.
func (s *SavedSet) Orphans(properties []Property) []SavedEntry {
	present := make(map[int64]struct{}, len(properties))
	for i := range properties {
		present[properties[i].ID] = struct{}{}
	}
	var out []SavedEntry
	for _, e := range s.entries {
		if _, ok := present[e.PropertyID]; !ok {
			out = append(out, e)
		}
	}
	return out
}
