// Combines the repositories, the engine and saved-state reconciliation into
// the operations of the listing browser.

package listing

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/maruel/propertyhub/internal/records"
)

// Browser serves the views of the listing browser.
type Browser struct {
	Properties *PropertyRepository
	Saved      *SavedRepository
}

// NewBrowser returns a browser over store.
func NewBrowser(store records.Store) *Browser {
	return &Browser{
		Properties: NewPropertyRepository(store),
		Saved:      NewSavedRepository(store),
	}
}

// SearchResult is the result list of a search.
type SearchResult struct {
	Properties    []Property `json:"properties"`
	SavedIDs      []int64    `json:"savedIds"`
	ActiveFilters int        `json:"activeFilters"`
	// Total is the number of listings before filtering.
	Total int `json:"total"`
}

// Detail is a single listing with its derived attributes.
type Detail struct {
	Property           Property `json:"property"`
	IsSaved            bool     `json:"isSaved"`
	PricePerSquareFoot int64    `json:"pricePerSquareFoot"`
}

// SavedView lists the saved listings.
type SavedView struct {
	Entries []SavedEntry `json:"entries"`
	// Properties are the saved listings in listing order.
	Properties []Property `json:"properties"`
	// Count excludes entries whose listing was deleted.
	Count int `json:"count"`

	set *SavedSet
}

// IsSaved reports whether the listing has a saved entry.
func (v *SavedView) IsSaved(propertyID int64) bool {
	return v.set.IsSaved(propertyID)
}

// IDs returns the property ids of every saved entry, including entries
// whose listing was deleted.
func (v *SavedView) IDs() []int64 {
	return v.set.IDs()
}

// Load fetches every listing and the saved set concurrently.
func (b *Browser) Load(ctx context.Context) ([]Property, *SavedSet, error) {
	var props []Property
	var entries []SavedEntry
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		props, err = b.Properties.ListAll(ctx)
		return err
	})
	eg.Go(func() error {
		var err error
		entries, err = b.Saved.ListAll(ctx)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}
	return props, NewSavedSet(entries), nil
}

// Search returns the listings matching spec ordered by key.
func (b *Browser) Search(ctx context.Context, spec *FilterSpec, key SortKey) (*SearchResult, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	props, saved, err := b.Load(ctx)
	if err != nil {
		return nil, err
	}
	out, err := Apply(props, spec, key)
	if err != nil {
		return nil, err
	}
	res := &SearchResult{Properties: out, SavedIDs: saved.IDs(), Total: len(props)}
	if spec != nil {
		res.ActiveFilters = spec.ActiveCount()
	}
	return res, nil
}

// Detail returns the listing with the given id and its saved state.
func (b *Browser) Detail(ctx context.Context, id int64) (*Detail, error) {
	var p *Property
	var entries []SavedEntry
	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		p, err = b.Properties.Get(gctx, id)
		return err
	})
	eg.Go(func() error {
		var err error
		entries, err = b.Saved.ListAll(gctx)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return &Detail{
		Property:           *p,
		IsSaved:            NewSavedSet(entries).IsSaved(id),
		PricePerSquareFoot: p.PricePerSquareFoot(),
	}, nil
}

// SavedView returns the saved listings.
func (b *Browser) SavedView(ctx context.Context) (*SavedView, error) {
	props, saved, err := b.Load(ctx)
	if err != nil {
		return nil, err
	}
	subset := saved.Subset(props)
	return &SavedView{Entries: saved.Entries(), Properties: subset, Count: len(subset), set: saved}, nil
}

// Save marks an existing listing as saved and returns the refreshed saved
// view.
func (b *Browser) Save(ctx context.Context, propertyID int64) (*SavedView, error) {
	if _, err := b.Properties.Get(ctx, propertyID); err != nil {
		return nil, err
	}
	if _, err := b.Saved.Save(ctx, propertyID); err != nil {
		return nil, err
	}
	return b.SavedView(ctx)
}

// Unsave removes the saved entry of a listing and returns the refreshed
// saved view. It fails with ErrNotFound when the listing was not saved.
func (b *Browser) Unsave(ctx context.Context, propertyID int64) (*SavedView, error) {
	if _, err := b.Saved.Remove(ctx, propertyID); err != nil {
		return nil, err
	}
	return b.SavedView(ctx)
}

// Toggle saves the listing if it is not saved and removes it otherwise.
func (b *Browser) Toggle(ctx context.Context, propertyID int64) (*SavedView, error) {
	set, err := b.savedSet(ctx)
	if err != nil {
		return nil, err
	}
	if !set.IsSaved(propertyID) {
		return b.Save(ctx, propertyID)
	}
	v, err := b.Unsave(ctx, propertyID)
	if errors.Is(err, ErrNotFound) {
		// Removed concurrently; the refreshed state is what the caller wants.
		return b.SavedView(ctx)
	}
	return v, err
}

// Markers returns the map markers of the listings matching spec.
func (b *Browser) Markers(ctx context.Context, spec *FilterSpec, key SortKey) ([]Marker, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	props, saved, err := b.Load(ctx)
	if err != nil {
		return nil, err
	}
	out, err := Apply(props, spec, key)
	if err != nil {
		return nil, err
	}
	return Markers(out, saved), nil
}

func (b *Browser) savedSet(ctx context.Context) (*SavedSet, error) {
	entries, err := b.Saved.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return NewSavedSet(entries), nil
}
