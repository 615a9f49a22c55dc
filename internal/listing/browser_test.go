package listing

import (
	"context"
	"errors"
	"testing"

	"github.com/maruel/propertyhub/internal/records"
)

func seedBrowser(t *testing.T) *Browser {
	t.Helper()
	ctx := context.Background()
	b, store := newTestBrowser(t)
	recs, err := toRecords([]Property{
		{Title: "A", Price: 100000, SquareFeet: 800, City: "Austin", Type: "House", ListingDate: mustDate("2024-01-01")},
		{Title: "B", Price: 200000, SquareFeet: 1200, City: "Boston", Type: "Condo", ListingDate: mustDate("2024-02-01")},
		{Title: "C", Price: 300000, SquareFeet: 1000, City: "Austin", Type: "Villa", ListingDate: mustDate("2024-03-01")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Create(ctx, TableProperty, recs); err != nil {
		t.Fatal(err)
	}
	return b
}

func mustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func toRecords(props []Property) ([]records.Record, error) {
	out := make([]records.Record, 0, len(props))
	for i := range props {
		rec, err := toRecord(&props[i])
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func TestBrowser_Search(t *testing.T) {
	ctx := context.Background()
	b := seedBrowser(t)
	if _, err := b.Save(ctx, 1); err != nil {
		t.Fatal(err)
	}
	res, err := b.Search(ctx, &FilterSpec{Query: "austin", PriceMin: f64(50000)}, SortPriceHigh)
	if err != nil {
		t.Fatal(err)
	}
	if !equalIDs(ids(res.Properties), []int64{3, 1}) {
		t.Errorf("Properties = %v", ids(res.Properties))
	}
	if !equalIDs(res.SavedIDs, []int64{1}) {
		t.Errorf("SavedIDs = %v", res.SavedIDs)
	}
	if res.ActiveFilters != 1 || res.Total != 3 {
		t.Errorf("ActiveFilters = %d, Total = %d", res.ActiveFilters, res.Total)
	}

	var ce *ConfigurationError
	if _, err := b.Search(ctx, nil, "bogus"); !errors.As(err, &ce) {
		t.Errorf("expected ConfigurationError, got %v", err)
	}
}

func TestBrowser_Detail(t *testing.T) {
	ctx := context.Background()
	b := seedBrowser(t)
	d, err := b.Detail(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if d.IsSaved || d.PricePerSquareFoot != 167 || d.Property.Title != "B" {
		t.Errorf("unexpected detail %+v", d)
	}
	if _, err := b.Detail(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("Detail(99): %v", err)
	}
}

func TestBrowser_SaveToggleAndSavedView(t *testing.T) {
	ctx := context.Background()
	b := seedBrowser(t)

	if _, err := b.Save(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("Save(missing listing): %v", err)
	}
	v, err := b.Toggle(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !v.IsSaved(3) {
		t.Error("toggle did not save")
	}
	if _, err := b.Save(ctx, 1); err != nil {
		t.Fatal(err)
	}

	view, err := b.SavedView(ctx)
	if err != nil {
		t.Fatal(err)
	}
	// Listing order (newest first), not saved order.
	if !equalIDs(ids(view.Properties), []int64{3, 1}) || view.Count != 2 || len(view.Entries) != 2 {
		t.Errorf("unexpected saved view %+v", view)
	}

	// Deleting a listing leaves its entry, which the view skips.
	if _, err := b.Properties.Delete(ctx, 3); err != nil {
		t.Fatal(err)
	}
	view, err = b.SavedView(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if view.Count != 1 || len(view.Entries) != 2 {
		t.Errorf("orphan handling: count %d, entries %d", view.Count, len(view.Entries))
	}

	v, err = b.Toggle(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if v.IsSaved(1) {
		t.Error("toggle did not remove")
	}
	// The orphaned entry of listing 3 is listed but not counted.
	if v.Count != 0 || !equalIDs(v.IDs(), []int64{3}) {
		t.Errorf("after toggle: count %d, ids %v", v.Count, v.IDs())
	}
	if _, err := b.Unsave(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Unsave(not saved): %v", err)
	}
}

func TestBrowser_Markers(t *testing.T) {
	ctx := context.Background()
	b := seedBrowser(t)
	markers, err := b.Markers(ctx, &FilterSpec{PropertyTypes: []string{"House", "Villa"}}, SortOldest)
	if err != nil {
		t.Fatal(err)
	}
	if len(markers) != 2 || markers[0].PropertyID != 1 || markers[1].Left != 30 || markers[1].Label != "$300,000" {
		t.Errorf("unexpected markers %+v", markers)
	}
}
