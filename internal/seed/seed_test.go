package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/maruel/propertyhub/internal/listing"
	"github.com/maruel/propertyhub/internal/records"
)

func TestDefault(t *testing.T) {
	ds, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	if len(ds.Properties) != 12 {
		t.Fatalf("expected 12 properties, got %d", len(ds.Properties))
	}
	p := ds.Properties[0]
	if p.Title != "Modern Downtown Loft" || p.SquareFeet != 1250 || p.ZipCode != "94105" || p.ListingDate.String() != "2024-01-15" {
		t.Errorf("unexpected first property %+v", p)
	}
	if len(p.Features) != 2 || len(p.Images) != 2 {
		t.Errorf("features %v, images %v", p.Features, p.Images)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad yaml", "properties: [\n"},
		{"missing title", "properties:\n  - price: 1\n    listingDate: \"2024-01-01\"\n"},
		{"negative price", "properties:\n  - title: x\n    price: -1\n    listingDate: \"2024-01-01\"\n"},
		{"missing date", "properties:\n  - title: x\n"},
		{"bad date", "properties:\n  - title: x\n    listingDate: soon\n"},
		{"saved out of range", "properties:\n  - title: x\n    listingDate: \"2024-01-01\"\nsaved: [2]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.doc)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.yaml")
	doc := "properties:\n  - title: Tiny\n    price: 10\n    listingDate: \"2024-01-01\"\nsaved: [1]\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	ds, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(ds.Properties) != 1 || ds.Saved[0] != 1 {
		t.Errorf("unexpected dataset %+v", ds)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestPopulate(t *testing.T) {
	ctx := context.Background()
	store := records.NewMemory(listing.Tables(), 0)
	ds, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	wrote, err := Populate(ctx, store, ds)
	if err != nil {
		t.Fatal(err)
	}
	if !wrote {
		t.Fatal("empty store was not populated")
	}
	wrote, err = Populate(ctx, store, ds)
	if err != nil {
		t.Fatal(err)
	}
	if wrote {
		t.Error("populated a store that already had content")
	}

	b := listing.NewBrowser(store)
	view, err := b.SavedView(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if view.Count != 2 {
		t.Fatalf("expected 2 saved properties, got %d", view.Count)
	}
	titles := map[string]bool{}
	for _, p := range view.Properties {
		titles[p.Title] = true
	}
	if !titles["Luxury Beachfront Villa"] || !titles["Urban Condo with City Views"] {
		t.Errorf("unexpected saved properties %v", titles)
	}
}
