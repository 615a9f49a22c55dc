// Package seed loads the demonstration dataset into a record store.
//
// A dataset is a YAML document listing properties, with the same attribute
// names as the property table, and the ids of the properties to mark as
// saved. Ids are positions in the list, starting at 1.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/maruel/propertyhub/internal/listing"
	"github.com/maruel/propertyhub/internal/records"
)

//go:embed dataset.yaml
var defaultDataset []byte

// Dataset is a parsed seed file.
type Dataset struct {
	Properties []listing.Property
	// Saved holds 1-based positions in Properties.
	Saved []int
}

type document struct {
	Properties []map[string]any `yaml:"properties"`
	Saved      []int            `yaml:"saved"`
}

// Default returns the embedded dataset.
func Default() (*Dataset, error) {
	return Parse(defaultDataset)
}

// Load reads and parses the dataset at path.
func Load(path string) (*Dataset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	ds, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Parse decodes and validates a YAML dataset.
func Parse(b []byte) (*Dataset, error) {
	var doc document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}
	ds := &Dataset{Saved: doc.Saved}
	for i, m := range doc.Properties {
		// The property table uses JSON attribute names; go through JSON so
		// tags and date parsing are shared with the store.
		raw, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("property %d: %w", i+1, err)
		}
		var p listing.Property
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("property %d: %w", i+1, err)
		}
		ds.Properties = append(ds.Properties, p)
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

// Validate checks that every property is plausible and every saved
// position exists.
func (ds *Dataset) Validate() error {
	for i := range ds.Properties {
		p := &ds.Properties[i]
		switch {
		case p.Title == "":
			return fmt.Errorf("property %d: %w", i+1, errTitleRequired)
		case p.Price < 0 || p.Bedrooms < 0 || p.Bathrooms < 0 || p.SquareFeet < 0:
			return fmt.Errorf("property %d: %w", i+1, errNegativeValue)
		case p.ListingDate.IsZero():
			return fmt.Errorf("property %d: %w", i+1, errListingDateRequired)
		}
	}
	for _, n := range ds.Saved {
		if n < 1 || n > len(ds.Properties) {
			return fmt.Errorf("saved position %d out of range", n)
		}
	}
	return nil
}

var (
	errTitleRequired       = errors.New("title is required")
	errNegativeValue       = errors.New("numeric attributes must not be negative")
	errListingDateRequired = errors.New("listingDate is required")
)

// Populate writes ds into store unless the property table already has
// content. It reports whether the dataset was written.
func Populate(ctx context.Context, store records.Store, ds *Dataset) (bool, error) {
	existing, err := store.Fetch(ctx, listing.TableProperty, records.Query{Fields: []string{records.FieldID}, Paging: records.Paging{Limit: 1}})
	if err != nil {
		return false, fmt.Errorf("failed to inspect property table: %w", err)
	}
	if len(existing) > 0 {
		return false, nil
	}
	recs := make([]records.Record, len(ds.Properties))
	for i := range ds.Properties {
		b, err := json.Marshal(&ds.Properties[i])
		if err != nil {
			return false, err
		}
		if err := json.Unmarshal(b, &recs[i]); err != nil {
			return false, err
		}
		delete(recs[i], records.FieldID)
	}
	res, err := store.Create(ctx, listing.TableProperty, recs)
	if err != nil {
		return false, fmt.Errorf("failed to create properties: %w", err)
	}
	if r, ok := records.FirstFailure(res); ok {
		return false, fmt.Errorf("failed to create properties: %s", r.Message)
	}
	saved := listing.NewSavedRepository(store)
	for _, n := range ds.Saved {
		if _, err := saved.Save(ctx, res[n-1].Data.ID()); err != nil {
			return false, fmt.Errorf("failed to save property %d: %w", n, err)
		}
	}
	slog.InfoContext(ctx, "Seeded dataset", "properties", len(recs), "saved", len(ds.Saved))
	return true, nil
}
