// Provides filtering and sorting logic for listings.

package listing

import (
	"cmp"
	"slices"
	"strings"
)

// SortKey selects the order of a result list.
type SortKey string

// Supported sort keys.
const (
	SortNewest    SortKey = "newest"
	SortOldest    SortKey = "oldest"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortSizeLarge SortKey = "size-large"
	SortSizeSmall SortKey = "size-small"
)

// SortKeys lists the supported sort keys in display order.
var SortKeys = []SortKey{SortNewest, SortOldest, SortPriceLow, SortPriceHigh, SortSizeLarge, SortSizeSmall}

var sortFuncs = map[SortKey]func(a, b *Property) int{
	SortNewest:    func(a, b *Property) int { return b.ListingDate.Compare(a.ListingDate.Time) },
	SortOldest:    func(a, b *Property) int { return a.ListingDate.Compare(b.ListingDate.Time) },
	SortPriceLow:  func(a, b *Property) int { return cmp.Compare(a.Price, b.Price) },
	SortPriceHigh: func(a, b *Property) int { return cmp.Compare(b.Price, a.Price) },
	SortSizeLarge: func(a, b *Property) int { return cmp.Compare(b.SquareFeet, a.SquareFeet) },
	SortSizeSmall: func(a, b *Property) int { return cmp.Compare(a.SquareFeet, b.SquareFeet) },
}

// Validate returns a *ConfigurationError for an unsupported key.
func (k SortKey) Validate() error {
	if _, ok := sortFuncs[k]; !ok {
		return &ConfigurationError{Field: "sort key", Value: string(k)}
	}
	return nil
}

// FilterSpec is a conjunction of optional clauses. A nil bound or an empty
// set disables its clause.
type FilterSpec struct {
	// Query is matched case-insensitively against the location, title and
	// type of each listing.
	Query         string   `json:"query,omitempty"`
	PriceMin      *float64 `json:"priceMin,omitempty"`
	PriceMax      *float64 `json:"priceMax,omitempty"`
	PropertyTypes []string `json:"propertyTypes,omitempty"`
	BedroomsMin   *int     `json:"bedroomsMin,omitempty"`
	BathroomsMin  *float64 `json:"bathroomsMin,omitempty"`
	SquareFeetMin *int     `json:"squareFeetMin,omitempty"`
	// Features must all be present on a listing.
	Features []string `json:"features,omitempty"`
}

// ActiveCount returns the number of active clauses, counting the price range
// as one. The text query is not counted.
func (f *FilterSpec) ActiveCount() int {
	n := 0
	if f.PriceMin != nil || f.PriceMax != nil {
		n++
	}
	if len(f.PropertyTypes) > 0 {
		n++
	}
	if f.BedroomsMin != nil {
		n++
	}
	if f.BathroomsMin != nil {
		n++
	}
	if f.SquareFeetMin != nil {
		n++
	}
	if len(f.Features) > 0 {
		n++
	}
	return n
}

// Matches reports whether p satisfies every active clause.
func (f *FilterSpec) Matches(p *Property) bool {
	if f.Query != "" && !matchesText(p, f.Query) {
		return false
	}
	if f.PriceMin != nil && p.Price < *f.PriceMin {
		return false
	}
	if f.PriceMax != nil && p.Price > *f.PriceMax {
		return false
	}
	if len(f.PropertyTypes) > 0 && !slices.Contains(f.PropertyTypes, p.Type) {
		return false
	}
	if f.BedroomsMin != nil && p.Bedrooms < *f.BedroomsMin {
		return false
	}
	if f.BathroomsMin != nil && p.Bathrooms < *f.BathroomsMin {
		return false
	}
	if f.SquareFeetMin != nil && p.SquareFeet < *f.SquareFeetMin {
		return false
	}
	for _, feat := range f.Features {
		if !p.HasFeature(feat) {
			return false
		}
	}
	return true
}

func matchesText(p *Property, q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	for _, s := range []string{p.City, p.State, p.Address, p.ZipCode, p.Title, p.Type} {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

// Apply filters properties with spec and orders the result by key. Ties keep
// their input order. The input slice is not modified.
func Apply(properties []Property, spec *FilterSpec, key SortKey) ([]Property, error) {
	compare, ok := sortFuncs[key]
	if !ok {
		return nil, key.Validate()
	}
	out := make([]Property, 0, len(properties))
	for i := range properties {
		if spec == nil || spec.Matches(&properties[i]) {
			out = append(out, properties[i])
		}
	}
	slices.SortStableFunc(out, func(a, b Property) int { return compare(&a, &b) })
	return out, nil
}
