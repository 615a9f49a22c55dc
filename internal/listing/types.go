// Defines the listing domain types and their record tables.

package listing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/maruel/propertyhub/internal/records"
)

// Table names in the record store.
const (
	TableProperty      = "property"
	TableSavedProperty = "saved_property"
)

// Tables returns the table definitions the listing repositories need.
//
// Saved entries are unique per propertyId; stores enforcing it make Save safe
// against concurrent callers in other processes.
func Tables() []records.TableDef {
	return []records.TableDef{
		{Name: TableProperty, Row: Property{}},
		{Name: TableSavedProperty, Unique: []string{"propertyId"}, Row: SavedEntry{}},
	}
}

// Property is a single listing.
type Property struct {
	ID          int64    `json:"Id"`
	Title       string   `json:"title"`
	Price       float64  `json:"price"`
	Type        string   `json:"type"`
	Bedrooms    int      `json:"bedrooms"`
	Bathrooms   float64  `json:"bathrooms"`
	SquareFeet  int      `json:"squareFeet"`
	Address     string   `json:"address"`
	City        string   `json:"city"`
	State       string   `json:"state"`
	ZipCode     string   `json:"zipCode"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
	// Images are ordered; the first one is the cover image.
	Images      []string `json:"images"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	YearBuilt   int      `json:"yearBuilt"`
	ListingDate Date     `json:"listingDate"`
	Status      string   `json:"status"`
}

// HasFeature reports whether f is one of the property's features.
func (p *Property) HasFeature(f string) bool {
	return slices.Contains(p.Features, f)
}

// PricePerSquareFoot returns the price divided by the surface, rounded to
// the nearest unit. It is 0 when the surface is unknown.
func (p *Property) PricePerSquareFoot() int64 {
	if p.SquareFeet <= 0 {
		return 0
	}
	return int64(math.Round(p.Price / float64(p.SquareFeet)))
}

// Draft holds the attributes of a property to create. The id and listing
// date are assigned on creation.
type Draft struct {
	Title       string   `json:"title"`
	Price       float64  `json:"price"`
	Type        string   `json:"type"`
	Bedrooms    int      `json:"bedrooms"`
	Bathrooms   float64  `json:"bathrooms"`
	SquareFeet  int      `json:"squareFeet"`
	Address     string   `json:"address"`
	City        string   `json:"city"`
	State       string   `json:"state"`
	ZipCode     string   `json:"zipCode"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
	Images      []string `json:"images"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	YearBuilt   int      `json:"yearBuilt"`
	Status      string   `json:"status"`
}

// Update lists the attributes to change. Nil fields are left unchanged, so a
// zero value such as a price of 0 can be set explicitly.
type Update struct {
	Title       *string   `json:"title,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	Type        *string   `json:"type,omitempty"`
	Bedrooms    *int      `json:"bedrooms,omitempty"`
	Bathrooms   *float64  `json:"bathrooms,omitempty"`
	SquareFeet  *int      `json:"squareFeet,omitempty"`
	Address     *string   `json:"address,omitempty"`
	City        *string   `json:"city,omitempty"`
	State       *string   `json:"state,omitempty"`
	ZipCode     *string   `json:"zipCode,omitempty"`
	Description *string   `json:"description,omitempty"`
	Features    *[]string `json:"features,omitempty"`
	Images      *[]string `json:"images,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	YearBuilt   *int      `json:"yearBuilt,omitempty"`
	Status      *string   `json:"status,omitempty"`
}

// SavedEntry records that a property was saved.
type SavedEntry struct {
	ID         int64     `json:"Id"`
	PropertyID int64     `json:"propertyId"`
	SavedDate  Timestamp `json:"savedDate"`
}

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Date is a calendar date serialized as "YYYY-MM-DD".
//
// The fixed width keeps the lexical order of serialized values chronological,
// which stores rely on when ordering.
type Date struct {
	time.Time
}

// NewDate returns the UTC calendar date of t.
func NewDate(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses "YYYY-MM-DD" or an RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q", s)
	}
	return NewDate(t), nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	v, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// JSONSchema describes Date in table schema headers.
func (Date) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Format: "date"}
}

// Timestamp is an instant serialized in UTC with millisecond precision.
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to milliseconds in UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t.UTC().Truncate(time.Millisecond)}
}

func (t Timestamp) String() string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if bytes.Equal(b, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*t = Timestamp{}
		return nil
	}
	v, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q", s)
	}
	*t = NewTimestamp(v)
	return nil
}

// JSONSchema describes Timestamp in table schema headers.
func (Timestamp) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Format: "date-time"}
}
