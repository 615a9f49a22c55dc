// Defines API request payloads.

package dto

import (
	"math"
	"strings"
)

// HealthRequest is the request for GET /api/health.
type HealthRequest struct{}

// Validate validates the request.
func (r *HealthRequest) Validate() error {
	return nil
}

// SearchRequest holds the filters and sort order of a listing search.
// Repeated type and feature parameters accumulate.
type SearchRequest struct {
	Query         string   `query:"q"`
	PriceMin      *float64 `query:"priceMin"`
	PriceMax      *float64 `query:"priceMax"`
	Types         []string `query:"type"`
	BedroomsMin   *int     `query:"bedroomsMin"`
	BathroomsMin  *float64 `query:"bathroomsMin"`
	SquareFeetMin *int     `query:"squareFeetMin"`
	Features      []string `query:"feature"`
	Sort          string   `query:"sort"`
}

// Validate validates the request.
func (r *SearchRequest) Validate() error {
	for name, v := range map[string]*float64{"priceMin": r.PriceMin, "priceMax": r.PriceMax, "bathroomsMin": r.BathroomsMin} {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return BadRequest(name + " must be a finite number").WithDetail("field", name)
		}
	}
	return nil
}

// PropertyIDRequest addresses one listing.
type PropertyIDRequest struct {
	ID int64 `path:"id" json:"-"`
}

// Validate validates the request.
func (r *PropertyIDRequest) Validate() error {
	if r.ID <= 0 {
		return MissingField("id")
	}
	return nil
}

// CreatePropertyRequest holds the attributes of a new listing.
type CreatePropertyRequest struct {
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
	Features    []string `json:"features,omitempty"`
	Images      []string `json:"images,omitempty"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	YearBuilt   int      `json:"yearBuilt"`
	Status      string   `json:"status"`
}

// Validate validates the request.
func (r *CreatePropertyRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return MissingField("title")
	}
	if r.Price < 0 {
		return BadRequest("price must be non-negative").WithDetail("field", "price")
	}
	if r.Bedrooms < 0 || r.Bathrooms < 0 || r.SquareFeet < 0 {
		return BadRequest("room counts and surface must be non-negative")
	}
	return nil
}

// UpdatePropertyRequest changes some attributes of a listing. Omitted fields
// are left unchanged.
type UpdatePropertyRequest struct {
	ID          int64     `path:"id" json:"-"`
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

// Validate validates the request.
func (r *UpdatePropertyRequest) Validate() error {
	if r.ID <= 0 {
		return MissingField("id")
	}
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return BadRequest("title must not be empty").WithDetail("field", "title")
	}
	if r.Price != nil && *r.Price < 0 {
		return BadRequest("price must be non-negative").WithDetail("field", "price")
	}
	if (r.Bedrooms != nil && *r.Bedrooms < 0) || (r.Bathrooms != nil && *r.Bathrooms < 0) || (r.SquareFeet != nil && *r.SquareFeet < 0) {
		return BadRequest("room counts and surface must be non-negative")
	}
	return nil
}

// SavedRequest addresses the saved state of one listing.
type SavedRequest struct {
	PropertyID int64 `path:"propertyID" json:"-"`
}

// Validate validates the request.
func (r *SavedRequest) Validate() error {
	if r.PropertyID <= 0 {
		return MissingField("propertyID")
	}
	return nil
}

// SavedListRequest is the request for GET /api/saved.
type SavedListRequest struct{}

// Validate validates the request.
func (r *SavedListRequest) Validate() error {
	return nil
}

// CatalogRequest is the request for GET /api/catalog.
type CatalogRequest struct{}

// Validate validates the request.
func (r *CatalogRequest) Validate() error {
	return nil
}
