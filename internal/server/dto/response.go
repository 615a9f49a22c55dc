// Defines API response payloads.

package dto

// HealthResponse reports server health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Store   string `json:"store"`
}

// Property is a listing as served by the API.
type Property struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Price       float64  `json:"price"`
	PriceLabel  string   `json:"priceLabel"`
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
	ListingDate string   `json:"listingDate,omitempty"`
	Status      string   `json:"status"`
}

// SearchResponse is the result list of a search.
type SearchResponse struct {
	Properties    []Property `json:"properties"`
	SavedIDs      []int64    `json:"savedIds"`
	ActiveFilters int        `json:"activeFilters"`
	Total         int        `json:"total"`
}

// PropertyDetailResponse is a single listing and its derived attributes.
type PropertyDetailResponse struct {
	Property           Property `json:"property"`
	IsSaved            bool     `json:"isSaved"`
	PricePerSquareFoot int64    `json:"pricePerSquareFoot"`
}

// DeletePropertyResponse confirms a deletion.
type DeletePropertyResponse struct {
	ID int64 `json:"id"`
}

// SavedEntry is a saved listing marker.
type SavedEntry struct {
	ID         int64  `json:"id"`
	PropertyID int64  `json:"propertyId"`
	SavedDate  string `json:"savedDate"`
}

// SavedListResponse lists the saved listings.
type SavedListResponse struct {
	Entries    []SavedEntry `json:"entries"`
	Properties []Property   `json:"properties"`
	Count      int          `json:"count"`
}

// SavedStateResponse is the saved set after a save or removal.
type SavedStateResponse struct {
	PropertyID int64   `json:"propertyId"`
	IsSaved    bool    `json:"isSaved"`
	SavedIDs   []int64 `json:"savedIds"`
	Count      int     `json:"count"`
}

// Marker is a listing pin on the map view.
type Marker struct {
	PropertyID int64  `json:"propertyId"`
	Title      string `json:"title"`
	Label      string `json:"label"`
	Left       int    `json:"left"`
	Top        int    `json:"top"`
	Saved      bool   `json:"saved"`
}

// MapResponse lists the markers of the matching listings.
type MapResponse struct {
	Markers []Marker `json:"markers"`
}

// CatalogResponse lists the values offered by the filter controls.
type CatalogResponse struct {
	PropertyTypes []string `json:"propertyTypes"`
	Features      []string `json:"features"`
	SortKeys      []string `json:"sortKeys"`
}
