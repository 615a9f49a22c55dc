// Converts between listing domain types and API payloads.

package handlers

import (
	"github.com/maruel/propertyhub/internal/listing"
	"github.com/maruel/propertyhub/internal/server/dto"
)

func propertyToDTO(p *listing.Property) dto.Property {
	return dto.Property{
		ID:          p.ID,
		Title:       p.Title,
		Price:       p.Price,
		PriceLabel:  listing.FormatPrice(p.Price),
		Type:        p.Type,
		Bedrooms:    p.Bedrooms,
		Bathrooms:   p.Bathrooms,
		SquareFeet:  p.SquareFeet,
		Address:     p.Address,
		City:        p.City,
		State:       p.State,
		ZipCode:     p.ZipCode,
		Description: p.Description,
		Features:    nonNil(p.Features),
		Images:      nonNil(p.Images),
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		YearBuilt:   p.YearBuilt,
		ListingDate: p.ListingDate.String(),
		Status:      p.Status,
	}
}

func propertiesToDTO(props []listing.Property) []dto.Property {
	out := make([]dto.Property, len(props))
	for i := range props {
		out[i] = propertyToDTO(&props[i])
	}
	return out
}

func savedEntriesToDTO(entries []listing.SavedEntry) []dto.SavedEntry {
	out := make([]dto.SavedEntry, len(entries))
	for i, e := range entries {
		out[i] = dto.SavedEntry{ID: e.ID, PropertyID: e.PropertyID, SavedDate: e.SavedDate.String()}
	}
	return out
}

func markersToDTO(markers []listing.Marker) []dto.Marker {
	out := make([]dto.Marker, len(markers))
	for i, m := range markers {
		out[i] = dto.Marker(m)
	}
	return out
}

// searchFromRequest returns the filter and sort key of a search. An omitted
// sort key means newest first.
func searchFromRequest(req *dto.SearchRequest) (*listing.FilterSpec, listing.SortKey) {
	spec := &listing.FilterSpec{
		Query:         req.Query,
		PriceMin:      req.PriceMin,
		PriceMax:      req.PriceMax,
		PropertyTypes: req.Types,
		BedroomsMin:   req.BedroomsMin,
		BathroomsMin:  req.BathroomsMin,
		SquareFeetMin: req.SquareFeetMin,
		Features:      req.Features,
	}
	key := listing.SortKey(req.Sort)
	if key == "" {
		key = listing.SortNewest
	}
	return spec, key
}

func draftFromRequest(req *dto.CreatePropertyRequest) *listing.Draft {
	return &listing.Draft{
		Title:       req.Title,
		Price:       req.Price,
		Type:        req.Type,
		Bedrooms:    req.Bedrooms,
		Bathrooms:   req.Bathrooms,
		SquareFeet:  req.SquareFeet,
		Address:     req.Address,
		City:        req.City,
		State:       req.State,
		ZipCode:     req.ZipCode,
		Description: req.Description,
		Features:    nonNil(req.Features),
		Images:      nonNil(req.Images),
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		YearBuilt:   req.YearBuilt,
		Status:      req.Status,
	}
}

func updateFromRequest(req *dto.UpdatePropertyRequest) *listing.Update {
	return &listing.Update{
		Title:       req.Title,
		Price:       req.Price,
		Type:        req.Type,
		Bedrooms:    req.Bedrooms,
		Bathrooms:   req.Bathrooms,
		SquareFeet:  req.SquareFeet,
		Address:     req.Address,
		City:        req.City,
		State:       req.State,
		ZipCode:     req.ZipCode,
		Description: req.Description,
		Features:    req.Features,
		Images:      req.Images,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		YearBuilt:   req.YearBuilt,
		Status:      req.Status,
	}
}

// savedState reports the saved state of one listing. Count matches the saved
// view and skips entries whose listing was deleted.
func savedState(propertyID int64, v *listing.SavedView) *dto.SavedStateResponse {
	return &dto.SavedStateResponse{
		PropertyID: propertyID,
		IsSaved:    v.IsSaved(propertyID),
		SavedIDs:   v.IDs(),
		Count:      v.Count,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
