package handlers

import (
	"context"

	"github.com/maruel/propertyhub/internal/listing"
	"github.com/maruel/propertyhub/internal/server/dto"
)

// MapHandler serves the map markers.
type MapHandler struct {
	browser *listing.Browser
}

// NewMapHandler creates a new map handler.
func NewMapHandler(b *listing.Browser) *MapHandler {
	return &MapHandler{browser: b}
}

// Markers places the listings matching the search on the map grid.
func (h *MapHandler) Markers(ctx context.Context, req *dto.SearchRequest) (*dto.MapResponse, error) {
	spec, key := searchFromRequest(req)
	markers, err := h.browser.Markers(ctx, spec, key)
	if err != nil {
		return nil, apiError(err, "listing")
	}
	return &dto.MapResponse{Markers: markersToDTO(markers)}, nil
}
