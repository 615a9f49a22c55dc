// Handles listing search, detail and edits.

package handlers

import (
	"context"
	"log/slog"

	"github.com/maruel/propertyhub/internal/listing"
	"github.com/maruel/propertyhub/internal/server/dto"
)

// PropertyHandler serves the listing endpoints.
type PropertyHandler struct {
	browser *listing.Browser
}

// NewPropertyHandler creates a new property handler.
func NewPropertyHandler(b *listing.Browser) *PropertyHandler {
	return &PropertyHandler{browser: b}
}

// Search returns the listings matching the query parameters.
func (h *PropertyHandler) Search(ctx context.Context, req *dto.SearchRequest) (*dto.SearchResponse, error) {
	spec, key := searchFromRequest(req)
	res, err := h.browser.Search(ctx, spec, key)
	if err != nil {
		return nil, apiError(err, "listing")
	}
	return &dto.SearchResponse{
		Properties:    propertiesToDTO(res.Properties),
		SavedIDs:      res.SavedIDs,
		ActiveFilters: res.ActiveFilters,
		Total:         res.Total,
	}, nil
}

// Get returns one listing with its saved state.
func (h *PropertyHandler) Get(ctx context.Context, req *dto.PropertyIDRequest) (*dto.PropertyDetailResponse, error) {
	d, err := h.browser.Detail(ctx, req.ID)
	if err != nil {
		return nil, apiError(err, "listing")
	}
	return &dto.PropertyDetailResponse{
		Property:           propertyToDTO(&d.Property),
		IsSaved:            d.IsSaved,
		PricePerSquareFoot: d.PricePerSquareFoot,
	}, nil
}

// Create adds a listing.
func (h *PropertyHandler) Create(ctx context.Context, req *dto.CreatePropertyRequest) (*dto.Property, error) {
	p, err := h.browser.Properties.Create(ctx, draftFromRequest(req))
	if err != nil {
		return nil, apiError(err, "listing")
	}
	slog.InfoContext(ctx, "Listing created", "id", p.ID, "title", p.Title)
	out := propertyToDTO(p)
	return &out, nil
}

// Update changes some attributes of a listing.
func (h *PropertyHandler) Update(ctx context.Context, req *dto.UpdatePropertyRequest) (*dto.Property, error) {
	// The store reports an unknown id as a failed result; answer 404 instead.
	if _, err := h.browser.Properties.Get(ctx, req.ID); err != nil {
		return nil, apiError(err, "listing")
	}
	p, err := h.browser.Properties.Update(ctx, req.ID, updateFromRequest(req))
	if err != nil {
		return nil, apiError(err, "listing")
	}
	out := propertyToDTO(p)
	return &out, nil
}

// Delete removes a listing. Saved entries referring to it are kept and
// ignored by the saved view.
func (h *PropertyHandler) Delete(ctx context.Context, req *dto.PropertyIDRequest) (*dto.DeletePropertyResponse, error) {
	ok, err := h.browser.Properties.Delete(ctx, req.ID)
	if err != nil {
		return nil, apiError(err, "listing")
	}
	if !ok {
		return nil, dto.NotFound("listing")
	}
	slog.InfoContext(ctx, "Listing deleted", "id", req.ID)
	return &dto.DeletePropertyResponse{ID: req.ID}, nil
}
