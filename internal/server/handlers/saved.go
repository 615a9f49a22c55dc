// Handles the saved listings.

package handlers

import (
	"context"
	"log/slog"

	"github.com/maruel/propertyhub/internal/listing"
	"github.com/maruel/propertyhub/internal/server/dto"
)

// SavedHandler serves the saved listing endpoints.
type SavedHandler struct {
	browser *listing.Browser
}

// NewSavedHandler creates a new saved handler.
func NewSavedHandler(b *listing.Browser) *SavedHandler {
	return &SavedHandler{browser: b}
}

// List returns the saved listings that still exist.
func (h *SavedHandler) List(ctx context.Context, req *dto.SavedListRequest) (*dto.SavedListResponse, error) {
	v, err := h.browser.SavedView(ctx)
	if err != nil {
		return nil, apiError(err, "saved listing")
	}
	return &dto.SavedListResponse{
		Entries:    savedEntriesToDTO(v.Entries),
		Properties: propertiesToDTO(v.Properties),
		Count:      v.Count,
	}, nil
}

// Save marks a listing as saved. Saving twice is a no-op.
func (h *SavedHandler) Save(ctx context.Context, req *dto.SavedRequest) (*dto.SavedStateResponse, error) {
	v, err := h.browser.Save(ctx, req.PropertyID)
	if err != nil {
		return nil, apiError(err, "listing")
	}
	slog.InfoContext(ctx, "Listing saved", "propertyID", req.PropertyID)
	return savedState(req.PropertyID, v), nil
}

// Remove clears the saved state of a listing.
func (h *SavedHandler) Remove(ctx context.Context, req *dto.SavedRequest) (*dto.SavedStateResponse, error) {
	v, err := h.browser.Unsave(ctx, req.PropertyID)
	if err != nil {
		return nil, apiError(err, "saved listing")
	}
	slog.InfoContext(ctx, "Listing unsaved", "propertyID", req.PropertyID)
	return savedState(req.PropertyID, v), nil
}

// Toggle flips the saved state of a listing.
func (h *SavedHandler) Toggle(ctx context.Context, req *dto.SavedRequest) (*dto.SavedStateResponse, error) {
	v, err := h.browser.Toggle(ctx, req.PropertyID)
	if err != nil {
		return nil, apiError(err, "listing")
	}
	return savedState(req.PropertyID, v), nil
}
