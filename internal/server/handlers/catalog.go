package handlers

import (
	"context"
	"slices"

	"github.com/maruel/propertyhub/internal/listing"
	"github.com/maruel/propertyhub/internal/server/dto"
)

// CatalogHandler serves the values of the filter controls.
type CatalogHandler struct{}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler() *CatalogHandler {
	return &CatalogHandler{}
}

// Catalog lists the property types, features and sort keys.
func (h *CatalogHandler) Catalog(ctx context.Context, req *dto.CatalogRequest) (*dto.CatalogResponse, error) {
	keys := make([]string, len(listing.SortKeys))
	for i, k := range listing.SortKeys {
		keys[i] = string(k)
	}
	return &dto.CatalogResponse{
		PropertyTypes: slices.Clone(listing.PropertyTypes),
		Features:      slices.Clone(listing.Features),
		SortKeys:      keys,
	}, nil
}
