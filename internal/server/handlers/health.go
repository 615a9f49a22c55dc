package handlers

import (
	"context"

	"github.com/maruel/propertyhub/internal/server/dto"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	version string
	store   string
}

// NewHealthHandler creates a new health handler. store names the record
// store backend.
func NewHealthHandler(version, store string) *HealthHandler {
	return &HealthHandler{version: version, store: store}
}

// Health handles health check requests.
func (h *HealthHandler) Health(ctx context.Context, req *dto.HealthRequest) (*dto.HealthResponse, error) {
	return &dto.HealthResponse{Status: "ok", Version: h.version, Store: h.store}, nil
}
