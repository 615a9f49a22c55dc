// Package server implements the HTTP server and routing logic.
package server

import (
	"net/http"

	"github.com/maruel/propertyhub/internal/config"
	"github.com/maruel/propertyhub/internal/listing"
	"github.com/maruel/propertyhub/internal/server/dto"
	"github.com/maruel/propertyhub/internal/server/handlers"
	"github.com/maruel/propertyhub/internal/server/ratelimit"
)

// Options configures NewRouter.
type Options struct {
	Browser *listing.Browser
	Config  *config.ServerConfig
	// Tiers throttles API clients. Nil disables rate limiting.
	Tiers     *ratelimit.Tiers
	Version   string
	StoreName string
	// Records, when set, is mounted under /records/ to expose the record
	// store to other instances.
	Records http.Handler
}

// NewRouter creates and configures the HTTP router.
func NewRouter(opts *Options) http.Handler {
	cfg := opts.Config
	tiers := opts.Tiers
	mux := http.NewServeMux()

	health := handlers.NewHealthHandler(opts.Version, opts.StoreName)
	props := handlers.NewPropertyHandler(opts.Browser)
	saved := handlers.NewSavedHandler(opts.Browser)
	mapview := handlers.NewMapHandler(opts.Browser)
	catalog := handlers.NewCatalogHandler()

	mux.Handle("GET /api/health", Wrap(health.Health, cfg, tiers))

	mux.Handle("GET /api/properties", Wrap(props.Search, cfg, tiers))
	mux.Handle("POST /api/properties", Wrap(props.Create, cfg, tiers))
	mux.Handle("GET /api/properties/{id}", Wrap(props.Get, cfg, tiers))
	mux.Handle("PATCH /api/properties/{id}", Wrap(props.Update, cfg, tiers))
	mux.Handle("DELETE /api/properties/{id}", Wrap(props.Delete, cfg, tiers))

	mux.Handle("GET /api/saved", Wrap(saved.List, cfg, tiers))
	mux.Handle("POST /api/saved/{propertyID}", Wrap(saved.Save, cfg, tiers))
	mux.Handle("DELETE /api/saved/{propertyID}", Wrap(saved.Remove, cfg, tiers))
	mux.Handle("POST /api/saved/{propertyID}/toggle", Wrap(saved.Toggle, cfg, tiers))

	mux.Handle("GET /api/map", Wrap(mapview.Markers, cfg, tiers))
	mux.Handle("GET /api/catalog", Wrap(catalog.Catalog, cfg, tiers))

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, dto.NotFound("route "+r.URL.Path))
	})

	if opts.Records != nil {
		mux.Handle("/records/", opts.Records)
	}
	return RequestLogger(mux)
}
