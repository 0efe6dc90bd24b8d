package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/kitshelf/internal/auth"
	"github.com/erazemk/kitshelf/internal/metric"
	"github.com/erazemk/kitshelf/internal/store"
	"github.com/erazemk/kitshelf/internal/upload"
)

// Deps holds everything the handlers need.
type Deps struct {
	DB       *sql.DB
	Blobs    *store.BlobStore
	Uploader *upload.Orchestrator
	Verifier auth.Verifier
	Logger   *slog.Logger

	// Metrics is optional; nil disables /metrics and request metrics.
	Metrics *metric.Registry
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	kitsHandler := &KitsHandler{DB: d.DB, Blobs: d.Blobs}
	imagesHandler := &ImagesHandler{DB: d.DB, Blobs: d.Blobs, Uploader: d.Uploader}
	statsHandler := &StatsHandler{DB: d.DB}
	mediaHandler := &MediaHandler{Blobs: d.Blobs}

	authMW := AuthMiddleware(d.Verifier)

	// Kits of the authenticated user.
	mux.Handle("GET /api/kits", authMW(http.HandlerFunc(kitsHandler.List)))
	mux.Handle("POST /api/kits", authMW(http.HandlerFunc(kitsHandler.Create)))
	mux.Handle("GET /api/kits/{id}", authMW(http.HandlerFunc(kitsHandler.Get)))
	mux.Handle("PUT /api/kits/{id}", authMW(http.HandlerFunc(kitsHandler.Update)))
	mux.Handle("DELETE /api/kits/{id}", authMW(http.HandlerFunc(kitsHandler.Delete)))

	// Kit images.
	mux.Handle("PUT /api/kits/{id}/image", authMW(http.HandlerFunc(imagesHandler.Upload)))
	mux.Handle("DELETE /api/kits/{id}/image", authMW(http.HandlerFunc(imagesHandler.Delete)))

	mux.Handle("GET /api/stats", authMW(http.HandlerFunc(statsHandler.Get)))

	// Public: stored images and metrics.
	mux.HandleFunc("GET /media/{path...}", mediaHandler.Get)

	var httpMetrics *metric.HTTPMetrics
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics.Handler())
		httpMetrics = d.Metrics.HTTP()
	}

	return LoggingMiddleware(d.Logger, httpMetrics)(mux)
}
