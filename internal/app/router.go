package app

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bookshelf/internal/httpx"
	"bookshelf/internal/library"
	"bookshelf/internal/lookup"
	"bookshelf/internal/media"
)

// Handler returns the full HTTP surface wrapped in the middleware chain.
func (a *App) Handler() http.Handler {
	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", a.ready)
	router.Handle("GET /metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	lookupHandler := lookup.NewHTTPHandler(a.Lookup)
	router.HandleFunc("GET /v1/lookup", lookupHandler.Lookup)

	libraryHandler := library.NewHTTPHandler(a.Library)
	router.HandleFunc("GET /v1/books", httpx.RequireUser(libraryHandler.List))
	router.HandleFunc("POST /v1/books", httpx.RequireUser(libraryHandler.Create))
	router.HandleFunc("GET /v1/books/export", httpx.RequireUser(libraryHandler.Export))
	router.HandleFunc("PATCH /v1/books/{id}", httpx.RequireUser(libraryHandler.Update))
	router.HandleFunc("DELETE /v1/books/{id}", httpx.RequireUser(libraryHandler.Delete))
	router.HandleFunc("PUT /v1/books/{id}/comment", httpx.RequireUser(libraryHandler.SaveComment))
	router.HandleFunc("GET /v1/catalog/search", libraryHandler.SearchCatalog)
	router.HandleFunc("POST /v1/catalog", httpx.RequireUser(libraryHandler.AddToCatalog))

	mediaHandler := media.NewHTTPHandler(a.Media)
	router.HandleFunc("POST /v1/uploads/cover", httpx.RequireUser(mediaHandler.UploadCover))
	router.HandleFunc("POST /v1/uploads/comment-image", httpx.RequireUser(mediaHandler.UploadCommentImage))
	router.HandleFunc("POST /v1/uploads/export", httpx.RequireUser(mediaHandler.UploadExport))
	router.HandleFunc("DELETE /v1/uploads", httpx.RequireUser(mediaHandler.Delete))

	return httpx.Chain(router,
		httpx.RecoveryMiddleware(a.log),
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(a.log),
		httpx.SecurityHeadersMiddleware(a.cfg.EnableHSTS),
		httpx.CORSMiddleware(a.cfg.CORSOrigins),
		a.rateLimit.Middleware,
		httpx.RequestSizeLimitMiddleware(a.cfg.MaxBodyBytes),
		httpx.UserIdentityMiddleware,
	)
}

func (a *App) ready(w http.ResponseWriter, r *http.Request) {
	if a.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := a.db.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
