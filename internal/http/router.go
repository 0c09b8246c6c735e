package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"huginn/internal/handlers"
	"huginn/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	UploadService  service.UploadService
	SearchService  service.SearchService
	DB             handlers.Pinger
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	if deps.RequestTimeout > 0 {
		r.Use(middleware.Timeout(deps.RequestTimeout))
	}
	r.Use(CORS)

	r.Method(http.MethodPost, "/upload", handlers.NewUploadHandler(deps.UploadService, deps.MaxUploadBytes))
	r.Method(http.MethodGet, "/search", handlers.NewSearchHandler(deps.SearchService))
	r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(deps.DB))

	return r
}
