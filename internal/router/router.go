package router

import (
	"net/http"

	"burnt-bistro/internal/handler"
	"burnt-bistro/internal/middleware"

	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(menuHandler *handler.MenuHandler, logger zerolog.Logger) http.Handler {
	mux := newMux()

	mux.HandleFunc("GET /api/menu", menuHandler.Get)
	mux.HandleFunc("POST /api/menu", menuHandler.Add)
	mux.HandleFunc("DELETE /api/menu/{id}", menuHandler.Remove)
	mux.HandleFunc("GET /api/menu/stream", menuHandler.Stream)

	return wrap(mux, logger)
}

// NewUnconfigured creates a router for a session that cannot reach its
// store: health still answers, every API route returns the configuration
// error.
func NewUnconfigured(logger zerolog.Logger) http.Handler {
	mux := newMux()
	mux.Handle("/api/", handler.Unconfigured(logger))
	return wrap(mux, logger)
}

func newMux() *http.ServeMux {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	return mux
}

// wrap applies middleware in order: Recovery -> Logging -> CORS -> AdminMode
func wrap(mux *http.ServeMux, logger zerolog.Logger) http.Handler {
	var handler http.Handler = mux
	handler = middleware.AdminMode(logger)(handler)
	handler = middleware.CORS(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}
