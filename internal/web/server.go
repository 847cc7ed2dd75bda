package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/subshift/subshift/pkg/cache"
)

// Server is the HTTP front of the migration service.
type Server struct {
	Address string
	server  *http.Server
	router  *chi.Mux

	migrator Migrator
	listings ListingAPI
	cache    *cache.Manager // optional, nil disables listing caching
	validate *validator.Validate
	logger   zerolog.Logger
}

// New constructs the HTTP server and registers all routes. The cache
// manager may be nil when no Redis is configured.
func New(address string, migrator Migrator, listings ListingAPI, cacheManager *cache.Manager, logger zerolog.Logger) *Server {
	router := chi.NewMux()
	srv := &Server{
		Address:  address,
		router:   router,
		migrator: migrator,
		listings: listings,
		cache:    cacheManager,
		validate: validator.New(),
		logger:   logger.With().Str("component", "web").Logger(),
	}
	srv.server = &http.Server{
		Addr:              address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srv.setupRoutes()

	return srv
}

// Start runs the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.Address).Msg("Server starting")
	return s.server.ListenAndServe()
}

// Shutdown stops the HTTP server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Post("/api/migrate", s.handleMigrate)
	s.router.Post("/api/migrate-custom", s.handleMigrateCustom)
	s.router.Post("/api/verify-cookie", s.handleVerifyCookie)
	s.router.Post("/api/account-counts", s.handleAccountCounts)
	s.router.Post("/api/subreddits", s.handleSubreddits)
	s.router.Post("/api/saved-posts", s.handleSavedPosts)
}
