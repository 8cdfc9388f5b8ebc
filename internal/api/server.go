// Package api provides the HTTP API server and handlers for profilehue.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/profilehue/profilehue-server/internal/cache"
	"github.com/profilehue/profilehue-server/internal/http/response"
	"github.com/profilehue/profilehue-server/internal/ratelimit"
	"github.com/profilehue/profilehue-server/internal/service"
	"github.com/profilehue/profilehue-server/internal/store"
)

// Version is reported in the OpenAPI document.
const Version = "1.0.0"

// DocumentCounter reports the size of the search index.
type DocumentCounter interface {
	DocumentCount() (uint64, error)
}

// Services groups the services the handlers call.
type Services struct {
	Analyses    *service.AnalysisService
	Leaderboard *service.Leaderboard
}

// Options configures NewServer. Limiter, Cache and Index may be nil.
type Options struct {
	Services    *Services
	Store       store.Store
	Cache       cache.PaletteCache
	Index       DocumentCounter
	Limiter     *ratelimit.KeyedRateLimiter
	CORSOrigins []string
	Logger      *slog.Logger
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    store.Store
	cache    cache.PaletteCache
	index    DocumentCounter
	services *Services
	limiter  *ratelimit.KeyedRateLimiter
	router   *chi.Mux
	api      huma.API
	logger   *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		store:    opts.Store,
		cache:    opts.Cache,
		index:    opts.Index,
		services: opts.Services,
		limiter:  opts.Limiter,
		router:   chi.NewRouter(),
		logger:   logger,
	}

	s.setupMiddleware(opts.CORSOrigins)

	humaConfig := huma.DefaultConfig("profilehue API", Version)
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerAnalysisRoutes()
	s.registerLeaderboardRoutes()
	s.registerPaletteRoutes()

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "route not found", s.logger)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.MethodNotAllowed(w, "method not allowed", s.logger)
	})

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, mainly for OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(origins []string) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)

	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
}
