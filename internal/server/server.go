package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/modhearth/modhearth/internal/core"
	"github.com/modhearth/modhearth/internal/core/registry"
	"github.com/modhearth/modhearth/internal/server/handlers"
	servermw "github.com/modhearth/modhearth/internal/server/middleware"
)

// ModService is the access-layer surface the API exposes.
type ModService interface {
	SearchMods(ctx context.Context, q registry.SearchQuery) (*core.SearchResult, error)
	GetMod(ctx context.Context, id int64) (*core.Mod, error)
	GetCategories(ctx context.Context) ([]core.Category, error)
}

// RateLimitSource reads the advisory rate-limit snapshots.
type RateLimitSource interface {
	ListRateLimitStatuses(ctx context.Context) ([]*core.RateLimitStatus, error)
}

// Options carries the server's collaborators.
type Options struct {
	Mods       ModService
	RateLimits RateLimitSource
	Health     *handlers.HealthManager
	Logger     *zap.Logger
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	host   string
	port   int

	mods       ModService
	rateLimits RateLimitSource
	health     *handlers.HealthManager
	logger     *zap.Logger
}

// New creates a new HTTP server instance
func New(host string, port int, opts Options) *Server {
	r := chi.NewRouter()

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// Middleware order: RequestID first for correlation, Recovery outermost.
	r.Use(chimw.RealIP)
	r.Use(servermw.RequestID)
	r.Use(servermw.Logging(logger))
	r.Use(servermw.Recovery(logger))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: errorDetail{
			Code:      "not_found",
			Message:   "the requested resource was not found",
			RequestID: servermw.GetRequestID(req.Context()),
		}})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: errorDetail{
			Code:      "method_not_allowed",
			Message:   "the requested method is not allowed for this resource",
			RequestID: servermw.GetRequestID(req.Context()),
		}})
	})

	s := &Server{
		router:     r,
		host:       host,
		port:       port,
		mods:       opts.Mods,
		rateLimits: opts.RateLimits,
		health:     opts.Health,
		logger:     logger,
	}

	s.registerRoutes()

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("Starting HTTP server",
		zap.String("host", s.host),
		zap.Int("port", s.port),
		zap.String("addr", addr))

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the underlying router for testing and instrumentation
func (s *Server) Handler() http.Handler {
	return s.router
}

// Port returns the server port for testing
func (s *Server) Port() int {
	return s.port
}
