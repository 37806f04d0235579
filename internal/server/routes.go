package server

import (
	"github.com/modhearth/modhearth/internal/server/handlers"
)

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	if s.health != nil {
		s.router.Get("/health", s.health.Health)
		s.router.Get("/health/live", s.health.Liveness)
		s.router.Get("/health/ready", s.health.Readiness)
	}

	s.router.Get("/version", handlers.VersionHandler)

	if s.mods != nil {
		s.router.Get("/api/v1/mods/search", s.handleSearch)
		s.router.Get("/api/v1/mods/{id}", s.handleGetMod)
		s.router.Get("/api/v1/categories", s.handleCategories)
	}

	if s.rateLimits != nil {
		s.router.Get("/api/v1/ratelimit", s.handleRateLimits)
	}
}
