package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route
	mux.HandleFunc("/ws/query", s.app.WSHandler.HandleWebSocket)

	// API routes - Query
	mux.HandleFunc("/api/query", s.app.QueryHandler.QueryHandler)
	mux.HandleFunc("/api/courses", s.app.QueryHandler.CoursesHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	if s.app.Config.Metrics.Enabled {
		mux.Handle(s.app.Config.Metrics.Path, s.app.Metrics.Handler())
	}

	mux.HandleFunc("/", s.app.APIHandler.NotFoundHandler)

	return mux
}
