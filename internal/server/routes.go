package server

import "net/http"

// setupRoutes configures the HTTP routes. This core exposes a single
// read-only surface: a health endpoint reporting index readiness,
// transport connectivity, and in-process indexing metrics.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/health", s.handleHealth)
	return mux
}
