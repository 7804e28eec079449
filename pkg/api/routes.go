package api

import (
	"net/http"
	"strings"

	"github.com/reqlab/reqlab/pkg/ratelimit"
)

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.registry != nil {
		mux.Handle("GET /metrics", s.registry.Handler())
	}

	// cURL interoperability
	mux.HandleFunc("POST /api/curl/format", s.handleCurlFormat)
	mux.HandleFunc("POST /api/curl/parse", s.handleCurlParse)
	mux.HandleFunc("POST /api/curl/prettify", s.handleCurlPrettify)

	// Code snippets
	mux.HandleFunc("GET /api/snippets", s.handleListTargets)
	mux.HandleFunc("POST /api/snippets/{target}", s.handleGenerateSnippet)

	// Request execution
	limit := ratelimit.Middleware(s.limiter, s.clientKey)
	mux.Handle("POST /api/proxy", limit(http.HandlerFunc(s.handleProxy)))

	// Sharing (public)
	mux.HandleFunc("POST /api/share", s.handleCreateShare)
	mux.HandleFunc("GET /api/share/{id}", s.handleGetShare)

	// Saved requests (per user)
	mux.HandleFunc("GET /api/requests", s.handleListRequests)
	mux.HandleFunc("POST /api/requests", s.handleSaveRequest)
	mux.HandleFunc("GET /api/requests/{id}", s.handleGetRequest)
	mux.HandleFunc("DELETE /api/requests/{id}", s.handleDeleteRequest)
	mux.HandleFunc("GET /api/requests/{id}/snippets/{target}", s.handleSavedRequestSnippet)

	// Collections (per user)
	mux.HandleFunc("GET /api/collections", s.handleListCollections)
	mux.HandleFunc("POST /api/collections", s.handleCreateCollection)
	mux.HandleFunc("GET /api/collections/{id}", s.handleGetCollection)
	mux.HandleFunc("DELETE /api/collections/{id}", s.handleDeleteCollection)
	mux.HandleFunc("POST /api/collections/{id}/requests", s.handleAddToCollection)
	mux.HandleFunc("DELETE /api/collections/{id}/requests/{requestId}", s.handleRemoveFromCollection)

	// History (per user)
	mux.HandleFunc("GET /api/history", s.handleListHistory)
}

// clientKey identifies the caller for rate limiting.
func (s *Server) clientKey(r *http.Request) string {
	if userID := strings.TrimSpace(r.Header.Get(UserHeader)); userID != "" {
		return "user:" + userID
	}
	return "ip:" + s.limiter.ClientIP(r)
}
