// Package httpapi exposes the task core over a thin JSON HTTP surface. The
// caller's identity arrives in the X-User-ID header, supplied by the
// authentication layer in front of this service.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

const (
	// HTTP headers
	HeaderContentType = "Content-Type"
	HeaderUserID      = "X-User-ID"

	// MIME types
	MimeTypeJSON     = "application/json; charset=utf-8"
	MimeTypeCalendar = "text/calendar; charset=utf-8"
)

// Router dispatches the JSON API and the calendar feed.
type Router struct {
	service Service
	logger  *slog.Logger
	mux     *http.ServeMux
}

// NewRouter creates a router around the task service.
func NewRouter(service Service, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{service: service, logger: logger, mux: http.NewServeMux()}

	r.mux.HandleFunc("POST /tasks", r.handleCreateTask)
	r.mux.HandleFunc("POST /tasks/parsed", r.handleCreateParsed)
	r.mux.HandleFunc("GET /tasks/{id}", r.handleGetTask)
	r.mux.HandleFunc("PUT /tasks/{id}", r.handleUpdateTask)
	r.mux.HandleFunc("DELETE /tasks/{id}", r.handleDeleteTask)
	r.mux.HandleFunc("POST /tasks/{id}/complete", r.handleComplete)
	r.mux.HandleFunc("POST /tasks/{id}/uncomplete", r.handleUncomplete)
	r.mux.HandleFunc("GET /tasks/{id}/history", r.handleHistory)
	r.mux.HandleFunc("GET /upcoming", r.handleUpcoming)
	r.mux.HandleFunc("GET /upcoming.ics", r.handleUpcomingICS)
	r.mux.HandleFunc("GET /summary", r.handleSummary)
	r.mux.HandleFunc("GET /projects", r.handleListProjects)
	r.mux.HandleFunc("POST /projects", r.handleCreateProject)
	r.mux.HandleFunc("DELETE /projects/{id}", r.handleDeleteProject)

	return r
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.logger.Info("received request",
		"method", req.Method,
		"path", req.URL.Path,
		"remote_addr", req.RemoteAddr)
	r.mux.ServeHTTP(w, req)
}

// userID extracts the authenticated user, writing a 401 when absent.
func (r *Router) userID(w http.ResponseWriter, req *http.Request) (string, bool) {
	id := req.Header.Get(HeaderUserID)
	if id == "" {
		r.writeError(w, http.StatusUnauthorized, "missing "+HeaderUserID+" header")
		return "", false
	}
	return id, true
}

func (r *Router) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(HeaderContentType, MimeTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		r.logger.Error("failed to encode response", "error", err)
	}
}

func (r *Router) writeError(w http.ResponseWriter, status int, message string) {
	r.writeJSON(w, status, map[string]string{"error": message})
}
