// Package api serves the optional HTTP status and preview endpoints for
// a running cloak session.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Sri-Ramapriyan/Invisible-cloak/internal/logger"
	"github.com/Sri-Ramapriyan/Invisible-cloak/internal/output"
	"github.com/Sri-Ramapriyan/Invisible-cloak/internal/session"
	"github.com/gorilla/mux"
)

// StatusSource reports the state of the running session.
type StatusSource interface {
	Status() session.Status
}

// Server represents the HTTP status/preview server
type Server struct {
	router *mux.Router
	status StatusSource
	stream *output.MJPEG
}

// NewServer creates a new status server. stream may be nil when the
// MJPEG preview is disabled.
func NewServer(status StatusSource, stream *output.MJPEG) *Server {
	s := &Server{
		router: mux.NewRouter(),
		status: status,
		stream: stream,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	if s.stream != nil {
		s.router.HandleFunc("/stream", s.stream.Handler()).Methods("GET")
	}
	s.router.HandleFunc("/", s.handleIndex).Methods("GET")
}

// Start starts the HTTP server. It blocks, so run it in its own
// goroutine; the session loop never waits on it.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logger.WithComponent("api").Info().
		Str("addr", addr).
		Msg("Status server listening")
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.status.Status())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>Invisible Cloak</title></head>
<body style="background:#111;color:#eee;font-family:sans-serif;text-align:center">
<h1>Invisible Cloak</h1>
<img src="/stream" alt="preview stream"/>
<p><a style="color:#9cf" href="/api/status">status</a></p>
</body>
</html>`)
}
