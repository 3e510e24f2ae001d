package status

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"photo-catalog/internal/logging"
	"photo-catalog/internal/progress"
)

// Server exposes the importer's state over local HTTP. The progress file
// stays the canonical cross-process contract; this endpoint is a
// convenience for supervisors and scrapers.
type Server struct {
	srv      *http.Server
	reporter *progress.Reporter
}

// NewServer builds a status server listening on the given port.
func NewServer(port string, reporter *progress.Reporter) *Server {
	s := &Server{reporter: reporter}

	r := mux.NewRouter()
	r.HandleFunc("/progress", s.handleProgress).Methods("GET")
	r.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	s.srv = &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the underlying HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start runs the server until Shutdown. Always returns a non-nil error;
// http.ErrServerClosed after a clean shutdown.
func (s *Server) Start() error {
	logging.Info("Status server listening on %s", s.srv.Addr)
	return s.srv.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// handleProgress serves the current progress file contents. The payload
// is identical to the file so callers can switch between the two freely.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	p, err := s.reporter.Read()
	if err != nil {
		logging.Error("Failed to read progress: %v", err)
		http.Error(w, "failed to read progress", http.StatusInternalServerError)
		return
	}
	if p == nil {
		http.Error(w, "no import has run yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(p); err != nil {
		logging.Error("Failed to encode progress response: %v", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
