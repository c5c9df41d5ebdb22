package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"NFAForge/internal/model"

	"github.com/gorilla/mux"
)

// Store accumulates sweep results in memory for the inspection API. It
// implements the model.ResultWriter interface so the sweep can feed it like
// any other sink.
type Store struct {
	mu      sync.RWMutex
	results []model.SweepResult
}

// NewStore creates an empty result store.
func NewStore() *Store {
	return &Store{}
}

// Write appends one sweep result.
func (s *Store) Write(result model.SweepResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

// Close is a no-op; the store is memory only.
func (s *Store) Close() error {
	return nil
}

// Results returns a snapshot of all accumulated rows.
func (s *Store) Results() []model.SweepResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.SweepResult, len(s.results))
	copy(out, s.results)
	return out
}

// Server serves the accumulated sweep results over HTTP.
type Server struct {
	store *Store
	srv   *http.Server
}

// NewServer creates the inspection server bound to addr.
func NewServer(addr string, store *Store) *Server {
	s := &Server{store: store}

	r := mux.NewRouter()
	r.HandleFunc("/api/v1/results", s.handleResults).Methods("GET")
	r.HandleFunc("/api/v1/results/latest", s.handleLatest).Methods("GET")
	r.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start launches the HTTP server in the background.
func (s *Server) Start() {
	go func() {
		log.Printf("API server listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("API server error: %v", err)
		}
	}()
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.store.Results())
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	results := s.store.Results()
	if len(results) == 0 {
		http.Error(w, "no results yet", http.StatusNotFound)
		return
	}
	writeJSON(w, results[len(results)-1])
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
