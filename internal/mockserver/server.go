// Package mockserver is a local stand-in for the MIT key-value service
// so the load drivers can be exercised without a real deployment. It
// mirrors the service's endpoint semantics: POST /insert and /update
// with {"id", "value"} bodies, GET /get?id= with 404 for missing
// records, GET /health, and Prometheus metrics on /metrics.
package mockserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type Server struct {
	mu      sync.RWMutex
	records map[string]json.RawMessage

	log      zerolog.Logger
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	stored   prometheus.Gauge
}

func New() *Server {
	reg := prometheus.NewRegistry()

	s := &Server{
		records:  make(map[string]json.RawMessage),
		log:      zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel).With().Timestamp().Str("component", "mockserver").Logger(),
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mitload_mock_http_requests_total",
			Help: "Total number of HTTP requests handled by the mock service",
		}, []string{"endpoint", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mitload_mock_http_request_duration_seconds",
			Help:    "Request handling duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		stored: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mitload_mock_records",
			Help: "Number of records currently stored",
		}),
	}
	reg.MustRegister(s.requests, s.duration, s.stored)
	return s
}

// Len reports the number of stored records.
func (s *Server) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.instrument("/health", s.handleHealth))
	mux.HandleFunc("/insert", s.instrument("/insert", s.handleInsert))
	mux.HandleFunc("/update", s.instrument("/update", s.handleUpdate))
	mux.HandleFunc("/get", s.instrument("/get", s.handleGet))
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return mux
}

// Start serves until the process exits.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.log.Info().Str("addr", addr).Msg("mock service listening")
	fmt.Printf("Mock MIT service running on http://localhost%s\n", addr)
	fmt.Println("   Endpoints: /health, /insert, /update, /get, /metrics")
	return http.ListenAndServe(addr, s.Handler())
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		elapsed := time.Since(start)

		s.requests.WithLabelValues(endpoint, strconv.Itoa(rec.status)).Inc()
		s.duration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
		s.log.Debug().
			Str("method", r.Method).
			Str("endpoint", endpoint).
			Int("status", rec.status).
			Dur("elapsed", elapsed).
			Msg("request")
	}
}

type writeRequest struct {
	ID    string          `json:"id"`
	Value json.RawMessage `json:"value"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "mitload-mock",
	})
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeWrite(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	s.records[req.ID] = req.Value
	s.stored.Set(float64(len(s.records)))
	s.mu.Unlock()

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Record inserted successfully",
	})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeWrite(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	_, exists := s.records[req.ID]
	if exists {
		s.records[req.ID] = req.Value
	}
	s.mu.Unlock()

	if !exists {
		s.writeError(w, http.StatusNotFound, "Record not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "Record updated successfully",
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id := r.URL.Query().Get("id")
	if strings.TrimSpace(id) == "" {
		s.writeError(w, http.StatusBadRequest, "ID parameter is required")
		return
	}

	s.mu.RLock()
	value, exists := s.records[id]
	s.mu.RUnlock()

	if !exists {
		s.writeError(w, http.StatusNotFound, "Record not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"id":    id,
		"value": value,
	})
}

func (s *Server) decodeWrite(w http.ResponseWriter, r *http.Request) (writeRequest, bool) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return writeRequest{}, false
	}

	var req writeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return writeRequest{}, false
	}
	if strings.TrimSpace(req.ID) == "" {
		s.writeError(w, http.StatusBadRequest, "ID cannot be empty")
		return writeRequest{}, false
	}
	if len(req.Value) == 0 {
		s.writeError(w, http.StatusBadRequest, "Value cannot be empty")
		return writeRequest{}, false
	}
	return req, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]any{"error": msg})
}
