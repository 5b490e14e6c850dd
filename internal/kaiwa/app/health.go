package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bdobrica/Kaiwa/common/version"
	"github.com/bdobrica/Kaiwa/internal/kaiwa/store"
)

// Server is the single HTTP listener of the process. It serves /health,
// /status, /metrics, and whatever routes are registered through Handle (the
// webhook routes).
type Server struct {
	addr      string
	status    statusProvider
	sinks     []string
	startedAt time.Time
	server    *http.Server
	mux       *http.ServeMux
}

// statusProvider is the minimal interface the server needs from the journal.
type statusProvider interface {
	Counts(ctx context.Context) (*store.Counts, error)
}

// healthResponse is returned by GET /health.
type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

// statusResponse is returned by GET /status.
type statusResponse struct {
	Status     string        `json:"status"`
	Version    string        `json:"version"`
	Commit     string        `json:"commit"`
	BuildTime  string        `json:"build_time"`
	StartedAt  time.Time     `json:"started_at"`
	UptimeSecs float64       `json:"uptime_seconds"`
	Sinks      []string      `json:"sinks"`
	Journal    *store.Counts `json:"journal,omitempty"`
}

// NewServer creates and configures the HTTP server (does not start it). sp
// may be nil when journaling is disabled.
func NewServer(addr string, sp statusProvider, sinks []string) *Server {
	mux := http.NewServeMux()
	s := &Server{
		addr:      addr,
		status:    sp,
		sinks:     sinks,
		startedAt: time.Now(),
		mux:       mux,
	}
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.Handle("GET /metrics", promhttp.Handler())
	return s
}

// ServeHTTP implements http.Handler so the server can be tested without a
// live network listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Handle registers a handler for the given pattern. Call it before Start.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
}

// Start begins listening in the background. It blocks until the listener is
// established and shuts the server down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) (net.Addr, error) {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, fmt.Errorf("http server: listen %s: %w", s.addr, err)
	}

	s.server = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("http server listening", "addr", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("http server stopped", "err", err)
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return ln.Addr(), nil
}

// Stop shuts down the HTTP server, waiting up to 5 seconds for in-flight
// requests.
func (s *Server) Stop() {
	if s.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		slog.Warn("http server shutdown error", "err", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: version.Version,
		Commit:  version.GitCommit,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Status:     "ok",
		Version:    version.Version,
		Commit:     version.GitCommit,
		BuildTime:  version.BuildTime,
		StartedAt:  s.startedAt,
		UptimeSecs: time.Since(s.startedAt).Seconds(),
		Sinks:      s.sinks,
	}
	if resp.Sinks == nil {
		resp.Sinks = []string{}
	}
	if s.status != nil {
		counts, err := s.status.Counts(r.Context())
		if err != nil {
			slog.Warn("status: journal counts unavailable", "err", err)
			resp.Status = "degraded"
		} else {
			resp.Journal = counts
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeJSON serialises v as JSON and writes it to w with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("http: failed to encode JSON response", "err", err)
	}
}
