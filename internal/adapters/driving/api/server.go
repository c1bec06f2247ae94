// Package api provides the HTTP front end: a health check, the ask
// endpoint and index statistics, with the MCP server mounted at /mcp.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/custodia-labs/docpilot/internal/core/domain"
	"github.com/custodia-labs/docpilot/internal/core/ports/driving"
	"github.com/custodia-labs/docpilot/internal/logger"
)

// Detail messages returned with 503 responses.
const (
	DetailIndexNotBuilt = "Index not built, run ingestion first"
	DetailMaintenance   = "Index rebuild in progress, retry shortly"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Server routes HTTP requests to the answer service.
type Server struct {
	answers driving.AnswerService
	mcp     http.Handler
	router  *mux.Router
}

// Option configures a Server.
type Option func(*Server)

// WithMCP mounts an MCP handler under /mcp.
func WithMCP(h http.Handler) Option {
	return func(s *Server) {
		s.mcp = h
	}
}

// AskRequest is the body of POST /ask.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse is the reply of POST /ask.
type AskResponse struct {
	Answer string `json:"answer"`
}

// StatsResponse is the reply of GET /stats.
type StatsResponse struct {
	Chunks    int    `json:"chunks"`
	Dimension int    `json:"dim"`
	Type      string `json:"type"`
}

// ErrorResponse carries the failure detail.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// NewServer creates a server over answers.
func NewServer(answers driving.AnswerService, opts ...Option) *Server {
	s := &Server{answers: answers}
	for _, opt := range opts {
		opt(s)
	}

	r := mux.NewRouter()
	r.Use(cors)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ask", s.handleAsk).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	if s.mcp != nil {
		r.PathPrefix("/mcp").Handler(s.mcp)
	}
	s.router = r
	return s
}

// Handler returns the instrumented root handler.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "docpilot",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var req AskRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: "invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: "question is required"})
		return
	}

	answer, err := s.answers.Answer(r.Context(), req.Question)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AskResponse{Answer: answer})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.answers.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{Chunks: stats.Count, Dimension: stats.Dimension, Type: stats.Type})
}

// StatusFor maps a service error to an HTTP status and detail.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrIndexNotBuilt):
		return http.StatusServiceUnavailable, DetailIndexNotBuilt
	case errors.Is(err, domain.ErrMaintenanceInProgress):
		return http.StatusServiceUnavailable, DetailMaintenance
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, detail := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("Request failed: %v", err)
	}
	writeJSON(w, status, ErrorResponse{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Write response: %v", err)
	}
}

// cors allows browser clients, including MCP clients that need the
// session header.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "*")
		h.Set("Access-Control-Expose-Headers", "Mcp-Session-Id")
		next.ServeHTTP(w, r)
	})
}
