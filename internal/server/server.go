// Package server exposes the solver over HTTP: a synchronous solve endpoint,
// asynchronous jobs and a JSON-RPC 2.0 endpoint for tool clients.
package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/copyleftdev/vrpls/internal/config"
	apierrors "github.com/copyleftdev/vrpls/internal/errors"
	"github.com/copyleftdev/vrpls/internal/logging"
	"github.com/copyleftdev/vrpls/internal/optimization"
	"github.com/copyleftdev/vrpls/internal/optimization/catalog"
)

// maxBodyBytes bounds request bodies; instances are dense matrices.
const maxBodyBytes = 32 << 20

// Server implements the HTTP and JSON-RPC server for the solver.
// It runs solves synchronously or as background jobs that can be polled.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	limiter *rate.Limiter
	slots   chan struct{}

	jobs     map[string]*Job
	finished []string     // ids of finished jobs, oldest first
	jobsMu   sync.RWMutex // Protects jobs, finished and closed
	closed   bool
	wg       sync.WaitGroup
}

// NewServer creates a new server instance with the given config and logger.
func NewServer(cfg *config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:     cfg,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(cfg.Solver.SubmitRate), cfg.Solver.SubmitBurst),
		slots:   make(chan struct{}, cfg.Solver.MaxJobs),
		jobs:    make(map[string]*Job),
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/components", s.handleComponents)
		r.Post("/solve", s.handleSolve)
		r.Post("/jobs", s.handleSubmitJob)
		r.Get("/jobs/{id}", s.handleJobStatus)
	})

	// JSON-RPC 2.0 endpoint
	r.Post("/rpc", s.handleJSONRPC)
}

// Close stops accepting jobs and waits for running ones to finish. Solves
// cannot be interrupted, so Close blocks for as long as the slowest job.
func (s *Server) Close() error {
	s.jobsMu.Lock()
	s.closed = true
	s.jobsMu.Unlock()

	s.wg.Wait()
	return nil
}

func (s *Server) handleComponents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"initializers":        catalog.Initializers(),
		"strategies":          catalog.Strategies(),
		"default_initializer": s.cfg.Solver.Initializer,
		"default_strategy":    s.cfg.Solver.Strategy,
	})
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Unassigned []int  `json:"unassigned,omitempty"`
}

func detailOf(e *apierrors.Error) errorDetail {
	d := errorDetail{Code: e.Code, Message: e.Detail()}
	var ce *optimization.ConstructionError
	if stderrors.As(e, &ce) {
		d.Unassigned = ce.Unassigned
	}
	return d
}

// writeError classifies err and writes it with the matching status.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := apierrors.From(err)
	if e.Status >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("request failed",
			zap.Error(err),
			zap.Strings("stack", e.Stack),
		)
	}
	writeJSON(w, e.Status, errorBody{Error: detailOf(e)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
