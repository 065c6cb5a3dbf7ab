package server

import (
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	apierrors "github.com/copyleftdev/vrpls/internal/errors"
	"github.com/copyleftdev/vrpls/internal/instance"
	"github.com/copyleftdev/vrpls/internal/logging"
	"github.com/copyleftdev/vrpls/internal/metrics"
	"github.com/copyleftdev/vrpls/internal/optimization"
	"github.com/copyleftdev/vrpls/internal/optimization/catalog"
	"github.com/copyleftdev/vrpls/internal/vrp"
)

// SolveRequest is an instance plus the optional component names to solve it
// with. Empty names fall back to the configured defaults.
type SolveRequest struct {
	instance.Spec
	Initializer string `json:"initializer,omitempty"`
	Strategy    string `json:"strategy,omitempty"`
}

// RouteResult is one vehicle's route in a response.
type RouteResult struct {
	Vehicle string  `json:"vehicle"`
	Visits  []int   `json:"visits"`
	Load    float64 `json:"load"`
	Cost    float64 `json:"cost"`
}

// SolveResponse describes a converged solve.
type SolveResponse struct {
	Name         string                    `json:"name,omitempty"`
	Initializer  string                    `json:"initializer"`
	Strategy     string                    `json:"strategy"`
	Routes       []RouteResult             `json:"routes"`
	InitialCost  float64                   `json:"initial_cost"`
	Cost         float64                   `json:"cost"`
	Steps        int                       `json:"steps"`
	Improvements int                       `json:"improvements"`
	DurationMS   float64                   `json:"duration_ms"`
	History      []optimization.Evaluation `json:"history"`
}

// task is a decoded request ready to run.
type task struct {
	problem     *vrp.Problem
	solver      *optimization.Solver
	recorder    *optimization.Recorder
	initializer string
	strategy    string
}

// decodeRequest reads a SolveRequest from body.
func decodeRequest(body io.Reader) (SolveRequest, error) {
	var req SolveRequest
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, apierrors.BadRequest(err, "invalid request body")
	}
	return req, nil
}

// prepare builds the problem and solver for req. Structural checks are left
// to the solver so that they are reported the same way everywhere.
func (s *Server) prepare(req SolveRequest, logger *zap.Logger) (*task, error) {
	p, err := instance.FromSpec(req.Spec)
	if err != nil {
		return nil, apierrors.BadRequest(err, "invalid instance")
	}

	initName := req.Initializer
	if initName == "" {
		initName = s.cfg.Solver.Initializer
	}
	strategyName := req.Strategy
	if strategyName == "" {
		strategyName = s.cfg.Solver.Strategy
	}

	init, err := catalog.Initializer(initName)
	if err != nil {
		return nil, err
	}
	strategy, err := catalog.Strategy(strategyName)
	if err != nil {
		return nil, err
	}

	t := &task{
		problem:     p,
		recorder:    optimization.NewRecorder(),
		initializer: optimization.NameOf(init),
		strategy:    optimization.NameOf(strategy),
	}
	t.solver = optimization.NewSolver(init, strategy,
		optimization.WithLogger(logger.With(zap.String("instance", p.Name))),
		optimization.WithHook(t.recorder.Hook()),
		optimization.WithHook(metrics.StepHook(t.strategy)),
	)
	return t, nil
}

// run solves the task and records the outcome.
func (t *task) run() (*SolveResponse, error) {
	res, err := t.solver.Run(t.problem)
	metrics.ObserveSolve(t.initializer, t.strategy, res, err)
	if err != nil {
		return nil, err
	}
	return t.response(res), nil
}

func (t *task) response(res *optimization.Result) *SolveResponse {
	p := t.problem
	costs := p.CostMatrix()
	out := &SolveResponse{
		Name:         p.Name,
		Initializer:  t.initializer,
		Strategy:     t.strategy,
		Routes:       make([]RouteResult, len(res.Solution.Routes)),
		InitialCost:  res.InitialCost,
		Cost:         res.Cost,
		Steps:        res.Steps,
		Improvements: res.Improvements,
		DurationMS:   float64(res.Duration.Microseconds()) / 1000.0,
		History:      t.recorder.Evaluations(),
	}
	for i, r := range res.Solution.Routes {
		out.Routes[i] = RouteResult{
			Vehicle: p.Vehicles[i].ID,
			Visits:  append([]int{}, r.Visits...),
			Load:    r.Load(p),
			Cost:    r.Cost(costs),
		}
	}
	return out
}

// handleSolve handles POST /api/v1/solve: the instance is solved before the
// response is written.
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, err)
		return
	}

	logger := logging.FromContext(r.Context())
	t, err := s.prepare(req, logger)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := t.run()
	if err != nil {
		logger.Info("solve rejected", zap.Error(err))
		writeError(w, r, err)
		return
	}

	logger.Info("solve finished",
		zap.String("instance", resp.Name),
		zap.Float64("cost", resp.Cost),
		zap.Int("steps", resp.Steps),
		zap.Float64("duration_ms", resp.DurationMS),
	)
	writeJSON(w, http.StatusOK, resp)
}
