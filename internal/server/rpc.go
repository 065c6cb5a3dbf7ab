package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	apierrors "github.com/copyleftdev/vrpls/internal/errors"
	"github.com/copyleftdev/vrpls/internal/logging"
)

// JSON-RPC 2.0 error codes.
const (
	rpcParseError     = -32700
	rpcInvalidRequest = -32600
	rpcMethodNotFound = -32601
	rpcInvalidParams  = -32602
	rpcServerError    = -32000
)

type rpcRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      any               `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params,omitempty"`
}

type rpcError struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Data    *errorDetail `json:"data,omitempty"`
}

type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

// statusParams are the parameters of solve.status.
type statusParams struct {
	JobID string `json:"job_id"`
}

// handleJSONRPC handles JSON-RPC 2.0 requests. Methods:
//
//	solve.start  [SolveRequest]      -> JobView of the new job
//	solve.status [{"job_id": "..."}] -> JobView
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request rpcRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&request); err != nil {
		s.respondWithError(w, r, nil, &rpcError{Code: rpcParseError, Message: "Parse error"})
		return
	}

	// Validate JSON-RPC 2.0 request
	if request.JSONRPC != "2.0" {
		s.respondWithError(w, r, request.ID, &rpcError{Code: rpcInvalidRequest, Message: "Invalid Request"})
		return
	}

	var (
		result any
		err    error
	)
	switch request.Method {
	case "solve.start":
		result, err = s.rpcSolveStart(request.Params)
	case "solve.status":
		result, err = s.rpcSolveStatus(request.Params)
	default:
		s.respondWithError(w, r, request.ID, &rpcError{Code: rpcMethodNotFound, Message: "Method not found"})
		return
	}

	if err != nil {
		s.respondWithError(w, r, request.ID, toRPCError(err))
		return
	}

	writeJSON(w, http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: request.ID, Result: result})
}

// errInvalidParams marks parameter errors reported as -32602.
var errInvalidParams = errors.New("invalid params")

// firstParam decodes the single object parameter of a call into v.
func firstParam(params []json.RawMessage, v any) error {
	if len(params) != 1 {
		return fmt.Errorf("%w: expected exactly one object parameter, got %d", errInvalidParams, len(params))
	}
	dec := json.NewDecoder(bytes.NewReader(params[0]))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	return nil
}

// rpcSolveStart handles the solve.start method: it submits a job exactly like
// POST /api/v1/jobs.
func (s *Server) rpcSolveStart(params []json.RawMessage) (any, error) {
	var req SolveRequest
	if err := firstParam(params, &req); err != nil {
		return nil, err
	}
	t, err := s.prepare(req, s.logger)
	if err != nil {
		return nil, err
	}
	return s.submit(t)
}

// rpcSolveStatus handles the solve.status method.
func (s *Server) rpcSolveStatus(params []json.RawMessage) (any, error) {
	var p statusParams
	if err := firstParam(params, &p); err != nil {
		return nil, err
	}
	if p.JobID == "" {
		return nil, fmt.Errorf("%w: job_id is required", errInvalidParams)
	}
	return s.lookup(p.JobID)
}

func toRPCError(err error) *rpcError {
	if errors.Is(err, errInvalidParams) {
		return &rpcError{Code: rpcInvalidParams, Message: err.Error()}
	}
	d := detailOf(apierrors.From(err))
	return &rpcError{Code: rpcServerError, Message: "Server error", Data: &d}
}

// respondWithError sends a JSON-RPC 2.0 error response
func (s *Server) respondWithError(w http.ResponseWriter, r *http.Request, id any, rpcErr *rpcError) {
	logging.FromContext(r.Context()).Debug("rpc error",
		zap.Int("code", rpcErr.Code),
		zap.String("message", rpcErr.Message),
	)
	writeJSON(w, http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: id, Error: rpcErr})
}
