package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/leapstack-labs/queryconsole/pkg/core"
)

const maxBodyBytes = 1 << 20

// Backend is the service exposed over JSON-RPC.
type Backend interface {
	GetInfo(ctx context.Context) (*core.DevInfo, error)
	NumberOfPersistenceUnits(ctx context.Context) int
	NumberOfEntityTypes(ctx context.Context) int
	NumberOfNamedQueries(ctx context.Context) int
	ExecuteQuery(ctx context.Context, req core.QueryRequest) *core.DataSet
	UpdateProperty(ctx context.Context, name, value string) error
	AllowQueries(ctx context.Context) bool
}

// Server handles JSON-RPC requests over HTTP POST.
type Server struct {
	backend Backend
	logger  *slog.Logger
}

// NewServer creates a JSON-RPC server for the backend.
// If logger is nil, a discard logger is used.
func NewServer(backend Backend, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{backend: backend, logger: logger}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeResponse(w, errorResponse(nil, CodeParseError, "failed to read request"))
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeResponse(w, errorResponse(nil, CodeParseError, "Parse error"))
		return
	}
	if req.JSONRPC != Version || req.Method == "" {
		writeResponse(w, errorResponse(req.ID, CodeInvalidRequest, "Invalid Request"))
		return
	}

	resp := s.dispatch(r.Context(), &req)
	if len(req.ID) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeResponse(w, resp)
}

func (s *Server) dispatch(ctx context.Context, req *Request) *Response {
	s.logger.Debug("jsonrpc call", slog.String("method", req.Method))

	var result any
	switch req.Method {
	case MethodGetInfo:
		info, err := s.backend.GetInfo(ctx)
		if err != nil {
			return errorResponse(req.ID, CodeInternalError, err.Error())
		}
		result = info
	case MethodGetNumberOfPersistenceUnits:
		result = s.backend.NumberOfPersistenceUnits(ctx)
	case MethodGetNumberOfEntityTypes:
		result = s.backend.NumberOfEntityTypes(ctx)
	case MethodGetNumberOfNamedQueries:
		result = s.backend.NumberOfNamedQueries(ctx)
	case MethodGetAllowQueries:
		result = s.backend.AllowQueries(ctx)
	case MethodExecuteQuery:
		var p core.QueryRequest
		if err := decodeParams(req.Params, &p); err != nil {
			return errorResponse(req.ID, CodeInvalidParams, err.Error())
		}
		result = s.backend.ExecuteQuery(ctx, p)
	case MethodUpdateProperty:
		var p UpdatePropertyParams
		if err := decodeParams(req.Params, &p); err != nil {
			return errorResponse(req.ID, CodeInvalidParams, err.Error())
		}
		if err := s.backend.UpdateProperty(ctx, p.Name, p.Value); err != nil {
			return errorResponse(req.ID, CodeInternalError, err.Error())
		}
		result = true
	default:
		return errorResponse(req.ID, CodeMethodNotFound, "Method not found: "+req.Method)
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return errorResponse(req.ID, CodeInternalError, err.Error())
	}
	return &Response{JSONRPC: Version, Result: raw, ID: req.ID}
}

func decodeParams(raw json.RawMessage, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return errors.New("missing params")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func errorResponse(id json.RawMessage, code int, msg string) *Response {
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	return &Response{JSONRPC: Version, Error: &Error{Code: code, Message: msg}, ID: id}
}

func writeResponse(w http.ResponseWriter, resp *Response) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
