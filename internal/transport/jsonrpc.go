package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ganot/epistles/internal/mcp"
)

// JSON-RPC 2.0 error codes.
const (
	ErrParseCode      = -32700
	ErrInvalidReq     = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternal       = -32603
	// ErrApplication carries a journal error; Data holds the mcp.APIError.
	ErrApplication = -32000
)

// MaxRequestBytes bounds a request body. Imports carry a whole document.
const MaxRequestBytes = 64 << 20

var (
	errParse          = errors.New("parse error")
	errInvalidRequest = errors.New("invalid request")
)

// Request represents a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id,omitempty"`
}

// Response represents a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
	ID      any    `json:"id,omitempty"`
}

// Error represents a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ParseRequest parses and validates a JSON-RPC request payload.
func ParseRequest(body io.Reader) (Request, error) {
	var req Request
	dec := json.NewDecoder(io.LimitReader(body, MaxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		return Request{}, fmt.Errorf("%w: %v", errParse, err)
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		return Request{}, errInvalidRequest
	}
	return req, nil
}

// errorFor converts a handler error into a JSON-RPC error object.
func errorFor(err error) *Error {
	apiErr := mcp.MapError(err)
	if apiErr == nil {
		return &Error{Code: ErrInternal, Message: err.Error()}
	}
	switch apiErr.Code {
	case "UNKNOWN_METHOD":
		return &Error{Code: ErrMethodNotFound, Message: apiErr.Message}
	case "INVALID_PARAMS":
		return &Error{Code: ErrInvalidParams, Message: apiErr.Message, Data: apiErr}
	default:
		return &Error{Code: ErrApplication, Message: apiErr.Message, Data: apiErr}
	}
}

// WriteResult writes a JSON-RPC success response.
func WriteResult(w http.ResponseWriter, id any, result any) {
	writeJSON(w, http.StatusOK, Response{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	})
}

// WriteError writes a JSON-RPC error response.
func WriteError(w http.ResponseWriter, id any, code int, message string, data any) {
	writeRPCError(w, id, &Error{Code: code, Message: message, Data: data})
}

func writeRPCError(w http.ResponseWriter, id any, rpcErr *Error) {
	writeJSON(w, http.StatusOK, Response{
		JSONRPC: "2.0",
		Error:   rpcErr,
		ID:      id,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
