package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// MCPHandler handles MCP method dispatch.
type MCPHandler interface {
	Handle(ctx context.Context, method string, params json.RawMessage) (any, error)
}

// Options configures the HTTP router.
type Options struct {
	// Handler serves POST /rpc.
	Handler MCPHandler
	// MCP is mounted at /mcp when set, typically the streamable MCP handler.
	MCP http.Handler
	// Metrics is served at GET /metrics when set.
	Metrics http.Handler
	// AuthToken protects /rpc and /mcp when non-empty.
	AuthToken string
	Logger    *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	handler MCPHandler
	logger  *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(opts Options) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	srv := &Server{handler: opts.Handler, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", srv.handleHealth)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Group(func(r chi.Router) {
		if opts.AuthToken != "" {
			r.Use(AuthMiddleware(opts.AuthToken))
		}
		r.Use(SessionMiddleware)

		if opts.Handler != nil {
			r.Post("/rpc", srv.handleRPC)
		}
		if opts.MCP != nil {
			r.Handle("/mcp", opts.MCP)
			r.Handle("/mcp/*", opts.MCP)
		}
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r.Body)
	if err != nil {
		code := ErrInvalidReq
		if errors.Is(err, errParse) {
			code = ErrParseCode
		}
		WriteError(w, nil, code, err.Error(), nil)
		return
	}

	sessionID, _ := SessionIDFromContext(r.Context())
	start := time.Now()
	result, err := s.handler.Handle(r.Context(), req.Method, req.Params)
	if err != nil {
		rpcErr := errorFor(err)
		s.logger.Debug("rpc failed", "method", req.Method, "session_id", sessionID, "code", rpcErr.Code, "error", err)
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	s.logger.Debug("rpc handled", "method", req.Method, "session_id", sessionID, "elapsed", time.Since(start))

	WriteResult(w, req.ID, result)
}
