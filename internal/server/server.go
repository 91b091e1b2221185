package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/oilfield-ai/drillquery/internal/auth"
	"github.com/oilfield-ai/drillquery/internal/ctxutil"
	"github.com/oilfield-ai/drillquery/internal/ratelimit"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the drillquery HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	logger     *slog.Logger
}

// Handler returns the root HTTP handler for use in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServerConfig holds all dependencies and configuration for creating a
// Server. JWTMgr and Limiter are optional: a nil JWTMgr rejects bearer
// tokens, a nil Limiter disables rate limiting.
type ServerConfig struct {
	MCPServer *mcpserver.MCPServer
	Store     Pinger
	Logger    *slog.Logger

	JWTMgr               *auth.JWTManager
	TrustIdentityHeaders bool
	Limiter              ratelimit.Limiter

	Port                int
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	Version             string
	MaxRequestBodyBytes int64
}

// New creates a new HTTP server with all routes configured.
func New(cfg ServerConfig) *Server {
	h := &Handlers{store: cfg.Store, version: cfg.Version, startedAt: time.Now()}

	mux := http.NewServeMux()

	// Health (no identity, no rate limit).
	mux.HandleFunc("GET /health", h.HandleHealth)

	// MCP transports. The caller resolved by the identity middleware is
	// carried into every tool call through the request context.
	rl := ratelimit.Middleware(cfg.Limiter, ratelimit.CallerKey, cfg.Logger)
	if cfg.MCPServer != nil {
		streamable := mcpserver.NewStreamableHTTPServer(cfg.MCPServer,
			mcpserver.WithEndpointPath("/mcp"),
			mcpserver.WithHTTPContextFunc(callerContext),
		)
		mux.Handle("/mcp", rl(streamable))

		sse := mcpserver.NewSSEServer(cfg.MCPServer,
			mcpserver.WithSSEContextFunc(callerContext),
		)
		mux.Handle("GET /sse", streamingResponse(sse))
		mux.Handle("POST /message", rl(sse))
	}

	// Middleware chain (outermost executes first):
	// request ID → security headers → tracing → logging → identity → body limit → recovery → handler.
	var handler http.Handler = mux
	handler = recoveryMiddleware(cfg.Logger, handler)
	handler = bodyLimitMiddleware(cfg.MaxRequestBodyBytes, handler)
	handler = identityMiddleware(cfg.JWTMgr, cfg.TrustIdentityHeaders, cfg.Logger, handler)
	handler = loggingMiddleware(cfg.Logger, handler)
	handler = tracingMiddleware(handler)
	handler = securityHeadersMiddleware(handler)
	handler = requestIDMiddleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		handler: handler,
		logger:  cfg.Logger,
	}
}

// callerContext copies the resolved caller and request id from the HTTP
// request into the context mcp-go hands to tool handlers.
func callerContext(ctx context.Context, r *http.Request) context.Context {
	ctx = ctxutil.WithCaller(ctx, ctxutil.CallerFromContext(r.Context()))
	if id := ctxutil.RequestIDFromContext(r.Context()); id != "" {
		ctx = ctxutil.WithRequestID(ctx, id)
	}
	return ctx
}

// streamingResponse lifts the server write deadline for long-lived SSE
// streams.
func streamingResponse(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})
		next.ServeHTTP(w, r)
	})
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
