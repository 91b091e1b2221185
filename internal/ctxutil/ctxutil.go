// Package ctxutil provides shared context key accessors.
//
// This package exists to break the circular dependency between server and mcp:
// server imports mcp for MCP server setup, and mcp needs to read the caller
// that server's identity middleware (or the stdio launcher) resolved. Both
// packages import ctxutil instead of each other.
package ctxutil

import (
	"context"

	"github.com/oilfield-ai/drillquery/internal/model"
)

type contextKey string

const (
	keyCaller    contextKey = "caller"
	keyRequestID contextKey = "request_id"
)

// WithCaller returns a new context carrying the given caller.
func WithCaller(ctx context.Context, caller model.Caller) context.Context {
	return context.WithValue(ctx, keyCaller, caller)
}

// CallerFromContext extracts the caller from the context. A context with
// no caller yields a guest.
func CallerFromContext(ctx context.Context) model.Caller {
	if v, ok := ctx.Value(keyCaller).(model.Caller); ok {
		return v
	}
	return model.GuestCaller()
}

// WithRequestID returns a new context carrying the request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

// RequestIDFromContext extracts the request id, or "" if none was set.
func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(keyRequestID).(string)
	return v
}
