package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oilfield-ai/drillquery/internal/ctxutil"
	"github.com/oilfield-ai/drillquery/internal/model"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("backend down")
}
func (failingLimiter) Close() error { return nil }

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
}

func requestAs(c *model.Caller) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.RemoteAddr = "10.0.0.7:51234"
	ctx := ctxutil.WithRequestID(req.Context(), "req-1")
	if c != nil {
		ctx = ctxutil.WithCaller(ctx, *c)
	}
	return req.WithContext(ctx)
}

func TestCallerKey(t *testing.T) {
	assert.Equal(t, "user:u1001:engineer",
		CallerKey(requestAs(&model.Caller{Role: "Engineer", UserID: "u1001"})))
	assert.Equal(t, "ip:10.0.0.7", CallerKey(requestAs(nil)), "guests are keyed by address")
}

func TestMiddlewareRejectsOverLimit(t *testing.T) {
	m, _ := newClockedLimiter(1, 2)
	h := Middleware(m, CallerKey, testLogger)(okHandler())
	caller := &model.Caller{Role: "viewer", UserID: "v1"}

	for i := range 2 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestAs(caller))
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestAs(caller))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "rate_limited", body["error"])
	assert.Equal(t, "req-1", body["request_id"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, requestAs(&model.Caller{Role: "viewer", UserID: "v2"}))
	assert.Equal(t, http.StatusOK, rec.Code, "other callers are unaffected")
}

func TestMiddlewareFailsOpen(t *testing.T) {
	h := Middleware(failingLimiter{}, CallerKey, testLogger)(okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestAs(nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddlewareSkipsEmptyKeyAndNilLimiter(t *testing.T) {
	m, _ := newClockedLimiter(1, 1)
	skip := Middleware(m, func(*http.Request) string { return "" }, testLogger)(okHandler())
	for range 3 {
		rec := httptest.NewRecorder()
		skip.ServeHTTP(rec, requestAs(nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	Middleware(nil, CallerKey, testLogger)(okHandler()).ServeHTTP(rec, requestAs(nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
