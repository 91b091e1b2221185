package ctxutil_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oilfield-ai/drillquery/internal/ctxutil"
	"github.com/oilfield-ai/drillquery/internal/model"
)

func TestCallerRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, model.GuestCaller(), ctxutil.CallerFromContext(ctx))

	c := model.Caller{Role: "viewer", UserID: "v1", Email: "v1@oilfield.example"}
	assert.Equal(t, c, ctxutil.CallerFromContext(ctxutil.WithCaller(ctx, c)))
}

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ctxutil.RequestIDFromContext(ctx))
	assert.Equal(t, "req-1", ctxutil.RequestIDFromContext(ctxutil.WithRequestID(ctx, "req-1")))
}
