package server

import (
	"context"

	"github.com/oilfield-ai/drillquery/internal/model"
)

// callerHolder lets an outer middleware see the caller an inner one
// resolved.
type callerHolder struct {
	caller model.Caller
	set    bool
}

type holderKey struct{}

func withCallerHolder(ctx context.Context, h *callerHolder) context.Context {
	return context.WithValue(ctx, holderKey{}, h)
}

func callerHolderFrom(ctx context.Context) *callerHolder {
	h, _ := ctx.Value(holderKey{}).(*callerHolder)
	return h
}
