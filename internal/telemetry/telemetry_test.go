package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oilfield-ai/drillquery/internal/telemetry"
)

func TestInitWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := telemetry.Init(context.Background(), telemetry.Config{ServiceName: "drillquery"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestToolMetricsNeverPanics(t *testing.T) {
	m := telemetry.NewToolMetrics()
	m.Record(context.Background(), "search_wells", "guest", "ok", 3*time.Millisecond)

	var nilMetrics *telemetry.ToolMetrics
	nilMetrics.Record(context.Background(), "search_wells", "guest", "ok", time.Millisecond)
}
