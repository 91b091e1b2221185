package mcp

import (
	"context"
	"encoding/json"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oilfield-ai/drillquery/internal/authz"
	"github.com/oilfield-ai/drillquery/internal/ctxutil"
	"github.com/oilfield-ai/drillquery/internal/model"
	"github.com/oilfield-ai/drillquery/internal/service/dailyreport"
	"github.com/oilfield-ai/drillquery/internal/service/drilling"
	"github.com/oilfield-ai/drillquery/internal/storage"
	"github.com/oilfield-ai/drillquery/internal/testutil"
)

var (
	adminCaller    = model.Caller{Role: "admin", UserID: "a1", Email: "admin@oilfield.example"}
	engineerCaller = model.Caller{Role: "engineer", UserID: "e1", Email: "e1@oilfield.example"}
	viewerCaller   = model.Caller{Role: "viewer", UserID: "v1", Email: "v1@oilfield.example"}
	ownerCaller    = model.Caller{Role: "user", UserID: storage.DemoOwnerZhang, Email: "zhang@oilfield.example"}
)

// newTestServer builds a server over a fresh demo store.
func newTestServer(t *testing.T, devMode bool) *Server {
	t.Helper()
	store := testutil.NewDemoStore(t)
	logger := testutil.TestLogger()
	policy := authz.NewPolicy(authz.DefaultTable(), devMode, logger)
	svc := drilling.New(store, policy, logger, drilling.Options{Now: testutil.DemoClock})
	gate := dailyreport.New(store, policy, logger, dailyreport.Options{Now: testutil.DemoClock})
	return New(svc, gate, logger, "test")
}

func callerCtx(c model.Caller) context.Context {
	return ctxutil.WithCaller(context.Background(), c)
}

// handlers maps tool names to their unwrapped handlers so tests run the
// same capability check and result encoding the registered tools do.
func handlers(s *Server) map[string]toolFunc {
	return map[string]toolFunc{
		"lookup_terminology":          s.handleLookupTerminology,
		"plan_data_retrieval":         s.handlePlan,
		"search_wells":                s.handleSearchWells,
		"get_well_statistics":         s.handleWellStatistics,
		"get_well_summary":            s.handleWellSummary,
		"get_well_casing":             s.handleCasing,
		"get_daily_report":            s.handleDailyReport,
		"analyze_npt_events":          s.handleAnalyzeNPT,
		"compare_wells_overview":      s.handleCompareOverview,
		"compare_drilling_pace":       s.handleComparePace,
		"compare_npt_statistics":      s.handleCompareNPT,
		"get_period_drilling_summary": s.handlePeriodSummary,
		"get_block_period_summary":    s.handleBlockSummary,
		"track_mud_properties":        s.handleMudTrend,
		"whoami":                      s.handleWhoami,
		"list_role_permissions":       s.handleListRolePermissions,
	}
}

func invoke(t *testing.T, s *Server, ctx context.Context, name string, args map[string]any) *mcplib.CallToolResult {
	t.Helper()
	fn, ok := handlers(s)[name]
	require.True(t, ok, "no handler for %s", name)
	result, err := s.tool(name, fn)(ctx, mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func callTool(t *testing.T, s *Server, c model.Caller, name string, args map[string]any) *mcplib.CallToolResult {
	t.Helper()
	return invoke(t, s, callerCtx(c), name, args)
}

// parseToolText extracts the first TextContent text from a CallToolResult.
func parseToolText(t *testing.T, result *mcplib.CallToolResult) string {
	t.Helper()
	for _, c := range result.Content {
		if tc, ok := c.(mcplib.TextContent); ok {
			return tc.Text
		}
	}
	t.Fatal("no TextContent found in tool result")
	return ""
}

func decode(t *testing.T, result *mcplib.CallToolResult) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(parseToolText(t, result)), &m))
	return m
}

func TestEveryToolHasACapability(t *testing.T) {
	s := newTestServer(t, false)
	for name := range handlers(s) {
		assert.Contains(t, authz.ToolCapabilities, name)
	}
	assert.Len(t, handlers(s), len(authz.ToolCapabilities))
}

func TestLookupTerminology(t *testing.T) {
	s := newTestServer(t, false)

	res := callTool(t, s, model.GuestCaller(), "lookup_terminology", map[string]any{"term": "井漏"})
	require.False(t, res.IsError, parseToolText(t, res))
	exact := decode(t, res)["exact"].(map[string]any)
	assert.Equal(t, "Lost Circulation", exact["standard"])

	res = callTool(t, s, model.GuestCaller(), "lookup_terminology", map[string]any{"term": "quantum"})
	assert.True(t, res.IsError)
	assert.Equal(t, "not_found", decode(t, res)["kind"])
}

func TestSearchWellsTool(t *testing.T) {
	s := newTestServer(t, false)

	res := callTool(t, s, viewerCaller, "search_wells", map[string]any{})
	require.False(t, res.IsError)
	body := decode(t, res)
	assert.Equal(t, float64(2), body["total"])
	for _, w := range body["wells"].([]any) {
		assert.NotContains(t, w.(map[string]any), "owner_user_id", "owners are hidden from non-admins")
	}

	res = callTool(t, s, adminCaller, "search_wells", map[string]any{"status": "Active"})
	body = decode(t, res)
	assert.Equal(t, float64(3), body["total"])
	first := body["wells"].([]any)[0].(map[string]any)
	assert.Equal(t, "XY-009", first["id"])
	assert.Equal(t, storage.DemoOwnerWang, first["owner_user_id"])
}

func TestWellSummaryToolDeniesOtherWells(t *testing.T) {
	s := newTestServer(t, false)

	res := callTool(t, s, viewerCaller, "get_well_summary", map[string]any{"well_id": "中105"})
	require.True(t, res.IsError)
	body := decode(t, res)
	assert.Equal(t, "permission_denied", body["kind"])
	assert.Contains(t, body["message"], "ZT-105")

	res = callTool(t, s, ownerCaller, "get_well_summary", map[string]any{"well_id": "102井"})
	require.False(t, res.IsError, parseToolText(t, res))
	assert.Equal(t, "ZT-102", decode(t, res)["id"])
}

func TestWellStatisticsTool(t *testing.T) {
	s := newTestServer(t, false)

	res := callTool(t, s, viewerCaller, "get_well_statistics", map[string]any{"group_by": "status"})
	require.False(t, res.IsError, parseToolText(t, res))
	body := decode(t, res)
	assert.Equal(t, "status", body["group_by"])
	assert.Equal(t, float64(2), body["total"])
	assert.NotContains(t, parseToolText(t, res), "ZT-105")

	res = callTool(t, s, viewerCaller, "get_well_statistics", map[string]any{"group_by": "project"})
	assert.True(t, res.IsError)
	assert.Equal(t, "invalid_input", decode(t, res)["kind"])
}

func TestWellSummaryHidesOwnerFromNonAdmins(t *testing.T) {
	s := newTestServer(t, false)

	res := callTool(t, s, engineerCaller, "get_well_summary", map[string]any{"well_id": "ZT-105"})
	require.False(t, res.IsError, parseToolText(t, res))
	text := parseToolText(t, res)
	assert.NotContains(t, text, "li@oilfield.example")
	assert.NotContains(t, text, storage.DemoOwnerLi)
	body := decode(t, res)
	assert.NotContains(t, body, "owner_user_id")
	assert.NotContains(t, body, "owner_email")
	assert.Equal(t, false, body["public"])
	assert.Equal(t, "Rig-51", body["rig"])
	assert.Equal(t, 4820.0, body["current_depth"])
	assert.Equal(t, "2023-11-10", body["latest_report_date"])

	res = callTool(t, s, adminCaller, "get_well_summary", map[string]any{"well_id": "ZT-105"})
	require.False(t, res.IsError)
	body = decode(t, res)
	assert.Equal(t, storage.DemoOwnerLi, body["owner_user_id"])
	assert.Equal(t, "li@oilfield.example", body["owner_email"])
}

func TestDailyReportToolNeverGuessesLatest(t *testing.T) {
	s := newTestServer(t, false)

	res := callTool(t, s, engineerCaller, "get_daily_report", map[string]any{"well_id": "ZT-102", "date": "最新"})
	require.False(t, res.IsError)
	body := decode(t, res)
	assert.Equal(t, "disambiguation", body["kind"])
	assert.NotContains(t, body, "report")
	assert.Len(t, body["candidates"], dailyreport.DefaultCandidates)

	res = callTool(t, s, engineerCaller, "get_daily_report", map[string]any{"well_id": "ZT-102", "date": "2023-11-06"})
	require.False(t, res.IsError)
	body = decode(t, res)
	assert.Equal(t, "report", body["kind"])
	report := body["report"].(map[string]any)
	assert.Equal(t, "2023-11-06", report["date"])
	assert.Equal(t, 12.5, report["npt_hours"])
}

func TestDailyReportToolErrors(t *testing.T) {
	s := newTestServer(t, false)

	cases := []struct {
		name   string
		caller model.Caller
		args   map[string]any
		kind   string
	}{
		{"denied", viewerCaller, map[string]any{"well_id": "ZT-105", "date": "2023-11-06"}, "permission_denied"},
		{"bad date", engineerCaller, map[string]any{"well_id": "ZT-102", "date": "2023-13-45"}, "invalid_input"},
		{"no report", engineerCaller, map[string]any{"well_id": "ZT-102", "date": "2022-01-01"}, "not_found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := callTool(t, s, tc.caller, "get_daily_report", tc.args)
			require.True(t, res.IsError)
			assert.Equal(t, tc.kind, decode(t, res)["kind"])
		})
	}
}

func TestCompareToolsDenyWholeRequest(t *testing.T) {
	s := newTestServer(t, false)
	for _, name := range []string{"compare_wells_overview", "compare_drilling_pace", "compare_npt_statistics"} {
		t.Run(name, func(t *testing.T) {
			res := callTool(t, s, viewerCaller, name, map[string]any{"well_ids": "ZT-102, ZT-105"})
			require.True(t, res.IsError)
			body := decode(t, res)
			assert.Equal(t, "permission_denied", body["kind"])
			assert.Equal(t, []any{"ZT-105"}, body["denial"].(map[string]any)["ids"])
		})
	}
}

func TestCompareToolAcceptsArrayAndNudges(t *testing.T) {
	s := newTestServer(t, false)

	res := callTool(t, s, engineerCaller, "compare_drilling_pace", map[string]any{"well_ids": []any{"ZT-102", "中105"}})
	require.False(t, res.IsError, parseToolText(t, res))
	body := decode(t, res)
	assert.Contains(t, body, "note", "no plan was made first")
	assert.Equal(t, "ZT-105", body["result"].(map[string]any)["benchmark"])

	res = callTool(t, s, engineerCaller, "plan_data_retrieval", map[string]any{
		"intent": "multi_well_compare", "entities": "中102, 105井", "time_range": "上周",
	})
	require.False(t, res.IsError)
	plan := decode(t, res)
	assert.Equal(t, []any{"ZT-102", "ZT-105"}, plan["entities"])
	assert.Equal(t, "2023-10-30", plan["start"])

	res = callTool(t, s, engineerCaller, "compare_drilling_pace", map[string]any{"well_ids": "ZT-102,ZT-105"})
	body = decode(t, res)
	assert.NotContains(t, body, "note")
	assert.Equal(t, "ZT-105", body["benchmark"])
}

func TestPeriodAndBlockTools(t *testing.T) {
	s := newTestServer(t, false)

	res := callTool(t, s, engineerCaller, "get_period_drilling_summary", map[string]any{
		"well_id": "ZT-102", "start_date": "本周",
	})
	require.False(t, res.IsError, parseToolText(t, res))
	assert.Equal(t, float64(650), decode(t, res)["footage"])

	res = callTool(t, s, model.GuestCaller(), "get_block_period_summary", map[string]any{
		"block": "Block-A", "start_date": "2023-11-01", "end_date": "2023-11-10",
	})
	require.True(t, res.IsError)
	assert.Equal(t, "permission_denied", decode(t, res)["kind"])
}

func TestMudAndNPTTools(t *testing.T) {
	s := newTestServer(t, false)

	res := callTool(t, s, engineerCaller, "track_mud_properties", map[string]any{"well_id": "ZT-102"})
	require.False(t, res.IsError)
	assert.Equal(t, "density", decode(t, res)["property"])

	res = callTool(t, s, engineerCaller, "analyze_npt_events", map[string]any{"well_id": "ZT-102"})
	require.False(t, res.IsError)
	assert.Equal(t, 12.5, decode(t, res)["total_hours"])

	res = callTool(t, s, engineerCaller, "get_well_casing", map[string]any{"well_id": "ZT-102"})
	require.False(t, res.IsError)
	assert.Len(t, decode(t, res)["runs"], 2)
}

func TestWhoami(t *testing.T) {
	s := newTestServer(t, false)
	res := callTool(t, s, viewerCaller, "whoami", nil)
	require.False(t, res.IsError)
	body := decode(t, res)
	assert.Equal(t, "viewer", body["resolved_role"])
	assert.Equal(t, []any{"ZT-102"}, body["wells"])
	assert.NotContains(t, body["tools"], "list_role_permissions")
}

func TestListRolePermissionsIsAdminOnly(t *testing.T) {
	s := newTestServer(t, false)

	res := callTool(t, s, engineerCaller, "list_role_permissions", nil)
	require.True(t, res.IsError)
	body := decode(t, res)
	assert.Equal(t, "permission_denied", body["kind"])
	assert.Equal(t, "tool", body["denial"].(map[string]any)["resource"])

	res = callTool(t, s, adminCaller, "list_role_permissions", nil)
	require.False(t, res.IsError)
	assert.Len(t, decode(t, res)["roles"], 5)
}

func TestDevModeOpensEverything(t *testing.T) {
	s := newTestServer(t, true)
	res := callTool(t, s, model.GuestCaller(), "compare_wells_overview", map[string]any{"well_ids": "ZT-102,ZT-105,XY-009"})
	require.False(t, res.IsError, parseToolText(t, res))

	res = callTool(t, s, model.GuestCaller(), "list_role_permissions", nil)
	require.False(t, res.IsError)
	assert.Equal(t, true, decode(t, res)["dev_mode"])
}

func TestMissingCallerIsGuest(t *testing.T) {
	s := newTestServer(t, false)
	res := invoke(t, s, context.Background(), "get_well_summary", map[string]any{"well_id": "ZT-102"})
	assert.True(t, res.IsError)
	assert.Equal(t, "permission_denied", decode(t, res)["kind"])
}
