package mcp

import (
	"context"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/oilfield-ai/drillquery/internal/glossary"
	"github.com/oilfield-ai/drillquery/internal/model"
	"github.com/oilfield-ai/drillquery/internal/resolve"
	"github.com/oilfield-ai/drillquery/internal/service/dailyreport"
	"github.com/oilfield-ai/drillquery/internal/service/drilling"
)

const wellIDHelp = `Well id. Accepts canonical ids ("ZT-102") and field shorthand ("中102", "102井", "zt102").`

func (s *Server) registerTools() {
	// lookup_terminology: translate drilling slang.
	s.mcpServer.AddTool(
		mcplib.NewTool("lookup_terminology",
			mcplib.WithDescription(`Look up a drilling term in the bilingual terminology dictionary.

WHEN TO USE: When the user uses field slang ("憋泵", "井漏", "进尺") or you
are unsure which record field or tool a term relates to.

WHAT YOU GET BACK: the exact entry, or up to 5 partial matches, each with
the standard English name, category and related tools.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("term",
				mcplib.Description("The term to look up, Chinese or English"),
				mcplib.Required(),
			),
		),
		s.tool("lookup_terminology", s.handleLookupTerminology),
	)

	// plan_data_retrieval: choose tools for a question.
	s.mcpServer.AddTool(
		mcplib.NewTool("plan_data_retrieval",
			mcplib.WithDescription(`Plan which tools answer a drilling question before calling them.

WHEN TO USE: At the start of a multi-step question, especially comparisons
and period reports. Returns the recommended tools, the normalized well ids
and the resolved date range, so later calls use canonical inputs.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("intent",
				mcplib.Description("Kind of question"),
				mcplib.Enum(drilling.Intents...),
				mcplib.Required(),
			),
			mcplib.WithString("entities",
				mcplib.Description("Wells or blocks mentioned, comma separated (e.g. \"中102, 105井, Block-A\")"),
			),
			mcplib.WithString("time_range",
				mcplib.Description("Time expression as the user said it (\"本周\", \"last month\", \"2023-11-01 to 2023-11-07\")"),
			),
		),
		s.tool("plan_data_retrieval", s.handlePlan),
	)

	// search_wells: list visible wells.
	s.mcpServer.AddTool(
		mcplib.NewTool("search_wells",
			mcplib.WithDescription(`Search wells by keyword and status. Only wells visible to the caller are returned.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("keyword",
				mcplib.Description("Substring of the well id, name or block. Empty lists every visible well."),
			),
			mcplib.WithString("status",
				mcplib.Description("Well status filter"),
				mcplib.Enum(drilling.SearchStatuses...),
				mcplib.DefaultString("All"),
			),
			mcplib.WithNumber("limit",
				mcplib.Description("Maximum wells to return"),
				mcplib.Min(1),
				mcplib.Max(100),
				mcplib.DefaultNumber(20),
			),
		),
		s.tool("search_wells", s.handleSearchWells),
	)

	s.mcpServer.AddTool(
		mcplib.NewTool("get_well_statistics",
			mcplib.WithDescription(`Count the wells visible to the caller per block, well type, status or team, with the average target depth of each group. Largest group first.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("group_by",
				mcplib.Description("Grouping key"),
				mcplib.Enum(drilling.StatisticsGroupings...),
				mcplib.DefaultString(drilling.GroupByBlock),
			),
		),
		s.tool("get_well_statistics", s.handleWellStatistics),
	)

	s.mcpServer.AddTool(
		mcplib.NewTool("get_well_summary",
			mcplib.WithDescription(`Get a well's profile (block, type, team, target depth) with its latest drilled depth and completion percentage.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("well_id", mcplib.Description(wellIDHelp), mcplib.Required()),
		),
		s.tool("get_well_summary", s.handleWellSummary),
	)

	s.mcpServer.AddTool(
		mcplib.NewTool("get_well_casing",
			mcplib.WithDescription(`Get the casing program of a well: every casing run with size, shoe depth and cement top, shallowest first.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("well_id", mcplib.Description(wellIDHelp), mcplib.Required()),
		),
		s.tool("get_well_casing", s.handleCasing),
	)

	// get_daily_report: the ambiguity-gated report lookup.
	s.mcpServer.AddTool(
		mcplib.NewTool("get_daily_report",
			mcplib.WithDescription(`Get the daily drilling report of a well for one date.

IMPORTANT: Never guess a date. If the user says "latest", "最新", "recent"
or gives no date, call this tool WITHOUT a date. You will get back the
most recent report dates; ask the user which one they want, then call
again with that date.

Dates accept "2023-11-06", "2023年11月6日", "11月6日", "yesterday", "昨天",
"3天前".`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("well_id", mcplib.Description(wellIDHelp), mcplib.Required()),
			mcplib.WithString("date",
				mcplib.Description("Report date. Omit when the user did not name a specific day."),
			),
		),
		s.tool("get_daily_report", s.handleDailyReport),
	)

	s.mcpServer.AddTool(
		mcplib.NewTool("analyze_npt_events",
			mcplib.WithDescription(`Analyze the non-productive time (NPT) of a well: total hours, event count, hours per category and every event with its date and depth.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("well_id", mcplib.Description(wellIDHelp), mcplib.Required()),
		),
		s.tool("analyze_npt_events", s.handleAnalyzeNPT),
	)

	compareWells := mcplib.WithString("well_ids",
		mcplib.Description("Wells to compare, comma separated (e.g. \"ZT-102, 中105\"). The request is refused if any of them is not visible to you."),
		mcplib.Required(),
	)
	s.mcpServer.AddTool(
		mcplib.NewTool("compare_wells_overview",
			mcplib.WithDescription(`Compare the basic profile and progress of several wells side by side.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			compareWells,
		),
		s.tool("compare_wells_overview", s.handleCompareOverview),
	)
	s.mcpServer.AddTool(
		mcplib.NewTool("compare_drilling_pace",
			mcplib.WithDescription(`Rank wells by drilling speed: total footage, average daily progress, average ROP and metres per day. The fastest well is the benchmark.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			compareWells,
		),
		s.tool("compare_drilling_pace", s.handleComparePace),
	)
	s.mcpServer.AddTool(
		mcplib.NewTool("compare_npt_statistics",
			mcplib.WithDescription(`Compare NPT hours per category across wells, worst first.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			compareWells,
		),
		s.tool("compare_npt_statistics", s.handleCompareNPT),
	)

	periodStart := mcplib.WithString("start_date",
		mcplib.Description("Start date, or a whole period such as \"本周\", \"上月\", \"last week\" when end_date is omitted"),
		mcplib.Required(),
	)
	periodEnd := mcplib.WithString("end_date",
		mcplib.Description("End date (inclusive). Omit when start_date names a period."),
	)
	s.mcpServer.AddTool(
		mcplib.NewTool("get_period_drilling_summary",
			mcplib.WithDescription(`Summarize one well over a period: footage, start and end depth, average progress and ROP, NPT totals, mud density trend and a daily timeline. Use for weekly and monthly reports.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("well_id", mcplib.Description(wellIDHelp), mcplib.Required()),
			periodStart,
			periodEnd,
		),
		s.tool("get_period_drilling_summary", s.handlePeriodSummary),
	)
	s.mcpServer.AddTool(
		mcplib.NewTool("get_block_period_summary",
			mcplib.WithDescription(`Summarize a whole block over a period: active wells, total footage, NPT, per-well ranking, team totals, the top performer and the trouble well. Wells you cannot see are left out and counted as hidden.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("block", mcplib.Description("Block name, e.g. \"Block-A\""), mcplib.Required()),
			periodStart,
			periodEnd,
		),
		s.tool("get_block_period_summary", s.handleBlockSummary),
	)

	s.mcpServer.AddTool(
		mcplib.NewTool("track_mud_properties",
			mcplib.WithDescription(`Track one drilling-fluid property of a well over time, with min, max and overall trend.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("well_id", mcplib.Description(wellIDHelp), mcplib.Required()),
			mcplib.WithString("property",
				mcplib.Description("Mud property"),
				mcplib.Enum(drilling.MudProperties...),
				mcplib.DefaultString(string(drilling.MudDensity)),
			),
		),
		s.tool("track_mud_properties", s.handleMudTrend),
	)

	s.mcpServer.AddTool(
		mcplib.NewTool("whoami",
			mcplib.WithDescription(`Show the caller's identity, resolved role, visible wells and blocks, and the tools the role may use.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
		),
		s.tool("whoami", s.handleWhoami),
	)

	s.mcpServer.AddTool(
		mcplib.NewTool("list_role_permissions",
			mcplib.WithDescription(`Admin only. List the full role table: each role's tier, wells, blocks and capabilities.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
		),
		s.tool("list_role_permissions", s.handleListRolePermissions),
	)
}

func (s *Server) handleLookupTerminology(_ context.Context, _ model.Caller, req mcplib.CallToolRequest) (any, *drilling.Refusal, error) {
	term := strings.TrimSpace(req.GetString("term", ""))
	if term == "" {
		return nil, &drilling.Refusal{Kind: drilling.RefusalInvalid, Message: "term is required"}, nil
	}
	res := glossary.Lookup(term)
	if !res.Found() {
		return nil, &drilling.Refusal{
			Kind:    drilling.RefusalNotFound,
			Message: "No dictionary entry for " + term + ". Known categories: " + strings.Join(glossary.Categories(), ", ") + ".",
		}, nil
	}
	return res, nil, nil
}

func (s *Server) handlePlan(_ context.Context, caller model.Caller, req mcplib.CallToolRequest) (any, *drilling.Refusal, error) {
	plan := s.drilling.Plan(
		req.GetString("intent", ""),
		stringList(req, "entities"),
		req.GetString("time_range", ""),
	)
	s.planned.Record(caller.UserID, caller.Role)
	return plan, nil, nil
}

func (s *Server) handleSearchWells(ctx context.Context, caller model.Caller, req mcplib.CallToolRequest) (any, *drilling.Refusal, error) {
	wells, err := s.drilling.SearchWells(ctx, caller,
		req.GetString("keyword", ""),
		req.GetString("status", "All"),
		req.GetInt("limit", 20),
	)
	if err != nil {
		return nil, nil, err
	}
	owners := s.showOwners(caller)
	compact := make([]map[string]any, len(wells))
	for i, w := range wells {
		compact[i] = compactWell(w, owners)
	}
	return map[string]any{"wells": compact, "total": len(compact)}, nil, nil
}

func (s *Server) handleWellStatistics(ctx context.Context, caller model.Caller, req mcplib.CallToolRequest) (any, *drilling.Refusal, error) {
	return unwrap(s.drilling.WellStatistics(ctx, caller, req.GetString("group_by", drilling.GroupByBlock)))
}

func (s *Server) handleWellSummary(ctx context.Context, caller model.Caller, req mcplib.CallToolRequest) (any, *drilling.Refusal, error) {
	sum, ref, err := s.drilling.WellSummary(ctx, caller, req.GetString("well_id", ""))
	if err != nil || ref != nil {
		return nil, ref, err
	}
	return compactSummary(sum, s.showOwners(caller)), nil, nil
}

// showOwners reports whether caller may see who owns a well.
func (s *Server) showOwners(caller model.Caller) bool {
	return s.policy.IsAdmin(caller.Role) || s.policy.DevMode()
}

func (s *Server) handleCasing(ctx context.Context, caller model.Caller, req mcplib.CallToolRequest) (any, *drilling.Refusal, error) {
	return unwrap(s.drilling.Casing(ctx, caller, req.GetString("well_id", "")))
}

func (s *Server) handleDailyReport(ctx context.Context, caller model.Caller, req mcplib.CallToolRequest) (any, *drilling.Refusal, error) {
	res, err := s.gate.Resolve(ctx, caller, req.GetString("well_id", ""), req.GetString("date", ""))
	if err != nil {
		return nil, nil, err
	}
	switch res.Kind {
	case dailyreport.KindReport, dailyreport.KindDisambiguation:
		return compactGateResult(res), nil, nil
	case dailyreport.KindDenied:
		return nil, &drilling.Refusal{Kind: drilling.RefusalDenied, Message: res.Message, Denial: res.Denial}, nil
	case dailyreport.KindNotFound:
		return nil, &drilling.Refusal{Kind: drilling.RefusalNotFound, Message: res.Message}, nil
	default:
		return nil, &drilling.Refusal{Kind: drilling.RefusalInvalid, Message: res.Message}, nil
	}
}

func (s *Server) handleAnalyzeNPT(ctx context.Context, caller model.Caller, req mcplib.CallToolRequest) (any, *drilling.Refusal, error) {
	return unwrap(s.drilling.AnalyzeNPT(ctx, caller, req.GetString("well_id", "")))
}

func (s *Server) handleCompareOverview(ctx context.Context, caller model.Caller, req mcplib.CallToolRequest) (any, *drilling.Refusal, error) {
	rows, ref, err := s.drilling.CompareOverview(ctx, caller, stringList(req, "well_ids"))
	if err != nil || ref != nil {
		return nil, ref, err
	}
	return s.withPlanNote(caller, map[string]any{"wells": rows}), nil, nil
}

func (s *Server) handleComparePace(ctx context.Context, caller model.Caller, req mcplib.CallToolRequest) (any, *drilling.Refusal, error) {
	res, ref, err := s.drilling.ComparePace(ctx, caller, stringList(req, "well_ids"))
	if err != nil || ref != nil {
		return nil, ref, err
	}
	return s.withPlanNote(caller, res), nil, nil
}

func (s *Server) handleCompareNPT(ctx context.Context, caller model.Caller, req mcplib.CallToolRequest) (any, *drilling.Refusal, error) {
	res, ref, err := s.drilling.CompareNPT(ctx, caller, stringList(req, "well_ids"))
	if err != nil || ref != nil {
		return nil, ref, err
	}
	return s.withPlanNote(caller, res), nil, nil
}

func (s *Server) handlePeriodSummary(ctx context.Context, caller model.Caller, req mcplib.CallToolRequest) (any, *drilling.Refusal, error) {
	return unwrap(s.drilling.PeriodSummary(ctx, caller,
		req.GetString("well_id", ""),
		req.GetString("start_date", ""),
		req.GetString("end_date", ""),
	))
}

func (s *Server) handleBlockSummary(ctx context.Context, caller model.Caller, req mcplib.CallToolRequest) (any, *drilling.Refusal, error) {
	return unwrap(s.drilling.BlockSummary(ctx, caller,
		req.GetString("block", ""),
		req.GetString("start_date", ""),
		req.GetString("end_date", ""),
	))
}

func (s *Server) handleMudTrend(ctx context.Context, caller model.Caller, req mcplib.CallToolRequest) (any, *drilling.Refusal, error) {
	return unwrap(s.drilling.MudTrend(ctx, caller,
		req.GetString("well_id", ""),
		req.GetString("property", string(drilling.MudDensity)),
	))
}

func (s *Server) handleWhoami(_ context.Context, caller model.Caller, _ mcplib.CallToolRequest) (any, *drilling.Refusal, error) {
	return s.policy.Summarize(caller), nil, nil
}

func (s *Server) handleListRolePermissions(_ context.Context, _ model.Caller, _ mcplib.CallToolRequest) (any, *drilling.Refusal, error) {
	table := s.policy.Table()
	roles := make([]map[string]any, 0, len(table))
	for _, r := range table.Roles() {
		e := table[r]
		roles = append(roles, map[string]any{
			"role":         r,
			"tier":         e.Tier,
			"description":  e.Description,
			"wells":        e.Wells,
			"blocks":       e.Blocks,
			"capabilities": e.Capabilities,
		})
	}
	return map[string]any{"roles": roles, "dev_mode": s.policy.DevMode()}, nil, nil
}

// withPlanNote adds an advisory note to comparison results when the caller
// skipped plan_data_retrieval recently. The result is returned either way.
func (s *Server) withPlanNote(caller model.Caller, v any) any {
	if s.planned.WasPlanned(caller.UserID, caller.Role) {
		return v
	}
	return map[string]any{
		"result": v,
		"note":   "No plan_data_retrieval call preceded this comparison. Planning first normalizes well ids and the date range for every follow-up call.",
	}
}

// unwrap adapts a typed service result to the toolFunc return shape.
func unwrap[T any](v T, ref *drilling.Refusal, err error) (any, *drilling.Refusal, error) {
	if err != nil || ref != nil {
		return nil, ref, err
	}
	return v, nil, nil
}

// stringList reads a list argument sent either as a JSON array or as one
// comma separated string.
func stringList(req mcplib.CallToolRequest, key string) []string {
	if list := req.GetStringSlice(key, nil); len(list) > 0 {
		return list
	}
	return resolve.SplitWellList(req.GetString(key, ""))
}
