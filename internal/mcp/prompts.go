package mcp

import (
	"context"
	"fmt"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/oilfield-ai/drillquery/internal/resolve"
)

func (s *Server) registerPrompts() {
	// weekly-drilling-report: walks the assistant through a period report.
	s.mcpServer.AddPrompt(
		mcplib.NewPrompt("weekly-drilling-report",
			mcplib.WithPromptDescription("Write a drilling progress report for one well over a period"),
			mcplib.WithArgument("well_id",
				mcplib.ArgumentDescription("The well to report on (e.g. ZT-102 or 中102)"),
				mcplib.RequiredArgument(),
			),
			mcplib.WithArgument("period",
				mcplib.ArgumentDescription("Period to cover, e.g. \"本周\", \"last week\", \"2023-11-01 to 2023-11-07\". Defaults to this week."),
			),
		),
		s.handleWeeklyReportPrompt,
	)

	// well-briefing: a short status briefing for one well.
	s.mcpServer.AddPrompt(
		mcplib.NewPrompt("well-briefing",
			mcplib.WithPromptDescription("Brief the user on the current state of one well"),
			mcplib.WithArgument("well_id",
				mcplib.ArgumentDescription("The well to brief on"),
				mcplib.RequiredArgument(),
			),
		),
		s.handleWellBriefingPrompt,
	)
}

func (s *Server) handleWeeklyReportPrompt(_ context.Context, request mcplib.GetPromptRequest) (*mcplib.GetPromptResult, error) {
	raw := strings.TrimSpace(request.Params.Arguments["well_id"])
	if raw == "" {
		return nil, fmt.Errorf("well_id argument is required")
	}
	wellID := resolve.NormalizeWellID(raw)
	period := strings.TrimSpace(request.Params.Arguments["period"])
	if period == "" {
		period = "本周"
	}
	start, end := resolve.ParseDateRange(period)

	return &mcplib.GetPromptResult{
		Description: fmt.Sprintf("Drilling report for %s, %s to %s", wellID, start, end),
		Messages: []mcplib.PromptMessage{
			{
				Role: mcplib.RoleUser,
				Content: mcplib.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Write a drilling progress report for well %[1]s covering %[2]s to %[3]s.

1. CALL get_period_drilling_summary with well_id="%[1]s", start_date="%[2]s", end_date="%[3]s".

2. If the result is a permission error, stop and tell the user they cannot
   access this well. Do not estimate figures.

3. CALL analyze_npt_events with well_id="%[1]s" if the summary shows any
   NPT hours, so the report can explain what happened.

4. WRITE the report with these sections:
   - Overview: footage, start and end depth, report days
   - Performance: average daily progress and ROP
   - NPT: total hours, affected days and the main causes
   - Drilling fluid: density range and whether it was adjusted
   - Outlook: the next plan from the latest timeline entry

Quote figures exactly as returned and give dates as YYYY-MM-DD.`, wellID, start, end),
				},
			},
		},
	}, nil
}

func (s *Server) handleWellBriefingPrompt(_ context.Context, request mcplib.GetPromptRequest) (*mcplib.GetPromptResult, error) {
	raw := strings.TrimSpace(request.Params.Arguments["well_id"])
	if raw == "" {
		return nil, fmt.Errorf("well_id argument is required")
	}
	wellID := resolve.NormalizeWellID(raw)

	return &mcplib.GetPromptResult{
		Description: fmt.Sprintf("Status briefing for %s", wellID),
		Messages: []mcplib.PromptMessage{
			{
				Role: mcplib.RoleUser,
				Content: mcplib.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Brief me on well %[1]s.

1. CALL get_well_summary with well_id="%[1]s" for the profile and latest depth.

2. CALL get_daily_report with well_id="%[1]s" and NO date. You will get the
   most recent report dates back. Show them to me and ask which date I
   want before fetching a report.

3. CALL track_mud_properties with well_id="%[1]s" if the latest report
   mentions losses, kicks or mud adjustments.

Keep the briefing under ten lines: depth and completion, what the crew did,
any NPT, and the next plan.`, wellID),
				},
			},
		},
	}, nil
}
