package mcp

import (
	"github.com/oilfield-ai/drillquery/internal/model"
	"github.com/oilfield-ai/drillquery/internal/service/dailyreport"
	"github.com/oilfield-ai/drillquery/internal/service/drilling"
)

// compactWell returns the fields of a well an assistant acts on. Owner
// identity is included only for callers allowed to see the whole table.
func compactWell(w model.Well, withOwner bool) map[string]any {
	m := map[string]any{
		"id":           w.ID,
		"name":         w.Name,
		"block":        w.Block,
		"status":       w.Status,
		"well_type":    w.WellType,
		"team":         w.Team,
		"target_depth": w.TargetDepth,
		"public":       w.OwnerUserID == nil,
	}
	if w.SpudDate != nil {
		m["spud_date"] = w.SpudDate.Format(model.DateLayout)
	}
	if withOwner && w.OwnerUserID != nil {
		m["owner_user_id"] = *w.OwnerUserID
		if w.OwnerEmail != nil {
			m["owner_email"] = *w.OwnerEmail
		}
	}
	return m
}

// compactSummary is compactWell plus rig and latest progress.
func compactSummary(sum drilling.WellSummary, withOwner bool) map[string]any {
	m := compactWell(sum.Well, withOwner)
	m["rig"] = sum.Rig
	m["current_depth"] = sum.CurrentDepth
	m["completion_pct"] = sum.CompletionPct
	if sum.LatestReportDate != "" {
		m["latest_report_date"] = sum.LatestReportDate
		m["latest_operation"] = sum.LatestOperation
	}
	return m
}

// compactReport drops row ids and renders the date as YYYY-MM-DD.
func compactReport(r model.DailyReport) map[string]any {
	m := map[string]any{
		"well_id":           r.WellID,
		"date":              r.DateString(),
		"report_no":         r.ReportNo,
		"current_depth":     r.CurrentDepth,
		"progress":          r.Progress,
		"avg_rop":           r.AvgROP,
		"bit_number":        r.BitNumber,
		"operation_summary": r.OperationSummary,
		"next_plan":         r.NextPlan,
		"mud": map[string]float64{
			"density":   r.MudDensity,
			"viscosity": r.MudViscosity,
			"ph":        r.MudPH,
		},
	}
	if len(r.NPTEvents) > 0 {
		events := make([]map[string]any, len(r.NPTEvents))
		for i, e := range r.NPTEvents {
			events[i] = map[string]any{
				"category":    e.Category,
				"duration":    e.Duration,
				"severity":    e.Severity,
				"description": e.Description,
			}
		}
		m["npt_events"] = events
		m["npt_hours"] = r.NPTHours()
	}
	return m
}

// compactGateResult renders a report or disambiguation outcome.
func compactGateResult(res dailyreport.Result) map[string]any {
	m := map[string]any{
		"kind":    res.Kind,
		"well_id": res.WellID,
		"message": res.Message,
	}
	if res.Input != "" {
		m["input_date"] = res.Input
	}
	if res.Report != nil {
		m["date"] = res.Date
		m["report"] = compactReport(*res.Report)
	}
	if len(res.Candidates) > 0 {
		m["candidates"] = res.Candidates
	}
	return m
}
