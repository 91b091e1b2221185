package drilling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oilfield-ai/drillquery/internal/authz"
	"github.com/oilfield-ai/drillquery/internal/model"
	"github.com/oilfield-ai/drillquery/internal/storage"
)

// Well statuses accepted by SearchWells.
var SearchStatuses = []string{"All", model.WellStatusActive, model.WellStatusCompleted, model.WellStatusSuspended}

// SearchWells lists the wells caller may see whose id, name or block
// contains keyword.
func (s *Service) SearchWells(ctx context.Context, caller model.Caller, keyword, status string, limit int) ([]model.Well, error) {
	start := time.Now()
	wells, err := s.store.ListWells(ctx, storage.WellFilter{Keyword: keyword, Status: status})
	s.observe(ctx, "search_wells", start)
	if err != nil {
		return nil, fmt.Errorf("drilling: search wells: %w", err)
	}
	wells = authz.FilterByPermission(s.policy, wells, caller)
	if limit > 0 && len(wells) > limit {
		wells = wells[:limit]
	}
	return wells, nil
}

// WellSummary is a well profile with its latest drilled depth.
type WellSummary struct {
	model.Well
	CurrentDepth     float64 `json:"current_depth"`
	CompletionPct    float64 `json:"completion_pct"`
	LatestReportDate string  `json:"latest_report_date,omitempty"`
	LatestOperation  string  `json:"latest_operation,omitempty"`
}

// WellSummary returns the profile of one well.
func (s *Service) WellSummary(ctx context.Context, caller model.Caller, rawWell string) (WellSummary, *Refusal, error) {
	w, ref, err := s.CheckWellAccess(ctx, caller, rawWell)
	if err != nil || ref != nil {
		return WellSummary{}, ref, err
	}
	out := WellSummary{Well: w}
	latest, err := s.latestReport(ctx, w.ID)
	if err != nil {
		return WellSummary{}, nil, err
	}
	if latest != nil {
		out.CurrentDepth = latest.CurrentDepth
		out.LatestReportDate = latest.DateString()
		out.LatestOperation = latest.OperationSummary
		out.CompletionPct = completion(latest.CurrentDepth, w.TargetDepth)
	}
	return out, nil, nil
}

// CasingResult lists the casing runs of one well.
type CasingResult struct {
	WellID string                `json:"well_id"`
	Runs   []model.CasingProgram `json:"runs"`
}

// Casing returns the casing program of a well, shallowest shoe first.
func (s *Service) Casing(ctx context.Context, caller model.Caller, rawWell string) (CasingResult, *Refusal, error) {
	w, ref, err := s.CheckWellAccess(ctx, caller, rawWell)
	if err != nil || ref != nil {
		return CasingResult{}, ref, err
	}
	start := time.Now()
	runs, err := s.store.ListCasings(ctx, w.ID)
	s.observe(ctx, "list_casings", start)
	if err != nil {
		return CasingResult{}, nil, fmt.Errorf("drilling: casing %s: %w", w.ID, err)
	}
	if len(runs) == 0 {
		return CasingResult{}, notFound("No casing program recorded for well %s.", w.ID), nil
	}
	return CasingResult{WellID: w.ID, Runs: runs}, nil, nil
}

func (s *Service) latestReport(ctx context.Context, wellID string) (*model.DailyReport, error) {
	start := time.Now()
	reports, err := s.store.RecentReports(ctx, wellID, 1)
	s.observe(ctx, "recent_reports", start)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && len(reports) == 0) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("drilling: latest report %s: %w", wellID, err)
	}
	return &reports[0], nil
}

func completion(depth, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return round1(depth / target * 100)
}
