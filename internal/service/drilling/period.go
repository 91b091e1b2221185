package drilling

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/oilfield-ai/drillquery/internal/authz"
	"github.com/oilfield-ai/drillquery/internal/model"
	"github.com/oilfield-ai/drillquery/internal/storage"
)

const (
	timelineSummaryLimit = 80
	// Density swings below this many g/cm³ count as a stable mud system.
	stableDensityBand = 0.03
)

// TimelineEntry is one report day inside a period summary.
type TimelineEntry struct {
	Date     string  `json:"date"`
	Depth    float64 `json:"depth"`
	Progress float64 `json:"progress"`
	ROP      float64 `json:"rop"`
	NPTHours float64 `json:"npt_hours"`
	Summary  string  `json:"summary"`
}

// PeriodSummary aggregates the daily reports of one well over a window.
type PeriodSummary struct {
	WellID           string          `json:"well_id"`
	WellName         string          `json:"well_name"`
	Start            string          `json:"start"`
	End              string          `json:"end"`
	ReportDays       int             `json:"report_days"`
	StartDepth       float64         `json:"start_depth"`
	EndDepth         float64         `json:"end_depth"`
	Footage          float64         `json:"footage"`
	AvgDailyProgress float64         `json:"avg_daily_progress"`
	AvgROP           float64         `json:"avg_rop"`
	TotalNPTHours    float64         `json:"total_npt_hours"`
	NPTDays          int             `json:"npt_days"`
	MudDensityMin    float64         `json:"mud_density_min"`
	MudDensityMax    float64         `json:"mud_density_max"`
	MudDensityTrend  string          `json:"mud_density_trend"`
	Timeline         []TimelineEntry `json:"timeline"`
}

// PeriodSummary summarizes one well between start and end. With an empty
// end, start may be a period expression such as "本周" or "last month".
func (s *Service) PeriodSummary(ctx context.Context, caller model.Caller, rawWell, rawStart, rawEnd string) (PeriodSummary, *Refusal, error) {
	from, to, ref := s.resolveRange(rawStart, rawEnd)
	if ref != nil {
		return PeriodSummary{}, ref, nil
	}
	w, ref, err := s.CheckWellAccess(ctx, caller, rawWell)
	if err != nil || ref != nil {
		return PeriodSummary{}, ref, err
	}
	reports, err := s.reports(ctx, "period_summary", storage.ReportFilter{WellIDs: []string{w.ID}, From: from, To: to})
	if err != nil {
		return PeriodSummary{}, nil, err
	}
	start, end := from.Format(model.DateLayout), to.Format(model.DateLayout)
	if len(reports) == 0 {
		return PeriodSummary{}, notFound("No reports for well %s between %s and %s.", w.ID, start, end), nil
	}

	first, last := reports[0], reports[len(reports)-1]
	out := PeriodSummary{
		WellID:        w.ID,
		WellName:      w.Name,
		Start:         start,
		End:           end,
		ReportDays:    len(reports),
		StartDepth:    first.CurrentDepth - first.Progress,
		EndDepth:      last.CurrentDepth,
		MudDensityMin: first.MudDensity,
		MudDensityMax: first.MudDensity,
		Timeline:      make([]TimelineEntry, 0, len(reports)),
	}
	out.Footage = out.EndDepth - out.StartDepth

	var progress, rop float64
	for _, r := range reports {
		progress += r.Progress
		rop += r.AvgROP
		npt := r.NPTHours()
		out.TotalNPTHours += npt
		if npt > 0 {
			out.NPTDays++
		}
		out.MudDensityMin = min(out.MudDensityMin, r.MudDensity)
		out.MudDensityMax = max(out.MudDensityMax, r.MudDensity)
		out.Timeline = append(out.Timeline, TimelineEntry{
			Date:     r.DateString(),
			Depth:    r.CurrentDepth,
			Progress: r.Progress,
			ROP:      r.AvgROP,
			NPTHours: npt,
			Summary:  truncate(r.OperationSummary, timelineSummaryLimit),
		})
	}
	n := float64(len(reports))
	out.AvgDailyProgress = round1(progress / n)
	out.AvgROP = round2(rop / n)
	out.MudDensityTrend = "stable"
	if out.MudDensityMax-out.MudDensityMin >= stableDensityBand {
		out.MudDensityTrend = fmt.Sprintf("adjusted %.2f → %.2f", out.MudDensityMin, out.MudDensityMax)
	}
	return out, nil, nil
}

// WellRank is one well's contribution to a block.
type WellRank struct {
	WellID   string  `json:"well_id"`
	Name     string  `json:"name"`
	Team     string  `json:"team"`
	Footage  float64 `json:"footage"`
	NPTHours float64 `json:"npt_hours"`
	Days     int     `json:"days"`
}

// TeamStat aggregates the wells drilled by one team.
type TeamStat struct {
	Team     string  `json:"team"`
	Wells    int     `json:"wells"`
	Footage  float64 `json:"footage"`
	NPTHours float64 `json:"npt_hours"`
}

// BlockSummary aggregates every visible well in a block over a window.
type BlockSummary struct {
	Block            string     `json:"block"`
	Start            string     `json:"start"`
	End              string     `json:"end"`
	ActiveWells      int        `json:"active_wells"`
	TotalFootage     float64    `json:"total_footage"`
	TotalNPTHours    float64    `json:"total_npt_hours"`
	AvgDailyProgress float64    `json:"avg_daily_progress"`
	TopPerformer     string     `json:"top_performer,omitempty"`
	TroubleWell      string     `json:"trouble_well,omitempty"`
	Ranking          []WellRank `json:"ranking"`
	Teams            []TeamStat `json:"teams"`
	HiddenWells      int        `json:"hidden_wells,omitempty"`
}

// BlockSummary summarizes a block. The block itself must be granted to the
// caller's role; wells inside it are then filtered record by record.
func (s *Service) BlockSummary(ctx context.Context, caller model.Caller, block, rawStart, rawEnd string) (BlockSummary, *Refusal, error) {
	block = strings.TrimSpace(block)
	if block == "" {
		return BlockSummary{}, invalid("A block name is required."), nil
	}
	from, to, ref := s.resolveRange(rawStart, rawEnd)
	if ref != nil {
		return BlockSummary{}, ref, nil
	}
	if !s.policy.CheckBlockAccess(caller.Role, block) {
		return BlockSummary{}, denied(authz.DenyBlock(caller.Role, block)), nil
	}

	start := time.Now()
	all, err := s.store.ListWells(ctx, storage.WellFilter{Block: block})
	s.observe(ctx, "block_wells", start)
	if err != nil {
		return BlockSummary{}, nil, fmt.Errorf("drilling: block %s wells: %w", block, err)
	}
	if len(all) == 0 {
		return BlockSummary{}, notFound("Block %s has no wells.", block), nil
	}
	wells := authz.FilterByPermission(s.policy, all, caller)
	if len(wells) == 0 {
		return BlockSummary{}, &Refusal{
			Kind:    RefusalDenied,
			Message: fmt.Sprintf("permission denied: role %q has no access to any wells in block %s", caller.Role, block),
			Denial:  authz.DenyBlock(caller.Role, block),
		}, nil
	}

	ids := make([]string, len(wells))
	byID := make(map[string]model.Well, len(wells))
	for i, w := range wells {
		ids[i] = w.ID
		byID[w.ID] = w
	}
	reports, err := s.reports(ctx, "block_summary", storage.ReportFilter{WellIDs: ids, From: from, To: to})
	if err != nil {
		return BlockSummary{}, nil, err
	}
	out := BlockSummary{
		Block:       block,
		Start:       from.Format(model.DateLayout),
		End:         to.Format(model.DateLayout),
		HiddenWells: len(all) - len(wells),
		Ranking:     []WellRank{},
		Teams:       []TeamStat{},
	}
	if len(reports) == 0 {
		return BlockSummary{}, notFound("No reports in block %s between %s and %s.", block, out.Start, out.End), nil
	}

	ranks := map[string]*WellRank{}
	var progress float64
	for _, r := range reports {
		wr, ok := ranks[r.WellID]
		if !ok {
			w := byID[r.WellID]
			wr = &WellRank{WellID: w.ID, Name: w.Name, Team: w.Team}
			ranks[r.WellID] = wr
		}
		wr.Footage += r.Progress
		wr.NPTHours += r.NPTHours()
		wr.Days++
		progress += r.Progress
	}
	out.ActiveWells = len(ranks)
	out.AvgDailyProgress = round1(progress / float64(len(reports)))

	teams := map[string]*TeamStat{}
	for _, wr := range ranks {
		out.Ranking = append(out.Ranking, *wr)
		out.TotalFootage += wr.Footage
		out.TotalNPTHours += wr.NPTHours
		ts, ok := teams[wr.Team]
		if !ok {
			ts = &TeamStat{Team: wr.Team}
			teams[wr.Team] = ts
		}
		ts.Wells++
		ts.Footage += wr.Footage
		ts.NPTHours += wr.NPTHours
	}
	slices.SortFunc(out.Ranking, func(a, b WellRank) int {
		return cmp.Or(cmp.Compare(b.Footage, a.Footage), cmp.Compare(a.WellID, b.WellID))
	})
	out.TopPerformer = out.Ranking[0].WellID

	var worst float64
	for _, wr := range out.Ranking {
		if wr.NPTHours > worst {
			worst, out.TroubleWell = wr.NPTHours, wr.WellID
		}
	}
	for _, ts := range teams {
		out.Teams = append(out.Teams, *ts)
	}
	slices.SortFunc(out.Teams, func(a, b TeamStat) int {
		return cmp.Or(cmp.Compare(b.Footage, a.Footage), cmp.Compare(a.Team, b.Team))
	})
	return out, nil, nil
}
