package drilling

import (
	"cmp"
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/oilfield-ai/drillquery/internal/model"
	"github.com/oilfield-ai/drillquery/internal/storage"
)

// OverviewRow is one well in a side-by-side comparison.
type OverviewRow struct {
	WellID        string  `json:"well_id"`
	Name          string  `json:"name"`
	Block         string  `json:"block"`
	WellType      string  `json:"well_type"`
	Status        string  `json:"status"`
	Team          string  `json:"team"`
	SpudDate      string  `json:"spud_date,omitempty"`
	TargetDepth   float64 `json:"target_depth"`
	CurrentDepth  float64 `json:"current_depth"`
	CompletionPct float64 `json:"completion_pct"`
}

// CompareOverview returns the basic profile and progress of every well.
// One denied well refuses the whole comparison.
func (s *Service) CompareOverview(ctx context.Context, caller model.Caller, rawWells []string) ([]OverviewRow, *Refusal, error) {
	wells, ref, err := s.authorizeAll(ctx, caller, rawWells)
	if err != nil || ref != nil {
		return nil, ref, err
	}

	rows := make([]OverviewRow, len(wells))
	g, gctx := errgroup.WithContext(ctx)
	for i, w := range wells {
		g.Go(func() error {
			row := OverviewRow{
				WellID:      w.ID,
				Name:        w.Name,
				Block:       w.Block,
				WellType:    w.WellType,
				Status:      w.Status,
				Team:        w.Team,
				TargetDepth: w.TargetDepth,
			}
			if w.SpudDate != nil {
				row.SpudDate = w.SpudDate.Format(model.DateLayout)
			}
			latest, err := s.latestReport(gctx, w.ID)
			if err != nil {
				return err
			}
			if latest != nil {
				row.CurrentDepth = latest.CurrentDepth
				row.CompletionPct = completion(latest.CurrentDepth, w.TargetDepth)
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return rows, nil, nil
}

// PaceRow is the drilling efficiency of one well over its reported days.
type PaceRow struct {
	WellID           string  `json:"well_id"`
	TotalFootage     float64 `json:"total_footage"`
	AvgDailyProgress float64 `json:"avg_daily_progress"`
	AvgROP           float64 `json:"avg_rop"`
	MaxDepth         float64 `json:"max_depth"`
	FirstDate        string  `json:"first_date"`
	LastDate         string  `json:"last_date"`
	Days             int     `json:"days"`
	MetersPerDay     float64 `json:"meters_per_day"`
}

// PaceComparison ranks wells by meters drilled per calendar day.
type PaceComparison struct {
	Wells     []PaceRow `json:"wells"`
	Benchmark string    `json:"benchmark,omitempty"`
	NoData    []string  `json:"no_data,omitempty"`
}

// ComparePace ranks the wells by drilling speed, fastest first.
func (s *Service) ComparePace(ctx context.Context, caller model.Caller, rawWells []string) (PaceComparison, *Refusal, error) {
	wells, ref, err := s.authorizeAll(ctx, caller, rawWells)
	if err != nil || ref != nil {
		return PaceComparison{}, ref, err
	}
	byWell, err := s.reportsByWell(ctx, "compare_pace", wells)
	if err != nil {
		return PaceComparison{}, nil, err
	}

	out := PaceComparison{Wells: []PaceRow{}}
	for _, w := range wells {
		reports := byWell[w.ID]
		if len(reports) == 0 {
			out.NoData = append(out.NoData, w.ID)
			continue
		}
		out.Wells = append(out.Wells, pace(w.ID, reports))
	}
	slices.SortStableFunc(out.Wells, func(a, b PaceRow) int {
		return cmp.Compare(b.MetersPerDay, a.MetersPerDay)
	})
	if len(out.Wells) > 0 {
		out.Benchmark = out.Wells[0].WellID
	}
	return out, nil, nil
}

// pace expects reports in date order.
func pace(wellID string, reports []model.DailyReport) PaceRow {
	row := PaceRow{WellID: wellID}
	var rop float64
	for _, r := range reports {
		row.TotalFootage += r.Progress
		rop += r.AvgROP
		row.MaxDepth = max(row.MaxDepth, r.CurrentDepth)
	}
	n := float64(len(reports))
	first, last := reports[0].ReportDate, reports[len(reports)-1].ReportDate
	row.AvgDailyProgress = round1(row.TotalFootage / n)
	row.AvgROP = round2(rop / n)
	row.FirstDate = first.Format(model.DateLayout)
	row.LastDate = last.Format(model.DateLayout)
	row.Days = int(last.Sub(first).Hours()/24) + 1
	row.MetersPerDay = round1(row.TotalFootage / float64(row.Days))
	return row
}

// NPTRow is the NPT breakdown of one well.
type NPTRow struct {
	WellID     string             `json:"well_id"`
	TotalHours float64            `json:"total_hours"`
	EventCount int                `json:"event_count"`
	ByCategory map[string]float64 `json:"by_category"`
}

// NPTComparison pivots NPT hours by well and category.
type NPTComparison struct {
	Categories []string `json:"categories"`
	Wells      []NPTRow `json:"wells"`
}

// CompareNPT pivots NPT hours per category for every well, worst first.
func (s *Service) CompareNPT(ctx context.Context, caller model.Caller, rawWells []string) (NPTComparison, *Refusal, error) {
	wells, ref, err := s.authorizeAll(ctx, caller, rawWells)
	if err != nil || ref != nil {
		return NPTComparison{}, ref, err
	}
	byWell, err := s.reportsByWell(ctx, "compare_npt", wells)
	if err != nil {
		return NPTComparison{}, nil, err
	}

	out := NPTComparison{Categories: []string{}, Wells: make([]NPTRow, 0, len(wells))}
	seen := map[string]bool{}
	for _, w := range wells {
		row := NPTRow{WellID: w.ID, ByCategory: map[string]float64{}}
		for _, r := range byWell[w.ID] {
			for _, e := range r.NPTEvents {
				row.EventCount++
				row.TotalHours += e.Duration
				row.ByCategory[e.Category] += e.Duration
				if !seen[e.Category] {
					seen[e.Category] = true
					out.Categories = append(out.Categories, e.Category)
				}
			}
		}
		out.Wells = append(out.Wells, row)
	}
	slices.Sort(out.Categories)
	slices.SortStableFunc(out.Wells, func(a, b NPTRow) int {
		return cmp.Compare(b.TotalHours, a.TotalHours)
	})
	return out, nil, nil
}

func (s *Service) reportsByWell(ctx context.Context, op string, wells []model.Well) (map[string][]model.DailyReport, error) {
	ids := make([]string, len(wells))
	for i, w := range wells {
		ids[i] = w.ID
	}
	reports, err := s.reports(ctx, op, storage.ReportFilter{WellIDs: ids})
	if err != nil {
		return nil, err
	}
	out := make(map[string][]model.DailyReport, len(wells))
	for _, r := range reports {
		out[r.WellID] = append(out[r.WellID], r)
	}
	return out, nil
}
