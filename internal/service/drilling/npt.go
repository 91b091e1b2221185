package drilling

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/oilfield-ai/drillquery/internal/model"
	"github.com/oilfield-ai/drillquery/internal/storage"
)

const nptDescriptionLimit = 50

// CategoryStat aggregates NPT events of one category.
type CategoryStat struct {
	Category string  `json:"category"`
	Count    int     `json:"count"`
	Hours    float64 `json:"hours"`
}

// NPTOccurrence is one NPT event placed on its report day.
type NPTOccurrence struct {
	Date        string  `json:"date"`
	Depth       float64 `json:"depth"`
	Category    string  `json:"category"`
	Duration    float64 `json:"duration"`
	Severity    string  `json:"severity"`
	Description string  `json:"description"`
}

// NPTAnalysis summarizes the non-productive time of one well.
type NPTAnalysis struct {
	WellID           string          `json:"well_id"`
	TotalEvents      int             `json:"total_events"`
	TotalHours       float64         `json:"total_hours"`
	AvgHoursPerEvent float64         `json:"avg_hours_per_event"`
	Categories       []CategoryStat  `json:"categories"`
	Events           []NPTOccurrence `json:"events"`
}

// AnalyzeNPT collects every NPT event recorded for a well.
func (s *Service) AnalyzeNPT(ctx context.Context, caller model.Caller, rawWell string) (NPTAnalysis, *Refusal, error) {
	w, ref, err := s.CheckWellAccess(ctx, caller, rawWell)
	if err != nil || ref != nil {
		return NPTAnalysis{}, ref, err
	}
	reports, err := s.reports(ctx, "analyze_npt", storage.ReportFilter{WellIDs: []string{w.ID}})
	if err != nil {
		return NPTAnalysis{}, nil, err
	}

	out := NPTAnalysis{WellID: w.ID, Categories: []CategoryStat{}, Events: []NPTOccurrence{}}
	byCat := map[string]*CategoryStat{}
	for _, r := range reports {
		for _, e := range r.NPTEvents {
			out.TotalEvents++
			out.TotalHours += e.Duration
			st, ok := byCat[e.Category]
			if !ok {
				st = &CategoryStat{Category: e.Category}
				byCat[e.Category] = st
			}
			st.Count++
			st.Hours += e.Duration
			out.Events = append(out.Events, NPTOccurrence{
				Date:        r.DateString(),
				Depth:       r.CurrentDepth,
				Category:    e.Category,
				Duration:    e.Duration,
				Severity:    e.Severity,
				Description: truncate(e.Description, nptDescriptionLimit),
			})
		}
	}
	if out.TotalEvents == 0 {
		return out, nil, nil
	}
	out.AvgHoursPerEvent = round2(out.TotalHours / float64(out.TotalEvents))
	for _, st := range byCat {
		out.Categories = append(out.Categories, *st)
	}
	slices.SortFunc(out.Categories, func(a, b CategoryStat) int {
		return cmp.Or(cmp.Compare(b.Hours, a.Hours), cmp.Compare(a.Category, b.Category))
	})
	return out, nil, nil
}

func (s *Service) reports(ctx context.Context, op string, f storage.ReportFilter) ([]model.DailyReport, error) {
	start := time.Now()
	reports, err := s.store.ListReports(ctx, f)
	s.observe(ctx, op, start)
	if err != nil {
		return nil, fmt.Errorf("drilling: %s: %w", op, err)
	}
	return reports, nil
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}
