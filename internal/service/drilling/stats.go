package drilling

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/oilfield-ai/drillquery/internal/model"
)

// Grouping keys accepted by WellStatistics.
const (
	GroupByBlock    = "block"
	GroupByWellType = "well_type"
	GroupByStatus   = "status"
	GroupByTeam     = "team"
)

// StatisticsGroupings lists the accepted grouping keys, default first.
var StatisticsGroupings = []string{GroupByBlock, GroupByWellType, GroupByStatus, GroupByTeam}

// WellGroup is the well count and mean target depth of one group.
type WellGroup struct {
	Name           string   `json:"name"`
	Wells          int      `json:"wells"`
	AvgTargetDepth float64  `json:"avg_target_depth"`
	WellIDs        []string `json:"well_ids"`
}

// WellStatistics groups the wells visible to a caller.
type WellStatistics struct {
	GroupBy string      `json:"group_by"`
	Total   int         `json:"total"`
	Groups  []WellGroup `json:"groups"`
}

// WellStatistics counts the wells caller may see per block, well type,
// status or team, largest group first. Wells with an empty grouping value
// are left out of the groups but counted in Total.
func (s *Service) WellStatistics(ctx context.Context, caller model.Caller, groupBy string) (WellStatistics, *Refusal, error) {
	key := strings.ToLower(strings.TrimSpace(groupBy))
	if key == "" {
		key = GroupByBlock
	}
	field, ok := groupField(key)
	if !ok {
		return WellStatistics{}, invalid("Cannot group by %q; use one of %s.", groupBy, strings.Join(StatisticsGroupings, ", ")), nil
	}

	wells, err := s.SearchWells(ctx, caller, "", "All", 0)
	if err != nil {
		return WellStatistics{}, nil, err
	}

	out := WellStatistics{GroupBy: key, Total: len(wells), Groups: []WellGroup{}}
	index := map[string]int{}
	depth := map[string]float64{}
	for _, w := range wells {
		name := field(w)
		if name == "" {
			continue
		}
		i, seen := index[name]
		if !seen {
			i = len(out.Groups)
			index[name] = i
			out.Groups = append(out.Groups, WellGroup{Name: name})
		}
		out.Groups[i].Wells++
		out.Groups[i].WellIDs = append(out.Groups[i].WellIDs, w.ID)
		depth[name] += w.TargetDepth
	}
	for i := range out.Groups {
		g := &out.Groups[i]
		g.AvgTargetDepth = round1(depth[g.Name] / float64(g.Wells))
	}
	slices.SortFunc(out.Groups, func(a, b WellGroup) int {
		if c := cmp.Compare(b.Wells, a.Wells); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out, nil, nil
}

func groupField(key string) (func(model.Well) string, bool) {
	switch key {
	case GroupByBlock:
		return func(w model.Well) string { return w.Block }, true
	case GroupByWellType:
		return func(w model.Well) string { return w.WellType }, true
	case GroupByStatus:
		return func(w model.Well) string { return w.Status }, true
	case GroupByTeam:
		return func(w model.Well) string { return w.Team }, true
	}
	return nil, false
}
