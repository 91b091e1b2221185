package drilling

import (
	"context"
	"strings"

	"github.com/oilfield-ai/drillquery/internal/model"
	"github.com/oilfield-ai/drillquery/internal/storage"
)

// MudProperty names a tracked drilling-fluid property.
type MudProperty string

const (
	MudDensity   MudProperty = "density"
	MudViscosity MudProperty = "viscosity"
	MudPH        MudProperty = "ph"
)

// MudProperties lists the accepted property names.
var MudProperties = []string{string(MudDensity), string(MudViscosity), string(MudPH)}

var mudAliases = map[string]MudProperty{
	"density": MudDensity, "密度": MudDensity, "mud_density": MudDensity,
	"viscosity": MudViscosity, "粘度": MudViscosity, "黏度": MudViscosity, "mud_viscosity": MudViscosity,
	"ph": MudPH, "ph值": MudPH, "mud_ph": MudPH,
}

// ParseMudProperty maps a loose property name onto a MudProperty. An empty
// name means density.
func ParseMudProperty(raw string) (MudProperty, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return MudDensity, true
	}
	p, ok := mudAliases[s]
	return p, ok
}

func (p MudProperty) value(r model.DailyReport) float64 {
	switch p {
	case MudViscosity:
		return r.MudViscosity
	case MudPH:
		return r.MudPH
	default:
		return r.MudDensity
	}
}

// MudPoint is one daily reading.
type MudPoint struct {
	Date  string  `json:"date"`
	Depth float64 `json:"depth"`
	Value float64 `json:"value"`
}

// MudTrend is the series of one property with its overall direction.
type MudTrend struct {
	WellID   string      `json:"well_id"`
	Property MudProperty `json:"property"`
	Points   []MudPoint  `json:"points"`
	Min      float64     `json:"min"`
	Max      float64     `json:"max"`
	First    float64     `json:"first"`
	Last     float64     `json:"last"`
	Trend    string      `json:"trend"` // rising, falling or stable
}

// MudTrend tracks one mud property across every report of a well.
func (s *Service) MudTrend(ctx context.Context, caller model.Caller, rawWell, rawProperty string) (MudTrend, *Refusal, error) {
	prop, ok := ParseMudProperty(rawProperty)
	if !ok {
		return MudTrend{}, invalid("Unknown mud property %q, expected one of %s.", rawProperty, strings.Join(MudProperties, ", ")), nil
	}
	w, ref, err := s.CheckWellAccess(ctx, caller, rawWell)
	if err != nil || ref != nil {
		return MudTrend{}, ref, err
	}
	reports, err := s.reports(ctx, "mud_trend", storage.ReportFilter{WellIDs: []string{w.ID}})
	if err != nil {
		return MudTrend{}, nil, err
	}
	if len(reports) == 0 {
		return MudTrend{}, notFound("No reports for well %s.", w.ID), nil
	}

	out := MudTrend{WellID: w.ID, Property: prop, Points: make([]MudPoint, 0, len(reports))}
	for i, r := range reports {
		v := prop.value(r)
		if i == 0 {
			out.Min, out.Max = v, v
		}
		out.Min, out.Max = min(out.Min, v), max(out.Max, v)
		out.Points = append(out.Points, MudPoint{Date: r.DateString(), Depth: r.CurrentDepth, Value: v})
	}
	out.First, out.Last = out.Points[0].Value, out.Points[len(out.Points)-1].Value
	switch {
	case out.Last > out.First:
		out.Trend = "rising"
	case out.Last < out.First:
		out.Trend = "falling"
	default:
		out.Trend = "stable"
	}
	return out, nil, nil
}
