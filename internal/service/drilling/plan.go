package drilling

import (
	"strings"

	"github.com/oilfield-ai/drillquery/internal/resolve"
)

// Intent is the kind of question a plan is made for.
type Intent string

const (
	IntentSingleWell     Intent = "single_well_status"
	IntentMultiWell      Intent = "multi_well_compare"
	IntentHistorical     Intent = "historical_report"
	IntentRealtime       Intent = "realtime_monitor"
	IntentReportGenerate Intent = "report_generation"
)

type intentPlan struct {
	description string
	tools       []string
}

var intentPlans = map[Intent]intentPlan{
	IntentSingleWell: {
		description: "Current status of a single well",
		tools:       []string{"get_well_summary", "get_daily_report", "analyze_npt_events"},
	},
	IntentMultiWell: {
		description: "Side-by-side comparison of several wells",
		tools:       []string{"compare_wells_overview", "compare_drilling_pace", "compare_npt_statistics"},
	},
	IntentHistorical: {
		description: "Summary of a past period",
		tools:       []string{"get_period_drilling_summary", "get_block_period_summary"},
	},
	IntentRealtime: {
		description: "Latest operations and fluid readings",
		tools:       []string{"get_daily_report", "track_mud_properties"},
	},
	IntentReportGenerate: {
		description: "Material for a written period report",
		tools:       []string{"get_period_drilling_summary", "get_block_period_summary"},
	},
}

// Intents lists the accepted intents in display order.
var Intents = []string{
	string(IntentSingleWell), string(IntentMultiWell), string(IntentHistorical),
	string(IntentRealtime), string(IntentReportGenerate),
}

// Plan is a suggested tool sequence for a question.
type Plan struct {
	Intent           Intent   `json:"intent"`
	Description      string   `json:"description"`
	RecommendedTools []string `json:"recommended_tools"`
	Entities         []string `json:"entities"`
	Start            string   `json:"start"`
	End              string   `json:"end"`
	NextStep         string   `json:"next_step"`
}

// Plan maps an intent to the tools that answer it and normalizes the
// entities and time range the caller extracted. It reads no data. Unknown
// intents plan for a single-well status question.
func (s *Service) Plan(intent string, entities []string, timeRange string) Plan {
	in := Intent(strings.ToLower(strings.TrimSpace(intent)))
	ip, ok := intentPlans[in]
	if !ok {
		in, ip = IntentSingleWell, intentPlans[IntentSingleWell]
	}
	start, end := resolve.ParseDateRangeAt(timeRange, s.now())

	norm := make([]string, 0, len(entities))
	seen := map[string]bool{}
	for _, e := range entities {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !isBlockName(e) {
			e = resolve.NormalizeWellID(e)
		}
		if !seen[e] {
			seen[e] = true
			norm = append(norm, e)
		}
	}

	return Plan{
		Intent:           in,
		Description:      ip.description,
		RecommendedTools: ip.tools,
		Entities:         norm,
		Start:            start,
		End:              end,
		NextStep:         "Call " + ip.tools[0] + " with the normalized entities above.",
	}
}

// isBlockName reports whether an entity names a block rather than a well.
func isBlockName(s string) bool {
	l := strings.ToLower(s)
	return strings.HasPrefix(l, "block") || strings.HasSuffix(s, "区块")
}
