// Package glossary holds the drilling terminology dictionary used to map
// field slang onto standard English terms and the tools that answer
// questions about them.
package glossary

import (
	"slices"
	"sort"
	"strings"
)

// Term is one dictionary entry.
type Term struct {
	Key          string   `json:"term"`
	Standard     string   `json:"standard"`
	Category     string   `json:"category"`
	Description  string   `json:"description"`
	RelatedTools []string `json:"related_tools"`
}

// MaxPartialMatches caps the number of fuzzy matches returned by Lookup.
const MaxPartialMatches = 5

var terms = []Term{
	{"憋泵", "Pump Pressure Spike", "Equipment", "Abnormal pump pressure rise, usually a plugged bit or tight hole", []string{"get_daily_report", "analyze_npt_events"}},
	{"起下钻", "Tripping", "Activity", "Pulling the drill string out of or running it into the hole", []string{"get_daily_report"}},
	{"划眼", "Reaming", "Activity", "Enlarging the hole with a reaming tool", []string{"get_daily_report"}},
	{"通井", "Circulation", "Activity", "Circulating drilling fluid to clean the hole", []string{"get_daily_report", "track_mud_properties"}},
	{"蹩钻", "Bit Sticking", "NPT", "The bit is stuck and cannot drill ahead", []string{"analyze_npt_events"}},
	{"井漏", "Lost Circulation", "NPT", "Drilling fluid lost into the formation", []string{"analyze_npt_events", "track_mud_properties"}},
	{"溢流", "Kick", "NPT", "Formation fluid entering the wellbore; returns exceed pump rate", []string{"analyze_npt_events"}},
	{"卡钻", "Stuck Pipe", "NPT", "The drill string is stuck in the hole", []string{"analyze_npt_events"}},
	{"井塌", "Wellbore Collapse", "NPT", "Borehole wall instability and collapse", []string{"analyze_npt_events", "track_mud_properties"}},
	{"井喷", "Blowout", "NPT", "Uncontrolled release of formation fluid at surface", []string{"analyze_npt_events"}},
	{"泥浆", "Drilling Fluid / Mud", "Parameter", "Fluid that cools the bit, carries cuttings and balances formation pressure", []string{"track_mud_properties", "get_daily_report"}},
	{"比重", "Density / Specific Gravity", "Parameter", "Mud density, controls bottom-hole pressure", []string{"track_mud_properties"}},
	{"粘度", "Viscosity", "Parameter", "Mud viscosity, affects hole cleaning and friction", []string{"track_mud_properties"}},
	{"钻速", "ROP (Rate of Penetration)", "Parameter", "Penetration rate in metres per hour", []string{"compare_drilling_pace", "get_daily_report"}},
	{"进尺", "Progress / Footage", "Parameter", "Metres drilled, usually per day", []string{"get_period_drilling_summary", "compare_drilling_pace"}},
	{"套管", "Casing", "Well Structure", "Steel pipe run into the hole to support the wall", []string{"get_well_casing"}},
	{"固井", "Cementing", "Activity", "Pumping cement between casing and borehole", []string{"get_well_casing"}},
	{"完井", "Well Completion", "Activity", "Preparing the wellbore after drilling ends", []string{"get_well_summary"}},
	{"开钻", "Spud", "Activity", "Start of drilling operations", []string{"get_well_summary"}},
	{"钻遇", "Drilling Through", "Activity", "The bit penetrating a formation", []string{"get_daily_report"}},
	{"复杂", "Complex Situation", "NPT", "Downhole trouble of any kind", []string{"analyze_npt_events"}},
	{"提速", "Speed Up / Increase ROP", "Optimization", "Raising drilling speed to shorten the well cycle", []string{"compare_drilling_pace"}},
}

var byKey = func() map[string]Term {
	m := make(map[string]Term, len(terms))
	for _, t := range terms {
		m[t.Key] = t
	}
	return m
}()

// Result is the outcome of a lookup. Exactly one of Exact or Matches is set
// on a hit; both empty means nothing matched.
type Result struct {
	Query      string `json:"query"`
	Exact      *Term  `json:"exact,omitempty"`
	Matches    []Term `json:"matches,omitempty"`
	TotalFound int    `json:"total_found"`
}

// Found reports whether the lookup hit anything.
func (r Result) Found() bool { return r.Exact != nil || len(r.Matches) > 0 }

// Lookup finds term exactly, or else returns up to MaxPartialMatches entries
// whose key contains term, whose key is contained in term, or whose
// standard name contains term case-insensitively.
func Lookup(term string) Result {
	q := strings.TrimSpace(term)
	res := Result{Query: q}
	if q == "" {
		return res
	}
	if t, ok := byKey[q]; ok {
		res.Exact = &t
		res.TotalFound = 1
		return res
	}
	lower := strings.ToLower(q)
	for _, t := range terms {
		if strings.Contains(t.Key, q) || strings.Contains(q, t.Key) ||
			strings.Contains(strings.ToLower(t.Standard), lower) {
			res.Matches = append(res.Matches, t)
		}
	}
	res.TotalFound = len(res.Matches)
	if len(res.Matches) > MaxPartialMatches {
		res.Matches = res.Matches[:MaxPartialMatches]
	}
	return res
}

// Categories returns the distinct categories in sorted order.
func Categories() []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range terms {
		if !seen[t.Category] {
			seen[t.Category] = true
			out = append(out, t.Category)
		}
	}
	sort.Strings(out)
	return out
}

// All returns every entry in dictionary order.
func All() []Term {
	return slices.Clone(terms)
}
