package dailyreport

import (
	"strings"

	"github.com/oilfield-ai/drillquery/internal/authz"
	"github.com/oilfield-ai/drillquery/internal/model"
)

// State is where a request ended up in the resolution flow.
type State int

const (
	StateNoDateGiven State = iota
	StateAmbiguousWord
	StateConcreteDate
	StateResolved
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateNoDateGiven:
		return "no_date_given"
	case StateAmbiguousWord:
		return "ambiguous_word"
	case StateConcreteDate:
		return "concrete_date"
	case StateResolved:
		return "resolved"
	case StateRejected:
		return "rejected"
	}
	return "unknown"
}

// Kind is the outcome the caller sees.
type Kind string

const (
	KindReport         Kind = "report"
	KindDisambiguation Kind = "disambiguation"
	KindFormatError    Kind = "format_error"
	KindNotFound       Kind = "not_found"
	KindDenied         Kind = "permission_denied"
)

// Candidate is one selectable report date offered during disambiguation.
type Candidate struct {
	Date         string  `json:"date"`
	ReportNo     int     `json:"report_no"`
	CurrentDepth float64 `json:"current_depth"`
	Progress     float64 `json:"progress"`
	Summary      string  `json:"summary"`
}

// Result is the outcome of Gate.Resolve. Report is set only for KindReport
// and Candidates only for KindDisambiguation.
type Result struct {
	Kind       Kind               `json:"kind"`
	State      State              `json:"-"`
	WellID     string             `json:"well_id"`
	Input      string             `json:"input_date,omitempty"`
	Date       string             `json:"date,omitempty"`
	Message    string             `json:"message"`
	Report     *model.DailyReport `json:"report,omitempty"`
	Candidates []Candidate        `json:"candidates,omitempty"`
	Denial     *authz.Denial      `json:"denial,omitempty"`
	Cached     bool               `json:"cached,omitempty"`
}

// vagueWords name "some recent day" rather than a day.
var vagueWords = []string{"latest", "newest", "recent", "recently", "current", "currently", "now", "last one"}

// vagueSubstrings are matched anywhere; they have no shorter
// false-positive readings.
var vagueSubstrings = []string{"最新", "最近", "当前", "目前", "现在"}

// Classify places a raw date in its initial state.
func Classify(raw string) State {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return StateNoDateGiven
	}
	for _, sub := range vagueSubstrings {
		if strings.Contains(s, sub) {
			return StateAmbiguousWord
		}
	}
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-' || r == ','
	})
	joined := strings.Join(words, " ")
	for _, v := range vagueWords {
		if joined == v {
			return StateAmbiguousWord
		}
		for _, w := range words {
			if w == v {
				return StateAmbiguousWord
			}
		}
	}
	return StateConcreteDate
}
