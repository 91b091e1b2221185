package model

import "time"

// Well statuses.
const (
	WellStatusActive    = "Active"
	WellStatusCompleted = "Completed"
	WellStatusSuspended = "Suspended"
)

// Well is the unit of access control. A nil OwnerUserID marks a public
// record.
type Well struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Block       string     `json:"block"`
	TargetDepth float64    `json:"target_depth"`
	Status      string     `json:"status"`
	WellType    string     `json:"well_type"`
	Team        string     `json:"team"`
	Rig         string     `json:"rig"`
	SpudDate    *time.Time `json:"spud_date,omitempty"`
	OwnerUserID *string    `json:"owner_user_id,omitempty"`
	OwnerEmail  *string    `json:"owner_email,omitempty"`
}

// RecordWellID implements authz.Record.
func (w Well) RecordWellID() string { return w.ID }

// RecordOwner implements authz.Record.
func (w Well) RecordOwner() *string { return w.OwnerUserID }

// DailyReport is one day of drilling activity on a well.
type DailyReport struct {
	ID               int64      `json:"id"`
	WellID           string     `json:"well_id"`
	ReportDate       time.Time  `json:"report_date"`
	ReportNo         int        `json:"report_no"`
	CurrentDepth     float64    `json:"current_depth"`
	Progress         float64    `json:"progress"`
	MudDensity       float64    `json:"mud_density"`
	MudViscosity     float64    `json:"mud_viscosity"`
	MudPH            float64    `json:"mud_ph"`
	AvgROP           float64    `json:"avg_rop"`
	BitNumber        int        `json:"bit_number"`
	OperationSummary string     `json:"operation_summary"`
	NextPlan         string     `json:"next_plan"`
	NPTEvents        []NPTEvent `json:"npt_events,omitempty"`
}

// DateString returns the report date in canonical YYYY-MM-DD form.
func (r DailyReport) DateString() string { return r.ReportDate.Format(DateLayout) }

// NPTHours sums the duration of all NPT events on the report.
func (r DailyReport) NPTHours() float64 {
	var total float64
	for _, e := range r.NPTEvents {
		total += e.Duration
	}
	return total
}

// NPTEvent is a non-productive-time incident attached to a daily report.
// Duration is in hours.
type NPTEvent struct {
	ID          int64   `json:"id"`
	ReportID    int64   `json:"report_id"`
	Category    string  `json:"category"`
	Duration    float64 `json:"duration"`
	Severity    string  `json:"severity"`
	Description string  `json:"description"`
}

// CasingProgram records one casing run on a well.
type CasingProgram struct {
	ID        int64      `json:"id"`
	WellID    string     `json:"well_id"`
	RunNumber int        `json:"run_number"`
	RunDate   *time.Time `json:"run_date,omitempty"`
	Size      float64    `json:"size"`
	ShoeDepth float64    `json:"shoe_depth"`
	CementTop float64    `json:"cement_top"`
}

// DateLayout is the canonical date form used on every wire and storage
// boundary.
const DateLayout = "2006-01-02"
