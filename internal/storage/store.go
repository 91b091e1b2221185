package storage

import (
	"context"
	"time"

	"github.com/oilfield-ai/drillquery/internal/model"
)

// Store is the read surface the query services need. Both the PostgreSQL
// DB and the embedded SQLite store implement it.
type Store interface {
	ListWells(ctx context.Context, f WellFilter) ([]model.Well, error)
	GetWell(ctx context.Context, id string) (model.Well, error)
	ListCasings(ctx context.Context, wellID string) ([]model.CasingProgram, error)
	RecentReports(ctx context.Context, wellID string, limit int) ([]model.DailyReport, error)
	GetReport(ctx context.Context, wellID string, date time.Time) (model.DailyReport, error)
	ListReports(ctx context.Context, f ReportFilter) ([]model.DailyReport, error)
	Ping(ctx context.Context) error
}

// Seeder loads fixture data into a store.
type Seeder interface {
	Seed(ctx context.Context, fx Fixtures) error
}

// WellFilter narrows ListWells. Empty fields match everything.
type WellFilter struct {
	Keyword string // substring of id, name or block, case-insensitive
	Status  string // exact status; "" or "All" for any
	Block   string
	Limit   int // 0 means no limit
}

// StatusFilter returns the status to match, or "" for any.
func (f WellFilter) StatusFilter() string {
	if f.Status == "" || f.Status == "All" {
		return ""
	}
	return f.Status
}

// ReportFilter narrows ListReports. Zero From/To are unbounded; both are
// inclusive.
type ReportFilter struct {
	WellIDs []string
	From    time.Time
	To      time.Time
}
