package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/oilfield-ai/drillquery/internal/model"
)

const reportColumns = `id, well_id, report_date, report_no, current_depth, progress,
	mud_density, mud_viscosity, mud_ph, avg_rop, bit_number, operation_summary, next_plan`

// RecentReports returns up to limit reports for a well, newest first. NPT
// events are not loaded.
func (db *DB) RecentReports(ctx context.Context, wellID string, limit int) ([]model.DailyReport, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+reportColumns+` FROM daily_reports
		 WHERE well_id = $1 ORDER BY report_date DESC LIMIT $2`, wellID, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: recent reports: %w", err)
	}
	return collectReports(rows)
}

// GetReport returns the report for a well on a date, with its NPT events.
func (db *DB) GetReport(ctx context.Context, wellID string, date time.Time) (model.DailyReport, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+reportColumns+` FROM daily_reports WHERE well_id = $1 AND report_date = $2`,
		wellID, dateOnly(date))
	if err != nil {
		return model.DailyReport{}, fmt.Errorf("storage: get report: %w", err)
	}
	reports, err := collectReports(rows)
	if err != nil {
		return model.DailyReport{}, err
	}
	if len(reports) == 0 {
		return model.DailyReport{}, fmt.Errorf("storage: report %s %s: %w", wellID, date.Format(model.DateLayout), ErrNotFound)
	}
	if err := db.attachNPT(ctx, reports); err != nil {
		return model.DailyReport{}, err
	}
	return reports[0], nil
}

// ListReports returns reports matching f ordered by well and date, with NPT
// events attached.
func (db *DB) ListReports(ctx context.Context, f ReportFilter) ([]model.DailyReport, error) {
	var (
		where []string
		args  []any
	)
	if len(f.WellIDs) > 0 {
		args = append(args, f.WellIDs)
		where = append(where, fmt.Sprintf("well_id = ANY($%d)", len(args)))
	}
	if !f.From.IsZero() {
		args = append(args, dateOnly(f.From))
		where = append(where, fmt.Sprintf("report_date >= $%d", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, dateOnly(f.To))
		where = append(where, fmt.Sprintf("report_date <= $%d", len(args)))
	}
	q := `SELECT ` + reportColumns + ` FROM daily_reports`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY well_id, report_date"

	rows, err := db.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list reports: %w", err)
	}
	reports, err := collectReports(rows)
	if err != nil {
		return nil, err
	}
	if err := db.attachNPT(ctx, reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func (db *DB) attachNPT(ctx context.Context, reports []model.DailyReport) error {
	if len(reports) == 0 {
		return nil
	}
	ids := make([]int64, len(reports))
	index := make(map[int64]int, len(reports))
	for i, r := range reports {
		ids[i] = r.ID
		index[r.ID] = i
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, report_id, category, duration, severity, description
		 FROM npt_events WHERE report_id = ANY($1) ORDER BY report_id, id`, ids)
	if err != nil {
		return fmt.Errorf("storage: list npt events: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e model.NPTEvent
		if err := rows.Scan(&e.ID, &e.ReportID, &e.Category, &e.Duration, &e.Severity, &e.Description); err != nil {
			return fmt.Errorf("storage: scan npt event: %w", err)
		}
		i := index[e.ReportID]
		reports[i].NPTEvents = append(reports[i].NPTEvents, e)
	}
	return rows.Err()
}

func collectReports(rows pgx.Rows) ([]model.DailyReport, error) {
	defer rows.Close()
	var out []model.DailyReport
	for rows.Next() {
		var r model.DailyReport
		if err := rows.Scan(&r.ID, &r.WellID, &r.ReportDate, &r.ReportNo, &r.CurrentDepth, &r.Progress,
			&r.MudDensity, &r.MudViscosity, &r.MudPH, &r.AvgROP, &r.BitNumber,
			&r.OperationSummary, &r.NextPlan); err != nil {
			return nil, fmt.Errorf("storage: scan report: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate reports: %w", err)
	}
	return out, nil
}

// dateOnly strips the clock and zone so DATE comparisons use the calendar
// day the caller meant.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
