package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oilfield-ai/drillquery/internal/model"
	"github.com/oilfield-ai/drillquery/internal/storage"
)

const wellColumns = `id, name, block, target_depth, spud_date, status, well_type, team, rig, owner_user_id, owner_email`

const reportColumns = `id, well_id, report_date, report_no, current_depth, progress,
	mud_density, mud_viscosity, mud_ph, avg_rop, bit_number, operation_summary, next_plan`

type scanner interface {
	Scan(dest ...any) error
}

// ListWells returns wells matching f ordered by id.
func (s *Store) ListWells(ctx context.Context, f storage.WellFilter) ([]model.Well, error) {
	var (
		where []string
		args  []any
	)
	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		like := "%" + kw + "%"
		where = append(where, "(id LIKE ? OR name LIKE ? OR block LIKE ?)")
		args = append(args, like, like, like)
	}
	if st := f.StatusFilter(); st != "" {
		where = append(where, "status = ?")
		args = append(args, st)
	}
	if f.Block != "" {
		where = append(where, "block = ?")
		args = append(args, f.Block)
	}
	q := `SELECT ` + wellColumns + ` FROM wells`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list wells: %w", err)
	}
	defer rows.Close()

	var wells []model.Well
	for rows.Next() {
		w, err := scanWell(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan well: %w", err)
		}
		wells = append(wells, w)
	}
	return wells, rows.Err()
}

// GetWell returns a single well or storage.ErrNotFound.
func (s *Store) GetWell(ctx context.Context, id string) (model.Well, error) {
	w, err := scanWell(s.db.QueryRowContext(ctx, `SELECT `+wellColumns+` FROM wells WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Well{}, fmt.Errorf("sqlite: well %s: %w", id, storage.ErrNotFound)
		}
		return model.Well{}, fmt.Errorf("sqlite: get well: %w", err)
	}
	return w, nil
}

// ListCasings returns the casing runs of a well ordered by shoe depth.
func (s *Store) ListCasings(ctx context.Context, wellID string) ([]model.CasingProgram, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, well_id, run_number, run_date, size, shoe_depth, cement_top
		 FROM casing_programs WHERE well_id = ? ORDER BY shoe_depth, run_number`, wellID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list casings: %w", err)
	}
	defer rows.Close()

	var out []model.CasingProgram
	for rows.Next() {
		var (
			c       model.CasingProgram
			runDate sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.WellID, &c.RunNumber, &runDate, &c.Size, &c.ShoeDepth, &c.CementTop); err != nil {
			return nil, fmt.Errorf("sqlite: scan casing: %w", err)
		}
		if c.RunDate, err = parseNullDate(runDate); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// RecentReports returns up to limit reports for a well, newest first.
func (s *Store) RecentReports(ctx context.Context, wellID string, limit int) ([]model.DailyReport, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM daily_reports WHERE well_id = ? ORDER BY report_date DESC LIMIT ?`,
		wellID, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: recent reports: %w", err)
	}
	return collectReports(rows)
}

// GetReport returns the report for a well on a date, with NPT events.
func (s *Store) GetReport(ctx context.Context, wellID string, date time.Time) (model.DailyReport, error) {
	day := date.Format(model.DateLayout)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM daily_reports WHERE well_id = ? AND report_date = ?`, wellID, day)
	if err != nil {
		return model.DailyReport{}, fmt.Errorf("sqlite: get report: %w", err)
	}
	reports, err := collectReports(rows)
	if err != nil {
		return model.DailyReport{}, err
	}
	if len(reports) == 0 {
		return model.DailyReport{}, fmt.Errorf("sqlite: report %s %s: %w", wellID, day, storage.ErrNotFound)
	}
	if err := s.attachNPT(ctx, reports); err != nil {
		return model.DailyReport{}, err
	}
	return reports[0], nil
}

// ListReports returns reports matching f ordered by well and date, with NPT
// events attached.
func (s *Store) ListReports(ctx context.Context, f storage.ReportFilter) ([]model.DailyReport, error) {
	var (
		where []string
		args  []any
	)
	if len(f.WellIDs) > 0 {
		where = append(where, "well_id IN ("+placeholders(len(f.WellIDs))+")")
		for _, id := range f.WellIDs {
			args = append(args, id)
		}
	}
	if !f.From.IsZero() {
		where = append(where, "report_date >= ?")
		args = append(args, f.From.Format(model.DateLayout))
	}
	if !f.To.IsZero() {
		where = append(where, "report_date <= ?")
		args = append(args, f.To.Format(model.DateLayout))
	}
	q := `SELECT ` + reportColumns + ` FROM daily_reports`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY well_id, report_date"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list reports: %w", err)
	}
	reports, err := collectReports(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachNPT(ctx, reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func (s *Store) attachNPT(ctx context.Context, reports []model.DailyReport) error {
	if len(reports) == 0 {
		return nil
	}
	args := make([]any, len(reports))
	index := make(map[int64]int, len(reports))
	for i, r := range reports {
		args[i] = r.ID
		index[r.ID] = i
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, report_id, category, duration, severity, description
		 FROM npt_events WHERE report_id IN (`+placeholders(len(args))+`) ORDER BY report_id, id`, args...)
	if err != nil {
		return fmt.Errorf("sqlite: list npt events: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e model.NPTEvent
		if err := rows.Scan(&e.ID, &e.ReportID, &e.Category, &e.Duration, &e.Severity, &e.Description); err != nil {
			return fmt.Errorf("sqlite: scan npt event: %w", err)
		}
		i := index[e.ReportID]
		reports[i].NPTEvents = append(reports[i].NPTEvents, e)
	}
	return rows.Err()
}

func collectReports(rows *sql.Rows) ([]model.DailyReport, error) {
	defer rows.Close()
	var out []model.DailyReport
	for rows.Next() {
		var (
			r   model.DailyReport
			day string
		)
		if err := rows.Scan(&r.ID, &r.WellID, &day, &r.ReportNo, &r.CurrentDepth, &r.Progress,
			&r.MudDensity, &r.MudViscosity, &r.MudPH, &r.AvgROP, &r.BitNumber,
			&r.OperationSummary, &r.NextPlan); err != nil {
			return nil, fmt.Errorf("sqlite: scan report: %w", err)
		}
		t, err := time.Parse(model.DateLayout, day)
		if err != nil {
			return nil, fmt.Errorf("sqlite: report %d has bad date %q: %w", r.ID, day, err)
		}
		r.ReportDate = t
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate reports: %w", err)
	}
	return out, nil
}

func scanWell(row scanner) (model.Well, error) {
	var (
		w    model.Well
		spud sql.NullString
	)
	if err := row.Scan(&w.ID, &w.Name, &w.Block, &w.TargetDepth, &spud, &w.Status,
		&w.WellType, &w.Team, &w.Rig, &w.OwnerUserID, &w.OwnerEmail); err != nil {
		return model.Well{}, err
	}
	d, err := parseNullDate(spud)
	if err != nil {
		return model.Well{}, err
	}
	w.SpudDate = d
	return w, nil
}

func parseNullDate(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(model.DateLayout, s.String)
	if err != nil {
		return nil, fmt.Errorf("sqlite: bad date %q: %w", s.String, err)
	}
	return &t, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func formatNullDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(model.DateLayout)
}
