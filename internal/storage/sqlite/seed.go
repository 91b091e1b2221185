package sqlite

import (
	"context"
	"fmt"

	"github.com/oilfield-ai/drillquery/internal/storage"
)

// Seed loads fx in one transaction, skipping rows that already exist.
func (s *Store) Seed(ctx context.Context, fx storage.Fixtures) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin seed tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, w := range fx.Wells {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO wells (`+wellColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			w.ID, w.Name, w.Block, w.TargetDepth, formatNullDate(w.SpudDate), w.Status, w.WellType,
			w.Team, w.Rig, w.OwnerUserID, w.OwnerEmail,
		); err != nil {
			return fmt.Errorf("sqlite: seed well %s: %w", w.ID, err)
		}
	}

	inserted := 0
	for _, r := range fx.Reports {
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO daily_reports (well_id, report_date, report_no, current_depth, progress,
				mud_density, mud_viscosity, mud_ph, avg_rop, bit_number, operation_summary, next_plan)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.WellID, r.DateString(), r.ReportNo, r.CurrentDepth, r.Progress,
			r.MudDensity, r.MudViscosity, r.MudPH, r.AvgROP, r.BitNumber,
			r.OperationSummary, r.NextPlan,
		)
		if err != nil {
			return fmt.Errorf("sqlite: seed report %s %s: %w", r.WellID, r.DateString(), err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			continue
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("sqlite: seed report id: %w", err)
		}
		inserted++
		for _, e := range r.NPTEvents {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO npt_events (report_id, category, duration, severity, description) VALUES (?, ?, ?, ?, ?)`,
				id, e.Category, e.Duration, e.Severity, e.Description,
			); err != nil {
				return fmt.Errorf("sqlite: seed npt event: %w", err)
			}
		}
	}

	for _, c := range fx.Casings {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO casing_programs (well_id, run_number, run_date, size, shoe_depth, cement_top)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			c.WellID, c.RunNumber, formatNullDate(c.RunDate), c.Size, c.ShoeDepth, c.CementTop,
		); err != nil {
			return fmt.Errorf("sqlite: seed casing %s/%d: %w", c.WellID, c.RunNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit seed: %w", err)
	}
	s.logger.Info("sqlite: seeded fixtures",
		"wells", len(fx.Wells), "reports_inserted", inserted, "casings", len(fx.Casings))
	return nil
}
