package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

var _ Seeder = (*DB)(nil)

// Seed loads fx in one transaction. Rows that already exist (same well id,
// same well and report date, same well and casing run) are left untouched,
// so seeding twice is harmless. Replicas seeding at the same time can
// deadlock on the unique indexes; such attempts are retried.
func (db *DB) Seed(ctx context.Context, fx Fixtures) error {
	return WithRetry(ctx, seedRetries, seedRetryDelay, func() error {
		return db.seedOnce(ctx, fx)
	})
}

const (
	seedRetries    = 3
	seedRetryDelay = 50 * time.Millisecond
)

func (db *DB) seedOnce(ctx context.Context, fx Fixtures) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("storage: begin seed tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, w := range fx.Wells {
		if _, err := tx.Exec(ctx,
			`INSERT INTO wells (`+wellColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 ON CONFLICT (id) DO NOTHING`,
			w.ID, w.Name, w.Block, w.TargetDepth, w.SpudDate, w.Status, w.WellType,
			w.Team, w.Rig, w.OwnerUserID, w.OwnerEmail,
		); err != nil {
			return fmt.Errorf("storage: seed well %s: %w", w.ID, err)
		}
	}

	inserted := 0
	for _, r := range fx.Reports {
		var id int64
		err := tx.QueryRow(ctx,
			`INSERT INTO daily_reports (well_id, report_date, report_no, current_depth, progress,
				mud_density, mud_viscosity, mud_ph, avg_rop, bit_number, operation_summary, next_plan)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			 ON CONFLICT (well_id, report_date) DO NOTHING
			 RETURNING id`,
			r.WellID, dateOnly(r.ReportDate), r.ReportNo, r.CurrentDepth, r.Progress,
			r.MudDensity, r.MudViscosity, r.MudPH, r.AvgROP, r.BitNumber,
			r.OperationSummary, r.NextPlan,
		).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return fmt.Errorf("storage: seed report %s %s: %w", r.WellID, r.DateString(), err)
		}
		inserted++
		for _, e := range r.NPTEvents {
			if _, err := tx.Exec(ctx,
				`INSERT INTO npt_events (report_id, category, duration, severity, description)
				 VALUES ($1, $2, $3, $4, $5)`,
				id, e.Category, e.Duration, e.Severity, e.Description,
			); err != nil {
				return fmt.Errorf("storage: seed npt event: %w", err)
			}
		}
	}

	for _, c := range fx.Casings {
		if _, err := tx.Exec(ctx,
			`INSERT INTO casing_programs (well_id, run_number, run_date, size, shoe_depth, cement_top)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (well_id, run_number) DO NOTHING`,
			c.WellID, c.RunNumber, c.RunDate, c.Size, c.ShoeDepth, c.CementTop,
		); err != nil {
			return fmt.Errorf("storage: seed casing %s/%d: %w", c.WellID, c.RunNumber, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("storage: commit seed: %w", err)
	}
	db.logger.Info("storage: seeded fixtures",
		"wells", len(fx.Wells), "reports_inserted", inserted, "casings", len(fx.Casings))
	return nil
}
