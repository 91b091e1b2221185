package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/oilfield-ai/drillquery/internal/model"
)

const wellColumns = `id, name, block, target_depth, spud_date, status, well_type, team, rig, owner_user_id, owner_email`

// ListWells returns wells matching f ordered by id.
func (db *DB) ListWells(ctx context.Context, f WellFilter) ([]model.Well, error) {
	var (
		where []string
		args  []any
	)
	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		args = append(args, "%"+kw+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(id ILIKE $%d OR name ILIKE $%d OR block ILIKE $%d)", n, n, n))
	}
	if s := f.StatusFilter(); s != "" {
		args = append(args, s)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Block != "" {
		args = append(args, f.Block)
		where = append(where, fmt.Sprintf("block = $%d", len(args)))
	}

	q := `SELECT ` + wellColumns + ` FROM wells`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := db.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list wells: %w", err)
	}
	defer rows.Close()

	var wells []model.Well
	for rows.Next() {
		w, err := scanWell(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan well: %w", err)
		}
		wells = append(wells, w)
	}
	return wells, rows.Err()
}

// GetWell returns a single well or ErrNotFound.
func (db *DB) GetWell(ctx context.Context, id string) (model.Well, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+wellColumns+` FROM wells WHERE id = $1`, id)
	w, err := scanWell(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Well{}, fmt.Errorf("storage: well %s: %w", id, ErrNotFound)
		}
		return model.Well{}, fmt.Errorf("storage: get well: %w", err)
	}
	return w, nil
}

// ListCasings returns the casing runs of a well ordered by shoe depth.
func (db *DB) ListCasings(ctx context.Context, wellID string) ([]model.CasingProgram, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, well_id, run_number, run_date, size, shoe_depth, cement_top
		 FROM casing_programs WHERE well_id = $1 ORDER BY shoe_depth, run_number`, wellID)
	if err != nil {
		return nil, fmt.Errorf("storage: list casings: %w", err)
	}
	defer rows.Close()

	var out []model.CasingProgram
	for rows.Next() {
		var c model.CasingProgram
		if err := rows.Scan(&c.ID, &c.WellID, &c.RunNumber, &c.RunDate, &c.Size, &c.ShoeDepth, &c.CementTop); err != nil {
			return nil, fmt.Errorf("storage: scan casing: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanWell(row pgx.Row) (model.Well, error) {
	var w model.Well
	err := row.Scan(&w.ID, &w.Name, &w.Block, &w.TargetDepth, &w.SpudDate, &w.Status,
		&w.WellType, &w.Team, &w.Rig, &w.OwnerUserID, &w.OwnerEmail)
	return w, err
}
