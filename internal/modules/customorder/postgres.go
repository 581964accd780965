package customorder

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/turbotech/turboparts-backend/internal/platform/database"
	"github.com/turbotech/turboparts-backend/internal/platform/httpx"
)

const columns = `id, number, customer_name, phone, email, city, vehicle_make, vehicle_model, vehicle_year,
	part_description, quantity, budget, notes, status, admin_notes, created_at, updated_at`

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Create(ctx context.Context, o *CustomOrder) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO custom_orders
		  (id, number, customer_name, phone, email, city, vehicle_make, vehicle_model, vehicle_year,
		   part_description, quantity, budget, notes, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING created_at, updated_at`,
		o.ID, o.Number, o.CustomerName, o.Phone, o.Email, o.City, o.VehicleMake, o.VehicleModel,
		o.VehicleYear, o.PartDescription, o.Quantity, nullDecimal(o.Budget), o.Notes, o.Status).
		Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("customorder: create: %w", database.MapError(err))
	}
	return nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*CustomOrder, error) {
	o, err := scan(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM custom_orders WHERE id=$1`, id).Scan)
	if err != nil {
		return nil, fmt.Errorf("customorder: get %s: %w", id, database.MapError(err))
	}
	return o, nil
}

func (r *postgresRepo) List(ctx context.Context, status Status) ([]*CustomOrder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+columns+` FROM custom_orders
		WHERE $1 = '' OR status = $1
		ORDER BY created_at DESC`, string(status))
	if err != nil {
		return nil, fmt.Errorf("customorder: list: %w", err)
	}
	defer rows.Close()
	var out []*CustomOrder
	for rows.Next() {
		o, err := scan(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("customorder: scan: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, adminNotes string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE custom_orders SET status=$1, admin_notes=$2, updated_at=$3 WHERE id=$4`,
		status, adminNotes, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("customorder: update status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("customorder: update status %s: %w", id, httpx.ErrNotFound)
	}
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM custom_orders WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("customorder: delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("customorder: delete %s: %w", id, httpx.ErrNotFound)
	}
	return nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func scan(fn func(...any) error) (*CustomOrder, error) {
	o := &CustomOrder{}
	var budget decimal.NullDecimal
	err := fn(&o.ID, &o.Number, &o.CustomerName, &o.Phone, &o.Email, &o.City, &o.VehicleMake,
		&o.VehicleModel, &o.VehicleYear, &o.PartDescription, &o.Quantity, &budget, &o.Notes,
		&o.Status, &o.AdminNotes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if budget.Valid {
		o.Budget = &budget.Decimal
	}
	return o, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
