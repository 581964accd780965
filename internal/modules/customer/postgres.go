package customer

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/turbotech/turboparts-backend/internal/platform/database"
	"github.com/turbotech/turboparts-backend/internal/platform/httpx"
)

const customerColumns = `id, name, phone, email, city, address, notes, created_at, updated_at`

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Create(ctx context.Context, c *Customer) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO customers (id, name, phone, email, city, address, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		c.ID, c.Name, c.Phone, c.Email, c.City, c.Address, c.Notes).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("customer: create: %w", database.MapError(err))
	}
	return nil
}

func scanCustomer(scan func(...any) error) (*Customer, error) {
	c := &Customer{}
	if err := scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.City, &c.Address, &c.Notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *postgresRepo) Get(ctx context.Context, id uuid.UUID) (*Customer, error) {
	c, err := scanCustomer(r.db.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id=$1`, id).Scan)
	if err != nil {
		return nil, fmt.Errorf("customer: get %s: %w", id, database.MapError(err))
	}
	return c, nil
}

func (r *postgresRepo) List(ctx context.Context, q string) ([]*Customer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+customerColumns+` FROM customers
		WHERE $1 = '' OR name ILIKE '%' || $1 || '%' OR phone ILIKE '%' || $1 || '%' OR city ILIKE '%' || $1 || '%'
		ORDER BY created_at DESC`, q)
	if err != nil {
		return nil, fmt.Errorf("customer: list: %w", err)
	}
	defer rows.Close()

	var out []*Customer
	for rows.Next() {
		c, err := scanCustomer(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("customer: scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *postgresRepo) Update(ctx context.Context, c *Customer) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE customers
		SET name=$1, phone=$2, email=$3, city=$4, address=$5, notes=$6, updated_at=NOW()
		WHERE id=$7
		RETURNING updated_at`,
		c.Name, c.Phone, c.Email, c.City, c.Address, c.Notes, c.ID).Scan(&c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("customer: update %s: %w", c.ID, database.MapError(err))
	}
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("customer: delete %s: %w", id, database.MapError(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("customer: delete %s: %w", id, httpx.ErrNotFound)
	}
	return nil
}
