package supplier

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/turbotech/turboparts-backend/internal/platform/database"
	"github.com/turbotech/turboparts-backend/internal/platform/httpx"
)

type postgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgreSQL supplier repository.
func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateSupplier(ctx context.Context, s *Supplier) error {
	query := `
		INSERT INTO suppliers (id, name, phone, email, address, city, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, s.ID, s.Name, s.Phone, s.Email, s.Address, s.City, s.Notes).
		Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("supplier: create: %w", database.MapError(err))
	}
	return nil
}

func scanSupplier(scan func(...any) error) (*Supplier, error) {
	s := &Supplier{}
	err := scan(&s.ID, &s.Name, &s.Phone, &s.Email, &s.Address, &s.City, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *postgresRepository) GetSupplier(ctx context.Context, id uuid.UUID) (*Supplier, error) {
	query := `
		SELECT id, name, phone, email, address, city, notes, created_at, updated_at
		FROM suppliers
		WHERE id = $1
	`
	s, err := scanSupplier(r.db.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		return nil, fmt.Errorf("supplier: get %s: %w", id, database.MapError(err))
	}
	return s, nil
}

func (r *postgresRepository) ListSuppliers(ctx context.Context, q string) ([]*Supplier, error) {
	query := `
		SELECT id, name, phone, email, address, city, notes, created_at, updated_at
		FROM suppliers
		WHERE $1 = '' OR name ILIKE '%' || $1 || '%' OR phone ILIKE '%' || $1 || '%'
		ORDER BY name
	`
	rows, err := r.db.QueryContext(ctx, query, q)
	if err != nil {
		return nil, fmt.Errorf("supplier: list: %w", err)
	}
	defer rows.Close()

	var out []*Supplier
	for rows.Next() {
		s, err := scanSupplier(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("supplier: scan: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *postgresRepository) UpdateSupplier(ctx context.Context, s *Supplier) error {
	query := `
		UPDATE suppliers
		SET name = $1, phone = $2, email = $3, address = $4, city = $5, notes = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, s.Name, s.Phone, s.Email, s.Address, s.City, s.Notes, s.ID).
		Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("supplier: update %s: %w", s.ID, database.MapError(err))
	}
	return nil
}

func (r *postgresRepository) DeleteSupplier(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("supplier: delete %s: %w", id, database.MapError(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("supplier: delete %s: %w", id, httpx.ErrNotFound)
	}
	return nil
}
