package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/turbotech/turboparts-backend/internal/platform/database"
	"github.com/turbotech/turboparts-backend/internal/platform/httpx"
)

const productColumns = `id,name,slug,description,category,compatible_vehicles,price,discount_percent,
	images,brand,part_number,in_stock,featured,is_active,created_at,updated_at`

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Create(ctx context.Context, p *Product) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO products
		  (id, name, slug, description, category, compatible_vehicles, price, discount_percent,
		   images, brand, part_number, in_stock, featured, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Slug, p.Description, p.Category, pq.Array(p.CompatibleVehicles),
		p.Price, p.DiscountPercent, pq.Array(p.Images), p.Brand, p.PartNumber,
		p.InStock, p.Featured, p.IsActive).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("catalog: create product: %w", database.MapError(err))
	}
	return nil
}

func scanProduct(scan func(...any) error) (*Product, error) {
	p := &Product{}
	err := scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.Category, pq.Array(&p.CompatibleVehicles),
		&p.Price, &p.DiscountPercent, pq.Array(&p.Images), &p.Brand, &p.PartNumber,
		&p.InStock, &p.Featured, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.ApplyDiscount()
	return p, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id)
	p, err := scanProduct(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("catalog: get product: %w", database.MapError(err))
	}
	return p, nil
}

func (r *postgresRepo) GetBySlug(ctx context.Context, slug string) (*Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE slug=$1`, slug)
	p, err := scanProduct(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("catalog: get product by slug: %w", database.MapError(err))
	}
	return p, nil
}

func (r *postgresRepo) GetMany(ctx context.Context, ids []uuid.UUID) ([]*Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1::uuid[])`, pq.Array(strs))
	if err != nil {
		return nil, fmt.Errorf("catalog: get products: %w", err)
	}
	return collect(rows)
}

func (r *postgresRepo) List(ctx context.Context, filter ListFilter) ([]*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE 1=1`
	args := []any{}
	n := 1
	if filter.Category != "" {
		query += fmt.Sprintf(` AND lower(category)=lower($%d)`, n)
		args = append(args, filter.Category)
		n++
	}
	if filter.Featured {
		query += ` AND featured=true`
	}
	if filter.ActiveOnly {
		query += ` AND is_active=true`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: list products: %w", err)
	}
	return collect(rows)
}

func collect(rows *sql.Rows) ([]*Product, error) {
	defer rows.Close()
	var products []*Product
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("catalog: scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *postgresRepo) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT category FROM products
		WHERE is_active=true AND category <> ''
		ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("catalog: categories: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *postgresRepo) Update(ctx context.Context, p *Product) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE products
		SET name=$1, slug=$2, description=$3, category=$4, compatible_vehicles=$5, price=$6,
		    discount_percent=$7, images=$8, brand=$9, part_number=$10, in_stock=$11,
		    featured=$12, is_active=$13, updated_at=NOW()
		WHERE id=$14
		RETURNING updated_at`,
		p.Name, p.Slug, p.Description, p.Category, pq.Array(p.CompatibleVehicles), p.Price,
		p.DiscountPercent, pq.Array(p.Images), p.Brand, p.PartNumber, p.InStock,
		p.Featured, p.IsActive, p.ID).Scan(&p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("catalog: update product: %w", database.MapError(err))
	}
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("catalog: delete product: %w", database.MapError(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("catalog: product %s: %w", id, httpx.ErrNotFound)
	}
	return nil
}
