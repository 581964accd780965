package sale

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/turbotech/turboparts-backend/internal/modules/inventory"
	"github.com/turbotech/turboparts-backend/internal/modules/ledger"
	"github.com/turbotech/turboparts-backend/internal/platform/database"
	"github.com/turbotech/turboparts-backend/internal/platform/httpx"
)

const saleColumns = `id, customer_id, customer_name, customer_phone, customer_city, total_amount, sale_date, payment_method, notes, created_at, updated_at`

type postgresRepo struct {
	db     *sql.DB
	policy ledger.OversellPolicy
}

// NewPostgresRepository creates a sale repository. Stock records are updated in the same
// transaction as the sale under policy.
func NewPostgresRepository(db *sql.DB, policy ledger.OversellPolicy) Repository {
	return &postgresRepo{db: db, policy: policy}
}

func (r *postgresRepo) CreateSale(ctx context.Context, s *ledger.Sale) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO sales
			  (id, customer_id, customer_name, customer_phone, customer_city, total_amount, sale_date, payment_method, notes)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			RETURNING created_at, updated_at`,
			s.ID, s.CustomerID, s.CustomerName, s.CustomerPhone, s.CustomerCity,
			s.TotalAmount, s.SaleDate, s.PaymentMethod, s.Notes).
			Scan(&s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return fmt.Errorf("sale: insert: %w", database.MapError(err))
		}
		if err := insertLines(ctx, tx, s); err != nil {
			return err
		}
		return inventory.NewStockTx(tx, r.policy).ApplySale(ctx, s)
	})
}

func insertLines(ctx context.Context, tx *sql.Tx, s *ledger.Sale) error {
	for i, it := range s.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sale_items (sale_id, line_no, item_id, item_name, quantity, price_per_unit, total_price)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			s.ID, i, it.ItemID, it.ItemName, it.Quantity, it.PricePerUnit, it.TotalPrice)
		if err != nil {
			return fmt.Errorf("sale: insert line %d: %w", i, database.MapError(err))
		}
	}
	return nil
}

func (r *postgresRepo) GetSale(ctx context.Context, id uuid.UUID) (*ledger.Sale, error) {
	out, err := r.load(ctx, `SELECT `+saleColumns+` FROM sales WHERE id=$1`, id)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("sale: get %s: %w", id, httpx.ErrNotFound)
	}
	return &out[0], nil
}

func (r *postgresRepo) ListSales(ctx context.Context, f ListFilter) ([]ledger.Sale, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.CustomerID != nil {
		add("customer_id=$%d", *f.CustomerID)
	}
	if f.PaymentMethod != "" {
		add("payment_method=$%d", f.PaymentMethod)
	}
	if !f.From.IsZero() {
		add("sale_date>=$%d", f.From)
	}
	if !f.To.IsZero() {
		add("sale_date<$%d", f.To)
	}
	query := `SELECT ` + saleColumns + ` FROM sales`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	return r.load(ctx, query+` ORDER BY sale_date DESC, created_at DESC`, args...)
}

func (r *postgresRepo) ListAllSales(ctx context.Context) ([]ledger.Sale, error) {
	return r.load(ctx, `SELECT `+saleColumns+` FROM sales`)
}

func (r *postgresRepo) ReplaceSale(ctx context.Context, s *ledger.Sale) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		before, err := linkedItems(ctx, tx, s.ID)
		if err != nil {
			return err
		}
		err = tx.QueryRowContext(ctx, `
			UPDATE sales
			SET customer_id=$2, customer_name=$3, customer_phone=$4, customer_city=$5,
			    total_amount=$6, sale_date=$7, payment_method=$8, notes=$9, updated_at=$10
			WHERE id=$1
			RETURNING created_at, updated_at`,
			s.ID, s.CustomerID, s.CustomerName, s.CustomerPhone, s.CustomerCity,
			s.TotalAmount, s.SaleDate, s.PaymentMethod, s.Notes, time.Now().UTC()).
			Scan(&s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return fmt.Errorf("sale: update %s: %w", s.ID, database.MapError(err))
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM sale_items WHERE sale_id=$1`, s.ID); err != nil {
			return fmt.Errorf("sale: clear lines: %w", err)
		}
		if err := insertLines(ctx, tx, s); err != nil {
			return err
		}
		return inventory.NewStockTx(tx, r.policy).Rebuild(ctx, append(before, s.ItemIDs()...))
	})
}

func (r *postgresRepo) DeleteSale(ctx context.Context, id uuid.UUID) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		before, err := linkedItems(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM sale_items WHERE sale_id=$1`, id); err != nil {
			return fmt.Errorf("sale: delete lines: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM sales WHERE id=$1`, id)
		if err != nil {
			return fmt.Errorf("sale: delete %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("sale: delete %s: %w", id, httpx.ErrNotFound)
		}
		return inventory.NewStockTx(tx, r.policy).Rebuild(ctx, before)
	})
}

func linkedItems(ctx context.Context, tx *sql.Tx, saleID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT DISTINCT item_id FROM sale_items WHERE sale_id=$1 AND item_id IS NOT NULL`, saleID)
	if err != nil {
		return nil, fmt.Errorf("sale: linked items: %w", err)
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *postgresRepo) load(ctx context.Context, query string, args ...any) ([]ledger.Sale, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sale: list: %w", err)
	}
	defer rows.Close()

	var out []ledger.Sale
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var (
			s          ledger.Sale
			customerID uuid.NullUUID
		)
		if err := rows.Scan(&s.ID, &customerID, &s.CustomerName, &s.CustomerPhone, &s.CustomerCity,
			&s.TotalAmount, &s.SaleDate, &s.PaymentMethod, &s.Notes, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sale: scan: %w", err)
		}
		if customerID.Valid {
			s.CustomerID = &customerID.UUID
		}
		s.Items = []ledger.SaleItem{}
		index[s.ID] = len(out)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]string, len(out))
	for i := range out {
		ids[i] = out[i].ID.String()
	}
	lines, err := r.db.QueryContext(ctx, `
		SELECT sale_id, item_id, item_name, quantity, price_per_unit, total_price
		FROM sale_items WHERE sale_id = ANY($1::uuid[])
		ORDER BY sale_id, line_no`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("sale: list lines: %w", err)
	}
	defer lines.Close()
	for lines.Next() {
		var (
			saleID uuid.UUID
			itemID uuid.NullUUID
			it     ledger.SaleItem
		)
		if err := lines.Scan(&saleID, &itemID, &it.ItemName, &it.Quantity, &it.PricePerUnit, &it.TotalPrice); err != nil {
			return nil, fmt.Errorf("sale: scan line: %w", err)
		}
		if itemID.Valid {
			id := itemID.UUID
			it.ItemID = &id
		}
		s := &out[index[saleID]]
		s.Items = append(s.Items, it)
	}
	return out, lines.Err()
}
