package purchase

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

const purchaseColumns = `id, supplier_id, supplier_name, supplier_phone, total_amount, purchase_date, notes, created_at, updated_at`

type postgresRepo struct {
	db     *sql.DB
	policy ledger.OversellPolicy
}

// NewPostgresRepository creates a purchase repository that keeps stock records in step
// with every write, folding them under policy.
func NewPostgresRepository(db *sql.DB, policy ledger.OversellPolicy) Repository {
	return &postgresRepo{db: db, policy: policy}
}

// CreatePurchase inserts the purchase, its items and the stock record updates in one transaction.
func (r *postgresRepo) CreatePurchase(ctx context.Context, p *ledger.Purchase) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO purchases (id, supplier_id, supplier_name, supplier_phone, total_amount, purchase_date, notes)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			RETURNING created_at, updated_at`,
			p.ID, p.SupplierID, p.SupplierName, p.SupplierPhone, p.TotalAmount, p.PurchaseDate, p.Notes).
			Scan(&p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("purchase: insert: %w", database.MapError(err))
		}
		if err := insertItems(ctx, tx, p); err != nil {
			return err
		}
		return inventory.NewStockTx(tx, r.policy).ApplyPurchase(ctx, p)
	})
}

func insertItems(ctx context.Context, tx *sql.Tx, p *ledger.Purchase) error {
	for i, it := range p.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO purchase_items (purchase_id, line_no, item_id, item_name, quantity, cost_per_unit, total_cost)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			p.ID, i, it.ItemID, it.ItemName, it.Quantity, it.CostPerUnit, it.TotalCost)
		if err != nil {
			return fmt.Errorf("purchase: insert item %d: %w", i, database.MapError(err))
		}
	}
	return nil
}

func (r *postgresRepo) GetPurchase(ctx context.Context, id uuid.UUID) (*ledger.Purchase, error) {
	out, err := r.query(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE id=$1`, id)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("purchase: get %s: %w", id, httpx.ErrNotFound)
	}
	return &out[0], nil
}

func (r *postgresRepo) ListPurchases(ctx context.Context, f ListFilter) ([]ledger.Purchase, error) {
	var (
		conds []string
		args  []any
	)
	if f.SupplierID != nil {
		args = append(args, *f.SupplierID)
		conds = append(conds, fmt.Sprintf("supplier_id=$%d", len(args)))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		conds = append(conds, fmt.Sprintf("purchase_date>=$%d", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		conds = append(conds, fmt.Sprintf("purchase_date<$%d", len(args)))
	}
	query := `SELECT ` + purchaseColumns + ` FROM purchases`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY purchase_date DESC, created_at DESC`
	return r.query(ctx, query, args...)
}

func (r *postgresRepo) ListAllPurchases(ctx context.Context) ([]ledger.Purchase, error) {
	return r.query(ctx, `SELECT `+purchaseColumns+` FROM purchases`)
}

// ReplacePurchase rewrites the header and lines, then rebuilds the stock records of every
// item the old or new lines referenced.
func (r *postgresRepo) ReplacePurchase(ctx context.Context, p *ledger.Purchase) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		oldIDs, err := linkedItems(ctx, tx, p.ID)
		if err != nil {
			return err
		}
		err = tx.QueryRowContext(ctx, `
			UPDATE purchases
			SET supplier_id=$2, supplier_name=$3, supplier_phone=$4, total_amount=$5,
			    purchase_date=$6, notes=$7, updated_at=$8
			WHERE id=$1
			RETURNING created_at, updated_at`,
			p.ID, p.SupplierID, p.SupplierName, p.SupplierPhone, p.TotalAmount,
			p.PurchaseDate, p.Notes, time.Now().UTC()).
			Scan(&p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("purchase: update %s: %w", p.ID, database.MapError(err))
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM purchase_items WHERE purchase_id=$1`, p.ID); err != nil {
			return fmt.Errorf("purchase: clear items: %w", err)
		}
		if err := insertItems(ctx, tx, p); err != nil {
			return err
		}
		return inventory.NewStockTx(tx, r.policy).Rebuild(ctx, append(oldIDs, p.ItemIDs()...))
	})
}

func (r *postgresRepo) DeletePurchase(ctx context.Context, id uuid.UUID) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		oldIDs, err := linkedItems(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM purchase_items WHERE purchase_id=$1`, id); err != nil {
			return fmt.Errorf("purchase: delete items: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM purchases WHERE id=$1`, id)
		if err != nil {
			return fmt.Errorf("purchase: delete %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("purchase: delete %s: %w", id, httpx.ErrNotFound)
		}
		return inventory.NewStockTx(tx, r.policy).Rebuild(ctx, oldIDs)
	})
}

// ── helpers ──────────────────────────────────────────────────────────────────

func linkedItems(ctx context.Context, tx *sql.Tx, purchaseID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT DISTINCT item_id FROM purchase_items
		WHERE purchase_id=$1 AND item_id IS NOT NULL`, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("purchase: linked items: %w", err)
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

// query loads headers with query and then their lines in a single follow-up query.
func (r *postgresRepo) query(ctx context.Context, query string, args ...any) ([]ledger.Purchase, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("purchase: list: %w", err)
	}
	defer rows.Close()

	var (
		out []ledger.Purchase
		ids []string
	)
	for rows.Next() {
		var p ledger.Purchase
		var supplierID uuid.NullUUID
		if err := rows.Scan(&p.ID, &supplierID, &p.SupplierName, &p.SupplierPhone, &p.TotalAmount,
			&p.PurchaseDate, &p.Notes, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("purchase: scan: %w", err)
		}
		if supplierID.Valid {
			p.SupplierID = &supplierID.UUID
		}
		p.Items = []ledger.PurchaseItem{}
		out = append(out, p)
		ids = append(ids, p.ID.String())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	items, err := r.db.QueryContext(ctx, `
		SELECT purchase_id, item_id, item_name, quantity, cost_per_unit, total_cost
		FROM purchase_items WHERE purchase_id = ANY($1::uuid[])
		ORDER BY purchase_id, line_no`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("purchase: list items: %w", err)
	}
	defer items.Close()

	index := make(map[uuid.UUID]int, len(out))
	for i := range out {
		index[out[i].ID] = i
	}
	for items.Next() {
		var (
			purchaseID uuid.UUID
			itemID     uuid.NullUUID
			it         ledger.PurchaseItem
		)
		if err := items.Scan(&purchaseID, &itemID, &it.ItemName, &it.Quantity, &it.CostPerUnit, &it.TotalCost); err != nil {
			return nil, fmt.Errorf("purchase: scan item: %w", err)
		}
		if itemID.Valid {
			id := itemID.UUID
			it.ItemID = &id
		}
		p := &out[index[purchaseID]]
		p.Items = append(p.Items, it)
	}
	return out, items.Err()
}
