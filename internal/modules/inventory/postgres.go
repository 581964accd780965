package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/turbotech/turboparts-backend/internal/modules/ledger"
	"github.com/turbotech/turboparts-backend/internal/platform/database"
)

const stockColumns = `item_id, item_name, total_purchased, total_sold, current_stock, average_cost_price, last_updated`

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type postgresStockRepo struct{ db *sql.DB }

// NewPostgresStockRepository creates a stock record repository on db.
func NewPostgresStockRepository(db *sql.DB) StockRepository { return &postgresStockRepo{db: db} }

func scanRecord(scan func(...any) error) (ledger.StockRecord, error) {
	var rec ledger.StockRecord
	err := scan(&rec.ItemID, &rec.ItemName, &rec.TotalPurchased, &rec.TotalSold,
		&rec.CurrentStock, &rec.AverageCostPrice, &rec.LastUpdated)
	return rec, err
}

func (r *postgresStockRepo) ListStockRecords(ctx context.Context) ([]ledger.StockRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+stockColumns+` FROM stock_records ORDER BY item_name, item_id`)
	if err != nil {
		return nil, fmt.Errorf("inventory: list stock records: %w", err)
	}
	defer rows.Close()
	var out []ledger.StockRecord
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("inventory: scan stock record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *postgresStockRepo) GetStockRecord(ctx context.Context, itemID uuid.UUID) (*ledger.StockRecord, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx, `SELECT `+stockColumns+` FROM stock_records WHERE item_id=$1`, itemID).Scan)
	if err != nil {
		return nil, fmt.Errorf("inventory: stock record %s: %w", itemID, database.MapError(err))
	}
	return &rec, nil
}

func (r *postgresStockRepo) ReplaceAllStockRecords(ctx context.Context, records []ledger.StockRecord) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `LOCK TABLE stock_records IN EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("inventory: lock stock records: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM stock_records`); err != nil {
			return fmt.Errorf("inventory: clear stock records: %w", err)
		}
		for i := range records {
			if err := saveRecord(ctx, tx, &records[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func saveRecord(ctx context.Context, q execer, rec *ledger.StockRecord) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO stock_records (`+stockColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (item_id) DO UPDATE SET
		  item_name=EXCLUDED.item_name, total_purchased=EXCLUDED.total_purchased,
		  total_sold=EXCLUDED.total_sold, current_stock=EXCLUDED.current_stock,
		  average_cost_price=EXCLUDED.average_cost_price, last_updated=EXCLUDED.last_updated`,
		rec.ItemID, rec.ItemName, rec.TotalPurchased, rec.TotalSold,
		rec.CurrentStock, rec.AverageCostPrice, rec.LastUpdated)
	if err != nil {
		return fmt.Errorf("inventory: save stock record %s: %w", rec.ItemID, err)
	}
	return nil
}

// StockTx maintains stock records inside a transaction owned by the purchase or sale
// repository, so a transaction and its stock effect commit together.
type StockTx struct {
	tx     *sql.Tx
	policy ledger.OversellPolicy
}

// NewStockTx binds stock record maintenance to tx.
func NewStockTx(tx *sql.Tx, policy ledger.OversellPolicy) *StockTx {
	return &StockTx{tx: tx, policy: policy}
}

// lock makes sure a row exists for every id and then row-locks them in id order.
// Concurrent writers touching the same items queue here until the first commits.
func (s *StockTx) lock(ctx context.Context, names map[uuid.UUID]string) (map[uuid.UUID]*ledger.StockRecord, error) {
	ids := make([]string, 0, len(names))
	for id := range names {
		ids = append(ids, id.String())
	}
	sort.Strings(ids)
	for _, id := range ids {
		_, err := s.tx.ExecContext(ctx, `
			INSERT INTO stock_records (item_id, item_name, total_purchased, total_sold, current_stock, average_cost_price, last_updated)
			VALUES ($1, $2, 0, 0, 0, 0, $3)
			ON CONFLICT (item_id) DO NOTHING`, id, names[uuid.MustParse(id)], time.Time{})
		if err != nil {
			return nil, fmt.Errorf("inventory: ensure stock record %s: %w", id, err)
		}
	}
	rows, err := s.tx.QueryContext(ctx, `
		SELECT `+stockColumns+` FROM stock_records
		WHERE item_id = ANY($1::uuid[])
		ORDER BY item_id
		FOR UPDATE`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("inventory: lock stock records: %w", err)
	}
	defer rows.Close()
	out := make(map[uuid.UUID]*ledger.StockRecord, len(ids))
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("inventory: scan stock record: %w", err)
		}
		out[rec.ItemID] = &rec
	}
	return out, rows.Err()
}

func (s *StockTx) saveAll(ctx context.Context, recs map[uuid.UUID]*ledger.StockRecord) error {
	for _, rec := range recs {
		if err := saveRecord(ctx, s.tx, rec); err != nil {
			return err
		}
	}
	return nil
}

// backdated reports whether an event dated at lands before history already folded into
// recs. Such a write is replayed from the stored lines instead of applied on top.
func (s *StockTx) backdated(recs map[uuid.UUID]*ledger.StockRecord, at time.Time, sale bool) bool {
	for _, rec := range recs {
		if s.policy.NeedsReplay(rec, at, sale) {
			return true
		}
	}
	return false
}

// ApplyPurchase folds the item-linked lines of p into their stock records. The caller has
// already inserted p's lines in the same transaction.
func (s *StockTx) ApplyPurchase(ctx context.Context, p *ledger.Purchase) error {
	names := make(map[uuid.UUID]string)
	for _, it := range p.Items {
		if it.ItemID != nil {
			names[*it.ItemID] = it.ItemName
		}
	}
	if len(names) == 0 {
		return nil
	}
	recs, err := s.lock(ctx, names)
	if err != nil {
		return err
	}
	if s.backdated(recs, p.PurchaseDate, false) {
		return s.Rebuild(ctx, p.ItemIDs())
	}
	for _, it := range p.Items {
		if it.ItemID == nil {
			continue
		}
		recs[*it.ItemID].ApplyPurchase(it.Quantity, it.TotalCost, p.PurchaseDate)
	}
	return s.saveAll(ctx, recs)
}

// ApplySale folds the item-linked lines of sale into their stock records.
func (s *StockTx) ApplySale(ctx context.Context, sale *ledger.Sale) error {
	names := make(map[uuid.UUID]string)
	for _, it := range sale.Items {
		if it.ItemID != nil {
			names[*it.ItemID] = it.ItemName
		}
	}
	if len(names) == 0 {
		return nil
	}
	recs, err := s.lock(ctx, names)
	if err != nil {
		return err
	}
	if s.backdated(recs, sale.SaleDate, true) {
		return s.Rebuild(ctx, sale.ItemIDs())
	}
	for _, it := range sale.Items {
		if it.ItemID == nil {
			continue
		}
		recs[*it.ItemID].ApplySale(it.Quantity, s.policy, sale.SaleDate)
	}
	return s.saveAll(ctx, recs)
}

// Rebuild recomputes the records of ids from the purchase and sale lines currently
// visible in the transaction. Ids with no remaining history lose their record.
// Duplicate ids are allowed.
func (s *StockTx) Rebuild(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	strs := make([]string, 0, len(ids))
	names := make(map[uuid.UUID]string, len(ids))
	for _, id := range ids {
		if _, dup := names[id]; dup {
			continue
		}
		strs = append(strs, id.String())
		names[id] = ""
	}
	if _, err := s.lock(ctx, names); err != nil {
		return err
	}

	purchases, err := s.purchaseLines(ctx, strs)
	if err != nil {
		return err
	}
	sales, err := s.saleLines(ctx, strs)
	if err != nil {
		return err
	}
	folded := ledger.FoldRecords(purchases, sales, s.policy)

	for id := range names {
		rec, ok := folded[id]
		if !ok {
			if _, err := s.tx.ExecContext(ctx, `DELETE FROM stock_records WHERE item_id=$1`, id); err != nil {
				return fmt.Errorf("inventory: drop stock record %s: %w", id, err)
			}
			continue
		}
		if err := saveRecord(ctx, s.tx, rec); err != nil {
			return err
		}
	}
	return nil
}

// purchaseLines loads every purchase line linked to ids as a one-line purchase.
func (s *StockTx) purchaseLines(ctx context.Context, ids []string) ([]ledger.Purchase, error) {
	rows, err := s.tx.QueryContext(ctx, `
		SELECT p.purchase_date, i.item_id, i.item_name, i.quantity, i.cost_per_unit, i.total_cost
		FROM purchase_items i JOIN purchases p ON p.id = i.purchase_id
		WHERE i.item_id = ANY($1::uuid[])`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("inventory: load purchase lines: %w", err)
	}
	defer rows.Close()
	var out []ledger.Purchase
	for rows.Next() {
		var p ledger.Purchase
		var it ledger.PurchaseItem
		var id uuid.UUID
		if err := rows.Scan(&p.PurchaseDate, &id, &it.ItemName, &it.Quantity, &it.CostPerUnit, &it.TotalCost); err != nil {
			return nil, fmt.Errorf("inventory: scan purchase line: %w", err)
		}
		it.ItemID = &id
		p.Items = []ledger.PurchaseItem{it}
		out = append(out, p)
	}
	return out, rows.Err()
}

// saleLines loads every sale line linked to ids as a one-line sale.
func (s *StockTx) saleLines(ctx context.Context, ids []string) ([]ledger.Sale, error) {
	rows, err := s.tx.QueryContext(ctx, `
		SELECT s.sale_date, i.item_id, i.item_name, i.quantity, i.price_per_unit, i.total_price
		FROM sale_items i JOIN sales s ON s.id = i.sale_id
		WHERE i.item_id = ANY($1::uuid[])`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("inventory: load sale lines: %w", err)
	}
	defer rows.Close()
	var out []ledger.Sale
	for rows.Next() {
		var sale ledger.Sale
		var it ledger.SaleItem
		var id uuid.UUID
		if err := rows.Scan(&sale.SaleDate, &id, &it.ItemName, &it.Quantity, &it.PricePerUnit, &it.TotalPrice); err != nil {
			return nil, fmt.Errorf("inventory: scan sale line: %w", err)
		}
		it.ItemID = &id
		sale.Items = []ledger.SaleItem{it}
		out = append(out, sale)
	}
	return out, rows.Err()
}
