package inventory

import (
	"context"

	"github.com/google/uuid"

	"github.com/turbotech/turboparts-backend/internal/modules/ledger"
)

// PurchaseSource lists the complete purchase history. Order is not significant.
type PurchaseSource interface {
	ListAllPurchases(ctx context.Context) ([]ledger.Purchase, error)
}

// SaleSource lists the complete sale history. Order is not significant.
type SaleSource interface {
	ListAllSales(ctx context.Context) ([]ledger.Sale, error)
}

// StockRepository reads and rewrites the persisted item-id stock records.
type StockRepository interface {
	ListStockRecords(ctx context.Context) ([]ledger.StockRecord, error)
	GetStockRecord(ctx context.Context, itemID uuid.UUID) (*ledger.StockRecord, error)
	// ReplaceAllStockRecords swaps the whole table for records atomically.
	ReplaceAllStockRecords(ctx context.Context, records []ledger.StockRecord) error
}
