package sale

import (
	"context"

	"github.com/google/uuid"

	"github.com/turbotech/turboparts-backend/internal/modules/ledger"
)

// Repository defines data access for sales.
type Repository interface {
	// CreateSale persists the header, its lines and their stock effect atomically.
	CreateSale(ctx context.Context, s *ledger.Sale) error

	GetSale(ctx context.Context, id uuid.UUID) (*ledger.Sale, error)

	// ListSales returns sales matching f, newest first.
	ListSales(ctx context.Context, f ListFilter) ([]ledger.Sale, error)

	// ListAllSales returns the complete history for reconciliation.
	ListAllSales(ctx context.Context) ([]ledger.Sale, error)

	// ReplaceSale overwrites an existing sale and its lines.
	ReplaceSale(ctx context.Context, s *ledger.Sale) error

	DeleteSale(ctx context.Context, id uuid.UUID) error
}
