package purchase

import (
	"context"

	"github.com/google/uuid"

	"github.com/turbotech/turboparts-backend/internal/modules/ledger"
)

// Repository defines data access for purchases.
type Repository interface {
	// CreatePurchase persists the header, its lines and their stock effect atomically.
	CreatePurchase(ctx context.Context, p *ledger.Purchase) error

	GetPurchase(ctx context.Context, id uuid.UUID) (*ledger.Purchase, error)

	// ListPurchases returns purchases matching f, newest first.
	ListPurchases(ctx context.Context, f ListFilter) ([]ledger.Purchase, error)

	// ListAllPurchases returns the complete history for reconciliation.
	ListAllPurchases(ctx context.Context) ([]ledger.Purchase, error)

	// ReplacePurchase overwrites an existing purchase and its lines.
	ReplacePurchase(ctx context.Context, p *ledger.Purchase) error

	DeletePurchase(ctx context.Context, id uuid.UUID) error
}
