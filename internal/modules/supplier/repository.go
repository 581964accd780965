package supplier

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines supplier storage.
type Repository interface {
	CreateSupplier(ctx context.Context, s *Supplier) error
	GetSupplier(ctx context.Context, id uuid.UUID) (*Supplier, error)
	// ListSuppliers matches query against name and phone; empty lists all.
	ListSuppliers(ctx context.Context, query string) ([]*Supplier, error)
	UpdateSupplier(ctx context.Context, s *Supplier) error
	DeleteSupplier(ctx context.Context, id uuid.UUID) error
}
