package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for product storage.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	GetMany(ctx context.Context, ids []uuid.UUID) ([]*Product, error)
	List(ctx context.Context, filter ListFilter) ([]*Product, error)
	Categories(ctx context.Context) ([]string, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}
