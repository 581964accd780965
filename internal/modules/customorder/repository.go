package customorder

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines data access for custom orders.
type Repository interface {
	Create(ctx context.Context, o *CustomOrder) error

	GetByID(ctx context.Context, id uuid.UUID) (*CustomOrder, error)

	// List returns custom orders newest first, optionally filtered by status.
	List(ctx context.Context, status Status) ([]*CustomOrder, error)

	// UpdateStatus stores the new status and admin notes.
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, adminNotes string) error

	Delete(ctx context.Context, id uuid.UUID) error
}
