package supplier

import (
	"time"

	"github.com/google/uuid"
)

// Supplier is a business the shop buys parts from.
type Supplier struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	City      string    `json:"city,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Request holds the fields an admin sets when creating or replacing a supplier.
type Request struct {
	Name    string `json:"name" validate:"required,max=150"`
	Phone   string `json:"phone" validate:"omitempty,max=30"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address" validate:"max=300"`
	City    string `json:"city" validate:"max=100"`
	Notes   string `json:"notes" validate:"max=2000"`
}
