package customer

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a buyer recorded by the back office. Walk-in sales need no customer record.
type Customer struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	City      string    `json:"city,omitempty"`
	Address   string    `json:"address,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Request struct {
	Name    string `json:"name" validate:"required,max=150"`
	Phone   string `json:"phone" validate:"required,max=30"`
	Email   string `json:"email" validate:"omitempty,email"`
	City    string `json:"city" validate:"max=100"`
	Address string `json:"address" validate:"max=300"`
	Notes   string `json:"notes" validate:"max=2000"`
}
