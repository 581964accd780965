package customorder

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of a custom order request.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusReviewing Status = "REVIEWING"
	StatusQuoted    Status = "QUOTED"
	StatusConfirmed Status = "CONFIRMED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// CustomOrder is a storefront request for a part the catalog does not list.
type CustomOrder struct {
	ID              uuid.UUID        `json:"id"`
	Number          string           `json:"number"`
	CustomerName    string           `json:"customer_name"`
	Phone           string           `json:"phone"`
	Email           string           `json:"email,omitempty"`
	City            string           `json:"city,omitempty"`
	VehicleMake     string           `json:"vehicle_make,omitempty"`
	VehicleModel    string           `json:"vehicle_model,omitempty"`
	VehicleYear     int              `json:"vehicle_year,omitempty"`
	PartDescription string           `json:"part_description"`
	Quantity        int              `json:"quantity"`
	Budget          *decimal.Decimal `json:"budget,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	Status          Status           `json:"status"`
	AdminNotes      string           `json:"admin_notes,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// SubmitRequest is the storefront payload for a new custom order.
type SubmitRequest struct {
	CustomerName    string           `json:"customer_name" validate:"required,max=150"`
	Phone           string           `json:"phone" validate:"required,max=30"`
	Email           string           `json:"email" validate:"omitempty,email"`
	City            string           `json:"city" validate:"max=100"`
	VehicleMake     string           `json:"vehicle_make" validate:"max=60"`
	VehicleModel    string           `json:"vehicle_model" validate:"max=60"`
	VehicleYear     int              `json:"vehicle_year" validate:"omitempty,min=1950,max=2100"`
	PartDescription string           `json:"part_description" validate:"required,max=2000"`
	Quantity        int              `json:"quantity" validate:"omitempty,min=1,max=1000"`
	Budget          *decimal.Decimal `json:"budget"`
	Notes           string           `json:"notes" validate:"max=2000"`
}

// UpdateStatusRequest is the admin payload for advancing a custom order.
type UpdateStatusRequest struct {
	Status     Status `json:"status" validate:"required"`
	AdminNotes string `json:"admin_notes" validate:"max=2000"`
}
