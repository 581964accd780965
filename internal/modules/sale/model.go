// Package sale records outbound stock and refuses sales the reconciled stock cannot cover.
package sale

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/turbotech/turboparts-backend/internal/modules/ledger"
	"github.com/turbotech/turboparts-backend/internal/platform/httpx"
)

// ItemRequest is one sale line as submitted by the back office.
type ItemRequest struct {
	ItemName     string          `json:"item_name" validate:"required,max=200"`
	ItemID       *uuid.UUID      `json:"item_id"`
	Quantity     int             `json:"quantity" validate:"min=1"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
}

// Request creates or fully replaces a sale. Without customer_id the customer fields
// describe a walk-in buyer.
type Request struct {
	CustomerID    *uuid.UUID           `json:"customer_id"`
	CustomerName  string               `json:"customer_name" validate:"max=150"`
	CustomerPhone string               `json:"customer_phone" validate:"max=30"`
	CustomerCity  string               `json:"customer_city" validate:"max=100"`
	Items         []ItemRequest        `json:"items" validate:"required,min=1,dive"`
	SaleDate      *time.Time           `json:"sale_date"`
	PaymentMethod ledger.PaymentMethod `json:"payment_method" validate:"required"`
	Notes         string               `json:"notes" validate:"max=2000"`
}

func (req Request) validate() error {
	if err := httpx.Validate(req); err != nil {
		return err
	}
	if !req.PaymentMethod.Valid() {
		return httpx.FieldError("payment_method", "must be one of [CASH BANK_TRANSFER CARD MOBILE_WALLET CREDIT]")
	}
	for i, it := range req.Items {
		if it.PricePerUnit.IsNegative() {
			return httpx.FieldError(fmt.Sprintf("items[%d].price_per_unit", i), "must be at least 0")
		}
		if strings.TrimSpace(it.ItemName) == "" {
			return httpx.FieldError(fmt.Sprintf("items[%d].item_name", i), "is required")
		}
	}
	if req.CustomerID == nil && strings.TrimSpace(req.CustomerName) == "" {
		return httpx.FieldError("customer_name", "is required without customer_id")
	}
	return nil
}

func (req Request) build(s *ledger.Sale) {
	s.CustomerID = req.CustomerID
	s.CustomerName = strings.TrimSpace(req.CustomerName)
	s.CustomerPhone = strings.TrimSpace(req.CustomerPhone)
	s.CustomerCity = strings.TrimSpace(req.CustomerCity)
	s.PaymentMethod = req.PaymentMethod
	s.Notes = req.Notes
	switch {
	case req.SaleDate != nil:
		s.SaleDate = req.SaleDate.UTC()
	case s.SaleDate.IsZero():
		s.SaleDate = time.Now().UTC()
	}
	s.Items = make([]ledger.SaleItem, len(req.Items))
	for i, it := range req.Items {
		line := ledger.NewSaleItem(strings.TrimSpace(it.ItemName), it.Quantity, it.PricePerUnit)
		line.ItemID = it.ItemID
		s.Items[i] = line
	}
	s.Recalculate()
}

// ListFilter narrows a sale listing. Zero values mean no bound.
type ListFilter struct {
	CustomerID    *uuid.UUID
	PaymentMethod ledger.PaymentMethod
	From          time.Time
	To            time.Time
}

// InsufficientStockError rejects a sale because at least one item is short.
type InsufficientStockError struct {
	Checks []ledger.StockCheck
}

func (e *InsufficientStockError) Error() string {
	return "insufficient stock: " + strings.Join(e.Messages(), "; ")
}

// Messages lists one line per short item.
func (e *InsufficientStockError) Messages() []string {
	return ledger.Denials(e.Checks)
}

func (e *InsufficientStockError) Unwrap() error { return httpx.ErrConflict }
