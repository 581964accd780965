// Package purchase records inbound stock from suppliers.
package purchase

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/turbotech/turboparts-backend/internal/modules/ledger"
	"github.com/turbotech/turboparts-backend/internal/platform/httpx"
)

// ItemRequest is one purchase line as submitted by the back office.
type ItemRequest struct {
	ItemName    string          `json:"item_name" validate:"required,max=200"`
	ItemID      *uuid.UUID      `json:"item_id"`
	Quantity    int             `json:"quantity" validate:"min=1"`
	CostPerUnit decimal.Decimal `json:"cost_per_unit"`
}

// Request creates or fully replaces a purchase.
type Request struct {
	SupplierID    *uuid.UUID    `json:"supplier_id"`
	SupplierName  string        `json:"supplier_name" validate:"max=200"`
	SupplierPhone string        `json:"supplier_phone" validate:"max=40"`
	Items         []ItemRequest `json:"items" validate:"required,min=1,dive"`
	PurchaseDate  *time.Time    `json:"purchase_date"`
	Notes         string        `json:"notes" validate:"max=2000"`
}

func (req Request) validate() error {
	if err := httpx.Validate(req); err != nil {
		return err
	}
	for i, it := range req.Items {
		if it.CostPerUnit.IsNegative() {
			return httpx.FieldError(fmt.Sprintf("items[%d].cost_per_unit", i), "must be at least 0")
		}
		if strings.TrimSpace(it.ItemName) == "" {
			return httpx.FieldError(fmt.Sprintf("items[%d].item_name", i), "is required")
		}
	}
	if req.SupplierID == nil && strings.TrimSpace(req.SupplierName) == "" {
		return httpx.FieldError("supplier_name", "is required without supplier_id")
	}
	return nil
}

// build turns the request into a purchase with derived totals. The supplier snapshot
// fields are filled in by the service.
func (req Request) build(p *ledger.Purchase) {
	p.SupplierID = req.SupplierID
	p.SupplierName = strings.TrimSpace(req.SupplierName)
	p.SupplierPhone = strings.TrimSpace(req.SupplierPhone)
	p.Notes = req.Notes
	switch {
	case req.PurchaseDate != nil:
		p.PurchaseDate = req.PurchaseDate.UTC()
	case p.PurchaseDate.IsZero():
		p.PurchaseDate = time.Now().UTC()
	}
	p.Items = make([]ledger.PurchaseItem, len(req.Items))
	for i, it := range req.Items {
		line := ledger.NewPurchaseItem(strings.TrimSpace(it.ItemName), it.Quantity, it.CostPerUnit)
		line.ItemID = it.ItemID
		p.Items[i] = line
	}
	p.Recalculate()
}

// ListFilter narrows a purchase listing. Zero values mean no bound.
type ListFilter struct {
	SupplierID *uuid.UUID
	From       time.Time
	To         time.Time
}
