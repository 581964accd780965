// Package ledger holds the purchase and sale records of the back office and the pure
// computations derived from them: stock reconciliation, the stock availability gate,
// per-item stock records and profit analysis. Nothing here performs I/O.
package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod records how a customer settled a sale.
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "CASH"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentCard         PaymentMethod = "CARD"
	PaymentMobileWallet PaymentMethod = "MOBILE_WALLET"
	PaymentCredit       PaymentMethod = "CREDIT"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentBankTransfer, PaymentCard, PaymentMobileWallet, PaymentCredit:
		return true
	}
	return false
}

// PurchaseItem is one line of a purchase. ItemID optionally links the line to a catalog
// product; lines without it only take part in name-keyed reconciliation.
type PurchaseItem struct {
	ItemName    string          `json:"item_name"`
	ItemID      *uuid.UUID      `json:"item_id,omitempty"`
	Quantity    int             `json:"quantity"`
	CostPerUnit decimal.Decimal `json:"cost_per_unit"`
	TotalCost   decimal.Decimal `json:"total_cost"`
}

// Purchase is an inbound inventory transaction from a supplier.
type Purchase struct {
	ID            uuid.UUID       `json:"id"`
	SupplierID    *uuid.UUID      `json:"supplier_id,omitempty"`
	SupplierName  string          `json:"supplier_name"`
	SupplierPhone string          `json:"supplier_phone,omitempty"`
	Items         []PurchaseItem  `json:"items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PurchaseDate  time.Time       `json:"purchase_date"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// SaleItem is one line of a sale.
type SaleItem struct {
	ItemName     string          `json:"item_name"`
	ItemID       *uuid.UUID      `json:"item_id,omitempty"`
	Quantity     int             `json:"quantity"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	TotalPrice   decimal.Decimal `json:"total_price"`
}

// Sale is an outbound inventory transaction to a customer.
type Sale struct {
	ID            uuid.UUID       `json:"id"`
	CustomerID    *uuid.UUID      `json:"customer_id,omitempty"` // nil for walk-in customers
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone,omitempty"`
	CustomerCity  string          `json:"customer_city,omitempty"`
	Items         []SaleItem      `json:"items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	SaleDate      time.Time       `json:"sale_date"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewPurchaseItem builds a line with its total computed.
func NewPurchaseItem(name string, qty int, costPerUnit decimal.Decimal) PurchaseItem {
	return PurchaseItem{
		ItemName:    name,
		Quantity:    qty,
		CostPerUnit: costPerUnit,
		TotalCost:   costPerUnit.Mul(decimal.NewFromInt(int64(qty))),
	}
}

// NewSaleItem builds a line with its total computed.
func NewSaleItem(name string, qty int, pricePerUnit decimal.Decimal) SaleItem {
	return SaleItem{
		ItemName:     name,
		Quantity:     qty,
		PricePerUnit: pricePerUnit,
		TotalPrice:   pricePerUnit.Mul(decimal.NewFromInt(int64(qty))),
	}
}

// Recalculate recomputes line totals and the purchase total from quantities and unit costs.
func (p *Purchase) Recalculate() {
	total := decimal.Zero
	for i := range p.Items {
		it := &p.Items[i]
		it.TotalCost = it.CostPerUnit.Mul(decimal.NewFromInt(int64(it.Quantity)))
		total = total.Add(it.TotalCost)
	}
	p.TotalAmount = total
}

// Recalculate recomputes line totals and the sale total from quantities and unit prices.
func (s *Sale) Recalculate() {
	total := decimal.Zero
	for i := range s.Items {
		it := &s.Items[i]
		it.TotalPrice = it.PricePerUnit.Mul(decimal.NewFromInt(int64(it.Quantity)))
		total = total.Add(it.TotalPrice)
	}
	s.TotalAmount = total
}

// ItemIDs returns the distinct catalog ids linked from the purchase lines.
func (p *Purchase) ItemIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.Items))
	for _, it := range p.Items {
		ids = appendID(ids, it.ItemID)
	}
	return ids
}

// ItemIDs returns the distinct catalog ids linked from the sale lines.
func (s *Sale) ItemIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.Items))
	for _, it := range s.Items {
		ids = appendID(ids, it.ItemID)
	}
	return ids
}

// ItemNames returns the distinct normalized item names of the sale, first-seen order.
func (s *Sale) ItemNames() []string {
	seen := make(map[string]struct{}, len(s.Items))
	names := make([]string, 0, len(s.Items))
	for _, it := range s.Items {
		key := NormalizeName(it.ItemName)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, key)
	}
	return names
}

func appendID(ids []uuid.UUID, id *uuid.UUID) []uuid.UUID {
	if id == nil {
		return ids
	}
	for _, existing := range ids {
		if existing == *id {
			return ids
		}
	}
	return append(ids, *id)
}
