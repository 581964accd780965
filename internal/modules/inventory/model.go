package inventory

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/turbotech/turboparts-backend/internal/modules/ledger"
	"github.com/turbotech/turboparts-backend/internal/modules/search"
)

// Snapshot is the complete purchase and sale history at one point in time.
// Nothing in this package modifies it.
type Snapshot struct {
	Purchases []ledger.Purchase
	Sales     []ledger.Sale
}

// Inventory reconciles the snapshot by item name.
func (s *Snapshot) Inventory() *ledger.Inventory {
	return ledger.Reconcile(s.Purchases, s.Sales)
}

// WithoutSale returns a snapshot that leaves out the sale with the given id. Used when
// a sale is replaced and must not count against its own new lines.
func (s *Snapshot) WithoutSale(id uuid.UUID) *Snapshot {
	sales := make([]ledger.Sale, 0, len(s.Sales))
	for _, sale := range s.Sales {
		if sale.ID != id {
			sales = append(sales, sale)
		}
	}
	return &Snapshot{Purchases: s.Purchases, Sales: sales}
}

// Overview is the full stock report of the admin inventory page.
type Overview struct {
	Items      []ledger.StockLevel `json:"items"`
	ItemCount  int                 `json:"item_count"`
	TotalValue decimal.Decimal     `json:"total_value"`
	Currency   string              `json:"currency"`
	Oversold   map[string]int      `json:"oversold,omitempty"`
}

// SearchHit is one admin inventory search result with its current stock.
type SearchHit struct {
	search.Match
	Stock ledger.StockLevel `json:"stock"`
}
