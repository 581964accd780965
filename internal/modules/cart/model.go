package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxLineQuantity caps a single cart line.
const MaxLineQuantity = 99

// Cart is a storefront cart priced against the current catalog.
type Cart struct {
	ID        uuid.UUID       `json:"id"`
	Lines     []Line          `json:"lines"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Currency  string          `json:"currency"`
}

// Line is one product in a cart. UnitPrice is the discounted catalog price.
type Line struct {
	ProductID       uuid.UUID       `json:"product_id"`
	Name            string          `json:"name"`
	Slug            string          `json:"slug"`
	Image           string          `json:"image,omitempty"`
	Price           decimal.Decimal `json:"price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	InStock         bool            `json:"in_stock"`
	Quantity        int             `json:"quantity"`
	LineTotal       decimal.Decimal `json:"line_total"`
}

// AddRequest adds quantity of a product, merging with an existing line.
type AddRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"omitempty,min=1,max=99"`
}

// QuantityRequest sets the quantity of a line; zero removes it.
type QuantityRequest struct {
	Quantity int `json:"quantity" validate:"min=0,max=99"`
}
