package catalog

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/turbotech/turboparts-backend/internal/modules/search"
)

var hundred = decimal.NewFromInt(100)

// Product is a part listed on the storefront.
type Product struct {
	ID                 uuid.UUID       `json:"id"`
	Name               string          `json:"name"`
	Slug               string          `json:"slug"`
	Description        string          `json:"description,omitempty"`
	Category           string          `json:"category"`
	CompatibleVehicles []string        `json:"compatible_vehicles"`
	Price              decimal.Decimal `json:"price"`
	DiscountPercent    decimal.Decimal `json:"discount_percent"`
	DiscountedPrice    decimal.Decimal `json:"discounted_price"`
	Images             []string        `json:"images"`
	Brand              string          `json:"brand,omitempty"`
	PartNumber         string          `json:"part_number,omitempty"`
	InStock            bool            `json:"in_stock"`
	Featured           bool            `json:"featured"`
	IsActive           bool            `json:"is_active"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// ApplyDiscount derives DiscountedPrice from Price and DiscountPercent, to two places.
func (p *Product) ApplyDiscount() {
	factor := hundred.Sub(p.DiscountPercent).Div(hundred)
	p.DiscountedPrice = p.Price.Mul(factor).Round(2)
}

// Searchable is the view of the product used by the storefront search.
func (p *Product) Searchable() search.Searchable {
	return search.Searchable{
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Vehicles:    p.CompatibleVehicles,
		Price:       p.DiscountedPrice,
	}
}

// ListFilter narrows product listings. Zero values mean no filter.
type ListFilter struct {
	Category   string
	Featured   bool
	ActiveOnly bool
}

// Slugify turns a product name into a URL path segment: "GT3576 Turbo (Hilux)" -> "gt3576-turbo-hilux".
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
