package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

const (
	// DefaultLowStockThreshold is the stock level at or below which an item counts as low.
	DefaultLowStockThreshold = 5
)

// Aggregate is the reconciled state of one item name.
type Aggregate struct {
	Key              string
	ItemName         string // first-seen spelling, for display
	TotalPurchased   int
	TotalSold        int
	PurchaseCost     decimal.Decimal // sum of purchase line totals
	AverageCostPrice decimal.Decimal
}

// RawStock is purchased minus sold. It goes negative when the ledger is oversold.
func (a *Aggregate) RawStock() int {
	return a.TotalPurchased - a.TotalSold
}

// AvailableStock is RawStock clamped at zero. The ledger itself is never corrected.
func (a *Aggregate) AvailableStock() int {
	if s := a.RawStock(); s > 0 {
		return s
	}
	return 0
}

// TotalCostValue values the available stock at the average cost.
func (a *Aggregate) TotalCostValue() decimal.Decimal {
	return a.AverageCostPrice.Mul(decimal.NewFromInt(int64(a.AvailableStock())))
}

// Level returns the externally visible view of the aggregate.
func (a *Aggregate) Level() StockLevel {
	return StockLevel{
		ItemName:         a.ItemName,
		TotalPurchased:   a.TotalPurchased,
		TotalSold:        a.TotalSold,
		AvailableStock:   a.AvailableStock(),
		AverageCostPrice: a.AverageCostPrice,
		TotalCostValue:   a.TotalCostValue(),
	}
}

// StockLevel is the per-item stock report returned to callers.
type StockLevel struct {
	ItemName         string          `json:"item_name"`
	TotalPurchased   int             `json:"total_purchased"`
	TotalSold        int             `json:"total_sold"`
	AvailableStock   int             `json:"available_stock"`
	AverageCostPrice decimal.Decimal `json:"average_cost_price"`
	TotalCostValue   decimal.Decimal `json:"total_cost_value"`
}

// AvailableItem is a StockLevel with the price the back office suggests selling at.
type AvailableItem struct {
	StockLevel
	SuggestedSalePrice decimal.Decimal `json:"suggested_sale_price"`
}

// Inventory maps normalized item names to their aggregates.
type Inventory struct {
	items map[string]*Aggregate
}

// Reconcile folds every purchase line and then every sale line into per-item aggregates.
// Purchases accumulate quantity and cost and refresh the running weighted average cost.
// Sales only add to TotalSold, and only for names that were purchased at least once;
// sale lines for never-purchased names are ignored. The inputs are not modified.
func Reconcile(purchases []Purchase, sales []Sale) *Inventory {
	inv := &Inventory{items: make(map[string]*Aggregate)}

	for i := range purchases {
		for _, line := range purchases[i].Items {
			key := NormalizeName(line.ItemName)
			agg, ok := inv.items[key]
			if !ok {
				agg = &Aggregate{
					Key:              key,
					ItemName:         displayName(line.ItemName),
					PurchaseCost:     decimal.Zero,
					AverageCostPrice: decimal.Zero,
				}
				inv.items[key] = agg
			}
			agg.TotalPurchased += line.Quantity
			agg.PurchaseCost = agg.PurchaseCost.Add(lineCost(line))
			if agg.TotalPurchased > 0 {
				agg.AverageCostPrice = agg.PurchaseCost.Div(decimal.NewFromInt(int64(agg.TotalPurchased)))
			} else {
				agg.AverageCostPrice = decimal.Zero
			}
		}
	}

	for i := range sales {
		for _, line := range sales[i].Items {
			if agg, ok := inv.items[NormalizeName(line.ItemName)]; ok {
				agg.TotalSold += line.Quantity
			}
		}
	}
	return inv
}

// Len returns the number of distinct purchased items.
func (inv *Inventory) Len() int {
	return len(inv.items)
}

// Lookup finds the aggregate for a name in any spelling.
func (inv *Inventory) Lookup(name string) (*Aggregate, bool) {
	agg, ok := inv.items[NormalizeName(name)]
	return agg, ok
}

// Stock returns the clamped available stock for a name, 0 when unknown.
func (inv *Inventory) Stock(name string) int {
	if agg, ok := inv.Lookup(name); ok {
		return agg.AvailableStock()
	}
	return 0
}

// Names returns the display names of every purchased item, sorted.
func (inv *Inventory) Names() []string {
	names := make([]string, 0, len(inv.items))
	for _, agg := range inv.sorted() {
		names = append(names, agg.ItemName)
	}
	return names
}

// Items returns every aggregate as a StockLevel, sorted by name.
func (inv *Inventory) Items() []StockLevel {
	out := make([]StockLevel, 0, len(inv.items))
	for _, agg := range inv.sorted() {
		out = append(out, agg.Level())
	}
	return out
}

// Available returns items with stock on hand and a suggested sale price of
// round(average cost × (1 + markup)).
func (inv *Inventory) Available(markup decimal.Decimal) []AvailableItem {
	factor := decimal.NewFromInt(1).Add(markup)
	var out []AvailableItem
	for _, agg := range inv.sorted() {
		if agg.AvailableStock() <= 0 {
			continue
		}
		out = append(out, AvailableItem{
			StockLevel:         agg.Level(),
			SuggestedSalePrice: agg.AverageCostPrice.Mul(factor).Round(0),
		})
	}
	return out
}

// LowStock returns items with 0 < stock <= threshold, lowest stock first.
func (inv *Inventory) LowStock(threshold int) []StockLevel {
	var out []StockLevel
	for _, agg := range inv.sorted() {
		if s := agg.AvailableStock(); s > 0 && s <= threshold {
			out = append(out, agg.Level())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AvailableStock < out[j].AvailableStock
	})
	return out
}

// OutOfStock returns purchased items with nothing left, including oversold ones.
func (inv *Inventory) OutOfStock() []StockLevel {
	var out []StockLevel
	for _, agg := range inv.sorted() {
		if agg.RawStock() <= 0 && agg.TotalPurchased > 0 {
			out = append(out, agg.Level())
		}
	}
	return out
}

// Oversold returns items whose ledger shows more sold than purchased, with the deficit.
func (inv *Inventory) Oversold() map[string]int {
	out := make(map[string]int)
	for _, agg := range inv.items {
		if s := agg.RawStock(); s < 0 {
			out[agg.ItemName] = -s
		}
	}
	return out
}

// TotalValue is the cost value of all stock on hand.
func (inv *Inventory) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, agg := range inv.items {
		total = total.Add(agg.TotalCostValue())
	}
	return total
}

func (inv *Inventory) sorted() []*Aggregate {
	out := make([]*Aggregate, 0, len(inv.items))
	for _, agg := range inv.items {
		out = append(out, agg)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key < out[j].Key
	})
	return out
}

// lineCost prefers the stored line total and falls back to qty × unit cost for
// lines that were never recalculated.
func lineCost(line PurchaseItem) decimal.Decimal {
	if !line.TotalCost.IsZero() || line.CostPerUnit.IsZero() {
		return line.TotalCost
	}
	return line.CostPerUnit.Mul(decimal.NewFromInt(int64(line.Quantity)))
}
