package ledger

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ProfitAnalysis is the weighted-average-cost profit picture of one item.
type ProfitAnalysis struct {
	ItemName          string          `json:"item_name,omitempty"`
	TotalPurchased    int             `json:"total_purchased"`
	TotalSold         int             `json:"total_sold"`
	TotalPurchaseCost decimal.Decimal `json:"total_purchase_cost"`
	TotalSaleRevenue  decimal.Decimal `json:"total_sale_revenue"`
	AverageCostPrice  decimal.Decimal `json:"average_cost_price"`
	AverageSalePrice  decimal.Decimal `json:"average_sale_price"`
	CostOfGoodsSold   decimal.Decimal `json:"cost_of_goods_sold"`
	TotalProfit       decimal.Decimal `json:"total_profit"`
	ProfitMargin      decimal.Decimal `json:"profit_margin"`
	ProfitPerUnit     decimal.Decimal `json:"profit_per_unit"`
}

// Rounded returns a copy with money and ratios rounded to two places for display.
func (a ProfitAnalysis) Rounded() ProfitAnalysis {
	a.TotalPurchaseCost = a.TotalPurchaseCost.Round(2)
	a.TotalSaleRevenue = a.TotalSaleRevenue.Round(2)
	a.AverageCostPrice = a.AverageCostPrice.Round(2)
	a.AverageSalePrice = a.AverageSalePrice.Round(2)
	a.CostOfGoodsSold = a.CostOfGoodsSold.Round(2)
	a.TotalProfit = a.TotalProfit.Round(2)
	a.ProfitMargin = a.ProfitMargin.Round(2)
	a.ProfitPerUnit = a.ProfitPerUnit.Round(2)
	return a
}

// LineMatcher selects the lines that belong to the analysed item.
type LineMatcher func(name string, id *uuid.UUID) bool

// ByItemID matches lines linked to id.
func ByItemID(id uuid.UUID) LineMatcher {
	return func(_ string, lineID *uuid.UUID) bool {
		return lineID != nil && *lineID == id
	}
}

// ByName matches lines whose normalized name equals name's.
func ByName(name string) LineMatcher {
	key := NormalizeName(name)
	return func(lineName string, _ *uuid.UUID) bool {
		return NormalizeName(lineName) == key
	}
}

// AnalyzeProfit computes the profit of the lines selected by match.
//
// The average cost is taken once over every matching purchase and applied to each unit
// sold, so cost of goods sold is sold × average cost. Ratios with a zero denominator are 0.
func AnalyzeProfit(purchases []Purchase, sales []Sale, match LineMatcher) ProfitAnalysis {
	var acc profitAcc
	for i := range purchases {
		for _, line := range purchases[i].Items {
			if match(line.ItemName, line.ItemID) {
				acc.addPurchase(line)
			}
		}
	}
	for i := range sales {
		for _, line := range sales[i].Items {
			if match(line.ItemName, line.ItemID) {
				acc.addSale(line)
			}
		}
	}
	return acc.analysis()
}

// ProfitForItemID analyses the lines linked to one catalog item.
func ProfitForItemID(id uuid.UUID, purchases []Purchase, sales []Sale) ProfitAnalysis {
	return AnalyzeProfit(purchases, sales, ByItemID(id))
}

// ProfitForName analyses the lines of one item name in any spelling.
func ProfitForName(name string, purchases []Purchase, sales []Sale) ProfitAnalysis {
	a := AnalyzeProfit(purchases, sales, ByName(name))
	a.ItemName = displayName(name)
	return a
}

// ProfitReport analyses every purchased item name, most profitable first.
// Sale-only names are left out, as in Reconcile.
func ProfitReport(purchases []Purchase, sales []Sale) []ProfitAnalysis {
	accs := make(map[string]*profitAcc)
	for i := range purchases {
		for _, line := range purchases[i].Items {
			key := NormalizeName(line.ItemName)
			acc, ok := accs[key]
			if !ok {
				acc = &profitAcc{name: displayName(line.ItemName)}
				accs[key] = acc
			}
			acc.addPurchase(line)
		}
	}
	for i := range sales {
		for _, line := range sales[i].Items {
			if acc, ok := accs[NormalizeName(line.ItemName)]; ok {
				acc.addSale(line)
			}
		}
	}

	out := make([]ProfitAnalysis, 0, len(accs))
	for _, acc := range accs {
		out = append(out, acc.analysis())
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].TotalProfit.Cmp(out[j].TotalProfit); c != 0 {
			return c > 0
		}
		return out[i].ItemName < out[j].ItemName
	})
	return out
}

type profitAcc struct {
	name      string
	purchased int
	sold      int
	cost      decimal.Decimal
	revenue   decimal.Decimal
}

func (a *profitAcc) addPurchase(line PurchaseItem) {
	if a.name == "" {
		a.name = displayName(line.ItemName)
	}
	a.purchased += line.Quantity
	a.cost = a.cost.Add(lineCost(line))
}

func (a *profitAcc) addSale(line SaleItem) {
	a.sold += line.Quantity
	a.revenue = a.revenue.Add(lineRevenue(line))
}

func (a *profitAcc) analysis() ProfitAnalysis {
	res := ProfitAnalysis{
		ItemName:          a.name,
		TotalPurchased:    a.purchased,
		TotalSold:         a.sold,
		TotalPurchaseCost: a.cost,
		TotalSaleRevenue:  a.revenue,
		AverageCostPrice:  decimal.Zero,
		AverageSalePrice:  decimal.Zero,
		ProfitMargin:      decimal.Zero,
		ProfitPerUnit:     decimal.Zero,
	}
	if a.purchased > 0 {
		res.AverageCostPrice = a.cost.Div(decimal.NewFromInt(int64(a.purchased)))
	}
	sold := decimal.NewFromInt(int64(a.sold))
	if a.sold > 0 {
		res.AverageSalePrice = a.revenue.Div(sold)
	}
	res.CostOfGoodsSold = res.AverageCostPrice.Mul(sold)
	res.TotalProfit = a.revenue.Sub(res.CostOfGoodsSold)
	if !a.revenue.IsZero() {
		res.ProfitMargin = res.TotalProfit.Div(a.revenue).Mul(hundred)
	}
	if a.sold > 0 {
		res.ProfitPerUnit = res.TotalProfit.Div(sold)
	}
	return res
}

func lineRevenue(line SaleItem) decimal.Decimal {
	if !line.TotalPrice.IsZero() || line.PricePerUnit.IsZero() {
		return line.TotalPrice
	}
	return line.PricePerUnit.Mul(decimal.NewFromInt(int64(line.Quantity)))
}
