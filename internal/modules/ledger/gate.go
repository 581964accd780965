package ledger

import "fmt"

const msgNotFound = "Item not found in inventory"

// StockCheck is the result of gating a requested quantity against reconciled stock.
type StockCheck struct {
	ItemName     string `json:"item_name"`
	Requested    int    `json:"requested"`
	Available    bool   `json:"available"`
	CurrentStock int    `json:"current_stock"`
	Message      string `json:"message"`
}

// CheckStock reconciles the given history and gates one item. It is advisory: no
// reservation is taken, callers must serialise writes themselves.
func CheckStock(itemName string, qty int, purchases []Purchase, sales []Sale) StockCheck {
	return Reconcile(purchases, sales).Check(itemName, qty)
}

// Check gates qty of itemName against an already reconciled inventory.
func (inv *Inventory) Check(itemName string, qty int) StockCheck {
	res := StockCheck{ItemName: itemName, Requested: qty}
	agg, ok := inv.Lookup(itemName)
	if !ok {
		res.Message = msgNotFound
		return res
	}
	res.CurrentStock = agg.AvailableStock()
	if res.CurrentStock >= qty {
		res.Available = true
		res.Message = fmt.Sprintf("In stock: %d available", res.CurrentStock)
		return res
	}
	res.Message = fmt.Sprintf("Insufficient stock: requested %d, available %d (short by %d)",
		qty, res.CurrentStock, qty-res.CurrentStock)
	return res
}

// CheckSaleLines gates every distinct item of a sale. Lines naming the same item are
// summed first, so two lines of 3 need 6 in stock. Results keep first-seen order.
func CheckSaleLines(inv *Inventory, items []SaleItem) ([]StockCheck, bool) {
	type want struct {
		name string
		qty  int
	}
	order := make([]string, 0, len(items))
	wanted := make(map[string]*want, len(items))
	for _, it := range items {
		key := NormalizeName(it.ItemName)
		w, ok := wanted[key]
		if !ok {
			w = &want{name: displayName(it.ItemName)}
			wanted[key] = w
			order = append(order, key)
		}
		w.qty += it.Quantity
	}

	checks := make([]StockCheck, 0, len(order))
	ok := true
	for _, key := range order {
		w := wanted[key]
		c := inv.Check(w.name, w.qty)
		if !c.Available {
			ok = false
		}
		checks = append(checks, c)
	}
	return checks, ok
}

// Denials returns the messages of the failed checks, prefixed with the item name.
func Denials(checks []StockCheck) []string {
	var out []string
	for _, c := range checks {
		if !c.Available {
			out = append(out, c.ItemName+": "+c.Message)
		}
	}
	return out
}
