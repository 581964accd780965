package ledger

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OversellPolicy decides what a StockRecord does when a sale exceeds its stock.
type OversellPolicy int

const (
	// ClampOnQuery keeps the deficit in CurrentStock and clamps only when stock is read.
	// It agrees with Reconcile for any history and any fold order.
	ClampOnQuery OversellPolicy = iota
	// ClampOnWrite floors CurrentStock at zero on every sale, discarding the deficit.
	// A later purchase then restocks from zero, so it can disagree with Reconcile.
	ClampOnWrite
)

// ParseOversellPolicy maps the config spelling ("query" or "write") to a policy.
func ParseOversellPolicy(s string) (OversellPolicy, bool) {
	switch NormalizeName(s) {
	case "", "query":
		return ClampOnQuery, true
	case "write":
		return ClampOnWrite, true
	}
	return ClampOnQuery, false
}

func (p OversellPolicy) String() string {
	if p == ClampOnWrite {
		return "write"
	}
	return "query"
}

// StockRecord is the incrementally maintained stock of one catalog item.
type StockRecord struct {
	ItemID           uuid.UUID       `json:"item_id"`
	ItemName         string          `json:"item_name"`
	TotalPurchased   int             `json:"total_purchased"`
	TotalSold        int             `json:"total_sold"`
	CurrentStock     int             `json:"current_stock"`
	AverageCostPrice decimal.Decimal `json:"average_cost_price"`
	LastUpdated      time.Time       `json:"last_updated"`
}

// ApplyPurchase folds one purchase line into the record using the moving average:
// the previous cost basis is avg × purchased, the new average is basis / new purchased.
func (r *StockRecord) ApplyPurchase(qty int, lineTotal decimal.Decimal, at time.Time) {
	basis := r.AverageCostPrice.Mul(decimal.NewFromInt(int64(r.TotalPurchased))).Add(lineTotal)
	r.TotalPurchased += qty
	if r.TotalPurchased > 0 {
		r.AverageCostPrice = basis.Div(decimal.NewFromInt(int64(r.TotalPurchased)))
	} else {
		r.AverageCostPrice = decimal.Zero
	}
	r.CurrentStock += qty
	r.touch(at)
}

// ApplySale folds one sale line into the record. The average cost is unchanged.
func (r *StockRecord) ApplySale(qty int, policy OversellPolicy, at time.Time) {
	r.TotalSold += qty
	r.CurrentStock -= qty
	if policy == ClampOnWrite && r.CurrentStock < 0 {
		r.CurrentStock = 0
	}
	r.touch(at)
}

// NeedsReplay reports whether folding an event dated at onto r would give a different
// record than FoldRecords. Only ClampOnWrite is order sensitive, and only for an event
// that sorts before one r has already seen.
func (p OversellPolicy) NeedsReplay(r *StockRecord, at time.Time, sale bool) bool {
	if p != ClampOnWrite || r.LastUpdated.IsZero() {
		return false
	}
	if sale {
		return r.LastUpdated.After(at)
	}
	return !r.LastUpdated.Before(at)
}

// Available is the stock callers may see. It is never negative.
func (r *StockRecord) Available() int {
	if r.CurrentStock > 0 {
		return r.CurrentStock
	}
	return 0
}

func (r *StockRecord) touch(at time.Time) {
	if at.After(r.LastUpdated) {
		r.LastUpdated = at
	}
}

// FoldRecords replays the item-linked lines of the history into one StockRecord per item id.
// Events are applied in date order, purchases before sales on equal dates. Lines without an
// ItemID are skipped. A sale for an id that was never purchased still opens a record.
func FoldRecords(purchases []Purchase, sales []Sale, policy OversellPolicy) map[uuid.UUID]*StockRecord {
	type event struct {
		at       time.Time
		sale     bool
		id       uuid.UUID
		name     string
		qty      int
		lineCost decimal.Decimal
	}

	var events []event
	for i := range purchases {
		p := &purchases[i]
		for _, line := range p.Items {
			if line.ItemID == nil {
				continue
			}
			events = append(events, event{at: p.PurchaseDate, id: *line.ItemID, name: displayName(line.ItemName), qty: line.Quantity, lineCost: lineCost(line)})
		}
	}
	for i := range sales {
		s := &sales[i]
		for _, line := range s.Items {
			if line.ItemID == nil {
				continue
			}
			events = append(events, event{at: s.SaleDate, sale: true, id: *line.ItemID, name: displayName(line.ItemName), qty: line.Quantity})
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].at.Equal(events[j].at) {
			return events[i].at.Before(events[j].at)
		}
		return !events[i].sale && events[j].sale
	})

	records := make(map[uuid.UUID]*StockRecord)
	for _, ev := range events {
		rec, ok := records[ev.id]
		if !ok {
			rec = &StockRecord{ItemID: ev.id, ItemName: ev.name, AverageCostPrice: decimal.Zero}
			records[ev.id] = rec
		}
		if ev.sale {
			rec.ApplySale(ev.qty, policy, ev.at)
		} else {
			rec.ApplyPurchase(ev.qty, ev.lineCost, ev.at)
		}
	}
	return records
}

// SortedRecords returns the records ordered by item name, then id.
func SortedRecords(records map[uuid.UUID]*StockRecord) []StockRecord {
	out := make([]StockRecord, 0, len(records))
	for _, r := range records {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ItemName != out[j].ItemName {
			return out[i].ItemName < out[j].ItemName
		}
		return out[i].ItemID.String() < out[j].ItemID.String()
	})
	return out
}
