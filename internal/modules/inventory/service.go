package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/turbotech/turboparts-backend/internal/modules/ledger"
	"github.com/turbotech/turboparts-backend/internal/modules/search"
	"github.com/turbotech/turboparts-backend/internal/platform/logger"
)

// Service defines the reconciliation, stock and profit queries of the back office.
type Service interface {
	// Snapshot loads the full purchase and sale history.
	Snapshot(ctx context.Context) (*Snapshot, error)

	Overview(ctx context.Context) (*Overview, error)
	Available(ctx context.Context) ([]ledger.AvailableItem, error)
	LowStock(ctx context.Context, threshold int) ([]ledger.StockLevel, error)
	OutOfStock(ctx context.Context) ([]ledger.StockLevel, error)
	CheckStock(ctx context.Context, itemName string, qty int) (ledger.StockCheck, error)
	Search(ctx context.Context, query string) ([]SearchHit, error)

	ProfitReport(ctx context.Context) ([]ledger.ProfitAnalysis, error)
	ProfitForItem(ctx context.Context, itemID uuid.UUID) (ledger.ProfitAnalysis, error)
	ProfitForName(ctx context.Context, itemName string) (ledger.ProfitAnalysis, error)

	StockRecords(ctx context.Context) ([]ledger.StockRecord, error)
	StockRecord(ctx context.Context, itemID uuid.UUID) (*ledger.StockRecord, error)
	// RebuildStockRecords recomputes every stock record from history and returns how many exist.
	RebuildStockRecords(ctx context.Context) (int, error)

	// LowStockScan reports low, out of stock and oversold items to the log.
	LowStockScan(ctx context.Context) error
}

// ServiceConfig carries the stock policies. Markup is used as given, so zero prices at cost.
type ServiceConfig struct {
	Markup            decimal.Decimal
	LowStockThreshold int
	Policy            ledger.OversellPolicy
	Currency          string
}

type service struct {
	purchases PurchaseSource
	sales     SaleSource
	stock     StockRepository
	cfg       ServiceConfig
	log       logrus.FieldLogger
}

// NewService creates a new inventory service.
func NewService(purchases PurchaseSource, sales SaleSource, stock StockRepository, cfg ServiceConfig, log logrus.FieldLogger) Service {
	if cfg.LowStockThreshold <= 0 {
		cfg.LowStockThreshold = ledger.DefaultLowStockThreshold
	}
	return &service{
		purchases: purchases,
		sales:     sales,
		stock:     stock,
		cfg:       cfg,
		log:       log.WithField("module", "inventory"),
	}
}

func (s *service) Snapshot(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.purchases.ListAllPurchases(gctx)
		if err != nil {
			return fmt.Errorf("inventory: load purchases: %w", err)
		}
		snap.Purchases = p
		return nil
	})
	g.Go(func() error {
		sl, err := s.sales.ListAllSales(gctx)
		if err != nil {
			return fmt.Errorf("inventory: load sales: %w", err)
		}
		snap.Sales = sl
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *service) inventory(ctx context.Context) (*ledger.Inventory, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Inventory(), nil
}

func (s *service) Overview(ctx context.Context) (*Overview, error) {
	inv, err := s.inventory(ctx)
	if err != nil {
		return nil, err
	}
	ov := &Overview{
		Items:      inv.Items(),
		ItemCount:  inv.Len(),
		TotalValue: inv.TotalValue().Round(2),
		Currency:   s.cfg.Currency,
	}
	if over := inv.Oversold(); len(over) > 0 {
		ov.Oversold = over
	}
	return ov, nil
}

func (s *service) Available(ctx context.Context) ([]ledger.AvailableItem, error) {
	inv, err := s.inventory(ctx)
	if err != nil {
		return nil, err
	}
	return inv.Available(s.cfg.Markup), nil
}

func (s *service) LowStock(ctx context.Context, threshold int) ([]ledger.StockLevel, error) {
	if threshold <= 0 {
		threshold = s.cfg.LowStockThreshold
	}
	inv, err := s.inventory(ctx)
	if err != nil {
		return nil, err
	}
	return inv.LowStock(threshold), nil
}

func (s *service) OutOfStock(ctx context.Context) ([]ledger.StockLevel, error) {
	inv, err := s.inventory(ctx)
	if err != nil {
		return nil, err
	}
	return inv.OutOfStock(), nil
}

func (s *service) CheckStock(ctx context.Context, itemName string, qty int) (ledger.StockCheck, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return ledger.StockCheck{}, err
	}
	return ledger.CheckStock(itemName, qty, snap.Purchases, snap.Sales), nil
}

func (s *service) Search(ctx context.Context, query string) ([]SearchHit, error) {
	inv, err := s.inventory(ctx)
	if err != nil {
		return nil, err
	}
	matches := search.Inventory(inv.Names(), query)
	hits := make([]SearchHit, 0, len(matches))
	for _, m := range matches {
		agg, _ := inv.Lookup(m.Name)
		hits = append(hits, SearchHit{Match: m, Stock: agg.Level()})
	}
	return hits, nil
}

func (s *service) ProfitReport(ctx context.Context) ([]ledger.ProfitAnalysis, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	report := ledger.ProfitReport(snap.Purchases, snap.Sales)
	for i := range report {
		report[i] = report[i].Rounded()
	}
	return report, nil
}

func (s *service) ProfitForItem(ctx context.Context, itemID uuid.UUID) (ledger.ProfitAnalysis, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return ledger.ProfitAnalysis{}, err
	}
	return ledger.ProfitForItemID(itemID, snap.Purchases, snap.Sales).Rounded(), nil
}

func (s *service) ProfitForName(ctx context.Context, itemName string) (ledger.ProfitAnalysis, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return ledger.ProfitAnalysis{}, err
	}
	return ledger.ProfitForName(itemName, snap.Purchases, snap.Sales).Rounded(), nil
}

func (s *service) StockRecords(ctx context.Context) ([]ledger.StockRecord, error) {
	return s.stock.ListStockRecords(ctx)
}

func (s *service) StockRecord(ctx context.Context, itemID uuid.UUID) (*ledger.StockRecord, error) {
	return s.stock.GetStockRecord(ctx, itemID)
}

func (s *service) RebuildStockRecords(ctx context.Context) (int, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	records := ledger.SortedRecords(ledger.FoldRecords(snap.Purchases, snap.Sales, s.cfg.Policy))
	if err := s.stock.ReplaceAllStockRecords(ctx, records); err != nil {
		return 0, fmt.Errorf("inventory: replace stock records: %w", err)
	}
	s.log.WithFields(logrus.Fields{"records": len(records), "policy": s.cfg.Policy.String()}).Info("stock records rebuilt")
	return len(records), nil
}

func (s *service) LowStockScan(ctx context.Context) error {
	inv, err := s.inventory(ctx)
	if err != nil {
		logger.LogError(s.log, "inventory", "LowStockScan", nil, err)
		return err
	}
	low := inv.LowStock(s.cfg.LowStockThreshold)
	out := inv.OutOfStock()
	for _, l := range low {
		s.log.WithFields(logrus.Fields{"item": l.ItemName, "stock": l.AvailableStock}).Warn("low stock")
	}
	for _, l := range out {
		s.log.WithField("item", l.ItemName).Warn("out of stock")
	}
	for name, deficit := range inv.Oversold() {
		s.log.WithFields(logrus.Fields{"item": name, "deficit": deficit}).Error("oversold")
	}
	s.log.WithFields(logrus.Fields{"low": len(low), "out": len(out), "items": inv.Len()}).Info("low stock scan finished")
	return nil
}
