package sale

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/turbotech/turboparts-backend/internal/modules/customer"
	"github.com/turbotech/turboparts-backend/internal/modules/inventory"
	"github.com/turbotech/turboparts-backend/internal/modules/ledger"
	"github.com/turbotech/turboparts-backend/internal/platform/httpx"
	"github.com/turbotech/turboparts-backend/internal/platform/jobs"
	"github.com/turbotech/turboparts-backend/internal/platform/lock"
	"github.com/turbotech/turboparts-backend/internal/platform/metrics"
)

// Service defines sale business logic.
type Service interface {
	// CreateSale records a sale when every item has enough reconciled stock.
	CreateSale(ctx context.Context, req Request) (*ledger.Sale, error)
	GetSale(ctx context.Context, id uuid.UUID) (*ledger.Sale, error)
	ListSales(ctx context.Context, f ListFilter) ([]ledger.Sale, error)
	// UpdateSale replaces a sale, gating the new lines against stock without the old ones.
	UpdateSale(ctx context.Context, id uuid.UUID, req Request) (*ledger.Sale, error)
	DeleteSale(ctx context.Context, id uuid.UUID) error
}

// CustomerLookup resolves the customer a sale references.
type CustomerLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*customer.Customer, error)
}

// SnapshotLoader loads the purchase and sale history the stock gate reconciles.
type SnapshotLoader interface {
	Snapshot(ctx context.Context) (*inventory.Snapshot, error)
}

// Deps groups the collaborators of the sale service. Locker, Jobs and Metrics are optional.
type Deps struct {
	Repo      Repository
	Customers CustomerLookup
	Snapshots SnapshotLoader
	Locker    lock.Locker
	Jobs      jobs.Enqueuer
	Metrics   *metrics.Metrics
	Log       logrus.FieldLogger
}

type service struct {
	Deps
	log logrus.FieldLogger
}

func NewService(d Deps) Service {
	if d.Locker == nil {
		d.Locker = lock.Noop{}
	}
	return &service{Deps: d, log: d.Log.WithField("module", "sale")}
}

func (s *service) prepare(ctx context.Context, req Request, sale *ledger.Sale) error {
	if err := req.validate(); err != nil {
		return err
	}
	req.build(sale)
	if req.CustomerID == nil {
		return nil
	}
	c, err := s.Customers.Get(ctx, *req.CustomerID)
	if errors.Is(err, httpx.ErrNotFound) {
		return httpx.FieldError("customer_id", "does not exist")
	}
	if err != nil {
		return fmt.Errorf("sale: resolve customer: %w", err)
	}
	sale.CustomerName = c.Name
	sale.CustomerPhone = c.Phone
	if sale.CustomerCity == "" {
		sale.CustomerCity = c.City
	}
	return nil
}

// gate holds the item locks while it reconciles stock and, when every line is covered,
// runs persist. replacing names a sale whose lines must not count against the new ones.
func (s *service) gate(ctx context.Context, sale *ledger.Sale, replacing *uuid.UUID, persist func() error) error {
	release, err := s.Locker.Acquire(ctx, sale.ItemNames()...)
	if err != nil {
		if errors.Is(err, lock.ErrBusy) {
			return fmt.Errorf("%w: %v", httpx.ErrConflict, err)
		}
		return fmt.Errorf("sale: lock items: %w", err)
	}
	defer release()

	snap, err := s.Snapshots.Snapshot(ctx)
	if err != nil {
		return err
	}
	if replacing != nil {
		snap = snap.WithoutSale(*replacing)
	}
	checks, ok := ledger.CheckSaleLines(snap.Inventory(), sale.Items)
	if !ok {
		s.Metrics.StockDenied()
		denied := &InsufficientStockError{Checks: checks}
		s.log.WithField("denials", denied.Messages()).Info("sale rejected by stock gate")
		return denied
	}
	return persist()
}

func (s *service) CreateSale(ctx context.Context, req Request) (*ledger.Sale, error) {
	sale := &ledger.Sale{ID: uuid.New()}
	if err := s.prepare(ctx, req, sale); err != nil {
		return nil, err
	}
	err := s.gate(ctx, sale, nil, func() error { return s.Repo.CreateSale(ctx, sale) })
	if err != nil {
		return nil, err
	}
	s.Metrics.SaleRecorded()
	s.log.WithFields(logrus.Fields{"sale_id": sale.ID, "lines": len(sale.Items), "total": sale.TotalAmount.String()}).Info("sale recorded")
	s.requestScan(ctx, "sale recorded", sale)
	return sale, nil
}

func (s *service) GetSale(ctx context.Context, id uuid.UUID) (*ledger.Sale, error) {
	return s.Repo.GetSale(ctx, id)
}

func (s *service) ListSales(ctx context.Context, f ListFilter) ([]ledger.Sale, error) {
	return s.Repo.ListSales(ctx, f)
}

func (s *service) UpdateSale(ctx context.Context, id uuid.UUID, req Request) (*ledger.Sale, error) {
	sale, err := s.Repo.GetSale(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.prepare(ctx, req, sale); err != nil {
		return nil, err
	}
	if err := s.gate(ctx, sale, &id, func() error { return s.Repo.ReplaceSale(ctx, sale) }); err != nil {
		return nil, err
	}
	s.requestScan(ctx, "sale updated", sale)
	return sale, nil
}

// DeleteSale only returns stock, so it is not gated.
func (s *service) DeleteSale(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteSale(ctx, id); err != nil {
		return err
	}
	s.log.WithField("sale_id", id).Info("sale deleted")
	return nil
}

// requestScan asks the worker for a low stock report. Failure never fails the sale.
func (s *service) requestScan(ctx context.Context, reason string, sale *ledger.Sale) {
	if s.Jobs == nil {
		return
	}
	err := s.Jobs.EnqueueLowStockScan(ctx, jobs.LowStockScanPayload{Reason: reason, ItemNames: sale.ItemNames()})
	if err != nil {
		s.log.WithError(err).WithField("sale_id", sale.ID).Warn("enqueue low stock scan")
	}
}
