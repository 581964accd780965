package purchase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/turbotech/turboparts-backend/internal/modules/ledger"
	"github.com/turbotech/turboparts-backend/internal/modules/supplier"
	"github.com/turbotech/turboparts-backend/internal/platform/httpx"
	"github.com/turbotech/turboparts-backend/internal/platform/metrics"
)

// Service defines purchase business logic.
type Service interface {
	CreatePurchase(ctx context.Context, req Request) (*ledger.Purchase, error)
	GetPurchase(ctx context.Context, id uuid.UUID) (*ledger.Purchase, error)
	ListPurchases(ctx context.Context, f ListFilter) ([]ledger.Purchase, error)
	UpdatePurchase(ctx context.Context, id uuid.UUID, req Request) (*ledger.Purchase, error)
	DeletePurchase(ctx context.Context, id uuid.UUID) error
}

// SupplierLookup resolves the supplier a purchase references.
type SupplierLookup interface {
	GetSupplier(ctx context.Context, id uuid.UUID) (*supplier.Supplier, error)
}

type service struct {
	repo      Repository
	suppliers SupplierLookup
	metrics   *metrics.Metrics
	log       logrus.FieldLogger
}

// NewService creates a purchase service. m may be nil.
func NewService(repo Repository, suppliers SupplierLookup, m *metrics.Metrics, log logrus.FieldLogger) Service {
	return &service{repo: repo, suppliers: suppliers, metrics: m, log: log.WithField("module", "purchase")}
}

// prepare validates req and fills p from it, copying the supplier's current name and
// phone onto the purchase when it references a supplier record.
func (s *service) prepare(ctx context.Context, req Request, p *ledger.Purchase) error {
	if err := req.validate(); err != nil {
		return err
	}
	req.build(p)
	if req.SupplierID == nil {
		return nil
	}
	sup, err := s.suppliers.GetSupplier(ctx, *req.SupplierID)
	if errors.Is(err, httpx.ErrNotFound) {
		return httpx.FieldError("supplier_id", "does not exist")
	}
	if err != nil {
		return fmt.Errorf("purchase: resolve supplier: %w", err)
	}
	p.SupplierName = sup.Name
	p.SupplierPhone = sup.Phone
	return nil
}

func (s *service) CreatePurchase(ctx context.Context, req Request) (*ledger.Purchase, error) {
	p := &ledger.Purchase{ID: uuid.New()}
	if err := s.prepare(ctx, req, p); err != nil {
		return nil, err
	}
	if err := s.repo.CreatePurchase(ctx, p); err != nil {
		return nil, err
	}
	s.metrics.PurchaseRecorded()
	s.log.WithFields(logrus.Fields{"purchase_id": p.ID, "lines": len(p.Items), "total": p.TotalAmount.String()}).Info("purchase recorded")
	return p, nil
}

func (s *service) GetPurchase(ctx context.Context, id uuid.UUID) (*ledger.Purchase, error) {
	return s.repo.GetPurchase(ctx, id)
}

func (s *service) ListPurchases(ctx context.Context, f ListFilter) ([]ledger.Purchase, error) {
	return s.repo.ListPurchases(ctx, f)
}

func (s *service) UpdatePurchase(ctx context.Context, id uuid.UUID, req Request) (*ledger.Purchase, error) {
	p, err := s.repo.GetPurchase(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.prepare(ctx, req, p); err != nil {
		return nil, err
	}
	if err := s.repo.ReplacePurchase(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) DeletePurchase(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeletePurchase(ctx, id); err != nil {
		return err
	}
	s.log.WithField("purchase_id", id).Info("purchase deleted")
	return nil
}
