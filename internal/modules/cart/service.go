package cart

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/turbotech/turboparts-backend/internal/modules/catalog"
	"github.com/turbotech/turboparts-backend/internal/platform/httpx"
)

// ProductLookup resolves products by id. Missing ids are absent from the result.
type ProductLookup interface {
	GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Product, error)
}

type Service interface {
	Get(ctx context.Context, cartID uuid.UUID) (*Cart, error)
	Add(ctx context.Context, cartID uuid.UUID, req AddRequest) (*Cart, error)
	SetQuantity(ctx context.Context, cartID, productID uuid.UUID, req QuantityRequest) (*Cart, error)
	Remove(ctx context.Context, cartID, productID uuid.UUID) (*Cart, error)
	Clear(ctx context.Context, cartID uuid.UUID) error
}

type service struct {
	store    Store
	products ProductLookup
	currency string
	log      logrus.FieldLogger
}

func NewService(store Store, products ProductLookup, currency string, log logrus.FieldLogger) Service {
	return &service{store: store, products: products, currency: currency, log: log.WithField("module", "cart")}
}

// Get prices the cart against the catalog and drops lines whose product is gone or inactive.
func (s *service) Get(ctx context.Context, cartID uuid.UUID) (*Cart, error) {
	items, err := s.store.Items(ctx, cartID)
	if err != nil {
		return nil, err
	}
	c := &Cart{ID: cartID, Lines: []Line{}, Subtotal: decimal.Zero, Currency: s.currency}
	if len(items) == 0 {
		return c, nil
	}

	ids := make([]uuid.UUID, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	products, err := s.products.GetProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("cart: load products: %w", err)
	}

	var stale []uuid.UUID
	for id, qty := range items {
		p, ok := products[id]
		if !ok || !p.IsActive {
			stale = append(stale, id)
			continue
		}
		line := Line{
			ProductID:       p.ID,
			Name:            p.Name,
			Slug:            p.Slug,
			Price:           p.Price,
			DiscountPercent: p.DiscountPercent,
			UnitPrice:       p.DiscountedPrice,
			InStock:         p.InStock,
			Quantity:        qty,
			LineTotal:       p.DiscountedPrice.Mul(decimal.NewFromInt(int64(qty))),
		}
		if len(p.Images) > 0 {
			line.Image = p.Images[0]
		}
		c.Lines = append(c.Lines, line)
		c.ItemCount += qty
		c.Subtotal = c.Subtotal.Add(line.LineTotal)
	}
	sort.Slice(c.Lines, func(i, j int) bool { return c.Lines[i].Name < c.Lines[j].Name })

	if len(stale) > 0 {
		if err := s.store.Remove(ctx, cartID, stale...); err != nil {
			s.log.WithError(err).WithField("cart_id", cartID).Warn("drop stale cart lines")
		}
	}
	return c, nil
}

func (s *service) Add(ctx context.Context, cartID uuid.UUID, req AddRequest) (*Cart, error) {
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	if err := s.requireSellable(ctx, req.ProductID); err != nil {
		return nil, err
	}
	qty, err := s.store.Add(ctx, cartID, req.ProductID, req.Quantity)
	if err != nil {
		return nil, err
	}
	if qty > MaxLineQuantity {
		if err := s.store.Set(ctx, cartID, req.ProductID, MaxLineQuantity); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, cartID)
}

func (s *service) SetQuantity(ctx context.Context, cartID, productID uuid.UUID, req QuantityRequest) (*Cart, error) {
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	if req.Quantity == 0 {
		return s.Remove(ctx, cartID, productID)
	}
	if err := s.requireSellable(ctx, productID); err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, cartID, productID, req.Quantity); err != nil {
		return nil, err
	}
	return s.Get(ctx, cartID)
}

func (s *service) Remove(ctx context.Context, cartID, productID uuid.UUID) (*Cart, error) {
	if err := s.store.Remove(ctx, cartID, productID); err != nil {
		return nil, err
	}
	return s.Get(ctx, cartID)
}

func (s *service) Clear(ctx context.Context, cartID uuid.UUID) error {
	return s.store.Clear(ctx, cartID)
}

func (s *service) requireSellable(ctx context.Context, productID uuid.UUID) error {
	products, err := s.products.GetProducts(ctx, []uuid.UUID{productID})
	if err != nil {
		return fmt.Errorf("cart: load product: %w", err)
	}
	p, ok := products[productID]
	if !ok || !p.IsActive {
		return httpx.FieldError("product_id", "does not exist")
	}
	if !p.InStock {
		return httpx.FieldError("product_id", "is out of stock")
	}
	return nil
}
