package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/turbotech/turboparts-backend/internal/modules/search"
	"github.com/turbotech/turboparts-backend/internal/platform/httpx"
)

// Service defines catalog business logic.
type Service interface {
	CreateProduct(ctx context.Context, req ProductRequest) (*Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*Product, error)
	GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Product, error)
	ListProducts(ctx context.Context, filter ListFilter) ([]*Product, error)
	SearchProducts(ctx context.Context, query string, filter ListFilter) ([]*Product, error)
	Suggest(ctx context.Context, query string) ([]string, error)
	Categories(ctx context.Context) ([]string, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req ProductRequest) (*Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

// ProductRequest holds the data for creating or fully replacing a product.
type ProductRequest struct {
	Name               string          `json:"name" validate:"required,max=200"`
	Slug               string          `json:"slug" validate:"omitempty,max=200"`
	Description        string          `json:"description" validate:"max=5000"`
	Category           string          `json:"category" validate:"required,max=100"`
	CompatibleVehicles []string        `json:"compatible_vehicles" validate:"dive,required,max=120"`
	Price              decimal.Decimal `json:"price"`
	DiscountPercent    decimal.Decimal `json:"discount_percent"`
	Images             []string        `json:"images" validate:"dive,url"`
	Brand              string          `json:"brand" validate:"max=100"`
	PartNumber         string          `json:"part_number" validate:"max=100"`
	InStock            *bool           `json:"in_stock"`
	Featured           bool            `json:"featured"`
	IsActive           *bool           `json:"is_active"`
}

func (req ProductRequest) validate() error {
	if err := httpx.Validate(req); err != nil {
		return err
	}
	if req.Price.IsNegative() {
		return httpx.FieldError("price", "must be at least 0")
	}
	if req.DiscountPercent.IsNegative() || req.DiscountPercent.GreaterThan(hundred) {
		return httpx.FieldError("discount_percent", "must be between 0 and 100")
	}
	return nil
}

func (req ProductRequest) apply(p *Product) {
	p.Name = strings.TrimSpace(req.Name)
	p.Slug = req.Slug
	if p.Slug == "" {
		p.Slug = Slugify(p.Name)
	}
	p.Description = req.Description
	p.Category = strings.TrimSpace(req.Category)
	p.CompatibleVehicles = nonNil(req.CompatibleVehicles)
	p.Price = req.Price
	p.DiscountPercent = req.DiscountPercent
	p.Images = nonNil(req.Images)
	p.Brand = req.Brand
	p.PartNumber = req.PartNumber
	p.InStock = req.InStock == nil || *req.InStock
	p.Featured = req.Featured
	p.IsActive = req.IsActive == nil || *req.IsActive
	p.ApplyDiscount()
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) CreateProduct(ctx context.Context, req ProductRequest) (*Product, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	p := &Product{ID: uuid.New()}
	req.apply(p)
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

// GetProductBySlug only returns active products; the storefront uses it.
func (s *service) GetProductBySlug(ctx context.Context, slug string) (*Product, error) {
	p, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, fmt.Errorf("catalog: product %q: %w", slug, httpx.ErrNotFound)
	}
	return p, nil
}

func (s *service) GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Product, error) {
	products, err := s.repo.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*Product, len(products))
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func (s *service) ListProducts(ctx context.Context, filter ListFilter) ([]*Product, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) SearchProducts(ctx context.Context, query string, filter ListFilter) ([]*Product, error) {
	products, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return search.Products(products, (*Product).Searchable, query), nil
}

func (s *service) Suggest(ctx context.Context, query string) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return []string{}, nil
	}
	products, err := s.repo.List(ctx, ListFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	views := make([]search.Searchable, len(products))
	for i, p := range products {
		views[i] = p.Searchable()
	}
	out := search.Suggestions(views, query)
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func (s *service) Categories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, req ProductRequest) (*Product, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	req.apply(p)
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
