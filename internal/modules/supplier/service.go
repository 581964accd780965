package supplier

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/turbotech/turboparts-backend/internal/platform/httpx"
)

type Service interface {
	CreateSupplier(ctx context.Context, req Request) (*Supplier, error)
	GetSupplier(ctx context.Context, id uuid.UUID) (*Supplier, error)
	ListSuppliers(ctx context.Context, query string) ([]*Supplier, error)
	UpdateSupplier(ctx context.Context, id uuid.UUID, req Request) (*Supplier, error)
	DeleteSupplier(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (req Request) apply(s *Supplier) {
	s.Name = strings.TrimSpace(req.Name)
	s.Phone = strings.TrimSpace(req.Phone)
	s.Email = strings.TrimSpace(req.Email)
	s.Address = req.Address
	s.City = strings.TrimSpace(req.City)
	s.Notes = req.Notes
}

func (s *service) CreateSupplier(ctx context.Context, req Request) (*Supplier, error) {
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	sup := &Supplier{ID: uuid.New()}
	req.apply(sup)
	if err := s.repo.CreateSupplier(ctx, sup); err != nil {
		return nil, err
	}
	return sup, nil
}

func (s *service) GetSupplier(ctx context.Context, id uuid.UUID) (*Supplier, error) {
	return s.repo.GetSupplier(ctx, id)
}

func (s *service) ListSuppliers(ctx context.Context, query string) ([]*Supplier, error) {
	return s.repo.ListSuppliers(ctx, strings.TrimSpace(query))
}

func (s *service) UpdateSupplier(ctx context.Context, id uuid.UUID, req Request) (*Supplier, error) {
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	sup, err := s.repo.GetSupplier(ctx, id)
	if err != nil {
		return nil, err
	}
	req.apply(sup)
	if err := s.repo.UpdateSupplier(ctx, sup); err != nil {
		return nil, err
	}
	return sup, nil
}

func (s *service) DeleteSupplier(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteSupplier(ctx, id)
}
