package customer

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/turbotech/turboparts-backend/internal/platform/httpx"
)

// Service defines customer business logic.
type Service interface {
	Create(ctx context.Context, req Request) (*Customer, error)
	Get(ctx context.Context, id uuid.UUID) (*Customer, error)
	List(ctx context.Context, query string) ([]*Customer, error)
	Update(ctx context.Context, id uuid.UUID, req Request) (*Customer, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

func fill(c *Customer, req Request) {
	c.Name = strings.TrimSpace(req.Name)
	c.Phone = strings.TrimSpace(req.Phone)
	c.Email = strings.TrimSpace(req.Email)
	c.City = strings.TrimSpace(req.City)
	c.Address = req.Address
	c.Notes = req.Notes
}

func (s *service) Create(ctx context.Context, req Request) (*Customer, error) {
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	c := &Customer{ID: uuid.New()}
	fill(c, req)
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Customer, error) {
	return s.repo.Get(ctx, id)
}

func (s *service) List(ctx context.Context, query string) ([]*Customer, error) {
	return s.repo.List(ctx, strings.TrimSpace(query))
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req Request) (*Customer, error) {
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	fill(c, req)
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
