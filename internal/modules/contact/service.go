package contact

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/turbotech/turboparts-backend/internal/platform/httpx"
)

type Service interface {
	Submit(ctx context.Context, req Request) (*Message, error)
	List(ctx context.Context, unreadOnly bool) ([]*Message, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
	log  logrus.FieldLogger
}

func NewService(repo Repository, log logrus.FieldLogger) Service {
	return &service{repo: repo, log: log.WithField("module", "contact")}
}

func (s *service) Submit(ctx context.Context, req Request) (*Message, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Body = strings.TrimSpace(req.Body)
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	m := &Message{
		ID:      uuid.New(),
		Name:    req.Name,
		Email:   strings.ToLower(req.Email),
		Phone:   strings.TrimSpace(req.Phone),
		Subject: strings.TrimSpace(req.Subject),
		Body:    req.Body,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	s.log.WithField("message_id", m.ID).Info("contact message received")
	return m, nil
}

func (s *service) List(ctx context.Context, unreadOnly bool) ([]*Message, error) {
	return s.repo.List(ctx, unreadOnly)
}

func (s *service) MarkRead(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
