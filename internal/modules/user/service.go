package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/turbotech/turboparts-backend/internal/platform/httpx"
)

// Service defines the interface for admin account business logic.
type Service interface {
	RegisterAdmin(ctx context.Context, req RegisterRequest) (*User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	// EnsureAdmin creates the account, or resets its password when the email already exists.
	EnsureAdmin(ctx context.Context, req RegisterRequest) (*User, error)
}

// RegisterRequest holds the data for a new admin account.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=200"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"max=150"`
}

type service struct {
	repo Repository
	cost int
	log  logrus.FieldLogger
}

// NewService creates a new user service hashing passwords at bcrypt.DefaultCost.
func NewService(repo Repository, log logrus.FieldLogger) Service {
	return &service{repo: repo, cost: bcrypt.DefaultCost, log: log.WithField("module", "user")}
}

func (s *service) RegisterAdmin(ctx context.Context, req RegisterRequest) (*User, error) {
	req.Email = NormalizeEmail(req.Email)
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("user: hash password: %w", err)
	}
	u := &User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(req.Name),
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	s.log.WithField("user_id", u.ID).Info("admin registered")
	return u, nil
}

func (s *service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *service) EnsureAdmin(ctx context.Context, req RegisterRequest) (*User, error) {
	req.Email = NormalizeEmail(req.Email)
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, httpx.ErrNotFound) {
		return s.RegisterAdmin(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("user: hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, existing.ID, string(hash)); err != nil {
		return nil, err
	}
	existing.PasswordHash = string(hash)
	s.log.WithField("user_id", existing.ID).Info("admin password reset")
	return existing, nil
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
