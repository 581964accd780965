// Package auth issues and verifies the bearer tokens that guard the back office.
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service defines the interface for authentication-related business logic.
type Service interface {
	// Login checks the credentials and returns a signed token.
	Login(ctx context.Context, email, password string) (*Token, error)
	// Verify parses a token and returns the admin id it was issued to.
	Verify(token string) (uuid.UUID, error)
}

// Token is the login response.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// LoginRequest is the payload of POST /api/v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
