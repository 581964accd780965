package contact

import (
	"time"

	"github.com/google/uuid"
)

// Message is a storefront contact form submission.
type Message struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Body      string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Request is the public payload of the contact form.
type Request struct {
	Name    string `json:"name" validate:"required,max=150"`
	Email   string `json:"email" validate:"required,email,max=200"`
	Phone   string `json:"phone" validate:"max=30"`
	Subject string `json:"subject" validate:"max=200"`
	Body    string `json:"message" validate:"required,max=5000"`
}
