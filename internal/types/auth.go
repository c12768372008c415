package types

import (
	"github.com/go-playground/validator/v10"
)

// LoginRequest represents the dashboard login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the bearer token for the recruiter dashboard.
type LoginResponse struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// TestEmailRequest is the body of the operational test-email endpoint.
type TestEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Validate validates the LoginRequest using the validator.
func (r *LoginRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the TestEmailRequest using the validator.
func (r *TestEmailRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
