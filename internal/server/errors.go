// Package server provides the HTTP API for the Kredible verification workflow.
package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/kredible/internal/email"
	"github.com/jonathan/kredible/internal/validation"
)

// Messages shown to API callers.
const (
	MsgTokenNotFound     = "Invalid or expired token"
	MsgTokenExpired      = "Token has expired"
	MsgAlreadyCompleted  = "This verification has already been completed"
	MsgInternal          = "Internal server error. Please try again."
	MsgInvalidBody       = "Invalid request body"
	MsgInvalidCredential = "Invalid email or password"
)

// ErrTokenNotFound indicates no live request holds the token
type ErrTokenNotFound struct{}

func (e *ErrTokenNotFound) Error() string {
	return MsgTokenNotFound
}

// ErrTokenExpired indicates the request existed but is past its expiry
type ErrTokenExpired struct{}

func (e *ErrTokenExpired) Error() string {
	return MsgTokenExpired
}

// ErrAlreadyCompleted indicates the candidate already submitted for this token
type ErrAlreadyCompleted struct{}

func (e *ErrAlreadyCompleted) Error() string {
	return MsgAlreadyCompleted
}

// ErrEmailDelivery indicates the candidate invitation could not be sent.
// The request record has already been persisted when this is returned.
type ErrEmailDelivery struct {
	RequestID string
	Cause     error
}

// Error reports the provider's own message when there is one.
func (e *ErrEmailDelivery) Error() string {
	var pe *email.ProviderError
	if errors.As(e.Cause, &pe) && pe.Message != "" {
		return "Failed to send invitation email: " + pe.Message
	}
	return "Failed to send invitation email: " + e.Cause.Error()
}

func (e *ErrEmailDelivery) Unwrap() error {
	return e.Cause
}

// ErrInvalidCredentials indicates invalid dashboard login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return MsgInvalidCredential
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *validation.Error
		notFound      *ErrTokenNotFound
		expired       *ErrTokenExpired
		completed     *ErrAlreadyCompleted
		credentials   *ErrInvalidCredentials
	)
	switch {
	case err == nil:
		return http.StatusInternalServerError
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &credentials):
		return http.StatusUnauthorized
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &completed):
		return http.StatusConflict
	case errors.As(err, &expired):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show a caller for err. Unexpected
// errors collapse to a generic message; details stay in the server log.
func PublicMessage(err error) string {
	var (
		validationErr *validation.Error
		delivery      *ErrEmailDelivery
	)
	switch {
	case errors.As(err, &validationErr):
		return validationErr.Message
	case errors.As(err, &delivery):
		return delivery.Error()
	case HTTPStatus(err) != http.StatusInternalServerError:
		return err.Error()
	default:
		return MsgInternal
	}
}
