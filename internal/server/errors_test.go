package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/kredible/internal/email"
	"github.com/jonathan/kredible/internal/validation"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "validation", err: &validation.Error{Message: validation.MsgTokenRequired}, expected: http.StatusBadRequest},
		{name: "wrapped validation", err: fmt.Errorf("submit: %w", &validation.Error{Message: "x"}), expected: http.StatusBadRequest},
		{name: "token not found", err: &ErrTokenNotFound{}, expected: http.StatusNotFound},
		{name: "token expired", err: &ErrTokenExpired{}, expected: http.StatusGone},
		{name: "already completed", err: &ErrAlreadyCompleted{}, expected: http.StatusConflict},
		{name: "invalid credentials", err: &ErrInvalidCredentials{}, expected: http.StatusUnauthorized},
		{name: "email delivery", err: &ErrEmailDelivery{Cause: errors.New("401 unauthorized")}, expected: http.StatusInternalServerError},
		{name: "unknown error", err: assert.AnError, expected: http.StatusInternalServerError},
		{name: "nil error", err: nil, expected: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}

func TestPublicMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "validation shows message only", err: &validation.Error{Field: "linkedinUrl", Message: validation.MsgInvalidLinkedIn}, want: "Invalid LinkedIn URL format"},
		{name: "not found", err: &ErrTokenNotFound{}, want: "Invalid or expired token"},
		{name: "expired", err: &ErrTokenExpired{}, want: "Token has expired"},
		{name: "completed", err: &ErrAlreadyCompleted{}, want: "This verification has already been completed"},
		{name: "delivery includes cause", err: &ErrEmailDelivery{Cause: errors.New("provider said no")}, want: "Failed to send invitation email: provider said no"},
		{
			name: "delivery prefers provider message",
			err:  &ErrEmailDelivery{Cause: &email.ProviderError{StatusCode: 403, Message: "Sender not verified"}},
			want: "Failed to send invitation email: Sender not verified",
		},
		{name: "internal errors are hidden", err: errors.New("pq: connection refused"), want: MsgInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PublicMessage(tt.err))
		})
	}
}

func TestErrEmailDelivery_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("create: %w", &ErrEmailDelivery{RequestID: "r1", Cause: cause})
	assert.ErrorIs(t, err, cause)
}
