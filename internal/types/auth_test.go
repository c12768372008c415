//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginRequest_Validation(t *testing.T) {
	validate := validator.New()

	tests := []struct {
		name    string
		request LoginRequest
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid request",
			request: LoginRequest{
				Email:    "recruiter@acme.com",
				Password: "password123",
			},
			wantErr: false,
		},
		{
			name: "missing email",
			request: LoginRequest{
				Password: "password123",
			},
			wantErr: true,
			errMsg:  "required",
		},
		{
			name: "invalid email format",
			request: LoginRequest{
				Email:    "not-an-email",
				Password: "password123",
			},
			wantErr: true,
			errMsg:  "email",
		},
		{
			name: "missing password",
			request: LoginRequest{
				Email: "recruiter@acme.com",
			},
			wantErr: true,
			errMsg:  "required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.request)
			if tt.wantErr {
				require.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestTestEmailRequest_ValidateMethod(t *testing.T) {
	req := TestEmailRequest{Email: "ops@kredible.dev"}
	require.NoError(t, req.Validate())

	req.Email = ""
	require.Error(t, req.Validate())

	req.Email = "nope"
	require.Error(t, req.Validate())
}

func TestLoginResponse_Serialization(t *testing.T) {
	response := LoginResponse{
		Email: "recruiter@acme.com",
		Token: "test-jwt-token-12345",
	}

	jsonBytes, err := json.Marshal(response)
	require.NoError(t, err)

	jsonStr := string(jsonBytes)
	assert.Contains(t, jsonStr, `"email":"recruiter@acme.com"`)
	assert.Contains(t, jsonStr, `"token":"test-jwt-token-12345"`)
}

func TestLoginRequest_ValidateMethod(t *testing.T) {
	req := LoginRequest{
		Email:    "recruiter@acme.com",
		Password: "password123",
	}
	err := req.Validate()
	require.NoError(t, err)

	req.Email = "invalid-email"
	err = req.Validate()
	require.Error(t, err)
}
