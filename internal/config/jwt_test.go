package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTConfig_DefaultValues(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-key-0123456789")
	t.Setenv("JWT_EXPIRATION_HOURS", "")

	cfg, err := NewJWTConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "test-secret-key-0123456789", cfg.Secret)
	assert.Equal(t, 12, cfg.ExpirationHours, "should use default expiration of 12 hours")
}

func TestNewJWTConfig_CustomExpiration(t *testing.T) {
	tests := []struct {
		name          string
		expiration    string
		expectedHours int
		wantErr       bool
	}{
		{name: "one hour", expiration: "1", expectedHours: 1},
		{name: "one week", expiration: "168", expectedHours: 168},
		{name: "zero rejected", expiration: "0", wantErr: true},
		{name: "negative rejected", expiration: "-3", wantErr: true},
		{name: "non-numeric rejected", expiration: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "test-secret-key-0123456789")
			t.Setenv("JWT_EXPIRATION_HOURS", tt.expiration)

			cfg, err := NewJWTConfig()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedHours, cfg.ExpirationHours)
		})
	}
}

func TestNewJWTConfig_SecretRules(t *testing.T) {
	t.Setenv("JWT_EXPIRATION_HOURS", "")

	t.Setenv("JWT_SECRET", "")
	_, err := NewJWTConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET is required")

	t.Setenv("JWT_SECRET", "short")
	_, err = NewJWTConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 16 characters")
}

func TestJWTEnabled(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	assert.False(t, JWTEnabled())

	t.Setenv("JWT_SECRET", "test-secret-key-0123456789")
	assert.True(t, JWTEnabled())
}
