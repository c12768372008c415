// Package config provides JWT configuration for the recruiter dashboard.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// JWTIssuer is stamped into every dashboard token.
const JWTIssuer = "kredible"

// JWTConfig holds configuration for dashboard token generation and validation.
type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

// JWTEnabled reports whether dashboard authentication is switched on.
// Without JWT_SECRET the dashboard endpoints are open.
func JWTEnabled() bool {
	return os.Getenv("JWT_SECRET") != ""
}

// NewJWTConfig creates a new JWT configuration from environment variables.
// It reads JWT_SECRET (required) and JWT_EXPIRATION_HOURS (default: 12).
func NewJWTConfig() (*JWTConfig, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}

	expirationStr := os.Getenv("JWT_EXPIRATION_HOURS")
	if expirationStr == "" {
		expirationStr = "12"
	}

	expirationHours, err := strconv.Atoi(expirationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION_HOURS: %v", err)
	}

	config := &JWTConfig{
		Secret:          secret,
		ExpirationHours: expirationHours,
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}

	return config, nil
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if len(c.Secret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	return nil
}
