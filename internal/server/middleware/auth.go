// Package middleware provides HTTP middleware for dashboard authentication.
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// operatorKey is the context key for the authenticated dashboard operator.
const operatorKey ContextKey = "operator"

// TokenValidator is an interface for validating bearer tokens.
// This allows the middleware to work with any JWT service implementation.
type TokenValidator interface {
	ValidateToken(tokenString string) (OperatorGetter, error)
}

// OperatorGetter is an interface for extracting the dashboard operator from token claims.
type OperatorGetter interface {
	GetOperator() string
}

// AuthMiddleware creates middleware that validates bearer tokens and adds the
// operator email to the request context.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}

			claims, err := validator.ValidateToken(tokenString)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), operatorKey, claims.GetOperator())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// The scheme is matched case-insensitively.
func bearerToken(r *http.Request) (string, bool) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="kredible"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   "Unauthorized",
	})
}

// GetOperator extracts the authenticated operator from the request context.
func GetOperator(r *http.Request) (string, error) {
	operator, ok := r.Context().Value(operatorKey).(string)
	if !ok || operator == "" {
		return "", fmt.Errorf("operator not found in request context")
	}
	return operator, nil
}

// OperatorKey returns the context key for the operator (for testing purposes).
func OperatorKey() ContextKey {
	return operatorKey
}
