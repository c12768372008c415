package server

import (
	"crypto/subtle"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/kredible/internal/types"
)

// handleLogin exchanges the dashboard credentials for a bearer token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.jwtService == nil {
		s.errorResponse(w, http.StatusNotFound, "Dashboard authentication is not enabled")
		return
	}

	var req types.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.failure(w, r, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	if !s.checkCredentials(req.Email, req.Password) {
		log.Printf("[http] Failed dashboard login for %s", req.Email)
		s.failure(w, r, &ErrInvalidCredentials{})
		return
	}

	token, err := s.jwtService.GenerateToken(req.Email)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, envelope{
		Success: true,
		Data:    types.LoginResponse{Email: req.Email, Token: token},
	})
}

// checkCredentials compares against DASHBOARD_EMAIL and DASHBOARD_PASSWORD_HASH.
// The bcrypt check always runs so a wrong email costs the same as a wrong password.
func (s *Server) checkCredentials(email, password string) bool {
	emailOK := subtle.ConstantTimeCompare(
		[]byte(strings.ToLower(email)),
		[]byte(strings.ToLower(s.cfg.DashboardEmail)),
	) == 1
	passwordOK := s.passwords.VerifyPassword(password, s.cfg.DashboardPasswordHash)
	return emailOK && passwordOK && s.cfg.DashboardEmail != ""
}

// extractValidationErrors extracts validation error messages from validator errors.
func extractValidationErrors(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrors) > 0 {
			ve := validationErrors[0]
			return fmt.Sprintf("validation error: %s - %s", ve.Field(), ve.Tag())
		}
	}
	return "validation error: invalid request"
}
