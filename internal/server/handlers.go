package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/jonathan/kredible/internal/email"
	"github.com/jonathan/kredible/internal/types"
	"github.com/jonathan/kredible/internal/validation"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 64 << 10

// envelope is the response shape shared by every endpoint.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return &validation.Error{Message: MsgInvalidBody}
		}
		return &validation.Error{Message: MsgInvalidBody + ": " + err.Error()}
	}
	return nil
}

// handleCreateRequest creates a recruiter request and invites the candidate.
func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var in types.CreateRequestInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.failure(w, r, err)
		return
	}

	result, err := s.requests.Create(r.Context(), &in)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, envelope{
		Success: true,
		Message: "Candidate invitation sent successfully",
		Data:    result,
	})
}

// handleGetRequest returns the redacted view for ?token=.
func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	s.lookup(w, r, r.URL.Query().Get("token"))
}

// handleValidateToken is the candidate page's token check.
func (s *Server) handleValidateToken(w http.ResponseWriter, r *http.Request) {
	s.lookup(w, r, r.URL.Query().Get("token"))
}

// handleCandidateForm is the path-style token check behind candidate links.
func (s *Server) handleCandidateForm(w http.ResponseWriter, r *http.Request) {
	s.lookup(w, r, r.PathValue("token"))
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request, token string) {
	view, err := s.requests.Lookup(r.Context(), token)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, envelope{Success: true, Data: view})
}

// handleCandidateSubmit records the candidate's profile.
func (s *Server) handleCandidateSubmit(w http.ResponseWriter, r *http.Request) {
	var sub types.CandidateSubmission
	if err := decodeJSON(w, r, &sub); err != nil {
		s.failure(w, r, err)
		return
	}

	result, err := s.requests.Submit(r.Context(), &sub)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, envelope{
		Success: true,
		Message: "Profile submitted successfully",
		Data:    result,
	})
}

// handleDashboardRequests lists every live request.
func (s *Server) handleDashboardRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := s.requests.ListRequests(r.Context())
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success":  true,
		"requests": requests,
	})
}

// handleDashboardProfiles lists every completed profile.
func (s *Server) handleDashboardProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.requests.ListProfiles(r.Context())
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success":  true,
		"profiles": profiles,
	})
}

// handleTestEmail sends the fixed test message to the given address.
func (s *Server) handleTestEmail(w http.ResponseWriter, r *http.Request) {
	var req types.TestEmailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.failure(w, r, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "A valid email address is required")
		return
	}

	receipt, err := s.email.SendTestEmail(r.Context(), req.Email)
	if err != nil {
		log.Printf("[email] Test email to %s failed: %v", req.Email, err)
		s.jsonResponse(w, http.StatusInternalServerError, map[string]any{
			"success":    false,
			"error":      "Failed to send test email: " + err.Error(),
			"statusCode": email.ProviderStatus(err),
		})
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "Test email sent to " + req.Email,
		"statusCode": receipt.StatusCode,
		"messageId":  receipt.MessageID,
	})
}

// debugRecord is one row of the storage dump.
type debugRecord struct {
	ID             string       `json:"id"`
	Token          string       `json:"token"`
	CandidateEmail string       `json:"candidateEmail"`
	CandidateName  string       `json:"candidateName"`
	Status         types.Status `json:"status"`
	CreatedAt      string       `json:"createdAt"`
}

// handleDebugStorage dumps raw storage, expired records included.
func (s *Server) handleDebugStorage(w http.ResponseWriter, r *http.Request) {
	all, err := s.store.ListAll(r.Context())
	if err != nil {
		s.failure(w, r, err)
		return
	}

	records := make([]debugRecord, 0, len(all))
	for _, rec := range all {
		records = append(records, debugRecord{
			ID:             rec.ID,
			Token:          rec.Token,
			CandidateEmail: rec.CandidateEmail,
			CandidateName:  rec.CandidateName,
			Status:         rec.Status,
			CreatedAt:      types.FormatISO(rec.CreatedAt),
		})
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success":       true,
		"totalRequests": len(records),
		"requests":      records,
	})
}

// handleDebugStorageAction runs a maintenance action. Only "clear" exists.
func (s *Server) handleDebugStorageAction(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Action string `json:"action"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.failure(w, r, err)
		return
	}
	if body.Action != "clear" {
		s.errorResponse(w, http.StatusBadRequest, "Invalid action")
		return
	}

	if err := s.store.Clear(r.Context()); err != nil {
		s.failure(w, r, err)
		return
	}
	log.Printf("[storage] Cleared all requests via debug endpoint")
	s.jsonResponse(w, http.StatusOK, envelope{Success: true, Message: "Storage cleared"})
}
