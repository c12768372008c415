package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jonathan/kredible/internal/db"
	"github.com/jonathan/kredible/internal/email"
	"github.com/jonathan/kredible/internal/types"
	"github.com/jonathan/kredible/internal/validation"
)

// maxTokenAttempts bounds regeneration when a fresh token collides with a stored one.
const maxTokenAttempts = 3

// Mailer is the subset of the email service the request lifecycle needs.
type Mailer interface {
	SendCandidateInvitation(ctx context.Context, data email.InvitationData) error
	SendRecruiterConfirmation(ctx context.Context, data email.InvitationData) error
	SendSubmissionNotification(ctx context.Context, r *types.RecruiterRequest) error
}

// LinkBuilder turns a token into the candidate-facing URL.
type LinkBuilder interface {
	CandidateLink(token string) string
}

// RequestService owns the recruiter request lifecycle: creation, token
// lookup, candidate submission and the dashboard projections.
type RequestService struct {
	store    db.Store
	mailer   Mailer
	links    LinkBuilder
	now      func() time.Time
	newID    func() string
	newToken func() (string, error)
}

// NewRequestService creates a RequestService.
func NewRequestService(store db.Store, mailer Mailer, links LinkBuilder) *RequestService {
	return &RequestService{
		store:    store,
		mailer:   mailer,
		links:    links,
		now:      time.Now,
		newID:    generateID,
		newToken: generateToken,
	}
}

// Create validates the recruiter form, stores a pending request and emails
// the candidate. If the invitation fails the request stays stored and
// ErrEmailDelivery is returned.
func (s *RequestService) Create(ctx context.Context, in *types.CreateRequestInput) (*types.CreateRequestResult, error) {
	if err := validation.RecruiterInput(in); err != nil {
		return nil, err
	}

	token, err := s.uniqueToken(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	req := &types.RecruiterRequest{
		ID:              s.newID(),
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		Email:           in.Email,
		Company:         in.Company,
		JobTitle:        in.JobTitle,
		CompanySize:     in.CompanySize,
		CandidateName:   in.CandidateName,
		CandidateEmail:  in.CandidateEmail,
		PositionTitle:   in.PositionTitle,
		AdditionalNotes: in.AdditionalNotes,
		Token:           token,
		Status:          types.StatusPending,
		CreatedAt:       now,
		ExpiresAt:       now.Add(types.RequestTTL),
	}
	if err := s.store.Save(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to save request: %w", err)
	}
	log.Printf("[request] Created request %s for %s", req.ID, req.CandidateEmail)

	data := email.NewInvitationData(req, s.links.CandidateLink(token))
	if err := s.mailer.SendCandidateInvitation(ctx, data); err != nil {
		return nil, &ErrEmailDelivery{RequestID: req.ID, Cause: err}
	}
	if err := s.mailer.SendRecruiterConfirmation(ctx, data); err != nil {
		log.Printf("[request] Warning: recruiter confirmation for %s not sent: %v", req.ID, err)
	}

	return &types.CreateRequestResult{
		RequestID:      req.ID,
		Token:          req.Token,
		CandidateEmail: req.CandidateEmail,
		ExpiresAt:      req.ExpiresAt,
	}, nil
}

// Lookup returns the redacted view for a live token.
func (s *RequestService) Lookup(ctx context.Context, token string) (*types.RequestView, error) {
	req, err := s.liveRequest(ctx, token)
	if err != nil {
		return nil, err
	}
	view := types.NewRequestView(req)
	return &view, nil
}

// Submit records the candidate's profile against token. Checks run in a
// fixed order and the first failure is returned.
func (s *RequestService) Submit(ctx context.Context, sub *types.CandidateSubmission) (*types.SubmissionResult, error) {
	validation.NormalizeSubmission(sub)

	req, err := s.liveRequest(ctx, sub.Token)
	if err != nil {
		return nil, err
	}
	if req.Status == types.StatusCompleted {
		return nil, &ErrAlreadyCompleted{}
	}
	if err := validation.Submission(sub); err != nil {
		return nil, err
	}

	data := validation.CandidateData(sub)
	data.SubmittedAt = s.now().UTC()

	switch err := s.store.CompletePending(ctx, req.ID, data); {
	case errors.Is(err, db.ErrAlreadyCompleted):
		return nil, &ErrAlreadyCompleted{}
	case errors.Is(err, db.ErrNotFound):
		return nil, &ErrTokenNotFound{}
	case err != nil:
		return nil, fmt.Errorf("failed to complete request: %w", err)
	}
	log.Printf("[request] Candidate submitted profile for request %s", req.ID)

	req.Status = types.StatusCompleted
	req.CandidateData = data
	if err := s.mailer.SendSubmissionNotification(ctx, req); err != nil {
		log.Printf("[request] Warning: submission notification for %s not sent: %v", req.ID, err)
	}

	return &types.SubmissionResult{
		RequestID:     req.ID,
		CandidateName: req.CandidateName,
		SubmittedAt:   data.SubmittedAt,
	}, nil
}

// ListRequests returns every live request in dashboard form.
func (s *RequestService) ListRequests(ctx context.Context) ([]types.DashboardRequest, error) {
	all, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}

	out := make([]types.DashboardRequest, 0, len(all))
	for _, r := range s.dropExpired(ctx, all) {
		out = append(out, types.NewDashboardRequest(r))
	}
	return out, nil
}

// ListProfiles returns every live completed profile in dashboard form.
func (s *RequestService) ListProfiles(ctx context.Context) ([]types.DashboardProfile, error) {
	completed, err := s.store.ListCompleted(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	out := make([]types.DashboardProfile, 0, len(completed))
	for _, r := range s.dropExpired(ctx, completed) {
		out = append(out, types.NewDashboardProfile(r))
	}
	return out, nil
}

// liveRequest resolves token to a stored request that has not expired.
// Expired requests are deleted on the way out.
func (s *RequestService) liveRequest(ctx context.Context, token string) (*types.RecruiterRequest, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, &validation.Error{Field: "token", Message: validation.MsgTokenRequired}
	}

	req, err := s.store.FindByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}
	if req == nil {
		return nil, &ErrTokenNotFound{}
	}
	if req.IsExpired(s.now()) {
		s.expire(ctx, req)
		return nil, &ErrTokenExpired{}
	}
	return req, nil
}

func (s *RequestService) dropExpired(ctx context.Context, records []*types.RecruiterRequest) []*types.RecruiterRequest {
	now := s.now()
	live := records[:0]
	for _, r := range records {
		if r.IsExpired(now) {
			s.expire(ctx, r)
			continue
		}
		live = append(live, r)
	}
	return live
}

// expire deletes an expired request. Failures are logged; the caller
// already treats the request as gone.
func (s *RequestService) expire(ctx context.Context, r *types.RecruiterRequest) {
	if err := s.store.Delete(ctx, r.ID); err != nil {
		log.Printf("[request] Failed to delete expired request %s: %v", r.ID, err)
		return
	}
	log.Printf("[request] Deleted expired request %s", r.ID)
}

// uniqueToken draws tokens until one is not already stored.
func (s *RequestService) uniqueToken(ctx context.Context) (string, error) {
	for i := 0; i < maxTokenAttempts; i++ {
		token, err := s.newToken()
		if err != nil {
			return "", err
		}
		existing, err := s.store.FindByToken(ctx, token)
		if err != nil {
			return "", fmt.Errorf("failed to check token uniqueness: %w", err)
		}
		if existing == nil {
			return token, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique token after %d attempts", maxTokenAttempts)
}
