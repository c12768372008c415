// Package types provides type definitions for the recruiter request workflow shared across Kredible.
package types

import (
	"time"
)

// RequestTTL is how long a candidate link stays valid after the request is created.
const RequestTTL = 7 * 24 * time.Hour

// Status is the lifecycle state of a recruiter request.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusExpired:
		return true
	default:
		return false
	}
}

// RecruiterRequest is one recruiter-initiated verification workflow.
// ID is the internal key; Token is the capability handed to the candidate.
type RecruiterRequest struct {
	ID string `json:"id"`

	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Company     string `json:"company"`
	JobTitle    string `json:"jobTitle"`
	CompanySize string `json:"companySize,omitempty"`

	CandidateName   string `json:"candidateName"`
	CandidateEmail  string `json:"candidateEmail"`
	PositionTitle   string `json:"positionTitle"`
	AdditionalNotes string `json:"additionalNotes,omitempty"`

	Token     string    `json:"token"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`

	CandidateData *CandidateData `json:"candidateData,omitempty"`
}

// CandidateData is the profile information a candidate submits through the form.
type CandidateData struct {
	FullName           string    `json:"fullName,omitempty"`
	GithubUsername     string    `json:"githubUsername,omitempty"`
	LinkedinURL        string    `json:"linkedinUrl,omitempty"`
	StackoverflowURL   string    `json:"stackoverflowUrl,omitempty"`
	PortfolioURL       string    `json:"portfolioUrl,omitempty"`
	AdditionalProfiles []string  `json:"additionalProfiles"`
	AdditionalInfo     string    `json:"additionalInfo,omitempty"`
	SubmittedAt        time.Time `json:"submittedAt"`
}

// RecruiterName returns "First Last" as shown to candidates.
func (r *RecruiterRequest) RecruiterName() string {
	return r.FirstName + " " + r.LastName
}

// IsExpired reports whether the request is past its expiry at the given instant.
func (r *RecruiterRequest) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// IsCompleted reports whether the candidate has submitted their profile.
func (r *RecruiterRequest) IsCompleted() bool {
	return r.Status == StatusCompleted && r.CandidateData != nil
}

// Clone returns a deep copy so callers can't mutate stored state through shared slices.
func (r *RecruiterRequest) Clone() *RecruiterRequest {
	if r == nil {
		return nil
	}
	c := *r
	if r.CandidateData != nil {
		cd := *r.CandidateData
		if r.CandidateData.AdditionalProfiles != nil {
			cd.AdditionalProfiles = make([]string, len(r.CandidateData.AdditionalProfiles))
			copy(cd.AdditionalProfiles, r.CandidateData.AdditionalProfiles)
		}
		c.CandidateData = &cd
	}
	return &c
}
