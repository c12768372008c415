package types

import "time"

// CreateRequestInput is the recruiter form payload.
type CreateRequestInput struct {
	FirstName       string `json:"firstName" validate:"required"`
	LastName        string `json:"lastName" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Company         string `json:"company" validate:"required"`
	JobTitle        string `json:"jobTitle" validate:"required"`
	CompanySize     string `json:"companySize,omitempty"`
	CandidateEmail  string `json:"candidateEmail" validate:"required,email"`
	CandidateName   string `json:"candidateName" validate:"required"`
	PositionTitle   string `json:"positionTitle" validate:"required"`
	AdditionalNotes string `json:"additionalNotes,omitempty"`
}

// CreateRequestResult is returned to the recruiter after the invitation is sent.
type CreateRequestResult struct {
	RequestID      string    `json:"requestId"`
	Token          string    `json:"token"`
	CandidateEmail string    `json:"candidateEmail"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

// CandidateSubmission is the candidate form payload (token travels alongside it).
type CandidateSubmission struct {
	Token              string   `json:"token"`
	FullName           string   `json:"fullName,omitempty"`
	GithubUsername     string   `json:"githubUsername,omitempty"`
	LinkedinURL        string   `json:"linkedinUrl,omitempty"`
	StackoverflowURL   string   `json:"stackoverflowUrl,omitempty"`
	PortfolioURL       string   `json:"portfolioUrl,omitempty"`
	AdditionalProfiles []string `json:"additionalProfiles,omitempty"`
	AdditionalInfo     string   `json:"additionalInfo,omitempty"`
}

// SubmissionResult confirms a completed candidate submission.
type SubmissionResult struct {
	RequestID     string    `json:"requestId"`
	CandidateName string    `json:"candidateName"`
	SubmittedAt   time.Time `json:"submittedAt"`
}

// RequestView is the redacted request context shown on the candidate page.
// It never includes the internal id or the token.
type RequestView struct {
	RecruiterName    string    `json:"recruiterName"`
	RecruiterEmail   string    `json:"recruiterEmail"`
	RecruiterCompany string    `json:"recruiterCompany"`
	CandidateName    string    `json:"candidateName"`
	CandidateEmail   string    `json:"candidateEmail"`
	PositionTitle    string    `json:"positionTitle"`
	AdditionalNotes  string    `json:"additionalNotes,omitempty"`
	Status           Status    `json:"status"`
	CreatedAt        time.Time `json:"createdAt"`
	ExpiresAt        time.Time `json:"expiresAt"`
}

// NewRequestView builds the redacted view of a request.
func NewRequestView(r *RecruiterRequest) RequestView {
	return RequestView{
		RecruiterName:    r.RecruiterName(),
		RecruiterEmail:   r.Email,
		RecruiterCompany: r.Company,
		CandidateName:    r.CandidateName,
		CandidateEmail:   r.CandidateEmail,
		PositionTitle:    r.PositionTitle,
		AdditionalNotes:  r.AdditionalNotes,
		Status:           r.Status,
		CreatedAt:        r.CreatedAt,
		ExpiresAt:        r.ExpiresAt,
	}
}

// RecruiterInfo groups recruiter identity on dashboard rows.
type RecruiterInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
	Company   string `json:"company"`
	JobTitle  string `json:"jobTitle,omitempty"`
}

// CandidateInfo groups candidate identity on dashboard rows.
type CandidateInfo struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	PositionTitle string `json:"positionTitle"`
}

// DashboardRequest is one row of the all-requests dashboard view.
type DashboardRequest struct {
	RequestID       string         `json:"requestId"`
	Token           string         `json:"token"`
	RecruiterInfo   RecruiterInfo  `json:"recruiterInfo"`
	CandidateInfo   CandidateInfo  `json:"candidateInfo"`
	AdditionalNotes string         `json:"additionalNotes,omitempty"`
	CreatedAt       string         `json:"createdAt"`
	ExpiresAt       string         `json:"expiresAt"`
	Status          Status         `json:"status"`
	CandidateData   *CandidateData `json:"candidateData"`
}

// ProfilePayload is the candidate-supplied part of a completed profile.
type ProfilePayload struct {
	FullName           string   `json:"fullName,omitempty"`
	GithubUsername     string   `json:"githubUsername,omitempty"`
	LinkedinURL        string   `json:"linkedinUrl,omitempty"`
	StackoverflowURL   string   `json:"stackoverflowUrl,omitempty"`
	PortfolioURL       string   `json:"portfolioUrl,omitempty"`
	AdditionalProfiles []string `json:"additionalProfiles"`
	AdditionalInfo     string   `json:"additionalInfo,omitempty"`
	SubmittedAt        string   `json:"submittedAt"`
}

// DashboardProfile is one row of the completed-profiles dashboard view.
type DashboardProfile struct {
	Token         string         `json:"token"`
	RequestID     string         `json:"requestId"`
	RecruiterInfo RecruiterInfo  `json:"recruiterInfo"`
	CandidateInfo CandidateInfo  `json:"candidateInfo"`
	Profile       ProfilePayload `json:"profile"`
}

// isoFormat matches the millisecond UTC timestamps the dashboard UI expects.
const isoFormat = "2006-01-02T15:04:05.000Z07:00"

// FormatISO renders t in UTC ISO-8601 with millisecond precision.
func FormatISO(t time.Time) string {
	return t.UTC().Format(isoFormat)
}

// NewDashboardRequest flattens a stored request into the all-requests view.
func NewDashboardRequest(r *RecruiterRequest) DashboardRequest {
	return DashboardRequest{
		RequestID: r.ID,
		Token:     r.Token,
		RecruiterInfo: RecruiterInfo{
			FirstName: r.FirstName,
			LastName:  r.LastName,
			Email:     r.Email,
			Company:   r.Company,
			JobTitle:  r.JobTitle,
		},
		CandidateInfo: CandidateInfo{
			Name:          r.CandidateName,
			Email:         r.CandidateEmail,
			PositionTitle: r.PositionTitle,
		},
		AdditionalNotes: r.AdditionalNotes,
		CreatedAt:       FormatISO(r.CreatedAt),
		ExpiresAt:       FormatISO(r.ExpiresAt),
		Status:          r.Status,
		CandidateData:   r.CandidateData,
	}
}

// NewDashboardProfile projects a completed request into the profiles view.
// The caller must only pass completed requests.
func NewDashboardProfile(r *RecruiterRequest) DashboardProfile {
	cd := r.CandidateData
	profiles := cd.AdditionalProfiles
	if profiles == nil {
		profiles = []string{}
	}
	return DashboardProfile{
		Token:     r.Token,
		RequestID: r.ID,
		RecruiterInfo: RecruiterInfo{
			FirstName: r.FirstName,
			LastName:  r.LastName,
			Company:   r.Company,
		},
		CandidateInfo: CandidateInfo{
			Name:          r.CandidateName,
			Email:         r.CandidateEmail,
			PositionTitle: r.PositionTitle,
		},
		Profile: ProfilePayload{
			FullName:           cd.FullName,
			GithubUsername:     cd.GithubUsername,
			LinkedinURL:        cd.LinkedinURL,
			StackoverflowURL:   cd.StackoverflowURL,
			PortfolioURL:       cd.PortfolioURL,
			AdditionalProfiles: profiles,
			AdditionalInfo:     cd.AdditionalInfo,
			SubmittedAt:        FormatISO(cd.SubmittedAt),
		},
	}
}
