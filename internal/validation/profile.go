package validation

import (
	"net/url"
	"strings"

	"github.com/jonathan/kredible/internal/types"
)

// ProfileURL reports whether raw is an absolute http(s) URL with a host.
func ProfileURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return false
	}
	return u.Host != ""
}

// NormalizeSubmission trims every field and drops blank additional profiles,
// keeping the order of the rest.
func NormalizeSubmission(s *types.CandidateSubmission) {
	s.Token = strings.TrimSpace(s.Token)
	s.FullName = strings.TrimSpace(s.FullName)
	s.GithubUsername = strings.TrimSpace(s.GithubUsername)
	s.LinkedinURL = strings.TrimSpace(s.LinkedinURL)
	s.StackoverflowURL = strings.TrimSpace(s.StackoverflowURL)
	s.PortfolioURL = strings.TrimSpace(s.PortfolioURL)
	s.AdditionalInfo = strings.TrimSpace(s.AdditionalInfo)

	profiles := make([]string, 0, len(s.AdditionalProfiles))
	for _, p := range s.AdditionalProfiles {
		if p = strings.TrimSpace(p); p != "" {
			profiles = append(profiles, p)
		}
	}
	s.AdditionalProfiles = profiles
}

// Submission checks candidate profile data after NormalizeSubmission.
// The token is checked separately by the caller.
func Submission(s *types.CandidateSubmission) error {
	if s.GithubUsername == "" && s.LinkedinURL == "" && s.PortfolioURL == "" {
		return &Error{Message: MsgProfileRequired}
	}

	checks := []struct {
		field, value, msg string
	}{
		{"linkedinUrl", s.LinkedinURL, MsgInvalidLinkedIn},
		{"stackoverflowUrl", s.StackoverflowURL, MsgInvalidStackOverflow},
		{"portfolioUrl", s.PortfolioURL, MsgInvalidPortfolio},
	}
	for _, c := range checks {
		if c.value != "" && !ProfileURL(c.value) {
			return &Error{Field: c.field, Message: c.msg}
		}
	}

	for _, p := range s.AdditionalProfiles {
		if !ProfileURL(p) {
			return &Error{Field: "additionalProfiles", Message: MsgInvalidAdditional}
		}
	}

	return nil
}

// CandidateData converts a validated submission into stored candidate data.
func CandidateData(s *types.CandidateSubmission) *types.CandidateData {
	profiles := s.AdditionalProfiles
	if profiles == nil {
		profiles = []string{}
	}
	return &types.CandidateData{
		FullName:           s.FullName,
		GithubUsername:     s.GithubUsername,
		LinkedinURL:        s.LinkedinURL,
		StackoverflowURL:   s.StackoverflowURL,
		PortfolioURL:       s.PortfolioURL,
		AdditionalProfiles: profiles,
		AdditionalInfo:     s.AdditionalInfo,
	}
}
