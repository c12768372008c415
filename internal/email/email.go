// Package email renders and dispatches the transactional emails Kredible sends
// to candidates and recruiters.
package email

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jonathan/kredible/internal/config"
	"github.com/jonathan/kredible/internal/types"
)

// Address is a mailbox with an optional display name.
type Address struct {
	Name  string
	Email string
}

// Message is a fully rendered email ready for a Sender.
type Message struct {
	From    Address
	To      Address
	Subject string
	Text    string
	HTML    string
	// Track enables provider click and open tracking.
	Track bool
}

// Receipt is what the provider returned for an accepted message.
type Receipt struct {
	StatusCode int
	MessageID  string
}

// Sender delivers a single message. Implementations make one attempt and do not retry.
type Sender interface {
	Send(ctx context.Context, msg *Message) (*Receipt, error)
}

// ProviderError is a non-2xx answer from the email provider.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("email provider returned %d: %s", e.StatusCode, e.Message)
}

// ProviderStatus returns the provider status code carried by err, or 0.
func ProviderStatus(err error) int {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.StatusCode
	}
	return 0
}

// testFromName is the display name used for diagnostic sends.
const testFromName = "Kredible Test"

// Service builds Kredible's emails and hands them to a Sender.
type Service struct {
	sender        Sender
	from          Address
	timeout       time.Duration
	dashboardLink string
	supportLink   string
	now           func() time.Time
}

// NewService creates an email service for cfg using sender for delivery.
func NewService(sender Sender, cfg *config.Config) *Service {
	return &Service{
		sender:        sender,
		from:          Address{Name: cfg.FromName, Email: cfg.FromEmail},
		timeout:       cfg.EmailTimeout,
		dashboardLink: cfg.DashboardLink(),
		supportLink:   cfg.SupportLink(),
		now:           time.Now,
	}
}

// NewSender picks SendGrid when an API key is configured, otherwise a LogSender.
func NewSender(cfg *config.Config) Sender {
	if cfg.SendGridAPIKey == "" {
		log.Printf("[email] SENDGRID_API_KEY not configured; emails will be logged, not sent")
		return NewLogSender()
	}
	return NewSendGridSender(cfg.SendGridAPIKey)
}

// InvitationData describes one recruiter request from the email's point of view.
type InvitationData struct {
	RecruiterName    string
	RecruiterEmail   string
	RecruiterCompany string
	CandidateName    string
	CandidateEmail   string
	PositionTitle    string
	AdditionalNotes  string
	VerificationLink string
}

// NewInvitationData extracts the email fields from a stored request.
func NewInvitationData(r *types.RecruiterRequest, verificationLink string) InvitationData {
	return InvitationData{
		RecruiterName:    r.RecruiterName(),
		RecruiterEmail:   r.Email,
		RecruiterCompany: r.Company,
		CandidateName:    r.CandidateName,
		CandidateEmail:   r.CandidateEmail,
		PositionTitle:    r.PositionTitle,
		AdditionalNotes:  r.AdditionalNotes,
		VerificationLink: verificationLink,
	}
}

// SendCandidateInvitation emails the candidate their verification link.
func (s *Service) SendCandidateInvitation(ctx context.Context, data InvitationData) error {
	view := invitationView{
		InvitationData: data,
		ExpiryDays:     expiryDays(),
		SupportLink:    s.supportLink,
		DashboardLink:  s.dashboardLink,
	}
	html, err := render(htmlTemplates, "invitation.html", view)
	if err != nil {
		return err
	}
	text, err := renderText("invitation.txt", view)
	if err != nil {
		return err
	}

	msg := &Message{
		From:    s.from,
		To:      Address{Name: data.CandidateName, Email: data.CandidateEmail},
		Subject: fmt.Sprintf("Verification Request from %s at %s", data.RecruiterName, data.RecruiterCompany),
		HTML:    html,
		Text:    text,
		Track:   true,
	}
	if _, err := s.send(ctx, "candidate invitation", msg); err != nil {
		return err
	}
	return nil
}

// SendRecruiterConfirmation tells the recruiter the invitation went out.
func (s *Service) SendRecruiterConfirmation(ctx context.Context, data InvitationData) error {
	view := invitationView{
		InvitationData: data,
		ExpiryDays:     expiryDays(),
		SupportLink:    s.supportLink,
		DashboardLink:  s.dashboardLink,
	}
	html, err := render(htmlTemplates, "confirmation.html", view)
	if err != nil {
		return err
	}
	text, err := HTMLToText(html)
	if err != nil {
		return err
	}

	msg := &Message{
		From:    s.from,
		To:      Address{Name: data.RecruiterName, Email: data.RecruiterEmail},
		Subject: "Candidate Invitation Sent Successfully",
		HTML:    html,
		Text:    text,
	}
	_, err = s.send(ctx, "recruiter confirmation", msg)
	return err
}

// SendSubmissionNotification tells the recruiter the candidate completed verification.
func (s *Service) SendSubmissionNotification(ctx context.Context, r *types.RecruiterRequest) error {
	if r.CandidateData == nil {
		return errors.New("request has no candidate data")
	}
	view := submissionView{
		RecruiterName:  r.RecruiterName(),
		CandidateName:  r.CandidateName,
		PositionTitle:  r.PositionTitle,
		Profiles:       profileLinks(r.CandidateData),
		AdditionalInfo: r.CandidateData.AdditionalInfo,
		DashboardLink:  s.dashboardLink,
	}
	html, err := render(htmlTemplates, "submission.html", view)
	if err != nil {
		return err
	}
	text, err := HTMLToText(html)
	if err != nil {
		return err
	}

	msg := &Message{
		From:    s.from,
		To:      Address{Name: r.RecruiterName(), Email: r.Email},
		Subject: fmt.Sprintf("%s completed verification for %s", r.CandidateName, r.PositionTitle),
		HTML:    html,
		Text:    text,
	}
	_, err = s.send(ctx, "submission notification", msg)
	return err
}

// SendTestEmail sends a fixed diagnostic message and reports the provider's answer.
func (s *Service) SendTestEmail(ctx context.Context, to string) (*Receipt, error) {
	view := testView{
		SentAt: types.FormatISO(s.now()),
		From:   s.from.Email,
		To:     to,
	}
	html, err := render(htmlTemplates, "test.html", view)
	if err != nil {
		return nil, err
	}
	text, err := renderText("test.txt", view)
	if err != nil {
		return nil, err
	}

	msg := &Message{
		From:    Address{Name: testFromName, Email: s.from.Email},
		To:      Address{Email: to},
		Subject: "Kredible Email Test - Please Check",
		HTML:    html,
		Text:    text,
	}
	return s.send(ctx, "test email", msg)
}

func (s *Service) send(ctx context.Context, kind string, msg *Message) (*Receipt, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	receipt, err := s.sender.Send(ctx, msg)
	if err != nil {
		log.Printf("[email] Failed to send %s to %s: %v", kind, msg.To.Email, err)
		return nil, err
	}
	log.Printf("[email] Sent %s to %s (status %d, id %q)", kind, msg.To.Email, receipt.StatusCode, receipt.MessageID)
	return receipt, nil
}

func expiryDays() int {
	return int(types.RequestTTL / (24 * time.Hour))
}
