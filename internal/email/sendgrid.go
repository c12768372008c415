package email

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	// DefaultSendGridHost is the public SendGrid API.
	DefaultSendGridHost = "https://api.sendgrid.com"
	sendGridMailPath    = "/v3/mail/send"
)

// SendGridSender delivers mail through the SendGrid v3 API.
type SendGridSender struct {
	apiKey string
	host   string
}

// NewSendGridSender creates a sender authenticated with apiKey.
func NewSendGridSender(apiKey string) *SendGridSender {
	return &SendGridSender{apiKey: apiKey, host: DefaultSendGridHost}
}

// WithHost points the sender at a different API host (used by tests).
func (s *SendGridSender) WithHost(host string) *SendGridSender {
	s.host = strings.TrimRight(host, "/")
	return s
}

// Send implements Sender.
func (s *SendGridSender) Send(ctx context.Context, msg *Message) (*Receipt, error) {
	from := mail.NewEmail(msg.From.Name, msg.From.Email)
	to := mail.NewEmail(msg.To.Name, msg.To.Email)
	m := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)

	if msg.Track {
		settings := mail.NewTrackingSettings()
		settings.SetClickTracking(mail.NewClickTrackingSetting().SetEnable(true).SetEnableText(false))
		settings.SetOpenTracking(mail.NewOpenTrackingSetting().SetEnable(true))
		m.SetTrackingSettings(settings)
	}

	req := sendgrid.GetRequest(s.apiKey, sendGridMailPath, s.host)
	req.Method = rest.Post
	req.Body = mail.GetRequestBody(m)

	resp, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("sendgrid request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderError{
			StatusCode: resp.StatusCode,
			Message:    sendGridErrorMessage(resp.Body),
		}
	}

	return &Receipt{
		StatusCode: resp.StatusCode,
		MessageID:  http.Header(resp.Headers).Get("X-Message-Id"),
	}, nil
}

// sendGridErrorMessage pulls the first message out of a SendGrid error body.
func sendGridErrorMessage(body string) string {
	var payload struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err == nil && len(payload.Errors) > 0 && payload.Errors[0].Message != "" {
		return payload.Errors[0].Message
	}
	if body = strings.TrimSpace(body); body != "" {
		return body
	}
	return "Unknown error"
}
