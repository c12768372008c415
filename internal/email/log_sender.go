package email

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
)

// LogSender writes messages to the log instead of delivering them. It is
// used when no provider key is configured so local development still works.
type LogSender struct {
	mu   sync.Mutex
	sent []*Message
}

// NewLogSender creates a LogSender.
func NewLogSender() *LogSender {
	return &LogSender{}
}

// Send implements Sender.
func (s *LogSender) Send(ctx context.Context, msg *Message) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()

	log.Printf("[email] (not sent) to=%s subject=%q\n%s", msg.To.Email, msg.Subject, msg.Text)
	return &Receipt{StatusCode: http.StatusAccepted, MessageID: "log-" + uuid.NewString()}, nil
}

// Sent returns the messages logged so far.
func (s *LogSender) Sent() []*Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Message, len(s.sent))
	copy(out, s.sent)
	return out
}
