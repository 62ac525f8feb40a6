package email

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LogSender logs messages instead of delivering them and keeps them for inspection.
// Used when no provider key is configured, and in tests.
type LogSender struct {
	mu   sync.Mutex
	sent []Message
}

// NewLogSender creates an empty LogSender.
func NewLogSender() *LogSender {
	return &LogSender{}
}

// Send validates and records msg.
func (s *LogSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	if err := msg.Validate(); err != nil {
		return Receipt{}, err
	}
	slog.InfoContext(ctx, "alert_event", "event", "email_logged", "to", msg.To, "subject", msg.Subject)
	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()
	return Receipt{ID: uuid.NewString(), Provider: "log", AcceptedAt: time.Now()}, nil
}

// Sent returns every message accepted so far, oldest first.
func (s *LogSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.sent)
}
