// Package email delivers operator alerts.
package email

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNoRecipients is returned when a message has nobody to go to.
var ErrNoRecipients = errors.New("email has no recipients")

// ErrNoSubject is returned when a message has an empty subject.
var ErrNoSubject = errors.New("email has no subject")

// Message is one outgoing email.
type Message struct {
	To      []string
	From    string // empty uses the sender's default address
	Subject string
	HTML    string
	Text    string
	// Tags label the message at the provider, e.g. {"kind": "fetch_failed"}.
	Tags map[string]string
}

// Validate checks the fields every provider requires.
func (m Message) Validate() error {
	if len(m.To) == 0 {
		return ErrNoRecipients
	}
	for _, to := range m.To {
		if strings.TrimSpace(to) == "" {
			return ErrNoRecipients
		}
	}
	if strings.TrimSpace(m.Subject) == "" {
		return ErrNoSubject
	}
	return nil
}

// Receipt records a message accepted by a provider.
type Receipt struct {
	ID         string
	Provider   string
	AcceptedAt time.Time
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) (Receipt, error)
}
