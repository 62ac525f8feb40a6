package email

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/resend/resend-go/v2"
)

// ResendSender delivers messages through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender creates a sender for the given API key.
// PRE: apiKey is a Resend API key; from is a verified sender address
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

// Send validates msg and hands it to Resend.
// POST: on success the receipt carries the Resend email ID
func (s *ResendSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	if err := msg.Validate(); err != nil {
		return Receipt{}, err
	}
	from := msg.From
	if from == "" {
		from = s.from
	}

	sent, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    from,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
		Tags:    resendTags(msg.Tags),
	})
	if err != nil {
		slog.ErrorContext(ctx, "alert_event", "event", "email_failed", "provider", "resend", "subject", msg.Subject, "error", err)
		return Receipt{}, fmt.Errorf("resend send: %w", err)
	}

	slog.InfoContext(ctx, "alert_event", "event", "email_sent", "provider", "resend", "id", sent.Id, "recipients", len(msg.To))
	return Receipt{ID: sent.Id, Provider: "resend", AcceptedAt: time.Now()}, nil
}

// resendTags converts tags in key order so requests are deterministic.
func resendTags(tags map[string]string) []resend.Tag {
	if len(tags) == 0 {
		return nil
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]resend.Tag, 0, len(keys))
	for _, k := range keys {
		out = append(out, resend.Tag{Name: k, Value: tags[k]})
	}
	return out
}
