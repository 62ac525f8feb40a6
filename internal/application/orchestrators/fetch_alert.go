package orchestrators

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yuin/goldmark"
	"golang.org/x/time/rate"

	emailAdapter "memberadmin/internal/adapters/email"
)

// FetchAlerter emails the operator when the member list cannot be fetched.
type FetchAlerter struct {
	Sender    emailAdapter.Sender
	From      string
	To        []string
	SourceURL string
	// Limiter caps how often alerts go out during an outage; nil sends every alert.
	Limiter *rate.Limiter
}

// NewAlertLimiter allows one alert per interval.
func NewAlertLimiter(interval time.Duration) *rate.Limiter {
	return rate.NewLimiter(rate.Every(interval), 1)
}

// Notify sends one alert describing the failed fetch.
// PRE: cause is non-nil
// POST: No-op when a is nil, has no recipients or the limiter has no token left
func (a *FetchAlerter) Notify(ctx context.Context, workspaceID string, cause error, at time.Time) error {
	if a == nil || a.Sender == nil || len(a.To) == 0 {
		return nil
	}
	if a.Limiter != nil && !a.Limiter.Allow() {
		slog.DebugContext(ctx, "member_event", "event", "load_alert_suppressed", "workspace_id", workspaceID)
		return nil
	}

	body := fmt.Sprintf("## Member list unavailable\n\n"+
		"The member list could not be loaded for workspace `%s`.\n\n"+
		"- **Source:** %s\n"+
		"- **Time:** %s\n"+
		"- **Error:** `%s`\n",
		workspaceID, a.SourceURL, at.UTC().Format(time.RFC3339), cause)

	var html bytes.Buffer
	if err := goldmark.Convert([]byte(body), &html); err != nil {
		return fmt.Errorf("render alert: %w", err)
	}

	_, err := a.Sender.Send(ctx, emailAdapter.Message{
		To:      a.To,
		From:    a.From,
		Subject: "memberadmin: member list fetch failed",
		HTML:    html.String(),
		Text:    body,
		Tags:    map[string]string{"kind": "fetch_failed"},
	})
	return err
}
