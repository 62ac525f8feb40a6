// Package source fetches the member list from the remote JSON endpoint.
package source

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"memberadmin/internal/adapters/http/perf"
	"memberadmin/internal/domain/member"
)

// DefaultURL is the published member list.
const DefaultURL = "https://geektrust.s3-ap-southeast-1.amazonaws.com/adminui-problem/members.json"

// Config controls how the member list is fetched.
// A zero Timeout waits for the server; zero MaxRetries makes a single attempt.
type Config struct {
	URL        string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	MaxDelay   time.Duration
	// Transport is the base round tripper, http.DefaultTransport when nil.
	Transport http.RoundTripper
	// Collector receives one entry per attempt when non-nil.
	Collector *perf.Collector
}

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("member source returned status %d", e.StatusCode)
}

// Client fetches member records over HTTP.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a client with tracing on the transport.
// PRE: config.URL is non-empty or DefaultURL is wanted
// POST: RetryDelay and MaxDelay default to 200ms and 5s when retries are enabled
func NewClient(config Config) *Client {
	if config.URL == "" {
		config.URL = DefaultURL
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = 200 * time.Millisecond
	}
	if config.MaxDelay == 0 {
		config.MaxDelay = 5 * time.Second
	}
	base := config.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: otelhttp.NewTransport(base),
		},
	}
}

// URL returns the endpoint the client reads from.
func (c *Client) URL() string { return c.config.URL }

// Fetch retrieves and decodes the member list.
// PRE: none
// POST: Returns the records in response order, or an error describing the failure
func (c *Client) Fetch(ctx context.Context) ([]member.Member, error) {
	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff(attempt)):
			}
		}

		start := time.Now()
		records, err := c.fetchOnce(ctx)
		c.observe(start, err)
		if err == nil {
			return records, nil
		}
		lastErr = err
		if !shouldRetry(err) {
			break
		}
		slog.WarnContext(ctx, "member_source_retry", "attempt", attempt+1, "error", err)
	}
	return nil, lastErr
}

func (c *Client) fetchOnce(ctx context.Context) ([]member.Member, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var records []member.Member
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode member list: %w", err)
	}
	return records, nil
}

// observe records one attempt, labelled by host so query strings never reach /debug/perf.
func (c *Client) observe(start time.Time, err error) {
	if c.config.Collector == nil {
		return
	}
	label := c.config.URL
	if u, perr := url.Parse(c.config.URL); perr == nil && u.Host != "" {
		label = u.Host
	}
	status := http.StatusOK
	var statusErr *StatusError
	switch {
	case errors.As(err, &statusErr):
		status = statusErr.StatusCode
	case err != nil:
		status = 0
	}
	c.config.Collector.Record(perf.Entry{
		Kind:     perf.KindFetch,
		Label:    label,
		Status:   status,
		Failed:   err != nil,
		Duration: time.Since(start),
		At:       start,
	})
}

// backoff doubles RetryDelay per attempt up to MaxDelay and adds up to 25% jitter.
func (c *Client) backoff(attempt int) time.Duration {
	delay := c.config.RetryDelay
	for i := 1; i < attempt && delay < c.config.MaxDelay/2; i++ {
		delay *= 2
	}
	if delay > c.config.MaxDelay {
		delay = c.config.MaxDelay
	}
	if maxJitter := int64(delay / 4); maxJitter > 0 {
		if j, err := rand.Int(rand.Reader, big.NewInt(maxJitter)); err == nil {
			delay += time.Duration(j.Int64())
		}
	}
	return delay
}

// shouldRetry retries server errors, rate limiting and network failures.
func shouldRetry(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= http.StatusInternalServerError || statusErr.StatusCode == http.StatusTooManyRequests
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
