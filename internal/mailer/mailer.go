package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// ErrProviderUnavailable is returned when the email provider rejects or
// cannot be reached. Callers treat it as a dependency failure, not an
// input error.
var ErrProviderUnavailable = errors.New("email provider unavailable")

// Message is one outbound email.
type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Mailer sends a single message. Implementations must bound each call.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

const (
	defaultBaseURL = "https://api.resend.com"
	sendTimeout    = 10 * time.Second
)

// ResendMailer talks to the Resend HTTP API. A circuit breaker stops
// hammering the provider during an outage; individual calls are bounded
// by sendTimeout so a slow provider cannot stall a campaign batch.
type ResendMailer struct {
	apiKey  string
	baseURL string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker
}

// NewResendMailer creates a mailer for the given API key.
func NewResendMailer(apiKey string) *ResendMailer {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "Resend",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return &ResendMailer{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: sendTimeout},
		cb:      cb,
	}
}

// NewResendMailerWithBaseURL is used by tests to point at a stub server.
func NewResendMailerWithBaseURL(apiKey, baseURL string) *ResendMailer {
	m := NewResendMailer(apiKey)
	m.baseURL = baseURL
	return m
}

func (m *ResendMailer) Send(ctx context.Context, msg Message) error {
	_, err := m.cb.Execute(func() (interface{}, error) {
		return nil, m.send(ctx, msg)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: circuit open", ErrProviderUnavailable)
		}
		return err
	}
	return nil
}

func (m *ResendMailer) send(ctx context.Context, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrProviderUnavailable, resp.StatusCode, string(detail))
	}
	return nil
}
