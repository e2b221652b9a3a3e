package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"acroyoga_club_backend/internal/mailer"
	"acroyoga_club_backend/pkg/utils"
)

var (
	ErrRateLimited      = errors.New("too many contact requests from this address")
	ErrInvalidContact   = errors.New("contact form validation error")
	ErrMailProviderDown = errors.New("mail provider is unavailable")
)

const (
	contactLimit  = 5
	contactWindow = time.Hour
)

// ContactRequest is an inbound contact-form submission.
type ContactRequest struct {
	FullName string `json:"full_name" binding:"required,min=2,max=120"`
	Email    string `json:"email" binding:"required,email"`
	Subject  string `json:"subject" binding:"required,min=3,max=200"`
	Message  string `json:"message" binding:"required,min=10,max=5000"`
}

// RateLimiter counts events per key within a sliding window and reports
// whether the current one is allowed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// redisRateLimiter is a fixed-window counter: INCR the key, set the
// expiry on first hit, deny once the count passes the limit.
type redisRateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewContactRateLimiter creates the limiter used for contact-form abuse
// protection.
func NewContactRateLimiter(client *redis.Client) RateLimiter {
	return &redisRateLimiter{client: client, limit: contactLimit, window: contactWindow}
}

func (l *redisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("rate limiter unavailable: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("rate limiter unavailable: %w", err)
		}
	}
	return count <= l.limit, nil
}

// --- ContactService Interface ---
type ContactService interface {
	// Submit relays a contact-form message to the club inbox. clientIP
	// keys the rate limit.
	Submit(ctx context.Context, req ContactRequest, clientIP string) error
}

// --- contactService Implementation ---
type contactService struct {
	mail        mailer.Mailer
	limiter     RateLimiter
	fromAddress string
	clubInbox   string
}

// NewContactService creates a new instance of ContactService.
func NewContactService(mail mailer.Mailer, limiter RateLimiter, fromAddress, clubInbox string) ContactService {
	return &contactService{
		mail:        mail,
		limiter:     limiter,
		fromAddress: fromAddress,
		clubInbox:   clubInbox,
	}
}

func (s *contactService) Submit(ctx context.Context, req ContactRequest, clientIP string) error {
	// Cheap checks before spending any outbound call.
	if !utils.IsValidEmail(req.Email) {
		return fmt.Errorf("%w: invalid email address", ErrInvalidContact)
	}

	allowed, err := s.limiter.Allow(ctx, "contact:"+clientIP)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrRateLimited
	}

	msg := mailer.Message{
		From:    s.fromAddress,
		To:      s.clubInbox,
		Subject: fmt.Sprintf("[Contact] %s", req.Subject),
		HTML:    renderContactBody(req),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		if errors.Is(err, mailer.ErrProviderUnavailable) {
			return ErrMailProviderDown
		}
		return fmt.Errorf("failed to relay contact message: %w", err)
	}
	return nil
}

func renderContactBody(req ContactRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p><strong>From:</strong> %s &lt;%s&gt;</p>",
		html.EscapeString(req.FullName), html.EscapeString(req.Email))
	fmt.Fprintf(&b, "<p>%s</p>",
		strings.ReplaceAll(html.EscapeString(req.Message), "\n", "<br>"))
	return b.String()
}
