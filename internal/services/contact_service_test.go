package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"acroyoga_club_backend/internal/mailer"
)

func validContactRequest() ContactRequest {
	return ContactRequest{
		FullName: "Alba García",
		Email:    "alba@example.com",
		Subject:  "Beginner workshop",
		Message:  "Hola! Do I need a partner to join the Saturday workshop?",
	}
}

func TestContactSubmit(t *testing.T) {
	mail := newMockMailer()
	limiter := newMockLimiter(5)
	service := NewContactService(mail, limiter, "Acroyoga Valencia <hola@acroyogavalencia.com>", "hola@acroyogavalencia.com")

	if err := service.Submit(context.Background(), validContactRequest(), "203.0.113.9"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(mail.Sent) != 1 {
		t.Fatalf("relayed %d messages, want 1", len(mail.Sent))
	}
	msg := mail.Sent[0]
	if msg.To != "hola@acroyogavalencia.com" {
		t.Errorf("To = %q, want club inbox", msg.To)
	}
	if msg.Subject != "[Contact] Beginner workshop" {
		t.Errorf("Subject = %q, want tagged subject", msg.Subject)
	}
	if !strings.Contains(msg.HTML, "alba@example.com") || !strings.Contains(msg.HTML, "Alba García") {
		t.Error("relayed body must carry the sender's name and address")
	}
	if limiter.counts["contact:203.0.113.9"] != 1 {
		t.Errorf("limiter counts = %v, want one hit keyed by IP", limiter.counts)
	}
}

func TestContactSubmit_EscapesMessageHTML(t *testing.T) {
	mail := newMockMailer()
	service := NewContactService(mail, newMockLimiter(5), "hola@acroyogavalencia.com", "hola@acroyogavalencia.com")

	req := validContactRequest()
	req.Message = "<script>alert('hi')</script> see you there"
	if err := service.Submit(context.Background(), req, "203.0.113.9"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(mail.Sent[0].HTML, "<script>") {
		t.Error("message body must be HTML-escaped")
	}
}

func TestContactSubmit_InvalidEmailSkipsOutboundCalls(t *testing.T) {
	mail := newMockMailer()
	limiter := newMockLimiter(5)
	service := NewContactService(mail, limiter, "hola@acroyogavalencia.com", "hola@acroyogavalencia.com")

	req := validContactRequest()
	req.Email = "not-an-address"
	if err := service.Submit(context.Background(), req, "203.0.113.9"); !errors.Is(err, ErrInvalidContact) {
		t.Fatalf("error = %v, want ErrInvalidContact", err)
	}
	if len(mail.Sent) != 0 {
		t.Error("invalid submissions must not reach the mailer")
	}
	if len(limiter.counts) != 0 {
		t.Error("invalid submissions must not consume rate-limit quota")
	}
}

func TestContactSubmit_RateLimited(t *testing.T) {
	mail := newMockMailer()
	service := NewContactService(mail, newMockLimiter(5), "hola@acroyogavalencia.com", "hola@acroyogavalencia.com")

	for i := 0; i < 5; i++ {
		if err := service.Submit(context.Background(), validContactRequest(), "203.0.113.9"); err != nil {
			t.Fatalf("submission %d: unexpected error: %v", i+1, err)
		}
	}
	if err := service.Submit(context.Background(), validContactRequest(), "203.0.113.9"); !errors.Is(err, ErrRateLimited) {
		t.Errorf("sixth submission error = %v, want ErrRateLimited", err)
	}
	// A different address still gets through.
	if err := service.Submit(context.Background(), validContactRequest(), "198.51.100.7"); err != nil {
		t.Errorf("other IP must not share the quota, got: %v", err)
	}
	if len(mail.Sent) != 6 {
		t.Errorf("relayed %d messages, want 6", len(mail.Sent))
	}
}

func TestContactSubmit_ProviderDown(t *testing.T) {
	mail := newMockMailer()
	mail.SendErr = mailer.ErrProviderUnavailable
	service := NewContactService(mail, newMockLimiter(5), "hola@acroyogavalencia.com", "hola@acroyogavalencia.com")

	if err := service.Submit(context.Background(), validContactRequest(), "203.0.113.9"); !errors.Is(err, ErrMailProviderDown) {
		t.Errorf("error = %v, want ErrMailProviderDown", err)
	}
}

func TestContactSubmit_LimiterUnavailable(t *testing.T) {
	mail := newMockMailer()
	limiter := newMockLimiter(5)
	limiter.AllowErr = errors.New("redis: connection refused")
	service := NewContactService(mail, limiter, "hola@acroyogavalencia.com", "hola@acroyogavalencia.com")

	if err := service.Submit(context.Background(), validContactRequest(), "203.0.113.9"); err == nil {
		t.Error("limiter outage must surface as an error")
	}
	if len(mail.Sent) != 0 {
		t.Error("nothing must be relayed when the limiter is unavailable")
	}
}
