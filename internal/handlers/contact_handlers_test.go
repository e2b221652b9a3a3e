package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"acroyoga_club_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type stubContactService struct {
	submitErr error
	calls     []services.ContactRequest
	ips       []string
}

func (s *stubContactService) Submit(_ context.Context, req services.ContactRequest, clientIP string) error {
	s.calls = append(s.calls, req)
	s.ips = append(s.ips, clientIP)
	return s.submitErr
}

func newContactRouter(stub *stubContactService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.POST("/api/contact", NewContactHandler(stub).SubmitContactForm)
	return engine
}

func postContact(t *testing.T, engine *gin.Engine, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/contact", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func validContactBody() map[string]string {
	return map[string]string{
		"full_name": "Alba García",
		"email":     "alba@example.com",
		"subject":   "Beginner workshop",
		"message":   "Hola! Do I need a partner to join the Saturday workshop?",
	}
}

func TestSubmitContactForm(t *testing.T) {
	stub := &stubContactService{}
	engine := newContactRouter(stub)

	rec := postContact(t, engine, validContactBody())

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	if len(stub.calls) != 1 {
		t.Fatalf("service called %d times, want 1", len(stub.calls))
	}
	if stub.calls[0].Email != "alba@example.com" {
		t.Errorf("forwarded email = %q, want alba@example.com", stub.calls[0].Email)
	}
	if stub.ips[0] == "" {
		t.Error("client IP must be forwarded to the service")
	}
}

func TestSubmitContactForm_ValidationFailure(t *testing.T) {
	stub := &stubContactService{}
	engine := newContactRouter(stub)

	body := validContactBody()
	body["message"] = "too short"
	rec := postContact(t, engine, body)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body: %s", rec.Code, rec.Body.String())
	}
	if len(stub.calls) != 0 {
		t.Error("invalid payloads must not reach the service")
	}

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if resp.Error.Code != "VALIDATION_FAILED" {
		t.Errorf("error code = %q, want VALIDATION_FAILED", resp.Error.Code)
	}
}

func TestSubmitContactForm_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		submitErr  error
		wantStatus int
	}{
		{name: "rate_limited", submitErr: services.ErrRateLimited, wantStatus: http.StatusTooManyRequests},
		{name: "invalid_contact", submitErr: services.ErrInvalidContact, wantStatus: http.StatusBadRequest},
		{name: "provider_down", submitErr: services.ErrMailProviderDown, wantStatus: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newContactRouter(&stubContactService{submitErr: tt.submitErr})
			rec := postContact(t, engine, validContactBody())
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d; body: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}
