package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replypilot/internal/config"
	"github.com/replypilot/pkg/models"
)

func newTestServer(t *testing.T) (*Server, *fixture) {
	t.Helper()
	f := newFixture(t, &models.Classification{Template: "NOT_INTERESTED", Signals: []string{"explicit_no"}})

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	cfg.Server.WebhookSecret = "hook-secret"
	cfg.Server.JWTSecret = "jwt-secret"
	cfg.Server.OperatorEmail = "ops@example.com"
	hash, err := HashPassword("operator-pass")
	require.NoError(t, err)
	cfg.Server.OperatorPasswordHash = hash

	return NewServer(cfg, f.store, f.orch, f.recorder), f
}

func TestWebhookRejectsBadSecret(t *testing.T) {
	s, _ := newTestServer(t)

	body := `{"event_type":"email.reply","message":{"message_id":"m1","thread_id":"t1"}}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/email-reply", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Secret", "wrong")
	rec := httptest.NewRecorder()

	s.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookAcceptsDelivery(t *testing.T) {
	s, _ := newTestServer(t)

	body := `{"event_type":"email.reply","message":{"message_id":"m1","thread_id":"t1","from":"a@b.c","body":"not interested"}}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/email-reply", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-webhook-secret", "hook-secret")
	rec := httptest.NewRecorder()

	s.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookRequiresMessageID(t *testing.T) {
	s, _ := newTestServer(t)

	body := `{"event_type":"email.reply","message":{"thread_id":"t1"}}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/email-reply", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Secret", "hook-secret")
	rec := httptest.NewRecorder()

	s.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginAndOperatorEndpoints(t *testing.T) {
	s, f := newTestServer(t)

	// No token: rejected.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/threads/t1", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Bad credentials.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"email":"ops@example.com","password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Good credentials mint a token.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"email":"ops@example.com","password":"operator-pass"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var login LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)

	// Thread state is readable with the token.
	f.store.SetManualOwner("t1")
	req = httptest.NewRequest(http.MethodGet, "/api/v1/threads/t1", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec = httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var thread ThreadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &thread))
	assert.True(t, thread.ManualOwner)

	// Manual release clears the flag.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/threads/t1/manual-release", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec = httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, f.store.ManualOwner("t1"))

	// Recent decisions endpoint answers with the audit trail.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/decisions/recent", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec = httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
