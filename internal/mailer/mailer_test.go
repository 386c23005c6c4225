package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/replypilot/pkg/models"
)

func TestSendReplySetsAutoHeader(t *testing.T) {
	var got sendPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %s, want /v1/messages", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("auth header = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"message_id": "msg-123"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "outreach@example.com", 0)
	result, err := client.SendReply(context.Background(), SendRequest{
		ThreadID: "t1",
		To:       "hiring@acme.example",
		Subject:  "Re: Engineers for Acme",
		Body:     "body",
		Template: "YES_SEND",
	})
	if err != nil {
		t.Fatalf("SendReply: %v", err)
	}
	if result.MessageID != "msg-123" {
		t.Errorf("message id = %q", result.MessageID)
	}
	if got.Headers[AutoHeader] != "1" {
		t.Errorf("auto header = %q, want 1", got.Headers[AutoHeader])
	}
	if got.From != "outreach@example.com" {
		t.Errorf("from = %q", got.From)
	}
}

func TestSendReplyErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", "a@b.c", 0)
	_, err := client.SendReply(context.Background(), SendRequest{ThreadID: "t1"})
	if err == nil {
		t.Fatal("expected error on 429")
	}
}

func TestRender(t *testing.T) {
	body, err := Render("YES_SEND", nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if body == "" {
		t.Fatal("empty body")
	}

	body, err = Render("ROLE_CONFIRMED", map[string]string{"role": "backend engineer"})
	if err != nil {
		t.Fatalf("Render with extraction: %v", err)
	}
	if want := "backend engineer"; !strings.Contains(body, want) {
		t.Errorf("body %q does not contain %q", body, want)
	}

	if _, err := Render("ROLE_CONFIRMED", nil); err == nil {
		t.Error("expected error for unfilled placeholder")
	}
	if _, err := Render("NO_SUCH_TEMPLATE", nil); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestReplySubject(t *testing.T) {
	cases := []struct {
		subject string
		want    string
	}{
		{"Engineers for Acme", "Re: Engineers for Acme"},
		{"Re: Engineers for Acme", "Re: Engineers for Acme"},
		{"", "Re: your reply"},
	}
	for _, tc := range cases {
		got := ReplySubject(&models.Message{Subject: tc.subject})
		if got != tc.want {
			t.Errorf("ReplySubject(%q) = %q, want %q", tc.subject, got, tc.want)
		}
	}
}
