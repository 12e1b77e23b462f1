package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientNotConfigured(t *testing.T) {
	c := NewClient("", "from@example.com", "http://localhost")
	if c.Configured() {
		t.Error("expected Configured to be false without a token")
	}
	err := c.SendInvite(context.Background(), "to@example.com", "Alice", "Casa", "house-1", RecipientNew)
	if err == nil {
		t.Error("expected error when sending without configuration")
	}
}

func TestSendInvitePayload(t *testing.T) {
	var got postmarkEmail
	var gotToken string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	// Route the Postmark call to the test server.
	transport := rewriteTransport{target: server.URL}
	c := NewClient("token-123", "from@example.com", "http://hearth.example.com",
		WithHTTPClient(&http.Client{Transport: transport}))

	if err := c.SendInvite(context.Background(), "to@example.com", "Alice", "Casa", "house-1", RecipientNoHousehold); err != nil {
		t.Fatalf("SendInvite failed: %v", err)
	}

	if gotToken != "token-123" {
		t.Errorf("expected server token header, got %q", gotToken)
	}
	if got.To != "to@example.com" || got.From != "from@example.com" {
		t.Errorf("unexpected addresses: %+v", got)
	}
	if !strings.Contains(got.Subject, "Alice") || !strings.Contains(got.Subject, "Casa") {
		t.Errorf("expected subject to name inviter and household, got %q", got.Subject)
	}
	if !strings.Contains(got.TextBody, "house-1") {
		t.Error("expected text body to carry the join identifier")
	}
	if !strings.Contains(got.TextBody, "http://hearth.example.com") {
		t.Error("expected text body to link to the app")
	}
}

func TestSendRetriesOnServerError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient("token-123", "from@example.com", "http://localhost",
		WithHTTPClient(&http.Client{Transport: rewriteTransport{target: server.URL}}))

	if err := c.SendWelcome(context.Background(), "to@example.com", "Bob"); err != nil {
		t.Fatalf("expected send to succeed after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestSendDoesNotRetryClientError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	c := NewClient("token-123", "from@example.com", "http://localhost",
		WithHTTPClient(&http.Client{Transport: rewriteTransport{target: server.URL}}))

	if err := c.SendWelcome(context.Background(), "to@example.com", "Bob"); err == nil {
		t.Fatal("expected client error to surface")
	}
	if calls != 1 {
		t.Errorf("expected a single attempt, got %d", calls)
	}
}

// rewriteTransport redirects every request to the test server.
type rewriteTransport struct {
	target string
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	redirected, err := http.NewRequestWithContext(req.Context(), req.Method, t.target, req.Body)
	if err != nil {
		return nil, err
	}
	redirected.Header = req.Header
	return http.DefaultTransport.RoundTrip(redirected)
}
