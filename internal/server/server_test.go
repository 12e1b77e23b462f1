package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/hearth/internal/config"
	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/email"
	"github.com/dukerupert/hearth/internal/logging"
	"github.com/dukerupert/hearth/internal/push"
)

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.Config{
		TokenSecret: "test-secret",
		TokenTTL:    time.Hour,
		MaxMembers:  10,
		MaxChores:   30,
	}
	srv := New(db, cfg, email.NewClient("", "from@example.com", "http://localhost"), push.NewService("", "", ""), logging.Setup("error"))

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("auth-token", token)
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func register(t *testing.T, ts *httptest.Server, name, emailAddr string) string {
	t.Helper()
	resp, _ := doJSON(t, ts, "POST", "/api/user/register", "", map[string]string{
		"name": name, "email": emailAddr, "password": "password",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register %s: status %d", emailAddr, resp.StatusCode)
	}
	token := resp.Header.Get("auth-token")
	if token == "" {
		t.Fatal("expected auth-token header on register")
	}
	return token
}

func TestRegisterLoginAndProfile(t *testing.T) {
	ts := setupTestServer(t)

	register(t, ts, "Alice Smith", "alice@example.com")

	resp, body := doJSON(t, ts, "POST", "/api/user/login", "", map[string]string{
		"email": "alice@example.com", "password": "password",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: status %d", resp.StatusCode)
	}
	token := resp.Header.Get("auth-token")
	if token == "" {
		t.Fatal("expected auth-token header on login")
	}

	resp, body = doJSON(t, ts, "GET", "/api/user", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get profile: status %d", resp.StatusCode)
	}
	user, _ := body["user"].(map[string]any)
	if user["email"] != "alice@example.com" || user["name"] != "Alice Smith" {
		t.Errorf("unexpected profile: %v", user)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := setupTestServer(t)

	resp, _ := doJSON(t, ts, "GET", "/api/user", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, ts, "GET", "/api/chore/all", "garbage-token", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid token, got %d", resp.StatusCode)
	}
}

func TestChoreRoutesRequireHousehold(t *testing.T) {
	ts := setupTestServer(t)
	token := register(t, ts, "Bob Jones", "bob@example.com")

	resp, body := doJSON(t, ts, "GET", "/api/chore/all", token, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without household, got %d", resp.StatusCode)
	}
	if body["message"] != "The specified user does not belong to a household" {
		t.Errorf("unexpected message %v", body["message"])
	}
}

func TestHouseholdChoreLifecycle(t *testing.T) {
	ts := setupTestServer(t)
	token := register(t, ts, "Alice Smith", "alice@example.com")

	resp, body := doJSON(t, ts, "POST", "/api/household/create", token, map[string]string{
		"name": "Casa Grande",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create household: status %d (%v)", resp.StatusCode, body)
	}
	householdID, _ := body["householdId"].(string)
	if householdID == "" {
		t.Fatal("expected a household ID")
	}

	resp, body = doJSON(t, ts, "POST", "/api/chore", token, map[string]string{"title": "Wash the dishes"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create chore: status %d (%v)", resp.StatusCode, body)
	}
	c, _ := body["chore"].(map[string]any)
	choreID, _ := c["_id"].(string)
	if choreID == "" {
		t.Fatal("expected a chore ID")
	}

	resp, body = doJSON(t, ts, "PATCH", "/api/chore/assign/self", token, map[string]string{"choreId": choreID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("assign self: status %d (%v)", resp.StatusCode, body)
	}

	resp, body = doJSON(t, ts, "PATCH", "/api/chore/complete", token, map[string]string{"choreId": choreID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("complete chore: status %d (%v)", resp.StatusCode, body)
	}
	c, _ = body["chore"].(map[string]any)
	if c["isCompleted"] != true {
		t.Errorf("expected chore to be completed, got %v", c)
	}

	resp, body = doJSON(t, ts, "GET", "/api/household", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get household: status %d", resp.StatusCode)
	}
	h, _ := body["household"].(map[string]any)
	if h["completedChoreCounter"] != float64(1) {
		t.Errorf("expected completed counter 1, got %v", h["completedChoreCounter"])
	}

	// Self-assignment notification from the earlier step
	resp, body = doJSON(t, ts, "GET", "/api/notification", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list notifications: status %d", resp.StatusCode)
	}
	notifications, _ := body["notifications"].([]any)
	if len(notifications) != 1 {
		t.Errorf("expected 1 notification, got %d", len(notifications))
	}
}
