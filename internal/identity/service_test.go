package identity

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dukerupert/hearth/internal/apperr"
	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/store"
)

func setupTestService(t *testing.T) *Service {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	return NewService(store.NewUserStore(db), tokens, nil, slog.Default())
}

func TestRegisterAndLogin(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, "joe BLOGGS", "Joe.Bloggs@Example.com ", "password")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Name != "Joe Bloggs" {
		t.Errorf("expected canonical name, got %q", user.Name)
	}
	if user.Email != "joe.bloggs@example.com" {
		t.Errorf("expected lowercased email, got %q", user.Email)
	}
	if user.PasswordHash == "password" || user.PasswordHash == "" {
		t.Error("expected password to be hashed")
	}
	if token == "" {
		t.Error("expected a signed token")
	}

	got, token, err := svc.Login(ctx, "JOE.bloggs@example.com", "password")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if got.ID != user.ID || token == "" {
		t.Error("expected login to return the registered user and a token")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "Joe Bloggs", "joe@example.com", "password"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	_, _, err := svc.Register(ctx, "Other Joe", "joe@example.com", "password2")
	if err == nil || err.Error() != "An account using this email address already exists" {
		t.Errorf("expected duplicate-email error, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	cases := []struct {
		name, email, password, wantMsg string
	}{
		{"", "joe@example.com", "password", `"name" is required`},
		{"Joe Bloggs", "not-an-email", "password", `"email" must be a valid email`},
		{"Joe Bloggs", "joe@example.com", "", `"password" is required`},
		{"Joe Bloggs", "joe@example.com", "short", `"password" length must be at least 6 characters long`},
	}
	for _, tc := range cases {
		_, _, err := svc.Register(ctx, tc.name, tc.email, tc.password)
		if apperr.KindOf(err) != apperr.Validation || err.Error() != tc.wantMsg {
			t.Errorf("Register(%q, %q, %q): expected %q, got %v", tc.name, tc.email, tc.password, tc.wantMsg, err)
		}
	}
}

func TestLoginBadCredentials(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "Joe Bloggs", "joe@example.com", "password"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// Unknown address and wrong password return the same message.
	_, _, err := svc.Login(ctx, "nobody@example.com", "password")
	if err == nil || err.Error() != "Email address or password is incorrect" {
		t.Errorf("expected credentials error, got %v", err)
	}
	_, _, err = svc.Login(ctx, "joe@example.com", "wrong-password")
	if err == nil || err.Error() != "Email address or password is incorrect" {
		t.Errorf("expected credentials error, got %v", err)
	}
}

func TestCanonicalName(t *testing.T) {
	cases := map[string]string{
		"joe bloggs":    "Joe Bloggs",
		"JOE BLOGGS":    "Joe Bloggs",
		"  ada  ":       "Ada",
		"mary-jane doe": "Mary-jane Doe",
	}
	for in, want := range cases {
		if got := CanonicalName(in); got != want {
			t.Errorf("CanonicalName(%q) = %q, want %q", in, got, want)
		}
	}
}
