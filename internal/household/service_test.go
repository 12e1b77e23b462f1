package household

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/hearth/internal/apperr"
	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/email"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/notify"
	"github.com/dukerupert/hearth/internal/store"
)

type testEnv struct {
	svc           *Service
	users         *store.UserStore
	households    *store.HouseholdStore
	notifications *store.NotificationStore
	chores        *store.ChoreStore
}

func setupTestService(t *testing.T, opts ...email.Option) *testEnv {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	users := store.NewUserStore(db)
	households := store.NewHouseholdStore(db)
	notifications := store.NewNotificationStore(db)
	notifySvc := notify.NewService(notifications, store.NewPushStore(db), nil, slog.Default())
	emailClient := email.NewClient("test-token", "from@example.com", "http://localhost", opts...)

	svc := NewService(households, users, notifySvc, emailClient, 10, slog.Default())
	svc.now = func() time.Time {
		return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	}

	return &testEnv{
		svc:           svc,
		users:         users,
		households:    households,
		notifications: notifications,
		chores:        store.NewChoreStore(db),
	}
}

func (e *testEnv) createUser(t *testing.T, name, emailAddr string) *model.User {
	t.Helper()
	u, err := e.users.Create(name, emailAddr, "hash")
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return u
}

func (e *testEnv) refresh(t *testing.T, userID string) *model.User {
	t.Helper()
	u, err := e.users.GetByID(userID)
	if err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	return u
}

func TestCreateHousehold(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	alice := env.createUser(t, "Alice", "alice@example.com")
	h, err := env.svc.Create(ctx, alice, "Casa Nova")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if len(h.Members) != 1 || h.Members[0] != alice.ID {
		t.Errorf("expected creator as sole member, got %v", h.Members)
	}
	if len(h.ChoreAssignees) != 1 {
		t.Errorf("expected creator in rotation pool, got %v", h.ChoreAssignees)
	}

	if got := env.refresh(t, alice.ID); got.HouseholdID == nil || *got.HouseholdID != h.ID {
		t.Error("expected alice's household ID to be set")
	}
}

func TestCreateHouseholdValidation(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	alice := env.createUser(t, "Alice", "alice@example.com")
	if _, err := env.svc.Create(ctx, alice, "short"); err == nil ||
		err.Error() != `"name" length must be at least 6 characters long` {
		t.Errorf("expected name-length error, got %v", err)
	}

	if _, err := env.svc.Create(ctx, alice, "Casa Nova"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	alice = env.refresh(t, alice.ID)
	if _, err := env.svc.Create(ctx, alice, "Second Home"); err == nil ||
		err.Error() != "The specified user already belongs to a household" {
		t.Errorf("expected already-member error, got %v", err)
	}
}

func TestJoinHousehold(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	alice := env.createUser(t, "Alice", "alice@example.com")
	bob := env.createUser(t, "Bob", "bob@example.com")
	h, _ := env.svc.Create(ctx, alice, "Casa Nova")

	joined, err := env.svc.Join(ctx, bob, h.ID)
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if len(joined.Members) != 2 {
		t.Errorf("expected 2 members, got %v", joined.Members)
	}
	if got := env.refresh(t, bob.ID); got.HouseholdID == nil || *got.HouseholdID != h.ID {
		t.Error("expected bob's household ID to be set")
	}

	// Existing members are notified, the joiner is not.
	aliceList, _ := env.notifications.ListForUser(alice.ID)
	if len(aliceList) != 1 || aliceList[0].Title != "Bob joined the household" {
		t.Errorf("expected join notification for alice, got %v", aliceList)
	}
	if aliceList[0].Description != "There are now 2 members" {
		t.Errorf("unexpected description %q", aliceList[0].Description)
	}
	bobList, _ := env.notifications.ListForUser(bob.ID)
	if len(bobList) != 0 {
		t.Errorf("expected no notification for the joiner, got %v", bobList)
	}
}

func TestJoinHouseholdErrors(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	alice := env.createUser(t, "Alice", "alice@example.com")
	bob := env.createUser(t, "Bob", "bob@example.com")
	h, _ := env.svc.Create(ctx, alice, "Casa Nova")

	if _, err := env.svc.Join(ctx, bob, ""); err == nil || err.Error() != "A household ID was not provided" {
		t.Errorf("expected missing-ID error, got %v", err)
	}
	if _, err := env.svc.Join(ctx, bob, "no-such-id"); apperr.KindOf(err) != apperr.NotFound {
		t.Errorf("expected not-found error, got %v", err)
	}

	alice = env.refresh(t, alice.ID)
	if _, err := env.svc.Join(ctx, alice, h.ID); err == nil ||
		err.Error() != "The specified user already belongs to a household" {
		t.Errorf("expected already-member error, got %v", err)
	}
}

func TestJoinHouseholdCapacity(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	env.svc.maxMembers = 2

	alice := env.createUser(t, "Alice", "alice@example.com")
	bob := env.createUser(t, "Bob", "bob@example.com")
	carol := env.createUser(t, "Carol", "carol@example.com")
	h, _ := env.svc.Create(ctx, alice, "Casa Nova")

	if _, err := env.svc.Join(ctx, bob, h.ID); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	_, err := env.svc.Join(ctx, carol, h.ID)
	if err == nil || err.Error() != "The specified household has reached capacity" {
		t.Errorf("expected capacity error, got %v", err)
	}
}

func TestLeaveHousehold(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	alice := env.createUser(t, "Alice", "alice@example.com")
	bob := env.createUser(t, "Bob", "bob@example.com")
	h, _ := env.svc.Create(ctx, alice, "Casa Nova")
	if _, err := env.svc.Join(ctx, bob, h.ID); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	household, _ := env.households.GetByID(h.ID)
	if err := env.svc.Leave(ctx, bob, household); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}

	got, _ := env.households.GetByID(h.ID)
	if len(got.Members) != 1 || got.Members[0] != alice.ID {
		t.Errorf("expected only alice left, got %v", got.Members)
	}
	if len(got.ChoreAssignees) != 1 {
		t.Errorf("expected bob removed from rotation pool, got %v", got.ChoreAssignees)
	}
	if u := env.refresh(t, bob.ID); u.HouseholdID != nil {
		t.Error("expected bob's household ID cleared")
	}

	// Remaining members hear about it.
	aliceList, _ := env.notifications.ListForUser(alice.ID)
	var found bool
	for _, n := range aliceList {
		if n.Title == "Bob left the household" {
			found = true
			if n.Description != "There are now 1 members" {
				t.Errorf("unexpected description %q", n.Description)
			}
		}
	}
	if !found {
		t.Errorf("expected leave notification for alice, got %v", aliceList)
	}
}

func TestLeaveHouseholdNotMember(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	alice := env.createUser(t, "Alice", "alice@example.com")
	mallory := env.createUser(t, "Mallory", "mallory@example.com")
	h, _ := env.svc.Create(ctx, alice, "Casa Nova")

	household, _ := env.households.GetByID(h.ID)
	err := env.svc.Leave(ctx, mallory, household)
	if err == nil || err.Error() != "The specified user does not belong to the specified household" {
		t.Errorf("expected not-member error, got %v", err)
	}
}

func TestGetViewDisplaysStreak(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	alice := env.createUser(t, "Alice", "alice@example.com")
	h, _ := env.svc.Create(ctx, alice, "Casa Nova")

	// Streak completed two days before "now" should display as zero.
	stale := time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)
	if err := env.households.SetStreak(h.ID, 5, stale); err != nil {
		t.Fatalf("SetStreak failed: %v", err)
	}

	household, _ := env.households.GetByID(h.ID)
	view, err := env.svc.Get(ctx, household)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if view.CompletedChoreStreak != 0 {
		t.Errorf("expected expired streak to display 0, got %d", view.CompletedChoreStreak)
	}
	if len(view.Members) != 1 || view.Members[0].Name != "Alice" {
		t.Errorf("expected member summaries, got %v", view.Members)
	}

	// A completion yesterday keeps the streak visible.
	fresh := time.Date(2026, 3, 13, 9, 0, 0, 0, time.UTC)
	if err := env.households.SetStreak(h.ID, 5, fresh); err != nil {
		t.Fatalf("SetStreak failed: %v", err)
	}
	household, _ = env.households.GetByID(h.ID)
	view, _ = env.svc.Get(ctx, household)
	if view.CompletedChoreStreak != 5 {
		t.Errorf("expected live streak 5, got %d", view.CompletedChoreStreak)
	}
}

func TestInvite(t *testing.T) {
	var sent bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sent = true
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	env := setupTestService(t, email.WithHTTPClient(&http.Client{Transport: rewriteTransport{target: server.URL}}))
	ctx := context.Background()

	alice := env.createUser(t, "Alice", "alice@example.com")
	h, _ := env.svc.Create(ctx, alice, "Casa Nova")
	alice = env.refresh(t, alice.ID)
	household, _ := env.households.GetByID(h.ID)

	if err := env.svc.Invite(ctx, alice, household, "friend@example.com"); err != nil {
		t.Fatalf("Invite failed: %v", err)
	}
	if !sent {
		t.Error("expected an email to be sent")
	}
}

func TestInviteValidation(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	alice := env.createUser(t, "Alice", "alice@example.com")
	bob := env.createUser(t, "Bob", "bob@example.com")
	h, _ := env.svc.Create(ctx, alice, "Casa Nova")
	if _, err := env.svc.Join(ctx, bob, h.ID); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	alice = env.refresh(t, alice.ID)
	household, _ := env.households.GetByID(h.ID)

	if err := env.svc.Invite(ctx, alice, household, "not-an-email"); err == nil ||
		err.Error() != `"email" must be a valid email` {
		t.Errorf("expected email validation error, got %v", err)
	}
	if err := env.svc.Invite(ctx, alice, household, "alice@example.com"); err == nil ||
		err.Error() != "You cannot send an invite to yourself" {
		t.Errorf("expected self-invite error, got %v", err)
	}
	if err := env.svc.Invite(ctx, alice, household, "bob@example.com"); err == nil ||
		err.Error() != "The specified recipient is already a member of this household" {
		t.Errorf("expected already-member error, got %v", err)
	}
}

func TestInviteEmailFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	env := setupTestService(t, email.WithHTTPClient(&http.Client{Transport: rewriteTransport{target: server.URL}}))
	ctx := context.Background()

	alice := env.createUser(t, "Alice", "alice@example.com")
	h, _ := env.svc.Create(ctx, alice, "Casa Nova")
	alice = env.refresh(t, alice.ID)
	household, _ := env.households.GetByID(h.ID)

	err := env.svc.Invite(ctx, alice, household, "friend@example.com")
	if err == nil || err.Error() != "The invitiation request failed" {
		t.Errorf("expected invite failure error, got %v", err)
	}
}

func TestReorderChores(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	alice := env.createUser(t, "Alice", "alice@example.com")
	h, _ := env.svc.Create(ctx, alice, "Casa Nova")

	var ids []string
	for _, title := range []string{"One", "Two", "Three"} {
		c, err := env.chores.Create(title, alice.ID)
		if err != nil {
			t.Fatalf("create chore failed: %v", err)
		}
		if err := env.households.AppendChore(h.ID, c.ID); err != nil {
			t.Fatalf("AppendChore failed: %v", err)
		}
		ids = append(ids, c.ID)
	}
	household, _ := env.households.GetByID(h.ID)

	reversed := []string{ids[2], ids[1], ids[0]}
	if err := env.svc.ReorderChores(ctx, household, reversed); err != nil {
		t.Fatalf("ReorderChores failed: %v", err)
	}

	got, _ := env.households.GetByID(h.ID)
	for i, id := range reversed {
		if got.Chores[i] != id {
			t.Errorf("chore %d: expected %s, got %s", i, id, got.Chores[i])
		}
	}

	// Wrong length, foreign IDs, and duplicates are all rejected.
	if err := env.svc.ReorderChores(ctx, got, ids[:2]); err == nil ||
		err.Error() != "'chores' parameter must be the same length as the household chores list" {
		t.Errorf("expected length error, got %v", err)
	}
	if err := env.svc.ReorderChores(ctx, got, []string{ids[0], ids[1], "foreign"}); err == nil ||
		err.Error() != "An unexpected chore ID was specified" {
		t.Errorf("expected unexpected-ID error, got %v", err)
	}
	if err := env.svc.ReorderChores(ctx, got, []string{ids[0], ids[1], ids[1]}); err == nil ||
		err.Error() != "A duplicate chore ID was specified" {
		t.Errorf("expected duplicate error, got %v", err)
	}
	if err := env.svc.ReorderChores(ctx, got, nil); err == nil ||
		err.Error() != "A list of chores must be provided" {
		t.Errorf("expected missing-list error, got %v", err)
	}
}

func TestUpdateProfilePhoto(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	alice := env.createUser(t, "Alice", "alice@example.com")

	if err := env.svc.UpdateProfilePhoto(ctx, alice, 7); err != nil {
		t.Fatalf("UpdateProfilePhoto failed: %v", err)
	}
	if got := env.refresh(t, alice.ID); got.ProfilePhoto != 7 {
		t.Errorf("expected photo 7, got %d", got.ProfilePhoto)
	}

	if err := env.svc.UpdateProfilePhoto(ctx, alice, 54); err == nil ||
		err.Error() != "Profile photo selection is out of range" {
		t.Errorf("expected out-of-range error, got %v", err)
	}
	if err := env.svc.UpdateProfilePhoto(ctx, alice, -2); err == nil {
		t.Error("expected out-of-range error for -2")
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
