package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/drewfead/slotbook/internal/api"
	"github.com/drewfead/slotbook/internal/booking"
	"github.com/drewfead/slotbook/internal/calendar"
	"github.com/drewfead/slotbook/internal/session"
	"github.com/drewfead/slotbook/internal/view"
	"github.com/drewfead/slotbook/pkg/bookingtest"
)

func testSessionStore(t *testing.T) *session.Store {
	t.Helper()
	return session.NewStore(filepath.Join(t.TempDir(), "session.json"))
}

// TestIntegration_LoginFlow covers the login scenario end to end:
// credentials in, session persisted, navigation showing the identity.
func TestIntegration_LoginFlow(t *testing.T) {
	server := bookingtest.NewServer()
	defer server.Close()
	server.AddUser("alice", "alice@example.com", "pw")

	ctx := context.Background()
	store := testSessionStore(t)

	anon := api.NewClient(ctx, server.BaseURL(), nil)
	result, err := anon.Login(ctx, "alice", "pw")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	sess := &session.Session{
		UserID:   result.ID,
		Username: result.Username,
		Email:    result.Email,
		Token:    result.Token,
	}
	if err := store.Save(sess); err != nil {
		t.Fatalf("failed to persist session: %v", err)
	}

	reloaded := store.Load()
	if reloaded == nil {
		t.Fatal("expected a persisted session")
	}
	if reloaded.UserID != 1 || reloaded.Username != "alice" || reloaded.Token != result.Token {
		t.Errorf("session does not hold the login triple: %+v", reloaded)
	}

	nav := view.RenderNav(reloaded)
	if !strings.Contains(nav.Welcome, "alice") {
		t.Errorf("expected navigation to show alice, got %q", nav.Welcome)
	}
	if !nav.ShowLogout || nav.ShowLogin {
		t.Errorf("expected logged-in navigation, got %+v", nav)
	}

	// The persisted token authorizes subsequent requests.
	authed := api.NewClient(ctx, server.BaseURL(), reloaded)
	me, err := authed.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("whoami failed: %v", err)
	}
	if me.Username != "alice" {
		t.Errorf("expected current user alice, got %q", me.Username)
	}
}

// TestIntegration_BookThenRefresh books 2024-06-10 slot 1, refetches and
// reconciles, and expects exactly that slot booked.
func TestIntegration_BookThenRefresh(t *testing.T) {
	server := bookingtest.NewServer()
	defer server.Close()
	server.AddUser("alice", "alice@example.com", "pw")
	token, err := server.Authenticate("alice")
	if err != nil {
		t.Fatalf("failed to authenticate: %v", err)
	}

	ctx := context.Background()
	sess := &session.Session{UserID: 1, Username: "alice", Token: token}
	client := api.NewClient(ctx, server.BaseURL(), sess)

	grid := calendar.MonthGrid(2024, time.June, time.Now())
	slot := grid.FindDay("2024-06-10").Slots[1]

	var refreshedGrid calendar.Month
	flow := booking.NewFlow(client)
	flow.OnBooked(func(ctx context.Context, _ *api.Reservation) error {
		reservations, err := client.ListReservations(ctx)
		if err != nil {
			return err
		}
		refreshedGrid = calendar.Reconcile(calendar.MonthGrid(2024, time.June, time.Now()), reservations)
		return nil
	})

	if err := flow.Select(sess, slot); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	created, err := flow.Submit(ctx, booking.Form{
		Gender:      "FEMALE",
		Decorations: "balloons",
		Music:       "jazz",
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if created.Date != "2024-06-10" || created.SlotNumber != 1 {
		t.Fatalf("unexpected created reservation: %+v", created)
	}

	booked := refreshedGrid.FindDay("2024-06-10").Slots[1]
	if booked.State != calendar.SlotBooked {
		t.Error("expected the booked slot marked after refresh")
	}
	if !strings.HasSuffix(booked.Label, "(Booked)") {
		t.Errorf("expected booked label suffix, got %q", booked.Label)
	}

	// Exactly one slot is booked across the whole month.
	count := 0
	for _, day := range refreshedGrid.Days {
		for _, s := range day.Slots {
			if s.State == calendar.SlotBooked {
				count++
			}
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one booked slot, got %d", count)
	}
}

// TestIntegration_CancelMissingReservation cancels an id the server
// answers 404 for and verifies the other booking stays intact.
func TestIntegration_CancelMissingReservation(t *testing.T) {
	server := bookingtest.NewServer()
	defer server.Close()
	server.AddUser("alice", "alice@example.com", "pw")
	token, err := server.Authenticate("alice")
	if err != nil {
		t.Fatalf("failed to authenticate: %v", err)
	}
	kept := server.AddReservation(api.Reservation{
		UserID: 1, UserName: "alice", Date: "2024-06-12", SlotNumber: 2,
	})

	ctx := context.Background()
	client := api.NewClient(ctx, server.BaseURL(), &session.Session{UserID: 1, Username: "alice", Token: token})

	err = client.CancelReservation(ctx, 9999)
	if !api.IsNotFound(err) {
		t.Fatalf("expected 404, got %v", err)
	}

	// The surfaced message distinguishes the missing reservation.
	if api.StatusOf(err) != 404 {
		t.Errorf("expected typed 404, got %v", err)
	}

	reservations, err := client.ListReservations(ctx)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	grid := calendar.Reconcile(calendar.MonthGrid(2024, time.June, time.Now()), reservations)
	slot := grid.FindDay("2024-06-12").Slots[2]
	if slot.State != calendar.SlotBooked {
		t.Errorf("expected reservation #%d to keep its slot booked", kept.ID)
	}
}

// TestIntegration_InvalidCredentials verifies that a failed login
// creates no session.
func TestIntegration_InvalidCredentials(t *testing.T) {
	server := bookingtest.NewServer()
	defer server.Close()
	server.AddUser("alice", "alice@example.com", "pw")

	ctx := context.Background()
	client := api.NewClient(ctx, server.BaseURL(), nil)

	if _, err := client.Login(ctx, "alice", "nope"); !api.IsUnauthorized(err) {
		t.Fatalf("expected 401, got %v", err)
	}

	store := testSessionStore(t)
	if store.Load() != nil {
		t.Error("expected no session after a failed login")
	}
}

// TestIntegration_RegisterDuplicates checks the inline field reporting
// for taken usernames and emails.
func TestIntegration_RegisterDuplicates(t *testing.T) {
	server := bookingtest.NewServer()
	defer server.Close()
	server.AddUser("alice", "alice@example.com", "pw")

	ctx := context.Background()
	client := api.NewClient(ctx, server.BaseURL(), nil)

	free, err := client.CheckUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("check-username failed: %v", err)
	}
	if free {
		t.Error("expected username 'alice' to be taken")
	}

	free, err = client.CheckEmail(ctx, "bob@example.com")
	if err != nil {
		t.Fatalf("check-email failed: %v", err)
	}
	if !free {
		t.Error("expected a fresh email to be free")
	}

	if err := client.Register(ctx, "bob", "bob@example.com", "pw"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := client.Login(ctx, "bob", "pw"); err != nil {
		t.Errorf("expected the new account to log in, got %v", err)
	}
}
