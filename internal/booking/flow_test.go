package booking

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/drewfead/slotbook/internal/api"
	"github.com/drewfead/slotbook/internal/calendar"
	"github.com/drewfead/slotbook/internal/session"
)

type fakeCreator struct {
	requests []api.CreateReservationRequest
	result   *api.Reservation
	err      error
}

func (f *fakeCreator) CreateReservation(_ context.Context, req api.CreateReservationRequest) (*api.Reservation, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func availableSlot() calendar.Slot {
	return calendar.Slot{
		Date:       "2024-06-10",
		SlotNumber: 1,
		Label:      "13:00 - 17:00",
		State:      calendar.SlotAvailable,
	}
}

func validForm() Form {
	return Form{Gender: "FEMALE", BringOwnFood: true, Decorations: "balloons", Music: "jazz"}
}

func loggedIn() *session.Session {
	return &session.Session{UserID: 1, Username: "alice", Token: "abc"}
}

func TestFlow_HappyPath(t *testing.T) {
	creator := &fakeCreator{result: &api.Reservation{ID: 7, Date: "2024-06-10", SlotNumber: 1}}
	flow := NewFlow(creator)

	refreshed := false
	flow.OnBooked(func(_ context.Context, created *api.Reservation) error {
		if len(creator.requests) != 1 {
			t.Error("refresh ran before the create resolved")
		}
		if created.ID != 7 {
			t.Errorf("expected created reservation 7, got %d", created.ID)
		}
		refreshed = true
		return nil
	})

	if err := flow.Select(loggedIn(), availableSlot()); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if flow.State() != StateSelecting {
		t.Errorf("expected selecting state, got %v", flow.State())
	}

	created, err := flow.Submit(context.Background(), validForm())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if created.ID != 7 {
		t.Errorf("expected reservation 7, got %d", created.ID)
	}
	if !refreshed {
		t.Error("expected refresh hook to run")
	}
	if flow.State() != StateClosed {
		t.Errorf("expected closed state after success, got %v", flow.State())
	}
	if flow.Selection() != (calendar.SlotRef{}) {
		t.Errorf("expected selection cleared, got %+v", flow.Selection())
	}

	req := creator.requests[0]
	if req.Date != "2024-06-10" || req.SlotNumber != 1 {
		t.Errorf("unexpected request slot: %+v", req)
	}
	if req.Decorations != "balloons" || req.Music != "jazz" {
		t.Errorf("unexpected request payload: %+v", req)
	}
}

func TestFlow_SelectRequiresSession(t *testing.T) {
	flow := NewFlow(&fakeCreator{})

	if err := flow.Select(nil, availableSlot()); err == nil {
		t.Error("expected select without session to fail")
	}
	if flow.State() != StateClosed {
		t.Errorf("expected flow to stay closed, got %v", flow.State())
	}
}

func TestFlow_SelectRejectsBookedSlot(t *testing.T) {
	flow := NewFlow(&fakeCreator{})

	slot := availableSlot()
	slot.State = calendar.SlotBooked
	slot.Label = "13:00 - 17:00 (Booked)"

	if err := flow.Select(loggedIn(), slot); err == nil {
		t.Error("expected select on a booked slot to fail")
	}
}

func TestFlow_ValidationBlocksNetworkCall(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Form)
		wantField string
	}{
		{name: "missing gender", mutate: func(f *Form) { f.Gender = "" }, wantField: "gender"},
		{name: "missing decorations", mutate: func(f *Form) { f.Decorations = "" }, wantField: "decorations"},
		{name: "missing music", mutate: func(f *Form) { f.Music = "" }, wantField: "music"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creator := &fakeCreator{}
			flow := NewFlow(creator)
			if err := flow.Select(loggedIn(), availableSlot()); err != nil {
				t.Fatalf("select failed: %v", err)
			}

			form := validForm()
			tt.mutate(&form)

			_, err := flow.Submit(context.Background(), form)
			var invalid *ValidationError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if invalid.Field != tt.wantField {
				t.Errorf("expected field %q, got %q", tt.wantField, invalid.Field)
			}
			if len(creator.requests) != 0 {
				t.Error("expected no network call for an invalid form")
			}
			if flow.State() != StateSelecting {
				t.Errorf("expected flow to stay open, got %v", flow.State())
			}
		})
	}
}

func TestFlow_ServerFailureKeepsSelection(t *testing.T) {
	creator := &fakeCreator{err: &api.Error{StatusCode: http.StatusConflict, Message: "Slot is already reserved"}}
	flow := NewFlow(creator)

	if err := flow.Select(loggedIn(), availableSlot()); err != nil {
		t.Fatalf("select failed: %v", err)
	}

	_, err := flow.Submit(context.Background(), validForm())
	if !api.IsConflict(err) {
		t.Fatalf("expected the server error to surface, got %v", err)
	}
	if flow.State() != StateSelecting {
		t.Errorf("expected flow to stay open after failure, got %v", flow.State())
	}
	if flow.Selection().Date != "2024-06-10" {
		t.Errorf("expected selection kept, got %+v", flow.Selection())
	}
}

func TestFlow_SubmitWithoutSelection(t *testing.T) {
	flow := NewFlow(&fakeCreator{})

	if _, err := flow.Submit(context.Background(), validForm()); err == nil {
		t.Error("expected submit on a closed flow to fail")
	}
}

func TestFlow_DoubleSubmitBlocked(t *testing.T) {
	creator := &fakeCreator{result: &api.Reservation{ID: 1, Date: "2024-06-10", SlotNumber: 1}}
	flow := NewFlow(creator)

	if err := flow.Select(loggedIn(), availableSlot()); err != nil {
		t.Fatalf("select failed: %v", err)
	}

	// Re-enter through the refresh hook, as a second submit while the
	// first is still in flight would.
	flow.OnBooked(func(ctx context.Context, _ *api.Reservation) error {
		if _, err := flow.Submit(ctx, validForm()); err == nil {
			t.Error("expected re-entrant submit to be rejected")
		}
		return nil
	})

	if _, err := flow.Submit(context.Background(), validForm()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if len(creator.requests) != 1 {
		t.Errorf("expected exactly one create call, got %d", len(creator.requests))
	}
}

func TestFlow_CancelHasNoSideEffects(t *testing.T) {
	creator := &fakeCreator{}
	flow := NewFlow(creator)

	if err := flow.Select(loggedIn(), availableSlot()); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	flow.Cancel()

	if flow.State() != StateClosed {
		t.Errorf("expected closed state, got %v", flow.State())
	}
	if len(creator.requests) != 0 {
		t.Error("expected no network calls on cancel")
	}
}

func TestFlow_RefreshFailureStillReportsBooking(t *testing.T) {
	creator := &fakeCreator{result: &api.Reservation{ID: 3, Date: "2024-06-10", SlotNumber: 1}}
	flow := NewFlow(creator)
	flow.OnBooked(func(context.Context, *api.Reservation) error {
		return errors.New("refresh failed")
	})

	if err := flow.Select(loggedIn(), availableSlot()); err != nil {
		t.Fatalf("select failed: %v", err)
	}

	created, err := flow.Submit(context.Background(), validForm())
	if created == nil || created.ID != 3 {
		t.Fatalf("expected the created reservation despite refresh failure, got %+v", created)
	}
	if err == nil {
		t.Error("expected the refresh failure to surface")
	}
	if flow.State() != StateClosed {
		t.Errorf("expected flow closed, got %v", flow.State())
	}
}
