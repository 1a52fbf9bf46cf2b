// Package booking drives the reservation flow as an explicit state
// machine: closed -> selecting -> submitting -> closed. It is the
// command-handler form of the browser's reservation modal, decoupled
// from rendering so it can be tested against a stub API.
package booking

import (
	"context"
	"fmt"

	"github.com/drewfead/slotbook/internal/api"
	"github.com/drewfead/slotbook/internal/calendar"
	"github.com/drewfead/slotbook/internal/session"
)

// State is the flow's current phase.
type State int

const (
	StateClosed State = iota
	StateSelecting
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateSelecting:
		return "selecting"
	case StateSubmitting:
		return "submitting"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Form carries the booking details the user fills in once a slot is
// selected. Gender, decorations and music are required; bring-own-food
// is an explicit yes/no.
type Form struct {
	Gender       string
	BringOwnFood bool
	Decorations  string
	Music        string
}

// ValidationError is a missing required form field. No network call is
// made while the form is invalid.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// creator is the slice of the API gateway the flow needs.
type creator interface {
	CreateReservation(ctx context.Context, req api.CreateReservationRequest) (*api.Reservation, error)
}

// Flow is one reservation attempt. Not safe for concurrent use; the
// client is single-threaded per command.
type Flow struct {
	client creator
	state  State
	slot   calendar.SlotRef

	// onBooked runs after a successful submit, before the flow closes
	// its selection — the hook the caller uses to refresh the grid.
	onBooked func(ctx context.Context, created *api.Reservation) error
}

// NewFlow creates a closed flow backed by the given API client.
func NewFlow(client creator) *Flow {
	return &Flow{client: client}
}

// OnBooked registers a hook invoked after every successful submission.
// The refresh is chained strictly after the create response so the
// reconciled view reflects the just-written state.
func (f *Flow) OnBooked(fn func(ctx context.Context, created *api.Reservation) error) {
	f.onBooked = fn
}

// State returns the flow's current phase.
func (f *Flow) State() State {
	return f.state
}

// Selection returns the selected slot; only meaningful outside
// StateClosed.
func (f *Flow) Selection() calendar.SlotRef {
	return f.slot
}

// Select opens the flow for a slot. It requires a logged-in session and
// an available slot; a booked slot is rejected before any form input.
func (f *Flow) Select(sess *session.Session, slot calendar.Slot) error {
	if f.state != StateClosed {
		return fmt.Errorf("cannot select while %s", f.state)
	}
	if sess == nil {
		return fmt.Errorf("please log in to make a reservation")
	}
	if slot.State == calendar.SlotBooked {
		return fmt.Errorf("slot %s on %s is already booked", calendar.SlotLabel(slot.SlotNumber), slot.Date)
	}

	f.slot = calendar.SlotRef{Date: slot.Date, SlotNumber: slot.SlotNumber}
	f.state = StateSelecting
	return nil
}

// Submit validates the form and books the selected slot. On success the
// flow closes, the selection is cleared and the registered refresh hook
// runs. On failure the flow stays in selecting so the user can fix the
// form or retry; the server's message is surfaced unchanged. Re-entry
// while a submission is in flight is rejected.
func (f *Flow) Submit(ctx context.Context, form Form) (*api.Reservation, error) {
	switch f.state {
	case StateSelecting:
		// proceed
	case StateSubmitting:
		return nil, fmt.Errorf("a submission is already in progress")
	default:
		return nil, fmt.Errorf("no slot selected")
	}

	if err := validate(form); err != nil {
		return nil, err
	}

	f.state = StateSubmitting
	created, err := f.client.CreateReservation(ctx, api.CreateReservationRequest{
		SlotNumber:   f.slot.SlotNumber,
		Date:         f.slot.Date,
		Gender:       form.Gender,
		BringOwnFood: form.BringOwnFood,
		Decorations:  form.Decorations,
		Music:        form.Music,
	})
	if err != nil {
		// Keep the selection; the caller decides whether to retry.
		f.state = StateSelecting
		return nil, err
	}

	if f.onBooked != nil {
		if err := f.onBooked(ctx, created); err != nil {
			// The booking itself succeeded; a failed refresh keeps the
			// last good view.
			f.close()
			return created, fmt.Errorf("reservation created, but refresh failed: %w", err)
		}
	}

	f.close()
	return created, nil
}

// Cancel abandons the flow without side effects.
func (f *Flow) Cancel() {
	f.close()
}

func (f *Flow) close() {
	f.state = StateClosed
	f.slot = calendar.SlotRef{}
}

func validate(form Form) error {
	if form.Gender == "" {
		return &ValidationError{Field: "gender"}
	}
	if form.Decorations == "" {
		return &ValidationError{Field: "decorations"}
	}
	if form.Music == "" {
		return &ValidationError{Field: "music"}
	}
	return nil
}
