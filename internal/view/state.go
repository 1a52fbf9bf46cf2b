package view

import (
	"time"

	"github.com/drewfead/slotbook/internal/calendar"
)

// State is the owned view state of the calendar: which month is
// visible and which slot, if any, is selected. It replaces the ambient
// globals of the browser client so handlers can be tested in
// isolation.
type State struct {
	Year     int
	Month    time.Month
	Selected *calendar.SlotRef
}

// NewState opens the view on the month containing now, with no
// selection.
func NewState(now time.Time) State {
	return State{Year: now.Year(), Month: now.Month()}
}

// NextMonth moves the visible month forward. The grid is re-rendered
// from scratch by the caller; no partial state survives navigation.
func (s State) NextMonth() State {
	next := time.Date(s.Year, s.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return State{Year: next.Year(), Month: next.Month(), Selected: s.Selected}
}

// PrevMonth moves the visible month backward.
func (s State) PrevMonth() State {
	prev := time.Date(s.Year, s.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	return State{Year: prev.Year(), Month: prev.Month(), Selected: s.Selected}
}

// Select records the slot the user picked.
func (s State) Select(ref calendar.SlotRef) State {
	s.Selected = &ref
	return s
}

// ClearSelection resets the selection after a booking action completes
// or is cancelled.
func (s State) ClearSelection() State {
	s.Selected = nil
	return s
}
