// Package calendar computes the month view of the booking calendar: a
// grid of day cells with three fixed slots per day, and the
// reconciliation of fetched reservations onto that grid.
package calendar

import (
	"fmt"
	"time"
)

// SlotsPerDay is fixed by the venue: morning, afternoon, evening.
const SlotsPerDay = 3

// DateFormat is the wire format for calendar days.
const DateFormat = "2006-01-02"

// slot labels, indexed by slot number
var slotLabels = [SlotsPerDay]string{
	"8:00 - 12:00",
	"13:00 - 17:00",
	"18:00 - 22:00",
}

// SlotState marks a rendered slot as free or taken.
type SlotState int

const (
	SlotAvailable SlotState = iota
	SlotBooked
)

// Slot is a rendering-only value derived each pass from the fixed
// schedule and the current reservation set. It is never persisted.
type Slot struct {
	Date       string
	SlotNumber int
	Label      string
	State      SlotState
	BookedBy   string
}

// Day is one cell of the month grid.
type Day struct {
	Date   string
	Number int
	Today  bool
	Slots  []Slot
}

// Month is the computed layout for one visible month.
type Month struct {
	Year          int
	Month         time.Month
	LeadingBlanks int
	Days          []Day
}

// SlotLabel returns the display label for a slot number, or "" when the
// number is outside the fixed schedule.
func SlotLabel(slotNumber int) string {
	if slotNumber < 0 || slotNumber >= SlotsPerDay {
		return ""
	}
	return slotLabels[slotNumber]
}

// MonthGrid computes the day layout for (year, month): leading blank
// cells padding the first week (Sunday-first), then one cell per day,
// each with exactly three available slots. The cell matching today is
// marked. Pure function; every render starts from scratch.
func MonthGrid(year int, month time.Month, today time.Time) Month {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()

	grid := Month{
		Year:          year,
		Month:         month,
		LeadingBlanks: int(first.Weekday()),
		Days:          make([]Day, 0, daysInMonth),
	}

	todayStr := today.Format(DateFormat)
	for dayNum := 1; dayNum <= daysInMonth; dayNum++ {
		date := time.Date(year, month, dayNum, 0, 0, 0, 0, time.UTC).Format(DateFormat)

		slots := make([]Slot, SlotsPerDay)
		for i := range slots {
			slots[i] = Slot{
				Date:       date,
				SlotNumber: i,
				Label:      slotLabels[i],
				State:      SlotAvailable,
			}
		}

		grid.Days = append(grid.Days, Day{
			Date:   date,
			Number: dayNum,
			Today:  date == todayStr,
			Slots:  slots,
		})
	}

	return grid
}

// FindDay returns the day cell for a date, or nil when the date is not
// part of the visible month.
func (m *Month) FindDay(date string) *Day {
	for i := range m.Days {
		if m.Days[i].Date == date {
			return &m.Days[i]
		}
	}
	return nil
}

// SlotRef identifies one slot on the grid.
type SlotRef struct {
	Date       string
	SlotNumber int
}

func (r SlotRef) String() string {
	return fmt.Sprintf("%s slot %d (%s)", r.Date, r.SlotNumber, SlotLabel(r.SlotNumber))
}

// ParseDate validates a calendar-day string in wire format.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}
