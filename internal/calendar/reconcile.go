package calendar

import (
	"fmt"
	"log/slog"

	"github.com/drewfead/slotbook/internal/api"
)

// Reconcile merges fetched reservations into the rendered grid: a slot
// whose (date, slotNumber) matches a reservation is marked booked with
// a "(Booked)" label suffix, every other slot is available.
//
// The pass is idempotent — labels are recomputed from the slot number
// each time, so reconciling an already-reconciled grid with the same
// reservation set reproduces the same labeling. Malformed records
// (empty date, slot number outside the schedule) are skipped with a
// warning and never abort the pass.
func Reconcile(grid Month, reservations []api.Reservation) Month {
	byKey := make(map[string]api.Reservation, len(reservations))
	for _, res := range reservations {
		if res.Date == "" {
			slog.Warn("skipping reservation without date", "id", res.ID)
			continue
		}
		if res.SlotNumber < 0 || res.SlotNumber >= SlotsPerDay {
			slog.Warn("skipping reservation with out-of-range slot",
				"id", res.ID, "slot", res.SlotNumber)
			continue
		}
		byKey[slotKey(res.Date, res.SlotNumber)] = res
	}

	for d := range grid.Days {
		day := &grid.Days[d]
		for s := range day.Slots {
			slot := &day.Slots[s]
			if res, ok := byKey[slotKey(slot.Date, slot.SlotNumber)]; ok {
				slot.State = SlotBooked
				slot.BookedBy = res.UserName
				slot.Label = slotLabels[slot.SlotNumber] + " (Booked)"
			} else {
				slot.State = SlotAvailable
				slot.BookedBy = ""
				slot.Label = slotLabels[slot.SlotNumber]
			}
		}
	}

	return grid
}

func slotKey(date string, slotNumber int) string {
	return fmt.Sprintf("%s|%d", date, slotNumber)
}
