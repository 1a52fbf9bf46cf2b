package calendar

import (
	"fmt"
	"strings"
)

// RenderMonth draws the month as a text grid: header, Sunday-first
// weekday row, then one line per week. Today's cell is wrapped in
// brackets and days with at least one booked slot carry a '*'.
func RenderMonth(grid Month) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %d\n", grid.Month, grid.Year)
	b.WriteString(" Su  Mo  Tu  We  Th  Fr  Sa\n")

	col := 0
	for i := 0; i < grid.LeadingBlanks; i++ {
		b.WriteString("    ")
		col++
	}

	for _, day := range grid.Days {
		cell := fmt.Sprintf("%2d", day.Number)
		switch {
		case day.Today:
			cell = fmt.Sprintf("[%s]", cell)
		case hasBooked(day):
			cell = fmt.Sprintf(" %s*", cell)
		default:
			cell = fmt.Sprintf(" %s ", cell)
		}
		b.WriteString(cell)

		col++
		if col%7 == 0 {
			b.WriteString("\n")
		}
	}
	if col%7 != 0 {
		b.WriteString("\n")
	}

	return b.String()
}

// RenderDay lists the three slots of a day cell with their state.
func RenderDay(day Day) string {
	var b strings.Builder

	marker := ""
	if day.Today {
		marker = " (today)"
	}
	fmt.Fprintf(&b, "%s%s\n", day.Date, marker)

	for _, slot := range day.Slots {
		fmt.Fprintf(&b, "  [%d] %s\n", slot.SlotNumber, slot.Label)
	}

	return b.String()
}

func hasBooked(day Day) bool {
	for _, slot := range day.Slots {
		if slot.State == SlotBooked {
			return true
		}
	}
	return false
}
