package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"slotbook/internal/core"
	"slotbook/internal/timeutil"
)

// dateSelectable reports whether the calendar lets the cursor land on
// a date: inside the server's valid range and on an available weekday.
// Before the first availability response everything is selectable.
func dateSelectable(d time.Time, meeting core.AvailabilityResult) bool {
	if meeting.ValidStartDate != "" {
		if start, err := timeutil.ParseDate(meeting.ValidStartDate); err == nil && d.Before(start) {
			return false
		}
	}
	if meeting.ValidEndDate != "" {
		if end, err := timeutil.ParseDate(meeting.ValidEndDate); err == nil && d.After(end) {
			return false
		}
	}
	return meeting.DayAvailable(d.Weekday().String())
}

// renderCalendar draws the month grid for displayMonth. cursor is the
// keyboard position, selected the session's committed date.
func renderCalendar(displayMonth, cursor, selected time.Time, meeting core.AvailabilityResult) string {
	var b strings.Builder

	b.WriteString(MonthTitleStyle.Render(displayMonth.Format("January 2006")))
	b.WriteString("\n")

	weekdays := []string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"}
	var hdr []string
	for _, w := range weekdays {
		hdr = append(hdr, WeekdayHdrStyle.Render(w))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, hdr...))
	b.WriteString("\n")

	first := time.Date(displayMonth.Year(), displayMonth.Month(), 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()
	leading := int(first.Weekday())

	cells := make([]string, 0, 7)
	for i := 0; i < leading; i++ {
		cells = append(cells, DayStyle.Render(" "))
	}
	for day := 1; day <= daysInMonth; day++ {
		d := time.Date(displayMonth.Year(), displayMonth.Month(), day, 0, 0, 0, 0, time.UTC)
		label := first.AddDate(0, 0, day-1).Format("2")

		var cell string
		switch {
		case sameDay(d, cursor):
			cell = DayCursorStyle.Render(label)
		case sameDay(d, selected):
			cell = DaySelectedStyle.Render(label)
		case !dateSelectable(d, meeting):
			cell = DayDisabledStyle.Render(label)
		default:
			cell = DayStyle.Render(label)
		}
		cells = append(cells, cell)

		if len(cells) == 7 {
			b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
			b.WriteString("\n")
			cells = cells[:0]
		}
	}
	if len(cells) > 0 {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		b.WriteString("\n")
	}

	return b.String()
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
