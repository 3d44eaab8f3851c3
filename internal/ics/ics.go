// Package ics exports a confirmed booking as an iCalendar file, the
// "add to calendar" path for visitors without a Google account.
package ics

import (
	"fmt"
	"os"

	ical "github.com/arran4/golang-ical"

	"slotbook/internal/core"
)

// BuildEvent renders the booked meeting as a single-VEVENT calendar.
// Empty link fields are simply omitted; the event is still valid.
func BuildEvent(title string, slot core.Slot, booking core.BookingResult) (*ical.Calendar, error) {
	start, err := slot.Start()
	if err != nil {
		return nil, fmt.Errorf("booked slot start: %w", err)
	}
	end, err := slot.End()
	if err != nil {
		return nil, fmt.Errorf("booked slot end: %w", err)
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//slotbook//booking//EN")

	uid := booking.EventID
	if uid == "" {
		uid = fmt.Sprintf("%s-%s", slot.StartTime, slot.EndTime)
	}
	ev := cal.AddEvent(uid)
	ev.SetSummary(title)
	ev.SetStartAt(start.UTC())
	ev.SetEndAt(end.UTC())
	if booking.MeetLink != "" {
		ev.SetLocation(booking.MeetLink)
		ev.SetURL(booking.MeetLink)
	}
	desc := ""
	if booking.MeetingProvider != "" {
		desc = booking.MeetingProvider + " meeting"
	}
	if booking.RescheduleURL != "" {
		if desc != "" {
			desc += "\n"
		}
		desc += "Reschedule: " + booking.RescheduleURL
	}
	if desc != "" {
		ev.SetDescription(desc)
	}
	return cal, nil
}

// WriteFile serializes the calendar to path.
func WriteFile(cal *ical.Calendar, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create ics file: %w", err)
	}
	defer f.Close()
	if err := cal.SerializeTo(f); err != nil {
		return fmt.Errorf("write ics file: %w", err)
	}
	return nil
}
