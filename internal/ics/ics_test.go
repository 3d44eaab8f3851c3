package ics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slotbook/internal/core"
)

var testSlot = core.Slot{
	StartTime: "2026-09-01 09:00:00+05:30",
	EndTime:   "2026-09-01 09:30:00+05:30",
}

func TestBuildEvent(t *testing.T) {
	booking := core.BookingResult{
		EventID:         "ev1",
		MeetLink:        "https://meet.example/abc",
		MeetingProvider: "Google Meet",
		RescheduleURL:   "https://cal.example/gr/panel?reschedule=tok",
	}

	cal, err := BuildEvent("Hiring panel", testSlot, booking)
	require.NoError(t, err)

	out := cal.Serialize()
	assert.Contains(t, out, "BEGIN:VEVENT")
	assert.Contains(t, out, "SUMMARY:Hiring panel")
	assert.Contains(t, out, "UID:ev1")
	// +05:30 slot serialized in UTC.
	assert.Contains(t, out, "DTSTART:20260901T033000Z")
	assert.Contains(t, out, "DTEND:20260901T040000Z")
	assert.Contains(t, out, "meet.example/abc")
}

func TestBuildEvent_DegradedBooking(t *testing.T) {
	// No links at all; the event is still valid.
	cal, err := BuildEvent("Meeting", testSlot, core.BookingResult{})
	require.NoError(t, err)

	out := cal.Serialize()
	assert.Contains(t, out, "BEGIN:VEVENT")
	assert.NotContains(t, out, "LOCATION")
	assert.NotContains(t, out, "DESCRIPTION")
}

func TestBuildEvent_UnparsableSlot(t *testing.T) {
	_, err := BuildEvent("Meeting", core.Slot{StartTime: "whenever", EndTime: "later"}, core.BookingResult{})
	assert.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	cal, err := BuildEvent("Meeting", testSlot, core.BookingResult{EventID: "ev1"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "booking.ics")
	require.NoError(t, WriteFile(cal, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "BEGIN:VCALENDAR")
	assert.Contains(t, string(data), "END:VCALENDAR")
}
