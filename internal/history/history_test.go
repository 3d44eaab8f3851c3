package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slotbook/internal/core"
)

func TestLedgerAppendAndList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.yaml")
	l := Open(path)

	// Missing file is an empty ledger.
	records, err := l.List()
	require.NoError(t, err)
	assert.Empty(t, records)

	first := Record{
		BookedAt:  time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC),
		Scope:     "group/hiring-panel",
		Title:     "Hiring panel",
		StartTime: "2026-09-01 09:00:00+00:00",
		EndTime:   "2026-09-01 09:30:00+00:00",
		TimeZone:  "UTC",
		MeetLink:  "https://meet.example/abc",
	}
	require.NoError(t, l.Append(first))

	second := first
	second.Title = "Follow-up"
	require.NoError(t, l.Append(second))

	records, err = l.List()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Hiring panel", records[0].Title)
	assert.Equal(t, "Follow-up", records[1].Title, "appends keep order, newest last")
	assert.Equal(t, first.MeetLink, records[0].MeetLink)
	assert.True(t, first.BookedAt.Equal(records[0].BookedAt))
}

func TestFromBooking(t *testing.T) {
	scope := core.Scope{Kind: core.ScopeGroup, ID: "hiring-panel"}
	slot := core.Slot{StartTime: "2026-09-01 09:00:00+00:00", EndTime: "2026-09-01 09:30:00+00:00"}
	booking := core.BookingResult{
		EventID:       "ev1",
		MeetLink:      "https://meet.example/abc",
		RescheduleURL: "https://cal.example/gr/hiring-panel?reschedule=tok",
	}

	r := FromBooking(scope, "Hiring panel", "Asia/Kolkata", slot, booking)

	assert.Equal(t, "group/hiring-panel", r.Scope)
	assert.Equal(t, "Hiring panel", r.Title)
	assert.Equal(t, slot.StartTime, r.StartTime)
	assert.Equal(t, "Asia/Kolkata", r.TimeZone)
	assert.Equal(t, booking.MeetLink, r.MeetLink)
	assert.Equal(t, booking.RescheduleURL, r.RescheduleURL)
	assert.Equal(t, "ev1", r.EventID)
	assert.WithinDuration(t, time.Now(), r.BookedAt, time.Minute)
}
