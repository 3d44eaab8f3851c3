package tui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slotbook/internal/booklink"
	"slotbook/internal/core"
	"slotbook/internal/session"
)

// stubGateway records calls and returns canned results.
type stubGateway struct {
	mu       sync.Mutex
	fetches  []core.FetchParams
	bookings []core.BookParams

	fetchResult core.AvailabilityResult
	fetchErr    error
	bookResult  core.BookingResult
	bookErr     error
	profile     core.HostProfile
}

func (g *stubGateway) FetchSlots(ctx context.Context, p core.FetchParams) (core.AvailabilityResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fetches = append(g.fetches, p)
	return g.fetchResult, g.fetchErr
}

func (g *stubGateway) SubmitBooking(ctx context.Context, p core.BookParams) (core.BookingResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.bookings = append(g.bookings, p)
	return g.bookResult, g.bookErr
}

func (g *stubGateway) MeetingWindows(ctx context.Context, slug string) (core.HostProfile, error) {
	return g.profile, nil
}

func (g *stubGateway) bookingCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.bookings)
}

var (
	testSlotA = core.Slot{StartTime: "2026-09-01 09:00:00+00:00", EndTime: "2026-09-01 09:30:00+00:00"}
	testSlotB = core.Slot{StartTime: "2026-09-01 10:00:00+00:00", EndTime: "2026-09-01 10:30:00+00:00"}
)

func groupLink(t *testing.T, raw string) booklink.Link {
	t.Helper()
	l, err := booklink.Parse(raw)
	require.NoError(t, err)
	return l
}

func apply(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func availability(slots ...core.Slot) core.AvailabilityResult {
	return core.AvailabilityResult{ScopeID: "panel", Slots: slots}
}

// newTestModel builds a session on a group page, already holding one
// availability response.
func newTestModel(t *testing.T, gw *stubGateway, rawLink string) Model {
	t.Helper()
	m := NewModel(gw, groupLink(t, rawLink), "UTC", nil, nil)
	m, _ = apply(t, m, availabilityMsg{seq: 1, result: gw.fetchResult})
	return m
}

func TestInitFetchApplies(t *testing.T) {
	gw := &stubGateway{fetchResult: availability(testSlotA)}
	m := NewModel(gw, groupLink(t, "https://cal.example.com/gr/panel?date=2026-9-1"), "UTC", nil, nil)

	cmd := m.Init()
	require.NotNil(t, cmd)

	m, _ = apply(t, m, availabilityMsg{seq: 1, result: availability(testSlotA)})
	assert.Equal(t, []core.Slot{testSlotA}, m.State().MeetingData.Slots)
}

// Scenario: a slow response for an abandoned input must never
// overwrite the state produced by the newer input.
func TestStaleAvailabilityDiscarded(t *testing.T) {
	gw := &stubGateway{fetchResult: availability(testSlotA)}
	m := newTestModel(t, gw, "https://cal.example.com/gr/panel?date=2026-9-1")

	// Pick a new date; this issues a fresh fetch with a newer token.
	m, cmd := apply(t, m, keyMsg("enter"))
	require.NotNil(t, cmd)

	// The old request's response arrives late.
	stale := availabilityMsg{seq: 1, result: availability(testSlotB)}
	m, _ = apply(t, m, stale)
	assert.Equal(t, []core.Slot{testSlotA}, m.State().MeetingData.Slots,
		"stale response must be discarded")

	// The current request's response lands normally.
	fresh := availabilityMsg{seq: 2, result: availability(testSlotB)}
	m, _ = apply(t, m, fresh)
	assert.Equal(t, []core.Slot{testSlotB}, m.State().MeetingData.Slots)
}

func TestFetchFailureEndsSession(t *testing.T) {
	gw := &stubGateway{}
	m := NewModel(gw, groupLink(t, "https://cal.example.com/gr/panel"), "UTC", nil, nil)

	m, cmd := apply(t, m, availabilityMsg{seq: 1, err: &core.FetchError{}})
	require.NotNil(t, cmd)
	assert.Error(t, m.FatalErr())
}

func TestDirectPathSubmitsOnPick(t *testing.T) {
	gw := &stubGateway{
		fetchResult: availability(testSlotA),
		bookResult:  core.BookingResult{EventID: "ev1", MeetLink: "https://meet.example/x"},
	}
	// Invitees present: direct path.
	m := newTestModel(t, gw,
		"https://cal.example.com/gr/panel?date=2026-9-1&event_participants=%5B%7B%22email%22%3A%22a%40b.co%22%7D%5D")

	m, _ = apply(t, m, keyMsg("tab")) // calendar -> slots
	m, cmd := apply(t, m, keyMsg("enter"))
	require.NotNil(t, cmd)
	assert.Equal(t, session.PathDirect, m.State().Path)
	assert.True(t, m.State().Submitting)

	msg := cmd()
	bm, ok := msg.(bookingMsg)
	require.True(t, ok)
	require.NoError(t, bm.err)
	assert.Equal(t, 1, gw.bookingCount())
	assert.Equal(t, testSlotA.StartTime, gw.bookings[0].StartTime)
	assert.Empty(t, gw.bookings[0].UserName, "direct path sends no guest fields")

	m, refetchCmd := apply(t, m, bm)
	assert.True(t, m.State().AppointmentScheduled)
	assert.NotNil(t, refetchCmd, "a success triggers a consistency refetch")
}

func TestGuestPathCollectsFormFirst(t *testing.T) {
	gw := &stubGateway{fetchResult: core.AvailabilityResult{
		ScopeID:            "panel",
		Slots:              []core.Slot{testSlotA},
		AllowPublicBooking: true,
	}}
	m := NewModel(gw, groupLink(t, "https://cal.example.com/gr/panel?date=2026-9-1"), "UTC", nil, nil).
		WithGuestDefaults("Ada", "ada@example.com")
	m, _ = apply(t, m, availabilityMsg{seq: 1, result: gw.fetchResult})

	m, _ = apply(t, m, keyMsg("tab"))
	m, _ = apply(t, m, keyMsg("enter"))
	assert.Equal(t, session.PathGuest, m.State().Path)
	assert.False(t, m.State().Submitting, "no submission before the form confirms")
	assert.Zero(t, gw.bookingCount())

	// Enter moves name -> email, then confirms.
	m, _ = apply(t, m, keyMsg("enter"))
	m, cmd := apply(t, m, keyMsg("enter"))
	require.NotNil(t, cmd)

	msg := cmd()
	bm, ok := msg.(bookingMsg)
	require.True(t, ok)
	require.NoError(t, bm.err)
	require.Equal(t, 1, gw.bookingCount())
	assert.Equal(t, "Ada", gw.bookings[0].UserName)
	assert.Equal(t, "ada@example.com", gw.bookings[0].UserEmail)
}

func TestGuestPathBlocksInvalidForm(t *testing.T) {
	gw := &stubGateway{fetchResult: core.AvailabilityResult{
		Slots:              []core.Slot{testSlotA},
		AllowPublicBooking: true,
	}}
	m := newTestModel(t, gw, "https://cal.example.com/gr/panel?date=2026-9-1")

	m, _ = apply(t, m, keyMsg("tab"))
	m, _ = apply(t, m, keyMsg("enter")) // pick slot, form opens empty
	m, _ = apply(t, m, keyMsg("enter")) // name -> email
	m, cmd := apply(t, m, keyMsg("enter"))

	assert.Nil(t, cmd, "invalid form must not reach the wire")
	assert.Zero(t, gw.bookingCount())
	assert.NotEmpty(t, m.formErr)
}

func TestReschedulePathArmsUntilConfirmed(t *testing.T) {
	gw := &stubGateway{
		fetchResult: availability(testSlotA),
		bookResult:  core.BookingResult{EventID: "ev2"},
	}
	m := newTestModel(t, gw,
		"https://cal.example.com/gr/panel?date=2026-9-1&reschedule=tok1&event_token=tok2")

	m, _ = apply(t, m, keyMsg("tab"))
	m, cmd := apply(t, m, keyMsg("enter"))
	assert.Equal(t, session.PathReschedule, m.State().Path)
	assert.Nil(t, cmd, "a reschedule pick arms, it does not submit")

	m, cmd = apply(t, m, keyMsg("r"))
	require.NotNil(t, cmd)

	cmd()
	require.Equal(t, 1, gw.bookingCount())
	assert.Equal(t, "tok1", gw.bookings[0].Reschedule)
	assert.Equal(t, "tok2", gw.bookings[0].EventToken)
}

func TestConflictClearsPickAndRefetches(t *testing.T) {
	gw := &stubGateway{fetchResult: availability(testSlotA)}
	m := newTestModel(t, gw,
		"https://cal.example.com/gr/panel?date=2026-9-1&event_participants=%5B%7B%22a%22%3A1%7D%5D")

	m, _ = apply(t, m, keyMsg("tab"))
	m, _ = apply(t, m, keyMsg("enter"))

	m, cmd := apply(t, m, bookingMsg{err: &core.ConflictError{Message: "Slot already booked"}})

	assert.False(t, m.State().Submitting)
	assert.False(t, m.State().AppointmentScheduled)
	assert.True(t, m.State().SelectedSlot.IsZero(), "the losing pick is dropped")
	assert.NotNil(t, cmd, "a conflict forces a refetch")
	assert.Contains(t, m.toast, "already booked")
}

func TestValidationFailureKeepsPick(t *testing.T) {
	gw := &stubGateway{fetchResult: availability(testSlotA)}
	m := newTestModel(t, gw,
		"https://cal.example.com/gr/panel?date=2026-9-1&event_participants=%5B%7B%22a%22%3A1%7D%5D")

	m, _ = apply(t, m, keyMsg("tab"))
	m, _ = apply(t, m, keyMsg("enter"))

	m, cmd := apply(t, m, bookingMsg{err: &core.ValidationError{Message: "bad email"}})

	assert.Nil(t, cmd)
	assert.Equal(t, testSlotA, m.State().SelectedSlot, "the pick stays for an explicit retry")
	assert.NotEmpty(t, m.toast)
}

func TestCompletionDismiss(t *testing.T) {
	gw := &stubGateway{
		fetchResult: availability(testSlotA),
		bookResult:  core.BookingResult{EventID: "ev1"},
	}
	m := newTestModel(t, gw,
		"https://cal.example.com/gr/panel?date=2026-9-1&event_participants=%5B%7B%22a%22%3A1%7D%5D")

	m, _ = apply(t, m, keyMsg("tab"))
	m, cmd := apply(t, m, keyMsg("enter"))
	require.NotNil(t, cmd)
	m, _ = apply(t, m, cmd().(bookingMsg))
	require.True(t, m.State().AppointmentScheduled)

	m, _ = apply(t, m, keyMsg("esc"))
	assert.False(t, m.State().AppointmentScheduled)
	assert.Equal(t, "ev1", m.State().BookingResponse.EventID, "dismiss is display-only")
}

func TestServerBookedCompletionNotDismissible(t *testing.T) {
	gw := &stubGateway{}
	m := NewModel(gw, groupLink(t, "https://cal.example.com/gr/panel?date=2026-9-1"), "UTC", nil, nil)

	resumed := core.AvailabilityResult{
		BookedSlot: core.BookedSlot{
			StartTime: testSlotA.StartTime,
			EndTime:   testSlotA.EndTime,
			MeetLink:  "https://meet.example/x",
		},
	}
	m, _ = apply(t, m, availabilityMsg{seq: 1, result: resumed})
	require.True(t, m.State().AppointmentScheduled)

	m, _ = apply(t, m, keyMsg("esc"))
	assert.True(t, m.State().AppointmentScheduled,
		"a server-resumed booking has nothing to go back to")
}

func TestWindowSelectionFetchesAvailability(t *testing.T) {
	gw := &stubGateway{fetchResult: availability(testSlotA)}
	m := NewModel(gw, groupLink(t, "https://cal.example.com/in/jane"), "UTC", nil, nil)

	m, _ = apply(t, m, windowsMsg{profile: core.HostProfile{
		FullName: "Jane Doe",
		Windows: []core.MeetingWindow{
			{ID: "15min", Label: "Quick chat", DurationSeconds: 900},
			{ID: "30min", Label: "Deep dive", DurationSeconds: 1800},
		},
	}})
	require.Len(t, m.windows, 2)

	m, cmd := apply(t, m, keyMsg("enter"))
	require.NotNil(t, cmd)
	assert.Equal(t, "15min", m.link.Scope.ID)

	msg := cmd()
	am, ok := msg.(availabilityMsg)
	require.True(t, ok)
	require.Len(t, gw.fetches, 1)
	assert.Equal(t, "15min", gw.fetches[0].Scope.ID)
	assert.Equal(t, core.ScopePersonal, gw.fetches[0].Scope.Kind)
	assert.Equal(t, 2, am.seq)
}

func TestResumeURLTracksServerCorrectedDate(t *testing.T) {
	gw := &stubGateway{}
	m := NewModel(gw, groupLink(t, "https://cal.example.com/gr/panel?date=2026-9-1"), "UTC", nil, nil)

	corrected := core.AvailabilityResult{IsInvalidDate: true, NextValidDate: "2026-09-04"}
	m, _ = apply(t, m, availabilityMsg{seq: 1, result: corrected})

	assert.Contains(t, m.ResumeURL(), "date=2026-9-4")
}

// A reschedule link's tokens must ride along on availability fetches,
// not just on the booking submission: the server reports the session's
// already-booked slot only when it sees the event token at fetch time.
func TestRescheduleTokensForwardedOnFetch(t *testing.T) {
	gw := &stubGateway{fetchResult: availability(testSlotA)}
	m := NewModel(gw, groupLink(t,
		"https://cal.example.com/gr/panel?date=2026-9-1&reschedule=tok1&event_token=tok2&custom_ref=abc"), "UTC", nil, nil)

	cmd := m.fetchCmd(m.fetchSeq)
	cmd()

	require.Len(t, gw.fetches, 1)
	p := gw.fetches[0]
	assert.Equal(t, "tok1", p.Extra.Get("reschedule"))
	assert.Equal(t, "tok2", p.Extra.Get("event_token"))
	assert.Equal(t, "abc", p.Extra.Get("custom_ref"))
}

func TestMonthBrowseMovesDisplayedMonth(t *testing.T) {
	gw := &stubGateway{fetchResult: availability(testSlotA)}
	m := newTestModel(t, gw, "https://cal.example.com/gr/panel?date=2026-9-15")
	require.Equal(t, time.September, m.State().DisplayMonth.Month())

	m, _ = apply(t, m, keyMsg("]"))
	assert.Equal(t, time.October, m.State().DisplayMonth.Month())
	assert.Equal(t, 15, m.State().SelectedDate.Day(), "browsing months must not move the picked date")

	m, _ = apply(t, m, keyMsg("["))
	assert.Equal(t, time.September, m.State().DisplayMonth.Month())
}
