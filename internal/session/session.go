// Package session holds the booking session's state and its pure
// transition table. All I/O lives with the orchestrator; everything
// here is a total function from (state, event) to state.
package session

import (
	"regexp"
	"strings"
	"time"

	"slotbook/internal/core"
	"slotbook/internal/timeutil"
)

// BookingPath is the control path a slot pick commits the session to.
// It is decided once per pick from the scope's public-booking flag and
// the link's participant/reschedule parameters, then switched on. The
// three paths are mutually exclusive and jointly exhaustive.
type BookingPath int

const (
	// PathDirect submits immediately; the link's participant
	// parameters already identify the visitor.
	PathDirect BookingPath = iota
	// PathGuest collects name and email before submitting.
	PathGuest
	// PathReschedule arms the pick; an explicit reschedule action
	// submits, carrying the link's tokens through untouched.
	PathReschedule
)

func (p BookingPath) String() string {
	switch p {
	case PathGuest:
		return "guest"
	case PathReschedule:
		return "reschedule"
	default:
		return "direct"
	}
}

// PathFor decides the booking path. Reschedule tokens win: the server
// treats a reschedule as already identified, so the guest condition is
// only consulted without them.
func PathFor(allowPublic, participantsEmpty, hasRescheduleTokens bool) BookingPath {
	switch {
	case hasRescheduleTokens:
		return PathReschedule
	case allowPublic && participantsEmpty:
		return PathGuest
	default:
		return PathDirect
	}
}

// State is the booking session aggregate. It is created once per
// session, seeded from the booking link and local defaults, owned
// exclusively by the orchestrator, and mutated only through Reduce.
type State struct {
	TimeZone     string
	SelectedDate time.Time
	DisplayMonth time.Time
	SelectedSlot core.Slot

	// Expanded and CompactView only gate which pane is visible on a
	// narrow terminal. They never influence the booking outcome.
	Expanded    bool
	CompactView bool

	AppointmentScheduled bool
	ShowMeetingForm      bool
	Submitting           bool

	MeetingData     core.AvailabilityResult
	BookingResponse core.BookingResult
	GuestInfo       core.GuestInfo

	// Path is the branch the latest slot pick committed to.
	Path BookingPath

	// TimeFormat24h toggles the clock rendering of slot labels.
	TimeFormat24h bool

	// Link facts the path decision needs, fixed at mount.
	ParticipantsEmpty   bool
	HasRescheduleTokens bool
}

// New seeds a session from the booking link and local defaults.
// A zero date means "today in the session timezone".
func New(zone string, date time.Time, participantsEmpty, hasRescheduleTokens bool) State {
	if zone == "" {
		zone = timeutil.LocalZone()
	}
	if date.IsZero() {
		loc, err := time.LoadLocation(zone)
		if err != nil {
			loc = time.UTC
		}
		now := time.Now().In(loc)
		date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	return State{
		TimeZone:            zone,
		SelectedDate:        date,
		DisplayMonth:        date,
		ParticipantsEmpty:   participantsEmpty,
		HasRescheduleTokens: hasRescheduleTokens,
	}
}

// Event is a session transition trigger. Unknown event types are
// deliberate no-ops, never errors.
type Event interface{ sessionEvent() }

// AvailabilityReceived replaces the session's availability data. An
// invalid-date response forces adoption of the server's next valid
// date; a booked_slot resumes an already-booked session idempotently.
type AvailabilityReceived struct{ Result core.AvailabilityResult }

// DatePicked moves the session to a new date and clears any pick.
type DatePicked struct{ Date time.Time }

// SlotPicked selects a slot and commits to a booking path.
type SlotPicked struct{ Slot core.Slot }

// GuestInfoChanged shallow-merges partial guest contact info.
// Nil fields are left untouched.
type GuestInfoChanged struct {
	Name  *string
	Email *string
}

// SubmitStarted marks a booking submission in flight.
type SubmitStarted struct{}

// BookingSucceeded records the server's confirmation and enters the
// terminal scheduled state.
type BookingSucceeded struct{ Result core.BookingResult }

// BookingFailed returns the session to an actionable state. The error
// itself is surfaced by the orchestrator; the reducer mutates nothing
// else, leaving the pick in place for an explicit retry.
type BookingFailed struct{}

// MonthBrowsed moves the calendar to another month without picking a
// date. Display only; the selected date is untouched.
type MonthBrowsed struct{ Month time.Time }

// ViewportChanged tracks the narrow-terminal layout flag.
type ViewportChanged struct{ Compact bool }

// DismissCompletion closes the completion surface. Display only; the
// booking itself is not undone.
type DismissCompletion struct{}

// TimezoneChanged switches the session timezone; slots must be
// refetched for the new zone.
type TimezoneChanged struct{ Zone string }

// TimeFormatToggled flips between 12h and 24h slot labels.
type TimeFormatToggled struct{}

func (AvailabilityReceived) sessionEvent() {}
func (DatePicked) sessionEvent()           {}
func (SlotPicked) sessionEvent()           {}
func (GuestInfoChanged) sessionEvent()     {}
func (SubmitStarted) sessionEvent()        {}
func (BookingSucceeded) sessionEvent()     {}
func (BookingFailed) sessionEvent()        {}
func (MonthBrowsed) sessionEvent()         {}
func (ViewportChanged) sessionEvent()      {}
func (DismissCompletion) sessionEvent()    {}
func (TimezoneChanged) sessionEvent()      {}
func (TimeFormatToggled) sessionEvent()    {}

// Reduce is the transition table. Pure: no I/O, no side effects, total
// over declared events, identity on anything else.
func Reduce(s State, ev Event) State {
	switch ev := ev.(type) {
	case AvailabilityReceived:
		return reduceAvailability(s, ev.Result)

	case DatePicked:
		s.SelectedDate = ev.Date
		s.DisplayMonth = ev.Date
		s.Expanded = true
		s.SelectedSlot = core.Slot{}
		return s

	case SlotPicked:
		if s.AppointmentScheduled || s.Submitting {
			return s
		}
		s.SelectedSlot = ev.Slot
		if ev.Slot.IsZero() {
			s.ShowMeetingForm = false
			return s
		}
		s.Path = PathFor(s.MeetingData.AllowPublicBooking, s.ParticipantsEmpty, s.HasRescheduleTokens)
		s.ShowMeetingForm = s.Path == PathGuest
		return s

	case GuestInfoChanged:
		if ev.Name != nil {
			s.GuestInfo.Name = *ev.Name
		}
		if ev.Email != nil {
			s.GuestInfo.Email = *ev.Email
		}
		return s

	case SubmitStarted:
		s.Submitting = true
		return s

	case BookingSucceeded:
		s.Submitting = false
		s.BookingResponse = ev.Result
		s.AppointmentScheduled = true
		s.ShowMeetingForm = false
		s.Expanded = false
		return s

	case BookingFailed:
		s.Submitting = false
		return s

	case MonthBrowsed:
		s.DisplayMonth = ev.Month
		return s

	case ViewportChanged:
		s.CompactView = ev.Compact
		return s

	case DismissCompletion:
		s.AppointmentScheduled = false
		return s

	case TimezoneChanged:
		s.TimeZone = ev.Zone
		return s

	case TimeFormatToggled:
		s.TimeFormat24h = !s.TimeFormat24h
		return s
	}
	return s
}

func reduceAvailability(s State, r core.AvailabilityResult) State {
	s.MeetingData = r

	if r.IsInvalidDate && r.NextValidDate != "" {
		if next, err := timeutil.ParseDate(r.NextValidDate); err == nil {
			s.SelectedDate = next
			s.DisplayMonth = next
		}
	}

	// A booked_slot is the server's view of an already-committed
	// session; it wins over any local pick. Replays produce the same
	// terminal state.
	if !r.BookedSlot.IsZero() {
		s.SelectedSlot = r.BookedSlot.Slot()
		s.BookingResponse = core.BookingResult{
			EventID:                r.BookedSlot.RescheduleURL,
			MeetLink:               r.BookedSlot.MeetLink,
			MeetingProvider:        r.BookedSlot.MeetingProvider,
			RescheduleURL:          r.BookedSlot.RescheduleURL,
			GoogleCalendarEventURL: r.BookedSlot.GoogleCalendarEventURL,
			Message:                "Event scheduled",
		}
		s.AppointmentScheduled = true
	}
	return s
}

// SlotOffered reports whether the given slot is one of the most
// recently received day's slots, or the server-surfaced booked slot.
func (s State) SlotOffered(slot core.Slot) bool {
	if !s.MeetingData.BookedSlot.IsZero() && slot == s.MeetingData.BookedSlot.Slot() {
		return true
	}
	for _, offered := range s.MeetingData.Slots {
		if offered == slot {
			return true
		}
	}
	return false
}

// ServerBooked reports whether the terminal state was resumed from the
// server's booked_slot rather than a submission in this session. Such
// a completion surface is not dismissible back into booking.
func (s State) ServerBooked() bool {
	return !s.MeetingData.BookedSlot.IsZero()
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateGuestInfo checks the guest form. Returns a field-level
// *core.ValidationError; no network call is made while it fails.
func ValidateGuestInfo(g core.GuestInfo) error {
	if strings.TrimSpace(g.Name) == "" {
		return &core.ValidationError{Field: "name", Message: "name is required"}
	}
	if strings.TrimSpace(g.Email) == "" {
		return &core.ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailPattern.MatchString(strings.TrimSpace(g.Email)) {
		return &core.ValidationError{Field: "email", Message: "enter a valid email address"}
	}
	return nil
}

// GuestFormValid reports whether the session can submit: either the
// guest path's form validates, or no guest info is needed.
func (s State) GuestFormValid() bool {
	if s.Path != PathGuest {
		return true
	}
	return ValidateGuestInfo(s.GuestInfo) == nil
}
