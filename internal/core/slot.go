package core

import (
	"time"
)

// slotTimeLayouts are the timestamp formats booking servers are known
// to emit. RFC3339 first since that is what current servers send.
var slotTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Slot is a bookable half-open time interval. The endpoints are kept
// as the wire strings the server sent: booking submissions must echo
// them back verbatim, and two slots are equal iff both strings match.
type Slot struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// IsZero reports whether no slot has been selected.
func (s Slot) IsZero() bool {
	return s.StartTime == "" && s.EndTime == ""
}

// Start parses the slot's start timestamp.
func (s Slot) Start() (time.Time, error) {
	return parseSlotTime(s.StartTime)
}

// End parses the slot's end timestamp.
func (s Slot) End() (time.Time, error) {
	return parseSlotTime(s.EndTime)
}

func parseSlotTime(v string) (time.Time, error) {
	var firstErr error
	for _, layout := range slotTimeLayouts {
		t, err := time.Parse(layout, v)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// BookedSlot is a slot the server reports as already committed for
// this visitor, surfaced when a booked session link is re-opened.
type BookedSlot struct {
	StartTime              string `json:"start_time"`
	EndTime                string `json:"end_time"`
	MeetingProvider        string `json:"meeting_provider"`
	GoogleCalendarEventURL string `json:"google_calendar_event_url"`
	MeetLink               string `json:"meet_link"`
	RescheduleURL          string `json:"reschedule_url"`
}

// IsZero reports whether the server surfaced no booked slot.
func (b BookedSlot) IsZero() bool {
	return b.StartTime == "" && b.EndTime == ""
}

// Slot returns the interval portion of the booked slot.
func (b BookedSlot) Slot() Slot {
	return Slot{StartTime: b.StartTime, EndTime: b.EndTime}
}

// Member is a host participating in a group scope.
type Member struct {
	Name        string `json:"name"`
	Image       string `json:"image"`
	IsMandatory bool   `json:"is_mandatory"`
}

// MeetingDetails carries identity fields the server resolved from the
// link's participant parameters (e.g. interview round metadata).
type MeetingDetails struct {
	Name              string `json:"name"`
	EmailAddress      string `json:"email_address"`
	ReferenceDocname  string `json:"reference_docname"`
	Round             string `json:"round"`
}

// Branding is the scope's optional visual identity. The TUI only uses
// it for the header title, but it is part of the availability payload.
type Branding struct {
	CoverImage       string `json:"cover_image"`
	HeaderColorLight string `json:"header_color_light"`
	HeaderColorDark  string `json:"header_color_dark"`
	AppLogo          string `json:"app_logo"`
}

// AvailabilityResult is the server's answer to a slot query. Slots are
// scoped to exactly one calendar date in one timezone; the caller
// refetches whenever either changes.
type AvailabilityResult struct {
	ScopeID               string          `json:"appointment_group_id"`
	Title                 string          `json:"title"`
	Description           string          `json:"description"`
	Date                  string          `json:"date"`
	Slots                 []Slot          `json:"all_available_slots_for_data"`
	AvailableDays         []string        `json:"available_days"`
	DurationMinutes       int             `json:"-"`
	IsInvalidDate         bool            `json:"is_invalid_date"`
	NextValidDate         string          `json:"next_valid_date"`
	PrevValidDate         string          `json:"prev_valid_date"`
	ValidStartDate        string          `json:"valid_start_date"`
	ValidEndDate          string          `json:"valid_end_date"`
	TotalSlotsForDay      int             `json:"total_slots_for_day"`
	MeetingDetails        *MeetingDetails `json:"meeting_details"`
	BookedSlot            BookedSlot      `json:"booked_slot"`
	Members               []Member        `json:"members"`
	Branding              *Branding       `json:"branding"`
	AllowPublicBooking    bool            `json:"allow_public_booking"`
	ReschedulingAllowed   bool            `json:"rescheduling_allowed"`
}

// DayAvailable reports whether the given weekday name (e.g. "Monday")
// is one the scope accepts bookings on. An empty list means every day.
func (a AvailabilityResult) DayAvailable(weekday string) bool {
	if len(a.AvailableDays) == 0 {
		return true
	}
	for _, d := range a.AvailableDays {
		if d == weekday {
			return true
		}
	}
	return false
}

// BookingResult is the server's confirmation of a booking. Immutable
// once received; it represents a commitment already accepted remotely.
type BookingResult struct {
	EventID                string `json:"event_id"`
	MeetLink               string `json:"meet_link"`
	MeetingProvider        string `json:"meeting_provider"`
	RescheduleURL          string `json:"reschedule_url"`
	GoogleCalendarEventURL string `json:"google_calendar_event_url"`
	Message                string `json:"message"`
}

// IsZero reports whether no booking confirmation has been received.
func (r BookingResult) IsZero() bool {
	return r.EventID == "" && r.MeetLink == "" && r.RescheduleURL == ""
}

// GuestInfo is the contact information an anonymous visitor supplies
// when the scope permits public booking.
type GuestInfo struct {
	Name  string
	Email string
}

// MeetingWindow is one bookable duration a personal scope offers
// (e.g. "Quick chat", 15 minutes). Choosing one selects the scope id
// used for slot queries.
type MeetingWindow struct {
	ID              string `json:"id"`
	Label           string `json:"label"`
	DurationSeconds int    `json:"duration"`
}

// HostProfile describes the person (or group) behind a booking page.
type HostProfile struct {
	FullName        string          `json:"full_name"`
	Position        string          `json:"position"`
	Company         string          `json:"company"`
	MeetingProvider string          `json:"meeting_provider"`
	Windows         []MeetingWindow `json:"durations"`
}
