package core

import (
	"context"
	"net/url"
)

// ScopeKind selects which server API family a booking link targets.
type ScopeKind int

const (
	// ScopePersonal is a single host's booking page; the scope id is a
	// duration id resolved from the host's meeting windows.
	ScopePersonal ScopeKind = iota
	// ScopeGroup is a named group of hosts with a shared calendar.
	ScopeGroup
)

func (k ScopeKind) String() string {
	if k == ScopeGroup {
		return "group"
	}
	return "personal"
}

// Scope is the booking target: a personal meet duration or a group.
type Scope struct {
	Kind ScopeKind
	ID   string
}

// FetchParams keys one availability query. Extra carries passthrough
// URL parameters forwarded verbatim; the server owns their meaning.
type FetchParams struct {
	Scope                 Scope
	Date                  string // YYYY-MM-DD in the session timezone
	TimezoneOffsetMinutes int    // signed minutes east of UTC
	Extra                 url.Values
}

// BookParams is a booking submission. StartTime/EndTime echo the slot
// strings exactly as the availability response delivered them.
type BookParams struct {
	Scope                 Scope
	Date                  string
	TimezoneOffsetMinutes int
	StartTime             string
	EndTime               string
	UserName              string // guest path only
	UserEmail             string // guest path only
	Reschedule            string // opaque reschedule token, "" if not rescheduling
	EventToken            string // opaque event token, paired with Reschedule
	Extra                 url.Values
}

// Gateway wraps the remote availability and booking operations. Both
// calls are independent; the gateway holds no session state. FetchSlots
// has idempotent GET semantics and may be re-issued freely; callers
// are responsible for discarding stale responses. SubmitBooking
// consumes the slot server-side on success, so callers should follow a
// success with a fresh FetchSlots to keep other open sessions honest.
type Gateway interface {
	FetchSlots(ctx context.Context, p FetchParams) (AvailabilityResult, error)
	SubmitBooking(ctx context.Context, p BookParams) (BookingResult, error)
	// MeetingWindows resolves a personal scope slug to the durations
	// the host offers. Not meaningful for group scopes.
	MeetingWindows(ctx context.Context, slug string) (HostProfile, error)
}
