// Package booklink parses the booking-page URLs visitors paste in and
// renders them back out, so a session can be resumed or shared from
// the same link with only the date advanced.
package booklink

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"slotbook/internal/core"
	"slotbook/internal/timeutil"
)

// reservedKeys are the query parameters the client itself owns. They
// are lifted into typed fields and set explicitly on every gateway
// call; everything else is passthrough and echoed verbatim.
var reservedKeys = map[string]bool{
	"date":                 true,
	"type":                 true,
	"appointment_group_id": true,
	"duration_id":          true,
	"user_timezone_offset": true,
	"reschedule":           true,
	"event_token":          true,
	"start_time":           true,
	"end_time":             true,
	"user_name":            true,
	"user_email":           true,
}

// Link is a parsed booking-page URL.
type Link struct {
	// Base is scheme://host of the booking server.
	Base string
	// Path is the page path ("/in/jane" or "/gr/hiring-panel").
	Path string
	// Scope is the booking target derived from the path and query.
	Scope core.Scope
	// Slug is the personal page slug, used to resolve meeting windows
	// when the link carries no duration selection yet.
	Slug string
	// Date is the requested civil date, zero if the link had none.
	Date time.Time
	// Reschedule and EventToken authorize modifying an existing
	// booking. Both must be present for the reschedule path.
	Reschedule string
	EventToken string
	// ParticipantsRaw is the raw event_participants value ("" or "[]"
	// signals anonymous/public booking eligibility).
	ParticipantsRaw string
	// Passthrough holds every query parameter the client does not own,
	// forwarded unchanged to the server on both fetch and book.
	Passthrough url.Values
}

// Parse interprets a pasted booking URL. Personal pages live under
// /in/<slug> with the chosen duration in the "type" parameter; group
// pages live under /gr/<id> (or carry appointment_group_id).
func Parse(raw string) (Link, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Link{}, fmt.Errorf("parse booking link: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return Link{}, fmt.Errorf("booking link %q must be absolute", raw)
	}

	q := u.Query()
	l := Link{
		Base:            u.Scheme + "://" + u.Host,
		Path:            u.Path,
		Reschedule:      q.Get("reschedule"),
		EventToken:      q.Get("event_token"),
		ParticipantsRaw: q.Get("event_participants"),
		Passthrough:     url.Values{},
	}

	for key, vals := range q {
		if reservedKeys[key] {
			continue
		}
		for _, v := range vals {
			l.Passthrough.Add(key, v)
		}
	}

	if d := q.Get("date"); d != "" {
		t, err := timeutil.ParseDate(d)
		if err != nil {
			return Link{}, err
		}
		l.Date = t
	}

	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	switch {
	case len(segs) >= 2 && segs[0] == "gr":
		l.Scope = core.Scope{Kind: core.ScopeGroup, ID: segs[1]}
	case q.Get("appointment_group_id") != "":
		l.Scope = core.Scope{Kind: core.ScopeGroup, ID: q.Get("appointment_group_id")}
	case len(segs) >= 2 && segs[0] == "in":
		l.Slug = segs[1]
		l.Scope = core.Scope{Kind: core.ScopePersonal, ID: q.Get("type")}
	default:
		return Link{}, fmt.Errorf("booking link %q: unrecognized page path %q", raw, u.Path)
	}

	return l, nil
}

// ParticipantsEmpty reports whether the link identifies no invitees,
// which is what makes an anonymous guest booking eligible.
func (l Link) ParticipantsEmpty() bool {
	return l.ParticipantsRaw == "" || l.ParticipantsRaw == "[]"
}

// HasRescheduleTokens reports whether the link authorizes rescheduling
// an existing booking. Both tokens are required together.
func (l Link) HasRescheduleTokens() bool {
	return l.Reschedule != "" && l.EventToken != ""
}

// FetchExtras returns the extra query parameters an availability fetch
// must carry: every passthrough parameter plus the reschedule tokens.
// The server needs the tokens at fetch time to report the session's
// already-booked slot on a reschedule link. The returned values are a
// copy; Passthrough is never mutated.
func (l Link) FetchExtras() url.Values {
	out := url.Values{}
	for key, vals := range l.Passthrough {
		for _, v := range vals {
			out.Add(key, v)
		}
	}
	if l.Reschedule != "" {
		out.Set("reschedule", l.Reschedule)
	}
	if l.EventToken != "" {
		out.Set("event_token", l.EventToken)
	}
	return out
}

// WithDate returns a copy of the link pointing at the given date.
func (l Link) WithDate(d time.Time) Link {
	l.Date = d
	return l
}

// WithScopeID returns a copy with the scope id set, used once a
// personal page's meeting window has been chosen.
func (l Link) WithScopeID(id string) Link {
	l.Scope.ID = id
	return l
}

// URL renders the shareable resume URL: the original link with the
// current date (unpadded, as booking pages emit it) and all
// passthrough parameters intact.
func (l Link) URL() string {
	q := url.Values{}
	for key, vals := range l.Passthrough {
		for _, v := range vals {
			q.Add(key, v)
		}
	}
	if !l.Date.IsZero() {
		q.Set("date", timeutil.QueryDate(l.Date))
	}
	if l.Scope.Kind == core.ScopePersonal && l.Scope.ID != "" {
		q.Set("type", l.Scope.ID)
	}
	if l.Reschedule != "" {
		q.Set("reschedule", l.Reschedule)
	}
	if l.EventToken != "" {
		q.Set("event_token", l.EventToken)
	}
	if l.ParticipantsRaw != "" {
		q.Set("event_participants", l.ParticipantsRaw)
	}
	out := l.Base + l.Path
	if enc := q.Encode(); enc != "" {
		out += "?" + enc
	}
	return out
}
