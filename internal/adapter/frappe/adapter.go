// Package frappe implements the availability gateway against a
// frappe-appointment server's REST API.
package frappe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"slotbook/internal/core"
	"slotbook/internal/timeutil"
	"slotbook/internal/util"
)

const (
	methodBase         = "/api/method/frappe_appointment.api."
	groupSlots         = methodBase + "group_meet.get_time_slots"
	groupBook          = methodBase + "group_meet.book_time_slot"
	personalSlots      = methodBase + "personal_meet.get_time_slots"
	personalBook       = methodBase + "personal_meet.book_time_slot"
	personalWindows    = methodBase + "personal_meet.get_meeting_windows"

	// Availability reads are retried on transient failures; writes
	// are only ever retried by explicit user action.
	fetchAttempts  = 3
	retryBaseDelay = 500 * time.Millisecond
	requestTimeout = 15 * time.Second
)

// Adapter is a core.Gateway over HTTP. It holds no session state;
// every call is independent, so one adapter can serve any number of
// concurrent sessions.
type Adapter struct {
	base   string
	client *http.Client
	log    *zap.Logger
}

// New creates an adapter for the booking server at base
// (scheme://host). A nil logger disables logging.
func New(base string, log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: requestTimeout},
		log:    log,
	}
}

// envelope is frappe's standard response wrapper.
type envelope struct {
	Message json.RawMessage `json:"message"`
}

// availabilityWire adds the wire-only fields the typed result
// normalizes away. The server sends duration in seconds.
type availabilityWire struct {
	core.AvailabilityResult
	DurationSeconds int `json:"duration"`
}

// FetchSlots queries one day's open slots. Idempotent GET; transient
// failures are retried up to the bounded attempt count, and any 4xx
// means the scope is gone, a terminal condition for the session.
func (a *Adapter) FetchSlots(ctx context.Context, p core.FetchParams) (core.AvailabilityResult, error) {
	q := url.Values{}
	for key, vals := range p.Extra {
		for _, v := range vals {
			q.Add(key, v)
		}
	}
	q.Set("date", p.Date)
	q.Set("user_timezone_offset", strconv.Itoa(p.TimezoneOffsetMinutes))

	endpoint := personalSlots
	if p.Scope.Kind == core.ScopeGroup {
		endpoint = groupSlots
		q.Set("appointment_group_id", p.Scope.ID)
	} else {
		q.Set("duration_id", p.Scope.ID)
	}

	requestID := uuid.NewString()
	a.log.Debug("fetch slots",
		zap.String("request_id", requestID),
		zap.String("scope", p.Scope.ID),
		zap.String("date", p.Date))

	body, err := a.getWithRetry(ctx, endpoint, q, requestID)
	if err != nil {
		return core.AvailabilityResult{}, &core.FetchError{Scope: p.Scope, Err: err}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return core.AvailabilityResult{}, &core.FetchError{Scope: p.Scope, Err: fmt.Errorf("decode availability: %w", err)}
	}
	var wire availabilityWire
	if err := json.Unmarshal(env.Message, &wire); err != nil {
		return core.AvailabilityResult{}, &core.FetchError{Scope: p.Scope, Err: fmt.Errorf("decode availability: %w", err)}
	}
	result := wire.AvailabilityResult
	result.DurationMinutes = timeutil.SecondsToMinutes(wire.DurationSeconds)

	a.log.Debug("fetch slots ok",
		zap.String("request_id", requestID),
		zap.Int("slots", len(result.Slots)),
		zap.Bool("invalid_date", result.IsInvalidDate))
	return result, nil
}

// SubmitBooking converts a slot into a confirmed meeting. Never
// retried automatically: on success the slot is consumed server-side,
// so a blind retry could double-book.
func (a *Adapter) SubmitBooking(ctx context.Context, p core.BookParams) (core.BookingResult, error) {
	payload := map[string]string{}
	for key, vals := range p.Extra {
		if len(vals) > 0 {
			payload[key] = vals[0]
		}
	}
	payload["date"] = p.Date
	payload["user_timezone_offset"] = strconv.Itoa(p.TimezoneOffsetMinutes)
	payload["start_time"] = p.StartTime
	payload["end_time"] = p.EndTime

	endpoint := personalBook
	if p.Scope.Kind == core.ScopeGroup {
		endpoint = groupBook
		payload["appointment_group_id"] = p.Scope.ID
	} else {
		payload["duration_id"] = p.Scope.ID
	}
	if p.UserName != "" {
		payload["user_name"] = p.UserName
	}
	if p.UserEmail != "" {
		payload["user_email"] = p.UserEmail
	}
	if p.Reschedule != "" {
		payload["reschedule"] = p.Reschedule
	}
	if p.EventToken != "" {
		payload["event_token"] = p.EventToken
	}

	requestID := uuid.NewString()
	a.log.Info("submit booking",
		zap.String("request_id", requestID),
		zap.String("scope", p.Scope.ID),
		zap.String("start", p.StartTime),
		zap.Bool("reschedule", p.Reschedule != ""))

	raw, err := json.Marshal(payload)
	if err != nil {
		return core.BookingResult{}, fmt.Errorf("encode booking payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.base+endpoint, bytes.NewReader(raw))
	if err != nil {
		return core.BookingResult{}, fmt.Errorf("build booking request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	resp, err := a.client.Do(req)
	if err != nil {
		return core.BookingResult{}, &core.NetworkError{Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.BookingResult{}, &core.NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bookErr := mapBookingError(resp.StatusCode, body)
		a.log.Warn("booking rejected",
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode),
			zap.Error(bookErr))
		return core.BookingResult{}, bookErr
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return core.BookingResult{}, &core.NetworkError{Err: fmt.Errorf("decode booking response: %w", err)}
	}
	var result core.BookingResult
	if err := json.Unmarshal(env.Message, &result); err != nil {
		return core.BookingResult{}, &core.NetworkError{Err: fmt.Errorf("decode booking response: %w", err)}
	}
	a.log.Info("booking confirmed",
		zap.String("request_id", requestID),
		zap.String("event_id", result.EventID))
	return result, nil
}

// MeetingWindows resolves a personal page slug to the host's offered
// durations.
func (a *Adapter) MeetingWindows(ctx context.Context, slug string) (core.HostProfile, error) {
	q := url.Values{}
	q.Set("slug", slug)

	requestID := uuid.NewString()
	body, err := a.getWithRetry(ctx, personalWindows, q, requestID)
	if err != nil {
		return core.HostProfile{}, &core.FetchError{
			Scope: core.Scope{Kind: core.ScopePersonal, ID: slug},
			Err:   err,
		}
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return core.HostProfile{}, fmt.Errorf("decode meeting windows: %w", err)
	}
	var profile core.HostProfile
	if err := json.Unmarshal(env.Message, &profile); err != nil {
		return core.HostProfile{}, fmt.Errorf("decode meeting windows: %w", err)
	}
	return profile, nil
}

// getWithRetry issues an idempotent GET, retrying transient failures
// (transport errors, 5xx) with a short doubling backoff. A 4xx is
// returned immediately: the scope is not going to appear on retry.
func (a *Adapter) getWithRetry(ctx context.Context, endpoint string, q url.Values, requestID string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= fetchAttempts; attempt++ {
		if attempt > 1 {
			delay := retryBaseDelay << (attempt - 2)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			a.log.Debug("retrying fetch",
				zap.String("request_id", requestID),
				zap.Int("attempt", attempt))
		}

		body, retryable, err := a.getOnce(ctx, endpoint, q, requestID)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, &core.NetworkError{Err: fmt.Errorf("after %d attempts: %w", fetchAttempts, lastErr)}
}

func (a *Adapter) getOnce(ctx context.Context, endpoint string, q url.Values, requestID string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.base+endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()
	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, false, nil
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("server error %d", resp.StatusCode)
	default:
		msg := ServerMessage(body)
		if msg == "" {
			msg = resp.Status
		}
		return nil, false, fmt.Errorf("%s", msg)
	}
}

// mapBookingError classifies a rejected submission. Validation wording
// means a malformed guest form reached the server; slot wording means
// the slot was consumed between fetch and submit; anything else is
// treated as transient.
func mapBookingError(status int, body []byte) error {
	msg := ServerMessage(body)
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "name and email") ||
		strings.Contains(lower, "valid email") ||
		strings.Contains(lower, "public booking is not enabled"):
		return &core.ValidationError{Message: msg}
	case status == http.StatusConflict ||
		strings.Contains(lower, "no longer available") ||
		strings.Contains(lower, "already booked") ||
		strings.Contains(lower, "not available"):
		return &core.ConflictError{Message: msg}
	case status >= 500:
		return &core.NetworkError{Err: fmt.Errorf("server error %d", status)}
	default:
		// Frappe throws land here with an expectation-failed status.
		// Treat them as conflicts: the server refused the slot and the
		// visitor must re-select.
		return &core.ConflictError{Message: msg}
	}
}

// serverMessages is the frappe error body: _server_messages is a JSON
// array of JSON-encoded objects, each with an HTML "message".
type serverMessages struct {
	Exception      string `json:"exception"`
	ExcType        string `json:"exc_type"`
	ServerMessages string `json:"_server_messages"`
}

// ServerMessage extracts a human-readable message from a frappe error
// body, stripping markup. Returns "" when none is present so callers
// can fall back to a generic message.
func ServerMessage(body []byte) string {
	var wrapped serverMessages
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return ""
	}

	if wrapped.ServerMessages != "" {
		var items []string
		if err := json.Unmarshal([]byte(wrapped.ServerMessages), &items); err == nil && len(items) > 0 {
			var inner struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal([]byte(items[len(items)-1]), &inner); err == nil && inner.Message != "" {
				return util.StripHTML(inner.Message)
			}
		}
	}

	if wrapped.Exception != "" {
		// "frappe.exceptions.ValidationError: the actual text"
		if idx := strings.Index(wrapped.Exception, ": "); idx >= 0 {
			return util.StripHTML(wrapped.Exception[idx+2:])
		}
		return util.StripHTML(wrapped.Exception)
	}
	return ""
}
