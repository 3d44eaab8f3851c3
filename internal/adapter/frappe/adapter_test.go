package frappe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slotbook/internal/core"
)

func groupParams(scopeID string) core.FetchParams {
	return core.FetchParams{
		Scope:                 core.Scope{Kind: core.ScopeGroup, ID: scopeID},
		Date:                  "2026-09-01",
		TimezoneOffsetMinutes: 330,
	}
}

func okEnvelope(t *testing.T, message any) []byte {
	t.Helper()
	raw, err := json.Marshal(message)
	require.NoError(t, err)
	body, err := json.Marshal(map[string]json.RawMessage{"message": raw})
	require.NoError(t, err)
	return body
}

func TestFetchSlots_Group(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/method/frappe_appointment.api.group_meet.get_time_slots", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))
		gotQuery = r.URL.Query()

		w.Write(okEnvelope(t, map[string]any{
			"appointment_group_id": "hiring-panel",
			"duration": 1800,
			"all_available_slots_for_data": []map[string]string{
				{"start_time": "2026-09-01 09:00:00+05:30", "end_time": "2026-09-01 09:30:00+05:30"},
			},
			"valid_start_date": "2026-09-01",
			"valid_end_date":   "2026-09-30",
		}))
	}))
	defer srv.Close()

	a := New(srv.URL, nil)
	p := groupParams("hiring-panel")
	p.Extra = url.Values{"custom_ref": []string{"abc"}}

	result, err := a.FetchSlots(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, "2026-09-01", gotQuery.Get("date"))
	assert.Equal(t, "330", gotQuery.Get("user_timezone_offset"))
	assert.Equal(t, "hiring-panel", gotQuery.Get("appointment_group_id"))
	assert.Equal(t, "abc", gotQuery.Get("custom_ref"), "unknown link params pass through")

	assert.Equal(t, "hiring-panel", result.ScopeID)
	require.Len(t, result.Slots, 1)
	assert.Equal(t, "2026-09-01 09:00:00+05:30", result.Slots[0].StartTime)
	assert.Equal(t, 30, result.DurationMinutes, "seconds on the wire, minutes in the result")
}

func TestFetchSlots_PersonalUsesDurationID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/method/frappe_appointment.api.personal_meet.get_time_slots", r.URL.Path)
		assert.Equal(t, "30min", r.URL.Query().Get("duration_id"))
		w.Write(okEnvelope(t, map[string]any{}))
	}))
	defer srv.Close()

	a := New(srv.URL, nil)
	_, err := a.FetchSlots(context.Background(), core.FetchParams{
		Scope: core.Scope{Kind: core.ScopePersonal, ID: "30min"},
		Date:  "2026-09-01",
	})
	require.NoError(t, err)
}

func TestFetchSlots_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write(okEnvelope(t, map[string]any{"appointment_group_id": "g"}))
	}))
	defer srv.Close()

	a := New(srv.URL, nil)
	result, err := a.FetchSlots(context.Background(), groupParams("g"))
	require.NoError(t, err)
	assert.Equal(t, "g", result.ScopeID)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchSlots_GivesUpAfterBoundedAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := New(srv.URL, nil)
	_, err := a.FetchSlots(context.Background(), groupParams("g"))

	require.Error(t, err)
	assert.True(t, core.IsFetchFailure(err))
	assert.Equal(t, int32(fetchAttempts), calls.Load())
}

func TestFetchSlots_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"exception":"frappe.exceptions.DoesNotExistError: Appointment Group not found"}`))
	}))
	defer srv.Close()

	a := New(srv.URL, nil)
	_, err := a.FetchSlots(context.Background(), groupParams("gone"))

	require.Error(t, err)
	assert.True(t, core.IsFetchFailure(err))
	assert.Contains(t, err.Error(), "Appointment Group not found")
	assert.Equal(t, int32(1), calls.Load(), "a missing scope will not appear on retry")
}

func TestSubmitBooking_PayloadShape(t *testing.T) {
	var gotPayload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/method/frappe_appointment.api.group_meet.book_time_slot", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		w.Write(okEnvelope(t, map[string]string{
			"event_id":  "ev1",
			"meet_link": "https://meet.example/abc",
		}))
	}))
	defer srv.Close()

	a := New(srv.URL, nil)
	result, err := a.SubmitBooking(context.Background(), core.BookParams{
		Scope:                 core.Scope{Kind: core.ScopeGroup, ID: "hiring-panel"},
		Date:                  "2026-09-01",
		TimezoneOffsetMinutes: -300,
		StartTime:             "2026-09-01 09:00:00+05:30",
		EndTime:               "2026-09-01 09:30:00+05:30",
		UserName:              "Ada",
		UserEmail:             "ada@example.com",
		Extra:                 url.Values{"custom_ref": []string{"abc"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "hiring-panel", gotPayload["appointment_group_id"])
	assert.Equal(t, "2026-09-01", gotPayload["date"])
	assert.Equal(t, "-300", gotPayload["user_timezone_offset"])
	assert.Equal(t, "2026-09-01 09:00:00+05:30", gotPayload["start_time"], "slot strings echoed verbatim")
	assert.Equal(t, "Ada", gotPayload["user_name"])
	assert.Equal(t, "ada@example.com", gotPayload["user_email"])
	assert.Equal(t, "abc", gotPayload["custom_ref"])
	assert.NotContains(t, gotPayload, "reschedule")
	assert.NotContains(t, gotPayload, "event_token")

	assert.Equal(t, "ev1", result.EventID)
	assert.Equal(t, "https://meet.example/abc", result.MeetLink)
}

func TestSubmitBooking_RescheduleTokens(t *testing.T) {
	var gotPayload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Write(okEnvelope(t, map[string]string{"event_id": "ev1"}))
	}))
	defer srv.Close()

	a := New(srv.URL, nil)
	_, err := a.SubmitBooking(context.Background(), core.BookParams{
		Scope:      core.Scope{Kind: core.ScopeGroup, ID: "g"},
		Date:       "2026-09-01",
		StartTime:  "s",
		EndTime:    "e",
		Reschedule: "tok1",
		EventToken: "tok2",
	})
	require.NoError(t, err)

	assert.Equal(t, "tok1", gotPayload["reschedule"])
	assert.Equal(t, "tok2", gotPayload["event_token"])
}

func TestSubmitBooking_NeverRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := New(srv.URL, nil)
	_, err := a.SubmitBooking(context.Background(), core.BookParams{
		Scope: core.Scope{Kind: core.ScopeGroup, ID: "g"},
	})

	require.Error(t, err)
	assert.True(t, core.IsNetwork(err))
	assert.Equal(t, int32(1), calls.Load(), "a write must never be replayed automatically")
}

func TestSubmitBooking_ErrorMapping(t *testing.T) {
	serverMsgBody := func(msg string) string {
		inner, _ := json.Marshal(map[string]string{"message": msg})
		outer, _ := json.Marshal([]string{string(inner)})
		b, _ := json.Marshal(map[string]string{"_server_messages": string(outer)})
		return string(b)
	}

	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"conflict status", http.StatusConflict, serverMsgBody("Slot already booked"), core.IsConflict},
		{"slot taken wording", http.StatusExpectationFailed, serverMsgBody("The slot is no longer available"), core.IsConflict},
		{"validation wording", http.StatusBadRequest, serverMsgBody("Please provide name and email"), core.IsValidation},
		{"public booking off", http.StatusForbidden, serverMsgBody("Public booking is not enabled"), core.IsValidation},
		{"server error", http.StatusInternalServerError, "", core.IsNetwork},
		{"unclassified 4xx is a conflict", http.StatusExpectationFailed, serverMsgBody("Something else"), core.IsConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			a := New(srv.URL, nil)
			_, err := a.SubmitBooking(context.Background(), core.BookParams{
				Scope: core.Scope{Kind: core.ScopeGroup, ID: "g"},
			})
			require.Error(t, err)
			assert.True(t, tt.check(err), "got %T: %v", err, err)
		})
	}
}

func TestMeetingWindows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/method/frappe_appointment.api.personal_meet.get_meeting_windows", r.URL.Path)
		assert.Equal(t, "jane", r.URL.Query().Get("slug"))

		w.Write(okEnvelope(t, map[string]any{
			"full_name": "Jane Doe",
			"durations": []map[string]any{
				{"id": "15min", "label": "Quick chat", "duration": 900},
				{"id": "30min", "label": "Deep dive", "duration": 1800},
			},
		}))
	}))
	defer srv.Close()

	a := New(srv.URL, nil)
	profile, err := a.MeetingWindows(context.Background(), "jane")
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", profile.FullName)
	require.Len(t, profile.Windows, 2)
	assert.Equal(t, "15min", profile.Windows[0].ID)
	assert.Equal(t, 900, profile.Windows[0].DurationSeconds)
}

func TestServerMessage(t *testing.T) {
	t.Run("server messages with markup", func(t *testing.T) {
		inner, _ := json.Marshal(map[string]string{"message": "<b>Slot</b> is no longer available"})
		outer, _ := json.Marshal([]string{string(inner)})
		body, _ := json.Marshal(map[string]string{"_server_messages": string(outer)})

		assert.Equal(t, "Slot is no longer available", ServerMessage(body))
	})

	t.Run("exception fallback", func(t *testing.T) {
		body := []byte(`{"exception":"frappe.exceptions.ValidationError: Please provide name and email"}`)
		assert.Equal(t, "Please provide name and email", ServerMessage(body))
	})

	t.Run("empty on junk", func(t *testing.T) {
		assert.Empty(t, ServerMessage([]byte("<html>bad gateway</html>")))
		assert.Empty(t, ServerMessage([]byte(`{}`)))
	})
}
