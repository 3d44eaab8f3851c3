package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"slotbook/internal/session"
	"slotbook/internal/timeutil"
	"slotbook/internal/util"
)

// maxVisibleSlots bounds the slot pane so long days scroll instead of
// pushing the help bar off screen.
const maxVisibleSlots = 12

func (m Model) View() string {
	if m.fatalErr != nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n\n")

	switch {
	case m.focus == focusWindows:
		b.WriteString(m.windowsView())
	case m.state.AppointmentScheduled:
		b.WriteString(m.completionView())
	case m.focus == focusZones:
		b.WriteString(m.zonesView())
	case m.focus == focusForm:
		b.WriteString(m.formView())
	default:
		b.WriteString(m.bookingView())
	}

	if m.toast != "" {
		b.WriteString("\n")
		b.WriteString(ToastStyle.Render("✗ " + util.TruncateText(m.toast, 100)))
	}

	b.WriteString("\n")
	b.WriteString(m.helpView())
	return AppStyle.Render(b.String())
}

func (m Model) headerView() string {
	title := m.sessionTitle()
	if m.width > 0 {
		title = ansi.Truncate(title, m.width-4, "…")
	}
	parts := []string{HeaderStyle.Render(title)}
	if m.state.MeetingData.DurationMinutes > 0 {
		parts = append(parts, MutedStyle.Render(timeutil.MinutesToHuman(m.state.MeetingData.DurationMinutes)))
	}
	parts = append(parts, MutedStyle.Render(m.state.TimeZone))
	if m.fetching || m.state.Submitting {
		parts = append(parts, m.spin.View())
	}
	return strings.Join(parts, "  ·  ")
}

// bookingView is the main two-pane layout: calendar beside slots, or
// stacked when the terminal is narrow.
func (m Model) bookingView() string {
	cal := CalendarPanelStyle.Render(renderCalendar(m.state.DisplayMonth, m.cursor, m.state.SelectedDate, m.state.MeetingData))
	slots := m.slotPanel()

	if m.state.CompactView {
		// One pane at a time on narrow terminals; a date pick expands
		// into the slot list.
		if m.state.Expanded || m.focus == focusSlots {
			return slots
		}
		return cal
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cal, " ", slots)
}

func (m Model) slotPanel() string {
	var b strings.Builder
	b.WriteString(LabelStyle.Render(m.state.SelectedDate.Format("Mon, Jan 2")))
	b.WriteString("\n")

	slots := m.state.MeetingData.Slots
	switch {
	case m.fetching:
		b.WriteString(MutedStyle.Render("loading…"))
	case len(slots) == 0:
		b.WriteString(MutedStyle.Render("No slots available"))
	default:
		// Scroll window around the cursor.
		start := 0
		if m.slotIdx >= maxVisibleSlots {
			start = m.slotIdx - maxVisibleSlots + 1
		}
		end := start + maxVisibleSlots
		if end > len(slots) {
			end = len(slots)
		}
		if start > 0 {
			b.WriteString(MutedStyle.Render("  ↑ more"))
			b.WriteString("\n")
		}
		for i := start; i < end; i++ {
			label := m.slotLabel(i)
			switch {
			case slots[i] == m.state.SelectedSlot && !m.state.SelectedSlot.IsZero():
				b.WriteString(SlotSelectedStyle.Render("● " + label))
			case i == m.slotIdx && m.focus == focusSlots:
				b.WriteString(SlotCursorStyle.Render("> " + label))
			default:
				b.WriteString(SlotStyle.Render("  " + label))
			}
			b.WriteString("\n")
		}
		if end < len(slots) {
			b.WriteString(MutedStyle.Render("  ↓ more"))
			b.WriteString("\n")
		}
	}

	if m.state.Path == session.PathReschedule && !m.state.SelectedSlot.IsZero() &&
		!m.state.Submitting && !m.state.AppointmentScheduled {
		b.WriteString("\n")
		b.WriteString(LabelStyle.Render("press r to confirm reschedule"))
	}

	return SlotPanelStyle.Render(b.String())
}

func (m Model) slotLabel(i int) string {
	slot := m.state.MeetingData.Slots[i]
	start, err := slot.Start()
	if err != nil {
		return slot.StartTime
	}
	return timeutil.FormatSlotClock(start, m.state.TimeZone, m.state.TimeFormat24h)
}

func (m Model) windowsView() string {
	var b strings.Builder
	if m.profile.FullName == "" && len(m.windows) == 0 {
		return MutedStyle.Render("loading host profile… " + m.spin.View())
	}
	if m.profile.Position != "" || m.profile.Company != "" {
		b.WriteString(MutedStyle.Render(strings.TrimSpace(m.profile.Position + " " + m.profile.Company)))
		b.WriteString("\n\n")
	}
	b.WriteString(LabelStyle.Render("Pick a meeting length"))
	b.WriteString("\n")
	for i, w := range m.windows {
		label := w.Label
		if label == "" {
			label = timeutil.MinutesToHuman(timeutil.SecondsToMinutes(w.DurationSeconds))
		} else {
			label = fmt.Sprintf("%s (%s)", label, timeutil.MinutesToHuman(timeutil.SecondsToMinutes(w.DurationSeconds)))
		}
		if i == m.winIdx {
			b.WriteString(SlotCursorStyle.Render("> " + label))
		} else {
			b.WriteString(SlotStyle.Render("  " + label))
		}
		b.WriteString("\n")
	}
	return FormPanelStyle.Render(b.String())
}

func (m Model) zonesView() string {
	var b strings.Builder
	b.WriteString(LabelStyle.Render("Timezone"))
	b.WriteString("\n")

	// Window the list like the slot pane.
	start := 0
	if m.zoneIdx >= maxVisibleSlots {
		start = m.zoneIdx - maxVisibleSlots + 1
	}
	end := start + maxVisibleSlots
	if end > len(m.zones) {
		end = len(m.zones)
	}
	for i := start; i < end; i++ {
		switch {
		case i == m.zoneIdx:
			b.WriteString(SlotCursorStyle.Render("> " + m.zones[i]))
		case m.zones[i] == m.state.TimeZone:
			b.WriteString(SlotSelectedStyle.Render("● " + m.zones[i]))
		default:
			b.WriteString(SlotStyle.Render("  " + m.zones[i]))
		}
		b.WriteString("\n")
	}
	return FormPanelStyle.Render(b.String())
}

func (m Model) formView() string {
	var b strings.Builder
	b.WriteString(LabelStyle.Render("Your details"))
	b.WriteString("\n\n")
	b.WriteString(MutedStyle.Render("Name"))
	b.WriteString("\n")
	b.WriteString(m.nameInput.View())
	b.WriteString("\n\n")
	b.WriteString(MutedStyle.Render("Email"))
	b.WriteString("\n")
	b.WriteString(m.emailInput.View())
	b.WriteString("\n")
	if m.formErr != "" {
		b.WriteString("\n")
		b.WriteString(ErrStyle.Render(m.formErr))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(MutedStyle.Render(fmt.Sprintf("Booking %s on %s",
		m.slotClock(), m.state.SelectedDate.Format("Mon, Jan 2"))))
	return FormPanelStyle.Render(b.String())
}

func (m Model) slotClock() string {
	start, err := m.state.SelectedSlot.Start()
	if err != nil {
		return m.state.SelectedSlot.StartTime
	}
	return timeutil.FormatSlotClock(start, m.state.TimeZone, m.state.TimeFormat24h)
}

// completionView is the terminal surface after booking. Links render
// as OSC 8 hyperlinks where present; a degraded confirmation shows
// when the server returned none.
func (m Model) completionView() string {
	r := m.state.BookingResponse
	var b strings.Builder

	b.WriteString(OkStyle.Render("✓ " + completionMessage(r.Message)))
	b.WriteString("\n\n")

	b.WriteString(LabelStyle.Render("When  "))
	b.WriteString(ValueStyle.Render(fmt.Sprintf("%s, %s",
		m.state.SelectedDate.Format("Mon, Jan 2"), m.slotClock())))
	b.WriteString("\n")

	if r.MeetLink != "" {
		b.WriteString(LabelStyle.Render("Join  "))
		b.WriteString(LinkStyle.Render(util.MakeHyperlink(r.MeetLink, r.MeetLink)))
		if r.MeetingProvider != "" {
			b.WriteString(MutedStyle.Render("  (" + r.MeetingProvider + ")"))
		}
		b.WriteString("\n")
	}
	if r.GoogleCalendarEventURL != "" {
		b.WriteString(LabelStyle.Render("Event "))
		b.WriteString(LinkStyle.Render(util.MakeHyperlink(r.GoogleCalendarEventURL, "open in Google Calendar")))
		b.WriteString("\n")
	}
	if r.RescheduleURL != "" && m.state.MeetingData.ReschedulingAllowed {
		b.WriteString(LabelStyle.Render("Move  "))
		b.WriteString(LinkStyle.Render(util.MakeHyperlink(r.RescheduleURL, "reschedule this meeting")))
		b.WriteString("\n")
	}
	if r.MeetLink == "" && r.GoogleCalendarEventURL == "" {
		b.WriteString(MutedStyle.Render("Check your email for the meeting details."))
		b.WriteString("\n")
	}

	if m.icsNote != "" {
		b.WriteString("\n")
		b.WriteString(MutedStyle.Render(m.icsNote))
		b.WriteString("\n")
	}

	return DonePanelStyle.Render(b.String())
}

func completionMessage(msg string) string {
	if msg == "" {
		return "Event scheduled"
	}
	return msg
}

func (m Model) helpView() string {
	var entries [][2]string
	switch {
	case m.focus == focusWindows:
		entries = [][2]string{{"↑/↓", "choose"}, {"enter", "select"}, {"q", "quit"}}
	case m.state.AppointmentScheduled:
		entries = [][2]string{{"o", "open meet"}, {"g", "calendar"}, {"x", "save .ics"}}
		if !m.state.ServerBooked() {
			entries = append(entries, [2]string{"esc", "back"})
		}
		entries = append(entries, [2]string{"q", "quit"})
	case m.focus == focusZones:
		entries = [][2]string{{"↑/↓", "choose"}, {"enter", "apply"}, {"esc", "cancel"}}
	case m.focus == focusForm:
		entries = [][2]string{{"tab", "next field"}, {"enter", "confirm"}, {"esc", "cancel"}}
	case m.focus == focusSlots:
		entries = [][2]string{{"↑/↓", "slot"}, {"enter", "book"}, {"tab", "calendar"},
			{"z", "timezone"}, {"t", "12h/24h"}, {"q", "quit"}}
	default:
		entries = [][2]string{{"←↑↓→", "day"}, {"[/]", "month"}, {"enter", "pick date"},
			{"tab", "slots"}, {"z", "timezone"}, {"q", "quit"}}
	}

	var parts []string
	for _, e := range entries {
		parts = append(parts, HelpKeyStyle.Render(e[0])+" "+MutedStyle.Render(e[1]))
	}
	return HelpStyle.Render(strings.Join(parts, "  "))
}
