// Package tui runs the interactive booking session. The model is the
// session orchestrator: it owns the session state, performs all I/O
// through commands, and feeds results back through the pure reducer.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"slotbook/internal/booklink"
	"slotbook/internal/core"
	"slotbook/internal/history"
	"slotbook/internal/ics"
	"slotbook/internal/session"
	"slotbook/internal/timeutil"
	"slotbook/internal/util"
)

// KeyMap defines the keybindings for the booking session.
type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	Left       key.Binding
	Right      key.Binding
	PrevMonth  key.Binding
	NextMonth  key.Binding
	Select     key.Binding
	Back       key.Binding
	Tab        key.Binding
	Reschedule key.Binding
	Timezone   key.Binding
	TimeFormat key.Binding
	OpenMeet   key.Binding
	OpenCal    key.Binding
	ExportICS  key.Binding
	Quit       key.Binding
}

var DefaultKeyMap = KeyMap{
	Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑", "up")),
	Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓", "down")),
	Left:       key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "left")),
	Right:      key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "right")),
	PrevMonth:  key.NewBinding(key.WithKeys("pgup", "["), key.WithHelp("[", "prev month")),
	NextMonth:  key.NewBinding(key.WithKeys("pgdown", "]"), key.WithHelp("]", "next month")),
	Select:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	Back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Tab:        key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch panel")),
	Reschedule: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reschedule")),
	Timezone:   key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "timezone")),
	TimeFormat: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "12h/24h")),
	OpenMeet:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open meet link")),
	OpenCal:    key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "open calendar")),
	ExportICS:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "save .ics")),
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// focusArea is which pane receives keys.
type focusArea int

const (
	focusWindows focusArea = iota // personal-meet duration selection
	focusCalendar
	focusSlots
	focusForm
	focusZones
)

// Messages
type availabilityMsg struct {
	seq    int
	result core.AvailabilityResult
	err    error
}

type windowsMsg struct {
	profile core.HostProfile
	err     error
}

type bookingMsg struct {
	result core.BookingResult
	err    error
}

type icsSavedMsg struct {
	path string
	err  error
}

// compactThreshold is the terminal width below which the calendar and
// slot panes stop fitting side by side.
const compactThreshold = 84

// Model is the Bubble Tea model for a booking session.
type Model struct {
	gateway core.Gateway
	link    booklink.Link
	ledger  *history.Ledger
	log     *zap.Logger

	state session.State

	// fetchSeq identifies the latest wanted availability query. A
	// response carrying an older seq lost the race to a newer input
	// change and is discarded, never applied.
	fetchSeq int
	fetching bool

	// fatalErr is a terminal fetch failure; the session ends and the
	// command layer reports it after the program exits.
	fatalErr error

	// toast is a dismissible failure notice from a rejected booking.
	toast string

	focus    focusArea
	cursor   time.Time // calendar keyboard position
	slotIdx  int
	zoneIdx  int
	zones    []string
	windows  []core.MeetingWindow
	winIdx   int
	profile  core.HostProfile

	nameInput  textinput.Model
	emailInput textinput.Model
	formFocus  int
	formErr    string

	spin    spinner.Model
	keys    KeyMap
	width   int
	height  int
	icsNote string
}

// NewModel builds a session for a parsed booking link. zone overrides
// the local timezone when non-empty.
func NewModel(gw core.Gateway, link booklink.Link, zone string, ledger *history.Ledger, log *zap.Logger) Model {
	if log == nil {
		log = zap.NewNop()
	}
	st := session.New(zone, link.Date, link.ParticipantsEmpty(), link.HasRescheduleTokens())

	name := textinput.New()
	name.Placeholder = "Your name"
	name.CharLimit = 120
	name.Focus()
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 254

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	focus := focusCalendar
	if link.Scope.Kind == core.ScopePersonal && link.Scope.ID == "" {
		focus = focusWindows
	}

	return Model{
		gateway:    gw,
		link:       link.WithDate(st.SelectedDate),
		ledger:     ledger,
		log:        log,
		state:      st,
		fetchSeq:   1,
		fetching:   focus != focusWindows,
		cursor:     st.SelectedDate,
		zones:      timeutil.SupportedZones(),
		nameInput:  name,
		emailInput: email,
		spin:       sp,
		keys:       DefaultKeyMap,
		focus:      focus,
	}
}

// WithGuestDefaults prefills the guest form, typically from a saved
// profile. Empty values leave the fields untouched.
func (m Model) WithGuestDefaults(name, email string) Model {
	if name != "" {
		m.nameInput.SetValue(name)
		m.state = session.Reduce(m.state, session.GuestInfoChanged{Name: &name})
	}
	if email != "" {
		m.emailInput.SetValue(email)
		m.state = session.Reduce(m.state, session.GuestInfoChanged{Email: &email})
	}
	return m
}

// With24HourClock sets the slot clock rendering.
func (m Model) With24HourClock(on bool) Model {
	if on != m.state.TimeFormat24h {
		m.state = session.Reduce(m.state, session.TimeFormatToggled{})
	}
	return m
}

// State exposes the session state for tests.
func (m Model) State() session.State { return m.state }

// ResumeURL is the shareable link that reopens this session on the
// currently selected date.
func (m Model) ResumeURL() string { return m.link.URL() }

// FatalErr reports why the session ended, if it ended badly.
func (m Model) FatalErr() error { return m.fatalErr }

// Init issues the mount-time fetch: meeting windows first when the
// personal link has no duration chosen yet, availability otherwise.
func (m Model) Init() tea.Cmd {
	if m.focus == focusWindows {
		return tea.Batch(m.loadWindows(), m.spin.Tick)
	}
	return tea.Batch(m.fetchCmd(m.fetchSeq), m.spin.Tick)
}

// Commands

func (m *Model) refetch() tea.Cmd {
	m.fetchSeq++
	m.fetching = true
	return m.fetchCmd(m.fetchSeq)
}

func (m Model) fetchCmd(seq int) tea.Cmd {
	params := m.fetchParams()
	gw := m.gateway
	return func() tea.Msg {
		result, err := gw.FetchSlots(context.Background(), params)
		return availabilityMsg{seq: seq, result: result, err: err}
	}
}

func (m Model) fetchParams() core.FetchParams {
	offset, err := timeutil.OffsetMinutes(m.state.TimeZone, time.Now())
	if err != nil {
		offset = 0
	}
	return core.FetchParams{
		Scope:                 m.link.Scope,
		Date:                  timeutil.CivilDate(m.state.SelectedDate),
		TimezoneOffsetMinutes: offset,
		Extra:                 m.link.FetchExtras(),
	}
}

func (m Model) loadWindows() tea.Cmd {
	gw := m.gateway
	slug := m.link.Slug
	return func() tea.Msg {
		profile, err := gw.MeetingWindows(context.Background(), slug)
		return windowsMsg{profile: profile, err: err}
	}
}

func (m *Model) submit() tea.Cmd {
	offset, err := timeutil.OffsetMinutes(m.state.TimeZone, time.Now())
	if err != nil {
		offset = 0
	}
	params := core.BookParams{
		Scope:                 m.link.Scope,
		Date:                  timeutil.CivilDate(m.state.SelectedDate),
		TimezoneOffsetMinutes: offset,
		StartTime:             m.state.SelectedSlot.StartTime,
		EndTime:               m.state.SelectedSlot.EndTime,
		Extra:                 m.link.Passthrough,
	}
	if m.state.Path == session.PathGuest {
		params.UserName = m.state.GuestInfo.Name
		params.UserEmail = m.state.GuestInfo.Email
	}
	if m.state.Path == session.PathReschedule {
		params.Reschedule = m.link.Reschedule
		params.EventToken = m.link.EventToken
	}

	m.state = session.Reduce(m.state, session.SubmitStarted{})
	gw := m.gateway
	return func() tea.Msg {
		result, err := gw.SubmitBooking(context.Background(), params)
		return bookingMsg{result: result, err: err}
	}
}

func (m Model) exportICS() tea.Cmd {
	title := m.sessionTitle()
	slot := m.state.SelectedSlot
	booking := m.state.BookingResponse
	return func() tea.Msg {
		cal, err := ics.BuildEvent(title, slot, booking)
		if err != nil {
			return icsSavedMsg{err: err}
		}
		path := fmt.Sprintf("booking-%s.ics", time.Now().Format("20060102-150405"))
		if err := ics.WriteFile(cal, path); err != nil {
			return icsSavedMsg{err: err}
		}
		return icsSavedMsg{path: path}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.state = session.Reduce(m.state, session.ViewportChanged{Compact: msg.Width < compactThreshold})
		return m, nil

	case spinner.TickMsg:
		// Keep the tick chain alive even while idle so the spinner
		// resumes for later fetches and submissions.
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case windowsMsg:
		if msg.err != nil {
			m.fatalErr = msg.err
			return m, tea.Quit
		}
		m.profile = msg.profile
		m.windows = msg.profile.Windows
		if len(m.windows) == 0 {
			m.fatalErr = fmt.Errorf("host %q offers no meeting durations", m.link.Slug)
			return m, tea.Quit
		}
		return m, nil

	case availabilityMsg:
		return m.onAvailability(msg)

	case bookingMsg:
		return m.onBooking(msg)

	case icsSavedMsg:
		if msg.err != nil {
			m.icsNote = "export failed: " + msg.err.Error()
		} else {
			m.icsNote = "saved " + msg.path
		}
		return m, nil

	case tea.KeyMsg:
		return m.onKey(msg)
	}
	return m, nil
}

// onAvailability applies an availability response, unless a newer
// fetch has been issued since, the response is stale and loses.
func (m Model) onAvailability(msg availabilityMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.fetchSeq {
		m.log.Debug("discarding stale availability",
			zap.Int("got", msg.seq), zap.Int("want", m.fetchSeq))
		return m, nil
	}
	m.fetching = false

	if msg.err != nil {
		// The scope is unreachable or gone. Terminal: leave the page.
		m.fatalErr = msg.err
		return m, tea.Quit
	}

	m.state = session.Reduce(m.state, session.AvailabilityReceived{Result: msg.result})

	// Keep the shareable URL on the date the session actually shows,
	// which the server may have corrected.
	m.link = m.link.WithDate(m.state.SelectedDate)
	m.cursor = m.state.SelectedDate
	if m.slotIdx >= len(m.state.MeetingData.Slots) {
		m.slotIdx = 0
	}
	return m, nil
}

func (m Model) onBooking(msg bookingMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.state = session.Reduce(m.state, session.BookingFailed{})
		m.toast = toastText(msg.err)
		m.log.Warn("booking failed", zap.Error(msg.err))

		if core.IsConflict(msg.err) {
			// The server's rejection is authoritative: drop the pick
			// and refetch so the consumed slot disappears.
			m.state = session.Reduce(m.state, session.SlotPicked{})
			cmd := m.refetch()
			return m, cmd
		}
		return m, nil
	}

	m.toast = ""
	m.state = session.Reduce(m.state, session.BookingSucceeded{Result: msg.result})
	m.recordBooking()

	// Refetch so any other open view of this scope sees the slot as
	// consumed.
	cmd := m.refetch()
	return m, cmd
}

func (m *Model) recordBooking() {
	if m.ledger == nil {
		return
	}
	rec := history.FromBooking(m.link.Scope, m.sessionTitle(), m.state.TimeZone,
		m.state.SelectedSlot, m.state.BookingResponse)
	if err := m.ledger.Append(rec); err != nil {
		m.log.Warn("history append failed", zap.Error(err))
	}
}

func toastText(err error) string {
	if err == nil {
		return ""
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Something went wrong"
}

func (m Model) sessionTitle() string {
	if m.state.MeetingData.Title != "" {
		return m.state.MeetingData.Title
	}
	if m.state.MeetingData.ScopeID != "" {
		return m.state.MeetingData.ScopeID
	}
	if m.profile.FullName != "" {
		return "Meeting with " + m.profile.FullName
	}
	return "Booked meeting"
}

// onKey routes keys by pane. Any key clears a pending toast first so
// failure notices never wedge the UI.
func (m Model) onKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.toast != "" {
		m.toast = ""
	}

	// The guest form captures typing; only a few chrome keys bypass it.
	if m.focus == focusForm {
		return m.onFormKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Timezone):
		if m.focus != focusZones && !m.state.AppointmentScheduled {
			m.focus = focusZones
			m.zoneIdx = zoneIndex(m.zones, m.state.TimeZone)
		}
		return m, nil

	case key.Matches(msg, m.keys.TimeFormat):
		m.state = session.Reduce(m.state, session.TimeFormatToggled{})
		return m, nil
	}

	if m.state.AppointmentScheduled {
		return m.onCompletionKey(msg)
	}

	switch m.focus {
	case focusWindows:
		return m.onWindowsKey(msg)
	case focusZones:
		return m.onZonesKey(msg)
	case focusCalendar:
		return m.onCalendarKey(msg)
	case focusSlots:
		return m.onSlotsKey(msg)
	}
	return m, nil
}

func (m Model) onWindowsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.winIdx > 0 {
			m.winIdx--
		}
	case key.Matches(msg, m.keys.Down):
		if m.winIdx < len(m.windows)-1 {
			m.winIdx++
		}
	case key.Matches(msg, m.keys.Select):
		if len(m.windows) == 0 {
			return m, nil
		}
		m.link = m.link.WithScopeID(m.windows[m.winIdx].ID)
		m.focus = focusCalendar
		cmd := m.refetch()
		return m, cmd
	}
	return m, nil
}

func (m Model) onZonesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.zoneIdx > 0 {
			m.zoneIdx--
		}
	case key.Matches(msg, m.keys.Down):
		if m.zoneIdx < len(m.zones)-1 {
			m.zoneIdx++
		}
	case key.Matches(msg, m.keys.Back):
		m.focus = focusCalendar
	case key.Matches(msg, m.keys.Select):
		zone := m.zones[m.zoneIdx]
		m.focus = focusCalendar
		if zone != m.state.TimeZone {
			m.state = session.Reduce(m.state, session.TimezoneChanged{Zone: zone})
			// Slots are zone-scoped; the old day's list is meaningless.
			cmd := m.refetch()
			return m, cmd
		}
	}
	return m, nil
}

func (m Model) onCalendarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		return m.moveCursor(0, -7), nil
	case key.Matches(msg, m.keys.Down):
		return m.moveCursor(0, 7), nil
	case key.Matches(msg, m.keys.Left):
		return m.moveCursor(0, -1), nil
	case key.Matches(msg, m.keys.Right):
		return m.moveCursor(0, 1), nil
	case key.Matches(msg, m.keys.PrevMonth):
		return m.moveCursor(-1, 0), nil
	case key.Matches(msg, m.keys.NextMonth):
		return m.moveCursor(1, 0), nil
	case key.Matches(msg, m.keys.Tab):
		m.focus = focusSlots
		return m, nil
	case key.Matches(msg, m.keys.Select):
		if !dateSelectable(m.cursor, m.state.MeetingData) {
			return m, nil
		}
		m.state = session.Reduce(m.state, session.DatePicked{Date: m.cursor})
		m.link = m.link.WithDate(m.cursor)
		m.slotIdx = 0
		m.focus = focusSlots
		cmd := m.refetch()
		return m, cmd
	}
	return m, nil
}

// moveCursor walks the calendar caret and keeps the reducer's displayed
// month following it, so the grid tracks browsing across month edges.
func (m Model) moveCursor(months, days int) Model {
	m.cursor = m.cursor.AddDate(0, months, days)
	if m.cursor.Month() != m.state.DisplayMonth.Month() || m.cursor.Year() != m.state.DisplayMonth.Year() {
		m.state = session.Reduce(m.state, session.MonthBrowsed{Month: m.cursor})
	}
	return m
}

func (m Model) onSlotsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	slots := m.state.MeetingData.Slots
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.slotIdx > 0 {
			m.slotIdx--
		}
	case key.Matches(msg, m.keys.Down):
		if m.slotIdx < len(slots)-1 {
			m.slotIdx++
		}
	case key.Matches(msg, m.keys.Tab):
		m.focus = focusCalendar
	case key.Matches(msg, m.keys.Back):
		m.state = session.Reduce(m.state, session.SlotPicked{})
	case key.Matches(msg, m.keys.Reschedule):
		// Explicit confirmation for an armed reschedule pick.
		if m.state.Path == session.PathReschedule &&
			!m.state.SelectedSlot.IsZero() && !m.state.Submitting {
			cmd := m.submit()
			return m, cmd
		}
	case key.Matches(msg, m.keys.Select):
		if m.fetching || m.state.Submitting || len(slots) == 0 || m.slotIdx >= len(slots) {
			return m, nil
		}
		m.state = session.Reduce(m.state, session.SlotPicked{Slot: slots[m.slotIdx]})
		switch m.state.Path {
		case session.PathGuest:
			m.focus = focusForm
			m.formFocus = 0
			m.formErr = ""
			m.nameInput.SetValue(m.state.GuestInfo.Name)
			m.emailInput.SetValue(m.state.GuestInfo.Email)
			m.nameInput.Focus()
			m.emailInput.Blur()
			return m, textinput.Blink
		case session.PathReschedule:
			// Armed; wait for the explicit reschedule action.
			return m, nil
		default:
			cmd := m.submit()
			return m, cmd
		}
	}
	return m, nil
}

func (m Model) onFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.focus = focusSlots
		m.state = session.Reduce(m.state, session.SlotPicked{})
		return m, nil
	case "tab", "shift+tab":
		m.formFocus = 1 - m.formFocus
		if m.formFocus == 0 {
			m.nameInput.Focus()
			m.emailInput.Blur()
		} else {
			m.emailInput.Focus()
			m.nameInput.Blur()
		}
		return m, textinput.Blink
	case "enter":
		if m.formFocus == 0 {
			m.formFocus = 1
			m.nameInput.Blur()
			m.emailInput.Focus()
			return m, textinput.Blink
		}
		m.syncGuestInfo()
		if err := session.ValidateGuestInfo(m.state.GuestInfo); err != nil {
			// Field-level failure; nothing goes on the wire.
			m.formErr = err.Error()
			return m, nil
		}
		m.formErr = ""
		m.focus = focusSlots
		cmd := m.submit()
		return m, cmd
	}

	var cmd tea.Cmd
	if m.formFocus == 0 {
		m.nameInput, cmd = m.nameInput.Update(msg)
	} else {
		m.emailInput, cmd = m.emailInput.Update(msg)
	}
	m.syncGuestInfo()
	return m, cmd
}

func (m *Model) syncGuestInfo() {
	name := m.nameInput.Value()
	email := m.emailInput.Value()
	m.state = session.Reduce(m.state, session.GuestInfoChanged{Name: &name, Email: &email})
}

func (m Model) onCompletionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.OpenMeet):
		if link := m.state.BookingResponse.MeetLink; link != "" {
			return m, openURL(link)
		}
	case key.Matches(msg, m.keys.OpenCal):
		if link := m.state.BookingResponse.GoogleCalendarEventURL; link != "" {
			return m, openURL(link)
		}
	case key.Matches(msg, m.keys.ExportICS):
		return m, m.exportICS()
	case key.Matches(msg, m.keys.Back):
		// A server-resumed booking stays on the completion surface;
		// there is nothing to go back to.
		if !m.state.ServerBooked() {
			m.state = session.Reduce(m.state, session.DismissCompletion{})
		}
	}
	return m, nil
}

func openURL(url string) tea.Cmd {
	return func() tea.Msg {
		_ = util.OpenBrowser(url)
		return nil
	}
}

func zoneIndex(zones []string, zone string) int {
	for i, z := range zones {
		if z == zone {
			return i
		}
	}
	return 0
}
