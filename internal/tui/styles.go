package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	primaryColor = lipgloss.Color("#3B82F6") // Booking blue
	okColor      = lipgloss.Color("#10B981") // Green
	mutedColor   = lipgloss.Color("#6B7280") // Gray
	accentColor  = lipgloss.Color("#F59E0B") // Amber
	errorColor   = lipgloss.Color("#EF4444") // Red
	fgColor      = lipgloss.Color("#F9FAFB") // Light

	// Layout styles
	AppStyle    = lipgloss.NewStyle().Padding(1, 2)
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)

	// Panels
	CalendarPanelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(mutedColor).Padding(0, 1)
	SlotPanelStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(primaryColor).Padding(0, 1)
	FormPanelStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accentColor).Padding(1, 2)
	DonePanelStyle     = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(okColor).Padding(1, 3)

	// Calendar cells
	DayStyle         = lipgloss.NewStyle().Width(4).Align(lipgloss.Center)
	DayDisabledStyle = DayStyle.Foreground(lipgloss.Color("#52525B")).Faint(true)
	DayCursorStyle   = DayStyle.Background(primaryColor).Foreground(fgColor).Bold(true)
	DaySelectedStyle = DayStyle.Foreground(primaryColor).Bold(true).Underline(true)
	WeekdayHdrStyle  = lipgloss.NewStyle().Width(4).Align(lipgloss.Center).Foreground(mutedColor)
	MonthTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(fgColor)

	// Slot list
	SlotStyle         = lipgloss.NewStyle().Foreground(primaryColor).Padding(0, 1)
	SlotCursorStyle   = lipgloss.NewStyle().Background(primaryColor).Foreground(fgColor).Bold(true).Padding(0, 1)
	SlotSelectedStyle = lipgloss.NewStyle().Foreground(okColor).Bold(true).Padding(0, 1)

	// Detail text
	LabelStyle = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	ValueStyle = lipgloss.NewStyle().Foreground(fgColor)
	MutedStyle = lipgloss.NewStyle().Foreground(mutedColor)
	LinkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA")).Underline(true)
	ErrStyle   = lipgloss.NewStyle().Foreground(errorColor)
	OkStyle    = lipgloss.NewStyle().Foreground(okColor).Bold(true)

	// Toast line
	ToastStyle = lipgloss.NewStyle().Foreground(errorColor).Bold(true)

	// Help bar
	HelpStyle    = lipgloss.NewStyle().Foreground(mutedColor).MarginTop(1)
	HelpKeyStyle = lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
)
