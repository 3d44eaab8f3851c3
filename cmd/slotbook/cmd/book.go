package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"slotbook/internal/adapter/frappe"
	"slotbook/internal/history"
	"slotbook/internal/session"
	"slotbook/internal/tui"
)

var bookCmd = &cobra.Command{
	Use:   "book [booking-url]",
	Short: "Pick and book a slot interactively",
	Long: `Launch the interactive picker: browse the calendar, pick a slot, fill
in your details if the page asks for them, and get the meeting links
back in your terminal.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBook,
}

func init() {
	rootCmd.AddCommand(bookCmd)
}

func runBook(cmd *cobra.Command, args []string) error {
	link, err := resolveLink(args)
	if err != nil {
		return err
	}
	zone, err := sessionZone()
	if err != nil {
		return err
	}

	gw := frappe.New(link.Base, log)

	historyPath := expandPath(viper.GetString("history_file"))
	if historyPath == "" {
		historyPath, err = history.DefaultPath()
		if err != nil {
			return fmt.Errorf("failed to resolve history path: %w", err)
		}
	}
	ledger := history.Open(historyPath)

	m := tui.NewModel(gw, link, zone, ledger, log).
		WithGuestDefaults(viper.GetString("name"), viper.GetString("email")).
		With24HourClock(viper.GetBool("format_24h"))

	p := tea.NewProgram(m, tea.WithAltScreen())

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	fm, ok := final.(tui.Model)
	if !ok {
		return nil
	}
	if err := fm.FatalErr(); err != nil {
		return fmt.Errorf("booking page unavailable: %w", err)
	}

	st := fm.State()
	if st.AppointmentScheduled {
		printBookingSummary(st, fm.ResumeURL())
	} else {
		fmt.Println("No booking made.")
		fmt.Printf("Resume later: %s\n", fm.ResumeURL())
	}
	return nil
}

func printBookingSummary(st session.State, resumeURL string) {
	r := st.BookingResponse
	fmt.Println("✓ Booked!")
	if r.MeetLink != "" {
		fmt.Printf("  📹 Join:     %s\n", r.MeetLink)
	}
	if r.GoogleCalendarEventURL != "" {
		fmt.Printf("  📅 Calendar: %s\n", r.GoogleCalendarEventURL)
	}
	if r.RescheduleURL != "" {
		fmt.Printf("  🔁 Move:     %s\n", r.RescheduleURL)
	}
	if r.MeetLink == "" && r.GoogleCalendarEventURL == "" {
		fmt.Println("  Check your email for the meeting details.")
	}
	fmt.Printf("  🔗 Link:     %s\n", resumeURL)
}
