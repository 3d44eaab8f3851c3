package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"slotbook/internal/adapter/frappe"
	"slotbook/internal/booklink"
	"slotbook/internal/core"
	"slotbook/internal/logging"
	"slotbook/internal/timeutil"
	"slotbook/internal/util"
)

var (
	cfgFile     string
	profileName string
	log         *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "slotbook [booking-url]",
	Short: "Book meeting slots from your terminal",
	Long: `slotbook takes the booking-page links people send you and keeps the
whole flow in the terminal: see a host's open slots, pick one, book it,
reschedule it, all without opening a browser.

Paste a link as the argument, or save one in a profile and omit it.
Without a subcommand, slotbook prints the open slots for the link's
date; use 'slotbook book' for the interactive picker.`,
	Args:              cobra.MaximumNArgs(1),
	PersistentPreRunE: initLogger,
	RunE:              runList,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/slotbook/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "config profile to use (e.g., work, personal)")

	rootCmd.PersistentFlags().StringP("date", "d", "", "Date to show slots for (YYYY-MM-DD, 'today', 'tomorrow', weekday names)")
	rootCmd.PersistentFlags().StringP("timezone", "z", "", "IANA timezone for slot display (default: system timezone)")
	rootCmd.PersistentFlags().Bool("format-24h", false, "Show slot times in 24-hour clock")
	rootCmd.PersistentFlags().String("log-file", "", "Log file path (default is $HOME/.local/state/slotbook/slotbook.log)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	viper.BindPFlag("date", rootCmd.PersistentFlags().Lookup("date"))
	viper.BindPFlag("timezone", rootCmd.PersistentFlags().Lookup("timezone"))
	viper.BindPFlag("format_24h", rootCmd.PersistentFlags().Lookup("format-24h"))
	viper.BindPFlag("log_file", rootCmd.PersistentFlags().Lookup("log-file"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		configDir := filepath.Join(home, ".config", "slotbook")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("SLOTBOOK")
	viper.AutomaticEnv()

	viper.SetDefault("format_24h", false)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	applyProfile()
}

// applyProfile merges profile-specific settings over defaults
func applyProfile() {
	activeProfile := profileName
	if activeProfile == "" {
		activeProfile = viper.GetString("default_profile")
	}
	if activeProfile == "" {
		return
	}

	profileKey := "profiles." + activeProfile
	if !viper.IsSet(profileKey) {
		fmt.Fprintf(os.Stderr, "Warning: profile '%s' not found in config\n", activeProfile)
		return
	}

	fmt.Fprintf(os.Stderr, "Using profile: %s\n", activeProfile)

	settings := []string{
		"link",
		"timezone",
		"format_24h",
		"name",
		"email",
		"history_file",
		"log_file",
	}

	// Override each setting if present in profile,
	// but only if the user hasn't explicitly set it via CLI flag.
	for _, key := range settings {
		profileSettingKey := profileKey + "." + key
		if viper.IsSet(profileSettingKey) && !isFlagExplicitlySet(key) {
			viper.Set(key, viper.Get(profileSettingKey))
		}
	}
}

func isFlagExplicitlySet(viperKey string) bool {
	flagName := strings.ReplaceAll(viperKey, "_", "-")
	f := rootCmd.PersistentFlags().Lookup(flagName)

	return f != nil && f.Changed
}

func initLogger(cmd *cobra.Command, args []string) error {
	log = logging.New(expandPath(viper.GetString("log_file")), viper.GetBool("debug"))
	return nil
}

// resolveLink takes the booking URL from the argument or, failing
// that, from the active profile's saved link.
func resolveLink(args []string) (booklink.Link, error) {
	raw := ""
	if len(args) > 0 {
		raw = args[0]
	} else {
		raw = viper.GetString("link")
	}
	if raw == "" {
		return booklink.Link{}, fmt.Errorf("no booking link given\n\nPass one as an argument, or save one with 'slotbook profile add <name> --link=<url>'")
	}

	link, err := booklink.Parse(raw)
	if err != nil {
		return booklink.Link{}, err
	}

	if d := viper.GetString("date"); d != "" {
		date, err := parseDate(d)
		if err != nil {
			return booklink.Link{}, err
		}
		link = link.WithDate(date)
	}
	return link, nil
}

func sessionZone() (string, error) {
	zone := viper.GetString("timezone")
	if zone == "" {
		return timeutil.LocalZone(), nil
	}
	if !timeutil.IsSupportedZone(zone) {
		if _, err := time.LoadLocation(zone); err != nil {
			return "", fmt.Errorf("unknown timezone %q\nUse 'slotbook timezones' to see supported zones", zone)
		}
	}
	return zone, nil
}

// runList prints the open slots for the link's date without entering
// the interactive picker.
func runList(cmd *cobra.Command, args []string) error {
	link, err := resolveLink(args)
	if err != nil {
		return err
	}
	zone, err := sessionZone()
	if err != nil {
		return err
	}

	gw := frappe.New(link.Base, log)

	if link.Scope.Kind == core.ScopePersonal && link.Scope.ID == "" {
		return listMeetingWindows(cmd.Context(), gw, link)
	}

	date := link.Date
	if date.IsZero() {
		loc, err := time.LoadLocation(zone)
		if err != nil {
			loc = time.UTC
		}
		now := time.Now().In(loc)
		date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	offset, err := timeutil.OffsetMinutes(zone, time.Now())
	if err != nil {
		offset = 0
	}

	result, err := gw.FetchSlots(cmd.Context(), core.FetchParams{
		Scope:                 link.Scope,
		Date:                  timeutil.CivilDate(date),
		TimezoneOffsetMinutes: offset,
		Extra:                 link.FetchExtras(),
	})
	if err != nil {
		return fmt.Errorf("failed to fetch slots: %w", err)
	}

	if result.IsInvalidDate && result.NextValidDate != "" {
		if next, perr := timeutil.ParseDate(result.NextValidDate); perr == nil {
			fmt.Printf("No bookings on %s; showing next open date instead.\n\n", date.Format("Mon, Jan 2"))
			date = next
		}
	}

	printAvailability(result, date, zone, viper.GetBool("format_24h"))

	if !result.BookedSlot.IsZero() {
		fmt.Println("\nThis link already has a booking:")
		if start, perr := result.BookedSlot.Slot().Start(); perr == nil {
			fmt.Printf("  🕐 %s\n", timeutil.FormatSlotClock(start, zone, viper.GetBool("format_24h")))
		}
		if result.BookedSlot.MeetLink != "" {
			fmt.Printf("  📹 %s\n", util.MakeHyperlink(result.BookedSlot.MeetLink, result.BookedSlot.MeetLink))
		}
	}
	return nil
}

func listMeetingWindows(ctx context.Context, gw core.Gateway, link booklink.Link) error {
	profile, err := gw.MeetingWindows(ctx, link.Slug)
	if err != nil {
		return fmt.Errorf("failed to load host profile: %w", err)
	}

	title := profile.FullName
	if title == "" {
		title = link.Slug
	}
	fmt.Printf("📅 Meeting lengths offered by %s:\n", title)
	fmt.Println("─────────────────────────────────────────────────")
	for _, w := range profile.Windows {
		mins := timeutil.SecondsToMinutes(w.DurationSeconds)
		if w.Label != "" {
			fmt.Printf("  • %s (%s)\n", w.Label, timeutil.MinutesToHuman(mins))
		} else {
			fmt.Printf("  • %s\n", timeutil.MinutesToHuman(mins))
		}
		fmt.Printf("    type: %s\n", w.ID)
	}
	fmt.Println()
	fmt.Println("Tip: append ?type=<id> to the link (or pick interactively with 'slotbook book')")
	return nil
}

func printAvailability(result core.AvailabilityResult, date time.Time, zone string, twentyFourHour bool) {
	title := result.Title
	if title == "" {
		title = result.ScopeID
	}
	fmt.Printf("📅 %s — %s", title, date.Format("Mon, Jan 2 2006"))
	if result.DurationMinutes > 0 {
		fmt.Printf(" (%s)", timeutil.MinutesToHuman(result.DurationMinutes))
	}
	fmt.Printf(" — %s\n", zone)
	fmt.Println("─────────────────────────────────────────────────")

	if len(result.Slots) == 0 {
		fmt.Println("No slots available.")
		return
	}

	for _, slot := range result.Slots {
		start, err := slot.Start()
		if err != nil {
			fmt.Printf("  • %s\n", slot.StartTime)
			continue
		}
		fmt.Printf("  • %s\n", timeutil.FormatSlotClock(start, zone, twentyFourHour))
	}

	fmt.Println("─────────────────────────────────────────────────")
	fmt.Printf("Total: %d slots\n", len(result.Slots))
	fmt.Println("\nTip: run 'slotbook book <link>' to pick one")
}

// parseDate parses a date string in various formats
// Supports: YYYY-MM-DD, "today", "tomorrow", weekday names
func parseDate(s string) (time.Time, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch s {
	case "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	}

	weekdays := map[string]time.Weekday{
		"sunday": time.Sunday, "sun": time.Sunday,
		"monday": time.Monday, "mon": time.Monday,
		"tuesday": time.Tuesday, "tue": time.Tuesday,
		"wednesday": time.Wednesday, "wed": time.Wednesday,
		"thursday": time.Thursday, "thu": time.Thursday,
		"friday": time.Friday, "fri": time.Friday,
		"saturday": time.Saturday, "sat": time.Saturday,
	}

	// Handle "next <weekday>"
	dayName := strings.TrimPrefix(s, "next ")
	if wd, ok := weekdays[dayName]; ok {
		daysUntil := int(wd - today.Weekday())
		if daysUntil <= 0 {
			daysUntil += 7
		}
		return today.AddDate(0, 0, daysUntil), nil
	}

	if t, err := timeutil.ParseDate(s); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s (use YYYY-MM-DD, 'today', 'tomorrow', or weekday names)", s)
}

// expandPath expands ~ to the user's home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
