package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"slotbook/internal/core"
	"slotbook/internal/history"
	"slotbook/internal/timeutil"
	"slotbook/internal/util"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List bookings made with this client",
	Long: `List the bookings confirmed through this client, newest last, with
their meet and reschedule links. The ledger lives in
$HOME/.local/state/slotbook/history.yaml.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 0, "Show only the most recent N bookings")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := expandPath(viper.GetString("history_file"))
	if path == "" {
		p, err := history.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	records, err := history.Open(path).List()
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Println("No bookings yet.")
		fmt.Println("\nBook one with: slotbook book <booking-url>")
		return nil
	}

	if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}

	fmt.Println("📒 Bookings:")
	fmt.Println("─────────────────────────────────────────────────")

	for _, r := range records {
		fmt.Printf("\n  %s", r.Title)
		if r.Title == "" {
			fmt.Printf("  %s", r.Scope)
		}
		fmt.Println()
		fmt.Printf("    🕐 %s\n", formatRecordTime(r))
		if r.MeetLink != "" {
			fmt.Printf("    📹 %s\n", util.MakeHyperlink(r.MeetLink, r.MeetLink))
		}
		if r.RescheduleURL != "" {
			fmt.Printf("    🔁 %s\n", util.MakeHyperlink(r.RescheduleURL, "reschedule"))
		}
	}

	fmt.Println()
	fmt.Println("─────────────────────────────────────────────────")
	fmt.Printf("Total: %d bookings\n", len(records))
	return nil
}

func formatRecordTime(r history.Record) string {
	start, err := (core.Slot{StartTime: r.StartTime}).Start()
	if err != nil {
		return r.StartTime
	}
	clock := timeutil.FormatSlotClock(start, r.TimeZone, viper.GetBool("format_24h"))
	return fmt.Sprintf("%s, %s (%s)", start.Format("Mon, Jan 2 2006"), clock, r.TimeZone)
}
