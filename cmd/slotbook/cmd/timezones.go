package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"slotbook/internal/timeutil"
)

var timezonesCmd = &cobra.Command{
	Use:     "timezones",
	Aliases: []string{"tz"},
	Short:   "List supported timezones",
	Long:    `List the timezones the slot picker offers, with their current UTC offsets.`,
	RunE:    runTimezones,
}

func init() {
	rootCmd.AddCommand(timezonesCmd)
}

func runTimezones(cmd *cobra.Command, args []string) error {
	local := timeutil.LocalZone()
	now := time.Now()

	fmt.Println("🌍 Supported timezones:")
	fmt.Println("─────────────────────────────────────────────────")

	for _, zone := range timeutil.SupportedZones() {
		marker := "  "
		if zone == local {
			marker = "* "
		}
		offset, err := timeutil.OffsetMinutes(zone, now)
		if err != nil {
			fmt.Printf("%s%s\n", marker, zone)
			continue
		}
		sign := "+"
		if offset < 0 {
			sign = "-"
			offset = -offset
		}
		fmt.Printf("%s%-32s UTC%s%02d:%02d\n", marker, zone, sign, offset/60, offset%60)
	}

	fmt.Println("─────────────────────────────────────────────────")
	fmt.Printf("* = system timezone (%s)\n", local)
	fmt.Println("\nTip: use 'slotbook -z <zone>' or press z in the picker")
	return nil
}
