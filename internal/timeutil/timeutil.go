// Package timeutil holds the pure date/timezone helpers the booking
// session leans on: permissive date parsing for link parameters, the
// server's wire date format, and IANA offset math.
package timeutil

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ParseDate parses a calendar date from a link query parameter.
// Accepts YYYY-M-D with or without zero padding ("2025-3-1" and
// "2025-03-01" both parse to March 1st). The result is a civil date
// at midnight UTC; it carries no timezone meaning of its own.
func ParseDate(s string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-M-D", s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid year in date %q", s)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("invalid month in date %q", s)
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("invalid day in date %q", s)
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

// CivilDate renders a civil date (as produced by ParseDate) as
// YYYY-MM-DD without any zone conversion. This is the only date format
// the gateway speaks; civil dates carry no zone, so the session's
// timezone never collides with the process-local one here.
func CivilDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// QueryDate renders a civil date the way booking links carry it:
// YYYY-M-D without zero padding.
func QueryDate(t time.Time) string {
	return fmt.Sprintf("%d-%d-%d", t.Year(), int(t.Month()), t.Day())
}

// OffsetMinutes computes the UTC offset of the given IANA zone at the
// given instant, in signed minutes east of UTC (IST = 330, EST = -300).
func OffsetMinutes(zone string, at time.Time) (int, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return 0, fmt.Errorf("load timezone %q: %w", zone, err)
	}
	_, offsetSeconds := at.In(loc).Zone()
	return offsetSeconds / 60, nil
}

// LocalZone returns the host's IANA zone name, or "UTC" when the
// platform reports an unnamed fixed offset.
func LocalZone() string {
	name := time.Now().Location().String()
	if name == "" || name == "Local" {
		// time.Local resolves to "Local"; try the TZ-derived name.
		if _, err := time.LoadLocation(time.Local.String()); err != nil {
			return "UTC"
		}
	}
	if name == "Local" {
		return "UTC"
	}
	return name
}

// SecondsToMinutes converts a server duration (sent in seconds) to
// whole minutes.
func SecondsToMinutes(seconds int) int {
	return seconds / 60
}

// MinutesToHuman renders a minute count as "1h 30m" / "45m" / "2h".
func MinutesToHuman(minutes int) string {
	if minutes < 0 {
		minutes = -minutes
	}
	h := minutes / 60
	m := minutes % 60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dm", m)
	}
}

// supportedZones is the curated zone list offered in the timezone
// picker. A subset of the IANA database covering every offset the
// server recognizes, mirroring what booking pages present.
var supportedZones = []string{
	"Pacific/Midway", "Pacific/Honolulu", "America/Anchorage",
	"America/Los_Angeles", "America/Denver", "America/Phoenix",
	"America/Chicago", "America/Mexico_City", "America/New_York",
	"America/Bogota", "America/Caracas", "America/Halifax",
	"America/St_Johns", "America/Sao_Paulo", "America/Argentina/Buenos_Aires",
	"Atlantic/South_Georgia", "Atlantic/Azores", "UTC", "Europe/London",
	"Europe/Paris", "Europe/Berlin", "Europe/Madrid", "Europe/Rome",
	"Europe/Warsaw", "Europe/Athens", "Europe/Helsinki", "Europe/Istanbul",
	"Europe/Moscow", "Africa/Cairo", "Africa/Johannesburg", "Africa/Nairobi",
	"Asia/Dubai", "Asia/Tehran", "Asia/Karachi", "Asia/Kolkata",
	"Asia/Kathmandu", "Asia/Dhaka", "Asia/Yangon", "Asia/Bangkok",
	"Asia/Jakarta", "Asia/Shanghai", "Asia/Singapore", "Asia/Hong_Kong",
	"Asia/Taipei", "Asia/Tokyo", "Asia/Seoul", "Australia/Adelaide",
	"Australia/Darwin", "Australia/Brisbane", "Australia/Sydney",
	"Australia/Perth", "Pacific/Guam", "Pacific/Auckland", "Pacific/Fiji",
}

// SupportedZones returns the sorted list of zones offered in the
// timezone picker.
func SupportedZones() []string {
	out := make([]string, len(supportedZones))
	copy(out, supportedZones)
	sort.Strings(out)
	return out
}

// IsSupportedZone reports whether the picker offers the given zone.
// Zones outside the curated list still work if they load; this only
// gates what the picker displays.
func IsSupportedZone(zone string) bool {
	for _, z := range supportedZones {
		if z == zone {
			return true
		}
	}
	return false
}

// FormatSlotClock renders an instant as a wall-clock label in the
// session timezone, 12h or 24h.
func FormatSlotClock(t time.Time, zone string, twentyFourHour bool) string {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		loc = time.UTC
	}
	if twentyFourHour {
		return t.In(loc).Format("15:04")
	}
	return t.In(loc).Format("3:04 PM")
}
