// Package history keeps a local ledger of bookings confirmed through
// this client, so a visitor can recover a meet or reschedule link
// after closing the terminal.
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"slotbook/internal/core"
)

// Record is one confirmed booking.
type Record struct {
	BookedAt        time.Time `yaml:"booked_at"`
	Scope           string    `yaml:"scope"`
	Title           string    `yaml:"title,omitempty"`
	StartTime       string    `yaml:"start_time"`
	EndTime         string    `yaml:"end_time"`
	TimeZone        string    `yaml:"timezone"`
	MeetLink        string    `yaml:"meet_link,omitempty"`
	MeetingProvider string    `yaml:"meeting_provider,omitempty"`
	RescheduleURL   string    `yaml:"reschedule_url,omitempty"`
	CalendarURL     string    `yaml:"calendar_url,omitempty"`
	EventID         string    `yaml:"event_id,omitempty"`
}

// Ledger is a YAML file of records, newest last.
type Ledger struct {
	path string
}

// DefaultPath is the ledger location under the user's state directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", "slotbook", "history.yaml"), nil
}

// Open returns a ledger at path. The file is created lazily on the
// first append.
func Open(path string) *Ledger {
	return &Ledger{path: path}
}

// Append adds a record to the ledger.
func (l *Ledger) Append(r Record) error {
	records, err := l.List()
	if err != nil {
		return err
	}
	records = append(records, r)

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	data, err := yaml.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// List returns all records, oldest first. A missing file is an empty
// ledger, not an error.
func (l *Ledger) List() ([]Record, error) {
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	var records []Record
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return records, nil
}

// FromBooking builds a record from a confirmed session.
func FromBooking(scope core.Scope, title, zone string, slot core.Slot, b core.BookingResult) Record {
	return Record{
		BookedAt:        time.Now(),
		Scope:           fmt.Sprintf("%s/%s", scope.Kind, scope.ID),
		Title:           title,
		StartTime:       slot.StartTime,
		EndTime:         slot.EndTime,
		TimeZone:        zone,
		MeetLink:        b.MeetLink,
		MeetingProvider: b.MeetingProvider,
		RescheduleURL:   b.RescheduleURL,
		CalendarURL:     b.GoogleCalendarEventURL,
		EventID:         b.EventID,
	}
}
