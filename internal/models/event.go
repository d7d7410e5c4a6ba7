package models

import (
	"time"
	// Zone names must resolve on hosts without a zoneinfo database.
	_ "time/tzdata"
)

// DateTimeLayout is the wall-clock format exchanged with the extraction service.
const DateTimeLayout = "2006-01-02 15:04"

// DefaultReminderMinutes is used when the extraction service does not name a reminder.
const DefaultReminderMinutes = 15

// Event represents one validated appointment extracted from free text.
// It is independent of any calendar format or provider.
//
// StartTime and EndTime are naive wall-clock values: their Location carries no
// meaning until a consumer localizes them (see Localize).
type Event struct {
	Summary         string    // Short title, in the language of the input
	StartTime       time.Time // Wall-clock start
	EndTime         time.Time // Wall-clock end
	Location        *string   // nil when no location was given
	Description     string    // Details, or the original input text
	Attendees       []string  // Attendee emails in encounter order
	ReminderMinutes *int      // nil disables the reminder
}

// Localize reinterprets the wall-clock fields of t in loc.
func Localize(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
}

// HasLocation reports whether a location was extracted.
func (e Event) HasLocation() bool {
	return e.Location != nil && *e.Location != ""
}

// Reminder returns the reminder offset and whether one is set.
func (e Event) Reminder() (int, bool) {
	if e.ReminderMinutes == nil {
		return 0, false
	}
	return *e.ReminderMinutes, true
}
