// Package ics accumulates events into an iCalendar aggregate and serializes it.
package ics

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"aical/internal/models"
)

const (
	ProductID = "-//AI Calendar Assistant//aicalendar.example.com//"
	Version   = "2.0"

	DefaultTimezone = "Asia/Shanghai"
)

// Encoder owns one calendar aggregate. It performs no validation: events are
// expected to come out of the extraction pipeline already valid.
//
// An Encoder is not safe for concurrent use.
type Encoder struct {
	location *time.Location
	cal      *ical.Calendar
	logger   *slog.Logger
	now      func() time.Time
}

// NewEncoder creates an empty aggregate. A nil location means DefaultTimezone.
func NewEncoder(logger *slog.Logger, loc *time.Location) (*Encoder, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if loc == nil {
		var err error
		loc, err = time.LoadLocation(DefaultTimezone)
		if err != nil {
			return nil, fmt.Errorf("failed to load default timezone: %w", err)
		}
	}
	return &Encoder{
		location: loc,
		cal:      NewCalendar(),
		logger:   logger,
		now:      time.Now,
	}, nil
}

// NewCalendar returns an empty calendar carrying the fixed PRODID and VERSION.
func NewCalendar() *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, ProductID)
	cal.Props.SetText(ical.PropVersion, Version)
	return cal
}

// Location returns the zone event times are localized to.
func (e *Encoder) Location() *time.Location {
	return e.location
}

// AddEvent appends one event component.
func (e *Encoder) AddEvent(event models.Event) {
	comp := NewEventComponent(event, e.location, e.now())
	e.cal.Children = append(e.cal.Children, comp)
	e.logger.Debug("Added event to calendar", "summary", event.Summary, "uid", UID(comp))
}

// AddEvents appends events in order.
func (e *Encoder) AddEvents(events []models.Event) {
	for _, event := range events {
		e.AddEvent(event)
	}
}

// Len returns the number of event components in the aggregate.
func (e *Encoder) Len() int {
	return len(e.cal.Children)
}

// Encode writes the aggregate to w. The aggregate is left untouched.
func (e *Encoder) Encode(w io.Writer) error {
	if len(e.cal.Children) == 0 {
		return encodeEmpty(w, e.cal)
	}
	if err := ical.NewEncoder(w).Encode(e.cal); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}

// encodeEmpty writes a metadata-only VCALENDAR, which go-ical refuses to encode.
func encodeEmpty(w io.Writer, cal *ical.Calendar) error {
	var buf bytes.Buffer
	buf.WriteString("BEGIN:" + ical.CompCalendar + "\r\n")
	for _, name := range []string{ical.PropProductID, ical.PropVersion} {
		if p := cal.Props.Get(name); p != nil {
			buf.WriteString(name + ":" + p.Value + "\r\n")
		}
	}
	buf.WriteString("END:" + ical.CompCalendar + "\r\n")
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}

// Save writes the aggregate to path. It can be called repeatedly.
func (e *Encoder) Save(path string) error {
	var buf bytes.Buffer
	if err := e.Encode(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write calendar file: %w", err)
	}
	e.logger.Info("Saved calendar", "file", path, "events", e.Len())
	return nil
}

// Clear drops all events and restores the fixed metadata.
func (e *Encoder) Clear() {
	e.cal = NewCalendar()
}

// NewEventComponent converts an Event to a VEVENT, localizing its wall-clock
// times to loc and attaching a display alarm when a reminder is set.
func NewEventComponent(event models.Event, loc *time.Location, stamp time.Time) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, GenerateUID())
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	ve.Props.SetText(ical.PropSummary, event.Summary)
	ve.Props.SetDateTime(ical.PropDateTimeStart, models.Localize(event.StartTime, loc))
	ve.Props.SetDateTime(ical.PropDateTimeEnd, models.Localize(event.EndTime, loc))

	if event.HasLocation() {
		ve.Props.SetText(ical.PropLocation, *event.Location)
	}
	if event.Description != "" {
		ve.Props.SetText(ical.PropDescription, event.Description)
	}
	for _, attendee := range event.Attendees {
		p := ical.NewProp(ical.PropAttendee)
		p.Value = "mailto:" + attendee
		ve.Props.Add(p)
	}

	if minutes, ok := event.Reminder(); ok {
		ve.Children = append(ve.Children, newAlarm(event.Summary, minutes))
	}
	return ve
}

func newAlarm(summary string, minutes int) *ical.Component {
	alarm := ical.NewComponent(ical.CompAlarm)
	alarm.Props.SetText(ical.PropAction, "DISPLAY")

	trigger := ical.NewProp(ical.PropTrigger)
	trigger.Value = fmt.Sprintf("-PT%dM", minutes)
	alarm.Props.Set(trigger)

	alarm.Props.SetText(ical.PropDescription, "Reminder for "+summary)
	return alarm
}

// GenerateUID creates a new unique identifier for an event.
func GenerateUID() string {
	return uuid.New().String()
}

// UID returns the UID of an event component.
func UID(comp *ical.Component) string {
	if p := comp.Props.Get(ical.PropUID); p != nil {
		return p.Value
	}
	return ""
}
