package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"aical/internal/models"
)

var dateTimePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}$`)

var requiredFields = []string{"summary", "start_time"}

// Validate turns a raw reply into an Event, applying defaults for the
// optional fields. text is the original input and becomes the description
// when the reply has none.
//
// An end_time that is present but not after start_time is kept as is.
func Validate(raw Result, text string) (models.Event, error) {
	var missing, invalid []string
	for _, field := range requiredFields {
		v, present := raw[field]
		if !present || v == nil {
			missing = append(missing, field)
			continue
		}
		s, ok := v.(string)
		if !ok {
			invalid = append(invalid, field)
			continue
		}
		if strings.TrimSpace(s) == "" {
			missing = append(missing, field)
		}
	}
	if len(invalid) > 0 {
		return models.Event{}, &SchemaError{Missing: missing, Invalid: invalid, Field: invalid[0], Err: errors.New("must be a string")}
	}
	if len(missing) > 0 {
		return models.Event{}, &SchemaError{Missing: missing}
	}

	start, err := parseDateTime("start_time", raw["start_time"].(string))
	if err != nil {
		return models.Event{}, err
	}

	end := start.Add(time.Hour)
	if s, ok, err := optionalString(raw, "end_time"); err != nil {
		return models.Event{}, err
	} else if ok {
		if end, err = parseDateTime("end_time", s); err != nil {
			return models.Event{}, err
		}
	}

	event := models.Event{
		Summary:     strings.TrimSpace(raw["summary"].(string)),
		StartTime:   start,
		EndTime:     end,
		Description: strings.TrimSpace(text),
		Attendees:   []string{},
	}

	if s, ok, err := optionalString(raw, "location"); err != nil {
		return models.Event{}, err
	} else if ok {
		event.Location = &s
	}

	if s, ok, err := optionalString(raw, "description"); err != nil {
		return models.Event{}, err
	} else if ok {
		event.Description = s
	}

	if event.Attendees, err = attendees(raw); err != nil {
		return models.Event{}, err
	}

	if event.ReminderMinutes, err = reminder(raw); err != nil {
		return models.Event{}, err
	}

	return event, nil
}

func parseDateTime(field, value string) (time.Time, error) {
	if !dateTimePattern.MatchString(value) {
		return time.Time{}, &SchemaError{Field: field, Err: fmt.Errorf("%w: %q does not match YYYY-MM-DD HH:mm", ErrInvalidDateFormat, value)}
	}
	t, err := time.Parse(models.DateTimeLayout, value)
	if err != nil {
		return time.Time{}, &SchemaError{Field: field, Err: fmt.Errorf("%w: %w", ErrInvalidDateFormat, err)}
	}
	return t, nil
}

// optionalString returns a non-empty string field. Absent, null and empty
// values all report ok=false.
func optionalString(raw Result, field string) (string, bool, error) {
	v, present := raw[field]
	if !present || v == nil {
		return "", false, nil
	}
	s, isString := v.(string)
	if !isString {
		return "", false, &SchemaError{Field: field, Err: errors.New("must be a string or null")}
	}
	if strings.TrimSpace(s) == "" {
		return "", false, nil
	}
	return s, true, nil
}

func attendees(raw Result) ([]string, error) {
	v, present := raw["attendees"]
	if !present || v == nil {
		return []string{}, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, &SchemaError{Field: "attendees", Err: errors.New("must be a list of strings")}
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, &SchemaError{Field: "attendees", Err: errors.New("must be a list of strings")}
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// reminder distinguishes an absent field (default) from an explicit null
// (no reminder).
func reminder(raw Result) (*int, error) {
	v, present := raw["reminder_minutes"]
	if !present {
		minutes := models.DefaultReminderMinutes
		return &minutes, nil
	}
	if v == nil {
		return nil, nil
	}

	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return nil, &SchemaError{Field: "reminder_minutes", Err: err}
		}
		f = parsed
	case float64:
		f = n
	case int:
		f = float64(n)
	default:
		return nil, &SchemaError{Field: "reminder_minutes", Err: errors.New("must be an integer")}
	}
	if f != math.Trunc(f) || f < 0 || f > math.MaxInt32 {
		return nil, &SchemaError{Field: "reminder_minutes", Err: errors.New("must be a non-negative integer")}
	}
	minutes := int(f)
	return &minutes, nil
}
