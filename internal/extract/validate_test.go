package extract

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aical/internal/models"
)

func mustDecode(t *testing.T, s string) Result {
	t.Helper()
	r, err := decodeObject(s)
	require.NoError(t, err)
	return r
}

func TestValidate_Defaults(t *testing.T) {
	raw := mustDecode(t, `{"summary":"Product Review Meeting","start_time":"2026-10-18 14:00"}`)

	ev, err := Validate(raw, "  Product review meeting tomorrow at 2pm ")
	require.NoError(t, err)

	assert.Equal(t, "Product Review Meeting", ev.Summary)
	assert.Equal(t, "2026-10-18 14:00", ev.StartTime.Format(models.DateTimeLayout))
	assert.Equal(t, "2026-10-18 15:00", ev.EndTime.Format(models.DateTimeLayout))
	assert.Nil(t, ev.Location)
	assert.Equal(t, "Product review meeting tomorrow at 2pm", ev.Description)
	assert.NotNil(t, ev.Attendees)
	assert.Empty(t, ev.Attendees)
	require.NotNil(t, ev.ReminderMinutes)
	assert.Equal(t, 15, *ev.ReminderMinutes)
}

func TestValidate_EndTimeDefaultsAcrossMidnight(t *testing.T) {
	raw := mustDecode(t, `{"summary":"Late call","start_time":"2026-12-31 23:30"}`)

	ev, err := Validate(raw, "late call tonight")
	require.NoError(t, err)
	assert.Equal(t, "2027-01-01 00:30", ev.EndTime.Format(models.DateTimeLayout))
}

func TestValidate_AllFields(t *testing.T) {
	raw := mustDecode(t, `{
		"summary": "预算会议",
		"start_time": "2026-10-19 15:00",
		"end_time": "2026-10-19 16:30",
		"location": "3楼会议室",
		"description": "议程：\n1. 预算",
		"attendees": ["lz@example.com", "wjl@example.com", "lz@example.com"],
		"reminder_minutes": 30
	}`)

	ev, err := Validate(raw, "明天下午3点开预算会议")
	require.NoError(t, err)

	assert.Equal(t, "2026-10-19 16:30", ev.EndTime.Format(models.DateTimeLayout))
	require.NotNil(t, ev.Location)
	assert.Equal(t, "3楼会议室", *ev.Location)
	assert.Equal(t, "议程：\n1. 预算", ev.Description)
	assert.Equal(t, []string{"lz@example.com", "wjl@example.com", "lz@example.com"}, ev.Attendees)
	require.NotNil(t, ev.ReminderMinutes)
	assert.Equal(t, 30, *ev.ReminderMinutes)
}

func TestValidate_NullsAndEmpties(t *testing.T) {
	raw := mustDecode(t, `{
		"summary": "Sync",
		"start_time": "2026-10-18 09:00",
		"end_time": null,
		"location": "",
		"description": null,
		"attendees": null,
		"reminder_minutes": null
	}`)

	ev, err := Validate(raw, "sync tomorrow morning")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-18 10:00", ev.EndTime.Format(models.DateTimeLayout))
	assert.Nil(t, ev.Location)
	assert.Equal(t, "sync tomorrow morning", ev.Description)
	assert.Empty(t, ev.Attendees)
	assert.Nil(t, ev.ReminderMinutes, "explicit null disables the reminder")
}

func TestValidate_EndBeforeStartIsKept(t *testing.T) {
	raw := mustDecode(t, `{"summary":"Odd","start_time":"2026-10-18 14:00","end_time":"2026-10-18 13:00"}`)

	ev, err := Validate(raw, "odd meeting at 2pm")
	require.NoError(t, err)
	assert.True(t, ev.EndTime.Before(ev.StartTime))
}

func TestValidate_MissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		missing []string
	}{
		{name: "both", raw: `{"location":"x"}`, missing: []string{"summary", "start_time"}},
		{name: "summary", raw: `{"start_time":"2026-10-18 14:00"}`, missing: []string{"summary"}},
		{name: "start_time null", raw: `{"summary":"x","start_time":null}`, missing: []string{"start_time"}},
		{name: "summary blank", raw: `{"summary":"  ","start_time":"2026-10-18 14:00"}`, missing: []string{"summary"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(mustDecode(t, tt.raw), "text at noon")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSchemaValidation)

			var schemaErr *SchemaError
			require.True(t, errors.As(err, &schemaErr))
			assert.Equal(t, tt.missing, schemaErr.Missing)
		})
	}
}

func TestValidate_ReportsInvalidAndMissingTogether(t *testing.T) {
	_, err := Validate(mustDecode(t, `{"summary":123}`), "text at noon")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaValidation)

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{"summary"}, schemaErr.Invalid)
	assert.Equal(t, []string{"start_time"}, schemaErr.Missing)
	assert.Equal(t, "summary", schemaErr.Field)
	assert.Contains(t, err.Error(), "missing required fields: start_time")
	assert.Contains(t, err.Error(), "invalid required fields: summary")
}

func TestValidate_InvalidDateFormat(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{name: "seconds", raw: `{"summary":"x","start_time":"2026-10-18 14:00:00"}`, field: "start_time"},
		{name: "single digit hour", raw: `{"summary":"x","start_time":"2026-10-18 9:00"}`, field: "start_time"},
		{name: "iso", raw: `{"summary":"x","start_time":"2026-10-18T14:00"}`, field: "start_time"},
		{name: "out of range", raw: `{"summary":"x","start_time":"2026-13-40 14:00"}`, field: "start_time"},
		{name: "bad end", raw: `{"summary":"x","start_time":"2026-10-18 14:00","end_time":"3pm"}`, field: "end_time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(mustDecode(t, tt.raw), "text at noon")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSchemaValidation)
			assert.ErrorIs(t, err, ErrInvalidDateFormat)

			var schemaErr *SchemaError
			require.True(t, errors.As(err, &schemaErr))
			assert.Equal(t, tt.field, schemaErr.Field)
		})
	}
}

func TestValidate_WrongTypes(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{name: "summary number", raw: `{"summary":5,"start_time":"2026-10-18 14:00"}`, field: "summary"},
		{name: "location object", raw: `{"summary":"x","start_time":"2026-10-18 14:00","location":{}}`, field: "location"},
		{name: "attendees string", raw: `{"summary":"x","start_time":"2026-10-18 14:00","attendees":"a@b.c"}`, field: "attendees"},
		{name: "attendee number", raw: `{"summary":"x","start_time":"2026-10-18 14:00","attendees":[1]}`, field: "attendees"},
		{name: "reminder fraction", raw: `{"summary":"x","start_time":"2026-10-18 14:00","reminder_minutes":1.5}`, field: "reminder_minutes"},
		{name: "reminder negative", raw: `{"summary":"x","start_time":"2026-10-18 14:00","reminder_minutes":-5}`, field: "reminder_minutes"},
		{name: "reminder string", raw: `{"summary":"x","start_time":"2026-10-18 14:00","reminder_minutes":"15"}`, field: "reminder_minutes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(mustDecode(t, tt.raw), "text at noon")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSchemaValidation)

			var schemaErr *SchemaError
			require.True(t, errors.As(err, &schemaErr))
			assert.Equal(t, tt.field, schemaErr.Field)
		})
	}
}

func TestValidate_ReminderFromPlainMap(t *testing.T) {
	raw := Result{"summary": "x", "start_time": "2026-10-18 14:00", "reminder_minutes": float64(45)}

	ev, err := Validate(raw, "x at noon")
	require.NoError(t, err)
	require.NotNil(t, ev.ReminderMinutes)
	assert.Equal(t, 45, *ev.ReminderMinutes)

	raw["reminder_minutes"] = json.Number("0")
	ev, err = Validate(raw, "x at noon")
	require.NoError(t, err)
	require.NotNil(t, ev.ReminderMinutes)
	assert.Equal(t, 0, *ev.ReminderMinutes)
}
