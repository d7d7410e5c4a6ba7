package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalize(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)

	naive, err := time.Parse(DateTimeLayout, "2026-10-18 14:00")
	require.NoError(t, err)

	got := Localize(naive, loc)
	assert.Equal(t, loc, got.Location())
	assert.Equal(t, "2026-10-18 14:00", got.Format(DateTimeLayout))
	assert.Equal(t, "2026-10-18T06:00:00Z", got.UTC().Format(time.RFC3339))
}

func TestLocalize_NilLocation(t *testing.T) {
	naive := time.Date(2026, 1, 2, 9, 30, 0, 0, time.Local)
	got := Localize(naive, nil)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 9, got.Hour())
}

func TestEvent_Accessors(t *testing.T) {
	ev := Event{Summary: "Standup"}
	assert.False(t, ev.HasLocation())
	_, ok := ev.Reminder()
	assert.False(t, ok)

	where := "Room 2A"
	minutes := 30
	ev.Location = &where
	ev.ReminderMinutes = &minutes
	assert.True(t, ev.HasLocation())
	got, ok := ev.Reminder()
	assert.True(t, ok)
	assert.Equal(t, 30, got)
}
