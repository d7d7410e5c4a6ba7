package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSystemPrompt(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)
	today := time.Date(2026, 10, 17, 8, 0, 0, 0, loc)

	prompt := BuildSystemPrompt(today, HolidaysFor(2026))

	assert.Contains(t, prompt, "Today's date is 2026-10-17 (Saturday).")
	assert.Contains(t, prompt, "Timezone: Asia/Shanghai")
	assert.Contains(t, prompt, `"today" refers to 2026-10-17`)
	assert.Contains(t, prompt, "If only time is given without date, assume today (2026-10-17)")

	for _, field := range []string{"summary", "start_time", "end_time", "location", "description", "attendees", "reminder_minutes"} {
		assert.Contains(t, prompt, `"`+field+`"`)
	}

	assert.Contains(t, prompt, "2026年节假日调休安排：")
	assert.Contains(t, prompt, "- 国庆节：2026-10-01 至 2026-10-07，共7天")
	assert.Contains(t, prompt, `use "Online" for English, "线上" for Chinese`)
	assert.Contains(t, prompt, "Return only the JSON result without any additional text.")
	assert.NotContains(t, prompt, "%!")
}

func TestBuildSystemPrompt_SingleDayHolidayWithNote(t *testing.T) {
	prompt := BuildSystemPrompt(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), HolidaysFor(2025))

	assert.Contains(t, prompt, "- 中秋节：2025-10-06，共1天（与国庆节连休）")
	assert.Contains(t, prompt, "- 春节：2025-01-28 至 2025-02-04，共8天")
}

func TestBuildSystemPrompt_NoHolidays(t *testing.T) {
	prompt := BuildSystemPrompt(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), HolidayTable{})
	assert.NotContains(t, prompt, "节假日调休安排")
}
