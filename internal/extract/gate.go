package extract

import (
	"strings"
	"unicode/utf8"
)

// MinInputLength is the minimum number of characters after trimming.
const MinInputLength = 3

// temporalKeywords is matched against the lower-cased input.
var temporalKeywords = []string{
	// relative days
	"today", "tomorrow", "tonight", "next", "今天", "明天", "后天", "大后天",
	// weekdays
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"周一", "周二", "周三", "周四", "周五", "周六", "周日",
	"星期一", "星期二", "星期三", "星期四", "星期五", "星期六", "星期日",
	"下周", "下下周", "这周", "本周",
	// time of day
	"morning", "afternoon", "evening", "noon",
	"早上", "上午", "中午", "下午", "晚上", "傍晚",
	// clock markers
	"am", "pm", ":", "at", "点", "分",
	// date units
	"day", "month", "year", "月", "年", "日",
	// ranges
	"过", "到", "从",
}

// CheckInput is the local admission gate. It rejects text that is empty,
// shorter than MinInputLength, or carries no temporal keyword, so no service
// call is spent on it.
func CheckInput(text string) error {
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) < MinInputLength {
		return ErrEmptyInput
	}
	if !hasTemporalInfo(text) {
		return ErrNoTemporalInfo
	}
	return nil
}

func hasTemporalInfo(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range temporalKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
