package extract

import (
	"fmt"
	"strings"
	"time"
)

const promptSchema = `{
    "summary": "Event title",
    "start_time": "YYYY-MM-DD HH:mm",
    "end_time": "YYYY-MM-DD HH:mm",
    "location": "Location, or null",
    "description": "Detailed event information, excluding time/location/basic attendee info that are covered by other fields",
    "attendees": ["attendee1@email.com", "attendee2@email.com"],
    "reminder_minutes": reminder time in minutes
}`

const promptRules = `Rules:
1. Language matching (IMPORTANT):
   - For Chinese input (contains any Chinese characters), MUST output summary and description in Chinese
   - For English input (no Chinese characters), output summary and description in English
   - Examples for Chinese input:
     - Input: "明天下午3点在星巴克见面" -> summary: "星巴克见面"
     - Input: "下周一开产品评审会" -> summary: "产品评审会"
   - Examples for English input:
     - Input: "meeting tomorrow 3pm" -> summary: "Meeting"
     - Input: "product review next Monday" -> summary: "Product Review"

2. Time parsing rules:
   - "today" refers to %[1]s
   - "tomorrow" means the next day
   - "next Monday" means the next occurring Monday
   - For dates like "Jan 25th", assume it's in the current year unless specified
   - If only time is given without date, assume today (%[1]s)
   - Parse all times to 24-hour format (e.g., "2pm" -> "14:00")
   - For morning/afternoon without specific time: morning = 9:00, afternoon = 14:00

3. Duration rules:
   - If no end time is specified, assume the event lasts for 1 hour
   - For "lunch" or "dinner" without specified duration, assume 1.5 hours
   - For "meeting" without specified duration, assume 1 hour

4. Location handling:
   - If no location is specified, return null
   - Keep the exact location name as provided
   - For online meetings without specific location, use "Online" for English, "线上" for Chinese

5. Attendee rules:
   - Extract all email addresses as attendees, in the order they appear
   - If no attendees are specified, return empty list
   - Include any email addresses mentioned in the description

6. Reminder rules:
   - Default reminder is 15 minutes before
   - Parse explicit reminder times (e.g., "remind me 1 hour before" -> 60)
   - For important meetings/presentations, set default reminder to 30 minutes

7. Title and description:
   - Make the summary concise but informative
   - Include the meeting type (e.g., "Team Meeting"/"团队会议", "Client Meeting"/"客户会议")
   - For description, preserve all important details while improving readability:
     - Keep all event-specific information (abstract, agenda, biography, etc.)
     - Preserve technical details (meeting links, IDs, passwords, etc.)
     - Remove only information that's already covered by other fields (time, location, basic attendee list)
     - Format the text for better readability (add line breaks, sections, etc.)
     - Chinese example:
       Input: "明天下午3点在星巴克见面，讨论新项目方案。具体议程：1. 项目背景介绍 2. 技术方案讨论 3. 时间节点确认。腾讯会议：888 999 000，密码：1234"
       Description: "议程：\n1. 项目背景介绍\n2. 技术方案讨论\n3. 时间节点确认\n\n腾讯会议：888 999 000\n密码：1234"
     - English example:
       Input: "Prof. Smith's seminar on Quantum Computing. Abstract: This talk introduces recent developments in quantum error correction. Join via Zoom: https://zoom.us/j/123456, Passcode: qc2024"
       Description: "Speaker: Prof. Smith\n\nAbstract:\nThis talk introduces recent developments in quantum error correction.\n\nMeeting Link:\nZoom: https://zoom.us/j/123456\nPasscode: qc2024"

Return only the JSON result without any additional text.`

// BuildSystemPrompt renders the extraction instruction for a given day.
// today must already be in the user's timezone.
func BuildSystemPrompt(today time.Time, holidays HolidayTable) string {
	date := today.Format(dateLayout)

	var b strings.Builder
	b.WriteString("You are a calendar event parsing assistant. Your task is to extract event information from natural language descriptions.\n\n")
	b.WriteString("Please extract the following information in JSON format:\n")
	b.WriteString(promptSchema)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Today's date is %s (%s).\n", date, today.Weekday())
	fmt.Fprintf(&b, "Timezone: %s\n\n", today.Location())

	if len(holidays.Holidays) > 0 {
		fmt.Fprintf(&b, "%d年节假日调休安排：\n", holidays.Year)
		for _, h := range holidays.Holidays {
			if h.Start == h.End {
				fmt.Fprintf(&b, "- %s：%s，共%d天", h.Name, h.Start, h.Days())
			} else {
				fmt.Fprintf(&b, "- %s：%s 至 %s，共%d天", h.Name, h.Start, h.End, h.Days())
			}
			if h.Note != "" {
				fmt.Fprintf(&b, "（%s）", h.Note)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, promptRules, date)
	return b.String()
}
