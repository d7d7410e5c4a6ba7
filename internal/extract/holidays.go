package extract

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

// Holiday is one public holiday range, inclusive on both ends.
type Holiday struct {
	Name  string `yaml:"name"`
	Start string `yaml:"start"` // YYYY-MM-DD
	End   string `yaml:"end"`   // YYYY-MM-DD
	Note  string `yaml:"note,omitempty"`
}

// Days returns the inclusive length of the range.
func (h Holiday) Days() int {
	start, err1 := time.Parse(dateLayout, h.Start)
	end, err2 := time.Parse(dateLayout, h.End)
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// HolidayTable is the holiday arrangement for one year.
type HolidayTable struct {
	Year     int       `yaml:"year"`
	Holidays []Holiday `yaml:"holidays"`
}

// DefaultHolidays are the built-in tables, keyed by year.
var DefaultHolidays = map[int]HolidayTable{
	2025: {Year: 2025, Holidays: []Holiday{
		{Name: "元旦", Start: "2024-12-30", End: "2025-01-01"},
		{Name: "春节", Start: "2025-01-28", End: "2025-02-04"},
		{Name: "清明节", Start: "2025-04-05", End: "2025-04-07"},
		{Name: "劳动节", Start: "2025-05-01", End: "2025-05-05"},
		{Name: "端午节", Start: "2025-05-31", End: "2025-06-02"},
		{Name: "中秋节", Start: "2025-10-06", End: "2025-10-06", Note: "与国庆节连休"},
		{Name: "国庆节", Start: "2025-10-01", End: "2025-10-08"},
	}},
	2026: {Year: 2026, Holidays: []Holiday{
		{Name: "元旦", Start: "2026-01-01", End: "2026-01-03"},
		{Name: "春节", Start: "2026-02-15", End: "2026-02-23"},
		{Name: "清明节", Start: "2026-04-04", End: "2026-04-06"},
		{Name: "劳动节", Start: "2026-05-01", End: "2026-05-05"},
		{Name: "端午节", Start: "2026-06-19", End: "2026-06-21"},
		{Name: "中秋节", Start: "2026-09-25", End: "2026-09-27"},
		{Name: "国庆节", Start: "2026-10-01", End: "2026-10-07"},
	}},
}

// HolidaysFor picks the built-in table for year, falling back to the most
// recent one when the year is unknown.
func HolidaysFor(year int) HolidayTable {
	if table, ok := DefaultHolidays[year]; ok {
		return table
	}
	years := make([]int, 0, len(DefaultHolidays))
	for y := range DefaultHolidays {
		years = append(years, y)
	}
	sort.Ints(years)
	return DefaultHolidays[years[len(years)-1]]
}

// LoadHolidays reads a holiday table from a YAML file.
func LoadHolidays(path string) (HolidayTable, error) {
	if path == "" {
		return HolidayTable{}, errors.New("holiday file path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return HolidayTable{}, fmt.Errorf("failed to read holiday file: %w", err)
	}

	var table HolidayTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return HolidayTable{}, fmt.Errorf("failed to parse holiday file: %w", err)
	}
	if err := table.Validate(); err != nil {
		return HolidayTable{}, err
	}
	return table, nil
}

// Validate checks every range for well-formed, ordered dates.
func (t HolidayTable) Validate() error {
	for i, h := range t.Holidays {
		if h.Name == "" {
			return fmt.Errorf("holiday %d: name is required", i)
		}
		start, err := time.Parse(dateLayout, h.Start)
		if err != nil {
			return fmt.Errorf("holiday %q: invalid start date: %w", h.Name, err)
		}
		end, err := time.Parse(dateLayout, h.End)
		if err != nil {
			return fmt.Errorf("holiday %q: invalid end date: %w", h.Name, err)
		}
		if end.Before(start) {
			return fmt.Errorf("holiday %q: end date before start date", h.Name)
		}
	}
	return nil
}
