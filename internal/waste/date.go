package waste

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date format used for schedule values
const DateLayout = "2006-01-02"

// Unknown is the value reported for a category without a parsed date
const Unknown = "unknown"

// ErrInvalidDate is returned when a day/month label cannot be turned into a date
var ErrInvalidDate = errors.New("invalid date")

// Months maps lowercase Norwegian month names to their month
var Months = map[string]time.Month{
	"januar":    time.January,
	"februar":   time.February,
	"mars":      time.March,
	"april":     time.April,
	"mai":       time.May,
	"juni":      time.June,
	"juli":      time.July,
	"august":    time.August,
	"september": time.September,
	"oktober":   time.October,
	"november":  time.November,
	"desember":  time.December,
}

// ParseDayMonth parses a label like "12. mars" into a date in the given year.
//
// The text is lowercased and split on ".": the first part is the day and the last
// part is the month name. The year is never inferred from the label.
func ParseDayMonth(text string, year int) (time.Time, error) {
	txt := strings.ToLower(strings.TrimSpace(text))
	parts := strings.Split(txt, ".")
	if len(parts) < 2 {
		return time.Time{}, fmt.Errorf("%w: unable to parse %q", ErrInvalidDate, text)
	}

	day, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad day in %q", ErrInvalidDate, text)
	}

	month, ok := Months[strings.TrimSpace(parts[len(parts)-1])]
	if !ok || day <= 0 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, text)
	}

	d := Day(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
	// time.Date normalizes overflow (31. februar -> March), reject it instead
	if d.Day() != day || d.Month() != month {
		return time.Time{}, fmt.Errorf("%w: %q does not exist in %d", ErrInvalidDate, text, year)
	}
	return d, nil
}

// Day truncates t to midnight UTC of its own calendar date
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDate formats a date as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseISODate parses a YYYY-MM-DD value
func ParseISODate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}
