// Package calendar works with YYYY-MM-DD calendar dates and Monday-start weeks.
package calendar

import (
	"fmt"
	"time"

	"github.com/dukerupert/goalpost/internal/model"
)

// Layout is the persisted calendar date format.
const Layout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", model.ErrInvalidInput, s)
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(Layout)
}

// Today returns the calendar date of now in its own location.
func Today(now time.Time) string {
	return FormatDate(now)
}

// WeekStart returns the Monday on or before t. A Sunday belongs to the week
// that began six days earlier.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

// WeekRange returns the Monday..Sunday range containing date.
func WeekRange(date string) (model.WeekRange, error) {
	t, err := ParseDate(date)
	if err != nil {
		return model.WeekRange{}, err
	}
	start := WeekStart(t)
	return model.WeekRange{
		Start: FormatDate(start),
		End:   FormatDate(start.AddDate(0, 0, 6)),
	}, nil
}

// WeekDays returns the seven dates, Monday first, of the week containing date.
func WeekDays(date string) ([]string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	start := WeekStart(t)
	days := make([]string, 7)
	for i := range days {
		days[i] = FormatDate(start.AddDate(0, 0, i))
	}
	return days, nil
}

// AddDays shifts date by n calendar days.
func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return FormatDate(t.AddDate(0, 0, n)), nil
}
