package model

import (
	"fmt"
	"time"
)

const dayFormat = "2006-01-02"

// Day is a local calendar date in YYYY-MM-DD form. The format is chosen so
// that lexicographic order matches chronological order, which keeps history
// sorting and window checks to plain string comparison.
type Day string

// DayOf returns the calendar day of t in t's location.
func DayOf(t time.Time) Day {
	return Day(t.Format(dayFormat))
}

// ParseDay validates and normalizes a YYYY-MM-DD string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayFormat, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DayOf(t), nil
}

// AddDays returns the day n calendar days after d (n may be negative).
func (d Day) AddDays(n int) Day {
	t, err := time.Parse(dayFormat, string(d))
	if err != nil {
		return d
	}
	return DayOf(t.AddDate(0, 0, n))
}

func (d Day) Before(other Day) bool { return d < other }

func (d Day) After(other Day) bool { return d > other }

func (d Day) IsZero() bool { return d == "" }

func (d Day) String() string { return string(d) }
