// Package humanize turns the age of a blame date into a short phrase such as
// "over 3 months" or "almost a week".
package humanize

import (
	"errors"
	"fmt"
	"time"
)

// BlameDateLayout is the format blame dates are stored in, always UTC.
const BlameDateLayout = "2006-01-02 15:04:05"

// ErrInvalidTimestamp is returned for dates that do not parse or that lie
// after the reference time.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// Delta is a calendar-relative interval. Years and Months follow calendar
// boundaries; Weeks and Days split the remaining days.
type Delta struct {
	Years   int
	Months  int
	Weeks   int
	Days    int
	Hours   int
	Minutes int
	Seconds int
}

type rule struct {
	match  func(Delta) bool
	phrase func(Delta) string
}

func fixed(s string) func(Delta) string {
	return func(Delta) string { return s }
}

// rules are evaluated in order; the first match wins and the last always matches.
var rules = []rule{
	{func(d Delta) bool { return d.Years >= 2 }, func(d Delta) string { return fmt.Sprintf("over %d years", d.Years) }},
	{func(d Delta) bool { return d.Years == 1 }, fixed("over a year")},
	{func(d Delta) bool { return d.Months >= 10 }, fixed("almost a year")},
	{func(d Delta) bool { return d.Months >= 2 }, func(d Delta) string { return fmt.Sprintf("over %d months", d.Months) }},
	{func(d Delta) bool { return d.Months == 1 }, fixed("over a month")},
	{func(d Delta) bool { return d.Weeks >= 3 }, fixed("almost a month")},
	{func(d Delta) bool { return d.Weeks >= 2 }, func(d Delta) string { return fmt.Sprintf("over %d weeks", d.Weeks) }},
	{func(d Delta) bool { return d.Weeks == 1 }, fixed("over a week")},
	{func(d Delta) bool { return d.Days >= 5 }, fixed("almost a week")},
	{func(d Delta) bool { return d.Days >= 2 }, func(d Delta) string { return fmt.Sprintf("%d days", d.Days) }},
	{func(d Delta) bool { return d.Days == 1 }, fixed("over 24 hours")},
	{func(d Delta) bool { return d.Hours >= 1 }, fixed("crucial hours")},
	{func(Delta) bool { return true }, fixed("mere moments")},
}

// ParseBlameDate parses a "YYYY-MM-DD HH:MM:SS" UTC date.
func ParseBlameDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(BlameDateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidTimestamp, s, err)
	}
	return t, nil
}

// Phrase describes how long before now the blame date lies.
func Phrase(blameDate string, now time.Time) (string, error) {
	then, err := ParseBlameDate(blameDate)
	if err != nil {
		return "", err
	}
	return Since(then, now)
}

// Since describes the interval from then to now. then must not be after now.
func Since(then, now time.Time) (string, error) {
	d, err := Between(then, now)
	if err != nil {
		return "", err
	}
	return d.Phrase(), nil
}

// Phrase applies the rule table to d.
func (d Delta) Phrase() string {
	for _, r := range rules {
		if r.match(d) {
			return r.phrase(d)
		}
	}
	return ""
}

// Between computes the calendar delta from then to now, both taken in UTC.
// Whole months are counted first, clamping the day to the target month's
// length, and the remainder is split into weeks, days and time of day.
func Between(then, now time.Time) (Delta, error) {
	then, now = then.UTC(), now.UTC()
	if then.After(now) {
		return Delta{}, fmt.Errorf("%w: %s is after %s", ErrInvalidTimestamp,
			then.Format(BlameDateLayout), now.Format(BlameDateLayout))
	}

	months := (now.Year()*12 + int(now.Month())) - (then.Year()*12 + int(then.Month()))
	anchor := addMonths(then, months)
	for months > 0 && now.Before(anchor) {
		months--
		anchor = addMonths(then, months)
	}

	rest := now.Sub(anchor)
	days := int(rest / (24 * time.Hour))
	rest -= time.Duration(days) * 24 * time.Hour

	return Delta{
		Years:   months / 12,
		Months:  months % 12,
		Weeks:   days / 7,
		Days:    days % 7,
		Hours:   int(rest / time.Hour),
		Minutes: int(rest % time.Hour / time.Minute),
		Seconds: int(rest % time.Minute / time.Second),
	}, nil
}

func addMonths(t time.Time, n int) time.Time {
	total := int(t.Month()) - 1 + n
	year := t.Year() + total/12
	month := time.Month(total%12 + 1)
	day := t.Day()
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
