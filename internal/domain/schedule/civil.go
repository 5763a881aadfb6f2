// Package schedule turns the civil date and clock strings stored with bookings
// and tournament matches into absolute instants.
package schedule

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrUnschedulable is returned for placeholder or malformed times ("TBD", empty, garbage).
var ErrUnschedulable = errors.New("event time is not schedulable")

var clockPattern = regexp.MustCompile(`(?i)^(\d{1,2}):(\d{2})\s*(AM|PM)$`)

// Date is a calendar day with no zone attached.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Clock is a wall-clock time of day, 24h.
type Clock struct {
	Hour   int
	Minute int
}

// ParseDate accepts YYYY-MM-DD and DD/MM/YYYY.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	layout := ""
	switch {
	case strings.Contains(s, "-"):
		layout = "2006-1-2"
	case strings.Contains(s, "/"):
		layout = "2/1/2006"
	default:
		return Date{}, fmt.Errorf("%w: date %q", ErrUnschedulable, s)
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: date %q", ErrUnschedulable, s)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// ParseClock accepts "H:MM AM" / "HH:MM PM", case-insensitive.
func ParseClock(s string) (Clock, error) {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Clock{}, fmt.Errorf("%w: time %q", ErrUnschedulable, s)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour < 1 || hour > 12 || minute > 59 {
		return Clock{}, fmt.Errorf("%w: time %q", ErrUnschedulable, s)
	}
	pm := strings.EqualFold(m[3], "PM")
	switch {
	case pm && hour != 12:
		hour += 12
	case !pm && hour == 12:
		hour = 0
	}
	return Clock{Hour: hour, Minute: minute}, nil
}

// ParseOffset builds a fixed zone from "+04:00" / "-03:30" / "Z".
func ParseOffset(s string) (*time.Location, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "Z" || s == "UTC" {
		return time.UTC, nil
	}
	t, err := time.Parse("-07:00", s)
	if err != nil {
		return nil, fmt.Errorf("invalid utc offset %q: %w", s, err)
	}
	_, secs := t.Zone()
	return time.FixedZone("UTC"+s, secs), nil
}

// At places the date and clock in loc.
func (d Date) At(c Clock, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, c.Hour, c.Minute, 0, 0, loc)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// DateOf returns the civil date of t as seen in loc.
func DateOf(t time.Time, loc *time.Location) Date {
	t = t.In(loc)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Resolve converts a civil date and clock in loc to an instant.
func Resolve(date, clock string, loc *time.Location) (time.Time, error) {
	d, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	c, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return d.At(c, loc), nil
}

// Nearest places an undated clock on yesterday, today or tomorrow, whichever
// lands closest to now.
func Nearest(now time.Time, c Clock, loc *time.Location) time.Time {
	today := DateOf(now, loc).At(c, loc)
	best := today
	for _, days := range []int{-1, 1} {
		cand := today.AddDate(0, 0, days)
		if absDuration(cand.Sub(now)) < absDuration(best.Sub(now)) {
			best = cand
		}
	}
	return best
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
