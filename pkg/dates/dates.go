// Package dates holds the calendar helpers shared by the attendance services.
//
// Calendar dates are represented as time.Time values at midnight UTC built from
// the year/month/day components of the source time, so a date never shifts when
// it is formatted.
package dates

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	appErrors "github.com/noah-isme/client-attendance-api/pkg/errors"
)

const (
	// ISOLayout is the canonical calendar-date layout.
	ISOLayout = "2006-01-02"
	// MonthLabelLayout renders month keys such as "January 2025".
	MonthLabelLayout = "January 2006"
	// MonthLayout is the compact month form used in query strings and cache keys.
	MonthLayout = "2006-01"

	pacificZone    = "America/Los_Angeles"
	pacificDisplay = "01/02/2006, 15:04:05"
)

var pacific = mustLoad(pacificZone)

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("load location %s: %v", name, err))
	}
	return loc
}

// Clock couples the wall clock with the location used for "today".
type Clock struct {
	now func() time.Time
	loc *time.Location
}

// NewClock builds a clock for the named IANA zone. Empty or "Local" uses the host zone.
func NewClock(zone string) (*Clock, error) {
	loc := time.Local
	if zone != "" && !strings.EqualFold(zone, "local") {
		l, err := time.LoadLocation(zone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", zone, err)
		}
		loc = l
	}
	return &Clock{now: time.Now, loc: loc}, nil
}

// FixedClock returns a clock pinned to the provided instant.
func FixedClock(at time.Time) *Clock {
	return &Clock{now: func() time.Time { return at }, loc: at.Location()}
}

// Now returns the current instant in the clock's location.
func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// Today returns the local calendar date as YYYY-MM-DD.
func (c *Clock) Today() string {
	return CurrentLocalDate(c.now(), c.loc)
}

// Location exposes the configured zone.
func (c *Clock) Location() *time.Location {
	return c.loc
}

// CurrentLocalDate formats the calendar date of now as seen in loc. The
// components are read after the zone conversion, never from a UTC rendering.
func CurrentLocalDate(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	return fmt.Sprintf("%04d-%02d-%02d", local.Year(), int(local.Month()), local.Day())
}

// CurrentPacificTimestamp renders now as an RFC3339 timestamp in Pacific time.
func CurrentPacificTimestamp(now time.Time) string {
	return now.In(pacific).Format(time.RFC3339)
}

// FormatForPacific renders t for display in the America/Los_Angeles civil calendar.
func FormatForPacific(t time.Time) string {
	return t.In(pacific).Format(pacificDisplay)
}

// Civil truncates t to its calendar date.
func Civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ISODate formats the calendar date of t.
func ISODate(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// ParseISODate parses a YYYY-MM-DD string into a civil date.
func ParseISODate(raw string) (time.Time, error) {
	parsed, err := time.Parse(ISOLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid date format, expected YYYY-MM-DD")
	}
	return parsed, nil
}

// MonthStart returns the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthEnd returns the last day of t's month.
func MonthEnd(t time.Time) time.Time {
	return MonthStart(t).AddDate(0, 1, -1)
}

// MonthLabel renders the human readable month key, e.g. "January 2025".
func MonthLabel(t time.Time) string {
	return t.Format(MonthLabelLayout)
}

// ParseMonthLabel parses a "January 2025" style label into the first day of that month.
func ParseMonthLabel(label string) (time.Time, error) {
	parsed, err := time.Parse(MonthLabelLayout, strings.TrimSpace(label))
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid month, expected e.g. \"January 2025\"")
	}
	return parsed, nil
}

// ParseMonth parses a YYYY-MM string into the first day of that month.
func ParseMonth(raw string) (time.Time, error) {
	parsed, err := time.Parse(MonthLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid month, expected YYYY-MM")
	}
	return parsed, nil
}

// WeekdayName returns the lower-case English weekday, e.g. "monday".
func WeekdayName(t time.Time) string {
	return strings.ToLower(t.Weekday().String())
}

// WeekStart normalises t to the Monday of its ISO week (Sunday counts as day 7).
func WeekStart(t time.Time) time.Time {
	idx := int(t.Weekday())
	if idx == 0 {
		idx = 7
	}
	return Civil(t).AddDate(0, 0, -(idx - 1))
}
