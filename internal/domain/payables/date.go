package payables

import (
	"fmt"
	"strings"
	"time"
)

// Date layouts accepted and produced by the payables domain
const (
	DateLayout   = "2006-01-02"
	DateLayoutBR = "02/01/2006"
)

// Clock supplies the current calendar date in the business timezone.
// Status and payment computations never read the wall clock directly.
type Clock interface {
	Today() time.Time
}

// SystemClock reads the wall clock in a fixed location
type SystemClock struct {
	loc *time.Location
}

// NewSystemClock returns a clock for loc; nil means UTC
func NewSystemClock(loc *time.Location) SystemClock {
	if loc == nil {
		loc = time.UTC
	}
	return SystemClock{loc: loc}
}

// Today returns today's calendar date in the clock's location
func (c SystemClock) Today() time.Time {
	return NormalizeDate(time.Now().In(c.loc))
}

// FixedClock always returns the same date
type FixedClock struct {
	Date time.Time
}

// Today returns the fixed date
func (c FixedClock) Today() time.Time {
	return NormalizeDate(c.Date)
}

// NewDate builds a calendar date at UTC midnight
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// NormalizeDate drops the time of day, keeping the calendar date as seen in t's location
func NormalizeDate(t time.Time) time.Time {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// DaysBetween returns to - from in whole calendar days
func DaysBetween(from, to time.Time) int {
	return int(NormalizeDate(to).Sub(NormalizeDate(from)).Hours() / 24)
}

// ParseDate accepts ISO (2006-01-02) and Brazilian (02/01/2006) dates
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	for _, layout := range []string{DateLayout, DateLayoutBR} {
		if t, err := time.Parse(layout, s); err == nil {
			return NormalizeDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// FormatDateBR renders a date as dd/mm/yyyy
func FormatDateBR(t time.Time) string {
	return t.Format(DateLayoutBR)
}
