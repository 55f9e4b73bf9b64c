package folio

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar day used for posting dates, stays and validity windows
// =============================================================================

// DateLayout is the wire and storage format of a Date.
const DateLayout = "2006-01-02"

// Date is a calendar day in UTC. The zero value means "unset".
type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return DateOf(t), nil
}

// MustParseDate is for fixtures and tests.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Comparison
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }
func (d Date) IsZero() bool                  { return d.Time.IsZero() }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{Time: d.Time.AddDate(0, 0, n)} }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format(DateLayout)
}

// MarshalText encodes the date as YYYY-MM-DD; the zero date encodes empty.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Within reports whether d lies in the closed range [from, to].
func (d Date) Within(from, to Date) bool {
	return d.AfterOrEqual(from) && d.BeforeOrEqual(to)
}

// NightsBetween returns the number of nights from arrival to departure.
func NightsBetween(arrival, departure Date) int {
	return int(departure.Time.Sub(arrival.Time).Hours() / 24)
}

// =============================================================================
// CLOCK
// =============================================================================

// Clock returns the current instant. Engines take a Clock so "today" is
// deterministic under test.
type Clock func() time.Time

// SystemClock is the wall clock.
func SystemClock() time.Time { return time.Now() }

// FixedClock always returns the given day at noon UTC.
func FixedClock(d Date) Clock {
	t := d.Time.Add(12 * time.Hour)
	return func() time.Time { return t }
}

// Today resolves the current calendar day from c (wall clock when c is nil).
func (c Clock) Today() Date {
	if c == nil {
		return DateOf(time.Now().UTC())
	}
	return DateOf(c().UTC())
}

// Now returns the current instant from c.
func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}
