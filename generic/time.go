package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// TIME POINT - Day-granular date used for every accrual computation
// =============================================================================

// DateLayout is the wire and storage format for dates.
const DateLayout = "2006-01-02"

// TimePoint is a calendar date. The time-of-day component is always midnight UTC.
type TimePoint struct {
	Time time.Time
}

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime drops the clock part of t, keeping the date as observed in t's location.
func FromTime(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

// ParseTimePoint parses a YYYY-MM-DD date.
func ParseTimePoint(s string) (TimePoint, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return TimePoint{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return FromTime(t), nil
}

// MustParseTimePoint is ParseTimePoint for literals in tests and fixtures.
func MustParseTimePoint(s string) TimePoint {
	tp, err := ParseTimePoint(s)
	if err != nil {
		panic(err)
	}
	return tp
}

// Today reads the wall clock. Only outer layers call it; the engine takes dates as arguments.
func Today() TimePoint {
	return FromTime(time.Now())
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.Time.Before(other.Time) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.Time.Equal(other.Time) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.Time.After(other.Time) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return !tp.After(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return !tp.Before(other) }

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint { return TimePoint{Time: tp.Time.AddDate(0, 0, n)} }

// AddMonths adds calendar months keeping the day of month, clamped to the last
// valid day of the target month (Jan 31 + 1 month = Feb 28/29).
func (tp TimePoint) AddMonths(n int) TimePoint {
	y, m, d := tp.Time.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	last := DaysIn(first.Year(), first.Month())
	if d > last {
		d = last
	}
	return NewTimePoint(first.Year(), first.Month(), d)
}

// Properties
func (tp TimePoint) Year() int         { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month { return tp.Time.Month() }
func (tp TimePoint) Day() int          { return tp.Time.Day() }
func (tp TimePoint) IsZero() bool      { return tp.Time.IsZero() }

func (tp TimePoint) String() string {
	return tp.Time.Format(DateLayout)
}

// =============================================================================
// TIME UTILITIES
// =============================================================================

// DaysBetween returns to - from in whole days (negative when to is earlier).
func DaysBetween(from, to TimePoint) int {
	return int(to.Time.Sub(from.Time).Hours() / 24)
}

// DaysInclusive counts both endpoints: DaysInclusive(d, d) == 1.
func DaysInclusive(from, to TimePoint) int { return DaysBetween(from, to) + 1 }

// MonthsSpanned counts calendar months touched by [from, to], both ends included.
// Jan 20 -> Jan 31 is 1, Jan 31 -> Feb 1 is 2.
func MonthsSpanned(from, to TimePoint) int {
	return (to.Year()-from.Year())*12 + int(to.Month()-from.Month()) + 1
}

func StartOfYear(year int) TimePoint { return NewTimePoint(year, time.January, 1) }
func EndOfYear(year int) TimePoint   { return NewTimePoint(year, time.December, 31) }

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MaxTimePoint returns the later of a and b.
func MaxTimePoint(a, b TimePoint) TimePoint {
	if a.After(b) {
		return a
	}
	return b
}
