package generic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMonths_ClampsToMonthEnd(t *testing.T) {
	tests := []struct {
		from   string
		months int
		want   string
	}{
		{"2025-01-15", 1, "2025-02-15"},
		{"2025-01-31", 1, "2025-02-28"},
		{"2024-01-31", 1, "2024-02-29"},
		{"2025-03-31", 1, "2025-04-30"},
		{"2025-08-31", 6, "2026-02-28"},
		{"2025-12-15", 1, "2026-01-15"},
		{"2025-05-31", 0, "2025-05-31"},
		{"2025-03-31", -1, "2025-02-28"},
	}

	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			got := MustParseTimePoint(tt.from).AddMonths(tt.months)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestMonthsSpanned(t *testing.T) {
	tests := []struct {
		from, to string
		want     int
	}{
		{"2025-01-20", "2025-01-31", 1},
		{"2025-01-31", "2025-02-01", 2},
		{"2025-01-01", "2025-06-30", 6},
		{"2025-01-01", "2025-12-31", 12},
		{"2024-11-15", "2025-02-01", 4},
	}

	for _, tt := range tests {
		got := MonthsSpanned(MustParseTimePoint(tt.from), MustParseTimePoint(tt.to))
		assert.Equal(t, tt.want, got, "%s -> %s", tt.from, tt.to)
	}
}

func TestDaysInclusive(t *testing.T) {
	jan1 := NewTimePoint(2025, time.January, 1)

	assert.Equal(t, 1, DaysInclusive(jan1, jan1))
	assert.Equal(t, 365, DaysInclusive(jan1, EndOfYear(2025)))
	assert.Equal(t, 366, DaysInclusive(StartOfYear(2024), EndOfYear(2024)))
	assert.Equal(t, 183, DaysInclusive(jan1, NewTimePoint(2025, time.July, 2)))
}

func TestParseTimePoint(t *testing.T) {
	tp, err := ParseTimePoint("2025-02-28")
	require.NoError(t, err)
	assert.Equal(t, 2025, tp.Year())
	assert.Equal(t, time.February, tp.Month())
	assert.Equal(t, 28, tp.Day())

	_, err = ParseTimePoint("2025-02-30")
	assert.Error(t, err)
	_, err = ParseTimePoint("28/02/2025")
	assert.Error(t, err)
}

func TestFromTime_DropsClock(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	tp := FromTime(time.Date(2025, time.March, 3, 23, 30, 0, 0, loc))

	assert.Equal(t, NewTimePoint(2025, time.March, 3), tp)
}

func TestMaxTimePoint(t *testing.T) {
	a := NewTimePoint(2025, time.January, 1)
	b := NewTimePoint(2024, time.June, 1)

	assert.Equal(t, a, MaxTimePoint(a, b))
	assert.Equal(t, a, MaxTimePoint(b, a))
}

func TestLedgerWindow_OpenEnded(t *testing.T) {
	p := LedgerWindow(NewTimePoint(2025, time.June, 30))

	assert.True(t, p.Open())
	assert.Equal(t, "[2025-01-01, ...)", p.String())
	assert.True(t, p.Contains(NewTimePoint(2025, time.January, 1)))
	assert.True(t, p.Contains(NewTimePoint(2025, time.December, 31)))
	assert.True(t, p.Contains(NewTimePoint(2026, time.January, 5)))
	assert.False(t, p.Contains(NewTimePoint(2024, time.December, 31)))
	assert.NoError(t, p.Validate())
}

func TestPeriod_Closed(t *testing.T) {
	p := Period{Start: NewTimePoint(2025, time.January, 1), End: NewTimePoint(2025, time.December, 31)}

	assert.False(t, p.Open())
	assert.Equal(t, "[2025-01-01, 2025-12-31]", p.String())
	assert.True(t, p.Contains(NewTimePoint(2025, time.December, 31)))
	assert.False(t, p.Contains(NewTimePoint(2026, time.January, 1)))
	assert.NoError(t, p.Validate())

	backwards := Period{Start: p.End, End: p.Start}
	assert.ErrorIs(t, backwards.Validate(), ErrInvalidPeriod)
}
