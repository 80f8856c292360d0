package generic

// =============================================================================
// PERIOD - Ledger window for taken-leave sums
// =============================================================================

// Period is a date range [Start, End]. A zero End leaves the range open:
// every date on or after Start is inside it.
type Period struct {
	Start TimePoint
	End   TimePoint
}

// LedgerWindow is the window approved leave is summed over for a balance as
// on date: everything from January 1 of that year onward, with no upper
// bound. Leave already approved for next year still counts against a
// December balance.
func LedgerWindow(date TimePoint) Period {
	return Period{Start: StartOfYear(date.Year())}
}

// Open reports whether the period has no end.
func (p Period) Open() bool {
	return p.End.IsZero()
}

// Contains returns true if the time point is within the period.
func (p Period) Contains(t TimePoint) bool {
	if t.Before(p.Start) {
		return false
	}
	return p.Open() || t.BeforeOrEqual(p.End)
}

// Validate rejects periods whose end precedes their start.
func (p Period) Validate() error {
	if !p.Open() && p.End.Before(p.Start) {
		return ErrInvalidPeriod
	}
	return nil
}

func (p Period) String() string {
	if p.Open() {
		return "[" + p.Start.String() + ", ...)"
	}
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
