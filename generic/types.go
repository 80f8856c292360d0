/*
Package generic provides the primitives the accrual engine is built on.

KEY CONCEPTS:
  - TimePoint: A calendar date with calendar-month arithmetic
  - Period: A date range, open-ended for the ledger window
  - Day quantities: decimal.Decimal, never float64
  - Rounding: increment rounding and 2-place display rounding

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Type Safety: Strong typing for IDs prevents mixing employees and leave types
  3. Purity: Nothing here reads the clock except Today()

ROUNDING:
  Both increment rounding and display rounding are round-half-to-even:
    RoundToIncrement(10.25, 0.5) = 10.0   (20.5 -> 20)
    RoundToIncrement(10.75, 0.5) = 11.0   (21.5 -> 22)

SEE ALSO:
  - time.go: TimePoint and date arithmetic
  - period.go: Ledger window
  - errors.go: Sentinel errors
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type LeaveTypeName string
type ApplicationID string

// =============================================================================
// DAY QUANTITIES
// =============================================================================

// DisplayPlaces is the number of decimal places a balance is reported with.
const DisplayPlaces = 2

// DaysPerYear is the proration denominator for day-based accruals.
var DaysPerYear = decimal.NewFromInt(365)

// Days builds a day quantity from a float literal.
func Days(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// MustParseDecimal parses a decimal literal and panics on malformed input.
// Use it for constants and tests; stored values go through
// decimal.NewFromString and return the error.
func MustParseDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// RoundToIncrement rounds value to the nearest multiple of increment,
// ties to even. A missing or non-positive increment leaves value unchanged.
func RoundToIncrement(value decimal.Decimal, increment decimal.NullDecimal) decimal.Decimal {
	if !increment.Valid || !increment.Decimal.IsPositive() {
		return value
	}
	steps := value.Div(increment.Decimal).RoundBank(0)
	return steps.Mul(increment.Decimal)
}

// RoundDisplay rounds to DisplayPlaces, ties to even.
func RoundDisplay(value decimal.Decimal) decimal.Decimal {
	return value.RoundBank(DisplayPlaces)
}

// NullDays wraps v as a set optional quantity.
func NullDays(v float64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromFloat(v))
}
