package accrual

import (
	"github.com/shopspring/decimal"
	"github.com/warp/leave-accrual/generic"
)

// fallbackMonthlyRate replaces a zero or negative accrual rate when
// scheduling recovery.
// TODO: confirm with HR product whether a policy without a positive rate
// should block recovery scheduling instead of assuming 1 day per month.
var fallbackMonthlyRate = decimal.NewFromInt(1)

// Recovery is the outcome of scheduling a deficit.
type Recovery struct {
	MonthsNeeded int
	Date         generic.TimePoint
	FallbackRate bool // monthlyRate was not positive; fallbackMonthlyRate was used
}

// RecoveryDate returns the earliest date at which monthly accrual clears
// deficit, counted in calendar months from today.
func RecoveryDate(deficit, monthlyRate decimal.Decimal, today generic.TimePoint) Recovery {
	r := Recovery{}
	rate := monthlyRate
	if !rate.IsPositive() {
		rate = fallbackMonthlyRate
		r.FallbackRate = true
	}

	if deficit.IsPositive() {
		r.MonthsNeeded = int(deficit.Div(rate).Ceil().IntPart())
	}
	r.Date = today.AddMonths(r.MonthsNeeded)
	return r
}
