/*
balance.go - Accrued leave balance as of a date

PURPOSE:
  Computes earned - taken for one employee and leave type. The balance is
  never stored: every call re-reads the policy, the employee and the ledger,
  so it cannot drift from the approved applications.

ACCRUAL WINDOW:
  Accrual starts at the later of the join date and January 1 of the as-on
  year. Nothing carries over from previous years.

  Monthly:   months touched by [start, asOn], both ends included, times rate.
             A month counts in full from its first day.
  Quarterly: daysElapsed / 365 * rate * 4
  Yearly:    daysElapsed / 365 * rate
             daysElapsed = (asOn - start) + 1

PIPELINE:
  earned -> cap at MaxAnnualEntitlement -> minus taken (approved leave
  from January 1 onward, later years included) -> round to increment ->
  round to 2 places

EXAMPLE:
  calc := &Calculator{Policies: s, Employees: s, Ledger: s}
  bal, err := calc.Balance(ctx, "emp-1", "Annual Leave", generic.NewTimePoint(2025, 6, 30))

SEE ALSO:
  - validator.go: Uses the balance to gate submissions
  - generic/types.go: Rounding rules
*/
package accrual

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-accrual/generic"
)

var quartersPerYear = decimal.NewFromInt(4)

// Calculator computes balances from the host's records.
type Calculator struct {
	Policies  PolicyStore
	Employees EmployeeDirectory
	Ledger    LedgerQuery
}

// BalanceBreakdown shows how a balance was reached.
type BalanceBreakdown struct {
	Employee     generic.EmployeeID
	LeaveType    generic.LeaveTypeName
	AsOn         generic.TimePoint
	Policy       *AccrualPolicy // nil when no policy is configured
	AccrualStart generic.TimePoint
	Window       generic.Period
	RawEarned    decimal.Decimal // before the annual cap
	Earned       decimal.Decimal
	Capped       bool
	Taken        decimal.Decimal
	Balance      decimal.Decimal
}

// Balance returns the rounded balance of employee for leaveType as on asOn.
func (c *Calculator) Balance(ctx context.Context, employee generic.EmployeeID, leaveType generic.LeaveTypeName, asOn generic.TimePoint) (decimal.Decimal, error) {
	b, err := c.Breakdown(ctx, employee, leaveType, asOn)
	if err != nil {
		return decimal.Zero, err
	}
	return b.Balance, nil
}

// Breakdown is Balance with every intermediate figure.
func (c *Calculator) Breakdown(ctx context.Context, employee generic.EmployeeID, leaveType generic.LeaveTypeName, asOn generic.TimePoint) (*BalanceBreakdown, error) {
	b := &BalanceBreakdown{
		Employee:  employee,
		LeaveType: leaveType,
		AsOn:      asOn,
		Window:    generic.LedgerWindow(asOn),
		RawEarned: decimal.Zero,
		Earned:    decimal.Zero,
		Taken:     decimal.Zero,
		Balance:   decimal.Zero,
	}

	policy, err := c.Policies.PolicyForLeaveType(ctx, leaveType)
	if err != nil {
		return nil, fmt.Errorf("failed to load accrual policy: %w", err)
	}
	if policy == nil {
		return b, nil
	}
	b.Policy = policy

	emp, err := c.Employees.Employee(ctx, employee)
	if err != nil {
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}
	if emp == nil || emp.DateOfJoining == nil || emp.DateOfJoining.IsZero() {
		return b, nil
	}

	b.AccrualStart = generic.MaxTimePoint(*emp.DateOfJoining, generic.StartOfYear(asOn.Year()))
	if asOn.Before(b.AccrualStart) {
		return b, nil
	}

	b.RawEarned = Earned(*policy, b.AccrualStart, asOn)
	b.Earned = b.RawEarned
	if limit := policy.MaxAnnualEntitlement; limit.Valid && b.Earned.GreaterThan(limit.Decimal) {
		b.Earned = limit.Decimal
		b.Capped = true
	}

	taken, err := c.Ledger.TakenDays(ctx, employee, leaveType, b.Window)
	if err != nil {
		return nil, fmt.Errorf("failed to sum leave taken: %w", err)
	}
	b.Taken = taken

	net := generic.RoundToIncrement(b.Earned.Sub(taken), policy.RoundingIncrement)
	b.Balance = generic.RoundDisplay(net)
	return b, nil
}

// Earned is the uncapped accrual of policy over [start, asOn].
// It returns zero when asOn precedes start.
func Earned(policy AccrualPolicy, start, asOn generic.TimePoint) decimal.Decimal {
	if asOn.Before(start) {
		return decimal.Zero
	}

	switch policy.AccrualType {
	case AccrualMonthly:
		months := decimal.NewFromInt(int64(generic.MonthsSpanned(start, asOn)))
		return months.Mul(policy.AccrualRate)
	case AccrualQuarterly:
		return yearFraction(start, asOn).Mul(policy.AccrualRate).Mul(quartersPerYear)
	case AccrualYearly:
		return yearFraction(start, asOn).Mul(policy.AccrualRate)
	default:
		return decimal.Zero
	}
}

func yearFraction(start, asOn generic.TimePoint) decimal.Decimal {
	days := decimal.NewFromInt(int64(generic.DaysInclusive(start, asOn)))
	return days.Div(generic.DaysPerYear)
}
