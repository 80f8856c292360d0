/*
validator.go - Leave application submission gate

PURPOSE:
  Decides whether a leave application may be saved or submitted given the
  employee's current balance. The decision is a pure function of the
  application, the policy, the ledger and today's date.

STATE MACHINE:
  ┌──────────────────────────────────────────────────────────────────────┐
  │ status Rejected/Cancelled ─────────────────────────▶ SkippedInactive │
  │ no policy for leave type ──────────────────────────▶ SkippedNoPolicy │
  │ balance < 0 and from_date < recovery date ─▶ BlockedNegativeBalance  │
  │ balance - requested < 0:                                             │
  │     policy allows override and doc.HROverride ──▶ AllowedWithOverride│
  │     otherwise ─────────────────────────────▶ BlockedInsufficient...  │
  │ otherwise ─────────────────────────────────────────────▶ Allowed     │
  └──────────────────────────────────────────────────────────────────────┘

THE APPLICATION ITSELF:
  The balance is computed without the application being validated: it is
  not yet Approved + Submitted, so the ledger does not contain it.

KNOWN LIMITATION:
  Two applications for the same employee and leave type validated at the
  same time both see the same balance (check-then-act). Closing that gap
  needs row locks or serializable isolation in the host database; the
  engine deliberately takes no locks.

SEE ALSO:
  - balance.go: Balance computation
  - recovery.go: Recovery date for a pre-existing deficit
  - hooks.go: Lifecycle events that invoke Validate
*/
package accrual

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-accrual/generic"
)

// DecisionState is the terminal state of one validation pass.
type DecisionState string

const (
	SkippedInactive            DecisionState = "skipped_inactive"
	SkippedNoPolicy            DecisionState = "skipped_no_policy"
	Allowed                    DecisionState = "allowed"
	AllowedWithOverride        DecisionState = "allowed_with_override"
	BlockedNegativeBalance     DecisionState = "blocked_negative_balance"
	BlockedInsufficientBalance DecisionState = "blocked_insufficient_balance"
)

// Blocking reports whether the state prevents the transition.
func (s DecisionState) Blocking() bool {
	return s == BlockedNegativeBalance || s == BlockedInsufficientBalance
}

// Decision records how a validation pass ended.
type Decision struct {
	State     DecisionState
	Balance   decimal.Decimal
	Projected decimal.Decimal
	Recovery  *Recovery // set when the balance was already negative
	Message   string    // informational notice for AllowedWithOverride
}

// Validator gates leave applications against the accrued balance.
//
// The balance read and the host's save are not atomic: two applications for
// the same employee and leave type validated concurrently can both pass.
// Closing that needs row locks or serializable isolation in the host.
type Validator struct {
	Calculator *Calculator
	Policies   PolicyStore
}

// NewValidator wires a validator and its calculator to the same host stores.
func NewValidator(policies PolicyStore, employees EmployeeDirectory, ledger LedgerQuery) *Validator {
	return &Validator{
		Calculator: &Calculator{Policies: policies, Employees: employees, Ledger: ledger},
		Policies:   policies,
	}
}

// Validate runs the state machine for app as of today.
//
// A blocked application returns the Decision together with a
// *NegativeBalanceRecoveryError or *InsufficientBalanceError. Any other
// error is a store failure.
func (v *Validator) Validate(ctx context.Context, app LeaveApplication, today generic.TimePoint) (*Decision, error) {
	if app.Inactive() {
		return &Decision{State: SkippedInactive}, nil
	}

	policy, err := v.Policies.PolicyForLeaveType(ctx, app.LeaveType)
	if err != nil {
		return nil, fmt.Errorf("failed to load accrual policy: %w", err)
	}
	if policy == nil {
		return &Decision{State: SkippedNoPolicy}, nil
	}

	balance, err := v.Calculator.Balance(ctx, app.Employee, app.LeaveType, today)
	if err != nil {
		return nil, err
	}
	d := &Decision{State: Allowed, Balance: balance}

	if balance.IsNegative() {
		rec := RecoveryDate(balance.Abs(), policy.AccrualRate, today)
		d.Recovery = &rec
		if app.FromDate.Before(rec.Date) {
			d.State = BlockedNegativeBalance
			return d, &NegativeBalanceRecoveryError{
				PolicyName:   policy.DisplayName(),
				Employee:     app.Employee,
				LeaveType:    app.LeaveType,
				Balance:      balance,
				MonthsNeeded: rec.MonthsNeeded,
				EarliestDate: rec.Date,
				FallbackRate: rec.FallbackRate,
			}
		}
	}

	d.Projected = balance.Sub(app.TotalLeaveDays)
	if !d.Projected.IsNegative() {
		return d, nil
	}

	if policy.HROverrideAllowed && app.HROverride {
		d.State = AllowedWithOverride
		d.Message = fmt.Sprintf("Proceeding with insufficient balance (HR Override): available %s, requested %s, projected %s",
			balance.StringFixed(generic.DisplayPlaces), app.TotalLeaveDays.String(), d.Projected.StringFixed(generic.DisplayPlaces))
		return d, nil
	}

	d.State = BlockedInsufficientBalance
	return d, &InsufficientBalanceError{
		PolicyName: policy.DisplayName(),
		Employee:   app.Employee,
		LeaveType:  app.LeaveType,
		Available:  balance,
		Requested:  app.TotalLeaveDays,
		Projected:  d.Projected,
	}
}
