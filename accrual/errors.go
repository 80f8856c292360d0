package accrual

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-accrual/generic"
)

// =============================================================================
// STRUCTURED ERRORS - Carry the figures shown to the user
// =============================================================================

// PolicyValidationError lists every invariant a policy breaks.
type PolicyValidationError struct {
	LeaveType generic.LeaveTypeName
	Problems  []string
}

func (e *PolicyValidationError) Error() string {
	return fmt.Sprintf("invalid accrual policy for %q: %s", e.LeaveType, strings.Join(e.Problems, "; "))
}

func (e *PolicyValidationError) Unwrap() error {
	return generic.ErrPolicyValidation
}

// InsufficientBalanceError blocks a submission whose projected balance is negative.
type InsufficientBalanceError struct {
	PolicyName string
	Employee   generic.EmployeeID
	LeaveType  generic.LeaveTypeName
	Available  decimal.Decimal
	Requested  decimal.Decimal
	Projected  decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient leave balance based on accrual policy %q: available %s, requested %s, projected %s; HR override required",
		e.PolicyName, e.Available.StringFixed(generic.DisplayPlaces), e.Requested.String(), e.Projected.StringFixed(generic.DisplayPlaces))
}

func (e *InsufficientBalanceError) Unwrap() error {
	return generic.ErrInsufficientBalance
}

// NegativeBalanceRecoveryError blocks leave starting before a pre-existing
// deficit is recovered.
type NegativeBalanceRecoveryError struct {
	PolicyName   string
	Employee     generic.EmployeeID
	LeaveType    generic.LeaveTypeName
	Balance      decimal.Decimal
	MonthsNeeded int
	EarliestDate generic.TimePoint
	FallbackRate bool
}

func (e *NegativeBalanceRecoveryError) Error() string {
	msg := fmt.Sprintf("leave balance for %q is negative (%s); %d month(s) of accrual needed, earliest allowed start date is %s",
		e.LeaveType, e.Balance.StringFixed(generic.DisplayPlaces), e.MonthsNeeded, e.EarliestDate)
	if e.FallbackRate {
		msg += " (policy has no positive accrual rate, assumed 1 day per month)"
	}
	return msg
}

func (e *NegativeBalanceRecoveryError) Unwrap() error {
	return generic.ErrNegativeBalanceRecovery
}
