package accrual

import (
	"fmt"
)

// Validate checks the policy invariants enforced when HR saves a policy.
// All problems are reported together.
func (p AccrualPolicy) Validate() error {
	var problems []string

	if p.LeaveType == "" {
		problems = append(problems, "leave type is required")
	}
	if !p.AccrualType.Valid() {
		problems = append(problems, fmt.Sprintf("accrual type %q must be one of Monthly, Quarterly, Yearly", p.AccrualType))
	}
	if p.AccrualRate.IsNegative() {
		problems = append(problems, "accrual rate cannot be negative")
	}
	if p.MaxAnnualEntitlement.Valid && p.MaxAnnualEntitlement.Decimal.IsNegative() {
		problems = append(problems, "max annual entitlement cannot be negative")
	}
	if p.RoundingIncrement.Valid && p.RoundingIncrement.Decimal.IsNegative() {
		problems = append(problems, "rounding increment cannot be negative")
	}

	if len(problems) > 0 {
		return &PolicyValidationError{LeaveType: p.LeaveType, Problems: problems}
	}
	return nil
}

// DisplayName is the policy name, falling back to the leave type.
func (p AccrualPolicy) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return string(p.LeaveType)
}
