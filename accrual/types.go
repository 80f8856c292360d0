// Package accrual implements the leave accrual and balance engine: balance
// calculation, negative-balance recovery scheduling, the leave-application
// validator and the policy-to-leave-type sync.
//
// The engine is pure over its inputs. Host records are read through the
// interfaces in store.go and "today" is always passed in by the caller.
package accrual

import (
	"github.com/shopspring/decimal"
	"github.com/warp/leave-accrual/generic"
)

// =============================================================================
// ACCRUAL POLICY
// =============================================================================

// AccrualType controls how a policy's rate turns into earned days.
type AccrualType string

const (
	AccrualMonthly   AccrualType = "Monthly"   // rate per calendar month, posted at month start
	AccrualQuarterly AccrualType = "Quarterly" // rate per quarter, prorated by day
	AccrualYearly    AccrualType = "Yearly"    // rate per year, prorated by day
)

// Valid reports whether t is a known accrual type.
func (t AccrualType) Valid() bool {
	switch t {
	case AccrualMonthly, AccrualQuarterly, AccrualYearly:
		return true
	}
	return false
}

// AccrualPolicy is the HR-maintained accrual configuration for one leave type.
type AccrualPolicy struct {
	Name                 string
	LeaveType            generic.LeaveTypeName
	AccrualType          AccrualType
	AccrualRate          decimal.Decimal
	MaxAnnualEntitlement decimal.NullDecimal // cap on earned days per year; unset = no cap
	RoundingIncrement    decimal.NullDecimal // unset = 2-place rounding only
	HROverrideAllowed    bool
	ExcludeHolidays      bool
}

// =============================================================================
// EMPLOYEE
// =============================================================================

type EmployeeStatus string

const (
	EmployeeActive   EmployeeStatus = "Active"
	EmployeeInactive EmployeeStatus = "Inactive"
	EmployeeLeft     EmployeeStatus = "Left"
)

// Employee is the slice of the employee record the engine reads.
type Employee struct {
	ID            generic.EmployeeID
	Name          string
	DateOfJoining *generic.TimePoint
	Status        EmployeeStatus
}

// =============================================================================
// LEAVE APPLICATION
// =============================================================================

type ApplicationStatus string

const (
	StatusDraft     ApplicationStatus = "Draft"
	StatusSubmitted ApplicationStatus = "Submitted"
	StatusApproved  ApplicationStatus = "Approved"
	StatusRejected  ApplicationStatus = "Rejected"
	StatusCancelled ApplicationStatus = "Cancelled"
)

// DocStatus is the host's document lifecycle state.
type DocStatus int

const (
	DocDraft     DocStatus = 0
	DocSubmitted DocStatus = 1
	DocCancelled DocStatus = 2
)

// LeaveApplication is a request for leave. It counts against the ledger only
// once DocStatus is DocSubmitted and Status is StatusApproved.
type LeaveApplication struct {
	ID             generic.ApplicationID
	Employee       generic.EmployeeID
	LeaveType      generic.LeaveTypeName
	FromDate       generic.TimePoint
	ToDate         generic.TimePoint
	TotalLeaveDays decimal.Decimal
	Status         ApplicationStatus
	DocStatus      DocStatus
	HROverride     bool
	Reason         string
}

// Counted reports whether the application is part of the ledger.
func (a LeaveApplication) Counted() bool {
	return a.Status == StatusApproved && a.DocStatus == DocSubmitted
}

// Inactive reports whether the application is exempt from balance checks.
func (a LeaveApplication) Inactive() bool {
	return a.Status == StatusRejected || a.Status == StatusCancelled
}

// =============================================================================
// LEAVE TYPE
// =============================================================================

// LeaveType is the host's leave type record. IncludeHoliday means holidays
// inside a leave period are counted as leave days.
type LeaveType struct {
	Name           generic.LeaveTypeName
	IncludeHoliday bool
}
