/*
store.go - Read interfaces onto the host's records

PURPOSE:
  The engine owns no storage. Policies, employees, leave types and the
  approved-leave ledger belong to the host; these interfaces are the only
  way the engine sees them.

LOOKUP CONTRACT:
  PolicyForLeaveType and Employee return (nil, nil) for a missing record.
  Missing records are not errors: the engine degrades to "no constraint".
  A non-nil error always means the store itself failed.

IMPLEMENTATIONS:
  - store/memory: In-memory, for tests and tooling
  - store/sqlite: SQLite persistence used by cmd/server

SEE ALSO:
  - balance.go: Reads PolicyStore, EmployeeDirectory, LedgerQuery
  - sync.go: Reads PolicyStore, writes LeaveTypeStore
*/
package accrual

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-accrual/generic"
)

// PolicyStore resolves the accrual policy configured for a leave type.
type PolicyStore interface {
	PolicyForLeaveType(ctx context.Context, leaveType generic.LeaveTypeName) (*AccrualPolicy, error)
}

// EmployeeDirectory resolves employee records.
type EmployeeDirectory interface {
	Employee(ctx context.Context, id generic.EmployeeID) (*Employee, error)
}

// LedgerQuery sums leave already taken.
type LedgerQuery interface {
	// TakenDays returns the total TotalLeaveDays of approved, submitted
	// applications whose FromDate falls inside window. An open window has
	// no upper bound.
	TakenDays(ctx context.Context, employee generic.EmployeeID, leaveType generic.LeaveTypeName, window generic.Period) (decimal.Decimal, error)
}

// LeaveTypeStore reads leave types and updates their holiday flag.
type LeaveTypeStore interface {
	LeaveType(ctx context.Context, name generic.LeaveTypeName) (*LeaveType, error)

	// SetIncludeHoliday writes the flag directly. It must not dispatch
	// on_update hooks, which is what keeps PolicySync from re-triggering itself.
	SetIncludeHoliday(ctx context.Context, name generic.LeaveTypeName, include bool) error
}
