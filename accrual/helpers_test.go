package accrual_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-accrual/accrual"
	"github.com/warp/leave-accrual/generic"
	"github.com/warp/leave-accrual/store/memory"
)

const (
	annualLeave generic.LeaveTypeName = "Annual Leave"
	sickLeave   generic.LeaveTypeName = "Sick Leave"
	alice       generic.EmployeeID    = "EMP-0001"
)

func date(s string) generic.TimePoint { return generic.MustParseTimePoint(s) }

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func monthlyPolicy(rate string) accrual.AccrualPolicy {
	return accrual.AccrualPolicy{
		Name:        "Annual Leave Accrual",
		LeaveType:   annualLeave,
		AccrualType: accrual.AccrualMonthly,
		AccrualRate: d(rate),
	}
}

// fixture is a memory store with one employee who joined before the year
// under test, so accrual starts on January 1.
type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *memory.Store
	seq   int
}

func newFixture(t *testing.T, policy accrual.AccrualPolicy) *fixture {
	t.Helper()
	f := &fixture{t: t, ctx: context.Background(), store: memory.New()}
	require.NoError(t, f.store.SavePolicy(f.ctx, policy))
	f.employee(alice, "2023-04-01")
	return f
}

func (f *fixture) employee(id generic.EmployeeID, joined string) {
	f.t.Helper()
	emp := accrual.Employee{ID: id, Name: string(id), Status: accrual.EmployeeActive}
	if joined != "" {
		doj := date(joined)
		emp.DateOfJoining = &doj
	}
	require.NoError(f.t, f.store.SaveEmployee(f.ctx, emp))
}

// taken records approved, submitted leave for alice.
func (f *fixture) taken(from string, days string) {
	f.t.Helper()
	f.application(from, days, accrual.StatusApproved, accrual.DocSubmitted)
}

func (f *fixture) application(from, days string, status accrual.ApplicationStatus, doc accrual.DocStatus) {
	f.t.Helper()
	f.seq++
	require.NoError(f.t, f.store.SaveApplication(f.ctx, accrual.LeaveApplication{
		ID:             generic.ApplicationID(fmt.Sprintf("APP-%03d", f.seq)),
		Employee:       alice,
		LeaveType:      annualLeave,
		FromDate:       date(from),
		ToDate:         date(from),
		TotalLeaveDays: d(days),
		Status:         status,
		DocStatus:      doc,
	}))
}

func (f *fixture) calculator() *accrual.Calculator {
	return &accrual.Calculator{Policies: f.store, Employees: f.store, Ledger: f.store}
}

func (f *fixture) validator() *accrual.Validator {
	return accrual.NewValidator(f.store, f.store, f.store)
}

func (f *fixture) balance(asOn string) decimal.Decimal {
	f.t.Helper()
	b, err := f.calculator().Balance(f.ctx, alice, annualLeave, date(asOn))
	require.NoError(f.t, err)
	return b
}

// draft is an application by alice that has not been submitted yet.
func draft(from string, days string) accrual.LeaveApplication {
	return accrual.LeaveApplication{
		ID:             "APP-NEW",
		Employee:       alice,
		LeaveType:      annualLeave,
		FromDate:       date(from),
		ToDate:         date(from),
		TotalLeaveDays: d(days),
		Status:         accrual.StatusDraft,
		DocStatus:      accrual.DocDraft,
	}
}

func assertDays(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "want %s days, got %s %v", want, got, msgAndArgs)
}
