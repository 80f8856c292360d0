package api

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-accrual/accrual"
	"github.com/warp/leave-accrual/generic"
	"github.com/warp/leave-accrual/store/memory"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var scanDay = generic.MustParseTimePoint("2025-06-30")

// deficitStore holds two active employees on a 1.75 day/month policy.
// EMP-0001 has taken 12 approved days (10.5 earned), EMP-0002 none.
func deficitStore(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	s := memory.New()

	require.NoError(t, s.SavePolicy(ctx, accrual.AccrualPolicy{
		Name:        "Annual Leave Accrual",
		LeaveType:   "Annual Leave",
		AccrualType: accrual.AccrualMonthly,
		AccrualRate: generic.MustParseDecimal("1.75"),
	}))
	joined := generic.MustParseTimePoint("2023-04-01")
	for _, id := range []generic.EmployeeID{"EMP-0001", "EMP-0002"} {
		require.NoError(t, s.SaveEmployee(ctx, accrual.Employee{ID: id, DateOfJoining: &joined, Status: accrual.EmployeeActive}))
	}
	require.NoError(t, s.SaveApplication(ctx, accrual.LeaveApplication{
		ID:             "APP-001",
		Employee:       "EMP-0001",
		LeaveType:      "Annual Leave",
		FromDate:       generic.MustParseTimePoint("2025-05-05"),
		ToDate:         generic.MustParseTimePoint("2025-05-20"),
		TotalLeaveDays: generic.Days(12),
		Status:         accrual.StatusApproved,
		DocStatus:      accrual.DocSubmitted,
	}))
	return s
}

func TestScanDeficits(t *testing.T) {
	store := deficitStore(t)
	calc := accrual.NewValidator(store, store, store).Calculator

	result, err := ScanDeficits(context.Background(), store, calc, scanDay)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Checked)
	require.Len(t, result.Deficits, 1)
	d := result.Deficits[0]
	assert.Equal(t, generic.EmployeeID("EMP-0001"), d.Employee)
	assert.Equal(t, "-1.5", d.Balance.String())
	assert.Equal(t, 1, d.Recovery.MonthsNeeded)
	assert.Equal(t, "2025-07-30", d.Recovery.Date.String())
	assert.Equal(t, 1, result.PerLeaveType["Annual Leave"])
}

func TestScanDeficits_NoneReportsZero(t *testing.T) {
	store := memory.New()
	require.NoError(t, store.SavePolicy(context.Background(), accrual.AccrualPolicy{
		LeaveType: "Sick Leave", AccrualType: accrual.AccrualMonthly, AccrualRate: generic.Days(1),
	}))
	calc := accrual.NewValidator(store, store, store).Calculator

	result, err := ScanDeficits(context.Background(), store, calc, scanDay)

	require.NoError(t, err)
	assert.Empty(t, result.Deficits)
	count, ok := result.PerLeaveType["Sick Leave"]
	assert.True(t, ok)
	assert.Zero(t, count)
}

func TestDeficitScanner_ScanLogsDeficits(t *testing.T) {
	store := deficitStore(t)
	core, logs := observer.New(zapcore.InfoLevel)
	metrics, err := NewMetrics()
	require.NoError(t, err)

	h := NewHandler(store, zap.New(core), metrics)
	h.Clock = func() generic.TimePoint { return scanDay }
	scanner := NewDeficitScanner(h, "@every 1h")

	result, err := scanner.Scan(context.Background())

	require.NoError(t, err)
	assert.Len(t, result.Deficits, 1)
	warnings := logs.FilterMessage("leave balance in deficit").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "EMP-0001", warnings[0].ContextMap()["employee"])
	assert.Equal(t, "2025-07-30", warnings[0].ContextMap()["recovers_on"])
	assert.Equal(t, 1, logs.FilterMessage("deficit scan complete").Len())
}

func TestDeficitScanner_StartStop(t *testing.T) {
	store := deficitStore(t)
	h := NewHandler(store, zap.NewNop(), nil)
	h.Clock = func() generic.TimePoint { return scanDay }

	scanner := NewDeficitScanner(h, "@every 1h")
	require.NoError(t, scanner.Start())
	// A second Start is a no-op.
	require.NoError(t, scanner.Start())
	scanner.Stop()
	scanner.Stop()

	bad := NewDeficitScanner(h, "every day at two")
	assert.Error(t, bad.Start())
}
