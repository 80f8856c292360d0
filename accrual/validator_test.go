package accrual_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-accrual/accrual"
	"github.com/warp/leave-accrual/generic"
)

// Scenario used below: 1.75 days/month, 5 days already taken in January,
// so on 2025-01-15 the balance is 1.75 - 5 = -3.25 and accrual recovers it
// after ceil(3.25 / 1.75) = 2 months, on 2025-03-15.
func deficitFixture(t *testing.T, hrOverrideAllowed bool) *fixture {
	policy := monthlyPolicy("1.75")
	policy.HROverrideAllowed = hrOverrideAllowed
	f := newFixture(t, policy)
	f.taken("2025-01-06", "5")
	return f
}

func TestValidate_SufficientBalance_Allowed(t *testing.T) {
	// GIVEN: 10.5 days available on June 30
	f := newFixture(t, monthlyPolicy("1.75"))

	// WHEN: requesting 3 days
	decision, err := f.validator().Validate(f.ctx, draft("2025-07-07", "3"), date("2025-06-30"))

	// THEN: allowed, projected balance 7.5
	require.NoError(t, err)
	assert.Equal(t, accrual.Allowed, decision.State)
	assertDays(t, "10.5", decision.Balance)
	assertDays(t, "7.5", decision.Projected)
	assert.Nil(t, decision.Recovery)
}

func TestValidate_ProjectedExactlyZero_Allowed(t *testing.T) {
	f := newFixture(t, monthlyPolicy("1"))

	decision, err := f.validator().Validate(f.ctx, draft("2025-01-20", "1"), date("2025-01-10"))

	require.NoError(t, err)
	assert.Equal(t, accrual.Allowed, decision.State)
	assert.True(t, decision.Projected.IsZero())
}

func TestValidate_InsufficientBalance_Blocked(t *testing.T) {
	// GIVEN: balance 1.0 and no HR override
	f := newFixture(t, monthlyPolicy("1"))

	// WHEN: requesting 5 days
	decision, err := f.validator().Validate(f.ctx, draft("2025-01-20", "5"), date("2025-01-10"))

	// THEN: blocked with the figures
	require.Error(t, err)
	assert.ErrorIs(t, err, generic.ErrInsufficientBalance)
	assert.True(t, generic.IsSubmissionBlocked(err))

	var insufficient *accrual.InsufficientBalanceError
	require.True(t, errors.As(err, &insufficient))
	assertDays(t, "1", insufficient.Available)
	assertDays(t, "5", insufficient.Requested)
	assertDays(t, "-4", insufficient.Projected)
	assert.Equal(t, "Annual Leave Accrual", insufficient.PolicyName)
	assert.Contains(t, err.Error(), "HR override required")

	require.NotNil(t, decision)
	assert.Equal(t, accrual.BlockedInsufficientBalance, decision.State)
	assert.True(t, decision.State.Blocking())
}

func TestValidate_ApprovedLeaveNextYear_Blocks(t *testing.T) {
	// GIVEN: 21 days earned by 2025-12-15, 20 already approved for January
	f := newFixture(t, monthlyPolicy("1.75"))
	f.taken("2026-01-05", "20")

	// WHEN: requesting 5 more days over Christmas
	decision, err := f.validator().Validate(f.ctx, draft("2025-12-22", "5"), date("2025-12-15"))

	// THEN: only 1 day is left, so the request is blocked
	require.Error(t, err)
	assert.ErrorIs(t, err, generic.ErrInsufficientBalance)
	assertDays(t, "1", decision.Balance)
	assertDays(t, "-4", decision.Projected)
}

func TestValidate_HROverride(t *testing.T) {
	tests := []struct {
		name        string
		allowed     bool
		requested   bool
		wantState   accrual.DecisionState
		wantBlocked bool
	}{
		{"policy allows and override set", true, true, accrual.AllowedWithOverride, false},
		{"policy allows, override not set", true, false, accrual.BlockedInsufficientBalance, true},
		{"override set, policy forbids", false, true, accrual.BlockedInsufficientBalance, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := monthlyPolicy("1")
			policy.HROverrideAllowed = tt.allowed
			f := newFixture(t, policy)

			app := draft("2025-01-20", "5")
			app.HROverride = tt.requested
			decision, err := f.validator().Validate(f.ctx, app, date("2025-01-10"))

			require.NotNil(t, decision)
			assert.Equal(t, tt.wantState, decision.State)
			if tt.wantBlocked {
				assert.ErrorIs(t, err, generic.ErrInsufficientBalance)
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(decision.Message, "Proceeding with insufficient balance (HR Override)"))
			assertDays(t, "-4", decision.Projected)
		})
	}
}

func TestValidate_NegativeBalance_BlockedBeforeRecovery(t *testing.T) {
	// GIVEN: a balance of -3.25 that recovers on 2025-03-15
	f := deficitFixture(t, true)

	// WHEN: leave starts on March 1, even with HR override
	app := draft("2025-03-01", "1")
	app.HROverride = true
	decision, err := f.validator().Validate(f.ctx, app, date("2025-01-15"))

	// THEN: blocked by the recovery rule, which override cannot lift
	require.Error(t, err)
	assert.ErrorIs(t, err, generic.ErrNegativeBalanceRecovery)

	var recovery *accrual.NegativeBalanceRecoveryError
	require.True(t, errors.As(err, &recovery))
	assertDays(t, "-3.25", recovery.Balance)
	assert.Equal(t, 2, recovery.MonthsNeeded)
	assert.Equal(t, "2025-03-15", recovery.EarliestDate.String())
	assert.False(t, recovery.FallbackRate)

	assert.Equal(t, accrual.BlockedNegativeBalance, decision.State)
	require.NotNil(t, decision.Recovery)
	assert.Equal(t, "2025-03-15", decision.Recovery.Date.String())
}

func TestValidate_NegativeBalance_OnRecoveryDate_FallsThroughToProjection(t *testing.T) {
	// GIVEN: a balance of -3.25 that recovers on 2025-03-15
	f := deficitFixture(t, false)

	// WHEN: leave starts exactly on the recovery date
	decision, err := f.validator().Validate(f.ctx, draft("2025-03-15", "1"), date("2025-01-15"))

	// THEN: the recovery rule passes; the projected balance still blocks
	assert.ErrorIs(t, err, generic.ErrInsufficientBalance)
	assert.Equal(t, accrual.BlockedInsufficientBalance, decision.State)
	assertDays(t, "-4.25", decision.Projected)
	require.NotNil(t, decision.Recovery)
}

func TestValidate_NegativeBalance_OverrideAfterRecovery(t *testing.T) {
	f := deficitFixture(t, true)

	app := draft("2025-04-01", "1")
	app.HROverride = true
	decision, err := f.validator().Validate(f.ctx, app, date("2025-01-15"))

	require.NoError(t, err)
	assert.Equal(t, accrual.AllowedWithOverride, decision.State)
}

func TestValidate_NegativeBalance_ZeroRateUsesFallback(t *testing.T) {
	// GIVEN: a zero-rate policy and 2 days already taken
	f := newFixture(t, monthlyPolicy("0"))
	f.taken("2025-01-06", "2")

	// WHEN: leave starts a month later
	_, err := f.validator().Validate(f.ctx, draft("2025-02-15", "1"), date("2025-01-15"))

	// THEN: recovery assumed 1 day/month, and says so
	var recovery *accrual.NegativeBalanceRecoveryError
	require.True(t, errors.As(err, &recovery))
	assert.Equal(t, 2, recovery.MonthsNeeded)
	assert.True(t, recovery.FallbackRate)
	assert.Contains(t, err.Error(), "assumed 1 day per month")
}

func TestValidate_InactiveApplications_Skipped(t *testing.T) {
	f := deficitFixture(t, false)

	for _, status := range []accrual.ApplicationStatus{accrual.StatusRejected, accrual.StatusCancelled} {
		t.Run(string(status), func(t *testing.T) {
			app := draft("2025-01-20", "100")
			app.Status = status

			decision, err := f.validator().Validate(f.ctx, app, date("2025-01-15"))

			require.NoError(t, err)
			assert.Equal(t, accrual.SkippedInactive, decision.State)
		})
	}
}

func TestValidate_NoPolicy_Skipped(t *testing.T) {
	f := newFixture(t, monthlyPolicy("1"))
	app := draft("2025-01-20", "100")
	app.LeaveType = sickLeave

	decision, err := f.validator().Validate(f.ctx, app, date("2025-01-15"))

	require.NoError(t, err)
	assert.Equal(t, accrual.SkippedNoPolicy, decision.State)
}

func TestValidate_StoreFailure_NotABlock(t *testing.T) {
	f := newFixture(t, monthlyPolicy("1"))
	v := accrual.NewValidator(f.store, f.store, failingLedger{})

	decision, err := v.Validate(f.ctx, draft("2025-01-20", "1"), date("2025-01-15"))

	assert.Nil(t, decision)
	assert.ErrorIs(t, err, errDatabaseDown)
	assert.False(t, generic.IsSubmissionBlocked(err))
}

func TestValidate_Deterministic(t *testing.T) {
	f := deficitFixture(t, false)
	app := draft("2025-03-01", "1")

	first, err1 := f.validator().Validate(f.ctx, app, date("2025-01-15"))
	second, err2 := f.validator().Validate(f.ctx, app, date("2025-01-15"))

	assert.Equal(t, first, second)
	assert.Equal(t, err1.Error(), err2.Error())
}
