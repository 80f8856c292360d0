package accrual_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-accrual/accrual"
	"github.com/warp/leave-accrual/generic"
	"github.com/warp/leave-accrual/store/memory"
)

func TestPolicyValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*accrual.AccrualPolicy)
		wantProblem string
	}{
		{"valid", func(*accrual.AccrualPolicy) {}, ""},
		{"zero rate is valid", func(p *accrual.AccrualPolicy) { p.AccrualRate = decimal.Zero }, ""},
		{"zero increment is valid", func(p *accrual.AccrualPolicy) { p.RoundingIncrement = generic.NullDays(0) }, ""},
		{"negative rate", func(p *accrual.AccrualPolicy) { p.AccrualRate = d("-1") }, "accrual rate cannot be negative"},
		{"negative increment", func(p *accrual.AccrualPolicy) { p.RoundingIncrement = generic.NullDays(-0.5) }, "rounding increment cannot be negative"},
		{"negative cap", func(p *accrual.AccrualPolicy) { p.MaxAnnualEntitlement = generic.NullDays(-1) }, "max annual entitlement cannot be negative"},
		{"unknown accrual type", func(p *accrual.AccrualPolicy) { p.AccrualType = "Weekly" }, "accrual type"},
		{"missing leave type", func(p *accrual.AccrualPolicy) { p.LeaveType = "" }, "leave type is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := monthlyPolicy("1.75")
			tt.mutate(&p)

			err := p.Validate()
			if tt.wantProblem == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, generic.ErrPolicyValidation)
			assert.Contains(t, err.Error(), tt.wantProblem)
		})
	}
}

func TestPolicyValidate_ReportsAllProblems(t *testing.T) {
	p := monthlyPolicy("-1")
	p.RoundingIncrement = generic.NullDays(-1)

	var pve *accrual.PolicyValidationError
	require.True(t, errors.As(p.Validate(), &pve))
	assert.Len(t, pve.Problems, 2)
}

func TestPolicy_RejectedAtSaveTime(t *testing.T) {
	store := memory.New()

	err := store.SavePolicy(context.Background(), monthlyPolicy("-1"))

	assert.ErrorIs(t, err, generic.ErrPolicyValidation)
	p, err := store.PolicyForLeaveType(context.Background(), annualLeave)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestPolicy_DisplayName(t *testing.T) {
	p := monthlyPolicy("1")
	assert.Equal(t, "Annual Leave Accrual", p.DisplayName())

	p.Name = ""
	assert.Equal(t, "Annual Leave", p.DisplayName())
}
