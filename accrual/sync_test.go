package accrual_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-accrual/accrual"
)

func syncFixture(t *testing.T, excludeHolidays, includeHoliday bool) (*fixture, *accrual.PolicySync, *accrual.LeaveType) {
	policy := monthlyPolicy("1.75")
	policy.ExcludeHolidays = excludeHolidays
	f := newFixture(t, policy)

	lt := accrual.LeaveType{Name: annualLeave, IncludeHoliday: includeHoliday}
	require.NoError(t, f.store.SaveLeaveType(f.ctx, lt))
	return f, &accrual.PolicySync{Policies: f.store, LeaveTypes: f.store}, &lt
}

func TestSync_ClearsIncludeHoliday(t *testing.T) {
	// GIVEN: policy excludes holidays, leave type includes them
	f, sync, lt := syncFixture(t, true, true)

	// WHEN: the leave type is updated
	changed, err := sync.Sync(f.ctx, lt)

	// THEN: the flag is cleared in place and in the store, with one write
	require.NoError(t, err)
	assert.True(t, changed)
	assert.False(t, lt.IncludeHoliday)

	stored, err := f.store.LeaveType(f.ctx, annualLeave)
	require.NoError(t, err)
	assert.False(t, stored.IncludeHoliday)
	assert.Equal(t, 1, f.store.FlagWrites())
}

func TestSync_NoWriteWhenAlreadyInSync(t *testing.T) {
	f, sync, lt := syncFixture(t, true, true)

	_, err := sync.Sync(f.ctx, lt)
	require.NoError(t, err)

	// A second update finds nothing to change.
	changed, err := sync.Sync(f.ctx, lt)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, f.store.FlagWrites())
}

func TestSync_NoChange(t *testing.T) {
	tests := []struct {
		name            string
		excludeHolidays bool
		includeHoliday  bool
	}{
		{"policy includes holidays", false, true},
		{"leave type already excludes", true, false},
		{"neither", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, sync, lt := syncFixture(t, tt.excludeHolidays, tt.includeHoliday)

			changed, err := sync.Sync(f.ctx, lt)

			require.NoError(t, err)
			assert.False(t, changed)
			assert.Equal(t, tt.includeHoliday, lt.IncludeHoliday)
			assert.Zero(t, f.store.FlagWrites())
		})
	}
}

func TestSync_NoPolicy(t *testing.T) {
	f, sync, _ := syncFixture(t, true, true)
	other := &accrual.LeaveType{Name: sickLeave, IncludeHoliday: true}

	changed, err := sync.Sync(f.ctx, other)

	require.NoError(t, err)
	assert.False(t, changed)
	assert.True(t, other.IncludeHoliday)
}
