package accrual_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-accrual/accrual"
	"github.com/warp/leave-accrual/generic"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newHooks(f *fixture, logger *zap.Logger) *accrual.Hooks {
	return &accrual.Hooks{
		Validator: f.validator(),
		Sync:      &accrual.PolicySync{Policies: f.store, LeaveTypes: f.store},
		Logger:    logger,
	}
}

func TestParseEvent(t *testing.T) {
	for _, name := range []string{"validate", "before_submit", "on_update"} {
		e, err := accrual.ParseEvent(name)
		require.NoError(t, err)
		assert.Equal(t, name, string(e))
	}

	_, err := accrual.ParseEvent("on_trash")
	assert.ErrorIs(t, err, generic.ErrUnknownEvent)
}

func TestHooks_ValidateAndBeforeSubmitAgree(t *testing.T) {
	f := newFixture(t, monthlyPolicy("1"))
	hooks := newHooks(f, nil)
	today := date("2025-01-10")

	for _, app := range []accrual.LeaveApplication{draft("2025-01-20", "1"), draft("2025-01-20", "5")} {
		onValidate, errValidate := hooks.OnLeaveApplication(f.ctx, accrual.EventValidate, app, today)
		onSubmit, errSubmit := hooks.OnLeaveApplication(f.ctx, accrual.EventBeforeSubmit, app, today)

		assert.Equal(t, onValidate, onSubmit)
		assert.Equal(t, errValidate == nil, errSubmit == nil)
	}
}

func TestHooks_RejectsUnknownEvents(t *testing.T) {
	f := newFixture(t, monthlyPolicy("1"))
	hooks := newHooks(f, nil)

	_, err := hooks.OnLeaveApplication(f.ctx, accrual.EventOnUpdate, draft("2025-01-20", "1"), date("2025-01-10"))
	assert.ErrorIs(t, err, generic.ErrUnknownEvent)

	_, err = hooks.OnLeaveType(f.ctx, accrual.EventValidate, &accrual.LeaveType{Name: annualLeave})
	assert.ErrorIs(t, err, generic.ErrUnknownEvent)
}

func TestHooks_OverrideIsLogged(t *testing.T) {
	// GIVEN: a policy that allows HR override and an observed logger
	policy := monthlyPolicy("1")
	policy.HROverrideAllowed = true
	f := newFixture(t, policy)
	core, logs := observer.New(zap.InfoLevel)
	hooks := newHooks(f, zap.New(core))

	// WHEN: an overridden application is submitted
	app := draft("2025-01-20", "5")
	app.HROverride = true
	decision, err := hooks.OnLeaveApplication(f.ctx, accrual.EventBeforeSubmit, app, date("2025-01-10"))

	// THEN: it proceeds and the override leaves a trace
	require.NoError(t, err)
	assert.Equal(t, accrual.AllowedWithOverride, decision.State)
	require.Equal(t, 1, logs.FilterMessage("HR override used").Len())
}

func TestHooks_OnUpdateSyncsLeaveType(t *testing.T) {
	policy := monthlyPolicy("1")
	policy.ExcludeHolidays = true
	f := newFixture(t, policy)
	lt := accrual.LeaveType{Name: annualLeave, IncludeHoliday: true}
	require.NoError(t, f.store.SaveLeaveType(f.ctx, lt))

	changed, err := newHooks(f, nil).OnLeaveType(f.ctx, accrual.EventOnUpdate, &lt)

	require.NoError(t, err)
	assert.True(t, changed)
	assert.False(t, lt.IncludeHoliday)
}
