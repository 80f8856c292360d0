package accrual

import (
	"context"
	"fmt"

	"github.com/warp/leave-accrual/generic"
	"go.uber.org/zap"
)

// Event names a host document lifecycle point.
type Event string

const (
	EventValidate     Event = "validate"      // leave application saved
	EventBeforeSubmit Event = "before_submit" // leave application about to be submitted
	EventOnUpdate     Event = "on_update"     // leave type updated
)

// ParseEvent maps a lifecycle name to an Event.
func ParseEvent(s string) (Event, error) {
	switch e := Event(s); e {
	case EventValidate, EventBeforeSubmit, EventOnUpdate:
		return e, nil
	}
	return "", fmt.Errorf("%w: %q", generic.ErrUnknownEvent, s)
}

// Hooks is the fixed mapping from lifecycle events to engine functions.
// The host calls it; the engine registers nothing.
type Hooks struct {
	Validator *Validator
	Sync      *PolicySync
	Logger    *zap.Logger
}

func (h *Hooks) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

// OnLeaveApplication handles validate and before_submit. Both run the same
// validation; neither has side effects beyond the returned decision.
func (h *Hooks) OnLeaveApplication(ctx context.Context, event Event, app LeaveApplication, today generic.TimePoint) (*Decision, error) {
	if event != EventValidate && event != EventBeforeSubmit {
		return nil, fmt.Errorf("%w: %q for leave application", generic.ErrUnknownEvent, event)
	}

	d, err := h.Validator.Validate(ctx, app, today)
	if d != nil {
		h.logger().Debug("leave application validated",
			zap.String("event", string(event)),
			zap.String("employee", string(app.Employee)),
			zap.String("leave_type", string(app.LeaveType)),
			zap.String("state", string(d.State)),
			zap.String("balance", d.Balance.String()))
		if d.State == AllowedWithOverride {
			h.logger().Info("HR override used",
				zap.String("employee", string(app.Employee)),
				zap.String("leave_type", string(app.LeaveType)),
				zap.String("projected", d.Projected.String()))
		}
	}
	return d, err
}

// OnLeaveType handles on_update for leave types.
func (h *Hooks) OnLeaveType(ctx context.Context, event Event, lt *LeaveType) (bool, error) {
	if event != EventOnUpdate {
		return false, fmt.Errorf("%w: %q for leave type", generic.ErrUnknownEvent, event)
	}

	changed, err := h.Sync.Sync(ctx, lt)
	if err != nil {
		return false, err
	}
	if changed {
		h.logger().Info("leave type synced from accrual policy",
			zap.String("leave_type", string(lt.Name)),
			zap.Bool("include_holiday", lt.IncludeHoliday))
	}
	return changed, nil
}
