package api

import (
	"fmt"

	"github.com/warp/leave-accrual/accrual"
	"github.com/warp/leave-accrual/generic"
)

// Action is a host workflow step on a leave application. Only submit runs
// the engine; approve, reject and cancel are plain status changes.
type Action string

const (
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionCancel  Action = "cancel"
)

// applyTransition moves app to the state reached by action.
//
//	Draft(0) --submit--> Submitted(1) --approve--> Approved(1)
//	                                  --reject---> Rejected(1)
//	any non-cancelled  --cancel--> Cancelled(2)
func applyTransition(app *accrual.LeaveApplication, action Action) error {
	switch action {
	case ActionSubmit:
		if app.DocStatus != accrual.DocDraft || app.Status != accrual.StatusDraft {
			return invalidTransition(app, action)
		}
		app.DocStatus = accrual.DocSubmitted
		app.Status = accrual.StatusSubmitted

	case ActionApprove, ActionReject:
		if app.DocStatus != accrual.DocSubmitted || app.Status != accrual.StatusSubmitted {
			return invalidTransition(app, action)
		}
		app.Status = accrual.StatusApproved
		if action == ActionReject {
			app.Status = accrual.StatusRejected
		}

	case ActionCancel:
		if app.Status == accrual.StatusCancelled || app.DocStatus == accrual.DocCancelled {
			return invalidTransition(app, action)
		}
		app.Status = accrual.StatusCancelled
		app.DocStatus = accrual.DocCancelled

	default:
		return fmt.Errorf("%w: unknown action %q", generic.ErrInvalidTransition, action)
	}
	return nil
}

func invalidTransition(app *accrual.LeaveApplication, action Action) error {
	return fmt.Errorf("%w: cannot %s a %s application (docstatus %d)",
		generic.ErrInvalidTransition, action, app.Status, app.DocStatus)
}
