/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Day quantities leave
  the engine as decimal.Decimal and are rendered here as 2-place floats.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Employee:    EmployeeDTO, CreateEmployeeRequest
  Balance:     BalanceDTO, BalanceBreakdownDTO
  Application: ApplicationDTO, CreateApplicationRequest, DecisionDTO
  Leave type:  LeaveTypeDTO, UpdateLeaveTypeRequest
  Policy:      factory.PolicyJSON

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/policy.go: PolicyJSON type
*/
package api

import (
	"github.com/shopspring/decimal"
	"github.com/warp/leave-accrual/accrual"
	"github.com/warp/leave-accrual/generic"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	DateOfJoining string `json:"date_of_joining,omitempty"`
	Status        string `json:"status"`
}

// CreateEmployeeRequest is the request body for creating an employee.
type CreateEmployeeRequest struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	DateOfJoining string `json:"date_of_joining"` // YYYY-MM-DD, optional
	Status        string `json:"status,omitempty"`
}

func toEmployeeDTO(e accrual.Employee) EmployeeDTO {
	dto := EmployeeDTO{ID: string(e.ID), Name: e.Name, Status: string(e.Status)}
	if e.DateOfJoining != nil {
		dto.DateOfJoining = e.DateOfJoining.String()
	}
	return dto
}

// =============================================================================
// BALANCE
// =============================================================================

// Balance indicators shown next to the leave type on the application form.
const (
	IndicatorGreen = "green"
	IndicatorRed   = "red"
)

// BalanceDTO is the get_leave_balance response.
type BalanceDTO struct {
	Employee  string  `json:"employee"`
	LeaveType string  `json:"leave_type"`
	AsOnDate  string  `json:"as_on_date"`
	Balance   float64 `json:"balance"`
	Indicator string  `json:"indicator"`
}

// BalanceBreakdownDTO shows every figure behind a balance.
type BalanceBreakdownDTO struct {
	BalanceDTO
	HasPolicy    bool    `json:"has_policy"`
	PolicyName   string  `json:"policy_name,omitempty"`
	AccrualType  string  `json:"accrual_type,omitempty"`
	AccrualStart string  `json:"accrual_start,omitempty"`
	WindowStart  string  `json:"window_start"`
	WindowEnd    string  `json:"window_end,omitempty"` // empty: no upper bound
	RawEarned    float64 `json:"raw_earned"`
	Earned       float64 `json:"earned"`
	Capped       bool    `json:"capped"`
	Taken        float64 `json:"taken"`
}

func indicatorFor(balance decimal.Decimal) string {
	if balance.IsPositive() {
		return IndicatorGreen
	}
	return IndicatorRed
}

func toBalanceDTO(b *accrual.BalanceBreakdown) BalanceDTO {
	return BalanceDTO{
		Employee:  string(b.Employee),
		LeaveType: string(b.LeaveType),
		AsOnDate:  b.AsOn.String(),
		Balance:   days(b.Balance),
		Indicator: indicatorFor(b.Balance),
	}
}

func toBreakdownDTO(b *accrual.BalanceBreakdown) BalanceBreakdownDTO {
	dto := BalanceBreakdownDTO{
		BalanceDTO:  toBalanceDTO(b),
		HasPolicy:   b.Policy != nil,
		WindowStart: b.Window.Start.String(),
		RawEarned:   days(b.RawEarned),
		Earned:      days(b.Earned),
		Capped:      b.Capped,
		Taken:       days(b.Taken),
	}
	if !b.Window.Open() {
		dto.WindowEnd = b.Window.End.String()
	}
	if b.Policy != nil {
		dto.PolicyName = b.Policy.DisplayName()
		dto.AccrualType = string(b.Policy.AccrualType)
	}
	if !b.AccrualStart.IsZero() {
		dto.AccrualStart = b.AccrualStart.String()
	}
	return dto
}

// days renders a day quantity for JSON.
func days(d decimal.Decimal) float64 {
	f, _ := generic.RoundDisplay(d).Float64()
	return f
}

// =============================================================================
// LEAVE APPLICATIONS
// =============================================================================

// CreateApplicationRequest is the request body for a new leave application.
type CreateApplicationRequest struct {
	Employee       string  `json:"employee"`
	LeaveType      string  `json:"leave_type"`
	FromDate       string  `json:"from_date"`
	ToDate         string  `json:"to_date"`
	TotalLeaveDays float64 `json:"total_leave_days"`
	HROverride     bool    `json:"hr_override,omitempty"`
	Reason         string  `json:"reason,omitempty"`
}

// ApplicationDTO represents a leave application in API responses.
type ApplicationDTO struct {
	ID             string       `json:"id"`
	Employee       string       `json:"employee"`
	LeaveType      string       `json:"leave_type"`
	FromDate       string       `json:"from_date"`
	ToDate         string       `json:"to_date"`
	TotalLeaveDays float64      `json:"total_leave_days"`
	Status         string       `json:"status"`
	DocStatus      int          `json:"docstatus"`
	HROverride     bool         `json:"hr_override"`
	Reason         string       `json:"reason,omitempty"`
	Decision       *DecisionDTO `json:"decision,omitempty"`
	Messages       []string     `json:"messages,omitempty"`
}

// DecisionDTO is the validator outcome attached to create and submit responses.
type DecisionDTO struct {
	State        string   `json:"state"`
	Balance      *float64 `json:"balance,omitempty"`
	Projected    *float64 `json:"projected,omitempty"`
	RecoveryDate string   `json:"recovery_date,omitempty"`
}

func toApplicationDTO(app accrual.LeaveApplication) ApplicationDTO {
	return ApplicationDTO{
		ID:             string(app.ID),
		Employee:       string(app.Employee),
		LeaveType:      string(app.LeaveType),
		FromDate:       app.FromDate.String(),
		ToDate:         app.ToDate.String(),
		TotalLeaveDays: days(app.TotalLeaveDays),
		Status:         string(app.Status),
		DocStatus:      int(app.DocStatus),
		HROverride:     app.HROverride,
		Reason:         app.Reason,
	}
}

func toDecisionDTO(d *accrual.Decision) *DecisionDTO {
	if d == nil {
		return nil
	}
	dto := &DecisionDTO{State: string(d.State)}
	switch d.State {
	case accrual.SkippedInactive, accrual.SkippedNoPolicy:
		return dto
	}
	balance := days(d.Balance)
	dto.Balance = &balance
	if d.State != accrual.BlockedNegativeBalance {
		projected := days(d.Projected)
		dto.Projected = &projected
	}
	if d.Recovery != nil {
		dto.RecoveryDate = d.Recovery.Date.String()
	}
	return dto
}

// BlockedResponse is the 422 body for a blocked application.
type BlockedResponse struct {
	Error    string       `json:"error"`
	Details  string       `json:"details"`
	Decision *DecisionDTO `json:"decision,omitempty"`
}

// =============================================================================
// LEAVE TYPES
// =============================================================================

// UpdateLeaveTypeRequest is the request body for saving a leave type.
type UpdateLeaveTypeRequest struct {
	IncludeHoliday bool `json:"include_holiday"`
}

// LeaveTypeDTO represents a leave type in API responses.
type LeaveTypeDTO struct {
	Name           string `json:"name"`
	IncludeHoliday bool   `json:"include_holiday"`
	Synced         bool   `json:"synced_from_policy,omitempty"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the error body for every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
