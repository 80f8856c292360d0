/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates policies, employees
	and applications that demonstrate one behaviour of the engine.

AVAILABLE SCENARIOS:

	monthly-accrual:   Monthly policy, employee with a past approved leave
	mid-year-join:     Quarterly policy with 0.5-day rounding, recent hire
	yearly-cap:        Yearly policy capped by max annual entitlement
	negative-balance:  Approved leave beyond accrual, recovery blocking
	holiday-sync:      Leave type include_holiday cleared by its policy

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create policies via factory
 3. Create employees
 4. Create applications and walk them through the workflow
 5. Optionally dispatch leave type events

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "negative-balance"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx, h)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset the database. Only use in development/demo environments.
	Dates are relative to the handler clock, so balances look the same
	whatever day the demo runs.

SEE ALSO:
  - handlers.go: Store interface, Clock
  - factory/policy.go: Policy JSON definitions
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/warp/leave-accrual/accrual"
	"github.com/warp/leave-accrual/generic"
)

// ScenarioDTO describes a loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "monthly-accrual",
		Name:        "Monthly Accrual",
		Description: "1.75 days per month, one approved leave earlier this year",
		Category:    "accrual",
	},
	{
		ID:          "mid-year-join",
		Name:        "Mid-Year Join",
		Description: "Quarterly accrual prorated from a recent joining date, rounded to 0.5 days",
		Category:    "accrual",
	},
	{
		ID:          "yearly-cap",
		Name:        "Yearly Cap",
		Description: "30 days per year capped at 12 days of max annual entitlement",
		Category:    "accrual",
	},
	{
		ID:          "negative-balance",
		Name:        "Negative Balance",
		Description: "Approved leave beyond accrual; new leave blocked until the deficit recovers",
		Category:    "validation",
	},
	{
		ID:          "holiday-sync",
		Name:        "Holiday Sync",
		Description: "Policy excluding holidays clears include_holiday on its leave type",
		Category:    "sync",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.scenarioMu.Lock()
	current := h.currentScenario
	h.scenarioMu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current, Description: "Currently loaded scenario"})
}

// LoadScenario resets the store and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var load func(context.Context) error
	switch req.ScenarioID {
	case "monthly-accrual":
		load = h.loadMonthlyAccrualScenario
	case "mid-year-join":
		load = h.loadMidYearJoinScenario
	case "yearly-cap":
		load = h.loadYearlyCapScenario
	case "negative-balance":
		load = h.loadNegativeBalanceScenario
	case "holiday-sync":
		load = h.loadHolidaySyncScenario
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	h.scenarioMu.Lock()
	defer h.scenarioMu.Unlock()

	ctx := r.Context()
	h.currentScenario = ""
	if err := h.Store.Reset(ctx); err != nil {
		h.internalError(w, "Failed to reset database", err)
		return
	}
	if err := load(ctx); err != nil {
		h.internalError(w, fmt.Sprintf("Failed to load scenario %s", req.ScenarioID), err)
		return
	}
	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadMonthlyAccrualScenario(ctx context.Context) error {
	if err := h.createPolicyFromJSON(ctx, `{
		"name": "Annual Leave Accrual",
		"leave_type": "Annual Leave",
		"accrual_type": "Monthly",
		"accrual_rate": 1.75,
		"max_annual_entitlement": 21
	}`); err != nil {
		return err
	}

	today := h.Clock()
	if err := h.createEmployee(ctx, "emp-001", "Alice Johnson", today.AddMonths(-26)); err != nil {
		return err
	}

	// Two days on the first working days of the year
	from := generic.StartOfYear(today.Year()).AddDays(1)
	return h.createApprovedApplication(ctx, "app-monthly-001", "emp-001", "Annual Leave", from, from.AddDays(1), 2)
}

func (h *Handler) loadMidYearJoinScenario(ctx context.Context) error {
	if err := h.createPolicyFromJSON(ctx, `{
		"name": "Casual Leave Accrual",
		"leave_type": "Casual Leave",
		"accrual_type": "Quarterly",
		"accrual_rate": 3,
		"rounding_increment": 0.5
	}`); err != nil {
		return err
	}

	// Joined 100 days ago; if that was last year the window start wins.
	return h.createEmployee(ctx, "emp-mid", "Bob Martinez", h.Clock().AddDays(-100))
}

func (h *Handler) loadYearlyCapScenario(ctx context.Context) error {
	if err := h.createPolicyFromJSON(ctx, `{
		"name": "Earned Leave Accrual",
		"leave_type": "Earned Leave",
		"accrual_type": "Yearly",
		"accrual_rate": 30,
		"max_annual_entitlement": 12
	}`); err != nil {
		return err
	}

	today := h.Clock()
	if err := h.createEmployee(ctx, "emp-cap", "Carol White", today.AddMonths(-60)); err != nil {
		return err
	}
	return h.createEmployee(ctx, "emp-cap-new", "Dan Green", today.AddDays(-30))
}

func (h *Handler) loadNegativeBalanceScenario(ctx context.Context) error {
	if err := h.createPolicyFromJSON(ctx, `{
		"name": "Sick Leave Accrual",
		"leave_type": "Sick Leave",
		"accrual_type": "Monthly",
		"accrual_rate": 1,
		"hr_override_allowed": true
	}`); err != nil {
		return err
	}

	today := h.Clock()
	if err := h.createEmployee(ctx, "emp-neg", "Erin Black", today.AddMonths(-24)); err != nil {
		return err
	}

	// Three days more than accrued so far this year, approved under HR override.
	yearStart := generic.StartOfYear(today.Year())
	earned := generic.MonthsSpanned(yearStart, today)
	return h.createApprovedApplication(ctx, "app-neg-001", "emp-neg", "Sick Leave",
		yearStart, yearStart.AddDays(earned+2), float64(earned+3))
}

func (h *Handler) loadHolidaySyncScenario(ctx context.Context) error {
	if err := h.createPolicyFromJSON(ctx, `{
		"name": "Annual Leave Accrual",
		"leave_type": "Annual Leave",
		"accrual_type": "Monthly",
		"accrual_rate": 2,
		"exclude_holidays": true
	}`); err != nil {
		return err
	}

	lt := accrual.LeaveType{Name: "Annual Leave", IncludeHoliday: true}
	if err := h.Store.SaveLeaveType(ctx, lt); err != nil {
		return err
	}
	if _, err := h.Hooks.OnLeaveType(ctx, accrual.EventOnUpdate, &lt); err != nil {
		return err
	}

	// A leave type without a policy keeps its flag.
	return h.Store.SaveLeaveType(ctx, accrual.LeaveType{Name: "Unpaid Leave", IncludeHoliday: true})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) createPolicyFromJSON(ctx context.Context, jsonStr string) error {
	policy, err := h.PolicyFactory.ParsePolicy(jsonStr)
	if err != nil {
		return err
	}
	return h.Store.SavePolicy(ctx, *policy)
}

func (h *Handler) createEmployee(ctx context.Context, id generic.EmployeeID, name string, joined generic.TimePoint) error {
	return h.Store.SaveEmployee(ctx, accrual.Employee{
		ID:            id,
		Name:          name,
		DateOfJoining: &joined,
		Status:        accrual.EmployeeActive,
	})
}

// createApprovedApplication walks a draft through submit and approve. The
// validator is bypassed: scenarios may need leave the balance would block.
func (h *Handler) createApprovedApplication(ctx context.Context, id generic.ApplicationID, employee generic.EmployeeID, leaveType generic.LeaveTypeName, from, to generic.TimePoint, totalDays float64) error {
	app := accrual.LeaveApplication{
		ID:             id,
		Employee:       employee,
		LeaveType:      leaveType,
		FromDate:       from,
		ToDate:         to,
		TotalLeaveDays: generic.Days(totalDays),
		Status:         accrual.StatusDraft,
		DocStatus:      accrual.DocDraft,
		HROverride:     true,
		Reason:         "Demo scenario",
	}
	for _, action := range []Action{ActionSubmit, ActionApprove} {
		if err := applyTransition(&app, action); err != nil {
			return err
		}
	}
	return h.Store.SaveApplication(ctx, app)
}
