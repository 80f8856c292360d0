/*
handlers.go - HTTP API handlers for the leave accrual engine

PURPOSE:
  Plays the host around the engine: it owns the records, reads the clock,
  dispatches lifecycle events to accrual.Hooks and turns the outcome into
  HTTP responses.

ENDPOINTS:
  Employees:
    GET    /api/employees                          List all employees
    POST   /api/employees                          Create or update employee
    GET    /api/employees/{id}                     Get employee details
    GET    /api/employees/{id}/balance             get_leave_balance
    GET    /api/employees/{id}/balance/breakdown   Balance with every figure
    GET    /api/employees/{id}/applications        Employee's applications

  Policies:
    GET    /api/policies                           List all policies
    POST   /api/policies                           Create or replace a policy
    GET    /api/policies/{leave_type}              Get one policy
    DELETE /api/policies/{leave_type}              Delete a policy (balances drop to 0)

  Leave types:
    GET    /api/leave-types/{name}                 Get leave type
    PUT    /api/leave-types/{name}                 Save, then on_update (policy sync)

  Applications:
    POST   /api/applications                       Create draft, validate
    GET    /api/applications/{id}                  Get application
    POST   /api/applications/{id}/submit           before_submit, then submit
    POST   /api/applications/{id}/approve          Workflow: approve
    POST   /api/applications/{id}/reject           Workflow: reject
    POST   /api/applications/{id}/cancel           Workflow: cancel

  Reports:
    GET    /api/reports/balances.xlsx              Balance report for all employees

  Scenarios (demo data, see scenarios.go):
    GET    /api/scenarios                          List scenarios
    GET    /api/scenarios/current                  Currently loaded scenario
    POST   /api/scenarios/load                     Reset and load a scenario

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed input
  - 404: Resource not found
  - 409: Workflow transition not allowed
  - 422: Policy validation failed, or application blocked by its balance
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - accrual/hooks.go: Lifecycle dispatch
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/warp/leave-accrual/accrual"
	"github.com/warp/leave-accrual/factory"
	"github.com/warp/leave-accrual/generic"
	"go.uber.org/zap"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is everything the host needs from persistence. Both store/sqlite
// and store/memory satisfy it.
type Store interface {
	accrual.PolicyStore
	accrual.EmployeeDirectory
	accrual.LedgerQuery
	accrual.LeaveTypeStore

	SavePolicy(ctx context.Context, p accrual.AccrualPolicy) error
	ListPolicies(ctx context.Context) ([]accrual.AccrualPolicy, error)
	DeletePolicy(ctx context.Context, leaveType generic.LeaveTypeName) error
	SaveEmployee(ctx context.Context, e accrual.Employee) error
	ListEmployees(ctx context.Context) ([]accrual.Employee, error)
	SaveLeaveType(ctx context.Context, lt accrual.LeaveType) error
	SaveApplication(ctx context.Context, app accrual.LeaveApplication) error
	Application(ctx context.Context, id generic.ApplicationID) (*accrual.LeaveApplication, error)
	ApplicationsByEmployee(ctx context.Context, employee generic.EmployeeID) ([]accrual.LeaveApplication, error)
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store         Store
	PolicyFactory *factory.PolicyFactory
	Calculator    *accrual.Calculator
	Hooks         *accrual.Hooks
	Logger        *zap.Logger
	Metrics       *Metrics

	// Clock supplies "today". Tests pin it.
	Clock func() generic.TimePoint

	scenarioMu      sync.Mutex
	currentScenario string
}

// NewHandler wires the engine to store. metrics may be nil.
func NewHandler(store Store, logger *zap.Logger, metrics *Metrics) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	validator := accrual.NewValidator(store, store, store)
	return &Handler{
		Store:         store,
		PolicyFactory: factory.NewPolicyFactory(),
		Calculator:    validator.Calculator,
		Hooks: &accrual.Hooks{
			Validator: validator,
			Sync:      &accrual.PolicySync{Policies: store, LeaveTypes: store},
			Logger:    logger.Named("hooks"),
		},
		Logger:  logger,
		Metrics: metrics,
		Clock:   generic.Today,
	}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		h.internalError(w, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Store.Employee(r.Context(), generic.EmployeeID(chi.URLParam(r, "id")))
	if err != nil {
		h.internalError(w, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// CreateEmployee creates or updates an employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required", nil)
		return
	}

	emp := accrual.Employee{
		ID:     generic.EmployeeID(req.ID),
		Name:   req.Name,
		Status: accrual.EmployeeStatus(req.Status),
	}
	if emp.Status == "" {
		emp.Status = accrual.EmployeeActive
	}
	if req.DateOfJoining != "" {
		doj, err := generic.ParseTimePoint(req.DateOfJoining)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date_of_joining format (use YYYY-MM-DD)", err)
			return
		}
		emp.DateOfJoining = &doj
	}

	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		h.internalError(w, "Failed to save employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// =============================================================================
// BALANCE HANDLERS
// =============================================================================

// GetBalance is get_leave_balance: the balance of one leave type as on a
// date (default today). A missing policy or employee yields 0.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	b, ok := h.breakdown(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(b))
}

// GetBalanceBreakdown returns the balance with earned, cap and taken figures.
func (h *Handler) GetBalanceBreakdown(w http.ResponseWriter, r *http.Request) {
	b, ok := h.breakdown(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toBreakdownDTO(b))
}

func (h *Handler) breakdown(w http.ResponseWriter, r *http.Request) (*accrual.BalanceBreakdown, bool) {
	employee := generic.EmployeeID(chi.URLParam(r, "id"))
	leaveType := r.URL.Query().Get("leave_type")
	if leaveType == "" {
		writeError(w, http.StatusBadRequest, "leave_type is required", nil)
		return nil, false
	}
	asOn, err := h.dateParam(r, "as_on_date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_on_date format (use YYYY-MM-DD)", err)
		return nil, false
	}

	b, err := h.Calculator.Breakdown(r.Context(), employee, generic.LeaveTypeName(leaveType), asOn)
	if err != nil {
		h.internalError(w, "Failed to compute balance", err)
		return nil, false
	}
	return b, true
}

// =============================================================================
// POLICY HANDLERS
// =============================================================================

// ListPolicies returns all accrual policies.
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.Store.ListPolicies(r.Context())
	if err != nil {
		h.internalError(w, "Failed to list policies", err)
		return
	}

	dtos := make([]factory.PolicyJSON, len(policies))
	for i, p := range policies {
		dtos[i] = h.PolicyFactory.ToJSON(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPolicy returns the policy for one leave type.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := h.Store.PolicyForLeaveType(r.Context(), generic.LeaveTypeName(pathParam(r, "leave_type")))
	if err != nil {
		h.internalError(w, "Failed to get policy", err)
		return
	}
	if policy == nil {
		writeError(w, http.StatusNotFound, "Policy not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, h.PolicyFactory.ToJSON(*policy))
}

// CreatePolicy validates and saves a policy from JSON.
func (h *Handler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	var pj factory.PolicyJSON
	if err := json.NewDecoder(r.Body).Decode(&pj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	policy, err := h.PolicyFactory.FromJSON(pj)
	if err != nil {
		h.clientOrInternal(w, "Invalid accrual policy", err)
		return
	}
	if err := h.Store.SavePolicy(r.Context(), *policy); err != nil {
		h.clientOrInternal(w, "Failed to save policy", err)
		return
	}

	h.Logger.Info("accrual policy saved",
		zap.String("leave_type", string(policy.LeaveType)),
		zap.String("accrual_type", string(policy.AccrualType)))
	writeJSON(w, http.StatusCreated, h.PolicyFactory.ToJSON(*policy))
}

// DeletePolicy removes the policy for one leave type. Without a policy the
// leave type has a zero balance and applications skip validation.
func (h *Handler) DeletePolicy(w http.ResponseWriter, r *http.Request) {
	leaveType := generic.LeaveTypeName(pathParam(r, "leave_type"))
	if err := h.Store.DeletePolicy(r.Context(), leaveType); err != nil {
		h.clientOrInternal(w, "Failed to delete policy", err)
		return
	}

	h.Logger.Info("accrual policy deleted", zap.String("leave_type", string(leaveType)))
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// LEAVE TYPE HANDLERS
// =============================================================================

// GetLeaveType returns a leave type.
func (h *Handler) GetLeaveType(w http.ResponseWriter, r *http.Request) {
	lt, err := h.Store.LeaveType(r.Context(), generic.LeaveTypeName(pathParam(r, "name")))
	if err != nil {
		h.internalError(w, "Failed to get leave type", err)
		return
	}
	if lt == nil {
		writeError(w, http.StatusNotFound, "Leave type not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, LeaveTypeDTO{Name: string(lt.Name), IncludeHoliday: lt.IncludeHoliday})
}

// UpdateLeaveType saves a leave type, then dispatches on_update so the
// linked policy can clear include_holiday.
func (h *Handler) UpdateLeaveType(w http.ResponseWriter, r *http.Request) {
	var req UpdateLeaveTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	lt := accrual.LeaveType{Name: generic.LeaveTypeName(pathParam(r, "name")), IncludeHoliday: req.IncludeHoliday}
	if err := h.Store.SaveLeaveType(ctx, lt); err != nil {
		h.internalError(w, "Failed to save leave type", err)
		return
	}

	synced, err := h.Hooks.OnLeaveType(ctx, accrual.EventOnUpdate, &lt)
	if err != nil {
		h.internalError(w, "Failed to sync leave type with accrual policy", err)
		return
	}
	writeJSON(w, http.StatusOK, LeaveTypeDTO{Name: string(lt.Name), IncludeHoliday: lt.IncludeHoliday, Synced: synced})
}

// =============================================================================
// LEAVE APPLICATION HANDLERS
// =============================================================================

// CreateApplication saves a draft after the validate event allows it.
func (h *Handler) CreateApplication(w http.ResponseWriter, r *http.Request) {
	var req CreateApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Employee == "" || req.LeaveType == "" {
		writeError(w, http.StatusBadRequest, "employee and leave_type are required", nil)
		return
	}
	if req.TotalLeaveDays < 0 {
		writeError(w, http.StatusBadRequest, "total_leave_days cannot be negative", nil)
		return
	}

	fromDate, err := generic.ParseTimePoint(req.FromDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from_date format (use YYYY-MM-DD)", err)
		return
	}
	toDate := fromDate
	if req.ToDate != "" {
		if toDate, err = generic.ParseTimePoint(req.ToDate); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid to_date format (use YYYY-MM-DD)", err)
			return
		}
	}
	if toDate.Before(fromDate) {
		writeError(w, http.StatusBadRequest, "to_date cannot be before from_date", nil)
		return
	}

	app := accrual.LeaveApplication{
		ID:             generic.ApplicationID(uuid.NewString()),
		Employee:       generic.EmployeeID(req.Employee),
		LeaveType:      generic.LeaveTypeName(req.LeaveType),
		FromDate:       fromDate,
		ToDate:         toDate,
		TotalLeaveDays: generic.Days(req.TotalLeaveDays),
		Status:         accrual.StatusDraft,
		DocStatus:      accrual.DocDraft,
		HROverride:     req.HROverride,
		Reason:         req.Reason,
	}

	decision, ok := h.dispatch(r.Context(), w, accrual.EventValidate, app)
	if !ok {
		return
	}
	if err := h.Store.SaveApplication(r.Context(), app); err != nil {
		h.internalError(w, "Failed to save leave application", err)
		return
	}
	writeJSON(w, http.StatusCreated, withDecision(app, decision))
}

// GetApplication returns a leave application.
func (h *Handler) GetApplication(w http.ResponseWriter, r *http.Request) {
	app, ok := h.loadApplication(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toApplicationDTO(*app))
}

// ListEmployeeApplications returns an employee's applications, newest first.
func (h *Handler) ListEmployeeApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.Store.ApplicationsByEmployee(r.Context(), generic.EmployeeID(chi.URLParam(r, "id")))
	if err != nil {
		h.internalError(w, "Failed to list leave applications", err)
		return
	}

	dtos := make([]ApplicationDTO, len(apps))
	for i, app := range apps {
		dtos[i] = toApplicationDTO(app)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SubmitApplication dispatches before_submit and submits on allow.
func (h *Handler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	app, ok := h.loadApplication(w, r)
	if !ok {
		return
	}

	submitted := *app
	if err := applyTransition(&submitted, ActionSubmit); err != nil {
		writeError(w, http.StatusConflict, "Leave application cannot be submitted", err)
		return
	}

	decision, ok := h.dispatch(r.Context(), w, accrual.EventBeforeSubmit, *app)
	if !ok {
		return
	}
	if err := h.Store.SaveApplication(r.Context(), submitted); err != nil {
		h.internalError(w, "Failed to submit leave application", err)
		return
	}
	writeJSON(w, http.StatusOK, withDecision(submitted, decision))
}

// ApproveApplication moves a submitted application to Approved. From here
// on it counts against the ledger.
func (h *Handler) ApproveApplication(w http.ResponseWriter, r *http.Request) {
	h.workflow(w, r, ActionApprove)
}

// RejectApplication moves a submitted application to Rejected.
func (h *Handler) RejectApplication(w http.ResponseWriter, r *http.Request) {
	h.workflow(w, r, ActionReject)
}

// CancelApplication cancels an application.
func (h *Handler) CancelApplication(w http.ResponseWriter, r *http.Request) {
	h.workflow(w, r, ActionCancel)
}

func (h *Handler) workflow(w http.ResponseWriter, r *http.Request, action Action) {
	app, ok := h.loadApplication(w, r)
	if !ok {
		return
	}
	if err := applyTransition(app, action); err != nil {
		writeError(w, http.StatusConflict, "Status change not allowed", err)
		return
	}
	if err := h.Store.SaveApplication(r.Context(), *app); err != nil {
		h.internalError(w, "Failed to update leave application", err)
		return
	}

	h.Logger.Info("leave application status changed",
		zap.String("application", string(app.ID)),
		zap.String("action", string(action)),
		zap.String("status", string(app.Status)))
	writeJSON(w, http.StatusOK, toApplicationDTO(*app))
}

// dispatch runs a leave application lifecycle event. It writes the error
// response and returns false when the application may not proceed.
func (h *Handler) dispatch(ctx context.Context, w http.ResponseWriter, event accrual.Event, app accrual.LeaveApplication) (*accrual.Decision, bool) {
	decision, err := h.Hooks.OnLeaveApplication(ctx, event, app, h.Clock())
	if decision != nil {
		h.Metrics.observeDecision(string(event), string(decision.State))
	}
	if err == nil {
		return decision, true
	}

	if generic.IsSubmissionBlocked(err) {
		writeJSON(w, http.StatusUnprocessableEntity, BlockedResponse{
			Error:    "Leave application blocked by accrual policy",
			Details:  err.Error(),
			Decision: toDecisionDTO(decision),
		})
		return nil, false
	}
	h.internalError(w, "Failed to validate leave application", err)
	return nil, false
}

func (h *Handler) loadApplication(w http.ResponseWriter, r *http.Request) (*accrual.LeaveApplication, bool) {
	app, err := h.Store.Application(r.Context(), generic.ApplicationID(chi.URLParam(r, "id")))
	if err != nil {
		h.internalError(w, "Failed to get leave application", err)
		return nil, false
	}
	if app == nil {
		writeError(w, http.StatusNotFound, "Leave application not found", nil)
		return nil, false
	}
	return app, true
}

func withDecision(app accrual.LeaveApplication, d *accrual.Decision) ApplicationDTO {
	dto := toApplicationDTO(app)
	dto.Decision = toDecisionDTO(d)
	if d != nil && d.Message != "" {
		dto.Messages = []string{d.Message}
	}
	return dto
}

// =============================================================================
// HELPERS
// =============================================================================

// dateParam reads an optional YYYY-MM-DD query parameter, defaulting to today.
func (h *Handler) dateParam(r *http.Request, name string) (generic.TimePoint, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return h.Clock(), nil
	}
	return generic.ParseTimePoint(s)
}

// pathParam returns a URL parameter, unescaping names like "Annual%20Leave".
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if !strings.Contains(v, "%") {
		return v
	}
	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}
	return v
}

func (h *Handler) clientOrInternal(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, generic.ErrPolicyValidation), generic.IsSubmissionBlocked(err):
		writeError(w, http.StatusUnprocessableEntity, message, err)
	case errors.Is(err, generic.ErrInvalidTransition):
		writeError(w, http.StatusConflict, message, err)
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.internalError(w, message, err)
	}
}

func (h *Handler) internalError(w http.ResponseWriter, message string, err error) {
	h.Logger.Error(message, zap.Error(err))
	writeError(w, http.StatusInternalServerError, message, err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
