// Package memory provides an in-memory implementation of the host records
// the accrual engine reads (for testing/dev).
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-accrual/accrual"
	"github.com/warp/leave-accrual/generic"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

// Store holds policies, employees, leave types and applications in maps.
// It implements accrual.PolicyStore, EmployeeDirectory, LedgerQuery and
// LeaveTypeStore.
type Store struct {
	mu           sync.RWMutex
	policies     map[generic.LeaveTypeName]accrual.AccrualPolicy
	employees    map[generic.EmployeeID]accrual.Employee
	leaveTypes   map[generic.LeaveTypeName]accrual.LeaveType
	applications map[generic.ApplicationID]accrual.LeaveApplication

	// flagWrites counts SetIncludeHoliday calls, so tests can assert the
	// dirty check.
	flagWrites int
}

var (
	_ accrual.PolicyStore       = (*Store)(nil)
	_ accrual.EmployeeDirectory = (*Store)(nil)
	_ accrual.LedgerQuery       = (*Store)(nil)
	_ accrual.LeaveTypeStore    = (*Store)(nil)
)

func New() *Store {
	return &Store{
		policies:     make(map[generic.LeaveTypeName]accrual.AccrualPolicy),
		employees:    make(map[generic.EmployeeID]accrual.Employee),
		leaveTypes:   make(map[generic.LeaveTypeName]accrual.LeaveType),
		applications: make(map[generic.ApplicationID]accrual.LeaveApplication),
	}
}

// =============================================================================
// POLICIES
// =============================================================================

// SavePolicy validates and stores p, replacing any policy for the same leave type.
func (s *Store) SavePolicy(_ context.Context, p accrual.AccrualPolicy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[p.LeaveType] = p
	return nil
}

func (s *Store) PolicyForLeaveType(_ context.Context, leaveType generic.LeaveTypeName) (*accrual.AccrualPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.policies[leaveType]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *Store) ListPolicies(_ context.Context) ([]accrual.AccrualPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]accrual.AccrualPolicy, 0, len(s.policies))
	for _, p := range s.policies {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].LeaveType < result[j].LeaveType })
	return result, nil
}

// DeletePolicy removes the policy for a leave type.
func (s *Store) DeletePolicy(_ context.Context, leaveType generic.LeaveTypeName) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.policies[leaveType]; !ok {
		return fmt.Errorf("policy %q: %w", leaveType, generic.ErrNotFound)
	}
	delete(s.policies, leaveType)
	return nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) SaveEmployee(_ context.Context, e accrual.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[e.ID] = e
	return nil
}

func (s *Store) Employee(_ context.Context, id generic.EmployeeID) (*accrual.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.employees[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *Store) ListEmployees(_ context.Context) ([]accrual.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]accrual.Employee, 0, len(s.employees))
	for _, e := range s.employees {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// =============================================================================
// LEAVE TYPES
// =============================================================================

func (s *Store) SaveLeaveType(_ context.Context, lt accrual.LeaveType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaveTypes[lt.Name] = lt
	return nil
}

func (s *Store) LeaveType(_ context.Context, name generic.LeaveTypeName) (*accrual.LeaveType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lt, ok := s.leaveTypes[name]
	if !ok {
		return nil, nil
	}
	return &lt, nil
}

func (s *Store) SetIncludeHoliday(_ context.Context, name generic.LeaveTypeName, include bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lt, ok := s.leaveTypes[name]
	if !ok {
		return generic.ErrNotFound
	}
	lt.IncludeHoliday = include
	s.leaveTypes[name] = lt
	s.flagWrites++
	return nil
}

// FlagWrites returns how many times SetIncludeHoliday has written.
func (s *Store) FlagWrites() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flagWrites
}

// =============================================================================
// LEAVE APPLICATIONS (ledger)
// =============================================================================

func (s *Store) SaveApplication(_ context.Context, app accrual.LeaveApplication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applications[app.ID] = app
	return nil
}

func (s *Store) Application(_ context.Context, id generic.ApplicationID) (*accrual.LeaveApplication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.applications[id]
	if !ok {
		return nil, nil
	}
	return &app, nil
}

func (s *Store) TakenDays(_ context.Context, employee generic.EmployeeID, leaveType generic.LeaveTypeName, window generic.Period) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := decimal.Zero
	for _, app := range s.applications {
		if app.Employee != employee || app.LeaveType != leaveType || !app.Counted() {
			continue
		}
		if window.Contains(app.FromDate) {
			total = total.Add(app.TotalLeaveDays)
		}
	}
	return total, nil
}

// ApplicationsByEmployee returns an employee's applications, newest first.
func (s *Store) ApplicationsByEmployee(_ context.Context, employee generic.EmployeeID) ([]accrual.LeaveApplication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []accrual.LeaveApplication
	for _, app := range s.applications {
		if app.Employee == employee {
			result = append(result, app)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FromDate.After(result[j].FromDate) })
	return result, nil
}

// Reset clears all data.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.policies = make(map[generic.LeaveTypeName]accrual.AccrualPolicy)
	s.employees = make(map[generic.EmployeeID]accrual.Employee)
	s.leaveTypes = make(map[generic.LeaveTypeName]accrual.LeaveType)
	s.applications = make(map[generic.ApplicationID]accrual.LeaveApplication)
	s.flagWrites = 0
	return nil
}
