/*
Package sqlite provides a SQLite-backed implementation of the host records
the accrual engine reads.

PURPOSE:
  Plays the host persistence layer: accrual policies, employees, leave types
  and leave applications. The same schema ports to PostgreSQL with minor
  dialect changes.

INTERFACES IMPLEMENTED:
  accrual.PolicyStore:       Policy by leave type
  accrual.EmployeeDirectory: Employee by id
  accrual.LedgerQuery:       Sum of approved, submitted leave days
  accrual.LeaveTypeStore:    Leave type lookup + direct holiday-flag write

KEY TABLES:
  accrual_policies:   One policy per leave type (validated before write)
  employees:          Join date and status
  leave_types:        Host leave type settings
  leave_applications: Drafts, submissions and approved leave (the ledger)

DECIMALS AND DATES:
  Day quantities are stored as TEXT decimals and summed in Go, so the
  ledger total never goes through float64. Dates are TEXT "YYYY-MM-DD";
  string order is date order.

INDEXES:
  - idx_applications_ledger: TakenDays (hot path for every balance)
  - idx_applications_employee: Listing an employee's applications

CONCURRENCY:
  Uses sync.RWMutex for thread-safety of this handle. It does not make the
  validator's read-then-submit atomic; see accrual/validator.go.

USAGE:
  store, err := sqlite.New("./data/leave.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  calc := &accrual.Calculator{Policies: store, Employees: store, Ledger: store}

SEE ALSO:
  - accrual/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/leave-accrual/accrual"
	"github.com/warp/leave-accrual/generic"
)

// Store implements the accrual store interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ accrual.PolicyStore       = (*Store)(nil)
	_ accrual.EmployeeDirectory = (*Store)(nil)
	_ accrual.LedgerQuery       = (*Store)(nil)
	_ accrual.LeaveTypeStore    = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS accrual_policies (
		leave_type TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		accrual_type TEXT NOT NULL,
		accrual_rate TEXT NOT NULL,
		max_annual_entitlement TEXT,
		rounding_increment TEXT,
		hr_override_allowed BOOLEAN NOT NULL DEFAULT FALSE,
		exclude_holidays BOOLEAN NOT NULL DEFAULT FALSE,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		date_of_joining TEXT,
		status TEXT NOT NULL DEFAULT 'Active',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS leave_types (
		name TEXT PRIMARY KEY,
		include_holiday BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS leave_applications (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		from_date TEXT NOT NULL,
		to_date TEXT NOT NULL,
		total_leave_days TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'Draft',
		docstatus INTEGER NOT NULL DEFAULT 0,
		hr_override BOOLEAN NOT NULL DEFAULT FALSE,
		reason TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Composite index for the taken-days sum (hot path)
	CREATE INDEX IF NOT EXISTS idx_applications_ledger
		ON leave_applications(employee_id, leave_type, status, docstatus, from_date);

	CREATE INDEX IF NOT EXISTS idx_applications_employee
		ON leave_applications(employee_id, from_date DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// POLICY STORE
// =============================================================================

// SavePolicy validates and upserts a policy keyed by leave type.
func (s *Store) SavePolicy(ctx context.Context, p accrual.AccrualPolicy) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO accrual_policies
		(leave_type, name, accrual_type, accrual_rate, max_annual_entitlement, rounding_increment,
		 hr_override_allowed, exclude_holidays, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(leave_type) DO UPDATE SET
			name = excluded.name,
			accrual_type = excluded.accrual_type,
			accrual_rate = excluded.accrual_rate,
			max_annual_entitlement = excluded.max_annual_entitlement,
			rounding_increment = excluded.rounding_increment,
			hr_override_allowed = excluded.hr_override_allowed,
			exclude_holidays = excluded.exclude_holidays,
			version = accrual_policies.version + 1,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query,
		string(p.LeaveType), p.Name, string(p.AccrualType), p.AccrualRate.String(),
		nullDecimal(p.MaxAnnualEntitlement), nullDecimal(p.RoundingIncrement),
		p.HROverrideAllowed, p.ExcludeHolidays, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save policy: %w", err)
	}
	return nil
}

const policyColumns = `leave_type, name, accrual_type, accrual_rate, max_annual_entitlement,
	rounding_increment, hr_override_allowed, exclude_holidays`

// PolicyForLeaveType returns the policy for leaveType, or nil if none exists.
func (s *Store) PolicyForLeaveType(ctx context.Context, leaveType generic.LeaveTypeName) (*accrual.AccrualPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+policyColumns+" FROM accrual_policies WHERE leave_type = ?", string(leaveType))
	p, err := scanPolicy(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListPolicies returns all policies ordered by leave type.
func (s *Store) ListPolicies(ctx context.Context) ([]accrual.AccrualPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+policyColumns+" FROM accrual_policies ORDER BY leave_type")
	if err != nil {
		return nil, fmt.Errorf("failed to query policies: %w", err)
	}
	defer rows.Close()

	var policies []accrual.AccrualPolicy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		policies = append(policies, *p)
	}
	return policies, rows.Err()
}

// DeletePolicy removes the policy for a leave type. It returns
// generic.ErrNotFound when there is none.
func (s *Store) DeletePolicy(ctx context.Context, leaveType generic.LeaveTypeName) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM accrual_policies WHERE leave_type = ?", string(leaveType))
	if err != nil {
		return fmt.Errorf("failed to delete policy: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("policy %q: %w", leaveType, generic.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPolicy(row scanner) (*accrual.AccrualPolicy, error) {
	var (
		p                   accrual.AccrualPolicy
		leaveType, accType  string
		rate                string
		maxEntitle, rounding decimal.NullDecimal
	)
	err := row.Scan(&leaveType, &p.Name, &accType, &rate, &maxEntitle, &rounding,
		&p.HROverrideAllowed, &p.ExcludeHolidays)
	if err != nil {
		return nil, err
	}
	p.LeaveType = generic.LeaveTypeName(leaveType)
	p.AccrualType = accrual.AccrualType(accType)
	p.AccrualRate, err = decimal.NewFromString(rate)
	if err != nil {
		return nil, fmt.Errorf("policy %s: invalid accrual_rate %q: %w", leaveType, rate, err)
	}
	p.MaxAnnualEntitlement = maxEntitle
	p.RoundingIncrement = rounding
	return &p, nil
}

// =============================================================================
// EMPLOYEE DIRECTORY
// =============================================================================

// SaveEmployee upserts an employee.
func (s *Store) SaveEmployee(ctx context.Context, emp accrual.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (id, name, date_of_joining, status, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			date_of_joining = excluded.date_of_joining,
			status = excluded.status
	`

	status := emp.Status
	if status == "" {
		status = accrual.EmployeeActive
	}
	_, err := s.db.ExecContext(ctx, query,
		string(emp.ID), emp.Name, nullDate(emp.DateOfJoining), string(status),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

// Employee returns the employee with id, or nil if none exists.
func (s *Store) Employee(ctx context.Context, id generic.EmployeeID) (*accrual.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, date_of_joining, status FROM employees WHERE id = ?", string(id))
	emp, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return emp, nil
}

// ListEmployees returns all employees ordered by id.
func (s *Store) ListEmployees(ctx context.Context) ([]accrual.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, name, date_of_joining, status FROM employees ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []accrual.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, *emp)
	}
	return employees, rows.Err()
}

func scanEmployee(row scanner) (*accrual.Employee, error) {
	var (
		emp            accrual.Employee
		id, status     string
		dateOfJoining  sql.NullString
	)
	if err := row.Scan(&id, &emp.Name, &dateOfJoining, &status); err != nil {
		return nil, err
	}
	emp.ID = generic.EmployeeID(id)
	emp.Status = accrual.EmployeeStatus(status)
	if dateOfJoining.Valid && dateOfJoining.String != "" {
		tp, err := generic.ParseTimePoint(dateOfJoining.String)
		if err != nil {
			return nil, fmt.Errorf("employee %s: %w", id, err)
		}
		emp.DateOfJoining = &tp
	}
	return &emp, nil
}

// =============================================================================
// LEAVE TYPE STORE
// =============================================================================

// SaveLeaveType upserts a leave type. Lifecycle hooks are the caller's job.
func (s *Store) SaveLeaveType(ctx context.Context, lt accrual.LeaveType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO leave_types (name, include_holiday, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			include_holiday = excluded.include_holiday,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query, string(lt.Name), lt.IncludeHoliday,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save leave type: %w", err)
	}
	return nil
}

// LeaveType returns the leave type named name, or nil if none exists.
func (s *Store) LeaveType(ctx context.Context, name generic.LeaveTypeName) (*accrual.LeaveType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var lt accrual.LeaveType
	var ltName string
	err := s.db.QueryRowContext(ctx,
		"SELECT name, include_holiday FROM leave_types WHERE name = ?", string(name),
	).Scan(&ltName, &lt.IncludeHoliday)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	lt.Name = generic.LeaveTypeName(ltName)
	return &lt, nil
}

// SetIncludeHoliday updates the single column in place.
func (s *Store) SetIncludeHoliday(ctx context.Context, name generic.LeaveTypeName, include bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE leave_types SET include_holiday = ?, updated_at = ? WHERE name = ?",
		include, time.Now().UTC().Format(time.RFC3339), string(name))
	if err != nil {
		return fmt.Errorf("failed to update leave type: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("leave type %q: %w", name, generic.ErrNotFound)
	}
	return nil
}

// =============================================================================
// LEAVE APPLICATIONS (ledger)
// =============================================================================

// SaveApplication upserts a leave application.
func (s *Store) SaveApplication(ctx context.Context, app accrual.LeaveApplication) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO leave_applications
		(id, employee_id, leave_type, from_date, to_date, total_leave_days, status, docstatus,
		 hr_override, reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			employee_id = excluded.employee_id,
			leave_type = excluded.leave_type,
			from_date = excluded.from_date,
			to_date = excluded.to_date,
			total_leave_days = excluded.total_leave_days,
			status = excluded.status,
			docstatus = excluded.docstatus,
			hr_override = excluded.hr_override,
			reason = excluded.reason,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	toDate := app.ToDate
	if toDate.IsZero() {
		toDate = app.FromDate
	}
	_, err := s.db.ExecContext(ctx, query,
		string(app.ID), string(app.Employee), string(app.LeaveType),
		app.FromDate.String(), toDate.String(), app.TotalLeaveDays.String(),
		string(app.Status), int(app.DocStatus), app.HROverride, nullString(app.Reason),
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save leave application: %w", err)
	}
	return nil
}

const applicationColumns = `id, employee_id, leave_type, from_date, to_date, total_leave_days,
	status, docstatus, hr_override, reason`

// Application returns the application with id, or nil if none exists.
func (s *Store) Application(ctx context.Context, id generic.ApplicationID) (*accrual.LeaveApplication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+applicationColumns+" FROM leave_applications WHERE id = ?", string(id))
	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return app, nil
}

// ApplicationsByEmployee returns an employee's applications, newest first.
func (s *Store) ApplicationsByEmployee(ctx context.Context, employee generic.EmployeeID) ([]accrual.LeaveApplication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+applicationColumns+" FROM leave_applications WHERE employee_id = ? ORDER BY from_date DESC",
		string(employee))
	if err != nil {
		return nil, fmt.Errorf("failed to query leave applications: %w", err)
	}
	defer rows.Close()

	var apps []accrual.LeaveApplication
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *app)
	}
	return apps, rows.Err()
}

// TakenDays sums approved, submitted leave whose from_date is inside window.
// An open window has no upper bound on from_date.
func (s *Store) TakenDays(ctx context.Context, employee generic.EmployeeID, leaveType generic.LeaveTypeName, window generic.Period) (decimal.Decimal, error) {
	if err := window.Validate(); err != nil {
		return decimal.Zero, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT total_leave_days
		FROM leave_applications
		WHERE employee_id = ? AND leave_type = ?
		  AND status = ? AND docstatus = ?
		  AND from_date >= ?
	`
	args := []any{
		string(employee), string(leaveType),
		string(accrual.StatusApproved), int(accrual.DocSubmitted),
		window.Start.String(),
	}
	if !window.Open() {
		query += " AND from_date <= ?"
		args = append(args, window.End.String())
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var days string
		if err := rows.Scan(&days); err != nil {
			return decimal.Zero, err
		}
		d, err := decimal.NewFromString(days)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid total_leave_days %q: %w", days, err)
		}
		total = total.Add(d)
	}
	return total, rows.Err()
}

func scanApplication(row scanner) (*accrual.LeaveApplication, error) {
	var (
		app                               accrual.LeaveApplication
		id, employee, leaveType, status   string
		fromDate, toDate, days            string
		docStatus                         int
		reason                            sql.NullString
	)
	err := row.Scan(&id, &employee, &leaveType, &fromDate, &toDate, &days,
		&status, &docStatus, &app.HROverride, &reason)
	if err != nil {
		return nil, err
	}

	from, err := generic.ParseTimePoint(fromDate)
	if err != nil {
		return nil, fmt.Errorf("application %s: %w", id, err)
	}
	to, err := generic.ParseTimePoint(toDate)
	if err != nil {
		return nil, fmt.Errorf("application %s: %w", id, err)
	}

	app.ID = generic.ApplicationID(id)
	app.Employee = generic.EmployeeID(employee)
	app.LeaveType = generic.LeaveTypeName(leaveType)
	app.FromDate = from
	app.ToDate = to
	app.TotalLeaveDays, err = decimal.NewFromString(days)
	if err != nil {
		return nil, fmt.Errorf("application %s: invalid total_leave_days %q: %w", id, days, err)
	}
	app.Status = accrual.ApplicationStatus(status)
	app.DocStatus = accrual.DocStatus(docStatus)
	app.Reason = reason.String
	return &app, nil
}

// =============================================================================
// ADMIN OPERATIONS
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"leave_applications", "leave_types", "employees", "accrual_policies"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullDecimal(d decimal.NullDecimal) sql.NullString {
	if !d.Valid {
		return sql.NullString{}
	}
	return sql.NullString{String: d.Decimal.String(), Valid: true}
}

func nullDate(tp *generic.TimePoint) sql.NullString {
	if tp == nil || tp.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: tp.String(), Valid: true}
}

// IsUniqueConstraintError reports a primary key or unique index violation.
func IsUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
