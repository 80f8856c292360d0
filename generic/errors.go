/*
errors.go - Sentinel errors shared by the engine and its hosts

PURPOSE:
  Every user-facing failure of the accrual engine unwraps to one of these
  sentinels, so the HTTP layer can classify errors with errors.Is without
  knowing the structured error types in package accrual.

ERROR CATEGORIES:
  1. Policy errors - invalid policy configuration (rejected at save time)
  2. Submission errors - leave application blocked by the balance rules
  3. Lookup errors - missing host records
  4. Dispatch errors - unknown lifecycle events

SEE ALSO:
  - accrual/errors.go: Structured errors carrying the figures
  - api/handlers.go: Maps these to HTTP status codes
*/
package generic

import "errors"

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrPolicyValidation is returned when a policy violates its invariants
	// (negative accrual rate, negative rounding increment, ...).
	ErrPolicyValidation = errors.New("policy validation failed")

	// ErrInsufficientBalance is returned when a request would take the
	// projected balance below zero without an HR override.
	ErrInsufficientBalance = errors.New("insufficient leave balance")

	// ErrNegativeBalanceRecovery is returned when the balance is already
	// negative and the leave starts before accrual restores it.
	ErrNegativeBalanceRecovery = errors.New("leave starts before negative balance recovers")

	// ErrUnknownEvent is returned when a lifecycle event has no handler.
	ErrUnknownEvent = errors.New("unknown lifecycle event")

	// ErrNotFound is returned when a host record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrInvalidTransition is returned when a workflow status change is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsSubmissionBlocked reports whether err blocks a leave application.
func IsSubmissionBlocked(err error) bool {
	return errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrNegativeBalanceRecovery)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrPolicyValidation) ||
		IsSubmissionBlocked(err) ||
		errors.Is(err, ErrUnknownEvent) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidTransition)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
