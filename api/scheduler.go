/*
scheduler.go - Periodic deficit scan

PURPOSE:
  Periodically computes every active employee's balance for every accrual
  policy and reports the ones in deficit, together with the date accrual
  will have recovered them. The result feeds the leave_employees_in_deficit
  gauge and the log.

DESIGN:
  - Cron-scheduled (robfig/cron), default "0 2 * * *"
  - Runs once immediately on start
  - Read-only: it never touches applications or balances, so the engine
    stays free of side effects
  - The same scan backs POST /api/admin/deficit-scan

USAGE:
  scanner := NewDeficitScanner(handler, "0 2 * * *")
  if err := scanner.Start(); err != nil { ... }
  // ... later
  scanner.Stop()

SEE ALSO:
  - accrual/recovery.go: Recovery date for a deficit
  - report.go: Shares CollectBalanceRows
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/warp/leave-accrual/accrual"
	"github.com/warp/leave-accrual/generic"
	"go.uber.org/zap"
)

// Deficit is one employee and leave type with a negative balance.
type Deficit struct {
	Employee  generic.EmployeeID
	LeaveType generic.LeaveTypeName
	Balance   decimal.Decimal
	Recovery  accrual.Recovery
}

// ScanResult summarises one deficit scan.
type ScanResult struct {
	AsOn     generic.TimePoint
	Checked  int
	Deficits []Deficit
	// PerLeaveType counts deficits for every policy, zero included.
	PerLeaveType map[generic.LeaveTypeName]int
}

// ScanDeficits finds every negative balance as of today.
func ScanDeficits(ctx context.Context, store Store, calc *accrual.Calculator, today generic.TimePoint) (*ScanResult, error) {
	rows, err := CollectBalanceRows(ctx, store, calc, "", today)
	if err != nil {
		return nil, err
	}

	result := &ScanResult{
		AsOn:         today,
		Checked:      len(rows),
		PerLeaveType: make(map[generic.LeaveTypeName]int),
	}
	for _, row := range rows {
		b := row.Breakdown
		if b.Policy == nil {
			continue
		}
		if _, ok := result.PerLeaveType[b.LeaveType]; !ok {
			result.PerLeaveType[b.LeaveType] = 0
		}
		if !b.Balance.IsNegative() {
			continue
		}
		result.PerLeaveType[b.LeaveType]++
		result.Deficits = append(result.Deficits, Deficit{
			Employee:  b.Employee,
			LeaveType: b.LeaveType,
			Balance:   b.Balance,
			Recovery:  accrual.RecoveryDate(b.Balance.Abs(), b.Policy.AccrualRate, today),
		})
	}
	return result, nil
}

// DeficitScanner runs ScanDeficits on a cron schedule.
type DeficitScanner struct {
	Store      Store
	Calculator *accrual.Calculator
	Metrics    *Metrics
	Logger     *zap.Logger
	Clock      func() generic.TimePoint
	Schedule   string
	Timeout    time.Duration

	cron *cron.Cron
	mu   sync.Mutex
}

// NewDeficitScanner creates a scanner sharing the handler's dependencies.
func NewDeficitScanner(h *Handler, schedule string) *DeficitScanner {
	return &DeficitScanner{
		Store:      h.Store,
		Calculator: h.Calculator,
		Metrics:    h.Metrics,
		Logger:     h.Logger.Named("scheduler"),
		Clock:      h.Clock,
		Schedule:   schedule,
		Timeout:    5 * time.Minute,
	}
}

// Start schedules the scan and runs it once in the background.
func (s *DeficitScanner) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(s.Schedule, s.run); err != nil {
		return fmt.Errorf("invalid deficit scan schedule %q: %w", s.Schedule, err)
	}
	c.Start()
	s.cron = c

	go s.run()

	s.Logger.Info("deficit scan scheduled", zap.String("schedule", s.Schedule))
	return nil
}

// Stop stops the schedule and waits for a running scan to finish.
func (s *DeficitScanner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
	s.Logger.Info("deficit scan stopped")
}

func (s *DeficitScanner) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
	defer cancel()

	if _, err := s.Scan(ctx); err != nil {
		s.Logger.Error("deficit scan failed", zap.Error(err))
	}
}

// Scan runs one scan, updates the gauge and logs every deficit.
func (s *DeficitScanner) Scan(ctx context.Context) (*ScanResult, error) {
	start := time.Now()
	result, err := ScanDeficits(ctx, s.Store, s.Calculator, s.Clock())
	if err != nil {
		return nil, err
	}

	for leaveType, n := range result.PerLeaveType {
		s.Metrics.setDeficit(string(leaveType), n)
	}
	for _, d := range result.Deficits {
		s.Logger.Warn("leave balance in deficit",
			zap.String("employee", string(d.Employee)),
			zap.String("leave_type", string(d.LeaveType)),
			zap.String("balance", d.Balance.StringFixed(generic.DisplayPlaces)),
			zap.String("recovers_on", d.Recovery.Date.String()),
			zap.Bool("fallback_rate", d.Recovery.FallbackRate))
	}
	s.Logger.Info("deficit scan complete",
		zap.String("as_on", result.AsOn.String()),
		zap.Int("checked", result.Checked),
		zap.Int("deficits", len(result.Deficits)),
		zap.Duration("took", time.Since(start)))
	return result, nil
}

// =============================================================================
// ADMIN HANDLER
// =============================================================================

// DeficitDTO is one deficit in the admin scan response.
type DeficitDTO struct {
	Employee     string  `json:"employee"`
	LeaveType    string  `json:"leave_type"`
	Balance      float64 `json:"balance"`
	MonthsNeeded int     `json:"months_needed"`
	RecoveryDate string  `json:"recovery_date"`
	FallbackRate bool    `json:"fallback_rate,omitempty"`
}

// TriggerDeficitScan runs the deficit scan now.
// POST /api/admin/deficit-scan
func (h *Handler) TriggerDeficitScan(w http.ResponseWriter, r *http.Request) {
	result, err := ScanDeficits(r.Context(), h.Store, h.Calculator, h.Clock())
	if err != nil {
		h.internalError(w, "Failed to scan balances", err)
		return
	}
	for leaveType, n := range result.PerLeaveType {
		h.Metrics.setDeficit(string(leaveType), n)
	}

	dtos := make([]DeficitDTO, len(result.Deficits))
	for i, d := range result.Deficits {
		dtos[i] = DeficitDTO{
			Employee:     string(d.Employee),
			LeaveType:    string(d.LeaveType),
			Balance:      days(d.Balance),
			MonthsNeeded: d.Recovery.MonthsNeeded,
			RecoveryDate: d.Recovery.Date.String(),
			FallbackRate: d.Recovery.FallbackRate,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"as_on_date": result.AsOn.String(),
		"checked":    result.Checked,
		"deficits":   dtos,
	})
}
