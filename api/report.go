package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/warp/leave-accrual/accrual"
	"github.com/warp/leave-accrual/generic"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const balanceSheet = "Balances"

var balanceReportHeader = []string{
	"Employee", "Name", "Leave Type", "Accrual Type", "Accrual Start",
	"Earned", "Capped", "Taken", "Balance", "Indicator",
}

// BalanceRow is one employee x leave type line of the balance report.
type BalanceRow struct {
	Employee  accrual.Employee
	Breakdown *accrual.BalanceBreakdown
}

// CollectBalanceRows computes a breakdown for every active employee and
// every policy. leaveType narrows the report to one policy when set.
func CollectBalanceRows(ctx context.Context, store Store, calc *accrual.Calculator, leaveType generic.LeaveTypeName, asOn generic.TimePoint) ([]BalanceRow, error) {
	employees, err := store.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	policies, err := store.ListPolicies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}

	var rows []BalanceRow
	for _, emp := range employees {
		if emp.Status != "" && emp.Status != accrual.EmployeeActive {
			continue
		}
		for _, p := range policies {
			if leaveType != "" && p.LeaveType != leaveType {
				continue
			}
			b, err := calc.Breakdown(ctx, emp.ID, p.LeaveType, asOn)
			if err != nil {
				return nil, err
			}
			rows = append(rows, BalanceRow{Employee: emp, Breakdown: b})
		}
	}
	return rows, nil
}

// BuildBalanceReport writes rows to a single-sheet workbook.
func BuildBalanceReport(rows []BalanceRow, asOn generic.TimePoint) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", balanceSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetCellValue(balanceSheet, "A1", fmt.Sprintf("Leave balances as on %s", asOn)); err != nil {
		f.Close()
		return nil, err
	}

	headerRow := 3
	for i, title := range balanceReportHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		if err := f.SetCellValue(balanceSheet, cell, title); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header %s: %w", title, err)
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(balanceReportHeader), headerRow)
	if err := f.SetCellStyle(balanceSheet, "A1", lastHeader, bold); err != nil {
		f.Close()
		return nil, err
	}

	for i, row := range rows {
		b := row.Breakdown
		accrualType, accrualStart := "", ""
		if b.Policy != nil {
			accrualType = string(b.Policy.AccrualType)
		}
		if !b.AccrualStart.IsZero() {
			accrualStart = b.AccrualStart.String()
		}

		values := []any{
			string(row.Employee.ID), row.Employee.Name, string(b.LeaveType), accrualType, accrualStart,
			days(b.Earned), b.Capped, days(b.Taken), days(b.Balance), indicatorFor(b.Balance),
		}
		r := headerRow + 1 + i
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, r)
			if err := f.SetCellValue(balanceSheet, cell, v); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set %s at row %d: %w", balanceReportHeader[col], r, err)
			}
		}
	}

	return f, nil
}

// ExportBalances streams the balance report as XLSX.
func (h *Handler) ExportBalances(w http.ResponseWriter, r *http.Request) {
	asOn, err := h.dateParam(r, "as_on_date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_on_date format (use YYYY-MM-DD)", err)
		return
	}
	leaveType := generic.LeaveTypeName(r.URL.Query().Get("leave_type"))

	rows, err := CollectBalanceRows(r.Context(), h.Store, h.Calculator, leaveType, asOn)
	if err != nil {
		h.internalError(w, "Failed to compute balances", err)
		return
	}

	f, err := BuildBalanceReport(rows, asOn)
	if err != nil {
		h.internalError(w, "Failed to build balance report", err)
		return
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		h.internalError(w, "Failed to write balance report", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="leave-balances-%s.xlsx"`, asOn))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.Logger.Warn("balance report write interrupted", zap.Error(err))
	}
}
