package accrual_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/leave-accrual/accrual"
)

func TestRecoveryDate(t *testing.T) {
	tests := []struct {
		name         string
		deficit      string
		rate         string
		today        string
		wantMonths   int
		wantDate     string
		wantFallback bool
	}{
		{"exact multiple", "3.5", "1.75", "2025-01-15", 2, "2025-03-15", false},
		{"rounds months up", "3.25", "1.75", "2025-01-15", 2, "2025-03-15", false},
		{"clamps to end of february", "1", "1", "2025-01-31", 1, "2025-02-28", false},
		{"leap year february", "1", "1", "2024-01-31", 1, "2024-02-29", false},
		{"crosses year end", "5", "1", "2025-10-31", 5, "2026-03-31", false},
		{"zero deficit", "0", "1.75", "2025-06-10", 0, "2025-06-10", false},
		{"zero rate falls back to one day", "2.5", "0", "2025-01-15", 3, "2025-04-15", true},
		{"negative rate falls back to one day", "2", "-1", "2025-01-15", 2, "2025-03-15", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := accrual.RecoveryDate(d(tt.deficit), d(tt.rate), date(tt.today))

			assert.Equal(t, tt.wantMonths, got.MonthsNeeded)
			assert.Equal(t, tt.wantDate, got.Date.String())
			assert.Equal(t, tt.wantFallback, got.FallbackRate)
		})
	}
}

func TestRecoveryDate_IsPure(t *testing.T) {
	first := accrual.RecoveryDate(d("3.25"), d("1.75"), date("2025-01-15"))
	second := accrual.RecoveryDate(d("3.25"), d("1.75"), date("2025-01-15"))

	assert.Equal(t, first, second)
}
