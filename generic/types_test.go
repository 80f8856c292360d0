package generic

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRoundToIncrement(t *testing.T) {
	tests := []struct {
		value     string
		increment decimal.NullDecimal
		want      string
	}{
		{"10.3", NullDays(0.5), "10.5"},
		{"10.2", NullDays(0.5), "10"},
		{"10.25", NullDays(0.5), "10"},
		{"10.75", NullDays(0.5), "11"},
		{"-3.3", NullDays(0.5), "-3.5"},
		{"-3.25", NullDays(0.5), "-3"},
		{"7.13", NullDays(0.25), "7.25"},
		{"7.13", NullDays(1), "7"},
		{"7.13", NullDays(0), "7.13"},
		{"7.13", decimal.NullDecimal{}, "7.13"},
	}

	for _, tt := range tests {
		name := fmt.Sprintf("%s by %s (set=%t)", tt.value, tt.increment.Decimal, tt.increment.Valid)
		t.Run(name, func(t *testing.T) {
			got := RoundToIncrement(decimal.RequireFromString(tt.value), tt.increment)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestRoundDisplay_HalfToEven(t *testing.T) {
	assert.Equal(t, "10.02", RoundDisplay(decimal.RequireFromString("10.025")).String())
	assert.Equal(t, "10.04", RoundDisplay(decimal.RequireFromString("10.035")).String())
	assert.Equal(t, "10.03", RoundDisplay(decimal.RequireFromString("10.0273972")).String())
}

func TestMustParseDecimal(t *testing.T) {
	assert.True(t, MustParseDecimal("1.75").Equal(Days(1.75)))
	assert.Panics(t, func() { MustParseDecimal("garbage") })
}

func TestErrorHelpers(t *testing.T) {
	blocked := fmt.Errorf("wrapped: %w", ErrInsufficientBalance)

	assert.True(t, IsSubmissionBlocked(blocked))
	assert.True(t, IsClientError(blocked))
	assert.True(t, IsClientError(ErrPolicyValidation))
	assert.True(t, IsNotFound(fmt.Errorf("leave type: %w", ErrNotFound)))
	assert.False(t, IsClientError(ErrNotFound))
	assert.False(t, IsSubmissionBlocked(ErrUnknownEvent))
}
