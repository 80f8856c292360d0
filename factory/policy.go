/*
Package factory provides JSON to Go accrual policy conversion.

PURPOSE:
  Converts JSON policy definitions into accrual.AccrualPolicy values. HR can
  keep policies in a JSON file (loaded at startup from seed.policies_file) or
  post them to the API, and the factory builds the Go struct and validates it.

JSON SCHEMA:
  {
    "name": "Annual Leave Accrual",
    "leave_type": "Annual Leave",
    "accrual_type": "Monthly",
    "accrual_rate": 1.75,
    "max_annual_entitlement": 21,
    "rounding_increment": 0.5,
    "hr_override_allowed": true,
    "exclude_holidays": true
  }

  accrual_type is case-insensitive (monthly, Monthly, MONTHLY).
  max_annual_entitlement and rounding_increment may be omitted or null.

USAGE:
  f := factory.NewPolicyFactory()

  policy, err := f.ParsePolicy(jsonString)

  policies, err := f.LoadFile("./policies.json") // JSON array

SEE ALSO:
  - accrual/types.go: AccrualPolicy definition
  - accrual/policy.go: Validation rules
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-accrual/accrual"
	"github.com/warp/leave-accrual/generic"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PolicyJSON is the JSON representation of an accrual policy.
type PolicyJSON struct {
	Name                 string   `json:"name"`
	LeaveType            string   `json:"leave_type"`
	AccrualType          string   `json:"accrual_type"`
	AccrualRate          float64  `json:"accrual_rate"`
	MaxAnnualEntitlement *float64 `json:"max_annual_entitlement,omitempty"`
	RoundingIncrement    *float64 `json:"rounding_increment,omitempty"`
	HROverrideAllowed    bool     `json:"hr_override_allowed,omitempty"`
	ExcludeHolidays      bool     `json:"exclude_holidays,omitempty"`
}

// =============================================================================
// POLICY FACTORY
// =============================================================================

// PolicyFactory converts JSON policies to Go structs.
type PolicyFactory struct{}

// NewPolicyFactory creates a new policy factory.
func NewPolicyFactory() *PolicyFactory {
	return &PolicyFactory{}
}

// ParsePolicy parses a JSON object into a validated AccrualPolicy.
func (f *PolicyFactory) ParsePolicy(jsonStr string) (*accrual.AccrualPolicy, error) {
	var pj PolicyJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return nil, fmt.Errorf("failed to parse policy JSON: %w", err)
	}
	return f.FromJSON(pj)
}

// ParsePolicies parses a JSON array of policies. The first invalid policy
// fails the whole batch.
func (f *PolicyFactory) ParsePolicies(data []byte) ([]accrual.AccrualPolicy, error) {
	var pjs []PolicyJSON
	if err := json.Unmarshal(data, &pjs); err != nil {
		return nil, fmt.Errorf("failed to parse policies JSON: %w", err)
	}

	policies := make([]accrual.AccrualPolicy, 0, len(pjs))
	for i, pj := range pjs {
		p, err := f.FromJSON(pj)
		if err != nil {
			return nil, fmt.Errorf("policy %d (%s): %w", i, pj.LeaveType, err)
		}
		policies = append(policies, *p)
	}
	return policies, nil
}

// LoadFile reads a JSON array of policies from path.
func (f *PolicyFactory) LoadFile(path string) ([]accrual.AccrualPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policies file: %w", err)
	}
	return f.ParsePolicies(data)
}

// FromJSON converts PolicyJSON to a validated accrual.AccrualPolicy.
func (f *PolicyFactory) FromJSON(pj PolicyJSON) (*accrual.AccrualPolicy, error) {
	policy := &accrual.AccrualPolicy{
		Name:                 pj.Name,
		LeaveType:            generic.LeaveTypeName(pj.LeaveType),
		AccrualType:          parseAccrualType(pj.AccrualType),
		AccrualRate:          decimal.NewFromFloat(pj.AccrualRate),
		MaxAnnualEntitlement: optionalDays(pj.MaxAnnualEntitlement),
		RoundingIncrement:    optionalDays(pj.RoundingIncrement),
		HROverrideAllowed:    pj.HROverrideAllowed,
		ExcludeHolidays:      pj.ExcludeHolidays,
	}

	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return policy, nil
}

// ToJSON converts an AccrualPolicy to PolicyJSON.
func (f *PolicyFactory) ToJSON(policy accrual.AccrualPolicy) PolicyJSON {
	rate, _ := policy.AccrualRate.Float64()
	pj := PolicyJSON{
		Name:              policy.Name,
		LeaveType:         string(policy.LeaveType),
		AccrualType:       string(policy.AccrualType),
		AccrualRate:       rate,
		HROverrideAllowed: policy.HROverrideAllowed,
		ExcludeHolidays:   policy.ExcludeHolidays,
	}
	if policy.MaxAnnualEntitlement.Valid {
		v, _ := policy.MaxAnnualEntitlement.Decimal.Float64()
		pj.MaxAnnualEntitlement = &v
	}
	if policy.RoundingIncrement.Valid {
		v, _ := policy.RoundingIncrement.Decimal.Float64()
		pj.RoundingIncrement = &v
	}
	return pj
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

// parseAccrualType normalises case. Unknown values pass through so that
// Validate reports them.
func parseAccrualType(s string) accrual.AccrualType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monthly":
		return accrual.AccrualMonthly
	case "quarterly":
		return accrual.AccrualQuarterly
	case "yearly", "annual":
		return accrual.AccrualYearly
	default:
		return accrual.AccrualType(s)
	}
}

func optionalDays(v *float64) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return generic.NullDays(*v)
}
