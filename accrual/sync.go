package accrual

import (
	"context"
	"fmt"
)

// PolicySync pushes policy settings onto the linked leave type.
// The sync is one-directional: policy -> leave type.
type PolicySync struct {
	Policies   PolicyStore
	LeaveTypes LeaveTypeStore
}

// Sync clears lt.IncludeHoliday when the leave type's policy excludes
// holidays. It writes only when the flag actually changes and reports
// whether it did. lt is updated in place.
func (s *PolicySync) Sync(ctx context.Context, lt *LeaveType) (bool, error) {
	policy, err := s.Policies.PolicyForLeaveType(ctx, lt.Name)
	if err != nil {
		return false, fmt.Errorf("failed to load accrual policy: %w", err)
	}
	if policy == nil || !policy.ExcludeHolidays || !lt.IncludeHoliday {
		return false, nil
	}

	if err := s.LeaveTypes.SetIncludeHoliday(ctx, lt.Name, false); err != nil {
		return false, fmt.Errorf("failed to update leave type %q: %w", lt.Name, err)
	}
	lt.IncludeHoliday = false
	return true, nil
}
