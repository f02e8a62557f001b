package enums

import "fmt"

// ReturnStatus tracks a return request attached to a delivered order.
type ReturnStatus string

const (
	ReturnStatusPending   ReturnStatus = "pending"
	ReturnStatusApproved  ReturnStatus = "approved"
	ReturnStatusRejected  ReturnStatus = "rejected"
	ReturnStatusCompleted ReturnStatus = "completed"
)

var validReturnStatuses = []ReturnStatus{
	ReturnStatusPending,
	ReturnStatusApproved,
	ReturnStatusRejected,
	ReturnStatusCompleted,
}

// String implements fmt.Stringer.
func (v ReturnStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known ReturnStatus.
func (v ReturnStatus) IsValid() bool {
	for _, candidate := range validReturnStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseReturnStatus converts raw input into a ReturnStatus.
func ParseReturnStatus(value string) (ReturnStatus, error) {
	for _, candidate := range validReturnStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid return status %q", value)
}

var returnTransitions = map[ReturnStatus][]ReturnStatus{
	ReturnStatusPending:  {ReturnStatusApproved, ReturnStatusRejected},
	ReturnStatusApproved: {ReturnStatusCompleted, ReturnStatusRejected},
}

// CanTransitionTo reports whether a return request may move from v to next.
func (v ReturnStatus) CanTransitionTo(next ReturnStatus) bool {
	for _, candidate := range returnTransitions[v] {
		if candidate == next {
			return true
		}
	}
	return false
}
