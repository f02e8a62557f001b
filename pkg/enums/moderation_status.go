package enums

import "fmt"

// ModerationStatus is the review moderation workflow state.
type ModerationStatus string

const (
	ModerationStatusPending  ModerationStatus = "pending"
	ModerationStatusApproved ModerationStatus = "approved"
	ModerationStatusRejected ModerationStatus = "rejected"
	ModerationStatusFlagged  ModerationStatus = "flagged"
)

var validModerationStatuses = []ModerationStatus{
	ModerationStatusPending,
	ModerationStatusApproved,
	ModerationStatusRejected,
	ModerationStatusFlagged,
}

// String implements fmt.Stringer.
func (v ModerationStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known ModerationStatus.
func (v ModerationStatus) IsValid() bool {
	for _, candidate := range validModerationStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseModerationStatus converts raw input into a ModerationStatus.
func ParseModerationStatus(value string) (ModerationStatus, error) {
	for _, candidate := range validModerationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid moderation status %q", value)
}
