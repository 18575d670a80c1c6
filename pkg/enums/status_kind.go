package enums

import "fmt"

// StatusKind classifies a planned date against its reference or actual date.
type StatusKind string

const (
	StatusKindAhead             StatusKind = "ahead"
	StatusKindDueToday          StatusKind = "due_today"
	StatusKindOverdue           StatusKind = "overdue"
	StatusKindCompletedVariance StatusKind = "completed_variance"
)

var validStatusKinds = []StatusKind{
	StatusKindAhead,
	StatusKindDueToday,
	StatusKindOverdue,
	StatusKindCompletedVariance,
}

// String implements fmt.Stringer.
func (s StatusKind) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StatusKind.
func (s StatusKind) IsValid() bool {
	for _, candidate := range validStatusKinds {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStatusKind converts raw input into a StatusKind.
func ParseStatusKind(value string) (StatusKind, error) {
	for _, candidate := range validStatusKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid status kind %q", value)
}
