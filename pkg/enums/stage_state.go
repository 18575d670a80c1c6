package enums

import "fmt"

// StageState is the lifecycle position of a stage record.
type StageState string

const (
	StageStateUnassigned StageState = "unassigned"
	StageStateAccepted   StageState = "accepted"
	StageStateFinished   StageState = "finished"
)

var validStageStates = []StageState{
	StageStateUnassigned,
	StageStateAccepted,
	StageStateFinished,
}

// String implements fmt.Stringer.
func (s StageState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StageState.
func (s StageState) IsValid() bool {
	for _, candidate := range validStageStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStageState converts raw input into a StageState.
func ParseStageState(value string) (StageState, error) {
	for _, candidate := range validStageStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stage state %q", value)
}
