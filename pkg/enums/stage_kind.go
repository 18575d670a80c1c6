package enums

import "fmt"

// StageKind identifies one of the tracked production sub-stages.
type StageKind string

const (
	StageKindCAD    StageKind = "cad"
	StageKindFabric StageKind = "fabric"
	StageKindSample StageKind = "sample"
)

var validStageKinds = []StageKind{
	StageKindCAD,
	StageKindFabric,
	StageKindSample,
}

// String implements fmt.Stringer.
func (k StageKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known StageKind.
func (k StageKind) IsValid() bool {
	for _, candidate := range validStageKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseStageKind converts raw input into a StageKind.
func ParseStageKind(value string) (StageKind, error) {
	for _, candidate := range validStageKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stage kind %q", value)
}

// StageKinds returns every stage kind in pipeline order.
func StageKinds() []StageKind {
	out := make([]StageKind, len(validStageKinds))
	copy(out, validStageKinds)
	return out
}
