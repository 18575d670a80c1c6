package enums

import "fmt"

// Department groups stage completion for dashboard progress.
type Department string

const (
	DepartmentMerchandising Department = "merchandising"
	DepartmentCAD           Department = "cad"
	DepartmentFabric        Department = "fabric"
	DepartmentSample        Department = "sample"
)

var validDepartments = []Department{
	DepartmentMerchandising,
	DepartmentCAD,
	DepartmentFabric,
	DepartmentSample,
}

// String implements fmt.Stringer.
func (d Department) String() string {
	return string(d)
}

// IsValid reports whether the value is a known Department.
func (d Department) IsValid() bool {
	for _, candidate := range validDepartments {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDepartment converts raw input into a Department.
func ParseDepartment(value string) (Department, error) {
	for _, candidate := range validDepartments {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid department %q", value)
}

// Departments returns the dashboard departments in display order.
func Departments() []Department {
	out := make([]Department, len(validDepartments))
	copy(out, validDepartments)
	return out
}
