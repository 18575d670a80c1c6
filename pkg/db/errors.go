package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/tna-backend/pkg/errors"
)

// IsUniqueViolation reports whether err is a unique-constraint failure. A
// non-empty constraintName narrows the match to that constraint.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if d, ok := pkgerrors.Driver(err); ok {
		if !d.Unique() {
			return false
		}
		return constraintName == "" || d.Constraint == constraintName || strings.Contains(d.Detail, constraintName)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return constraintName == "" || strings.Contains(err.Error(), constraintName)
	}
	return false
}

// IsNotFound reports whether err is gorm's missing-row sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
