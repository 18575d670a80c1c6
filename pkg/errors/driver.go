package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Postgres SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// DriverError is the driver-neutral view of a database failure.
type DriverError struct {
	Engine     string
	Code       string
	Constraint string
	Table      string
	Detail     string
	unique     bool
}

// Unique reports whether the failure is a unique-constraint violation.
func (d DriverError) Unique() bool { return d.unique }

// Driver digs the first Postgres (pgx or lib/pq) or sqlite error out of err.
func Driver(err error) (DriverError, bool) {
	if err == nil {
		return DriverError{}, false
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return DriverError{
			Engine:     "postgres",
			Code:       pgxErr.Code,
			Constraint: pgxErr.ConstraintName,
			Table:      pgxErr.TableName,
			Detail:     pgxErr.Detail,
			unique:     pgxErr.Code == pgUniqueViolation,
		}, true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return DriverError{
			Engine:     "postgres",
			Code:       string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Detail:     pqErr.Detail,
			unique:     string(pqErr.Code) == pgUniqueViolation,
		}, true
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return DriverError{
			Engine: "sqlite",
			Code:   liteErr.ExtendedCode.Error(),
			Detail: liteErr.Error(),
			unique: liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey,
		}, true
	}
	return DriverError{}, false
}

// LogFields flattens err into structured log fields. Empty values are left out.
func LogFields(err error) map[string]any {
	if err == nil {
		return map[string]any{}
	}

	fields := map[string]any{"error": err.Error()}
	if typed := As(err); typed != nil {
		fields["error_code"] = string(typed.Code())
	}

	var chain []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		chain = append(chain, fmt.Sprintf("%T", e))
	}
	if len(chain) > 1 {
		fields["error_chain"] = chain
	}

	if d, ok := Driver(err); ok {
		fields["db_engine"] = d.Engine
		for key, value := range map[string]string{
			"db_code":       d.Code,
			"db_constraint": d.Constraint,
			"db_table":      d.Table,
			"db_detail":     d.Detail,
		} {
			if value != "" {
				fields[key] = value
			}
		}
	}
	return fields
}
