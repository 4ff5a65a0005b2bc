package sql

import (
	"errors"
	"slices"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// Constraint is the kind of constraint a failed statement violated.
type Constraint int

const (
	// NoConstraint means the error is not a constraint violation.
	NoConstraint Constraint = iota
	// UniqueConstraint is a duplicate key or unique index violation.
	UniqueConstraint
	// ForeignKeyConstraint is a missing parent or a referenced child row.
	ForeignKeyConstraint
	// CheckConstraint is a failed CHECK expression.
	CheckConstraint
)

// String returns the constraint kind.
func (c Constraint) String() string {
	switch c {
	case UniqueConstraint:
		return "unique"
	case ForeignKeyConstraint:
		return "foreign key"
	case CheckConstraint:
		return "check"
	default:
		return "none"
	}
}

// Postgres SQLSTATE class 23 codes.
const (
	pgUniqueViolation     pq.ErrorCode = "23505"
	pgForeignKeyViolation pq.ErrorCode = "23503"
	pgCheckViolation      pq.ErrorCode = "23514"
)

// MySQL error numbers.
const (
	mysqlDuplicateEntry   = 1062
	mysqlForeignKeyParent = 1451
	mysqlForeignKeyChild  = 1452
	mysqlCheckViolation   = 3819
)

// Drivers without a typed error, SQLite among them, are matched on the
// message.
var constraintMessages = map[Constraint][]string{
	UniqueConstraint:     {"Error 1062", "violates unique constraint", "UNIQUE constraint failed"},
	ForeignKeyConstraint: {"Error 1451", "Error 1452", "violates foreign key constraint", "FOREIGN KEY constraint failed"},
	CheckConstraint:      {"Error 3819", "violates check constraint", "CHECK constraint failed"},
}

// ConstraintOf classifies err, which may be wrapped, by the constraint it
// violated.
func ConstraintOf(err error) Constraint {
	if err == nil {
		return NoConstraint
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pgUniqueViolation:
			return UniqueConstraint
		case pgForeignKeyViolation:
			return ForeignKeyConstraint
		case pgCheckViolation:
			return CheckConstraint
		}
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDuplicateEntry:
			return UniqueConstraint
		case mysqlForeignKeyParent, mysqlForeignKeyChild:
			return ForeignKeyConstraint
		case mysqlCheckViolation:
			return CheckConstraint
		}
	}
	msg := err.Error()
	for _, c := range []Constraint{UniqueConstraint, ForeignKeyConstraint, CheckConstraint} {
		if slices.ContainsFunc(constraintMessages[c], func(s string) bool { return strings.Contains(msg, s) }) {
			return c
		}
	}
	return NoConstraint
}

// IsConstraintError reports whether err is any constraint violation.
func IsConstraintError(err error) bool { return ConstraintOf(err) != NoConstraint }

// IsUniqueConstraintError reports whether err is a uniqueness violation.
func IsUniqueConstraintError(err error) bool { return ConstraintOf(err) == UniqueConstraint }

// IsForeignKeyConstraintError reports whether err is a foreign-key violation.
func IsForeignKeyConstraintError(err error) bool { return ConstraintOf(err) == ForeignKeyConstraint }

// IsCheckConstraintError reports whether err is a check violation.
func IsCheckConstraintError(err error) bool { return ConstraintOf(err) == CheckConstraint }
