package dialect

import (
	"context"
)

// Dialect names for supported database drivers.
const (
	MySQL    = "mysql"
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// Quoter wraps the value and identifier quoting primitives of a database.
type Quoter interface {
	// Quote returns s as a quoted SQL string literal.
	Quote(s string) string
	// QuoteIdentifier returns s as a quoted SQL identifier.
	QuoteIdentifier(s string) string
}

// Database is the collaborator the query, model and repository packages
// execute rendered statements against.
type Database interface {
	Quoter
	// Execute runs a rendered statement.
	Execute(ctx context.Context, statement string) (Rows, error)
	// Connected reports whether a live connection exists.
	Connected() bool
	// Dialect returns the dialect name.
	Dialect() string
}

// Rows is the result handle of an executed statement.
type Rows interface {
	// FetchAll returns every row of the result in order.
	FetchAll() ([]Row, error)
	// LastInsertID returns the id generated by an insert, if any.
	LastInsertID() (int64, bool)
	// RowsAffected returns the number of rows changed by an insert, update or delete.
	RowsAffected() int64
}

// Row is a single result row. Column order is preserved.
type Row struct {
	columns []string
	values  []any
}

// NewRow returns a row with the given columns and values. Missing values are nil.
func NewRow(columns []string, values []any) Row {
	r := Row{columns: columns, values: make([]any, len(columns))}
	copy(r.values, values)
	return r
}

// RowFromMap returns a row from a map, with columns in the given order.
func RowFromMap(columns []string, m map[string]any) Row {
	values := make([]any, len(columns))
	for i, c := range columns {
		values[i] = m[c]
	}
	return Row{columns: columns, values: values}
}

// Columns returns the column names of the row.
func (r Row) Columns() []string { return r.columns }

// Values returns the values of the row in column order.
func (r Row) Values() []any { return r.values }

// Len returns the number of columns.
func (r Row) Len() int { return len(r.columns) }

// Get returns the value of the named column.
func (r Row) Get(column string) (any, bool) {
	for i, c := range r.columns {
		if c == column {
			return r.values[i], true
		}
	}
	return nil, false
}

// First returns the value of the first column.
func (r Row) First() (any, bool) {
	if len(r.values) == 0 {
		return nil, false
	}
	return r.values[0], true
}

// Map returns the row as a column to value map.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.columns))
	for i, c := range r.columns {
		m[c] = r.values[i]
	}
	return m
}

// StaticRows is a Rows implementation over already materialized rows.
type StaticRows struct {
	Rows     []Row
	InsertID int64
	HasID    bool
	Affected int64
}

// FetchAll implements the Rows interface.
func (s *StaticRows) FetchAll() ([]Row, error) { return s.Rows, nil }

// LastInsertID implements the Rows interface.
func (s *StaticRows) LastInsertID() (int64, bool) { return s.InsertID, s.HasID }

// RowsAffected implements the Rows interface.
func (s *StaticRows) RowsAffected() int64 { return s.Affected }

var _ Rows = (*StaticRows)(nil)
