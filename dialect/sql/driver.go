package sql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/syssam/recordkit/dialect"
)

// pingTimeout bounds the liveness check behind Connected.
const pingTimeout = 2 * time.Second

// queryPrefixes are the statement keywords that produce a row set.
var queryPrefixes = []string{"SELECT", "WITH", "SHOW", "PRAGMA", "EXPLAIN", "DESCRIBE"}

// escapeStringValue escapes a string value for safe use in SQL.
// It escapes both single quotes (by doubling) and backslashes (for MySQL compatibility).
func escapeStringValue(s string) string {
	// Fast path: if no escaping needed, return as-is
	if !strings.ContainsAny(s, `'\`) {
		return s
	}
	// Escape backslashes first, then single quotes
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", "''")
	return s
}

// ExecQuerier wraps the standard Exec and Query methods.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Driver is a dialect.Database implementation for SQL based databases.
type Driver struct {
	ExecQuerier
	dialect string
}

// NewDriver creates a new Driver with the given ExecQuerier and dialect.
func NewDriver(dialect string, eq ExecQuerier) *Driver {
	return &Driver{ExecQuerier: eq, dialect: dialect}
}

// Open wraps the database/sql.Open method and returns a Driver.
func Open(dialect, source string) (*Driver, error) {
	db, err := sql.Open(dialect, source)
	if err != nil {
		return nil, err
	}
	return NewDriver(dialect, db), nil
}

// OpenDB wraps the given database/sql.DB with a Driver.
func OpenDB(dialect string, db *sql.DB) *Driver {
	return NewDriver(dialect, db)
}

// DB returns the underlying *sql.DB instance, or nil if the driver was
// created over another ExecQuerier.
func (d *Driver) DB() *sql.DB {
	db, _ := d.ExecQuerier.(*sql.DB)
	return db
}

// Dialect implements the dialect.Database method.
func (d *Driver) Dialect() string {
	// If the underlying driver is wrapped with a telemetry driver.
	for _, name := range []string{dialect.MySQL, dialect.SQLite, dialect.Postgres} {
		if strings.HasPrefix(d.dialect, name) {
			return name
		}
	}
	return d.dialect
}

// Connected reports whether the underlying connection answers a ping.
func (d *Driver) Connected() bool {
	db := d.DB()
	if db == nil {
		return d.ExecQuerier != nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return db.PingContext(ctx) == nil
}

// Quote returns s as a string literal in the driver's dialect.
func (d *Driver) Quote(s string) string {
	switch d.Dialect() {
	case dialect.Postgres:
		return pq.QuoteLiteral(s)
	case dialect.SQLite:
		// SQLite does not treat backslash as an escape character.
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	default:
		return "'" + escapeStringValue(s) + "'"
	}
}

// QuoteIdentifier returns s as an identifier in the driver's dialect.
func (d *Driver) QuoteIdentifier(s string) string {
	if d.Dialect() == dialect.Postgres {
		return pq.QuoteIdentifier(s)
	}
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

// Execute implements the dialect.Database method. Statements that produce a
// row set are read to completion; everything else reports its insert id and
// affected row count.
func (d *Driver) Execute(ctx context.Context, statement string) (dialect.Rows, error) {
	if isQuery(statement) {
		rows, err := d.QueryContext(ctx, statement)
		if err != nil {
			return nil, fmt.Errorf("dialect/sql: query: %w", err)
		}
		defer rows.Close()
		out, err := scanRows(rows)
		if err != nil {
			return nil, fmt.Errorf("dialect/sql: query: %w", err)
		}
		return out, nil
	}
	res, err := d.ExecContext(ctx, statement)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: exec: %w", err)
	}
	out := &dialect.StaticRows{}
	if n, err := res.RowsAffected(); err == nil {
		out.Affected = n
	}
	if id, err := res.LastInsertId(); err == nil {
		out.InsertID, out.HasID = id, true
	}
	return out, nil
}

// Close closes the underlying connection.
func (d *Driver) Close() error {
	if db := d.DB(); db != nil {
		return db.Close()
	}
	return nil
}

func isQuery(statement string) bool {
	s := strings.ToUpper(strings.TrimSpace(statement))
	for _, p := range queryPrefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return hasReturning(s)
}

// hasReturning reports a trailing RETURNING clause. A RETURNING inside a
// string literal is followed by the literal's closing quote.
func hasReturning(s string) bool {
	i := strings.LastIndex(s, " RETURNING ")
	return i >= 0 && !strings.Contains(s[i:], "'")
}

// scanRows reads every row, converting driver byte slices to strings.
func scanRows(rows *sql.Rows) (*dialect.StaticRows, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := &dialect.StaticRows{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		out.Rows = append(out.Rows, dialect.NewRow(columns, values))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var _ dialect.Database = (*Driver)(nil)
