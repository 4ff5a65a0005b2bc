// Package dialect provides database dialect names and the collaborator
// contract statements are executed against.
//
// # Supported Dialects
//
//   - Postgres: PostgreSQL database
//   - MySQL: MySQL/MariaDB database
//   - SQLite: SQLite database
//
// # Database Interface
//
//	type Database interface {
//	    Quote(s string) string
//	    QuoteIdentifier(s string) string
//	    Execute(ctx context.Context, statement string) (Rows, error)
//	    Connected() bool
//	    Dialect() string
//	}
//
// Execute returns a Rows handle; FetchAll reads every row in order and keeps
// the column order of each row, so "the first column of the first row" is
// well defined for count queries.
//
// # Sub-packages
//
//   - dialect/sql: database/sql backed Database, statistics and debug wrappers
package dialect
