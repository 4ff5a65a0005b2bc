// Package sql provides the database/sql backed implementation of the
// dialect.Database collaborator.
//
// # Driver
//
// Driver wraps a *sql.DB (or any ExecQuerier). Execute routes row-producing
// statements through QueryContext and reads them to completion; inserts,
// updates and deletes go through ExecContext and report their insert id and
// affected row count.
//
//	drv, err := sql.Open(dialect.SQLite, "file::memory:")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rows, err := drv.Execute(ctx, "SELECT * FROM `user`;")
//
// # Quoting
//
// Quote and QuoteIdentifier follow the driver's dialect:
//
//	// MySQL
//	drv.Quote("it's")          // 'it''s'
//	drv.QuoteIdentifier("id")  // `id`
//
//	// PostgreSQL (lib/pq)
//	drv.Quote("it's")          // 'it''s'
//	drv.QuoteIdentifier("id")  // "id"
//
// # Statistics and Debugging
//
// StatsDriver counts statements and detects slow ones, DebugDriver logs every
// statement through log/slog:
//
//	db := sql.NewDebugDriver(sql.NewStatsDriver(drv, sql.WithSlowQueryLog(nil)))
package sql
