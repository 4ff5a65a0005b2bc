package sql

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/recordkit/dialect"
)

// QueryStats holds statement execution statistics.
type QueryStats struct {
	// TotalQueries is the total number of row-producing statements executed.
	TotalQueries atomic.Int64
	// TotalExecs is the total number of insert/update/delete statements executed.
	TotalExecs atomic.Int64
	// TotalDuration is the total time spent executing statements.
	TotalDuration atomic.Int64 // nanoseconds
	// SlowQueries is the count of statements exceeding the slow threshold.
	SlowQueries atomic.Int64
	// Errors is the count of failed statements.
	Errors atomic.Int64
}

// Stats returns a snapshot of the current statistics.
func (s *QueryStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		TotalQueries:  s.TotalQueries.Load(),
		TotalExecs:    s.TotalExecs.Load(),
		TotalDuration: time.Duration(s.TotalDuration.Load()),
		SlowQueries:   s.SlowQueries.Load(),
		Errors:        s.Errors.Load(),
	}
}

// Reset resets all statistics to zero.
func (s *QueryStats) Reset() {
	s.TotalQueries.Store(0)
	s.TotalExecs.Store(0)
	s.TotalDuration.Store(0)
	s.SlowQueries.Store(0)
	s.Errors.Store(0)
}

// StatsSnapshot is a point-in-time snapshot of query statistics.
type StatsSnapshot struct {
	TotalQueries  int64
	TotalExecs    int64
	TotalDuration time.Duration
	SlowQueries   int64
	Errors        int64
}

// AvgQueryDuration returns the average statement duration.
func (s StatsSnapshot) AvgQueryDuration() time.Duration {
	total := s.TotalQueries + s.TotalExecs
	if total == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(total)
}

// String returns a human-readable summary of the statistics.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"queries=%d execs=%d duration=%s avg=%s slow=%d errors=%d",
		s.TotalQueries, s.TotalExecs, s.TotalDuration, s.AvgQueryDuration(),
		s.SlowQueries, s.Errors,
	)
}

// SlowQueryHook is a function called when a slow statement is detected.
type SlowQueryHook func(ctx context.Context, statement string, duration time.Duration)

// StatsDriver wraps a Database with statement statistics collection.
type StatsDriver struct {
	dialect.Database
	stats         *QueryStats
	slowThreshold time.Duration
	slowHook      SlowQueryHook
	mu            sync.RWMutex
}

// StatsOption configures the StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the threshold for slow statement detection.
// Default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.slowThreshold = d
	}
}

// WithSlowQueryHook sets a callback function for slow statements.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsDriver) {
		s.slowHook = hook
	}
}

// WithSlowQueryLog logs slow statements to the given logger, or the default
// logger when nil.
func WithSlowQueryLog(logger *slog.Logger) StatsOption {
	if logger == nil {
		logger = slog.Default()
	}
	return WithSlowQueryHook(func(ctx context.Context, statement string, duration time.Duration) {
		logger.WarnContext(ctx, "slow query detected", "duration", duration, "statement", statement)
	})
}

// NewStatsDriver wraps a Database with statistics collection.
//
// Example:
//
//	drv, _ := sql.Open(dialect.MySQL, dsn)
//	db := sql.NewStatsDriver(drv,
//	    sql.WithSlowThreshold(200*time.Millisecond),
//	    sql.WithSlowQueryLog(nil),
//	)
//	repo := repository.New(db, user)
//
//	// Later, check statistics:
//	fmt.Println(db.QueryStats().Stats())
func NewStatsDriver(db dialect.Database, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{
		Database:      db,
		stats:         &QueryStats{},
		slowThreshold: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryStats returns the underlying QueryStats for reading statistics.
func (d *StatsDriver) QueryStats() *QueryStats {
	return d.stats
}

// SlowThreshold returns the current slow statement threshold.
func (d *StatsDriver) SlowThreshold() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.slowThreshold
}

// SetSlowThreshold updates the slow statement threshold.
func (d *StatsDriver) SetSlowThreshold(threshold time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.slowThreshold = threshold
}

// Execute runs a statement and records statistics.
func (d *StatsDriver) Execute(ctx context.Context, statement string) (dialect.Rows, error) {
	start := time.Now()
	rows, err := d.Database.Execute(ctx, statement)
	d.record(ctx, statement, start, err)
	return rows, err
}

func (d *StatsDriver) record(ctx context.Context, statement string, start time.Time, err error) {
	duration := time.Since(start)
	if isQuery(statement) {
		d.stats.TotalQueries.Add(1)
	} else {
		d.stats.TotalExecs.Add(1)
	}
	d.stats.TotalDuration.Add(int64(duration))

	if err != nil {
		d.stats.Errors.Add(1)
	}

	d.mu.RLock()
	threshold := d.slowThreshold
	hook := d.slowHook
	d.mu.RUnlock()

	if duration > threshold {
		d.stats.SlowQueries.Add(1)
		if hook != nil {
			hook(ctx, statement, duration)
		}
	}
}

// DebugDriver wraps a Database with statement logging. Every statement is
// logged with a fresh id so its outcome line can be correlated.
type DebugDriver struct {
	dialect.Database
	logger *slog.Logger
	newID  func() string
}

// DebugOption configures the DebugDriver.
type DebugOption func(*DebugDriver)

// DebugWithLogger sets the logger statements are written to.
func DebugWithLogger(logger *slog.Logger) DebugOption {
	return func(d *DebugDriver) {
		d.logger = logger
	}
}

// DebugWithIDs sets the statement id generator.
func DebugWithIDs(newID func() string) DebugOption {
	return func(d *DebugDriver) {
		d.newID = newID
	}
}

// NewDebugDriver wraps a Database with debug logging.
//
// Example:
//
//	drv, _ := sql.Open(dialect.SQLite, "file::memory:")
//	db := sql.NewDebugDriver(drv, sql.DebugWithLogger(logger))
func NewDebugDriver(db dialect.Database, opts ...DebugOption) *DebugDriver {
	d := &DebugDriver{
		Database: db,
		logger:   slog.Default(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Execute logs the statement and its outcome.
func (d *DebugDriver) Execute(ctx context.Context, statement string) (dialect.Rows, error) {
	id := d.newID()
	d.logger.DebugContext(ctx, "execute", "id", id, "dialect", d.Dialect(), "statement", statement)
	rows, err := d.Database.Execute(ctx, statement)
	if err != nil {
		d.logger.DebugContext(ctx, "execute failed", "id", id, "error", err)
		return nil, err
	}
	d.logger.DebugContext(ctx, "execute done", "id", id, "rows_affected", rows.RowsAffected())
	return rows, nil
}

// Ensure interfaces are implemented.
var (
	_ dialect.Database = (*StatsDriver)(nil)
	_ dialect.Database = (*DebugDriver)(nil)
)
