package sql

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/recordkit/dialect"
)

func TestStatsDriver(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	var slow []string
	drv := NewStatsDriver(OpenDB(dialect.SQLite, db),
		WithSlowThreshold(time.Millisecond),
		WithSlowQueryHook(func(_ context.Context, statement string, _ time.Duration) {
			slow = append(slow, statement)
		}),
	)
	assert.Equal(t, time.Millisecond, drv.SlowThreshold())

	mock.ExpectQuery("SELECT * FROM `user`;").
		WillDelayFor(5 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectExec("DELETE FROM `user` WHERE `user`.`id` = '1';").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM `user` WHERE `user`.`id` = '2';").
		WillReturnError(errors.New("locked"))

	ctx := context.Background()
	_, err = drv.Execute(ctx, "SELECT * FROM `user`;")
	require.NoError(t, err)
	drv.SetSlowThreshold(time.Hour)
	_, err = drv.Execute(ctx, "DELETE FROM `user` WHERE `user`.`id` = '1';")
	require.NoError(t, err)
	_, err = drv.Execute(ctx, "DELETE FROM `user` WHERE `user`.`id` = '2';")
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	s := drv.QueryStats().Stats()
	assert.Equal(t, int64(1), s.TotalQueries)
	assert.Equal(t, int64(2), s.TotalExecs)
	assert.Equal(t, int64(1), s.SlowQueries)
	assert.Equal(t, int64(1), s.Errors)
	assert.Equal(t, []string{"SELECT * FROM `user`;"}, slow)
	assert.Positive(t, s.AvgQueryDuration())
	assert.Contains(t, s.String(), "queries=1 execs=2")

	drv.QueryStats().Reset()
	assert.Equal(t, StatsSnapshot{}, drv.QueryStats().Stats())
	assert.Zero(t, StatsSnapshot{}.AvgQueryDuration())
}

func TestStatsDriverSlowQueryLog(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	drv := NewStatsDriver(OpenDB(dialect.MySQL, db), WithSlowThreshold(-1), WithSlowQueryLog(logger))

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(int64(1)))
	_, err = drv.Execute(context.Background(), "SELECT 1")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "slow query detected")
	assert.Contains(t, buf.String(), `statement="SELECT 1"`)
}

func TestDebugDriver(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	drv := NewDebugDriver(OpenDB(dialect.MySQL, db),
		DebugWithLogger(logger),
		DebugWithIDs(func() string { return "stmt-1" }),
	)

	mock.ExpectExec("DELETE FROM `user` WHERE `user`.`id` = '1';").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM `user` WHERE `user`.`id` = '2';").WillReturnError(errors.New("locked"))

	_, err = drv.Execute(context.Background(), "DELETE FROM `user` WHERE `user`.`id` = '1';")
	require.NoError(t, err)
	_, err = drv.Execute(context.Background(), "DELETE FROM `user` WHERE `user`.`id` = '2';")
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	out := buf.String()
	assert.Contains(t, out, "id=stmt-1")
	assert.Contains(t, out, "dialect=mysql")
	assert.Contains(t, out, "rows_affected=1")
	assert.Contains(t, out, "execute failed")
}

func TestDebugDriverDefaultIDs(t *testing.T) {
	drv := NewDebugDriver(NewDriver(dialect.SQLite, nil))
	assert.Len(t, drv.newID(), 36)
	assert.NotEqual(t, drv.newID(), drv.newID())
}
