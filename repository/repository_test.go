package repository

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/recordkit"
	"github.com/syssam/recordkit/cache"
	"github.com/syssam/recordkit/dialect"
	dsql "github.com/syssam/recordkit/dialect/sql"
	"github.com/syssam/recordkit/model"
	"github.com/syssam/recordkit/query"
)

func mockDriver(t *testing.T) (*dsql.Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return dsql.OpenDB(dialect.MySQL, db), mock
}

func userRepo(t *testing.T, opts ...Option) (*Repository[*model.Model], sqlmock.Sqlmock) {
	t.Helper()
	drv, mock := mockDriver(t)
	user := model.New(drv, "user", model.SingleKey("id"), []string{"id", "name", "role"})
	return New(drv, user, opts...), mock
}

func roleRepo(t *testing.T, opts ...Option) (*Repository[*model.CombinedKey], sqlmock.Sqlmock) {
	t.Helper()
	drv, mock := mockDriver(t)
	ar := model.NewCombinedKey(drv, "account_role", model.CombinedKeys("account_id", "role_id"), []string{"account_id", "role_id", "level"})
	return New(drv, ar, opts...), mock
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "role"}).
		AddRow(int64(1), "alice", "admin").
		AddRow(int64(2), "bob", "member")
}

func TestNewResetsTemplate(t *testing.T) {
	t.Parallel()

	drv, _ := mockDriver(t)
	user := model.New(drv, "user", model.SingleKey("id"), []string{"id", "name"})
	user.Set("id", 9).Set("name", "leftover")
	repo := New(drv, user)
	assert.Nil(t, repo.Model().Get("name"))
	assert.False(t, repo.Model().IsStored())

	m := repo.CreateModel()
	m.Set("name", "fresh")
	assert.Nil(t, repo.Model().Get("name"))
}

func TestCreateQuery(t *testing.T) {
	t.Parallel()

	repo, _ := userRepo(t)
	assert.Equal(t, "SELECT * FROM `user`;", repo.CreateQuery().String())

	repo.OrderBy("name", query.Desc).LimitOffset(10, 20)
	assert.Equal(t, "SELECT * FROM `user` ORDER BY `user`.`name` DESC LIMIT 20,10;", repo.CreateQuery().String())

	repo.OrderBy("id", query.Asc)
	assert.Equal(t, "SELECT * FROM `user` ORDER BY `user`.`id` ASC LIMIT 20,10;", repo.CreateQuery().String())

	repo.ReturnOne()
	assert.Equal(t, "SELECT * FROM `user` ORDER BY `user`.`id` ASC LIMIT 1;", repo.CreateQuery().String())

	repo.ReturnAll().OnlyCount(true)
	assert.Equal(t, "SELECT count(*) FROM `user` ORDER BY `user`.`id` ASC LIMIT 20,10;", repo.CreateQuery().String())
}

func TestBuildSets(t *testing.T) {
	t.Parallel()

	repo, _ := userRepo(t)
	q := repo.CreateQuery()
	q.Where(repo.BuildAndSet(
		query.Triple{Key: "role", Comparator: "=", Value: "admin"},
		query.Triple{Key: "id", Comparator: ">", Value: 3},
	))
	q.Where(repo.BuildOrSet(
		query.Triple{Key: "name", Comparator: "LIKE", Value: "a%"},
		query.Triple{Key: "name", Comparator: "LIKE", Value: "b%"},
	))
	assert.Equal(t, "SELECT * FROM `user` WHERE (`user`.`role` = 'admin' AND `user`.`id` > '3') AND (`user`.`name` LIKE 'a%' OR `user`.`name` LIKE 'b%');", q.String())
}

func TestGetAll(t *testing.T) {
	t.Parallel()

	repo, mock := userRepo(t)
	mock.ExpectQuery("SELECT * FROM `user`;").WillReturnRows(userRows())

	res, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, KindList, res.Kind())
	require.Equal(t, 2, res.Len())
	all := res.All()
	assert.Equal(t, "alice", all[0].Get("name"))
	assert.Equal(t, "bob", all[1].Get("name"))
	assert.True(t, all[0].IsStored())
	assert.NotSame(t, repo.Model(), all[0])
	assert.Nil(t, repo.Model().Get("name"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAllReturnOne(t *testing.T) {
	t.Parallel()

	repo, mock := userRepo(t)
	repo.ReturnOne()
	mock.ExpectQuery("SELECT * FROM `user` LIMIT 1;").WillReturnRows(userRows())
	mock.ExpectQuery("SELECT * FROM `user` LIMIT 1;").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	res, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, KindOne, res.Kind())
	one, ok := res.One()
	require.True(t, ok)
	assert.Equal(t, "alice", one.Get("name"))
	assert.Equal(t, 1, res.Len())

	res, err = repo.GetAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, KindOne, res.Kind())
	one, ok = res.One()
	assert.False(t, ok)
	assert.Nil(t, one)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOnlyCount(t *testing.T) {
	t.Parallel()

	repo, mock := userRepo(t)
	repo.OnlyCount(true)
	mock.ExpectQuery("SELECT count(*) FROM `user` WHERE (`user`.`role` = 'admin');").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(int64(3)))
	mock.ExpectQuery("SELECT count(*) FROM `user`;").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}))

	res, err := repo.GetByCondition(context.Background(), "role", "=", "admin", "AND")
	require.NoError(t, err)
	assert.Equal(t, KindCount, res.Kind())
	assert.Equal(t, 3, res.Count())
	assert.Zero(t, res.Len())

	res, err = repo.GetAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, KindList, res.Kind())
	assert.Zero(t, res.Count())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID(t *testing.T) {
	t.Parallel()

	repo, mock := userRepo(t)
	mock.ExpectQuery("SELECT * FROM `user` WHERE (`user`.`id` = '1');").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "role"}).AddRow(int64(1), "alice", "admin"))

	res, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, KindOne, res.Kind())
	one, ok := res.One()
	require.True(t, ok)
	assert.Equal(t, int64(1), one.Get("id"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDCombinedKey(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	repo, mock := roleRepo(t, WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	mock.ExpectQuery("SELECT * FROM `account_role` WHERE (`account_role`.`account_id` = '4');").
		WillReturnRows(sqlmock.NewRows([]string{"account_id", "role_id"}).AddRow(int64(4), int64(1)))

	res, err := repo.GetByID(context.Background(), 4)
	require.NoError(t, err)
	one, ok := res.One()
	require.True(t, ok)
	assert.True(t, one.IsStored())
	assert.Contains(t, buf.String(), "matching the first key column only")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByCombinedKey(t *testing.T) {
	t.Parallel()

	repo, mock := roleRepo(t)
	mock.ExpectQuery("SELECT * FROM `account_role` WHERE (`account_role`.`account_id` = '1' AND `account_role`.`role_id` = '2');").
		WillReturnRows(sqlmock.NewRows([]string{"account_id", "role_id", "level"}).AddRow(int64(1), int64(2), "owner"))
	mock.ExpectQuery("SELECT * FROM `account_role` WHERE (`account_role`.`account_id` = '1' AND `account_role`.`role_id` = NULL);").
		WillReturnRows(sqlmock.NewRows([]string{"account_id", "role_id", "level"}))

	res, err := repo.GetByCombinedKey(context.Background(), 1, 2)
	require.NoError(t, err)
	one, ok := res.One()
	require.True(t, ok)
	assert.Equal(t, "owner", one.Get("level"))
	assert.True(t, one.IsStored())
	assert.False(t, repo.Model().IsStored())

	res, err = repo.GetByCombinedKey(context.Background(), 1)
	require.NoError(t, err)
	_, ok = res.One()
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByCombinedKeyFallback(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	repo, mock := userRepo(t, WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	mock.ExpectQuery("SELECT * FROM `user` WHERE (`user`.`id` = '7');").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	res, err := repo.GetByCombinedKey(context.Background(), 7, 8)
	require.NoError(t, err)
	assert.Equal(t, KindOne, res.Kind())
	assert.Equal(t, 1, res.Len())
	assert.Contains(t, buf.String(), "falling back to get by id")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByCondition(t *testing.T) {
	t.Parallel()

	repo, mock := userRepo(t)
	mock.ExpectQuery("SELECT * FROM `user` WHERE (`user`.`role` IN ('admin', 'owner'));").
		WillReturnRows(userRows())

	res, err := repo.GetByCondition(context.Background(), "role", "IN", []string{"admin", "owner"}, "or")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Len())

	_, err = repo.GetByCondition(context.Background(), "role", "=", "admin", "XOR")
	require.Error(t, err)
	assert.True(t, recordkit.IsInvalidCombinator(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByConditionSets(t *testing.T) {
	t.Parallel()

	repo, mock := userRepo(t)
	repo.ReturnOne()
	mock.ExpectQuery("SELECT * FROM `user` WHERE (`user`.`role` = 'admin') AND (`user`.`id` = '1' OR `user`.`id` = '2') LIMIT 1;").
		WillReturnRows(userRows())

	res, err := repo.GetByConditionSets(context.Background(),
		repo.BuildAndSet(query.Triple{Key: "role", Comparator: "=", Value: "admin"}),
		query.OrSet(query.Cond("id", "=", 1), query.Cond("id", "=", 2)),
	)
	require.NoError(t, err)
	assert.Equal(t, KindOne, res.Kind())
	assert.Equal(t, 1, res.Len())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteError(t *testing.T) {
	t.Parallel()

	repo, mock := userRepo(t)
	boom := errors.New("connection reset")
	mock.ExpectQuery("SELECT * FROM `user`;").WillReturnError(boom)

	res, err := repo.GetAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, recordkit.IsQueryError(err))
	assert.Zero(t, res.Len())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountCoercionError(t *testing.T) {
	t.Parallel()

	repo, mock := userRepo(t)
	repo.OnlyCount(true)
	mock.ExpectQuery("SELECT count(*) FROM `user`;").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow("many"))

	_, err := repo.GetAll(context.Background())
	require.Error(t, err)
	assert.True(t, recordkit.IsQueryError(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCache(t *testing.T) {
	t.Parallel()

	c := cache.NewMemory()
	repo, mock := userRepo(t, WithCache(c, 0))
	mock.ExpectQuery("SELECT * FROM `user`;").WillReturnRows(userRows())

	ctx := context.Background()
	first, err := repo.GetAll(ctx)
	require.NoError(t, err)
	second, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Equal(t, first.Len(), second.Len())
	assert.Equal(t, "bob", second.All()[1].Get("name"))
	assert.EqualValues(t, 2, second.All()[1].Get("id"))
	require.NoError(t, mock.ExpectationsWereMet())

	require.NoError(t, repo.InvalidateCache(ctx))
	assert.Equal(t, 0, c.Len())
	mock.ExpectQuery("SELECT * FROM `user`;").WillReturnRows(userRows())
	_, err = repo.GetAll(ctx)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "list", KindList.String())
	assert.Equal(t, "one", KindOne.String())
	assert.Equal(t, "count", KindCount.String())
	assert.Equal(t, "unknown", Kind(9).String())
}
