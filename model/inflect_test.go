package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type AccountRole struct {
	AccountID int    `db:"account_id"`
	RoleID    int    `db:"role_id"`
	Level     string
	CreatedAt time.Time
	Secret    string `db:"-"`
	internal  bool
}

func TestTableNameFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "account_roles", TableNameFor(AccountRole{}))
	assert.Equal(t, "account_roles", TableNameFor(&AccountRole{}))
	assert.Equal(t, "", TableNameFor(nil))
}

func TestFieldsFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"account_id", "role_id", "level", "created_at"}, FieldsFor(&AccountRole{}))
	assert.Nil(t, FieldsFor(42))
}

func TestFor(t *testing.T) {
	t.Parallel()

	drv, _ := mockDriver(t)
	m := For(drv, AccountRole{internal: true}, CombinedKeys("account_id", "role_id"))
	assert.Equal(t, "account_roles", m.TableName())
	assert.Equal(t, []string{"account_id", "role_id", "level", "created_at"}, m.Attributes())
	assert.True(t, m.TableKey().IsCombined())
}
