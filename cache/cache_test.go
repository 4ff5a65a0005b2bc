package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/recordkit"
	"github.com/syssam/recordkit/dialect"
)

func TestMemoryGetSet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := NewMemory()

	v, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, c.Set(ctx, "k", []byte("value"), 0))
	v, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), v)

	v[0] = 'X'
	again, _ := c.Get(ctx, "k")
	assert.Equal(t, []byte("value"), again)

	require.NoError(t, c.Delete(ctx, "k"))
	v, _ = c.Get(ctx, "k")
	assert.Nil(t, v)
}

func TestMemoryExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemory(WithClock(func() time.Time { return now }))

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	v, _ := c.Get(ctx, "k")
	assert.NotNil(t, v)

	now = now.Add(time.Minute)
	v, _ = c.Get(ctx, "k")
	assert.Nil(t, v)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryPrefix(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := NewMemory()
	user := recordkit.CacheKey{Table: "user", Statement: "SELECT * FROM `user`;"}
	role := recordkit.CacheKey{Table: "role", Statement: "SELECT * FROM `role`;"}
	require.NoError(t, c.Set(ctx, user.String(), []byte("u"), 0))
	require.NoError(t, c.Set(ctx, role.String(), []byte("r"), 0))

	require.NoError(t, c.DeletePrefix(ctx, recordkit.CachePrefix("user")))
	v, _ := c.Get(ctx, user.String())
	assert.Nil(t, v)
	v, _ = c.Get(ctx, role.String())
	assert.Equal(t, []byte("r"), v)

	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, 0, c.Len())
}

func TestMemoryConcurrent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := NewMemory()
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := string(rune('a' + i))
			_ = c.Set(ctx, key, []byte(key), 0)
			_, _ = c.Get(ctx, key)
		}()
	}
	wg.Wait()
	assert.Equal(t, 16, c.Len())
}

func TestEncodeRows(t *testing.T) {
	t.Parallel()

	rows := []dialect.Row{
		dialect.NewRow([]string{"id", "name", "score"}, []any{int64(1), "alice", 1.5}),
		dialect.NewRow([]string{"id", "name", "score"}, []any{int64(-2), "bob", nil}),
	}
	data, err := EncodeRows(rows)
	require.NoError(t, err)

	got, err := DecodeRows(data)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"id", "name", "score"}, got[0].Columns())
	assert.EqualValues(t, 1, got[0].Values()[0])
	assert.Equal(t, "alice", got[0].Values()[1])
	assert.Equal(t, 1.5, got[0].Values()[2])
	assert.EqualValues(t, -2, got[1].Values()[0])
	assert.Nil(t, got[1].Values()[2])

	_, err = DecodeRows([]byte{0xc1})
	assert.Error(t, err)
}
