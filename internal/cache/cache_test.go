package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoComputesOnce(t *testing.T) {
	c, err := New(100, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	calls := 0
	compute := func() int { calls++; return 42 }

	key := c.Key("summary", "2024-01-01", "2024-12-31")
	assert.Equal(t, 42, Memo(c, key, compute))
	c.Wait()
	assert.Equal(t, 42, Memo(c, key, compute))
	assert.Equal(t, 1, calls)
}

func TestInvalidateChangesKeys(t *testing.T) {
	c, err := New(100, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	before := c.Key("equity", "absolute")
	c.Set(before, "old")
	c.Wait()

	c.Invalidate()
	after := c.Key("equity", "absolute")
	assert.NotEqual(t, before, after)
	assert.Equal(t, uint64(1), c.Revision())

	_, ok := c.Get(after)
	assert.False(t, ok)
	_, ok = c.Get(before)
	assert.False(t, ok)
}

func TestNilCacheComputesEveryTime(t *testing.T) {
	c, err := New(0, time.Minute)
	require.NoError(t, err)
	assert.Nil(t, c)

	calls := 0
	for i := 0; i < 3; i++ {
		Memo(c, c.Key("x"), func() int { calls++; return calls })
	}
	assert.Equal(t, 3, calls)
	c.Invalidate()
	c.Close()
}

func TestKeyFormat(t *testing.T) {
	c, err := New(10, 0)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "r0|groups|strategy|2", c.Key("groups", "strategy", 2))
}
