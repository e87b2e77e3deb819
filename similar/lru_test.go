package similar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[string, int](2)
	c.Add("a", 1)
	c.Add("b", 2)

	// 访问 a 后，b 成为最久未使用
	_, ok := c.Get("a")
	assert.True(t, ok)
	c.Add("c", 3)

	assert.True(t, c.Contains("a"))
	assert.False(t, c.Contains("b"))
	assert.True(t, c.Contains("c"))
	assert.Equal(t, 2, c.Len())

	_, _, evictions := c.Stats()
	assert.Equal(t, int64(1), evictions)
}

func TestLRU_UpdateAndRemove(t *testing.T) {
	c := NewLRU[int, string](0)
	assert.Equal(t, DefaultCapacity, c.Capacity())

	c.Add(1, "x")
	c.Add(1, "y")
	v, ok := c.Get(1)
	assert.True(t, ok)
	assert.Equal(t, "y", v)
	assert.Equal(t, 1, c.Len())

	assert.True(t, c.Remove(1))
	assert.False(t, c.Remove(1))
	_, ok = c.Get(1)
	assert.False(t, ok)

	hits, misses, _ := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)

	c.Add(2, "z")
	c.Clear()
	assert.Equal(t, 0, c.Len())
}
