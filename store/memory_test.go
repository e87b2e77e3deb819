package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/hybridrec/core"
)

func TestMemoryStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)
	defer s.Close()

	_, err := s.Get(ctx, "missing")
	assert.True(t, core.IsStoreNotFound(err))

	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	// 返回值是副本
	got[0] = 'x'
	again, _ := s.Get(ctx, "k")
	assert.Equal(t, []byte("v"), again)

	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, core.ErrStoreNotFound)
}

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)
	defer s.Close()

	now := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "short", []byte("1"), 10))
	require.NoError(t, s.Set(ctx, "forever", []byte("2")))

	now = now.Add(11 * time.Second)
	_, err := s.Get(ctx, "short")
	assert.True(t, core.IsStoreNotFound(err))
	_, err = s.Get(ctx, "forever")
	assert.NoError(t, err)

	s.evictExpired()
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_DeletePrefix(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)
	defer s.Close()

	for _, k := range []string{"sim:1:2", "sim:2:2", "other"} {
		require.NoError(t, s.Set(ctx, k, []byte("[]")))
	}
	n, err := s.DeletePrefix(ctx, "sim:")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, s.Len())

	// Close 可重复调用
	require.NoError(t, s.Close())
}
