package similar

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/hybridrec/catalog"
	"github.com/rushteam/hybridrec/index"
	"github.com/rushteam/hybridrec/store"
)

// stubIndex 返回预设的近邻下标，并记录查询次数。
type stubIndex struct {
	mu        sync.Mutex
	size      int
	dim       int
	neighbors map[int][]int
	calls     int
}

func (s *stubIndex) Len() int       { return s.size }
func (s *stubIndex) Dimension() int { return s.dim }
func (s *stubIndex) NearestByItem(idx, n int) []int {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	out := s.neighbors[idx]
	if len(out) > n {
		out = out[:n]
	}
	return out
}
func (s *stubIndex) NearestByVector(_ []float32, n int) []int {
	out := []int{1, 0}
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func mustIDs(t *testing.T, ids []int64) *catalog.IDMap {
	t.Helper()
	indices := make([]int, len(ids))
	for i := range ids {
		indices[i] = i
	}
	m, err := catalog.NewIDMap(ids, indices)
	require.NoError(t, err)
	return m
}

func TestSimilarItems_ExcludesSelfAndUnmapped(t *testing.T) {
	// 10 -> 0, 20 -> 1；下标 7 没有对应商品
	idx := &stubIndex{size: 8, dim: 2, neighbors: map[int][]int{0: {0, 1, 7}}}
	c := New(idx, mustIDs(t, []int64{10, 20}), WithLogger(zerolog.Nop()))

	assert.Equal(t, []int64{20}, c.SimilarItems(context.Background(), 10, 2))
}

func TestSimilarItems_Truncates(t *testing.T) {
	idx := &stubIndex{size: 4, dim: 2, neighbors: map[int][]int{
		// 自身不在结果中时仍截断到 topN
		0: {1, 2, 3},
	}}
	c := New(idx, mustIDs(t, []int64{10, 20, 30, 40}), WithLogger(zerolog.Nop()))

	assert.Equal(t, []int64{20, 30}, c.SimilarItems(context.Background(), 10, 2))
	assert.Equal(t, []int64{}, c.SimilarItems(context.Background(), 10, 0))
}

func TestSimilarItems_Degrades(t *testing.T) {
	idx := &stubIndex{size: 2, dim: 2, neighbors: map[int][]int{}}
	// 30 的下标 2 超出索引大小
	c := New(idx, mustIDs(t, []int64{10, 20, 30}), WithLogger(zerolog.Nop()))
	ctx := context.Background()

	assert.Equal(t, []int64{}, c.SimilarItems(ctx, 999, 2))
	assert.Equal(t, []int64{}, c.SimilarItems(ctx, 30, 2))
	assert.Equal(t, 0, idx.calls)
}

func TestSimilarItems_Memoized(t *testing.T) {
	idx := &stubIndex{size: 3, dim: 2, neighbors: map[int][]int{0: {0, 1, 2}}}
	c := New(idx, mustIDs(t, []int64{10, 20, 30}), WithLogger(zerolog.Nop()))
	ctx := context.Background()

	first := c.SimilarItems(ctx, 10, 2)
	first[0] = -1 // 调用方修改不影响缓存
	second := c.SimilarItems(ctx, 10, 2)

	assert.Equal(t, []int64{20, 30}, second)
	assert.Equal(t, 1, idx.calls)

	// 不同 topN 是不同的 key
	assert.Equal(t, []int64{20}, c.SimilarItems(ctx, 10, 1))
	assert.Equal(t, 2, idx.calls)

	st := c.Stats()
	assert.Equal(t, int64(1), st.Hits)
	assert.Equal(t, int64(2), st.Misses)
	assert.Equal(t, 2, st.Size)

	c.Purge()
	assert.Equal(t, 0, c.Stats().Size)
}

func TestSimilarItems_Concurrent(t *testing.T) {
	idx := &stubIndex{size: 3, dim: 2, neighbors: map[int][]int{0: {0, 1, 2}, 1: {1, 0, 2}, 2: {2, 1, 0}}}
	c := New(idx, mustIDs(t, []int64{10, 20, 30}), WithCapacity(2), WithLogger(zerolog.Nop()))
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				id := []int64{10, 20, 30}[(g+i)%3]
				got := c.SimilarItems(ctx, id, 2)
				assert.Len(t, got, 2)
				assert.NotContains(t, got, id)
			}
		}(g)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Stats().Size, 2)
}

func TestSimilarItems_L2(t *testing.T) {
	ctx := context.Background()
	l2 := store.NewMemoryStore(0)
	defer l2.Close()

	idx := &stubIndex{size: 3, dim: 2, neighbors: map[int][]int{0: {0, 2, 1}}}
	ids := mustIDs(t, []int64{10, 20, 30})

	a := New(idx, ids, WithStore(l2, time.Hour), WithLogger(zerolog.Nop()))
	assert.Equal(t, []int64{30, 20}, a.SimilarItems(ctx, 10, 2))

	raw, err := l2.Get(ctx, "sim:10:2")
	require.NoError(t, err)
	var stored []int64
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Equal(t, []int64{30, 20}, stored)

	// 另一个副本从 L2 读取，不查询索引
	idx.calls = 0
	b := New(idx, ids, WithStore(l2, time.Hour), WithLogger(zerolog.Nop()))
	assert.Equal(t, []int64{30, 20}, b.SimilarItems(ctx, 10, 2))
	assert.Equal(t, 0, idx.calls)

	// 降级结果不写入 L2
	a.SimilarItems(ctx, 999, 2)
	_, err = l2.Get(ctx, "sim:999:2")
	assert.Error(t, err)
}

func TestSimilarByVector(t *testing.T) {
	flat, err := index.NewFlat([][]float32{{1, 0}, {0, 1}, {0.7, 0.7}})
	require.NoError(t, err)
	c := New(flat, mustIDs(t, []int64{10, 20, 30}), WithLogger(zerolog.Nop()))
	ctx := context.Background()

	assert.Equal(t, []int64{20, 30}, c.SimilarByVector(ctx, []float32{0, 1}, 2))
	assert.Equal(t, []int64{}, c.SimilarByVector(ctx, []float32{1, 2, 3}, 2))

	// Flat 精确索引：20 的最近邻是 30，再是 10
	assert.Equal(t, []int64{30, 10}, c.SimilarItems(ctx, 20, 2))
}
