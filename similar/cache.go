// Package similar 提供基于近邻索引的相似商品查询与缓存。
package similar

import (
	"context"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/rushteam/hybridrec/catalog"
	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pkg/logging"
	"github.com/rushteam/hybridrec/pkg/metrics"
)

// DefaultCapacity 是相似商品缓存的默认条目数。
const DefaultCapacity = 10000

type key struct {
	itemID int64
	topN   int
}

// Cache 是 SimilarItemsCache：按 (itemID, topN) 记忆近邻查询结果。
//
// 查询顺序：L1（进程内 LRU）→ L2（可选 core.Store）→ 近邻索引。
// 结果（包括空列表）都会写入 L1；L2 的读写错误只记日志。
// 同一 key 的并发未命中可能重复计算，结果一致，不影响内部状态。
type Cache struct {
	index core.NeighborIndex
	ids   *catalog.IDMap
	lru   *LRU[key, []int64]

	l2    core.Store
	l2TTL time.Duration

	log zerolog.Logger
}

// Option 配置 Cache。
type Option func(*Cache)

func WithCapacity(n int) Option {
	return func(c *Cache) { c.lru = NewLRU[key, []int64](n) }
}

// WithStore 启用二级缓存，ttl 为写回时的过期时间。
func WithStore(s core.Store, ttl time.Duration) Option {
	return func(c *Cache) {
		c.l2 = s
		c.l2TTL = ttl
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Cache) { c.log = l }
}

// New 创建缓存。ids 必须与构建索引时的商品顺序一致。
func New(index core.NeighborIndex, ids *catalog.IDMap, opts ...Option) *Cache {
	c := &Cache{
		index: index,
		ids:   ids,
		lru:   NewLRU[key, []int64](DefaultCapacity),
		log:   logging.Component("similar"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SimilarItems 返回与 itemID 最相似的至多 topN 个商品 ID，不含自身。
// 未知商品、下标越界都返回空列表并记录日志，不返回错误。
func (c *Cache) SimilarItems(ctx context.Context, itemID int64, topN int) []int64 {
	k := key{itemID: itemID, topN: topN}
	if v, ok := c.lru.Get(k); ok {
		metrics.SimilarCacheHits.Inc()
		return clone(v)
	}
	metrics.SimilarCacheMisses.Inc()

	if v, ok := c.loadL2(ctx, k); ok {
		c.put(k, v)
		return clone(v)
	}

	v, fromIndex := c.compute(itemID, topN)
	c.put(k, v)
	if fromIndex {
		c.storeL2(ctx, k, v)
	}
	return clone(v)
}

// compute 查询索引；第二个返回值表示结果来自索引（而非降级）。
func (c *Cache) compute(itemID int64, topN int) ([]int64, bool) {
	idx, ok := c.ids.Index(itemID)
	if !ok {
		c.log.Warn().Int64("item_id", itemID).Msg("item not found in catalog")
		return []int64{}, false
	}
	if idx >= c.index.Len() {
		c.log.Error().Int64("item_id", itemID).Int("index", idx).Int("index_size", c.index.Len()).
			Msg("item index out of range for neighbor index")
		return []int64{}, false
	}
	if topN <= 0 {
		return []int64{}, true
	}

	neighbors := c.index.NearestByItem(idx, topN+1)
	out := make([]int64, 0, topN)
	for _, n := range neighbors {
		if n == idx {
			continue
		}
		id, ok := c.ids.ID(n)
		if !ok {
			continue
		}
		out = append(out, id)
		if len(out) == topN {
			break
		}
	}
	return out, true
}

// SimilarByVector 按原始向量查询，维度不符时返回空列表。不做缓存。
func (c *Cache) SimilarByVector(_ context.Context, v []float32, topN int) []int64 {
	if len(v) != c.index.Dimension() {
		c.log.Warn().Int("dimension", len(v)).Int("want", c.index.Dimension()).Msg("query vector dimension mismatch")
		return []int64{}
	}
	if topN <= 0 {
		return []int64{}
	}
	out := make([]int64, 0, topN)
	for _, n := range c.index.NearestByVector(v, topN) {
		if id, ok := c.ids.ID(n); ok {
			out = append(out, id)
		}
	}
	return out
}

// Stats 缓存统计。
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Size      int   `json:"size"`
	Capacity  int   `json:"capacity"`
}

func (c *Cache) Stats() Stats {
	hits, misses, evictions := c.lru.Stats()
	return Stats{
		Hits:      hits,
		Misses:    misses,
		Evictions: evictions,
		Size:      c.lru.Len(),
		Capacity:  c.lru.Capacity(),
	}
}

// Purge 清空 L1。
func (c *Cache) Purge() {
	c.lru.Clear()
	metrics.SimilarCacheEntries.Set(0)
}

func (c *Cache) put(k key, v []int64) {
	c.lru.Add(k, v)
	metrics.SimilarCacheEntries.Set(float64(c.lru.Len()))
}

func storeKey(k key) string {
	return "sim:" + strconv.FormatInt(k.itemID, 10) + ":" + strconv.Itoa(k.topN)
}

func (c *Cache) loadL2(ctx context.Context, k key) ([]int64, bool) {
	if c.l2 == nil {
		return nil, false
	}
	raw, err := c.l2.Get(ctx, storeKey(k))
	if err != nil {
		if !core.IsStoreNotFound(err) {
			c.log.Warn().Err(err).Str("store", c.l2.Name()).Msg("similar-items l2 read failed")
		}
		return nil, false
	}
	var ids []int64
	if err := json.Unmarshal(raw, &ids); err != nil {
		c.log.Warn().Err(err).Str("key", storeKey(k)).Msg("similar-items l2 payload invalid")
		return nil, false
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, true
}

func (c *Cache) storeL2(ctx context.Context, k key, v []int64) {
	if c.l2 == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	var ttl []int
	if c.l2TTL > 0 {
		ttl = append(ttl, int(c.l2TTL.Seconds()))
	}
	if err := c.l2.Set(ctx, storeKey(k), raw, ttl...); err != nil {
		c.log.Warn().Err(err).Str("store", c.l2.Name()).Msg("similar-items l2 write failed")
	}
}

func clone(v []int64) []int64 {
	out := make([]int64, len(v))
	copy(out, v)
	return out
}
