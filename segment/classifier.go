package segment

import (
	"sort"

	"github.com/rushteam/hybridrec/core"
)

const (
	DefaultMinActiveItems = 3
	DefaultPopularCount   = 2
)

// Classifier 是 VisitorClassifier：按优先级 active > passive > new 判定分群。
// 活跃集合与热门列表在构建时一次算好，Classify 无副作用。
type Classifier struct {
	history *History
	active  map[int64]struct{}
	popular []int64
}

// Option 配置 Classifier。
type Option func(*options)

type options struct {
	minActiveItems int
	popularCount   int
}

// WithMinActiveItems 设置进入活跃集合所需的不同商品数。
func WithMinActiveItems(n int) Option {
	return func(o *options) { o.minActiveItems = n }
}

// WithPopularCount 设置热门列表长度。
func WithPopularCount(n int) Option {
	return func(o *options) { o.popularCount = n }
}

// NewClassifier 从行为快照构建分类器。events 顺序决定热门列表的并列次序。
func NewClassifier(events []core.EventRecord, opts ...Option) *Classifier {
	o := options{minActiveItems: DefaultMinActiveItems, popularCount: DefaultPopularCount}
	for _, opt := range opts {
		opt(&o)
	}

	h := NewHistory(events)
	c := &Classifier{history: h, active: make(map[int64]struct{})}
	for vid, items := range h.items {
		if len(items) >= o.minActiveItems {
			c.active[vid] = struct{}{}
		}
	}
	c.popular = popularAmong(events, c.active, o.popularCount)
	return c
}

// popularAmong 统计活跃访客事件中出现最多的 n 个商品，并列按首次出现排序。
func popularAmong(events []core.EventRecord, active map[int64]struct{}, n int) []int64 {
	counts := make(map[int64]int)
	var order []int64
	for _, ev := range events {
		if _, ok := active[ev.VisitorID]; !ok {
			continue
		}
		if _, ok := counts[ev.ItemID]; !ok {
			order = append(order, ev.ItemID)
		}
		counts[ev.ItemID]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if n < 0 {
		n = 0
	}
	if len(order) > n {
		order = order[:n]
	}
	if order == nil {
		order = []int64{}
	}
	return order
}

// Classify 返回访客分群。
func (c *Classifier) Classify(visitorID int64) core.Segment {
	if _, ok := c.active[visitorID]; ok {
		return core.SegmentActive
	}
	if c.history.EventCount(visitorID) > 0 {
		return core.SegmentPassive
	}
	return core.SegmentNew
}

// Popular 返回热门列表副本，可能为空。
func (c *Classifier) Popular() []int64 {
	out := make([]int64, len(c.popular))
	copy(out, c.popular)
	return out
}

// History 返回行为索引。
func (c *Classifier) History() *History { return c.history }

// ActiveCount 返回活跃访客数。
func (c *Classifier) ActiveCount() int { return len(c.active) }
