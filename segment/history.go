// Package segment 按行为历史把访客分为 new / passive / active。
package segment

import "github.com/rushteam/hybridrec/core"

// History 是按访客索引的行为快照，加载后只读。
type History struct {
	// 访客 -> 按首次出现顺序去重的商品
	items map[int64][]int64
	// 访客 -> 事件数
	events map[int64]int
	total  int
}

// NewHistory 按事件顺序建立索引。
func NewHistory(events []core.EventRecord) *History {
	h := &History{
		items:  make(map[int64][]int64),
		events: make(map[int64]int),
		total:  len(events),
	}
	seen := make(map[int64]map[int64]struct{})
	for _, ev := range events {
		h.events[ev.VisitorID]++
		s, ok := seen[ev.VisitorID]
		if !ok {
			s = make(map[int64]struct{})
			seen[ev.VisitorID] = s
		}
		if _, dup := s[ev.ItemID]; dup {
			continue
		}
		s[ev.ItemID] = struct{}{}
		h.items[ev.VisitorID] = append(h.items[ev.VisitorID], ev.ItemID)
	}
	return h
}

// Items 返回访客交互过的去重商品（首次出现顺序）。返回副本。
func (h *History) Items(visitorID int64) []int64 {
	src := h.items[visitorID]
	out := make([]int64, len(src))
	copy(out, src)
	return out
}

// Seen 返回访客交互过的商品集合。
func (h *History) Seen(visitorID int64) map[int64]struct{} {
	src := h.items[visitorID]
	out := make(map[int64]struct{}, len(src))
	for _, id := range src {
		out[id] = struct{}{}
	}
	return out
}

// EventCount 返回访客的事件数。
func (h *History) EventCount(visitorID int64) int {
	return h.events[visitorID]
}

// DistinctItems 返回访客交互过的不同商品数。
func (h *History) DistinctItems(visitorID int64) int {
	return len(h.items[visitorID])
}

// Visitors 返回有历史的访客数。
func (h *History) Visitors() int { return len(h.events) }

// Len 返回事件总数。
func (h *History) Len() int { return h.total }
