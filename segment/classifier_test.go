package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rushteam/hybridrec/core"
)

func ev(visitor, item int64, kind core.EventKind) core.EventRecord {
	return core.EventRecord{VisitorID: visitor, ItemID: item, Event: kind}
}

func TestClassify(t *testing.T) {
	events := []core.EventRecord{
		ev(1001, 1, core.EventView),
		ev(1001, 2, core.EventView),
		ev(1001, 3, core.EventAddToCart),
		ev(2002, 50, core.EventView),
		// 多次交互同一商品不计入不同商品数
		ev(3003, 7, core.EventView),
		ev(3003, 7, core.EventAddToCart),
		ev(3003, 7, core.EventTransaction),
	}
	c := NewClassifier(events)

	tests := []struct {
		visitor int64
		want    core.Segment
	}{
		{1001, core.SegmentActive},
		{2002, core.SegmentPassive},
		{3003, core.SegmentPassive},
		{4004, core.SegmentNew},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Classify(tt.visitor), "visitor %d", tt.visitor)
	}
	assert.Equal(t, 1, c.ActiveCount())
}

func TestClassify_MinActiveItems(t *testing.T) {
	events := []core.EventRecord{ev(1, 10, core.EventView), ev(1, 11, core.EventView)}

	assert.Equal(t, core.SegmentPassive, NewClassifier(events).Classify(1))
	assert.Equal(t, core.SegmentActive, NewClassifier(events, WithMinActiveItems(2)).Classify(1))
}

func TestPopular(t *testing.T) {
	events := []core.EventRecord{
		ev(1, 300, core.EventView),
		ev(1, 100, core.EventView),
		ev(1, 200, core.EventView),
		ev(2, 200, core.EventView),
		ev(2, 100, core.EventView),
		ev(2, 400, core.EventView),
		// 非活跃访客的事件不参与统计
		ev(9, 400, core.EventView),
		ev(9, 400, core.EventView),
	}
	c := NewClassifier(events)

	// 100 与 200 各 2 次，100 先出现
	assert.Equal(t, []int64{100, 200}, c.Popular())
	assert.Equal(t, []int64{100, 200, 300}, NewClassifier(events, WithPopularCount(3)).Popular())

	p := c.Popular()
	p[0] = -1
	assert.Equal(t, int64(100), c.Popular()[0])
}

func TestPopular_NoActiveVisitors(t *testing.T) {
	c := NewClassifier([]core.EventRecord{ev(1, 10, core.EventView)})
	assert.Equal(t, []int64{}, c.Popular())
}

func TestHistory(t *testing.T) {
	h := NewHistory([]core.EventRecord{
		ev(1, 20, core.EventView),
		ev(1, 10, core.EventView),
		ev(1, 20, core.EventAddToCart),
	})

	assert.Equal(t, []int64{20, 10}, h.Items(1))
	assert.Equal(t, 3, h.EventCount(1))
	assert.Equal(t, 2, h.DistinctItems(1))
	assert.Contains(t, h.Seen(1), int64(10))
	assert.Empty(t, h.Items(2))
	assert.Equal(t, 1, h.Visitors())
	assert.Equal(t, 3, h.Len())
}
