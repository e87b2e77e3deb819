package core

// Segment 是访客的行为分群，每次请求根据历史重新计算，不落盘。
type Segment string

const (
	SegmentNew     Segment = "new"     // 无任何历史
	SegmentPassive Segment = "passive" // 有历史，但不足以进入活跃集合
	SegmentActive  Segment = "active"  // 历史中不同商品数达到阈值
)

func (s Segment) String() string { return string(s) }

// Valid 判断是否为三种已知分群之一。
func (s Segment) Valid() bool {
	switch s {
	case SegmentNew, SegmentPassive, SegmentActive:
		return true
	default:
		return false
	}
}
