package core

import (
	"strings"
	"time"
)

// EventKind 是访客与商品的交互类型。
type EventKind string

const (
	EventView        EventKind = "view"
	EventAddToCart   EventKind = "addtocart"
	EventTransaction EventKind = "transaction"
)

// ParseEventKind 解析事件类型，兼容 add-to-cart / purchase 等别名。
func ParseEventKind(s string) (EventKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "view":
		return EventView, true
	case "addtocart", "add-to-cart", "add_to_cart":
		return EventAddToCart, true
	case "transaction", "purchase":
		return EventTransaction, true
	default:
		return "", false
	}
}

// EventRecord 是一条离线清洗后的行为记录，服务期只读。
type EventRecord struct {
	VisitorID int64
	ItemID    int64
	Event     EventKind
	Timestamp time.Time

	// Features 是离线预计算的行为特征（hour、dayofweek、conversion 等）
	Features map[string]float64
}

// RankerFeatureRow 是排序模型的一行输入：(visitor, item) 对及其特征。
// Label 仅用于训练，服务期忽略。
type RankerFeatureRow struct {
	VisitorID int64
	ItemID    int64
	Label     float64
	Features  map[string]float64
}
