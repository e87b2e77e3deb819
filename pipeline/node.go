package pipeline

import (
	"context"

	"github.com/rushteam/hybridrec/core"
)

// Kind 用于标记 Node 类型，方便观测/编排（例如按阶段打点）。
type Kind string

const (
	KindRecall      Kind = "recall"      // 召回阶段：按分群生成候选
	KindFilter      Kind = "filter"      // 过滤阶段：剔除不符合规则的候选
	KindRank        Kind = "rank"        // 排序阶段：模型打分
	KindReRank      Kind = "rerank"      // 重排阶段：融合、去重、截断
	KindPostProcess Kind = "postprocess" // 后处理阶段
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用“输入候选 -> 输出候选”的形态。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.Candidate,
	) ([]*core.Candidate, error)
}

// NodeFunc 把函数适配为 Node。
type NodeFunc struct {
	NodeName string
	NodeKind Kind
	Fn       func(ctx context.Context, rctx *core.RecommendContext, items []*core.Candidate) ([]*core.Candidate, error)
}

func (f NodeFunc) Name() string { return f.NodeName }
func (f NodeFunc) Kind() Kind   { return f.NodeKind }
func (f NodeFunc) Process(ctx context.Context, rctx *core.RecommendContext, items []*core.Candidate) ([]*core.Candidate, error) {
	return f.Fn(ctx, rctx, items)
}
