// Package recall 实现按访客分群划分的候选生成策略。
package recall

import (
	"context"

	"github.com/rushteam/hybridrec/core"
)

// Source 是一个分群对应的候选生成策略。
// 同一契约：输入请求上下文，输出有序候选列表（可能含重复，由后处理去重）。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Candidate, error)
}

// SimilarLookup 查询相似商品，similar.Cache 实现了该接口。
type SimilarLookup interface {
	SimilarItems(ctx context.Context, itemID int64, topN int) []int64
}

// Shuffler 打乱顺序，*rand.Rand 实现了该接口。
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// 召回来源标签值
const (
	SourcePopular = "popular"
	SourceSimilar = "similar"
	SourceRanker  = "ranker"
	SourceCatalog = "catalog"
)
