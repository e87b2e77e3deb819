package recall

import (
	"context"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pipeline"
)

// Popular 是新访客策略：活跃访客中的热门商品，加上第一个热门商品的 1 个相似商品。
// Popular 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用。
type Popular struct {
	// IDs 是预先算好的热门列表
	IDs     []int64
	Similar SimilarLookup
}

func (r *Popular) Name() string        { return "recall.popular" }
func (r *Popular) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *Popular) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Candidate,
) ([]*core.Candidate, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口。热门列表为空时返回空候选。
func (r *Popular) Recall(ctx context.Context, _ *core.RecommendContext) ([]*core.Candidate, error) {
	if len(r.IDs) == 0 {
		return []*core.Candidate{}, nil
	}
	out := core.CandidatesFromIDs(r.IDs, SourcePopular)
	if r.Similar != nil {
		out = append(out, core.CandidatesFromIDs(r.Similar.SimilarItems(ctx, r.IDs[0], 1), SourceSimilar)...)
	}
	return out, nil
}
