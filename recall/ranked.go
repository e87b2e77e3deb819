package recall

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/model"
	"github.com/rushteam/hybridrec/pipeline"
	"github.com/rushteam/hybridrec/rank"
	"github.com/rushteam/hybridrec/rerank"
)

// RowIndex 按访客索引排序特征行，保持文件顺序。
type RowIndex map[int64][]core.RankerFeatureRow

func NewRowIndex(rows []core.RankerFeatureRow) RowIndex {
	idx := make(RowIndex)
	for _, r := range rows {
		idx[r.VisitorID] = append(idx[r.VisitorID], r)
	}
	return idx
}

// HeadCatalog 按表顺序给出前 n 个商品，catalog.Catalog 实现了该接口。
type HeadCatalog interface {
	Head(n int) []int64
}

// SeenStore 提供访客交互过的商品集合，segment.History 实现了该接口。
type SeenStore interface {
	Seen(visitorID int64) map[int64]struct{}
}

// Ranked 是活跃访客策略：
//  1. 去掉已交互商品后用排序模型给剩余 (访客, 商品) 行打分
//  2. 分数降序取 TopN 得到排序列表，每个商品再取 2 个相似商品得到内容列表
//  3. 两个列表按 Alpha 融合（rerank.Blend）
//
// 没有可打分的行，或模型出错时，退回目录前 TopN 个商品。
type Ranked struct {
	History SeenStore
	Rows    RowIndex
	Model   model.RankModel
	Catalog HeadCatalog
	Similar SimilarLookup
	Log     zerolog.Logger
}

func (r *Ranked) Name() string        { return "recall.ranked" }
func (r *Ranked) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *Ranked) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Candidate,
) ([]*core.Candidate, error) {
	return r.Recall(ctx, rctx)
}

func (r *Ranked) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Candidate, error) {
	if rctx == nil {
		return []*core.Candidate{}, nil
	}
	seen := r.History.Seen(rctx.VisitorID)
	var rows []core.RankerFeatureRow
	for _, row := range r.Rows[rctx.VisitorID] {
		if _, ok := seen[row.ItemID]; ok {
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		r.Log.Warn().Int64("visitor_id", rctx.VisitorID).Msg("visitor has already seen every ranked item")
		return r.fallback(rctx), nil
	}

	ranked, err := r.rank(ctx, rctx, rows)
	if err != nil {
		r.Log.Error().Err(err).Int64("visitor_id", rctx.VisitorID).Str("model", r.Model.Name()).
			Msg("ranker failed, using catalog order")
		return r.fallback(rctx), nil
	}

	var content []int64
	for _, id := range ranked {
		content = append(content, r.Similar.SimilarItems(ctx, id, 2)...)
	}
	return rerank.Blend(ranked, content, rctx.TopN, rctx.Alpha), nil
}

// rank 用 rank.ModelNode 打分，返回分数最高的 TopN 个商品。
func (r *Ranked) rank(ctx context.Context, rctx *core.RecommendContext, rows []core.RankerFeatureRow) ([]int64, error) {
	feats := make(rank.ItemFeatures, len(rows))
	cands := make([]*core.Candidate, 0, len(rows))
	for _, row := range rows {
		if _, dup := feats[row.ItemID]; dup {
			continue
		}
		feats[row.ItemID] = row.Features
		cands = append(cands, core.NewCandidate(row.ItemID))
	}

	node := &rank.ModelNode{Model: r.Model, Features: feats}
	scored, err := node.Process(ctx, rctx, cands)
	if err != nil {
		return nil, err
	}

	topN := rctx.TopN
	if topN < 0 {
		topN = 0
	}
	if len(scored) > topN {
		scored = scored[:topN]
	}
	return core.CandidateIDs(scored), nil
}

func (r *Ranked) fallback(rctx *core.RecommendContext) []*core.Candidate {
	return core.CandidatesFromIDs(r.Catalog.Head(rctx.TopN), SourceCatalog)
}
