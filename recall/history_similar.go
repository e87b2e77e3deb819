package recall

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pipeline"
)

// HistoryStore 提供访客的去重历史商品，segment.History 实现了该接口。
type HistoryStore interface {
	Items(visitorID int64) []int64
}

// Catalog 判断商品是否在目录中。
type Catalog interface {
	Contains(id int64) bool
}

// HistorySimilar 是被动访客策略：随机遍历访客的历史商品，
// 第一个在目录中且有相似商品（取 2 个）的商品胜出，候选 = 相似商品 + 热门列表。
// 全部落空时退回新访客策略。
type HistorySimilar struct {
	History  HistoryStore
	Catalog  Catalog
	Similar  SimilarLookup
	Shuffler Shuffler
	Fallback *Popular
	Log      zerolog.Logger
}

func (r *HistorySimilar) Name() string        { return "recall.history_similar" }
func (r *HistorySimilar) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *HistorySimilar) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Candidate,
) ([]*core.Candidate, error) {
	return r.Recall(ctx, rctx)
}

func (r *HistorySimilar) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Candidate, error) {
	if rctx == nil {
		return []*core.Candidate{}, nil
	}
	items := r.History.Items(rctx.VisitorID)
	if r.Shuffler != nil {
		r.Shuffler.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
	}

	for _, it := range items {
		if r.Catalog != nil && !r.Catalog.Contains(it) {
			continue
		}
		similar := r.Similar.SimilarItems(ctx, it, 2)
		if len(similar) == 0 {
			continue
		}
		out := core.CandidatesFromIDs(similar, SourceSimilar)
		if r.Fallback != nil {
			out = append(out, core.CandidatesFromIDs(r.Fallback.IDs, SourcePopular)...)
		}
		return out, nil
	}

	r.Log.Warn().Int64("visitor_id", rctx.VisitorID).Int("history_items", len(items)).
		Msg("no similar items for any history item, falling back to popular")
	if r.Fallback == nil {
		return []*core.Candidate{}, nil
	}
	return r.Fallback.Recall(ctx, rctx)
}
