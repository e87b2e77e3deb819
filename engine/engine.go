// Package engine 是推荐引擎：按访客分群选择候选策略，再经统一的后处理链路输出结果。
package engine

import (
	"context"
	"io"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/hybridrec/catalog"
	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/filter"
	"github.com/rushteam/hybridrec/model"
	"github.com/rushteam/hybridrec/pipeline"
	"github.com/rushteam/hybridrec/pkg/logging"
	"github.com/rushteam/hybridrec/pkg/metrics"
	"github.com/rushteam/hybridrec/recall"
	"github.com/rushteam/hybridrec/rerank"
	"github.com/rushteam/hybridrec/segment"
	"github.com/rushteam/hybridrec/similar"
)

// Artifacts 是引擎依赖的离线产物。
// Items 的顺序必须与构建 Index 时一致。
type Artifacts struct {
	Items  []core.Item
	Events []core.EventRecord
	Rows   []core.RankerFeatureRow
	Model  model.RankModel
	Index  core.NeighborIndex
}

// Engine 持有目录、分群器、热门列表与相似商品缓存，构建后只有缓存是可变的。
// Recommend 可并发调用。
type Engine struct {
	catalog    *catalog.Catalog
	classifier *segment.Classifier
	similar    *similar.Cache

	topN  int
	alpha float64

	popular *recall.Popular
	passive *recall.HistorySimilar
	active  *recall.Ranked
	post    *pipeline.Pipeline

	log     zerolog.Logger
	closers []io.Closer
}

// New 从内存中的产物构建引擎。
func New(a Artifacts, opts ...Option) (*Engine, error) {
	o := options{
		topN:           DefaultTopN,
		alpha:          DefaultAlpha,
		minActiveItems: segment.DefaultMinActiveItems,
		popularCount:   segment.DefaultPopularCount,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if a.Index == nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "engine: neighbor index is required")
	}
	if a.Model == nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "engine: rank model is required")
	}
	log := logging.Component("engine")
	if o.log != nil {
		log = *o.log
	}
	if o.rnd == nil {
		now := uint64(time.Now().UnixNano())
		o.rnd = rand.New(rand.NewPCG(now, now>>1))
	}

	cat, err := catalog.New(a.Items)
	if err != nil {
		return nil, err
	}
	if a.Index.Len() != cat.Len() {
		log.Warn().Int("index_len", a.Index.Len()).Int("catalog_len", cat.Len()).
			Msg("index size differs from catalog size")
	}

	classifier := segment.NewClassifier(a.Events,
		segment.WithMinActiveItems(o.minActiveItems),
		segment.WithPopularCount(o.popularCount),
	)
	cache := similar.New(a.Index, cat.IDs(), o.cacheOpts...)

	e := &Engine{
		catalog:    cat,
		classifier: classifier,
		similar:    cache,
		topN:       o.topN,
		alpha:      o.alpha,
		log:        log,
	}
	e.popular = &recall.Popular{IDs: classifier.Popular(), Similar: cache}
	e.passive = &recall.HistorySimilar{
		History:  classifier.History(),
		Catalog:  cat,
		Similar:  cache,
		Shuffler: &lockedRand{r: o.rnd},
		Fallback: e.popular,
		Log:      log,
	}
	e.active = &recall.Ranked{
		History: classifier.History(),
		Rows:    recall.NewRowIndex(a.Rows),
		Model:   a.Model,
		Catalog: cat,
		Similar: cache,
		Log:     log,
	}

	var nodes []pipeline.Node
	if o.rule != "" {
		rule, err := filter.NewRuleNode(o.rule, cat)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, rule)
	}
	nodes = append(nodes, &rerank.DedupNode{}, &rerank.TopNNode{})
	e.post = &pipeline.Pipeline{Nodes: nodes, Logger: &e.log}

	if c, ok := a.Index.(io.Closer); ok {
		e.closers = append(e.closers, c)
	}
	log.Info().Int("items", cat.Len()).Int("events", classifier.History().Len()).
		Int("active_visitors", classifier.ActiveCount()).Ints64("popular", classifier.Popular()).
		Msg("engine ready")
	return e, nil
}

// Recommend 返回访客的推荐结果。从不返回错误：策略或后处理失败时记录日志并降级。
func (e *Engine) Recommend(ctx context.Context, visitorID int64, opts ...RequestOption) core.Result {
	start := time.Now()
	req := request{topN: e.topN, alpha: e.alpha}
	for _, opt := range opts {
		opt(&req)
	}
	if req.topN <= 0 {
		req.topN = e.topN
	}
	if !validAlpha(req.alpha) {
		req.alpha = e.alpha
	}

	rctx := &core.RecommendContext{
		VisitorID: visitorID,
		Segment:   e.classifier.Classify(visitorID),
		TopN:      req.topN,
		Alpha:     req.alpha,
	}

	var src recall.Source
	switch rctx.Segment {
	case core.SegmentNew:
		src = e.popular
	case core.SegmentPassive:
		src = e.passive
	case core.SegmentActive:
		src = e.active
	}

	var cands []*core.Candidate
	if src != nil {
		var err error
		cands, err = src.Recall(ctx, rctx)
		if err != nil {
			e.log.Error().Err(err).Int64("visitor_id", visitorID).Str("source", src.Name()).Msg("recall failed")
			cands = nil
		}
	}

	out, err := e.post.Run(ctx, rctx, cands)
	if err != nil {
		e.log.Error().Err(err).Int64("visitor_id", visitorID).Msg("post-processing failed")
		out = nil
	}

	res := core.NewResult(rctx.Segment, out)
	metrics.ObserveRecommendation(rctx.Segment.String(), len(res.Items))
	e.log.Debug().Int64("visitor_id", visitorID).Str("segment", rctx.Segment.String()).
		Int("count", len(res.Items)).Dur("took", time.Since(start)).Msg("recommend")
	return res
}

// Segment 返回访客分群。
func (e *Engine) Segment(_ context.Context, visitorID int64) core.Segment {
	return e.classifier.Classify(visitorID)
}

// SimilarItems 透传到相似商品缓存。
func (e *Engine) SimilarItems(ctx context.Context, itemID int64, topN int) []int64 {
	return e.similar.SimilarItems(ctx, itemID, topN)
}

// Popular 返回热门列表副本。
func (e *Engine) Popular() []int64 { return e.classifier.Popular() }

// CacheStats 返回相似商品缓存统计。
func (e *Engine) CacheStats() similar.Stats { return e.similar.Stats() }

// Catalog 返回商品目录。
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Close 释放索引映射与二级缓存连接。
func (e *Engine) Close() error {
	var first error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	e.closers = nil
	return first
}
