// Package rank 提供用 RankModel 给候选打分的排序节点。
package rank

import (
	"context"
	"sort"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/model"
	"github.com/rushteam/hybridrec/pipeline"
	"github.com/rushteam/hybridrec/pkg/utils"
)

// FeatureSource 提供 (访客, 商品) 的排序特征。
type FeatureSource interface {
	Features(visitorID, itemID int64) (map[string]float64, bool)
}

// ItemFeatures 是单个访客的商品特征表，忽略 visitorID。
type ItemFeatures map[int64]map[string]float64

func (f ItemFeatures) Features(_, itemID int64) (map[string]float64, bool) {
	v, ok := f[itemID]
	return v, ok
}

// ModelNode 用 RankModel 给候选打分。
//   - 写入 labels：rank_model
//   - 更新 Score 并按分数稳定降序
//
// 模型支持批量时走 PredictBatch。没有特征的候选以空特征打分。
type ModelNode struct {
	Model    model.RankModel
	Features FeatureSource
}

func (n *ModelNode) Name() string        { return "rank.model" }
func (n *ModelNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *ModelNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	if n.Model == nil || len(items) == 0 {
		return items, nil
	}

	var visitorID int64
	if rctx != nil {
		visitorID = rctx.VisitorID
	}
	valid := make([]*core.Candidate, 0, len(items))
	featuresList := make([]map[string]float64, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		var f map[string]float64
		if n.Features != nil {
			f, _ = n.Features.Features(visitorID, it.ID)
		}
		valid = append(valid, it)
		featuresList = append(featuresList, f)
	}

	scores, err := model.PredictAll(n.Model, featuresList)
	if err != nil {
		return nil, err
	}
	if len(scores) != len(valid) {
		return nil, core.Errorf(core.ModuleModel, core.ErrorCodeInternalError,
			"rank: model returned %d scores for %d candidates", len(scores), len(valid))
	}
	for i, it := range valid {
		it.Score = scores[i]
		it.PutLabel("rank_model", utils.Label{Value: n.Model.Name(), Source: "rank"})
	}

	sort.SliceStable(valid, func(i, j int) bool { return valid[i].Score > valid[j].Score })
	return valid, nil
}
