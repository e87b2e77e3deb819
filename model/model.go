// Package model 提供排序模型：本地 CatBoost/LR 与远程 RPC。
package model

import (
	"strings"
	"time"

	"github.com/rushteam/hybridrec/core"
)

// RankModel 是排序阶段的最小抽象：输入特征，输出一个可比较的分数。
// 具体实现可以是本地模型（CatBoost/LR）或远程 RPC。
type RankModel interface {
	Name() string
	Predict(features map[string]float64) (float64, error)
}

// BatchRankModel 是支持批量打分的 RankModel，引擎优先使用批量接口。
type BatchRankModel interface {
	RankModel
	PredictBatch(featuresList []map[string]float64) ([]float64, error)
}

// 模型类型
const (
	KindCatBoost = "catboost"
	KindLR       = "lr"
	KindRPC      = "rpc"
)

// Spec 描述如何加载一个模型。
type Spec struct {
	Kind     string        // catboost（默认）/ lr / rpc
	Path     string        // 本地模型文件
	Endpoint string        // rpc 地址
	Timeout  time.Duration // rpc 超时
}

// Load 按 Spec 加载模型。
func Load(spec Spec) (RankModel, error) {
	switch strings.ToLower(spec.Kind) {
	case "", KindCatBoost:
		return LoadCatBoost(spec.Path)
	case KindLR:
		return LoadLRModel(spec.Path)
	case KindRPC:
		if spec.Endpoint == "" {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, "model: rpc endpoint is required")
		}
		return NewRPCModel("rpc", spec.Endpoint, spec.Timeout), nil
	default:
		return nil, core.Errorf(core.ModuleModel, core.ErrorCodeNotSupported, "model: unsupported kind %q", spec.Kind)
	}
}

// PredictAll 对一批特征打分：支持批量的模型走批量接口，否则逐条调用。
func PredictAll(m RankModel, featuresList []map[string]float64) ([]float64, error) {
	if b, ok := m.(BatchRankModel); ok {
		return b.PredictBatch(featuresList)
	}
	scores := make([]float64, len(featuresList))
	for i, f := range featuresList {
		s, err := m.Predict(f)
		if err != nil {
			return nil, err
		}
		scores[i] = s
	}
	return scores, nil
}
