package model

import (
	"math"
	"os"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/rushteam/hybridrec/core"
)

// CatBoostModel 评估 CatBoost 导出的 JSON 模型（save_model(format="json")）。
//
// 只支持对称树（oblivious trees）与数值特征：
//   - 第 d 层切分命中（value > border）时，叶子下标的第 d 位为 1
//   - 分数 = scale * sum(leaf_values[叶子下标]) + bias
//
// 含类别特征的模型在加载时被拒绝。
type CatBoostModel struct {
	features []cbFeature
	trees    []cbTree
	scale    float64
	bias     float64
}

type cbFeature struct {
	name string
	// 特征缺失时切分结果恒为真（nan_value_treatment == "AsTrue"/"Max"）
	missingTrue bool
}

type cbSplit struct {
	feature int
	border  float64
}

type cbTree struct {
	splits []cbSplit
	leaves []float64
}

type cbJSON struct {
	FeaturesInfo struct {
		FloatFeatures []struct {
			FeatureIndex      int    `json:"feature_index"`
			FlatFeatureIndex  int    `json:"flat_feature_index"`
			FeatureID         string `json:"feature_id"`
			NanValueTreatment string `json:"nan_value_treatment"`
		} `json:"float_features"`
		CategoricalFeatures []json.RawMessage `json:"categorical_features"`
	} `json:"features_info"`
	ObliviousTrees []struct {
		LeafValues []float64 `json:"leaf_values"`
		Splits     []struct {
			FloatFeatureIndex *int    `json:"float_feature_index"`
			Border            float64 `json:"border"`
			SplitType         string  `json:"split_type"`
		} `json:"splits"`
	} `json:"oblivious_trees"`
	ScaleAndBias []json.RawMessage `json:"scale_and_bias"`
}

// LoadCatBoost 从文件加载模型。
func LoadCatBoost(path string) (*CatBoostModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.Errorf(core.ModuleModel, core.ErrorCodeUnavailable, "model: read %s: %v", path, err)
	}
	return ParseCatBoost(data)
}

// ParseCatBoost 解析 JSON 模型内容。
func ParseCatBoost(data []byte) (*CatBoostModel, error) {
	var raw cbJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, invalidModel("parse catboost json: %v", err)
	}
	if len(raw.FeaturesInfo.CategoricalFeatures) > 0 {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeNotSupported,
			"model: catboost models with categorical features are not supported")
	}

	m := &CatBoostModel{scale: 1}
	m.features = make([]cbFeature, len(raw.FeaturesInfo.FloatFeatures))
	for i, f := range raw.FeaturesInfo.FloatFeatures {
		if f.FeatureIndex != i {
			return nil, invalidModel("float feature %d has feature_index %d", i, f.FeatureIndex)
		}
		name := f.FeatureID
		if name == "" {
			name = strconv.Itoa(f.FlatFeatureIndex)
		}
		m.features[i] = cbFeature{
			name:        name,
			missingTrue: f.NanValueTreatment == "AsTrue" || f.NanValueTreatment == "Max",
		}
	}

	m.trees = make([]cbTree, len(raw.ObliviousTrees))
	for t, tr := range raw.ObliviousTrees {
		if want := 1 << len(tr.Splits); len(tr.LeafValues) != want {
			return nil, invalidModel("tree %d: %d leaf values for depth %d (multi-dimensional models are not supported)",
				t, len(tr.LeafValues), len(tr.Splits))
		}
		tree := cbTree{leaves: tr.LeafValues, splits: make([]cbSplit, len(tr.Splits))}
		for d, s := range tr.Splits {
			if s.SplitType != "" && s.SplitType != "FloatFeature" {
				return nil, core.Errorf(core.ModuleModel, core.ErrorCodeNotSupported,
					"model: tree %d: unsupported split type %q", t, s.SplitType)
			}
			if s.FloatFeatureIndex == nil || *s.FloatFeatureIndex < 0 || *s.FloatFeatureIndex >= len(m.features) {
				return nil, invalidModel("tree %d: split %d references unknown float feature", t, d)
			}
			tree.splits[d] = cbSplit{feature: *s.FloatFeatureIndex, border: s.Border}
		}
		m.trees[t] = tree
	}

	if err := m.parseScaleAndBias(raw.ScaleAndBias); err != nil {
		return nil, err
	}
	return m, nil
}

// scale_and_bias 形如 [scale, [bias, ...]]，旧版本为 [scale, bias]。
func (m *CatBoostModel) parseScaleAndBias(parts []json.RawMessage) error {
	if len(parts) == 0 {
		return nil
	}
	if len(parts) != 2 {
		return invalidModel("scale_and_bias must have 2 elements")
	}
	if err := json.Unmarshal(parts[0], &m.scale); err != nil {
		return invalidModel("scale: %v", err)
	}
	var biases []float64
	if err := json.Unmarshal(parts[1], &biases); err == nil {
		if len(biases) > 1 {
			return invalidModel("multi-dimensional bias is not supported")
		}
		if len(biases) == 1 {
			m.bias = biases[0]
		}
		return nil
	}
	if err := json.Unmarshal(parts[1], &m.bias); err != nil {
		return invalidModel("bias: %v", err)
	}
	return nil
}

func (m *CatBoostModel) Name() string { return KindCatBoost }

// FeatureNames 返回模型期望的特征名，按 float feature 顺序。
func (m *CatBoostModel) FeatureNames() []string {
	out := make([]string, len(m.features))
	for i, f := range m.features {
		out[i] = f.name
	}
	return out
}

func (m *CatBoostModel) Predict(features map[string]float64) (float64, error) {
	var sum float64
	for _, tree := range m.trees {
		idx := 0
		for d, s := range tree.splits {
			f := m.features[s.feature]
			v, ok := features[f.name]
			var hit bool
			if !ok || math.IsNaN(v) {
				hit = f.missingTrue
			} else {
				hit = v > s.border
			}
			if hit {
				idx |= 1 << d
			}
		}
		sum += tree.leaves[idx]
	}
	return m.scale*sum + m.bias, nil
}

func (m *CatBoostModel) PredictBatch(featuresList []map[string]float64) ([]float64, error) {
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

func invalidModel(format string, args ...any) error {
	return core.Errorf(core.ModuleModel, core.ErrorCodeInvalidInput, "model: "+format, args...)
}

var _ BatchRankModel = (*CatBoostModel)(nil)
