package model

import (
	"math"
	"os"

	"github.com/goccy/go-json"

	"github.com/rushteam/hybridrec/core"
)

// LRModel 是逻辑回归排序模型：sigmoid(bias + Σ w_i * x_i)。
// 未出现在 weights 中的特征被忽略，缺失特征按 0 计。
type LRModel struct {
	Bias    float64
	Weights map[string]float64
}

// LoadLRModel 读取 {"bias": 0.1, "weights": {"views": 0.5}} 格式的模型文件。
func LoadLRModel(path string) (*LRModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.Errorf(core.ModuleModel, core.ErrorCodeUnavailable, "model: read %s: %v", path, err)
	}
	return ParseLRModel(data)
}

// ParseLRModel 解析 JSON 模型内容，weights 不能为空。
func ParseLRModel(data []byte) (*LRModel, error) {
	var raw struct {
		Bias    float64            `json:"bias"`
		Weights map[string]float64 `json:"weights"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, core.Errorf(core.ModuleModel, core.ErrorCodeInvalidInput, "model: parse lr: %v", err)
	}
	if len(raw.Weights) == 0 {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, "model: lr model has no weights")
	}
	return &LRModel{Bias: raw.Bias, Weights: raw.Weights}, nil
}

func (m *LRModel) Name() string { return KindLR }

func (m *LRModel) Predict(features map[string]float64) (float64, error) {
	z := m.Bias
	for name, w := range m.Weights {
		z += w * features[name]
	}
	return 1 / (1 + math.Exp(-z)), nil
}

func (m *LRModel) PredictBatch(featuresList []map[string]float64) ([]float64, error) {
	out := make([]float64, len(featuresList))
	for i, f := range featuresList {
		out[i], _ = m.Predict(f)
	}
	return out, nil
}

var _ BatchRankModel = (*LRModel)(nil)
