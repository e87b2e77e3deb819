package core

import "github.com/rushteam/hybridrec/pkg/utils"

// Item 是商品目录中的一行，加载后不可变。
type Item struct {
	ID          int64
	Property    string  // 属性袋（空格分隔）
	ValueLength float64 // 属性值长度
	Depth       int     // 类目树深度
}

// Candidate 是推荐链路中的统一承载结构：候选 ID、融合分数、标签。
// Labels 用于解释（来源、策略）；Score 用于排序决策。
type Candidate struct {
	ID     int64
	Score  float64
	Labels map[string]utils.Label
}

func NewCandidate(id int64) *Candidate {
	return &Candidate{
		ID:     id,
		Labels: make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (c *Candidate) PutLabel(key string, lbl utils.Label) {
	if c.Labels == nil {
		c.Labels = make(map[string]utils.Label)
	}
	if old, ok := c.Labels[key]; ok {
		c.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	c.Labels[key] = lbl
}

// CandidatesFromIDs 把 ID 列表包装成候选，并统一打上召回来源标签。
func CandidatesFromIDs(ids []int64, source string) []*Candidate {
	out := make([]*Candidate, 0, len(ids))
	for _, id := range ids {
		c := NewCandidate(id)
		c.PutLabel("recall_source", utils.Label{Value: source, Source: "recall"})
		out = append(out, c)
	}
	return out
}

// CandidateIDs 按顺序提取候选 ID。
func CandidateIDs(cands []*Candidate) []int64 {
	ids := make([]int64, 0, len(cands))
	for _, c := range cands {
		if c == nil {
			continue
		}
		ids = append(ids, c.ID)
	}
	return ids
}
