// Package rerank 提供融合、去重、截断等重排节点。
package rerank

import (
	"sort"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pkg/utils"
)

// Blend 融合排序列表与内容列表：
//
//	ranked[i]  += alpha * (topN - i)
//	content[i] += (1 - alpha) * (topN - i)
//
// 分数可叠加；content 长于 topN 时靠后条目的加分为负。
// 结果按分数降序，分数相同按首次插入顺序。
func Blend(ranked, content []int64, topN int, alpha float64) []*core.Candidate {
	byID := make(map[int64]*core.Candidate, len(ranked)+len(content))
	order := make([]*core.Candidate, 0, len(ranked)+len(content))

	add := func(id int64, score float64, source string) {
		c, ok := byID[id]
		if !ok {
			c = core.NewCandidate(id)
			byID[id] = c
			order = append(order, c)
		}
		c.Score += score
		c.PutLabel("recall_source", utils.Label{Value: source, Source: "blend"})
	}
	for i, id := range ranked {
		add(id, alpha*float64(topN-i), "ranker")
	}
	for i, id := range content {
		add(id, (1-alpha)*float64(topN-i), "content")
	}

	sort.SliceStable(order, func(i, j int) bool { return order[i].Score > order[j].Score })
	return order
}
