package rerank

import (
	"context"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pipeline"
)

// DedupNode 按 ID 去重，保留首次出现的候选；重复候选的标签合并到保留者上。
type DedupNode struct{}

func (n *DedupNode) Name() string {
	return "rerank.dedup"
}

func (n *DedupNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *DedupNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	seen := make(map[int64]*core.Candidate, len(items))
	out := make([]*core.Candidate, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		if kept, ok := seen[it.ID]; ok {
			for k, lbl := range it.Labels {
				kept.PutLabel(k, lbl)
			}
			continue
		}
		seen[it.ID] = it
		out = append(out, it)
	}
	return out, nil
}
