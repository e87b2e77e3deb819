package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/hybridrec/core"
)

// Pipeline 把后处理逻辑拆成可组合的 Node 链，按顺序执行。
type Pipeline struct {
	Nodes []Node

	// Logger 非空时在 debug 级别记录每个 Node 的输入输出数量与耗时
	Logger *zerolog.Logger
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	cur := items
	for _, node := range p.Nodes {
		start := time.Now()
		in := len(cur)
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("pipeline: node %s: %w", node.Name(), err)
		}
		if p.Logger != nil {
			p.Logger.Debug().Str("node", node.Name()).Str("kind", string(node.Kind())).
				Int("in", in).Int("out", len(next)).Dur("took", time.Since(start)).Msg("node processed")
		}
		cur = next
	}
	return cur, nil
}
