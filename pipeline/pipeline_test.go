package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/hybridrec/core"
)

func TestPipeline_Run(t *testing.T) {
	double := NodeFunc{NodeName: "double", NodeKind: KindPostProcess, Fn: func(_ context.Context, _ *core.RecommendContext, items []*core.Candidate) ([]*core.Candidate, error) {
		return append(items, items...), nil
	}}
	first := NodeFunc{NodeName: "first", NodeKind: KindReRank, Fn: func(_ context.Context, _ *core.RecommendContext, items []*core.Candidate) ([]*core.Candidate, error) {
		return items[:1], nil
	}}
	log := zerolog.Nop()
	p := &Pipeline{Nodes: []Node{double, first}, Logger: &log}

	out, err := p.Run(context.Background(), &core.RecommendContext{}, core.CandidatesFromIDs([]int64{1, 2}, "test"))
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, core.CandidateIDs(out))
}

func TestPipeline_RunError(t *testing.T) {
	boom := errors.New("boom")
	p := &Pipeline{Nodes: []Node{NodeFunc{NodeName: "fail", NodeKind: KindFilter, Fn: func(context.Context, *core.RecommendContext, []*core.Candidate) ([]*core.Candidate, error) {
		return nil, boom
	}}}}

	_, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	assert.ErrorIs(t, err, boom)
}
