// Package filter 提供基于 CEL 表达式的候选过滤。
package filter

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/rs/zerolog"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pipeline"
	"github.com/rushteam/hybridrec/pkg/logging"
	"github.com/rushteam/hybridrec/pkg/utils"
)

// ItemLookup 按 ID 查询商品属性，catalog.Catalog 实现了该接口。
type ItemLookup interface {
	Get(id int64) (core.Item, bool)
}

// RuleNode 保留使 CEL 表达式为 true 的候选。
//
// 表达式可用变量：
//   - item.id / item.score / item.property / item.value_length / item.depth
//   - item.in_catalog：商品是否在目录中
//   - item.labels：标签值，例如 item.labels.recall_source.contains("similar")
//   - segment：访客分群，"new" / "passive" / "active"
//   - visitor_id
//
// 示例：
//   - `item.depth >= 2`
//   - `segment != "new" || item.value_length > 0`
//
// 表达式在构建时编译一次，Process 并发安全。单条候选求值出错时保留该候选。
type RuleNode struct {
	expr  string
	prg   cel.Program
	items ItemLookup
	log   zerolog.Logger
}

var ruleEnv = func() *cel.Env {
	env, err := cel.NewEnv(
		cel.Variable("item", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("segment", cel.StringType),
		cel.Variable("visitor_id", cel.IntType),
	)
	if err != nil {
		panic(fmt.Sprintf("filter: cel env: %v", err))
	}
	return env
}()

// NewRuleNode 编译表达式。表达式必须返回 bool。
func NewRuleNode(expr string, items ItemLookup) (*RuleNode, error) {
	ast, issues := ruleEnv.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, core.Errorf(core.ModuleEngine, core.ErrorCodeInvalidInput, "filter: compile rule %q: %v", expr, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) && !ast.OutputType().IsExactType(cel.DynType) {
		return nil, core.Errorf(core.ModuleEngine, core.ErrorCodeInvalidInput,
			"filter: rule %q must return bool, got %s", expr, ast.OutputType())
	}
	prg, err := ruleEnv.Program(ast)
	if err != nil {
		return nil, core.Errorf(core.ModuleEngine, core.ErrorCodeInvalidInput, "filter: program %q: %v", expr, err)
	}
	return &RuleNode{expr: expr, prg: prg, items: items, log: logging.Component("filter")}, nil
}

func (n *RuleNode) Name() string { return "filter.rule" }

func (n *RuleNode) Kind() pipeline.Kind { return pipeline.KindFilter }

// Expr 返回原始表达式。
func (n *RuleNode) Expr() string { return n.expr }

func (n *RuleNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(items) == 0 {
		return items, nil
	}
	var (
		segment string
		visitor int64
	)
	if rctx != nil {
		segment = rctx.Segment.String()
		visitor = rctx.VisitorID
	}

	out := make([]*core.Candidate, 0, len(items))
	for _, c := range items {
		if c == nil {
			continue
		}
		keep, err := n.Match(c, segment, visitor)
		if err != nil {
			n.log.Warn().Err(err).Int64("item_id", c.ID).Str("rule", n.expr).Msg("rule evaluation failed, keeping candidate")
			out = append(out, c)
			continue
		}
		if !keep {
			continue
		}
		c.PutLabel("rule", utils.Label{Value: "pass", Source: "filter"})
		out = append(out, c)
	}
	return out, nil
}

// Match 对单个候选求值。
func (n *RuleNode) Match(c *core.Candidate, segment string, visitorID int64) (bool, error) {
	out, _, err := n.prg.Eval(map[string]any{
		"item":       n.itemInput(c),
		"segment":    segment,
		"visitor_id": visitorID,
	})
	if err != nil {
		return false, err
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rule must return bool, got %T", out.Value())
	}
	return b, nil
}

func (n *RuleNode) itemInput(c *core.Candidate) map[string]any {
	labels := make(map[string]any, len(c.Labels))
	for k, v := range c.Labels {
		labels[k] = v.Value
	}
	in := map[string]any{
		"id":           c.ID,
		"score":        c.Score,
		"labels":       labels,
		"in_catalog":   false,
		"property":     "",
		"value_length": 0.0,
		"depth":        int64(0),
	}
	if n.items != nil {
		if it, ok := n.items.Get(c.ID); ok {
			in["in_catalog"] = true
			in["property"] = it.Property
			in["value_length"] = it.ValueLength
			in["depth"] = int64(it.Depth)
		}
	}
	return in
}

var _ pipeline.Node = (*RuleNode)(nil)
