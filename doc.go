// Package hybridrec 是一个混合推荐引擎。
//
// 设计要点：
// - Segment-first: 每次请求先按行为历史把访客分为 new / passive / active，再选择候选策略
// - Pipeline: 候选统一经过 Node 链后处理（规则过滤 → 去重 → 截断）
// - Labels: 候选携带召回来源与排序模型标签，支持 explain
//
// 入口见 engine.Engine，HTTP 服务见 server，命令行见 cmd/hybridrec。
package hybridrec

import (
	"github.com/rushteam/hybridrec/engine"
	"github.com/rushteam/hybridrec/pipeline"
)

// 轻量 facade：便于直接 import "hybridrec" 使用核心抽象。
type (
	Engine    = engine.Engine
	Artifacts = engine.Artifacts
	Pipeline  = pipeline.Pipeline
	Node      = pipeline.Node
	Kind      = pipeline.Kind
)

var (
	New  = engine.New
	Load = engine.Load
)

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
