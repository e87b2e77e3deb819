package core

import "github.com/rushteam/hybridrec/pkg/utils"

// RecommendContext 承载单次请求的访客、分群与参数，贯穿策略与后处理链路透传。
type RecommendContext struct {
	VisitorID int64
	Segment   Segment

	// TopN 返回条数上限
	TopN int

	// Alpha 是排序列表与内容列表的融合权重
	Alpha float64

	// Labels 是请求级标签，可驱动后处理行为
	Labels map[string]utils.Label
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
