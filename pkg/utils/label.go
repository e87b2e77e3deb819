package utils

import "strings"

// Label 是推荐链路中的一等公民：可解释、可追踪、可透传。
// Value 与 Source 的语义由业务自定义；这里只提供标准化的合并规则。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / rank / rerank / rule ...
}

// MergeLabel 用于合并同名 Label，遵循"保留历史、可追踪"的默认策略。
// - Value: 以 '|' 累积，已出现过的值不重复追加
// - Source: 以 ',' 累积，同上
//
// 同一商品经常被多个策略重复召回（例如 popular 与相似扩展），
// 去重后标签仍能保留全部来源。
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}
	return Label{
		Value:  appendPart(existing.Value, incoming.Value, "|"),
		Source: appendPart(existing.Source, incoming.Source, ","),
	}
}

func appendPart(acc, part, sep string) string {
	switch {
	case acc == "":
		return part
	case part == "":
		return acc
	}
	for _, p := range strings.Split(acc, sep) {
		if p == part {
			return acc
		}
	}
	return acc + sep + part
}
