package core

// Result 是一次推荐的输出。即使候选为空，也总是带上分群。
type Result struct {
	Segment Segment
	Items   []int64

	// Candidates 与 Items 一一对应，保留分数与标签，用于 explain
	Candidates []*Candidate
}

// NewResult 从后处理后的候选构建结果。
func NewResult(seg Segment, cands []*Candidate) Result {
	if cands == nil {
		cands = []*Candidate{}
	}
	return Result{
		Segment:    seg,
		Items:      CandidateIDs(cands),
		Candidates: cands,
	}
}
