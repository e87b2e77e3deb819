// Package index 提供只读的近似最近邻索引实现。
package index

import (
	"container/heap"
	"encoding/binary"
	"math"
	"sort"

	"github.com/rushteam/hybridrec/core"
)

// Metric 是 Annoy 索引的距离度量，必须与离线构建时一致。
type Metric string

const (
	MetricAngular   Metric = "angular"
	MetricEuclidean Metric = "euclidean"
	MetricDot       Metric = "dot"
)

// layout 描述单个节点在文件中的布局（字节偏移）。
type layout struct {
	children int // children 数组起始偏移
	vector   int // 向量起始偏移
	extra    int // euclidean 的 a / dot 的 dot_factor，-1 表示无
	size     int // 节点大小
}

func layoutFor(m Metric, f int) (layout, bool) {
	switch m {
	case MetricAngular:
		return layout{children: 4, vector: 12, extra: -1, size: 12 + 4*f}, true
	case MetricEuclidean:
		return layout{children: 8, vector: 16, extra: 4, size: 16 + 4*f}, true
	case MetricDot:
		return layout{children: 4, vector: 16, extra: 12, size: 16 + 4*f}, true
	default:
		return layout{}, false
	}
}

// Annoy 读取 Annoy 导出的 .ann 文件（只读）。
//
// 文件由定长节点组成：前 n 个节点是商品本身（n_descendants == 1），
// 其后是各棵树的内部节点，文件末尾是所有根节点的副本。
// 查询流程与 Annoy 的 get_nns_by_item / get_nns_by_vector 保持一致：
// 优先队列按切分面 margin 展开，收集 search_k 个候选后精排。
type Annoy struct {
	data    []byte
	f       int
	metric  Metric
	layout  layout
	k       int // 节点内联存放子节点 ID 的上限
	nNodes  int
	nItems  int
	roots   []int
	searchK int
	closer  func() error
}

// AnnoyOption 配置 Annoy 查询参数。
type AnnoyOption func(*Annoy)

// WithSearchK 设置查询时展开的候选节点数，<=0 表示 n * 树数（Annoy 默认）。
func WithSearchK(k int) AnnoyOption {
	return func(a *Annoy) { a.searchK = k }
}

// OpenAnnoy 打开 .ann 文件。unix 下使用 mmap，其他平台整体读入内存。
func OpenAnnoy(path string, dimension int, metric Metric, opts ...AnnoyOption) (*Annoy, error) {
	data, closer, err := mapFile(path)
	if err != nil {
		return nil, core.Errorf(core.ModuleIndex, core.ErrorCodeUnavailable, "index: open %s: %v", path, err)
	}
	a, err := NewAnnoy(data, dimension, metric, opts...)
	if err != nil {
		_ = closer()
		return nil, err
	}
	a.closer = closer
	return a, nil
}

// NewAnnoy 基于内存中的文件内容构建索引。
func NewAnnoy(data []byte, dimension int, metric Metric, opts ...AnnoyOption) (*Annoy, error) {
	if dimension <= 0 {
		return nil, core.Errorf(core.ModuleIndex, core.ErrorCodeInvalidInput, "index: invalid dimension %d", dimension)
	}
	lay, ok := layoutFor(metric, dimension)
	if !ok {
		return nil, core.Errorf(core.ModuleIndex, core.ErrorCodeInvalidInput, "index: unsupported metric %q", metric)
	}
	if len(data) == 0 || len(data)%lay.size != 0 {
		return nil, core.ErrIndexCorrupt
	}

	a := &Annoy{
		data:   data,
		f:      dimension,
		metric: metric,
		layout: lay,
		k:      (lay.size - lay.children) / 4,
		nNodes: len(data) / lay.size,
		closer: func() error { return nil },
	}
	for _, opt := range opts {
		opt(a)
	}

	// 从文件末尾向前扫描，n_descendants 相同的连续节点即根节点。
	m := -1
	for i := a.nNodes - 1; i >= 0; i-- {
		nd := a.descendants(i)
		if m == -1 || nd == m {
			a.roots = append(a.roots, i)
			m = nd
			continue
		}
		break
	}
	// 最后一个根位于副本区之前，与第一个副本重复
	if len(a.roots) > 1 && a.child(a.roots[0], 0) == a.child(a.roots[len(a.roots)-1], 0) {
		a.roots = a.roots[:len(a.roots)-1]
	}
	a.nItems = m
	if a.nItems <= 0 || a.nItems > a.nNodes {
		return nil, core.ErrIndexCorrupt
	}
	return a, nil
}

func (a *Annoy) Len() int       { return a.nItems }
func (a *Annoy) Dimension() int { return a.f }

// Trees 返回树的数量。
func (a *Annoy) Trees() int { return len(a.roots) }

// Close 释放 mmap。
func (a *Annoy) Close() error {
	a.data = nil
	return a.closer()
}

func (a *Annoy) NearestByItem(idx, n int) []int {
	if idx < 0 || idx >= a.nItems || n <= 0 {
		return nil
	}
	return a.search(a.vector(idx), n)
}

func (a *Annoy) NearestByVector(v []float32, n int) []int {
	if len(v) != a.f || n <= 0 {
		return nil
	}
	return a.search(v, n)
}

func (a *Annoy) search(v []float32, n int) []int {
	searchK := a.searchK
	if searchK <= 0 {
		searchK = n * len(a.roots)
	}

	q := &nodeQueue{}
	for _, r := range a.roots {
		heap.Push(q, queued{priority: math.Inf(1), node: r})
	}

	nns := make([]int, 0, searchK)
	for len(nns) < searchK && q.Len() > 0 {
		top := heap.Pop(q).(queued)
		i := top.node
		nd := a.descendants(i)
		switch {
		case nd == 1 && i < a.nItems:
			nns = append(nns, i)
		case nd <= a.k:
			for j := 0; j < nd; j++ {
				nns = append(nns, a.child(i, j))
			}
		default:
			margin := a.margin(i, v)
			heap.Push(q, queued{priority: math.Min(top.priority, margin), node: a.child(i, 1)})
			heap.Push(q, queued{priority: math.Min(top.priority, -margin), node: a.child(i, 0)})
		}
	}

	sort.Ints(nns)
	type scored struct {
		dist float64
		idx  int
	}
	cands := make([]scored, 0, len(nns))
	last := -1
	for _, j := range nns {
		if j == last {
			continue
		}
		last = j
		if j < 0 || j >= a.nNodes || a.descendants(j) != 1 {
			continue
		}
		cands = append(cands, scored{dist: a.distance(j, v), idx: j})
	}
	sort.Slice(cands, func(x, y int) bool {
		if cands[x].dist != cands[y].dist {
			return cands[x].dist < cands[y].dist
		}
		return cands[x].idx < cands[y].idx
	})
	if len(cands) > n {
		cands = cands[:n]
	}
	out := make([]int, len(cands))
	for i, c := range cands {
		out[i] = c.idx
	}
	return out
}

func (a *Annoy) node(i int) []byte {
	off := i * a.layout.size
	return a.data[off : off+a.layout.size]
}

func (a *Annoy) descendants(i int) int {
	return int(int32(binary.LittleEndian.Uint32(a.node(i))))
}

func (a *Annoy) child(i, j int) int {
	off := a.layout.children + 4*j
	return int(int32(binary.LittleEndian.Uint32(a.node(i)[off:])))
}

func (a *Annoy) vector(i int) []float32 {
	b := a.node(i)[a.layout.vector:]
	v := make([]float32, a.f)
	for j := range v {
		v[j] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*j:]))
	}
	return v
}

func (a *Annoy) extra(i int) float64 {
	if a.layout.extra < 0 {
		return 0
	}
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(a.node(i)[a.layout.extra:])))
}

func (a *Annoy) margin(i int, y []float32) float64 {
	d := dot(a.vector(i), y)
	if a.metric == MetricEuclidean {
		d += a.extra(i)
	}
	return d
}

func (a *Annoy) distance(i int, y []float32) float64 {
	x := a.vector(i)
	switch a.metric {
	case MetricEuclidean:
		var sum float64
		for j := range x {
			diff := float64(x[j] - y[j])
			sum += diff * diff
		}
		return sum
	case MetricDot:
		return -dot(x, y)
	default:
		pp, qq, pq := dot(x, x), dot(y, y), dot(x, y)
		ppqq := pp * qq
		if ppqq > 0 {
			return 2.0 - 2.0*pq/math.Sqrt(ppqq)
		}
		return 2.0
	}
}

func dot(x, y []float32) float64 {
	var sum float64
	for i := range x {
		sum += float64(x[i]) * float64(y[i])
	}
	return sum
}

type queued struct {
	priority float64
	node     int
}

// nodeQueue 是按 priority 降序的最大堆。
type nodeQueue []queued

func (q nodeQueue) Len() int { return len(q) }
func (q nodeQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority > q[j].priority
	}
	return q[i].node > q[j].node
}
func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x any)   { *q = append(*q, x.(queued)) }
func (q *nodeQueue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}

var _ core.NeighborIndex = (*Annoy)(nil)
