package index

import (
	"math"
	"sort"
	"sync"

	"github.com/rushteam/hybridrec/core"
)

// Flat 是内存精确检索索引，用于测试/开发/小规模目录。
//
// 特点：
//   - 暴力计算，O(n) 每次查询
//   - 支持余弦、欧氏距离、内积三种度量
//   - 线程安全，可在服务期追加向量
type Flat struct {
	mu        sync.RWMutex
	dimension int
	metric    Metric
	vectors   [][]float32
}

// NewFlat 创建精确索引，vectors 的下标即稠密下标。度量默认 angular（余弦）。
func NewFlat(vectors [][]float32, metric ...Metric) (*Flat, error) {
	m := MetricAngular
	if len(metric) > 0 && metric[0] != "" {
		m = metric[0]
	}
	if _, ok := layoutFor(m, 1); !ok {
		return nil, core.Errorf(core.ModuleIndex, core.ErrorCodeInvalidInput, "index: unsupported metric %q", m)
	}
	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	for _, v := range vectors {
		if len(v) != dim {
			return nil, core.ErrIndexDimension
		}
	}
	return &Flat{dimension: dim, metric: m, vectors: vectors}, nil
}

// Add 追加一条向量，返回其稠密下标。
func (f *Flat) Add(v []float32) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.vectors) == 0 && f.dimension == 0 {
		f.dimension = len(v)
	}
	if len(v) != f.dimension {
		return 0, core.ErrIndexDimension
	}
	f.vectors = append(f.vectors, v)
	return len(f.vectors) - 1, nil
}

func (f *Flat) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.vectors)
}

func (f *Flat) Dimension() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dimension
}

func (f *Flat) NearestByItem(idx, n int) []int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if idx < 0 || idx >= len(f.vectors) {
		return nil
	}
	return f.nearest(f.vectors[idx], n)
}

func (f *Flat) NearestByVector(v []float32, n int) []int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(v) != f.dimension {
		return nil
	}
	return f.nearest(v, n)
}

func (f *Flat) nearest(q []float32, n int) []int {
	if n <= 0 {
		return nil
	}
	type scored struct {
		idx  int
		dist float64
	}
	all := make([]scored, len(f.vectors))
	for i, v := range f.vectors {
		all[i] = scored{idx: i, dist: f.distance(v, q)}
	}
	// 距离升序，距离相同按下标
	sort.SliceStable(all, func(i, j int) bool { return all[i].dist < all[j].dist })
	if len(all) > n {
		all = all[:n]
	}
	out := make([]int, len(all))
	for i, s := range all {
		out[i] = s.idx
	}
	return out
}

func (f *Flat) distance(x, y []float32) float64 {
	switch f.metric {
	case MetricEuclidean:
		var sum float64
		for i := range x {
			d := float64(x[i]) - float64(y[i])
			sum += d * d
		}
		return math.Sqrt(sum)
	case MetricDot:
		return -dot(x, y)
	default:
		return 1 - cosineSimilarity(x, y)
	}
}

// cosineSimilarity 计算余弦相似度，零向量返回 0
func cosineSimilarity(a, b []float32) float64 {
	var d, normA, normB float64
	for i := range a {
		d += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return d / (math.Sqrt(normA) * math.Sqrt(normB))
}

var _ core.NeighborIndex = (*Flat)(nil)
