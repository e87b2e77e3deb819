package index

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/hybridrec/core"
)

// annNode 是测试用的 angular 节点：n_descendants、children 列表、向量。
type annNode struct {
	nd       int32
	children []int32
	v        []float32
}

// buildAngular 按 Annoy angular 布局编码节点：nd@0, children@4, v@12。
func buildAngular(f int, nodes []annNode) []byte {
	size := 12 + 4*f
	buf := make([]byte, size*len(nodes))
	for i, n := range nodes {
		b := buf[i*size : (i+1)*size]
		binary.LittleEndian.PutUint32(b[0:], uint32(n.nd))
		for j, x := range n.v {
			binary.LittleEndian.PutUint32(b[12+4*j:], math.Float32bits(x))
		}
		// 子节点列表可能溢出到向量区域，后写覆盖
		for j, c := range n.children {
			binary.LittleEndian.PutUint32(b[4+4*j:], uint32(c))
		}
	}
	return buf
}

// 5 个商品，一棵树：根按法向量 (1,-1) 切分为 {0,1,2} 与 {3,4}，文件末尾是根副本。
func fixtureNodes() []annNode {
	return []annNode{
		{nd: 1, v: []float32{1, 0}},
		{nd: 1, v: []float32{0.9, 0.1}},
		{nd: 1, v: []float32{0.8, 0.2}},
		{nd: 1, v: []float32{0, 1}},
		{nd: 1, v: []float32{0.1, 0.9}},
		{nd: 3, children: []int32{0, 1, 2}},
		{nd: 2, children: []int32{3, 4}},
		{nd: 5, children: []int32{6, 5}, v: []float32{1, -1}},
		{nd: 5, children: []int32{6, 5}, v: []float32{1, -1}},
	}
}

func TestNewAnnoy_Roots(t *testing.T) {
	a, err := NewAnnoy(buildAngular(2, fixtureNodes()), 2, MetricAngular)
	require.NoError(t, err)

	assert.Equal(t, 5, a.Len())
	assert.Equal(t, 2, a.Dimension())
	assert.Equal(t, 1, a.Trees())
}

func TestAnnoy_NearestByItem(t *testing.T) {
	a, err := NewAnnoy(buildAngular(2, fixtureNodes()), 2, MetricAngular)
	require.NoError(t, err)

	tests := []struct {
		name string
		idx  int
		n    int
		want []int
	}{
		{"left leaf, small search_k", 0, 2, []int{0, 1}},
		{"full expansion", 0, 5, []int{0, 1, 2, 4, 3}},
		{"right leaf", 3, 2, []int{3, 4}},
		{"out of range", 9, 2, nil},
		{"zero n", 0, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.NearestByItem(tt.idx, tt.n))
		})
	}
}

func TestAnnoy_NearestByVector(t *testing.T) {
	a, err := NewAnnoy(buildAngular(2, fixtureNodes()), 2, MetricAngular)
	require.NoError(t, err)

	assert.Equal(t, []int{3, 4}, a.NearestByVector([]float32{0.05, 1}, 2))
	assert.Nil(t, a.NearestByVector([]float32{1, 2, 3}, 2))
}

func TestAnnoy_SearchK(t *testing.T) {
	a, err := NewAnnoy(buildAngular(2, fixtureNodes()), 2, MetricAngular, WithSearchK(100))
	require.NoError(t, err)

	// 展开全部叶子后仍按距离排序截断
	assert.Equal(t, []int{0, 1}, a.NearestByItem(0, 2))
}

func TestNewAnnoy_Invalid(t *testing.T) {
	data := buildAngular(2, fixtureNodes())

	_, err := NewAnnoy(data[:len(data)-3], 2, MetricAngular)
	assert.ErrorIs(t, err, core.ErrIndexCorrupt)

	_, err = NewAnnoy(nil, 2, MetricAngular)
	assert.ErrorIs(t, err, core.ErrIndexCorrupt)

	_, err = NewAnnoy(data, 2, Metric("hamming"))
	require.Error(t, err)
	assert.True(t, core.IsInvalidInput(err))

	_, err = NewAnnoy(data, 0, MetricAngular)
	require.Error(t, err)
}

func TestOpenAnnoy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.ann")
	require.NoError(t, os.WriteFile(path, buildAngular(2, fixtureNodes()), 0o644))

	a, err := OpenAnnoy(path, 2, MetricAngular)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, a.NearestByItem(3, 2))
	require.NoError(t, a.Close())

	_, err = OpenAnnoy(filepath.Join(t.TempDir(), "missing.ann"), 2, MetricAngular)
	require.Error(t, err)
	assert.True(t, core.IsUnavailable(err))
}
