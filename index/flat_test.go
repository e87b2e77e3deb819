package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/hybridrec/core"
)

func TestFlat_Nearest(t *testing.T) {
	f, err := NewFlat([][]float32{
		{1, 0},
		{0, 1},
		{0.9, 0.1},
		{-1, 0},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, f.Len())
	assert.Equal(t, 2, f.Dimension())
	assert.Equal(t, []int{0, 2, 1}, f.NearestByItem(0, 3))
	assert.Equal(t, []int{1}, f.NearestByVector([]float32{0, 2}, 1))
	assert.Nil(t, f.NearestByItem(7, 3))
	assert.Nil(t, f.NearestByVector([]float32{1}, 3))
}

func TestFlat_Euclidean(t *testing.T) {
	f, err := NewFlat([][]float32{{0, 0}, {5, 5}, {1, 1}}, MetricEuclidean)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 2, 1}, f.NearestByVector([]float32{0, 0}, 5))
}

func TestFlat_Add(t *testing.T) {
	f, err := NewFlat(nil)
	require.NoError(t, err)

	idx, err := f.Add([]float32{1, 0})
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	_, err = f.Add([]float32{1, 0, 0})
	assert.ErrorIs(t, err, core.ErrIndexDimension)
}

func TestNewFlat_DimensionMismatch(t *testing.T) {
	_, err := NewFlat([][]float32{{1, 0}, {1}})
	assert.ErrorIs(t, err, core.ErrIndexDimension)
}
