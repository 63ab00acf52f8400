package index_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/pkg/index"
)

func TestNewFlat(t *testing.T) {
	_, err := index.NewFlat(0)
	assert.Error(t, err)

	idx, err := index.NewFlat(3)
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Dim())
	assert.Equal(t, 0, idx.Len())
}

func TestAddRejectsDimensionMismatch(t *testing.T) {
	idx, err := index.NewFlat(2)
	require.NoError(t, err)

	err = idx.Add([][]float32{{1, 2}, {3, 4, 5}})
	assert.ErrorIs(t, err, index.ErrDimensionMismatch)
	// The whole batch fails before anything is appended
	assert.Equal(t, 0, idx.Len())
}

func TestSearchNearestFirst(t *testing.T) {
	idx, err := index.NewFlat(2)
	require.NoError(t, err)
	require.NoError(t, idx.Add([][]float32{
		{0, 0},
		{10, 0},
		{1, 0},
	}))

	ids, dists, err := idx.Search([]float32{0.4, 0}, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 1}, ids)
	assert.InDelta(t, 0.16, float64(dists[0]), 1e-6)
	assert.InDelta(t, 0.36, float64(dists[1]), 1e-6)
}

func TestSearchExactMatchDistanceZero(t *testing.T) {
	idx, err := index.NewFlat(4)
	require.NoError(t, err)
	vectors := [][]float32{
		{1, 2, 3, 4},
		{5, 6, 7, 8},
		{9, 10, 11, 12},
	}
	require.NoError(t, idx.Add(vectors))

	for i, v := range vectors {
		ids, dists, err := idx.Search(v, 1)
		require.NoError(t, err)
		require.Len(t, ids, 1)
		assert.Equal(t, i, ids[0])
		assert.Zero(t, dists[0])
	}
}

func TestSearchTiesBrokenByInsertionOrder(t *testing.T) {
	idx, err := index.NewFlat(2)
	require.NoError(t, err)
	// Equidistant from the query
	require.NoError(t, idx.Add([][]float32{
		{1, 0},
		{-1, 0},
		{0, 1},
	}))

	ids, _, err := idx.Search([]float32{0, 0}, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, ids)
}

func TestSearchClampsKToIndexSize(t *testing.T) {
	idx, err := index.NewFlat(2)
	require.NoError(t, err)
	require.NoError(t, idx.Add([][]float32{{1, 1}, {2, 2}}))

	ids, dists, err := idx.Search([]float32{0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, ids, 2, "no fabricated entries beyond index size")
	assert.Len(t, dists, 2)
	assert.LessOrEqual(t, dists[0], dists[1])
}

func TestSearchEmptyIndex(t *testing.T) {
	idx, err := index.NewFlat(2)
	require.NoError(t, err)

	ids, dists, err := idx.Search([]float32{0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Empty(t, dists)
}

func TestSearchRejectsQueryDimensionMismatch(t *testing.T) {
	idx, err := index.NewFlat(3)
	require.NoError(t, err)
	require.NoError(t, idx.Add([][]float32{{1, 2, 3}}))

	_, _, err = idx.Search([]float32{1, 2}, 1)
	assert.ErrorIs(t, err, index.ErrDimensionMismatch)
}

func TestWriteAndReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.bin")

	idx, err := index.NewFlat(3)
	require.NoError(t, err)
	vectors := [][]float32{
		{0.1, 0.2, 0.3},
		{4, 5, 6},
	}
	require.NoError(t, idx.Add(vectors))
	require.NoError(t, idx.WriteFile(path))

	loaded, err := index.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, idx.Dim(), loaded.Dim())
	assert.Equal(t, idx.Len(), loaded.Len())
	for i, v := range vectors {
		assert.Equal(t, v, loaded.Row(i))
	}

	ids, dists, err := loaded.Search([]float32{4, 5, 6}, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, ids)
	assert.Zero(t, dists[0])
}

func TestReadFileMissing(t *testing.T) {
	_, err := index.ReadFile(filepath.Join(t.TempDir(), "nope.bin"))
	assert.Error(t, err)
}
