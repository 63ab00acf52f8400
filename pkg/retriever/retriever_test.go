package retriever_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/pkg/index"
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/pkg/retriever"
)

func buildIndex(t *testing.T, vectors [][]float32) *index.Flat {
	t.Helper()
	idx, err := index.NewFlat(len(vectors[0]))
	require.NoError(t, err)
	require.NoError(t, idx.Add(vectors))
	return idx
}

func TestTopChunksNearestFirst(t *testing.T) {
	idx := buildIndex(t, [][]float32{
		{0, 0},
		{5, 5},
		{1, 1},
	})
	chunks := []string{"origin", "far", "near"}

	got, err := retriever.TopChunks(idx, chunks, []float32{0.1, 0.1}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"origin", "near"}, got)
}

func TestTopChunksDropsOutOfRangePositions(t *testing.T) {
	// Index has more vectors than the chunk sequence: drift between
	// persisted state and the lookup table must only drop candidates
	idx := buildIndex(t, [][]float32{
		{0, 0},
		{1, 1},
		{2, 2},
	})
	chunks := []string{"only chunk"}

	got, err := retriever.TopChunks(idx, chunks, []float32{2, 2}, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"only chunk"}, got)
}

func TestTopChunksEmptyIndex(t *testing.T) {
	idx, err := index.NewFlat(2)
	require.NoError(t, err)

	got, err := retriever.TopChunks(idx, nil, []float32{1, 2}, 3)
	require.NoError(t, err)
	assert.Empty(t, got, "empty result is valid and means no relevant context")
}

func TestTopChunksDimensionMismatch(t *testing.T) {
	idx := buildIndex(t, [][]float32{{1, 2, 3}})

	_, err := retriever.TopChunks(idx, []string{"x"}, []float32{1, 2}, 1)
	assert.ErrorIs(t, err, index.ErrDimensionMismatch)
}
