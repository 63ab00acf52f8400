package aggregate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/internal/testutil"
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/pkg/aggregate"
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/pkg/retriever"
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/pkg/store"
)

const testDim = 16

func newStoreWithPapers(t *testing.T, papers map[string][]string) *store.FileStore {
	t.Helper()
	s, err := store.NewFileStore(store.FileStoreConfig{Dir: t.TempDir()},
		testutil.NewFakeEmbedder(testDim))
	require.NoError(t, err)
	for id, chunks := range papers {
		_, err := s.Build(context.Background(), id, chunks)
		require.NoError(t, err)
	}
	return s
}

func TestBuildUnionPreservesOrderAndMapping(t *testing.T) {
	s := newStoreWithPapers(t, map[string][]string{
		"paperA": {"A chunk 0", "A chunk 1", "A chunk 2"},
		"paperB": {"B chunk 0", "B chunk 1"},
	})
	b := aggregate.NewBuilder(s, testDim)

	agg, err := b.Build(context.Background(), []string{"paperA", "paperB"})
	require.NoError(t, err)

	require.Len(t, agg.Chunks, 5)
	require.Len(t, agg.Refs, 5)
	assert.Equal(t, 5, agg.Index.Len())

	// Chunks keep their source order across the concatenation
	assert.Equal(t, []string{"A chunk 0", "A chunk 1", "A chunk 2", "B chunk 0", "B chunk 1"}, agg.Chunks)
	assert.Equal(t, aggregate.Ref{PaperID: "paperA", Chunk: 0}, agg.Refs[0])
	assert.Equal(t, aggregate.Ref{PaperID: "paperB", Chunk: 0}, agg.Refs[3])
	assert.Equal(t, aggregate.Ref{PaperID: "paperB", Chunk: 1}, agg.Refs[4])

	// A query identical to B's chunk-1 vector resolves to B's text
	query := testutil.VectorFor("B chunk 1", testDim)
	got, err := retriever.TopChunks(agg.Index, agg.Chunks, query, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"B chunk 1"}, got)
}

func TestBuildSkipsMissingPapers(t *testing.T) {
	s := newStoreWithPapers(t, map[string][]string{
		"present": {"some chunk"},
	})
	b := aggregate.NewBuilder(s, testDim)

	agg, err := b.Build(context.Background(), []string{"missing1", "present", "missing2"})
	require.NoError(t, err, "a partial aggregate must be served")
	assert.Equal(t, []string{"some chunk"}, agg.Chunks)
}

func TestBuildAllMissingDegradesToNoContent(t *testing.T) {
	s := newStoreWithPapers(t, nil)
	b := aggregate.NewBuilder(s, testDim)

	_, err := b.Build(context.Background(), []string{"gone1", "gone2"})
	assert.ErrorIs(t, err, aggregate.ErrNoContent)
}

func TestBuildEmptyPapersOnly(t *testing.T) {
	s := newStoreWithPapers(t, map[string][]string{
		"empty": {},
	})
	b := aggregate.NewBuilder(s, testDim)

	_, err := b.Build(context.Background(), []string{"empty"})
	assert.ErrorIs(t, err, aggregate.ErrNoContent)
}
