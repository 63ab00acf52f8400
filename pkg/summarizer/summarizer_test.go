package summarizer_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/internal/models"
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/internal/testutil"
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/internal/types"
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/pkg/index"
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/pkg/store"
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/pkg/summarizer"
)

const testDim = 16

// recordingStore counts accesses so tests can assert the store is never
// touched on paths that must not reach it.
type recordingStore struct {
	inner types.DocumentStore
	loads int
	lists int
}

func (r *recordingStore) Build(ctx context.Context, paperID string, chunks []string) (models.PaperMeta, error) {
	return r.inner.Build(ctx, paperID, chunks)
}

func (r *recordingStore) Load(ctx context.Context, paperID string) ([]string, *index.Flat, models.PaperMeta, error) {
	r.loads++
	return r.inner.Load(ctx, paperID)
}

func (r *recordingStore) List(ctx context.Context) ([]string, error) {
	r.lists++
	return r.inner.List(ctx)
}

type fixture struct {
	store     *recordingStore
	embedder  *testutil.FakeEmbedder
	completer *testutil.FakeCompleter
	orch      *summarizer.Orchestrator
}

func newFixture(t *testing.T, papers map[string][]string) *fixture {
	t.Helper()
	embedder := testutil.NewFakeEmbedder(testDim)
	fs, err := store.NewFileStore(store.FileStoreConfig{Dir: t.TempDir()}, embedder)
	require.NoError(t, err)
	for id, chunks := range papers {
		_, err := fs.Build(context.Background(), id, chunks)
		require.NoError(t, err)
	}

	rs := &recordingStore{inner: fs}
	completer := &testutil.FakeCompleter{}
	return &fixture{
		store:     rs,
		embedder:  embedder,
		completer: completer,
		orch:      summarizer.New(rs, embedder, completer),
	}
}

func TestSummarizeFullMapReduce(t *testing.T) {
	f := newFixture(t, map[string][]string{
		"paper1": {"chunk one", "chunk two", "chunk three"},
	})

	summary, err := f.orch.SummarizeFull(context.Background(), "paper1", models.ModelPhi3)
	require.NoError(t, err)
	assert.NotEmpty(t, summary)

	prompts := f.completer.Prompts()
	require.Len(t, prompts, 4, "one call per chunk plus the reduce call")

	final := prompts[len(prompts)-1]
	assert.Contains(t, final, "concise, coherent summary")
	// Chunk summaries appear in chunk order regardless of completion order
	one := strings.Index(final, "completion(Summarize this part of a research paper:\n\nchunk one)")
	two := strings.Index(final, "completion(Summarize this part of a research paper:\n\nchunk two)")
	three := strings.Index(final, "completion(Summarize this part of a research paper:\n\nchunk three)")
	require.NotEqual(t, -1, one)
	require.NotEqual(t, -1, two)
	require.NotEqual(t, -1, three)
	assert.Less(t, one, two)
	assert.Less(t, two, three)
}

func TestSummarizeFullEmptyPaper(t *testing.T) {
	f := newFixture(t, map[string][]string{"empty": {}})

	summary, err := f.orch.SummarizeFull(context.Background(), "empty", models.ModelPhi3)
	require.NoError(t, err)
	assert.Equal(t, summarizer.NoContentMessage, summary)
	assert.Zero(t, f.completer.Calls())
}

func TestSummarizeFullNotFound(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.orch.SummarizeFull(context.Background(), "missing", models.ModelPhi3)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestInvalidModelRejectedBeforeAnyWork(t *testing.T) {
	f := newFixture(t, map[string][]string{
		"paper1": {"chunk one"},
	})
	embedCallsBefore := f.embedder.Calls()
	f.store.loads = 0

	_, err := f.orch.SummarizeFull(context.Background(), "paper1", "unsupported-model")
	assert.ErrorIs(t, err, models.ErrInvalidModel)

	_, err = f.orch.QueryPaper(context.Background(), "paper1", "anything", 3, "unsupported-model")
	assert.ErrorIs(t, err, models.ErrInvalidModel)

	_, err = f.orch.GlobalQuery(context.Background(), nil, "anything", 3, "unsupported-model", true)
	assert.ErrorIs(t, err, models.ErrInvalidModel)

	assert.Zero(t, f.completer.Calls(), "no completion call for an unsupported model")
	assert.Equal(t, embedCallsBefore, f.embedder.Calls(), "no embedding call for an unsupported model")
	assert.Zero(t, f.store.loads, "no store access for an unsupported model")
}

func TestQueryPaperAnswersFromRetrievedContext(t *testing.T) {
	f := newFixture(t, map[string][]string{
		"paper1": {"neural networks chunk", "unrelated cooking chunk"},
	})
	f.completer.Response = "the answer"

	answer, err := f.orch.QueryPaper(context.Background(), "paper1", "neural networks chunk", 1, models.ModelLlama32)
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)

	prompts := f.completer.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "neural networks chunk")
	assert.NotContains(t, prompts[0], "unrelated cooking chunk")
	assert.Contains(t, prompts[0], "Query: neural networks chunk")
}

func TestQueryPaperEmptyPaperSkipsGateway(t *testing.T) {
	f := newFixture(t, map[string][]string{"empty": {}})

	answer, err := f.orch.QueryPaper(context.Background(), "empty", "anything", 3, models.ModelLlama32)
	require.NoError(t, err)
	assert.Equal(t, summarizer.NoContentMessage, answer)
	assert.Zero(t, f.completer.Calls(), "the gateway must never be called for an empty paper")
}

func TestGlobalQueryWithoutContext(t *testing.T) {
	f := newFixture(t, map[string][]string{
		"paper1": {"some chunk"},
	})
	f.completer.Response = "general knowledge answer"
	embedCallsBefore := f.embedder.Calls()
	f.store.loads = 0
	f.store.lists = 0

	answer, err := f.orch.GlobalQuery(context.Background(), nil, "what is Go?", 3, models.ModelGemma, false)
	require.NoError(t, err)
	assert.Equal(t, "general knowledge answer", answer)

	prompts := f.completer.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "general knowledge")
	assert.Contains(t, prompts[0], "what is Go?")

	assert.Zero(t, f.store.loads, "general-knowledge mode must not touch the store")
	assert.Zero(t, f.store.lists)
	assert.Equal(t, embedCallsBefore, f.embedder.Calls())
}

func TestGlobalQueryAcrossPapers(t *testing.T) {
	f := newFixture(t, map[string][]string{
		"paperA": {"A chunk 0", "A chunk 1", "A chunk 2"},
		"paperB": {"B chunk 0", "B chunk 1"},
	})
	f.completer.Response = "cross-paper answer"

	answer, err := f.orch.GlobalQuery(context.Background(), []string{"paperA", "paperB"},
		"B chunk 1", 1, models.ModelPhi3, true)
	require.NoError(t, err)
	assert.Equal(t, "cross-paper answer", answer)

	prompts := f.completer.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "B chunk 1", "retrieval must resolve to the matching paper's chunk")
}

func TestGlobalQueryNilSetUsesAllPapers(t *testing.T) {
	f := newFixture(t, map[string][]string{
		"paperA": {"only content anywhere"},
	})

	answer, err := f.orch.GlobalQuery(context.Background(), nil, "only content anywhere", 1, models.ModelPhi3, true)
	require.NoError(t, err)
	assert.NotEqual(t, summarizer.NoPapersMessage, answer)
	assert.Equal(t, 1, f.store.lists, "nil set aggregates every paper in storage")
}

func TestGlobalQueryNoPapers(t *testing.T) {
	f := newFixture(t, nil)

	answer, err := f.orch.GlobalQuery(context.Background(), nil, "anything", 3, models.ModelPhi3, true)
	require.NoError(t, err)
	assert.Equal(t, summarizer.NoPapersMessage, answer)
	assert.Zero(t, f.completer.Calls())
}

func TestGlobalQuerySkipsUnloadablePapers(t *testing.T) {
	f := newFixture(t, map[string][]string{
		"good": {"good content"},
	})
	f.completer.Response = "partial aggregate answer"

	answer, err := f.orch.GlobalQuery(context.Background(), []string{"gone", "good"},
		"good content", 1, models.ModelPhi3, true)
	require.NoError(t, err, "a partial aggregate must not abort the query")
	assert.Equal(t, "partial aggregate answer", answer)
}
