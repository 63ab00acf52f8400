// Package summarizer composes segmented papers, vector retrieval and
// completion calls into the three user-facing workflows: full-paper
// summary, single-paper query answer and global query answer.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/internal/models"
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/internal/types"
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/pkg/aggregate"
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/pkg/retriever"
)

// Fixed sentinel sentences returned as successful results, never errors.
const (
	NoContentMessage = "No content found for this paper."
	NoPapersMessage  = "No papers available for contextual search."
)

const (
	defaultTopK = 3
	// Per-chunk summary calls issued at once during a full summary. The
	// results are reassembled in chunk order regardless of completion order.
	mapConcurrency = 4
)

type Orchestrator struct {
	store     types.DocumentStore
	embedder  types.Embedder
	completer types.Completer
}

func New(store types.DocumentStore, embedder types.Embedder, completer types.Completer) *Orchestrator {
	return &Orchestrator{store: store, embedder: embedder, completer: completer}
}

// guardModel rejects unsupported models before any index or network work.
func guardModel(model models.Model) error {
	_, err := models.ParseModel(string(model))
	return err
}

// SummarizeFull produces a coherent summary of a whole paper: one
// completion per chunk, then one reduce call over the concatenated chunk
// summaries. Cost scales linearly with chunk count by design.
func (o *Orchestrator) SummarizeFull(ctx context.Context, paperID string, model models.Model) (string, error) {
	if err := guardModel(model); err != nil {
		return "", err
	}

	chunks, _, _, err := o.store.Load(ctx, paperID)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return NoContentMessage, nil
	}

	summaries := make([]string, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(mapConcurrency)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			prompt := fmt.Sprintf("Summarize this part of a research paper:\n\n%s", chunk)
			summary, err := o.completer.Complete(gctx, prompt, model)
			if err != nil {
				return fmt.Errorf("failed to summarize chunk %d: %w", i, err)
			}
			summaries[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	combined := strings.Join(summaries, " ")
	return o.completer.Complete(ctx, fmt.Sprintf(
		"Provide a concise, coherent summary of this research paper based on the following:\n\n%s",
		combined), model)
}

// QueryPaper answers a query against a single paper's index.
func (o *Orchestrator) QueryPaper(ctx context.Context, paperID, query string, k int, model models.Model) (string, error) {
	if err := guardModel(model); err != nil {
		return "", err
	}
	if k <= 0 {
		k = defaultTopK
	}

	chunks, idx, _, err := o.store.Load(ctx, paperID)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return NoContentMessage, nil
	}

	queryVec, err := o.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return "", fmt.Errorf("failed to embed query: %w", err)
	}
	retrieved, err := retriever.TopChunks(idx, chunks, queryVec, k)
	if err != nil {
		return "", err
	}
	if len(retrieved) == 0 {
		return NoContentMessage, nil
	}

	prompt := fmt.Sprintf(
		"Based on the following extracted parts of a research paper, answer the query:\n\n%s\n\nQuery: %s\n\nAnswer concisely:",
		strings.Join(retrieved, "\n"), query)
	return o.completer.Complete(ctx, prompt, model)
}

// GlobalQuery answers a query across a set of papers, or from general
// model knowledge when useContext is false (no store or aggregate access
// at all in that mode). A nil paperIDs set aggregates every paper in
// storage — the unauthenticated deployment mode; authenticated deployments
// pass the requesting user's paper set.
func (o *Orchestrator) GlobalQuery(ctx context.Context, paperIDs []string, query string, k int, model models.Model, useContext bool) (string, error) {
	if err := guardModel(model); err != nil {
		return "", err
	}
	if !useContext {
		return o.completer.Complete(ctx, fmt.Sprintf(
			"Answer this query with your general knowledge:\n\n%s", query), model)
	}
	if k <= 0 {
		k = defaultTopK
	}

	if paperIDs == nil {
		var err error
		paperIDs, err = o.store.List(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to list papers: %w", err)
		}
	}

	builder := aggregate.NewBuilder(o.store, o.embedder.Dimension())
	agg, err := builder.Build(ctx, paperIDs)
	if err != nil {
		if errors.Is(err, aggregate.ErrNoContent) {
			return NoPapersMessage, nil
		}
		return "", err
	}

	queryVec, err := o.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return "", fmt.Errorf("failed to embed query: %w", err)
	}
	retrieved, err := retriever.TopChunks(agg.Index, agg.Chunks, queryVec, k)
	if err != nil {
		return "", err
	}
	if len(retrieved) == 0 {
		return NoPapersMessage, nil
	}

	prompt := fmt.Sprintf(
		"Based on the following extracted parts from your uploaded research papers, answer the query:\n\n%s\n\nQuery: %s\n\nAnswer concisely:",
		strings.Join(retrieved, "\n"), query)
	return o.completer.Complete(ctx, prompt, model)
}
