// Package aggregate builds a transient index spanning multiple papers'
// chunks for cross-paper queries. Aggregates are request-scoped and
// rebuilt from scratch on every global query; nothing here is persisted.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/internal/types"
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/pkg/index"
)

// ErrNoContent reports that the requested paper set contributed zero
// chunks, either because every paper was empty or every load failed.
var ErrNoContent = errors.New("no papers available for contextual search")

// Ref maps an aggregate position back to its source chunk.
type Ref struct {
	PaperID string
	Chunk   int // position within the source paper
}

// Aggregate is a transient union of chunks and vectors from several
// papers. Position i of Index corresponds to Chunks[i] and Refs[i];
// vectors keep the same relative order as their source chunks.
type Aggregate struct {
	Chunks []string
	Refs   []Ref
	Index  *index.Flat
}

type Builder struct {
	store types.DocumentStore
	dim   int
}

func NewBuilder(store types.DocumentStore, dim int) *Builder {
	return &Builder{store: store, dim: dim}
}

// Build loads each paper and concatenates its chunks and already-persisted
// vectors into one index. Papers that fail to load are skipped: a partial
// aggregate over the rest is still served. Only a fully empty result is an
// error (ErrNoContent).
func (b *Builder) Build(ctx context.Context, paperIDs []string) (*Aggregate, error) {
	agg := &Aggregate{}
	idx, err := index.NewFlat(b.dim)
	if err != nil {
		return nil, err
	}
	agg.Index = idx

	for _, id := range paperIDs {
		chunks, paperIdx, _, err := b.store.Load(ctx, id)
		if err != nil {
			log.Printf("aggregate: skipping paper %s: %v", id, err)
			continue
		}
		for i := range chunks {
			if err := agg.Index.Add([][]float32{paperIdx.Row(i)}); err != nil {
				return nil, fmt.Errorf("failed to add vectors from %s: %w", id, err)
			}
			agg.Chunks = append(agg.Chunks, chunks[i])
			agg.Refs = append(agg.Refs, Ref{PaperID: id, Chunk: i})
		}
	}

	if len(agg.Chunks) == 0 {
		return nil, ErrNoContent
	}
	return agg, nil
}
