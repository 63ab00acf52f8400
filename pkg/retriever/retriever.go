// Package retriever maps nearest-neighbor search results back to chunk text.
package retriever

import (
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/pkg/index"
)

// TopChunks returns the text of the k chunks nearest to the query vector,
// nearest-first. Positions outside the chunk sequence are dropped rather
// than crashing retrieval; aggregation or persistence drift costs a
// candidate, not the query. An empty result means "no relevant context".
func TopChunks(idx *index.Flat, chunks []string, query []float32, k int) ([]string, error) {
	positions, _, err := idx.Search(query, k)
	if err != nil {
		return nil, err
	}
	retrieved := make([]string, 0, len(positions))
	for _, p := range positions {
		if p < 0 || p >= len(chunks) {
			continue
		}
		retrieved = append(retrieved, chunks[p])
	}
	return retrieved, nil
}
