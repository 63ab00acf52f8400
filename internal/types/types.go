package types

import (
	"context"

	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/internal/models"
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/pkg/index"
)

// Embedder maps text to fixed-dimension vectors. Implementations must be
// deterministic for identical input, and batch and single-item calls must
// produce identical vectors for the same text. The same instance must be
// used for both indexing and querying a document; vectors from different
// embedders are not comparable.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// Completer sends a prompt to a language model and returns the generated
// text. The model is validated against the supported set before any
// network work happens.
type Completer interface {
	Complete(ctx context.Context, prompt string, model models.Model) (string, error)
}

// DocumentStore persists, per paper, its chunk sequence, vector index and
// metadata, keyed by paper identifier. A paper is built once and then only
// read; there is no incremental append.
type DocumentStore interface {
	// Build embeds all chunks, constructs a vector index and persists the
	// triple. Concurrent builds for the same identifier are serialized.
	Build(ctx context.Context, paperID string, chunks []string) (models.PaperMeta, error)
	// Load retrieves the persisted triple. Returns store.ErrNotFound if no
	// entry exists for the identifier; a paper with zero chunks loads
	// successfully with an empty chunk sequence.
	Load(ctx context.Context, paperID string) ([]string, *index.Flat, models.PaperMeta, error)
	// List returns the identifiers of every persisted paper.
	List(ctx context.Context) ([]string, error)
}
