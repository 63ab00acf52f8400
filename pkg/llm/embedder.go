package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/pkg/index"
)

type EmbedderConfig struct {
	Model     string
	VectorDim int
	BaseURL   string // Ollama server URL
}

// Embedder produces fixed-dimension embeddings through an Ollama model.
// One instance is constructed at startup and passed to every component
// that embeds text, so index-time and query-time vectors always come from
// the same model.
type Embedder struct {
	config EmbedderConfig
	llm    *ollama.LLM
}

func NewEmbedderWithConfig(config EmbedderConfig) (*Embedder, error) {
	if config.Model == "" {
		config.Model = "nomic-embed-text:latest"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768 // nomic-embed-text output size
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}

	emb, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	return &Embedder{config: config, llm: emb}, nil
}

func (e *Embedder) Dimension() int { return e.config.VectorDim }

// EmbedTexts maps a batch of texts to one vector each, in input order.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	embeddings, err := e.llm.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(embeddings), len(texts))
	}
	for i, v := range embeddings {
		if len(v) != e.config.VectorDim {
			return nil, fmt.Errorf("%w: model %s returned %d dims for text %d, expected %d",
				index.ErrDimensionMismatch, e.config.Model, len(v), i, e.config.VectorDim)
		}
	}
	return embeddings, nil
}

// EmbedQuery embeds a single text. Identical to a one-element EmbedTexts
// call, so query vectors are comparable with indexed chunk vectors.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}
