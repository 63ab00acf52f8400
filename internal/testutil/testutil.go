// Package testutil provides deterministic in-process substitutes for the
// embedding provider and the completion gateway, so the store, retriever
// and orchestrator are testable without a running Ollama server.
package testutil

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/internal/models"
)

// FakeEmbedder derives a fixed-dimension vector from a hash of the text.
// Identical text always embeds to the identical vector, and batch and
// single-item calls agree, matching the provider contract.
type FakeEmbedder struct {
	Dim int

	mu    sync.Mutex
	calls int
}

func NewFakeEmbedder(dim int) *FakeEmbedder {
	return &FakeEmbedder{Dim: dim}
}

func (f *FakeEmbedder) Dimension() int { return f.Dim }

func (f *FakeEmbedder) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *FakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vectors[i] = VectorFor(t, f.Dim)
	}
	return vectors, nil
}

func (f *FakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// VectorFor is the deterministic text-to-vector mapping used by
// FakeEmbedder, exported so tests can predict exact vectors.
func VectorFor(text string, dim int) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	state := h.Sum64()

	vec := make([]float32, dim)
	for i := range vec {
		state = state*6364136223846793005 + 1442695040888963407
		vec[i] = float32(state>>40) / float32(1<<24)
	}
	return vec
}

// FakeCompleter records every prompt it receives and answers with a
// canned or prompt-derived response.
type FakeCompleter struct {
	Response string
	Err      error

	mu      sync.Mutex
	prompts []string
}

func (f *FakeCompleter) Complete(ctx context.Context, prompt string, model models.Model) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if f.Err != nil {
		return "", f.Err
	}
	if f.Response != "" {
		return f.Response, nil
	}
	return fmt.Sprintf("completion(%s)", prompt), nil
}

func (f *FakeCompleter) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

func (f *FakeCompleter) Calls() int {
	return len(f.Prompts())
}
