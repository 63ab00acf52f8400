package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/internal/models"
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/internal/types"
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/pkg/index"
)

const (
	indexFile    = "index.bin"
	chunksFile   = "chunks.json"
	metadataFile = "metadata.json"
)

type FileStoreConfig struct {
	Dir string // root storage directory, one subdirectory per paper
}

// FileStore keeps each paper under <dir>/<paper_id>/ as a serialized
// vector index, the ordered chunk sequence and a metadata record. All
// three are re-derivable from the identifier alone in a later process.
type FileStore struct {
	config   FileStoreConfig
	embedder types.Embedder
	building lockTable
}

func NewFileStore(config FileStoreConfig, embedder types.Embedder) (*FileStore, error) {
	if config.Dir == "" {
		config.Dir = "storage"
	}
	if err := os.MkdirAll(config.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &FileStore{config: config, embedder: embedder}, nil
}

func (s *FileStore) paperDir(paperID string) string {
	return filepath.Join(s.config.Dir, paperID)
}

func validatePaperID(paperID string) error {
	if paperID == "" {
		return fmt.Errorf("empty paper id")
	}
	if strings.ContainsAny(paperID, `/\`) || paperID == "." || paperID == ".." {
		return fmt.Errorf("invalid paper id %q", paperID)
	}
	return nil
}

// Build embeds the chunks, constructs the index and persists the triple.
// The metadata file is written last, so a paper only becomes loadable once
// its index and chunks are fully on disk.
func (s *FileStore) Build(ctx context.Context, paperID string, chunks []string) (models.PaperMeta, error) {
	var meta models.PaperMeta
	if err := validatePaperID(paperID); err != nil {
		return meta, err
	}

	release := s.building.acquire(paperID)
	defer release()

	idx, err := index.NewFlat(s.embedder.Dimension())
	if err != nil {
		return meta, err
	}
	if len(chunks) > 0 {
		embeddings, err := s.embedder.EmbedTexts(ctx, chunks)
		if err != nil {
			return meta, fmt.Errorf("failed to embed chunks for %s: %w", paperID, err)
		}
		if err := idx.Add(embeddings); err != nil {
			return meta, err
		}
	}

	dir := s.paperDir(paperID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return meta, fmt.Errorf("failed to create paper dir: %w", err)
	}

	if err := writeIndex(idx, filepath.Join(dir, indexFile)); err != nil {
		return meta, err
	}
	if chunks == nil {
		chunks = []string{}
	}
	if err := writeJSON(filepath.Join(dir, chunksFile), chunks); err != nil {
		return meta, err
	}

	meta = models.PaperMeta{
		PaperID:   paperID,
		NumChunks: len(chunks),
		Title:     deriveTitle(chunks),
	}
	if err := writeJSON(filepath.Join(dir, metadataFile), meta); err != nil {
		return models.PaperMeta{}, err
	}
	return meta, nil
}

// Load reads back the chunk sequence, index and metadata for a paper.
func (s *FileStore) Load(ctx context.Context, paperID string) ([]string, *index.Flat, models.PaperMeta, error) {
	var meta models.PaperMeta
	if err := validatePaperID(paperID); err != nil {
		return nil, nil, meta, err
	}
	dir := s.paperDir(paperID)

	if err := readJSON(filepath.Join(dir, metadataFile), &meta); err != nil {
		if os.IsNotExist(err) {
			return nil, nil, meta, fmt.Errorf("%w: %s", ErrNotFound, paperID)
		}
		return nil, nil, meta, err
	}

	var chunks []string
	if err := readJSON(filepath.Join(dir, chunksFile), &chunks); err != nil {
		return nil, nil, meta, err
	}

	idx, err := index.ReadFile(filepath.Join(dir, indexFile))
	if err != nil {
		return nil, nil, meta, err
	}

	if idx.Len() != len(chunks) {
		return nil, nil, meta, fmt.Errorf("corrupt paper %s: %d chunks but %d vectors",
			paperID, len(chunks), idx.Len())
	}
	return chunks, idx, meta, nil
}

// List returns the identifier of every fully built paper.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.config.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage dir: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.config.Dir, e.Name(), metadataFile)); err == nil {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

// writeIndex and writeJSON go through a temp file plus rename so readers
// never observe a half-written file.
func writeIndex(idx *index.Flat, path string) error {
	tmp := path + ".tmp"
	if err := idx.WriteFile(tmp); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to persist index: %w", err)
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to persist %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
