package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/internal/models"
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/internal/types"
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/pkg/index"
)

type PGStoreConfig struct {
	ConnString string
	TableName  string // base name; chunk and meta tables derive from it
}

// PGStore is the postgres/pgvector backend. Chunks live in one row per
// (paper_id, chunk_index) with their embedding; Load reconstructs the flat
// index from rows ordered by chunk position, so search semantics are
// identical to the file backend.
type PGStore struct {
	config   PGStoreConfig
	pool     *pgxpool.Pool
	embedder types.Embedder
	building lockTable
}

func NewPGStore(config PGStoreConfig, embedder types.Embedder) (*PGStore, error) {
	if config.TableName == "" {
		config.TableName = "papers"
	}

	pool, err := pgxpool.New(context.Background(), config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &PGStore{config: config, pool: pool, embedder: embedder}
	if err := s.initialize(); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PGStore) chunkTable() string { return s.config.TableName + "_chunks" }
func (s *PGStore) metaTable() string  { return s.config.TableName + "_meta" }

func (s *PGStore) initialize() error {
	ctx := context.Background()

	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createChunks := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			paper_id TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d),
			PRIMARY KEY (paper_id, chunk_index)
		)`, s.chunkTable(), s.embedder.Dimension())
	if _, err := s.pool.Exec(ctx, createChunks); err != nil {
		return fmt.Errorf("failed to create chunk table: %w", err)
	}

	createMeta := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			paper_id TEXT PRIMARY KEY,
			num_chunks INTEGER NOT NULL,
			title TEXT
		)`, s.metaTable())
	if _, err := s.pool.Exec(ctx, createMeta); err != nil {
		return fmt.Errorf("failed to create meta table: %w", err)
	}
	return nil
}

func (s *PGStore) Build(ctx context.Context, paperID string, chunks []string) (models.PaperMeta, error) {
	var meta models.PaperMeta
	if paperID == "" {
		return meta, fmt.Errorf("empty paper id")
	}

	release := s.building.acquire(paperID)
	defer release()

	var embeddings [][]float32
	if len(chunks) > 0 {
		var err error
		embeddings, err = s.embedder.EmbedTexts(ctx, chunks)
		if err != nil {
			return meta, fmt.Errorf("failed to embed chunks for %s: %w", paperID, err)
		}
		for i, v := range embeddings {
			if len(v) != s.embedder.Dimension() {
				return meta, fmt.Errorf("%w: vector %d has %d dims, expected %d",
					index.ErrDimensionMismatch, i, len(v), s.embedder.Dimension())
			}
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return meta, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Rebuilding an identifier replaces its rows wholesale; readers never
	// see a mix of old and new chunks.
	if _, err := tx.Exec(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE paper_id = $1", s.chunkTable()), paperID); err != nil {
		return meta, fmt.Errorf("failed to clear existing chunks: %w", err)
	}

	insert := fmt.Sprintf(`
		INSERT INTO %s (paper_id, chunk_index, content, embedding)
		VALUES ($1, $2, $3, $4)`, s.chunkTable())
	for i, chunk := range chunks {
		if _, err := tx.Exec(ctx, insert, paperID, i, chunk, pgvector.NewVector(embeddings[i])); err != nil {
			return meta, fmt.Errorf("failed to insert chunk %d: %w", i, err)
		}
	}

	meta = models.PaperMeta{
		PaperID:   paperID,
		NumChunks: len(chunks),
		Title:     deriveTitle(chunks),
	}
	upsertMeta := fmt.Sprintf(`
		INSERT INTO %s (paper_id, num_chunks, title)
		VALUES ($1, $2, $3)
		ON CONFLICT (paper_id) DO UPDATE SET
			num_chunks = EXCLUDED.num_chunks,
			title = EXCLUDED.title`, s.metaTable())
	if _, err := tx.Exec(ctx, upsertMeta, meta.PaperID, meta.NumChunks, meta.Title); err != nil {
		return models.PaperMeta{}, fmt.Errorf("failed to upsert metadata: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.PaperMeta{}, fmt.Errorf("failed to commit build: %w", err)
	}
	return meta, nil
}

func (s *PGStore) Load(ctx context.Context, paperID string) ([]string, *index.Flat, models.PaperMeta, error) {
	var meta models.PaperMeta
	row := s.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT paper_id, num_chunks, title FROM %s WHERE paper_id = $1", s.metaTable()),
		paperID)
	if err := row.Scan(&meta.PaperID, &meta.NumChunks, &meta.Title); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, meta, fmt.Errorf("%w: %s", ErrNotFound, paperID)
		}
		return nil, nil, meta, fmt.Errorf("failed to load metadata: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		fmt.Sprintf("SELECT content, embedding FROM %s WHERE paper_id = $1 ORDER BY chunk_index", s.chunkTable()),
		paperID)
	if err != nil {
		return nil, nil, meta, fmt.Errorf("failed to load chunks: %w", err)
	}
	defer rows.Close()

	idx, err := index.NewFlat(s.embedder.Dimension())
	if err != nil {
		return nil, nil, meta, err
	}
	chunks := []string{}
	for rows.Next() {
		var content string
		var vec pgvector.Vector
		if err := rows.Scan(&content, &vec); err != nil {
			return nil, nil, meta, fmt.Errorf("failed to scan chunk row: %w", err)
		}
		if err := idx.Add([][]float32{vec.Slice()}); err != nil {
			return nil, nil, meta, err
		}
		chunks = append(chunks, content)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, meta, fmt.Errorf("failed to read chunk rows: %w", err)
	}

	if idx.Len() != len(chunks) || len(chunks) != meta.NumChunks {
		return nil, nil, meta, fmt.Errorf("corrupt paper %s: meta says %d chunks, found %d",
			paperID, meta.NumChunks, len(chunks))
	}
	return chunks, idx, meta, nil
}

func (s *PGStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf("SELECT paper_id FROM %s ORDER BY paper_id", s.metaTable()))
	if err != nil {
		return nil, fmt.Errorf("failed to list papers: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan paper id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PGStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
