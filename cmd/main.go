package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/internal/types"
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/pkg/auth"
	cfgPkg "github.com/BuiltByCharitha/Research-Paper-Assistant-System/pkg/config"
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/pkg/database"
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/pkg/extract"
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/pkg/llm"
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/pkg/segmenter"
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/pkg/store"
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/pkg/summarizer"
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/server"
)

func main() {
	var configPath string
	var ingestPath string

	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&ingestPath, "ingest", "", "Index a local file instead of serving the API")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	ollamaURL := flag.String("ollama-url", os.Getenv("OLLAMA_BASE_URL"), "Ollama server URL")
	storageDir := flag.String("storage-dir", "", "Storage directory for the file backend")
	chunkSize := flag.Int("chunk-size", 0, "Chunk size in words")
	flag.Parse()

	config, err := cfgPkg.LoadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *addr != "" {
		config.Server.Addr = *addr
	}
	if *ollamaURL != "" {
		config.LLM.BaseURL = *ollamaURL
	}
	if *storageDir != "" {
		config.Storage.Dir = *storageDir
	}
	if *chunkSize > 0 {
		config.Segmenter.ChunkSize = *chunkSize
	}

	if errs := config.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config: %v", e)
		}
		os.Exit(1)
	}

	if ingestPath != "" {
		if err := runIngest(config, ingestPath); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := runServer(config); err != nil {
		log.Fatal(err)
	}
}

func newDocumentStore(config *cfgPkg.Config, embedder types.Embedder) (types.DocumentStore, func(), error) {
	switch config.Storage.Backend {
	case "postgres":
		s, err := store.NewPGStore(store.PGStoreConfig{
			ConnString: config.Storage.URL,
			TableName:  config.Storage.TableName,
		}, embedder)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		s, err := store.NewFileStore(store.FileStoreConfig{
			Dir: config.Storage.Dir,
		}, embedder)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	}
}

func runServer(config *cfgPkg.Config) error {
	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:     config.LLM.EmbeddingModel,
		VectorDim: config.LLM.VectorDim,
		BaseURL:   config.LLM.BaseURL,
	})
	if err != nil {
		return err
	}

	gateway, err := llm.NewGatewayWithConfig(llm.GatewayConfig{
		BaseURL:     config.LLM.BaseURL,
		Temperature: config.LLM.Temperature,
		MaxTokens:   config.LLM.MaxTokens,
		RateLimit:   config.LLM.RateLimit,
	})
	if err != nil {
		return err
	}

	docs, closeDocs, err := newDocumentStore(config, embedder)
	if err != nil {
		return fmt.Errorf("failed to initialize document store: %w", err)
	}
	defer closeDocs()

	db, err := database.NewWithConfig(database.Config{URL: config.Database.URL})
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	tokens, err := auth.NewTokenManager(auth.TokenManagerConfig{
		Secret: config.Server.JWTSecret,
		TTL:    time.Duration(config.Server.TokenTTLMins) * time.Minute,
	})
	if err != nil {
		return err
	}

	orchestrator := summarizer.New(docs, embedder, gateway)
	seg := segmenter.NewWithConfig(segmenter.SegmenterConfig{ChunkSize: config.Segmenter.ChunkSize})

	srv := server.New(server.Config{Addr: config.Server.Addr}, db, tokens, docs, seg, orchestrator)
	return srv.ListenAndServe()
}

// runIngest indexes a single local file without going through the API:
// extract, segment, embed and persist, with progress feedback.
func runIngest(config *cfgPkg.Config, path string) error {
	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:     config.LLM.EmbeddingModel,
		VectorDim: config.LLM.VectorDim,
		BaseURL:   config.LLM.BaseURL,
	})
	if err != nil {
		return err
	}

	docs, closeDocs, err := newDocumentStore(config, embedder)
	if err != nil {
		return fmt.Errorf("failed to initialize document store: %w", err)
	}
	defer closeDocs()

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	text, err := extract.FromFile(filepath.Base(path), file)
	if err != nil {
		return err
	}

	seg := segmenter.NewWithConfig(segmenter.SegmenterConfig{ChunkSize: config.Segmenter.ChunkSize})
	chunks := seg.Segment(text)
	color.Green("✓ Segmented %s into %d chunks\n", filepath.Base(path), len(chunks))

	bar := getSpinner(" Embedding and indexing...")
	paperID := uuid.NewString()[:8]
	meta, err := docs.Build(context.Background(), paperID, chunks)
	bar.Finish()
	if err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}

	color.Green("✓ Indexed paper %s (%d chunks)\n", meta.PaperID, meta.NumChunks)
	color.Cyan("  title: %s\n", meta.Title)
	return nil
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}
