// Package app assembles the configured components for the binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"fundfaq/internal/advice"
	"fundfaq/internal/answer"
	"fundfaq/internal/chunker"
	"fundfaq/internal/citation"
	"fundfaq/internal/config"
	"fundfaq/internal/docstore"
	embedopenai "fundfaq/internal/embedding/openai"
	"fundfaq/internal/ingest"
	llmopenai "fundfaq/internal/llm/openai"
	"fundfaq/internal/retrieval"
	"fundfaq/internal/scraper"
	"fundfaq/internal/vectorstore"
	"fundfaq/internal/vectorstore/memory"
	"fundfaq/internal/vectorstore/pinecone"
	"fundfaq/internal/vectorstore/qdrant"
)

// App owns the shared clients. Close releases them once.
type App struct {
	Config   *config.AppConfig
	Logger   arbor.ILogger
	Docs     *docstore.Store
	Index    vectorstore.Index
	Embedder *embedopenai.Client

	answer *answer.Service
}

// New connects the document store, vector index and embedder.
func New(ctx context.Context, cfg *config.AppConfig, logger arbor.ILogger) (*App, error) {
	emb, err := embedopenai.NewClient(embedopenai.Config{
		BaseURL:   cfg.OpenAI.BaseURL,
		APIKey:    cfg.OpenAI.APIKey,
		Model:     cfg.OpenAI.EmbedModel,
		Timeout:   seconds(cfg.OpenAI.TimeoutSecs),
		BatchSize: cfg.OpenAI.BatchSize,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("embedder init failed: %w", err)
	}

	index, err := NewIndex(ctx, cfg.VectorStore)
	if err != nil {
		return nil, err
	}

	docs, err := docstore.Connect(ctx, docstore.Config{
		URI:                 cfg.Mongo.URI,
		Database:            cfg.Mongo.Database,
		DocumentsCollection: cfg.Mongo.DocumentsCollection,
		ChunksCollection:    cfg.Mongo.ChunksCollection,
		Timeout:             seconds(cfg.Mongo.TimeoutSecs),
	}, logger)
	if err != nil {
		_ = index.Close()
		return nil, err
	}

	logger.Info().
		Str("vector_store", cfg.VectorStore.Type).
		Str("mongo_db", cfg.Mongo.Database).
		Str("embed_model", cfg.OpenAI.EmbedModel).
		Msg("Components connected")
	return &App{Config: cfg, Logger: logger, Docs: docs, Index: index, Embedder: emb}, nil
}

// NewIndex builds the vector index selected by cfg.Type.
func NewIndex(ctx context.Context, cfg config.VectorStoreConfig) (vectorstore.Index, error) {
	switch cfg.Type {
	case "pinecone", "":
		if cfg.Pinecone == nil {
			return nil, fmt.Errorf("pinecone config: %w", config.ErrMissingSetting)
		}
		st, err := pinecone.NewStorage(ctx, pinecone.Config{
			APIKey:    cfg.Pinecone.APIKey,
			Index:     cfg.Pinecone.Index,
			Host:      cfg.Pinecone.Host,
			Namespace: cfg.Pinecone.Namespace,
		})
		if err != nil {
			return nil, err
		}
		return st, nil
	case "qdrant":
		if cfg.Qdrant == nil {
			return nil, fmt.Errorf("qdrant config: %w", config.ErrMissingSetting)
		}
		return qdrant.NewStorage(qdrant.Config{
			URL:        cfg.Qdrant.URL,
			APIKey:     cfg.Qdrant.APIKey,
			Collection: cfg.Qdrant.Collection,
			Timeout:    seconds(cfg.Qdrant.TimeoutSecs),
		}), nil
	case "memory":
		return memory.NewStorage(), nil
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.Type)
	}
}

// AnswerService builds the orchestrator over the shared clients.
func (a *App) AnswerService() (*answer.Service, error) {
	if a.answer != nil {
		return a.answer, nil
	}
	cfg := a.Config
	gen, err := llmopenai.NewClient(llmopenai.Config{
		BaseURL:     cfg.OpenAI.BaseURL,
		APIKey:      cfg.OpenAI.APIKey,
		Model:       cfg.OpenAI.ChatModel,
		Temperature: cfg.OpenAI.Temperature,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Timeout:     seconds(cfg.OpenAI.TimeoutSecs),
	})
	if err != nil {
		return nil, fmt.Errorf("generator init failed: %w", err)
	}
	svc, err := answer.New(answer.Deps{
		Classifier:      advice.Default(),
		Embedder:        a.Embedder,
		Retriever:       retrieval.NewService(a.Index, a.Docs, a.Logger),
		Generator:       gen,
		Selector:        citation.DefaultSelector(),
		Logger:          a.Logger,
		RefusalURL:      cfg.Advice.RefusalLink,
		FallbackURL:     cfg.Advice.FallbackURL,
		TopK:            cfg.Retrieval.TopK,
		ContextPassages: cfg.Retrieval.ContextPassages,
	})
	if err != nil {
		return nil, err
	}
	a.answer = svc
	return svc, nil
}

// Pipeline builds the ingestion pipeline over the shared clients.
func (a *App) Pipeline() (*ingest.Pipeline, error) {
	cfg := a.Config
	loc, err := time.LoadLocation(cfg.Pipeline.Timezone)
	if err != nil {
		return nil, fmt.Errorf("pipeline timezone: %w", err)
	}
	var normalizer chunker.Normalizer
	switch cfg.Chunker.Type {
	case "word", "":
		normalizer = chunker.Default(a.Logger)
	case "text":
		normalizer = chunker.TextNormalizer{}
	default:
		return nil, fmt.Errorf("unknown chunker: %s", cfg.Chunker.Type)
	}
	scr := scraper.New(scraper.Config{
		UserAgent:         cfg.Scraper.UserAgent,
		Timeout:           seconds(cfg.Scraper.TimeoutSecs),
		Retries:           cfg.Scraper.Retries,
		Backoff:           time.Duration(cfg.Scraper.BackoffMillis) * time.Millisecond,
		RequestsPerSecond: cfg.Scraper.RequestsPerSecond,
		LinkPrefix:        cfg.Scraper.LinkPrefix,
	}, a.Logger)
	return ingest.NewPipeline(ingest.PipelineDeps{
		Scraper:    scr,
		Chunker:    chunker.NewBuilder(normalizer, chunker.NewWordChunker(cfg.Chunker.WordsPerChunk, cfg.Chunker.OverlapWords), a.Logger),
		Store:      a.Docs,
		Embedder:   a.Embedder,
		Index:      a.Index,
		Logger:     a.Logger,
		Sources:    cfg.Sources,
		OutputDir:  cfg.Pipeline.OutputDir,
		SourcesCSV: cfg.Pipeline.SourcesCSV,
		Location:   loc,
	}), nil
}

// Close releases the index and document store.
func (a *App) Close(ctx context.Context) error {
	if a.answer != nil {
		return a.answer.Close(ctx)
	}
	return errors.Join(a.Index.Close(), a.Docs.Close(ctx))
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
