package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"fundfaq/internal/domain"
	"fundfaq/internal/vectorstore"
)

const rawDocumentsFile = "raw_documents.json"

// Scraper fetches the configured scheme pages.
type Scraper interface {
	ScrapeAll(ctx context.Context, pages []domain.SchemePage, verifiedOn string) ([]domain.ScrapedDocument, error)
}

// DocumentStore persists raw pages and chunks.
type DocumentStore interface {
	UpsertDocuments(ctx context.Context, docs []domain.ScrapedDocument) error
	UpsertChunks(ctx context.Context, chunks []domain.Chunk) ([]string, error)
}

// PipelineDeps wires the adapters used by a run.
type PipelineDeps struct {
	Scraper  Scraper
	Chunker  domain.Chunker
	Store    DocumentStore
	Embedder domain.BatchEmbedder
	Index    vectorstore.Index
	Logger   arbor.ILogger

	Sources    []domain.SchemePage
	OutputDir  string
	SourcesCSV string
	Location   *time.Location
	Now        func() time.Time
}

// Pipeline scrapes, chunks, stores and indexes the scheme pages.
type Pipeline struct {
	deps PipelineDeps
}

// Report summarises one run.
type Report struct {
	RunID     string
	Documents int
	Chunks    int
	Vectors   int
	Duration  time.Duration
}

func NewPipeline(deps PipelineDeps) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = arbor.NewLogger()
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Pipeline{deps: deps}
}

// Run executes one full ingestion.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	start := p.deps.Now()
	report := Report{RunID: uuid.NewString()}
	log := p.deps.Logger

	if err := os.MkdirAll(p.deps.OutputDir, 0o755); err != nil {
		return report, fmt.Errorf("create output dir: %w", err)
	}

	verifiedOn := start.In(p.deps.Location).Format("2006-01-02")
	log.Info().Str("run_id", report.RunID).Int("sources", len(p.deps.Sources)).Msg("Scraping scheme pages")
	docs, err := p.deps.Scraper.ScrapeAll(ctx, p.deps.Sources, verifiedOn)
	if err != nil {
		return report, fmt.Errorf("scrape: %w", err)
	}
	report.Documents = len(docs)

	if err := WriteRawDocuments(filepath.Join(p.deps.OutputDir, rawDocumentsFile), docs); err != nil {
		return report, err
	}
	if p.deps.SourcesCSV != "" {
		if err := WriteSourcesCSV(p.deps.SourcesCSV, docs); err != nil {
			return report, err
		}
	}

	var chunks []domain.Chunk
	for _, doc := range docs {
		chunks = append(chunks, p.deps.Chunker.BuildChunks(doc)...)
	}
	report.Chunks = len(chunks)
	log.Info().Str("run_id", report.RunID).Int("chunks", len(chunks)).Msg("Built chunks")

	if err := p.deps.Store.UpsertDocuments(ctx, docs); err != nil {
		return report, fmt.Errorf("store documents: %w", err)
	}
	if _, err := p.deps.Store.UpsertChunks(ctx, chunks); err != nil {
		return report, fmt.Errorf("store chunks: %w", err)
	}

	records, err := p.embed(ctx, chunks)
	if err != nil {
		return report, err
	}
	if len(records) > 0 {
		log.Info().Str("run_id", report.RunID).Int("vectors", len(records)).Msg("Upserting vectors")
		if err := p.deps.Index.Upsert(ctx, records); err != nil {
			return report, fmt.Errorf("index vectors: %w", err)
		}
	}
	report.Vectors = len(records)
	report.Duration = p.deps.Now().Sub(start)

	log.Info().
		Str("run_id", report.RunID).
		Int("documents", report.Documents).
		Int("chunks", report.Chunks).
		Int("vectors", report.Vectors).
		Dur("duration", report.Duration).
		Msg("Pipeline completed")
	return report, nil
}

// embed skips chunks with blank content.
func (p *Pipeline) embed(ctx context.Context, chunks []domain.Chunk) ([]domain.EmbeddingRecord, error) {
	kept := make([]domain.Chunk, 0, len(chunks))
	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if strings.TrimSpace(c.Content) == "" {
			continue
		}
		kept = append(kept, c)
		texts = append(texts, c.Content)
	}
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := p.deps.Embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(kept) {
		return nil, fmt.Errorf("embed chunks: got %d vectors for %d chunks", len(vectors), len(kept))
	}
	records := make([]domain.EmbeddingRecord, len(kept))
	for i := range kept {
		records[i] = domain.EmbeddingRecord{Chunk: kept[i], Vector: vectors[i]}
	}
	return records, nil
}
