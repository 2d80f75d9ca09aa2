package domain

import "context"

// Embedder converts free text into a numeric vector representation.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BatchEmbedder embeds many texts in as few provider calls as possible.
type BatchEmbedder interface {
	Embedder
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever returns passages ranked by similarity to the query vector.
// An empty slice means no relevant content.
type Retriever interface {
	Query(ctx context.Context, vector []float32, topK int) ([]Passage, error)
	Close(ctx context.Context) error
}

// Generator composes a short answer grounded in the supplied contexts.
type Generator interface {
	Generate(ctx context.Context, question string, contexts []string) (string, error)
}

// Chunker splits a scraped document into indexable chunks.
type Chunker interface {
	BuildChunks(doc ScrapedDocument) []Chunk
}
