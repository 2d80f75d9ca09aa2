package vectorstore

import (
	"context"

	"fundfaq/internal/domain"
)

// Match is a vector id with its similarity score, ordered best first.
type Match struct {
	ID    string
	Score float64
}

// Index persists vectors and supports similarity search.
type Index interface {
	Upsert(ctx context.Context, records []domain.EmbeddingRecord) error
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)
	Close() error
}

// RecordID returns the vector id for a chunk.
func RecordID(c domain.Chunk) string {
	if c.ChunkID != "" {
		return c.ChunkID
	}
	return c.URL + "#" + c.Section
}

// Metadata returns the payload stored next to each vector.
func Metadata(c domain.Chunk) map[string]any {
	md := map[string]any{
		"scheme":        c.Scheme,
		"category":      c.Category,
		"url":           c.URL,
		"section":       c.Section,
		"last_verified": c.LastVerified,
	}
	for k, v := range c.Metadata {
		md[k] = v
	}
	return md
}
