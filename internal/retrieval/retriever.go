package retrieval

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"

	"fundfaq/internal/domain"
	"fundfaq/internal/vectorstore"
)

// ChunkStore loads stored chunks by id.
type ChunkStore interface {
	FetchChunks(ctx context.Context, ids []string) ([]domain.Chunk, error)
	Close(ctx context.Context) error
}

// Service joins vector search results with chunk records from the document store.
type Service struct {
	index  vectorstore.Index
	chunks ChunkStore
	logger arbor.ILogger
}

var _ domain.Retriever = (*Service)(nil)

func NewService(index vectorstore.Index, chunks ChunkStore, logger arbor.ILogger) *Service {
	return &Service{index: index, chunks: chunks, logger: logger}
}

// Query returns passages for the topK nearest vectors, in index order. Matches
// with a non-positive score and ids missing from the chunk store are dropped.
func (s *Service) Query(ctx context.Context, vector []float32, topK int) ([]domain.Passage, error) {
	if len(vector) == 0 {
		return nil, nil
	}
	matches, err := s.index.Query(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}
	kept := make([]vectorstore.Match, 0, len(matches))
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		if m.Score > 0 {
			kept = append(kept, m)
			ids = append(ids, m.ID)
		}
	}
	if len(ids) == 0 {
		s.logger.Info().Int("matches", len(matches)).Msg("Retriever returned 0 chunks")
		return nil, nil
	}
	found, err := s.chunks.FetchChunks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch chunks: %w", err)
	}
	byID := make(map[string]domain.Chunk, len(found))
	for _, c := range found {
		byID[c.ChunkID] = c
	}
	passages := make([]domain.Passage, 0, len(kept))
	for _, m := range kept {
		if c, ok := byID[m.ID]; ok {
			passages = append(passages, domain.PassageFromChunk(c, m.Score))
		}
	}
	s.logger.Info().Int("chunks", len(passages)).Msg("Retriever returned chunks")
	return passages, nil
}

// Close releases both the index and the chunk store.
func (s *Service) Close(ctx context.Context) error {
	return errors.Join(s.index.Close(), s.chunks.Close(ctx))
}
