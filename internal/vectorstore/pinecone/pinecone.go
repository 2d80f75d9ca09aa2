package pinecone

import (
	"context"
	"errors"
	"fmt"

	"github.com/pinecone-io/go-pinecone/pinecone"
	"google.golang.org/protobuf/types/known/structpb"

	"fundfaq/internal/config"
	"fundfaq/internal/domain"
	"fundfaq/internal/vectorstore"
)

const upsertBatchSize = 100

// connection is the subset of *pinecone.IndexConnection the store uses.
type connection interface {
	UpsertVectors(ctx context.Context, in []*pinecone.Vector) (uint32, error)
	QueryByVectorValues(ctx context.Context, in *pinecone.QueryByVectorValuesRequest) (*pinecone.QueryVectorsResponse, error)
	Close() error
}

// Storage is a Pinecone-backed vector index.
type Storage struct {
	conn connection
}

var _ vectorstore.Index = (*Storage)(nil)

type Config struct {
	APIKey    string
	Index     string
	Host      string
	Namespace string
}

// NewStorage connects to an index. When Host is empty it is resolved from
// the index name through the control plane.
func NewStorage(ctx context.Context, cfg Config) (*Storage, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("pinecone api key: %w", config.ErrMissingSetting)
	}
	client, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("pinecone client: %w", err)
	}
	host := cfg.Host
	if host == "" {
		if cfg.Index == "" {
			return nil, fmt.Errorf("pinecone index: %w", config.ErrMissingSetting)
		}
		idx, err := client.DescribeIndex(ctx, cfg.Index)
		if err != nil {
			return nil, fmt.Errorf("describe index %s: %w", cfg.Index, err)
		}
		host = idx.Host
	}
	conn, err := client.Index(pinecone.NewIndexConnParams{Host: host, Namespace: cfg.Namespace})
	if err != nil {
		return nil, fmt.Errorf("connect index %s: %w", host, err)
	}
	return &Storage{conn: conn}, nil
}

func (s *Storage) Upsert(ctx context.Context, records []domain.EmbeddingRecord) error {
	vectors, err := buildVectors(records)
	if err != nil {
		return err
	}
	for start := 0; start < len(vectors); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(vectors) {
			end = len(vectors)
		}
		if _, err := s.conn.UpsertVectors(ctx, vectors[start:end]); err != nil {
			return fmt.Errorf("pinecone upsert: %w", err)
		}
	}
	return nil
}

func (s *Storage) Query(ctx context.Context, vector []float32, topK int) ([]vectorstore.Match, error) {
	if topK <= 0 {
		topK = 5
	}
	resp, err := s.conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(topK),
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("pinecone query: %w", err)
	}
	matches := make([]vectorstore.Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if m == nil || m.Vector == nil {
			continue
		}
		matches = append(matches, vectorstore.Match{ID: m.Vector.Id, Score: float64(m.Score)})
	}
	return matches, nil
}

func (s *Storage) Close() error {
	return s.conn.Close()
}

func buildVectors(records []domain.EmbeddingRecord) ([]*pinecone.Vector, error) {
	out := make([]*pinecone.Vector, 0, len(records))
	for _, r := range records {
		if len(r.Vector) == 0 {
			return nil, errors.New("empty vector")
		}
		md, err := structpb.NewStruct(vectorstore.Metadata(r.Chunk))
		if err != nil {
			return nil, fmt.Errorf("metadata for %s: %w", vectorstore.RecordID(r.Chunk), err)
		}
		out = append(out, &pinecone.Vector{
			Id:       vectorstore.RecordID(r.Chunk),
			Values:   r.Vector,
			Metadata: md,
		})
	}
	return out, nil
}
