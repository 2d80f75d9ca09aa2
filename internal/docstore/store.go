package docstore

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"fundfaq/internal/domain"
)

// Store wraps the documents and chunks collections.
type Store struct {
	client    *mongo.Client
	documents *mongo.Collection
	chunks    *mongo.Collection
	logger    arbor.ILogger
}

type Config struct {
	URI                 string
	Database            string
	DocumentsCollection string
	ChunksCollection    string
	Timeout             time.Duration
}

// Connect dials MongoDB and pings the primary.
func Connect(ctx context.Context, cfg Config, logger arbor.ILogger) (*Store, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	opts := options.Client().ApplyURI(cfg.URI).SetConnectTimeout(timeout).SetServerSelectionTimeout(timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	db := client.Database(cfg.Database)
	s := NewStore(db.Collection(cfg.DocumentsCollection), db.Collection(cfg.ChunksCollection), logger)
	s.client = client
	return s, nil
}

// NewStore builds a store over existing collections. Close is a no-op when
// the store does not own the client.
func NewStore(documents, chunks *mongo.Collection, logger arbor.ILogger) *Store {
	return &Store{documents: documents, chunks: chunks, logger: logger}
}

// UpsertDocuments writes raw scraped pages keyed by URL.
func (s *Store) UpsertDocuments(ctx context.Context, docs []domain.ScrapedDocument) error {
	if len(docs) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(docs))
	for _, doc := range docs {
		s.logger.Info().Str("scheme", doc.Scheme).Str("url", doc.URL).Msg("Upserting raw document")
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(documentFilter(doc)).
			SetUpdate(bson.M{"$set": doc}).
			SetUpsert(true))
	}
	if _, err := s.documents.BulkWrite(ctx, models); err != nil {
		return fmt.Errorf("upsert documents: %w", err)
	}
	return nil
}

// UpsertChunks writes chunks keyed by chunk id, or by url and section when the
// id is empty. It returns the ids of the written chunks.
func (s *Store) UpsertChunks(ctx context.Context, chunks []domain.Chunk) ([]string, error) {
	ids := make([]string, 0, len(chunks))
	for _, c := range chunks {
		res, err := s.chunks.UpdateOne(ctx, chunkFilter(c), bson.M{"$set": c}, options.Update().SetUpsert(true))
		if err != nil {
			return ids, fmt.Errorf("upsert chunk %s: %w", c.URL, err)
		}
		switch {
		case c.ChunkID != "":
			ids = append(ids, c.ChunkID)
		case res.UpsertedID != nil:
			ids = append(ids, fmt.Sprint(res.UpsertedID))
		}
	}
	return ids, nil
}

// FetchChunks loads chunks whose chunk_id is in ids. Order is unspecified.
func (s *Store) FetchChunks(ctx context.Context, ids []string) ([]domain.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.chunks.Find(ctx, bson.M{"chunk_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find chunks: %w", err)
	}
	var out []domain.Chunk
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode chunks: %w", err)
	}
	return out, nil
}

// Close disconnects the owned client.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func documentFilter(doc domain.ScrapedDocument) bson.M {
	return bson.M{"url": doc.URL}
}

func chunkFilter(c domain.Chunk) bson.M {
	if c.ChunkID != "" {
		return bson.M{"chunk_id": c.ChunkID}
	}
	return bson.M{"url": c.URL, "section": c.Section}
}
