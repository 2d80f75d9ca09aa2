package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"fundfaq/internal/config"
	"fundfaq/internal/vectorstore/memory"
	"fundfaq/internal/vectorstore/qdrant"
)

func TestNewIndex(t *testing.T) {
	ctx := context.Background()

	idx, err := NewIndex(ctx, config.VectorStoreConfig{Type: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &memory.Storage{}, idx)

	idx, err = NewIndex(ctx, config.VectorStoreConfig{Type: "qdrant", Qdrant: &config.QdrantConfig{URL: "http://localhost:6333", Collection: "faq"}})
	require.NoError(t, err)
	assert.IsType(t, &qdrant.Storage{}, idx)

	_, err = NewIndex(ctx, config.VectorStoreConfig{Type: "qdrant"})
	assert.ErrorIs(t, err, config.ErrMissingSetting)

	_, err = NewIndex(ctx, config.VectorStoreConfig{Type: "pinecone", Pinecone: &config.PineconeConfig{Index: "faq"}})
	assert.ErrorIs(t, err, config.ErrMissingSetting)

	_, err = NewIndex(ctx, config.VectorStoreConfig{Type: "faiss"})
	assert.Error(t, err)
}

func TestNew_RequiresOpenAIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	cfg, err := config.Load(t.TempDir() + "/missing.yaml")
	require.NoError(t, err)

	_, err = New(context.Background(), cfg, arbor.NewLogger())
	assert.ErrorIs(t, err, config.ErrMissingSetting)
}

func TestPipeline_RejectsBadTimezone(t *testing.T) {
	cfg, err := config.Load(t.TempDir() + "/missing.yaml")
	require.NoError(t, err)
	cfg.Pipeline.Timezone = "Mars/Olympus"

	a := &App{Config: cfg, Logger: arbor.NewLogger(), Index: memory.NewStorage()}
	_, err = a.Pipeline()
	assert.Error(t, err)

	cfg.Pipeline.Timezone = "UTC"
	cfg.Chunker.Type = "docling"
	_, err = a.Pipeline()
	assert.Error(t, err)

	cfg.Chunker.Type = "word"
	p, err := a.Pipeline()
	require.NoError(t, err)
	assert.NotNil(t, p)
}
