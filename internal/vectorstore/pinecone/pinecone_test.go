package pinecone

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/pinecone-io/go-pinecone/pinecone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundfaq/internal/config"
	"fundfaq/internal/domain"
)

type fakeConn struct {
	batches [][]*pinecone.Vector
	query   *pinecone.QueryByVectorValuesRequest
	resp    *pinecone.QueryVectorsResponse
	err     error
	closed  bool
}

func (f *fakeConn) UpsertVectors(_ context.Context, in []*pinecone.Vector) (uint32, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.batches = append(f.batches, in)
	return uint32(len(in)), nil
}

func (f *fakeConn) QueryByVectorValues(_ context.Context, in *pinecone.QueryByVectorValuesRequest) (*pinecone.QueryVectorsResponse, error) {
	f.query = in
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

func TestBuildVectors_Metadata(t *testing.T) {
	vectors, err := buildVectors([]domain.EmbeddingRecord{{
		Chunk: domain.Chunk{
			URL:          "https://groww.in/mutual-funds/hdfc-mid-cap",
			Section:      "Section 2",
			Scheme:       "HDFC Mid Cap",
			Category:     "Mid Cap",
			LastVerified: "2025-11-15",
			Metadata:     map[string]string{"position": "2"},
		},
		Vector: []float32{0.5, 0.25},
	}})
	require.NoError(t, err)
	require.Len(t, vectors, 1)

	v := vectors[0]
	assert.Equal(t, "https://groww.in/mutual-funds/hdfc-mid-cap#Section 2", v.Id)
	assert.Equal(t, []float32{0.5, 0.25}, v.Values)
	fields := v.Metadata.AsMap()
	assert.Equal(t, "HDFC Mid Cap", fields["scheme"])
	assert.Equal(t, "Mid Cap", fields["category"])
	assert.Equal(t, "2025-11-15", fields["last_verified"])
	assert.Equal(t, "2", fields["position"])
}

func TestBuildVectors_RejectsEmpty(t *testing.T) {
	_, err := buildVectors([]domain.EmbeddingRecord{{Chunk: domain.Chunk{ChunkID: "x"}}})
	assert.Error(t, err)
}

func TestStorage_UpsertBatches(t *testing.T) {
	conn := &fakeConn{}
	s := &Storage{conn: conn}
	records := make([]domain.EmbeddingRecord, 0, 250)
	for i := 0; i < 250; i++ {
		records = append(records, domain.EmbeddingRecord{
			Chunk:  domain.Chunk{ChunkID: fmt.Sprintf("u#section-%d", i+1)},
			Vector: []float32{1},
		})
	}
	require.NoError(t, s.Upsert(context.Background(), records))
	require.Len(t, conn.batches, 3)
	assert.Len(t, conn.batches[0], 100)
	assert.Len(t, conn.batches[2], 50)
	assert.Equal(t, "u#section-250", conn.batches[2][49].Id)
}

func TestStorage_Query(t *testing.T) {
	conn := &fakeConn{resp: &pinecone.QueryVectorsResponse{Matches: []*pinecone.ScoredVector{
		{Vector: &pinecone.Vector{Id: "a"}, Score: 0.75},
		nil,
		{Vector: &pinecone.Vector{Id: "b"}, Score: -0.5},
	}}}
	s := &Storage{conn: conn}

	matches, err := s.Query(context.Background(), []float32{1, 2}, 0)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].ID)
	assert.InDelta(t, 0.75, matches[0].Score, 1e-6)
	assert.Equal(t, "b", matches[1].ID)
	assert.Equal(t, uint32(5), conn.query.TopK)
	assert.True(t, conn.query.IncludeMetadata)
}

func TestStorage_QueryError(t *testing.T) {
	boom := errors.New("boom")
	s := &Storage{conn: &fakeConn{err: boom}}
	_, err := s.Query(context.Background(), []float32{1}, 3)
	assert.ErrorIs(t, err, boom)
}

func TestStorage_Close(t *testing.T) {
	conn := &fakeConn{}
	require.NoError(t, (&Storage{conn: conn}).Close())
	assert.True(t, conn.closed)
}

func TestNewStorage_RequiresKey(t *testing.T) {
	_, err := NewStorage(context.Background(), Config{Index: "faq"})
	assert.ErrorIs(t, err, config.ErrMissingSetting)
}
