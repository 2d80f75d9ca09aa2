package memory

import (
	"context"
	"errors"
	"math"
	"sync"

	"fundfaq/internal/domain"
	"fundfaq/internal/vectorstore"
)

// Storage is a simple in-memory vector index using brute-force cosine similarity.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	ids       []string
	vectors   [][]float32
	positions map[string]int
}

var _ vectorstore.Index = (*Storage)(nil)

func NewStorage() *Storage { return &Storage{positions: map[string]int{}} }

// Upsert stores or replaces vectors by record id. All vectors must share the
// dimension of the first one stored.
func (s *Storage) Upsert(_ context.Context, records []domain.EmbeddingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dim := s.dimension
	for _, r := range records {
		if len(r.Vector) == 0 {
			return errors.New("empty vector")
		}
		if dim == 0 {
			dim = len(r.Vector)
		}
		if len(r.Vector) != dim {
			return errors.New("vector dimension mismatch")
		}
	}
	s.dimension = dim
	for _, r := range records {
		id := vectorstore.RecordID(r.Chunk)
		vec := append([]float32(nil), r.Vector...)
		if pos, ok := s.positions[id]; ok {
			s.vectors[pos] = vec
			continue
		}
		s.positions[id] = len(s.ids)
		s.ids = append(s.ids, id)
		s.vectors = append(s.vectors, vec)
	}
	return nil
}

// Query returns up to topK ids ordered by descending cosine similarity.
func (s *Storage) Query(_ context.Context, vector []float32, topK int) ([]vectorstore.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		topK = 5
	}
	scores := make([]float64, len(s.vectors))
	for i := range s.vectors {
		scores[i] = cosine(s.vectors[i], vector)
	}
	idxs := argsortDesc(scores)
	if topK > len(idxs) {
		topK = len(idxs)
	}
	results := make([]vectorstore.Match, 0, topK)
	for i := 0; i < topK; i++ {
		j := idxs[i]
		results = append(results, vectorstore.Match{ID: s.ids[j], Score: scores[j]})
	}
	return results, nil
}

// Close drops all vectors.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = nil
	s.vectors = nil
	s.positions = map[string]int{}
	s.dimension = 0
	return nil
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// argsortDesc orders indexes by descending score; equal scores keep insertion order.
func argsortDesc(vals []float64) []int {
	idxs := make([]int, len(vals))
	for i := range vals {
		idxs[i] = i
	}
	// insertion sort keeps ties stable; indexes here are small
	for i := 1; i < len(idxs); i++ {
		for j := i; j > 0 && vals[idxs[j]] > vals[idxs[j-1]]; j-- {
			idxs[j], idxs[j-1] = idxs[j-1], idxs[j]
		}
	}
	return idxs
}
