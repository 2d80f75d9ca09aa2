package domain

import "errors"

// ErrMissingURL is returned when a passage or chunk carries no source URL.
var ErrMissingURL = errors.New("chunk metadata missing URL")

// Answer methods reported in AnswerResult.Method.
const (
	MethodRAG         = "rag"
	MethodAdviceGuard = "advice_guard"
	MethodNoResult    = "no_result"
)

// CitationMarker is the token the generator appends to every answer.
const CitationMarker = "[CITATION]"

// SchemePage is the seed metadata for a scheme page to scrape.
type SchemePage struct {
	Scheme                string `yaml:"scheme"`
	Category              string `yaml:"category"`
	URL                   string `yaml:"url"`
	AugmentFundManagement bool   `yaml:"augment_fund_management"`
}

// ScrapedDocument is the raw HTML/text pulled from a source page.
type ScrapedDocument struct {
	Scheme       string   `json:"scheme" bson:"scheme"`
	Category     string   `json:"category" bson:"category"`
	URL          string   `json:"url" bson:"url"`
	HTML         string   `json:"html" bson:"html"`
	Text         string   `json:"text" bson:"text"`
	LastVerified string   `json:"last_verified" bson:"last_verified"`
	ExtraLinks   []string `json:"extra_links" bson:"extra_links"`
}

// Chunk is a segment of normalized source text, the unit indexed for retrieval.
type Chunk struct {
	ChunkID      string            `json:"chunk_id" bson:"chunk_id"`
	Scheme       string            `json:"scheme" bson:"scheme"`
	Category     string            `json:"category" bson:"category"`
	URL          string            `json:"url" bson:"url"`
	Section      string            `json:"section" bson:"section"`
	Content      string            `json:"content" bson:"content"`
	LastVerified string            `json:"last_verified" bson:"last_verified"`
	Metadata     map[string]string `json:"metadata" bson:"metadata"`
}

// EmbeddingRecord pairs a chunk with its embedding vector.
type EmbeddingRecord struct {
	Chunk  Chunk
	Vector []float32
}

// Passage is a retrieved chunk joined with its similarity score.
type Passage struct {
	ChunkID      string
	Scheme       string
	Category     string
	URL          string
	Section      string
	Content      string
	LastVerified string
	Score        float64
}

// PassageFromChunk joins a stored chunk with the score reported by the index.
func PassageFromChunk(c Chunk, score float64) Passage {
	return Passage{
		ChunkID:      c.ChunkID,
		Scheme:       c.Scheme,
		Category:     c.Category,
		URL:          c.URL,
		Section:      c.Section,
		Content:      c.Content,
		LastVerified: c.LastVerified,
		Score:        score,
	}
}

// Citation is the user-facing attribution derived from a passage.
type Citation struct {
	Text         string `json:"text"`
	URL          string `json:"url"`
	LastVerified string `json:"last_verified"`
}

// AnswerResult is the response returned for a single question.
type AnswerResult struct {
	Answer      string   `json:"answer"`
	Citations   []string `json:"citations"`
	IsFactual   bool     `json:"is_factual"`
	Confidence  float64  `json:"confidence"`
	Method      string   `json:"method"`
	LastUpdated string   `json:"last_updated,omitempty"`
}
