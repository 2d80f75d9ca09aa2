package chunker

import (
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"fundfaq/internal/domain"
)

// WordChunker splits text into whitespace-token windows with overlap.
type WordChunker struct {
	wordsPerChunk int
	overlapWords  int
}

func NewWordChunker(wordsPerChunk, overlapWords int) *WordChunker {
	if wordsPerChunk <= 0 {
		wordsPerChunk = 700
	}
	if overlapWords < 0 || overlapWords >= wordsPerChunk {
		overlapWords = 0
	}
	return &WordChunker{wordsPerChunk: wordsPerChunk, overlapWords: overlapWords}
}

// Split returns the text windows. Consecutive windows share overlapWords tokens.
func (c *WordChunker) Split(text string) []string {
	tokens := strings.Fields(text)
	var out []string
	start := 0
	for start < len(tokens) {
		end := start + c.wordsPerChunk
		if end > len(tokens) {
			end = len(tokens)
		}
		out = append(out, strings.Join(tokens[start:end], " "))
		if end == len(tokens) {
			break
		}
		start = end - c.overlapWords
	}
	return out
}

// Builder turns scraped documents into chunks.
type Builder struct {
	normalizer Normalizer
	splitter   *WordChunker
	logger     arbor.ILogger
}

var _ domain.Chunker = (*Builder)(nil)

func NewBuilder(normalizer Normalizer, splitter *WordChunker, logger arbor.ILogger) *Builder {
	return &Builder{normalizer: normalizer, splitter: splitter, logger: logger}
}

// BuildChunks normalizes the document HTML, falling back to the scraped text
// when normalization yields nothing, and numbers chunks from 1.
func (b *Builder) BuildChunks(doc domain.ScrapedDocument) []domain.Chunk {
	text, _ := b.normalizer.Normalize(doc.HTML)
	if strings.TrimSpace(text) == "" {
		text = doc.Text
	}
	segments := b.splitter.Split(text)
	chunks := make([]domain.Chunk, 0, len(segments))
	for i, segment := range segments {
		n := strconv.Itoa(i + 1)
		chunks = append(chunks, domain.Chunk{
			ChunkID:      doc.URL + "#section-" + n,
			Scheme:       doc.Scheme,
			Category:     doc.Category,
			URL:          doc.URL,
			Section:      "Section " + n,
			Content:      strings.TrimSpace(segment),
			LastVerified: doc.LastVerified,
			Metadata:     map[string]string{"position": n},
		})
	}
	b.logger.Debug().Str("url", doc.URL).Int("chunks", len(chunks)).Msg("Built chunks")
	return chunks
}
