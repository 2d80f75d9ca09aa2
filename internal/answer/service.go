package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"fundfaq/internal/citation"
	"fundfaq/internal/domain"
)

const (
	// AdviceRefusal is returned for questions asking for investment advice.
	AdviceRefusal = "I’m sorry, but I can’t provide investment or portfolio advice. Please consult a SEBI-registered financial adviser for personalised guidance."

	noResultTemplate = "I couldn’t find that fact in the official Groww documents I have. [%s]"

	DefaultFallbackURL     = "https://groww.in/mutual-funds"
	DefaultTopK            = 5
	DefaultContextPassages = 3

	confidence = 1.0
)

// Classifier flags advisory questions.
type Classifier interface {
	Classify(question string) bool
}

// Selector picks the citation that best matches the question.
type Selector interface {
	SelectBest(passages []domain.Passage, candidates []domain.Citation, question string) (domain.Citation, error)
}

// Deps are the collaborators of a Service.
type Deps struct {
	Classifier Classifier
	Embedder   domain.Embedder
	Retriever  domain.Retriever
	Generator  domain.Generator
	Selector   Selector
	Logger     arbor.ILogger

	RefusalURL      string
	FallbackURL     string
	TopK            int
	ContextPassages int

	// Now defaults to time.Now.
	Now func() time.Time
}

// Service answers one question at a time. It holds no per-request state and
// is safe for concurrent use when its collaborators are.
type Service struct {
	deps Deps
}

func New(deps Deps) (*Service, error) {
	if deps.Classifier == nil || deps.Embedder == nil || deps.Retriever == nil || deps.Generator == nil {
		return nil, errors.New("answer: classifier, embedder, retriever and generator are required")
	}
	if deps.RefusalURL == "" {
		return nil, errors.New("answer: refusal url is required")
	}
	if deps.Selector == nil {
		deps.Selector = citation.DefaultSelector()
	}
	if deps.Logger == nil {
		deps.Logger = arbor.NewLogger()
	}
	if deps.FallbackURL == "" {
		deps.FallbackURL = DefaultFallbackURL
	}
	if deps.TopK <= 0 {
		deps.TopK = DefaultTopK
	}
	if deps.ContextPassages <= 0 {
		deps.ContextPassages = DefaultContextPassages
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Service{deps: deps}, nil
}

// Handle runs a question through the advice guard, retrieval and generation.
func (s *Service) Handle(ctx context.Context, question string) (domain.AnswerResult, error) {
	q := strings.TrimSpace(question)
	log := s.deps.Logger

	if s.deps.Classifier.Classify(q) {
		log.Info().Str("method", domain.MethodAdviceGuard).Msg("Refusing advisory question")
		return domain.AnswerResult{
			Answer:     AdviceRefusal,
			Citations:  []string{s.deps.RefusalURL},
			IsFactual:  false,
			Confidence: confidence,
			Method:     domain.MethodAdviceGuard,
		}, nil
	}

	vector, err := s.deps.Embedder.Embed(ctx, q)
	if err != nil {
		return domain.AnswerResult{}, fmt.Errorf("embed question: %w", err)
	}

	passages, err := s.deps.Retriever.Query(ctx, vector, s.deps.TopK)
	if err != nil {
		return domain.AnswerResult{}, fmt.Errorf("retrieve passages: %w", err)
	}
	if len(passages) == 0 {
		log.Info().Str("method", domain.MethodNoResult).Msg("No passages retrieved")
		return domain.AnswerResult{
			Answer:     fmt.Sprintf(noResultTemplate, s.deps.FallbackURL),
			Citations:  []string{s.deps.FallbackURL},
			IsFactual:  true,
			Confidence: confidence,
			Method:     domain.MethodNoResult,
		}, nil
	}

	raw, err := s.deps.Generator.Generate(ctx, q, Contexts(passages, s.deps.ContextPassages))
	if err != nil {
		return domain.AnswerResult{}, fmt.Errorf("generate answer: %w", err)
	}

	candidates, err := citation.BuildAll(passages, s.deps.Now())
	if err != nil {
		return domain.AnswerResult{}, fmt.Errorf("build citations: %w", err)
	}
	best, err := s.deps.Selector.SelectBest(passages, candidates, q)
	if err != nil {
		return domain.AnswerResult{}, fmt.Errorf("select citation: %w", err)
	}

	log.Info().Str("method", domain.MethodRAG).Int("passages", len(passages)).Str("citation", best.URL).Msg("Answered question")
	return domain.AnswerResult{
		Answer:      Clean(raw),
		Citations:   []string{best.URL},
		IsFactual:   true,
		Confidence:  confidence,
		Method:      domain.MethodRAG,
		LastUpdated: best.LastVerified,
	}, nil
}

// Close releases the retriever's connections.
func (s *Service) Close(ctx context.Context) error {
	return s.deps.Retriever.Close(ctx)
}

// Contexts formats the first n passages as "<section>: <content>".
func Contexts(passages []domain.Passage, n int) []string {
	if n > len(passages) {
		n = len(passages)
	}
	out := make([]string, 0, n)
	for _, p := range passages[:n] {
		section := p.Section
		if section == "" {
			section = "Section"
		}
		out = append(out, section+": "+p.Content)
	}
	return out
}

// Clean makes sure the marker was emitted, then removes it from the answer text.
func Clean(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.Contains(text, domain.CitationMarker) {
		text += " " + domain.CitationMarker
	}
	return strings.TrimSpace(strings.ReplaceAll(text, domain.CitationMarker, ""))
}
