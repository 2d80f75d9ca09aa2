// Package citation derives citations from retrieved passages and picks the
// one that best matches the question.
//
// Retrieval ranks by embedding similarity, which can surface a passage from a
// related but wrong scheme. The selector scores explicit scheme-name mentions
// in the question above similarity rank, and falls back to substring and
// section matches before settling on the top-ranked passage.
package citation

import (
	"errors"
	"regexp"
	"strings"

	"fundfaq/internal/domain"
)

var (
	// ErrNoCandidates is returned when there is nothing to select from.
	ErrNoCandidates = errors.New("no citation candidates")
	// ErrMisaligned is returned when passages and citations differ in length.
	ErrMisaligned = errors.New("passages and citations length mismatch")
)

// DefaultFiller holds generic plan-name tokens that say nothing about which
// scheme a question refers to.
var DefaultFiller = []string{"direct", "plan", "growth", "regular", "scheme"}

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

// Selector picks the best citation for a question.
type Selector struct {
	filler map[string]struct{}
}

// NewSelector builds a selector that ignores the given filler tokens when
// scoring scheme names.
func NewSelector(filler []string) *Selector {
	set := make(map[string]struct{}, len(filler))
	for _, f := range filler {
		set[strings.ToLower(f)] = struct{}{}
	}
	return &Selector{filler: set}
}

// DefaultSelector returns a selector over DefaultFiller.
func DefaultSelector() *Selector {
	return NewSelector(DefaultFiller)
}

// SelectBest returns the citation whose passage best matches the question.
// passages and candidates are aligned by position and ordered by retrieval
// rank; the first passage wins every tie.
func (s *Selector) SelectBest(passages []domain.Passage, candidates []domain.Citation, question string) (domain.Citation, error) {
	if len(passages) == 0 || len(candidates) == 0 {
		return domain.Citation{}, ErrNoCandidates
	}
	if len(passages) != len(candidates) {
		return domain.Citation{}, ErrMisaligned
	}

	normQuestion := Normalize(question)
	questionTokens := tokenSet(normQuestion)

	bestIdx, bestOverlap := 0, 0
	for i, p := range passages {
		overlap := 0
		for tok := range s.schemeTokens(p.Scheme) {
			if _, ok := questionTokens[tok]; ok {
				overlap++
			}
		}
		if overlap > bestOverlap {
			bestIdx, bestOverlap = i, overlap
		}
	}
	if bestOverlap > 0 {
		return candidates[bestIdx], nil
	}

	for i, p := range passages {
		if scheme := Normalize(p.Scheme); scheme != "" && strings.Contains(normQuestion, scheme) {
			return candidates[i], nil
		}
	}

	for i, p := range passages {
		if section := Normalize(p.Section); section != "" && strings.Contains(normQuestion, section) {
			return candidates[i], nil
		}
	}

	return candidates[0], nil
}

func (s *Selector) schemeTokens(scheme string) map[string]struct{} {
	tokens := tokenSet(Normalize(scheme))
	for tok := range tokens {
		if _, ok := s.filler[tok]; ok {
			delete(tokens, tok)
		}
	}
	return tokens
}

// Normalize lowercases text, turns every run of non-alphanumerics into a
// single space and trims the result.
func Normalize(text string) string {
	return strings.TrimSpace(nonAlnumRe.ReplaceAllString(strings.ToLower(text), " "))
}

func tokenSet(normalized string) map[string]struct{} {
	fields := strings.Fields(normalized)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
