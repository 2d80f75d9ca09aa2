// Package advice detects questions that ask for investment advice rather
// than facts. The rule set favours recall: a borderline factual question
// being refused is acceptable, answering a disguised advice request is not.
package advice

import (
	"regexp"
	"strings"
)

// DefaultPatterns is the ordered advice-seeking phrasing table.
var DefaultPatterns = []string{
	`should I (buy|sell)`,
	`is (this|it) a good time`,
	`will it go up`,
	`recommend`,
	`suggest .* fund`,
	`portfolio`,
	`better than`,
	`invest(ing)?`,
	`investment advice`,
}

// Classifier matches questions against a static pattern table.
type Classifier struct {
	patterns []*regexp.Regexp
}

// NewClassifier builds a classifier over already compiled patterns.
func NewClassifier(patterns ...*regexp.Regexp) *Classifier {
	return &Classifier{patterns: patterns}
}

// Default returns a classifier over DefaultPatterns.
func Default() *Classifier {
	return NewClassifier(MustCompile(DefaultPatterns)...)
}

// Compile compiles each expression case-insensitively, keeping order.
func Compile(exprs []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		re, err := regexp.Compile(`(?i)` + expr)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}

// MustCompile is like Compile but panics on an invalid expression.
func MustCompile(exprs []string) []*regexp.Regexp {
	out, err := Compile(exprs)
	if err != nil {
		panic(err)
	}
	return out
}

// Classify reports whether the question seeks investment advice.
func (c *Classifier) Classify(question string) bool {
	question = strings.TrimSpace(question)
	for _, re := range c.patterns {
		if re.MatchString(question) {
			return true
		}
	}
	return false
}
