package chunker

import (
	"errors"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/ternarybob/arbor"

	"fundfaq/internal/htmltext"
)

// Normalizer converts page HTML into plain text suitable for chunking.
type Normalizer interface {
	Normalize(html string) (string, error)
}

// MarkdownNormalizer renders the visible page as Markdown.
type MarkdownNormalizer struct {
	conv *md.Converter
}

func NewMarkdownNormalizer(baseURL string) *MarkdownNormalizer {
	return &MarkdownNormalizer{conv: md.NewConverter(baseURL, true, nil)}
}

func (n *MarkdownNormalizer) Normalize(html string) (string, error) {
	doc, err := htmltext.Parse(html)
	if err != nil {
		return "", err
	}
	cleaned, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	out, err := n.conv.ConvertString(cleaned)
	if err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// TextNormalizer keeps the visible text lines.
type TextNormalizer struct{}

func (TextNormalizer) Normalize(html string) (string, error) {
	return htmltext.Text(html)
}

// FallbackNormalizer tries Primary and uses Secondary when it fails or
// produces nothing. It never returns an error.
type FallbackNormalizer struct {
	Primary   Normalizer
	Secondary Normalizer
	Logger    arbor.ILogger
}

var errEmpty = errors.New("empty output")

func (n FallbackNormalizer) Normalize(html string) (string, error) {
	out, err := n.Primary.Normalize(html)
	if err == nil && strings.TrimSpace(out) == "" {
		err = errEmpty
	}
	if err == nil {
		return out, nil
	}
	if n.Logger != nil {
		n.Logger.Warn().Err(err).Msg("Primary normalizer failed, falling back")
	}
	out, err = n.Secondary.Normalize(html)
	if err != nil {
		return "", nil
	}
	return out, nil
}

// Default is the Markdown normalizer backed by plain text extraction.
func Default(logger arbor.ILogger) Normalizer {
	return FallbackNormalizer{
		Primary:   NewMarkdownNormalizer(""),
		Secondary: TextNormalizer{},
		Logger:    logger,
	}
}
