// Package htmltext extracts visible text from HTML pages.
package htmltext

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// noise are elements whose text never reaches the user.
const noise = "script, style, noscript"

var tagRe = regexp.MustCompile(`<[^>]*>`)

// Parse loads html and removes non-visible elements.
func Parse(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	doc.Find(noise).Remove()
	return doc, nil
}

// Lines returns the trimmed, non-empty text lines of sel in document order.
// Every text node starts a new line.
func Lines(sel *goquery.Selection) []string {
	var lines []string
	var walk func(s *goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			if goquery.NodeName(c) == "#text" {
				for _, line := range strings.Split(c.Text(), "\n") {
					if line = strings.TrimSpace(line); line != "" {
						lines = append(lines, line)
					}
				}
				return
			}
			walk(c)
		})
	}
	walk(sel)
	return lines
}

// Text joins the visible lines of html with newlines.
func Text(html string) (string, error) {
	doc, err := Parse(html)
	if err != nil {
		return "", err
	}
	return strings.Join(Lines(doc.Selection), "\n"), nil
}

// Collapse strips tags from an HTML fragment and collapses whitespace. Every
// tag boundary separates words, including unbalanced cell tags the parser
// would otherwise drop.
func Collapse(fragment string) string {
	fragment = tagRe.ReplaceAllString(fragment, " ")
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	return strings.Join(strings.Fields(strings.Join(Lines(doc.Selection), " ")), " ")
}
