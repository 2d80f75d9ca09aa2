package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"fundfaq/internal/domain"
	"fundfaq/internal/htmltext"
)

const fundManagementHeading = "Fund management"

var fundManagementRe = regexp.MustCompile(`(?is)Fund management.*?(?:Fund house|Investment objective)`)

// Scraper fetches scheme pages politely: one shared rate limit plus
// retries with linear backoff.
type Scraper struct {
	client     *http.Client
	userAgent  string
	retries    int
	backoff    time.Duration
	linkPrefix string
	limiter    *rate.Limiter
	logger     arbor.ILogger
}

type Config struct {
	UserAgent         string
	Timeout           time.Duration
	Retries           int
	Backoff           time.Duration
	RequestsPerSecond float64
	LinkPrefix        string
}

func New(cfg Config, logger arbor.ILogger) *Scraper {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "MutualFundFAQBot/0.1"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	if cfg.Backoff == 0 {
		cfg.Backoff = 1500 * time.Millisecond
	}
	if cfg.LinkPrefix == "" {
		cfg.LinkPrefix = "https://groww.in/"
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Scraper{
		client:     &http.Client{Timeout: cfg.Timeout},
		userAgent:  cfg.UserAgent,
		retries:    cfg.Retries,
		backoff:    cfg.Backoff,
		linkPrefix: cfg.LinkPrefix,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
	}
}

// Fetch returns the body of url. Non-200 responses and transport errors are
// retried; the last error is returned once attempts run out.
func (s *Scraper) Fetch(ctx context.Context, url string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= s.retries; attempt++ {
		body, err := s.get(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		s.logger.Warn().Int("attempt", attempt).Str("url", url).Err(err).Msg("Fetch attempt failed")
		if attempt == s.retries || ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.backoff * time.Duration(attempt)):
		}
	}
	return "", fmt.Errorf("fetch %s: %w", url, lastErr)
}

func (s *Scraper) get(ctx context.Context, url string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("%s returned %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ExtractTextAndLinks returns the visible text of html as newline-joined lines
// and the de-duplicated hrefs starting with linkPrefix, in document order.
func ExtractTextAndLinks(html, linkPrefix string) (string, []string, error) {
	doc, err := htmltext.Parse(html)
	if err != nil {
		return "", nil, err
	}
	text := strings.Join(htmltext.Lines(doc.Selection), "\n")

	links := []string{}
	seen := map[string]struct{}{}
	for _, node := range doc.Find("a[href]").Nodes {
		for _, attr := range node.Attr {
			if attr.Key != "href" || !strings.HasPrefix(attr.Val, linkPrefix) {
				continue
			}
			if _, ok := seen[attr.Val]; !ok {
				seen[attr.Val] = struct{}{}
				links = append(links, attr.Val)
			}
		}
	}
	return text, links, nil
}

// FundManagement extracts the fund management block from raw html as plain
// text, or "" when the page has none.
func FundManagement(html string) string {
	match := fundManagementRe.FindString(html)
	if match == "" {
		return ""
	}
	return htmltext.Collapse(match)
}

func augment(page domain.SchemePage, html, text string) string {
	if !page.AugmentFundManagement || strings.Contains(text, fundManagementHeading) {
		return text
	}
	snippet := FundManagement(html)
	if snippet == "" {
		return text
	}
	return text + "\n\n" + snippet
}

// Scrape fetches one scheme page.
func (s *Scraper) Scrape(ctx context.Context, page domain.SchemePage, verifiedOn string) (domain.ScrapedDocument, error) {
	html, err := s.Fetch(ctx, page.URL)
	if err != nil {
		return domain.ScrapedDocument{}, err
	}
	text, links, err := ExtractTextAndLinks(html, s.linkPrefix)
	if err != nil {
		return domain.ScrapedDocument{}, fmt.Errorf("extract %s: %w", page.URL, err)
	}
	return domain.ScrapedDocument{
		Scheme:       page.Scheme,
		Category:     page.Category,
		URL:          page.URL,
		HTML:         html,
		Text:         augment(page, html, text),
		LastVerified: verifiedOn,
		ExtraLinks:   links,
	}, nil
}

// ScrapeAll scrapes pages in order and stops at the first failure.
func (s *Scraper) ScrapeAll(ctx context.Context, pages []domain.SchemePage, verifiedOn string) ([]domain.ScrapedDocument, error) {
	docs := make([]domain.ScrapedDocument, 0, len(pages))
	for _, page := range pages {
		s.logger.Info().Str("scheme", page.Scheme).Str("url", page.URL).Msg("Scraping")
		doc, err := s.Scrape(ctx, page, verifiedOn)
		if err != nil {
			return docs, fmt.Errorf("scrape %s: %w", page.Scheme, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
