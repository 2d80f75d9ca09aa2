package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"fundfaq/internal/domain"
)

const schemePage = `<html><body>
<script>window.__DATA__ = {}</script>
<h1>HDFC Flexi Cap Fund Direct Plan Growth</h1>
<div>Exit load: 1% if redeemed within 1 year</div>
<a href="https://groww.in/mutual-funds/amc/hdfc">AMC</a>
<a href="https://example.com/other">Other</a>
<a href="https://groww.in/mutual-funds/amc/hdfc">AMC again</a>
<a href="https://groww.in/calculators">Calculators</a>
<script id="__NEXT_DATA__">{"fm":"Fund management <b>Roshi Jain</b> Jul 2022 - Present Fund house"}</script>
</body></html>`

func newTestScraper(retries int) *Scraper {
	return New(Config{
		UserAgent: "TestBot/1.0",
		Retries:   retries,
		Backoff:   time.Millisecond,
		Timeout:   time.Second,
	}, arbor.NewLogger())
}

func TestExtractTextAndLinks(t *testing.T) {
	text, links, err := ExtractTextAndLinks(schemePage, "https://groww.in/")
	require.NoError(t, err)
	assert.Contains(t, text, "HDFC Flexi Cap Fund Direct Plan Growth\nExit load: 1% if redeemed within 1 year")
	assert.NotContains(t, text, "__DATA__")
	assert.Equal(t, []string{
		"https://groww.in/mutual-funds/amc/hdfc",
		"https://groww.in/calculators",
	}, links)
}

func TestFundManagement(t *testing.T) {
	assert.Equal(t, "Fund management Roshi Jain Jul 2022 - Present Fund house", FundManagement(schemePage))
	assert.Empty(t, FundManagement("<p>no such section</p>"))
}

func TestAugment(t *testing.T) {
	page := domain.SchemePage{AugmentFundManagement: true}
	html := `<div>Fund management <i>A. Manager</i> Investment objective</div>`

	assert.Equal(t, "base\n\nFund management A. Manager Investment objective", augment(page, html, "base"))
	assert.Equal(t, "Fund management already", augment(page, html, "Fund management already"))
	assert.Equal(t, "base", augment(domain.SchemePage{}, html, "base"))
	assert.Equal(t, "base", augment(page, "<p>none</p>", "base"))
}

func TestFetch_SendsHeadersAndRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "TestBot/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "text/html,application/xhtml+xml", r.Header.Get("Accept"))
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("<p>ok</p>"))
	}))
	defer srv.Close()

	body, err := newTestScraper(3).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "<p>ok</p>", body)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetch_GivesUp(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestScraper(2).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned 404")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetch_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestScraper(3).Fetch(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScrapeAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusGone)
			return
		}
		_, _ = w.Write([]byte(schemePage))
	}))
	defer srv.Close()

	s := newTestScraper(1)
	pages := []domain.SchemePage{
		{Scheme: "HDFC Flexi Cap Fund Direct Plan Growth", Category: "Flexi Cap", URL: srv.URL + "/flexi", AugmentFundManagement: true},
		{Scheme: "HDFC Small Cap Fund Direct Growth", Category: "Small Cap", URL: srv.URL + "/small"},
	}
	docs, err := s.ScrapeAll(context.Background(), pages, "2025-11-15")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Flexi Cap", docs[0].Category)
	assert.Equal(t, "2025-11-15", docs[0].LastVerified)
	assert.Contains(t, docs[0].Text, "Fund management Roshi Jain")
	assert.NotContains(t, docs[1].Text, "Roshi Jain")
	assert.Equal(t, schemePage, docs[1].HTML)
	assert.Len(t, docs[1].ExtraLinks, 2)

	_, err = s.ScrapeAll(context.Background(), append(pages, domain.SchemePage{Scheme: "gone", URL: srv.URL + "/missing"}), "2025-11-15")
	assert.Error(t, err)
}
