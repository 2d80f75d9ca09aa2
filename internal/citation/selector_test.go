package citation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundfaq/internal/domain"
)

var fixedNow = time.Date(2025, time.November, 15, 10, 0, 0, 0, time.UTC)

func mustCitations(t *testing.T, passages []domain.Passage) []domain.Citation {
	t.Helper()
	out, err := BuildAll(passages, fixedNow)
	require.NoError(t, err)
	return out
}

func TestSelectBest_SchemeTokenOverlap(t *testing.T) {
	passages := []domain.Passage{
		{Scheme: "HDFC ELSS Tax Saver Fund Direct Plan Growth", URL: "A"},
		{Scheme: "HDFC Flexi Cap Fund Direct Plan Growth", URL: "B"},
	}

	got, err := DefaultSelector().SelectBest(passages, mustCitations(t, passages), "What is the exit load for HDFC Flexi Cap Fund?")
	require.NoError(t, err)
	assert.Equal(t, "B", got.URL)
}

func TestSelectBest_OverlapTieKeepsRetrievalOrder(t *testing.T) {
	passages := []domain.Passage{
		{Scheme: "HDFC Small Cap Fund Direct Growth", URL: "A"},
		{Scheme: "HDFC Multi Cap Fund Direct Growth", URL: "B"},
	}

	got, err := DefaultSelector().SelectBest(passages, mustCitations(t, passages), "Which HDFC cap fund has the lowest expense ratio?")
	require.NoError(t, err)
	assert.Equal(t, "A", got.URL)
}

func TestSelectBest_FillerTokensIgnored(t *testing.T) {
	passages := []domain.Passage{
		{Scheme: "Alpha Direct Plan Growth", URL: "A"},
		{Scheme: "Beta Regular Scheme", URL: "B", Section: "Riskometer"},
	}

	// only filler words match, so overlap is zero everywhere and the section tier decides
	got, err := DefaultSelector().SelectBest(passages, mustCitations(t, passages), "Direct plan growth regular scheme riskometer?")
	require.NoError(t, err)
	assert.Equal(t, "B", got.URL)
}

func TestSelectBest_SectionFallback(t *testing.T) {
	passages := []domain.Passage{
		{Scheme: "Alpha Growth Plan", Section: "Riskometer", URL: "A"},
		{Scheme: "Omega Direct Scheme", Section: "Exit Load", URL: "B"},
	}

	got, err := DefaultSelector().SelectBest(passages, mustCitations(t, passages), "What does the exit load say?")
	require.NoError(t, err)
	assert.Equal(t, "B", got.URL)
}

func TestSelectBest_SchemeSubstringWithOnlyFillerName(t *testing.T) {
	passages := []domain.Passage{
		{Scheme: "Beta", URL: "A", Section: "Section 1"},
		{Scheme: "Direct Plan", URL: "B", Section: "Section 2"},
	}

	got, err := DefaultSelector().SelectBest(passages, mustCitations(t, passages), "Is the direct-plan cheaper? see section 1")
	require.NoError(t, err)
	assert.Equal(t, "B", got.URL, "scheme substring is tried before section labels")
}

func TestSelectBest_DefaultsToFirst(t *testing.T) {
	passages := []domain.Passage{
		{Scheme: "Alpha Fund", Section: "Section 1", URL: "A"},
		{Scheme: "Beta Fund", Section: "Section 2", URL: "B"},
	}

	got, err := DefaultSelector().SelectBest(passages, mustCitations(t, passages), "How do I download my statement?")
	require.NoError(t, err)
	assert.Equal(t, "A", got.URL)
}

func TestSelectBest_CustomFiller(t *testing.T) {
	passages := []domain.Passage{
		{Scheme: "HDFC Fund One", URL: "A"},
		{Scheme: "HDFC Fund Two", URL: "B"},
	}
	sel := NewSelector([]string{"hdfc", "fund"})

	got, err := sel.SelectBest(passages, mustCitations(t, passages), "hdfc fund two exit load")
	require.NoError(t, err)
	assert.Equal(t, "B", got.URL)
}

func TestSelectBest_Preconditions(t *testing.T) {
	sel := DefaultSelector()

	_, err := sel.SelectBest(nil, nil, "q")
	assert.ErrorIs(t, err, ErrNoCandidates)

	passages := []domain.Passage{{URL: "A"}, {URL: "B"}}
	_, err = sel.SelectBest(passages, mustCitations(t, passages[:1]), "q")
	assert.ErrorIs(t, err, ErrMisaligned)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "hdfc large mid cap fund", Normalize("  HDFC Large & Mid-Cap   Fund! "))
	assert.Equal(t, "", Normalize("?!"))
}

func TestBuild(t *testing.T) {
	c, err := Build(domain.Passage{URL: "X", Scheme: "Y", LastVerified: "2025-01-01"}, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "X", c.URL)
	assert.Equal(t, "Y", c.Text)
	assert.Contains(t, c.LastVerified, "2025-01-01")

	c, err = Build(domain.Passage{URL: "X"}, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "HDFC Mutual Fund", c.Text)
	assert.Equal(t, "Last updated from sources: 2025-11-15", c.LastVerified)

	_, err = Build(domain.Passage{Scheme: "Y"}, fixedNow)
	assert.ErrorIs(t, err, domain.ErrMissingURL)
}
