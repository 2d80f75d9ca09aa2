package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"fundfaq/internal/domain"
)

type fakeAsker struct {
	result   domain.AnswerResult
	err      error
	panicMsg string
	got      string
}

func (f *fakeAsker) Handle(_ context.Context, q string) (domain.AnswerResult, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	f.got = q
	return f.result, f.err
}

func newTestServer(asker Asker, origins ...string) http.Handler {
	return New(Config{
		Addr:           "127.0.0.1:0",
		AllowedOrigins: origins,
		Disclaimer:     "Facts-only. No investment advice.",
		RefusalLink:    "https://www.sebi.gov.in/",
	}, asker, arbor.NewLogger()).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["detail"]
}

func TestAsk_ReturnsAnswer(t *testing.T) {
	asker := &fakeAsker{result: domain.AnswerResult{
		Answer:      "Exit load is 1% within 1 year.",
		Citations:   []string{"https://groww.in/mid"},
		IsFactual:   true,
		Confidence:  1.0,
		Method:      domain.MethodRAG,
		LastUpdated: "Last updated from sources: 2025-11-15",
	}}
	rec := do(t, newTestServer(asker), http.MethodPost, "/ask", `{"query":"  What is the exit load?  "}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
	assert.Equal(t, "What is the exit load?", asker.got)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "rag", body["method"])
	assert.Equal(t, true, body["is_factual"])
	assert.Equal(t, 1.0, body["confidence"])
	assert.Equal(t, []any{"https://groww.in/mid"}, body["citations"])
	assert.Equal(t, "Last updated from sources: 2025-11-15", body["last_updated"])
}

func TestAsk_OmitsEmptyLastUpdated(t *testing.T) {
	asker := &fakeAsker{result: domain.AnswerResult{Answer: "refused", Citations: []string{"x"}, Method: domain.MethodAdviceGuard, Confidence: 1}}
	rec := do(t, newTestServer(asker), http.MethodPost, "/ask", `{"query":"Should I buy?"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "last_updated")
}

func TestAsk_Validation(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		detail string
	}{
		{"bad json", `{"query":`, "invalid JSON body"},
		{"missing", `{}`, "query is required"},
		{"blank", `{"query":"    "}`, "query is required"},
		{"too short", `{"query":"ab"}`, "query must be at least 3 characters"},
		{"too long", `{"query":"` + strings.Repeat("a", 501) + `"}`, "query must be at most 500 characters"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			asker := &fakeAsker{}
			rec := do(t, newTestServer(asker), http.MethodPost, "/ask", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.detail, decodeDetail(t, rec))
			assert.Empty(t, asker.got)
		})
	}
}

func TestAsk_CollaboratorFailure(t *testing.T) {
	rec := do(t, newTestServer(&fakeAsker{err: errors.New("pinecone down")}), http.MethodPost, "/ask", `{"query":"exit load?"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decodeDetail(t, rec))
}

func TestAsk_MissingCitationURL(t *testing.T) {
	err := fmt.Errorf("build citations: %w", domain.ErrMissingURL)
	rec := do(t, newTestServer(&fakeAsker{err: err}), http.MethodPost, "/ask", `{"query":"exit load?"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Chunk metadata missing URL", decodeDetail(t, rec))
}

func TestAsk_PanicRecovered(t *testing.T) {
	rec := do(t, newTestServer(&fakeAsker{panicMsg: "boom"}), http.MethodPost, "/ask", `{"query":"exit load?"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decodeDetail(t, rec))
}

func TestAsk_MethodNotAllowed(t *testing.T) {
	rec := do(t, newTestServer(&fakeAsker{}), http.MethodGet, "/ask", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthAndMeta(t *testing.T) {
	h := newTestServer(&fakeAsker{})

	rec := do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/meta", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"disclaimer":"Facts-only. No investment advice.","refusal_link":"https://www.sebi.gov.in/"}`, rec.Body.String())
}

func TestRequestIDPropagated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	newTestServer(&fakeAsker{}).ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestCORS(t *testing.T) {
	open := newTestServer(&fakeAsker{})
	rec := do(t, open, http.MethodOptions, "/ask", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	restricted := newTestServer(&fakeAsker{}, "https://faq.example.com")
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://faq.example.com")
	rec = httptest.NewRecorder()
	restricted.ServeHTTP(rec, req)
	assert.Equal(t, "https://faq.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	restricted.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
