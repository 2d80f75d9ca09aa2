package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundfaq/internal/config"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	MaxTokens int `json:"max_tokens"`
}

func newChatServer(t *testing.T, reply string, seen *chatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(seen)) {
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   seen.Model,
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": reply},
				"finish_reason": "stop",
			}},
		})
	}))
}

func TestGenerate_SendsGroundedPrompt(t *testing.T) {
	var seen chatRequest
	srv := newChatServer(t, "  Exit load is Nil. [CITATION]  ", &seen)
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL + "/v1", APIKey: "sk-test", Model: "gpt-test"})
	require.NoError(t, err)

	got, err := client.Generate(context.Background(), "What is the exit load?", []string{"Section 1: Exit load Nil", "Section 2: Lock-in 3 years"})
	require.NoError(t, err)
	assert.Equal(t, "Exit load is Nil. [CITATION]", got)

	assert.Equal(t, "gpt-test", seen.Model)
	assert.Equal(t, 300, seen.MaxTokens)
	require.Len(t, seen.Messages, 2)
	assert.Equal(t, "system", seen.Messages[0].Role)
	assert.Equal(t, SystemPrompt, seen.Messages[0].Content)
	assert.Equal(t, "user", seen.Messages[1].Role)
	assert.Contains(t, seen.Messages[1].Content, "Section 1: Exit load Nil\n\nSection 2: Lock-in 3 years")
	assert.True(t, strings.HasSuffix(seen.Messages[1].Content, "Question: What is the exit load?\nAnswer:"))
}

func TestGenerate_AppendsMissingMarker(t *testing.T) {
	var seen chatRequest
	srv := newChatServer(t, "Exit load is Nil.", &seen)
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL + "/v1", APIKey: "sk-test"})
	require.NoError(t, err)

	got, err := client.Generate(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Equal(t, "Exit load is Nil. [CITATION]", got)
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, config.ErrMissingSetting)
}

func TestUserPrompt(t *testing.T) {
	assert.Equal(t, "Context:\na\n\nb\n\nQuestion: q\nAnswer:", UserPrompt("q", []string{"a", "b"}))
}
