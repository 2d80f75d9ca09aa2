package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"fundfaq/internal/config"
	"fundfaq/internal/domain"
)

// SystemPrompt restricts the model to the supplied excerpts.
const SystemPrompt = `You are a compliance-focused assistant that answers factual mutual fund questions.
Rules:
1. Only use the supplied context excerpts.
2. Respond in <=3 sentences, clear declarative tone.
3. Append a single citation token '[CITATION]' at the end of the answer.
4. If the context does not contain the answer, say you couldn't find it.
5. Never provide investment or portfolio advice; redirect users to SEBI-registered advisers if they ask.`

// Client implements domain.Generator backed by an OpenAI-compatible chat API.
type Client struct {
	api          *goopenai.Client
	model        string
	systemPrompt string
	temperature  float32
	maxTokens    int
}

var _ domain.Generator = (*Client)(nil)

// Config configures the chat completion client.
type Config struct {
	BaseURL      string
	APIKey       string
	Model        string
	SystemPrompt string
	Temperature  float32
	MaxTokens    int
	Timeout      time.Duration
}

// NewClient builds a client from configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY is required", config.ErrMissingSetting)
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 300
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Client{
		api:          goopenai.NewClientWithConfig(clientCfg),
		model:        cfg.Model,
		systemPrompt: safePrompt(cfg.SystemPrompt),
		temperature:  cfg.Temperature,
		maxTokens:    cfg.MaxTokens,
	}, nil
}

// Generate asks the model for an answer grounded in contexts. The returned
// text always ends with domain.CitationMarker.
func (c *Client) Generate(ctx context.Context, question string, contexts []string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: c.systemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: UserPrompt(question, contexts)},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion: no choices returned")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if !strings.Contains(text, domain.CitationMarker) {
		text = text + " " + domain.CitationMarker
	}
	return text, nil
}

// UserPrompt formats the context excerpts and question for the model.
func UserPrompt(question string, contexts []string) string {
	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s\nAnswer:", strings.Join(contexts, "\n\n"), question)
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return SystemPrompt
	}
	return prompt
}
