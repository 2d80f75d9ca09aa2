package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/ternarybob/arbor"

	"fundfaq/internal/config"
	"fundfaq/internal/domain"
)

// Client is an OpenAI-compatible embeddings client implementing domain.BatchEmbedder.
type Client struct {
	api        *goopenai.Client
	model      goopenai.EmbeddingModel
	batchSize  int
	maxRetries int
	logger     arbor.ILogger
}

var _ domain.BatchEmbedder = (*Client)(nil)

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL   string
	APIKey    string
	Model     string
	Timeout   time.Duration
	BatchSize int
}

// NewClient creates a new embeddings client. A missing API key is a
// configuration error.
func NewClient(cfg Config, logger arbor.ILogger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY is required for embeddings", config.ErrMissingSetting)
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	if logger == nil {
		logger = arbor.NewLogger()
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: t}

	return &Client{
		api:        goopenai.NewClientWithConfig(clientCfg),
		model:      goopenai.EmbeddingModel(cfg.Model),
		batchSize:  cfg.BatchSize,
		maxRetries: 5,
		logger:     logger,
	}, nil
}

// Embed returns an embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in request batches, returning vectors in input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		resp, err := c.create(ctx, batch)
		if err != nil {
			return nil, err
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("openai embeddings: got %d vectors for %d inputs", len(resp.Data), len(batch))
		}
		for _, d := range resp.Data {
			if d.Index < 0 || d.Index >= len(batch) {
				return nil, fmt.Errorf("openai embeddings: index %d out of range", d.Index)
			}
			if len(d.Embedding) == 0 {
				return nil, errors.New("openai embeddings: empty embedding")
			}
			out[start+d.Index] = d.Embedding
		}
	}
	return out, nil
}

func (c *Client) create(ctx context.Context, input []string) (goopenai.EmbeddingResponse, error) {
	req := goopenai.EmbeddingRequest{Input: input, Model: c.model}
	for attempt := 0; ; attempt++ {
		resp, err := c.api.CreateEmbeddings(ctx, req)
		if err == nil {
			return resp, nil
		}
		if attempt >= c.maxRetries || !retryable(err) {
			return goopenai.EmbeddingResponse{}, fmt.Errorf("openai embeddings: %w", err)
		}
		c.logger.Warn().Err(err).Int("attempt", attempt+1).Msg("Embedding request failed, retrying")
		select {
		case <-ctx.Done():
			return goopenai.EmbeddingResponse{}, ctx.Err()
		case <-time.After(retryDelay(attempt)):
		}
	}
}

// retryable reports rate limiting and server-side failures.
func retryable(err error) bool {
	status := 0
	var apiErr *goopenai.APIError
	var reqErr *goopenai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	return status == http.StatusTooManyRequests || status >= 500
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
