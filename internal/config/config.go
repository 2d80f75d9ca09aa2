package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"fundfaq/internal/domain"
)

// ErrMissingSetting marks a required credential or setting that is absent.
var ErrMissingSetting = errors.New("missing required setting")

const (
	openAIKeyEnv          = "OPENAI_API_KEY"
	openAIChatModelEnv    = "OPENAI_CHAT_MODEL"
	openAIEmbedModelEnv   = "OPENAI_EMBED_MODEL"
	pineconeKeyEnv        = "PINECONE_API_KEY"
	pineconeIndexEnv      = "PINECONE_INDEX"
	pineconeHostEnv       = "PINECONE_HOST"
	mongoURIEnv           = "MONGODB_URI"
	mongoDBEnv            = "MONGODB_DB"
	mongoDocumentsEnv     = "MONGODB_COLLECTION_DOCUMENTS"
	mongoChunksEnv        = "MONGODB_COLLECTION_CHUNKS"
	adviceRefusalLinkEnv  = "ADVICE_REFUSAL_LINK"
	disclaimerEnv         = "DISCLAIMER_TEXT"
	dataOutputDirEnv      = "DATA_OUTPUT_DIR"
	serverPortEnv         = "SERVER_PORT"
	logLevelEnv           = "LOG_LEVEL"
	defaultRefusalLink    = "https://www.sebi.gov.in/sebiweb/investors/InvestorProtection.jsp"
	defaultFallbackURL    = "https://groww.in/mutual-funds"
	defaultDisclaimer     = "Facts-only. No investment advice."
	defaultOpenAIBaseURL  = "https://api.openai.com/v1"
	defaultEmbedModel     = "text-embedding-3-small"
	defaultChatModel      = "gpt-4o"
	defaultPineconeIndex  = "groww-hdfc-faq"
	defaultMongoURI       = "mongodb://localhost:27017"
	defaultMongoDB        = "mutual_fund_faq"
	defaultDocumentsColl  = "documents"
	defaultChunksColl     = "chunks"
	defaultUserAgent      = "MutualFundFAQBot/0.1"
	defaultLinkPrefix     = "https://groww.in/"
	defaultOutputDir      = "./data-pipeline/output"
	defaultSourcesCSV     = "docs/sources.csv"
	defaultWordsPerChunk  = 700
	defaultOverlapWords   = 100
	defaultEmbedBatchSize = 32
)

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LoggingConfig selects log level and outputs.
type LoggingConfig struct {
	Level  string   `yaml:"level"`
	Output []string `yaml:"output"`
	File   string   `yaml:"file"`
}

// OpenAIConfig holds configuration for the OpenAI-compatible embeddings and chat endpoints.
type OpenAIConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	APIKey      string  `yaml:"-"`
	EmbedModel  string  `yaml:"embed_model"`
	ChatModel   string  `yaml:"chat_model"`
	TimeoutSecs int     `yaml:"timeout_secs"`
	BatchSize   int     `yaml:"batch_size"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// VectorStoreConfig selects and configures the vector index implementation.
type VectorStoreConfig struct {
	Type     string          `yaml:"type"`
	Pinecone *PineconeConfig `yaml:"pinecone,omitempty"`
	Qdrant   *QdrantConfig   `yaml:"qdrant,omitempty"`
}

// PineconeConfig contains connection details for a Pinecone index.
type PineconeConfig struct {
	APIKeyEnv string `yaml:"api_key_env"`
	APIKey    string `yaml:"-"`
	Index     string `yaml:"index"`
	Host      string `yaml:"host"`
	Namespace string `yaml:"namespace"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// MongoConfig describes the document store.
type MongoConfig struct {
	URI                 string `yaml:"uri"`
	Database            string `yaml:"database"`
	DocumentsCollection string `yaml:"documents_collection"`
	ChunksCollection    string `yaml:"chunks_collection"`
	TimeoutSecs         int    `yaml:"timeout_secs"`
}

// AdviceConfig configures the advisory refusal and no-result responses.
type AdviceConfig struct {
	RefusalLink string `yaml:"refusal_link"`
	FallbackURL string `yaml:"fallback_url"`
}

// RetrievalConfig controls how many passages are fetched and used as context.
type RetrievalConfig struct {
	TopK            int `yaml:"top_k"`
	ContextPassages int `yaml:"context_passages"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	Type          string `yaml:"type"`
	WordsPerChunk int    `yaml:"words_per_chunk"`
	OverlapWords  int    `yaml:"overlap_words"`
}

// ScraperConfig configures page fetching.
type ScraperConfig struct {
	UserAgent         string  `yaml:"user_agent"`
	TimeoutSecs       int     `yaml:"timeout_secs"`
	Retries           int     `yaml:"retries"`
	BackoffMillis     int     `yaml:"backoff_millis"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	LinkPrefix        string  `yaml:"link_prefix"`
}

// PipelineConfig configures ingestion outputs and scheduling.
type PipelineConfig struct {
	OutputDir  string `yaml:"output_dir"`
	SourcesCSV string `yaml:"sources_csv"`
	Schedule   string `yaml:"schedule"`
	Timezone   string `yaml:"timezone"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server      ServerConfig        `yaml:"server"`
	Logging     LoggingConfig       `yaml:"logging"`
	OpenAI      OpenAIConfig        `yaml:"openai"`
	VectorStore VectorStoreConfig   `yaml:"vector_store"`
	Mongo       MongoConfig         `yaml:"mongo"`
	Advice      AdviceConfig        `yaml:"advice"`
	Disclaimer  string              `yaml:"disclaimer"`
	Retrieval   RetrievalConfig     `yaml:"retrieval"`
	Chunker     ChunkerConfig       `yaml:"chunker"`
	Scraper     ScraperConfig       `yaml:"scraper"`
	Pipeline    PipelineConfig      `yaml:"pipeline"`
	Sources     []domain.SchemePage `yaml:"sources"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, err
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(cfg)
	cfg.applyEnv()
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/fundfaq/config.yaml.
// If neither exists, defaults are returned with environment overrides applied.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	cfg, err := Load(userPath)
	return cfg, userPath, err
}

// Save writes the config to the given path, creating directories as needed.
// OpenAI and Pinecone keys are read from the environment and never written.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate reports missing credentials. Serving needs the vector index and
// chat model; ingestion additionally needs at least one source.
func (c *AppConfig) Validate(serving bool) error {
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("%w: %s", ErrMissingSetting, c.OpenAI.APIKeyEnv)
	}
	if c.VectorStore.Type == "pinecone" {
		if c.VectorStore.Pinecone == nil {
			return fmt.Errorf("%w: vector_store.pinecone", ErrMissingSetting)
		}
		if c.VectorStore.Pinecone.APIKey == "" {
			return fmt.Errorf("%w: %s", ErrMissingSetting, c.VectorStore.Pinecone.APIKeyEnv)
		}
		if c.VectorStore.Pinecone.Index == "" && c.VectorStore.Pinecone.Host == "" {
			return fmt.Errorf("%w: vector_store.pinecone.index", ErrMissingSetting)
		}
	}
	if c.VectorStore.Type == "qdrant" && (c.VectorStore.Qdrant == nil || c.VectorStore.Qdrant.URL == "") {
		return fmt.Errorf("%w: vector_store.qdrant.url", ErrMissingSetting)
	}
	if c.Mongo.URI == "" {
		return fmt.Errorf("%w: %s", ErrMissingSetting, mongoURIEnv)
	}
	if serving {
		if c.Advice.RefusalLink == "" {
			return fmt.Errorf("%w: advice.refusal_link", ErrMissingSetting)
		}
		return nil
	}
	if len(c.Sources) == 0 {
		return fmt.Errorf("%w: sources", ErrMissingSetting)
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (c *AppConfig) applyEnv() {
	c.OpenAI.APIKey = os.Getenv(c.OpenAI.APIKeyEnv)
	if v := os.Getenv(openAIChatModelEnv); v != "" {
		c.OpenAI.ChatModel = v
	}
	if v := os.Getenv(openAIEmbedModelEnv); v != "" {
		c.OpenAI.EmbedModel = v
	}

	if c.VectorStore.Type == "pinecone" {
		if c.VectorStore.Pinecone == nil {
			c.VectorStore.Pinecone = &PineconeConfig{APIKeyEnv: pineconeKeyEnv, Index: defaultPineconeIndex}
		}
		c.VectorStore.Pinecone.APIKey = os.Getenv(c.VectorStore.Pinecone.APIKeyEnv)
		if v := os.Getenv(pineconeIndexEnv); v != "" {
			c.VectorStore.Pinecone.Index = v
		}
		if v := os.Getenv(pineconeHostEnv); v != "" {
			c.VectorStore.Pinecone.Host = v
		}
	}

	if v := os.Getenv(mongoURIEnv); v != "" {
		c.Mongo.URI = v
	}
	if v := os.Getenv(mongoDBEnv); v != "" {
		c.Mongo.Database = v
	}
	if v := os.Getenv(mongoDocumentsEnv); v != "" {
		c.Mongo.DocumentsCollection = v
	}
	if v := os.Getenv(mongoChunksEnv); v != "" {
		c.Mongo.ChunksCollection = v
	}

	if v := os.Getenv(adviceRefusalLinkEnv); v != "" {
		c.Advice.RefusalLink = v
	}
	if v := os.Getenv(disclaimerEnv); v != "" {
		c.Disclaimer = v
	}
	if v := os.Getenv(dataOutputDirEnv); v != "" {
		c.Pipeline.OutputDir = v
	}
	if v := os.Getenv(serverPortEnv); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "fundfaq", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Server:  ServerConfig{Host: "0.0.0.0", Port: 8000, AllowedOrigins: []string{"*"}},
		Logging: LoggingConfig{Level: "info", Output: []string{"stdout"}},
		OpenAI: OpenAIConfig{
			BaseURL:     defaultOpenAIBaseURL,
			APIKeyEnv:   openAIKeyEnv,
			EmbedModel:  defaultEmbedModel,
			ChatModel:   defaultChatModel,
			TimeoutSecs: 30,
			BatchSize:   defaultEmbedBatchSize,
			Temperature: 0.2,
			MaxTokens:   300,
		},
		VectorStore: VectorStoreConfig{
			Type:     "pinecone",
			Pinecone: &PineconeConfig{APIKeyEnv: pineconeKeyEnv, Index: defaultPineconeIndex},
		},
		Mongo: MongoConfig{
			URI:                 defaultMongoURI,
			Database:            defaultMongoDB,
			DocumentsCollection: defaultDocumentsColl,
			ChunksCollection:    defaultChunksColl,
			TimeoutSecs:         10,
		},
		Advice:     AdviceConfig{RefusalLink: defaultRefusalLink, FallbackURL: defaultFallbackURL},
		Disclaimer: defaultDisclaimer,
		Retrieval:  RetrievalConfig{TopK: 5, ContextPassages: 3},
		Chunker:    ChunkerConfig{Type: "word", WordsPerChunk: defaultWordsPerChunk, OverlapWords: defaultOverlapWords},
		Scraper: ScraperConfig{
			UserAgent:         defaultUserAgent,
			TimeoutSecs:       30,
			Retries:           3,
			BackoffMillis:     1500,
			RequestsPerSecond: 1,
			LinkPrefix:        defaultLinkPrefix,
		},
		Pipeline: PipelineConfig{OutputDir: defaultOutputDir, SourcesCSV: defaultSourcesCSV, Timezone: "UTC"},
		Sources:  DefaultSources(),
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.OpenAI.BaseURL == "" {
		cfg.OpenAI.BaseURL = defaultOpenAIBaseURL
	}
	if cfg.OpenAI.APIKeyEnv == "" {
		cfg.OpenAI.APIKeyEnv = openAIKeyEnv
	}
	if cfg.OpenAI.BatchSize <= 0 {
		cfg.OpenAI.BatchSize = defaultEmbedBatchSize
	}
	if cfg.VectorStore.Pinecone != nil && cfg.VectorStore.Pinecone.APIKeyEnv == "" {
		cfg.VectorStore.Pinecone.APIKeyEnv = pineconeKeyEnv
	}
	if cfg.VectorStore.Qdrant != nil && cfg.VectorStore.Qdrant.Collection == "" {
		cfg.VectorStore.Qdrant.Collection = defaultPineconeIndex
	}
	if cfg.Retrieval.TopK <= 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.ContextPassages <= 0 {
		cfg.Retrieval.ContextPassages = 3
	}
	if cfg.Chunker.WordsPerChunk <= 0 {
		cfg.Chunker.WordsPerChunk = defaultWordsPerChunk
	}
	if cfg.Chunker.OverlapWords < 0 || cfg.Chunker.OverlapWords >= cfg.Chunker.WordsPerChunk {
		cfg.Chunker.OverlapWords = 0
	}
	if cfg.Scraper.Retries <= 0 {
		cfg.Scraper.Retries = 1
	}
	if cfg.Advice.FallbackURL == "" {
		cfg.Advice.FallbackURL = defaultFallbackURL
	}
}
