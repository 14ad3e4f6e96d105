package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultPath is read when Load is called without an explicit file.
const DefaultPath = "lexchunk.toml"

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Store     StoreConfig     `toml:"store"`
	Chunking  ChunkingConfig  `toml:"chunking"`
	Tokenizer TokenizerConfig `toml:"tokenizer"`
	Pipeline  PipelineConfig  `toml:"pipeline"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

type ServerConfig struct {
	Port           string `toml:"port"`
	APIKey         string `toml:"api_key"`
	MaxUploadBytes int64  `toml:"max_upload_bytes"`
}

type StoreConfig struct {
	// DSN is a postgres:// URL or a SQLite file path.
	DSN string `toml:"dsn"`
}

type ChunkingConfig struct {
	MaxTokens int    `toml:"max_tokens"`
	Model     string `toml:"model"`
	URL       string `toml:"url"`
}

type TokenizerConfig struct {
	Kind      string `toml:"kind"` // tiktoken or estimate
	CacheSize int    `toml:"cache_size"`
}

type PipelineConfig struct {
	WorkerCount          int           `toml:"worker_count"`
	MaxQueueSize         int           `toml:"max_queue_size"`
	JobTTL               time.Duration `toml:"job_ttl"`
	PDFFallbackPdftotext bool          `toml:"pdf_fallback_pdftotext"`
}

type TelemetryConfig struct {
	Enabled     bool   `toml:"enabled"`
	ServiceName string `toml:"service_name"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Server:    ServerConfig{Port: "8090", MaxUploadBytes: 52428800}, // 50MB
		Store:     StoreConfig{DSN: "lexchunk.db"},
		Chunking:  ChunkingConfig{MaxTokens: 800, Model: "gpt-4o"},
		Tokenizer: TokenizerConfig{Kind: "tiktoken", CacheSize: 4096},
		Pipeline: PipelineConfig{
			WorkerCount:          4,
			MaxQueueSize:         100,
			JobTTL:               1 * time.Hour,
			PDFFallbackPdftotext: true,
		},
		Telemetry: TelemetryConfig{ServiceName: "lexchunk"},
	}
}

// Load reads config: defaults -> TOML file -> env vars (env wins).
// A missing file is only an error when path was given explicitly.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) || explicit {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	cfg.Server.Port = envOr("LEXCHUNK_PORT", cfg.Server.Port)
	cfg.Server.APIKey = envOr("LEXCHUNK_API_KEY", cfg.Server.APIKey)
	cfg.Server.MaxUploadBytes = envInt64("LEXCHUNK_MAX_UPLOAD_BYTES", cfg.Server.MaxUploadBytes)

	cfg.Store.DSN = envOr("LEXCHUNK_STORE_DSN", cfg.Store.DSN)

	cfg.Chunking.MaxTokens = envInt("LEXCHUNK_MAX_TOKENS", cfg.Chunking.MaxTokens)
	cfg.Chunking.Model = envOr("LEXCHUNK_MODEL", cfg.Chunking.Model)
	cfg.Chunking.URL = envOr("LEXCHUNK_URL", cfg.Chunking.URL)

	cfg.Tokenizer.Kind = envOr("LEXCHUNK_TOKENIZER", cfg.Tokenizer.Kind)
	cfg.Tokenizer.CacheSize = envInt("LEXCHUNK_TOKENIZER_CACHE", cfg.Tokenizer.CacheSize)

	cfg.Pipeline.WorkerCount = envInt("LEXCHUNK_WORKER_COUNT", cfg.Pipeline.WorkerCount)
	cfg.Pipeline.MaxQueueSize = envInt("LEXCHUNK_MAX_QUEUE_SIZE", cfg.Pipeline.MaxQueueSize)
	cfg.Pipeline.JobTTL = envDuration("LEXCHUNK_JOB_TTL", cfg.Pipeline.JobTTL)
	cfg.Pipeline.PDFFallbackPdftotext = envBool("LEXCHUNK_PDF_FALLBACK_PDFTOTEXT", cfg.Pipeline.PDFFallbackPdftotext)

	cfg.Telemetry.Enabled = envBool("LEXCHUNK_TELEMETRY", cfg.Telemetry.Enabled)

	return cfg, nil
}

// Validate checks the settings every command needs.
func (c Config) Validate() error {
	if c.Chunking.MaxTokens <= 0 {
		return fmt.Errorf("chunking.max_tokens must be positive, got %d", c.Chunking.MaxTokens)
	}
	switch c.Tokenizer.Kind {
	case "tiktoken", "estimate":
	default:
		return fmt.Errorf("tokenizer.kind must be tiktoken or estimate, got %q", c.Tokenizer.Kind)
	}
	if c.Store.DSN == "" {
		return fmt.Errorf("store.dsn is required")
	}
	if c.Pipeline.WorkerCount <= 0 {
		return fmt.Errorf("pipeline.worker_count must be positive, got %d", c.Pipeline.WorkerCount)
	}
	if c.Pipeline.MaxQueueSize <= 0 {
		return fmt.Errorf("pipeline.max_queue_size must be positive, got %d", c.Pipeline.MaxQueueSize)
	}
	return nil
}

// ValidateServer additionally checks what the HTTP server needs.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Server.APIKey == "" {
		return fmt.Errorf("LEXCHUNK_API_KEY is required")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
