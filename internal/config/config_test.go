package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexchunk.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[store]
dsn = "postgres://localhost/lex"

[chunking]
max_tokens = 512
model = "text-embedding-3-small"

[pipeline]
job_ttl = "30m"
worker_count = 2
`), 0o644))

	t.Setenv("LEXCHUNK_MAX_TOKENS", "256")
	t.Setenv("LEXCHUNK_TOKENIZER", "estimate")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/lex", cfg.Store.DSN)
	assert.Equal(t, 256, cfg.Chunking.MaxTokens)
	assert.Equal(t, "text-embedding-3-small", cfg.Chunking.Model)
	assert.Equal(t, "estimate", cfg.Tokenizer.Kind)
	assert.Equal(t, 30*time.Minute, cfg.Pipeline.JobTTL)
	assert.Equal(t, 2, cfg.Pipeline.WorkerCount)
	assert.Equal(t, 100, cfg.Pipeline.MaxQueueSize, "unset keys keep defaults")
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[chunking\nmax_tokens = "), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_InvalidEnvIgnored(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LEXCHUNK_WORKER_COUNT", "many")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Pipeline.WorkerCount)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero budget", func(c *Config) { c.Chunking.MaxTokens = 0 }},
		{"unknown tokenizer", func(c *Config) { c.Tokenizer.Kind = "bert" }},
		{"empty dsn", func(c *Config) { c.Store.DSN = "" }},
		{"no workers", func(c *Config) { c.Pipeline.WorkerCount = 0 }},
		{"no queue", func(c *Config) { c.Pipeline.MaxQueueSize = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateServer_RequiresAPIKey(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.ValidateServer())

	cfg.Server.APIKey = "secret"
	assert.NoError(t, cfg.ValidateServer())
}
