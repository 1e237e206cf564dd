package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configData := `
llm:
  base_url: "http://localhost:11434"
  model: "mistral"
  max_tokens: 1000
  temperature: 0.5
  timeout_seconds: 60

embedding:
  model: "nomic-embed-text:latest"
  timeout_seconds: 15
  rate_limit: 2.5

storage:
  data_dir: "/var/lib/docchat/sessions"

chunking:
  chunk_size: 500
  chunk_overlap: 100

retrieval:
  top_k: 3
`
	err := os.WriteFile(configPath, []byte(configData), 0644)
	require.NoError(t, err)

	// Test loading config
	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	// Verify loaded values
	assert.Equal(t, "http://localhost:11434", config.LLM.BaseURL)
	assert.Equal(t, "mistral", config.LLM.Model)
	assert.Equal(t, 1000, config.LLM.MaxTokens)
	assert.Equal(t, 0.5, config.LLM.Temperature)
	assert.Equal(t, "nomic-embed-text:latest", config.Embedding.Model)
	assert.Equal(t, 2.5, config.Embedding.RateLimit)
	assert.Equal(t, "/var/lib/docchat/sessions", config.Storage.DataDir)
	assert.Equal(t, 500, config.Chunking.ChunkSize)
	assert.Equal(t, 100, config.Chunking.ChunkOverlap)
	assert.Equal(t, 3, config.Retrieval.TopK)
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("llm:\n  model: \"llama3\"\n"), 0644))

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "llama3", config.LLM.Model)
	assert.Equal(t, "http://localhost:11434", config.LLM.BaseURL)
	assert.Equal(t, 1000, config.Chunking.ChunkSize)
	assert.Equal(t, 200, config.Chunking.ChunkOverlap)
	assert.Equal(t, 5, config.Retrieval.TopK)
	assert.Equal(t, "./data/sessions", config.Storage.DataDir)
}

func TestLoadConfigMergesEnv(t *testing.T) {
	t.Setenv("OLLAMA_BASE_URL", "http://ollama.internal:11434")
	t.Setenv("DOCCHAT_DATA_DIR", "/mnt/sessions")

	config, err := getDefaultConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://ollama.internal:11434", config.LLM.BaseURL)
	assert.Equal(t, "/mnt/sessions", config.Storage.DataDir)
}

func TestConfigValidation(t *testing.T) {
	valid, err := getDefaultConfig()
	require.NoError(t, err)
	assert.Empty(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "missing base url",
			mutate: func(c *Config) { c.LLM.BaseURL = "" },
			field:  "llm.base_url",
		},
		{
			name:   "max tokens out of range",
			mutate: func(c *Config) { c.LLM.MaxTokens = 100000 },
			field:  "llm.max_tokens",
		},
		{
			name:   "overlap not below chunk size",
			mutate: func(c *Config) { c.Chunking.ChunkOverlap = c.Chunking.ChunkSize },
			field:  "chunking.chunk_overlap",
		},
		{
			name:   "zero chunk size",
			mutate: func(c *Config) { c.Chunking.ChunkSize = 0 },
			field:  "chunking.chunk_size",
		},
		{
			name:   "zero top k",
			mutate: func(c *Config) { c.Retrieval.TopK = 0 },
			field:  "retrieval.top_k",
		},
		{
			name:   "missing data dir",
			mutate: func(c *Config) { c.Storage.DataDir = "" },
			field:  "storage.data_dir",
		},
		{
			name:   "missing embedding model",
			mutate: func(c *Config) { c.Embedding.Model = "" },
			field:  "embedding.model",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := getDefaultConfig()
			require.NoError(t, err)
			tt.mutate(config)

			errs := config.Validate()
			require.NotEmpty(t, errs)

			found := false
			for _, e := range errs {
				if e.Field == tt.field {
					found = true
				}
			}
			assert.True(t, found, "expected a validation error for %s, got %v", tt.field, errs)
		})
	}
}
