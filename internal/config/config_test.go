package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Resolve()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 3, cfg.Extract.MinSupport)
	assert.Equal(t, 0.8, cfg.Extract.SimilarityThreshold)
}

func TestResolveDerivesStoragePath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/var/lib/logpress"
	cfg.Resolve()
	assert.Equal(t, filepath.Join("/var/lib/logpress", "containers"), cfg.Storage.Path)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero min_support", func(c *Config) { c.Extract.MinSupport = 0 }},
		{"threshold above one", func(c *Config) { c.Extract.SimilarityThreshold = 1.5 }},
		{"threshold zero", func(c *Config) { c.Extract.SimilarityThreshold = 0 }},
		{"unknown storage type", func(c *Config) { c.Storage.Type = "gcs" }},
		{"s3 without bucket", func(c *Config) { c.Storage.Type = "s3"; c.Storage.S3.Bucket = "" }},
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Resolve()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
data_dir: /tmp/lp
extract:
  min_support: 5
  similarity_threshold: 0.9
storage:
  type: s3
  s3:
    bucket: logs
    region: eu-west-1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/lp", cfg.DataDir)
	assert.Equal(t, 5, cfg.Extract.MinSupport)
	assert.Equal(t, 0.9, cfg.Extract.SimilarityThreshold)
	assert.Equal(t, "s3", cfg.Storage.Type)
	assert.Equal(t, "logs", cfg.Storage.S3.Bucket)
	// Untouched fields keep defaults.
	assert.Equal(t, 5, cfg.Extract.MaxExampleLines)
}

func TestLoadFromJSONFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{"extract": {"min_support": 2, "similarity_threshold": 0.7, "max_example_lines": 3}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Extract.MinSupport)
	assert.Equal(t, 3, cfg.Extract.MaxExampleLines)
}

func TestLoadFromFileRejectsUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0644))

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LOGPRESS_MIN_SUPPORT", "7")
	t.Setenv("LOGPRESS_SIMILARITY_THRESHOLD", "0.65")
	t.Setenv("LOGPRESS_STORAGE_TYPE", "s3")
	t.Setenv("LOGPRESS_S3_BUCKET", "my-logs")

	cfg := DefaultConfig()
	LoadFromEnv(cfg)

	assert.Equal(t, 7, cfg.Extract.MinSupport)
	assert.Equal(t, 0.65, cfg.Extract.SimilarityThreshold)
	assert.Equal(t, "s3", cfg.Storage.Type)
	assert.Equal(t, "my-logs", cfg.Storage.S3.Bucket)
}
