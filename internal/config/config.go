// Package config provides unified configuration for the logpress pipeline
// and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the unified configuration for compression, query, and
// container storage.
type Config struct {
	// DataDir is the base directory for all local data files
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Extract holds template extraction parameters
	Extract ExtractConfig `json:"extract" yaml:"extract"`

	// Query holds query engine parameters
	Query QueryConfig `json:"query" yaml:"query"`

	// Storage holds container storage configuration
	Storage StorageConfig `json:"storage" yaml:"storage"`
}

// ExtractConfig holds template extraction parameters.
type ExtractConfig struct {
	// MinSupport is the minimum group size to emit a template (lines in
	// smaller groups fall to the UNMATCHED template)
	MinSupport int `json:"min_support" yaml:"min_support"`

	// SimilarityThreshold is the fraction of a group's lines that must
	// agree on a token value for the position to stay literal
	SimilarityThreshold float64 `json:"similarity_threshold" yaml:"similarity_threshold"`

	// MaxExampleLines bounds the example lines kept per template
	MaxExampleLines int `json:"max_example_lines" yaml:"max_example_lines"`
}

// QueryConfig holds query engine parameters.
type QueryConfig struct {
	// BloomBitsPerValue sizes the per-column bloom filters
	BloomBitsPerValue int `json:"bloom_bits_per_value" yaml:"bloom_bits_per_value"`

	// MaxResultLogs caps the reconstructed lines returned per query
	// (0 means unlimited)
	MaxResultLogs int `json:"max_result_logs" yaml:"max_result_logs"`
}

// StorageConfig holds container storage configuration.
type StorageConfig struct {
	// Type is the storage type: local, s3
	Type string `json:"type" yaml:"type"`

	// Path is the local storage path (for local type)
	Path string `json:"path" yaml:"path"`

	// S3 configuration (for s3 type)
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 storage configuration.
type S3Config struct {
	// Bucket is the S3 bucket name
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

// DefaultConfig returns the default configuration for local use.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data/logpress",
		Extract: ExtractConfig{
			MinSupport:          3,
			SimilarityThreshold: 0.8,
			MaxExampleLines:     5,
		},
		Query: QueryConfig{
			BloomBitsPerValue: 10,
			MaxResultLogs:     0,
		},
		Storage: StorageConfig{
			Type: "local",
			Path: "",
		},
	}
}

// Resolve resolves relative paths and sets defaults based on DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/logpress"
	}

	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(c.DataDir, "containers")
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.Extract.MinSupport < 1 {
		return fmt.Errorf("extract.min_support must be >= 1, got %d", c.Extract.MinSupport)
	}

	if c.Extract.SimilarityThreshold <= 0 || c.Extract.SimilarityThreshold > 1 {
		return fmt.Errorf("extract.similarity_threshold must be in (0, 1], got %g", c.Extract.SimilarityThreshold)
	}

	if c.Extract.MaxExampleLines < 0 {
		return fmt.Errorf("extract.max_example_lines must be >= 0, got %d", c.Extract.MaxExampleLines)
	}

	if c.Storage.Type != "local" && c.Storage.Type != "s3" {
		return fmt.Errorf("invalid storage type: %s (must be local or s3)", c.Storage.Type)
	}

	if c.Storage.Type == "s3" && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required when storage type is s3")
	}

	return nil
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the LOGPRESS_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("LOGPRESS_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	// Extraction parameters
	if v := os.Getenv("LOGPRESS_MIN_SUPPORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Extract.MinSupport = n
		}
	}
	if v := os.Getenv("LOGPRESS_SIMILARITY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Extract.SimilarityThreshold = f
		}
	}
	if v := os.Getenv("LOGPRESS_MAX_EXAMPLE_LINES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Extract.MaxExampleLines = n
		}
	}

	// Query parameters
	if v := os.Getenv("LOGPRESS_MAX_RESULT_LOGS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Query.MaxResultLogs = n
		}
	}

	// Storage configuration
	if v := os.Getenv("LOGPRESS_STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("LOGPRESS_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("LOGPRESS_S3_BUCKET"); v != "" {
		cfg.Storage.S3.Bucket = v
	}
	if v := os.Getenv("LOGPRESS_S3_REGION"); v != "" {
		cfg.Storage.S3.Region = v
	}
	if v := os.Getenv("LOGPRESS_S3_ENDPOINT"); v != "" {
		cfg.Storage.S3.Endpoint = v
	}
}

// EnsureDirectories creates all required local directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.DataDir}
	if c.Storage.Type == "local" {
		dirs = append(dirs, c.Storage.Path)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
