package config

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// IndexConfig describes the vector index. Dimension and Metric must match
// between index creation and query time or similarity scores are meaningless,
// so both ingest and query paths read them from the same place.
type IndexConfig struct {
	Name      string `yaml:"name"`
	Dimension int    `yaml:"dimension"`
	Metric    string `yaml:"metric"`
}

// EmbeddingConfig configures the remote embedding model.
type EmbeddingConfig struct {
	Model     string `yaml:"model"`
	BatchSize int    `yaml:"batch_size"`
}

// AgentConfig configures the reasoning model behind both agents.
type AgentConfig struct {
	Model string `yaml:"model"`
}

// Config is the root application configuration. Values come from an optional
// config.yaml, with environment variables overriding the secrets and the
// index name.
type Config struct {
	Port      string          `yaml:"port"`
	DataDir   string          `yaml:"data_dir"`
	WatchDir  bool            `yaml:"watch_dir"`
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Agent     AgentConfig     `yaml:"agent"`

	GeminiAPIKey string `yaml:"-"`
	ChromaURL    string `yaml:"-"`
}

// Defaults mirror the reference deployment: 768-dim dot-product index over
// Gemini text-embedding-004.
func defaults() Config {
	return Config{
		Port:    "8080",
		DataDir: "data",
		Index: IndexConfig{
			Name:      "apparel-compliance-index",
			Dimension: 768,
			Metric:    "ip",
		},
		Embedding: EmbeddingConfig{
			Model:     "text-embedding-004",
			BatchSize: 32,
		},
		Agent: AgentConfig{
			Model: "gemini-2.0-flash",
		},
	}
}

// Load reads configuration from the given YAML path (missing file is fine;
// defaults apply) and then overlays environment variables. A .env file in the
// working directory is honored the same way the rest of the stack does it.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}

	cfg := defaults()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Run entirely on defaults + env.
	case err != nil:
		return Config{}, fmt.Errorf("could not read config file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("could not parse config file %s: %w", path, err)
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("COMPLIANCE_INDEX"); v != "" {
		cfg.Index.Name = v
	}
	if v := os.Getenv("COMPLIANCE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.ChromaURL = os.Getenv("CHROMA_URL")

	if cfg.Index.Dimension <= 0 {
		return Config{}, fmt.Errorf("index dimension must be positive, got %d", cfg.Index.Dimension)
	}
	if cfg.Embedding.BatchSize <= 0 {
		return Config{}, fmt.Errorf("embedding batch size must be positive, got %d", cfg.Embedding.BatchSize)
	}
	return cfg, nil
}
