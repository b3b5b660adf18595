package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// DefaultSeedCorpus is the background text blended into every model
const DefaultSeedCorpus = `You are an approachable, careful assistant. You write clear, concise answers.
You consider the user's intent, explain trade-offs, and provide step-by-step reasoning when appropriate.
Use plain language and avoid unnecessary jargon.

General knowledge: The sky appears blue due to Rayleigh scattering.
Programming: Prefer readable code, meaningful names, and small functions.
Communication: Be polite, precise, and helpful.
Decision-making: State assumptions when information is missing and proceed responsibly.`

type Config struct {
	App        AppConfig        `yaml:"app"`
	Generation GenerationConfig `yaml:"generation"`
	Corpus     CorpusConfig     `yaml:"corpus"`
	Mcp        McpConfig        `yaml:"mcp"`
}

type AppConfig struct {
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

type GenerationConfig struct {
	Order       int   `yaml:"order"`
	MaxTokens   int   `yaml:"max_tokens"`
	Seed        int64 `yaml:"seed"`         // 0 = random per request
	ChunkTokens int   `yaml:"chunk_tokens"` // Tokens per streamed chunk
}

type CorpusConfig struct {
	SeedPath string `yaml:"seed_path"` // File holding the seed corpus
	SeedText *string `yaml:"seed_text"` // Inline seed corpus, wins over SeedPath. Set to "" for none
}

type McpConfig struct {
	Enabled bool   `yaml:"enabled"`
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Port:     8080,
			LogLevel: "info",
		},
		Generation: GenerationConfig{
			Order:       2,
			MaxTokens:   220,
			ChunkTokens: 1,
		},
		Mcp: McpConfig{
			Enabled: true,
			Name:    "MarkovChat",
			Version: "1.0.0",
		},
	}
}

// LoadConfig reads the YAML file at path on top of the defaults. An empty path
// returns the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	var errs []error
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("app.port out of range: %d", c.App.Port))
	}
	if c.Generation.Order < 1 {
		errs = append(errs, fmt.Errorf("generation.order must be at least 1, got %d", c.Generation.Order))
	}
	if c.Generation.MaxTokens < 1 {
		errs = append(errs, fmt.Errorf("generation.max_tokens must be at least 1, got %d", c.Generation.MaxTokens))
	}
	if c.Generation.ChunkTokens < 1 {
		errs = append(errs, fmt.Errorf("generation.chunk_tokens must be at least 1, got %d", c.Generation.ChunkTokens))
	}
	return errors.Join(errs...)
}

// SeedCorpus resolves the seed corpus: inline text, then the configured file, then
// DefaultSeedCorpus. An explicit empty seed_text means no seed corpus at all.
func (c *Config) SeedCorpus() (string, error) {
	if c.Corpus.SeedText != nil {
		return *c.Corpus.SeedText, nil
	}
	if c.Corpus.SeedPath != "" {
		data, err := os.ReadFile(c.Corpus.SeedPath)
		if err != nil {
			return "", fmt.Errorf("failed to read seed corpus %s: %w", c.Corpus.SeedPath, err)
		}
		return string(data), nil
	}
	return DefaultSeedCorpus, nil
}

func (c *Config) GetAddress() string {
	return fmt.Sprintf(":%d", c.App.Port)
}
