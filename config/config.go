// Package config loads daemon configuration from a YAML file layered over
// defaults, with environment-variable overrides applied last.
package config

import (
	"fmt"
	"os"

	"dario.cat/mergo"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// envPrefix is the prefix for environment overrides, e.g.
// COMPANIOND_LLM_PROVIDER or COMPANIOND_MEMORY_BASEURL.
const envPrefix = "companiond"

// ServerConfig configures the HTTP API listener.
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" envconfig:"HTTP_ADDR"`
}

// LLMConfig selects the generation provider and bounds each completion call.
type LLMConfig struct {
	Provider       string `yaml:"provider"` // "openai", "anthropic", or "ollama"
	Model          string `yaml:"model"`
	MaxTokens      int64  `yaml:"max_tokens"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// OpenAIConfig configures the OpenAI provider.
type OpenAIConfig struct {
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	Organization string `yaml:"organization"`
}

// AnthropicConfig configures the Anthropic provider.
type AnthropicConfig struct {
	APIKey string `yaml:"api_key"`
}

// OllamaConfig configures the Ollama provider.
type OllamaConfig struct {
	Host string `yaml:"host"`
}

// MemoryConfig points at the external semantic-memory service.
type MemoryConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// WorkersConfig sizes the background extraction pool.
type WorkersConfig struct {
	Count     int `yaml:"count"`
	QueueSize int `yaml:"queue_size"`
}

// Config is the full daemon configuration.
type Config struct {
	Server     ServerConfig    `yaml:"server"`
	LLM        LLMConfig       `yaml:"llm"`
	OpenAI     OpenAIConfig    `yaml:"openai"`
	Anthropic  AnthropicConfig `yaml:"anthropic"`
	Ollama     OllamaConfig    `yaml:"ollama"`
	Memory     MemoryConfig    `yaml:"memory"`
	Workers    WorkersConfig   `yaml:"workers"`
	Database   string          `yaml:"database"`
	Migrations string          `yaml:"migrations"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			HTTPAddr: ":8080",
		},
		LLM: LLMConfig{
			Provider:       "openai",
			Model:          "gpt-4o-mini",
			MaxTokens:      1024,
			TimeoutSeconds: 120,
		},
		Ollama: OllamaConfig{
			Host: "http://localhost:11434",
		},
		Memory: MemoryConfig{
			BaseURL:        "http://localhost:8000",
			TimeoutSeconds: 5,
		},
		Workers: WorkersConfig{
			Count:     4,
			QueueSize: 64,
		},
		Database:   "companiond.db",
		Migrations: "migrations",
	}
}

// Load reads the YAML file at path (if it exists), merges it over defaults,
// then applies COMPANIOND_* environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // G304: user-specified config path is intentional
		switch {
		case os.IsNotExist(err):
			// Missing config file is fine; defaults plus env apply.
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			var fileCfg Config
			if err := yaml.Unmarshal(data, &fileCfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
			if err := mergo.Merge(&cfg, fileCfg, mergo.WithOverride); err != nil {
				return nil, fmt.Errorf("merge config: %w", err)
			}
		}
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("apply env overrides: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.LLM.Provider {
	case "openai", "anthropic", "ollama":
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm model is required")
	}
	return nil
}
