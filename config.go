package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Model       string        `yaml:"model" toml:"model"`
	Temperature float64       `yaml:"temperature" toml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens" toml:"max_tokens"`
	Endpoint    string        `yaml:"endpoint" toml:"endpoint"`
	Output      string        `yaml:"output" toml:"output"`
	Timeout     time.Duration `yaml:"timeout" toml:"timeout"`
	Prompts     []string      `yaml:"prompts" toml:"prompts"`
	History     bool          `yaml:"history" toml:"history"`
	HistoryDir  string        `yaml:"history_dir" toml:"history_dir"`

	// APIKey is only ever read from the environment.
	APIKey string `yaml:"-" toml:"-"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Model:       "gpt-3.5-turbo",
		Temperature: 0.7,
		MaxTokens:   100,
		Endpoint:    DefaultAPIEndpoints().OpenAI,
		Output:      DefaultOutputFile,
	}
}

// APIEndpoints holds API endpoint configurations
type APIEndpoints struct {
	OpenAI string
}

// DefaultAPIEndpoints returns the default API endpoints
func DefaultAPIEndpoints() *APIEndpoints {
	return &APIEndpoints{
		OpenAI: "https://api.openai.com/v1/chat/completions",
	}
}

// Constants for the application
const (
	AppName           = "qd"
	AppHistoryDir     = "qd"
	DefaultConfigFile = "qd.yaml"
	DefaultEnvFile    = ".env"
	DefaultOutputFile = "answer.txt"
)

// Environment variable names
const (
	EnvOpenAIKey = "OPENAI_API_KEY"
	EnvEndpoint  = "QD_ENDPOINT"
	EnvOutput    = "QD_OUTPUT"
	EnvModel     = "QD_MODEL"
)

// ErrMissingAPIKey is returned when no API key is configured.
var ErrMissingAPIKey = fmt.Errorf("%s environment variable not set", EnvOpenAIKey)

// loadEnvFile loads KEY=VALUE pairs from path without overriding variables
// already present in the environment. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// loadConfigFile decodes path over cfg. When explicit is false a missing
// file is silently skipped.
func loadConfigFile(cfg *Config, path string, explicit bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("failed to decode %s: %w", path, err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to decode %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file type %q", filepath.Ext(path))
	}
	return nil
}

// applyEnv overlays environment variables onto cfg.
func applyEnv(cfg *Config) {
	cfg.APIKey = strings.TrimSpace(os.Getenv(EnvOpenAIKey))
	if v := os.Getenv(EnvEndpoint); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv(EnvOutput); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv(EnvModel); v != "" {
		cfg.Model = v
	}
}

// LoadConfig builds the configuration from defaults, the config file and
// the environment. configPath may be empty, in which case DefaultConfigFile
// is tried.
func LoadConfig(configPath, envFile string) (*Config, error) {
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	explicit := configPath != ""
	if !explicit {
		configPath = DefaultConfigFile
	}
	if err := loadConfigFile(cfg, configPath, explicit); err != nil {
		return nil, err
	}
	applyEnv(cfg)
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.APIKey == "":
		return ErrMissingAPIKey
	case c.Endpoint == "":
		return errors.New("endpoint must not be empty")
	case c.Model == "":
		return errors.New("model must not be empty")
	case c.Output == "":
		return errors.New("output path must not be empty")
	case c.Temperature < 0 || c.Temperature > 2:
		return fmt.Errorf("temperature %v out of range [0, 2]", c.Temperature)
	case c.MaxTokens <= 0:
		return fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens)
	case c.Timeout < 0:
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if _, err := c.Catalog(); err != nil {
		return err
	}
	return nil
}

// Catalog returns the configured prompt catalog, or the built-in one.
func (c *Config) Catalog() (Catalog, error) {
	if c.Prompts == nil {
		return DefaultCatalog(), nil
	}
	return NewCatalog(c.Prompts)
}
