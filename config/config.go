// Package config loads the application configuration from a JSON file and
// fills in defaults for anything the file leaves out.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"time"
)

// Config holds the full application configuration.
type Config struct {
	ServerAddr   string     `json:"server_addr,omitempty"`
	DatabasePath string     `json:"database_path,omitempty"`
	OutputDir    string     `json:"output_dir,omitempty"`
	AuthSecret   string     `json:"auth_secret"`
	LLM          *LLMConfig `json:"llm,omitempty"`
}

// LLMConfig configures the generation model. BaseURL points at any
// OpenAI-compatible endpoint; the default is a local Ollama instance.
type LLMConfig struct {
	Provider       string `json:"provider,omitempty"`
	Model          string `json:"model,omitempty"`
	APIKey         string `json:"api_key,omitempty"`
	BaseURL        string `json:"base_url,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

const (
	DefaultServerAddr   = ":8080"
	DefaultDatabasePath = "users.db"
	DefaultOutputDir    = "outputs"
	DefaultModel        = "llama3"
	DefaultBaseURL      = "http://localhost:11434/v1"
	DefaultTimeout      = 300 * time.Second
)

// Load reads and validates the config file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	if cfg.AuthSecret == "" {
		return Config{}, errors.New("config must include auth_secret")
	}
	return cfg, nil
}

// Default returns a configuration suitable for the one-shot CLI mode,
// where no auth secret is required.
func Default() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.ServerAddr == "" {
		c.ServerAddr = DefaultServerAddr
	}
	if c.DatabasePath == "" {
		c.DatabasePath = DefaultDatabasePath
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.LLM == nil {
		c.LLM = &LLMConfig{}
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "ollama"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = DefaultModel
	}
	if c.LLM.BaseURL == "" && c.LLM.Provider == "ollama" {
		c.LLM.BaseURL = DefaultBaseURL
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = int(DefaultTimeout / time.Second)
	}
}

// Timeout returns the model call timeout as a duration.
func (c *Config) Timeout() time.Duration {
	if c.LLM == nil || c.LLM.TimeoutSeconds <= 0 {
		return DefaultTimeout
	}
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}
