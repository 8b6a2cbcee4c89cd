package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAddr            = "127.0.0.1:5000"
	DefaultMaxUploadMB     = 64
	DefaultUploadDir       = "uploads"
	DefaultDBDriver        = "sqlite"
	DefaultDBDSN           = "chat_history.db"
	DefaultLLMProvider     = "http"
	DefaultLLMBaseURL      = "https://api.ai21.com/studio/v1"
	DefaultLLMModel        = "jamba-large"
	DefaultMaxTokens       = 2000
	DefaultAPIKeyEnv       = "AI21_API_KEY"
	DefaultMinTextLen      = 200
	DefaultMaxContextChars = 8000
	DefaultLogLevel        = "debug"
	DefaultLogFormat       = "console"

	envAddr  = "DOC_CHAT_ADDR"
	envDBDSN = "DOC_CHAT_DB_DSN"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Extract  ExtractConfig  `yaml:"extract"`
	Prompt   PromptConfig   `yaml:"prompt"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MaxUploadMB int64  `yaml:"max_upload_mb"`
	UploadDir   string `yaml:"upload_dir"`
	KeepUploads bool   `yaml:"keep_uploads"`
}

// MaxUploadBytes is the request body limit for /upload_pdf.
func (s ServerConfig) MaxUploadBytes() int64 {
	return s.MaxUploadMB << 20
}

type DatabaseConfig struct {
	// Driver is one of sqlite, postgres (bun pgdriver) or pq (lib/pq).
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Debug  bool   `yaml:"debug"`
}

type LLMConfig struct {
	// Provider is one of http, langchain or ollama.
	Provider  string        `yaml:"provider"`
	BaseURL   string        `yaml:"base_url"`
	Model     string        `yaml:"model"`
	MaxTokens int           `yaml:"max_tokens"`
	Key       string        `yaml:"api_key"`
	KeyEnv    string        `yaml:"api_key_env"`
	Timeout   time.Duration `yaml:"timeout"`
	Stream    bool          `yaml:"stream"`
}

type ExtractConfig struct {
	MinTextLen      int `yaml:"min_text_len"`
	MaxContextChars int `yaml:"max_context_chars"`
}

type PromptConfig struct {
	SystemMessage string `yaml:"system_message"`
	UserTemplate  string `yaml:"user_template"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a config populated with the built-in defaults.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads the YAML file at path, fills unset fields with defaults and
// applies environment overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.MaxUploadMB <= 0 {
		c.Server.MaxUploadMB = DefaultMaxUploadMB
	}
	if c.Server.UploadDir == "" {
		c.Server.UploadDir = DefaultUploadDir
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DefaultDBDriver
	}
	if c.Database.DSN == "" && c.Database.Driver == DefaultDBDriver {
		c.Database.DSN = DefaultDBDSN
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = DefaultLLMProvider
	}
	if c.LLM.BaseURL == "" && c.LLM.Provider != "ollama" {
		c.LLM.BaseURL = DefaultLLMBaseURL
	}
	if c.LLM.Model == "" {
		c.LLM.Model = DefaultLLMModel
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = DefaultMaxTokens
	}
	if c.LLM.KeyEnv == "" {
		c.LLM.KeyEnv = DefaultAPIKeyEnv
	}
	if c.Extract.MinTextLen <= 0 {
		c.Extract.MinTextLen = DefaultMinTextLen
	}
	if c.Extract.MaxContextChars <= 0 {
		c.Extract.MaxContextChars = DefaultMaxContextChars
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(c.LLM.KeyEnv)); v != "" {
		c.LLM.Key = v
	}
	if v := os.Getenv(envAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(envDBDSN); v != "" {
		c.Database.DSN = v
	}
	c.LLM.Key = strings.TrimSpace(c.LLM.Key)
}

// Validate checks the invariants the rest of the program relies on.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres", "pq":
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn is required for driver %q", c.Database.Driver)
	}
	switch c.LLM.Provider {
	case "http", "langchain", "ollama":
	default:
		return fmt.Errorf("unsupported llm provider: %q", c.LLM.Provider)
	}
	if c.LLM.Timeout < 0 {
		return fmt.Errorf("llm timeout must not be negative")
	}
	if t := c.Prompt.UserTemplate; t != "" && !validTemplate(t) {
		return fmt.Errorf("prompt user_template must contain exactly one %%s placeholder and no other verbs")
	}
	return nil
}

// validTemplate renders t the way the prompt assembler does; fmt reports
// missing, extra or mismatched arguments inline as %!.
func validTemplate(t string) bool {
	const marker = "\x00context\x00"
	out := fmt.Sprintf(t, marker)
	return strings.Count(out, marker) == 1 && !strings.Contains(out, "%!")
}
