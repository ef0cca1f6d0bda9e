// Package config loads the agent configuration: defaults, then an optional
// YAML file, then environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full agent configuration.
type Config struct {
	Agent     AgentConfig     `yaml:"agent"`
	LLM       LLMConfig       `yaml:"llm"`
	Browser   BrowserConfig   `yaml:"browser"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Log       LogConfig       `yaml:"log"`
}

// AgentConfig tunes the round loop.
type AgentConfig struct {
	MaxRounds     int    `yaml:"max_rounds"`
	HistoryWindow int    `yaml:"history_window"`
	StartURL      string `yaml:"start_url"`
}

// LLMConfig configures the vision model provider.
type LLMConfig struct {
	BaseURL        string  `yaml:"base_url"`
	APIKey         string  `yaml:"api_key"`
	Model          string  `yaml:"model"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float32 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// Timeout returns the request timeout as a duration.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// BrowserConfig configures the Chrome instance.
type BrowserConfig struct {
	Headless       bool   `yaml:"headless"`
	ViewportWidth  int    `yaml:"viewport_width"`
	ViewportHeight int    `yaml:"viewport_height"`
	UserAgent      string `yaml:"user_agent"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the browser lifetime limit, zero meaning none.
func (c BrowserConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ArtifactsConfig locates the artifacts root.
type ArtifactsConfig struct {
	Dir string `yaml:"dir"`
}

// MetricsConfig configures the prometheus scrape listener. An empty Addr
// disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Agent: AgentConfig{
			MaxRounds:     20,
			HistoryWindow: 12,
		},
		LLM: LLMConfig{
			BaseURL:        "https://api.openai.com/v1",
			Model:          "gpt-4o",
			MaxTokens:      2048,
			Temperature:    0.2,
			TimeoutSeconds: 120,
		},
		Browser: BrowserConfig{
			Headless:       true,
			ViewportWidth:  1280,
			ViewportHeight: 900,
		},
		Artifacts: ArtifactsConfig{Dir: "artifacts"},
		Log:       LogConfig{Level: "info"},
	}
}

// Load builds the configuration from defaults, the YAML file at path when it
// exists, and environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	envStr("VISIONAGENT_LLM_BASE_URL", &cfg.LLM.BaseURL)
	envStr("VISIONAGENT_LLM_API_KEY", &cfg.LLM.APIKey)
	envStr("OPENAI_API_KEY", &cfg.LLM.APIKey)
	envStr("VISIONAGENT_LLM_MODEL", &cfg.LLM.Model)
	envInt("VISIONAGENT_MAX_ROUNDS", &cfg.Agent.MaxRounds)
	envStr("VISIONAGENT_START_URL", &cfg.Agent.StartURL)
	envBool("VISIONAGENT_HEADLESS", &cfg.Browser.Headless)
	envStr("VISIONAGENT_ARTIFACTS_DIR", &cfg.Artifacts.Dir)
	envStr("VISIONAGENT_METRICS_ADDR", &cfg.Metrics.Addr)
	envStr("VISIONAGENT_LOG_LEVEL", &cfg.Log.Level)
}

func envStr(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// Validate rejects configurations the agent cannot run with.
func (c *Config) Validate() error {
	if c.Agent.MaxRounds <= 0 {
		return fmt.Errorf("agent.max_rounds must be positive, got %d", c.Agent.MaxRounds)
	}
	if c.LLM.BaseURL == "" {
		return fmt.Errorf("llm.base_url is required")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if c.Artifacts.Dir == "" {
		return fmt.Errorf("artifacts.dir is required")
	}
	return nil
}
