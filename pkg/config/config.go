// Package config loads the process-wide configuration once at startup.
// Request-handling code never reads the environment; credentials travel
// inside the Config value handed to constructors.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/agentctl/agentctl/pkg/store"
)

// Config holds the complete agentctl configuration (YAML format)
type Config struct {
	Store   store.Config  `yaml:"store" json:"store"`
	LLM     LLMConfig     `yaml:"llm" json:"llm"`
	Mail    MailConfig    `yaml:"mail" json:"mail"`
	Events  EventsConfig  `yaml:"events" json:"events"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// LLMConfig holds provider credentials and endpoints. Keys are loaded
// from the environment exactly once, in Load.
type LLMConfig struct {
	OpenAIAPIKey      string `yaml:"openai_api_key" json:"openai_api_key"`
	OpenAIBaseURL     string `yaml:"openai_base_url" json:"openai_base_url"`
	OpenRouterAPIKey  string `yaml:"openrouter_api_key" json:"openrouter_api_key"`
	OpenRouterBaseURL string `yaml:"openrouter_base_url" json:"openrouter_base_url"`
	DefaultProvider   string `yaml:"default_provider" json:"default_provider"`
	DefaultModel      string `yaml:"default_model" json:"default_model"`
}

// MailConfig holds Gmail credential locations
type MailConfig struct {
	CredentialsPath string `yaml:"credentials_path" json:"credentials_path"`
	TokenPath       string `yaml:"token_path" json:"token_path"`
}

// EventsConfig holds the optional Kafka run-event emitter settings
type EventsConfig struct {
	Enabled bool     `yaml:"enabled" json:"enabled"`
	Brokers []string `yaml:"brokers" json:"brokers"`
	Topic   string   `yaml:"topic" json:"topic"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // json, text
}

// Default returns the default configuration
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".agentctl")

	return Config{
		Store: store.Config{
			Backend: "file",
			Dir:     filepath.Join(base, "agents"),
			Redis: store.RedisConfig{
				Address:   "localhost:6379",
				KeyPrefix: "agentctl:agents:",
			},
		},
		LLM: LLMConfig{
			DefaultProvider: "openai",
			DefaultModel:    "gpt-4o-mini",
		},
		Mail: MailConfig{
			CredentialsPath: filepath.Join(base, "gmail_credentials.json"),
			TokenPath:       filepath.Join(base, "gmail_token.json"),
		},
		Events: EventsConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "agentctl.runs",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// GlobalConfigPath returns the path to the global config file
func GlobalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".agentctl", "config.yaml")
}

// Load reads configuration from the given YAML file (defaults merged
// underneath) and applies environment overrides. An empty path loads
// the global config file if present.
func Load(path string) (*Config, error) {
	config := Default()

	if path == "" {
		path = GlobalConfigPath()
	}
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	applyEnvOverrides(&config)
	return &config, nil
}

// applyEnvOverrides reads the credential and plumbing variables once.
func applyEnvOverrides(config *Config) {
	config.LLM.OpenAIAPIKey = GetEnv("OPENAI_API_KEY", config.LLM.OpenAIAPIKey)
	config.LLM.OpenRouterAPIKey = GetEnv("OPENROUTER_API_KEY", config.LLM.OpenRouterAPIKey)
	config.LLM.OpenAIBaseURL = GetEnv("AGENTCTL_OPENAI_BASE_URL", config.LLM.OpenAIBaseURL)
	config.LLM.OpenRouterBaseURL = GetEnv("AGENTCTL_OPENROUTER_BASE_URL", config.LLM.OpenRouterBaseURL)
	config.Store.Backend = GetEnv("AGENTCTL_STORE_BACKEND", config.Store.Backend)
	config.Store.Dir = GetEnv("AGENTCTL_STORE_DIR", config.Store.Dir)
	config.Store.Redis.Address = GetEnv("AGENTCTL_REDIS_ADDR", config.Store.Redis.Address)
	config.Logging.Level = GetEnv("AGENTCTL_LOG_LEVEL", config.Logging.Level)
	config.Logging.Format = GetEnv("AGENTCTL_LOG_FORMAT", config.Logging.Format)
}

// GetEnv retrieves environment variable with a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt retrieves environment variable as int with a default value
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetEnvBool retrieves environment variable as bool with a default value
func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
