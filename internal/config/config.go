package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	DefaultDeployment      = "gpt-4o"
	DefaultAPIVersion      = "2024-10-21"
	DefaultVideoAPIVersion = "preview"
	DefaultVideoDeployment = "sora"
	DefaultSystemPrompt    = "You are a helpful assistant."
	DefaultMaxTokens       = 100
	DefaultLogLevel        = "warn"

	maxTokensLimit   = 8192
	videoJobsSegment = "/video/generations/jobs"
)

type Config struct {
	Azure AzureConfig `mapstructure:"azure"`
	Chat  ChatConfig  `mapstructure:"chat"`
	Video VideoConfig `mapstructure:"video"`
	Log   LogConfig   `mapstructure:"log"`
}

type AzureConfig struct {
	Endpoint   string `mapstructure:"endpoint"`
	APIKey     string `mapstructure:"api_key"`
	APIVersion string `mapstructure:"api_version"`
	Deployment string `mapstructure:"deployment"`
}

type ChatConfig struct {
	System      string   `mapstructure:"system"`
	Context     string   `mapstructure:"context"`
	MaxTokens   int      `mapstructure:"max_tokens"`
	Temperature *float64 `mapstructure:"temperature"`
	TopP        *float64 `mapstructure:"top_p"`
}

type VideoConfig struct {
	APIVersion string `mapstructure:"api_version"`
	Deployment string `mapstructure:"deployment"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// envBindings maps config keys onto the variables the Azure OpenAI
// quickstarts put in a .env file.
var envBindings = map[string]string{
	"azure.endpoint":    "AZURE_OPENAI_ENDPOINT",
	"azure.api_key":     "AZURE_OPENAI_API_KEY",
	"azure.api_version": "AZURE_OPENAI_API_VERSION",
	"azure.deployment":  "AZURE_OPENAI_DEPLOYMENT_NAME",
	"video.api_version": "AZURE_OPENAI_VIDEO_API_VERSION",
	"video.deployment":  "AZURE_OPENAI_VIDEO_DEPLOYMENT_NAME",
	"chat.system":       "AZURE_PROMPT_CHAT_SYSTEM",
	"chat.context":      "AZURE_PROMPT_CHAT_CONTEXT",
	"chat.max_tokens":   "AZURE_PROMPT_CHAT_MAX_TOKENS",
	"chat.temperature":  "AZURE_PROMPT_CHAT_TEMPERATURE",
	"chat.top_p":        "AZURE_PROMPT_CHAT_TOP_P",
	"log.level":         "AZURE_PROMPT_LOG_LEVEL",
}

// Bind registers defaults and environment variable names on v.
func Bind(v *viper.Viper) {
	v.SetDefault("azure.api_version", DefaultAPIVersion)
	v.SetDefault("azure.deployment", DefaultDeployment)
	v.SetDefault("video.api_version", DefaultVideoAPIVersion)
	v.SetDefault("video.deployment", DefaultVideoDeployment)
	v.SetDefault("chat.system", DefaultSystemPrompt)
	v.SetDefault("chat.max_tokens", DefaultMaxTokens)
	v.SetDefault("log.level", DefaultLogLevel)

	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
}

func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.Azure.Endpoint = strings.TrimSpace(cfg.Azure.Endpoint)
	cfg.Azure.APIKey = strings.TrimSpace(cfg.Azure.APIKey)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Azure.Endpoint != "" {
		u, err := url.Parse(c.Azure.Endpoint)
		if err != nil {
			return fmt.Errorf("invalid azure.endpoint: %w", err)
		}
		if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			return fmt.Errorf("invalid azure.endpoint: %q is not an absolute http(s) url", c.Azure.Endpoint)
		}
	}
	if c.Chat.MaxTokens < 1 || c.Chat.MaxTokens > maxTokensLimit {
		return fmt.Errorf("invalid chat.max_tokens: %d (must be between 1 and %d)", c.Chat.MaxTokens, maxTokensLimit)
	}
	if t := c.Chat.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("invalid chat.temperature: %g (must be between 0 and 2)", *t)
	}
	if p := c.Chat.TopP; p != nil && (*p <= 0 || *p > 1) {
		return fmt.Errorf("invalid chat.top_p: %g (must be in (0, 1])", *p)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level: %s", c.Log.Level)
	}
	return nil
}

// IsVideoJobsEndpoint reports whether the endpoint targets the video jobs
// API, which cannot serve chat completions.
func (a AzureConfig) IsVideoJobsEndpoint() bool {
	return strings.Contains(a.Endpoint, videoJobsSegment)
}
