package config

import (
	"fmt"
	"time"
)

// Config holds leggiclip configuration.
type Config struct {
	Server       ServerCfg                 `mapstructure:"server" yaml:"server"`
	LLMProviders map[string]LLMProviderCfg `mapstructure:"llm_providers" yaml:"llm_providers"`
	Defaults     DefaultsCfg               `mapstructure:"defaults" yaml:"defaults"`
	Pexels       PexelsCfg                 `mapstructure:"pexels" yaml:"pexels"`
	HeyGen       HeyGenCfg                 `mapstructure:"heygen" yaml:"heygen"`
	Upload       UploadCfg                 `mapstructure:"upload" yaml:"upload"`
	Media        MediaCfg                  `mapstructure:"media" yaml:"media"`
	Store        StoreCfg                  `mapstructure:"store" yaml:"store"`
}

// ServerCfg configures the HTTP server.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// LLMProviderCfg configures an LLM provider.
type LLMProviderCfg struct {
	Type        string  `mapstructure:"type" yaml:"type"`       // "openai"
	Model       string  `mapstructure:"model" yaml:"model"`     // Model name
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"` // API key (supports ${ENV_VAR} syntax)
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Enabled     bool    `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultsCfg specifies pipeline defaults.
type DefaultsCfg struct {
	LLMProvider         string `mapstructure:"llm_provider" yaml:"llm_provider"`
	NumItems            int    `mapstructure:"num_items" yaml:"num_items"`
	PollIntervalSeconds int    `mapstructure:"poll_interval_seconds" yaml:"poll_interval_seconds"`
	MaxPollRounds       int    `mapstructure:"max_poll_rounds" yaml:"max_poll_rounds"`
}

// PexelsCfg configures stock footage search.
type PexelsCfg struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key"` // supports ${ENV_VAR} syntax
}

// HeyGenCfg configures the avatar rendering provider.
type HeyGenCfg struct {
	APIKey     string `mapstructure:"api_key" yaml:"api_key"` // supports ${ENV_VAR} syntax
	TemplateID string `mapstructure:"template_id" yaml:"template_id"`
	BaseURL    string `mapstructure:"base_url" yaml:"base_url"`
}

// UploadCfg configures asset uploads.
type UploadCfg struct {
	URL       string `mapstructure:"url" yaml:"url"`
	AuthToken string `mapstructure:"auth_token" yaml:"auth_token"` // supports ${ENV_VAR} syntax
}

// MediaCfg configures footage caching and video assembly.
type MediaCfg struct {
	CacheDir       string  `mapstructure:"cache_dir" yaml:"cache_dir"`
	WorkDir        string  `mapstructure:"work_dir" yaml:"work_dir"`
	SegmentSeconds float64 `mapstructure:"segment_seconds" yaml:"segment_seconds"`
}

// StoreCfg configures the video history database.
type StoreCfg struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerCfg{
			Host: "0.0.0.0",
			Port: 8080,
		},
		LLMProviders: map[string]LLMProviderCfg{
			"openai": {
				Type:        "openai",
				Model:       "gpt-4o",
				APIKey:      "${OPENAI_API_KEY}",
				Temperature: 0.7,
				Enabled:     true,
			},
		},
		Defaults: DefaultsCfg{
			LLMProvider:         "openai",
			NumItems:            1,
			PollIntervalSeconds: 5,
			MaxPollRounds:       120,
		},
		Pexels: PexelsCfg{
			APIKey: "${PEXELS_API_KEY}",
		},
		HeyGen: HeyGenCfg{
			APIKey: "${HEYGEN_API_KEY}",
		},
		Media: MediaCfg{
			CacheDir:       "cache/footage",
			WorkDir:        "work",
			SegmentSeconds: 2,
		},
		Store: StoreCfg{
			Path: "data/history.db",
		},
	}
}

// GetLLMProvider returns an LLM provider config by name.
func (c *Config) GetLLMProvider(name string) (LLMProviderCfg, bool) {
	cfg, ok := c.LLMProviders[name]
	return cfg, ok
}

// EnabledLLMProviders returns all enabled LLM providers.
func (c *Config) EnabledLLMProviders() map[string]LLMProviderCfg {
	result := make(map[string]LLMProviderCfg)
	for name, cfg := range c.LLMProviders {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}

// PollInterval returns the render poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	if c.Defaults.PollIntervalSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Defaults.PollIntervalSeconds) * time.Second
}

// ListenAddr returns the host:port address for the HTTP server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
