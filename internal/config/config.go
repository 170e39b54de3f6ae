// Package config provides configuration loading and validation for the matcher.
//
// Values come from defaults, an optional config file (JSON or YAML), and the
// environment. Environment variables use the MATCHER_ prefix with dots replaced by
// underscores (MATCHER_LLM_PROVIDER); DATABASE_URL, GEMINI_API_KEY and RABBITMQ_URL
// are honored as well.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jonathan/internship-matcher/internal/llm"
)

// EnvPrefix is the prefix for matcher environment variables.
const EnvPrefix = "MATCHER"

// Config is the full matcher configuration.
type Config struct {
	DatabaseURL string          `mapstructure:"database_url"`
	Server      ServerConfig    `mapstructure:"server"`
	Matching    MatchingConfig  `mapstructure:"matching"`
	LLM         LLMConfig       `mapstructure:"llm"`
	Broker      BrokerConfig    `mapstructure:"broker"`
	Log         LogConfig       `mapstructure:"log"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// MatchingConfig holds ranking limits.
type MatchingConfig struct {
	Limit       int     `mapstructure:"limit"`        // recommendations per generation
	StoredLimit int     `mapstructure:"stored_limit"` // stored recommendations returned when nothing new is available
	ApplyBoost  float64 `mapstructure:"apply_boost"`  // score raise when the candidate applies
}

// LLMConfig configures the optional external scorer.
type LLMConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	APIKey   string        `mapstructure:"api_key"`
	Project  string        `mapstructure:"project"`
	Location string        `mapstructure:"location"`
	Model    string        `mapstructure:"model"` // overrides the standard tier model
	Timeout  time.Duration `mapstructure:"timeout"`
}

// BrokerConfig configures event publishing. An empty URL disables it.
type BrokerConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

// RateLimitConfig configures per-client request limits. Whitelisted clients are never
// limited and blacklisted ones always are.
type RateLimitConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	DefaultLimit    int           `mapstructure:"default_limit"`
	DefaultWindow   time.Duration `mapstructure:"default_window"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	Whitelist       []string      `mapstructure:"whitelist"`
	Blacklist       []string      `mapstructure:"blacklist"`
}

// LogConfig selects the log encoder and level.
type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		Matching: MatchingConfig{
			Limit:       5,
			StoredLimit: 10,
			ApplyBoost:  5,
		},
		LLM: LLMConfig{
			Provider: string(llm.ProviderGemini),
			Location: "us-central1",
			Timeout:  20 * time.Second,
		},
		Broker: BrokerConfig{
			Exchange: "internship.events",
		},
		RateLimit: RateLimitConfig{
			Enabled:         true,
			DefaultLimit:    1000,
			DefaultWindow:   time.Minute,
			CleanupInterval: 5 * time.Minute,
			Whitelist:       []string{},
			Blacklist:       []string{},
		},
	}
}

// Load reads configuration from path (optional) and the environment.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	d := Defaults()

	v.SetDefault("database_url", d.DatabaseURL)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("matching.limit", d.Matching.Limit)
	v.SetDefault("matching.stored_limit", d.Matching.StoredLimit)
	v.SetDefault("matching.apply_boost", d.Matching.ApplyBoost)
	v.SetDefault("llm.enabled", d.LLM.Enabled)
	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.project", d.LLM.Project)
	v.SetDefault("llm.location", d.LLM.Location)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.timeout", d.LLM.Timeout)
	v.SetDefault("broker.url", d.Broker.URL)
	v.SetDefault("broker.exchange", d.Broker.Exchange)
	v.SetDefault("log.json", d.Log.JSON)
	v.SetDefault("log.debug", d.Log.Debug)
	v.SetDefault("rate_limit.enabled", d.RateLimit.Enabled)
	v.SetDefault("rate_limit.default_limit", d.RateLimit.DefaultLimit)
	v.SetDefault("rate_limit.default_window", d.RateLimit.DefaultWindow)
	v.SetDefault("rate_limit.cleanup_interval", d.RateLimit.CleanupInterval)
	v.SetDefault("rate_limit.whitelist", d.RateLimit.Whitelist)
	v.SetDefault("rate_limit.blacklist", d.RateLimit.Blacklist)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Conventional names shared with other tooling.
	_ = v.BindEnv("database_url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("llm.project", EnvPrefix+"_LLM_PROJECT", "GOOGLE_CLOUD_PROJECT")
	_ = v.BindEnv("broker.url", EnvPrefix+"_BROKER_URL", "RABBITMQ_URL")
	_ = v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")
	for _, key := range []string{"enabled", "default_limit", "default_window", "cleanup_interval", "whitelist", "blacklist"} {
		_ = v.BindEnv("rate_limit."+key, EnvPrefix+"_RATE_LIMIT_"+strings.ToUpper(key), "RATE_LIMIT_"+strings.ToUpper(key))
	}

	return v
}

func (c *Config) normalize() {
	c.DatabaseURL = strings.TrimSpace(c.DatabaseURL)
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.Broker.URL = strings.TrimSpace(c.Broker.URL)
	c.RateLimit.Whitelist = trimList(c.RateLimit.Whitelist)
	c.RateLimit.Blacklist = trimList(c.RateLimit.Blacklist)
}

func trimList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Validate checks that the configuration has valid values.
// Presence of DATABASE_URL is checked by the commands that need it.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config error: 'server.port' must be between 1 and 65535")
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("config error: 'server.shutdown_timeout' must be non-negative")
	}
	if c.Matching.Limit < 1 {
		return fmt.Errorf("config error: 'matching.limit' must be at least 1")
	}
	if c.Matching.StoredLimit < 1 {
		return fmt.Errorf("config error: 'matching.stored_limit' must be at least 1")
	}
	if c.Matching.ApplyBoost < 0 || c.Matching.ApplyBoost > 100 {
		return fmt.Errorf("config error: 'matching.apply_boost' must be between 0 and 100")
	}
	if c.LLM.Timeout < 0 {
		return fmt.Errorf("config error: 'llm.timeout' must be non-negative")
	}
	if c.LLM.Enabled {
		if _, err := c.LLMClientConfig(); err != nil {
			return err
		}
		if llm.Provider(c.LLM.Provider) == llm.ProviderGemini && c.LLM.APIKey == "" {
			return fmt.Errorf("config error: 'llm.api_key' (or GEMINI_API_KEY) is required for the gemini provider")
		}
	}
	if c.RateLimit.Enabled && (c.RateLimit.DefaultLimit < 1 || c.RateLimit.DefaultWindow <= 0) {
		return fmt.Errorf("config error: 'rate_limit.default_limit' and 'rate_limit.default_window' must be positive")
	}
	if c.Broker.URL != "" && strings.TrimSpace(c.Broker.Exchange) == "" {
		return fmt.Errorf("config error: 'broker.exchange' is required when 'broker.url' is set")
	}
	return nil
}

// LLMClientConfig converts the LLM section into an llm.Config.
func (c *Config) LLMClientConfig() (*llm.Config, error) {
	var base *llm.Config
	switch llm.Provider(c.LLM.Provider) {
	case llm.ProviderGemini:
		base = llm.DefaultGeminiConfig()
	case llm.ProviderVertex:
		base = llm.DefaultConfig()
		base.Provider = llm.ProviderVertex
		base.Project = c.LLM.Project
		base.Location = c.LLM.Location
	default:
		return nil, fmt.Errorf("config error: unknown llm provider %q", c.LLM.Provider)
	}
	if c.LLM.Model != "" {
		base = base.WithModel(llm.TierStandard, c.LLM.Model)
	}
	if err := base.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	return base, nil
}
