// Package config loads server settings from defaults, an optional
// snippetlab.yaml, a .env.local file, and the environment (highest wins).
//
// Keys are nested with dots in YAML and with underscores in the
// environment: ai.rate_per_second is AI_RATE_PER_SECOND.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileName is the optional config file looked up in the working directory.
const FileName = "snippetlab"

// EnvFile is loaded into the environment before anything is read.
// Variables already set in the environment win over it.
const EnvFile = ".env.local"

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"

	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderNone      = "none"
)

type Config struct {
	Port          int                 `mapstructure:"port"`
	LogLevel      string              `mapstructure:"log_level"`
	Store         string              `mapstructure:"store"`
	Seed          bool                `mapstructure:"seed"`
	AI            AIConfig            `mapstructure:"ai"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
}

type AIConfig struct {
	Provider      string        `mapstructure:"provider"`
	Model         string        `mapstructure:"model"` // empty means the provider's default
	BaseURL       string        `mapstructure:"base_url"`
	APIKey        string        `mapstructure:"api_key"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second"` // 0 disables limiting
	Burst         int           `mapstructure:"burst"`
}

type NotificationsConfig struct {
	Capacity int `mapstructure:"capacity"`
}

// Default values
var Default = Config{
	Port:     8080,
	LogLevel: "info",
	Store:    StoreMemory,
	Seed:     true,
	AI: AIConfig{
		Provider: ProviderOpenAI,
		Timeout:  60 * time.Second,
		Burst:    1,
	},
	Notifications: NotificationsConfig{Capacity: 50},
}

// Load reads the configuration for the working directory dir.
func Load(dir string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(dir, EnvFile)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", EnvFile, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	cfg.AI.Provider = strings.ToLower(strings.TrimSpace(cfg.AI.Provider))
	if cfg.AI.APIKey == "" {
		cfg.AI.APIKey = providerKey(cfg.AI.Provider)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", Default.Port)
	v.SetDefault("log_level", Default.LogLevel)
	v.SetDefault("store", Default.Store)
	v.SetDefault("seed", Default.Seed)
	v.SetDefault("ai.provider", Default.AI.Provider)
	v.SetDefault("ai.model", Default.AI.Model)
	v.SetDefault("ai.base_url", Default.AI.BaseURL)
	v.SetDefault("ai.api_key", Default.AI.APIKey)
	v.SetDefault("ai.timeout", Default.AI.Timeout)
	v.SetDefault("ai.rate_per_second", Default.AI.RatePerSecond)
	v.SetDefault("ai.burst", Default.AI.Burst)
	v.SetDefault("notifications.capacity", Default.Notifications.Capacity)
}

// providerKey falls back to the provider SDK's conventional variable.
func providerKey(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	}
	return ""
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch c.Store {
	case StoreMemory, StoreSQLite:
	default:
		return fmt.Errorf("invalid store %q (want %s or %s)", c.Store, StoreMemory, StoreSQLite)
	}
	switch c.AI.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderNone:
	default:
		return fmt.Errorf("invalid ai.provider %q", c.AI.Provider)
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("ai.timeout must be positive, got %s", c.AI.Timeout)
	}
	if c.AI.RatePerSecond < 0 {
		return fmt.Errorf("ai.rate_per_second must not be negative")
	}
	if c.AI.Burst < 1 {
		return fmt.Errorf("ai.burst must be at least 1")
	}
	if c.Notifications.Capacity < 1 {
		return fmt.Errorf("notifications.capacity must be at least 1")
	}
	return nil
}

// SlogLevel parses LogLevel ("debug", "info", "warn", "error").
func (c *Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return l, nil
}
