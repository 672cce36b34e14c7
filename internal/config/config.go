package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/sakhi/internal/auth"
	"github.com/Veraticus/sakhi/internal/common"
	"github.com/Veraticus/sakhi/internal/transport"
	"github.com/spf13/viper"
)

// DefaultDatabasePath is where history is kept unless database.path is set.
const DefaultDatabasePath = "~/.local/share/sakhi/sakhi.db"

// Config is the resolved application configuration.
type Config struct {
	Auth     AuthConfig
	Logging  LoggingConfig
	Database DatabaseConfig
	API      APIConfig
	History  HistoryConfig
}

// APIConfig configures the classification service client.
type APIConfig struct {
	BaseURL    string
	Timeout    time.Duration
	RetryDelay time.Duration
	MaxRetries int
	RateLimit  int
	RateBurst  int
}

// AuthConfig configures page gating.
type AuthConfig struct {
	Token    string
	CheckURL string
	Required bool
}

// DatabaseConfig locates the history database.
type DatabaseConfig struct {
	Path string
}

// HistoryConfig toggles recording of verdicts.
type HistoryConfig struct {
	Enabled bool
}

// LoggingConfig configures slog.
type LoggingConfig struct {
	Level  string
	Format string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", transport.DefaultBaseURL)
	v.SetDefault("api.timeout", 0)
	v.SetDefault("api.retry_delay", 500*time.Millisecond)
	v.SetDefault("api.max_retries", 0)
	v.SetDefault("api.rate_limit", transport.DefaultRateLimit)
	v.SetDefault("api.rate_burst", transport.DefaultRateBurst)
	v.SetDefault("auth.required", true)
	v.SetDefault("history.enabled", false)
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load reads the configuration from v and validates it.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		API: APIConfig{
			BaseURL:    strings.TrimSpace(v.GetString("api.base_url")),
			Timeout:    v.GetDuration("api.timeout"),
			RetryDelay: v.GetDuration("api.retry_delay"),
			MaxRetries: v.GetInt("api.max_retries"),
			RateLimit:  v.GetInt("api.rate_limit"),
			RateBurst:  v.GetInt("api.rate_burst"),
		},
		Auth: AuthConfig{
			Token:    v.GetString("auth.token"),
			CheckURL: v.GetString("auth.check_url"),
			Required: v.GetBool("auth.required"),
		},
		History:  HistoryConfig{Enabled: v.GetBool("history.enabled")},
		Database: DatabaseConfig{Path: v.GetString("database.path")},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
	}

	dbPath, err := ResolveDatabasePath(cfg.Database.Path)
	if err != nil {
		return Config{}, err
	}
	cfg.Database.Path = dbPath

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("%w: api.base_url", common.ErrMissingConfig)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("%w: api.timeout must not be negative", common.ErrInvalidConfig)
	}
	if c.API.MaxRetries < 0 {
		return fmt.Errorf("%w: api.max_retries must not be negative", common.ErrInvalidConfig)
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("%w: api.rate_limit must not be negative", common.ErrInvalidConfig)
	}
	if c.API.RateBurst < 0 {
		return fmt.Errorf("%w: api.rate_burst must not be negative", common.ErrInvalidConfig)
	}
	if c.History.Enabled && c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is required when history is enabled", common.ErrMissingConfig)
	}
	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %w", common.ErrInvalidConfig, err)
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w: logging.format %q", common.ErrInvalidConfig, c.Logging.Format)
	}
	return nil
}

// Transport returns the transport client configuration.
func (c Config) Transport() transport.Config {
	return transport.Config{
		BaseURL:    c.API.BaseURL,
		Token:      c.Auth.Token,
		Timeout:    c.API.Timeout,
		RetryDelay: c.API.RetryDelay,
		MaxRetries: c.API.MaxRetries,
		RateLimit:  c.API.RateLimit,
		RateBurst:  c.API.RateBurst,
	}
}

// TokenConfig returns the auth provider configuration.
func (c Config) TokenConfig() auth.TokenConfig {
	return auth.TokenConfig{
		Token:    c.Auth.Token,
		CheckURL: c.Auth.CheckURL,
		Timeout:  c.API.Timeout,
	}
}
