package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `toml:"server"`
	API     APIConfig     `toml:"api"`
	Session SessionConfig `toml:"session"`
	I18n    I18nConfig    `toml:"i18n"`
	Logging LoggingConfig `toml:"logging"`
	Demo    DemoConfig    `toml:"demo"`
}

type ServerConfig struct {
	Host            string   `toml:"host"`
	Port            int      `toml:"port" validate:"min=1,max=65535"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// APIConfig points at the jobs service.
type APIConfig struct {
	BaseURL       string   `toml:"base_url" validate:"omitempty,url"`
	Timeout       Duration `toml:"timeout"`
	RatePerSecond float64  `toml:"rate_per_second" validate:"min=0"` // 0 disables client-side limiting
	Burst         int      `toml:"burst" validate:"min=0"`
	MaxRetries    int      `toml:"max_retries" validate:"min=0,max=5"` // 0 = no retry
	ProxyURL      string   `toml:"proxy_url" validate:"omitempty,url"`
}

type SessionConfig struct {
	Backend    string   `toml:"backend" validate:"oneof=memory redis"`
	RedisURL   string   `toml:"redis_url" validate:"required_if=Backend redis"`
	CookieName string   `toml:"cookie_name" validate:"required"`
	TTL        Duration `toml:"ttl"`
}

type I18nConfig struct {
	DefaultLanguage string `toml:"default_language" validate:"required"`
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=debug info warn error"`
	Output []string `toml:"output" validate:"dive,oneof=stdout console file"`
	File   string   `toml:"file"`
}

// DemoConfig serves the bundled jobs from memory instead of the jobs service.
type DemoConfig struct {
	Enabled bool   `toml:"enabled"`
	UserID  string `toml:"user_id"`
	Email   string `toml:"email"`
}

// Duration decodes TOML strings like "5s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "",
			Port:            8080,
			ShutdownTimeout: Duration{5 * time.Second},
		},
		API: APIConfig{
			Timeout: Duration{10 * time.Second},
			Burst:   1,
		},
		Session: SessionConfig{
			Backend:    "memory",
			CookieName: "joblist_session",
			TTL:        Duration{24 * time.Hour},
		},
		I18n: I18nConfig{
			DefaultLanguage: "en",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
			File:   "logs/joblist.log",
		},
		Demo: DemoConfig{
			UserID: "demo-user",
			Email:  "demo@joblist.local",
		},
	}
}

// Load builds the configuration: defaults, then the TOML file (if any),
// then the .env file and environment variables. Flags are applied by the
// caller afterwards and followed by Validate.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: loading %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Host, "JOBLIST_HOST")
	setString(&c.API.BaseURL, "JOBLIST_API_BASE_URL")
	setString(&c.API.ProxyURL, "JOBLIST_API_PROXY_URL")
	setString(&c.Session.Backend, "JOBLIST_SESSION_BACKEND")
	setString(&c.Session.RedisURL, "JOBLIST_REDIS_URL")
	setString(&c.Session.CookieName, "JOBLIST_SESSION_COOKIE")
	setString(&c.I18n.DefaultLanguage, "JOBLIST_DEFAULT_LANGUAGE")
	setString(&c.Logging.Level, "JOBLIST_LOG_LEVEL")

	if v := os.Getenv("JOBLIST_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: JOBLIST_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("JOBLIST_DEMO"); v != "" {
		demo, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: JOBLIST_DEMO: %w", err)
		}
		c.Demo.Enabled = demo
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks the final configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if !c.Demo.Enabled && c.API.BaseURL == "" {
		return errors.New("config: api.base_url is required unless demo mode is enabled")
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
