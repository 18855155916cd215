package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when MARKETCLOCK_CONFIG is unset.
const DefaultPath = "config/marketclock.yaml"

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for marketclock.
type Config struct {
	Storage   Storage   `yaml:"storage"`
	Server    Server    `yaml:"server"`
	Logging   Logging   `yaml:"logging"`
	Dashboard Dashboard `yaml:"dashboard"`
}

// Storage holds paths for data persistence.
type Storage struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// Server holds network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Dashboard controls the live views.
type Dashboard struct {
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	DefaultTheme    string        `yaml:"default_theme"`
	MarketsFile     string        `yaml:"markets_file"` // empty: built-in registry
}

// Defaults returns the configuration used when no file is present.
func Defaults() *Config {
	return &Config{
		Storage: Storage{SQLitePath: "marketclock.db"},
		Server:  Server{Host: "0.0.0.0", Port: 8080},
		Logging: Logging{Level: "info", Format: "json"},
		Dashboard: Dashboard{
			RefreshInterval: time.Second,
			DefaultTheme:    "light",
		},
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Path returns the config path from MARKETCLOCK_CONFIG, or DefaultPath.
func Path() string {
	if v := os.Getenv("MARKETCLOCK_CONFIG"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads the YAML configuration file at the given path on top of
// Defaults, and then applies environment variable overrides (including those
// from a local .env file). A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	// A .env file in the working directory, if any, fills in variables that
	// are not already set.
	_ = godotenv.Load()

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Dashboard.RefreshInterval <= 0 {
		return fmt.Errorf("dashboard.refresh_interval must be positive, got %s", c.Dashboard.RefreshInterval)
	}
	if t := c.Dashboard.DefaultTheme; t != "light" && t != "dark" {
		return fmt.Errorf("dashboard.default_theme must be light or dark, got %q", t)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MARKETCLOCK_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("MARKETCLOCK_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}

	if v := os.Getenv("MARKETCLOCK_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("MARKETCLOCK_MARKETS_FILE"); v != "" {
		cfg.Dashboard.MarketsFile = v
	}
	if v := os.Getenv("MARKETCLOCK_THEME"); v != "" {
		cfg.Dashboard.DefaultTheme = v
	}
	if v := os.Getenv("MARKETCLOCK_REFRESH"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Dashboard.RefreshInterval = d
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
