package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Database Database `yaml:"database"`
	Weather  Weather  `yaml:"weather"`
	Enrich   Enrich   `yaml:"enrich"`
	Server   Server   `yaml:"server"`
	Logging  Logging  `yaml:"logging"`
	Metrics  Metrics  `yaml:"metrics"`
}

type Database struct {
	Path string `yaml:"path"`
}

// Weather configures the Open-Meteo client.
type Weather struct {
	ForecastURL       string        `yaml:"forecast_url"`
	ArchiveURL        string        `yaml:"archive_url"`
	CurrentTimeout    time.Duration `yaml:"current_timeout"`
	HistoricalTimeout time.Duration `yaml:"historical_timeout"`
	HistoryYears      int           `yaml:"history_years"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

type Enrich struct {
	Delay time.Duration `yaml:"delay"`
}

type Server struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Metrics struct {
	PushgatewayURL string `yaml:"pushgateway_url"`
}

// ConfigDir returns the XDG config directory for atlas.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "atlas")
}

// DataDir returns the XDG data directory for atlas.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "atlas")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > $ATLAS_CONFIG > ~/.config/atlas/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit == "" {
		explicit = os.Getenv("ATLAS_CONFIG")
	}
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'atlas init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Weather: Weather{
			ForecastURL:       "https://api.open-meteo.com/v1/forecast",
			ArchiveURL:        "https://archive-api.open-meteo.com/v1/archive",
			CurrentTimeout:    30 * time.Second,
			HistoricalTimeout: 60 * time.Second,
			HistoryYears:      5,
			RequestsPerSecond: 2,
		},
		Enrich:  Enrich{Delay: 500 * time.Millisecond},
		Server:  Server{Host: "127.0.0.1", Port: 8000, CacheTTL: time.Hour},
		Logging: Logging{Level: "info", Format: "text"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Weather.CurrentTimeout <= 0 || c.Weather.HistoricalTimeout <= 0 {
		return errors.New("weather timeouts must be positive")
	}
	if c.Weather.HistoryYears < 1 {
		return errors.New("weather.history_years must be at least 1")
	}
	if c.Enrich.Delay < 0 {
		return errors.New("enrich.delay must not be negative")
	}
	if c.Server.CacheTTL <= 0 {
		return errors.New("server.cache_ttl must be positive")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// GetDatabasePath returns the effective sqlite path from config, $ATLAS_DATA_DIR,
// or the XDG default.
func (c *Config) GetDatabasePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	if dir := os.Getenv("ATLAS_DATA_DIR"); dir != "" {
		return filepath.Join(dir, "atlas.db")
	}
	return filepath.Join(DataDir(), "atlas.db")
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
