package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override service URLs from the config file.
const (
	EnvUserServiceURL    = "TVBF_USER_SERVICE_URL"
	EnvShowServiceURL    = "TVBF_SHOW_SERVICE_URL"
	EnvSeasonServiceURL  = "TVBF_SEASON_SERVICE_URL"
	EnvEpisodeServiceURL = "TVBF_EPISODE_SERVICE_URL"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Services ServicesConfig `toml:"services"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	HTTP     HTTPConfig     `toml:"http"`
	Catalog  CatalogConfig  `toml:"catalog"`
}

// ServicesConfig contains the base URLs of the remote services.
type ServicesConfig struct {
	UserURL    string `toml:"user_url"`
	ShowURL    string `toml:"show_url"`
	SeasonURL  string `toml:"season_url"`
	EpisodeURL string `toml:"episode_url"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the local link listener.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the host:port pair the listener binds to.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// HTTPConfig contains outbound HTTP client settings.
type HTTPConfig struct {
	Timeout time.Duration `toml:"timeout"`
}

// CatalogConfig contains request pacing for the show, season and episode services.
type CatalogConfig struct {
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
	SearchLimit       int     `toml:"search_limit"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file fall back to the embedded defaults and service URLs can be overridden from the environment.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	config.ApplyEnv(os.Getenv)
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// ApplyEnv overrides service URLs with any non-empty values returned by getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	overrides := []struct {
		key    string
		target *string
	}{
		{EnvUserServiceURL, &c.Services.UserURL},
		{EnvShowServiceURL, &c.Services.ShowURL},
		{EnvSeasonServiceURL, &c.Services.SeasonURL},
		{EnvEpisodeServiceURL, &c.Services.EpisodeURL},
	}

	for _, o := range overrides {
		if v := getenv(o.key); v != "" {
			*o.target = v
		}
	}
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
