package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Radarr     ServiceConfig    `toml:"radarr"`
	Sonarr     ServiceConfig    `toml:"sonarr"`
	Lidarr     ServiceConfig    `toml:"lidarr"`
	Monochrome MonochromeConfig `toml:"monochrome"`
	Database   DatabaseConfig   `toml:"database"`
	Server     ServerConfig     `toml:"server"`
	Log        LogConfig        `toml:"log"`
}

// ServiceConfig holds the connection and add defaults for one library manager.
type ServiceConfig struct {
	Enabled                  bool   `toml:"enabled"`
	URL                      string `toml:"url"`
	APIKey                   string `toml:"api_key"`
	DefaultQualityProfileID  int    `toml:"default_quality_profile_id"`
	DefaultRootFolderPath    string `toml:"default_root_folder_path"`
	DefaultSeriesType        string `toml:"default_series_type"`
	DefaultMetadataProfileID int    `toml:"default_metadata_profile_id"`
}

// MonochromeConfig contains streaming proxy settings.
type MonochromeConfig struct {
	Enabled     bool   `toml:"enabled"`
	InstanceURL string `toml:"instance_url"`
	Quality     string `toml:"quality"`
	DownloadDir string `toml:"download_dir"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains message server settings.
type ServerConfig struct {
	Host              string `toml:"host"`
	Port              int    `toml:"port"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Addr returns host:port for the message server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return config, nil
}

// LoadConfigOrDefault loads path, falling back to [DefaultConfig] when the file does not exist.
func LoadConfigOrDefault(path string) (*Config, error) {
	config, err := LoadConfig(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return config, err
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
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
