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

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Sync        SyncConfig        `toml:"sync"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// SyncConfig tunes the library sync engine.
type SyncConfig struct {
	MaxRetries      int     `toml:"max_retries"`      // attempts per page request
	BackoffMS       int     `toml:"backoff_ms"`       // base backoff between attempts
	RequestTimeoutS int     `toml:"request_timeout_s"` // per remote call
	Workers         int     `toml:"workers"`          // concurrent track prefetches
	RateLimit       float64 `toml:"rate_limit"`       // remote requests per second
	CheckpointEvery int     `toml:"checkpoint_every"` // playlists between checkpoint writes
	MaxPlaylists    int     `toml:"max_playlists"`    // 0 = no cap (full sync)
}

// RequestTimeout returns the per-call timeout as a [time.Duration].
func (s SyncConfig) RequestTimeout() time.Duration {
	if s.RequestTimeoutS <= 0 {
		return 20 * time.Second
	}
	return time.Duration(s.RequestTimeoutS) * time.Second
}

// Backoff returns the base retry backoff as a [time.Duration].
func (s SyncConfig) Backoff() time.Duration {
	if s.BackoffMS <= 0 {
		return time.Second
	}
	return time.Duration(s.BackoffMS) * time.Millisecond
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
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
