// Package config loads the layered service configuration: toml base file,
// environment overlay, then LAUDO_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/subosito/gotenv"

	"github.com/vermlab/laudo/pkg/database"
	"github.com/vermlab/laudo/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvLaudoEnv             = "LAUDO_ENV"
	EnvLaudoShutdownTimeout = "LAUDO_SHUTDOWN_TIMEOUT"
	EnvLaudoVersion         = "LAUDO_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "LAUDO_DB_HOST",
	Port:            "LAUDO_DB_PORT",
	Name:            "LAUDO_DB_NAME",
	User:            "LAUDO_DB_USER",
	Password:        "LAUDO_DB_PASSWORD",
	SSLMode:         "LAUDO_DB_SSL_MODE",
	MaxOpenConns:    "LAUDO_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "LAUDO_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "LAUDO_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "LAUDO_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "LAUDO_STORAGE_CONTAINER_NAME",
	ConnectionString: "LAUDO_STORAGE_CONNECTION_STRING",
}

// Config is the root configuration for the laudo service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	API             APIConfig       `toml:"api"`
	Plant           PlantConfig     `toml:"plant"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the LAUDO_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvLaudoEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads .env (if present), the base config, any environment overlay,
// then finalizes all values. Without a config.toml, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	_ = gotenv.Load()

	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Plant.Merge(&overlay.Plant)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Plant.Finalize(); err != nil {
		return fmt.Errorf("plant: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvLaudoShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvLaudoVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvLaudoEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
