// Package config provides application configuration management with support for
// TOML files, environment variable overrides, and configuration overlays.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/document-manager/internal/auth"
	"github.com/JaimeStill/document-manager/internal/maintenance"
	"github.com/JaimeStill/document-manager/pkg/database"
	"github.com/JaimeStill/document-manager/pkg/logging"
	"github.com/JaimeStill/document-manager/pkg/storage"
)

const (
	// BaseConfigFile is the primary configuration file name.
	BaseConfigFile = "config.toml"

	// OverlayConfigPattern is the file name pattern for environment-specific overlays.
	OverlayConfigPattern = "config.%s.toml"

	// EnvServiceEnv specifies the environment name for configuration overlays.
	EnvServiceEnv = "SERVICE_ENV"
)

var databaseEnv = &database.Env{
	Host:            "DATABASE_HOST",
	Port:            "DATABASE_PORT",
	Name:            "DATABASE_NAME",
	User:            "DATABASE_USER",
	Password:        "DATABASE_PASSWORD",
	MaxOpenConns:    "DATABASE_MAX_OPEN_CONNS",
	MaxIdleConns:    "DATABASE_MAX_IDLE_CONNS",
	ConnMaxLifetime: "DATABASE_CONN_MAX_LIFETIME",
	ConnTimeout:     "DATABASE_CONN_TIMEOUT",
	SSLMode:         "DATABASE_SSL_MODE",
	AutoMigrate:     "DATABASE_AUTO_MIGRATE",
}

var loggingEnv = &logging.Env{
	Level:    "LOGGING_LEVEL",
	Format:   "LOGGING_FORMAT",
	FilePath: "LOGGING_FILE_PATH",
}

var storageEnv = &storage.Env{
	Backend:           "STORAGE_BACKEND",
	BasePath:          "STORAGE_BASE_PATH",
	MaxUploadSize:     "STORAGE_MAX_UPLOAD_SIZE",
	S3Bucket:          "STORAGE_S3_BUCKET",
	S3Region:          "STORAGE_S3_REGION",
	S3Endpoint:        "STORAGE_S3_ENDPOINT",
	S3AccessKeyID:     "STORAGE_S3_ACCESS_KEY_ID",
	S3SecretAccessKey: "STORAGE_S3_SECRET_ACCESS_KEY",
	S3UsePathStyle:    "STORAGE_S3_USE_PATH_STYLE",
	WebDAVURL:         "STORAGE_WEBDAV_URL",
	WebDAVUser:        "STORAGE_WEBDAV_USER",
	WebDAVPassword:    "STORAGE_WEBDAV_PASSWORD",
}

var authEnv = &auth.Env{
	Secret:   "AUTH_SECRET",
	Issuer:   "AUTH_ISSUER",
	TokenTTL: "AUTH_TOKEN_TTL",
}

var maintenanceEnv = &maintenance.Env{
	Enabled:     "MAINTENANCE_ENABLED",
	Schedule:    "MAINTENANCE_SCHEDULE",
	GracePeriod: "MAINTENANCE_GRACE_PERIOD",
}

// Config represents the root service configuration.
type Config struct {
	Server      ServerConfig       `toml:"server"`
	Database    database.Config    `toml:"database"`
	Logging     logging.Config     `toml:"logging"`
	Storage     storage.Config     `toml:"storage"`
	API         APIConfig          `toml:"api"`
	Auth        auth.Config        `toml:"auth"`
	Maintenance maintenance.Config `toml:"maintenance"`
}

// Env returns the active overlay environment name.
func (c *Config) Env() string {
	return os.Getenv(EnvServiceEnv)
}

// Load reads the base configuration file, applies any environment-specific
// overlay, and finalizes the result.
func Load() (*Config, error) {
	cfg, err := load(BaseConfigFile)
	if err != nil {
		return nil, err
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize applies defaults, loads environment overrides, and validates every section.
func (c *Config) Finalize() error {
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Logging.Finalize(loggingEnv); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Maintenance.Finalize(maintenanceEnv); err != nil {
		return fmt.Errorf("maintenance: %w", err)
	}
	return nil
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *Config) Merge(overlay *Config) {
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Logging.Merge(&overlay.Logging)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Auth.Merge(&overlay.Auth)
	c.Maintenance.Merge(&overlay.Maintenance)
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
	if env := os.Getenv(EnvServiceEnv); env != "" {
		overlayPath := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(overlayPath); err == nil {
			return overlayPath
		}
	}
	return ""
}
