package logging

import (
	"fmt"
	"os"
)

// Env maps environment variable names for logging configuration.
type Env struct {
	Level    string
	Format   string
	FilePath string
}

// Config holds logging configuration settings.
type Config struct {
	Level  Level      `toml:"level"`
	Format Format     `toml:"format"`
	File   FileConfig `toml:"file"`
}

// FileConfig enables rotated file output. An empty Path disables it.
type FileConfig struct {
	Path       string `toml:"path"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// Finalize applies defaults, loads environment overrides, and validates the configuration.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	c.loadEnv(env)
	return c.validate()
}

// Merge applies non-zero values from the overlay configuration.
func (c *Config) Merge(overlay *Config) {
	if overlay.Level != "" {
		c.Level = overlay.Level
	}
	if overlay.Format != "" {
		c.Format = overlay.Format
	}
	if overlay.File.Path != "" {
		c.File.Path = overlay.File.Path
	}
	if overlay.File.MaxSizeMB != 0 {
		c.File.MaxSizeMB = overlay.File.MaxSizeMB
	}
	if overlay.File.MaxBackups != 0 {
		c.File.MaxBackups = overlay.File.MaxBackups
	}
	if overlay.File.MaxAgeDays != 0 {
		c.File.MaxAgeDays = overlay.File.MaxAgeDays
	}
	if overlay.File.Compress {
		c.File.Compress = true
	}
}

func (c *Config) loadDefaults() {
	if c.Level == "" {
		c.Level = LevelInfo
	}
	if c.Format == "" {
		c.Format = FormatText
	}
	if c.File.MaxSizeMB == 0 {
		c.File.MaxSizeMB = 10
	}
	if c.File.MaxBackups == 0 {
		c.File.MaxBackups = 7
	}
	if c.File.MaxAgeDays == 0 {
		c.File.MaxAgeDays = 30
	}
}

func (c *Config) loadEnv(env *Env) {
	if env == nil {
		return
	}
	if v := os.Getenv(env.Level); v != "" {
		c.Level = Level(v)
	}
	if v := os.Getenv(env.Format); v != "" {
		c.Format = Format(v)
	}
	if env.FilePath != "" {
		if v := os.Getenv(env.FilePath); v != "" {
			c.File.Path = v
		}
	}
}

func (c *Config) validate() error {
	if err := c.Level.Validate(); err != nil {
		return err
	}
	if err := c.Format.Validate(); err != nil {
		return err
	}
	if c.File.MaxSizeMB < 0 || c.File.MaxBackups < 0 || c.File.MaxAgeDays < 0 {
		return fmt.Errorf("log file rotation limits must not be negative")
	}
	return nil
}
