package maintenance

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
)

// Env maps environment variable names for maintenance configuration.
type Env struct {
	Enabled     string
	Schedule    string
	GracePeriod string
}

// Config controls the scheduled orphan-blob sweep.
type Config struct {
	Enabled     *bool  `toml:"enabled"`
	Schedule    string `toml:"schedule"`
	GracePeriod string `toml:"grace_period"`
}

// IsEnabled reports whether the sweep is scheduled. Unset means enabled.
func (c *Config) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// GracePeriodDuration parses and returns the minimum blob age before deletion.
func (c *Config) GracePeriodDuration() time.Duration {
	d, _ := time.ParseDuration(c.GracePeriod)
	return d
}

// Finalize applies defaults, loads environment overrides, and validates the configuration.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge applies non-zero values from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Enabled != nil {
		c.Enabled = overlay.Enabled
	}
	if overlay.Schedule != "" {
		c.Schedule = overlay.Schedule
	}
	if overlay.GracePeriod != "" {
		c.GracePeriod = overlay.GracePeriod
	}
}

func (c *Config) loadDefaults() {
	if c.Schedule == "" {
		c.Schedule = "@every 6h"
	}
	if c.GracePeriod == "" {
		c.GracePeriod = "1h"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Enabled != "" {
		if v := os.Getenv(env.Enabled); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.Enabled = &b
			}
		}
	}
	if env.Schedule != "" {
		if v := os.Getenv(env.Schedule); v != "" {
			c.Schedule = v
		}
	}
	if env.GracePeriod != "" {
		if v := os.Getenv(env.GracePeriod); v != "" {
			c.GracePeriod = v
		}
	}
}

func (c *Config) validate() error {
	if _, err := cron.ParseStandard(c.Schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", c.Schedule, err)
	}
	d, err := time.ParseDuration(c.GracePeriod)
	if err != nil {
		return fmt.Errorf("invalid grace_period: %w", err)
	}
	if d < 0 {
		return fmt.Errorf("grace_period must not be negative")
	}
	return nil
}
