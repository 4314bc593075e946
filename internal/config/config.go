package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Port             string        `env:"CHORECHART_PORT"              envDefault:"8080"`
	DBPath           string        `env:"CHORECHART_DB_PATH"           envDefault:"chorechart.db"`
	DefinitionsPath  string        `env:"CHORECHART_DEFINITIONS_PATH"  envDefault:"simple_chores.yaml"`
	LogLevel         string        `env:"CHORECHART_LOG_LEVEL"         envDefault:"info"`
	LogFormat        string        `env:"CHORECHART_LOG_FORMAT"        envDefault:"text"`
	MaxAdjustment    int64         `env:"CHORECHART_MAX_ADJUSTMENT"    envDefault:"1000000000"`
	RolloverSchedule string        `env:"CHORECHART_ROLLOVER_SCHEDULE"`
	RefreshInterval  time.Duration `env:"CHORECHART_REFRESH_INTERVAL"  envDefault:"1m"`
	Timezone         string        `env:"CHORECHART_TIMEZONE"          envDefault:"Local"`
	WatchInterval    time.Duration `env:"CHORECHART_WATCH_INTERVAL"    envDefault:"5s"`
}

// Load parses the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.MaxAdjustment <= 0 {
		return fmt.Errorf("CHORECHART_MAX_ADJUSTMENT must be positive, got %d", c.MaxAdjustment)
	}
	if c.WatchInterval < 0 {
		return fmt.Errorf("CHORECHART_WATCH_INTERVAL must not be negative, got %s", c.WatchInterval)
	}
	if c.RefreshInterval < 0 {
		return fmt.Errorf("CHORECHART_REFRESH_INTERVAL must not be negative, got %s", c.RefreshInterval)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured timezone used by the rollover schedule.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("CHORECHART_TIMEZONE: %w", err)
	}
	return loc, nil
}
