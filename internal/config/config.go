// SPDX-FileCopyrightText: The tripmark authors
//
// SPDX-License-Identifier: MIT

// Package config handles the application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kkyr/fig"
)

const configEnv = "TRIPMARK"

// Config represents the application's configuration structure.
type Config struct {
	Locale   string     `fig:"locale"`
	LogLevel slog.Level `fig:"loglevel" default:"0"`

	GeoCoder struct {
		// Allowed values: nominatim, opencage
		Provider string `fig:"provider" default:"nominatim"`
		APIKey   string `fig:"api_key"`
	} `fig:"geocoder"`

	Location struct {
		DisableGeoClue bool `fig:"disable_geoclue"`
		DisableGPSD    bool `fig:"disable_gpsd"`
		DisableWifi    bool `fig:"disable_wifi"`
		DisableGeoIP   bool `fig:"disable_geoip"`
	} `fig:"location"`

	Intervals struct {
		PositionRefresh time.Duration `fig:"position_refresh" default:"5m"`
	} `fig:"intervals"`

	Cache struct {
		HitTTL  time.Duration `fig:"hit_ttl" default:"1h"`
		MissTTL time.Duration `fig:"miss_ttl" default:"5m"`
	} `fig:"cache"`

	Templates struct {
		List string `fig:"list" default:"{{pad .Position 4}} {{pad .Name 24}} {{pad .Address 32}} {{pad .City 18}} {{.Distance}}"`
	} `fig:"templates"`
}

// NewFromFile reads the Config from the given file.
func NewFromFile(path, file string) (*Config, error) {
	conf := new(Config)
	_, err := os.Stat(filepath.Join(path, file))
	if err != nil {
		return conf, fmt.Errorf("failed to read Config: %w", err)
	}
	if err = fig.Load(conf, fig.Dirs(path), fig.File(file), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

// New returns a Config with defaults applied, overridable via the environment.
func New() (*Config, error) {
	conf := new(Config)
	if err := fig.Load(conf, fig.AllowNoFile(), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

// Validate checks the Config for invalid or inconsistent settings. The
// geocoder provider name is normalized to lower case.
func (c *Config) Validate() error {
	c.GeoCoder.Provider = strings.ToLower(c.GeoCoder.Provider)
	switch c.GeoCoder.Provider {
	case "nominatim", "opencage":
	default:
		return fmt.Errorf("invalid geocoder provider: %s", c.GeoCoder.Provider)
	}
	if c.Intervals.PositionRefresh < time.Second*30 {
		return fmt.Errorf("position refresh interval must be at least 30s: %s", c.Intervals.PositionRefresh)
	}
	if c.Cache.HitTTL <= 0 || c.Cache.MissTTL <= 0 {
		return fmt.Errorf("geocoder cache TTLs must be positive")
	}
	return nil
}
