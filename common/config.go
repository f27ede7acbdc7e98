// /home/krylon/go/src/github.com/blicero/pillbox/common/config.go
// -*- mode: go; coding: utf-8; -*-
// Created on 13. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-14 19:40:22 krylon>

package common

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the tunable parameters of the backend.
// Durations are written in Go syntax, e.g. "2h" or "15m".
type Config struct {
	ListenAddress     string        `yaml:"listen_address"`
	LogLevel          string        `yaml:"log_level"`
	PoolSize          int           `yaml:"pool_size"`
	TimeZone          string        `yaml:"time_zone"`
	PendingTTL        time.Duration `yaml:"pending_ttl"`
	StaleAfter        time.Duration `yaml:"stale_after"`
	ScanHorizon       time.Duration `yaml:"scan_horizon"`
	OnTimeWindow      time.Duration `yaml:"on_time_window"`
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
	GCInterval        time.Duration `yaml:"gc_interval"`
	Notify            bool          `yaml:"notify"`
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() Config {
	return Config{
		ListenAddress:     fmt.Sprintf("localhost:%d", DefaultPort),
		LogLevel:          "DEBUG",
		PoolSize:          4,
		TimeZone:          "Local",
		PendingTTL:        2 * time.Hour,
		StaleAfter:        24 * time.Hour,
		ScanHorizon:       90 * 24 * time.Hour,
		OnTimeWindow:      30 * time.Minute,
		ReconcileInterval: 15 * time.Minute,
		GCInterval:        10 * time.Minute,
		Notify:            true,
	}
} // func DefaultConfig() Config

// LoadConfig reads the configuration file at path. Values missing from the
// file keep their defaults. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	var (
		err error
		buf []byte
		cfg = DefaultConfig()
	)

	if buf, err = os.ReadFile(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("cannot read config file %s: %w", path, err)
	} else if err = yaml.Unmarshal(buf, &cfg); err != nil {
		return cfg, fmt.Errorf("cannot parse config file %s: %w", path, err)
	} else if err = cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}

	return cfg, nil
} // func LoadConfig(path string) (Config, error)

// Validate checks the Config for values that make no sense.
func (c *Config) Validate() error {
	switch {
	case c.PoolSize < 1:
		return fmt.Errorf("pool_size must be positive, not %d", c.PoolSize)
	case c.PendingTTL <= 0:
		return fmt.Errorf("pending_ttl must be positive, not %s", c.PendingTTL)
	case c.StaleAfter <= 0:
		return fmt.Errorf("stale_after must be positive, not %s", c.StaleAfter)
	case c.ScanHorizon < c.StaleAfter:
		return fmt.Errorf("scan_horizon (%s) must not be shorter than stale_after (%s)",
			c.ScanHorizon,
			c.StaleAfter)
	case c.ReconcileInterval < 0:
		return fmt.Errorf("reconcile_interval must not be negative, not %s",
			c.ReconcileInterval)
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	return nil
} // func (c *Config) Validate() error

// Location returns the time zone schedules are evaluated in.
func (c *Config) Location() (*time.Location, error) {
	switch c.TimeZone {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}

	var loc, err = time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q: %w", c.TimeZone, err)
	}

	return loc, nil
} // func (c *Config) Location() (*time.Location, error)
