// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package config loads the scanner configuration from a file, an optional
// .env file and HYDROPI_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/henskjold73/hydropi/iso"
	"github.com/henskjold73/hydropi/tilt"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type (
	// Config is the complete scanner configuration.
	Config struct {
		Scan     Scan     `yaml:"scan" toml:"scan"`
		Delivery Delivery `yaml:"delivery" toml:"delivery"`
		State    State    `yaml:"state" toml:"state"`
		Status   Status   `yaml:"status" toml:"status"`
		MQTT     MQTT     `yaml:"mqtt" toml:"mqtt"`
		Log      Log      `yaml:"log" toml:"log"`
	}

	// Scan configures the advertisement source and loop pacing.
	Scan struct {
		// Source is "ble" for the host adapter or "replay" for a recording.
		Source         string       `yaml:"source" toml:"source"`
		ReplayFile     string       `yaml:"replay_file" toml:"replay_file"`
		Window         iso.Duration `yaml:"window" toml:"window"`
		Interval       iso.Duration `yaml:"interval" toml:"interval"`
		ManufacturerID uint16       `yaml:"manufacturer_id" toml:"manufacturer_id"`
	}

	// Delivery configures the collection endpoint and resend policy.
	Delivery struct {
		URL          string       `yaml:"url" toml:"url"`
		TenantID     string       `yaml:"tenant_id" toml:"tenant_id"`
		APIKey       string       `yaml:"api_key" toml:"api_key" log:"-"`
		APIKeyHeader string       `yaml:"api_key_header" toml:"api_key_header"`
		ResendAfter  iso.Duration `yaml:"resend_after" toml:"resend_after"`
		Timeout      iso.Duration `yaml:"timeout" toml:"timeout"`
		Attempts     uint64       `yaml:"attempts" toml:"attempts"`
	}

	// State configures where delivery state is persisted.
	State struct {
		Dir string `yaml:"dir" toml:"dir"`
	}

	// Status configures the optional read-only HTTP surface.
	Status struct {
		// Addr is the listen address; empty disables the server.
		Addr string `yaml:"addr" toml:"addr"`
	}

	// MQTT configures the optional telemetry mirror.
	MQTT struct {
		// Broker is an mqtt:// or mqtts:// URL; empty disables the mirror.
		Broker string `yaml:"broker" toml:"broker" log:"-"`
		Topic  string `yaml:"topic" toml:"topic"`
	}

	// Log configures logging.
	Log struct {
		Level string `yaml:"level" toml:"level"`
	}
)

// Scan sources.
const (
	SourceBLE    = "ble"
	SourceReplay = "replay"
)

// Default returns the configuration used for anything left unset.
func Default() *Config {
	return &Config{
		Scan: Scan{
			Source:         SourceBLE,
			Window:         iso.Duration(30 * time.Second),
			Interval:       iso.Duration(15 * time.Minute),
			ManufacturerID: tilt.AppleManufacturerID,
		},
		Delivery: Delivery{
			APIKeyHeader: "x-api-key",
			ResendAfter:  iso.Duration(time.Hour),
			Timeout:      iso.Duration(10 * time.Second),
			Attempts:     3,
		},
		State: State{Dir: "."},
		MQTT:  MQTT{Topic: "hydropi/tilts"},
		Log:   Log{Level: "info"},
	}
}

// Load builds the configuration. Either path may be empty; a missing .env
// file is not an error.
func Load(file, envFile string) (*Config, error) {
	cfg := Default()

	if file != "" {
		if err := cfg.readFile(file); err != nil {
			return nil, err
		}
	}

	if envFile != "" {
		err := godotenv.Load(envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, &FileError{Path: envFile, Err: err}
		}
	}

	if err := cfg.applyEnv(os.Environ()); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &FileError{Path: path, Err: err}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	case ".toml":
		err = toml.Unmarshal(data, c)
	default:
		err = fmt.Errorf("unsupported format %q", filepath.Ext(path))
	}
	if err != nil {
		return &FileError{Path: path, Err: err}
	}
	return nil
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	switch {
	case c.Scan.Window <= 0:
		return &InvalidError{Field: "scan.window", Reason: "must be positive"}
	case c.Scan.Interval <= 0:
		return &InvalidError{Field: "scan.interval", Reason: "must be positive"}
	case c.Scan.Source != SourceBLE && c.Scan.Source != SourceReplay:
		return &InvalidError{
			Field:  "scan.source",
			Reason: fmt.Sprintf("must be %q or %q", SourceBLE, SourceReplay),
		}
	case c.Scan.Source == SourceReplay && c.Scan.ReplayFile == "":
		return &InvalidError{Field: "scan.replay_file", Reason: "required for replay"}
	case c.Delivery.URL == "":
		return &InvalidError{Field: "delivery.url", Reason: "required"}
	case c.Delivery.TenantID == "":
		return &InvalidError{Field: "delivery.tenant_id", Reason: "required"}
	case c.Delivery.APIKey == "":
		return &InvalidError{Field: "delivery.api_key", Reason: "required"}
	case c.Delivery.ResendAfter < 0:
		return &InvalidError{Field: "delivery.resend_after", Reason: "must not be negative"}
	case c.Delivery.Timeout <= 0:
		return &InvalidError{Field: "delivery.timeout", Reason: "must be positive"}
	case c.Delivery.Attempts == 0:
		return &InvalidError{Field: "delivery.attempts", Reason: "must be at least 1"}
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return &InvalidError{Field: "log.level", Reason: err.Error()}
	}
	return nil
}

// SlogLevel parses the configured level name.
func (l Log) SlogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(l.Level))
	return level, err
}
