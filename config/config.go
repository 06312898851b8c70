// go-explorenfc
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-explorenfc.
//
// go-explorenfc is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-explorenfc is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-explorenfc; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package config loads the reader daemon settings. Sources are applied in
// increasing precedence: built-in defaults, a YAML file, a .env file, the
// process environment and finally command line flags (applied by the
// caller before Validate).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	explorenfc "github.com/ZaparooProject/go-explorenfc"
	"github.com/ZaparooProject/go-explorenfc/detection"
)

// Driver names
const (
	DriverPN512  = "pn512"
	DriverPN532  = "pn532"
	DriverLibNFC = "libnfc"
)

// Bus names
const (
	BusSPI  = "spi"
	BusUART = "uart"
	BusI2C  = "i2c"
)

// Write payload encodings
const (
	NDEFRaw  = "raw"
	NDEFText = "text"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "EXPLORENFC_"

// DefaultEnvFile is read when present; a missing file is not an error.
const DefaultEnvFile = ".env"

// NATS configures the optional NATS sink. An empty URL disables it.
type NATS struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
	Token   string `yaml:"token"`
}

// Config holds all daemon settings.
type Config struct {
	NATS NATS `yaml:"nats"`
	// Driver is pn512, pn532 or libnfc.
	Driver string `yaml:"driver"`
	// Bus is spi for pn512 and uart or i2c for pn532. libnfc ignores it.
	Bus string `yaml:"bus"`
	// Device is the bus path or libnfc connection string. Empty selects the
	// first SPI port for pn512, detection for pn532 and the libnfc default.
	Device      string        `yaml:"device"`
	NDEF        string        `yaml:"ndef"`
	Blocklist   []string      `yaml:"blocklist"`
	IgnorePaths []string      `yaml:"ignore_paths"`
	SPISpeedHz  int64         `yaml:"spi_speed_hz"`
	Interval    time.Duration `yaml:"interval"`
	Debug       bool          `yaml:"debug"`
	DecodeNDEF  bool          `yaml:"decode_ndef"`
}

// Default returns the settings of the Explore-NFC board: a PN512
// on SPI polled once per second.
func Default() Config {
	return Config{
		Driver:     DriverPN512,
		Bus:        BusSPI,
		NDEF:       NDEFRaw,
		SPISpeedHz: 5_000_000,
		Interval:   explorenfc.DefaultInterval,
		Blocklist:  detection.DefaultBlocklist(),
		NATS:       NATS{Subject: "explorenfc.cards"},
	}
}

// Load builds a configuration from defaults, the YAML file at path (skipped
// when path is empty) and the environment, including envFile if it exists.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	if err := LoadEnv(envFile, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// LoadFile overlays the YAML file at path onto cfg. Keys missing from the
// file keep their current value.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path) //nolint:gosec // operator supplied config path
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// LoadEnv overlays EXPLORENFC_* variables onto cfg. Variables set in the
// process environment win over the same keys in envFile.
func LoadEnv(envFile string, cfg *Config) error {
	fileVars := map[string]string{}
	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileVars = vars
		case errors.Is(err, fs.ErrNotExist):
		default:
			return fmt.Errorf("read env file %s: %w", envFile, err)
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}
	return applyEnv(cfg, lookup)
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = splitList(v)
		}
	}

	str("DRIVER", &cfg.Driver)
	str("BUS", &cfg.Bus)
	str("DEVICE", &cfg.Device)
	str("NDEF", &cfg.NDEF)
	str("NATS_URL", &cfg.NATS.URL)
	str("NATS_SUBJECT", &cfg.NATS.Subject)
	str("NATS_TOKEN", &cfg.NATS.Token)
	list("BLOCKLIST", &cfg.Blocklist)
	list("IGNORE_PATHS", &cfg.IgnorePaths)

	var errs []error
	if v, ok := lookup(EnvPrefix + "SPI_SPEED_HZ"); ok {
		speed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSPI_SPEED_HZ: %w", EnvPrefix, err))
		} else {
			cfg.SPISpeedHz = speed
		}
	}
	if v, ok := lookup(EnvPrefix + "INTERVAL"); ok {
		interval, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%sINTERVAL: %w", EnvPrefix, err))
		} else {
			cfg.Interval = interval
		}
	}
	for key, dst := range map[string]*bool{"DEBUG": &cfg.Debug, "DECODE_NDEF": &cfg.DecodeNDEF} {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
			continue
		}
		*dst = b
	}

	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate checks the combination of settings.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverPN512:
		if c.Bus != BusSPI {
			return fmt.Errorf("%w: driver %s needs bus %s, got %q",
				explorenfc.ErrInvalidParameter, c.Driver, BusSPI, c.Bus)
		}
	case DriverPN532:
		if c.Bus != BusUART && c.Bus != BusI2C {
			return fmt.Errorf("%w: driver %s needs bus %s or %s, got %q",
				explorenfc.ErrInvalidParameter, c.Driver, BusUART, BusI2C, c.Bus)
		}
	case DriverLibNFC:
	default:
		return fmt.Errorf("%w: unknown driver %q", explorenfc.ErrInvalidParameter, c.Driver)
	}

	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %s", explorenfc.ErrInvalidParameter, c.Interval)
	}
	if c.Bus == BusSPI && c.SPISpeedHz <= 0 {
		return fmt.Errorf("%w: SPI speed must be positive, got %d", explorenfc.ErrInvalidParameter, c.SPISpeedHz)
	}
	if !slices.Contains([]string{NDEFRaw, NDEFText}, c.NDEF) {
		return fmt.Errorf("%w: unknown NDEF mode %q", explorenfc.ErrInvalidParameter, c.NDEF)
	}
	if c.NATS.URL != "" && c.NATS.Subject == "" {
		return fmt.Errorf("%w: NATS URL set without a subject", explorenfc.ErrInvalidParameter)
	}
	return nil
}
