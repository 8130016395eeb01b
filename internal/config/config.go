// go-csncp
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-csncp.
//
// go-csncp is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-csncp is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-csncp; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package config loads the csncp daemon configuration from TOML
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	csncp "github.com/ZaparooProject/go-csncp"
	"github.com/ZaparooProject/go-csncp/polling"
	"github.com/rs/zerolog"
)

// EnvLogLevel overrides the configured log level
const EnvLogLevel = "CSNCP_LOG_LEVEL"

// Wake lock backends
const (
	WakeLockNone   = "none"
	WakeLockGPIO   = "gpio"
	WakeLockSystem = "system"
)

// Config is the resolved daemon configuration
type Config struct {
	Serial     SerialConfig
	WakeLock   WakeLockConfig
	Poll       polling.Config
	Serializer SerializerConfig
	Target     csncp.TargetConfig
	LogLevel   zerolog.Level
}

// SerialConfig selects the host link
type SerialConfig struct {
	Port     string
	BaudRate int
}

// SerializerConfig sizes the staging buffer and the fragments
type SerializerConfig struct {
	Capacity        int
	MaxFragmentData int
}

// WakeLockConfig selects and configures the wake lock
type WakeLockConfig struct {
	Backend   string
	Pin       string
	Name      string
	SysfsDir  string
	ActiveLow bool
}

type fileConfig struct {
	LogLevel string `toml:"log_level"`
	Serial   struct {
		Port     string `toml:"port"`
		BaudRate int    `toml:"baud_rate"`
	} `toml:"serial"`
	Serializer struct {
		Capacity        int `toml:"capacity"`
		MaxFragmentData int `toml:"max_fragment_data"`
	} `toml:"serializer"`
	Poll struct {
		Interval     string `toml:"interval"`
		IdleInterval string `toml:"idle_interval"`
	} `toml:"poll"`
	WakeLock struct {
		Backend   string `toml:"backend"`
		Pin       string `toml:"pin"`
		Name      string `toml:"name"`
		SysfsDir  string `toml:"sysfs_dir"`
		ActiveLow bool   `toml:"active_low"`
	} `toml:"wake_lock"`
	Target struct {
		RASOnDemand    bool `toml:"ras_on_demand"`
		MaxInitiators  int  `toml:"max_initiators"`
		MaxConnections int  `toml:"max_connections"`
	} `toml:"target"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyACM0",
			BaudRate: 115200,
		},
		Serializer: SerializerConfig{
			Capacity:        csncp.DefaultCapacity,
			MaxFragmentData: csncp.MaxFragmentData,
		},
		Poll:     *polling.DefaultConfig(),
		WakeLock: WakeLockConfig{Backend: WakeLockNone},
		Target:   csncp.DefaultTargetConfig(),
		LogLevel: zerolog.InfoLevel,
	}
}

// Load reads path over the defaults. An empty path yields the defaults. The
// log level environment override applies in both cases.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.apply(path); err != nil {
			return Config{}, err
		}
	}

	if raw := strings.TrimSpace(os.Getenv(EnvLogLevel)); raw != "" {
		lvl, err := zerolog.ParseLevel(strings.ToLower(raw))
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", EnvLogLevel, err)
		}
		cfg.LogLevel = lvl
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) apply(path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("log_level") {
		lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(raw.LogLevel)))
		if err != nil {
			return fmt.Errorf("parse log_level: %w", err)
		}
		cfg.LogLevel = lvl
	}

	if meta.IsDefined("serial", "port") {
		cfg.Serial.Port = strings.TrimSpace(raw.Serial.Port)
	}
	if meta.IsDefined("serial", "baud_rate") {
		cfg.Serial.BaudRate = raw.Serial.BaudRate
	}

	if meta.IsDefined("serializer", "capacity") {
		cfg.Serializer.Capacity = raw.Serializer.Capacity
	}
	if meta.IsDefined("serializer", "max_fragment_data") {
		cfg.Serializer.MaxFragmentData = raw.Serializer.MaxFragmentData
	}

	if meta.IsDefined("poll", "interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Poll.Interval))
		if err != nil {
			return fmt.Errorf("parse poll.interval: %w", err)
		}
		cfg.Poll.Interval = d
	}
	if meta.IsDefined("poll", "idle_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Poll.IdleInterval))
		if err != nil {
			return fmt.Errorf("parse poll.idle_interval: %w", err)
		}
		cfg.Poll.IdleInterval = d
	}

	if meta.IsDefined("wake_lock", "backend") {
		cfg.WakeLock.Backend = strings.ToLower(strings.TrimSpace(raw.WakeLock.Backend))
	}
	if meta.IsDefined("wake_lock", "pin") {
		cfg.WakeLock.Pin = strings.TrimSpace(raw.WakeLock.Pin)
	}
	if meta.IsDefined("wake_lock", "name") {
		cfg.WakeLock.Name = strings.TrimSpace(raw.WakeLock.Name)
	}
	if meta.IsDefined("wake_lock", "sysfs_dir") {
		cfg.WakeLock.SysfsDir = strings.TrimSpace(raw.WakeLock.SysfsDir)
	}
	if meta.IsDefined("wake_lock", "active_low") {
		cfg.WakeLock.ActiveLow = raw.WakeLock.ActiveLow
	}

	if meta.IsDefined("target", "ras_on_demand") {
		cfg.Target.RASOnDemand = raw.Target.RASOnDemand
	}
	if meta.IsDefined("target", "max_initiators") {
		if raw.Target.MaxInitiators < 0 || raw.Target.MaxInitiators > 255 {
			return fmt.Errorf("target.max_initiators %d out of range", raw.Target.MaxInitiators)
		}
		cfg.Target.MaxInitiators = uint8(raw.Target.MaxInitiators)
	}
	if meta.IsDefined("target", "max_connections") {
		if raw.Target.MaxConnections < 0 || raw.Target.MaxConnections > 255 {
			return fmt.Errorf("target.max_connections %d out of range", raw.Target.MaxConnections)
		}
		cfg.Target.MaxConnections = uint8(raw.Target.MaxConnections)
	}

	return nil
}

// Validate checks cross-field constraints
func (cfg *Config) Validate() error {
	if cfg.Serial.Port == "" {
		return fmt.Errorf("serial.port must not be empty")
	}
	if cfg.Serial.BaudRate <= 0 {
		return fmt.Errorf("serial.baud_rate must be positive, got %d", cfg.Serial.BaudRate)
	}
	if cfg.Serializer.Capacity <= 0 {
		return fmt.Errorf("serializer.capacity must be positive, got %d", cfg.Serializer.Capacity)
	}
	if cfg.Serializer.MaxFragmentData < 1 || cfg.Serializer.MaxFragmentData > csncp.MaxFragmentData {
		return fmt.Errorf("serializer.max_fragment_data must be within 1..%d, got %d",
			csncp.MaxFragmentData, cfg.Serializer.MaxFragmentData)
	}
	if err := cfg.Poll.Validate(); err != nil {
		return err
	}

	switch cfg.WakeLock.Backend {
	case WakeLockNone, WakeLockSystem:
	case WakeLockGPIO:
		if cfg.WakeLock.Pin == "" {
			return fmt.Errorf("wake_lock.pin is required for the gpio backend")
		}
	default:
		return fmt.Errorf("unknown wake_lock.backend %q", cfg.WakeLock.Backend)
	}

	if cfg.Target.MaxInitiators > cfg.Target.MaxConnections {
		return fmt.Errorf("target.max_initiators %d exceeds max_connections %d",
			cfg.Target.MaxInitiators, cfg.Target.MaxConnections)
	}
	return nil
}

// SerializerOptions converts the serializer section into serializer options
func (cfg *Config) SerializerOptions() []csncp.SerializerOption {
	return []csncp.SerializerOption{
		csncp.WithCapacity(cfg.Serializer.Capacity),
		csncp.WithMaxFragmentData(cfg.Serializer.MaxFragmentData),
	}
}
