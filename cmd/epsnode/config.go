// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/cubesat-eps/go-eps"
	"github.com/cubesat-eps/go-eps/polling"
)

// config is the command line configuration shared by all subcommands.
type config struct {
	Port           string
	ShuntPin       string
	LogDir         string
	Baud           int
	QueueCapacity  int
	PassInterval   time.Duration
	IdleInterval   time.Duration
	ShuntInterval  time.Duration
	ShuntOnAbove   float64
	ShuntOffBelow  float64
	AutoAdvance    bool
	ShuntActiveLow bool
	Debug          bool
}

func defaultConfig() config {
	node := eps.DefaultConfig()
	loop := polling.DefaultConfig()
	return config{
		Baud:          115200,
		QueueCapacity: node.QueueCapacity,
		PassInterval:  loop.PassInterval,
		IdleInterval:  loop.IdleInterval,
		ShuntInterval: loop.ShuntInterval,
		ShuntOnAbove:  node.Shunts.OnAbove,
		ShuntOffBelow: node.Shunts.OffBelow,
		AutoAdvance:   node.AutoAdvance,
	}
}

// nodeConfig returns the eps.Config for c.
func (c config) nodeConfig() eps.Config {
	cfg := eps.DefaultConfig()
	cfg.QueueCapacity = c.QueueCapacity
	cfg.AutoAdvance = c.AutoAdvance
	cfg.Shunts = eps.ShuntThresholds{OnAbove: c.ShuntOnAbove, OffBelow: c.ShuntOffBelow}
	return cfg
}

// loopConfig returns the polling.Config for c.
func (c config) loopConfig() *polling.Config {
	cfg := polling.DefaultConfig()
	cfg.PassInterval = c.PassInterval
	cfg.IdleInterval = c.IdleInterval
	cfg.ShuntInterval = c.ShuntInterval
	return cfg
}

// fileConfig mirrors config but uses strings for durations to make TOML friendly.
type fileConfig struct {
	Port           string  `toml:"port"`
	ShuntPin       string  `toml:"shunt_pin"`
	LogDir         string  `toml:"log_dir"`
	PassInterval   string  `toml:"pass_interval"`
	IdleInterval   string  `toml:"idle_interval"`
	ShuntInterval  string  `toml:"shunt_interval"`
	Baud           int     `toml:"baud"`
	QueueCapacity  int     `toml:"queue_capacity"`
	ShuntOnAbove   float64 `toml:"shunt_on_above"`
	ShuntOffBelow  float64 `toml:"shunt_off_below"`
	AutoAdvance    *bool   `toml:"auto_advance"`
	ShuntActiveLow *bool   `toml:"shunt_active_low"`
	Debug          *bool   `toml:"debug"`
}

// loadFileConfig reads and parses a TOML config file from the given path.
func loadFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	b, err := os.ReadFile(path) //nolint:gosec // path is user supplied on purpose
	if err != nil {
		return fc, fmt.Errorf("read %s: %w", path, err)
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

// defaultConfigPath returns ~/.epsnode/config.toml if the home directory
// is accessible.
func defaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".epsnode", "config.toml")
	}
	return ""
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// applyFileConfig copies file values into cfg, skipping every flag the user
// set explicitly.
func applyFileConfig(cfg *config, fc fileConfig, changed map[string]bool) error {
	s := configSetter{changed: changed}

	s.setString("port", fc.Port, &cfg.Port)
	s.setString("shunt-pin", fc.ShuntPin, &cfg.ShuntPin)
	s.setString("log-dir", fc.LogDir, &cfg.LogDir)

	if err := s.setDuration("pass-interval", fc.PassInterval, &cfg.PassInterval); err != nil {
		return err
	}
	if err := s.setDuration("idle-interval", fc.IdleInterval, &cfg.IdleInterval); err != nil {
		return err
	}
	if err := s.setDuration("shunt-interval", fc.ShuntInterval, &cfg.ShuntInterval); err != nil {
		return err
	}

	s.setInt("baud", fc.Baud, &cfg.Baud)
	s.setInt("queue-capacity", fc.QueueCapacity, &cfg.QueueCapacity)
	s.setFloat("shunt-on-above", fc.ShuntOnAbove, &cfg.ShuntOnAbove)
	s.setFloat("shunt-off-below", fc.ShuntOffBelow, &cfg.ShuntOffBelow)

	s.setBool("auto-advance", fc.AutoAdvance, &cfg.AutoAdvance)
	s.setBool("shunt-active-low", fc.ShuntActiveLow, &cfg.ShuntActiveLow)
	s.setBool("debug", fc.Debug, &cfg.Debug)
	return nil
}

type configSetter struct {
	changed map[string]bool
}

// setString sets a string value if not empty and flag not changed.
func (s configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setFloat sets a float64 value if positive and flag not changed.
func (s configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration if valid and flag not changed.
func (s configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}
