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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cubesat-eps/go-eps/convert"
)

func boolPtr(b bool) *bool { return &b }

func TestApplyFileConfig(t *testing.T) {
	t.Parallel()

	fc := fileConfig{
		Port:          "/dev/ttyUSB1",
		PassInterval:  "5ms",
		Baud:          57600,
		QueueCapacity: 16,
		ShuntOnAbove:  8.4,
		AutoAdvance:   boolPtr(false),
	}

	tests := []struct {
		changed map[string]bool
		check   func(t *testing.T, cfg config)
		name    string
	}{
		{
			name: "file fills unset flags",
			check: func(t *testing.T, cfg config) {
				t.Helper()
				assert.Equal(t, "/dev/ttyUSB1", cfg.Port)
				assert.Equal(t, 5*time.Millisecond, cfg.PassInterval)
				assert.Equal(t, 57600, cfg.Baud)
				assert.Equal(t, 16, cfg.QueueCapacity)
				assert.InDelta(t, 8.4, cfg.ShuntOnAbove, 1e-9)
				assert.False(t, cfg.AutoAdvance)
			},
		},
		{
			name:    "changed flags win",
			changed: map[string]bool{"port": true, "baud": true, "auto-advance": true},
			check: func(t *testing.T, cfg config) {
				t.Helper()
				assert.Empty(t, cfg.Port)
				assert.Equal(t, 115200, cfg.Baud)
				assert.True(t, cfg.AutoAdvance)
				assert.Equal(t, 16, cfg.QueueCapacity)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			require.NoError(t, applyFileConfig(&cfg, fc, tt.changed))
			tt.check(t, cfg)
		})
	}
}

func TestApplyFileConfig_BadDuration(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	err := applyFileConfig(&cfg, fileConfig{IdleInterval: "soon"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "idle-interval")
}

func TestLoadFileConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	data := "port = \"/dev/ttyACM0\"\nshunt_interval = \"2s\"\nqueue_capacity = 4\nauto_advance = false\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	fc, err := loadFileConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0", fc.Port)
	assert.Equal(t, "2s", fc.ShuntInterval)
	assert.Equal(t, 4, fc.QueueCapacity)
	require.NotNil(t, fc.AutoAdvance)
	assert.False(t, *fc.AutoAdvance)

	_, err = loadFileConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestNodeConfigValid(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	require.NoError(t, cfg.nodeConfig().Validate())
	require.NoError(t, cfg.loopConfig().Validate())

	cfg.ShuntOnAbove, cfg.ShuntOffBelow = 7, 8
	require.Error(t, cfg.nodeConfig().Validate())
}

func TestRunSim(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		shunts      string
		batVol      float64
		autoAdvance bool
	}{
		{name: "auto advance charging", batVol: 7.4, autoAdvance: true, shunts: "shunts off"},
		{name: "peer paced full battery", batVol: 8.4, autoAdvance: false, shunts: "shunts on"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := defaultConfig()
			cfg.AutoAdvance = tt.autoAdvance
			var out bytes.Buffer
			err := runSim(context.Background(), cfg, simOptions{heater1: 28, heater2: 0, batVol: tt.batVol}, &out)
			require.NoError(t, err)

			text := out.String()
			assert.Contains(t, text, "Mag Z")
			assert.Contains(t, text, "BB Vol")
			assert.Equal(t, 2, strings.Count(text, "ack  "))
			assert.Contains(t, text, tt.shunts)
			assert.Contains(t, text, "0 dropped")
		})
	}
}

func TestRunSim_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	err := runSim(ctx, defaultConfig(), simOptions{batVol: 7.6}, &out)
	require.ErrorIs(t, err, context.Canceled)
}

func TestPrintTable(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.NoError(t, printTable(&out, convert.Default(), tableOptions{from: 0, to: 100, step: 50}))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "1518")
	assert.Contains(t, lines[3], "184")

	require.Error(t, printTable(&out, convert.Default(), tableOptions{from: 0, to: 10, step: 0}))
	require.Error(t, printTable(&out, convert.Default(), tableOptions{from: 10, to: 0, step: 1}))
}

func TestRootCommand_Convert(t *testing.T) {
	t.Parallel()

	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"convert", "--config", filepath.Join(t.TempDir(), "none.toml"),
		"--from", "20", "--to", "30", "--step", "10"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "DAC")
}
