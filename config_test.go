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

package eps

import (
	"testing"

	"github.com/cubesat-eps/go-eps/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8, cfg.QueueCapacity)
	assert.True(t, cfg.AutoAdvance)
	assert.Equal(t, MailboxDataTX, cfg.DataTXMailbox)
	assert.ElementsMatch(t, []frame.MessageType{frame.MsgEPSHousekeeping, frame.MsgEPSControl}, cfg.AcceptedTypes)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mutate  func(*Config)
		name    string
		wantMsg string
	}{
		{name: "zero capacity", mutate: func(c *Config) { c.QueueCapacity = 0 }, wantMsg: "queue capacity"},
		{name: "no accepted types", mutate: func(c *Config) { c.AcceptedTypes = nil }, wantMsg: "accepted"},
		{name: "data mailbox not a drain", mutate: func(c *Config) { c.DataTXMailbox = MailboxCmdRX }, wantMsg: "TX drain"},
		{
			name:    "inverted shunt band",
			mutate:  func(c *Config) { c.Shunts = ShuntThresholds{OnAbove: 7, OffBelow: 8} },
			wantMsg: "shunt",
		},
		{
			name:    "broken calibration",
			mutate:  func(c *Config) { c.Calibration.ADC.Bits = 0 },
			wantMsg: "ADC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
