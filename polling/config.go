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

package polling

import (
	"fmt"
	"time"
)

// Config holds main loop timing options
type Config struct {
	// PassInterval is the delay between passes while frames are moving.
	PassInterval time.Duration
	// IdleInterval is the delay between passes once the node has been quiet
	// for IdleAfter. Zero keeps PassInterval.
	IdleInterval time.Duration
	IdleAfter    time.Duration
	// ShuntInterval is the period of battery shunt control. Zero disables it.
	ShuntInterval time.Duration
}

// DefaultConfig returns the default loop configuration
func DefaultConfig() *Config {
	return &Config{
		PassInterval:  time.Millisecond,
		IdleInterval:  20 * time.Millisecond,
		IdleAfter:     time.Second,
		ShuntInterval: 5 * time.Second,
	}
}

// Validate reports intervals the loop cannot run with.
func (c *Config) Validate() error {
	if c.PassInterval <= 0 {
		return fmt.Errorf("pass interval must be positive, got %v", c.PassInterval)
	}
	if c.IdleInterval < 0 || c.IdleAfter < 0 || c.ShuntInterval < 0 {
		return fmt.Errorf("intervals must not be negative: idle %v after %v, shunts %v",
			c.IdleInterval, c.IdleAfter, c.ShuntInterval)
	}
	return nil
}

// idleInterval returns the interval to use once the node is quiet.
func (c *Config) idleInterval() time.Duration {
	if c.IdleInterval <= 0 {
		return c.PassInterval
	}
	return c.IdleInterval
}
