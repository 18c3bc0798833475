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
	"fmt"

	"github.com/cubesat-eps/go-eps/convert"
)

// Default battery voltage thresholds for a 2S lithium pack
const (
	DefaultShuntOnAbove  = 8.2 // V
	DefaultShuntOffBelow = 7.9 // V
)

// ShuntThresholds is the battery voltage hysteresis band of shunt control.
type ShuntThresholds struct {
	OnAbove  float64 // Shunts on (charging off) at or above this voltage
	OffBelow float64 // Shunts off (charging on) at or below this voltage
}

// DefaultShuntThresholds returns the default band.
func DefaultShuntThresholds() ShuntThresholds {
	return ShuntThresholds{OnAbove: DefaultShuntOnAbove, OffBelow: DefaultShuntOffBelow}
}

// Validate checks that the band is non-empty.
func (t ShuntThresholds) Validate() error {
	if !(t.OffBelow < t.OnAbove) {
		return fmt.Errorf("%w: shunt off threshold %.3f V must be below on threshold %.3f V",
			ErrInvalidConfig, t.OffBelow, t.OnAbove)
	}
	return nil
}

// ShuntController switches the solar panel shunts on battery voltage.
// Inside the band the last state is held.
type ShuntController struct {
	pipeline   *convert.Pipeline
	adc        ADC
	sw         ShuntSwitch
	thresholds ShuntThresholds
	on         bool
	known      bool
}

// NewShuntController creates a controller reading the pack voltage from adc
// and switching sw.
func NewShuntController(p *convert.Pipeline, adc ADC, sw ShuntSwitch, t ShuntThresholds) *ShuntController {
	return &ShuntController{pipeline: p, adc: adc, sw: sw, thresholds: t}
}

// On reports whether the shunts were last switched on. known is false until
// the first switch.
func (c *ShuntController) On() (on, known bool) {
	return c.on, c.known
}

// TurnOn shorts the panels, stopping battery charging.
func (c *ShuntController) TurnOn() error {
	return c.set(true)
}

// TurnOff releases the panels, letting the battery charge.
func (c *ShuntController) TurnOff() error {
	return c.set(false)
}

// Control reads the battery voltage and switches the shunts if it left the
// band. It returns the measured voltage.
func (c *ShuntController) Control() (float64, error) {
	if c.adc == nil {
		return 0, fmt.Errorf("%w: battery voltage", ErrNoSensor)
	}
	raw, err := c.adc.ReadRaw(ADCPackVol)
	if err != nil {
		return 0, fmt.Errorf("%w: battery voltage: %w", ErrSensorRead, err)
	}
	volts := c.pipeline.ADCCodeToEPSVoltage(raw)

	switch {
	case volts >= c.thresholds.OnAbove:
		if !c.known || !c.on {
			return volts, c.set(true)
		}
	case volts <= c.thresholds.OffBelow:
		if !c.known || c.on {
			return volts, c.set(false)
		}
	case !c.known:
		// Inside the band with no history: let the battery charge.
		return volts, c.set(false)
	}
	return volts, nil
}

func (c *ShuntController) set(on bool) error {
	if c.sw == nil {
		return fmt.Errorf("%w: no shunt switch", ErrActuatorWrite)
	}
	if err := c.sw.SetShunts(on); err != nil {
		return fmt.Errorf("%w: shunts: %w", ErrActuatorWrite, err)
	}
	if !c.known || c.on != on {
		logger.Info().Bool("on", on).Msg("shunts switched")
	}
	c.on, c.known = on, true
	return nil
}
