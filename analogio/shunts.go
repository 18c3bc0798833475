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

package analogio

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// Level is the output half of gpio.PinOut.
type Level interface {
	Out(l gpio.Level) error
}

// GPIOShunts drives the shunt MOSFETs from a GPIO line.
type GPIOShunts struct {
	pin       Level
	activeLow bool
}

// NewGPIOShunts creates a shunt switch on pin. With activeLow the shunts
// are on when the line is low.
func NewGPIOShunts(pin Level, activeLow bool) *GPIOShunts {
	return &GPIOShunts{pin: pin, activeLow: activeLow}
}

// OpenGPIOShunts resolves a pin by name from the periph registry. The host
// drivers must already be initialized.
func OpenGPIOShunts(name string, activeLow bool) (*GPIOShunts, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("%w: GPIO %q", ErrNoPin, name)
	}
	return NewGPIOShunts(p, activeLow), nil
}

// SetShunts implements eps.ShuntSwitch.
func (s *GPIOShunts) SetShunts(on bool) error {
	level := gpio.Level(on != s.activeLow)
	if err := s.pin.Out(level); err != nil {
		return fmt.Errorf("shunt GPIO: %w", err)
	}
	return nil
}
