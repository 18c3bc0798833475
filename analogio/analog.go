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

// Package analogio connects the EPS node's ADC, DAC and shunt collaborators
// to periph.io analog and GPIO pins, and provides an in-memory board for
// simulation and tests.
package analogio

import (
	"errors"
	"fmt"

	"github.com/cubesat-eps/go-eps"
	"github.com/cubesat-eps/go-eps/convert"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/physic"
)

// ErrNoPin is returned for a channel that has no pin wired.
var ErrNoPin = errors.New("no pin for channel")

// Sampler is the reading half of analog.PinADC.
type Sampler interface {
	Read() (analog.Sample, error)
}

// Output is the writing half of analog.PinDAC.
type Output interface {
	Out(v physic.ElectricPotential) error
}

// ADC reads analog pins and reports each voltage as the code the board's
// ADC would produce for it, so pins of any resolution can stand in for the
// converter.
type ADC struct {
	pipeline *convert.Pipeline
	pins     map[eps.ADCChannel]Sampler
}

// NewADC creates an ADC over pins.
func NewADC(p *convert.Pipeline, pins map[eps.ADCChannel]Sampler) *ADC {
	return &ADC{pipeline: p, pins: pins}
}

// ReadRaw implements eps.ADC.
func (a *ADC) ReadRaw(ch eps.ADCChannel) (uint16, error) {
	pin, ok := a.pins[ch]
	if !ok {
		return 0, fmt.Errorf("%w: ADC %d", ErrNoPin, ch)
	}
	s, err := pin.Read()
	if err != nil {
		return 0, fmt.Errorf("ADC %d: %w", ch, err)
	}
	return a.pipeline.ADCVoltageToCode(Volts(s.V)), nil
}

// DAC drives analog output pins with the voltage the board's DAC would
// output for a code.
type DAC struct {
	pipeline *convert.Pipeline
	pins     map[eps.DACChannel]Output
}

// NewDAC creates a DAC over pins.
func NewDAC(p *convert.Pipeline, pins map[eps.DACChannel]Output) *DAC {
	return &DAC{pipeline: p, pins: pins}
}

// WriteRaw implements eps.DAC.
func (d *DAC) WriteRaw(ch eps.DACChannel, code uint16) error {
	pin, ok := d.pins[ch]
	if !ok {
		return fmt.Errorf("%w: DAC %d", ErrNoPin, ch)
	}
	if err := pin.Out(Potential(d.pipeline.DACCodeToVoltage(code))); err != nil {
		return fmt.Errorf("DAC %d: %w", ch, err)
	}
	return nil
}

// Volts converts a periph potential to volts.
func Volts(v physic.ElectricPotential) float64 {
	return float64(v) / float64(physic.Volt)
}

// Potential converts volts to a periph potential.
func Potential(volts float64) physic.ElectricPotential {
	return physic.ElectricPotential(volts * float64(physic.Volt))
}
