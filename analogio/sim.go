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

	"github.com/cubesat-eps/go-eps"
	"github.com/cubesat-eps/go-eps/convert"
	"github.com/cubesat-eps/go-eps/frame"
	"github.com/cubesat-eps/go-eps/internal/syncutil"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/physic"
)

// SimBoard is an in-memory EPS board: settable analog inputs and IMU axes,
// analog outputs that remember their level, and a shunt switch. The analog
// channels are exposed as pins, so the node reaches them through the same
// ADC and DAC adapters as real hardware. It is safe for concurrent use so a
// simulation can change inputs while the node runs.
type SimBoard struct {
	pipeline *convert.Pipeline
	adc      map[eps.ADCChannel]uint16
	dac      map[eps.DACChannel]uint16
	imu      map[eps.IMUAxis]uint16
	mu       syncutil.Mutex
	shunts   bool
}

// NewSimBoard creates a board with every input at code 0.
func NewSimBoard(p *convert.Pipeline) *SimBoard {
	return &SimBoard{
		pipeline: p,
		adc:      make(map[eps.ADCChannel]uint16),
		dac:      make(map[eps.DACChannel]uint16),
		imu:      make(map[eps.IMUAxis]uint16),
	}
}

// Hardware returns the board as node collaborators.
func (b *SimBoard) Hardware() eps.Hardware {
	return eps.Hardware{
		ADC:    NewADC(b.pipeline, b.ADCPins()),
		DAC:    NewDAC(b.pipeline, b.DACPins()),
		IMU:    b,
		Shunts: b,
	}
}

// ADCPins returns one input pin per ADC channel.
func (b *SimBoard) ADCPins() map[eps.ADCChannel]Sampler {
	pins := make(map[eps.ADCChannel]Sampler)
	for ch := eps.ADCBBVol; ch <= eps.ADCBTVol; ch++ {
		pins[ch] = simInput{board: b, ch: ch}
	}
	return pins
}

// DACPins returns one output pin per heater DAC channel.
func (b *SimBoard) DACPins() map[eps.DACChannel]Output {
	return map[eps.DACChannel]Output{
		eps.DACHeater1: simOutput{board: b, ch: eps.DACHeater1},
		eps.DACHeater2: simOutput{board: b, ch: eps.DACHeater2},
	}
}

type simInput struct {
	board *SimBoard
	ch    eps.ADCChannel
}

func (in simInput) Read() (analog.Sample, error) {
	var code uint16
	in.board.mu.Critical(func() { code = in.board.adc[in.ch] })
	return analog.Sample{V: Potential(in.board.pipeline.ADCCodeToVoltage(code)), Raw: int32(code)}, nil
}

type simOutput struct {
	board *SimBoard
	ch    eps.DACChannel
}

func (out simOutput) Out(v physic.ElectricPotential) error {
	code := out.board.pipeline.DACVoltageToCode(Volts(v))
	out.board.mu.Critical(func() { out.board.dac[out.ch] = code })
	return nil
}

// ReadAxis implements eps.IMU.
func (b *SimBoard) ReadAxis(axis eps.IMUAxis) (v uint16, err error) {
	b.mu.Critical(func() { v = b.imu[axis] })
	return v, nil
}

// SetShunts implements eps.ShuntSwitch.
func (b *SimBoard) SetShunts(on bool) error {
	b.mu.Critical(func() { b.shunts = on })
	return nil
}

// SetADC sets an ADC input to the voltage that reads as code.
func (b *SimBoard) SetADC(ch eps.ADCChannel, code uint16) {
	b.mu.Critical(func() { b.adc[ch] = code })
}

// SetAxis sets the value an IMU axis reads.
func (b *SimBoard) SetAxis(axis eps.IMUAxis, v uint16) {
	b.mu.Critical(func() { b.imu[axis] = v })
}

// SetPhysical sets the sensor behind field f to a value in the field's unit.
// Heater setpoint fields are outputs and cannot be set.
func (b *SimBoard) SetPhysical(f frame.Field, v float64) error {
	m, ok := eps.Measurement(f)
	if !ok {
		return fmt.Errorf("%w: %d", eps.ErrUnknownField, uint8(f))
	}
	code := m.FromPhysical(b.pipeline, v)
	switch m.Source {
	case eps.SourceADC:
		b.SetADC(m.ADC, code)
	case eps.SourceIMU:
		b.SetAxis(m.Axis, code)
	default:
		return fmt.Errorf("%w: %s is an output", eps.ErrNoSensor, f)
	}
	return nil
}

// DACCode returns the code for the last level driven on ch.
func (b *SimBoard) DACCode(ch eps.DACChannel) (code uint16) {
	b.mu.Critical(func() { code = b.dac[ch] })
	return code
}

// Shunts reports whether the shunts are on.
func (b *SimBoard) Shunts() (on bool) {
	b.mu.Critical(func() { on = b.shunts })
	return on
}
