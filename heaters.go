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
	"github.com/cubesat-eps/go-eps/frame"
	"github.com/cubesat-eps/go-eps/queue"
	"periph.io/x/conn/v3/physic"
)

// HeaterID selects one of the two battery heaters.
type HeaterID uint8

// Heaters
const (
	Heater1 HeaterID = iota
	Heater2

	HeaterCount = 2
)

// HeaterForCommand maps a control command id to the heater it addresses.
func HeaterForCommand(cmd uint8) (HeaterID, bool) {
	switch cmd {
	case frame.CmdHeaterSetpoint1:
		return Heater1, true
	case frame.CmdHeaterSetpoint2:
		return Heater2, true
	default:
		return 0, false
	}
}

// Command returns the control command id addressing h.
func (h HeaterID) Command() uint8 {
	if h == Heater2 {
		return frame.CmdHeaterSetpoint2
	}
	return frame.CmdHeaterSetpoint1
}

// DAC returns the DAC output driving h.
func (h HeaterID) DAC() DACChannel {
	if h == Heater2 {
		return DACHeater2
	}
	return DACHeater1
}

func (h HeaterID) String() string {
	switch h {
	case Heater1:
		return "heater1"
	case Heater2:
		return "heater2"
	default:
		return fmt.Sprintf("heater(%d)", uint8(h))
	}
}

// HeaterChannel is the last applied setpoint of one heater.
type HeaterChannel struct {
	Code    uint16  // DAC code written to the heater comparator
	Celsius float64 // Temperature the code corresponds to
}

// Temperature returns the setpoint as a physic.Temperature.
func (c HeaterChannel) Temperature() physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(c.Celsius*float64(physic.Celsius))
}

// HeaterController applies heater setpoints to the DAC and remembers them
// for housekeeping. It is owned by the main loop and is not safe for
// concurrent use.
type HeaterController struct {
	pipeline *convert.Pipeline
	dac      DAC
	acks     *queue.Queue
	channels [HeaterCount]HeaterChannel
}

// NewHeaterController creates a controller writing through dac. When acks
// is non-nil every applied control command is echoed onto it.
func NewHeaterController(p *convert.Pipeline, dac DAC, acks *queue.Queue) *HeaterController {
	c := &HeaterController{pipeline: p, dac: dac, acks: acks}
	// Power-on state of the DAC is code 0, the hottest setpoint the
	// comparator can see; Init replaces it with "off".
	for i := range c.channels {
		c.channels[i] = HeaterChannel{Code: 0, Celsius: p.DACCodeToTemperature(0)}
	}
	return c
}

// Init turns both heaters off.
func (c *HeaterController) Init() error {
	return c.Off()
}

// Handle applies a MsgEPSControl frame.
func (c *HeaterController) Handle(f frame.Frame) error {
	if f.Type() != frame.MsgEPSControl {
		return fmt.Errorf("%w: %s", ErrUnknownMessageType, f.Type())
	}
	return c.Apply(f.Field(), f.Value())
}

// Apply writes code to the heater addressed by cmd. Codes wider than the DAC
// saturate to its full scale. The other heater is left untouched.
func (c *HeaterController) Apply(cmd uint8, code uint32) error {
	h, ok := HeaterForCommand(cmd)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownCommand, cmd)
	}

	maxCode := c.pipeline.Calibration().DAC.MaxCode()
	applied := maxCode
	if code < uint32(maxCode) {
		applied = uint16(code)
	} else if code > uint32(maxCode) {
		logger.Debug().Stringer("heater", h).Uint32("code", code).Uint16("max", maxCode).
			Msg("heater code saturated")
	}

	if err := c.set(h, applied); err != nil {
		return err
	}
	c.ack(h, applied)
	return nil
}

// SetTemperature drives heater h to the setpoint for celsius.
func (c *HeaterController) SetTemperature(h HeaterID, celsius float64) error {
	if h >= HeaterCount {
		return fmt.Errorf("%w: %d", ErrInvalidHeater, h)
	}
	return c.set(h, c.pipeline.TemperatureToDACCode(celsius))
}

// Off sets both heaters to the 0 °C setpoint.
func (c *HeaterController) Off() error {
	return c.setAll(convert.HeaterOffCelsius)
}

// On sets both heaters to the 100 °C setpoint.
func (c *HeaterController) On() error {
	return c.setAll(convert.HeaterOnCelsius)
}

// Setpoint returns the last applied setpoint of h.
func (c *HeaterController) Setpoint(h HeaterID) (HeaterChannel, bool) {
	if h >= HeaterCount {
		return HeaterChannel{}, false
	}
	return c.channels[h], true
}

func (c *HeaterController) setAll(celsius float64) error {
	for h := Heater1; h < HeaterCount; h++ {
		if err := c.SetTemperature(h, celsius); err != nil {
			return err
		}
	}
	return nil
}

func (c *HeaterController) set(h HeaterID, code uint16) error {
	if c.dac == nil {
		return fmt.Errorf("%w: no DAC for %s", ErrActuatorWrite, h)
	}
	if err := c.dac.WriteRaw(h.DAC(), code); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrActuatorWrite, h, err)
	}
	c.channels[h] = HeaterChannel{Code: code, Celsius: c.pipeline.DACCodeToTemperature(code)}
	logger.Debug().Stringer("heater", h).Uint16("code", code).
		Stringer("setpoint", c.channels[h].Temperature()).Msg("heater setpoint applied")
	return nil
}

func (c *HeaterController) ack(h HeaterID, code uint16) {
	if c.acks == nil {
		return
	}
	f := frame.New(frame.MsgEPSControl, h.Command(), uint32(code))
	if err := c.acks.Enqueue(f); err != nil {
		logger.Warn().Err(err).Stringer("heater", h).Uint16("code", code).Msg("control ack dropped")
	}
}
