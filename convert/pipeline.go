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

package convert

import (
	"errors"
	"fmt"
	"math"
)

// Converter describes one ADC or DAC: its resolution and the voltage that the
// full-scale code corresponds to (VRef * Gain).
type Converter struct {
	Bits int
	VRef float64
	Gain float64 // 0 means unity
}

// FullScale returns the voltage at the maximum code.
func (c Converter) FullScale() float64 {
	if c.Gain == 0 {
		return c.VRef
	}
	return c.VRef * c.Gain
}

// MaxCode returns the largest code the converter produces or accepts.
func (c Converter) MaxCode() uint16 {
	return uint16(1<<c.Bits - 1)
}

// Step returns the voltage represented by one code.
func (c Converter) Step() float64 {
	return c.FullScale() / float64(c.MaxCode())
}

// VoltageToCode returns the nearest code for volts.
func (c Converter) VoltageToCode(volts float64) uint16 {
	volts = clamp(volts, 0, c.FullScale())
	return uint16(math.Round(volts / c.FullScale() * float64(c.MaxCode())))
}

// CodeToVoltage returns the voltage represented by code.
func (c Converter) CodeToVoltage(code uint16) float64 {
	if code > c.MaxCode() {
		code = c.MaxCode()
	}
	return float64(code) / float64(c.MaxCode()) * c.FullScale()
}

// Divider is the thermistor voltage divider: the thermistor to ground, RRef
// to the VRef supply, the ADC or DAC on the midpoint.
type Divider struct {
	RRef float64 // kΩ
	VRef float64 // V
}

// ResistanceToVoltage returns the midpoint voltage for a thermistor of
// kiloOhms. Negative resistances saturate to 0.
func (d Divider) ResistanceToVoltage(kiloOhms float64) float64 {
	if math.IsInf(kiloOhms, 1) {
		return d.VRef
	}
	kiloOhms = math.Max(0, kiloOhms)
	if math.IsNaN(kiloOhms) {
		return 0
	}
	return d.VRef * kiloOhms / (kiloOhms + d.RRef)
}

// VoltageToResistance inverts ResistanceToVoltage. A midpoint at or above
// VRef is an open thermistor and returns +Inf; at or below 0 returns 0.
func (d Divider) VoltageToResistance(volts float64) float64 {
	switch {
	case math.IsNaN(volts) || volts <= 0:
		return 0
	case volts >= d.VRef:
		return math.Inf(1)
	}
	return d.RRef * volts / (d.VRef - volts)
}

// VoltageChannel is the resistive divider in front of a bus or battery
// voltage ADC input.
type VoltageChannel struct {
	High float64 // kΩ, input side
	Low  float64 // kΩ, ground side
}

// Ratio returns input volts per ADC volt.
func (v VoltageChannel) Ratio() float64 {
	return (v.High + v.Low) / v.Low
}

// CurrentChannel is a shunt resistor followed by a current-sense amplifier.
type CurrentChannel struct {
	Resistor float64 // Ω
	Gain     float64
	Offset   float64 // amplifier output at zero current, V
}

// Calibration holds every constant of the analog chain.
type Calibration struct {
	Thermistor Curve
	Divider    Divider
	ADC        Converter
	DAC        Converter
	Voltage    VoltageChannel
	Current    CurrentChannel
}

// DefaultCalibration returns the EPS board constants.
func DefaultCalibration() Calibration {
	return Calibration{
		Thermistor: DefaultCurve(),
		Divider:    Divider{RRef: DefaultThermRRef, VRef: DefaultThermVRef},
		ADC:        Converter{Bits: DefaultBits, VRef: DefaultADCVRef},
		DAC:        Converter{Bits: DefaultBits, VRef: DefaultDACVRef, Gain: DefaultDACGain},
		Voltage:    VoltageChannel{High: DefaultVoltageDividerHigh, Low: DefaultVoltageDividerLow},
		Current: CurrentChannel{
			Resistor: DefaultSenseResistor,
			Gain:     DefaultSenseGain,
			Offset:   DefaultSenseOffset,
		},
	}
}

// Validate reports constants that would make a conversion undefined.
func (c Calibration) Validate() error {
	if err := c.Thermistor.Validate(); err != nil {
		return err
	}
	var errs []error
	if c.Divider.RRef <= 0 || c.Divider.VRef <= 0 {
		errs = append(errs, fmt.Errorf("thermistor divider needs positive RRef and VRef, got %v kΩ / %v V",
			c.Divider.RRef, c.Divider.VRef))
	}
	for _, conv := range []struct {
		name string
		Converter
	}{{"ADC", c.ADC}, {"DAC", c.DAC}} {
		if conv.Bits < 1 || conv.Bits > 16 {
			errs = append(errs, fmt.Errorf("%s resolution must be 1-16 bits, got %d", conv.name, conv.Bits))
		}
		if conv.FullScale() <= 0 {
			errs = append(errs, fmt.Errorf("%s full scale must be positive, got %v V", conv.name, conv.FullScale()))
		}
	}
	if c.Voltage.High < 0 || c.Voltage.Low <= 0 {
		errs = append(errs, fmt.Errorf("voltage divider arms invalid: %v / %v kΩ", c.Voltage.High, c.Voltage.Low))
	}
	if c.Current.Resistor <= 0 || c.Current.Gain <= 0 {
		errs = append(errs, fmt.Errorf("current sense needs positive resistor and gain, got %v Ω x%v",
			c.Current.Resistor, c.Current.Gain))
	}
	return errors.Join(errs...)
}

// Pipeline performs the conversions for one Calibration. It is immutable and
// safe for concurrent use.
type Pipeline struct {
	cal Calibration
}

// New returns a pipeline for cal after validating it.
func New(cal Calibration) (*Pipeline, error) {
	if err := cal.Validate(); err != nil {
		return nil, fmt.Errorf("invalid calibration: %w", err)
	}
	return &Pipeline{cal: cal}, nil
}

// Default returns a pipeline using DefaultCalibration.
func Default() *Pipeline {
	return &Pipeline{cal: DefaultCalibration()}
}

// Calibration returns the constants in use.
func (p *Pipeline) Calibration() Calibration {
	return p.cal
}

// TemperatureToResistance returns the thermistor resistance in kΩ at celsius.
func (p *Pipeline) TemperatureToResistance(celsius float64) float64 {
	return p.cal.Thermistor.Resistance(celsius)
}

// ResistanceToTemperature returns °C for a thermistor resistance in kΩ.
func (p *Pipeline) ResistanceToTemperature(kiloOhms float64) float64 {
	return p.cal.Thermistor.Temperature(kiloOhms)
}

// ResistanceToVoltage returns the divider midpoint voltage.
func (p *Pipeline) ResistanceToVoltage(kiloOhms float64) float64 {
	return p.cal.Divider.ResistanceToVoltage(kiloOhms)
}

// VoltageToResistance returns the thermistor resistance for a midpoint voltage.
func (p *Pipeline) VoltageToResistance(volts float64) float64 {
	return p.cal.Divider.VoltageToResistance(volts)
}

// ADCCodeToVoltage returns the ADC input voltage for code.
func (p *Pipeline) ADCCodeToVoltage(code uint16) float64 {
	return p.cal.ADC.CodeToVoltage(code)
}

// ADCVoltageToCode returns the ADC code for an input voltage.
func (p *Pipeline) ADCVoltageToCode(volts float64) uint16 {
	return p.cal.ADC.VoltageToCode(volts)
}

// DACCodeToVoltage returns the DAC output voltage for code.
func (p *Pipeline) DACCodeToVoltage(code uint16) float64 {
	return p.cal.DAC.CodeToVoltage(code)
}

// DACVoltageToCode returns the DAC code producing volts.
func (p *Pipeline) DACVoltageToCode(volts float64) uint16 {
	return p.cal.DAC.VoltageToCode(volts)
}

// TemperatureToDACCode runs temperature -> resistance -> voltage -> code. The
// result drives a heater comparator so the heater regulates at celsius.
func (p *Pipeline) TemperatureToDACCode(celsius float64) uint16 {
	return p.DACVoltageToCode(p.ResistanceToVoltage(p.TemperatureToResistance(celsius)))
}

// DACCodeToTemperature is the exact inverse of TemperatureToDACCode up to
// quantization.
func (p *Pipeline) DACCodeToTemperature(code uint16) float64 {
	return p.ResistanceToTemperature(p.VoltageToResistance(p.DACCodeToVoltage(code)))
}

// ADCCodeToTemperature converts a raw thermistor reading to °C.
func (p *Pipeline) ADCCodeToTemperature(code uint16) float64 {
	return p.ResistanceToTemperature(p.VoltageToResistance(p.ADCCodeToVoltage(code)))
}

// TemperatureToADCCode returns the reading a thermistor at celsius produces.
func (p *Pipeline) TemperatureToADCCode(celsius float64) uint16 {
	return p.ADCVoltageToCode(p.ResistanceToVoltage(p.TemperatureToResistance(celsius)))
}

// ADCCodeToEPSVoltage converts a voltage channel reading to input volts.
func (p *Pipeline) ADCCodeToEPSVoltage(code uint16) float64 {
	return p.ADCCodeToVoltage(code) * p.cal.Voltage.Ratio()
}

// EPSVoltageToADCCode returns the reading for an input of volts.
func (p *Pipeline) EPSVoltageToADCCode(volts float64) uint16 {
	return p.ADCVoltageToCode(volts / p.cal.Voltage.Ratio())
}

// ADCCodeToEPSCurrent converts a current channel reading to amps.
func (p *Pipeline) ADCCodeToEPSCurrent(code uint16) float64 {
	c := p.cal.Current
	return (p.ADCCodeToVoltage(code) - c.Offset) / (c.Resistor * c.Gain)
}

// EPSCurrentToADCCode returns the reading for a current of amps.
func (p *Pipeline) EPSCurrentToADCCode(amps float64) uint16 {
	c := p.cal.Current
	return p.ADCVoltageToCode(amps*c.Resistor*c.Gain + c.Offset)
}
