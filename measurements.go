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
)

// Source says where a housekeeping field's raw value comes from.
type Source int

// Measurement sources
const (
	SourceADC Source = iota
	SourceHeater
	SourceIMU
)

// Quantity selects the conversion pair applied to a raw value.
type Quantity int

// Physical quantities reported in housekeeping
const (
	QuantityVoltage    Quantity = iota // Bus or battery voltage, V
	QuantityCurrent                    // Bus, panel or battery current, A
	QuantityThermistor                 // Thermistor ADC reading, °C
	QuantitySetpoint                   // Heater DAC code, °C
	QuantityRaw                        // Reported as-is
)

// MeasurementChannel ties a housekeeping field to its sensor input and the
// conversion pair for that input.
type MeasurementChannel struct {
	Field    frame.Field
	Source   Source
	ADC      ADCChannel // SourceADC
	Heater   HeaterID   // SourceHeater
	Axis     IMUAxis    // SourceIMU
	Quantity Quantity
}

var measurementTable = [frame.FieldCount]MeasurementChannel{
	{Field: frame.FieldBBVol, Source: SourceADC, ADC: ADCBBVol, Quantity: QuantityVoltage},
	{Field: frame.FieldBBCur, Source: SourceADC, ADC: ADCBBCur, Quantity: QuantityCurrent},
	{Field: frame.FieldNYCur, Source: SourceADC, ADC: ADCNYCur, Quantity: QuantityCurrent},
	{Field: frame.FieldPXCur, Source: SourceADC, ADC: ADCPXCur, Quantity: QuantityCurrent},
	{Field: frame.FieldPYCur, Source: SourceADC, ADC: ADCPYCur, Quantity: QuantityCurrent},
	{Field: frame.FieldNXCur, Source: SourceADC, ADC: ADCNXCur, Quantity: QuantityCurrent},
	{Field: frame.FieldBatTemp1, Source: SourceADC, ADC: ADCTherm1, Quantity: QuantityThermistor},
	{Field: frame.FieldBatTemp2, Source: SourceADC, ADC: ADCTherm2, Quantity: QuantityThermistor},
	{Field: frame.FieldBatVol, Source: SourceADC, ADC: ADCPackVol, Quantity: QuantityVoltage},
	{Field: frame.FieldBatCur, Source: SourceADC, ADC: ADCPackCur, Quantity: QuantityCurrent},
	{Field: frame.FieldBTCur, Source: SourceADC, ADC: ADCBTCur, Quantity: QuantityCurrent},
	{Field: frame.FieldHeatSP1, Source: SourceHeater, Heater: Heater1, Quantity: QuantitySetpoint},
	{Field: frame.FieldHeatSP2, Source: SourceHeater, Heater: Heater2, Quantity: QuantitySetpoint},
	{Field: frame.FieldIMUAccX, Source: SourceIMU, Axis: IMUAccX, Quantity: QuantityRaw},
	{Field: frame.FieldIMUAccY, Source: SourceIMU, Axis: IMUAccY, Quantity: QuantityRaw},
	{Field: frame.FieldIMUAccZ, Source: SourceIMU, Axis: IMUAccZ, Quantity: QuantityRaw},
	{Field: frame.FieldIMUGyrX, Source: SourceIMU, Axis: IMUGyrX, Quantity: QuantityRaw},
	{Field: frame.FieldIMUGyrY, Source: SourceIMU, Axis: IMUGyrY, Quantity: QuantityRaw},
	{Field: frame.FieldIMUGyrZ, Source: SourceIMU, Axis: IMUGyrZ, Quantity: QuantityRaw},
	{Field: frame.FieldIMUMagX, Source: SourceIMU, Axis: IMUMagX, Quantity: QuantityRaw},
	{Field: frame.FieldIMUMagY, Source: SourceIMU, Axis: IMUMagY, Quantity: QuantityRaw},
	{Field: frame.FieldIMUMagZ, Source: SourceIMU, Axis: IMUMagZ, Quantity: QuantityRaw},
}

// Measurement returns the channel behind field f.
func Measurement(f frame.Field) (MeasurementChannel, bool) {
	if !f.Valid() {
		return MeasurementChannel{}, false
	}
	return measurementTable[f], true
}

// Unit returns the unit of ToPhysical's result.
func (m MeasurementChannel) Unit() string {
	switch m.Quantity {
	case QuantityVoltage:
		return "V"
	case QuantityCurrent:
		return "A"
	case QuantityThermistor, QuantitySetpoint:
		return "C"
	default:
		return ""
	}
}

// ToPhysical converts a raw housekeeping value to the channel's unit.
func (m MeasurementChannel) ToPhysical(p *convert.Pipeline, raw uint16) float64 {
	switch m.Quantity {
	case QuantityVoltage:
		return p.ADCCodeToEPSVoltage(raw)
	case QuantityCurrent:
		return p.ADCCodeToEPSCurrent(raw)
	case QuantityThermistor:
		return p.ADCCodeToTemperature(raw)
	case QuantitySetpoint:
		return p.DACCodeToTemperature(raw)
	default:
		return float64(raw)
	}
}

// FromPhysical converts a value in the channel's unit to the raw code the
// channel would report.
func (m MeasurementChannel) FromPhysical(p *convert.Pipeline, v float64) uint16 {
	switch m.Quantity {
	case QuantityVoltage:
		return p.EPSVoltageToADCCode(v)
	case QuantityCurrent:
		return p.EPSCurrentToADCCode(v)
	case QuantityThermistor:
		return p.TemperatureToADCCode(v)
	case QuantitySetpoint:
		return p.TemperatureToDACCode(v)
	default:
		switch {
		case v != v || v <= 0: // NaN or negative
			return 0
		case v >= 0xFFFF:
			return 0xFFFF
		}
		return uint16(v)
	}
}

// Sampler reads the raw value of one housekeeping field.
type Sampler interface {
	Sample(f frame.Field) (uint16, error)
}

// HardwareSampler reads fields from the board collaborators and the heater
// controller's applied setpoints.
type HardwareSampler struct {
	hw      Hardware
	heaters *HeaterController
}

// NewHardwareSampler creates a sampler over hw and heaters.
func NewHardwareSampler(hw Hardware, heaters *HeaterController) *HardwareSampler {
	return &HardwareSampler{hw: hw, heaters: heaters}
}

// Sample implements Sampler. A missing IMU reports zero on every axis.
func (s *HardwareSampler) Sample(f frame.Field) (uint16, error) {
	m, ok := Measurement(f)
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownField, uint8(f))
	}
	return s.read(m)
}

func (s *HardwareSampler) read(m MeasurementChannel) (uint16, error) {
	f := m.Field
	switch m.Source {
	case SourceADC:
		if s.hw.ADC == nil {
			return 0, fmt.Errorf("%w: %s", ErrNoSensor, f)
		}
		raw, err := s.hw.ADC.ReadRaw(m.ADC)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %w", ErrSensorRead, f, err)
		}
		return raw, nil
	case SourceHeater:
		if s.heaters == nil {
			return 0, fmt.Errorf("%w: %s", ErrNoSensor, f)
		}
		sp, ok := s.heaters.Setpoint(m.Heater)
		if !ok {
			return 0, fmt.Errorf("%w: %s: no %s", ErrNoSensor, f, m.Heater)
		}
		return sp.Code, nil
	case SourceIMU:
		if s.hw.IMU == nil {
			return 0, nil
		}
		raw, err := s.hw.IMU.ReadAxis(m.Axis)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %w", ErrSensorRead, f, err)
		}
		return raw, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrNoSensor, f)
	}
}
