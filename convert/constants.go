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

// Package convert maps between physical quantities and converter codes for
// the EPS analog front end: thermistor temperature, thermistor resistance,
// divider voltage and 12-bit ADC/DAC codes, plus the bus/battery voltage and
// current channels.
//
// All conversions are pure. Inputs outside a function's calibrated domain are
// saturated to the nearest boundary of that domain instead of producing
// undefined or non-finite results.
package convert

// Converter defaults (12-bit ADC and DAC on the EPS board)
const (
	DefaultBits = 12

	// ADC reference voltage
	DefaultADCVRef = 5.0

	// DAC internal reference and output gain; full scale is VRef * Gain.
	DefaultDACVRef = 2.5
	DefaultDACGain = 2.0
)

// Thermistor divider defaults. The thermistor forms the low side of a divider
// with a fixed reference resistor fed from the divider supply.
const (
	DefaultThermRRef = 10.0 // kΩ
	DefaultThermVRef = 2.5  // V
)

// EPS measurement chain defaults
const (
	// Voltage channels sit behind a resistive divider with equal arms.
	DefaultVoltageDividerHigh = 10.0 // kΩ
	DefaultVoltageDividerLow  = 10.0 // kΩ

	// Current channels go through a shunt resistor and a fixed-gain
	// current-sense amplifier referenced to ground.
	DefaultSenseResistor = 0.002 // Ω
	DefaultSenseGain     = 100.0
	DefaultSenseOffset   = 0.0 // V at zero current
)

// Heater setpoints that define "off" and "fully on" for the heater drivers.
const (
	HeaterOffCelsius = 0.0
	HeaterOnCelsius  = 100.0
)

// defaultCurve is the resistance-temperature table of the 10 kΩ NTC
// thermistors (B25/85 = 3435 K), -40 °C to 125 °C in 5 °C steps.
var defaultCurve = Curve{
	StartCelsius: -40,
	StepCelsius:  5,
	KiloOhms: []float64{
		248.2765, 182.2212, 135.4525, 101.8980, 77.5225, 59.6060,
		46.2902, 36.2897, 28.7043, 22.8966, 18.4104, 14.9157,
		12.1714, 10.0000, 8.2694, 6.8806, 5.7588, 4.8469,
		4.1012, 3.4879, 2.9809, 2.5593, 2.2072, 1.9117,
		1.6624, 1.4513, 1.2718, 1.1185, 0.9870, 0.8739,
		0.7762, 0.6916, 0.6180, 0.5537,
	},
}
