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
	"sort"
)

// ErrCurveNotMonotonic is returned by Curve.Validate when resistance does not
// strictly fall as temperature rises.
var ErrCurveNotMonotonic = errors.New("thermistor curve is not strictly decreasing")

// Curve is a calibrated thermistor resistance table sampled at fixed
// temperature steps. Conversions interpolate linearly between samples, which
// keeps both directions exact inverses of each other.
type Curve struct {
	KiloOhms     []float64 // resistance at StartCelsius + i*StepCelsius
	StartCelsius float64
	StepCelsius  float64
}

// DefaultCurve returns a copy of the board's thermistor table.
func DefaultCurve() Curve {
	c := defaultCurve
	c.KiloOhms = append([]float64(nil), defaultCurve.KiloOhms...)
	return c
}

// Validate checks that the curve can be inverted.
func (c Curve) Validate() error {
	if len(c.KiloOhms) < 2 {
		return fmt.Errorf("thermistor curve needs at least 2 points, got %d", len(c.KiloOhms))
	}
	if c.StepCelsius <= 0 {
		return fmt.Errorf("thermistor curve step must be positive, got %v", c.StepCelsius)
	}
	for i := 1; i < len(c.KiloOhms); i++ {
		if c.KiloOhms[i] >= c.KiloOhms[i-1] || c.KiloOhms[i] <= 0 {
			return fmt.Errorf("%w at point %d", ErrCurveNotMonotonic, i)
		}
	}
	return nil
}

// MinCelsius returns the coldest calibrated temperature.
func (c Curve) MinCelsius() float64 { return c.StartCelsius }

// MaxCelsius returns the hottest calibrated temperature.
func (c Curve) MaxCelsius() float64 {
	return c.StartCelsius + float64(len(c.KiloOhms)-1)*c.StepCelsius
}

// MinKiloOhms returns the resistance at MaxCelsius.
func (c Curve) MinKiloOhms() float64 { return c.KiloOhms[len(c.KiloOhms)-1] }

// MaxKiloOhms returns the resistance at MinCelsius.
func (c Curve) MaxKiloOhms() float64 { return c.KiloOhms[0] }

// Resistance returns the thermistor resistance in kΩ at celsius.
func (c Curve) Resistance(celsius float64) float64 {
	celsius = clamp(celsius, c.MinCelsius(), c.MaxCelsius())

	pos := (celsius - c.StartCelsius) / c.StepCelsius
	i := int(pos)
	if i >= len(c.KiloOhms)-1 {
		return c.MinKiloOhms()
	}
	frac := pos - float64(i)
	return c.KiloOhms[i] + frac*(c.KiloOhms[i+1]-c.KiloOhms[i])
}

// Temperature returns the temperature in °C for a resistance in kΩ.
func (c Curve) Temperature(kiloOhms float64) float64 {
	kiloOhms = clamp(kiloOhms, c.MinKiloOhms(), c.MaxKiloOhms())

	// First sample whose resistance is at or below the target.
	i := sort.Search(len(c.KiloOhms), func(i int) bool {
		return c.KiloOhms[i] <= kiloOhms
	})
	if i == 0 {
		return c.MinCelsius()
	}
	hi, lo := c.KiloOhms[i-1], c.KiloOhms[i]
	frac := (hi - kiloOhms) / (hi - lo)
	return c.StartCelsius + (float64(i-1)+frac)*c.StepCelsius
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v != v: // NaN
		return lo
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
