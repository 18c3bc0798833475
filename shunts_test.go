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
	"testing"

	"github.com/cubesat-eps/go-eps/convert"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShuntController_Hysteresis(t *testing.T) {
	t.Parallel()
	p := convert.Default()
	adc := newFakeADC()
	sw := &fakeShunts{}
	c := NewShuntController(p, adc, sw, DefaultShuntThresholds())

	steps := []struct {
		volts  float64
		wantOn bool
	}{
		{volts: 8.0, wantOn: false}, // in band, no history: charge
		{volts: 8.3, wantOn: true},
		{volts: 8.0, wantOn: true}, // in band: hold
		{volts: 7.8, wantOn: false},
		{volts: 8.1, wantOn: false},
	}

	for _, step := range steps {
		adc.set(ADCPackVol, p.EPSVoltageToADCCode(step.volts))
		volts, err := c.Control()
		require.NoError(t, err)
		assert.InDelta(t, step.volts, volts, 0.01)
		on, known := c.On()
		assert.True(t, known)
		assert.Equal(t, step.wantOn, on, "at %.1f V", step.volts)
	}

	assert.Equal(t, []bool{false, true, false}, sw.states, "switch only on transitions")
}

func TestShuntController_Manual(t *testing.T) {
	t.Parallel()
	sw := &fakeShunts{}
	c := NewShuntController(convert.Default(), nil, sw, DefaultShuntThresholds())

	_, known := c.On()
	assert.False(t, known)

	require.NoError(t, c.TurnOn())
	require.NoError(t, c.TurnOff())
	assert.Equal(t, []bool{true, false}, sw.states)

	_, err := c.Control()
	require.ErrorIs(t, err, ErrNoSensor)
}

func TestShuntController_ReadError(t *testing.T) {
	t.Parallel()
	adc := newFakeADC()
	adc.fail[ADCPackVol] = true
	sw := &fakeShunts{}
	c := NewShuntController(convert.Default(), adc, sw, DefaultShuntThresholds())

	_, err := c.Control()

	require.ErrorIs(t, err, ErrSensorRead)
	assert.Empty(t, sw.states)
}

func TestShuntThresholds_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, DefaultShuntThresholds().Validate())
	require.ErrorIs(t, ShuntThresholds{OnAbove: 7, OffBelow: 7}.Validate(), ErrInvalidConfig)
	require.ErrorIs(t, ShuntThresholds{OnAbove: 7, OffBelow: 8}.Validate(), ErrInvalidConfig)
}
