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

package obcsim

import (
	"testing"

	"github.com/cubesat-eps/go-eps"
	"github.com/cubesat-eps/go-eps/analogio"
	"github.com/cubesat-eps/go-eps/convert"
	"github.com/cubesat-eps/go-eps/frame"
	"github.com/cubesat-eps/go-eps/polling"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	eps.SetLogger(zerolog.Nop())
}

type bench struct {
	node  *eps.Node
	board *analogio.SimBoard
	obc   *OBC
	loop  *polling.Loop
}

func newBench(t *testing.T, autoAdvance bool) *bench {
	t.Helper()
	cfg := eps.DefaultConfig()
	cfg.AutoAdvance = autoAdvance

	board := analogio.NewSimBoard(convert.Default())
	node, err := eps.NewNode(cfg, board.Hardware())
	require.NoError(t, err)
	require.NoError(t, node.Init())

	obc := New(node.Dispatcher(), node.Pipeline(), Options{RequestNext: !autoAdvance})
	loop, err := polling.NewLoop(node, obc, nil)
	require.NoError(t, err)
	return &bench{node: node, board: board, obc: obc, loop: loop}
}

func (b *bench) drain(t *testing.T) {
	t.Helper()
	for i := 0; b.loop.Step(); i++ {
		require.Less(t, i, 1000)
	}
}

func TestOBC_HousekeepingStream(t *testing.T) {
	t.Parallel()

	for _, autoAdvance := range []bool{true, false} {
		b := newBench(t, autoAdvance)
		require.NoError(t, b.board.SetPhysical(frame.FieldBatVol, 7.4))
		require.NoError(t, b.board.SetPhysical(frame.FieldBatTemp1, 21))
		require.NoError(t, b.board.SetPhysical(frame.FieldPYCur, 0.5))

		require.NoError(t, b.obc.RequestHousekeeping(0))
		b.drain(t)

		assert.Equal(t, frame.FieldCount, b.obc.Responses(), "auto-advance %v", autoAdvance)
		readings := b.obc.Readings()
		require.Len(t, readings, frame.FieldCount)
		for i, r := range readings {
			assert.Equal(t, frame.Field(i), r.Field)
		}

		r, ok := b.obc.Reading(frame.FieldBatVol)
		require.True(t, ok)
		assert.InDelta(t, 7.4, r.Value, 0.01)
		assert.Equal(t, "V", r.Unit)

		r, _ = b.obc.Reading(frame.FieldBatTemp1)
		assert.InDelta(t, 21.0, r.Value, 0.2)

		r, _ = b.obc.Reading(frame.FieldPYCur)
		assert.InDelta(t, 0.5, r.Value, 0.01)

		r, _ = b.obc.Reading(frame.FieldHeatSP1)
		assert.InDelta(t, 0.0, r.Value, 0.1, "heaters start off")
	}
}

func TestOBC_HeaterCommands(t *testing.T) {
	t.Parallel()
	b := newBench(t, true)

	require.NoError(t, b.obc.SetHeater(eps.Heater1, 0))
	require.NoError(t, b.obc.SetHeater(eps.Heater2, 100))
	b.drain(t)

	assert.Equal(t, uint16(1518), b.board.DACCode(eps.DACHeater1))
	assert.Equal(t, uint16(184), b.board.DACCode(eps.DACHeater2))
	assert.Equal(t, []frame.Frame{
		frame.New(frame.MsgEPSControl, frame.CmdHeaterSetpoint1, 1518),
		frame.New(frame.MsgEPSControl, frame.CmdHeaterSetpoint2, 184),
	}, b.obc.Acks())

	require.NoError(t, b.obc.SetHeater(eps.Heater1, 28))
	require.NoError(t, b.obc.RequestHousekeeping(frame.FieldHeatSP1))
	b.drain(t)

	r, ok := b.obc.Reading(frame.FieldHeatSP1)
	require.True(t, ok)
	assert.InDelta(t, 28.0, r.Value, 0.2)
	r, _ = b.obc.Reading(frame.FieldHeatSP2)
	assert.InDelta(t, 100.0, r.Value, 0.1, "other heater unchanged")
}

func TestOBC_OnReading(t *testing.T) {
	t.Parallel()
	b := newBench(t, true)
	var got []frame.Field
	b.obc.opts.OnReading = func(r Reading) { got = append(got, r.Field) }

	require.NoError(t, b.obc.RequestHousekeeping(frame.FieldIMUMagY))
	b.drain(t)

	assert.Equal(t, []frame.Field{frame.FieldIMUMagY, frame.FieldIMUMagZ}, got)
	r, _ := b.obc.Reading(frame.FieldIMUMagZ)
	assert.Contains(t, r.String(), "Mag Z")
}
