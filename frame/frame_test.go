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

package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WireLayout(t *testing.T) {
	t.Parallel()

	f := New(MsgEPSControl, CmdHeaterSetpoint2, 0x0A0B0C)
	b := f.Bytes()

	assert.Equal(t, [Size]byte{0x00, 0x04, 0x01, 0x0A, 0x0B, 0x0C, 0x00, 0x00}, b)
}

func TestNew_TruncatesPayloadTo24Bits(t *testing.T) {
	t.Parallel()

	f := New(MsgEPSHousekeeping, 0, 0xFF123456)
	assert.Equal(t, uint32(0x123456), f.Value())
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    []byte
		want    Frame
		wantErr bool
	}{
		{
			name: "housekeeping request",
			data: []byte{0x00, 0x00, 0x05, 0x00, 0x00, 0x00, 0x00, 0x00},
			want: New(MsgEPSHousekeeping, 5, 0),
		},
		{
			name: "big-endian payload",
			data: []byte{0x00, 0x04, 0x00, 0x00, 0x05, 0xEE, 0x00, 0x00},
			want: New(MsgEPSControl, CmdHeaterSetpoint1, 0x05EE),
		},
		{
			name:    "empty",
			data:    nil,
			wantErr: true,
		},
		{
			name:    "short",
			data:    []byte{0x00, 0x00, 0x00},
			wantErr: true,
		},
		{
			name:    "long",
			data:    make([]byte, 9),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tt.data)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_KeepsReservedBytes(t *testing.T) {
	t.Parallel()

	raw := []byte{0xAA, 0x00, 0x03, 0x00, 0x01, 0x02, 0xBB, 0xCC}
	f, err := Parse(raw)
	require.NoError(t, err)

	b := f.Bytes()
	assert.Equal(t, raw, b[:])
}

func TestFrame_WithSeq(t *testing.T) {
	t.Parallel()

	f := New(MsgEPSHousekeeping, 4, 0)
	assert.Zero(t, f.Seq())

	tagged := f.WithSeq(7)
	assert.Equal(t, uint8(7), tagged.Seq())
	assert.Zero(t, f.Seq(), "original is unchanged")
	assert.Equal(t, f.Field(), tagged.Field())
	b := tagged.Bytes()
	assert.Equal(t, byte(7), b[0])
}

func TestField_Next(t *testing.T) {
	t.Parallel()

	seen := []Field{FieldBBVol}
	for f := FieldBBVol; ; {
		next, ok := f.Next()
		if !ok {
			break
		}
		assert.Equal(t, f+1, next)
		seen = append(seen, next)
		f = next
	}

	assert.Len(t, seen, FieldCount)
	assert.Equal(t, FieldIMUMagZ, seen[len(seen)-1])

	_, ok := Field(FieldCount).Next()
	assert.False(t, ok)
}

func TestField_Schedule(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 22, FieldCount)
	assert.Equal(t, Field(6), FieldBatTemp1)
	assert.Equal(t, Field(11), FieldHeatSP1)
	assert.Equal(t, Field(13), FieldIMUAccX)
	assert.Equal(t, "Mag Z", FieldIMUMagZ.String())
	assert.Equal(t, "Unknown", Field(40).String())
	assert.False(t, Field(FieldCount).Valid())
}

func TestMessageType_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "EPS_HK", MsgEPSHousekeeping.String())
	assert.Equal(t, "EPS_CTRL", MsgEPSControl.String())
	assert.Equal(t, "UNKNOWN", MessageType(0x7F).String())
}
