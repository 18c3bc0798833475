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
	"errors"
	"fmt"
)

// ErrMalformed is returned by Parse for anything that is not exactly one frame.
var ErrMalformed = errors.New("malformed frame")

// Frame is one bus message. It is a small value type and is copied into and
// out of queues; once built it is never modified.
type Frame struct {
	reserved0 byte
	msgType   MessageType
	field     uint8
	value     uint32
	reserved  [2]byte
}

// New builds a frame. Only the low 24 bits of value fit on the wire; higher
// bits are dropped.
func New(msgType MessageType, field uint8, value uint32) Frame {
	return Frame{
		msgType: msgType,
		field:   field,
		value:   value & MaxValue,
	}
}

// Parse decodes a raw frame. Reserved bytes are kept so a frame survives a
// parse/encode cycle unchanged.
func Parse(data []byte) (Frame, error) {
	if len(data) != Size {
		return Frame{}, fmt.Errorf("%w: got %d bytes, want %d", ErrMalformed, len(data), Size)
	}
	return Frame{
		reserved0: data[offReserved0],
		msgType:   MessageType(data[offType]),
		field:     data[offField],
		value: uint32(data[offPayload])<<16 |
			uint32(data[offPayload+1])<<8 |
			uint32(data[offPayload+2]),
		reserved: [2]byte{data[offReserved], data[offReserved+1]},
	}, nil
}

// Bytes encodes the frame in wire order.
func (f Frame) Bytes() [Size]byte {
	var b [Size]byte
	b[offReserved0] = f.reserved0
	b[offType] = byte(f.msgType)
	b[offField] = f.field
	b[offPayload] = byte(f.value >> 16)
	b[offPayload+1] = byte(f.value >> 8)
	b[offPayload+2] = byte(f.value)
	b[offReserved] = f.reserved[0]
	b[offReserved+1] = f.reserved[1]
	return b
}

// Type returns the message type.
func (f Frame) Type() MessageType { return f.msgType }

// Field returns byte2: the housekeeping field number or the command id.
func (f Frame) Field() uint8 { return f.field }

// Value returns the 24-bit payload.
func (f Frame) Value() uint32 { return f.value }

// Seq returns byte0. It is zero on the bus; the node uses it to tag requests
// it schedules for itself.
func (f Frame) Seq() uint8 { return f.reserved0 }

// WithSeq returns a copy of f with byte0 set to seq.
func (f Frame) WithSeq(seq uint8) Frame {
	f.reserved0 = seq
	return f
}

// String formats the frame for logs.
func (f Frame) String() string {
	b := f.Bytes()
	return fmt.Sprintf("%s field=%d value=0x%06X [% X]", f.msgType, f.field, f.value, b[:])
}
