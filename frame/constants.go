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

// Package frame defines the fixed 8-byte bus frame exchanged between the EPS
// node and the on-board computer, along with the message types, command
// identifiers and housekeeping field schedule carried inside it.
package frame

// Frame layout
const (
	Size = 8 // Every frame on the bus is exactly this long

	offReserved0 = 0
	offType      = 1
	offField     = 2
	offPayload   = 3 // 3 bytes, big-endian
	offReserved  = 6 // 2 bytes

	MaxValue = 0xFFFFFF // Largest 24-bit payload
)

// MessageType is the byte1 discriminator of a frame.
type MessageType uint8

// Message types handled by the EPS core
const (
	// MsgEPSHousekeeping is shared by requests (OBC to EPS) and responses
	// (EPS to OBC); direction is given by the queue a frame sits in.
	MsgEPSHousekeeping MessageType = 0x00
	MsgPayHousekeeping MessageType = 0x01
	MsgPayOptical      MessageType = 0x02
	MsgPayExperiment   MessageType = 0x03
	MsgEPSControl      MessageType = 0x04
	MsgPayControl      MessageType = 0x05
)

// Command identifiers carried in byte2 of MsgEPSControl frames
const (
	CmdHeaterSetpoint1 uint8 = 0x00
	CmdHeaterSetpoint2 uint8 = 0x01
)

// String returns the protocol name of the message type.
func (t MessageType) String() string {
	switch t {
	case MsgEPSHousekeeping:
		return "EPS_HK"
	case MsgPayHousekeeping:
		return "PAY_HK"
	case MsgPayOptical:
		return "PAY_OPT"
	case MsgPayExperiment:
		return "PAY_EXP"
	case MsgEPSControl:
		return "EPS_CTRL"
	case MsgPayControl:
		return "PAY_CTRL"
	default:
		return "UNKNOWN"
	}
}
