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

package uart

import (
	"errors"
	"fmt"

	"github.com/cubesat-eps/go-eps"
	"github.com/cubesat-eps/go-eps/frame"
)

// Link framing. A packet on the wire is
//
//	START | mailbox | len | data[len] | crc16 (big-endian) | END
//
// with the CRC taken over mailbox, len and data. Any START, END or ESC byte
// between the delimiters is sent as ESC followed by the byte XOR escXOR.
const (
	startByte = 0x7E
	endByte   = 0x7F
	escByte   = 0x7D
	escXOR    = 0x20

	headerSize = 2 // mailbox, len
	crcSize    = 2
	maxBody    = headerSize + frame.Size + crcSize
)

// Decoder errors
var (
	ErrCRCMismatch   = errors.New("link CRC mismatch")
	ErrBadLength     = errors.New("link packet length invalid")
	ErrUnexpectedEnd = errors.New("link packet ended early")
)

// Packet is one mailbox event carried over the link. Len == 0 carries an
// empty message.
type Packet struct {
	Data    [frame.Size]byte
	Len     int
	Mailbox eps.MailboxID
}

// Payload returns the valid bytes of the packet.
func (p Packet) Payload() []byte {
	return p.Data[:p.Len]
}

// PacketFor wraps a frame for mailbox id.
func PacketFor(id eps.MailboxID, f frame.Frame) Packet {
	return Packet{Mailbox: id, Data: f.Bytes(), Len: frame.Size}
}

// Encode returns the wire form of p.
func Encode(p Packet) []byte {
	body := make([]byte, 0, maxBody)
	body = append(body, byte(p.Mailbox), byte(p.Len))
	body = append(body, p.Payload()...)
	crc := checksum(body)
	body = append(body, byte(crc>>8), byte(crc))

	out := make([]byte, 0, 2*len(body)+2)
	out = append(out, startByte)
	for _, b := range body {
		if b == startByte || b == endByte || b == escByte {
			out = append(out, escByte, b^escXOR)
			continue
		}
		out = append(out, b)
	}
	return append(out, endByte)
}

// Decoder reassembles packets from a byte stream. Bytes outside a packet are
// ignored, and a START byte always begins a new packet.
type Decoder struct {
	buf     [maxBody]byte
	n       int
	inFrame bool
	escape  bool
}

// NewDecoder creates a decoder waiting for a START byte.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Reset discards any partial packet.
func (d *Decoder) Reset() {
	d.n = 0
	d.inFrame = false
	d.escape = false
}

// DecodeByte feeds one byte. ok is true when b completed a valid packet; err
// is set when b completed an invalid one.
func (d *Decoder) DecodeByte(b byte) (p Packet, ok bool, err error) {
	switch {
	case b == startByte:
		d.Reset()
		d.inFrame = true
		return Packet{}, false, nil
	case !d.inFrame:
		return Packet{}, false, nil
	case b == endByte:
		p, err = d.finish()
		d.Reset()
		return p, err == nil, err
	case b == escByte && !d.escape:
		d.escape = true
		return Packet{}, false, nil
	}

	if d.escape {
		b ^= escXOR
		d.escape = false
	}
	if d.n == len(d.buf) {
		d.Reset()
		return Packet{}, false, fmt.Errorf("%w: packet exceeds %d bytes", ErrBadLength, maxBody)
	}
	d.buf[d.n] = b
	d.n++
	return Packet{}, false, nil
}

func (d *Decoder) finish() (Packet, error) {
	if d.n < headerSize+crcSize {
		return Packet{}, fmt.Errorf("%w: %d bytes", ErrUnexpectedEnd, d.n)
	}
	length := int(d.buf[1])
	if length > frame.Size || d.n != headerSize+length+crcSize {
		return Packet{}, fmt.Errorf("%w: declared %d, got %d", ErrBadLength, length, d.n-headerSize-crcSize)
	}

	body := d.buf[:headerSize+length]
	got := uint16(d.buf[d.n-2])<<8 | uint16(d.buf[d.n-1])
	if want := checksum(body); got != want {
		return Packet{}, fmt.Errorf("%w: expected 0x%04X, got 0x%04X", ErrCRCMismatch, want, got)
	}

	p := Packet{Mailbox: eps.MailboxID(d.buf[0]), Len: length}
	copy(p.Data[:], d.buf[headerSize:headerSize+length])
	return p, nil
}
