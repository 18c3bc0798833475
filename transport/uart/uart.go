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

// Package uart carries EPS mailbox traffic over a serial line so a node can
// be exercised from a bench host. It acts as the node's bus driver: packets
// received on the line are dispatched to their mailbox, and ResumeTransmit
// drains a transmit mailbox onto the line.
package uart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cubesat-eps/go-eps"
	"go.bug.st/serial"
)

// DefaultBaudRate is the bench link speed.
const DefaultBaudRate = 115200

// Stats counts link traffic.
type Stats struct {
	PacketsReceived int64
	PacketsSent     int64
	DecodeErrors    int64
	DispatchErrors  int64
}

// Transport is a serial bus driver for one node.
type Transport struct {
	port       io.ReadWriteCloser
	dispatcher *eps.Dispatcher
	portName   string
	writeMu    sync.Mutex
	received   int64
	sent       int64
	decodeErrs int64
	dispErrs   int64
}

// getReadTimeout returns the platform read timeout
func getReadTimeout() time.Duration {
	if runtime.GOOS == "windows" {
		return 100 * time.Millisecond
	}
	return 50 * time.Millisecond
}

// New opens portName and returns a transport dispatching into d.
func New(portName string, baudRate int, d *eps.Dispatcher) (*Transport, error) {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open UART port %s: %w", portName, err)
	}

	// Read returns (0, nil) on timeout, which lets Run notice cancellation.
	if err := port.SetReadTimeout(getReadTimeout()); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set UART read timeout: %w", err)
	}

	t := NewWithPort(port, d)
	t.portName = portName
	return t, nil
}

// NewWithPort returns a transport over an already open port. Read must
// return (0, nil) when no data arrives within a bounded time.
func NewWithPort(port io.ReadWriteCloser, d *eps.Dispatcher) *Transport {
	return &Transport{port: port, dispatcher: d}
}

// Run reads packets until ctx ends or the port fails.
func (t *Transport) Run(ctx context.Context) error {
	dec := NewDecoder()
	buf := make([]byte, 256)
	for {
		if ctx.Err() != nil {
			return nil
		}
		n, err := t.port.Read(buf)
		if err != nil {
			if isInterruptedSystemCall(err) {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("UART read failed: %w", err)
		}
		t.feed(dec, buf[:n])
	}
}

// Feed decodes data as if it had been read from the port.
func (t *Transport) Feed(data []byte) {
	t.feed(NewDecoder(), data)
}

func (t *Transport) feed(dec *Decoder, data []byte) {
	for _, b := range data {
		p, ok, err := dec.DecodeByte(b)
		if err != nil {
			atomic.AddInt64(&t.decodeErrs, 1)
			eps.Logger().Warn().Err(err).Str("port", t.portName).Msg("link packet rejected")
			continue
		}
		if !ok {
			continue
		}
		atomic.AddInt64(&t.received, 1)
		if err := t.dispatcher.Receive(p.Mailbox, p.Payload()); err != nil {
			atomic.AddInt64(&t.dispErrs, 1)
			eps.Logger().Warn().Err(err).Uint8("mailbox", uint8(p.Mailbox)).Msg("link packet not dispatched")
		}
	}
}

// ResumeTransmit implements eps.BusDriver. It drains one frame from
// mailbox id and writes it to the line; nothing is written when the mailbox
// has nothing to send.
func (t *Transport) ResumeTransmit(id eps.MailboxID) error {
	f, ok, err := t.dispatcher.TransmitReady(id)
	if err != nil {
		return err //nolint:wrapcheck // dispatcher errors carry the mailbox
	}
	if !ok {
		return nil
	}
	return t.Send(PacketFor(id, f))
}

// Send writes one packet to the line.
func (t *Transport) Send(p Packet) error {
	data := Encode(p)
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	for len(data) > 0 {
		n, err := t.port.Write(data)
		if err != nil {
			if isInterruptedSystemCall(err) {
				continue
			}
			return fmt.Errorf("UART write failed: %w", err)
		}
		data = data[n:]
	}
	atomic.AddInt64(&t.sent, 1)
	return nil
}

// Close closes the port.
func (t *Transport) Close() error {
	if t.port == nil {
		return nil
	}
	if err := t.port.Close(); err != nil && !errors.Is(err, io.ErrClosedPipe) {
		return fmt.Errorf("failed to close UART port: %w", err)
	}
	return nil
}

// Stats returns link counters.
func (t *Transport) Stats() Stats {
	return Stats{
		PacketsReceived: atomic.LoadInt64(&t.received),
		PacketsSent:     atomic.LoadInt64(&t.sent),
		DecodeErrors:    atomic.LoadInt64(&t.decodeErrs),
		DispatchErrors:  atomic.LoadInt64(&t.dispErrs),
	}
}

// isInterruptedSystemCall checks if an error is caused by an interrupted system call
func isInterruptedSystemCall(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "interrupted system call") ||
		strings.Contains(errStr, "eintr")
}
