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

// Package obcsim simulates the on-board computer on the other end of the
// EPS bus. It serves as the node's bus driver: transmit requests are drained
// and decoded into readings, and housekeeping requests and heater commands
// are delivered through the command mailbox.
package obcsim

import (
	"fmt"
	"time"

	"github.com/cubesat-eps/go-eps"
	"github.com/cubesat-eps/go-eps/convert"
	"github.com/cubesat-eps/go-eps/frame"
	"github.com/cubesat-eps/go-eps/internal/syncutil"
)

// Reading is one decoded housekeeping response.
type Reading struct {
	At    time.Time
	Unit  string
	Value float64
	Raw   uint16
	Field frame.Field
}

func (r Reading) String() string {
	return fmt.Sprintf("%-10s %6d  %9.3f %s", r.Field, r.Raw, r.Value, r.Unit)
}

// Options configures the simulated OBC.
type Options struct {
	// OnReading is called for every decoded response.
	OnReading func(Reading)
	// CommandMailbox receives requests and commands.
	CommandMailbox eps.MailboxID
	// RequestNext makes the OBC request field F+1 after each response,
	// for nodes running without auto-advance.
	RequestNext bool
}

// OBC is a simulated on-board computer.
type OBC struct {
	dispatcher *eps.Dispatcher
	pipeline   *convert.Pipeline
	opts       Options
	readings   map[frame.Field]Reading
	acks       []frame.Frame
	mu         syncutil.Mutex
	responses  int
}

// New creates an OBC talking to the node behind d.
func New(d *eps.Dispatcher, p *convert.Pipeline, opts Options) *OBC {
	if opts.CommandMailbox == 0 {
		opts.CommandMailbox = eps.MailboxCmdRX
	}
	return &OBC{
		dispatcher: d,
		pipeline:   p,
		opts:       opts,
		readings:   make(map[frame.Field]Reading),
	}
}

// RequestHousekeeping asks for field f.
func (o *OBC) RequestHousekeeping(f frame.Field) error {
	return o.send(frame.New(frame.MsgEPSHousekeeping, uint8(f), 0))
}

// SetHeater commands heater h to the setpoint for celsius.
func (o *OBC) SetHeater(h eps.HeaterID, celsius float64) error {
	code := o.pipeline.TemperatureToDACCode(celsius)
	return o.send(frame.New(frame.MsgEPSControl, h.Command(), uint32(code)))
}

func (o *OBC) send(f frame.Frame) error {
	b := f.Bytes()
	if err := o.dispatcher.Receive(o.opts.CommandMailbox, b[:]); err != nil {
		return fmt.Errorf("obc send %s: %w", f, err)
	}
	return nil
}

// ResumeTransmit implements eps.BusDriver.
func (o *OBC) ResumeTransmit(id eps.MailboxID) error {
	f, ok, err := o.dispatcher.TransmitReady(id)
	if err != nil || !ok {
		return err //nolint:wrapcheck // dispatcher errors carry the mailbox
	}

	switch f.Type() {
	case frame.MsgEPSHousekeeping:
		return o.handleResponse(f)
	case frame.MsgEPSControl:
		o.mu.Critical(func() { o.acks = append(o.acks, f) })
		eps.Debugf("obc: control ack cmd=%d code=%d", f.Field(), f.Value())
		return nil
	default:
		return fmt.Errorf("%w: %s", eps.ErrUnknownMessageType, f.Type())
	}
}

func (o *OBC) handleResponse(f frame.Frame) error {
	field := frame.Field(f.Field())
	m, ok := eps.Measurement(field)
	if !ok {
		return fmt.Errorf("%w: %d", eps.ErrUnknownField, f.Field())
	}
	raw := uint16(min(f.Value(), 0xFFFF))
	r := Reading{
		At:    time.Now(),
		Field: field,
		Raw:   raw,
		Value: m.ToPhysical(o.pipeline, raw),
		Unit:  m.Unit(),
	}
	o.mu.Critical(func() {
		o.readings[field] = r
		o.responses++
	})
	if o.opts.OnReading != nil {
		o.opts.OnReading(r)
	}

	if !o.opts.RequestNext {
		return nil
	}
	if next, ok := field.Next(); ok {
		return o.RequestHousekeeping(next)
	}
	return nil
}

// Reading returns the latest reading of f.
func (o *OBC) Reading(f frame.Field) (r Reading, ok bool) {
	o.mu.Critical(func() { r, ok = o.readings[f] })
	return r, ok
}

// Readings returns the latest reading of every field seen, in field order.
func (o *OBC) Readings() []Reading {
	var out []Reading
	o.mu.Critical(func() {
		for f := frame.Field(0); f.Valid(); f++ {
			if r, ok := o.readings[f]; ok {
				out = append(out, r)
			}
		}
	})
	return out
}

// Responses returns how many housekeeping responses were received.
func (o *OBC) Responses() (n int) {
	o.mu.Critical(func() { n = o.responses })
	return n
}

// Acks returns the control acknowledgements received.
func (o *OBC) Acks() (acks []frame.Frame) {
	o.mu.Critical(func() { acks = append(acks, o.acks...) })
	return acks
}
