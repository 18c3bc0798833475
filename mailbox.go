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
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cubesat-eps/go-eps/frame"
	"github.com/cubesat-eps/go-eps/queue"
)

// MailboxID is the hardware frame slot number assigned by the bus driver.
type MailboxID uint8

// Mailboxes used by the EPS node
const (
	MailboxStatusRX MailboxID = 0
	MailboxStatusTX MailboxID = 1
	MailboxCmdTX    MailboxID = 2
	MailboxCmdRX    MailboxID = 4 // Commands and housekeeping requests from the OBC
	MailboxDataTX   MailboxID = 5 // Responses to the OBC
)

// MailboxRole tags what a mailbox handler does with its events.
type MailboxRole int

// Mailbox roles
const (
	RoleRXFilter MailboxRole = iota // Filter received frames into the inbound queue
	RoleTXDrain                     // Drain the outbound queue into the transmit slot
	RoleMonitor                     // Log traffic only
)

func (r MailboxRole) String() string {
	switch r {
	case RoleRXFilter:
		return "rx-filter"
	case RoleTXDrain:
		return "tx-drain"
	case RoleMonitor:
		return "monitor"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// MailboxEvent is the buffer exchanged with the bus driver. For receive
// events the driver fills Data[:Len]; for transmit-ready events the handler
// fills it and Len == 0 means there is nothing to send.
type MailboxEvent struct {
	Data [frame.Size]byte
	Len  int
}

// MailboxHandler is the uniform contract of every routed mailbox. OnEvent is
// called from interrupt context and must stay bounded and non-blocking.
type MailboxHandler interface {
	Role() MailboxRole
	OnEvent(id MailboxID, ev *MailboxEvent) error
}

// RXFilter enqueues received frames of accepted message types into a queue.
type RXFilter struct {
	queue  *queue.Queue
	accept [256]bool
}

// NewRXFilter creates a filter feeding q with frames whose type is in accept.
func NewRXFilter(q *queue.Queue, accept ...frame.MessageType) *RXFilter {
	f := &RXFilter{queue: q}
	for _, t := range accept {
		f.accept[t] = true
	}
	return f
}

// Role implements MailboxHandler.
func (*RXFilter) Role() MailboxRole { return RoleRXFilter }

// Accepts reports whether frames of type t pass the filter.
func (f *RXFilter) Accepts(t frame.MessageType) bool { return f.accept[t] }

// OnEvent implements MailboxHandler. An empty event is "nothing received"
// and changes nothing.
func (f *RXFilter) OnEvent(id MailboxID, ev *MailboxEvent) error {
	if ev.Len == 0 {
		logger.Debug().Uint8("mailbox", uint8(id)).Msg("received empty message")
		return nil
	}
	if ev.Len < 0 || ev.Len > len(ev.Data) {
		return &DispatchError{Op: "receive", Mailbox: id, Err: fmt.Errorf("%w: length %d", ErrMalformedFrame, ev.Len)}
	}

	fr, err := frame.Parse(ev.Data[:ev.Len])
	if err != nil {
		return &DispatchError{Op: "receive", Mailbox: id, Err: err}
	}
	if !f.accept[fr.Type()] {
		return &DispatchError{Op: "receive", Mailbox: id, Frame: fr, Err: ErrFilteredMessage}
	}
	// Sequence tags are node-internal.
	fr = fr.WithSeq(0)
	if err := f.queue.Enqueue(fr); err != nil {
		return &DispatchError{Op: "receive", Mailbox: id, Frame: fr, Err: err}
	}
	return nil
}

// TXDrain hands the head of a queue to the bus driver.
type TXDrain struct {
	queue *queue.Queue
}

// NewTXDrain creates a drain for q.
func NewTXDrain(q *queue.Queue) *TXDrain {
	return &TXDrain{queue: q}
}

// Role implements MailboxHandler.
func (*TXDrain) Role() MailboxRole { return RoleTXDrain }

// OnEvent implements MailboxHandler. An empty queue yields Len == 0 so the
// driver sends nothing rather than a stale buffer.
func (d *TXDrain) OnEvent(_ MailboxID, ev *MailboxEvent) error {
	fr, ok := d.queue.Dequeue()
	if !ok {
		ev.Len = 0
		return nil
	}
	ev.Data = fr.Bytes()
	ev.Len = frame.Size
	return nil
}

// Monitor logs traffic on mailboxes the core does not act on.
type Monitor struct{}

// Role implements MailboxHandler.
func (Monitor) Role() MailboxRole { return RoleMonitor }

// OnEvent implements MailboxHandler.
func (Monitor) OnEvent(id MailboxID, ev *MailboxEvent) error {
	Debugf("mailbox %d: len=%d data=[% X]", id, ev.Len, ev.Data[:max(0, min(ev.Len, len(ev.Data)))])
	return nil
}

// Dispatcher routes bus driver events to mailbox handlers. The routing table
// is fixed at construction, so lookups need no locking; all shared state
// lives in the queues.
type Dispatcher struct {
	routes   map[MailboxID]MailboxHandler
	inbound  *queue.Queue
	outbound *queue.Queue
	dropped  atomic.Uint64
}

// MailboxConfig describes one routed mailbox.
type MailboxConfig struct {
	ID   MailboxID
	Role MailboxRole
}

// DefaultMailboxes returns the EPS routing table.
func DefaultMailboxes() []MailboxConfig {
	return []MailboxConfig{
		{ID: MailboxStatusRX, Role: RoleMonitor},
		{ID: MailboxStatusTX, Role: RoleMonitor},
		{ID: MailboxCmdTX, Role: RoleMonitor},
		{ID: MailboxCmdRX, Role: RoleRXFilter},
		{ID: MailboxDataTX, Role: RoleTXDrain},
	}
}

// NewDispatcher builds the routing table. RX filters feed inbound and accept
// the given message types; TX drains empty outbound.
func NewDispatcher(
	inbound, outbound *queue.Queue, mailboxes []MailboxConfig, accept []frame.MessageType,
) (*Dispatcher, error) {
	d := &Dispatcher{
		routes:   make(map[MailboxID]MailboxHandler, len(mailboxes)),
		inbound:  inbound,
		outbound: outbound,
	}
	for _, mb := range mailboxes {
		if _, dup := d.routes[mb.ID]; dup {
			return nil, fmt.Errorf("%w: mailbox %d routed twice", ErrInvalidConfig, mb.ID)
		}
		switch mb.Role {
		case RoleRXFilter:
			d.routes[mb.ID] = NewRXFilter(inbound, accept...)
		case RoleTXDrain:
			d.routes[mb.ID] = NewTXDrain(outbound)
		case RoleMonitor:
			d.routes[mb.ID] = Monitor{}
		default:
			return nil, fmt.Errorf("%w: mailbox %d has unknown role %v", ErrInvalidConfig, mb.ID, mb.Role)
		}
	}
	return d, nil
}

// Handler returns the handler routed for id.
func (d *Dispatcher) Handler(id MailboxID) (MailboxHandler, bool) {
	h, ok := d.routes[id]
	return h, ok
}

// Dispatch delivers one bus driver event. Dropped frames are logged and
// counted but not reported to the caller; only an unrouted mailbox is an
// error.
func (d *Dispatcher) Dispatch(id MailboxID, ev *MailboxEvent) error {
	h, ok := d.routes[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownMailbox, id)
	}
	if err := h.OnEvent(id, ev); err != nil {
		d.dropped.Add(1)
		logDrop(err)
	}
	return nil
}

// Receive is Dispatch for a receive event carrying data.
func (d *Dispatcher) Receive(id MailboxID, data []byte) error {
	var ev MailboxEvent
	ev.Len = copy(ev.Data[:], data)
	if len(data) > len(ev.Data) {
		// Report the real length so the filter rejects it as malformed.
		ev.Len = len(data)
	}
	return d.Dispatch(id, &ev)
}

// TransmitReady is Dispatch for a transmit-ready event. ok is false when
// there is nothing to send.
func (d *Dispatcher) TransmitReady(id MailboxID) (fr frame.Frame, ok bool, err error) {
	var ev MailboxEvent
	if err := d.Dispatch(id, &ev); err != nil {
		return frame.Frame{}, false, err
	}
	if ev.Len != frame.Size {
		return frame.Frame{}, false, nil
	}
	fr, err = frame.Parse(ev.Data[:])
	if err != nil {
		return frame.Frame{}, false, err
	}
	return fr, true, nil
}

// EnqueueInbound places f on the inbound queue without filtering. Like a
// received frame it enters untagged.
func (d *Dispatcher) EnqueueInbound(f frame.Frame) error {
	return d.inbound.Enqueue(f.WithSeq(0)) //nolint:wrapcheck // callers match ErrQueueFull
}

// DequeueOutbound takes the next frame to transmit.
func (d *Dispatcher) DequeueOutbound() (frame.Frame, bool) {
	return d.outbound.Dequeue()
}

// Dropped returns how many received or transmitted frames were discarded.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

func logDrop(err error) {
	e := logger.Warn()
	if IsProtocolViolation(err) || errors.Is(err, ErrFilteredMessage) {
		e = logger.Info()
	}
	var de *DispatchError
	if errors.As(err, &de) {
		e = e.Uint8("mailbox", uint8(de.Mailbox)).
			Str("msg_type", de.Frame.Type().String()).
			Uint8("field", de.Frame.Field()).
			Uint32("value", de.Frame.Value())
	}
	e.Err(err).Msg("frame dropped")
}
