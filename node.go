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
	"fmt"

	"github.com/cubesat-eps/go-eps/convert"
	"github.com/cubesat-eps/go-eps/frame"
	"github.com/cubesat-eps/go-eps/queue"
)

// Node is one EPS protocol endpoint. It owns both frame queues and every
// handler that works on them; the bus driver reaches it only through the
// Dispatcher, and the main loop only through ProcessNext, SendNext and
// ControlShunts.
type Node struct {
	pipeline   *convert.Pipeline
	inbound    *queue.Queue
	outbound   *queue.Queue
	dispatcher *Dispatcher
	streamer   *Streamer
	heaters    *HeaterController
	shunts     *ShuntController
	cfg        Config
}

// NewNode builds a node over hw. Shunt control is disabled when hw.Shunts
// is nil.
func NewNode(cfg Config, hw Hardware) (*Node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pipeline, err := convert.New(cfg.Calibration)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	n := &Node{
		cfg:      cfg,
		pipeline: pipeline,
		inbound:  queue.New(cfg.QueueCapacity),
		outbound: queue.New(cfg.QueueCapacity),
	}
	n.dispatcher, err = NewDispatcher(n.inbound, n.outbound, cfg.Mailboxes, cfg.AcceptedTypes)
	if err != nil {
		return nil, err
	}
	n.heaters = NewHeaterController(pipeline, hw.DAC, n.outbound)
	n.streamer = NewStreamer(NewHardwareSampler(hw, n.heaters), n.inbound, n.outbound, cfg.AutoAdvance)
	if hw.Shunts != nil {
		n.shunts = NewShuntController(pipeline, hw.ADC, hw.Shunts, cfg.Shunts)
	}
	return n, nil
}

// Init puts the actuators in their power-on state: both heaters off and,
// when present, shunts off.
func (n *Node) Init() error {
	if err := n.heaters.Init(); err != nil {
		return err
	}
	if n.shunts != nil {
		return n.shunts.TurnOff()
	}
	return nil
}

// Dispatcher returns the entry point for bus driver events.
func (n *Node) Dispatcher() *Dispatcher { return n.dispatcher }

// Pipeline returns the node's conversion pipeline.
func (n *Node) Pipeline() *convert.Pipeline { return n.pipeline }

// Heaters returns the heater controller.
func (n *Node) Heaters() *HeaterController { return n.heaters }

// Shunts returns the shunt controller, or nil without a shunt switch.
func (n *Node) Shunts() *ShuntController { return n.shunts }

// Streamer returns the housekeeping streamer.
func (n *Node) Streamer() *Streamer { return n.streamer }

// Config returns the configuration the node was built with.
func (n *Node) Config() Config { return n.cfg }

// Handle processes one inbound frame.
func (n *Node) Handle(f frame.Frame) error {
	switch f.Type() {
	case frame.MsgEPSHousekeeping:
		return n.streamer.Handle(f)
	case frame.MsgEPSControl:
		return n.heaters.Handle(f)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownMessageType, f.Type())
	}
}

// ProcessNext takes one frame off the inbound queue and handles it.
// processed is false when the queue was empty. A non-nil err has already
// been logged; the main loop only needs it for accounting.
func (n *Node) ProcessNext() (processed bool, err error) {
	f, ok := n.inbound.Dequeue()
	if !ok {
		return false, nil
	}
	if err := n.Handle(f); err != nil {
		e := logger.Warn()
		if IsDropped(err) {
			e = logger.Info()
		}
		e.Err(err).Str("msg_type", f.Type().String()).Uint8("field", f.Field()).
			Uint32("value", f.Value()).Msg("inbound frame not processed")
		return true, &DispatchError{Op: "process", Frame: f, Err: err}
	}
	return true, nil
}

// SendNext asks bus to service the data TX mailbox when a response is
// waiting. sent reports whether a transmission was requested.
func (n *Node) SendNext(bus BusDriver) (sent bool, err error) {
	if n.outbound.IsEmpty() {
		return false, nil
	}
	if bus == nil {
		return false, ErrNoBusDriver
	}
	if err := bus.ResumeTransmit(n.cfg.DataTXMailbox); err != nil {
		return false, fmt.Errorf("resume transmit on mailbox %d: %w", n.cfg.DataTXMailbox, err)
	}
	return true, nil
}

// ControlShunts runs one shunt control step. It is a no-op without a shunt
// switch.
func (n *Node) ControlShunts() error {
	if n.shunts == nil {
		return nil
	}
	volts, err := n.shunts.Control()
	if err != nil {
		return err
	}
	logger.Debug().Float64("battery_v", volts).Msg("shunt control")
	return nil
}

// Pending returns the inbound and outbound queue lengths.
func (n *Node) Pending() (inbound, outbound int) {
	return n.inbound.Len(), n.outbound.Len()
}
