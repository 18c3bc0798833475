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

// Package eps implements the telemetry and command protocol core of a
// satellite electrical power system node: mailbox dispatch between the bus
// driver and the frame queues, the field-by-field housekeeping stream, and
// heater setpoint control.
package eps

import (
	"errors"
	"fmt"

	"github.com/cubesat-eps/go-eps/frame"
	"github.com/cubesat-eps/go-eps/queue"
)

// Error categories. None of these are fatal: frames are dropped and the node
// carries on.
var (
	// Queue errors
	ErrQueueFull = queue.ErrFull

	// Protocol errors - the frame is discarded after a log line
	ErrMalformedFrame     = frame.ErrMalformed
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrUnknownField       = errors.New("unknown housekeeping field")
	ErrUnknownCommand     = errors.New("unknown control command")
	ErrFilteredMessage    = errors.New("message type not accepted on mailbox")

	// Routing errors
	ErrUnknownMailbox = errors.New("unknown mailbox")

	// Collaborator errors
	ErrNoSensor        = errors.New("no sensor for measurement channel")
	ErrSensorRead      = errors.New("sensor read failed")
	ErrActuatorWrite   = errors.New("actuator write failed")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrInvalidHeater   = errors.New("invalid heater channel")
	ErrNoBusDriver     = errors.New("no bus driver")
)

// DispatchError records which frame was dropped where and why.
type DispatchError struct {
	Err     error       // Underlying error
	Op      string      // Operation that dropped the frame
	Frame   frame.Frame // Frame involved, zero when none was decoded
	Mailbox MailboxID
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("%s mailbox %d (%s): %v", e.Op, e.Mailbox, e.Frame, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// IsDropped returns true if err means a frame was discarded rather than
// processed. Callers treat this as an observability event, not a failure.
func IsDropped(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrQueueFull),
		errors.Is(err, ErrFilteredMessage),
		IsProtocolViolation(err):
		return true
	default:
		return false
	}
}

// IsProtocolViolation returns true if the peer sent something outside the
// known message set.
func IsProtocolViolation(err error) bool {
	switch {
	case errors.Is(err, ErrMalformedFrame),
		errors.Is(err, ErrUnknownMessageType),
		errors.Is(err, ErrUnknownField),
		errors.Is(err, ErrUnknownCommand):
		return true
	default:
		return false
	}
}
