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

	"github.com/cubesat-eps/go-eps/convert"
	"github.com/cubesat-eps/go-eps/frame"
	"github.com/cubesat-eps/go-eps/queue"
)

// Config holds the node's construction-time settings.
type Config struct {
	// AcceptedTypes are the message types the command RX mailbox lets into
	// the inbound queue.
	AcceptedTypes []frame.MessageType
	Mailboxes     []MailboxConfig
	Calibration   convert.Calibration
	Shunts        ShuntThresholds
	QueueCapacity int
	// DataTXMailbox is resumed by SendNext when responses are waiting.
	DataTXMailbox MailboxID
	// AutoAdvance makes the node schedule the next housekeeping request
	// itself. When false the peer requests every field.
	AutoAdvance bool
}

// DefaultConfig returns the flight configuration.
func DefaultConfig() Config {
	return Config{
		AcceptedTypes: []frame.MessageType{frame.MsgEPSHousekeeping, frame.MsgEPSControl},
		Mailboxes:     DefaultMailboxes(),
		Calibration:   convert.DefaultCalibration(),
		Shunts:        DefaultShuntThresholds(),
		QueueCapacity: queue.DefaultCapacity,
		DataTXMailbox: MailboxDataTX,
		AutoAdvance:   true,
	}
}

// Validate checks the configuration for values NewNode cannot build from.
func (c Config) Validate() error {
	var errs []error
	if c.QueueCapacity < 1 {
		errs = append(errs, fmt.Errorf("queue capacity %d must be positive", c.QueueCapacity))
	}
	if len(c.AcceptedTypes) == 0 {
		errs = append(errs, errors.New("no accepted message types"))
	}
	drain := false
	for _, mb := range c.Mailboxes {
		if mb.ID == c.DataTXMailbox && mb.Role == RoleTXDrain {
			drain = true
		}
	}
	if !drain {
		errs = append(errs, fmt.Errorf("data TX mailbox %d is not routed to a TX drain", c.DataTXMailbox))
	}
	if err := c.Calibration.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Shunts.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
