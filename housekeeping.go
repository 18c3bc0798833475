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

	"github.com/cubesat-eps/go-eps/frame"
	"github.com/cubesat-eps/go-eps/queue"
)

// StreamState is the state of the housekeeping stream.
type StreamState int

// Stream states
const (
	StreamIdle StreamState = iota
	StreamStreaming
)

func (s StreamState) String() string {
	if s == StreamStreaming {
		return "streaming"
	}
	return "idle"
}

// Streamer answers housekeeping requests one field at a time. With
// auto-advance on, each answered request schedules the request for the next
// field on the inbound queue, so a single request for field 0 streams the
// whole field set across main loop passes without blocking the loop.
//
// Scheduled requests carry the sequence number in frame byte0. Every request
// from the peer starts a new sequence, so a request scheduled by an earlier
// one is recognised and discarded instead of running alongside it.
//
// Streamer is owned by the main loop and is not safe for concurrent use.
type Streamer struct {
	sampler     Sampler
	inbound     *queue.Queue
	outbound    *queue.Queue
	state       StreamState
	current     frame.Field
	seq         uint8
	autoAdvance bool
}

// NewStreamer creates a streamer. Responses go to outbound; self-scheduled
// requests go to inbound.
func NewStreamer(s Sampler, inbound, outbound *queue.Queue, autoAdvance bool) *Streamer {
	return &Streamer{
		sampler:     s,
		inbound:     inbound,
		outbound:    outbound,
		autoAdvance: autoAdvance,
	}
}

// State returns the stream state and, while streaming, the field being
// answered.
func (s *Streamer) State() (StreamState, frame.Field) {
	return s.state, s.current
}

// Handle answers one housekeeping request. Field 0 restarts the sequence
// from any state. A request past the last field produces no response and
// returns ErrUnknownField. A scheduled request left over from a superseded
// sequence is dropped without a response.
func (s *Streamer) Handle(req frame.Frame) error {
	if req.Type() != frame.MsgEPSHousekeeping {
		return fmt.Errorf("%w: %s", ErrUnknownMessageType, req.Type())
	}

	switch tag := req.Seq(); {
	case tag == 0:
		s.newSequence()
	case tag != s.seq:
		logger.Debug().Uint8("field", req.Field()).Uint8("seq", tag).Uint8("current_seq", s.seq).
			Msg("superseded housekeeping request discarded")
		return nil
	}

	field := frame.Field(req.Field())
	if !field.Valid() {
		s.idle()
		return fmt.Errorf("%w: %d", ErrUnknownField, req.Field())
	}
	if field == 0 && s.state == StreamStreaming {
		Debugln("housekeeping sequence restarted at", s.current)
	}
	s.state, s.current = StreamStreaming, field

	raw, err := s.sampler.Sample(field)
	if err != nil {
		s.idle()
		return err
	}

	resp := frame.New(frame.MsgEPSHousekeeping, uint8(field), uint32(raw))
	if err := s.outbound.Enqueue(resp); err != nil {
		s.idle()
		return fmt.Errorf("housekeeping response %s: %w", field, err)
	}

	next, ok := field.Next()
	if !ok || !s.autoAdvance {
		s.idle()
		return nil
	}
	if err := s.inbound.Enqueue(frame.New(frame.MsgEPSHousekeeping, uint8(next), 0).WithSeq(s.seq)); err != nil {
		s.idle()
		return fmt.Errorf("housekeeping request %s: %w", next, err)
	}
	return nil
}

// newSequence advances the sequence number, skipping the untagged zero.
func (s *Streamer) newSequence() {
	s.seq++
	if s.seq == 0 {
		s.seq = 1
	}
}

func (s *Streamer) idle() {
	if s.state == StreamStreaming {
		Debugln("housekeeping stream idle after", s.current)
	}
	s.state, s.current = StreamIdle, 0
}
